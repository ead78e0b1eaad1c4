package ppu

import (
	"bytes"
	"flag"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var updateGolden = flag.Bool("update", false, "update golden files")

// writeTile writes an 8x8 tile at the given pattern table address, each row
// given as 8 color indexes.
func writeTile(p *PPU, addr uint16, rows [8][8]uint8) {
	for r, row := range rows {
		var lo, hi uint8
		for c, ci := range row {
			lo |= (ci & 1) << (7 - c)
			hi |= ((ci >> 1) & 1) << (7 - c)
		}
		p.VRAM.Data[addr+uint16(r)] = lo
		p.VRAM.Data[addr+uint16(r)+8] = hi
	}
}

// gradient tile: column c has color c/2.
var gradient = [8][8]uint8{
	{0, 0, 1, 1, 2, 2, 3, 3},
	{0, 0, 1, 1, 2, 2, 3, 3},
	{0, 0, 1, 1, 2, 2, 3, 3},
	{0, 0, 1, 1, 2, 2, 3, 3},
	{0, 0, 1, 1, 2, 2, 3, 3},
	{0, 0, 1, 1, 2, 2, 3, 3},
	{0, 0, 1, 1, 2, 2, 3, 3},
	{0, 0, 1, 1, 2, 2, 3, 3},
}

// arrow tile: color 3 on the top-left corner, transparent elsewhere.
var corner = [8][8]uint8{
	{3, 3, 0, 0, 0, 0, 0, 0},
	{3, 0, 0, 0, 0, 0, 0, 0},
}

func at(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}

func TestRenderBackground(t *testing.T) {
	p := New(nil)
	writeTile(p, 0x0010, gradient) // tile 1, pattern table 0
	p.VRAM.Data[nametableAddr] = 1    // tile (0, 0)
	p.VRAM.Data[nametableAddr+33] = 1 // tile (1, 1)
	p.VRAM.Data[nametableAddr+2] = 1  // tile (2, 0)
	// Top-left 2x2 tiles use palette 0, top-right palette 1.
	p.VRAM.Data[attrTableAddr] = 0b00_00_01_00

	p.render()
	img := p.Output()

	for x := range 8 {
		if got, want := at(img, x, 3), Palette[x/2]; got != want {
			t.Errorf("tile (0,0) pixel (%d,3) = %v, want %v", x, got, want)
		}
		if got, want := at(img, 8+x, 8+5), Palette[x/2]; got != want {
			t.Errorf("tile (1,1) pixel (%d,5) = %v, want %v", x, got, want)
		}
		if got, want := at(img, 16+x, 0), Palette[4+x/2]; got != want {
			t.Errorf("tile (2,0) pixel (%d,0) = %v, want %v", x, got, want)
		}
	}
	// Tile 0 is blank: backdrop.
	if got := at(img, 100, 100); got != Palette[0] {
		t.Errorf("pixel (100,100) = %v, want backdrop", got)
	}
}

func TestRenderPatternBase(t *testing.T) {
	p := New(nil)
	writeTile(p, 0x1010, gradient)
	p.VRAM.Data[nametableAddr] = 1

	p.render()
	if got := at(p.Output(), 7, 0); got != Palette[0] {
		t.Errorf("table 0: pixel = %v, want backdrop", got)
	}

	p.WriteRegister(0x2000, 1<<backgroundAddr)
	p.render()
	if got := at(p.Output(), 7, 0); got != Palette[3] {
		t.Errorf("table 1: pixel = %v, want %v", got, Palette[3])
	}
}

func TestRenderSprites(t *testing.T) {
	p := New(nil)
	writeTile(p, 0x0010, gradient)
	writeTile(p, 0x0020, corner)

	// Sprite 0: tile 1 at (100, 50+1), palette 2.
	copy(p.OAM[0:], []uint8{50, 1, 0x02, 100})
	// Sprite 1: tile 2, flipped both ways at (10, 20+1), palette 3.
	copy(p.OAM[4:], []uint8{20, 2, 0x03 | attrFlipH | attrFlipV, 10})
	// Sprite 2: below sprite 0, palette 1.
	copy(p.OAM[8:], []uint8{50, 1, 0x01, 100})
	// Hide the remaining sprites.
	for i := 3; i < numSprites; i++ {
		p.OAM[i*4] = 0xEF
	}

	p.render()
	img := p.Output()

	// Color 0 is transparent.
	if got := at(img, 100, 51); got != Palette[0] {
		t.Errorf("transparent pixel = %v, want backdrop", got)
	}
	// Sprite 0 has priority over sprite 2.
	if got, want := at(img, 107, 51), Palette[2*4+3]; got != want {
		t.Errorf("sprite 0 pixel = %v, want %v", got, want)
	}
	if got := at(img, 107, 50); got != Palette[0] {
		t.Errorf("pixel above sprite = %v, want backdrop (y+1 offset)", got)
	}

	// Flipped corner ends up bottom-right.
	if got, want := at(img, 17, 28), Palette[3*4+3]; got != want {
		t.Errorf("flipped corner = %v, want %v", got, want)
	}
	if got := at(img, 10, 21); got != Palette[0] {
		t.Errorf("unflipped corner = %v, want backdrop", got)
	}
}

func TestRenderSpriteClipping(t *testing.T) {
	p := New(nil)
	writeTile(p, 0x0010, gradient)
	for i := range numSprites {
		copy(p.OAM[i*4:], []uint8{0xEF, 1, 0, 0xFC})
	}
	copy(p.OAM[0:], []uint8{235, 1, 0, 252})

	// Must not panic, draws the visible 4x4 top-left part.
	p.render()
	if got, want := at(p.Output(), 255, 236), Palette[1]; got != want {
		t.Errorf("pixel = %v, want %v", got, want)
	}
}

func goldenFrame(t *testing.T) *image.RGBA {
	t.Helper()

	p := New(nil)
	writeTile(p, 0x0010, gradient)
	writeTile(p, 0x0020, corner)
	for i := range 32 * 30 {
		p.VRAM.Data[nametableAddr+i] = uint8(i%3) & 1
	}
	for i := range 64 {
		p.VRAM.Data[attrTableAddr+i] = uint8(i * 0x1B)
	}
	for i := range numSprites {
		copy(p.OAM[i*4:], []uint8{uint8(i * 3), 2 - uint8(i%2), uint8(i), uint8(i * 4)})
	}
	p.render()
	return p.Output()
}

func TestRenderGolden(t *testing.T) {
	img := goldenFrame(t)
	path := filepath.Join("testdata", "frame.golden.png")

	if *updateGolden {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			t.Fatal(err)
		}
		if err := os.MkdirAll("testdata", 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			t.Fatal(err)
		}
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		t.Skipf("%s missing, run with -update to create it", path)
	}
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	want := image.NewRGBA(decoded.Bounds())
	draw.Draw(want, want.Bounds(), decoded, image.Point{}, draw.Src)

	if diff := cmp.Diff(want.Bounds(), img.Bounds()); diff != "" {
		t.Fatalf("frame bounds mismatch (-want +got):\n%s", diff)
	}
	if !bytes.Equal(want.Pix, img.Pix) {
		ndiff := 0
		for i := range want.Pix {
			if want.Pix[i] != img.Pix[i] {
				ndiff++
			}
		}
		t.Errorf("frame differs from %s (%d bytes)", path, ndiff)
	}
}
