package ppu

import (
	"image/color"

	"nesav/hw/hwdefs"
)

const (
	nametableAddr = 0x2000
	attrTableAddr = 0x23C0

	numSprites = 64
)

// render draws the whole frame: background from the first nametable, then
// all sprites on top of it.
func (p *PPU) render() {
	p.renderBackground()
	p.renderSprites()
}

func (p *PPU) patternTable(bit uint) uint16 {
	if p.PPUCTRL.GetBit(bit) {
		return 0x1000
	}
	return 0x0000
}

// tileRow returns the 2 bit-planes of the given row of a tile.
func (p *PPU) tileRow(base uint16, tile uint8, row int) (lo, hi uint8) {
	addr := base + uint16(tile)*16 + uint16(row)
	return p.VRAM.Data[addr&(vramSize-1)], p.VRAM.Data[(addr+8)&(vramSize-1)]
}

// pixel returns the 2-bit color index of column col (0 is leftmost) of a
// tile row.
func pixel(lo, hi uint8, col int) uint8 {
	bit := 7 - col
	return (lo>>bit)&0x01 | ((hi>>bit)&0x01)<<1
}

func (p *PPU) setPixel(x, y int, c color.RGBA) {
	off := p.screen.PixOffset(x, y)
	pix := p.screen.Pix[off : off+4 : off+4]
	pix[0], pix[1], pix[2], pix[3] = c.R, c.G, c.B, c.A
}

func (p *PPU) renderBackground() {
	base := p.patternTable(backgroundAddr)

	for ty := range hwdefs.NTSCHeight / 8 {
		for tx := range hwdefs.NTSCWidth / 8 {
			tile := p.VRAM.Data[nametableAddr+ty*32+tx]

			// Each attribute byte covers 4x4 tiles, 2 bits per 2x2 tiles.
			attr := p.VRAM.Data[attrTableAddr+(ty/4)*8+tx/4]
			shift := (ty%4/2)*4 + (tx%4/2)*2
			group := (attr >> shift) & 0x03

			for row := range 8 {
				lo, hi := p.tileRow(base, tile, row)
				for col := range 8 {
					c := pixel(lo, hi, col)
					p.setPixel(tx*8+col, ty*8+row, Palette[group*4+c])
				}
			}
		}
	}
}

// OAM entry layout.
const (
	oamY = iota
	oamTile
	oamAttr
	oamX
)

const (
	attrPalette = 0x03
	attrFlipH   = 0x40
	attrFlipV   = 0x80
)

func (p *PPU) renderSprites() {
	base := p.patternTable(spriteAddr)

	// Lower indexes have higher priority, so they're drawn last.
	for i := numSprites - 1; i >= 0; i-- {
		spr := p.OAM[i*4 : i*4+4]

		// Sprite data is delayed by one scanline.
		y := int(spr[oamY]) + 1
		if y >= hwdefs.NTSCHeight {
			continue
		}
		x := int(spr[oamX])
		attr := spr[oamAttr]
		group := attr & attrPalette

		for row := range 8 {
			py := y + row
			if py >= hwdefs.NTSCHeight {
				break
			}
			srow := row
			if attr&attrFlipV != 0 {
				srow = 7 - row
			}
			lo, hi := p.tileRow(base, spr[oamTile], srow)

			for col := range 8 {
				px := x + col
				if px >= hwdefs.NTSCWidth {
					break
				}
				scol := col
				if attr&attrFlipH != 0 {
					scol = 7 - col
				}
				c := pixel(lo, hi, scol)
				if c == 0 {
					continue // transparent
				}
				p.setPixel(px, py, Palette[group*4+c])
			}
		}
	}
}
