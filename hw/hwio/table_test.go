package hwio_test

import (
	"testing"

	"nesav/hw/hwio"
)

type testTable struct {
	t   testing.TB
	Bus *hwio.Table

	// $2000
	Reg0 hwio.Reg8 `hwio:"offset=0x0,reset=0x77"`
	// $2001
	Reg1 hwio.Reg8 `hwio:"offset=0x1,rwmask=0x0F,rcb,reset=0x99"`
	// $2002
	Reg2 hwio.Reg8 `hwio:"offset=0x2,readonly,pcb=PeekReg2"`
	// $2003
	Reg3 hwio.Reg8 `hwio:"offset=0x3,writeonly,wcb"`

	// $4000
	Reg4 hwio.Reg8 `hwio:"bank=1,offset=0x0"`

	written []uint8
}

func newTestTable(tb testing.TB) *testTable {
	tbl := &testTable{t: tb}
	hwio.MustInitRegs(tbl)

	tbl.Bus = hwio.NewTable("bus")
	tbl.Bus.MapBank(0x2000, tbl, 0)
	tbl.Bus.MapBank(0x4000, tbl, 1)
	return tbl
}

func (tbl *testTable) ReadREG1(val uint8) uint8      { return tbl.Reg1.Value + 1 }
func (tbl *testTable) PeekReg2(val uint8) uint8      { return 0x12 }
func (tbl *testTable) WriteREG3(old uint8, val uint8) { tbl.written = append(tbl.written, val) }

func (tbl *testTable) wantRead8(addr uint16, want uint8) {
	tbl.t.Helper()
	if got := tbl.Bus.Read8(addr); got != want {
		tbl.t.Errorf("Read8(%04X) = %02X, want %02X", addr, got, want)
	}
}

func (tbl *testTable) wantPeek8(addr uint16, want uint8) {
	tbl.t.Helper()
	if got := tbl.Bus.Peek8(addr); got != want {
		tbl.t.Errorf("Peek8(%04X) = %02X, want %02X", addr, got, want)
	}
}

func TestTableRegs(t *testing.T) {
	tbl := newTestTable(t)

	tbl.wantRead8(0x2000, 0x77)

	// Reg1
	tbl.wantRead8(0x2001, 0x9a)
	tbl.Bus.Write8(0x2001, 0xff)
	tbl.wantRead8(0x2001, 0xa0)
	tbl.wantPeek8(0x2001, 0x9f)

	// Reg2
	tbl.wantRead8(0x2002, 0x00)
	tbl.wantPeek8(0x2002, 0x12)
	tbl.Bus.Write8(0x2002, 0x9b)
	tbl.wantRead8(0x2002, 0x00)

	// Reg3
	tbl.Bus.Write8(0x2003, 0x42)
	tbl.wantRead8(0x2003, 0x00)
	if len(tbl.written) != 1 || tbl.written[0] != 0x42 {
		t.Errorf("write callback got %v, want [0x42]", tbl.written)
	}

	// Bank 1
	tbl.Bus.Write8(0x4000, 0x5c)
	tbl.wantRead8(0x4000, 0x5c)
}

func TestTableUnmapped(t *testing.T) {
	tbl := newTestTable(t)

	for _, addr := range []uint16{0x0000, 0x1fff, 0x2004, 0x3fff, 0x4001, 0xffff} {
		tbl.wantRead8(addr, 0)
		tbl.Bus.Write8(addr, 0xff) // must not panic
	}
}

func TestTableOverlap(t *testing.T) {
	bus := hwio.NewTable("bus")
	bus.Map(0x10, 0x1f, &hwio.Reg8{})

	for _, r := range [][2]uint16{{0x00, 0x10}, {0x1f, 0x20}, {0x12, 0x13}, {0x00, 0xff}} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Map(%02x, %02x) should panic", r[0], r[1])
				}
			}()
			bus.Map(r[0], r[1], &hwio.Reg8{})
		}()
	}

	// Adjacent ranges are fine.
	bus.Map(0x00, 0x0f, &hwio.Reg8{Value: 1})
	bus.Map(0x20, 0x2f, &hwio.Reg8{Value: 2})
	if got := bus.Read8(0x0f); got != 1 {
		t.Errorf("Read8(0f) = %d, want 1", got)
	}
	if got := bus.Read8(0x25); got != 2 {
		t.Errorf("Read8(25) = %d, want 2", got)
	}
}

func TestReg8Bits(t *testing.T) {
	var reg hwio.Reg8

	reg.SetBit(7)
	reg.SetBit(0)
	if reg.Value != 0x81 {
		t.Fatalf("Value = %02x, want 81", reg.Value)
	}
	if !reg.GetBit(7) || reg.GetBit(6) {
		t.Errorf("GetBit: bit7=%t bit6=%t", reg.GetBit(7), reg.GetBit(6))
	}
	reg.ClearBit(7)
	if reg.Value != 0x01 {
		t.Errorf("Value = %02x after ClearBit(7), want 01", reg.Value)
	}
}
