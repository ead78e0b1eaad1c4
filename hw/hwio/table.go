package hwio

import (
	"fmt"
	"slices"

	"nesav/emu/log"
)

type BankIO8 interface {
	// Read8 reads a byte from the given address. If peek is true, the read
	// mustn't have any side effects (debugging/tracing).
	Read8(addr uint16, peek bool) uint8
	Write8(addr uint16, val uint8)
}

type mapping struct {
	begin, end uint16 // inclusive
	io         BankIO8
}

// Table dispatches 8-bit accesses to the devices mapped in an address space.
// Accesses to unmapped addresses read as 0 and writes are dropped.
type Table struct {
	Name string

	maps []mapping // sorted by begin, non-overlapping
}

func NewTable(name string) *Table {
	return &Table{Name: name}
}

func (t *Table) Reset() {
	t.maps = t.maps[:0]
}

// MapBank maps the registers of bank number bankNum found in the struct
// pointed to by bank, at addr+offset. See InitRegs for the struct tag format.
func (t *Table) MapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		t.MapReg8(addr+reg.offset, reg.reg)
	}
}

func (t *Table) MapReg8(addr uint16, reg *Reg8) {
	t.Map(addr, addr, reg)
}

// Map maps io over the inclusive range [begin, end]. It panics if the range
// overlaps an already mapped one.
func (t *Table) Map(begin, end uint16, io BankIO8) {
	if end < begin {
		panic(fmt.Errorf("%s: invalid range [%04x-%04x]", t.Name, begin, end))
	}

	idx, _ := slices.BinarySearchFunc(t.maps, begin, func(m mapping, addr uint16) int {
		return int(m.begin) - int(addr)
	})
	if idx > 0 && t.maps[idx-1].end >= begin {
		panic(fmt.Errorf("%s: range [%04x-%04x] overlaps [%04x-%04x]", t.Name, begin, end, t.maps[idx-1].begin, t.maps[idx-1].end))
	}
	if idx < len(t.maps) && t.maps[idx].begin <= end {
		panic(fmt.Errorf("%s: range [%04x-%04x] overlaps [%04x-%04x]", t.Name, begin, end, t.maps[idx].begin, t.maps[idx].end))
	}

	log.ModHwIo.DebugZ("map").
		String("bus", t.Name).
		Hex16("begin", begin).
		Hex16("end", end).
		End()

	t.maps = slices.Insert(t.maps, idx, mapping{begin: begin, end: end, io: io})
}

func (t *Table) search(addr uint16) BankIO8 {
	idx, found := slices.BinarySearchFunc(t.maps, addr, func(m mapping, addr uint16) int {
		return int(m.begin) - int(addr)
	})
	if found {
		return t.maps[idx].io
	}
	if idx > 0 && t.maps[idx-1].end >= addr {
		return t.maps[idx-1].io
	}
	return nil
}

func (t *Table) Read8(addr uint16) uint8 {
	io := t.search(addr)
	if io == nil {
		log.ModHwIo.DebugZ("unmapped Read8").
			String("bus", t.Name).
			Hex16("addr", addr).
			End()
		return 0
	}
	return io.Read8(addr, false)
}

// Peek8 is like Read8 without side effects.
func (t *Table) Peek8(addr uint16) uint8 {
	io := t.search(addr)
	if io == nil {
		return 0
	}
	return io.Read8(addr, true)
}

func (t *Table) Write8(addr uint16, val uint8) {
	io := t.search(addr)
	if io == nil {
		log.ModHwIo.DebugZ("unmapped Write8").
			String("bus", t.Name).
			Hex16("addr", addr).
			Hex8("val", val).
			End()
		return
	}
	io.Write8(addr, val)
}
