package hwio

import (
	"fmt"

	"nesav/emu/log"
)

type MemFlags uint8

const (
	MemFlagReadWrite MemFlags = iota
	MemFlagReadOnly           // writes are dropped and logged
	MemFlagNoROLog            // writes are silently dropped
)

// Mem is a linear memory bank. Its size is a power of two, addresses are
// masked so that the bank is mirrored over any range it's mapped to.
type Mem struct {
	Name  string
	Data  []byte
	Flags MemFlags

	// WriteCb, if set, is called after each write with the masked address.
	WriteCb func(addr uint16, val uint8)

	mask uint16
}

// NewMem allocates a memory bank of the given size, which must be a power of
// two not larger than 64KiB.
func NewMem(name string, size int, flags MemFlags) *Mem {
	if size <= 0 || size > 0x10000 || size&(size-1) != 0 {
		panic(fmt.Errorf("hwio: mem %s: invalid size %#x", name, size))
	}
	return &Mem{
		Name:  name,
		Data:  make([]byte, size),
		Flags: flags,
		mask:  uint16(size - 1),
	}
}

func (m *Mem) Read8(addr uint16, _ bool) uint8 {
	return m.Data[addr&m.mask]
}

func (m *Mem) Write8(addr uint16, val uint8) {
	switch m.Flags {
	case MemFlagReadOnly:
		log.ModHwIo.ErrorZ("Write8 to readonly memory").
			String("name", m.Name).
			Hex16("addr", addr).
			Hex8("val", val).
			End()
		return
	case MemFlagNoROLog:
		return
	}

	off := addr & m.mask
	m.Data[off] = val
	if m.WriteCb != nil {
		m.WriteCb(off, val)
	}
}
