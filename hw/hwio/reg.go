package hwio

import (
	"fmt"

	"nesav/emu/log"
)

type RWFlags uint8

const (
	ReadWriteFlag RWFlags = 0
	ReadOnlyFlag  RWFlags = (1 << iota)
	WriteOnlyFlag
)

// Reg8 is an 8-bit memory-mapped register. Bits set in RoMask are not
// affected by writes. Callbacks, when set, are called on CPU accesses.
type Reg8 struct {
	Name   string
	Value  uint8
	RoMask uint8

	Flags   RWFlags
	ReadCb  func(val uint8) uint8
	PeekCb  func(val uint8) uint8
	WriteCb func(old uint8, val uint8)
}

func (reg Reg8) String() string {
	s := fmt.Sprintf("%s{%02x", reg.Name, reg.Value)
	if reg.ReadCb != nil {
		s += ",r!"
	}
	if reg.PeekCb != nil {
		s += ",p!"
	}
	if reg.WriteCb != nil {
		s += ",w!"
	}
	return s + "}"
}

func (reg *Reg8) Write8(addr uint16, val uint8) {
	if reg.Flags&ReadOnlyFlag != 0 {
		log.ModHwIo.DebugZ("Write8 to readonly reg").
			String("name", reg.Name).
			Hex16("addr", addr).
			Hex8("val", val).
			End()
		return
	}
	old := reg.Value
	reg.Value = (reg.Value & reg.RoMask) | (val &^ reg.RoMask)
	if reg.WriteCb != nil {
		reg.WriteCb(old, reg.Value)
	}
}

// Read8 reads the register. A peek never triggers the read callback: it calls
// the peek callback if any, or returns the latched value.
func (reg *Reg8) Read8(addr uint16, peek bool) uint8 {
	if reg.Flags&WriteOnlyFlag != 0 {
		if !peek {
			log.ModHwIo.DebugZ("Read8 from writeonly reg").
				String("name", reg.Name).
				Hex16("addr", addr).
				End()
		}
		return 0
	}
	switch {
	case peek && reg.PeekCb != nil:
		return reg.PeekCb(reg.Value)
	case peek:
		return reg.Value
	case reg.ReadCb != nil:
		return reg.ReadCb(reg.Value)
	}
	return reg.Value
}

func (reg *Reg8) SetBit(n uint) {
	reg.Value |= 1 << n
}

func (reg *Reg8) ClearBit(n uint) {
	reg.Value &^= 1 << n
}

func (reg *Reg8) GetBit(n uint) bool {
	return reg.Value&(1<<n) != 0
}
