package emu

import (
	"fmt"
	"image"

	"nesav/emu/log"
	"nesav/hw/apu"
	"nesav/hw/hwio"
	"nesav/hw/ppu"
)

const (
	ramSize  = 0x800
	cartSize = 0x10000
)

// VideoSink receives the frames produced by the PPU.
type VideoSink interface {
	FrameReady(frame uint64, img *image.RGBA)
}

// Console ties the APU and the PPU to a CPU address space. There's no CPU,
// the bus is driven by a Trace or directly through Read8/Write8.
//
//	$0000-$1FFF  2KiB RAM, mirrored
//	$2000-$3FFF  PPU registers, mirrored every 8 bytes
//	$4000-$4017  APU registers
//	$4020-$FFFF  cartridge space, plain memory
type Console struct {
	APU *apu.APU
	PPU *ppu.PPU
	Bus *hwio.Table

	RAM  *hwio.Mem
	Cart *hwio.Mem

	Cycle uint64 // CPU cycles elapsed since power up

	stalled uint64 // total DMC stall cycles
	irq     bool
	nmis    uint64
	video   VideoSink
}

// NewConsole creates a console. video receives the rendered frames, it can be
// nil.
func NewConsole(cfg apu.Config, video VideoSink) *Console {
	c := &Console{
		Bus:   hwio.NewTable("cpu"),
		RAM:   hwio.NewMem("ram", ramSize, hwio.MemFlagReadWrite),
		Cart:  hwio.NewMem("cart", cartSize, hwio.MemFlagReadWrite),
		video: video,
	}
	c.APU = apu.New(c, cfg)
	c.PPU = ppu.New(c)

	c.Bus.Map(0x0000, 0x1FFF, c.RAM)
	c.Bus.Map(0x2000, 0x3FFF, ppuPort{c.PPU})
	c.Bus.Map(0x4000, 0x4017, apuPort{c.APU})
	c.Bus.Map(0x4020, 0xFFFF, c.Cart)

	log.AddContext(c)
	return c
}

// Close detaches the console from the logger context.
func (c *Console) Close() {
	log.RemoveContext(c)
}

func (c *Console) Reset() {
	c.APU.Reset()
	c.PPU.Reset()
	clear(c.RAM.Data)
	c.Cycle = 0
	c.stalled = 0
	c.nmis = 0
}

// RunCycles runs the console for n CPU cycles. The PPU runs 3 dots per CPU
// cycle.
func (c *Console) RunCycles(n uint64) {
	for range n {
		c.APU.Step(1)
		c.PPU.Step()
		c.PPU.Step()
		c.PPU.Step()
		c.Cycle++
	}
}

func (c *Console) Read8(addr uint16) uint8 {
	return c.Bus.Read8(addr)
}

func (c *Console) Peek8(addr uint16) uint8 {
	return c.Bus.Peek8(addr)
}

func (c *Console) Write8(addr uint16, val uint8) {
	c.Bus.Write8(addr, val)
}

// Load copies data in the CPU address space, starting at addr.
func (c *Console) Load(addr uint16, data []byte) {
	for i, b := range data {
		c.Bus.Write8(addr+uint16(i), b)
	}
}

// Stall implements apu.Host. The cycles are only accounted, there's no CPU to
// halt.
func (c *Console) Stall(cycles int) {
	c.stalled += uint64(cycles)
}

// SetIRQ implements apu.Host.
func (c *Console) SetIRQ(level bool) {
	c.irq = level
}

// TriggerNMI implements ppu.Host.
func (c *Console) TriggerNMI() {
	c.nmis++
}

// FrameReady implements ppu.Host.
func (c *Console) FrameReady(frame uint64, img *image.RGBA) {
	if c.video != nil {
		c.video.FrameReady(frame, img)
	}
}

// IRQ reports the level of the APU IRQ line.
func (c *Console) IRQ() bool { return c.irq }

// NMIs returns the number of NMI triggered by the PPU.
func (c *Console) NMIs() uint64 { return c.nmis }

// Stalled returns the number of CPU cycles lost to DMC DMA.
func (c *Console) Stalled() uint64 { return c.stalled }

// AddLogContext implements log.LogContextAdder.
func (c *Console) AddLogContext(z *log.EntryZ) {
	z.Uint("cycle", uint(c.Cycle))
}

// Play runs the whole trace.
func (c *Console) Play(tr *Trace) {
	tp := NewTracePlayer(c, tr)
	tp.RunUntil(tp.End())
}

type ppuPort struct{ ppu *ppu.PPU }

func (p ppuPort) Read8(addr uint16, peek bool) uint8 {
	addr = 0x2000 | addr&0x7
	if peek {
		return p.ppu.PeekRegister(addr)
	}
	return p.ppu.ReadRegister(addr)
}

func (p ppuPort) Write8(addr uint16, val uint8) {
	p.ppu.WriteRegister(0x2000|addr&0x7, val)
}

type apuPort struct{ apu *apu.APU }

func (p apuPort) Read8(addr uint16, peek bool) uint8 {
	if peek {
		return p.apu.Peek(addr)
	}
	return p.apu.Read(addr)
}

func (p apuPort) Write8(addr uint16, val uint8) {
	p.apu.Write(addr, val)
}

// TracePlayer replays a trace on a console. Events are applied at the
// beginning of their cycle, before the hardware is stepped.
type TracePlayer struct {
	c   *Console
	tr  *Trace
	idx int
	end uint64

	// OnRead, if set, is called with the value returned by each read event.
	OnRead func(ev Event, val uint8)
}

func NewTracePlayer(c *Console, tr *Trace) *TracePlayer {
	tp := &TracePlayer{c: c, tr: tr, end: tr.Duration()}
	for _, ev := range tr.Events {
		if ev.Op == OpEnd {
			tp.end = ev.Cycle
			break
		}
	}
	return tp
}

// End returns the cycle at which the trace ends.
func (tp *TracePlayer) End() uint64 { return tp.end }

// RunUntil applies the events and steps the console up to cycle, or the end
// of the trace if it comes first. It reports whether the trace is finished.
func (tp *TracePlayer) RunUntil(cycle uint64) bool {
	cycle = min(cycle, tp.end)
	c := tp.c

	for {
		for tp.idx < len(tp.tr.Events) {
			ev := tp.tr.Events[tp.idx]
			if ev.Cycle > c.Cycle || ev.Op == OpEnd {
				break
			}
			tp.apply(ev)
			tp.idx++
		}

		if c.Cycle >= cycle {
			break
		}

		next := cycle
		if tp.idx < len(tp.tr.Events) {
			next = min(next, max(tp.tr.Events[tp.idx].Cycle, c.Cycle+1))
		}
		c.RunCycles(next - c.Cycle)
	}
	return c.Cycle >= tp.end
}

func (tp *TracePlayer) apply(ev Event) {
	c := tp.c
	switch ev.Op {
	case OpWrite:
		c.Write8(ev.Addr, ev.Val)
	case OpRead:
		val := c.Read8(ev.Addr)
		if tp.OnRead != nil {
			tp.OnRead(ev, val)
		}
	case OpLoad:
		c.Load(ev.Addr, ev.Data)
	default:
		panic(fmt.Sprintf("trace: unexpected op %s", ev.Op))
	}
}
