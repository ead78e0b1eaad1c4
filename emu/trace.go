package emu

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/go-faster/jx"
)

// Op is the kind of a trace event.
type Op uint8

const (
	OpWrite Op = iota + 1 // register/memory write
	OpRead                // register/memory read, its side effects matter
	OpLoad                // copy data into host memory
	OpEnd                 // end of trace
)

var opNames = map[Op]string{
	OpWrite: "write",
	OpRead:  "read",
	OpLoad:  "load",
	OpEnd:   "end",
}

func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", op)
}

func parseOp(s string) (Op, bool) {
	for op, name := range opNames {
		if name == s {
			return op, true
		}
	}
	return 0, false
}

// Event is a single step of a trace, performed at the given CPU cycle.
type Event struct {
	Cycle uint64
	Op    Op
	Addr  uint16
	Val   uint8  // OpWrite
	Data  []byte // OpLoad
}

// A Trace is a script of accesses to the CPU address space, standing in for
// the CPU. It's stored as JSON lines, one event per line:
//
//	{"cycle":0,"op":"write","addr":16405,"val":15}
//	{"cycle":10,"op":"read","addr":16405}
//	{"op":"load","addr":49152,"data":[1,2,3]}
//	{"cycle":1789773,"op":"end"}
//
// Events are sorted by cycle. Cycle defaults to the cycle of the previous
// event, a load event usually omits it.
type Trace struct {
	Events []Event
}

// DecodeTrace reads a trace in JSON lines format. Empty lines are ignored.
func DecodeTrace(r io.Reader) (*Trace, error) {
	tr := &Trace{}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var cycle uint64
	for lineno := 1; sc.Scan(); lineno++ {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		ev, err := decodeEvent(jx.DecodeBytes(line), cycle)
		if err != nil {
			return nil, fmt.Errorf("trace: line %d: %w", lineno, err)
		}
		if ev.Cycle < cycle {
			return nil, fmt.Errorf("trace: line %d: cycle %d before previous event (%d)", lineno, ev.Cycle, cycle)
		}
		cycle = ev.Cycle
		tr.Events = append(tr.Events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	return tr, nil
}

func decodeEvent(d *jx.Decoder, cycle uint64) (Event, error) {
	ev := Event{Cycle: cycle}
	var hasAddr, hasVal bool

	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "cycle":
			v, err := d.UInt64()
			if err != nil {
				return fmt.Errorf("cycle: %w", err)
			}
			ev.Cycle = v
		case "op":
			s, err := d.Str()
			if err != nil {
				return fmt.Errorf("op: %w", err)
			}
			op, ok := parseOp(s)
			if !ok {
				return fmt.Errorf("unknown op %q", s)
			}
			ev.Op = op
		case "addr":
			v, err := decodeUint(d, 0xFFFF)
			if err != nil {
				return fmt.Errorf("addr: %w", err)
			}
			ev.Addr = uint16(v)
			hasAddr = true
		case "val":
			v, err := decodeUint(d, 0xFF)
			if err != nil {
				return fmt.Errorf("val: %w", err)
			}
			ev.Val = uint8(v)
			hasVal = true
		case "data":
			err := d.Arr(func(d *jx.Decoder) error {
				v, err := decodeUint(d, 0xFF)
				if err != nil {
					return err
				}
				ev.Data = append(ev.Data, uint8(v))
				return nil
			})
			if err != nil {
				return fmt.Errorf("data: %w", err)
			}
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return Event{}, err
	}

	switch ev.Op {
	case 0:
		return Event{}, fmt.Errorf("missing op")
	case OpWrite:
		if !hasAddr || !hasVal {
			return Event{}, fmt.Errorf("write: addr and val are required")
		}
	case OpRead, OpLoad:
		if !hasAddr {
			return Event{}, fmt.Errorf("%s: addr is required", ev.Op)
		}
	}
	return ev, nil
}

func decodeUint(d *jx.Decoder, maxval uint64) (uint64, error) {
	v, err := d.UInt64()
	if err != nil {
		return 0, err
	}
	if v > maxval {
		return 0, fmt.Errorf("%d out of range [0, %d]", v, maxval)
	}
	return v, nil
}

// Encode writes the trace in JSON lines format.
func (tr *Trace) Encode(w io.Writer) error {
	var e jx.Encoder
	for _, ev := range tr.Events {
		e.Reset()
		e.Obj(func(e *jx.Encoder) {
			e.Field("cycle", func(e *jx.Encoder) { e.UInt64(ev.Cycle) })
			e.Field("op", func(e *jx.Encoder) { e.Str(ev.Op.String()) })
			if ev.Op == OpEnd {
				return
			}
			e.Field("addr", func(e *jx.Encoder) { e.UInt64(uint64(ev.Addr)) })
			switch ev.Op {
			case OpWrite:
				e.Field("val", func(e *jx.Encoder) { e.UInt64(uint64(ev.Val)) })
			case OpLoad:
				e.Field("data", func(e *jx.Encoder) {
					e.Arr(func(e *jx.Encoder) {
						for _, b := range ev.Data {
							e.UInt64(uint64(b))
						}
					})
				})
			}
		})
		if _, err := w.Write(append(e.Bytes(), '\n')); err != nil {
			return fmt.Errorf("trace: %w", err)
		}
	}
	return nil
}

// Duration returns the number of CPU cycles covered by the trace.
func (tr *Trace) Duration() uint64 {
	if len(tr.Events) == 0 {
		return 0
	}
	return tr.Events[len(tr.Events)-1].Cycle
}

// TraceStats summarizes a trace.
type TraceStats struct {
	Ops       map[Op]int
	Cycles    uint64
	Loaded    int            // bytes
	Registers map[uint16]int // number of reads and writes per address
}

// SortedRegisters returns the addresses accessed by the trace, sorted.
func (st TraceStats) SortedRegisters() []uint16 {
	return slices.Sorted(maps.Keys(st.Registers))
}

func (tr *Trace) Stats() TraceStats {
	st := TraceStats{
		Ops:       make(map[Op]int),
		Cycles:    tr.Duration(),
		Registers: make(map[uint16]int),
	}
	for _, ev := range tr.Events {
		st.Ops[ev.Op]++
		switch ev.Op {
		case OpWrite, OpRead:
			st.Registers[ev.Addr]++
		case OpLoad:
			st.Loaded += len(ev.Data)
		}
	}
	return st
}
