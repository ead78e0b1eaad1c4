package hwio

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// InitRegs initializes the registers found in the struct pointed to by bank.
// Each Reg8 field may carry a "hwio" struct tag, a comma-separated list of:
//
//	offset=0x12   byte offset of the register within its bank. Registers
//	              without an offset are not mapped by Table.MapBank.
//	bank=N        bank number, 0 by default.
//	reset=0xNN    initial value.
//	rwmask=0xNN   mask of writable bits (others are read-only), all by default.
//	readonly      writes are ignored.
//	writeonly     reads return 0.
//	rcb[=Name]    read callback, method Name or Read<FIELD> by default.
//	wcb[=Name]    write callback, method Name or Write<FIELD> by default.
//	pcb[=Name]    peek callback, method Name or Peek<FIELD> by default.
//
// Callback methods must be defined on the pointer type of bank and have the
// signatures func(val uint8) uint8 (read, peek) and func(old, val uint8)
// (write).
func InitRegs(bank any) error {
	v := reflect.ValueOf(bank)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("hwio: InitRegs wants a pointer to struct, got %T", bank)
	}

	var errs []error
	st := v.Elem().Type()
	for i := range st.NumField() {
		f := st.Field(i)
		tag, ok := f.Tag.Lookup("hwio")
		if !ok || f.Type != reflect.TypeOf(Reg8{}) {
			continue
		}
		reg := v.Elem().Field(i).Addr().Interface().(*Reg8)
		if err := initReg8(v, f.Name, tag, reg); err != nil {
			errs = append(errs, fmt.Errorf("hwio: %s.%s: %w", st.Name(), f.Name, err))
		}
	}
	return errors.Join(errs...)
}

// MustInitRegs is like InitRegs but panics on error.
func MustInitRegs(bank any) {
	if err := InitRegs(bank); err != nil {
		panic(err)
	}
}

type regInfo struct {
	offset uint16
	bank   int
	reg    *Reg8
}

type tagOptions map[string]string

func parseTag(tag string) tagOptions {
	opts := make(tagOptions)
	for _, opt := range strings.Split(tag, ",") {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		key, val, _ := strings.Cut(opt, "=")
		opts[key] = val
	}
	return opts
}

func (opts tagOptions) uint(key string, bits int) (uint64, bool, error) {
	s, ok := opts[key]
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, true, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, true, nil
}

func initReg8(bank reflect.Value, field, tag string, reg *Reg8) error {
	opts := parseTag(tag)

	reg.Name = field
	if reset, ok, err := opts.uint("reset", 8); err != nil {
		return err
	} else if ok {
		reg.Value = uint8(reset)
	}
	if rwmask, ok, err := opts.uint("rwmask", 8); err != nil {
		return err
	} else if ok {
		reg.RoMask = ^uint8(rwmask)
	}

	_, ro := opts["readonly"]
	_, wo := opts["writeonly"]
	switch {
	case ro && wo:
		return errors.New("readonly and writeonly are exclusive")
	case ro:
		reg.Flags |= ReadOnlyFlag
	case wo:
		reg.Flags |= WriteOnlyFlag
	}

	upper := strings.ToUpper(field)
	if name, ok := opts["rcb"]; ok {
		m, err := method(bank, name, "Read"+upper)
		if err != nil {
			return err
		}
		cb, ok := m.Interface().(func(uint8) uint8)
		if !ok {
			return fmt.Errorf("read callback has type %s", m.Type())
		}
		reg.ReadCb = cb
	}
	if name, ok := opts["pcb"]; ok {
		m, err := method(bank, name, "Peek"+upper)
		if err != nil {
			return err
		}
		cb, ok := m.Interface().(func(uint8) uint8)
		if !ok {
			return fmt.Errorf("peek callback has type %s", m.Type())
		}
		reg.PeekCb = cb
	}
	if name, ok := opts["wcb"]; ok {
		m, err := method(bank, name, "Write"+upper)
		if err != nil {
			return err
		}
		cb, ok := m.Interface().(func(uint8, uint8))
		if !ok {
			return fmt.Errorf("write callback has type %s", m.Type())
		}
		reg.WriteCb = cb
	}
	return nil
}

func method(bank reflect.Value, name, def string) (reflect.Value, error) {
	if name == "" {
		name = def
	}
	m := bank.MethodByName(name)
	if !m.IsValid() {
		return reflect.Value{}, fmt.Errorf("method %s not found", name)
	}
	return m, nil
}

func bankGetRegs(bank any, bankNum int) ([]regInfo, error) {
	v := reflect.ValueOf(bank)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("hwio: bank must be a pointer to struct, got %T", bank)
	}

	var regs []regInfo
	st := v.Elem().Type()
	for i := range st.NumField() {
		f := st.Field(i)
		tag, ok := f.Tag.Lookup("hwio")
		if !ok || f.Type != reflect.TypeOf(Reg8{}) {
			continue
		}
		opts := parseTag(tag)
		offset, ok, err := opts.uint("offset", 16)
		if err != nil {
			return nil, fmt.Errorf("hwio: %s.%s: %w", st.Name(), f.Name, err)
		}
		if !ok {
			continue
		}
		num, _, err := opts.uint("bank", 8)
		if err != nil {
			return nil, fmt.Errorf("hwio: %s.%s: %w", st.Name(), f.Name, err)
		}
		if int(num) != bankNum {
			continue
		}
		regs = append(regs, regInfo{
			offset: uint16(offset),
			bank:   int(num),
			reg:    v.Elem().Field(i).Addr().Interface().(*Reg8),
		})
	}
	return regs, nil
}
