package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

type cycleContext struct{ cycle int }

func (c *cycleContext) AddLogContext(z *EntryZ) { z.Int("cycle", c.cycle) }

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		DisableDebugModules(ModuleMaskAll)
	})
	return &buf
}

func TestModuleMask(t *testing.T) {
	buf := captureOutput(t)

	ModSound.DebugZ("hidden").Hex8("val", 0x12).End()
	if buf.Len() != 0 {
		t.Fatalf("debug log emitted while module disabled: %q", buf.String())
	}

	ModSound.WarnZ("always").End()
	if !strings.Contains(buf.String(), "always") {
		t.Fatalf("warning not emitted: %q", buf.String())
	}

	buf.Reset()
	EnableDebugModules(ModSound.Mask())
	ModSound.DebugZ("write status").Hex8("val", 0x1f).Hex16("addr", 0x4015).End()
	out := buf.String()
	for _, want := range []string{"write status", "$1F", "$4015", "sound"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q doesn't contain %q", out, want)
		}
	}

	buf.Reset()
	ModPPU.DebugZ("other module").End()
	if buf.Len() != 0 {
		t.Errorf("debug log emitted for disabled module: %q", buf.String())
	}
}

func TestContext(t *testing.T) {
	buf := captureOutput(t)

	ctx := &cycleContext{cycle: 1234}
	AddContext(ctx)
	defer RemoveContext(ctx)

	ModEmu.WarnZ("with context").End()
	if !strings.Contains(buf.String(), "cycle=1234") {
		t.Errorf("context field missing: %q", buf.String())
	}
}

func TestModuleByName(t *testing.T) {
	for _, name := range ModuleNames() {
		mod, ok := ModuleByName(name)
		if !ok {
			t.Fatalf("ModuleByName(%q) not found", name)
		}
		if mod.String() != name {
			t.Errorf("ModuleByName(%q).String() = %q", name, mod.String())
		}
	}
	if _, ok := ModuleByName("<error>"); ok {
		t.Errorf("ModuleByName(<error>) should fail")
	}
}
