package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nesav/emu"
	"nesav/emu/log"
)

func init() {
	log.Disable()
}

func tcheck(tb testing.TB, err error) {
	tb.Helper()
	if err != nil {
		tb.Fatal(err)
	}
}

func decodeTrace(tb testing.TB, s string) *emu.Trace {
	tb.Helper()

	tr, err := emu.DecodeTrace(strings.NewReader(s))
	tcheck(tb, err)
	return tr
}

const squareTrace = `{"op":"write","addr":16405,"val":1}
{"op":"write","addr":16384,"val":191}
{"op":"write","addr":16386,"val":253}
{"op":"write","addr":16387,"val":8}
{"cycle":30000,"op":"end"}
`

func TestRender(t *testing.T) {
	dir := t.TempDir()
	args := Render{
		TracePath: "square.jsonl",
		WAV:       filepath.Join(dir, "square.wav"),
		OutDir:    dir,
		Frames:    []uint64{0},
	}

	var out bytes.Buffer
	tcheck(t, render(&out, decodeTrace(t, squareTrace), args, emu.DefaultConfig()))

	png := filepath.Join(dir, "square.000.png")
	want := png + "\n" + args.WAV + ": 739 samples at 44100Hz\n"
	if got := out.String(); got != want {
		t.Errorf("render output = %q, want %q", got, want)
	}
	for _, path := range []string{png, args.WAV} {
		if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
			t.Errorf("%s: missing or empty (err=%v)", path, err)
		}
	}
}

func TestRenderNoAudio(t *testing.T) {
	dir := t.TempDir()
	args := Render{
		TracePath: "square.jsonl",
		WAV:       filepath.Join(dir, "square.wav"),
		OutDir:    dir,
	}

	cfg := emu.DefaultConfig()
	cfg.Audio.DisableAudio = true

	var out bytes.Buffer
	tcheck(t, render(&out, decodeTrace(t, squareTrace), args, cfg))

	if out.Len() != 0 {
		t.Errorf("render output = %q, want nothing", out.String())
	}
	if _, err := os.Stat(args.WAV); !os.IsNotExist(err) {
		t.Errorf("WAV file should not be created when audio is disabled")
	}
}

func TestPrintInfos(t *testing.T) {
	var out bytes.Buffer
	tcheck(t, printInfos(&out, decodeTrace(t, squareTrace)))

	lines := strings.Split(out.String(), "\n")
	want := map[string]string{
		"cycles:":    "30000",
		"write:":     "4",
		"registers:": "4",
		"frames:":    "1",
		"$4015:":     "$01",
	}
	for prefix, val := range want {
		found := false
		for _, line := range lines {
			fields := strings.Fields(line)
			if len(fields) >= 2 && fields[0] == prefix {
				found = true
				if fields[1] != val {
					t.Errorf("%s %s, want %s", prefix, fields[1], val)
				}
			}
		}
		if !found {
			t.Errorf("no %q line in output:\n%s", prefix, out.String())
		}
	}
}
