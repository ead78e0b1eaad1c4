package emu

import (
	"image"
	"strings"
	"testing"

	"nesav/emu/log"
	"nesav/hw/apu"
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

// frameCounter counts the frames it receives.
type frameCounter struct {
	frames []uint64
}

func (fc *frameCounter) FrameReady(frame uint64, _ *image.RGBA) {
	fc.frames = append(fc.frames, frame)
}

func newTestConsole(tb testing.TB, video VideoSink) *Console {
	tb.Helper()

	c := NewConsole(apu.Config{SampleRate: apu.DefaultSampleRate, MasterVolume: 1}, video)
	tb.Cleanup(c.Close)
	return c
}

func mustDecodeTrace(tb testing.TB, lines ...string) *Trace {
	tb.Helper()

	tr, err := DecodeTrace(strings.NewReader(strings.Join(lines, "\n")))
	tcheck(tb, err)
	return tr
}
