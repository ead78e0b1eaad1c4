package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	"nesav/emu"
	"nesav/emu/log"
	"nesav/hw/apu"
	"nesav/hw/hwdefs"
	"nesav/hw/output"
)

func readTrace(path string) (*emu.Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return emu.DecodeTrace(f)
}

// frameCycles is roughly the number of CPU cycles in a frame.
const frameCycles = hwdefs.NumCycles * hwdefs.NumScanlines / 3

func render(w io.Writer, tr *emu.Trace, args Render, cfg emu.Config) error {
	frames := cfg.Video.SaveFrames
	if len(args.Frames) > 0 {
		frames = args.Frames
	}

	prefix := strings.TrimSuffix(filepath.Base(args.TracePath), filepath.Ext(args.TracePath))
	fs := output.NewFrameSaver(args.OutDir, prefix, frames, runtime.NumCPU())

	acfg := cfg.Audio.APUConfig()
	var wavw *output.WAVWriter
	if args.WAV != "" && !cfg.Audio.DisableAudio {
		var err error
		if wavw, err = output.CreateWAV(args.WAV, acfg.SampleRate); err != nil {
			return err
		}
		acfg.OnSample = wavw.WriteSample
	}

	var video emu.VideoSink
	if len(frames) > 0 {
		video = fs
	}

	c := emu.NewConsole(acfg, video)
	defer c.Close()

	start := time.Now()
	tp := emu.NewTracePlayer(c, tr)
	for !tp.RunUntil(c.Cycle + frameCycles) {
		// Without audio output, stop as soon as the last frame is out.
		if wavw == nil && c.PPU.Frame > 0 && fs.Done(c.PPU.Frame-1) {
			break
		}
	}

	paths, err := fs.Wait()
	if wavw != nil {
		err = errors.Join(err, wavw.Close())
	}
	if err != nil {
		return err
	}

	log.ModEmu.InfoZ("render done").
		Uint("cycles", uint(c.Cycle)).
		Uint("frames", uint(c.PPU.Frame)).
		Duration("elapsed", time.Since(start)).
		End()

	for _, path := range paths {
		fmt.Fprintln(w, path)
	}
	if wavw != nil {
		fmt.Fprintf(w, "%s: %d samples at %dHz\n", args.WAV, wavw.Samples(), acfg.SampleRate)
	}
	return nil
}

// paceInterval is the emulation granularity in real time mode.
const paceInterval = 10 * time.Millisecond

func play(ctx context.Context, tr *emu.Trace, cfg emu.Config) error {
	ring := apu.NewRingBuffer(cfg.Audio.RingSize)
	acfg := cfg.Audio.APUConfig()
	acfg.Ring = ring

	c := emu.NewConsole(acfg, nil)
	defer c.Close()

	var player *output.Player
	if cfg.Audio.DisableAudio {
		c.APU.SetRing(nil)
	} else {
		var err error
		if player, err = output.NewPlayer(acfg.SampleRate, ring); err != nil {
			log.ModOutput.WarnZ("audio disabled").Error("err", err).End()
			c.APU.SetRing(nil)
		} else {
			defer player.Close()
			player.Play()
		}
	}

	chunk := uint64(hwdefs.CPUClockRate * paceInterval / time.Second)
	ticker := time.NewTicker(paceInterval)
	defer ticker.Stop()

	tp := emu.NewTracePlayer(c, tr)
	for !tp.RunUntil(c.Cycle + chunk) {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}

	// Let the player consume what's left in the ring.
	for player != nil && ring.Len() > 0 {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}

	st := c.APU.Stats()
	log.ModEmu.InfoZ("play done").
		Uint("cycles", uint(st.Cycles)).
		Uint("samples", uint(st.Samples)).
		Uint("dropped", uint(st.Dropped)).
		End()
	if player != nil {
		log.ModOutput.InfoZ("player stats").
			Uint("underruns", uint(player.Underruns())).
			End()
	}
	return nil
}

// printInfos prints the trace statistics, then plays the trace silently and
// prints the final state of the APU and the PPU.
func printInfos(w io.Writer, tr *emu.Trace) error {
	st := tr.Stats()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "cycles:\t%d\t(%.3fs)\n", st.Cycles, float64(st.Cycles)/hwdefs.CPUClockRate)
	fmt.Fprintf(tw, "events:\t%d\n", len(tr.Events))
	for _, op := range []emu.Op{emu.OpWrite, emu.OpRead, emu.OpLoad, emu.OpEnd} {
		fmt.Fprintf(tw, "  %s:\t%d\n", op, st.Ops[op])
	}
	fmt.Fprintf(tw, "loaded:\t%d bytes\n", st.Loaded)
	fmt.Fprintf(tw, "registers:\t%d\n", len(st.Registers))
	for _, addr := range st.SortedRegisters() {
		fmt.Fprintf(tw, "  $%04X:\t%d\n", addr, st.Registers[addr])
	}

	c := emu.NewConsole(apu.Config{SampleRate: apu.DefaultSampleRate}, nil)
	defer c.Close()
	c.Play(tr)

	fmt.Fprintf(tw, "frames:\t%d\n", c.PPU.Frame)
	fmt.Fprintf(tw, "nmis:\t%d\n", c.NMIs())
	fmt.Fprintf(tw, "dmc stalls:\t%d cycles\n", c.Stalled())
	fmt.Fprintf(tw, "$4015:\t$%02X\n", c.APU.Peek(0x4015))
	return tw.Flush()
}
