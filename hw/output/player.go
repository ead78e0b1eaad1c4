package output

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"

	"nesav/emu/log"
	"nesav/hw/apu"
)

// Player plays the samples queued in a ring buffer on the default audio
// device. The device pulls samples at its own pace, silence is played when
// the ring is empty.
type Player struct {
	ctx    *oto.Context
	player *oto.Player
	src    *ringReader
}

// NewPlayer opens the audio device. It returns an error when no audio device
// is available, in which case the caller should carry on without audio.
func NewPlayer(sampleRate int, ring *apu.RingBuffer) (*Player, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("audio device: %w", err)
	}
	<-ready

	p := &Player{
		ctx: ctx,
		src: &ringReader{ring: ring},
	}
	p.player = ctx.NewPlayer(p.src)

	log.ModOutput.InfoZ("audio player ready").
		Int("rate", sampleRate).
		Int("ring", ring.Cap()).
		End()
	return p, nil
}

func (p *Player) Play() {
	p.player.Play()
}

func (p *Player) Close() error {
	return p.player.Close()
}

// Underruns returns the number of samples for which silence was played
// because the ring buffer was empty.
func (p *Player) Underruns() uint64 {
	return p.src.underruns.Load()
}

// ringReader presents a ring buffer as a stream of 32-bit little-endian
// float samples. The mixer output rests at -1 when silent, so underruns hold
// the last level rather than jumping to 0.
type ringReader struct {
	ring *apu.RingBuffer
	buf  []float32
	last float32 // last sample played, repeated on underrun

	underruns atomic.Uint64
}

func (r *ringReader) Read(b []byte) (int, error) {
	n := len(b) / 4
	if cap(r.buf) < n {
		r.buf = make([]float32, n)
	}
	samples := r.buf[:n]

	got := r.ring.Read(samples)
	if got > 0 {
		r.last = samples[got-1]
	}
	if got < n {
		r.underruns.Add(uint64(n - got))
		for i := got; i < n; i++ {
			samples[i] = r.last
		}
	}
	for i, s := range samples {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(s))
	}
	return n * 4, nil
}
