package output

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"nesav/emu/log"
)

const (
	wavBitDepth   = 16
	wavPCMFormat  = 1
	wavBufSamples = 4096
)

// WAVWriter encodes a mono stream of samples in [-1, 1] as a 16-bit PCM WAV
// file. WriteSample matches apu.SampleFunc.
type WAVWriter struct {
	enc *wav.Encoder
	buf *audio.IntBuffer

	nsamples int
	closer   io.Closer
	err      error
}

// CreateWAV creates the WAV file at path.
func CreateWAV(path string, sampleRate int) (*WAVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	ww := NewWAVWriter(f, sampleRate)
	ww.closer = f

	log.ModOutput.InfoZ("writing audio").
		String("path", path).
		Int("rate", sampleRate).
		End()
	return ww, nil
}

// NewWAVWriter returns a WAVWriter encoding to w. Close must be called to
// finalize the header.
func NewWAVWriter(w io.WriteSeeker, sampleRate int) *WAVWriter {
	return &WAVWriter{
		enc: wav.NewEncoder(w, sampleRate, wavBitDepth, 1, wavPCMFormat),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			Data:           make([]int, 0, wavBufSamples),
			SourceBitDepth: wavBitDepth,
		},
	}
}

// WriteSample appends a sample. Encoding errors are reported by Close.
func (ww *WAVWriter) WriteSample(s float32) {
	s = min(max(s, -1), 1)
	ww.buf.Data = append(ww.buf.Data, int(s*32767))
	ww.nsamples++
	if len(ww.buf.Data) == cap(ww.buf.Data) {
		ww.flush()
	}
}

// Samples returns the number of samples written so far.
func (ww *WAVWriter) Samples() int {
	return ww.nsamples
}

func (ww *WAVWriter) flush() {
	if len(ww.buf.Data) == 0 {
		return
	}
	if ww.err == nil {
		if err := ww.enc.Write(ww.buf); err != nil {
			ww.err = fmt.Errorf("wav: %w", err)
		}
	}
	ww.buf.Data = ww.buf.Data[:0]
}

func (ww *WAVWriter) Close() error {
	ww.flush()
	err := ww.err
	if cerr := ww.enc.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("wav: %w", cerr))
	}
	if ww.closer != nil {
		err = errors.Join(err, ww.closer.Close())
	}
	return err
}
