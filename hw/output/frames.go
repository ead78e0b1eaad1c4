package output

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"nesav/emu/log"
)

// SaveAsPNG encodes img as a PNG file at path.
func SaveAsPNG(img image.Image, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, img)
}

// FrameSaver saves a selection of frames as PNG files. Frames are copied and
// encoded in the background, Wait reports the first error.
type FrameSaver struct {
	dir    string
	prefix string
	frames []uint64

	g     errgroup.Group
	mu    sync.Mutex
	saved []string
}

// NewFrameSaver creates a FrameSaver writing the given frame numbers into
// dir, as <prefix>.<frame>.png. At most concurrency frames are encoded at the
// same time.
func NewFrameSaver(dir, prefix string, frames []uint64, concurrency int) *FrameSaver {
	fs := &FrameSaver{
		dir:    dir,
		prefix: prefix,
		frames: slices.Clone(frames),
	}
	fs.g.SetLimit(max(concurrency, 1))
	return fs
}

// Path returns the path of the PNG file for the given frame.
func (fs *FrameSaver) Path(frame uint64) string {
	return filepath.Join(fs.dir, fmt.Sprintf("%s.%03d.png", fs.prefix, frame))
}

// Done reports whether all selected frames up to frame have been queued.
func (fs *FrameSaver) Done(frame uint64) bool {
	return len(fs.frames) == 0 || frame >= slices.Max(fs.frames)
}

// FrameReady queues img for saving if frame has been selected.
func (fs *FrameSaver) FrameReady(frame uint64, img *image.RGBA) {
	if !slices.Contains(fs.frames, frame) {
		return
	}

	cpy := &image.RGBA{
		Pix:    slices.Clone(img.Pix),
		Stride: img.Stride,
		Rect:   img.Rect,
	}
	path := fs.Path(frame)
	fs.g.Go(func() error {
		if err := SaveAsPNG(cpy, path); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		fs.mu.Lock()
		fs.saved = append(fs.saved, path)
		fs.mu.Unlock()
		return nil
	})
}

// Wait waits for all queued frames to be saved and returns the saved paths,
// sorted.
func (fs *FrameSaver) Wait() ([]string, error) {
	err := fs.g.Wait()

	fs.mu.Lock()
	defer fs.mu.Unlock()
	slices.Sort(fs.saved)
	for _, path := range fs.saved {
		log.ModOutput.InfoZ("frame saved").String("path", path).End()
	}
	return slices.Clone(fs.saved), err
}
