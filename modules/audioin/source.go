package audioin

import (
	"fmt"
	"io"
	"sync"

	"github.com/go-audio/wav"
)

// Source supplies capture data for an open port: signed 16-bit mono
// samples at the port's frequency.
type Source interface {
	// Read fills dst with the next samples. Sources never starve the
	// guest; they loop or zero-fill at end of stream.
	Read(dst []int16) error
}

// SourceFactory builds a source for a port being opened.
type SourceFactory func(freq, grain int32) (Source, error)

// SilenceFactory is the default capture source: all-zero samples, the
// behavior of a muted or absent microphone.
func SilenceFactory(freq, grain int32) (Source, error) {
	return silence{}, nil
}

type silence struct{}

func (silence) Read(dst []int16) error {
	for i := range dst {
		dst[i] = 0
	}
	return nil
}

// WAVSource feeds capture from a decoded WAV file, standing in for the
// host microphone. Stereo input is downmixed to mono and the stream is
// resampled to the port frequency by sample skip/duplicate, which is
// plenty for voice capture. The stream loops.
type WAVSource struct {
	mu      sync.Mutex
	samples []int16
	rate    int32
	port    int32
	pos     float64
}

// NewWAVSource decodes an entire WAV stream for use as capture input.
func NewWAVSource(r io.ReadSeeker, portFreq int32) (*WAVSource, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("audioin: not a valid WAV stream")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audioin: decode WAV: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("audioin: WAV stream has no channels")
	}

	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	if frames == 0 {
		return nil, fmt.Errorf("audioin: WAV stream has no samples")
	}

	samples := make([]int16, frames)
	for i := 0; i < frames; i++ {
		acc := 0
		for c := 0; c < ch; c++ {
			acc += buf.Data[i*ch+c]
		}
		samples[i] = clamp16(acc / ch)
	}

	return &WAVSource{
		samples: samples,
		rate:    int32(buf.Format.SampleRate),
		port:    portFreq,
	}, nil
}

// WAVFactory returns a SourceFactory that opens the given WAV stream
// provider per port.
func WAVFactory(open func() (io.ReadSeeker, error)) SourceFactory {
	return func(freq, grain int32) (Source, error) {
		r, err := open()
		if err != nil {
			return nil, err
		}
		return NewWAVSource(r, freq)
	}
}

func (w *WAVSource) Read(dst []int16) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	step := float64(w.rate) / float64(w.port)
	n := float64(len(w.samples))
	for i := range dst {
		dst[i] = w.samples[int(w.pos)]
		w.pos += step
		for w.pos >= n {
			w.pos -= n
		}
	}
	return nil
}

func clamp16(v int) int16 {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	default:
		return int16(v)
	}
}
