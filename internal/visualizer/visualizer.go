// Package visualizer turns live PCM into normalized spectrum band levels.
package visualizer

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/Ayoola1o/lara/internal/audio"
)

const (
	frameSize = 512
	floorDB   = -60.0
	decay     = 0.7
	maxBands  = 64
)

// Analyzer is safe for concurrent Feed and Levels calls.
type Analyzer struct {
	edges []int
	win   []float64

	mu      sync.Mutex
	samples []float64
	levels  []float64
}

// New returns an analyzer producing bands log-spaced levels in [0, 1].
func New(bands int) *Analyzer {
	if bands <= 0 {
		bands = 16
	}
	if bands > maxBands {
		bands = maxBands
	}
	return &Analyzer{
		edges:   bandEdges(bands, frameSize/2),
		win:     window.Hann(frameSize),
		samples: make([]float64, 0, frameSize),
		levels:  make([]float64, bands),
	}
}

// Feed appends little-endian s16 PCM and updates levels for every full frame.
func (a *Analyzer) Feed(pcm []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, s := range audio.Samples(pcm) {
		a.samples = append(a.samples, float64(s)/32768)
		if len(a.samples) == frameSize {
			a.analyze()
			a.samples = a.samples[:0]
		}
	}
}

// Levels returns a copy of the current band levels.
func (a *Analyzer) Levels() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]float64(nil), a.levels...)
}

// Reset drops buffered samples and zeroes every band.
func (a *Analyzer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.samples = a.samples[:0]
	for i := range a.levels {
		a.levels[i] = 0
	}
}

func (a *Analyzer) analyze() {
	frame := make([]float64, frameSize)
	for i, s := range a.samples {
		frame[i] = s * a.win[i]
	}
	spectrum := fft.FFTReal(frame)

	// Full-scale sine through a Hann window peaks at frameSize/4.
	ref := float64(frameSize) / 4
	for band := range a.levels {
		peak := 0.0
		for bin := a.edges[band]; bin < a.edges[band+1]; bin++ {
			if m := cmplx.Abs(spectrum[bin]); m > peak {
				peak = m
			}
		}
		level := normalize(peak / ref)
		if held := a.levels[band] * decay; held > level {
			level = held
		}
		a.levels[band] = level
	}
}

// normalize maps linear magnitude to [0, 1] over a floorDB..0 dB range.
func normalize(mag float64) float64 {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	if db <= floorDB {
		return 0
	}
	if db >= 0 {
		return 1
	}
	return (db - floorDB) / -floorDB
}

// bandEdges splits bins 1..maxBin into log-spaced half-open ranges.
func bandEdges(bands int, maxBin int) []int {
	edges := make([]int, bands+1)
	edges[0] = 1
	for i := 1; i <= bands; i++ {
		e := int(math.Round(math.Pow(float64(maxBin), float64(i)/float64(bands))))
		if e <= edges[i-1] {
			e = edges[i-1] + 1
		}
		edges[i] = e
	}
	edges[bands] = maxBin + 1
	return edges
}
