package aqtracker

import "fmt"

// one128th converts an 8-bit signed PCM sample to the engine's float32
// domain; the game's raw samples are stored as int8.
const one128th = 1.0 / 128.0

// SampleRange identifies a byte range within a SampleBank's backing store.
type SampleRange struct {
	Start int
	Len   int
}

func (r SampleRange) String() string {
	return fmt.Sprintf("samplerange[0x%x..0x%x (len=0x%x)]", r.Start, r.Start+r.Len, r.Len)
}

// SampleWriter is a read cursor over a SampleRange, handed out by a
// SampleBank and consumed incrementally by the IteratorSequencer.
type SampleWriter struct {
	data  []float32
	rng   SampleRange
	count int
}

// EmptySampleWriter returns a writer with no data, immediately Done.
func EmptySampleWriter() SampleWriter {
	return SampleWriter{}
}

// Len returns the writer's total length in samples.
func (w *SampleWriter) Len() int { return w.rng.Len }

// Remaining returns how many samples have not yet been written out.
func (w *SampleWriter) Remaining() int { return w.rng.Len - w.count }

// Done reports whether the writer has been fully consumed.
func (w *SampleWriter) Done() bool { return w.Remaining() == 0 }

// Write copies up to len(dest) remaining samples into dest, returning the
// count actually written.
func (w *SampleWriter) Write(dest []float32) int {
	n := w.Remaining()
	if len(dest) < n {
		n = len(dest)
	}
	if n <= 0 {
		return 0
	}
	start := w.rng.Start + w.count
	copy(dest[:n], w.data[start:start+n])
	w.count += n
	return n
}

// SampleSource hands out SampleWriters over byte ranges of its backing
// store. Implementations may, in principle, resample for a preferred
// frequency; SampleBank does not.
type SampleSource interface {
	GetSample(rng SampleRange) SampleWriter
}

// SampleBank is a SampleSource backed by a single flat slice of decoded
// float32 PCM, shared (read-only) by every voice that references it.
type SampleBank struct {
	data []float32
}

// NewSampleBank decodes raw 8-bit signed PCM into a SampleBank.
func NewSampleBank(raw []int8) *SampleBank {
	data := make([]float32, len(raw))
	for i, b := range raw {
		data[i] = float32(b) * one128th
	}
	return &SampleBank{data: data}
}

// NewSampleBankFromFloat32 wraps already-decoded float32 PCM, chiefly for
// tests that want exact sample values without int8 quantization.
func NewSampleBankFromFloat32(data []float32) *SampleBank {
	return &SampleBank{data: data}
}

// Len returns the number of samples in the bank.
func (b *SampleBank) Len() int { return len(b.data) }

// GetSample implements SampleSource.
func (b *SampleBank) GetSample(rng SampleRange) SampleWriter {
	return SampleWriter{data: b.data, rng: rng}
}
