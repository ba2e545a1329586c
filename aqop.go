package aqtracker

// Timeslice identifies a tick boundary shared across voices, used by
// SyncBarrier to align their output.
type Timeslice uint64

// SampleOffset names a fractional position within a sample, expressed as
// nom/denom, used to resume a sample at its prior relative position after a
// frequency change.
type SampleOffset struct {
	Nom, Denom int
}

// AQSampleKind discriminates the variants of AQSample.
type AQSampleKind int

const (
	// AQSampleOnce plays the referenced range once, then falls through to
	// the next enqueued sample.
	AQSampleOnce AQSampleKind = iota
	// AQSampleLoop replays the referenced range indefinitely; it is never
	// dequeued by itself.
	AQSampleLoop
	// AQSampleOnceAtOffset plays the referenced range once starting at a
	// given offset, used to resume a sample after a frequency change
	// without restarting it from position zero.
	AQSampleOnceAtOffset
)

// AQSample references a sample range to be played by an IteratorSequencer,
// in one of three dequeuing modes.
type AQSample struct {
	Kind   AQSampleKind
	Range  SampleRange
	Offset *SampleOffset // non-nil only for AQSampleOnceAtOffset
}

// AQSampleOnceOf builds an AQSample that plays once.
func AQSampleOnceOf(rng SampleRange) AQSample {
	return AQSample{Kind: AQSampleOnce, Range: rng}
}

// AQSampleLoopOf builds an AQSample that loops.
func AQSampleLoopOf(rng SampleRange) AQSample {
	return AQSample{Kind: AQSampleLoop, Range: rng}
}

// AQSampleOnceAtOffsetOf builds an AQSample that plays once starting at the
// given offset. A nil offset defers the offset decision to the sequencer,
// which fills it in from the sample being replaced.
func AQSampleOnceAtOffsetOf(rng SampleRange, offset *SampleOffset) AQSample {
	return AQSample{Kind: AQSampleOnceAtOffset, Range: rng, Offset: offset}
}

// AQOpKind discriminates the variants of AQOp.
type AQOpKind int

const (
	AQOpWaitMillis AQOpKind = iota
	AQOpSetSamples
	AQOpSetFreq
	AQOpSetVolume
	AQOpTimeslice
	AQOpEnd
)

// AQOp is a single instruction in the per-voice control stream a
// SongIterator emits and an IteratorSequencer consumes. "X; WaitMillis(n);
// Y" means settings X hold for n milliseconds before Y takes effect, except
// SetVolume, which applies immediately.
type AQOp struct {
	Kind     AQOpKind
	Millis   int        // AQOpWaitMillis
	Samples  []AQSample // AQOpSetSamples
	Freq     Freq       // AQOpSetFreq
	Volume   float32    // AQOpSetVolume
	Timeslot Timeslice  // AQOpTimeslice
}

func WaitMillis(n int) AQOp            { return AQOp{Kind: AQOpWaitMillis, Millis: n} }
func SetSamples(s []AQSample) AQOp     { return AQOp{Kind: AQOpSetSamples, Samples: s} }
func SetFreq(f Freq) AQOp              { return AQOp{Kind: AQOpSetFreq, Freq: f} }
func SetVolume(v float32) AQOp         { return AQOp{Kind: AQOpSetVolume, Volume: v} }
func SetTimeslice(t Timeslice) AQOp    { return AQOp{Kind: AQOpTimeslice, Timeslot: t} }
func End() AQOp                        { return AQOp{Kind: AQOpEnd} }

// AudioIterator is the interface a SongIterator (or a test double) fulfills
// to drive an IteratorSequencer: on each call it appends zero or more AQOps
// to queue for the sequencer to consume.
type AudioIterator interface {
	Next(queue *[]AQOp)
}

// MockAudioIterator replays a fixed sequence of AQOp batches, one batch per
// Next call, then goes silent. It exists for tests that need a scripted
// voice without a full Song/SongIterator.
type MockAudioIterator struct {
	batches [][]AQOp
}

// NewMockAudioIterator wraps a sequence of AQOp batches.
func NewMockAudioIterator(batches [][]AQOp) *MockAudioIterator {
	cp := make([][]AQOp, len(batches))
	copy(cp, batches)
	return &MockAudioIterator{batches: cp}
}

// NewSimpleIterator wraps a single AQOp batch replayed once.
func NewSimpleIterator(ops []AQOp) *MockAudioIterator {
	return NewMockAudioIterator([][]AQOp{ops})
}

// SilentIterator is an AudioIterator that plays nothing, forever: the
// default voice source before any song is loaded, or after Mixer.Stop.
// Unlike MockAudioIterator it never runs dry, since a voice left on it
// indefinitely must keep polling cleanly rather than stall the sequencer's
// ensureReadyState loop once a batch is exhausted.
type SilentIterator struct{}

// NewSilentIterator returns an iterator that plays nothing, forever.
func NewSilentIterator() *SilentIterator { return &SilentIterator{} }

// Next implements AudioIterator.
func (SilentIterator) Next(queue *[]AQOp) {
	*queue = append(*queue, SetFreq(1000), WaitMillis(silenceMillis))
}

// Next implements AudioIterator.
func (m *MockAudioIterator) Next(queue *[]AQOp) {
	if len(m.batches) == 0 {
		return
	}
	*queue = append(*queue, m.batches[0]...)
	m.batches = m.batches[1:]
}
