package aqtracker

import "sync"

// SyncPCMResult reports the outcome of a IteratorSequencer.WriteSyncPCM
// call: either it wrote some number of samples (optionally ending exactly
// at a Timeslice boundary it has not yet reported), or it hit a flush
// request and produced nothing this call.
type SyncPCMResult struct {
	Flush     bool
	Written   int
	Timeslice *Timeslice
}

type readyStateKind int

const (
	readyFlush readyStateKind = iota
	readyContinuingSilence
	readyTemporarySilence
	readyPlaySample
	readyReportTimeslice
)

type readyState struct {
	kind      readyStateKind
	samples   int       // readyTemporarySilence, readyPlaySample
	timeslice Timeslice // readyReportTimeslice
}

type timesliceUpdate struct {
	timeslice Timeslice
	reported  bool
}

// IteratorSequencer turns one voice's AQOp stream into mono float32 PCM,
// consulting a SampleBank for sample data and halting cleanly at Timeslice
// boundaries so a SyncBarrier can align multiple voices.
type IteratorSequencer struct {
	mu sync.Mutex

	sampleSource SampleSource

	currentSample      SampleWriter
	currentSampleRange *SampleRange
	currentSampleFreq  Freq
	pendingSamples     []AQSample

	audioSource AudioIterator

	samplesUntilNextPoll int
	queue                []AQOp
	flushRequested       bool

	timeslice *timesliceUpdate

	playFreq   Freq
	playVolume float32

	targetFreq Freq

	freqMap *FreqRange // built fresh by each WriteSyncPCM call
}

// NewIteratorSequencer creates a sequencer rendering at outFreq samples per
// second, reading sample data from source.
func NewIteratorSequencer(outFreq Freq, source SampleSource) *IteratorSequencer {
	return &IteratorSequencer{
		sampleSource: source,
		playVolume:   1.0,
		playFreq:     outFreq,
		targetFreq:   outFreq,
	}
}

// NewIteratorSequencerWithSource creates a sequencer already driven by it.
func NewIteratorSequencerWithSource(it AudioIterator, outFreq Freq, source SampleSource) *IteratorSequencer {
	seq := NewIteratorSequencer(outFreq, source)
	seq.audioSource = it
	return seq
}

// Frequency returns the sequencer's output sample rate.
func (s *IteratorSequencer) Frequency() Freq { return s.targetFreq }

// PlayState reports the voice's current play frequency and volume, for a
// Tracer to surface without reaching into sequencer internals.
func (s *IteratorSequencer) PlayState() (freq Freq, volume float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playFreq, s.playVolume
}

func (s *IteratorSequencer) softReset() {
	s.pendingSamples = nil
	s.queue = nil
}

func (s *IteratorSequencer) hardReset() {
	s.softReset()
	s.currentSample = EmptySampleWriter()
	s.samplesUntilNextPoll = 0
}

func (s *IteratorSequencer) pollIteratorIntoQueue() {
	if s.audioSource != nil {
		s.audioSource.Next(&s.queue)
	}
}

func (s *IteratorSequencer) mustReportTimeslice() bool {
	return s.timeslice != nil && !s.timeslice.reported
}

func (s *IteratorSequencer) updateStateFromNextQueueItem(pos int) {
	if len(s.queue) == 0 {
		s.pollIteratorIntoQueue()
	}
	if len(s.queue) == 0 {
		return
	}
	op := s.queue[0]
	s.queue = s.queue[1:]

	switch op.Kind {
	case AQOpWaitMillis:
		if op.Millis != 0 {
			s.samplesUntilNextPoll = (op.Millis*int(s.targetFreq) + 500) / 1000
		}
	case AQOpTimeslice:
		s.timeslice = &timesliceUpdate{timeslice: op.Timeslot}
	case AQOpSetSamples:
		s.setSampleVec(op.Samples)
	case AQOpSetFreq:
		s.playFreq = op.Freq
		if s.currentSampleFreq != op.Freq {
			s.pushBackCurrentSample(false)
		}
		if s.freqMap != nil {
			s.freqMap.Append(pos, s.playFreq)
		}
	case AQOpSetVolume:
		s.playVolume = op.Volume
	case AQOpEnd:
		s.audioSource = nil
	}
}

// updateSampleIfNeeded ensures currentSample is non-empty whenever the
// pending queue holds more samples to play.
func (s *IteratorSequencer) updateSampleIfNeeded() {
	for s.currentSample.Done() && len(s.pendingSamples) > 0 {
		next := s.pendingSamples[0]
		var offset *SampleOffset
		var rng SampleRange
		switch next.Kind {
		case AQSampleOnce:
			s.pendingSamples = s.pendingSamples[1:]
			rng = next.Range
		case AQSampleOnceAtOffset:
			s.pendingSamples = s.pendingSamples[1:]
			rng = next.Range
			offset = next.Offset
		case AQSampleLoop:
			// stays at the front of the queue: looping samples are never
			// dequeued on their own
			rng = next.Range
		}

		s.currentSampleRange = &rng
		s.currentSampleFreq = s.playFreq
		s.currentSample = s.sampleSource.GetSample(rng)
		if offset != nil && offset.Denom > 0 {
			forward := s.currentSample.Len() * offset.Nom / offset.Denom
			var discard [1]float32
			for i := 0; i < forward && !s.currentSample.Done(); i++ {
				s.currentSample.Write(discard[:])
			}
		}
		if s.currentSample.Len() == 0 {
			panic(ErrZeroLengthSample)
		}
	}
}

// ensureReadyState polls the iterator until a decision can be made about
// what to do next. pos is the sequencer's current position within the
// buffer passed to WriteSyncPCM, used only to timestamp FreqRange entries.
func (s *IteratorSequencer) ensureReadyState(pos int) readyState {
	for count := 0; ; count++ {
		if count > 1000 {
			panic("aqtracker: IteratorSequencer: stuck")
		}
		if rs, ok := s.getReadyState(); ok {
			return rs
		}

		if s.timeslice == nil {
			if s.samplesUntilNextPoll == 0 {
				s.updateStateFromNextQueueItem(pos)
			}
		} else {
			s.samplesUntilNextPoll = int(s.targetFreq)
		}
		if s.samplesUntilNextPoll > 0 {
			s.updateSampleIfNeeded()
		}
	}
}

func (s *IteratorSequencer) getReadyState() (readyState, bool) {
	if s.flushRequested {
		return readyState{kind: readyFlush}, true
	}
	if s.audioSource == nil {
		return readyState{kind: readyContinuingSilence}, true
	}
	if s.timeslice != nil && !s.timeslice.reported {
		return readyState{kind: readyReportTimeslice, timeslice: s.timeslice.timeslice}, true
	}

	t := s.samplesUntilNextPoll
	if t == 0 {
		return readyState{}, false
	}
	if s.noSample() {
		return readyState{kind: readyTemporarySilence, samples: t}, true
	}
	if s.currentSample.Done() {
		if len(s.pendingSamples) == 0 {
			return readyState{kind: readyTemporarySilence, samples: t}, true
		}
		return readyState{}, false
	}
	return readyState{kind: readyPlaySample, samples: t}, true
}

// pushBackCurrentSample stops the current sample and re-enqueues it.
// restartSample controls whether it restarts at position zero, or resumes
// at its current relative offset (used on a frequency change).
func (s *IteratorSequencer) pushBackCurrentSample(restartSample bool) {
	if s.currentSampleRange == nil || s.noSample() {
		return
	}
	rng := *s.currentSampleRange
	if restartSample {
		s.pendingSamples = append([]AQSample{AQSampleOnceOf(rng)}, s.pendingSamples...)
	} else {
		off := &SampleOffset{Nom: s.currentSample.rng.Len - s.currentSample.Remaining(), Denom: s.currentSample.Len()}
		s.pendingSamples = append([]AQSample{AQSampleOnceAtOffsetOf(rng, off)}, s.pendingSamples...)
	}
	s.stopSample()
}

func (s *IteratorSequencer) setSampleVec(svec []AQSample) {
	out := make([]AQSample, 0, len(svec))
	for _, x := range svec {
		if x.Kind == AQSampleOnceAtOffset && x.Offset == nil {
			off := &SampleOffset{Nom: s.currentSample.rng.Len - s.currentSample.Remaining(), Denom: s.currentSample.Len()}
			x = AQSampleOnceAtOffsetOf(x.Range, off)
		}
		out = append(out, x)
	}
	s.pendingSamples = out
	s.stopSample()
}

func (s *IteratorSequencer) stopSample() {
	s.currentSample = EmptySampleWriter()
}

func (s *IteratorSequencer) noSample() bool {
	return s.currentSample.Len() == 0
}

func (s *IteratorSequencer) recordCompletedSamples(c int) {
	s.samplesUntilNextPoll -= c
}

func (s *IteratorSequencer) writeSilence(out []float32) int {
	for i := range out {
		out[i] = 0
	}
	return len(out)
}

func (s *IteratorSequencer) writeSample(out []float32) int {
	n := s.currentSample.Remaining()
	if len(out) < n {
		n = len(out)
	}
	s.currentSample.Write(out[:n])
	if s.playVolume != 1.0 {
		vol := s.playVolume
		for i := 0; i < n; i++ {
			out[i] *= vol
		}
	}
	return n
}

func (s *IteratorSequencer) success(written int) SyncPCMResult {
	var ts *Timeslice
	if s.timeslice != nil {
		s.timeslice.reported = true
		t := s.timeslice.timeslice
		ts = &t
	}
	return SyncPCMResult{Written: written, Timeslice: ts}
}

// WriteSyncPCM fills outbuf with rendered PCM, stopping short (returning a
// smaller Written count) if it reaches a Timeslice boundary it has not yet
// reported, or returning Flush if a flush was requested mid-call.
func (s *IteratorSequencer) WriteSyncPCM(outbuf []float32) SyncPCMResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.freqMap = NewFreqRange()

	pos := 0
	for pos < len(outbuf) {
		out := outbuf[pos:]
		outlen := len(out)

		rs := s.ensureReadyState(pos)
		if rs.kind == readyReportTimeslice {
			break
		}

		var completed int
		switch rs.kind {
		case readyFlush:
			s.flushRequested = false
			return SyncPCMResult{Flush: true}
		case readyContinuingSilence:
			s.samplesUntilNextPoll = 0
			completed = s.writeSilence(out)
		case readyTemporarySilence:
			n := rs.samples
			if n > outlen {
				n = outlen
			}
			completed = s.writeSilence(out[:n])
		case readyPlaySample:
			n := rs.samples
			if n > outlen {
				n = outlen
			}
			completed = s.writeSample(out[:n])
		}
		if rs.kind != readyContinuingSilence {
			s.recordCompletedSamples(completed)
		}
		pos += completed
	}
	return s.success(pos)
}

// LastFreqMap returns the FreqRange recording which frequency was in
// effect at each position of the buffer produced by the most recent
// WriteSyncPCM call.
func (s *IteratorSequencer) LastFreqMap() *FreqRange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.freqMap
}

// AdvanceSync releases a previously-reported Timeslice, permitting
// WriteSyncPCM to resume producing PCM for the next tick. t is not required
// to equal the released Timeslice's own value: a SyncBarrier reconciling a
// cross-voice disagreement advances every voice using voice 0's id, not
// each voice's own.
func (s *IteratorSequencer) AdvanceSync(t Timeslice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timeslice == nil {
		panic("aqtracker: IteratorSequencer.AdvanceSync: no timeslice pending")
	}
	s.timeslice = nil
	s.samplesUntilNextPoll = 0
}

// Flush finishes the current sample, drops all pending state, and arranges
// for the next WriteSyncPCM call to report a one-time Flush result.
func (s *IteratorSequencer) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hardReset()
	s.flushRequested = true
}

// SetSource installs a new voice iterator, replacing any prior one, and
// implicitly flushes queued state.
func (s *IteratorSequencer) SetSource(source AudioIterator) {
	s.mu.Lock()
	s.audioSource = source
	s.softReset()
	s.mu.Unlock()
	s.Flush()
}
