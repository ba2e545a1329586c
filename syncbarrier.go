package aqtracker

import "log"

// SyncStrategy selects how SyncBarrier reconciles voices that report their
// Timeslice boundary at slightly different sample offsets.
type SyncStrategy int

const (
	// SyncStrategyMax aligns all voices to the furthest-along boundary
	// offset, so no voice's output is truncated short of what it already
	// produced.
	SyncStrategyMax SyncStrategy = iota
	// SyncStrategyMean aligns all voices to the average boundary offset.
	SyncStrategyMean
)

// DefaultSyncStrategy is the strategy NewMixer passes to NewSyncBarrier.
const DefaultSyncStrategy = SyncStrategyMax

// syncBufferSize bounds how far ahead of the host callback a voice may be
// prefilled before a Timeslice boundary forces a rendezvous.
const syncBufferSize = 4096

type syncVoice struct {
	source PCMSyncWriter
	barrier *SyncBarrier

	buf *RingBuffer

	nextTimeslice   *Timeslice
	boundaryPos     int
	haveBoundaryPos bool
	written         int
}

// readPCM pulls up to count samples from the voice's underlying writer into
// its ring buffer. It returns false if the writer reported a flush.
func (v *syncVoice) readPCM(count int) bool {
	if count == 0 {
		return true
	}
	wrbuf := v.buf.Wrbuf(count)
	offered := len(wrbuf)
	result := v.source.WriteSyncPCM(wrbuf)

	switch {
	case result.Flush:
		v.nextTimeslice = nil
		v.buf.Reset()
		return false
	case result.Timeslice == nil:
		if extra := offered - result.Written; extra > 0 {
			v.buf.DropBack(extra)
		}
		v.written += result.Written
		return true
	default:
		if extra := offered - result.Written; extra > 0 {
			v.buf.DropBack(extra)
		}
		v.written += result.Written
		v.boundaryPos = v.written
		v.haveBoundaryPos = true
		v.nextTimeslice = result.Timeslice
		return true
	}
}

func (v *syncVoice) fillTimeslice() bool {
	if v.nextTimeslice == nil {
		return v.readPCM(v.buf.RemainingCapacity())
	}
	return true
}

func (v *syncVoice) fillUntil(expected int) bool {
	if expected > v.written {
		return v.readPCM(expected - v.written)
	}
	if expected < v.written {
		v.buf.DropBack(v.written - expected)
		v.written = expected
	}
	return true
}

func (v *syncVoice) advance(writePos int, t Timeslice) {
	v.source.AdvanceSync(t)
	v.nextTimeslice = nil
	v.haveBoundaryPos = false
	v.written = 0
}

// WritePCM implements PCMWriter by draining the voice's already-aligned
// ring buffer, re-running the barrier's prefill when it runs dry.
func (v *syncVoice) WritePCM(out []float32) {
	n := v.buf.WriteTo(out)
	for n < len(out) {
		v.barrier.Prefill()
		got := v.buf.WriteTo(out[n:])
		if got == 0 {
			// prefill made no progress for this voice; give up rather
			// than spin, leaving the remainder silent.
			for i := n; i < len(out); i++ {
				out[i] = 0
			}
			break
		}
		n += got
	}
}

// SyncBarrier aligns several voices' PCMSyncWriter output at shared
// Timeslice boundaries, exposing each as a plain PCMWriter a StereoMapper
// or Mixer can pull from without any further synchronization concerns.
type SyncBarrier struct {
	voices   []*syncVoice
	strategy SyncStrategy
	logger   *log.Logger
}

// NewSyncBarrier creates an empty barrier using strategy to reconcile
// voices' differing boundary offsets.
func NewSyncBarrier(strategy SyncStrategy) *SyncBarrier {
	return &SyncBarrier{strategy: strategy, logger: log.Default()}
}

// SetLogger overrides the logger used to report cross-voice timeslice
// disagreements; the default logs to log.Default().
func (b *SyncBarrier) SetLogger(l *log.Logger) { b.logger = l }

// AddVoice registers source as a new voice behind the barrier and returns a
// PCMWriter that yields its aligned mono output.
func (b *SyncBarrier) AddVoice(source PCMSyncWriter) PCMWriter {
	v := &syncVoice{
		source:  source,
		barrier: b,
		buf:     NewRingBuffer(syncBufferSize),
	}
	b.voices = append(b.voices, v)
	return v
}

// Prefill tops off every voice's buffer up to the next Timeslice boundary,
// then advances all voices past it together, using the barrier's
// configured strategy to settle on a common boundary offset.
func (b *SyncBarrier) Prefill() {
	if len(b.voices) == 0 {
		return
	}

	ok := 0
	for _, v := range b.voices {
		if v.fillTimeslice() {
			ok++
		}
	}
	if ok == 0 {
		return // every voice flushed; nothing to reconcile
	}
	if ok != len(b.voices) {
		// some voices flushed and were reset; they refill on the next
		// Prefill, and the voices still holding a Timeslice keep it until
		// then.
		return
	}

	timeslice := b.voices[0].nextTimeslice
	offset := b.resolveOffset()

	for i, v := range b.voices {
		if !v.fillUntil(offset) {
			panic("aqtracker: SyncBarrier: unexpected flush while filling to boundary")
		}
		if timeslice != nil && v.nextTimeslice != nil {
			if *v.nextTimeslice != *timeslice {
				b.logger.Printf("aqtracker: SyncBarrier: voice %d timeslice %d disagrees with voice 0's %d, following voice 0", i, *v.nextTimeslice, *timeslice)
			}
			v.advance(offset, *timeslice)
		}
	}
}

func (b *SyncBarrier) resolveOffset() int {
	switch b.strategy {
	case SyncStrategyMean:
		sum := 0
		for _, v := range b.voices {
			sum += v.boundaryPos
		}
		return sum / len(b.voices)
	default: // SyncStrategyMax
		max := 0
		for _, v := range b.voices {
			if v.boundaryPos > max {
				max = v.boundaryPos
			}
		}
		return max
	}
}
