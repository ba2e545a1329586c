package aqtracker

// LinearCrossfade wraps a PCMSyncWriter and blends the tail of the
// previous Timeslice's output into the head of the next one across a fixed
// window, instead of letting a source change produce an audible seam.
type LinearCrossfade struct {
	writer PCMSyncWriter
	buf    *RingBuffer
}

// NewLinearCrossfade wraps writer with a crossfade window of fadeWindowSize
// samples.
func NewLinearCrossfade(fadeWindowSize int, writer PCMSyncWriter) *LinearCrossfade {
	return &LinearCrossfade{
		writer: writer,
		buf:    NewRingBuffer(fadeWindowSize),
	}
}

// Frequency implements PCMSyncWriter.
func (c *LinearCrossfade) Frequency() Freq { return c.writer.Frequency() }

// WriteSyncPCM implements PCMSyncWriter, blending any buffered tail from
// the prior Timeslice into the start of output before returning it.
func (c *LinearCrossfade) WriteSyncPCM(output []float32) SyncPCMResult {
	result := c.writer.WriteSyncPCM(output)

	if c.buf.Len() > 0 {
		fadeSize := c.buf.Len()
		if len(output) < fadeSize {
			fadeSize = len(output)
		}

		factor := float32(c.buf.Capacity() + 1)
		prev := c.buf.PeekFront(fadeSize)
		prevOffset := c.buf.RemainingCapacity()

		for i := 0; i < fadeSize; i++ {
			newVal := output[i]
			oldVal := prev.At(i)
			newContribution := float32(1 + prevOffset + i)
			oldContribution := factor - newContribution
			output[i] = (newVal*newContribution + oldVal*oldContribution) / factor
		}
		c.buf.DropFront(fadeSize)
	}
	return result
}

// AdvanceSync implements PCMSyncWriter: it first tops off the crossfade
// buffer with the tail of the slice about to end, then forwards the
// advance to the wrapped writer.
func (c *LinearCrossfade) AdvanceSync(t Timeslice) {
	for !c.isFull() {
		wrbuf := c.buf.Wrbuf(c.buf.RemainingCapacity())
		if len(wrbuf) == 0 {
			break
		}
		result := c.writer.WriteSyncPCM(wrbuf)
		if result.Flush {
			c.buf.Reset()
			break
		}
	}
	c.writer.AdvanceSync(t)
}

func (c *LinearCrossfade) isFull() bool {
	return c.buf.RemainingCapacity() == 0
}
