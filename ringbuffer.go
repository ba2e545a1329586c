package aqtracker

import "fmt"

// bufferFull is the write-position sentinel that distinguishes a full ring
// from an empty one when read_pos == write_pos.
const bufferFull = -1

// RingBuffer is a fixed-capacity single-producer/single-consumer float ring,
// used to hold rendered PCM awaiting delivery to a host audio callback.
type RingBuffer struct {
	data     []float32
	readPos  int
	writePos int
	lastPoll int
}

// NewRingBuffer allocates a ring buffer with the given sample capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{
		data:     make([]float32, capacity),
		lastPoll: capacity,
	}
}

// Capacity returns the buffer's fixed size.
func (r *RingBuffer) Capacity() int { return len(r.data) }

// Reset empties the buffer, discarding its contents.
func (r *RingBuffer) Reset() {
	r.readPos = 0
	r.writePos = 0
}

func (r *RingBuffer) isFull() bool { return r.writePos == bufferFull }

// IsEmpty reports whether the buffer holds no samples.
func (r *RingBuffer) IsEmpty() bool { return r.Len() == 0 }

// Len returns the number of samples currently buffered.
func (r *RingBuffer) Len() int {
	cap := r.Capacity()
	if r.isFull() {
		return cap
	}
	if r.writePos < r.readPos {
		return r.writePos + cap - r.readPos
	}
	return r.writePos - r.readPos
}

// RemainingCapacity returns how many samples may still be written.
func (r *RingBuffer) RemainingCapacity() int {
	return r.Capacity() - r.Len()
}

// ExpectedRead returns the size of the most recent WriteTo request, a hint
// for callers pacing production against host buffer sizes.
func (r *RingBuffer) ExpectedRead() int { return r.lastPoll }

func (r *RingBuffer) canReadToEndOfBuffer() bool {
	return r.isFull() || r.readPos > r.writePos
}

func (r *RingBuffer) availableToRead() int {
	end := r.writePos
	if r.canReadToEndOfBuffer() {
		end = r.Capacity()
	}
	return end - r.readPos
}

func (r *RingBuffer) availableToWrite() int {
	end := r.Capacity()
	if r.readPos > r.writePos {
		end = r.readPos
	}
	return end - r.writePos
}

func (r *RingBuffer) advanceWritePos(amount int) {
	r.writePos += amount
	if r.writePos == len(r.data) {
		r.writePos = 0
	}
	if r.writePos == r.readPos {
		r.writePos = bufferFull
	}
}

// WriteTo drains up to len(dest) samples from the buffer into dest,
// returning the number actually written. This is the consumer-side "pop
// front" used by a host audio callback.
func (r *RingBuffer) WriteTo(dest []float32) int {
	r.lastPoll = len(dest)
	return r.writeTo(dest)
}

func (r *RingBuffer) writeTo(dest []float32) int {
	initiallyAvailable := r.Len()
	requested := len(dest)
	avail := r.availableToRead()

	toWrite := avail
	if requested < toWrite {
		toWrite = requested
	}

	if toWrite > 0 {
		copy(dest[0:toWrite], r.data[r.readPos:r.readPos+toWrite])
		if r.isFull() {
			r.writePos = r.readPos
		}
		r.readPos += toWrite
	}

	if toWrite == requested || toWrite == initiallyAvailable {
		if r.readPos == len(r.data) {
			r.readPos = 0
		}
		return toWrite
	}

	r.readPos -= r.Capacity()
	return toWrite + r.writeTo(dest[toWrite:])
}

// DropBack removes the given number of most-recently-written samples,
// returning an error if the buffer holds fewer than that.
func (r *RingBuffer) DropBack(toRemove int) (int, error) {
	if toRemove > r.Len() {
		return 0, fmt.Errorf("aqtracker: RingBuffer.DropBack(%d) on only %d elements", toRemove, r.Len())
	}
	if toRemove == 0 {
		return 0, nil
	}
	initialWritePos := r.writePos
	if r.isFull() {
		initialWritePos = r.readPos
	}
	if toRemove <= initialWritePos {
		r.writePos = initialWritePos - toRemove
	} else {
		r.writePos = r.Capacity() + initialWritePos - toRemove
	}
	return toRemove, nil
}

// ReadFrom fills the buffer from src (producer-side "push back"), returning
// the number of samples actually written. The rest of src is silently
// dropped if the buffer fills.
func (r *RingBuffer) ReadFrom(src []float32) int {
	if r.isFull() {
		return 0
	}
	initiallyAvailable := r.Capacity() - r.Len()
	requested := len(src)
	writeStart := r.writePos
	avail := r.availableToWrite()

	toWrite := avail
	if requested < toWrite {
		toWrite = requested
	}

	if toWrite > 0 {
		copy(r.data[writeStart:writeStart+toWrite], src[0:toWrite])
		r.advanceWritePos(toWrite)
	}

	if toWrite == requested || toWrite == initiallyAvailable {
		return toWrite
	}

	return toWrite + r.ReadFrom(src[toWrite:])
}

// DropFront removes the given number of samples next in line to be read,
// returning an error if the buffer holds fewer than that.
func (r *RingBuffer) DropFront(toRemove int) (int, error) {
	if toRemove > r.Len() {
		return 0, fmt.Errorf("aqtracker: RingBuffer.DropFront(%d) on only %d elements", toRemove, r.Len())
	}
	if toRemove == 0 {
		return 0, nil
	}
	if r.isFull() {
		r.writePos = r.readPos
	}
	bufsize := len(r.data)
	r.readPos += toRemove
	if r.readPos >= bufsize {
		r.readPos -= bufsize
	}
	return toRemove, nil
}

// Wrbuf returns a direct write window into the buffer of up to size
// samples; the window may be smaller than requested even with capacity to
// spare (it never wraps), so callers must loop. The returned slice is
// considered filled by the caller before the next buffer operation.
func (r *RingBuffer) Wrbuf(size int) []float32 {
	if r.isFull() {
		return r.data[0:0]
	}
	avail := r.availableToWrite()
	if size < avail {
		avail = size
	}
	start := r.writePos
	end := start + avail
	r.advanceWritePos(end - start)
	return r.data[start:end]
}

// PeekFront returns a view of up to size unread samples without consuming
// them.
func (r *RingBuffer) PeekFront(size int) *RingBufferView {
	if size > r.Len() {
		size = r.Len()
	}
	return &RingBufferView{buf: r, size: size}
}

// RingBufferView is a read-only, index-addressable window into a
// RingBuffer's unread contents, returned by PeekFront.
type RingBufferView struct {
	buf  *RingBuffer
	size int
}

// Len returns the number of samples in the view.
func (v *RingBufferView) Len() int { return v.size }

// At returns the sample at the given index into the view. At panics if
// index is out of range.
func (v *RingBufferView) At(index int) float32 {
	if index < 0 || index >= v.size {
		panic(fmt.Sprintf("aqtracker: RingBufferView.At(%d) out of bounds (size %d)", index, v.size))
	}
	buflen := len(v.buf.data)
	pos := index + v.buf.readPos
	if pos >= buflen {
		return v.buf.data[pos-buflen]
	}
	return v.buf.data[pos]
}
