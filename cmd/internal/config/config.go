// Package config turns the -reverb command-line flag into a configured
// comb.Reverber for the aqtracker CLIs.
package config

import (
	"fmt"

	"github.com/kestrelaudio/aqtracker/internal/comb"
)

// ReverbPassThrough implements comb.Reverber but leaves the audio
// unmodified; selected by "-reverb none".
type ReverbPassThrough struct {
	buf               []float32
	readPos, writePos int
	n                 int
}

var _ comb.Reverber = &ReverbPassThrough{}

// NewPassThrough creates a pass-through reverb backed by a ring of
// bufferSize stereo samples.
func NewPassThrough(bufferSize int) *ReverbPassThrough {
	return &ReverbPassThrough{buf: make([]float32, bufferSize)}
}

func (r *ReverbPassThrough) InputSamples(in []float32) int {
	free := len(r.buf) - r.n
	n := len(in)
	if n > free {
		n = free
	}
	if n == 0 {
		return 0
	}
	if r.writePos+n >= len(r.buf) {
		n1 := len(r.buf) - r.writePos
		n2 := n - n1
		copy(r.buf[r.writePos:r.writePos+n1], in[:n1])
		copy(r.buf[:n2], in[n1:n1+n2])
		r.writePos = n2
	} else {
		copy(r.buf[r.writePos:r.writePos+n], in[:n])
		r.writePos += n
	}
	r.n += n
	return n
}

func (r *ReverbPassThrough) GetAudio(out []float32) int {
	n := len(out)
	if n > r.n {
		n = r.n
	}
	if n == 0 {
		return 0
	}
	if r.readPos+n > len(r.buf) {
		n1 := len(r.buf) - r.readPos
		n2 := n - n1
		copy(out[:n1], r.buf[r.readPos:r.readPos+n1])
		copy(out[n1:n], r.buf[:n2])
		r.readPos = n2
	} else {
		copy(out[:n], r.buf[r.readPos:r.readPos+n])
		r.readPos += n
	}
	r.n -= n
	return n
}

// ReverbFromFlag builds a comb.Reverber from the -reverb flag value:
// "none" (pass-through), "light", "medium", or "silly" (increasingly
// pronounced decay/delay).
func ReverbFromFlag(reverb string, sampleRate int) (r comb.Reverber, err error) {
	rf := float32(0.2)
	rd := 150
	switch reverb {
	case "medium":
		rf = 0.3
		rd = 250
	case "silly":
		rf = 0.5
		rd = 2500
	case "none":
		rd = 0
		rf = 0
	case "light":
	default:
		err = fmt.Errorf("unrecognized reverb setting %q", reverb)
	}

	if rf == 0 {
		r = NewPassThrough(10 * 1024)
	} else {
		r = comb.NewCombAdd(10*1024, rf, rd, sampleRate)
	}
	return r, err
}
