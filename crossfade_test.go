package aqtracker

import "testing"

// scriptedSyncWriter is a PCMSyncWriter test double that plays back a fixed
// sequence of fixed-size chunks, each followed by a Timeslice, so
// LinearCrossfade tests can control exactly where boundaries fall. Once a
// timeslice is pending (reported but not yet advanced), it mimics a real
// IteratorSequencer continuing to play the tail of the outgoing sample:
// WriteSyncPCM keeps returning the chunk's last value until AdvanceSync.
type scriptedSyncWriter struct {
	chunks  [][]float32
	next    int
	tailVal float32
	pending *Timeslice
}

func (s *scriptedSyncWriter) Frequency() Freq { return 1000 }

func (s *scriptedSyncWriter) WriteSyncPCM(out []float32) SyncPCMResult {
	if s.pending != nil {
		for i := range out {
			out[i] = s.tailVal
		}
		return SyncPCMResult{Written: len(out), Timeslice: s.pending}
	}
	if s.next >= len(s.chunks) {
		for i := range out {
			out[i] = 0
		}
		return SyncPCMResult{Written: len(out)}
	}
	chunk := s.chunks[s.next]
	n := copy(out, chunk)
	if n < len(chunk) {
		panic("test chunk larger than requested buffer")
	}
	s.next++
	if len(chunk) > 0 {
		s.tailVal = chunk[len(chunk)-1]
	}
	ts := Timeslice(s.next)
	s.pending = &ts
	return SyncPCMResult{Written: n, Timeslice: &ts}
}

func (s *scriptedSyncWriter) AdvanceSync(t Timeslice) {
	if s.pending == nil || *s.pending != t {
		panic("AdvanceSync: unexpected timeslice")
	}
	s.pending = nil
}

func TestLinearCrossfadeIdentityBlendIsNoOp(t *testing.T) {
	const window = 4
	src := &scriptedSyncWriter{chunks: [][]float32{
		{1, 1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1, 1},
	}}
	cf := NewLinearCrossfade(window, src)

	out := make([]float32, 6)
	res := cf.WriteSyncPCM(out)
	if res.Timeslice == nil {
		t.Fatal("expected a Timeslice boundary")
	}
	cf.AdvanceSync(*res.Timeslice)

	out2 := make([]float32, 6)
	cf.WriteSyncPCM(out2)
	for i, v := range out2 {
		if v != 1 {
			t.Errorf("blending two identical signals should be the identity; out2[%d] = %v", i, v)
		}
	}
}

func TestLinearCrossfadeBlendsAcrossBoundary(t *testing.T) {
	const window = 2
	src := &scriptedSyncWriter{chunks: [][]float32{
		{0, 0, 10},
		{100, 100, 100},
	}}
	cf := NewLinearCrossfade(window, src)

	out := make([]float32, 3)
	res := cf.WriteSyncPCM(out)
	if res.Timeslice == nil {
		t.Fatal("expected a timeslice after the first chunk")
	}
	cf.AdvanceSync(*res.Timeslice)

	out2 := make([]float32, 3)
	cf.WriteSyncPCM(out2)

	// Window is the trailing 2 samples played before the switch: while
	// the timeslice was pending the writer kept repeating 10, so [10, 10].
	// factor = capacity+1 = 3. Blend position i: new weight (i+1),
	// old weight (3-(i+1)).
	want0 := (float32(100)*1 + float32(10)*2) / 3
	want1 := (float32(100)*2 + float32(10)*1) / 3
	if out2[0] != want0 {
		t.Errorf("out2[0] = %v, want %v", out2[0], want0)
	}
	if out2[1] != want1 {
		t.Errorf("out2[1] = %v, want %v", out2[1], want1)
	}
	if out2[2] != 100 {
		t.Errorf("out2[2] = %v, want 100 (outside the fade window)", out2[2])
	}
}
