package aqtracker

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

// syncVoiceProgram builds a 3-tick MockAudioIterator program: tick j plays
// samples j*10..j*10+10 of its bank for 10ms at 1kHz, so the concatenated
// 30-sample output is exactly that bank's first 30 samples in order.
func syncVoiceProgram() *MockAudioIterator {
	var batches [][]AQOp
	for j := 0; j < 3; j++ {
		batches = append(batches, []AQOp{
			SetFreq(1000),
			SetSamples([]AQSample{AQSampleOnceOf(SampleRange{Start: j * 10, Len: 10})}),
			WaitMillis(10),
			SetTimeslice(Timeslice(j + 1)),
		})
	}
	return NewMockAudioIterator(batches)
}

// spec.md §8 scenario 6: two voices synchronized. Each voice ticks every
// 10 samples; the barrier must deliver each voice's own PCM, undisturbed
// by the other voice's presence, with tick boundaries aligned across both.
func TestSyncBarrierTwoVoicesSynchronized(t *testing.T) {
	bank0 := rampBank(0, 30)
	bank1 := rampBank(1000, 30)

	seq0 := NewIteratorSequencerWithSource(syncVoiceProgram(), 1000, bank0)
	seq1 := NewIteratorSequencerWithSource(syncVoiceProgram(), 1000, bank1)

	barrier := NewSyncBarrier(SyncStrategyMax)
	voice0 := barrier.AddVoice(seq0)
	voice1 := barrier.AddVoice(seq1)

	out0 := make([]float32, 30)
	voice0.WritePCM(out0)
	out1 := make([]float32, 30)
	voice1.WritePCM(out1)

	for i := 0; i < 30; i++ {
		if out0[i] != float32(i) {
			t.Errorf("out0[%d] = %v, want %v", i, out0[i], i)
		}
		if out1[i] != float32(1000+i) {
			t.Errorf("out1[%d] = %v, want %v", i, out1[i], 1000+i)
		}
	}
}

// A voice that flushes mid-prefill is reset and marked flushed rather than
// wedging the barrier for the other voices.
func TestSyncBarrierSurvivesOneVoiceFlushing(t *testing.T) {
	bank := rampBank(0, 10)

	steady := NewIteratorSequencerWithSource(syncVoiceProgram(), 1000, rampBank(0, 30))
	flushing := NewIteratorSequencerWithSource(
		NewSimpleIterator([]AQOp{
			SetSamples([]AQSample{AQSampleOnceOf(SampleRange{Start: 0, Len: 10})}),
			WaitMillis(10),
			SetTimeslice(1),
		}),
		1000, bank,
	)
	flushing.Flush()

	barrier := NewSyncBarrier(SyncStrategyMax)
	voice0 := barrier.AddVoice(steady)
	_ = barrier.AddVoice(flushing)

	out := make([]float32, 10)
	voice0.WritePCM(out)
	for i, v := range out {
		if v != float32(i) {
			t.Errorf("out[%d] = %v, want %v", i, v, i)
		}
	}
}

// SyncStrategyMean aligns all voices to the rounded average boundary
// offset instead of the max.
func TestSyncBarrierMeanStrategyTrimsToAverage(t *testing.T) {
	short := NewIteratorSequencerWithSource(NewSimpleIterator([]AQOp{
		SetSamples([]AQSample{AQSampleOnceOf(SampleRange{Start: 0, Len: 4})}),
		WaitMillis(4),
		SetTimeslice(1),
	}), 1000, rampBank(1, 4))

	long := NewIteratorSequencerWithSource(NewSimpleIterator([]AQOp{
		SetSamples([]AQSample{AQSampleOnceOf(SampleRange{Start: 0, Len: 8})}),
		WaitMillis(8),
		SetTimeslice(1),
	}), 1000, rampBank(1, 8))

	barrier := NewSyncBarrier(SyncStrategyMean)
	v0 := barrier.AddVoice(short)
	v1 := barrier.AddVoice(long)

	// mean of (4, 8) is 6.
	out0 := make([]float32, 6)
	v0.WritePCM(out0)
	out1 := make([]float32, 6)
	v1.WritePCM(out1)

	want1 := []float32{1, 2, 3, 4, 5, 6}
	for i := range want1 {
		if out1[i] != want1[i] {
			t.Errorf("out1[%d] = %v, want %v", i, out1[i], want1[i])
		}
	}
	// short voice ran dry at 4 samples; the rest of its tick is silence.
	wantShort := []float32{1, 2, 3, 4, 0, 0}
	for i := range wantShort {
		if out0[i] != wantShort[i] {
			t.Errorf("out0[%d] = %v, want %v", i, out0[i], wantShort[i])
		}
	}

	// The long voice had pulled 8 samples ahead of the mean offset; those
	// 2 extra samples must have been trimmed back out of its ring buffer,
	// not left to bleed into the next tick.
	if sv := v1.(*syncVoice); sv.buf.Len() != 0 {
		t.Errorf("long voice has %d leftover buffered samples, want 0", sv.buf.Len())
	}
}

// When voices disagree about the id of the Timeslice boundary they just
// reached, the barrier logs a warning and releases every voice using
// voice 0's id rather than each voice's own.
func TestSyncBarrierLogsAndFollowsVoiceZeroOnTimesliceDisagreement(t *testing.T) {
	v0 := NewIteratorSequencerWithSource(NewSimpleIterator([]AQOp{
		SetSamples([]AQSample{AQSampleOnceOf(SampleRange{Start: 0, Len: 4})}),
		WaitMillis(4),
		SetTimeslice(1),
	}), 1000, rampBank(0, 4))

	v1 := NewIteratorSequencerWithSource(NewSimpleIterator([]AQOp{
		SetSamples([]AQSample{AQSampleOnceOf(SampleRange{Start: 0, Len: 4})}),
		WaitMillis(4),
		SetTimeslice(2), // disagrees with v0's 1
	}), 1000, rampBank(100, 4))

	var logBuf bytes.Buffer
	barrier := NewSyncBarrier(SyncStrategyMax)
	barrier.SetLogger(log.New(&logBuf, "", 0))
	voice0 := barrier.AddVoice(v0)
	voice1 := barrier.AddVoice(v1)

	out0 := make([]float32, 4)
	voice0.WritePCM(out0) // must not panic despite the disagreement
	out1 := make([]float32, 4)
	voice1.WritePCM(out1)

	want0 := []float32{0, 1, 2, 3}
	want1 := []float32{100, 101, 102, 103}
	for i := range want0 {
		if out0[i] != want0[i] {
			t.Errorf("out0[%d] = %v, want %v", i, out0[i], want0[i])
		}
		if out1[i] != want1[i] {
			t.Errorf("out1[%d] = %v, want %v", i, out1[i], want1[i])
		}
	}

	if !strings.Contains(logBuf.String(), "voice 1") || !strings.Contains(logBuf.String(), "disagrees") {
		t.Errorf("log = %q, want a mention of voice 1 disagreeing", logBuf.String())
	}
}
