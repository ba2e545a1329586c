package aqtracker

import "testing"

func TestFreqRangeGetReturnsLatestAppendedAtOrBeforePos(t *testing.T) {
	fr := NewFreqRange()
	fr.Append(0, 1000)
	fr.Append(2, 2000)
	fr.Append(6, 500)

	cases := []struct {
		pos      int
		wantFreq Freq
	}{
		{0, 1000},
		{1, 1000},
		{2, 2000},
		{5, 2000},
		{6, 500},
		{100, 500},
	}
	for _, c := range cases {
		freq, _, _ := fr.Get(c.pos)
		if freq != c.wantFreq {
			t.Errorf("Get(%d) freq = %v, want %v", c.pos, freq, c.wantFreq)
		}
	}
}

func TestFreqRangeDurationToNextEntry(t *testing.T) {
	fr := NewFreqRange()
	fr.Append(0, 1000)
	fr.Append(2, 2000)
	fr.Append(6, 500)

	_, dur, bounded := fr.Get(0)
	if !bounded || dur != 2 {
		t.Errorf("Get(0) duration = (%d, %v), want (2, true)", dur, bounded)
	}
	_, dur, bounded = fr.Get(2)
	if !bounded || dur != 4 {
		t.Errorf("Get(2) duration = (%d, %v), want (4, true)", dur, bounded)
	}
	_, dur, bounded = fr.Get(6)
	if bounded {
		t.Errorf("Get(6) bounded = true, want false (no later entry)")
	}
	_ = dur
}

func TestFreqRangeRepeatedFrequencyIsNoOp(t *testing.T) {
	fr := NewFreqRange()
	fr.Append(0, 1000)
	fr.Append(5, 1000)

	freq, _, bounded := fr.Get(0)
	if freq != 1000 || bounded {
		t.Errorf("Get(0) = (%v, bounded=%v), want (1000, false) since the repeat was a no-op", freq, bounded)
	}
}

func TestFreqRangeAppendAtSamePositionReplaces(t *testing.T) {
	fr := NewFreqRange()
	fr.Append(3, 1000)
	fr.Append(3, 2000)

	freq, _, _ := fr.Get(3)
	if freq != 2000 {
		t.Errorf("Get(3) = %v, want 2000 (later Append at same pos replaces)", freq)
	}
}

func TestFreqRangeAppendBeforeLastPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("Append at an earlier position than the last should panic")
		}
	}()
	fr := NewFreqRange()
	fr.Append(10, 1000)
	fr.Append(5, 2000)
}

func TestFreqRangeGetBeforeAnyAppendPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("Get with no entries known for pos should panic")
		}
	}()
	fr := NewFreqRange()
	fr.Get(0)
}
