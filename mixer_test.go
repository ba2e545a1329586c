package aqtracker

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestNewMixerRejectsNonPositiveSampleRate(t *testing.T) {
	bank := rampBank(0, 4)
	if _, err := NewMixer(bank, 0); err != ErrUnsupportedSampleRate {
		t.Errorf("err = %v, want ErrUnsupportedSampleRate", err)
	}
	if _, err := NewMixer(bank, -1); err != ErrUnsupportedSampleRate {
		t.Errorf("err = %v, want ErrUnsupportedSampleRate", err)
	}
}

func TestMixerSetSourceRejectsOutOfRangeVoice(t *testing.T) {
	bank := rampBank(0, 4)
	m, err := NewMixer(bank, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.SetSource(-1, NewSilentIterator()); err == nil {
		t.Error("expected an error for a negative voice index")
	}
	if err := m.SetSource(NumVoices, NewSilentIterator()); err == nil {
		t.Error("expected an error for a voice index >= NumVoices")
	}
}

// A freshly constructed Mixer, never given a song, renders silence on every
// voice without panicking (exercises the SilentIterator default source).
func TestMixerDefaultStateRendersSilence(t *testing.T) {
	bank := rampBank(0, 4)
	m, err := NewMixer(bank, 1000)
	if err != nil {
		t.Fatal(err)
	}

	out := make([]float32, 64)
	for i := 0; i < 3; i++ {
		m.Callback(out)
		for j, v := range out {
			if v != 0 {
				t.Fatalf("call %d: out[%d] = %v, want 0", i, j, v)
			}
		}
	}
}

// Callback always clamps its output to [-1, 1], even when a voice's sample
// data would otherwise sum past that range.
func TestMixerCallbackClampsOutput(t *testing.T) {
	bank := rampBank(0, 100) // values well outside [-1, 1]
	m, err := NewMixer(bank, 1000)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < NumVoices; i++ {
		it := NewSimpleIterator([]AQOp{
			SetFreq(1000),
			SetSamples([]AQSample{AQSampleLoopOf(SampleRange{Start: 0, Len: 100})}),
			WaitMillis(1000),
		})
		if err := m.SetSource(i, it); err != nil {
			t.Fatal(err)
		}
	}

	out := make([]float32, 64)
	m.Callback(out)
	for i, v := range out {
		if v > 1 || v < -1 {
			t.Errorf("out[%d] = %v, out of [-1, 1]", i, v)
		}
	}
}

// A panic inside one voice's pipeline (here, a zero-length sample) is
// recovered per-voice: it is logged and that voice contributes silence for
// the call, but the Callback itself does not panic and other voices are
// unaffected.
func TestMixerCallbackRecoversFromVoicePanic(t *testing.T) {
	bank := rampBank(1, 8)
	m, err := NewMixer(bank, 1000)
	if err != nil {
		t.Fatal(err)
	}

	var logBuf bytes.Buffer
	m.SetLogger(log.New(&logBuf, "", 0))

	badIt := NewSimpleIterator([]AQOp{
		SetSamples([]AQSample{AQSampleOnceOf(SampleRange{Start: 0, Len: 0})}),
		WaitMillis(10),
	})
	if err := m.SetSource(0, badIt); err != nil {
		t.Fatal(err)
	}

	goodIt := NewSimpleIterator([]AQOp{
		SetFreq(1000),
		SetSamples([]AQSample{AQSampleLoopOf(SampleRange{Start: 0, Len: 8})}),
		WaitMillis(1000),
	})
	if err := m.SetSource(1, goodIt); err != nil {
		t.Fatal(err)
	}

	out := make([]float32, 16)
	m.Callback(out) // must not panic

	if !strings.Contains(logBuf.String(), "voice 0 panicked") {
		t.Errorf("log = %q, want a mention of voice 0 panicking", logBuf.String())
	}

	allZero := true
	for _, v := range out {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		t.Error("expected voice 1's output to still contribute nonzero samples")
	}
}

// Muting a voice silences its contribution to Callback's output without
// touching its underlying sequencer state.
func TestMixerSetMutedSilencesVoice(t *testing.T) {
	bank := rampBank(1, 8)
	m, err := NewMixer(bank, 1000)
	if err != nil {
		t.Fatal(err)
	}
	it := NewSimpleIterator([]AQOp{
		SetFreq(1000),
		SetSamples([]AQSample{AQSampleLoopOf(SampleRange{Start: 0, Len: 8})}),
		WaitMillis(1000),
	})
	if err := m.SetSource(0, it); err != nil {
		t.Fatal(err)
	}
	m.SetMuted(0, true)

	out := make([]float32, 16)
	m.Callback(out)
	for i, v := range out {
		if v != 0 {
			t.Errorf("out[%d] = %v, want 0 (all voices muted or silent)", i, v)
		}
	}
}

// PlaySong installs a distinct SongIterator on every voice.
func TestMixerPlaySongInstallsAllVoices(t *testing.T) {
	bank := rampBank(1, 4)
	m, err := NewMixer(bank, 1000)
	if err != nil {
		t.Fatal(err)
	}

	voices := [NumVoices]DivisionVoice{}
	for i := range voices {
		voices[i] = DivisionVoice{MonopatternIndex: -1}
	}
	song := &Song{
		Divisions:     []Division{{Voices: voices}},
		FirstDivision: 0,
		LastDivision:  0,
	}
	m.PlaySong(song)

	out := make([]float32, 16)
	m.Callback(out) // must not panic with no monopatterns referenced
}
