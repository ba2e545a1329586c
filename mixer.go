package aqtracker

import (
	"fmt"
	"log"
	"sync"
)

// defaultPans is the canonical four-voice hard-panned layout.
var defaultPans = [NumVoices][2]float32{
	{1, 0},
	{0, 1},
	{0, 1},
	{1, 0},
}

// CrossfadeWindow is the number of samples LinearCrossfade blends across a
// timeslice boundary, used by voices created through NewMixer.
const CrossfadeWindow = 64

// voicePipeline is one voice's full chain: SongIterator/source feeds an
// IteratorSequencer, wrapped in a LinearCrossfade, registered with the
// shared SyncBarrier, and finally fanned out to stereo.
type voicePipeline struct {
	mu  sync.Mutex
	seq *IteratorSequencer

	stereo *StereoMapper
	muted  bool
}

func (v *voicePipeline) WritePCM(out []float32) {
	v.mu.Lock()
	stereo := v.stereo
	muted := v.muted
	v.mu.Unlock()

	stereo.WriteStereoPCM(out)
	if muted {
		for i := range out {
			out[i] = 0
		}
	}
}

// Mixer owns the SampleBank and the four voice pipelines, and renders
// summed stereo PCM for a host audio callback.
type Mixer struct {
	bank       *SampleBank
	sampleRate int

	barrier *SyncBarrier
	voices  [NumVoices]*voicePipeline

	tracer   Tracer
	logger   *log.Logger
	callTick Timeslice // monotonic counter, advanced once per Callback, for tracer correlation

	scratch []float32 // reused stereo scratch buffer, sized on first Callback
}

// NewMixer creates a Mixer rendering at sampleRate Hz from bank, with all
// four voices initially silent. sampleRate must be positive; it is a
// Configuration-class failure (§7) rejected here rather than mid-stream.
func NewMixer(bank *SampleBank, sampleRate int) (*Mixer, error) {
	if sampleRate <= 0 {
		return nil, ErrUnsupportedSampleRate
	}
	m := &Mixer{
		bank:       bank,
		sampleRate: sampleRate,
		barrier:    NewSyncBarrier(DefaultSyncStrategy),
		tracer:     NopTracer{},
		logger:     log.Default(),
	}
	for i := 0; i < NumVoices; i++ {
		seq := NewIteratorSequencerWithSource(NewSilentIterator(), Freq(sampleRate), bank)
		fade := NewLinearCrossfade(CrossfadeWindow, seq)
		mono := m.barrier.AddVoice(fade)
		pan := defaultPans[i]
		m.voices[i] = &voicePipeline{
			seq:    seq,
			stereo: NewStereoMapper(pan[0], pan[1], mono),
		}
	}
	return m, nil
}

// SetLogger overrides the logger used for engine diagnostics
// (data-corruption clamps, fatal voice errors); the default logs to
// log.Default(). It also becomes the SyncBarrier's logger, so cross-voice
// timeslice disagreements land in the same place.
func (m *Mixer) SetLogger(l *log.Logger) {
	m.logger = l
	m.barrier.SetLogger(l)
}

// SetTracer installs a sink for per-tick debug output. Passing nil installs
// a no-op tracer.
func (m *Mixer) SetTracer(t Tracer) {
	if t == nil {
		t = NopTracer{}
	}
	m.tracer = t
	m.tracer.ChangeSong()
}

// PlaySong installs song on all four voices, one SongIterator per voice.
func (m *Mixer) PlaySong(song *Song) {
	m.tracer.ChangeSong()
	for i := 0; i < NumVoices; i++ {
		m.SetSource(i, NewSongIterator(song, i))
	}
}

// Stop silences every voice without tearing down the pipelines.
func (m *Mixer) Stop() {
	for i := 0; i < NumVoices; i++ {
		m.SetSource(i, NewSilentIterator())
	}
}

// SetSource atomically replaces a voice's audio iterator and flushes its
// sequencer, discarding any in-flight queue. index must be in [0, NumVoices).
func (m *Mixer) SetSource(index int, source AudioIterator) error {
	if index < 0 || index >= NumVoices {
		return fmt.Errorf("aqtracker: SetSource: voice %d: %w", index, ErrVoiceIndexOutOfRange)
	}
	v := m.voices[index]
	v.mu.Lock()
	seq := v.seq
	v.mu.Unlock()
	seq.SetSource(source)
	return nil
}

// SetMuted mutes or unmutes a single voice.
func (m *Mixer) SetMuted(index int, muted bool) {
	if index < 0 || index >= NumVoices {
		return
	}
	v := m.voices[index]
	v.mu.Lock()
	v.muted = muted
	v.mu.Unlock()
}

// SetPan overrides a voice's left/right gain, replacing the default
// hard-panned layout.
func (m *Mixer) SetPan(index int, left, right float32) {
	if index < 0 || index >= NumVoices {
		return
	}
	m.voices[index].stereo.SetVolume(left, right)
}

// Callback fills out (interleaved stereo, len(out) even) with the sum of
// all four voices' output, clamped to [-1, 1]. It never allocates on a
// steady-state call and never panics: a voice that panics is logged and
// contributes silence for the remainder of this call.
func (m *Mixer) Callback(out []float32) {
	for i := range out {
		out[i] = 0
	}
	if len(m.scratch) < len(out) {
		m.scratch = make([]float32, len(out))
	}
	scratch := m.scratch[:len(out)]

	m.callTick++
	for i, v := range m.voices {
		m.renderVoice(i, v, scratch, out)
	}

	for i := range out {
		if out[i] > 1 {
			out[i] = 1
		} else if out[i] < -1 {
			out[i] = -1
		}
	}
}

func (m *Mixer) renderVoice(index int, v *voicePipeline, scratch, out []float32) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Printf("aqtracker: voice %d panicked, filling silence: %v", index, r)
		}
	}()

	for i := range scratch {
		scratch[i] = 0
	}
	v.WritePCM(scratch)
	for i := range out {
		out[i] += scratch[i]
	}

	if _, ok := m.tracer.(NopTracer); !ok {
		m.traceVoice(index, v, scratch)
	}
}

// traceVoice reports this call's stereo contribution (downmixed to mono)
// and the voice's current frequency/volume to the installed Tracer.
func (m *Mixer) traceVoice(index int, v *voicePipeline, stereo []float32) {
	mono := stereo[:len(stereo)/2]
	for i := range mono {
		mono[i] = (stereo[2*i] + stereo[2*i+1]) / 2
	}
	m.tracer.TraceBuf(m.callTick, index, mono)

	freq, vol := v.seq.PlayState()
	m.tracer.TraceMessageNum(m.callTick, index, "engine", "freq", int(freq))
	m.tracer.TraceMessageNum(m.callTick, index, "engine", "volume_pct", int(vol*100))
}
