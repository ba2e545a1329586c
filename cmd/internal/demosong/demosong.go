// Package demosong hand-constructs a small Song and matching SampleBank for
// the CLI commands. A real deployment plugs in its own game-data loader
// upstream of this package; aqtracker itself only consumes the resulting
// *aqtracker.Song value.
package demosong

import (
	"math"

	"github.com/kestrelaudio/aqtracker"
)

const sampleRate = 8000

// synthSine renders n samples of a sine wave at hz into 8-bit PCM, the same
// representation SampleBank decodes via NewSampleBank.
func synthSine(hz float64, n int) []int8 {
	out := make([]int8, n)
	for i := range out {
		v := math.Sin(2 * math.Pi * hz * float64(i) / sampleRate)
		out[i] = int8(v * 96)
	}
	return out
}

// synthSaw renders a simple bandlimited-free sawtooth, used for the second
// demo sample so the two voices are timbrally distinguishable.
func synthSaw(hz float64, n int) []int8 {
	out := make([]int8, n)
	period := sampleRate / hz
	for i := range out {
		phase := math.Mod(float64(i), period) / period
		out[i] = int8((phase*2 - 1) * 80)
	}
	return out
}

// New builds a short four-voice demo tune and its backing SampleBank. It
// exists for cmd/aqplay and cmd/aqrender, which have no song-file parser to
// call; aqtracker's Non-goals exclude a general-purpose format parser, so
// this hand-assembly is the CLI boundary, not a replacement for one.
func New() (*aqtracker.Song, *aqtracker.SampleBank) {
	const (
		noteLen   = 2000
		tailSilence = 200
	)

	raw := make([]int8, 0, noteLen*2+tailSilence)
	lead := aqtracker.SampleRange{Start: len(raw), Len: noteLen}
	raw = append(raw, synthSine(440, noteLen)...)
	bass := aqtracker.SampleRange{Start: len(raw), Len: noteLen}
	raw = append(raw, synthSaw(110, noteLen)...)
	raw = append(raw, make([]int8, tailSilence)...)

	bank := aqtracker.NewSampleBank(raw)

	samples := []aqtracker.BasicSample{
		{Name: "lead", Range: lead, HasLoop: true, LoopStart: 0, LoopLen: noteLen},
		{Name: "bass", Range: bass, HasLoop: true, LoopStart: 0, LoopLen: noteLen},
	}

	instruments := []aqtracker.Instrument{
		{Ops: []aqtracker.InstrumentOp{
			{Kind: aqtracker.InstrSetSample, Sample: lead},
			{Kind: aqtracker.InstrStop},
		}},
		{Ops: []aqtracker.InstrumentOp{
			{Kind: aqtracker.InstrSetSample, Sample: bass},
			{Kind: aqtracker.InstrStop},
		}},
	}

	timbres := []aqtracker.Timbre{
		{DefaultInstrument: 0, Ops: []aqtracker.TimbreOp{
			{Kind: aqtracker.TimbreSetVolume, Volume: 48},
			{Kind: aqtracker.TimbreSustain, SustainLen: 40},
			{Kind: aqtracker.TimbreGoto, GotoPC: 0},
		}},
		{DefaultInstrument: 1, Ops: []aqtracker.TimbreOp{
			{Kind: aqtracker.TimbreSetVolume, Volume: 32},
			{Kind: aqtracker.TimbreSustain, SustainLen: 80},
			{Kind: aqtracker.TimbreGoto, GotoPC: 0},
		}},
	}

	leadPattern := aqtracker.Monopattern{Steps: []aqtracker.MonopatternStep{
		{Kind: aqtracker.StepNote, Note: 24, Timbre: 0, BaseVolume: 20},
		{Kind: aqtracker.StepNote, Note: 28, Timbre: 0, BaseVolume: 20},
		{Kind: aqtracker.StepNote, Note: 31, Timbre: 0, BaseVolume: 20},
		{Kind: aqtracker.StepNote, Note: 28, Timbre: 0, BaseVolume: 20},
		{Kind: aqtracker.StepEnd},
	}}
	bassPattern := aqtracker.Monopattern{Steps: []aqtracker.MonopatternStep{
		{Kind: aqtracker.StepNote, Note: 12, Timbre: 1, BaseVolume: 24},
		{Kind: aqtracker.StepNote, Note: 12, Timbre: 1, BaseVolume: 24},
		{Kind: aqtracker.StepEnd},
	}}
	silentPattern := aqtracker.Monopattern{Steps: []aqtracker.MonopatternStep{
		{Kind: aqtracker.StepEnd},
	}}

	division := aqtracker.Division{Voices: [aqtracker.NumVoices]aqtracker.DivisionVoice{
		{MonopatternIndex: 0},
		{MonopatternIndex: 1},
		{MonopatternIndex: 2},
		{MonopatternIndex: 2},
	}}

	song := &aqtracker.Song{
		Divisions:     []aqtracker.Division{division},
		FirstDivision: 0,
		LastDivision:  0,
		Monopatterns:  []aqtracker.Monopattern{leadPattern, bassPattern, silentPattern},
		Instruments:   instruments,
		Timbres:       timbres,
		Samples:       samples,
	}
	return song, bank
}
