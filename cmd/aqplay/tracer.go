package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/kestrelaudio/aqtracker"
)

var (
	cyan  = color.New(color.FgCyan).SprintfFunc()
	green = color.New(color.FgGreen).SprintfFunc()
	blue  = color.New(color.FgHiBlue).SprintFunc()
)

// voiceTrace holds the most recently traced numeric state for one voice.
type voiceTrace struct {
	freq      int
	volumePct int
}

// consoleTracer renders a live per-voice frequency/volume table to an
// io.Writer, fed by a Mixer's Tracer hookup. It decouples the engine from
// this particular fatih/color-rendered display, the way modplay's
// renderUI is decoupled from PlayerState in the teacher repo.
type consoleTracer struct {
	mu     sync.Mutex
	w      io.Writer
	voices [aqtracker.NumVoices]voiceTrace
	ticks  int
}

var _ aqtracker.Tracer = (*consoleTracer)(nil)

func newConsoleTracer(w io.Writer) *consoleTracer {
	return &consoleTracer{w: w}
}

func (t *consoleTracer) TraceBuf(tick aqtracker.Timeslice, voice int, buf []float32) {
	// The engine's raw per-tick PCM is available here for a waveform
	// view; the terminal UI only needs the numeric summary below.
}

func (t *consoleTracer) TraceMessage(tick aqtracker.Timeslice, voice int, subsystem, category, message string) {
}

func (t *consoleTracer) TraceMessageNum(tick aqtracker.Timeslice, voice int, subsystem, category string, value int) {
	if voice < 0 || voice >= aqtracker.NumVoices {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	switch category {
	case "freq":
		t.voices[voice].freq = value
	case "volume_pct":
		t.voices[voice].volumePct = value
	}
	t.ticks++
}

func (t *consoleTracer) ChangeSong() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.voices = [aqtracker.NumVoices]voiceTrace{}
	t.ticks = 0
}

// Render prints a single-line-per-voice snapshot, overwriting the previous
// render via ANSI cursor movement.
func (t *consoleTracer) Render(selected, solo int, muted [aqtracker.NumVoices]bool) {
	t.mu.Lock()
	voices := t.voices
	t.mu.Unlock()

	for i, v := range voices {
		marker := " "
		if i == selected {
			marker = green(">")
		}
		status := "   "
		if muted[i] {
			status = "mut"
		} else if i == solo {
			status = "solo"
		}
		fmt.Fprintf(t.w, "%s voice %d %s %6dHz  vol %s\n",
			marker, i, blue(status), v.freq, cyan("%3d%%", v.volumePct))
	}
	fmt.Fprintf(t.w, escape+"%dF", aqtracker.NumVoices)
}
