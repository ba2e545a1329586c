package aqtracker

// Tracer receives optional per-tick debug output from a Mixer, decoupling
// the engine from any particular UI. cmd/aqplay's fatih/color-rendered
// display is one consumer; tests are another.
type Tracer interface {
	// TraceBuf reports the raw mono PCM a voice produced this tick.
	TraceBuf(tick Timeslice, voice int, buf []float32)
	// TraceMessage reports a string-valued debug event.
	TraceMessage(tick Timeslice, voice int, subsystem, category, message string)
	// TraceMessageNum reports a numeric-valued debug event.
	TraceMessageNum(tick Timeslice, voice int, subsystem, category string, value int)
	// ChangeSong resets any tracer state tied to the previous song.
	ChangeSong()
}

// NopTracer discards everything; it is the Mixer's default tracer.
type NopTracer struct{}

func (NopTracer) TraceBuf(Timeslice, int, []float32)                {}
func (NopTracer) TraceMessage(Timeslice, int, string, string, string) {}
func (NopTracer) TraceMessageNum(Timeslice, int, string, string, int) {}
func (NopTracer) ChangeSong()                                         {}

var _ Tracer = NopTracer{}
