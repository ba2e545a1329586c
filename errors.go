package aqtracker

import "errors"

// Sentinel errors for the engine's failures (§7). ErrUnsupportedSampleRate
// and ErrVoiceIndexOutOfRange are configuration errors; ErrZeroLengthSample
// is raised mid-stream, as a panic value, by the sequencer.
var (
	ErrUnsupportedSampleRate = errors.New("aqtracker: unsupported sample rate")
	ErrZeroLengthSample      = errors.New("aqtracker: zero-length sample")
	ErrVoiceIndexOutOfRange  = errors.New("aqtracker: voice index out of range")
)
