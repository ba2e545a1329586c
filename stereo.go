package aqtracker

// stereoChunkSize bounds how many mono samples StereoMapper pulls from its
// source per inner loop iteration.
const stereoChunkSize = 32

// StereoMapper expands a mono PCMWriter into an interleaved stereo stream,
// applying a constant per-channel gain (a voice's stereo pan).
type StereoMapper struct {
	left, right float32
	buf         [stereoChunkSize]float32
	source      PCMWriter
}

// NewStereoMapper wraps source with the given left/right gains.
func NewStereoMapper(left, right float32, source PCMWriter) *StereoMapper {
	return &StereoMapper{left: left, right: right, source: source}
}

// SetVolume updates the left/right gains.
func (m *StereoMapper) SetVolume(left, right float32) {
	m.left, m.right = left, right
}

// WriteStereoPCM fills out (which must have even length) with interleaved
// L/R samples derived from len(out)/2 mono samples pulled from the source.
func (m *StereoMapper) WriteStereoPCM(out []float32) {
	monoRequested := len(out) / 2
	monoProcessed := 0
	outPos := 0
	left, right := m.left, m.right

	for monoProcessed < monoRequested {
		remaining := monoRequested - monoProcessed
		chunk := stereoChunkSize
		if remaining < chunk {
			chunk = remaining
		}
		m.source.WritePCM(m.buf[:chunk])

		for i := 0; i < chunk; i++ {
			sample := m.buf[i]
			out[outPos] = left * sample
			out[outPos+1] = right * sample
			outPos += 2
		}
		monoProcessed += chunk
	}
}
