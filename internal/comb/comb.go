// Package comb implements a simple comb-filter reverb for the mixer's
// post-processing stage, operating on float32 [-1,1] stereo PCM.
package comb

// Reverber is fed the Mixer's summed stereo output and hands back the
// reverberated signal, buffering internally as needed.
type Reverber interface {
	InputSamples(in []float32) int
	GetAudio(out []float32) int
}

// CombAdd is an incrementally-fed comb filter: audio arrives via
// InputSamples in arbitrarily sized chunks and is read back via GetAudio
// once enough has accumulated to apply the configured delay.
type CombAdd struct {
	delayOffset int // in sample pairs (stereo frames)
	decay       float32

	audio    []float32
	readPos  int
	writePos int
}

// NewCombAdd creates a comb filter with the given decay and delay,
// buffering at least initialSize stereo frames up front.
func NewCombAdd(initialSize int, decay float32, delayMs, sampleRate int) *CombAdd {
	return &CombAdd{
		delayOffset: (delayMs * sampleRate) / 1000,
		decay:       decay,
		audio:       make([]float32, 0, initialSize*2),
	}
}

// InputSamples feeds interleaved stereo samples into the filter. Once
// enough samples have accumulated, the filter begins applying the delayed,
// decayed echo to already-buffered audio. It returns the number of samples
// still needed before reverb can start.
func (c *CombAdd) InputSamples(in []float32) int {
	c.audio = append(c.audio, in...)
	if len(c.audio) > c.delayOffset*2 {
		ns := len(c.audio) - (c.delayOffset*2 + c.writePos)
		for i := 0; i < ns; i++ {
			c.audio[i+c.delayOffset*2+c.writePos] += c.audio[i+c.writePos] * c.decay
		}
		c.writePos += ns
	}
	rem := c.delayOffset*2 - len(c.audio)
	if rem < 0 {
		rem = 0
	}
	return rem
}

// GetAudio copies processed audio into out, returning the number of
// samples actually written.
func (c *CombAdd) GetAudio(out []float32) int {
	wanted := len(out)
	have := len(c.audio) - c.readPos
	if wanted > have {
		wanted = have
	}
	if wanted > 0 {
		copy(out, c.audio[c.readPos:c.readPos+wanted])
		c.readPos += wanted
	}
	return wanted
}

var _ Reverber = (*CombAdd)(nil)
