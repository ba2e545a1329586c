// aqrender renders the bundled demo song to a fixed-duration stereo WAV
// file, for offline inspection without an audio backend.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/kestrelaudio/aqtracker"
	"github.com/kestrelaudio/aqtracker/cmd/internal/config"
	"github.com/kestrelaudio/aqtracker/cmd/internal/demosong"
	"github.com/youpy/go-wav"
)

var (
	flagHz       = flag.Int("hz", 44100, "output hz")
	flagSeconds  = flag.Float64("seconds", 5.0, "duration to render, in seconds")
	flagOut      = flag.String("out", "aqtracker.wav", "output WAV path")
	flagReverb   = flag.String("reverb", "light", "reverb amount: none, light, medium, silly")
)

const framesPerWrite = 1024

func main() {
	log.SetFlags(0)
	log.SetPrefix("aqrender: ")
	flag.Parse()

	song, bank := demosong.New()

	mixer, err := aqtracker.NewMixer(bank, *flagHz)
	if err != nil {
		log.Fatal(err)
	}
	mixer.PlaySong(song)

	reverb, err := config.ReverbFromFlag(*flagReverb, *flagHz)
	if err != nil {
		log.Fatal(err)
	}

	outF, err := os.Create(*flagOut)
	if err != nil {
		log.Fatal(err)
	}
	defer outF.Close()

	totalFrames := uint32(*flagSeconds * float64(*flagHz))
	ww := wav.NewWriter(outF, totalFrames, 2, uint32(*flagHz), 16)

	stereo := make([]float32, framesPerWrite*2)
	samples := make([]wav.Sample, framesPerWrite)

	var written uint32
	for written < totalFrames {
		frames := framesPerWrite
		if remaining := totalFrames - written; uint32(frames) > remaining {
			frames = int(remaining)
		}

		buf := stereo[:frames*2]
		mixer.Callback(buf)
		reverb.InputSamples(buf)
		reverb.GetAudio(buf)

		for i := 0; i < frames; i++ {
			samples[i].Values[0] = floatToPCM16(buf[2*i])
			samples[i].Values[1] = floatToPCM16(buf[2*i+1])
		}
		if err := ww.WriteSamples(samples[:frames]); err != nil {
			log.Fatal(err)
		}
		written += uint32(frames)
	}

	log.Printf("wrote %s (%d frames at %d Hz)", *flagOut, totalFrames, *flagHz)
}

func floatToPCM16(f float32) int {
	if f > 1 {
		f = 1
	} else if f < -1 {
		f = -1
	}
	return int(f * 32767)
}
