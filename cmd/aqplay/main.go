// aqplay is a realtime playback CLI for aqtracker: it renders the bundled
// demo song through the Mixer and an audio backend, with keyboard controls
// for mute/solo/pause and live voice-source swaps.
package main

import (
	"flag"
	"log"

	"github.com/kestrelaudio/aqtracker"
	"github.com/kestrelaudio/aqtracker/cmd/internal/config"
	"github.com/kestrelaudio/aqtracker/cmd/internal/demosong"
)

var (
	flagHz      = flag.Int("hz", 44100, "output hz")
	flagReverb  = flag.String("reverb", "light", "reverb amount: none, light, medium, silly")
	flagBackend = flag.String("backend", "portaudio", "audio backend: portaudio or oto")
	flagNoUI    = flag.Bool("no-ui", false, "disable the terminal UI")
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("aqplay: ")
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

	ap := NewAudioPlayer(mixer, song, reverb, *flagBackend, *flagNoUI)
	if err := ap.Run(); err != nil {
		log.Fatal(err)
	}
}
