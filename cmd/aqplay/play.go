package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/ebitengine/oto/v3"
	"github.com/gordonklaus/portaudio"
	"github.com/kestrelaudio/aqtracker"
	"github.com/kestrelaudio/aqtracker/internal/comb"
)

const (
	escape     = "\x1b["
	hideCursor = escape + "?25l"
	showCursor = escape + "?25h"
)

const audioBufferSize = 756 / 2

// AudioPlayer encapsulates Mixer-driven audio playback and the terminal UI
// on top of either of two audio backends, mirroring the
// Initialize/Run/Stop lifecycle the teacher's cmd/modplay uses.
type AudioPlayer struct {
	mixer  *aqtracker.Mixer
	song   *aqtracker.Song
	reverb comb.Reverber

	backend string
	stream  *portaudio.Stream
	otoCtx  *oto.Context
	otoPlay *oto.Player

	scratch []float32

	uiWriter        io.Writer
	tracer          *consoleTracer
	selectedVoice   int
	soloVoice       int
	muted           [aqtracker.NumVoices]bool
	playing         bool

	ctx            context.Context
	cancelFn       context.CancelFunc
	wg             sync.WaitGroup
	stopOnce       sync.Once
	terminated     bool
	keyboardDoneCh chan struct{}
}

// NewAudioPlayer creates a player driving mixer through the named backend.
func NewAudioPlayer(mixer *aqtracker.Mixer, song *aqtracker.Song, reverb comb.Reverber, backend string, noUI bool) *AudioPlayer {
	var uiw io.Writer = os.Stdout
	if noUI {
		uiw = io.Discard
	}
	ctx, cancel := context.WithCancel(context.Background())

	tracer := newConsoleTracer(uiw)
	mixer.SetTracer(tracer)

	return &AudioPlayer{
		mixer:          mixer,
		song:           song,
		reverb:         reverb,
		backend:        backend,
		uiWriter:       uiw,
		tracer:         tracer,
		soloVoice:      -1,
		playing:        true,
		ctx:            ctx,
		cancelFn:       cancel,
		keyboardDoneCh: make(chan struct{}),
	}
}

// Run starts playback and the UI loop, blocking until the player is
// stopped via Ctrl-C, Esc, or a fatal setup error.
func (ap *AudioPlayer) Run() error {
	if err := ap.setupAudioStream(); err != nil {
		return err
	}

	ap.setupSignalHandlers()
	ap.setupKeyboardHandlers()

	fmt.Fprint(ap.uiWriter, hideCursor)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ap.ctx.Done():
			goto exit
		case <-ticker.C:
			ap.tracer.Render(ap.selectedVoice, ap.soloVoice, ap.muted)
		}
	}

exit:
	fmt.Fprint(ap.uiWriter, showCursor)

	select {
	case <-ap.keyboardDoneCh:
	case <-time.After(500 * time.Millisecond):
	}

	ap.wg.Wait()
	return nil
}

// streamCallback renders one buffer's worth of stereo PCM from the Mixer
// through the post-processing reverb stage.
func (ap *AudioPlayer) streamCallback(out []float32) {
	if len(ap.scratch) < len(out) {
		ap.scratch = make([]float32, len(out))
	}
	sc := ap.scratch[:len(out)]

	if ap.playing {
		ap.mixer.Callback(sc)
	} else {
		for i := range sc {
			sc[i] = 0
		}
	}

	ap.reverb.InputSamples(sc)
	ap.reverb.GetAudio(out)
}

func (ap *AudioPlayer) setupAudioStream() error {
	switch ap.backend {
	case "oto":
		return ap.setupOto()
	default:
		return ap.setupPortaudio()
	}
}

func (ap *AudioPlayer) setupPortaudio() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(*flagHz), audioBufferSize, ap.streamCallback)
	if err != nil {
		return err
	}
	ap.stream = stream
	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}
	return nil
}

// otoReader adapts AudioPlayer.streamCallback to the io.Reader oto expects,
// encoding float32 samples as little-endian IEEE 754 bytes (oto.FormatFloat32LE).
type otoReader struct {
	ap  *AudioPlayer
	buf []float32
}

func (r *otoReader) Read(p []byte) (int, error) {
	n := len(p) / 4
	if n == 0 {
		return 0, nil
	}
	if len(r.buf) < n {
		r.buf = make([]float32, n)
	}
	samples := r.buf[:n]
	r.ap.streamCallback(samples)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return n * 4, nil
}

func (ap *AudioPlayer) setupOto() error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   *flagHz,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return err
	}
	<-ready

	ap.otoCtx = ctx
	ap.otoPlay = ctx.NewPlayer(&otoReader{ap: ap})
	ap.otoPlay.SetBufferSize(audioBufferSize * 4 * 4)
	ap.otoPlay.Play()
	return nil
}

func (ap *AudioPlayer) setupSignalHandlers() {
	sigch := make(chan os.Signal, 5)
	signal.Notify(sigch, syscall.SIGINT)

	ap.wg.Add(1)
	go func() {
		defer ap.wg.Done()
		select {
		case <-ap.ctx.Done():
		case <-sigch:
			ap.Stop()
		}
	}()
}

func (ap *AudioPlayer) setupKeyboardHandlers() {
	ap.wg.Add(1)
	go func() {
		defer ap.wg.Done()
		keyboard.Listen(func(key keys.Key) (stop bool, err error) {
			if key.Code == keys.CtrlC || key.Code == keys.Escape {
				ap.Stop()
				return true, nil
			}
			ap.handleKeyPress(key)
			return false, nil
		})
		close(ap.keyboardDoneCh)
	}()
}

func (ap *AudioPlayer) handleKeyPress(key keys.Key) {
	switch key.Code {
	case keys.Left:
		ap.selectedVoice = max(ap.selectedVoice-1, 0)
	case keys.Right:
		ap.selectedVoice = min(ap.selectedVoice+1, aqtracker.NumVoices-1)
	case keys.Space:
		ap.playing = !ap.playing
	case keys.RuneKey:
		if len(key.Runes) == 0 {
			break
		}
		switch key.Runes[0] {
		case 'q':
			ap.muted[ap.selectedVoice] = !ap.muted[ap.selectedVoice]
			ap.mixer.SetMuted(ap.selectedVoice, ap.muted[ap.selectedVoice])
		case 's':
			if ap.soloVoice != ap.selectedVoice {
				ap.soloVoice = ap.selectedVoice
				for i := range ap.muted {
					ap.muted[i] = i != ap.selectedVoice
					ap.mixer.SetMuted(i, ap.muted[i])
				}
			} else {
				ap.soloVoice = -1
				for i := range ap.muted {
					ap.muted[i] = false
					ap.mixer.SetMuted(i, false)
				}
			}
		case 'r':
			// Re-trigger the song from the top on this voice, exercising
			// the live source-swap path (Mixer.SetSource -> Flush).
			ap.mixer.SetSource(ap.selectedVoice, aqtracker.NewSongIterator(ap.song, ap.selectedVoice))
		}
	}
}

// Stop performs a clean, idempotent shutdown of whichever backend is live.
func (ap *AudioPlayer) Stop() {
	ap.stopOnce.Do(func() {
		ap.cancelFn()

		if ap.stream != nil {
			ap.stream.Stop()
			ap.stream.Close()
		}
		if !ap.terminated && ap.backend != "oto" {
			portaudio.Terminate()
			ap.terminated = true
		}
		if ap.otoPlay != nil {
			ap.otoPlay.Close()
		}

		fmt.Fprint(ap.uiWriter, showCursor)
	})
}
