// Package app wires the parameter store, the processing pipeline, the
// audio engine, and the optional editor and web surfaces into one runtime.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/eiannone/keyboard"
	"golang.org/x/term"

	"github.com/grieferpig/zippify/internal/config"
	"github.com/grieferpig/zippify/internal/dsp"
	"github.com/grieferpig/zippify/internal/editor"
	"github.com/grieferpig/zippify/internal/engine"
	"github.com/grieferpig/zippify/internal/meter"
	"github.com/grieferpig/zippify/internal/params"
	"github.com/grieferpig/zippify/internal/web"
)

// Config configures the application runtime.
type Config struct {
	Audio         engine.Config
	InitialParams config.Params
	WebPort       int
	DisableAudio  bool
	ShowEditor    bool
	ShowStatusBar bool
	ProfilePath   string
	Log           *log.Logger
}

type inputEvent int

const (
	inputEventToggleBitify inputEvent = iota
	inputEventQuit
)

// App ties together the store, pipeline, engine, meter, and surfaces.
type App struct {
	cfg    Config
	store  *params.Store
	proc   *dsp.Processor
	engine *engine.Engine
	meter  *meter.Meter
	tone   *toneGenerator
	web    *web.Server
	editor *editor.Editor
	prof   *profiler
	log    *log.Logger

	inputEvents chan inputEvent
}

// New constructs the application. The audio stream is opened here but not
// started; Run starts it.
func New(cfg Config) (*App, error) {
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stdout, "", log.LstdFlags)
	}

	store := params.NewStore()
	cfg.InitialParams.Apply(store)

	app := &App{
		cfg:   cfg,
		store: store,
		log:   cfg.Log,
	}

	if !cfg.DisableAudio {
		blockSize := cfg.Audio.BlockSize
		if blockSize <= 0 {
			blockSize = engine.DefaultBlockSize
		}
		app.proc = dsp.New(store, blockSize)
		eng, err := engine.New(cfg.Audio, app.proc)
		if err != nil {
			cfg.Log.Printf("audio unavailable, falling back to synthetic input: %v", err)
		} else {
			app.engine = eng
			app.meter = meter.New(eng.SampleRate(), meterBufferSize)
			eng.AttachMeter(app.meter)
			cfg.Log.Printf("audio stream \"%s\" -> \"%s\" @ %.0f Hz, block %d",
				eng.InputDeviceName(), eng.OutputDeviceName(), eng.SampleRate(), eng.BlockSize())
		}
	}

	if app.engine == nil {
		sampleRate := cfg.Audio.SampleRate
		if sampleRate <= 0 {
			sampleRate = 48000
		}
		blockSize := cfg.Audio.BlockSize
		if blockSize <= 0 {
			blockSize = engine.DefaultBlockSize
		}
		if app.proc == nil {
			app.proc = dsp.New(store, blockSize)
		}
		app.meter = meter.New(sampleRate, meterBufferSize)
		app.tone = newToneGenerator(app.proc, app.meter, sampleRate, blockSize)
		cfg.Log.Println("running on the built-in test tone")
	}

	if cfg.WebPort > 0 {
		app.web = web.NewServer(store, app.meter, cfg.Log)
	}
	if cfg.ShowEditor {
		if editor.Supported() {
			app.editor = editor.New(store, app.meter, cfg.Log)
		} else {
			cfg.Log.Println("editor window not available in this build, rebuild with -tags sdl")
		}
	}

	app.prof = newProfiler(cfg.ProfilePath, cfg.Log)
	return app, nil
}

const meterBufferSize = 8192

// Run starts audio and all surfaces and blocks until quit or cancellation.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.engine != nil {
		if err := a.engine.Start(); err != nil {
			return fmt.Errorf("start audio: %w", err)
		}
	}
	if a.tone != nil {
		go a.tone.Run(ctx)
	}
	if a.web != nil {
		go func() {
			if err := a.web.Start(a.cfg.WebPort); err != nil {
				a.log.Printf("web interface stopped: %v", err)
			}
		}()
		a.log.Printf("web interface on http://localhost:%d", a.cfg.WebPort)
	}

	editorDone := make(chan error, 1)
	if a.editor != nil {
		go func() {
			editorDone <- a.editor.Run(ctx)
		}()
	}

	a.startInputListener(ctx)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.finishStatusLine()
			return ctx.Err()
		case err := <-editorDone:
			// Closing the window quits the whole app, like closing the
			// plugin host would.
			a.finishStatusLine()
			if err != nil && err != context.Canceled {
				return err
			}
			return nil
		case evt, ok := <-a.inputEvents:
			if !ok {
				a.inputEvents = nil
				continue
			}
			switch evt {
			case inputEventToggleBitify:
				a.toggleBitify()
			case inputEventQuit:
				a.finishStatusLine()
				return nil
			}
		case <-ticker.C:
			a.step()
		}
	}
}

// Close releases held resources.
func (a *App) Close() error {
	if a.prof != nil {
		_ = a.prof.Close()
	}
	if a.engine != nil {
		return a.engine.Close()
	}
	return nil
}

func (a *App) step() {
	if a.engine != nil && a.prof != nil {
		a.prof.sample(a.engine.Stats())
	}
	if a.cfg.ShowStatusBar {
		a.printStatusLine()
	}
}

func (a *App) toggleBitify() {
	if a.store.LosePrecision() > 0.5 {
		a.store.Set(params.ParamLosePrecision, 0)
	} else {
		a.store.Set(params.ParamLosePrecision, 1)
	}
	a.log.Printf("8-bitify %s", a.store.DisplayText(params.ParamLosePrecision))
}

func (a *App) printStatusLine() {
	var levels meter.Levels
	if a.meter != nil {
		levels = a.meter.Levels()
	}
	text := fmt.Sprintf("%s %s | 8-bitify %s | mix %s | gain %s | rms %.3f peak %.3f",
		a.store.Name(params.ParamClampThreshold),
		a.store.DisplayText(params.ParamClampThreshold),
		a.store.DisplayText(params.ParamLosePrecision),
		a.store.DisplayText(params.ParamMix),
		a.store.DisplayText(params.ParamGain),
		levels.RMS, levels.Peak,
	)
	if a.engine != nil {
		stats := a.engine.Stats()
		text = fmt.Sprintf("%s | cb %.2fms", text, stats.LastCallback.Seconds()*1000)
	}
	fmt.Print("\r" + statusBar(text, terminalWidth()))
}

func (a *App) finishStatusLine() {
	if a.cfg.ShowStatusBar {
		fmt.Println()
	}
}

func (a *App) startInputListener(ctx context.Context) {
	if err := keyboard.Open(); err != nil {
		a.log.Printf("keyboard input disabled: %v", err)
		a.inputEvents = nil
		return
	}

	events := make(chan inputEvent, 16)
	a.inputEvents = events

	closeOnce := &sync.Once{}
	go func() {
		<-ctx.Done()
		closeOnce.Do(func() {
			_ = keyboard.Close()
		})
	}()

	go func() {
		defer close(events)
		defer closeOnce.Do(func() {
			_ = keyboard.Close()
		})
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			switch {
			case key == keyboard.KeyEsc || key == keyboard.KeyCtrlC:
				events <- inputEventQuit
				return
			case char == 'q' || char == 'Q':
				events <- inputEventQuit
				return
			case char == 'b' || char == 'B':
				select {
				case events <- inputEventToggleBitify:
				default:
				}
			}
		}
	}()
}

func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if fd < 0 {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return 0
	}
	return w
}

func statusBar(text string, width int) string {
	if width <= 0 {
		return text
	}
	if len(text) >= width {
		return text[:width]
	}
	padding := width - len(text)
	return text + strings.Repeat(" ", padding)
}
