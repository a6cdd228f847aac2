//go:build sdl

package editor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/grieferpig/zippify/internal/meter"
	"github.com/grieferpig/zippify/internal/params"
)

// Editor is the SDL-backed plugin window. It holds only the shared parameter
// store and the output meter, never the pipeline, so nothing the window does
// can block the audio thread.
type Editor struct {
	store *params.Store
	meter *meter.Meter
	log   *log.Logger

	window   *sdl.Window
	renderer *sdl.Renderer

	dragging   control
	isDragging bool
}

// New creates an editor bound to the shared store. m may be nil.
func New(store *params.Store, m *meter.Meter, logger *log.Logger) *Editor {
	if logger == nil {
		logger = log.Default()
	}
	return &Editor{store: store, meter: m, log: logger}
}

// Supported reports whether this build carries the SDL backend.
func Supported() bool { return true }

// Run opens the window and blocks until it is closed or ctx is cancelled.
func (e *Editor) Run(ctx context.Context) error {
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("sdl init: %w", err)
	}
	defer sdl.QuitSubSystem(sdl.INIT_VIDEO)

	window, err := sdl.CreateWindow(
		"Zippify",
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		windowWidth, windowHeight,
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()
	e.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	defer renderer.Destroy()
	e.renderer = renderer

	// Window title carries the live value readouts; refreshed on the usual
	// 200 ms parameter-follow cadence.
	titleTicker := time.NewTicker(200 * time.Millisecond)
	defer titleTicker.Stop()
	e.updateTitle()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-titleTicker.C:
			e.updateTitle()
		default:
		}

		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch ev := event.(type) {
			case *sdl.QuitEvent:
				return nil
			case *sdl.MouseButtonEvent:
				e.handleButton(ev)
			case *sdl.MouseMotionEvent:
				if e.isDragging {
					e.applyDrag(e.dragging, int(ev.X))
				}
			}
		}

		if err := e.draw(); err != nil {
			return err
		}
		sdl.Delay(16)
	}
}

func (e *Editor) handleButton(ev *sdl.MouseButtonEvent) {
	if ev.Button != sdl.BUTTON_LEFT {
		return
	}
	if ev.Type == sdl.MOUSEBUTTONUP {
		e.isDragging = false
		return
	}

	c, ok := hitTest(int(ev.X), int(ev.Y))
	if !ok {
		return
	}
	if c == controlBitify {
		if e.store.LosePrecision() > 0.5 {
			e.store.Set(params.ParamLosePrecision, 0)
		} else {
			e.store.Set(params.ParamLosePrecision, 1)
		}
		return
	}
	e.dragging = c
	e.isDragging = true
	e.applyDrag(c, int(ev.X))
}

func (e *Editor) applyDrag(c control, x int) {
	frac := float64(x-trackX) / float64(trackW)
	e.store.Set(controlIndex[c], normalizedFromFraction(c, frac))
}

func (e *Editor) updateTitle() {
	title := fmt.Sprintf("Zippify | %s %s | 8-bitify %s | mix %s | gain %s",
		e.store.Name(params.ParamClampThreshold),
		e.store.DisplayText(params.ParamClampThreshold),
		e.store.DisplayText(params.ParamLosePrecision),
		e.store.DisplayText(params.ParamMix),
		e.store.DisplayText(params.ParamGain),
	)
	e.window.SetTitle(title)
}

var (
	colorBackground = sdl.Color{R: 248, G: 248, B: 248, A: 255}
	colorTrack      = sdl.Color{R: 210, G: 210, B: 210, A: 255}
	colorAccent     = sdl.Color{R: 255, G: 107, B: 183, A: 255}
	colorSpectrum   = sdl.Color{R: 255, G: 107, B: 183, A: 160}
)

func (e *Editor) setColor(c sdl.Color) {
	e.renderer.SetDrawColor(c.R, c.G, c.B, c.A)
}

func (e *Editor) fill(r rect) {
	e.renderer.FillRect(&sdl.Rect{X: int32(r.x), Y: int32(r.y), W: int32(r.w), H: int32(r.h)})
}

func (e *Editor) draw() error {
	e.setColor(colorBackground)
	if err := e.renderer.Clear(); err != nil {
		return err
	}

	for c := control(0); c < numControls; c++ {
		r := controlRect(c)
		if c == controlBitify {
			e.setColor(colorTrack)
			e.fill(r)
			if e.store.LosePrecision() > 0.5 {
				e.setColor(colorAccent)
				e.fill(rect{r.x + 3, r.y + 3, r.w - 6, r.h - 6})
			}
			continue
		}

		e.setColor(colorTrack)
		e.fill(r)
		frac := fractionFromNormalized(c, e.store.Get(controlIndex[c]))
		filled := int(frac * float64(r.w))
		e.setColor(colorAccent)
		e.fill(rect{r.x, r.y, filled, r.h})
		e.fill(rect{r.x + filled - 2, r.y - 4, 4, r.h + 8})
	}

	e.drawSpectrum()

	e.renderer.Present()
	return nil
}

func (e *Editor) drawSpectrum() {
	if e.meter == nil {
		return
	}
	const (
		bins    = 60
		baseY   = windowHeight - 20
		maxBarH = 70
	)
	spectrum := e.meter.Spectrum(bins)
	barW := (windowWidth - 2*trackX) / bins

	e.setColor(colorSpectrum)
	for i, v := range spectrum {
		h := int(v * maxBarH)
		if h < 1 {
			h = 1
		}
		e.fill(rect{trackX + i*barW, baseY - h, barW - 1, h})
	}
}
