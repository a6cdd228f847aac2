package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/grieferpig/zippify/internal/app"
	"github.com/grieferpig/zippify/internal/config"
	"github.com/grieferpig/zippify/internal/engine"
)

func main() {
	var (
		configPath   = flag.String("config", "zippify.toml", "Path to the TOML configuration file")
		inputDevice  = flag.String("input-device", "", "PortAudio input device name (substring match)")
		outputDevice = flag.String("output-device", "", "PortAudio output device name (substring match)")
		sampleRate   = flag.Float64("sample-rate", 0, "Sample rate in Hz (0 = device default)")
		blockSize    = flag.Int("block-size", 0, "Samples per processing block (0 = default)")
		noAudio      = flag.Bool("no-audio", false, "Run on a synthetic test tone instead of an audio device")
		noEditor     = flag.Bool("no-editor", false, "Do not open the editor window")
		webPort      = flag.Int("web-port", 0, "HTTP port for the remote interface (0 = from config)")
		listDevs     = flag.Bool("list-audio-devices", false, "List available audio devices and exit")
		profilePath  = flag.String("profile", "", "Write audio callback timings to this CSV file")
		showStatus   = flag.Bool("status", true, "Display the live status line")
		debug        = flag.Bool("debug", false, "Enable verbose logging")
	)

	flag.Parse()

	logger := log.New(os.Stdout, "[zippify] ", log.LstdFlags)
	if !*debug {
		logger.SetOutput(os.Stderr)
		logger.SetFlags(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *inputDevice != "" {
		cfg.Audio.InputDevice = *inputDevice
	}
	if *outputDevice != "" {
		cfg.Audio.OutputDevice = *outputDevice
	}
	if *sampleRate > 0 {
		cfg.Audio.SampleRate = *sampleRate
	}
	if *blockSize > 0 {
		cfg.Audio.BlockSize = *blockSize
	}
	if *webPort > 0 {
		cfg.Web.Port = *webPort
	}
	if *noEditor {
		cfg.Editor.Enabled = false
	}

	needAudio := !*noAudio || *listDevs
	if needAudio {
		if err := engine.Initialize(); err != nil {
			logger.Fatalf("failed to initialize PortAudio: %v", err)
		}
		defer engine.Terminate()
	}

	if *listDevs {
		if err := printDevices(); err != nil {
			logger.Fatalf("list devices: %v", err)
		}
		return
	}

	appConfig := app.Config{
		Audio: engine.Config{
			InputDevice:  cfg.Audio.InputDevice,
			OutputDevice: cfg.Audio.OutputDevice,
			SampleRate:   cfg.Audio.SampleRate,
			BlockSize:    cfg.Audio.BlockSize,
		},
		InitialParams: cfg.Params,
		WebPort:       cfg.Web.Port,
		DisableAudio:  *noAudio,
		ShowEditor:    cfg.Editor.Enabled,
		ShowStatusBar: *showStatus,
		ProfilePath:   *profilePath,
		Log:           logger,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(appConfig)
	if err != nil {
		logger.Fatalf("failed to create app: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "cleanup error: %v\n", err)
		}
	}()

	if err := a.Run(ctx); err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nExiting...")
			return
		}
		logger.Fatalf("runtime error: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
}

func printDevices() error {
	devices, err := engine.ListDevices()
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(devices))
	for _, dev := range devices {
		markers := ""
		if dev.IsDefaultInput {
			markers += " in*"
		}
		if dev.IsDefaultOutput {
			markers += " out*"
		}
		rows = append(rows, []string{
			dev.Name + markers,
			dev.HostAPI,
			strconv.Itoa(dev.MaxInput),
			strconv.Itoa(dev.MaxOutput),
			fmt.Sprintf("%.0f Hz", dev.DefaultSampleHz),
		})
	}

	fmt.Println(renderTable(
		[]string{"Device", "Host API", "In", "Out", "Default Rate"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))
	return nil
}
