package app

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/grieferpig/zippify/internal/engine"
)

// profiler appends audio callback timings to a CSV file. It is sampled from
// the status loop, never from the callback itself.
type profiler struct {
	file    *os.File
	logger  *log.Logger
	enabled bool
}

func newProfiler(path string, logger *log.Logger) *profiler {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		if logger != nil {
			logger.Printf("profiler disabled: %v", err)
		}
		return nil
	}
	p := &profiler{
		file:    f,
		logger:  logger,
		enabled: true,
	}
	p.writeHeader()
	return p
}

func (p *profiler) writeHeader() {
	if p == nil || !p.enabled {
		return
	}
	fmt.Fprintln(p.file, "timestamp,last_callback_ms,max_callback_ms")
}

func (p *profiler) sample(stats engine.Stats) {
	if p == nil || !p.enabled {
		return
	}
	timestamp := time.Now().Format(time.RFC3339Nano)
	fmt.Fprintf(p.file, "%s,%.3f,%.3f\n",
		timestamp,
		stats.LastCallback.Seconds()*1000,
		stats.MaxCallback.Seconds()*1000,
	)
}

func (p *profiler) Close() error {
	if p == nil || !p.enabled {
		return nil
	}
	return p.file.Close()
}
