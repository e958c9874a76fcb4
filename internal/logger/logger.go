// Package logger prints tagged, colourised status lines to stdout.
//
//	logger.Info("DB", "Applied migration v1")
//	logger.Error("API", fmt.Sprintf("reload failed: %v", err))
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/muesli/termenv"
)

var (
	mu      sync.Mutex
	out     io.Writer
	profile = termenv.EnvColorProfile()

	colorInfo    = profile.Color("#60a5fa")
	colorSuccess = profile.Color("#4ade80")
	colorWarn    = profile.Color("#facc15")
	colorError   = profile.Color("#f87171")
	colorMuted   = profile.Color("#9ca3af")
	colorAccent  = profile.Color("#c084fc")
)

// SetOutput redirects log lines to w; nil restores stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

func writer() io.Writer {
	if out != nil {
		return out
	}
	return os.Stdout
}

func line(symbol string, c termenv.Color, tag, msg string) {
	mu.Lock()
	defer mu.Unlock()
	ts := termenv.String(time.Now().Format("15:04:05")).Foreground(colorMuted)
	sym := termenv.String(symbol).Foreground(c).Bold()
	label := termenv.String(fmt.Sprintf("[%s]", tag)).Foreground(c)
	fmt.Fprintf(writer(), "%s %s %s %s\n", ts, sym, label, msg)
}

// Info prints a neutral status message.
func Info(tag, msg string) { line("•", colorInfo, tag, msg) }

// Success prints a completed-step message.
func Success(tag, msg string) { line("✓", colorSuccess, tag, msg) }

// Warn prints a recoverable problem.
func Warn(tag, msg string) { line("!", colorWarn, tag, msg) }

// Error prints a failure.
func Error(tag, msg string) { line("✗", colorError, tag, msg) }

// Banner prints the startup banner with the build version.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(writer())
	fmt.Fprintln(writer(), termenv.String("  tour-planner").Foreground(colorAccent).Bold())
	fmt.Fprintln(writer(), termenv.String("  cultural package optimizer · "+version).Foreground(colorMuted))
	fmt.Fprintln(writer())
}

// Section prints a heading separating groups of output.
func Section(title string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(writer(), "\n%s\n", termenv.String("── "+title+" ──").Foreground(colorAccent))
}

// Stats prints an aligned key/value line.
func Stats(key string, value interface{}) {
	mu.Lock()
	defer mu.Unlock()
	k := termenv.String(fmt.Sprintf("  %-18s", key)).Foreground(colorMuted)
	fmt.Fprintf(writer(), "%s %v\n", k, value)
}

// Server announces the listen address.
func Server(addr string) {
	Success("Server", fmt.Sprintf("Listening on http://%s", addr))
}
