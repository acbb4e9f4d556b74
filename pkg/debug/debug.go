// Package debug builds the CLI's zerolog logger.
package debug

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Options configures NewLogger.
type Options struct {
	Level   zerolog.Level
	Console bool // human readable output instead of JSON lines
	Color   bool
	Caller  bool
}

// NewLogger writes to w with the custom time and caller hooks attached.
func NewLogger(w io.Writer, opts Options) zerolog.Logger {
	if opts.Console {
		w = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    !opts.Color,
			TimeFormat: "15:04:05.000",
		}
	}
	logger := zerolog.New(w).Level(opts.Level).Hook(CustomTimeHook{})
	if opts.Caller {
		logger = logger.Hook(CustomCallerHook{WithColor: opts.Color && !opts.Console})
	}
	return logger
}

// ParseLevel accepts zerolog level names ("trace" .. "disabled").
func ParseLevel(s string) (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.NoLevel, errors.Errorf("parsing log level %q: %w", s, err)
	}
	if lvl == zerolog.NoLevel {
		return zerolog.InfoLevel, nil
	}
	return lvl, nil
}

type CustomTimeHook struct {
	Format string
	Now    func() time.Time
}

func (t CustomTimeHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	format := t.Format
	if format == "" {
		// millisecond precision, always UTC
		format = "2006-01-02T15:04:05.000Z"
	}
	e.Str("time", now().UTC().Format(format))
}

// callerSkip is the number of frames between Run and the logging call site
// (Run, Event.msg, Event.Msg).
const callerSkip = 3

type CustomCallerHook struct {
	WithColor bool
}

func (c CustomCallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	pc, file, line, ok := runtime.Caller(callerSkip)
	if !ok {
		return
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return
	}
	pkg, _ := SplitFuncName(fn.Name())
	e.Str("caller", FormatCaller(pkg, file, line, c.WithColor))
}

// SplitFuncName splits a runtime function name into its package path and the
// function, keeping the receiver with the function.
func SplitFuncName(name string) (pkg, function string) {
	lastSlash := strings.LastIndexByte(name, '/')
	if lastSlash < 0 {
		lastSlash = 0
	}
	firstDot := strings.IndexByte(name[lastSlash:], '.') + lastSlash
	if firstDot < lastSlash {
		return name, ""
	}
	pkg, function = name[:firstDot], name[firstDot+1:]

	if i := strings.Index(pkg, ".("); i >= 0 {
		function = pkg[i+1:] + "." + function
		pkg = pkg[:i]
	}
	return pkg, function
}

func FormatCaller(pkg, path string, line int, colorize bool) string {
	file := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		file = path[i+1:]
	}
	if colorize {
		sep := color.New(color.Faint).Sprint(":")
		return fmt.Sprintf("%s%s%s%s%s", pkg, sep,
			color.New(color.Bold).Sprint(file), sep,
			color.New(color.FgHiRed, color.Bold).Sprintf("%d", line))
	}
	return fmt.Sprintf("%s:%s:%d", pkg, file, line)
}
