// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 🎯 Logger prints the operator-facing milestone lines and mirrors each of
// them into zerolog for debugging. One line per phase per file.
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a new logger writing console output to the given writer.
// The zerolog mirror goes to stderr so stdout stays operator-readable.
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// Console returns the underlying console writer, for output (like diff
// previews) that is not a milestone line.
func (l *Logger) Console() io.Writer {
	return l.console
}

// 📝 Infof logs an [info] milestone line
func (l *Logger) Infof(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "%s %s\n", color.New(color.FgCyan).Sprint("[info]"), msg)
	l.zlog.Info().Msg(msg)
}

// 📝 OKf logs an [OK] milestone line
func (l *Logger) OKf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "%s %s\n", color.New(color.FgGreen).Sprint("[OK]"), msg)
	l.zlog.Info().Msg(msg)
}

// 📝 Warnf logs a [WARN] milestone line
func (l *Logger) Warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "%s %s\n", color.New(color.FgYellow).Sprint("[WARN]"), msg)
	l.zlog.Warn().Msg(msg)
}

// 📝 Errorf logs an [ERROR] milestone line
func (l *Logger) Errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "%s %s\n", color.New(color.FgRed).Sprint("[ERROR]"), msg)
	l.zlog.Error().Msg(msg)
}

// 📝 Newline prints a blank console line
func (l *Logger) Newline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 🔍 Validation renders a validation outcome with pterm and mirrors it
// into zerolog.
func (l *Logger) Validation(valid bool, description string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if valid {
		pterm.Success.WithPrefix(pterm.Prefix{Text: "✅"}).Println(description)
		l.zlog.Info().Msg(description)
		return
	}
	if err != nil {
		pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}).Println(description)
		pterm.Error.Println(err)
		l.zlog.Error().Err(err).Msg(description)
	} else {
		pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"}).Println(description)
		l.zlog.Warn().Msg(description)
	}
}

// 📊 Summary renders the end-of-run summary panel.
func (l *Logger) Summary(title string, lines []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pterm.DefaultSection.Println(title)
	for _, line := range lines {
		pterm.Info.WithPrefix(pterm.Prefix{Text: "•"}).Println(line)
	}
	l.zlog.Info().Strs("summary", lines).Msg(title)
}
