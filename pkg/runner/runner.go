package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/aretw0/homeview"
	"github.com/aretw0/homeview/internal/logging"
	"github.com/aretw0/homeview/pkg/domain"
	"github.com/aretw0/homeview/pkg/loop"
	"github.com/aretw0/homeview/pkg/query"
)

// HelpText lists the commands understood by the runner.
const HelpText = "commands: menu, close, name <text>, refresh, open <n>, back, help, quit"

// Runner reads commands and redraws the home screen on the event loop.
type Runner struct {
	app     *homeview.App
	loop    *loop.Loop
	input   io.Reader
	handler OutputHandler
	logger  *slog.Logger

	// Loop-owned.
	ctx     context.Context
	section int
	notice  string

	dirty atomic.Bool
}

// Option configures the Runner.
type Option func(*Runner)

// WithInput sets the command source. Default: os.Stdin.
func WithInput(r io.Reader) Option {
	return func(rn *Runner) {
		rn.input = r
	}
}

// WithOutput writes text frames to w, clearing the screen between frames
// when w is a terminal.
func WithOutput(w io.Writer) Option {
	return func(rn *Runner) {
		rn.handler = NewTextHandler(w, isTerminal(w))
	}
}

// WithHandler sets a custom output strategy.
func WithHandler(h OutputHandler) Option {
	return func(rn *Runner) {
		rn.handler = h
	}
}

// WithJSON writes JSON-Lines frames to w.
func WithJSON(w io.Writer) Option {
	return func(rn *Runner) {
		rn.handler = NewJSONHandler(w)
	}
}

// WithLogger sets a custom structured logger for the runner.
func WithLogger(logger *slog.Logger) Option {
	return func(rn *Runner) {
		rn.logger = logger
	}
}

// New creates a Runner. lp must be the scheduler the App was built with.
func New(app *homeview.App, lp *loop.Loop, opts ...Option) *Runner {
	r := &Runner{
		app:    app,
		loop:   lp,
		input:  os.Stdin,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = NewTextHandler(os.Stdout, isTerminal(os.Stdout))
	}
	return r
}

// Run draws the screen and processes commands until "quit", end of input or
// ctx cancellation. It returns nil on quit and end of input.
func (r *Runner) Run(ctx context.Context) error {
	r.ctx = ctx
	unwatch := r.app.Watch(r.invalidate)
	defer unwatch()

	r.invalidate()
	go r.pump()

	err := r.loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// pump forwards input lines to the loop. It exits at end of input; a read
// blocked on a terminal is abandoned when the process ends.
func (r *Runner) pump() {
	scanner := bufio.NewScanner(r.input)
	for scanner.Scan() {
		line := scanner.Text()
		if !r.loop.Post(func() { r.handle(line) }) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		r.logger.Warn("Runner: input error", "err", err)
	}
	r.loop.Post(r.loop.Stop)
}

// invalidate schedules one redraw; repeated calls before it runs coalesce.
func (r *Runner) invalidate() {
	if r.dirty.CompareAndSwap(false, true) {
		r.loop.Post(r.draw)
	}
}

func (r *Runner) handle(line string) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
	case "menu":
		r.app.Dispatch(domain.OpenMenu())
	case "close":
		r.app.Dispatch(domain.CloseMenu())
	case "name":
		name, err := SanitizeName(arg)
		if err != nil {
			r.notice = fmt.Sprintf("Invalid name: %v", err)
			break
		}
		r.app.Dispatch(domain.UpdateName(name))
	case "refresh":
		r.app.Refresh(r.ctx)
	case "open":
		n, err := strconv.Atoi(arg)
		if err != nil {
			r.notice = "Usage: open <n>"
			break
		}
		if _, err := r.app.Section(n); err != nil {
			r.notice = fmt.Sprintf("No card %d", n)
			break
		}
		r.section = n
	case "back":
		r.section = 0
	case "help":
		r.notice = HelpText
	case "quit", "exit":
		r.loop.Stop()
		return
	default:
		r.notice = fmt.Sprintf("Unknown command %q. %s", cmd, HelpText)
	}
	r.logger.Debug("Runner: command", "cmd", cmd)
	r.invalidate()
}

func (r *Runner) draw() {
	r.dirty.Store(false)

	f := r.frame()
	r.notice = ""
	if err := r.handler.Output(f); err != nil {
		r.logger.Error("Runner: output failed", "err", err)
		r.loop.Stop()
	}
}

func (r *Runner) frame() Frame {
	cards := r.app.Cards()
	f := Frame{
		Screen: ScreenHome,
		State:  r.app.State(),
		Phase:  cards.Phase.String(),
		Notice: r.notice,
	}
	switch cards.Phase {
	case query.Resolved:
		f.Cards = cards.Data.Items
	case query.Failed:
		f.Error = cards.Err.Error()
	}

	if r.section > 0 {
		content, err := r.app.Section(r.section)
		if err == nil {
			f.Screen = ScreenSection
			f.Content = content + "\n(back to return)"
			return f
		}
		// The card went away (refresh in flight or failed).
		r.section = 0
	}
	f.Content = r.app.Home()
	return f
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
