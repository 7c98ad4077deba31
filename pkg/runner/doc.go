/*
Package runner drives the interactive home screen in a terminal.

A pump goroutine reads one command per line and posts it to the event loop;
the loop is the only goroutine that dispatches, renders and writes output, so
query settlements and keyboard input never race.

# Commands

	menu          open the slide-in menu
	close         close it
	name <text>   set the greeting name
	refresh       re-issue the cards query
	open <n>      show the n-th card
	back          return to the home screen
	help          list commands
	quit          leave

# Usage

	lp := loop.New()
	app, _ := homeview.New(ctx, homeview.WithScheduler(lp))
	r := runner.New(app, lp, runner.WithOutput(os.Stdout))
	_ = app.Start(ctx)
	defer app.Stop()
	err := r.Run(ctx)

With WithJSON the runner writes one JSON object per frame instead of text,
which suits scripted use.
*/
package runner
