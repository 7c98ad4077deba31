package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/homeview/internal/config"
	"github.com/aretw0/homeview/internal/presentation/tui"
	httpAdapter "github.com/aretw0/homeview/pkg/adapters/http"
	"github.com/aretw0/homeview/pkg/adapters/mcp"
	"github.com/aretw0/homeview/pkg/runner"
)

// shutdownGrace bounds how long in-flight HTTP requests may run after a signal.
const shutdownGrace = 5 * time.Second

// RunOptions configures the interactive screen.
type RunOptions struct {
	JSON   bool
	Input  io.Reader
	Output io.Writer
}

// Run draws the home screen on the terminal until the user quits or ctx ends.
func Run(ctx context.Context, cfg config.Config, opts RunOptions) error {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	c, err := Build(ctx, cfg, BuildOptions{Output: opts.Output, Plain: opts.JSON})
	if err != nil {
		return err
	}
	defer c.Close()

	runnerOpts := []runner.Option{
		runner.WithInput(opts.Input),
		runner.WithLogger(c.Logger),
	}
	if opts.JSON {
		runnerOpts = append(runnerOpts, runner.WithJSON(opts.Output))
	} else {
		runnerOpts = append(runnerOpts, runner.WithOutput(opts.Output))
		tui.PrintBanner(opts.Output, tui.NewStyle(opts.Output))
	}
	r := runner.New(c.App, c.Loop, runnerOpts...)

	if err := c.App.Start(ctx); err != nil {
		return err
	}
	defer c.App.Stop()

	return r.Run(ctx)
}

// Serve exposes the home screen over HTTP on cfg.Server.Addr until ctx ends.
func Serve(ctx context.Context, cfg config.Config) error {
	c, err := Build(ctx, cfg, BuildOptions{Plain: true, Runtime: true})
	if err != nil {
		return err
	}
	defer c.Close()

	loopErr := startLoop(ctx, c)

	if err := c.App.Start(ctx); err != nil {
		return err
	}
	defer c.App.Stop()

	server := httpAdapter.NewServer(c.App,
		httpAdapter.WithMetrics(c.Metrics.Handler()),
		httpAdapter.WithLogger(c.Logger),
	)
	defer server.Close()

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.Handler(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		c.Logger.Info("Starting homeview server", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case err := <-loopErr:
		_ = srv.Close()
		return err
	case <-ctx.Done():
		c.Logger.Info("Shutting down server")
		// Event streams never end on their own.
		server.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			c.Logger.Warn("Graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		return nil
	}
}

// MCPOptions selects the MCP transport.
type MCPOptions struct {
	// Transport is "stdio" or "sse".
	Transport string
	// Addr is the SSE listen address.
	Addr string
	// BaseURL is the address SSE clients reach the server on.
	BaseURL string
}

// ServeMCP exposes the home screen as MCP tools.
func ServeMCP(ctx context.Context, cfg config.Config, opts MCPOptions) error {
	c, err := Build(ctx, cfg, BuildOptions{Plain: true})
	if err != nil {
		return err
	}
	defer c.Close()

	startLoop(ctx, c)

	if err := c.App.Start(ctx); err != nil {
		return err
	}
	defer c.App.Stop()

	srv := mcp.NewServer(c.App, mcp.WithLogger(c.Logger))

	switch opts.Transport {
	case "", "stdio":
		c.Logger.Info("Starting homeview MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		err := srv.ServeSSE(ctx, opts.Addr, opts.BaseURL)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("unknown transport %q (supported: stdio, sse)", opts.Transport)
	}
}

// startLoop runs the event loop in the background for surfaces that have no
// input pump of their own.
func startLoop(ctx context.Context, c *Components) <-chan error {
	errc := make(chan error, 1)
	go func() {
		err := c.Loop.Run(ctx)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		if err != nil {
			errc <- err
		}
	}()
	return errc
}
