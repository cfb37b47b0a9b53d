package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"github.com/scott-cotton/cli"
	mcp "github.com/toonkit/toonmcp"
	"github.com/toonkit/toonmcp/toontools"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/time/rate"
)

const version = "0.1.0"

const instructions = `Use toon_encode to shrink JSON before reasoning over it and
toon_decode to turn TOON back into JSON. Read toon://format for the syntax.`

func serve(cfg *ServeConfig, cc *cli.Context, args []string) error {
	if _, err := cfg.Serve.Parse(cc, args); err != nil {
		return err
	}
	if cfg.Rate < 0 || cfg.Burst < 1 {
		return fmt.Errorf("%w: -rate must be >= 0 and -burst >= 1", cli.ErrUsage)
	}
	logger := newLogger(os.Stderr)

	if cfg.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			logger.Warn("gops agent failed", "error", err)
		} else {
			defer agent.Close()
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "version", version)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newHandler builds the MCP server with the codec tools. Plain HTTP/1.1 and
// cleartext HTTP/2 are both accepted.
func newHandler(cfg *ServeConfig, logger *slog.Logger) http.Handler {
	middleware := []mcp.Middleware{mcp.Logging(logger)}
	if cfg.Rate > 0 {
		middleware = append(middleware, mcp.RateLimit(rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst)))
	}
	s := mcp.NewServer("toon", version,
		mcp.WithLogger(logger),
		mcp.WithInstructions(instructions),
		mcp.WithMiddleware(middleware...),
	)
	toontools.Register(s)
	return h2c.NewHandler(s, &http2.Server{})
}
