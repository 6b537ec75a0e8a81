package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-tender-client/devserver"
	"github.com/jrsteele09/go-tender-client/internal/config"
	"github.com/jrsteele09/go-tender-client/internal/logging"
	"github.com/rs/zerolog"
)

const sweepInterval = 10 * time.Minute

func main() {
	c := config.New()
	logger := logging.New(c.GetEnv(), c.GetLogLevel(), os.Stderr)

	for {
		if err := run(c, logger); err != nil {
			logger.Error().Err(err).Msg("error running server, restarting")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	logger.Info().Msg("server stopped")
}

func run(c config.Config, logger zerolog.Logger) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	displayAppname(c.GetAppName() + " dev")
	handler, err := devserver.New(c, devserver.WithLogger(logging.Component(logger, "devserver")))
	if err != nil {
		return fmt.Errorf("devserver.New: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweepRevoked(ctx, handler, logger)

	server := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(server, logger) }()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

func sweepRevoked(ctx context.Context, s *devserver.Server, logger zerolog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.Debug().Int("removed", n).Msg("swept revoked tokens")
			}
		}
	}
}

func listenAndServe(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
