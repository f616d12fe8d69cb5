package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cliphive/cliphive/config"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	cfg     config.Server
	handler http.Handler
	logger  *slog.Logger
}

func New(cfg config.Server, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
	}
}

// Run serves until a termination signal arrives or the listener fails,
// then shuts down gracefully within the configured timeout.
func (s *Server) Run() {

	s.logger.Info("server configuration",
		"addr", s.cfg.Addr,
		"read_timeout", s.cfg.ReadTimeout.Duration,
		"read_header_timeout", s.cfg.ReadHeaderTimeout.Duration,
		"write_timeout", s.cfg.WriteTimeout.Duration,
		"idle_timeout", s.cfg.IdleTimeout.Duration,
		"shutdown_timeout", s.cfg.ShutdownGracefulTimeout.Duration,
	)

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadTimeout:       s.cfg.ReadTimeout.Duration,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout.Duration,
		WriteTimeout:      s.cfg.WriteTimeout.Duration,
		IdleTimeout:       s.cfg.IdleTimeout.Duration,
	}

	serverError := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("ListenAndServe error", "err", err)
			serverError <- err
		}
	}()

	// SIGHUP is not a shutdown signal here, it triggers a configuration
	// reload and is handled by config.ListenReload.
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)

	select {
	case <-ctx.Done():
		s.logger.Info("received shutdown signal, gracefully shutting down")
	case err := <-serverError:
		s.logger.Error("server error, initiating shutdown", "err", err)
	}

	stop()

	gracefulCtx, cancelShutdown := context.WithTimeout(context.Background(), s.cfg.ShutdownGracefulTimeout.Duration)
	defer cancelShutdown()

	shutdownGroup, _ := errgroup.WithContext(gracefulCtx)

	shutdownGroup.Go(func() error {
		s.logger.Info("shutting down HTTP server")
		if err := srv.Shutdown(gracefulCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", "err", err)
			return err
		}
		s.logger.Info("HTTP server stopped gracefully")
		return nil
	})

	if err := shutdownGroup.Wait(); err != nil {
		s.logger.Error("error during shutdown", "err", err)
		os.Exit(1)
	}

	s.logger.Info("all systems stopped gracefully")
}
