package config

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// Reload re-reads the configuration file, validates it and swaps it into
// the provider. A rejected file leaves the running configuration in place.
func Reload(path string, provider *Provider, logger *slog.Logger) error {
	cfg, err := Load(path, logger)
	if err != nil {
		return err
	}

	provider.Update(cfg)
	logger.Info("configuration reloaded", "path", path)
	return nil
}

// ListenReload reloads the configuration on SIGHUP for the lifetime of
// the process. A failed reload is logged and the previous configuration
// stays active.
func ListenReload(path string, provider *Provider, logger *slog.Logger) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP)
	go func() {
		for range ch {
			logger.Info("received SIGHUP, reloading configuration", "path", path)
			if err := Reload(path, provider, logger); err != nil {
				logger.Error("configuration reload failed, keeping previous configuration", "err", err)
			}
		}
	}()
}
