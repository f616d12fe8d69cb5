package core

import (
	"log/slog"

	"github.com/cliphive/cliphive/cache"
	"github.com/cliphive/cliphive/config"
	"github.com/cliphive/cliphive/db"
	"github.com/cliphive/cliphive/mail"
)

// App is the application wide context.
// db connections and permanent structs go here.
//
// All handlers are methods on App, so every endpoint reaches its
// dependencies through the accessors below.
type App struct {
	dbAuth         db.DbAuth
	dbRegistration db.DbRegistration
	cooldowns      cache.Cache[string, bool]
	configProvider *config.Provider
	logger         *slog.Logger
	mailer         mail.Sender
	authenticator  Authenticator
	validator      Validator
}

// NewApp wires the application context. All arguments are required.
func NewApp(
	dbAuth db.DbAuth,
	dbRegistration db.DbRegistration,
	cooldowns cache.Cache[string, bool],
	configProvider *config.Provider,
	logger *slog.Logger,
	mailer mail.Sender,
) *App {
	a := &App{
		dbAuth:         dbAuth,
		dbRegistration: dbRegistration,
		cooldowns:      cooldowns,
		configProvider: configProvider,
		logger:         logger,
		mailer:         mailer,
		validator:      NewValidator(),
	}
	a.authenticator = NewDefaultAuthenticator(dbAuth, logger, configProvider)
	return a
}

func (a *App) DbAuth() db.DbAuth {
	return a.dbAuth
}

func (a *App) DbRegistration() db.DbRegistration {
	return a.dbRegistration
}

func (a *App) Cooldowns() cache.Cache[string, bool] {
	return a.cooldowns
}

func (a *App) Logger() *slog.Logger {
	return a.logger
}

func (a *App) Config() *config.Config {
	return a.configProvider.Get()
}

func (a *App) Mailer() mail.Sender {
	return a.mailer
}

func (a *App) Auth() Authenticator {
	return a.authenticator
}

func (a *App) SetAuthenticator(auth Authenticator) {
	a.authenticator = auth
}

func (a *App) Validator() Validator {
	return a.validator
}
