package main

import (
	"fmt"
	"net/http"

	"github.com/cliphive/cliphive/config"
	"github.com/cliphive/cliphive/core"
	"github.com/cliphive/cliphive/router"
)

// registerRoutes mounts every operation on the endpoint configured for it.
func registerRoutes(rt *router.Router, cfg *config.Config, app *core.App) error {
	routes := map[string]http.HandlerFunc{
		cfg.Endpoints.BeginRegistration:     app.BeginRegistrationHandler,
		cfg.Endpoints.ConfirmRegistration:   app.ConfirmRegistrationHandler,
		cfg.Endpoints.CompleteRegistration:  app.CompleteRegistrationHandler,
		cfg.Endpoints.RequestEmailChange:    app.RequestEmailChangeHandler,
		cfg.Endpoints.ConfirmEmailChange:    app.ConfirmEmailChangeHandler,
		cfg.Endpoints.RequestPasswordReset:  app.RequestPasswordResetHandler,
		cfg.Endpoints.ConfirmPasswordReset:  app.ConfirmPasswordResetHandler,
		cfg.Endpoints.CompletePasswordReset: app.CompletePasswordResetHandler,
		cfg.Endpoints.Login:                 app.LoginHandler,
		cfg.Endpoints.RefreshToken:          app.RefreshSessionHandler,
		cfg.Endpoints.Logout:                app.LogoutHandler,
		cfg.Endpoints.ChangePassword:        app.ChangePasswordHandler,
	}

	for endpoint, handler := range routes {
		if err := rt.Register(endpoint, handler); err != nil {
			return fmt.Errorf("failed to register route: %w", err)
		}
	}
	return nil
}
