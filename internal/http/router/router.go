// Package router compone el chi.Router con todos los endpoints del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ctrl "github.com/dropDatabas3/agentgate/internal/http/controllers/auth"
	"github.com/dropDatabas3/agentgate/internal/http/helpers"
	"github.com/dropDatabas3/agentgate/internal/http/middlewares"
	jwtx "github.com/dropDatabas3/agentgate/internal/jwt"
)

// Deps son las dependencias del router.
type Deps struct {
	Controllers *ctrl.Controllers
	Verifier    *jwtx.Verifier
}

// New arma el router completo: endpoints públicos, token endpoint y el
// área protegida /api/* detrás del verificador de scopes admin.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middlewares.WithRequestID())
	r.Use(middlewares.WithRecover())
	r.Use(middlewares.WithLogging())

	r.Get("/.well-known/jwks.json", d.Controllers.JWKS.JWKS)
	r.With(middlewares.NoStore()).Post("/token", d.Controllers.Token.Token)
	r.Post("/servers/register", d.Controllers.Servers.Register)
	r.Get("/servers", d.Controllers.Servers.List)
	r.Get("/auth/health", d.Controllers.Health.Health)
	r.Handle("/metrics", promhttp.Handler())

	// Área protegida: cualquier ruta /api/* exige un bearer con los
	// scopes admin. Sirve de smoke test del verificador local.
	r.Group(func(r chi.Router) {
		r.Use(middlewares.RequireScopes(d.Verifier, "admin.read", "admin.write"))
		r.HandleFunc("/api/*", func(w http.ResponseWriter, req *http.Request) {
			helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "authorized"})
		})
	})

	return r
}
