package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Auth-related Prometheus metrics. Defined in a standalone package to avoid
// import cycles between services and HTTP packages.

var (
	TokensIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_tokens_issued_total",
		Help: "Access tokens emitidos con éxito",
	})

	TokenErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_token_errors_total",
		Help: "Errores del token endpoint por código OAuth",
	}, []string{"error"})

	VerifyFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_verify_failures_total",
		Help: "Fallas de verificación de bearer tokens por causa",
	}, []string{"reason"})

	Registrations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_server_registrations_total",
		Help: "Registraciones de servers por resultado",
	}, []string{"outcome"})
)

// Register registers the auth metrics on the given registry (or default if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{TokensIssued, TokenErrors, VerifyFailures, Registrations} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
