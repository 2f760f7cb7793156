// Package logger provee el logging estructurado del servicio sobre zap.
//
// Uso típico:
//
//	logger.Init(logger.Config{Env: "prod", Level: "info", ServiceName: "agentgate"})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("token.issue"))
//	log.Info("token issued", logger.ClientID(id))
//
// Los middlewares HTTP inyectan un logger scoped (request_id, method, path)
// en el contexto; From(ctx) lo recupera o cae al singleton.
package logger
