// Package cachefactory abre el backend de cache según configuración.
// Redis si hay addr configurada, memory en caso contrario.
package cachefactory

import (
	"time"

	"github.com/dropDatabas3/agentgate/internal/cache"
	cmem "github.com/dropDatabas3/agentgate/internal/cache/memory"
	credis "github.com/dropDatabas3/agentgate/internal/cache/redis"
)

type Config struct {
	Redis struct {
		Addr string
		DB   int
	}
	Memory struct{ DefaultTTL time.Duration }
}

func Open(cfg Config) cache.Cache {
	if cfg.Redis.Addr != "" {
		return credis.New(cfg.Redis.Addr, cfg.Redis.DB)
	}
	d := cfg.Memory.DefaultTTL
	if d == 0 {
		d = 2 * time.Minute
	}
	return cmem.New(d)
}
