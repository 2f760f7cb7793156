package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// development | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr    string `yaml:"addr"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"server"`

	Storage struct {
		// DatabaseURL es el DSN del tier primario (Postgres). Vacío =>
		// solo fallback in-memory.
		DatabaseURL string `yaml:"database_url"`
		// ServersDBFile es el snapshot plano del tier de fallback.
		ServersDBFile string `yaml:"servers_db_file"`
	} `yaml:"storage"`

	Keys struct {
		// PrivateJWK / PublicJWK: JWK en JSON, fuente primaria de claves.
		PrivateJWK string `yaml:"private_jwk"`
		PublicJWK  string `yaml:"public_jwk"`
		// Dir es el directorio de archivos de clave de fallback.
		Dir string `yaml:"dir"`
	} `yaml:"keys"`

	Admin struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
	} `yaml:"admin"`

	Management struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
	} `yaml:"management"`

	Redis struct {
		Addr string `yaml:"addr"`
		DB   int    `yaml:"db"`
	} `yaml:"redis"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load carga el YAML (si path no es vacío y existe) y aplica overrides de
// entorno. Nunca falla por archivo ausente: la config por env sola alcanza.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setIfEnv(&c.App.Env, "APP_ENV")
	setIfEnv(&c.Server.Addr, "ADDR")
	setIfEnv(&c.Server.BaseURL, "BASE_URL")
	setIfEnv(&c.Storage.DatabaseURL, "DATABASE_URL")
	setIfEnv(&c.Storage.ServersDBFile, "SERVERS_DB_FILE")
	setIfEnv(&c.Keys.PrivateJWK, "TOKEN_SERVICE_PRIVATE_KEY")
	setIfEnv(&c.Keys.PublicJWK, "TOKEN_SERVICE_PUBLIC_KEY")
	setIfEnv(&c.Keys.Dir, "KEYS_DIR")
	setIfEnv(&c.Admin.ClientID, "ADMIN_CLIENT_ID")
	setIfEnv(&c.Admin.ClientSecret, "ADMIN_CLIENT_SECRET")
	setIfEnv(&c.Management.ClientID, "MANAGEMENT_CLIENT_ID")
	setIfEnv(&c.Management.ClientSecret, "MANAGEMENT_CLIENT_SECRET")
	setIfEnv(&c.Redis.Addr, "REDIS_ADDR")
	setIfEnv(&c.Log.Level, "LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Keys.Dir == "" {
		c.Keys.Dir = "keys"
	}
	if c.Storage.ServersDBFile == "" {
		c.Storage.ServersDBFile = "data/servers.json"
	}
	if c.App.Env == "" {
		c.App.Env = "development"
	}
}

// IsDevelopment indica si el deployment está flaggeado como desarrollo,
// lo que habilita la registración sin credencial admin.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(strings.TrimSpace(c.App.Env))
	return env == "development" || env == "dev"
}

func setIfEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
