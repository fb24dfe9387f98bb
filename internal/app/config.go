package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete client configuration, loadable from environment
// variables (QUICKIT_ prefix), flags, or YAML config files.
type Config struct {
	APIURL      string        `default:"http://localhost:8000/api" usage:"QuickIT backend API base URL" flag:"api-url"`
	HTTPTimeout time.Duration `default:"15s" usage:"Timeout for a single backend round trip" flag:"http-timeout"`
	UserAgent   string        `default:"quickit-client/1.0" usage:"User-Agent for outbound requests" flag:"user-agent"`
	State       StateConfig
	Probe       ProbeConfig
}

// StateConfig selects and configures the durable local state store.
type StateConfig struct {
	Driver string `default:"file" usage:"Local state driver: file, memory, or redis"`
	// Dir is the state directory for the file driver. Defaults to
	// ~/.quickit when empty.
	Dir       string        `usage:"State directory for the file driver" flag:"state-dir"`
	RedisAddr string        `usage:"Redis address for the redis driver" flag:"redis-addr"`
	RedisTTL  time.Duration `default:"720h" usage:"Expiry for redis state entries" flag:"redis-ttl"`
}

// ProbeConfig controls the backend connectivity monitor.
type ProbeConfig struct {
	Interval time.Duration `default:"30s" usage:"Backend reachability probe interval" flag:"probe-interval"`
	Timeout  time.Duration `default:"5s" usage:"Backend reachability probe timeout" flag:"probe-timeout"`
}

// LoadConfig loads configuration from environment variables, flags, and YAML
// config files, and fills in the default state directory.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "QUICKIT",
		Files:     []string{"config.yaml", "/etc/quickit/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}

	if cfg.State.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "resolve home dir")
		}
		cfg.State.Dir = filepath.Join(home, ".quickit")
	}
	if cfg.State.Driver == "redis" && cfg.State.RedisAddr == "" {
		return nil, errors.New("redis driver requires QUICKIT_STATE_REDIS_ADDR")
	}

	return &cfg, nil
}
