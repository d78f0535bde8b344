package main

import (
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/Kasmetheus/kaspa-rpc-proxy/pkg/log"
)

const (
	configDirPathEnv     = "KASPA_PROXY_CONFIG_DIR_PATH"
	defaultConfigDirPath = "."
)

// Config represents the overall application configuration
type Config struct {
	// KaspadRPCURL is the host:port of the kaspad gRPC endpoint.
	KaspadRPCURL string `env:"KASPAD_RPC_URL" env-default:"localhost:16110"`

	// ListenAddr is where the HTTP and WebSocket API is served.
	ListenAddr string `env:"LISTEN_ADDR" env-default:":8080"`

	// MetricsAddr is where the Prometheus endpoint is served.
	MetricsAddr string `env:"METRICS_ADDR" env-default:":4242"`

	// JWTSecret, when set, requires a bearer token on every API request.
	JWTSecret string `env:"JWT_SECRET"`

	logConf log.Config
}

// LoadConfig builds configuration from environment variables, optionally
// seeded from a .env file next to the binary.
func LoadConfig(lg log.Logger) (*Config, error) {
	lg = lg.WithName("config")

	configDirPath := os.Getenv(configDirPathEnv)
	if configDirPath == "" {
		configDirPath = defaultConfigDirPath
	}

	configDotEnvPath := filepath.Join(configDirPath, ".env")
	if err := godotenv.Load(configDotEnvPath); err != nil {
		lg.Warn(".env file not found", "path", configDotEnvPath)
	}

	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		lg.Error("failed to read env", "error", err)
		return nil, err
	}
	if err := cleanenv.ReadEnv(&config.logConf); err != nil {
		lg.Error("failed to read log env", "error", err)
		return nil, err
	}

	lg.Info("configuration loaded",
		"kaspadRPCURL", config.KaspadRPCURL,
		"listenAddr", config.ListenAddr,
		"metricsAddr", config.MetricsAddr,
		"authEnabled", config.JWTSecret != "")
	return &config, nil
}
