package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"

	"github.com/knadh/koanf/v2"
)

var Global = koanf.New(".")

// LoadRequiredEnv loads the environment variables required to run the services.
// An error is returned if any of the required variables are missing in .env or
// env.
func LoadRequiredEnv() error {
	return load(Global, ".env")
}

func load(k *koanf.Koanf, envFile string) error {
	// Load default values
	k.Load(confmap.Provider(map[string]interface{}{
		RPC_DIAL_ATTEMPTS:     "3",
		WAVE_CONTRACT_ADDRESS: defaultWaveContract,
		WAVE_GAS_LIMIT:        "300000",
		WAVE_CONFIRM_TIMEOUT:  "2m",
		WAVE_CONFIRM_FALLBACK: "false",
		KAFKA_TOPIC:           "waves",
		API_PORT:              "8080",
		API_BIND_ADDR:         "127.0.0.1",
	}, "."), nil)

	// .env file is optional, but we still try to load it if it exists.
	err := k.Load(
		file.Provider(envFile), dotenv.Parser(),
	)
	if err != nil {
		slog.Warn("failed to load .env file", slog.Any("error", err))
	}

	if err := k.Load(env.Provider("", "", nil), nil); err != nil {
		slog.Warn("failed to load environment variables", slog.Any("error", err))
	}

	required := []string{
		RPC_URL_ETHEREUM,
		WAVE_CONTRACT_ADDRESS,
		API_BIND_ADDR,
		API_PORT,
	}

	for _, r := range required {
		if !k.Exists(r) || k.String(r) == "" {
			return fmt.Errorf("required environment variable %s is missing", r)
		}
	}

	if d := k.Duration(WAVE_CONFIRM_TIMEOUT); d <= 0 {
		return fmt.Errorf("%s must be a positive duration, got %q", WAVE_CONFIRM_TIMEOUT, k.String(WAVE_CONFIRM_TIMEOUT))
	}

	return nil
}

// KafkaBrokers returns the configured brokers, nil when publishing is
// disabled.
func KafkaBrokers() []string {
	return splitList(Global.String(KAFKA_BROKERS))
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
