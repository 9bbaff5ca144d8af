// internal/config/config.go
//
// Process configuration.
//   - .env (if present) is loaded into the environment first (godotenv).
//   - The environment is parsed into Config (caarlos0/env); unset keys take
//     their envDefault.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the typed view of the environment.
type Config struct {
	Port      string `env:"PORT"       envDefault:"5175"`
	AppEnv    string `env:"APP_ENV"    envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	ClientOrigin       string        `env:"CLIENT_ORIGIN"        envDefault:"http://localhost:5175"`
	SessionSecret      string        `env:"SESSION_SECRET"       envDefault:"dev_secret_change_me"`
	SessionExpiresDays int           `env:"SESSION_EXPIRES_DAYS" envDefault:"14"`
	ClientIdleTimeout  time.Duration `env:"CLIENT_IDLE_TIMEOUT"  envDefault:"2h"`

	APIKey              string        `env:"API_KEY"`
	TextModel           string        `env:"GENAI_TEXT_MODEL"      envDefault:"gemini-2.5-flash"`
	ImageModel          string        `env:"GENAI_IMAGE_MODEL"     envDefault:"imagen-4.0-generate-001"`
	PlaceholderImageURL string        `env:"PLACEHOLDER_IMAGE_URL" envDefault:"https://picsum.photos/512/512"`
	ProviderTimeout     time.Duration `env:"PROVIDER_TIMEOUT"      envDefault:"30s"`
	WordResetDelay      time.Duration `env:"WORD_RESET_DELAY"      envDefault:"1500ms"`

	SpeechEnabled bool   `env:"SPEECH_ENABLED" envDefault:"true"`
	SpeechLocale  string `env:"SPEECH_LOCALE"  envDefault:"it-IT"`

	CanvasWidth  float64 `env:"CANVAS_WIDTH"  envDefault:"800"`
	CanvasHeight float64 `env:"CANVAS_HEIGHT" envDefault:"600"`
}

// Production reports whether cookies must be Secure/SameSite=None.
func (c Config) Production() bool { return c.AppEnv == "production" }

// Addr is the listen address.
func (c Config) Addr() string { return ":" + c.Port }

// Load reads .env files (missing files are fine) and parses the environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SessionExpiresDays <= 0 {
		return Config{}, fmt.Errorf("parse env: SESSION_EXPIRES_DAYS must be positive, got %d", cfg.SessionExpiresDays)
	}
	return cfg, nil
}
