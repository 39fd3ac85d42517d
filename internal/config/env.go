package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env            string   `envconfig:"ENV" default:"local"`
	HTTPHost       string   `envconfig:"HTTP_HOST" default:""`
	HTTPPort       string   `envconfig:"HTTP_PORT" default:"3100"`
	LogLevel       string   `envconfig:"LOG_LEVEL" default:"debug"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".twominute/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"twominute/"`
	S3Region string `envconfig:"S3_REGION" default:"ap-northeast-1"`
	// SQLite settings (used when Type == "sqlite")
	SQLitePath string `envconfig:"SQLITE_PATH" default:".twominute/twominute.db"`
}

// GeminiEnv configures remote plan generation. An empty APIKey disables it
// and every plan comes from the rule table.
type GeminiEnv struct {
	APIKey      string        `envconfig:"GEMINI_API_KEY"`
	Model       string        `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	Fallbacks   []string      `envconfig:"GEMINI_FALLBACKS" default:"gemini-3-flash,gemini-1.5-flash-latest,gemini-1.5-flash,gemini-pro"`
	CallTimeout time.Duration `envconfig:"GEMINI_CALL_TIMEOUT" default:"20s"`
}

type AuthEnv struct {
	Secret   string        `envconfig:"AUTH_SECRET" required:"true"`
	TokenTTL time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"720h"`
}

type GuardrailEnv struct {
	RulesFile string `envconfig:"GUARDRAIL_RULES_FILE"`
}

type Env struct {
	BaseEnv
	StorageEnv
	GeminiEnv
	AuthEnv
	GuardrailEnv
}

const namespace = "TWOMINUTE"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

// LoadGeminiEnv loads only the Gemini section, for tools that run without
// the server's required settings.
func LoadGeminiEnv() (*GeminiEnv, error) {
	var env GeminiEnv
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load gemini env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

// RemoteEnabled reports whether a Gemini credential is configured.
func (e *GeminiEnv) RemoteEnabled() bool {
	return e != nil && e.APIKey != ""
}

// Candidates returns the preference-ordered model identifiers: the default
// model followed by the fallbacks.
func (e *GeminiEnv) Candidates() []string {
	return append([]string{e.Model}, e.Fallbacks...)
}

func BaseEnvFromEnv(env *Env) *BaseEnv {
	return &env.BaseEnv
}

func StorageEnvFromEnv(env *Env) *StorageEnv {
	return &env.StorageEnv
}

func GeminiEnvFromEnv(env *Env) *GeminiEnv {
	return &env.GeminiEnv
}

func AuthEnvFromEnv(env *Env) *AuthEnv {
	return &env.AuthEnv
}
