package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingEndpoint = errors.New("AIPIPE_URL and AIPIPE_TOKEN must be set")

type Config struct {
	LLMEndpoint  string `mapstructure:"aipipe_url"`
	LLMToken     string `mapstructure:"aipipe_token"`
	LLMModel     string `mapstructure:"llm_model"`
	LLMMaxTokens int    `mapstructure:"llm_max_tokens"`
	LLMTransport string `mapstructure:"llm_transport"`
	LLMTimeoutS  int    `mapstructure:"llm_timeout_s"`

	QuizSecret string `mapstructure:"quiz_secret"`
	QuizEmail  string `mapstructure:"quiz_email"`

	ListenAddr    string `mapstructure:"listen_addr"`
	SolveTimeoutS int    `mapstructure:"solve_timeout_s"`
	MaxSteps      int    `mapstructure:"max_steps"`

	Renderer       string `mapstructure:"renderer"`
	RenderTimeoutS int    `mapstructure:"render_timeout_s"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RunTTLH       int    `mapstructure:"run_ttl_h"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

var defaults = map[string]any{
	"llm_model":        "gpt-4o",
	"llm_max_tokens":   1500,
	"llm_transport":    "http",
	"llm_timeout_s":    60,
	"listen_addr":      ":8000",
	"solve_timeout_s":  170,
	"max_steps":        12,
	"renderer":         "playwright",
	"render_timeout_s": 60,
	"redis_db":         0,
	"run_ttl_h":        24,
	"log_level":        "info",
	"log_format":       "text",
}

// keys without a default still have to be bound for AutomaticEnv to see
// them during Unmarshal.
var envOnly = []string{
	"aipipe_url",
	"aipipe_token",
	"quiz_secret",
	"quiz_email",
	"redis_addr",
	"redis_password",
}

// Load reads .env from the working directory when present, then the
// optional config file at path, then the environment. Environment wins.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	for _, k := range envOnly {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks what every command needs: a model endpoint.
func (c *Config) Validate() error {
	if c.LLMEndpoint == "" || c.LLMToken == "" {
		return ErrMissingEndpoint
	}
	return nil
}

func (c *Config) SolveTimeout() time.Duration {
	return time.Duration(c.SolveTimeoutS) * time.Second
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutS) * time.Second
}

func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.RenderTimeoutS) * time.Second
}

func (c *Config) RunTTL() time.Duration {
	return time.Duration(c.RunTTLH) * time.Hour
}
