package config

import (
	"fmt"
	"os"

	"github.com/wmorato/ZapSign/pkg/ai"
	"github.com/wmorato/ZapSign/pkg/utils"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	ZapSign ZapSignConfig `yaml:"zapsign"`
	AI      AIConfig      `yaml:"ai"`
	Auth    AuthConfig    `yaml:"auth"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type ZapSignConfig struct {
	BaseURL string `yaml:"base_url"`
	// APIToken is the process-wide fallback credential. Companies with
	// their own token never fall through to it.
	APIToken string `yaml:"api_token"`
}

type AIConfig struct {
	DefaultModel string        `yaml:"default_model"`
	Gemini       *ai.GeminiCfg `yaml:"gemini,omitempty"`
	OpenAI       *ai.OpenAICfg `yaml:"openai,omitempty"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

// LoadConfig reads the YAML config file (optional) and applies env
// fallbacks for secrets so they never have to live on disk.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.ZapSign.BaseURL == "" {
		cfg.ZapSign.BaseURL = utils.GetEnvDefault(
			"ZAPSIGN_BASE_URL", "https://sandbox.api.zapsign.com.br/api/v1")
	}
	if cfg.ZapSign.APIToken == "" {
		cfg.ZapSign.APIToken = utils.GetEnv("ZAPSIGN_API_TOKEN")
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gemini"
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = utils.GetEnv("JWT_SECRET")
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}

	return &cfg, nil
}

// BuildAnalyzerRegistry constructs the AI provider registry from the
// configured providers. Missing API keys fail here, at construction,
// not when a task is already running in the worker.
func BuildAnalyzerRegistry(cfg *Config) (*ai.Registry, error) {
	reg := ai.NewRegistry(cfg.AI.DefaultModel)

	geminiCfg := ai.GeminiCfg{APIKey: utils.GetEnv("GEMINI_API_KEY")}
	if cfg.AI.Gemini != nil {
		if cfg.AI.Gemini.APIKey != "" {
			geminiCfg.APIKey = cfg.AI.Gemini.APIKey
		}
		geminiCfg.BaseURL = cfg.AI.Gemini.BaseURL
	}
	if geminiCfg.APIKey != "" {
		g, err := ai.NewGemini(geminiCfg)
		if err != nil {
			return nil, fmt.Errorf("gemini analyzer: %w", err)
		}
		reg.Register("gemini", g)
	}

	openaiCfg := ai.OpenAICfg{APIKey: utils.GetEnv("OPENAI_API_KEY")}
	if cfg.AI.OpenAI != nil {
		if cfg.AI.OpenAI.APIKey != "" {
			openaiCfg.APIKey = cfg.AI.OpenAI.APIKey
		}
		openaiCfg.BaseURL = cfg.AI.OpenAI.BaseURL
	}
	if openaiCfg.APIKey != "" {
		o, err := ai.NewOpenAI(openaiCfg)
		if err != nil {
			return nil, fmt.Errorf("openai analyzer: %w", err)
		}
		reg.Register("openai", o)
	}

	if reg.Len() == 0 {
		return nil, fmt.Errorf("no AI provider configured: set GEMINI_API_KEY or OPENAI_API_KEY")
	}
	return reg, nil
}
