package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/newthinker/klineprompt/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Symbols  []string       `mapstructure:"symbols"`
	Broker   BrokerConfig   `mapstructure:"broker"`
	Datasets DatasetsConfig `mapstructure:"datasets"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// BrokerConfig holds gateway integration settings.
type BrokerConfig struct {
	Provider string     `mapstructure:"provider"` // "futu" or "mock"
	Futu     FutuConfig `mapstructure:"futu"`
}

// FutuConfig holds Futu OpenD settings.
type FutuConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Env          string        `mapstructure:"env"` // "real" or "simulate"
	TradeMarket  string        `mapstructure:"trade_market"`
	SecurityFirm string        `mapstructure:"security_firm"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// DatasetsConfig holds the local dataset roots.
type DatasetsConfig struct {
	KlinesDir    string `mapstructure:"klines_dir"`
	OrdersDir    string `mapstructure:"orders_dir"`
	GroundDir    string `mapstructure:"ground_dir"`
	PromptsDir   string `mapstructure:"prompts_dir"`
	TemplatesDir string `mapstructure:"templates_dir"`
}

// FetchConfig holds batch acquisition parameters.
type FetchConfig struct {
	KlineCount int           `mapstructure:"kline_count"`
	KlineType  string        `mapstructure:"kline_type"`
	AuType     string        `mapstructure:"autype"`
	OrderDays  int           `mapstructure:"order_days"`
	Delay      time.Duration `mapstructure:"delay"`
}

// ArchiveConfig selects the cold store dataset files are mirrored to.
type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "", "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type LLMConfig struct {
	Provider     string        `mapstructure:"provider"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	SystemPrompt string        `mapstructure:"system_prompt"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Claude       ClaudeConfig  `mapstructure:"claude"`
	OpenAI       OpenAIConfig  `mapstructure:"openai"`
	Ollama       OllamaConfig  `mapstructure:"ollama"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// MetricsConfig holds metrics export configuration.
type MetricsConfig struct {
	Textfile    string `mapstructure:"textfile"`
	Pushgateway string `mapstructure:"pushgateway"`
	Job         string `mapstructure:"job"`
}

// DefaultSymbols is the watchlist used when none is configured.
var DefaultSymbols = []string{
	"HK.00700", "HK.01024", "HK.03690", "HK.09988",
	"HK.01810", "HK.00981", "HK.800000", "HK.800700",
}

var (
	brokerProviders = []string{"futu", "mock"}
	tradeEnvs       = []string{"real", "simulate"}
	tradeMarkets    = []string{"HK", "US", "SH", "SZ"}
	securityFirms   = []string{"futu_securities", "futu_inc", "futu_sg", "futu_au"}
	klineTypes      = []string{"K_1M", "K_5M", "K_15M", "K_30M", "K_60M", "K_DAY", "K_WEEK", "K_MON"}
	auTypes         = []string{"qfq", "hfq", "none"}
	archiveTypes    = []string{"", "localfs", "s3"}
	llmProviders    = []string{"", "claude", "openai", "ollama"}
)

// Load reads configuration from path layered over Defaults. An empty path
// loads defaults and environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	// Support environment variable overrides
	v.SetEnvPrefix("KLINEPROMPT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key, zero values included, so AutomaticEnv
// can override keys that have no default.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("symbols", d.Symbols)
	v.SetDefault("broker.provider", d.Broker.Provider)
	v.SetDefault("broker.futu.host", d.Broker.Futu.Host)
	v.SetDefault("broker.futu.port", d.Broker.Futu.Port)
	v.SetDefault("broker.futu.env", d.Broker.Futu.Env)
	v.SetDefault("broker.futu.trade_market", d.Broker.Futu.TradeMarket)
	v.SetDefault("broker.futu.security_firm", d.Broker.Futu.SecurityFirm)
	v.SetDefault("broker.futu.timeout", d.Broker.Futu.Timeout)
	v.SetDefault("datasets.klines_dir", d.Datasets.KlinesDir)
	v.SetDefault("datasets.orders_dir", d.Datasets.OrdersDir)
	v.SetDefault("datasets.ground_dir", d.Datasets.GroundDir)
	v.SetDefault("datasets.prompts_dir", d.Datasets.PromptsDir)
	v.SetDefault("datasets.templates_dir", d.Datasets.TemplatesDir)
	v.SetDefault("fetch.kline_count", d.Fetch.KlineCount)
	v.SetDefault("fetch.kline_type", d.Fetch.KlineType)
	v.SetDefault("fetch.autype", d.Fetch.AuType)
	v.SetDefault("fetch.order_days", d.Fetch.OrderDays)
	v.SetDefault("fetch.delay", d.Fetch.Delay)
	v.SetDefault("archive.type", d.Archive.Type)
	v.SetDefault("archive.path", d.Archive.Path)
	v.SetDefault("archive.s3.bucket", d.Archive.S3.Bucket)
	v.SetDefault("archive.s3.endpoint", d.Archive.S3.Endpoint)
	v.SetDefault("archive.s3.region", d.Archive.S3.Region)
	v.SetDefault("archive.s3.access_key", d.Archive.S3.AccessKey)
	v.SetDefault("archive.s3.secret_key", d.Archive.S3.SecretKey)
	v.SetDefault("archive.s3.prefix", d.Archive.S3.Prefix)
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.system_prompt", d.LLM.SystemPrompt)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("llm.claude.api_key", d.LLM.Claude.APIKey)
	v.SetDefault("llm.claude.model", d.LLM.Claude.Model)
	v.SetDefault("llm.openai.api_key", d.LLM.OpenAI.APIKey)
	v.SetDefault("llm.openai.model", d.LLM.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", d.LLM.OpenAI.BaseURL)
	v.SetDefault("llm.ollama.endpoint", d.LLM.Ollama.Endpoint)
	v.SetDefault("llm.ollama.model", d.LLM.Ollama.Model)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
	v.SetDefault("metrics.pushgateway", d.Metrics.Pushgateway)
	v.SetDefault("metrics.job", d.Metrics.Job)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Symbols: slices.Clone(DefaultSymbols),
		Broker: BrokerConfig{
			Provider: "futu",
			Futu: FutuConfig{
				Host:         "127.0.0.1",
				Port:         11111,
				Env:          "real",
				TradeMarket:  "HK",
				SecurityFirm: "futu_securities",
				Timeout:      15 * time.Second,
			},
		},
		Datasets: DatasetsConfig{
			KlinesDir:    "./datasets/klines",
			OrdersDir:    "./datasets/orders",
			GroundDir:    "./datasets/ground",
			PromptsDir:   "./prompts",
			TemplatesDir: "./strategies",
		},
		Fetch: FetchConfig{
			KlineCount: 64,
			KlineType:  "K_DAY",
			AuType:     "qfq",
			OrderDays:  60,
			Delay:      time.Second,
		},
		LLM: LLMConfig{
			MaxTokens: 4096,
			Timeout:   2 * time.Minute,
			Ollama: OllamaConfig{
				Endpoint: "http://localhost:11434",
			},
		},
		Metrics: MetricsConfig{
			Job: "klineprompt",
		},
	}
}

func oneOf(field, value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return core.WrapError(core.ErrConfigInvalid,
		fmt.Errorf("%s must be one of %q, got %q", field, allowed, value))
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Broker validation
	if err := oneOf("broker.provider", c.Broker.Provider, brokerProviders); err != nil {
		return err
	}
	if c.Broker.Provider == "futu" {
		f := c.Broker.Futu
		if f.Port < 1 || f.Port > 65535 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("port must be between 1 and 65535, got %d", f.Port))
		}
		if err := oneOf("broker.futu.env", f.Env, tradeEnvs); err != nil {
			return err
		}
		if err := oneOf("broker.futu.trade_market", f.TradeMarket, tradeMarkets); err != nil {
			return err
		}
		if err := oneOf("broker.futu.security_firm", f.SecurityFirm, securityFirms); err != nil {
			return err
		}
		if f.Timeout < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("broker.futu.timeout cannot be negative, got %s", f.Timeout))
		}
	}

	// Fetch validation
	if c.Fetch.KlineCount < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("kline_count must be positive, got %d", c.Fetch.KlineCount))
	}
	if c.Fetch.OrderDays < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("order_days cannot be negative, got %d", c.Fetch.OrderDays))
	}
	if c.Fetch.Delay < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("delay cannot be negative, got %s", c.Fetch.Delay))
	}
	if err := oneOf("fetch.kline_type", c.Fetch.KlineType, klineTypes); err != nil {
		return err
	}
	if err := oneOf("fetch.autype", c.Fetch.AuType, auTypes); err != nil {
		return err
	}

	// Archive validation
	if err := oneOf("archive.type", c.Archive.Type, archiveTypes); err != nil {
		return err
	}
	switch c.Archive.Type {
	case "localfs":
		if c.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive path required when type is localfs"))
		}
	case "s3":
		if c.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive s3 bucket required when type is s3"))
		}
	}

	// LLM validation - if provider set, check config exists
	if err := oneOf("llm.provider", c.LLM.Provider, llmProviders); err != nil {
		return err
	}
	switch c.LLM.Provider {
	case "claude":
		if c.LLM.Claude.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("claude api_key required when provider is claude"))
		}
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("openai api_key required when provider is openai"))
		}
	case "ollama":
		if c.LLM.Ollama.Endpoint == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("ollama endpoint required when provider is ollama"))
		}
	}

	return nil
}
