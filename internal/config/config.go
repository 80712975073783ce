package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"AlphaScreener/internal/domain"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "ALPHA_SCREENER_CONFIG"

	CacheMemory   = "memory"
	CacheNATS     = "nats"
	CachePostgres = "postgres"

	AIAnthropic = "anthropic"
	AIOpenAI    = "openai"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig              `yaml:"logging"`
	HTTP          HTTPConfig                 `yaml:"http"`
	Database      DatabaseConfig             `yaml:"database"`
	Scheduler     SchedulerConfig            `yaml:"scheduler"`
	Cache         CacheConfig                `yaml:"cache"`
	Analysis      AnalysisConfig             `yaml:"analysis"`
	AI            AIConfig                   `yaml:"ai"`
	Providers     ProviderConfig             `yaml:"providers"`
	GitHub        GitHubConfig               `yaml:"github"`
	Notifications NotificationConfig         `yaml:"notifications"`
	Watchlist     []domain.ProjectIdentifier `yaml:"watchlist"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HTTPConfig configures the serve command. AllowedOrigins are the
// cross-origin pages permitted to open the progress stream.
type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN
// disables report history.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SchedulerConfig defines when the watchlist is refreshed.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// CacheConfig picks the cache backend.
type CacheConfig struct {
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
	NATSURL string        `yaml:"natsUrl"`
	Bucket  string        `yaml:"bucket"`
	Table   string        `yaml:"table"`
}

// AnalysisConfig tunes the orchestrator.
type AnalysisConfig struct {
	Coalesce  bool   `yaml:"coalesce"`
	OutputDir string `yaml:"outputDir"`
}

// AIConfig selects the completion backend.
type AIConfig struct {
	Provider  string          `yaml:"provider"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	ChatGPT   ChatGPTConfig   `yaml:"chatgpt"`
}

// AnthropicConfig defines how to contact the Anthropic Messages API.
type AnthropicConfig struct {
	BaseURL   string `yaml:"baseUrl"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"apiKey"`
	MaxTokens int    `yaml:"maxTokens"`
}

// ChatGPTConfig defines how to contact an OpenAI-compatible API.
type ChatGPTConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// ProviderConfig groups the funding and market data sources. Funding and
// Market name the enabled providers in merge order; empty enables all.
type ProviderConfig struct {
	Funding       []string       `yaml:"funding"`
	Market        []string       `yaml:"market"`
	Messari       EndpointConfig `yaml:"messari"`
	CryptoRank    EndpointConfig `yaml:"cryptorank"`
	CoinGecko     EndpointConfig `yaml:"coingecko"`
	CoinMarketCap EndpointConfig `yaml:"coinmarketcap"`
}

// EndpointConfig is a base URL plus credentials; an empty URL means the
// provider's public endpoint.
type EndpointConfig struct {
	BaseURL string `yaml:"baseUrl"`
	APIKey  string `yaml:"apiKey"`
}

// GitHubConfig configures the code source.
type GitHubConfig struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"baseUrl"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	APIURL   string `yaml:"apiUrl"`
}

// Load reads the YAML file named by ALPHA_SCREENER_CONFIG, if any.
func Load() (Config, error) {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile reads a .env file when present, then the YAML file at path (if
// non-empty) over the defaults, then environment overrides.
func LoadFile(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}
	cfg.bindTimezone()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheMemory:
	case CacheNATS:
		if c.Cache.NATSURL == "" {
			return fmt.Errorf("cache backend nats requires NATS_URL")
		}
	case CachePostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("cache backend postgres requires DATABASE_DSN")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}

	switch c.AI.Provider {
	case AIAnthropic, AIOpenAI:
	default:
		return fmt.Errorf("unknown ai provider %q", c.AI.Provider)
	}

	for i, p := range c.Watchlist {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("watchlist entry %d: %w", i, domain.ErrInvalidIdentifier)
		}
	}
	return nil
}

// LogValue renders the configuration with secrets masked.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("cache", c.Cache.Backend),
		slog.Duration("cacheTTL", c.Cache.TTL),
		slog.String("ai", c.AI.Provider),
		slog.String("anthropicKey", MaskSecret(c.AI.Anthropic.APIKey)),
		slog.String("openaiKey", MaskSecret(c.AI.ChatGPT.APIKey)),
		slog.String("githubToken", MaskSecret(c.GitHub.Token)),
		slog.String("databaseDSN", MaskSecret(c.Database.DSN)),
		slog.String("telegramToken", MaskSecret(c.Notifications.Telegram.BotToken)),
		slog.Bool("coalesce", c.Analysis.Coalesce),
		slog.Int("watchlist", len(c.Watchlist)),
	)
}

// MaskSecret hides all but the first and last 4 characters of a secret.
func MaskSecret(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 8:
		return "****"
	default:
		return s[:4] + "****" + s[len(s)-4:]
	}
}

func (c *Config) applyEnvOverrides() error {
	overrides := map[string]*string{
		"LOG_LEVEL":             &c.Logging.Level,
		"LOG_FORMAT":            &c.Logging.Format,
		"HTTP_ADDR":             &c.HTTP.Addr,
		"DATABASE_DSN":          &c.Database.DSN,
		"NATS_URL":              &c.Cache.NATSURL,
		"CACHE_BACKEND":         &c.Cache.Backend,
		"AI_PROVIDER":           &c.AI.Provider,
		"ANTHROPIC_API_KEY":     &c.AI.Anthropic.APIKey,
		"ANTHROPIC_MODEL":       &c.AI.Anthropic.Model,
		"OPENAI_API_KEY":        &c.AI.ChatGPT.APIKey,
		"OPENAI_MODEL":          &c.AI.ChatGPT.Model,
		"MESSARI_API_KEY":       &c.Providers.Messari.APIKey,
		"CRYPTORANK_API_KEY":    &c.Providers.CryptoRank.APIKey,
		"COINGECKO_API_KEY":     &c.Providers.CoinGecko.APIKey,
		"COINMARKETCAP_API_KEY": &c.Providers.CoinMarketCap.APIKey,
		"GITHUB_TOKEN":          &c.GitHub.Token,
		"TELEGRAM_BOT_TOKEN":    &c.Notifications.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":      &c.Notifications.Telegram.ChatID,
	}
	for name, field := range overrides {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}

	if v := os.Getenv("CACHE_TTL_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CACHE_TTL_SECONDS: %w", err)
		}
		c.Cache.TTL = time.Duration(seconds) * time.Second
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		c.HTTP.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("ANALYSIS_COALESCE"); v != "" {
		coalesce, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ANALYSIS_COALESCE: %w", err)
		}
		c.Analysis.Coalesce = coalesce
	}

	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	return nil
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		slog.Warn("config: unknown timezone, reverting to default", "timezone", tz, "default", defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		HTTP:      HTTPConfig{Addr: ":8080"},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone},
		Cache: CacheConfig{
			Backend: CacheMemory,
			TTL:     time.Hour,
			Bucket:  "ALPHA_SCREENER_CACHE",
			Table:   "analysis_cache",
		},
		Analysis: AnalysisConfig{Coalesce: true, OutputDir: "."},
		Providers: ProviderConfig{
			Funding: []string{"messari", "cryptorank"},
			Market:  []string{"coingecko", "coinmarketcap"},
		},
		AI: AIConfig{
			Provider: AIAnthropic,
			ChatGPT: ChatGPTConfig{
				SystemPrompt: "You are a crypto research analyst. Answer with a single JSON object.",
			},
		},
	}
}
