// Package config loads the pipeline configuration from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"bankcap/internal/apperrors"
	"bankcap/internal/extractor"
	"bankcap/internal/model"
	"bankcap/internal/pipeline"
)

// DefaultSourceURL is the archived listing of the largest banks.
const DefaultSourceURL = "https://web.archive.org/web/20230908091635/https://en.wikipedia.org/wiki/List_of_largest_banks"

// Config holds all application configuration.
type Config struct {
	Source struct {
		URL       string        `yaml:"url"`
		Proxy     string        `yaml:"proxy"`
		Timeout   time.Duration `yaml:"timeout"`
		UserAgent string        `yaml:"user_agent"`
	} `yaml:"source"`
	Extract struct {
		Columns     []string `yaml:"columns"`
		ParsePolicy string   `yaml:"parse_policy"`
	} `yaml:"extract"`
	Transform struct {
		RatesPath    string   `yaml:"rates_path"`
		Currencies   []string `yaml:"currencies"`
		ColumnFormat string   `yaml:"column_format"`
	} `yaml:"transform"`
	Output struct {
		CSVPath string `yaml:"csv_path"`
	} `yaml:"output"`
	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
		Table  string `yaml:"table"`
	} `yaml:"database"`
	Queries  []pipeline.NamedQuery `yaml:"queries"`
	Progress struct {
		LogPath string `yaml:"log_path"`
	} `yaml:"progress"`
	History struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"history"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// DefaultQueries are run after loading when the config lists none.
func DefaultQueries(table string) []pipeline.NamedQuery {
	return []pipeline.NamedQuery{
		{Name: "all_banks", SQL: fmt.Sprintf("SELECT * FROM %s", table)},
		{Name: "avg_gbp", SQL: fmt.Sprintf("SELECT AVG(MC_GBP_Billion) FROM %s", table)},
		{Name: "top_five", SQL: fmt.Sprintf("SELECT Name FROM %s LIMIT 5", table)},
	}
}

// Load reads a .env file if present, then the YAML config, then applies environment
// variable overrides and defaults. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: load .env: %v", apperrors.ErrConfig, err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: read config: %v", apperrors.ErrConfig, err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse config: %v", apperrors.ErrConfig, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		env string
		dst *string
	}{
		{"BANKCAP_SOURCE_URL", &c.Source.URL},
		{"HTTPS_PROXY", &c.Source.Proxy},
		{"BANKCAP_RATES_PATH", &c.Transform.RatesPath},
		{"BANKCAP_CSV_PATH", &c.Output.CSVPath},
		{"BANKCAP_DB_DRIVER", &c.Database.Driver},
		{"BANKCAP_DB_DSN", &c.Database.DSN},
		{"BANKCAP_TABLE", &c.Database.Table},
		{"BANKCAP_PARSE_POLICY", &c.Extract.ParsePolicy},
		{"BANKCAP_LOG_PATH", &c.Progress.LogPath},
		{"BANKCAP_HISTORY_PATH", &c.History.SQLitePath},
		{"CRON_SCHEDULE", &c.Schedule.Cron},
		{"TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken},
		{"TELEGRAM_CHAT_ID", &c.Telegram.ChatID},
		{"LOG_LEVEL", &c.Log.Level},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
	if v := os.Getenv("BANKCAP_CURRENCIES"); v != "" {
		c.Transform.Currencies = nil
		for _, code := range strings.Split(v, ",") {
			if code = strings.TrimSpace(code); code != "" {
				c.Transform.Currencies = append(c.Transform.Currencies, code)
			}
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Source.URL == "" {
		c.Source.URL = DefaultSourceURL
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = 30 * time.Second
	}
	if len(c.Extract.Columns) == 0 {
		c.Extract.Columns = []string{model.DefaultNameColumn, model.DefaultValueColumn}
	}
	if c.Extract.ParsePolicy == "" {
		c.Extract.ParsePolicy = string(extractor.Strict)
	}
	if c.Transform.RatesPath == "" {
		c.Transform.RatesPath = "./exchange_rate.csv"
	}
	if c.Transform.Currencies == nil {
		c.Transform.Currencies = []string{"GBP", "EUR", "INR"}
	}
	for i, code := range c.Transform.Currencies {
		c.Transform.Currencies[i] = strings.ToUpper(strings.TrimSpace(code))
	}
	if c.Transform.ColumnFormat == "" {
		c.Transform.ColumnFormat = model.DefaultColumnFormat
	}
	if c.Output.CSVPath == "" {
		c.Output.CSVPath = "./Largest_banks_data.csv"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "./Banks.db"
	}
	if c.Database.Table == "" {
		c.Database.Table = "Largest_banks"
	}
	if len(c.Queries) == 0 {
		c.Queries = DefaultQueries(c.Database.Table)
	}
	if c.Progress.LogPath == "" {
		c.Progress.LogPath = "./code_log.txt"
	}
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "0 0 6 * * *"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if len(c.Extract.Columns) != 2 {
		return fmt.Errorf("%w: extract.columns must name exactly 2 columns", apperrors.ErrConfig)
	}
	if _, err := extractor.ParsePolicyFromString(c.Extract.ParsePolicy); err != nil {
		return err
	}
	if strings.Count(c.Transform.ColumnFormat, "%s") != 1 {
		return fmt.Errorf("%w: transform.column_format must contain exactly one %%s", apperrors.ErrConfig)
	}
	seen := map[string]bool{}
	for _, code := range c.Transform.Currencies {
		if code == "" {
			return fmt.Errorf("%w: transform.currencies contains an empty code", apperrors.ErrConfig)
		}
		if seen[code] {
			return fmt.Errorf("%w: transform.currencies lists %s twice", apperrors.ErrConfig, code)
		}
		seen[code] = true
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("%w: database.dsn is required", apperrors.ErrConfig)
	}
	for i, q := range c.Queries {
		if strings.TrimSpace(q.SQL) == "" {
			return fmt.Errorf("%w: queries[%d] has no sql", apperrors.ErrConfig, i)
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("%w: telegram.bot_token and telegram.chat_id must be set together", apperrors.ErrConfig)
	}
	return nil
}

// TelegramEnabled reports whether run summaries should be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// PipelineOptions converts the config into orchestrator options. Call Validate first.
func (c *Config) PipelineOptions() pipeline.Options {
	policy, _ := extractor.ParsePolicyFromString(c.Extract.ParsePolicy)
	return pipeline.Options{
		SourceURL:    c.Source.URL,
		Columns:      [2]string{c.Extract.Columns[0], c.Extract.Columns[1]},
		Policy:       policy,
		RatesPath:    c.Transform.RatesPath,
		Currencies:   c.Transform.Currencies,
		ColumnFormat: c.Transform.ColumnFormat,
		CSVPath:      c.Output.CSVPath,
		Driver:       c.Database.Driver,
		DSN:          c.Database.DSN,
		Table:        c.Database.Table,
		Queries:      c.Queries,
	}
}
