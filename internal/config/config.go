package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"TrendLens/internal/calculator"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL     string   `yaml:"base_url" validate:"omitempty,url"`
		APIKey      string   `yaml:"api_key"`
		Watchlist   []string `yaml:"watchlist" validate:"required,min=1,dive,required"`
		HistoryDays int      `yaml:"history_days" validate:"gte=1"`
		Interval    string   `yaml:"interval" validate:"oneof=1d 1wk"`
	} `yaml:"data_source"`
	Schedule struct {
		AnalysisCron string `yaml:"analysis_cron" validate:"required"`
	} `yaml:"schedule"`
	Indicators Indicators `yaml:"indicators"`
	Database   struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Alerts struct {
		StatePath string `yaml:"state_path"`
	} `yaml:"alerts"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Log struct {
		Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	} `yaml:"log"`
	Concurrency int    `yaml:"concurrency" validate:"gte=1,lte=64"`
	Proxy       string `yaml:"proxy" validate:"omitempty,url"`
}

// Indicators holds the windows and thresholds handed to the calculator.
// Keys absent from the file keep the calculator defaults; an explicit 0 is
// kept as written.
type Indicators struct {
	RSIWindow       int     `yaml:"rsi_window" validate:"gt=0"`
	RSIOverbought   float64 `yaml:"rsi_overbought" validate:"gt=0,lte=100"`
	RSIOversold     float64 `yaml:"rsi_oversold" validate:"gte=0,ltfield=RSIOverbought"`
	MACDFast        int     `yaml:"macd_fast" validate:"gt=0,ltfield=MACDSlow"`
	MACDSlow        int     `yaml:"macd_slow" validate:"gt=0"`
	MACDSignal      int     `yaml:"macd_signal" validate:"gt=0"`
	BollingerWindow int     `yaml:"bollinger_window" validate:"gt=0"`
	BollingerStdDev float64 `yaml:"bollinger_std_dev" validate:"gte=0"`
	BandUpper       float64 `yaml:"band_upper" validate:"gt=0,lte=100"`
	BandLower       float64 `yaml:"band_lower" validate:"gte=0,ltfield=BandUpper"`
	LevelsWindow    int     `yaml:"levels_window" validate:"gt=0"`
	MAWindows       []int   `yaml:"ma_windows" validate:"dive,gt=0"`
}

// Load reads config from a YAML file, then applies environment variable overrides
// and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{Indicators: defaultIndicators()}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.DataSource.Watchlist = splitList(v)
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("CRON_ANALYSIS"); v != "" {
		c.Schedule.AnalysisCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("ALERT_STATE_PATH"); v != "" {
		c.Alerts.StatePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	if len(c.DataSource.Watchlist) == 0 {
		c.DataSource.Watchlist = []string{"AAPL"}
	}
	if c.DataSource.HistoryDays == 0 {
		c.DataSource.HistoryDays = 750
	}
	if c.DataSource.Interval == "" {
		c.DataSource.Interval = "1d"
	}
	if c.Schedule.AnalysisCron == "" {
		c.Schedule.AnalysisCron = "0 30 22 * * 1-5"
	}
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func defaultIndicators() Indicators {
	d := calculator.DefaultParams()
	return Indicators{
		RSIWindow:       d.RSIWindow,
		RSIOverbought:   d.RSIOverbought,
		RSIOversold:     d.RSIOversold,
		MACDFast:        d.MACDFast,
		MACDSlow:        d.MACDSlow,
		MACDSignal:      d.MACDSignal,
		BollingerWindow: d.BollingerWindow,
		BollingerStdDev: d.BollingerStdDev,
		BandUpper:       d.BandUpper,
		BandLower:       d.BandLower,
		LevelsWindow:    d.LevelsWindow,
		MAWindows:       d.MAWindows,
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}

// Validate checks field constraints and that the indicator settings form
// a usable calculator.Params.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("config validation: indicators: %w", err)
	}
	return nil
}

// RequireTelegram checks the credentials needed by the scheduled daemon.
func (c *Config) RequireTelegram() error {
	if c.Telegram.BotToken == "" {
		return errors.New("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return errors.New("telegram.chat_id is required")
	}
	return nil
}

// Params converts the indicator section into calculator parameters.
func (c *Config) Params() calculator.Params {
	ind := c.Indicators
	windows := make([]int, len(ind.MAWindows))
	copy(windows, ind.MAWindows)
	return calculator.Params{
		RSIWindow:       ind.RSIWindow,
		RSIOverbought:   ind.RSIOverbought,
		RSIOversold:     ind.RSIOversold,
		MACDFast:        ind.MACDFast,
		MACDSlow:        ind.MACDSlow,
		MACDSignal:      ind.MACDSignal,
		BollingerWindow: ind.BollingerWindow,
		BollingerStdDev: ind.BollingerStdDev,
		BandUpper:       ind.BandUpper,
		BandLower:       ind.BandLower,
		LevelsWindow:    ind.LevelsWindow,
		MAWindows:       windows,
	}
}
