package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppConfig holds the main runtime configuration.
// Thresholds and model parameters are loaded once at startup and treated as
// read-only by the detection engine.
type AppConfig struct {
	Env      string                `yaml:"env"`
	Feed     FeedConfig            `yaml:"feed"`
	Defaults Thresholds            `yaml:"defaults"`
	Symbols  map[string]Thresholds `yaml:"symbols"`
	Model    ModelConfig           `yaml:"model"`
	Dedup    DedupConfig           `yaml:"dedup"`
	Log      LogConfig             `yaml:"log"`
}

// Thresholds 单个交易标的的规则阈值；零值表示未配置。
type Thresholds struct {
	HighVolume  float64 `yaml:"highVolume"`  // 单笔成交量上限
	RapidChange float64 `yaml:"rapidChange"` // 相邻价格变动比例上限
}

// ModelConfig 离群点模型参数。
type ModelConfig struct {
	Scope         string  `yaml:"scope"`         // symbol 或 global
	MinSamples    int     `yaml:"minSamples"`    // 打分前的最小样本数
	RefitInterval int     `yaml:"refitInterval"` // 每 N 个观测重建一次模型
	Estimators    int     `yaml:"estimators"`    // 隔离树数量
	SubsampleSize int     `yaml:"subsampleSize"` // 每棵树的抽样大小
	Contamination float64 `yaml:"contamination"` // 训练集中异常比例假设
	ScoreCutoff   float64 `yaml:"scoreCutoff"`   // 低于该分数视为异常
	MaxSamples    int     `yaml:"maxSamples"`    // 样本保留上限，0 为不限
	Seed          int64   `yaml:"seed"`
}

// DedupConfig 去重集合的保留策略。
type DedupConfig struct {
	MaxEntries int `yaml:"maxEntries"` // 0 为不限
}

type FeedConfig struct {
	Endpoint string   `yaml:"endpoint"`
	Symbols  []string `yaml:"symbols"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// 与原始检测器一致的缺省值。
const (
	DefaultMinSamples    = 100
	DefaultRefitInterval = 1000
	DefaultEstimators    = 100
	DefaultSubsample     = 256
	DefaultContamination = 0.01
)

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	applyModelDefaults(&cfg.Model)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides the feed endpoint from env if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("AE_FEED_ENDPOINT"); v != "" {
		cfg.Feed.Endpoint = v
	}
	return cfg, Validate(cfg)
}

func applyModelDefaults(m *ModelConfig) {
	if m.Scope == "" {
		m.Scope = "global"
	}
	if m.MinSamples <= 0 {
		m.MinSamples = DefaultMinSamples
	}
	if m.RefitInterval <= 0 {
		m.RefitInterval = DefaultRefitInterval
	}
	if m.Estimators <= 0 {
		m.Estimators = DefaultEstimators
	}
	if m.SubsampleSize <= 0 {
		m.SubsampleSize = DefaultSubsample
	}
	if m.Contamination <= 0 {
		m.Contamination = DefaultContamination
	}
}

// ThresholdsFor 按字段合并单标的配置与全局缺省；零值字段依次回退。
func (c AppConfig) ThresholdsFor(symbol string) Thresholds {
	th := c.Symbols[symbol]
	if th.HighVolume <= 0 {
		th.HighVolume = c.Defaults.HighVolume
	}
	if th.RapidChange <= 0 {
		th.RapidChange = c.Defaults.RapidChange
	}
	return th
}

// Validate ensures required fields are present.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if len(cfg.Symbols) == 0 && cfg.Defaults == (Thresholds{}) {
		return errors.New("symbols or defaults config is required")
	}
	for sym, th := range cfg.Symbols {
		if th.HighVolume < 0 {
			return fmt.Errorf("symbol %s highVolume must be >= 0", sym)
		}
		if th.RapidChange < 0 {
			return fmt.Errorf("symbol %s rapidChange must be >= 0", sym)
		}
	}
	m := cfg.Model
	if m.Scope != "global" && m.Scope != "symbol" {
		return fmt.Errorf("model.scope must be global or symbol, got %q", m.Scope)
	}
	if m.Contamination <= 0 || m.Contamination >= 0.5 {
		return fmt.Errorf("model.contamination must be in (0, 0.5), got %v", m.Contamination)
	}
	if m.MaxSamples > 0 && m.MaxSamples < m.MinSamples {
		return fmt.Errorf("model.maxSamples %d below minSamples %d", m.MaxSamples, m.MinSamples)
	}
	if cfg.Dedup.MaxEntries < 0 {
		return errors.New("dedup.maxEntries must be >= 0")
	}
	return nil
}
