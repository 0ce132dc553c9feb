package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

const validYAML = `
env: dev
feed:
  endpoint: wss://feed.test/stream
  symbols: [AAPL, MSFT]
defaults:
  highVolume: 10000
  rapidChange: 0.05
symbols:
  AAPL:
    highVolume: 20000
    rapidChange: 0.03
model:
  scope: symbol
  minSamples: 100
  refitInterval: 1000
dedup:
  maxEntries: 100000
`

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, validYAML)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "wss://feed.test/stream", cfg.Feed.Endpoint)
	assert.Equal(t, 20000.0, cfg.Symbols["AAPL"].HighVolume)
	assert.Equal(t, "symbol", cfg.Model.Scope)
	// 未显式配置的模型参数要回填缺省值
	assert.Equal(t, DefaultEstimators, cfg.Model.Estimators)
	assert.Equal(t, DefaultContamination, cfg.Model.Contamination)
}

func TestLoadMissingEnv(t *testing.T) {
	path := writeTempConfig(t, `
symbols:
  AAPL:
    highVolume: 1
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsBadScope(t *testing.T) {
	path := writeTempConfig(t, `
env: dev
defaults:
  highVolume: 10000
  rapidChange: 0.05
model:
  scope: cluster
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model.scope")
}

func TestLoadRejectsSmallMaxSamples(t *testing.T) {
	path := writeTempConfig(t, `
env: dev
defaults:
  highVolume: 10000
  rapidChange: 0.05
model:
  minSamples: 100
  maxSamples: 50
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestThresholdsFor(t *testing.T) {
	cfg := AppConfig{
		Defaults: Thresholds{HighVolume: 10000, RapidChange: 0.05},
		Symbols: map[string]Thresholds{
			"AAPL": {HighVolume: 20000},
		},
	}
	th := cfg.ThresholdsFor("AAPL")
	assert.Equal(t, 20000.0, th.HighVolume)
	assert.Equal(t, 0.05, th.RapidChange) // 回退到缺省

	th = cfg.ThresholdsFor("MSFT")
	assert.Equal(t, 10000.0, th.HighVolume)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, validYAML)
	t.Setenv("AE_FEED_ENDPOINT", "wss://override.test/stream")
	cfg, err := LoadWithEnvOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, "wss://override.test/stream", cfg.Feed.Endpoint)
}
