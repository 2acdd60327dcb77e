package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peancharoen/lcbp3-sub002/internal/config"
)

// TestDefault 测试默认配置
func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "docflow", cfg.Database.DBName)
	assert.Equal(t, "redis", cfg.Lock.Backend)
	assert.Equal(t, 5, cfg.Lock.TTLSeconds)
	assert.Equal(t, 5, cfg.Lock.Tries)
	assert.Equal(t, 100, cfg.Lock.RetryDelayMS)
	assert.Equal(t, 50, cfg.Lock.JitterMS)
	assert.Equal(t, "{ORG}-{RECIPIENT}-{SEQ:4}-{YEAR:BE}", cfg.Numbering.DefaultFormat)
	assert.Equal(t, float64(100), cfg.RateLimit.RPS)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "lcbp3-docflow", cfg.Tracing.ServiceName)
}

// TestLoad_FromFile 测试从配置文件加载并覆盖默认值
func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9090
lock:
  backend: database
  ttl_seconds: 10
numbering:
  default_format: "{PROJECT}-{TYPE}-{SEQ:5}"
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "database", cfg.Lock.Backend)
	assert.Equal(t, 10, cfg.Lock.TTLSeconds)
	assert.Equal(t, "{PROJECT}-{TYPE}-{SEQ:5}", cfg.Numbering.DefaultFormat)
	// 未覆盖的键保持默认值
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 5, cfg.Lock.Tries)
}

// TestLoad_MissingFile 测试指定的配置文件不存在时报错
func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

// TestIsProduction 测试生产环境判断
func TestIsProduction(t *testing.T) {
	assert.False(t, config.IsProduction(nil))
	assert.False(t, config.IsProduction(&config.Config{Env: "development"}))
	assert.True(t, config.IsProduction(&config.Config{Env: "production"}))
}
