package config_test

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peancharoen/lcbp3-sub002/internal/config"
)

// writeConfigFile 写入配置文件内容
func writeConfigFile(t *testing.T, path string, level string, rps int) {
	content := `
server:
  host: 127.0.0.1
  port: 9090
log:
  level: ` + level + `
rate_limit:
  rps: ` + strconv.Itoa(rps) + `
  burst: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// TestConfigWatcher_ReloadsOnFileChange 测试配置文件改动触发回调并更新配置
func TestConfigWatcher_ReloadsOnFileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, "info", 50)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "info", cfg.Log.Level)

	watcher := config.NewConfigWatcher(cfg, path)
	var mu sync.Mutex
	var reloaded *config.Config
	watcher.OnConfigChange(func(newCfg *config.Config) {
		mu.Lock()
		reloaded = newCfg
		mu.Unlock()
	})
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	writeConfigFile(t, path, "warn", 200)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return reloaded != nil && reloaded.Log.Level == "warn"
	}, 3*time.Second, 20*time.Millisecond)

	mu.Lock()
	assert.Equal(t, float64(200), reloaded.RateLimit.RPS)
	mu.Unlock()

	// 监听器当前配置同步推进
	require.Eventually(t, func() bool {
		return watcher.GetConfig().Log.Level == "warn"
	}, 3*time.Second, 20*time.Millisecond)
}

// TestConfigWatcher_StopSuppressesCallbacks 测试停止后不再派发变更
func TestConfigWatcher_StopSuppressesCallbacks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, "info", 50)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	watcher := config.NewConfigWatcher(cfg, path)
	var mu sync.Mutex
	calls := 0
	watcher.OnConfigChange(func(*config.Config) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	require.NoError(t, watcher.Start())
	watcher.Stop()

	writeConfigFile(t, path, "error", 50)
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	assert.Equal(t, 0, calls)
	mu.Unlock()
}
