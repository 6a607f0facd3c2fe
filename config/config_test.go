package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	AppConfig = Config{}

	require.NoError(t, LoadConfig(t.TempDir()))

	assert.Equal(t, "8080", AppConfig.Server.Port)
	assert.Equal(t, "kafka", AppConfig.Events.Channel)
	assert.Equal(t, "bank_account_withdrawal", AppConfig.Events.Topic)
	assert.Equal(t, 3, AppConfig.Events.MaxAttempts)
	assert.Equal(t, 2*time.Second, AppConfig.Events.InitialBackoff)
	assert.Equal(t, []string{"localhost:9092"}, AppConfig.Kafka.Brokers)

	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, AppConfig.Location()).Zone()
	assert.Equal(t, 2*60*60, offset)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	viper.Reset()
	AppConfig = Config{}

	dir := t.TempDir()
	yml := `
server:
  port: "9000"
events:
  channel: redis
  max_attempts: 5
  initial_backoff: 250ms
database:
  name: ledger
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o600))
	t.Setenv("DATABASE_NAME", "ledger_env")

	require.NoError(t, LoadConfig(dir))

	assert.Equal(t, "9000", AppConfig.Server.Port)
	assert.Equal(t, "redis", AppConfig.Events.Channel)
	assert.Equal(t, 5, AppConfig.Events.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, AppConfig.Events.InitialBackoff)
	assert.Equal(t, "ledger_env", AppConfig.Database.Name)
}
