package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[server]
http_port = 8090

[database]
host = "db"
dbname = "smc_facility"
user = "smc"
password = "from-file"

[auth]
jwt_secret = "file-secret"

[reservations]
check_in_tolerance_minutes = 15
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileWithDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Server.HTTPPort)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 15, cfg.Reservations.CheckInToleranceMinutes)
	assert.Equal(t, 24, cfg.Maintenance.ConflictBufferHours)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("SMC_DATABASE_PASSWORD", "from-env")
	t.Setenv("SMC_MAINTENANCE_CONFLICT_BUFFER_HOURS", "12")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, 12, cfg.Maintenance.ConflictBufferHours)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)
}

func TestLoad_IgnoresUnprefixedEnv(t *testing.T) {
	t.Setenv("USER", "root")
	t.Setenv("PATH", "/usr/bin:/bin")
	t.Setenv("HOST", "some-host")
	t.Setenv("PORT", "9999")
	t.Setenv("LEVEL", "debug")
	t.Setenv("ENABLED", "false")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "smc", cfg.Database.User)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "info", cfg.Logs.Level)
}

func TestLoad_SplitWordsEnvNames(t *testing.T) {
	t.Setenv("SMC_DATABASE_USER", "env-user")
	t.Setenv("SMC_METRICS_PATH", "/internal/metrics")
	t.Setenv("SMC_SERVER_HTTP_PORT", "9000")
	t.Setenv("SMC_AUTH_JWT_SECRET", "env-secret")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "env-user", cfg.Database.User)
	assert.Equal(t, "/internal/metrics", cfg.Metrics.Path)
	assert.Equal(t, 9000, cfg.Server.HTTPPort)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}

func TestLoad_MissingSecret(t *testing.T) {
	_, err := Load(writeConfig(t, "[database]\ndbname = \"x\"\n"))
	require.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 1, User: "u", Password: "p", DBName: "n"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=n sslmode=disable", d.DSN())
}
