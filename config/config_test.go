package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/talent-tracker/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsWhenNoFiles(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "America/Mexico_City", cfg.Timezone)
	assert.Equal(t, 28, cfg.Dashboard.VacancyBaseline)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Empty(t, cfg.Import.WatchDir)
	assert.Equal(t, time.Minute, cfg.GetImportInterval())
}

func TestLoad_YAMLThenEnvironment(t *testing.T) {
	path := writeFile(t, "talent.yaml", `
server:
  port: 9000
database:
  path: /tmp/yaml.db
logging:
  level: debug
dashboard:
  vacancy_baseline: 30
  top_channels: 5
  recruiter_aliases:
    marta: helen
  company_short_names:
    ACME SA DE CV: ACME
import:
  watch_dir: /srv/ats
  interval: 5m
`)
	t.Setenv(config.EnvDatabase, "/tmp/env.db")
	t.Setenv(config.EnvCORSOrigins, "http://a.test, http://b.test,")

	cfg, err := config.Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path, "environment wins over YAML")
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 30, cfg.Dashboard.VacancyBaseline)
	assert.Equal(t, 5, cfg.Dashboard.TopChannels)
	assert.Equal(t, map[string]string{"marta": "helen"}, cfg.Dashboard.RecruiterAliases)
	assert.Equal(t, "ACME", cfg.Dashboard.CompanyShortNames["ACME SA DE CV"])
	assert.Equal(t, "/srv/ats", cfg.Import.WatchDir)
	assert.Equal(t, 5*time.Minute, cfg.GetImportInterval())
}

func TestLoad_DotEnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "TALENT_PORT=7070\nTALENT_LOG_DEVELOPMENT=true\n")
	// Registered so t.Setenv restores the variables godotenv sets.
	t.Setenv(config.EnvPort, "")
	t.Setenv(config.EnvLogDevelopment, "")
	os.Unsetenv(config.EnvPort)
	os.Unsetenv(config.EnvLogDevelopment)

	cfg, err := config.Load("", envFile)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.True(t, cfg.Logging.Development)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port not a number", config.EnvPort, "http"},
		{"port out of range", config.EnvPort, "70000"},
		{"unknown timezone", config.EnvTimezone, "Mars/Olympus"},
		{"negative baseline", config.EnvVacancyBaseline, "-1"},
		{"bad bool", config.EnvLogDevelopment, "sometimes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := config.Load("", "")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "server: [port")
	_, err := config.Load(path, "")
	assert.Error(t, err)
}
