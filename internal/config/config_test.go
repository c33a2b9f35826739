package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/code-fixer/internal/core"
)

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 0.7, cfg.AcceptanceThreshold)
	assert.Zero(t, cfg.AttemptTimeout)
	assert.True(t, cfg.UseRetry)
	assert.Equal(t, DefaultAgentsFileName, cfg.AgentsFile)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.Server.RunTimeout)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoadConfigFromEnv(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())
	t.Setenv("FIXER_BATCH_SIZE", "4")
	t.Setenv("FIXER_ACCEPTANCE_THRESHOLD", "0.85")
	t.Setenv("FIXER_ATTEMPT_TIMEOUT", "30s")
	t.Setenv("FIXER_USE_RETRY", "false")
	t.Setenv("FIXER_LOG_LEVEL", "DEBUG")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.BatchSize)
	assert.Equal(t, 0.85, cfg.AcceptanceThreshold)
	assert.Equal(t, 30*time.Second, cfg.AttemptTimeout)
	assert.False(t, cfg.UseRetry)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{BatchSize: 10, AcceptanceThreshold: 0.7, AgentsFile: DefaultAgentsFileName}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "Valid config", mutate: func(*Config) {}},
		{name: "Zero batch size", mutate: func(c *Config) { c.BatchSize = 0 }, wantErr: true},
		{name: "Threshold above one", mutate: func(c *Config) { c.AcceptanceThreshold = 1.2 }, wantErr: true},
		{name: "Negative threshold", mutate: func(c *Config) { c.AcceptanceThreshold = -0.1 }, wantErr: true},
		{name: "Negative timeout", mutate: func(c *Config) { c.AttemptTimeout = -time.Second }, wantErr: true},
		{name: "Negative run timeout", mutate: func(c *Config) { c.Server.RunTimeout = -time.Second }, wantErr: true},
		{name: "History without database name", mutate: func(c *Config) { c.Database = DBConfig{Host: "localhost", Port: 5432} }, wantErr: true},
		{name: "Missing agents file", mutate: func(c *Config) { c.AgentsFile = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadAgentsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultAgentsFileName)
	content := `
ladders:
  type-error: [minimal-edit, conservative]
agents:
  - name: ruff
    categories: [formatting, dead_code]
    command: ruff
    args: ["check", "--fix", "{{.File}}"]
    extensions: [".py"]
    confidence: 0.8
    strategy_args:
      conservative: ["format", "{{.File}}"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	file, err := LoadAgentsFile(path)
	require.NoError(t, err)
	require.Len(t, file.Agents, 1)
	assert.Equal(t, "ruff", file.Agents[0].Name)
	assert.Equal(t, []string{"check", "--fix", "{{.File}}"}, file.Agents[0].Args)
	assert.Equal(t, 0.8, file.Agents[0].Confidence)

	ladders, err := file.StrategyLadders()
	require.NoError(t, err)
	assert.Equal(t, []core.Strategy{core.StrategyMinimalEdit, core.StrategyConservative}, ladders.For(core.CategoryTypeError))
	assert.Equal(t, core.DefaultLadders().For(core.CategorySecurity), ladders.For(core.CategorySecurity))
}

func TestLoadAgentsFileMissing(t *testing.T) {
	file, err := LoadAgentsFile(filepath.Join(t.TempDir(), "nope.yml"))
	assert.ErrorIs(t, err, ErrAgentsFileNotFound)
	require.NotNil(t, file)
	assert.Empty(t, file.Agents)
}

func TestLoadAgentsFileInvalid(t *testing.T) {
	dir := t.TempDir()

	broken := filepath.Join(dir, "broken.yml")
	require.NoError(t, os.WriteFile(broken, []byte("agents: [name: {"), 0o600))
	_, err := LoadAgentsFile(broken)
	assert.ErrorIs(t, err, ErrAgentsFileParsing)

	badLadder := filepath.Join(dir, "ladder.yml")
	require.NoError(t, os.WriteFile(badLadder, []byte("ladders:\n  security: [rewrite-everything]\n"), 0o600))
	file, err := LoadAgentsFile(badLadder)
	require.NoError(t, err)
	_, err = file.StrategyLadders()
	assert.ErrorIs(t, err, ErrAgentsFileParsing)
	assert.ErrorIs(t, err, core.ErrUnknownStrategy)
}
