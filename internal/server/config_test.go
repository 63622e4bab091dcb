package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tabled.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadServerConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadServerConfig(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, "localhost:8080", cfg.GetServerAddress())
	require.Len(t, cfg.Tables, 1)
	require.Equal(t, "memory", cfg.Wallet.Driver)
	require.Equal(t, "memory", cfg.Store.Driver)
}

func TestLoadServerConfigFromFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
server {
  address = "0.0.0.0"
  port    = 9000
}

wallet {
  driver = "sqlite"
  path   = "chips.db"
}

table "highstakes" {
  small_blind     = 50
  big_blind       = 100
  turn_timeout_ms = 30000
  grace_ms        = 10000
}

bot "seed" {
  strategy = "value"
  tables   = ["highstakes"]
  buy_in   = 10000
}
`)

	cfg, err := LoadServerConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "0.0.0.0:9000", cfg.GetServerAddress())
	require.Equal(t, "sqlite", cfg.Wallet.Driver)
	require.Equal(t, "chips.db", cfg.Wallet.Path)
	require.Equal(t, "memory", cfg.Store.Driver)

	table := cfg.GetTableByName("highstakes")
	require.NotNil(t, table)
	require.Equal(t, 6, table.MaxPlayers)
	require.Equal(t, 100*50, table.BuyInMin)
	require.Equal(t, 30*time.Second, table.TurnBudget())
	require.Equal(t, 10*time.Second, table.Grace())

	bots := cfg.GetBotsForTable("highstakes")
	require.Len(t, bots, 1)
	require.Equal(t, "value", bots[0].Strategy)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	t.Parallel()

	base := func() *ServerConfig { return DefaultServerConfig() }

	t.Run("duplicate table names", func(t *testing.T) {
		cfg := base()
		cfg.Tables = append(cfg.Tables, cfg.Tables[0])
		require.Error(t, cfg.Validate())
	})

	t.Run("grace exceeds turn timeout", func(t *testing.T) {
		cfg := base()
		cfg.Tables[0].GraceMs = cfg.Tables[0].TurnTimeoutMs
		require.Error(t, cfg.Validate())
	})

	t.Run("unknown bot strategy", func(t *testing.T) {
		cfg := base()
		cfg.Bots = []BotConfig{{Name: "b", Strategy: "gto", Tables: []string{"main"}, BuyIn: 200}}
		require.Error(t, cfg.Validate())
	})

	t.Run("bot on unknown table", func(t *testing.T) {
		cfg := base()
		cfg.Bots = []BotConfig{{Name: "b", Strategy: "caller", Tables: []string{"nope"}, BuyIn: 200}}
		require.Error(t, cfg.Validate())
	})

	t.Run("blinds inverted", func(t *testing.T) {
		cfg := base()
		cfg.Tables[0].BigBlind = cfg.Tables[0].SmallBlind
		require.Error(t, cfg.Validate())
	})
}
