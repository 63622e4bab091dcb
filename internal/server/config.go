package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Wallet *WalletConfig  `hcl:"wallet,block"`
	Store  *StoreConfig   `hcl:"store,block"`
	Tables []TableConfig  `hcl:"table,block"`
	Bots   []BotConfig    `hcl:"bot,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address     string `hcl:"address,optional"`
	Port        int    `hcl:"port,optional"`
	LogLevel    string `hcl:"log_level,optional"`
	LogFile     string `hcl:"log_file,optional"`
	AuthURL     string `hcl:"auth_url,optional"`
	AdminSecret string `hcl:"admin_secret,optional"`
	DumpDir     string `hcl:"dump_dir,optional"`

	// HandHistoryDir enables per-hand .phh file export alongside the store
	// archive. Empty keeps archives in the store only.
	HandHistoryDir string `hcl:"hand_history_dir,optional"`
}

// WalletConfig selects the chip ledger backing the tables. The memory driver
// seeds every account on first touch and is for development only.
type WalletConfig struct {
	Driver string `hcl:"driver,optional"` // memory or sqlite
	Path   string `hcl:"path,optional"`
	Seed   int    `hcl:"seed,optional"` // starting balance for memory accounts
}

// StoreConfig selects snapshot and hand-archive persistence.
type StoreConfig struct {
	Driver string `hcl:"driver,optional"` // memory or sqlite
	Path   string `hcl:"path,optional"`
}

// TableConfig defines a poker table configuration
type TableConfig struct {
	Name           string `hcl:"name,label"`
	MaxPlayers     int    `hcl:"max_players,optional"`
	SmallBlind     int    `hcl:"small_blind"`
	BigBlind       int    `hcl:"big_blind"`
	BuyInMin       int    `hcl:"buy_in_min,optional"`
	BuyInMax       int    `hcl:"buy_in_max,optional"`
	TurnTimeoutMs  int    `hcl:"turn_timeout_ms,optional"`
	GraceMs        int    `hcl:"grace_ms,optional"`
	AutoStartDelay int    `hcl:"auto_start_delay,optional"` // seconds
}

// BotConfig defines bot configuration for tables
type BotConfig struct {
	Name     string   `hcl:"name,label"`
	Strategy string   `hcl:"strategy"`
	Tables   []string `hcl:"tables,optional"`
	BuyIn    int      `hcl:"buy_in,optional"`
}

// TurnBudget returns the full turn allowance including grace.
func (t *TableConfig) TurnBudget() time.Duration {
	return time.Duration(t.TurnTimeoutMs) * time.Millisecond
}

// Grace returns the silent lead-in before the visible countdown.
func (t *TableConfig) Grace() time.Duration {
	return time.Duration(t.GraceMs) * time.Millisecond
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
			LogFile:  "tabled.log",
			DumpDir:  ".",
		},
		Wallet: &WalletConfig{Driver: "memory", Seed: 10000},
		Store:  &StoreConfig{Driver: "memory"},
		Tables: []TableConfig{
			{
				Name:           "main",
				MaxPlayers:     6,
				SmallBlind:     1,
				BigBlind:       2,
				BuyInMin:       100,
				BuyInMax:       1000,
				TurnTimeoutMs:  20000,
				GraceMs:        5000,
				AutoStartDelay: 5,
			},
		},
	}
}

// LoadServerConfig loads server configuration from HCL file
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Server.LogFile == "" {
		config.Server.LogFile = "tabled.log"
	}
	if config.Server.DumpDir == "" {
		config.Server.DumpDir = "."
	}
	if config.Wallet == nil {
		config.Wallet = &WalletConfig{}
	}
	if config.Store == nil {
		config.Store = &StoreConfig{}
	}
	if config.Wallet.Driver == "" {
		config.Wallet.Driver = "memory"
	}
	if config.Wallet.Driver == "memory" && config.Wallet.Seed == 0 {
		config.Wallet.Seed = 10000
	}
	if config.Wallet.Driver == "sqlite" && config.Wallet.Path == "" {
		config.Wallet.Path = "wallet.db"
	}
	if config.Store.Driver == "" {
		config.Store.Driver = "memory"
	}
	if config.Store.Driver == "sqlite" && config.Store.Path == "" {
		config.Store.Path = "tabled.db"
	}

	// Apply defaults to tables
	for i := range config.Tables {
		if config.Tables[i].MaxPlayers == 0 {
			config.Tables[i].MaxPlayers = 6
		}
		if config.Tables[i].BuyInMin == 0 {
			config.Tables[i].BuyInMin = config.Tables[i].BigBlind * 50
		}
		if config.Tables[i].BuyInMax == 0 {
			config.Tables[i].BuyInMax = config.Tables[i].BigBlind * 500
		}
		if config.Tables[i].TurnTimeoutMs == 0 {
			config.Tables[i].TurnTimeoutMs = 20000
		}
		if config.Tables[i].GraceMs == 0 {
			config.Tables[i].GraceMs = 5000
		}
		if config.Tables[i].AutoStartDelay == 0 {
			config.Tables[i].AutoStartDelay = 5
		}
	}

	// Apply defaults to bots
	for i := range config.Bots {
		if config.Bots[i].Strategy == "" {
			config.Bots[i].Strategy = "caller"
		}
		if config.Bots[i].BuyIn == 0 {
			config.Bots[i].BuyIn = 200
		}
		if len(config.Bots[i].Tables) == 0 {
			// If no tables specified, add to all tables
			for _, table := range config.Tables {
				config.Bots[i].Tables = append(config.Bots[i].Tables, table.Name)
			}
		}
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if len(c.Tables) == 0 {
		return fmt.Errorf("at least one table must be configured")
	}

	switch c.Wallet.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("invalid wallet driver: %s", c.Wallet.Driver)
	}
	switch c.Store.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("invalid store driver: %s", c.Store.Driver)
	}

	seen := make(map[string]bool)
	for _, table := range c.Tables {
		if seen[table.Name] {
			return fmt.Errorf("duplicate table name: %s", table.Name)
		}
		seen[table.Name] = true
		if table.SmallBlind <= 0 {
			return fmt.Errorf("table %s: small blind must be positive", table.Name)
		}
		if table.BigBlind <= table.SmallBlind {
			return fmt.Errorf("table %s: big blind must be greater than small blind", table.Name)
		}
		if table.MaxPlayers < 2 || table.MaxPlayers > 10 {
			return fmt.Errorf("table %s: max players must be between 2 and 10", table.Name)
		}
		if table.BuyInMin >= table.BuyInMax {
			return fmt.Errorf("table %s: buy-in minimum must be less than maximum", table.Name)
		}
		if table.GraceMs >= table.TurnTimeoutMs {
			return fmt.Errorf("table %s: grace must be shorter than the turn timeout", table.Name)
		}
	}

	validStrategies := map[string]bool{
		"caller": true,
		"folder": true,
		"random": true,
		"value":  true,
	}

	for _, bot := range c.Bots {
		if !validStrategies[bot.Strategy] {
			return fmt.Errorf("bot %s: invalid strategy %s", bot.Name, bot.Strategy)
		}
		if bot.BuyIn <= 0 {
			return fmt.Errorf("bot %s: buy-in must be positive", bot.Name)
		}
		for _, name := range bot.Tables {
			if c.GetTableByName(name) == nil {
				return fmt.Errorf("bot %s: unknown table %s", bot.Name, name)
			}
		}
	}

	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// GetTableByName returns a table configuration by name
func (c *ServerConfig) GetTableByName(name string) *TableConfig {
	for _, table := range c.Tables {
		if table.Name == name {
			return &table
		}
	}
	return nil
}

// GetBotsForTable returns all bots configured for a specific table
func (c *ServerConfig) GetBotsForTable(tableName string) []BotConfig {
	var bots []BotConfig
	for _, bot := range c.Bots {
		for _, table := range bot.Tables {
			if table == tableName {
				bots = append(bots, bot)
				break
			}
		}
	}
	return bots
}
