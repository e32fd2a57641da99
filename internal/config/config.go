// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Scanner    ScannerConfig    `mapstructure:"scanner"`
	Ethereum   EthereumConfig   `mapstructure:"ethereum"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EngineConfig holds the flash-swap engine wiring.
//
// RegistryOne locates the origin pool (the one borrowed from) and
// RegistryTwo the target pool. CodeHash pins the pool implementation the
// locator derives addresses for; it is not validated at runtime, so it
// must be verified against the deployed pool artifact out of band.
type EngineConfig struct {
	Address     string `mapstructure:"address"`
	RegistryOne string `mapstructure:"registry_one"`
	RegistryTwo string `mapstructure:"registry_two"`
	CodeHash    string `mapstructure:"code_hash"`
	Beneficiary string `mapstructure:"beneficiary"`
	Operator    string `mapstructure:"operator"`
}

// AddressHex returns the engine's own account address.
func (c *EngineConfig) AddressHex() common.Address {
	return common.HexToAddress(c.Address)
}

// RegistryOneHex returns the origin-side registry identifier.
func (c *EngineConfig) RegistryOneHex() common.Address {
	return common.HexToAddress(c.RegistryOne)
}

// RegistryTwoHex returns the target-side registry identifier.
func (c *EngineConfig) RegistryTwoHex() common.Address {
	return common.HexToAddress(c.RegistryTwo)
}

// CodeHashBytes returns the pool code fingerprint as a 32-byte hash.
func (c *EngineConfig) CodeHashBytes() common.Hash {
	return common.HexToHash(c.CodeHash)
}

// BeneficiaryHex returns the profit beneficiary address.
func (c *EngineConfig) BeneficiaryHex() common.Address {
	return common.HexToAddress(c.Beneficiary)
}

// OperatorHex returns the sole address allowed to start arbitrages.
func (c *EngineConfig) OperatorHex() common.Address {
	return common.HexToAddress(c.Operator)
}

// ScannerConfig holds opportunity-scanner settings.
type ScannerConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	PollPerMinute int           `mapstructure:"poll_per_minute"`
	BorrowSizes   []float64     `mapstructure:"borrow_sizes"`
	MinProfit     float64       `mapstructure:"min_profit"`
	StaleTimeout  time.Duration `mapstructure:"stale_timeout"`
}

// BorrowSizesDecimal returns borrow sizes as decimal.Decimal slice.
func (c *ScannerConfig) BorrowSizesDecimal() []decimal.Decimal {
	result := make([]decimal.Decimal, len(c.BorrowSizes))
	for i, s := range c.BorrowSizes {
		result[i] = decimal.NewFromFloat(s)
	}
	return result
}

// MinProfitDecimal returns the profit floor as decimal.Decimal.
func (c *ScannerConfig) MinProfitDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfit)
}

// EthereumConfig holds the optional remote reserve source.
type EthereumConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	HTTPURL string `mapstructure:"http_url"`
	ChainID uint64 `mapstructure:"chain_id"`
}

// TokenConfig describes a simulated token.
type TokenConfig struct {
	Symbol   string `mapstructure:"symbol"`
	Address  string `mapstructure:"address"`
	Decimals uint8  `mapstructure:"decimals"`
}

// AddressHex returns the token address as common.Address.
func (c *TokenConfig) AddressHex() common.Address {
	return common.HexToAddress(c.Address)
}

// PoolSeedConfig describes initial liquidity for one simulated pool,
// expressed in whole token units of the configured pair.
type PoolSeedConfig struct {
	ReserveA float64 `mapstructure:"reserve_a"`
	ReserveB float64 `mapstructure:"reserve_b"`
}

// SimulationConfig seeds the in-memory exchange the engine runs against
// when no remote reserve source is configured.
type SimulationConfig struct {
	TokenA  TokenConfig    `mapstructure:"token_a"`
	TokenB  TokenConfig    `mapstructure:"token_b"`
	PoolOne PoolSeedConfig `mapstructure:"pool_one"`
	PoolTwo PoolSeedConfig `mapstructure:"pool_two"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("FLASH")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "FLASH_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "FLASH_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "FLASH_LOG_LEVEL", "LOG_LEVEL")

	// Engine
	v.BindEnv("engine.address", "FLASH_ENGINE_ADDRESS")
	v.BindEnv("engine.registry_one", "FLASH_REGISTRY_ONE")
	v.BindEnv("engine.registry_two", "FLASH_REGISTRY_TWO")
	v.BindEnv("engine.code_hash", "FLASH_CODE_HASH")
	v.BindEnv("engine.beneficiary", "FLASH_BENEFICIARY")
	v.BindEnv("engine.operator", "FLASH_OPERATOR")

	// Scanner
	v.BindEnv("scanner.enabled", "FLASH_SCANNER_ENABLED")
	v.BindEnv("scanner.poll_per_minute", "FLASH_SCANNER_POLL_PER_MINUTE")
	v.BindEnv("scanner.min_profit", "FLASH_MIN_PROFIT")

	// Ethereum
	v.BindEnv("ethereum.enabled", "FLASH_ETH_ENABLED")
	v.BindEnv("ethereum.http_url", "FLASH_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.chain_id", "FLASH_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	// Telemetry
	v.BindEnv("telemetry.enabled", "FLASH_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "FLASH_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "FLASH_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "flasharb")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Engine defaults: deterministic simulation addresses
	v.SetDefault("engine.address", "0x00000000000000000000000000000000000f1a5d")
	v.SetDefault("engine.registry_one", "0x0000000000000000000000000000000000000101")
	v.SetDefault("engine.registry_two", "0x0000000000000000000000000000000000000202")
	v.SetDefault("engine.code_hash", "0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbee326c3e7da348845f")
	v.SetDefault("engine.beneficiary", "0x000000000000000000000000000000000000beef")
	v.SetDefault("engine.operator", "0x0000000000000000000000000000000000000a11")

	// Scanner defaults
	v.SetDefault("scanner.enabled", true)
	v.SetDefault("scanner.poll_per_minute", 60)
	v.SetDefault("scanner.borrow_sizes", []float64{1, 5, 10})
	v.SetDefault("scanner.min_profit", 0)
	v.SetDefault("scanner.stale_timeout", "5s")

	// Ethereum defaults (remote resolver off; simulation is the default)
	v.SetDefault("ethereum.enabled", false)
	v.SetDefault("ethereum.chain_id", 1)

	// Simulation defaults: the canonical two-pool scenario
	v.SetDefault("simulation.token_a.symbol", "TKA")
	v.SetDefault("simulation.token_a.address", "0x00000000000000000000000000000000000000Aa")
	v.SetDefault("simulation.token_a.decimals", 18)
	v.SetDefault("simulation.token_b.symbol", "TKB")
	v.SetDefault("simulation.token_b.address", "0x00000000000000000000000000000000000000Bb")
	v.SetDefault("simulation.token_b.decimals", 18)
	v.SetDefault("simulation.pool_one.reserve_a", 1000)
	v.SetDefault("simulation.pool_one.reserve_b", 1000)
	v.SetDefault("simulation.pool_two.reserve_a", 1000)
	v.SetDefault("simulation.pool_two.reserve_b", 1100)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "flasharb")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !common.IsHexAddress(c.Engine.Address) {
		return fmt.Errorf("invalid engine.address: %s", c.Engine.Address)
	}
	if !common.IsHexAddress(c.Engine.RegistryOne) {
		return fmt.Errorf("invalid engine.registry_one: %s", c.Engine.RegistryOne)
	}
	if !common.IsHexAddress(c.Engine.RegistryTwo) {
		return fmt.Errorf("invalid engine.registry_two: %s", c.Engine.RegistryTwo)
	}
	if c.Engine.RegistryOne == c.Engine.RegistryTwo {
		return fmt.Errorf("engine.registry_one and engine.registry_two must differ")
	}
	if !common.IsHexAddress(c.Engine.Beneficiary) {
		return fmt.Errorf("invalid engine.beneficiary: %s", c.Engine.Beneficiary)
	}
	if !common.IsHexAddress(c.Engine.Operator) {
		return fmt.Errorf("invalid engine.operator: %s", c.Engine.Operator)
	}
	if len(common.FromHex(c.Engine.CodeHash)) != common.HashLength {
		return fmt.Errorf("invalid engine.code_hash: %s", c.Engine.CodeHash)
	}
	if c.Ethereum.Enabled && c.Ethereum.HTTPURL == "" {
		return fmt.Errorf("ethereum.http_url is required when ethereum.enabled")
	}
	if c.Scanner.Enabled && len(c.Scanner.BorrowSizes) == 0 {
		return fmt.Errorf("scanner.borrow_sizes cannot be empty")
	}
	return nil
}
