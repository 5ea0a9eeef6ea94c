package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// FleetConfig holds the fleet-orchestration-core settings read from the
// JSON fleet config file (spec.md §6). Unlike the ambient Database/API/
// Daemon/Logging sections (which come from the YAML/env-driven viper
// layer), this section is parsed directly from JSON since the core
// treats it as a single external collaborator's config blob.
type FleetConfig struct {
	Symbol string `json:"symbol" validate:"required"`

	Contracts    ContractsConfig    `json:"contracts"`
	Market       MarketScrapeConfig `json:"market"`
	Trading      TradingConfig      `json:"trading"`
	Construction ConstructionConfig `json:"construction"`
	Mining       MiningConfig       `json:"mining"`
	ControlServer ControlServerConfig `json:"control_server"`

	// MaxTransferJumpRetries caps how many times a fleet ship-transfer
	// re-plans its jump-gate route after a failed jump before the
	// transfer is surfaced to the pilot loop as an error (§4.10).
	MaxTransferJumpRetries int `json:"max_transfer_jump_retries"`
}

type ContractsConfig struct {
	Active              bool `json:"active"`
	MaxContracts        int  `json:"max_contracts"`
	StartSleepDurationMS int64 `json:"start_sleep_duration"`
}

type MarketScrapeConfig struct {
	Active           bool  `json:"active"`
	MaxScraps        int   `json:"max_scraps"`
	ScrapIntervalMS  int64 `json:"scrap_interval"`
	Agents           bool  `json:"agents"`
	AgentIntervalMS  int64 `json:"agent_interval"`
	MaxAgentScraps   int   `json:"max_agent_scraps"`
	MaxScrapFailures int   `json:"max_scrap_failures"`
}

type TradingConfig struct {
	Active               bool     `json:"active"`
	TradeCycle           int      `json:"trade_cycle"`
	FuelCost             float64  `json:"fuel_cost"`
	PurchaseMultiplier   float64  `json:"purchase_multiplier"`
	Blacklist            []string `json:"blacklist"`
	MarkupPercentage     float64  `json:"markup_percentage"`
	MarginPercentage     float64  `json:"margin_percentage"`
	DefaultPurchasePrice float64  `json:"default_purchase_price"`
	DefaultSellPrice     float64  `json:"default_sell_price"`
	DefaultProfit        float64  `json:"default_profit"`
}

type ConstructionConfig struct {
	Active               bool  `json:"active"`
	StartSleepDurationMS int64 `json:"start_sleep_duration"`
}

type MiningConfig struct {
	Active                bool     `json:"active"`
	MaxMinersPerWaypoint  int      `json:"max_miners_per_waypoint"`
	MaxExtractionsPerMiner int     `json:"max_extractions_per_miner"`
	Blacklist             []string `json:"blacklist"`
}

type ControlServerConfig struct {
	Active               bool   `json:"active"`
	SocketAddress        string `json:"socket_address"`
	StartSleepDurationMS int64  `json:"start_sleep_duration"`
}

// LoadFleetConfig reads the fleet config JSON file (spec.md §6) and
// validates it with the same go-playground/validator instance the
// ambient Config uses.
func LoadFleetConfig(path string) (*FleetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fleet config: %w", err)
	}

	var cfg FleetConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse fleet config: %w", err)
	}

	if err := NewValidator().Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid fleet configuration: %w", err)
	}

	return &cfg, nil
}

// Priority-class reserved-fund floors (spec.md §4.10). Not configurable
// via the JSON file; these are fleet-manager constants.
const (
	ReservedFundFloorHigh   int64 = 100_000
	ReservedFundFloorMedium int64 = 500_000
	ReservedFundFloorLow    int64 = 1_000_000
)
