package config

import (
	"fmt"
	"time"
)

// DomainConfig holds the configurable business rules of the flow editor
type DomainConfig struct {
	// Graph constraints
	MaxNodesPerFlow int
	MaxEdgesPerFlow int

	// Node defaults
	DefaultNodeText string
	EntryNodeText   string
	EntryNodeX      float64
	EntryNodeY      float64
	SeedEntryNode   bool
	PlacementMinX   float64
	PlacementMaxX   float64
	PlacementMinY   float64
	PlacementMaxY   float64

	// Persistence
	SnapshotKey string

	// Notifications
	NotificationTTL time.Duration
	SavedMessage    string
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxNodesPerFlow: 10000,
		MaxEdgesPerFlow: 10000,

		DefaultNodeText: "New message",
		EntryNodeText:   "Start Message",
		EntryNodeX:      250,
		EntryNodeY:      100,
		SeedEntryNode:   true,
		PlacementMinX:   100,
		PlacementMaxX:   500,
		PlacementMinY:   100,
		PlacementMaxY:   400,

		SnapshotKey: "chatbot-flow",

		NotificationTTL: 3 * time.Second,
		SavedMessage:    "Flow saved successfully!",
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxNodesPerFlow = 2000
	config.MaxEdgesPerFlow = 2000

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxNodesPerFlow = 100000
	config.MaxEdgesPerFlow = 100000

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is usable
func (c *DomainConfig) Validate() error {
	if c.SnapshotKey == "" {
		return fmt.Errorf("snapshot key cannot be empty")
	}
	if c.NotificationTTL <= 0 {
		return fmt.Errorf("notification TTL must be positive, got %s", c.NotificationTTL)
	}
	if c.PlacementMaxX <= c.PlacementMinX || c.PlacementMaxY <= c.PlacementMinY {
		return fmt.Errorf("placement area is empty")
	}
	if c.MaxNodesPerFlow <= 0 || c.MaxEdgesPerFlow <= 0 {
		return fmt.Errorf("node and edge limits must be positive")
	}
	return nil
}
