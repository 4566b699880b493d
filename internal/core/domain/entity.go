package domain

import (
	"strings"
	"time"
)

// CurrentSchemaVersion is the EntityRecord field set understood by this build.
const CurrentSchemaVersion = 1

// EntityRecord is a token/asset record supplied by a collaborator.
// The pipeline never mutates it.
type EntityRecord struct {
	// ID uniquely identifies the entity.
	ID string `json:"id" yaml:"id"`

	// Name is the display name.
	Name string `json:"name" yaml:"name"`

	// Symbol is the ticker, e.g. "BTC".
	Symbol string `json:"symbol" yaml:"symbol"`

	Description     string `json:"description,omitempty" yaml:"description,omitempty"`
	Network         string `json:"network,omitempty" yaml:"network,omitempty"`
	ContractAddress string `json:"contractAddress,omitempty" yaml:"contractAddress,omitempty"`

	// Numeric optionals are pointers so absent and zero differ.
	Decimals          *int     `json:"decimals,omitempty" yaml:"decimals,omitempty"`
	Price             *float64 `json:"price,omitempty" yaml:"price,omitempty"`
	MarketCap         *float64 `json:"marketCap,omitempty" yaml:"marketCap,omitempty"`
	Volume24h         *float64 `json:"volume24h,omitempty" yaml:"volume24h,omitempty"`
	PriceChange24h    *float64 `json:"priceChange24h,omitempty" yaml:"priceChange24h,omitempty"`
	TotalSupply       *float64 `json:"totalSupply,omitempty" yaml:"totalSupply,omitempty"`
	CirculatingSupply *float64 `json:"circulatingSupply,omitempty" yaml:"circulatingSupply,omitempty"`

	Website string `json:"website,omitempty" yaml:"website,omitempty"`

	// Links maps a label (e.g. "twitter") to a URL.
	Links map[string]string `json:"links,omitempty" yaml:"links,omitempty"`

	Tags       []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	LaunchDate *time.Time `json:"launchDate,omitempty" yaml:"launchDate,omitempty"`

	Audit     *AuditInfo     `json:"audit,omitempty" yaml:"audit,omitempty"`
	Risk      *RiskInfo      `json:"risk,omitempty" yaml:"risk,omitempty"`
	Analytics *AnalyticsInfo `json:"analytics,omitempty" yaml:"analytics,omitempty"`

	// Extensions holds free-form string attributes not covered above.
	Extensions map[string]string `json:"extensions,omitempty" yaml:"extensions,omitempty"`

	// SchemaVersion records which field set the producer used.
	SchemaVersion int `json:"schemaVersion,omitempty" yaml:"schemaVersion,omitempty"`
}

// AuditInfo describes a security audit of the entity's contract.
type AuditInfo struct {
	Auditor   string     `json:"auditor,omitempty" yaml:"auditor,omitempty"`
	Status    string     `json:"status,omitempty" yaml:"status,omitempty"`
	Date      *time.Time `json:"date,omitempty" yaml:"date,omitempty"`
	ReportURL string     `json:"reportUrl,omitempty" yaml:"reportUrl,omitempty"`
}

// RiskInfo summarises an external risk assessment.
type RiskInfo struct {
	Level   string   `json:"level,omitempty" yaml:"level,omitempty"`
	Score   *float64 `json:"score,omitempty" yaml:"score,omitempty"`
	Factors []string `json:"factors,omitempty" yaml:"factors,omitempty"`
}

// AnalyticsInfo holds on-chain activity figures.
type AnalyticsInfo struct {
	Holders         *int64   `json:"holders,omitempty" yaml:"holders,omitempty"`
	Transactions24h *int64   `json:"transactions24h,omitempty" yaml:"transactions24h,omitempty"`
	Liquidity       *float64 `json:"liquidity,omitempty" yaml:"liquidity,omitempty"`
}

// Validate checks the required identity fields.
func (e *EntityRecord) Validate() error {
	switch {
	case strings.TrimSpace(e.ID) == "":
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	case strings.TrimSpace(e.Name) == "":
		return &ValidationError{Field: "name", Reason: "must not be empty (entity " + e.ID + ")"}
	case strings.TrimSpace(e.Symbol) == "":
		return &ValidationError{Field: "symbol", Reason: "must not be empty (entity " + e.ID + ")"}
	}
	return nil
}

// ValidateEntities validates every record and rejects duplicate IDs.
// It returns the first failure found.
func ValidateEntities(entities []EntityRecord) error {
	if len(entities) == 0 {
		return &ValidationError{Field: "entities", Reason: "at least one entity is required"}
	}
	seen := make(map[string]struct{}, len(entities))
	for i := range entities {
		if err := entities[i].Validate(); err != nil {
			return err
		}
		if _, ok := seen[entities[i].ID]; ok {
			return &ValidationError{Field: "id", Reason: "duplicate entity " + entities[i].ID}
		}
		seen[entities[i].ID] = struct{}{}
	}
	return nil
}
