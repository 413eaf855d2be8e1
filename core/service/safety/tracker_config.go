// Package safety implements the content-safety filter that decides which
// catalog items are exposed to clients.
package safety

import (
	"strings"
	"time"
)

// Strategy selects which classification stages run after the adult gate.
type Strategy string

const (
	StrategyCertification Strategy = "certification"
	StrategyKeyword       Strategy = "keyword"
	StrategyBoth          Strategy = "both"
)

// Valid reports whether s names a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyCertification, StrategyKeyword, StrategyBoth:
		return true
	}
	return false
}

// UsesCertification reports whether the certification stage runs.
func (s Strategy) UsesCertification() bool {
	return s == StrategyCertification || s == StrategyBoth
}

// UsesKeywords reports whether the keyword stage runs.
func (s Strategy) UsesKeywords() bool {
	return s == StrategyKeyword || s == StrategyBoth
}

// FailurePolicy decides the outcome of a keyword lookup that could not complete.
type FailurePolicy string

const (
	FailureDeny  FailurePolicy = "deny"
	FailureAllow FailurePolicy = "allow"
)

func (p FailurePolicy) Valid() bool {
	return p == FailureDeny || p == FailureAllow
}

// Config holds filter settings.
type Config struct {
	Strategy              Strategy
	Region                string
	AllowedCertifications []string
	KeywordFailurePolicy  FailurePolicy

	// CallTimeout bounds every outbound classification call.
	CallTimeout time.Duration

	// MaxConcurrent bounds in-flight classifications per Filter call.
	MaxConcurrent int

	CacheTTL time.Duration
}

// DefaultConfig returns the default filter configuration.
func DefaultConfig() *Config {
	return &Config{
		Strategy:              StrategyCertification,
		Region:                "US",
		AllowedCertifications: []string{"G", "PG", "PG-13"},
		KeywordFailurePolicy:  FailureDeny,
		CallTimeout:           5 * time.Second,
		MaxConcurrent:         8,
		CacheTTL:              24 * time.Hour,
	}
}

// normalized returns a copy with zero values replaced by defaults.
func (c *Config) normalized() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if !out.Strategy.Valid() {
		out.Strategy = d.Strategy
	}
	out.Region = strings.ToUpper(strings.TrimSpace(out.Region))
	if out.Region == "" {
		out.Region = d.Region
	}
	if len(out.AllowedCertifications) == 0 {
		out.AllowedCertifications = d.AllowedCertifications
	}
	if !out.KeywordFailurePolicy.Valid() {
		out.KeywordFailurePolicy = d.KeywordFailurePolicy
	}
	if out.CallTimeout <= 0 {
		out.CallTimeout = d.CallTimeout
	}
	if out.MaxConcurrent <= 0 {
		out.MaxConcurrent = d.MaxConcurrent
	}
	if out.CacheTTL <= 0 {
		out.CacheTTL = d.CacheTTL
	}
	return &out
}
