package models

import (
	"fmt"
	"strings"
)

// Strategy selects the retrieval/rendering backend for a request.
type Strategy int

const (
	// StrategyUnknown is the zero value and never dispatched.
	StrategyUnknown Strategy = iota

	// PlainFetch returns the raw HTTP response body.
	PlainFetch

	// ParsedFetch fetches over HTTP and returns prettified markup or cleaned text.
	ParsedFetch

	// BrowserAutomated drives a real browser through the interaction sequence.
	BrowserAutomated
)

// strategyNames maps accepted selector strings to strategies. The legacy
// names ("requests", "bs4", "selenium") are kept for older clients.
var strategyNames = map[string]Strategy{
	"plain":    PlainFetch,
	"parsed":   ParsedFetch,
	"browser":  BrowserAutomated,
	"requests": PlainFetch,
	"bs4":      ParsedFetch,
	"selenium": BrowserAutomated,
}

// ParseStrategy resolves a selector string (case-insensitive).
func ParseStrategy(s string) (Strategy, error) {
	if st, ok := strategyNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st, nil
	}
	return StrategyUnknown, fmt.Errorf("unknown strategy %q", s)
}

// String returns the canonical selector name.
func (s Strategy) String() string {
	switch s {
	case PlainFetch:
		return "plain"
	case ParsedFetch:
		return "parsed"
	case BrowserAutomated:
		return "browser"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the dispatchable strategies.
func (s Strategy) Valid() bool {
	return s == PlainFetch || s == ParsedFetch || s == BrowserAutomated
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
