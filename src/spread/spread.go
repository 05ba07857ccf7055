package spread

import (
	"fmt"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"
)

// DefaultSymbol is the instrument every unknown symbol falls back to when
// looking up a spread cost.
const DefaultSymbol = "USTEC"

// Entry is the per-instrument spread cost plus provenance.
type Entry struct {
	Spread    float64   `json:"spread"`
	Source    string    `json:"source"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Config is the process-wide spread table. It is initialized from defaults at
// startup and mutated only through Set. Not persisted across restarts and no
// audit trail beyond the per-entry timestamp.
type Config struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewConfig returns a Config seeded with the baseline USTEC spread.
func NewConfig() *Config {
	return &Config{
		entries: map[string]Entry{
			DefaultSymbol: {
				Spread:    2.0,
				Source:    "manual baseline",
				UpdatedAt: time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
			},
		},
	}
}

// Lookup returns the spread cost for a symbol, falling back to the default
// instrument when the symbol has no entry of its own.
func (c *Config) Lookup(symbol string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if e, ok := c.entries[symbol]; ok {
		return e.Spread
	}
	return c.entries[DefaultSymbol].Spread
}

// Set replaces the spread entry for a symbol. Negative spreads are rejected:
// net P&L must never be better than gross.
func (c *Config) Set(symbol string, spreadCost float64, source string) error {
	if symbol == "" {
		return fmt.Errorf("spread: symbol is required")
	}
	if spreadCost < 0 {
		return fmt.Errorf("spread: negative spread %v for %s", spreadCost, symbol)
	}

	c.mu.Lock()
	c.entries[symbol] = Entry{
		Spread:    spreadCost,
		Source:    source,
		UpdatedAt: time.Now().UTC(),
	}
	c.mu.Unlock()

	logger.WithFields(map[string]interface{}{
		"component": "SpreadConfig",
		"symbol":    symbol,
		"spread":    spreadCost,
		"source":    source,
	}).Info("Spread entry updated")

	return nil
}

// Snapshot returns a copy of the whole table for the admin read endpoint.
func (c *Config) Snapshot() map[string]Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]Entry, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}
