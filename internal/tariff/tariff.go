// Package tariff resolves a travelled distance to a fare using an ascending table of tiers.
package tariff

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// catchAll marks the top tier in the textual table form
const catchAll = "*"

var (
	ErrEmptyTable    = errors.New("tariff has no tiers")
	ErrNotAscending  = errors.New("tier bounds must be strictly ascending")
	ErrNegativeBound = errors.New("tier bound must not be negative")
	ErrInvalidBound  = errors.New("tier bound must be a finite number")
	ErrNegativeFare  = errors.New("fare must not be negative")
)

// Tier charges Fare for any distance up to and including UpTo kilometers
type Tier struct {
	UpTo float64
	Fare int
}

// Table is an ascending list of tiers followed by the fare charged above the last bound
type Table struct {
	Tiers []Tier
	Above int
}

// Default is the distance fare table of the network
var Default = Table{
	Tiers: []Tier{
		{UpTo: 500, Fare: 70},
		{UpTo: 1000, Fare: 130},
		{UpTo: 3000, Fare: 220},
		{UpTo: 5000, Fare: 280},
	},
	Above: 320,
}

// Resolve returns the fare of the first tier whose bound is greater than or equal to km.
// Negative distances satisfy the first tier. NaN satisfies none and is charged the Above fare.
func (t Table) Resolve(km float64) int {
	for _, tier := range t.Tiers {
		if km <= tier.UpTo {
			return tier.Fare
		}
	}
	return t.Above
}

// Validate checks the tiers partition the distance axis in ascending order
func (t Table) Validate() error {
	if len(t.Tiers) == 0 {
		return ErrEmptyTable
	}
	for i, tier := range t.Tiers {
		switch {
		case math.IsNaN(tier.UpTo) || math.IsInf(tier.UpTo, 0):
			return fmt.Errorf("tier %d: %w", i, ErrInvalidBound)
		case tier.UpTo < 0:
			return fmt.Errorf("tier %d: %w", i, ErrNegativeBound)
		case tier.Fare < 0:
			return fmt.Errorf("tier %d: %w", i, ErrNegativeFare)
		case i > 0 && tier.UpTo <= t.Tiers[i-1].UpTo:
			return fmt.Errorf("tier %d: %w", i, ErrNotAscending)
		}
	}
	if t.Above < 0 {
		return fmt.Errorf("top tier: %w", ErrNegativeFare)
	}
	return nil
}

// String formats the table the way Parse reads it
func (t Table) String() string {
	parts := make([]string, 0, len(t.Tiers)+1)
	for _, tier := range t.Tiers {
		parts = append(parts, strconv.FormatFloat(tier.UpTo, 'f', -1, 64)+":"+strconv.Itoa(tier.Fare))
	}
	parts = append(parts, catchAll+":"+strconv.Itoa(t.Above))
	return strings.Join(parts, ",")
}

// Parse reads a table of the form "500:70,1000:130,*:320" where the
// entry keyed by "*" is the fare above the last bound and must come last
func Parse(raw string) (Table, error) {
	var table Table
	entries := strings.Split(raw, ",")
	for i, entry := range entries {
		bound, fare, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok {
			return Table{}, fmt.Errorf("tier %q: missing ':'", entry)
		}
		amount, err := strconv.Atoi(strings.TrimSpace(fare))
		if err != nil {
			return Table{}, fmt.Errorf("tier %q: fare: %w", entry, err)
		}

		bound = strings.TrimSpace(bound)
		if bound == catchAll {
			if i != len(entries)-1 {
				return Table{}, fmt.Errorf("tier %q: catch-all tier must be last", entry)
			}
			table.Above = amount
			return table, table.Validate()
		}

		upTo, err := strconv.ParseFloat(bound, 64)
		if err != nil {
			return Table{}, fmt.Errorf("tier %q: bound: %w", entry, err)
		}
		table.Tiers = append(table.Tiers, Tier{UpTo: upTo, Fare: amount})
	}

	return Table{}, fmt.Errorf("tariff %q: missing catch-all tier", raw)
}
