// Package scoring turns raw per-player statistics into fantasy point totals
// using named rule tables.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gridiron/ingestion/internal/models"
)

// Combinator selects how a rule reads a statistic value
type Combinator int

const (
	// Linear adds value * Coefficient
	Linear Combinator = iota
	// Rate reads "made/attempted" and adds (made/attempted) * Coefficient
	Rate
	// Made reads "made/attempted" and adds made * Coefficient
	Made
	// SackLoss reads "count-yardsLost" and subtracts count*Coefficient + yardsLost*LossCoefficient.
	// A plain number adds value * Coefficient.
	SackLoss
)

// Rule is one statistic's contribution
type Rule struct {
	Coefficient     float64
	LossCoefficient float64
	Combine         Combinator
}

// Ruleset is a named table from statistic name to rule
type Ruleset struct {
	name  string
	rules map[string]Rule
}

// NewRuleset builds a ruleset. Statistic names are matched case-insensitively.
func NewRuleset(name string, rules map[string]Rule) Ruleset {
	normalized := make(map[string]Rule, len(rules))
	for stat, rule := range rules {
		normalized[normalizeName(stat)] = rule
	}
	return Ruleset{name: name, rules: normalized}
}

// Name returns the ruleset's registered name
func (rs Ruleset) Name() string {
	return rs.name
}

// Contribution returns the unrounded points one statistic adds. Unknown names
// and malformed values contribute zero.
func (rs Ruleset) Contribution(stat models.Stat) float64 {
	rule, ok := rs.rules[normalizeName(stat.Name)]
	if !ok {
		return 0
	}
	return rule.apply(strings.TrimSpace(stat.Value))
}

// Points sums every statistic's contribution and rounds to two decimals
func (rs Ruleset) Points(stats []models.Stat) float64 {
	total := 0.0
	for _, s := range stats {
		total += rs.Contribution(s)
	}
	return models.RoundPoints(total)
}

// ScoreLine returns a copy of line with Points recomputed from its statistics
func (rs Ruleset) ScoreLine(line models.PlayerLine) models.PlayerLine {
	line.Points = rs.Points(line.Statistics)
	return line
}

// ScoreStatistics returns a copy of doc with every player line scored
func (rs Ruleset) ScoreStatistics(doc models.GameStatistics) models.GameStatistics {
	return doc.MapLines(rs.ScoreLine)
}

func (r Rule) apply(raw string) float64 {
	switch r.Combine {
	case Linear:
		v, ok := parseNumber(raw)
		if !ok {
			return 0
		}
		return v * r.Coefficient

	case Rate:
		made, attempted, ok := splitPair(raw, "/")
		if !ok || attempted == 0 {
			return 0
		}
		return (made / attempted) * r.Coefficient

	case Made:
		made, _, ok := splitPair(raw, "/")
		if !ok {
			return 0
		}
		return made * r.Coefficient

	case SackLoss:
		if v, ok := parseNumber(raw); ok {
			return v * r.Coefficient
		}
		count, lost, ok := splitPair(raw, "-")
		if !ok {
			return 0
		}
		return -(count*r.Coefficient + lost*r.LossCoefficient)
	}
	return 0
}

func parseNumber(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func splitPair(raw, sep string) (float64, float64, bool) {
	left, right, found := strings.Cut(raw, sep)
	if !found {
		return 0, 0, false
	}
	a, ok := parseNumber(strings.TrimSpace(left))
	if !ok {
		return 0, 0, false
	}
	b, ok := parseNumber(strings.TrimSpace(right))
	if !ok {
		return 0, 0, false
	}
	return a, b, true
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var registry = map[string]Ruleset{
	APISports.Name(): APISports,
	SportDevs.Name(): SportDevs,
}

// Lookup returns a registered ruleset by name
func Lookup(name string) (Ruleset, error) {
	rs, ok := registry[strings.ToLower(name)]
	if !ok {
		return Ruleset{}, fmt.Errorf("unknown scoring ruleset %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return rs, nil
}

// Names lists the registered ruleset names in sorted order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
