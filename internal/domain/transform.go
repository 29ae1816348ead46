package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NormalizeHeader trims surrounding whitespace from every column name.
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(h)
	}
	return out
}

// MissingColumns returns every required column absent from header, preserving
// the required order so error messages are stable.
func MissingColumns(header, required []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}

	var missing []string
	for _, col := range required {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// ColumnIndex maps each column name to its position in the header.
func ColumnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	return idx
}

// ParseIncidentRow coerces one raw CSV row into an IncidentRecord.
//
// ok is false when any required numeric cell fails coercion; the caller drops
// the row and counts it, per the lenient coercion policy. Text columns that
// are absent from the header simply stay empty. Coordinates are resolved
// separately by the preparer.
func ParseIncidentRow(idx map[string]int, row []string) (IncidentRecord, bool) {
	get := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	year, okYear := parseIntCell(get(ColYear))
	loss, okLoss := parseFloatCell(get(ColFinancialLoss))
	users, okUsers := parseIntCell(get(ColAffectedUsers))
	resolution, okRes := parseFloatCell(get(ColResolutionTime))
	if !okYear || !okLoss || !okUsers || !okRes {
		return IncidentRecord{}, false
	}

	rec := IncidentRecord{
		Country:               strings.TrimSpace(get(ColCountry)),
		Year:                  int(year),
		AttackType:            NormalizeAttackType(get(ColAttackType)),
		TargetIndustry:        strings.TrimSpace(get(ColTargetIndustry)),
		FinancialLossMillions: loss,
		AffectedUsers:         users,
		AttackSource:          strings.TrimSpace(get(ColAttackSource)),
		VulnerabilityType:     strings.TrimSpace(get(ColVulnerabilityType)),
		DefenseMechanism:      strings.TrimSpace(get(ColDefenseMechanism)),
		ResolutionTimeHours:   ClampResolutionTime(resolution),
	}
	rec.ID = generateID(rec)
	return rec, true
}

// NormalizeAttackType upper-cases and trims an attack type so mixed-case and
// whitespace-padded variants collapse to one category.
func NormalizeAttackType(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ClampResolutionTime floors a resolution time at 1 hour. Marker sizes on the
// map scale with this value and must stay positive.
func ClampResolutionTime(hours float64) float64 {
	if hours < 1 {
		return 1
	}
	return hours
}

// parseFloatCell parses a numeric cell, reporting false for unparseable or
// non-finite values instead of failing the load.
func parseFloatCell(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseIntCell parses an integer cell through float64 first, since
// spreadsheet round trips produce values like "2020.0".
func parseIntCell(s string) (int64, bool) {
	v, ok := parseFloatCell(s)
	if !ok {
		return 0, false
	}
	return int64(v), true
}

// generateID produces a deterministic ID from the record's key fields.
// Re-preparing the same source row yields the same ID, so downstream
// upserts (ON CONFLICT DO NOTHING) stay idempotent across rebuilds.
func generateID(rec IncidentRecord) string {
	input := fmt.Sprintf("%s|%d|%s|%g|%d|%g",
		rec.Country, rec.Year, rec.AttackType,
		rec.FinancialLossMillions, rec.AffectedUsers, rec.ResolutionTimeHours)
	hash := sha256.Sum256([]byte(input))
	return "inc-" + hex.EncodeToString(hash[:8])
}
