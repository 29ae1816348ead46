// Command validate performs data integrity checks on a cybersecurity incident
// CSV before it is served: schema presence, numeric coercion coverage,
// attack type normalization, coordinate coverage, and drop accounting.
//
// Usage:
//
//	go run ./cmd/validate -csv Global_Cybersecurity_Threats_2015-2024.csv
//	go run ./cmd/validate -csv data.csv -delimiter semicolon -out prepared.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/threat-data-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/threat-data-etl/internal/adapter/staticgeo"
	"github.com/couchcryptid/threat-data-etl/internal/config"
	"github.com/couchcryptid/threat-data-etl/internal/domain"
	"github.com/couchcryptid/threat-data-etl/internal/observability"
	"github.com/couchcryptid/threat-data-etl/internal/preparer"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "path to the incident CSV file")
	delimiter := flag.String("delimiter", "comma", "field delimiter: comma or semicolon")
	fallback := flag.String("fallback", config.FallbackDrop, "geocode fallback policy: drop or origin")
	outPath := flag.String("out", "", "optional path to write the prepared dataset as JSON")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*csvPath, *delimiter, *fallback, *outPath); code != 0 {
		os.Exit(code)
	}
}

func run(csvPath, delimiter, fallback, outPath string) int {
	fmt.Println("=== Incident Dataset Validation ===")
	fmt.Println()

	cfg := &config.Config{
		CSVPath:         csvPath,
		CSVDelimiter:    delimiter,
		RequiredColumns: domain.RequiredColumns(),
		GeocoderMode:    config.GeocoderStatic,
		GeocodeFallback: fallback,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	prep := preparer.New(cfg, staticgeo.New(), nil, logger, metrics)

	ds, err := prep.Prepare(context.Background())
	if err != nil && ds == nil {
		fmt.Fprintf(os.Stderr, "FATAL: prepare dataset: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateSchema(cfg, ds),
		validateRecords(ds),
		validateCoordinates(ds),
		validateAccounting(ds),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d input, %d dropped (numeric), %d dropped (coordinates), %d served\n",
		ds.Summary.InputRows, ds.Summary.NumericDrops, ds.Summary.CoordinateDrops, ds.Summary.OutputRows)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if outPath != "" {
		if err := writeDataset(outPath, ds); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: write output: %v\n", err)
			return 1
		}
		fmt.Printf("\nPrepared dataset written to %s\n", outPath)
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Schema ──
// Validates that the source file exists, parses, and carries every required
// column.

func validateSchema(cfg *config.Config, ds *domain.Dataset) *phase {
	p := &phase{name: "Phase 1: Schema (required columns)"}

	switch ds.Status {
	case domain.StatusNotFound:
		p.errorf("source file not found: %s", cfg.CSVPath)
		return p
	case domain.StatusParseError:
		p.errorf("source file failed to parse: %s", ds.StatusDetail)
		return p
	case domain.StatusSchemaError:
		p.errorf("schema check failed: %s", ds.StatusDetail)
		return p
	}

	// Re-read the header directly so missing columns are listed even when
	// the preparer already reported the failure.
	data, err := csvfile.ReadFile(cfg.CSVPath)
	if err != nil {
		p.errorf("read source: %v", err)
		return p
	}
	delim, err := cfg.Delimiter()
	if err != nil {
		p.errorf("delimiter: %v", err)
		return p
	}
	header, _, err := csvfile.Parse(data, delim)
	if err != nil {
		p.errorf("parse source: %v", err)
		return p
	}
	for _, col := range domain.MissingColumns(header, cfg.RequiredColumns) {
		p.errorf("missing required column %q", col)
	}
	return p
}

// ── Phase 2: Record integrity ──
// Validates coercion and normalization invariants on every served record.

func validateRecords(ds *domain.Dataset) *phase {
	p := &phase{name: "Phase 2: Record Integrity (coercion)"}

	for i := range ds.Records {
		rec := &ds.Records[i]
		if rec.ID == "" {
			p.errorf("record %d: missing ID", i)
		}
		if rec.Country == "" {
			p.errorf("record %d (%s): country is empty", i, rec.ID)
		}
		if rec.Year < 1970 || rec.Year > 2100 {
			p.errorf("record %d (%s): implausible year %d", i, rec.ID, rec.Year)
		}
		if rec.AttackType != strings.ToUpper(strings.TrimSpace(rec.AttackType)) {
			p.errorf("record %d (%s): attack type %q is not normalized", i, rec.ID, rec.AttackType)
		}
		if rec.FinancialLossMillions < 0 {
			p.errorf("record %d (%s): negative financial loss %g", i, rec.ID, rec.FinancialLossMillions)
		}
		if rec.AffectedUsers < 0 {
			p.errorf("record %d (%s): negative affected users %d", i, rec.ID, rec.AffectedUsers)
		}
		if rec.ResolutionTimeHours < 1 {
			p.errorf("record %d (%s): resolution time %g below clamp floor", i, rec.ID, rec.ResolutionTimeHours)
		}
	}
	return p
}

// ── Phase 3: Coordinate coverage ──
// Every served record must carry coordinates inside valid ranges. Records at
// exactly (0, 0) are reported as a note since they only appear under the
// origin fallback policy.

func validateCoordinates(ds *domain.Dataset) *phase {
	p := &phase{name: "Phase 3: Coordinate Coverage (geocoding)"}

	var atOrigin int
	for i := range ds.Records {
		rec := &ds.Records[i]
		if rec.Geo.Lat == 0 && rec.Geo.Lon == 0 {
			atOrigin++
			continue
		}
		if rec.Geo.Lat < -90 || rec.Geo.Lat > 90 {
			p.errorf("record %d (%s): latitude %g out of range", i, rec.ID, rec.Geo.Lat)
		}
		if rec.Geo.Lon < -180 || rec.Geo.Lon > 180 {
			p.errorf("record %d (%s): longitude %g out of range", i, rec.ID, rec.Geo.Lon)
		}
	}
	if atOrigin > 0 {
		fmt.Printf("  Note: %d record(s) at origin coordinates (fallback policy)\n", atOrigin)
	}
	return p
}

// ── Phase 4: Drop accounting ──
// Input rows must equal served rows plus every category of drop.

func validateAccounting(ds *domain.Dataset) *phase {
	p := &phase{name: "Phase 4: Drop Accounting (row counts)"}

	s := ds.Summary
	if got := s.InputRows - s.NumericDrops - s.CoordinateDrops; got != s.OutputRows {
		p.errorf("row counts do not reconcile: %d input - %d numeric - %d coordinate = %d, but %d served",
			s.InputRows, s.NumericDrops, s.CoordinateDrops, got, s.OutputRows)
	}
	if s.OutputRows != len(ds.Records) {
		p.errorf("summary reports %d rows but dataset holds %d", s.OutputRows, len(ds.Records))
	}
	return p
}

func writeDataset(path string, ds *domain.Dataset) error {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
