// Package domain models the Global Cybersecurity Threats incident dataset.
//
// # Data Source
//
// Incident records originate from the "Global Cybersecurity Threats
// 2015-2024" CSV export (one row per reported incident). The file carries a
// header row and is delimited by either commas or semicolons depending on the
// export locale; the delimiter is configured, not sniffed.
//
// # Column Conventions
//
// The canonical header set, after whitespace-trimming:
//
//	Country, Year, Attack Type, Target Industry,
//	Financial Loss (in Million $), Number of Affected Users,
//	Attack Source, Security Vulnerability Type, Defense Mechanism Used,
//	Incident Resolution Time (in Hours)
//
// The two verbose money/time headers map to the internal field names
// FinancialLossMillions and ResolutionTimeHours during parsing.
//
// Numeric cells are coerced leniently: an unparseable value nulls the cell
// and the row is dropped later, never failing the whole load. Year and
// affected-user counts sometimes arrive with a trailing ".0" from spreadsheet
// round trips, so integer columns are parsed through float64 first.
//
// Attack Type is upper-cased and trimmed before any grouping or filtering so
// "Phishing", " PHISHING " and "phishing" collapse to one category.
//
// Resolution time is floor-clamped to 1 hour: the presentation layer sizes
// map markers by it, and a zero or negative marker size is unrenderable.
//
// # Coordinates
//
// Each country name resolves to a WGS-84 coordinate through a [Geocoder].
// Rows whose country cannot be resolved are dropped by default; the
// alternative "origin" policy keeps them pinned at (0,0) and is opt-in only,
// since (0,0) is a real ocean location on the rendered map.
//
// # ID Generation
//
// Record IDs are deterministic SHA-256 hashes of
// country|year|attack|loss|users|resolution. Reprocessing the same source
// row yields the same ID, so downstream sinks can upsert idempotently
// (ON CONFLICT DO NOTHING). See [generateID].
package domain
