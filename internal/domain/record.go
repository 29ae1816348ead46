package domain

import "time"

// Source CSV column names, matched after whitespace-trimming.
const (
	ColCountry           = "Country"
	ColYear              = "Year"
	ColAttackType        = "Attack Type"
	ColTargetIndustry    = "Target Industry"
	ColFinancialLoss     = "Financial Loss (in Million $)"
	ColAffectedUsers     = "Number of Affected Users"
	ColAttackSource      = "Attack Source"
	ColVulnerabilityType = "Security Vulnerability Type"
	ColDefenseMechanism  = "Defense Mechanism Used"
	ColResolutionTime    = "Incident Resolution Time (in Hours)"
)

// RequiredColumns returns the canonical required column set. Callers may opt
// into a stricter subset via configuration, but CoreColumns are always
// enforced on top of whatever the caller picks.
func RequiredColumns() []string {
	return []string{
		ColCountry, ColYear, ColAttackType, ColTargetIndustry,
		ColFinancialLoss, ColAffectedUsers, ColAttackSource,
		ColVulnerabilityType, ColDefenseMechanism, ColResolutionTime,
	}
}

// CoreColumns returns the columns the pipeline cannot operate without:
// the country key and the four numeric fields used for filtering and sizing.
func CoreColumns() []string {
	return []string{ColCountry, ColYear, ColFinancialLoss, ColAffectedUsers, ColResolutionTime}
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// IncidentRecord is one cleaned incident row, ready for presentation.
type IncidentRecord struct {
	ID                    string  `json:"id"`
	Country               string  `json:"country"`
	Year                  int     `json:"year"`
	AttackType            string  `json:"attack_type"`
	TargetIndustry        string  `json:"target_industry,omitempty"`
	FinancialLossMillions float64 `json:"financial_loss_millions"`
	AffectedUsers         int64   `json:"affected_users"`
	AttackSource          string  `json:"attack_source,omitempty"`
	VulnerabilityType     string  `json:"vulnerability_type,omitempty"`
	DefenseMechanism      string  `json:"defense_mechanism,omitempty"`
	ResolutionTimeHours   float64 `json:"resolution_time_hours"`
	Geo                   Geo     `json:"geo"`
}

// Status classifies the terminal outcome of a dataset build.
type Status string

const (
	StatusOK          Status = "ok"
	StatusNotFound    Status = "not_found"
	StatusSchemaError Status = "schema_error"
	StatusParseError  Status = "parse_error"
)

// DropSummary counts rows discarded at each filtering stage. The counts are
// diagnostics for the presentation layer; retained rows are never listed.
type DropSummary struct {
	InputRows       int `json:"input_rows"`
	NumericDrops    int `json:"numeric_drops"`
	CoordinateDrops int `json:"coordinate_drops"`
	GeocodeFailures int `json:"geocode_failures"`
	OutputRows      int `json:"output_rows"`
}

// Dataset is the prepared, immutable table handed to consumers. A build that
// fails terminally still produces a Dataset: empty records, a non-ok Status,
// and a human-readable StatusDetail.
type Dataset struct {
	Records      []IncidentRecord `json:"records"`
	Summary      DropSummary      `json:"summary"`
	Status       Status           `json:"status"`
	StatusDetail string           `json:"status_detail,omitempty"`
	SourceDigest string           `json:"source_digest,omitempty"`
	PreparedAt   time.Time        `json:"prepared_at"`
}

// Empty reports whether the dataset holds no usable rows.
func (d *Dataset) Empty() bool {
	return d == nil || len(d.Records) == 0
}
