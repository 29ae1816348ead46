// Package preparer builds the prepared incident dataset: parse, schema
// check, coerce, filter, normalize, geocode, and memoize.
package preparer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/couchcryptid/threat-data-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/threat-data-etl/internal/config"
	"github.com/couchcryptid/threat-data-etl/internal/domain"
	"github.com/couchcryptid/threat-data-etl/internal/observability"
)

// errNotBuilt is returned by CheckReadiness before the first build completes.
var errNotBuilt = errors.New("dataset has not been built yet")

// Sink receives the records of a freshly built dataset. Sink failures are
// logged and counted, never surfaced to the build.
type Sink interface {
	Name() string
	Publish(ctx context.Context, records []domain.IncidentRecord) error
}

// Preparer runs the load pipeline and holds the memoized result.
type Preparer struct {
	cfg      *config.Config
	geocoder domain.Geocoder
	sinks    []Sink
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu      sync.Mutex
	memoKey string
	dataset *domain.Dataset
}

// New creates a Preparer with the given geocoder and optional sinks.
func New(cfg *config.Config, geocoder domain.Geocoder, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics) *Preparer {
	return &Preparer{
		cfg:      cfg,
		geocoder: geocoder,
		sinks:    sinks,
		logger:   logger,
		metrics:  metrics,
	}
}

// Dataset returns the currently held dataset, or nil before the first build.
func (p *Preparer) Dataset() *domain.Dataset {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dataset
}

// CheckReadiness reports nil once any build has completed, even a failed one:
// a failed build still yields a servable empty dataset with a status.
func (p *Preparer) CheckReadiness(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dataset == nil {
		return errNotBuilt
	}
	return nil
}

// Prepare builds the dataset from the configured source.
//
// It always returns a well-formed dataset; terminal failures (missing file,
// missing columns, malformed content) come back as an empty dataset with a
// non-ok status plus the typed error for the caller's logging. Builds are
// memoized on the source content and config fingerprint: an unchanged key
// returns the held dataset without re-parsing or re-geocoding.
func (p *Preparer) Prepare(ctx context.Context) (*domain.Dataset, error) {
	data, err := csvfile.ReadFile(p.cfg.CSVPath)
	if err != nil {
		return p.failBuild(err), err
	}

	key := memoKey(data, p.cfg.Fingerprint())

	p.mu.Lock()
	if p.dataset != nil && p.memoKey == key {
		ds := p.dataset
		p.mu.Unlock()
		p.metrics.DatasetCache.WithLabelValues("hit").Inc()
		p.logger.Debug("dataset unchanged, serving memoized build", "digest", ds.SourceDigest)
		return ds, nil
	}
	p.mu.Unlock()
	p.metrics.DatasetCache.WithLabelValues("miss").Inc()

	start := time.Now()
	ds, err := p.build(ctx, data)
	if err != nil {
		// A cancelled build must not displace the dataset already held.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return p.Dataset(), err
		}
		return p.failBuild(err), err
	}
	p.metrics.BuildDuration.Observe(time.Since(start).Seconds())

	p.store(key, ds)
	p.publish(ctx, ds)

	p.logger.Info("dataset prepared",
		"input_rows", ds.Summary.InputRows,
		"output_rows", ds.Summary.OutputRows,
		"numeric_drops", ds.Summary.NumericDrops,
		"coordinate_drops", ds.Summary.CoordinateDrops,
		"geocode_failures", ds.Summary.GeocodeFailures,
		"digest", ds.SourceDigest,
	)
	return ds, nil
}

// build runs the full parse-clean-geocode pipeline over raw source bytes.
func (p *Preparer) build(ctx context.Context, data []byte) (*domain.Dataset, error) {
	delimiter, err := p.cfg.Delimiter()
	if err != nil {
		return nil, err
	}

	header, rows, err := csvfile.Parse(data, delimiter)
	if err != nil {
		return nil, err
	}

	if missing := domain.MissingColumns(header, p.cfg.RequiredColumns); len(missing) > 0 {
		return nil, &domain.SchemaError{Missing: missing}
	}

	idx := domain.ColumnIndex(header)
	summary := domain.DropSummary{InputRows: len(rows)}
	p.metrics.RowsRead.Add(float64(len(rows)))

	records := make([]domain.IncidentRecord, 0, len(rows))
	for _, row := range rows {
		rec, ok := domain.ParseIncidentRow(idx, row)
		if !ok {
			summary.NumericDrops++
			continue
		}
		records = append(records, rec)
	}
	p.metrics.RowsDropped.WithLabelValues("numeric").Add(float64(summary.NumericDrops))

	records, err = p.geocode(ctx, records, &summary)
	if err != nil {
		return nil, err
	}
	p.metrics.RowsDropped.WithLabelValues("coordinate").Add(float64(summary.CoordinateDrops))

	summary.OutputRows = len(records)
	return &domain.Dataset{
		Records:      records,
		Summary:      summary,
		Status:       domain.StatusOK,
		SourceDigest: sourceDigest(data),
		PreparedAt:   domain.Now(),
	}, nil
}

// geocode resolves each distinct country once, in sorted order so live-mode
// lookup sequences (and their pacing) are deterministic, then applies the
// fallback policy to rows whose country has no coordinate.
func (p *Preparer) geocode(ctx context.Context, records []domain.IncidentRecord, summary *domain.DropSummary) ([]domain.IncidentRecord, error) {
	distinct := make(map[string]struct{}, len(records))
	for _, rec := range records {
		distinct[rec.Country] = struct{}{}
	}
	countries := make([]string, 0, len(distinct))
	for c := range distinct {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	resolved := make(map[string]domain.Geo, len(countries))
	for _, country := range countries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		geo, ok, err := p.geocoder.Resolve(ctx, country)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Recovered locally: the country follows the fallback policy.
			summary.GeocodeFailures++
			p.logger.Warn("geocode failed", "country", country, "error", err)
			ok = false
		}
		if !ok {
			if p.cfg.GeocodeFallback == config.FallbackOrigin {
				resolved[country] = domain.Geo{}
			}
			continue
		}
		resolved[country] = geo
	}

	kept := records[:0]
	for _, rec := range records {
		geo, ok := resolved[rec.Country]
		if !ok {
			summary.CoordinateDrops++
			continue
		}
		rec.Geo = geo
		kept = append(kept, rec)
	}
	return kept, nil
}

// failBuild records a terminal failure and installs an empty dataset so the
// boundary always serves a well-formed table with a status.
func (p *Preparer) failBuild(err error) *domain.Dataset {
	status := domain.StatusForError(err)
	p.metrics.DatasetBuilds.WithLabelValues(string(status)).Inc()
	p.logger.Error("dataset build failed", "status", status, "error", err)

	ds := &domain.Dataset{
		Records:      []domain.IncidentRecord{},
		Status:       status,
		StatusDetail: err.Error(),
		PreparedAt:   domain.Now(),
	}
	p.mu.Lock()
	p.memoKey = ""
	p.dataset = ds
	p.mu.Unlock()
	p.metrics.DatasetRows.Set(0)
	return ds
}

// store replaces the held dataset wholesale; no partial update is possible.
func (p *Preparer) store(key string, ds *domain.Dataset) {
	p.mu.Lock()
	p.memoKey = key
	p.dataset = ds
	p.mu.Unlock()

	p.metrics.DatasetBuilds.WithLabelValues(string(domain.StatusOK)).Inc()
	p.metrics.DatasetRows.Set(float64(len(ds.Records)))
}

// publish fans a fresh build out to the configured sinks.
func (p *Preparer) publish(ctx context.Context, ds *domain.Dataset) {
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, ds.Records); err != nil {
			p.metrics.SinkPublishes.WithLabelValues(sink.Name(), "error").Inc()
			p.logger.Error("sink publish failed", "sink", sink.Name(), "error", err)
			continue
		}
		p.metrics.SinkPublishes.WithLabelValues(sink.Name(), "ok").Inc()
	}
}

func memoKey(data []byte, fingerprint string) string {
	h := sha256.New()
	h.Write(data)
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	return hex.EncodeToString(h.Sum(nil))
}

func sourceDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
