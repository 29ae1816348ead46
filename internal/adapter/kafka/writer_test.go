package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/threat-data-etl/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	frozen := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(frozen))
	t.Cleanup(func() { domain.SetClock(clockwork.NewRealClock()) })

	rec := domain.IncidentRecord{
		ID:                    "inc-deadbeef01020304",
		Country:               "USA",
		Year:                  2020,
		AttackType:            "PHISHING",
		TargetIndustry:        "Finance",
		FinancialLossMillions: 5.5,
		AffectedUsers:         1000,
		ResolutionTimeHours:   12,
		Geo:                   domain.Geo{Lat: 37.0902, Lon: -95.7129},
	}

	msg, err := serializeToMessage(rec)
	require.NoError(t, err)

	assert.Equal(t, []byte(rec.ID), msg.Key)

	var decoded domain.IncidentRecord
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, rec, decoded)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "PHISHING", headers["attack_type"])
	assert.Equal(t, frozen.Format(time.RFC3339), headers["prepared_at"])
}
