package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hidromet/rainfall-enso-etl/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	value := 120.5
	anomaly := 1.2
	row := domain.AnalysisRow{
		StationID:    "26250040",
		StationName:  "LA SELVA",
		Municipality: "Rionegro",
		Year:         2020,
		Month:        time.January,
		ValueMM:      &value,
		AnomalyIndex: &anomaly,
		Phase:        domain.PhaseWarm,
	}

	msg, err := serializeToMessage(row, "ses-abc123", now)
	require.NoError(t, err)

	assert.Equal(t, []byte("26250040"), msg.Key)
	assert.Contains(t, string(msg.Value), `"phase":"warm"`)
	assert.Contains(t, string(msg.Value), `"value_mm":120.5`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "session_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("ses-abc123"), msg.Headers[0].Value)
	assert.Equal(t, "processed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessageNullValue(t *testing.T) {
	row := domain.AnalysisRow{
		StationID: "12345",
		Year:      2020,
		Month:     time.January,
	}

	msg, err := serializeToMessage(row, "ses-abc123", time.Now())
	require.NoError(t, err)

	// Sentinel cells serialize as explicit null, never zero.
	assert.Contains(t, string(msg.Value), `"value_mm":null`)
}
