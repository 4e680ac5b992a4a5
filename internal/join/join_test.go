package join

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hidromet/rainfall-enso-etl/internal/domain"
)

func fv(v float64) *float64 { return &v }

var testStations = []domain.StationRecord{
	{ID: "1", Name: "A", Municipality: "Rionegro", Department: "Antioquia", Longitude: -75.0, Latitude: 6.0},
	{ID: "2", Name: "B", Municipality: "Guarne", Department: "Antioquia", Longitude: -75.5, Latitude: 6.5},
}

func TestStationJoin(t *testing.T) {
	t.Run("matched rows carry metadata", func(t *testing.T) {
		obs := []domain.PrecipitationObservation{
			{StationID: "1", Year: 2020, Month: time.January, ValueMM: fv(120.5)},
			{StationID: "2", Year: 2020, Month: time.January, ValueMM: nil},
		}

		rows, dropped := StationJoin(obs, testStations)

		assert.Equal(t, 0, dropped)
		require.Len(t, rows, 2)
		assert.Equal(t, "A", rows[0].StationName)
		assert.Equal(t, "Rionegro", rows[0].Municipality)
		assert.Equal(t, -75.0, rows[0].Longitude)
		assert.Nil(t, rows[1].ValueMM)
	})

	t.Run("unknown station dropped and counted", func(t *testing.T) {
		obs := []domain.PrecipitationObservation{
			{StationID: "1", Year: 2020, Month: time.January, ValueMM: fv(1)},
			{StationID: "99", Year: 2020, Month: time.January, ValueMM: fv(2)},
		}

		rows, dropped := StationJoin(obs, testStations)

		assert.Equal(t, 1, dropped)
		require.Len(t, rows, 1)
		assert.Equal(t, "1", rows[0].StationID)
	})

	t.Run("id normalization bridges leading zeros", func(t *testing.T) {
		obs := []domain.PrecipitationObservation{
			{StationID: "001", Year: 2020, Month: time.January, ValueMM: fv(1)},
		}

		rows, dropped := StationJoin(obs, testStations)

		assert.Equal(t, 0, dropped)
		require.Len(t, rows, 1)
		assert.Equal(t, "1", rows[0].StationID)
	})
}

func TestClimateJoin(t *testing.T) {
	enso := []domain.EnsoMonth{
		{Year: 2020, Month: time.January, AnomalyIndex: 1.2, Phase: domain.PhaseWarm},
		{Year: 2020, Month: time.February, AnomalyIndex: -0.7, Phase: domain.PhaseCold},
	}

	t.Run("covered months annotated", func(t *testing.T) {
		rows := []domain.AnalysisRow{
			{StationID: "1", Year: 2020, Month: time.January, ValueMM: fv(100)},
			{StationID: "1", Year: 2020, Month: time.February, ValueMM: fv(50)},
		}

		out, uncovered := ClimateJoin(rows, enso)

		assert.Equal(t, 0, uncovered)
		require.NotNil(t, out[0].AnomalyIndex)
		assert.InDelta(t, 1.2, *out[0].AnomalyIndex, 1e-9)
		assert.Equal(t, domain.PhaseWarm, out[0].Phase)
		assert.Equal(t, domain.PhaseCold, out[1].Phase)
	})

	t.Run("uncovered months retained without enso", func(t *testing.T) {
		rows := []domain.AnalysisRow{
			{StationID: "1", Year: 1999, Month: time.March, ValueMM: fv(10)},
		}

		out, uncovered := ClimateJoin(rows, enso)

		assert.Equal(t, 1, uncovered)
		require.Len(t, out, 1)
		assert.Nil(t, out[0].AnomalyIndex)
		assert.Empty(t, out[0].Phase)
		assert.False(t, out[0].HasEnso())
		// Row survives for time-series analysis.
		require.NotNil(t, out[0].ValueMM)
	})
}
