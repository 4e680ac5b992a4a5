package stats

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hidromet/rainfall-enso-etl/internal/domain"
)

func fv(v float64) *float64 { return &v }

func row(phase domain.Phase, index, mm float64) domain.AnalysisRow {
	return domain.AnalysisRow{
		StationID:    "1",
		Year:         2020,
		Month:        time.January,
		ValueMM:      fv(mm),
		AnomalyIndex: fv(index),
		Phase:        phase,
	}
}

func TestMeanByPhase(t *testing.T) {
	t.Run("groups and averages", func(t *testing.T) {
		rows := []domain.AnalysisRow{
			row(domain.PhaseWarm, 1.0, 100),
			row(domain.PhaseWarm, 1.2, 200),
			row(domain.PhaseNeutral, 0.1, 60),
		}

		means := MeanByPhase(rows)

		require.Len(t, means, 2)
		assert.Equal(t, domain.PhaseWarm, means[0].Phase)
		assert.InDelta(t, 150, means[0].MeanMM, 1e-9)
		assert.Equal(t, 2, means[0].Count)
		assert.Equal(t, domain.PhaseNeutral, means[1].Phase)
		assert.InDelta(t, 60, means[1].MeanMM, 1e-9)
	})

	t.Run("empty groups absent not zero", func(t *testing.T) {
		rows := []domain.AnalysisRow{row(domain.PhaseWarm, 1.0, 100)}

		means := MeanByPhase(rows)

		require.Len(t, means, 1)
		for _, m := range means {
			assert.NotEqual(t, domain.PhaseCold, m.Phase)
		}
	})

	t.Run("null precipitation skipped not summed as zero", func(t *testing.T) {
		withNull := row(domain.PhaseWarm, 1.0, 0)
		withNull.ValueMM = nil
		rows := []domain.AnalysisRow{
			row(domain.PhaseWarm, 1.0, 100),
			withNull,
		}

		means := MeanByPhase(rows)

		require.Len(t, means, 1)
		assert.InDelta(t, 100, means[0].MeanMM, 1e-9)
		assert.Equal(t, 1, means[0].Count)
	})

	t.Run("rows without enso coverage excluded", func(t *testing.T) {
		uncovered := domain.AnalysisRow{StationID: "1", ValueMM: fv(500)}
		means := MeanByPhase([]domain.AnalysisRow{uncovered})
		assert.Empty(t, means)
	})
}

func TestCorrelate(t *testing.T) {
	t.Run("perfect positive correlation", func(t *testing.T) {
		var rows []domain.AnalysisRow
		for i := 0; i < 10; i++ {
			x := float64(i)
			rows = append(rows, row(domain.PhaseNeutral, x, 3*x+7))
		}

		result, err := Correlate(rows)

		require.NoError(t, err)
		assert.InDelta(t, 1.0, result.Coefficient, 1e-9)
		assert.Equal(t, 10, result.Pairs)
	})

	t.Run("perfect negative correlation", func(t *testing.T) {
		var rows []domain.AnalysisRow
		for i := 0; i < 10; i++ {
			x := float64(i)
			rows = append(rows, row(domain.PhaseNeutral, x, -2*x+40))
		}

		result, err := Correlate(rows)

		require.NoError(t, err)
		assert.InDelta(t, -1.0, result.Coefficient, 1e-9)
	})

	t.Run("independent series stay below one", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		var rows []domain.AnalysisRow
		for i := 0; i < 500; i++ {
			rows = append(rows, row(domain.PhaseNeutral, rng.NormFloat64(), rng.NormFloat64()*30+100))
		}

		result, err := Correlate(rows)

		require.NoError(t, err)
		assert.Less(t, result.Coefficient, 0.5)
		assert.Greater(t, result.Coefficient, -0.5)
	})

	t.Run("pairwise null removal", func(t *testing.T) {
		missingValue := row(domain.PhaseWarm, 2.0, 0)
		missingValue.ValueMM = nil
		missingIndex := row(domain.PhaseWarm, 0, 50)
		missingIndex.AnomalyIndex = nil

		rows := []domain.AnalysisRow{
			row(domain.PhaseNeutral, 0, 10),
			row(domain.PhaseNeutral, 1, 20),
			row(domain.PhaseNeutral, 2, 30),
			missingValue,
			missingIndex,
		}

		result, err := Correlate(rows)

		require.NoError(t, err)
		assert.Equal(t, 3, result.Pairs)
		assert.InDelta(t, 1.0, result.Coefficient, 1e-9)
	})

	t.Run("single pair is insufficient", func(t *testing.T) {
		result, err := Correlate([]domain.AnalysisRow{row(domain.PhaseWarm, 1, 100)})

		assert.ErrorIs(t, err, domain.ErrInsufficientData)
		assert.Equal(t, 1, result.Pairs)
	})

	t.Run("no pairs is insufficient", func(t *testing.T) {
		_, err := Correlate(nil)
		assert.ErrorIs(t, err, domain.ErrInsufficientData)
	})

	t.Run("constant series is undefined", func(t *testing.T) {
		rows := []domain.AnalysisRow{
			row(domain.PhaseNeutral, 0.3, 10),
			row(domain.PhaseNeutral, 0.3, 20),
			row(domain.PhaseNeutral, 0.3, 30),
		}

		_, err := Correlate(rows)
		assert.ErrorIs(t, err, domain.ErrZeroVariance)
	})
}
