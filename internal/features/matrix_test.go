package features

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyparts/demandcast/internal/config"
	"github.com/skyparts/demandcast/internal/generator"
)

func buildSample(t *testing.T) *DesignMatrix {
	t.Helper()
	gen := generator.New(config.DefaultCatalog(), 42)
	obs, err := gen.Generate(context.Background(), date(2022, time.January, 1), date(2022, time.April, 30))
	require.NoError(t, err)
	return NewDesignMatrix(NewBuilder().Build(obs))
}

func TestDesignMatrix_Shape(t *testing.T) {
	m := buildSample(t)

	require.NotZero(t, m.Len())
	assert.Len(t, m.Target, m.Len())
	for _, row := range m.Rows {
		assert.Len(t, row, len(m.Columns))
	}
}

func TestDesignMatrix_DeterministicColumnOrder(t *testing.T) {
	first := buildSample(t)
	second := buildSample(t)

	assert.Equal(t, first.Columns, second.Columns)

	// Numeric columns lead, indicator groups follow in value order.
	assert.Equal(t, "day_of_year", first.Columns[0])
	assert.Contains(t, first.Columns, "day_of_week_0")
	assert.Contains(t, first.Columns, "day_of_week_6")
	assert.Contains(t, first.Columns, "month_1")
	assert.Contains(t, first.Columns, "quarter_1")
}

func TestDesignMatrix_OneHotExclusive(t *testing.T) {
	m := buildSample(t)

	// Exactly one day_of_week indicator is set per row.
	var dowIdx []int
	for i, c := range m.Columns {
		if len(c) > 12 && c[:12] == "day_of_week_" {
			dowIdx = append(dowIdx, i)
		}
	}
	require.Len(t, dowIdx, 7)

	for _, row := range m.Rows {
		set := 0
		for _, i := range dowIdx {
			if row[i] == 1 {
				set++
			}
		}
		assert.Equal(t, 1, set)
	}
}

func TestEncode_UnseenValueStaysZero(t *testing.T) {
	gen := generator.New(config.DefaultCatalog(), 42)
	obs, err := gen.Generate(context.Background(), date(2022, time.January, 1), date(2022, time.March, 31))
	require.NoError(t, err)
	rows := NewBuilder().Build(obs)

	// Layout derived from Q1 data only; encode rows from a later quarter.
	layout := ColumnsFor(rows)
	assert.NotContains(t, layout, "month_7")

	julyObs, err := gen.Generate(context.Background(), date(2022, time.June, 1), date(2022, time.July, 31))
	require.NoError(t, err)
	julyRows := NewBuilder().Build(julyObs)

	m := Encode(julyRows, layout)
	assert.Equal(t, layout, m.Columns)
	assert.Len(t, m.Rows[0], len(layout))
}
