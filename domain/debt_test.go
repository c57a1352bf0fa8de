package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDebt_Normalizes(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		hours    int
		minutes  int
		expected Debt
	}{
		{"already normal", 1, 2, 3, Debt{Days: 1, Hours: 2, Minutes: 3}},
		{"minutes carry", 0, 0, 125, Debt{Hours: 2, Minutes: 5}},
		{"hours carry", 0, 49, 0, Debt{Days: 2, Hours: 1}},
		{"both carry", 0, 23, 62, Debt{Days: 1, Hours: 0, Minutes: 2}},
		{"negative treated as zero", -1, -5, 10, Debt{Minutes: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewDebt(tt.days, tt.hours, tt.minutes))
		})
	}
}

func TestDebt_PlusRenormalizes(t *testing.T) {
	a := Debt{Days: 0, Hours: 23, Minutes: 62}
	b := NewDebt(1, 0, 0)

	assert.Equal(t, Debt{Days: 2, Hours: 0, Minutes: 2}, a.Plus(b))
}

func TestDebt_PlusKeepsInvariants(t *testing.T) {
	total := Debt{}
	for i := 0; i < 500; i++ {
		total = total.Plus(NewDebt(0, i%30, i%97))
		require.GreaterOrEqual(t, total.Minutes, 0)
		require.Less(t, total.Minutes, 60)
		require.GreaterOrEqual(t, total.Hours, 0)
		require.Less(t, total.Hours, 24)
	}
}

func TestDebt_String(t *testing.T) {
	assert.Equal(t, "1d 2h 5min", NewDebt(1, 2, 5).String())
	assert.Equal(t, "3h", NewDebt(0, 3, 0).String())
	assert.Equal(t, "0min", Debt{}.String())
}

func TestParseDebt(t *testing.T) {
	d, err := ParseDebt("1d 2h 5min")
	require.NoError(t, err)
	assert.Equal(t, NewDebt(1, 2, 5), d)

	d, err = ParseDebt("90min")
	require.NoError(t, err)
	assert.Equal(t, Debt{Hours: 1, Minutes: 30}, d)

	_, err = ParseDebt("5 minutes")
	assert.Error(t, err)

	_, err = ParseDebt("")
	assert.Error(t, err)
}

func TestSumDebt_EmptyIsAbsent(t *testing.T) {
	_, ok := SumDebt(nil)
	assert.False(t, ok)

	total, ok := SumDebt([]Debt{{}, {}})
	assert.True(t, ok, "zero-debt findings still have a debt value")
	assert.True(t, total.IsZero())

	total, ok = SumDebt([]Debt{DebtTwentyMins, DebtTwentyMins, DebtTwentyMins})
	require.True(t, ok)
	assert.Equal(t, Debt{Hours: 1}, total)
}
