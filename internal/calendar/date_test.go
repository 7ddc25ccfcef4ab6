package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_Arithmetic(t *testing.T) {
	d := MustParseISO("2024-02-28")

	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.Equal(t, 2, d.DaysUntil(MustParseISO("2024-03-01")))
	assert.Equal(t, -2, MustParseISO("2024-03-01").DaysUntil(d))
	assert.Equal(t, time.Wednesday, d.Weekday())
	assert.Equal(t, "2025-03-02", NewDate(2025, time.February, 30).String())
}

func TestDate_DaysUntilAcrossDST(t *testing.T) {
	assert.Equal(t, 1, MustParseISO("2025-03-30").DaysUntil(MustParseISO("2025-03-31")))
	assert.Equal(t, 7, MustParseISO("2025-10-22").DaysUntil(MustParseISO("2025-10-29")))
}

func TestDate_Compare(t *testing.T) {
	a, b := MustParseISO("2025-01-31"), MustParseISO("2025-02-01")

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.Equal(MustParseISO("2025-01-31")))
	assert.Equal(t, 0, a.Compare(a))
}

func TestDate_JSON(t *testing.T) {
	d := MustParseISO("2025-10-01")

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-10-01"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d, back)

	assert.Error(t, json.Unmarshal([]byte(`"01/10/2025"`), &back))
}

func TestDate_Scan(t *testing.T) {
	var d Date

	require.NoError(t, d.Scan(time.Date(2025, 10, 1, 0, 0, 0, 0, time.FixedZone("X", -5*3600))))
	assert.Equal(t, "2025-10-01", d.String())

	require.NoError(t, d.Scan([]byte("2025-10-02T00:00:00Z")))
	assert.Equal(t, "2025-10-02", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))

	v, err := MustParseISO("2025-10-03").Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-10-03", v)
}
