package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)
	b := time.Date(2024, 1, 3, 0, 15, 0, 0, time.UTC)

	assert.Equal(t, 2, DaysBetween(a, b))
	assert.Equal(t, -2, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a))
}

func TestDaysBetweenAcrossDST(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skip("tzdata not available")
	}
	a := time.Date(2024, 3, 30, 0, 0, 0, 0, paris)
	b := time.Date(2024, 4, 1, 0, 0, 0, 0, paris)
	assert.Equal(t, 2, DaysBetween(a, b))
}

func TestDay(t *testing.T) {
	got := Day(time.Date(2024, 5, 17, 13, 4, 5, 6, time.UTC))
	assert.Equal(t, time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), got)
}

func TestParse(t *testing.T) {
	d, err := Parse("2024-03-01", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = Parse("2024-03-01T10:00:00Z", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 10, d.Hour())

	_, err = Parse("01/03/2024", time.UTC)
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "", Format(nil))
	assert.Equal(t, "2024-03-31", Format(Ptr(time.Date(2024, 3, 31, 8, 0, 0, 0, time.UTC))))
}
