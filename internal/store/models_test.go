package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDayDistance(t *testing.T) {
	assert.Equal(t, 0, DayDistance(date(2023, 11, 1), date(2023, 11, 1)))
	assert.Equal(t, 2, DayDistance(date(2023, 11, 1), date(2023, 11, 3)))
	assert.Equal(t, 2, DayDistance(date(2023, 11, 3), date(2023, 11, 1)))
	assert.Equal(t, 61, DayDistance(date(2023, 11, 1), date(2024, 1, 1)))

	// Time-of-day noise must not change the day distance.
	noisy := time.Date(2023, 11, 3, 19, 30, 0, 0, time.UTC)
	assert.Equal(t, 2, DayDistance(date(2023, 11, 1), noisy))
}

func TestSeriesDates(t *testing.T) {
	s := PlayerSeries{
		{Date: date(2023, 11, 5)},
		{Date: date(2023, 11, 1)},
		{Date: date(2023, 11, 5)},
	}

	dates := s.Dates()
	assert.Equal(t, []time.Time{date(2023, 11, 1), date(2023, 11, 5)}, dates)
}

func TestStatColumnsSortedUnion(t *testing.T) {
	s := PlayerSeries{
		{Stats: map[string]float64{"pts": 20, "ast": 5}},
		{Stats: map[string]float64{"pts": 12, "reb": 7}},
	}

	assert.Equal(t, []string{"ast", "pts", "reb"}, s.StatColumns())
}

func TestSortByDate(t *testing.T) {
	s := PlayerSeries{
		{Date: date(2023, 11, 10)},
		{Date: date(2023, 11, 1)},
		{Date: date(2023, 11, 5)},
	}
	s.SortByDate()

	assert.True(t, s[0].Date.Before(s[1].Date))
	assert.True(t, s[1].Date.Before(s[2].Date))
}
