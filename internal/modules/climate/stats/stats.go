package stats

import "github.com/dancab13/sqlalchemy-challenge/internal/modules/climate/types"

// Summarize returns the minimum, mean and maximum temperature of rows. Each
// extreme carries the date of the first row holding that value, so callers
// passing rows in date order get the earliest date. Empty input returns
// types.ErrNoData.
func Summarize(rows []types.DateTemp) (types.Summary, error) {
	if len(rows) == 0 {
		return types.Summary{}, types.ErrNoData
	}

	lo, hi := rows[0], rows[0]
	var sum float64
	for _, r := range rows {
		sum += r.Temp
		if r.Temp < lo.Temp {
			lo = r
		}
		if r.Temp > hi.Temp {
			hi = r
		}
	}

	avg := sum / float64(len(rows))
	// Rounding in the sum can push the mean a hair outside the range when
	// every value is equal.
	avg = min(max(avg, lo.Temp), hi.Temp)

	return types.Summary{
		Minimum: types.Extreme{Date: lo.Date, Temp: lo.Temp},
		Average: avg,
		Maximum: types.Extreme{Date: hi.Date, Temp: hi.Temp},
	}, nil
}
