package types

import (
	"errors"
	"time"
)

// DateLayout is how dates are stored in the dataset and written in URLs.
const DateLayout = "2006-01-02"

// ErrNoData means a query that needs at least one measurement found none.
var ErrNoData = errors.New("no data available")

// Station is one row of the station table. Every column but the id is
// nullable in the dataset; missing values are nil.
type Station struct {
	ID        string   `json:"station"`
	Name      *string  `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Elevation *float64 `json:"elevation"`
}

// DatePrecip is one station's precipitation reading for a day. Prcp is nil
// when the station reported no value.
type DatePrecip struct {
	Date string
	Prcp *float64
}

type DateTemp struct {
	Date string
	Temp float64
}

// DateBounds is the earliest and latest measurement date in the dataset.
type DateBounds struct {
	Min time.Time
	Max time.Time
}

// Extreme is a temperature together with the date it was observed.
type Extreme struct {
	Date string  `json:"Date"`
	Temp float64 `json:"Temp"`
}

// Summary is the min/mean/max of the temperature readings in a date range.
// Average is the arithmetic mean and carries no date.
type Summary struct {
	Minimum Extreme `json:"Minimum"`
	Average float64 `json:"Average"`
	Maximum Extreme `json:"Maximum"`
}
