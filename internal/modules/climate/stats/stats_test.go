package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/dancab13/sqlalchemy-challenge/internal/modules/climate/types"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		rows    []types.DateTemp
		wantMin types.Extreme
		wantMax types.Extreme
		wantAvg float64
	}{
		{
			name: "three days",
			rows: []types.DateTemp{
				{Date: "2017-08-22", Temp: 77},
				{Date: "2017-08-23", Temp: 80},
				{Date: "2017-08-24", Temp: 75},
			},
			wantMin: types.Extreme{Date: "2017-08-24", Temp: 75},
			wantMax: types.Extreme{Date: "2017-08-23", Temp: 80},
			wantAvg: 232.0 / 3,
		},
		{
			name:    "single row",
			rows:    []types.DateTemp{{Date: "2010-01-01", Temp: 65}},
			wantMin: types.Extreme{Date: "2010-01-01", Temp: 65},
			wantMax: types.Extreme{Date: "2010-01-01", Temp: 65},
			wantAvg: 65,
		},
		{
			name: "ties keep the first date",
			rows: []types.DateTemp{
				{Date: "2016-01-01", Temp: 70},
				{Date: "2016-01-02", Temp: 62},
				{Date: "2016-01-03", Temp: 81},
				{Date: "2016-01-04", Temp: 62},
				{Date: "2016-01-05", Temp: 81},
			},
			wantMin: types.Extreme{Date: "2016-01-02", Temp: 62},
			wantMax: types.Extreme{Date: "2016-01-03", Temp: 81},
			wantAvg: 71.2,
		},
		{
			name: "all equal",
			rows: []types.DateTemp{
				{Date: "2016-01-01", Temp: 0.1},
				{Date: "2016-01-02", Temp: 0.1},
				{Date: "2016-01-03", Temp: 0.1},
			},
			wantMin: types.Extreme{Date: "2016-01-01", Temp: 0.1},
			wantMax: types.Extreme{Date: "2016-01-01", Temp: 0.1},
			wantAvg: 0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Summarize(tt.rows)
			if err != nil {
				t.Fatalf("Summarize() error = %v; want nil", err)
			}
			if got.Minimum != tt.wantMin {
				t.Errorf("Minimum = %+v; want %+v", got.Minimum, tt.wantMin)
			}
			if got.Maximum != tt.wantMax {
				t.Errorf("Maximum = %+v; want %+v", got.Maximum, tt.wantMax)
			}
			if math.Abs(got.Average-tt.wantAvg) > 1e-9 {
				t.Errorf("Average = %v; want %v", got.Average, tt.wantAvg)
			}
			if got.Minimum.Temp > got.Average || got.Average > got.Maximum.Temp {
				t.Errorf("Average %v outside [%v, %v]", got.Average, got.Minimum.Temp, got.Maximum.Temp)
			}
		})
	}
}

func TestSummarize_empty(t *testing.T) {
	for _, rows := range [][]types.DateTemp{nil, {}} {
		_, err := Summarize(rows)
		if !errors.Is(err, types.ErrNoData) {
			t.Errorf("Summarize(%v) error = %v; want ErrNoData", rows, err)
		}
	}
}
