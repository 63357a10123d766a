package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dancab13/sqlalchemy-challenge/internal/modules/climate/daterange"
)

var validate = validator.New()

// summaryParams holds the path parameters of the summary routes. End is
// empty on the open-ended route.
type summaryParams struct {
	Start string `validate:"required,datetime=2006-01-02"`
	End   string `validate:"omitempty,datetime=2006-01-02"`
}

// parseSummaryParams returns the requested start date and, for the bounded
// route, the end date. Both parameters are validated before either is used.
func parseSummaryParams(r *http.Request) (time.Time, *time.Time, error) {
	p := summaryParams{
		Start: r.PathValue("start"),
		End:   r.PathValue("end"),
	}
	if err := validate.Struct(p); err != nil {
		return time.Time{}, nil, fmt.Errorf("%w: %v", daterange.ErrMalformedDate, err)
	}

	start, err := daterange.Parse(p.Start)
	if err != nil {
		return time.Time{}, nil, err
	}
	if p.End == "" {
		return start, nil, nil
	}
	end, err := daterange.Parse(p.End)
	if err != nil {
		return time.Time{}, nil, err
	}
	return start, &end, nil
}
