package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"kosbook/pkg/config"
	apperrors "kosbook/pkg/errors"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// ExtractYearMonth parses the "month" query parameter ("2006-01") into a
// calendar year/month pair.
func ExtractYearMonth(r *http.Request) (int, time.Month, error) {
	s := r.URL.Query().Get("month")
	if s == "" {
		return 0, 0, apperrors.InvalidInput("'month' query parameter is required (format: YYYY-MM)")
	}

	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, apperrors.InvalidInput(fmt.Sprintf("invalid month parameter: %s (expected YYYY-MM)", s))
	}

	return t.Year(), t.Month(), nil
}
