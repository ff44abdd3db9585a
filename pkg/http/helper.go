package http

import (
	"net/http"
	"strconv"

	"medcal/pkg/config"
	apperrors "medcal/pkg/errors"
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

// ExtractDateRange reads the start_date/end_date query parameters. Both are
// required by the calendar and availability read paths.
func ExtractDateRange(r *http.Request) (string, string, error) {
	query := r.URL.Query()

	startDate := query.Get("start_date")
	endDate := query.Get("end_date")
	if startDate == "" || endDate == "" {
		return "", "", apperrors.InvalidInput("start_date and end_date query parameters are required")
	}

	return startDate, endDate, nil
}
