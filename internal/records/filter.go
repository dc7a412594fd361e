package records

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"finance-tracker/internal/models"

	"github.com/jinzhu/now"
)

const dateLayout = "2006-01-02"

// ParseFilter builds the query for a list, stats or export request from its
// URL parameters. Malformed values are rejected rather than ignored.
func ParseFilter(owner string, kind models.Kind, params url.Values) (Query, error) {
	q := NewQuery(owner, kind)

	start, _, err := parseBound(params.Get("startDate"), "startDate")
	if err != nil {
		return Query{}, err
	}
	end, dateOnly, err := parseBound(params.Get("endDate"), "endDate")
	if err != nil {
		return Query{}, err
	}
	if end != nil && dateOnly {
		eod := now.With(*end).EndOfDay()
		end = &eod
	}
	q = q.WithRange(start, end)

	if kind == models.KindExpense {
		if c := strings.TrimSpace(params.Get("category")); c != "" {
			if !models.IsCategory(c) {
				return Query{}, &ValidationError{Field: "category", Message: "Invalid category"}
			}
			q = q.WithCategory(c)
		}
	}

	if l := strings.TrimSpace(params.Get("limit")); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil {
			return Query{}, &ValidationError{Field: "limit", Message: "Limit must be an integer"}
		}
		q = q.WithLimit(n)
	}

	return q, nil
}

func parseBound(v, field string) (*time.Time, bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, false, nil
	}
	t, dateOnly, err := ParseDate(v)
	if err != nil {
		return nil, false, &ValidationError{Field: field, Message: "Invalid " + field}
	}
	return &t, dateOnly, nil
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp
// and returns it in UTC. dateOnly is set for the calendar form.
func ParseDate(v string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.ParseInLocation(dateLayout, v, time.UTC); err == nil {
		return t, true, nil
	}
	if t, err = time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), false, nil
	}
	return time.Time{}, false, err
}
