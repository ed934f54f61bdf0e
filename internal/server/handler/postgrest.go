package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	domain "github.com/dmitrijs2005/factfeed/internal/facts"
	"github.com/dmitrijs2005/factfeed/internal/server/repositories/facts"
)

// errBadQuery marks malformed PostgREST query parameters.
var errBadQuery = errors.New("bad query")

func badQuery(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadQuery, fmt.Sprintf(format, args...))
}

// Parameters that are not column filters.
var reserved = map[string]bool{
	"select": true,
	"order":  true,
	"limit":  true,
	"apikey": true,
}

// parseEq reads an "eq.<value>" filter; it is the only operator supported.
func parseEq(column, raw string) (string, error) {
	op, value, ok := strings.Cut(raw, ".")
	if !ok || op != "eq" {
		return "", badQuery("unsupported filter %s=%s", column, raw)
	}
	return value, nil
}

// parseFactsQuery turns the query string of /rest/v1/facts into a Query.
// Filters: id=eq.N and category=eq.NAME. Order: order=col[.asc|.desc]
// with an optional .nullsfirst/.nullslast suffix, ascending by default.
func parseFactsQuery(v url.Values) (facts.Query, error) {
	var q facts.Query

	if sel := v.Get("select"); sel != "" && sel != "*" {
		return q, badQuery("only select=* is supported")
	}

	for key, values := range v {
		if reserved[key] {
			continue
		}
		if len(values) != 1 {
			return q, badQuery("repeated filter %s", key)
		}
		value, err := parseEq(key, values[0])
		if err != nil {
			return q, err
		}
		switch key {
		case "id":
			id, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return q, badQuery("invalid id %q", value)
			}
			q.ID = &id
		case "category":
			q.Category = domain.Category(value)
		default:
			return q, badQuery("unknown column %q", key)
		}
	}

	if order := v.Get("order"); order != "" {
		parts := strings.Split(order, ".")
		q.OrderBy = parts[0]
		q.Ascending = true
		for _, p := range parts[1:] {
			switch p {
			case "asc":
				q.Ascending = true
			case "desc":
				q.Ascending = false
			case "nullsfirst", "nullslast":
			default:
				return q, badQuery("invalid order %q", order)
			}
		}
	}

	if limit := v.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return q, badQuery("invalid limit %q", limit)
		}
		q.Limit = n
	}

	return q, nil
}

// decodeRows accepts either one JSON object or an array of them.
func decodeRows[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty body")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()

	if trimmed[0] == '[' {
		var rows []T
		if err := dec.Decode(&rows); err != nil {
			return nil, err
		}
		return rows, nil
	}

	var row T
	if err := dec.Decode(&row); err != nil {
		return nil, err
	}
	return []T{row}, nil
}

// parseVotes reads a PATCH body. Only vote counters may be set.
func parseVotes(body []byte) (map[domain.VoteColumn]int, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	votes := make(map[domain.VoteColumn]int, len(raw))
	for k, v := range raw {
		col := domain.VoteColumn(k)
		if !col.Valid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownColumn, k)
		}
		var n int
		if err := json.Unmarshal(v, &n); err != nil {
			return nil, fmt.Errorf("%s must be an integer", k)
		}
		votes[col] = n
	}
	return votes, nil
}

// wantsRepresentation reports whether the Prefer header asks for the
// affected rows in the response.
func wantsRepresentation(prefer []string) bool {
	for _, h := range prefer {
		for _, p := range strings.Split(h, ",") {
			if strings.TrimSpace(p) == "return=representation" {
				return true
			}
		}
	}
	return false
}
