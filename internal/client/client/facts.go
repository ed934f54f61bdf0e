package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/factfeed/internal/facts"
)

var returnRepresentation = http.Header{"Prefer": {"return=representation"}}

// Select lists facts matching q.
func (c *HTTPClient) Select(ctx context.Context, q FactQuery) ([]facts.Fact, error) {
	query := url.Values{"select": {"*"}}
	if q.Category != "" && q.Category != facts.FilterAll {
		query.Set("category", "eq."+q.Category)
	}
	if q.OrderBy != "" {
		dir := "desc"
		if q.Ascending {
			dir = "asc"
		}
		query.Set("order", string(q.OrderBy)+"."+dir)
	}

	var out []facts.Fact
	if err := c.do(ctx, request{method: http.MethodGet, path: factsPath, query: query}, &out); err != nil {
		return nil, fmt.Errorf("select facts: %w", err)
	}
	if out == nil {
		out = []facts.Fact{}
	}
	return out, nil
}

// Insert creates a row and returns it as stored.
func (c *HTTPClient) Insert(ctx context.Context, f facts.NewFact) (*facts.Fact, error) {
	var out []facts.Fact
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   factsPath,
		query:  url.Values{"select": {"*"}},
		body:   []facts.NewFact{f},
		header: returnRepresentation,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("insert fact: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("insert fact: %w", ErrNotFound)
	}
	return &out[0], nil
}

// UpdateVotes sets column to value on fact id and returns the updated row.
func (c *HTTPClient) UpdateVotes(ctx context.Context, id int64, column facts.VoteColumn, value int) (*facts.Fact, error) {
	if !column.Valid() {
		return nil, fmt.Errorf("update votes: %w: %q", facts.ErrUnknownColumn, string(column))
	}

	var out []facts.Fact
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   factsPath,
		query:  url.Values{"id": {idFilter(id)}, "select": {"*"}},
		body:   map[string]int{string(column): value},
		header: returnRepresentation,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("update votes of fact %d: %w", id, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("update votes of fact %d: %w", id, ErrNotFound)
	}
	return &out[0], nil
}

// Delete removes fact id. Deleting a missing row is not an error.
func (c *HTTPClient) Delete(ctx context.Context, id int64) error {
	err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   factsPath,
		query:  url.Values{"id": {idFilter(id)}},
	}, nil)
	if err != nil {
		return fmt.Errorf("delete fact %d: %w", id, err)
	}
	return nil
}

func idFilter(id int64) string {
	return "eq." + strconv.FormatInt(id, 10)
}
