package handler

import (
	"net/url"
	"testing"

	domain "github.com/dmitrijs2005/factfeed/internal/facts"
	"github.com/dmitrijs2005/factfeed/internal/server/repositories/facts"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFactsQuery(t *testing.T) {
	id := int64(12)
	tests := []struct {
		raw  string
		want facts.Query
	}{
		{"", facts.Query{}},
		{"select=*", facts.Query{}},
		{"id=eq.12", facts.Query{ID: &id}},
		{"category=eq.history&order=created_at", facts.Query{Category: domain.CategoryHistory, OrderBy: "created_at", Ascending: true}},
		{"order=votesFalse.desc.nullslast&limit=5", facts.Query{OrderBy: "votesFalse", Limit: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v, err := url.ParseQuery(tt.raw)
			require.NoError(t, err)
			got, err := parseFactsQuery(v)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseFactsQuery mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeRows(t *testing.T) {
	rows, err := decodeRows[domain.NewFact]([]byte(` {"text":"a"} `))
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = decodeRows[domain.NewFact]([]byte(`[{"text":"a"},{"text":"b"}]`))
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = decodeRows[domain.NewFact]([]byte(`  `))
	require.Error(t, err)
}

func TestWantsRepresentation(t *testing.T) {
	assert.True(t, wantsRepresentation([]string{"return=representation"}))
	assert.True(t, wantsRepresentation([]string{"count=exact, return=representation"}))
	assert.False(t, wantsRepresentation([]string{"return=minimal"}))
	assert.False(t, wantsRepresentation(nil))
}
