package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dmitrijs2005/factfeed/internal/facts"
	"github.com/stretchr/testify/assert"
)

func TestHexRGB(t *testing.T) {
	r, g, b := hexRGB("#16a34a")
	assert.Equal(t, []int64{0x16, 0xa3, 0x4a}, []int64{r, g, b})

	r, g, b = hexRGB("bad")
	assert.Equal(t, []int64{0, 0, 0}, []int64{r, g, b})
}

func TestRenderList_States(t *testing.T) {
	var buf bytes.Buffer
	renderList(&buf, []facts.Fact{{ID: 1}}, true, nil)
	assert.Equal(t, msgLoading+"\n", buf.String())

	buf.Reset()
	renderList(&buf, nil, false, nil)
	assert.Equal(t, msgNoFacts+"\n", buf.String())
}

func TestRenderList_FactsAndCount(t *testing.T) {
	list := []facts.Fact{
		{ID: 1, Text: "first", Source: "https://a.example", Category: facts.CategoryScience, VotesInteresting: 5},
		{ID: 2, Text: "second", Source: "https://b.example", Category: facts.CategoryNews, VotesFalse: 4, VotesInteresting: 1},
	}
	var buf bytes.Buffer
	renderList(&buf, list, false, func(id int64) bool { return id == 2 })

	out := buf.String()
	assert.Contains(t, out, "#1 first (Source: https://a.example)")
	assert.Contains(t, out, "#2 "+disputedMark+" second")
	assert.Contains(t, out, "There are 2 facts in the database. Add your own!")
	assert.Equal(t, 1, strings.Count(out, "(updating...)"))
	assert.NotContains(t, strings.SplitN(out, "#2", 2)[0], disputedMark)
}

func TestRenderFact_UnknownCategoryPlain(t *testing.T) {
	var buf bytes.Buffer
	renderFact(&buf, facts.Fact{ID: 3, Text: "x", Category: "cooking"}, false)
	assert.Contains(t, buf.String(), "cooking")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestRenderCategories_ListsAllInOrder(t *testing.T) {
	var buf bytes.Buffer
	renderCategories(&buf, facts.FilterAll)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, len(facts.Categories)+1)
	assert.Equal(t, "* all", lines[0])
	for i, c := range facts.Categories {
		assert.Contains(t, lines[i+1], c.ColorName)
	}
}
