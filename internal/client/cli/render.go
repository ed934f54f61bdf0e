package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/factfeed/internal/facts"
)

const (
	msgLoading   = "Loading..."
	msgNoFacts   = "No facts for this category yet! Create the first one."
	disputedMark = "[⛔ DISPUTED]"
)

// colorTag paints the category name on its registry colour using 24-bit
// ANSI escapes.
func colorTag(c facts.Category) string {
	r, g, b := hexRGB(c.Color())
	return fmt.Sprintf("\x1b[48;2;%d;%d;%dm\x1b[97m %s \x1b[0m", r, g, b, strings.ToUpper(string(c)))
}

func hexRGB(hex string) (r, g, b int64) {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return 0, 0, 0
	}
	r, _ = strconv.ParseInt(h[0:2], 16, 64)
	g, _ = strconv.ParseInt(h[2:4], 16, 64)
	b, _ = strconv.ParseInt(h[4:6], 16, 64)
	return r, g, b
}

func renderFact(w io.Writer, f facts.Fact, busy bool) {
	prefix := ""
	if f.Disputed() {
		prefix = disputedMark + " "
	}
	fmt.Fprintf(w, "#%d %s%s (Source: %s)\n", f.ID, prefix, f.Text, f.Source)

	tag := string(f.Category)
	if f.Category.Valid() {
		tag = colorTag(f.Category)
	}
	state := ""
	if busy {
		state = "  (updating...)"
	}
	fmt.Fprintf(w, "    %s  %d 👍  %d 🤯  %d ⛔️%s\n", tag, f.VotesInteresting, f.VotesMindblowing, f.VotesFalse, state)
}

// renderList prints the cached list the way the feed shows it: a loader
// while fetching, a hint when empty, otherwise the facts and a count.
func renderList(w io.Writer, list []facts.Fact, loading bool, busy func(int64) bool) {
	if loading {
		fmt.Fprintln(w, msgLoading)
		return
	}
	if len(list) == 0 {
		fmt.Fprintln(w, msgNoFacts)
		return
	}
	for _, f := range list {
		renderFact(w, f, busy != nil && busy(f.ID))
	}
	fmt.Fprintf(w, "There are %d facts in the database. Add your own!\n", len(list))
}

func renderCategories(w io.Writer, current string) {
	mark := func(name string) string {
		if name == current {
			return "*"
		}
		return " "
	}
	fmt.Fprintf(w, "%s all\n", mark(facts.FilterAll))
	for _, c := range facts.Categories {
		fmt.Fprintf(w, "%s %s %s (%s)\n", mark(string(c.Name)), colorTag(c.Name), c.Color, c.ColorName)
	}
}
