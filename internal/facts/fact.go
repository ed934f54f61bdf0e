package facts

import (
	"errors"
	"fmt"
	"net/url"
	"time"
	"unicode/utf8"
)

// MaxTextLength is the longest fact text accepted, in characters.
const MaxTextLength = 200

var (
	ErrTextEmpty     = errors.New("fact text is empty")
	ErrTextTooLong   = errors.New("fact text is too long")
	ErrInvalidSource = errors.New("source must be an http or https URL")
	ErrUnknownColumn = errors.New("unknown vote column")
)

// Fact is a stored claim as the data service returns it.
type Fact struct {
	ID               int64     `json:"id"`
	Text             string    `json:"text"`
	Source           string    `json:"source"`
	Category         Category  `json:"category"`
	VotesInteresting int       `json:"votesInteresting"`
	VotesMindblowing int       `json:"votesMindblowing"`
	VotesFalse       int       `json:"votesFalse"`
	AuthorID         string    `json:"user_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// Disputed reports whether the false votes outnumber the positive ones.
// It is derived from the counters on every call.
func (f Fact) Disputed() bool {
	return f.VotesInteresting+f.VotesMindblowing < f.VotesFalse
}

// Votes returns the counter named by c.
func (f Fact) Votes(c VoteColumn) int {
	switch c {
	case VotesInteresting:
		return f.VotesInteresting
	case VotesMindblowing:
		return f.VotesMindblowing
	case VotesFalse:
		return f.VotesFalse
	default:
		panic(fmt.Sprintf("facts: unknown vote column %q", string(c)))
	}
}

// NewFact is the payload of an insert.
type NewFact struct {
	Text     string   `json:"text"`
	Source   string   `json:"source"`
	Category Category `json:"category"`
	AuthorID string   `json:"user_id"`
}

// Validate checks the fact invariants. The author is bound by the caller
// and is not checked here.
func (n NewFact) Validate() error {
	if err := ValidateText(n.Text); err != nil {
		return err
	}
	if err := ValidateSource(n.Source); err != nil {
		return err
	}
	if !n.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, string(n.Category))
	}
	return nil
}

// ValidateText enforces 1..MaxTextLength characters.
func ValidateText(text string) error {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return ErrTextEmpty
	}
	if n > MaxTextLength {
		return fmt.Errorf("%w: %d > %d characters", ErrTextTooLong, n, MaxTextLength)
	}
	return nil
}

// ValidateSource requires an absolute http or https URL with a host.
func ValidateSource(source string) error {
	u, err := url.Parse(source)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidSource, source)
	}
	return nil
}

// VoteColumn names one of the three counters.
type VoteColumn string

const (
	VotesInteresting VoteColumn = "votesInteresting"
	VotesMindblowing VoteColumn = "votesMindblowing"
	VotesFalse       VoteColumn = "votesFalse"
)

// VoteColumns lists the counters in display order.
var VoteColumns = []VoteColumn{VotesInteresting, VotesMindblowing, VotesFalse}

func (c VoteColumn) Valid() bool {
	switch c {
	case VotesInteresting, VotesMindblowing, VotesFalse:
		return true
	}
	return false
}

// ParseVoteColumn accepts a column name or the short forms
// "interesting", "mindblowing" and "false".
func ParseVoteColumn(s string) (VoteColumn, error) {
	switch s {
	case "interesting", string(VotesInteresting):
		return VotesInteresting, nil
	case "mindblowing", string(VotesMindblowing):
		return VotesMindblowing, nil
	case "false", string(VotesFalse):
		return VotesFalse, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColumn, s)
}
