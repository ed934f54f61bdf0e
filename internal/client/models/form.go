package models

import "github.com/dmitrijs2005/factfeed/internal/facts"

// FactForm is the transient input of the "share a fact" form.
type FactForm struct {
	Text     string
	Source   string
	Category facts.Category
}

// Reset clears every field back to its empty value.
func (f *FactForm) Reset() {
	*f = FactForm{}
}

// NewFact turns the form into an insert payload for authorID.
func (f *FactForm) NewFact(authorID string) facts.NewFact {
	return facts.NewFact{
		Text:     f.Text,
		Source:   f.Source,
		Category: f.Category,
		AuthorID: authorID,
	}
}
