package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/factfeed/internal/client/models"
	"github.com/dmitrijs2005/factfeed/internal/client/repositories/preferences"
	"github.com/dmitrijs2005/factfeed/internal/client/services"
	"github.com/dmitrijs2005/factfeed/internal/facts"
)

var errUsage = errors.New("usage")

func (a *App) List(ctx context.Context) error {
	renderList(a.out, a.store.Facts(), a.store.Loading(), a.mutations.IsUpdating)
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.store.Refresh(ctx); err != nil {
		return err
	}
	return a.List(ctx)
}

func (a *App) Categories(ctx context.Context) error {
	renderCategories(a.out, a.store.Filter())
	return nil
}

func (a *App) Filter(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: filter <all|" + strings.Join(categoryNames(), "|") + ">")
		return errUsage
	}

	err := a.store.SetFilter(ctx, strings.ToLower(args[0]))
	if errors.Is(err, facts.ErrUnknownCategory) {
		printlnFn("Unknown category:", args[0])
		return err
	}

	if a.prefs != nil {
		if perr := a.prefs.Set(ctx, preferences.KeyFilter, a.store.Filter()); perr != nil {
			a.log.Warn(ctx, "filter not saved", "error", perr)
		}
	}

	if err != nil {
		// the alert already told the user
		return err
	}
	return a.List(ctx)
}

func (a *App) Post(ctx context.Context) error {
	var form models.FactForm

	text, err := GetSimpleText(a.reader, "Share a fact with the world...", a.out)
	if err != nil {
		return err
	}
	form.Text = text
	fmt.Fprintf(a.out, "%d characters left\n", facts.MaxTextLength-utf8.RuneCountInString(text))

	if form.Source, err = GetSimpleText(a.reader, "Trustworthy source...", a.out); err != nil {
		return err
	}

	category, err := GetSimpleText(a.reader, "Choose category: "+strings.Join(categoryNames(), ", "), a.out)
	if err != nil {
		return err
	}
	form.Category = facts.Category(strings.ToLower(category))

	err = a.mutations.Insert(ctx, &form)

	var mErr *services.MutationError
	switch {
	case err == nil:
		printlnFn("Fact posted.")
		return a.List(ctx)
	case errors.As(err, &mErr):
		// insert failures are not surfaced beyond the log
		return err
	default:
		printlnFn("Fact not posted:", err)
		return err
	}
}

func (a *App) Vote(ctx context.Context, args []string) error {
	if len(args) != 2 {
		printlnFn("Usage: vote <id> <interesting|mindblowing|false>")
		return errUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		printlnFn("Invalid fact id:", args[0])
		return err
	}
	column, err := facts.ParseVoteColumn(args[1])
	if err != nil {
		printlnFn("Unknown vote:", args[1])
		return err
	}

	err = a.mutations.Vote(ctx, id, column)

	var mErr *services.MutationError
	switch {
	case err == nil:
		return a.showFact(id)
	case errors.As(err, &mErr):
		return err
	case errors.Is(err, services.ErrFactBusy):
		printlnFn("Fact", id, "is being updated, try again in a moment.")
		return err
	default:
		printlnFn("Vote failed:", err)
		return err
	}
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: delete <id>")
		return errUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		printlnFn("Invalid fact id:", args[0])
		return err
	}

	err = a.mutations.Delete(ctx, id)

	var mErr *services.MutationError
	switch {
	case err == nil:
		printlnFn("Fact", id, "deleted.")
		return nil
	case errors.As(err, &mErr):
		return err
	default:
		printlnFn("Delete failed:", err)
		return err
	}
}

func (a *App) showFact(id int64) error {
	for _, f := range a.store.Facts() {
		if f.ID == id {
			renderFact(a.out, f, a.mutations.IsUpdating(id))
			return nil
		}
	}
	return nil
}

func categoryNames() []string {
	names := make([]string, 0, len(facts.Categories))
	for _, c := range facts.Categories {
		names = append(names, string(c.Name))
	}
	return names
}
