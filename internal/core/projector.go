package core

import (
	"fmt"
	"slices"
	"strings"

	"github.com/valter-silva-au/todo-nexus/pkg/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collator orders task text for the alphabetical sort using the collation
// rules of a locale.
type Collator struct {
	tag language.Tag
}

// NewCollator parses locale (a BCP 47 tag such as "en" or "de-CH") and returns
// a Collator for it.
func NewCollator(locale string) (*Collator, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parsing locale %q: %w", locale, err)
	}
	return &Collator{tag: tag}, nil
}

// Locale returns the BCP 47 tag the collator was built for.
func (c *Collator) Locale() string {
	return c.tag.String()
}

// compareFunc returns a comparison function backed by a fresh collate.Collator.
// collate.Collator keeps internal buffers, so one is built per projection.
func (c *Collator) compareFunc() func(a, b string) int {
	tag := language.English
	if c != nil {
		tag = c.tag
	}
	col := collate.New(tag)
	return col.CompareString
}

// Project computes the visible task list: filter first, then search, then a
// stable sort. The input slice is never reordered; the result is always
// non-nil and holds clones of the matching tasks.
func Project(tasks []models.Task, settings models.ViewSettings, collator *Collator) []models.Task {
	term := strings.ToLower(settings.Search)

	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !matchesFilter(t, settings.Filter) {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(t.Text), term) {
			continue
		}
		out = append(out, t.Clone())
	}

	switch settings.Sort {
	case models.SortNewest:
		slices.SortStableFunc(out, func(a, b models.Task) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	case models.SortOldest:
		slices.SortStableFunc(out, func(a, b models.Task) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	case models.SortPriority:
		slices.SortStableFunc(out, func(a, b models.Task) int {
			return b.Priority.Rank() - a.Priority.Rank()
		})
	case models.SortAlphabetical:
		compare := collator.compareFunc()
		slices.SortStableFunc(out, func(a, b models.Task) int {
			return compare(a.Text, b.Text)
		})
	}

	return out
}

func matchesFilter(t models.Task, filter models.FilterMode) bool {
	switch filter {
	case models.FilterActive:
		return !t.Completed
	case models.FilterCompleted:
		return t.Completed
	case models.FilterStarred:
		return t.IsStarred
	default:
		return true
	}
}

// Aggregate counts tasks over the whole collection, independent of any
// filter or search.
func Aggregate(tasks []models.Task) models.Counts {
	c := models.Counts{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			c.Completed++
		}
		if t.IsStarred {
			c.Starred++
		}
	}
	c.Active = c.Total - c.Completed
	return c
}
