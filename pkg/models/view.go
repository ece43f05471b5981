package models

import (
	"fmt"
	"strings"
)

// FilterMode selects which tasks are visible before searching.
type FilterMode string

const (
	FilterAll       FilterMode = "all"
	FilterActive    FilterMode = "active"
	FilterCompleted FilterMode = "completed"
	FilterStarred   FilterMode = "starred"
)

// FilterModes lists the filter modes in display order.
var FilterModes = []FilterMode{FilterAll, FilterActive, FilterCompleted, FilterStarred}

// Valid reports whether f is a known filter mode.
func (f FilterMode) Valid() bool {
	for _, m := range FilterModes {
		if m == f {
			return true
		}
	}
	return false
}

// ParseFilterMode converts user input into a FilterMode.
func ParseFilterMode(s string) (FilterMode, error) {
	f := FilterMode(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("invalid filter %q: must be one of all, active, completed, starred", s)
	}
	return f, nil
}

// SortMode selects the ordering of the projected task list.
type SortMode string

const (
	SortNewest       SortMode = "newest"
	SortOldest       SortMode = "oldest"
	SortPriority     SortMode = "priority"
	SortAlphabetical SortMode = "alphabetical"
)

// SortModes lists the sort modes in display order.
var SortModes = []SortMode{SortNewest, SortOldest, SortPriority, SortAlphabetical}

// Valid reports whether s is a known sort mode.
func (s SortMode) Valid() bool {
	for _, m := range SortModes {
		if m == s {
			return true
		}
	}
	return false
}

// ParseSortMode converts user input into a SortMode.
func ParseSortMode(s string) (SortMode, error) {
	m := SortMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("invalid sort %q: must be one of newest, oldest, priority, alphabetical", s)
	}
	return m, nil
}

// ViewSettings holds the active filter, search term and sort mode.
type ViewSettings struct {
	Filter FilterMode `json:"filter" yaml:"filter"`
	Search string     `json:"search" yaml:"search"`
	Sort   SortMode   `json:"sort" yaml:"sort"`
}

// DefaultViewSettings shows every task, newest first.
func DefaultViewSettings() ViewSettings {
	return ViewSettings{Filter: FilterAll, Sort: SortNewest}
}
