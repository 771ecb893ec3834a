package cli

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/grappling-events/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate   SortOrder = "date"
	SortBySource SortOrder = "source"
	SortByName   SortOrder = "name"
)

func (o SortOrder) valid() bool {
	switch o {
	case SortByDate, SortBySource, SortByName:
		return true
	}
	return false
}

// sortCompetitions sorts comps in place. Ties always fall back to date,
// then id, so output is stable across runs.
func sortCompetitions(comps []event.Competition, order SortOrder) {
	switch order {
	case SortBySource:
		sort.SliceStable(comps, func(i, j int) bool {
			if comps[i].Source != comps[j].Source {
				return comps[i].Source < comps[j].Source
			}
			return compareByDate(comps[i], comps[j])
		})
	case SortByName:
		sort.SliceStable(comps, func(i, j int) bool {
			ni, nj := strings.ToLower(comps[i].Name), strings.ToLower(comps[j].Name)
			if ni != nj {
				return ni < nj
			}
			return compareByDate(comps[i], comps[j])
		})
	default:
		sort.SliceStable(comps, func(i, j int) bool {
			return compareByDate(comps[i], comps[j])
		})
	}
}

// compareByDate reports whether i starts before j.
func compareByDate(i, j event.Competition) bool {
	if !i.StartDate.Equal(j.StartDate) {
		return i.StartDate.Before(j.StartDate)
	}
	return i.ID < j.ID
}
