// Package dashboard holds the client-side view model: filter vocabulary
// derivation, the paginated data view and table helpers. Every type is a
// value; operations return a new value so a renderer can treat each one as
// an immutable snapshot.
package dashboard

import (
	"sort"

	"github.com/mgnrega/dashboard/models"
)

// Selection is the active (state, district) filter. Empty strings mean unset.
type Selection struct {
	State    string
	District string
}

// Filters derives the selectable states and districts from one bulk sample.
type Filters struct {
	records   []models.Record
	States    []string
	Districts []string
	Selection Selection
	Loading   bool
	Err       string
}

// NewFilters returns the vocabulary in its loading state.
func NewFilters() Filters {
	return Filters{Loading: true}
}

// Loaded installs the vocabulary sample and derives the state list.
func (f Filters) Loaded(records []models.Record) Filters {
	f.records = records
	f.States = DistinctStates(records)
	f.Districts = nil
	f.Selection = Selection{}
	f.Loading = false
	f.Err = ""
	return f
}

// Failed clears the vocabulary and records a user-visible message.
func (f Filters) Failed(msg string) Filters {
	f.records = nil
	f.States = nil
	f.Districts = nil
	f.Selection = Selection{}
	f.Loading = false
	f.Err = msg
	return f
}

// SelectState recomputes the districts for state and clears the district.
// An empty state clears both.
func (f Filters) SelectState(state string) Filters {
	f.Selection = Selection{State: state}
	if state == "" {
		f.Districts = nil
		return f
	}
	f.Districts = DistinctDistricts(f.records, state)
	return f
}

// SelectDistrict sets the district. It is ignored without a selected state or
// when district is not one of the derived districts; "" clears it.
func (f Filters) SelectDistrict(district string) Filters {
	if f.Selection.State == "" {
		return f
	}
	if district != "" && !contains(f.Districts, district) {
		return f
	}
	f.Selection.District = district
	return f
}

// DistrictEnabled reports whether a district can be picked.
func (f Filters) DistrictEnabled() bool {
	return len(f.Districts) > 0
}

// DistinctStates returns the sorted distinct non-empty state names.
func DistinctStates(records []models.Record) []string {
	return distinct(records, models.FieldState, func(models.Record) bool { return true })
}

// DistinctDistricts returns the sorted distinct non-empty district names of
// the records in state.
func DistinctDistricts(records []models.Record, state string) []string {
	return distinct(records, models.FieldDistrict, func(r models.Record) bool {
		return r.String(models.FieldState) == state
	})
}

func distinct(records []models.Record, field string, keep func(models.Record) bool) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range records {
		if !keep(r) {
			continue
		}
		v := r.String(field)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
