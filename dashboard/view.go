package dashboard

import "github.com/mgnrega/dashboard/models"

// PageSize is the fixed number of records per page.
const PageSize = 10

// DataView is one page of records for the current selection.
type DataView struct {
	Selection Selection
	Page      int
	Records   []models.Record
	// Total is the proxy's total. It may be only the page length.
	Total   int
	Loading bool
	Err     string
	seq     uint64
}

// WithSelection switches filters and rewinds to the first page.
func (v DataView) WithSelection(sel Selection) DataView {
	v.Selection = sel
	v.Page = 0
	return v
}

// Query returns the request for the current page.
func (v DataView) Query() models.PageQuery {
	return models.PageQuery{
		State:    v.Selection.State,
		District: v.Selection.District,
		Limit:    PageSize,
		Offset:   v.Page * PageSize,
	}
}

// Begin marks a fetch in flight. Only the response carrying the returned
// token is applied; older ones are dropped.
func (v DataView) Begin() (DataView, uint64) {
	v.seq++
	v.Loading = true
	v.Err = ""
	return v, v.seq
}

// Resolve applies a successful response for token seq.
func (v DataView) Resolve(seq uint64, resp models.DataResponse) DataView {
	if seq != v.seq {
		return v
	}
	v.Loading = false
	v.Err = ""
	v.Records = resp.Records
	v.Total = resp.Total
	if v.Total == 0 {
		v.Total = len(resp.Records)
	}
	return v
}

// Reject clears the records and shows msg for token seq.
func (v DataView) Reject(seq uint64, msg string) DataView {
	if seq != v.seq {
		return v
	}
	v.Loading = false
	v.Err = msg
	v.Records = nil
	v.Total = 0
	return v
}

// CanNext reports whether the loaded page was full, i.e. there may be more.
func (v DataView) CanNext() bool {
	return !v.Loading && v.Err == "" && len(v.Records) == PageSize
}

// CanPrev reports whether there is an earlier page.
func (v DataView) CanPrev() bool {
	return v.Page > 0
}

// Next advances one page when CanNext.
func (v DataView) Next() DataView {
	if v.CanNext() {
		v.Page++
	}
	return v
}

// Prev goes back one page, never below the first.
func (v DataView) Prev() DataView {
	if v.Page > 0 {
		v.Page--
	}
	return v
}

// Dashboard composes the filter vocabulary with the data view. Every filter
// change is pushed into the view, which rewinds to page 0.
type Dashboard struct {
	Filters Filters
	View    DataView
}

// New returns a dashboard with the vocabulary loading and no filters.
func New() Dashboard {
	return Dashboard{Filters: NewFilters()}
}

// SelectState picks a state, clearing the district.
func (d Dashboard) SelectState(state string) Dashboard {
	d.Filters = d.Filters.SelectState(state)
	d.View = d.View.WithSelection(d.Filters.Selection)
	return d
}

// SelectDistrict picks a district of the selected state. An ignored pick
// leaves the view, and its page, untouched.
func (d Dashboard) SelectDistrict(district string) Dashboard {
	before := d.Filters.Selection
	d.Filters = d.Filters.SelectDistrict(district)
	if d.Filters.Selection == before {
		return d
	}
	d.View = d.View.WithSelection(d.Filters.Selection)
	return d
}

// ClearFilters drops both filters.
func (d Dashboard) ClearFilters() Dashboard {
	return d.SelectState("")
}
