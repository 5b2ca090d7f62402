// Package tui is the terminal front end of the dashboard. It follows the
// bubbletea loop: messages from keys and fetches update the App, which
// renders the current dashboard snapshot.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mgnrega/dashboard/apiclient"
	"github.com/mgnrega/dashboard/dashboard"
	"github.com/mgnrega/dashboard/models"
	"github.com/mgnrega/dashboard/report"
)

// DataSource is the proxy as seen by the dashboard.
type DataSource interface {
	Filters(ctx context.Context) ([]models.Record, error)
	Page(ctx context.Context, q models.PageQuery) (models.DataResponse, error)
}

const (
	msgFiltersNetwork = "Network error while loading filters"
	msgFiltersShape   = "Unexpected filter response"
	msgDataNetwork    = "Failed to load data (network or server error)"
)

type pickMode int

const (
	pickNone pickMode = iota
	pickState
	pickDistrict
)

type filtersLoadedMsg struct {
	records []models.Record
	err     error
}

type pageLoadedMsg struct {
	seq  uint64
	resp models.DataResponse
	err  error
}

type exportedMsg struct {
	path string
	err  error
}

// pickItem is one entry of the state or district picker.
type pickItem struct {
	label string
	value string
}

func (i pickItem) Title() string       { return i.label }
func (i pickItem) Description() string { return "" }
func (i pickItem) FilterValue() string { return i.label }

// Option customizes App construction for tests and alternate runtimes.
type Option func(*App)

// WithExportDir sets where exported PDFs are written.
func WithExportDir(dir string) Option {
	return func(a *App) { a.exportDir = dir }
}

// WithClock overrides the time source used for report names.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// App is the dashboard model.
type App struct {
	src  DataSource
	dash dashboard.Dashboard

	table   table.Model
	picker  list.Model
	picking pickMode
	spinner spinner.Model

	chart    report.ChartMode
	columns  []string
	sortCol  int // index into columns; -1 keeps upstream order
	sortDesc bool

	status    string
	width     int
	height    int
	exportDir string
	now       func() time.Time
}

// New builds the dashboard over src.
func New(src DataSource, opts ...Option) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	picker := list.New(nil, list.NewDefaultDelegate(), 40, 16)
	picker.SetShowHelp(false)

	a := &App{
		src:       src,
		dash:      dashboard.New(),
		table:     table.New(table.WithFocused(true), table.WithHeight(dashboard.PageSize+1)),
		picker:    picker,
		spinner:   sp,
		sortCol:   -1,
		exportDir: ".",
		now:       time.Now,
		width:     120,
		height:    40,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init loads the vocabulary and the first page.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.loadFilters(), a.fetchPage())
}

// Update handles one message.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.picker.SetSize(min(msg.Width, 60), max(msg.Height-8, 8))
		a.table.SetWidth(msg.Width)
		return a, nil

	case filtersLoadedMsg:
		a.applyFilters(msg)
		return a, nil

	case pageLoadedMsg:
		a.applyPage(msg)
		return a, nil

	case exportedMsg:
		switch {
		case errors.Is(msg.err, report.ErrNoRecords):
			a.status = "No data to export"
		case msg.err != nil:
			a.status = "Error exporting PDF: " + msg.err.Error()
		default:
			a.status = "✓ PDF exported successfully as " + msg.path
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if a.picking != pickNone {
			return a.updatePicker(msg)
		}
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "s":
		if len(a.dash.Filters.States) > 0 {
			a.openPicker(pickState)
		}
		return a, nil
	case "d":
		if a.dash.Filters.DistrictEnabled() {
			a.openPicker(pickDistrict)
		}
		return a, nil
	case "c":
		a.dash = a.dash.ClearFilters()
		return a, a.fetchPage()
	case "n", "right":
		if !a.dash.View.CanNext() {
			return a, nil
		}
		a.dash.View = a.dash.View.Next()
		return a, a.fetchPage()
	case "p", "left":
		if !a.dash.View.CanPrev() {
			return a, nil
		}
		a.dash.View = a.dash.View.Prev()
		return a, a.fetchPage()
	case "v":
		a.chart = a.chart.Toggle()
		return a, nil
	case "o":
		a.cycleSort()
		return a, nil
	case "r":
		a.sortDesc = !a.sortDesc
		a.refreshTable()
		return a, nil
	case "R":
		a.status = ""
		return a, a.fetchPage()
	case "e":
		return a, a.exportPDF()
	}
	var cmd tea.Cmd
	a.table, cmd = a.table.Update(msg)
	return a, cmd
}

func (a *App) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	filtering := a.picker.FilterState() == list.Filtering
	switch msg.String() {
	case "esc":
		if !filtering {
			a.picking = pickNone
			return a, nil
		}
	case "enter":
		if !filtering {
			item, ok := a.picker.SelectedItem().(pickItem)
			mode := a.picking
			a.picking = pickNone
			if !ok {
				return a, nil
			}
			if mode == pickState {
				a.dash = a.dash.SelectState(item.value)
			} else {
				a.dash = a.dash.SelectDistrict(item.value)
			}
			return a, a.fetchPage()
		}
	}
	var cmd tea.Cmd
	a.picker, cmd = a.picker.Update(msg)
	return a, cmd
}

func (a *App) openPicker(mode pickMode) {
	var (
		items   []list.Item
		current string
		options []string
	)
	if mode == pickState {
		a.picker.Title = "Select State"
		items = append(items, pickItem{label: "(all states)"})
		options, current = a.dash.Filters.States, a.dash.Filters.Selection.State
	} else {
		a.picker.Title = "Select District"
		items = append(items, pickItem{label: "(all districts)"})
		options, current = a.dash.Filters.Districts, a.dash.Filters.Selection.District
	}
	selected := 0
	for i, o := range options {
		items = append(items, pickItem{label: o, value: o})
		if o == current {
			selected = i + 1
		}
	}
	a.picker.ResetFilter()
	a.picker.SetItems(items)
	a.picker.Select(selected)
	a.picking = mode
}

func (a *App) loadFilters() tea.Cmd {
	src := a.src
	return func() tea.Msg {
		records, err := src.Filters(context.Background())
		return filtersLoadedMsg{records: records, err: err}
	}
}

func (a *App) applyFilters(msg filtersLoadedMsg) {
	var apiErr *apiclient.APIError
	switch {
	case msg.err == nil:
		a.dash.Filters = a.dash.Filters.Loaded(msg.records)
	case errors.Is(msg.err, apiclient.ErrMalformedBody):
		a.dash.Filters = a.dash.Filters.Failed(msgFiltersNetwork)
	case errors.As(msg.err, &apiErr):
		a.dash.Filters = a.dash.Filters.Failed(apiErr.Message)
	case errors.Is(msg.err, apiclient.ErrUnexpectedShape):
		a.dash.Filters = a.dash.Filters.Failed(msgFiltersShape)
	default:
		a.dash.Filters = a.dash.Filters.Failed(msgFiltersNetwork)
	}
	if a.dash.View.Selection != (dashboard.Selection{}) {
		// The vocabulary reset the selection; keep the view consistent.
		a.dash.View = a.dash.View.WithSelection(dashboard.Selection{})
	}
}

// fetchPage starts a request for the view's current page. Earlier requests
// still in flight are superseded.
func (a *App) fetchPage() tea.Cmd {
	var seq uint64
	a.dash.View, seq = a.dash.View.Begin()
	src, q := a.src, a.dash.View.Query()
	return func() tea.Msg {
		resp, err := src.Page(context.Background(), q)
		return pageLoadedMsg{seq: seq, resp: resp, err: err}
	}
}

func (a *App) applyPage(msg pageLoadedMsg) {
	var apiErr *apiclient.APIError
	switch {
	case msg.err == nil:
		a.dash.View = a.dash.View.Resolve(msg.seq, msg.resp)
	case errors.Is(msg.err, apiclient.ErrMalformedBody):
		a.dash.View = a.dash.View.Reject(msg.seq, msgDataNetwork)
	case errors.Is(msg.err, apiclient.ErrUnexpectedShape):
		a.dash.View = a.dash.View.Resolve(msg.seq, models.DataResponse{})
	case errors.As(msg.err, &apiErr):
		a.dash.View = a.dash.View.Reject(msg.seq, apiErr.Message)
	default:
		a.dash.View = a.dash.View.Reject(msg.seq, msgDataNetwork)
	}
	a.columns = dashboard.Columns(a.dash.View.Records)
	if a.sortCol >= len(a.columns) {
		a.sortCol = -1
	}
	a.refreshTable()
}

func (a *App) cycleSort() {
	if len(a.columns) == 0 {
		a.sortCol = -1
		return
	}
	a.sortCol++
	if a.sortCol >= len(a.columns) {
		a.sortCol = -1
	}
	a.refreshTable()
}

// displayed returns the page records in display order.
func (a *App) displayed() []models.Record {
	records := a.dash.View.Records
	if a.sortCol >= 0 && a.sortCol < len(a.columns) {
		records = dashboard.SortRecords(records, a.columns[a.sortCol], a.sortDesc)
	}
	return records
}

func (a *App) refreshTable() {
	records := a.displayed()
	rows := dashboard.Rows(records, a.columns)

	cols := make([]table.Column, len(a.columns))
	for i, c := range a.columns {
		w := len(c)
		for _, row := range rows {
			w = max(w, len([]rune(row[i])))
		}
		title := c
		if i == a.sortCol {
			if a.sortDesc {
				title += " ▼"
			} else {
				title += " ▲"
			}
			w += 2
		}
		cols[i] = table.Column{Title: title, Width: min(w, 24)}
	}

	tableRows := make([]table.Row, len(rows))
	for i, r := range rows {
		tableRows[i] = table.Row(r)
	}
	// Rows must never be wider than the columns while they change.
	a.table.SetRows(nil)
	a.table.SetColumns(cols)
	a.table.SetRows(tableRows)
}

func (a *App) exportPDF() tea.Cmd {
	records := a.displayed()
	dir, now := a.exportDir, a.now()
	return func() tea.Msg {
		path, err := report.WriteFile(dir, records, now)
		return exportedMsg{path: path, err: err}
	}
}
