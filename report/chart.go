package report

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/mgnrega/dashboard/models"
)

// TopN is how many districts the charts compare.
const TopN = 10

// crore is 10^7 rupees.
const crore = 10_000_000

// ChartMode selects how the series are drawn.
type ChartMode int

const (
	ChartLine ChartMode = iota
	ChartBar
)

func (m ChartMode) String() string {
	if m == ChartBar {
		return "bar"
	}
	return "line"
}

// Toggle switches between line and bar.
func (m ChartMode) Toggle() ChartMode {
	if m == ChartBar {
		return ChartLine
	}
	return ChartBar
}

// Series holds the per-district values plotted by the charts.
type Series struct {
	Labels  []string
	Works   []float64
	Workers []float64
	// Budget is in crores.
	Budget []float64
}

// Len is the number of districts in the series.
func (s Series) Len() int { return len(s.Labels) }

// TopDistricts picks the n records with the most works. Records without a
// total_works value are skipped; non-numeric values count as zero.
func TopDistricts(records []models.Record, n int) Series {
	var withWorks []models.Record
	for _, r := range records {
		if v, ok := r[models.FieldTotalWorks]; ok && v != nil {
			withWorks = append(withWorks, r)
		}
	}
	sort.SliceStable(withWorks, func(i, j int) bool {
		return numberOrZero(withWorks[i], models.FieldTotalWorks) > numberOrZero(withWorks[j], models.FieldTotalWorks)
	})
	if len(withWorks) > n {
		withWorks = withWorks[:n]
	}

	var s Series
	for _, r := range withWorks {
		label := r.String(models.FieldDistrict)
		if label == "" {
			label = "Unknown"
		}
		s.Labels = append(s.Labels, label)
		s.Works = append(s.Works, numberOrZero(r, models.FieldTotalWorks))
		s.Workers = append(s.Workers, numberOrZero(r, models.FieldTotalWorkers))
		s.Budget = append(s.Budget, numberOrZero(r, models.FieldTotalBudget)/crore)
	}
	return s
}

// Totals sums each series for the summary cards.
func (s Series) Totals() (works, workers, budget float64) {
	for i := range s.Labels {
		works += s.Works[i]
		workers += s.Workers[i]
		budget += s.Budget[i]
	}
	return works, workers, budget
}

// FormatTick renders an axis value as 1.5M, 2.3K or the plain number.
func FormatTick(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.1fK", v/1_000)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func numberOrZero(r models.Record, field string) float64 {
	f, _ := r.Number(field)
	return f
}
