package report

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mgnrega/dashboard/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const maxCellRunes = 50

var (
	indian      = message.NewPrinter(language.MustParse("en-IN"))
	datePrefix  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	skipColumns = map[string]bool{"id": true, "createdat": true, "updatedat": true, "__v": true}
)

// FormatIndian formats v with Indian digit grouping and at most three decimals.
func FormatIndian(v float64) string {
	return indian.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

// FormatCell renders one value for the PDF table.
func FormatCell(v any) string {
	switch n := v.(type) {
	case json.Number, float64, float32, int, int64:
		f, _ := models.ToFloat(n)
		return formatNumber(f)
	case string:
		return formatString(n)
	case nil:
		return "-"
	case bool:
		if !n {
			return "-"
		}
		return "true"
	}
	return truncate(fmt.Sprint(v))
}

func formatNumber(f float64) string {
	switch {
	case f > 1_000_000:
		return fmt.Sprintf("%.2fM", f/1_000_000)
	case f > 1_000:
		return fmt.Sprintf("%.1fK", f/1_000)
	}
	return FormatIndian(f)
}

func formatString(s string) string {
	if datePrefix.MatchString(s) {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t.Format("2/1/2006")
		}
	}
	if s == "" {
		return "-"
	}
	return truncate(s)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxCellRunes {
		return s
	}
	return string(r[:maxCellRunes])
}

// ExportColumns picks the PDF columns from the first record: its keys without
// internal (_-prefixed) and bookkeeping fields, sorted.
func ExportColumns(records []models.Record) []string {
	if len(records) == 0 {
		return nil
	}
	cols := []string{}
	for k := range records[0] {
		if strings.HasPrefix(k, "_") || skipColumns[strings.ToLower(k)] {
			continue
		}
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// ColumnTitle turns state_name into STATE NAME.
func ColumnTitle(column string) string {
	return strings.ToUpper(strings.ReplaceAll(column, "_", " "))
}

// FileName is the download name of a report generated at t.
func FileName(t time.Time) string {
	return "mgnrega-report-" + t.Format("2006-01-02") + ".pdf"
}
