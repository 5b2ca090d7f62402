package dashboard

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mgnrega/dashboard/models"
)

// Columns returns the union of field names across records, sorted.
func Columns(records []models.Record) []string {
	seen := make(map[string]struct{})
	cols := []string{}
	for _, r := range records {
		for k := range r {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)
	return cols
}

// Cell renders a field for display; missing and null values are "".
func Cell(r models.Record, column string) string {
	switch v := r[column].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Rows renders records as table rows in column order.
func Rows(records []models.Record, columns []string) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = Cell(r, c)
		}
		rows = append(rows, row)
	}
	return rows
}

// SortRecords returns a copy of records ordered by column. Numeric values
// (including numeric strings) compare as numbers and sort before text;
// missing values sort last either way.
func SortRecords(records []models.Record, column string, desc bool) []models.Record {
	out := make([]models.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		a, aok := out[i][column]
		b, bok := out[j][column]
		if !aok || a == nil || !bok || b == nil {
			return (aok && a != nil) && !(bok && b != nil)
		}
		c := compare(a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func compare(a, b any) int {
	fa, aNum := models.ToFloat(a)
	fb, bNum := models.ToFloat(b)
	switch {
	case aNum && bNum:
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case aNum:
		return -1
	case bNum:
		return 1
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
