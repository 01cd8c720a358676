package dashboard

import (
	"time"

	"pathlight-web/internal/domain"
)

const dateLayout = "2006-01-02"

// HeatmapCell is one day in the activity grid
type HeatmapCell struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"`
	// Future marks padding cells after the end date in the last column
	Future bool `json:"future,omitempty"`
}

// Heatmap is a grid of week columns, each holding Sunday..Saturday
type Heatmap struct {
	Weeks [][]HeatmapCell `json:"weeks"`
	Max   int             `json:"max"`
	Total int             `json:"total"`
}

// BuildHeatmap lays days out in weeks columns ending with the week that
// contains end. Dates are compared as calendar days in end's location.
func BuildHeatmap(days []domain.ActivityDay, end time.Time, weeks int) Heatmap {
	if weeks <= 0 {
		return Heatmap{Weeks: [][]HeatmapCell{}}
	}

	counts := make(map[string]int, len(days))
	for _, d := range days {
		if d.Count <= 0 {
			continue
		}
		counts[d.Date] += d.Count
	}

	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())
	firstSunday := endDay.AddDate(0, 0, -int(endDay.Weekday())-7*(weeks-1))
	endKey := endDay.Format(dateLayout)

	hm := Heatmap{Weeks: make([][]HeatmapCell, weeks)}
	for w := 0; w < weeks; w++ {
		col := make([]HeatmapCell, 7)
		for d := 0; d < 7; d++ {
			day := firstSunday.AddDate(0, 0, w*7+d)
			key := day.Format(dateLayout)
			if key > endKey {
				col[d] = HeatmapCell{Date: key, Future: true}
				continue
			}
			c := counts[key]
			col[d] = HeatmapCell{Date: key, Count: c}
			hm.Total += c
			if c > hm.Max {
				hm.Max = c
			}
		}
		hm.Weeks[w] = col
	}

	for _, col := range hm.Weeks {
		for i := range col {
			col[i].Level = level(col[i].Count, hm.Max)
		}
	}
	return hm
}

// level buckets count into 0..4 by quarters of peak
func level(count, peak int) int {
	if count <= 0 || peak <= 0 {
		return 0
	}
	switch ratio := float64(count) / float64(peak); {
	case ratio <= 0.25:
		return 1
	case ratio <= 0.5:
		return 2
	case ratio <= 0.75:
		return 3
	default:
		return 4
	}
}
