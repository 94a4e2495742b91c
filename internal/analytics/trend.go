package analytics

import (
	"fmt"
	"sort"

	"github.com/jihsin/auspicious/internal/models"
)

// DecadeStats summarizes one stratum of the history: a calendar decade, the
// most recent ten years, or the whole record.
type DecadeStats struct {
	Label           string  `json:"label"`
	StartYear       int     `json:"start_year"`
	EndYear         int     `json:"end_year"`
	YearsCount      int     `json:"years_count"`
	SampleSize      int     `json:"sample_size"`
	AvgTemperature  float64 `json:"avg_temperature"`
	AvgHighTemp     float64 `json:"avg_high_temperature"`
	AvgLowTemp      float64 `json:"avg_low_temperature"`
	RainProbability float64 `json:"rain_probability"`
	AvgRainDayMM    float64 `json:"avg_rain_day_mm"`
}

// DecadeComparison is the result of stratifying one calendar-day window by
// decade, plus a linear temperature trend across decade midpoints.
type DecadeComparison struct {
	TargetDate string        `json:"target_date"`
	WindowDays int           `json:"window_days"`
	Decades    []DecadeStats `json:"decades"`
	Recent     *DecadeStats  `json:"recent_10y,omitempty"`
	AllTime    DecadeStats   `json:"all_time"`

	// TrendPerDecade is the OLS slope of yearly mean temperature scaled to
	// degrees C per decade. Nil when fewer than 5 yearly points exist.
	TrendPerDecade *float64 `json:"trend_per_decade,omitempty"`
}

// CompareDecades stratifies the window sample around (month, day) into
// calendar decades (floor(year/10)*10) and computes per-stratum aggregates.
// The "recent 10 years" stratum is anchored to the latest year present in
// the data, not the wall clock, so results are reproducible on a frozen
// dataset.
func (a *Analyzer) CompareDecades(month, day, radius int) (DecadeComparison, error) {
	w, err := NewWindow(month, day, radius)
	if err != nil {
		return DecadeComparison{}, err
	}

	var rows []models.DailyObservation
	maxYear := 0
	for _, obs := range a.observations {
		if w.ContainsDate(obs.ObservedDate) {
			rows = append(rows, obs)
			if y := obs.ObservedDate.Year(); y > maxYear {
				maxYear = y
			}
		}
	}

	result := DecadeComparison{
		TargetDate: fmt.Sprintf("%02d-%02d", month, day),
		WindowDays: radius,
	}
	if len(rows) == 0 {
		result.AllTime = DecadeStats{Label: "all"}
		return result, nil
	}

	byDecade := map[int][]models.DailyObservation{}
	for _, obs := range rows {
		d := obs.ObservedDate.Year() / 10 * 10
		byDecade[d] = append(byDecade[d], obs)
	}
	decades := make([]int, 0, len(byDecade))
	for d := range byDecade {
		decades = append(decades, d)
	}
	sort.Ints(decades)

	for _, d := range decades {
		s := aggregateStratum(fmt.Sprintf("%ds", d), byDecade[d])
		result.Decades = append(result.Decades, s)
	}

	var recent []models.DailyObservation
	for _, obs := range rows {
		if obs.ObservedDate.Year() > maxYear-10 {
			recent = append(recent, obs)
		}
	}
	if len(recent) > 0 {
		s := aggregateStratum("recent_10y", recent)
		result.Recent = &s
	}

	result.AllTime = aggregateStratum("all", rows)
	result.TrendPerDecade = trendPerDecade(rows)

	return result, nil
}

func aggregateStratum(label string, rows []models.DailyObservation) DecadeStats {
	s := DecadeStats{Label: label, SampleSize: len(rows)}

	years := map[int]bool{}
	for _, obs := range rows {
		y := obs.ObservedDate.Year()
		years[y] = true
		if s.StartYear == 0 || y < s.StartYear {
			s.StartYear = y
		}
		if y > s.EndYear {
			s.EndYear = y
		}
	}
	s.YearsCount = len(years)

	s.AvgTemperature = mean(column(rows, func(o models.DailyObservation) (float64, bool) {
		return o.TempAvg.Float64, o.TempAvg.Valid
	}))
	s.AvgHighTemp = mean(column(rows, func(o models.DailyObservation) (float64, bool) {
		return o.TempMax.Float64, o.TempMax.Valid
	}))
	s.AvgLowTemp = mean(column(rows, func(o models.DailyObservation) (float64, bool) {
		return o.TempMin.Float64, o.TempMin.Valid
	}))

	precip := column(rows, func(o models.DailyObservation) (float64, bool) {
		return o.Precipitation.Float64, o.Precipitation.Valid
	})
	profile := ProfilePrecipitation(precip)
	s.RainProbability = profile.Probability
	s.AvgRainDayMM = profile.MeanRainDayMM

	return s
}

// trendPerDecade fits an ordinary least squares line through (year, yearly
// mean temperature) points and returns the slope scaled to degrees per
// decade. Fewer than 5 yearly points gives nil: the fit is meaningless on
// tiny samples.
func trendPerDecade(rows []models.DailyObservation) *float64 {
	sums := map[int]float64{}
	counts := map[int]int{}
	for _, obs := range rows {
		if !obs.TempAvg.Valid {
			continue
		}
		y := obs.ObservedDate.Year()
		sums[y] += obs.TempAvg.Float64
		counts[y]++
	}
	if len(sums) < 5 {
		return nil
	}

	var sx, sy, sxx, sxy float64
	n := float64(len(sums))
	for y, total := range sums {
		x := float64(y)
		v := total / float64(counts[y])
		sx += x
		sy += v
		sxx += x * x
		sxy += x * v
	}
	denom := n*sxx - sx*sx
	if denom == 0 {
		return nil
	}
	slope := (n*sxy - sx*sy) / denom * 10
	return &slope
}

// ExtremeRecord is a single record value with the year it occurred. Ties go
// to the earliest year on record.
type ExtremeRecord struct {
	Value float64 `json:"value"`
	Year  int     `json:"year"`
}

// Extremes holds the all-time records inside one calendar-day window.
type Extremes struct {
	TargetDate  string         `json:"target_date"`
	WindowDays  int            `json:"window_days"`
	SampleSize  int            `json:"sample_size"`
	HighestMax  *ExtremeRecord `json:"highest_max,omitempty"`
	LowestMin   *ExtremeRecord `json:"lowest_min,omitempty"`
	MaxRainfall *ExtremeRecord `json:"max_rainfall,omitempty"`
}

// FindExtremes scans the window sample for the highest daily maximum, the
// lowest daily minimum, and the largest positive daily rainfall.
func (a *Analyzer) FindExtremes(month, day, radius int) (Extremes, error) {
	w, err := NewWindow(month, day, radius)
	if err != nil {
		return Extremes{}, err
	}

	result := Extremes{
		TargetDate: fmt.Sprintf("%02d-%02d", month, day),
		WindowDays: radius,
	}
	for _, obs := range a.observations {
		if !w.ContainsDate(obs.ObservedDate) {
			continue
		}
		result.SampleSize++
		year := obs.ObservedDate.Year()

		if obs.TempMax.Valid {
			v := obs.TempMax.Float64
			if result.HighestMax == nil || v > result.HighestMax.Value ||
				(v == result.HighestMax.Value && year < result.HighestMax.Year) {
				result.HighestMax = &ExtremeRecord{Value: v, Year: year}
			}
		}
		if obs.TempMin.Valid {
			v := obs.TempMin.Float64
			if result.LowestMin == nil || v < result.LowestMin.Value ||
				(v == result.LowestMin.Value && year < result.LowestMin.Year) {
				result.LowestMin = &ExtremeRecord{Value: v, Year: year}
			}
		}
		if obs.Precipitation.Valid && obs.Precipitation.Float64 > 0 {
			v := obs.Precipitation.Float64
			if result.MaxRainfall == nil || v > result.MaxRainfall.Value ||
				(v == result.MaxRainfall.Value && year < result.MaxRainfall.Year) {
				result.MaxRainfall = &ExtremeRecord{Value: v, Year: year}
			}
		}
	}

	return result, nil
}

// PercentileRank places value within sample as the share of sample strictly
// below it, on a 0..100 scale. Empty samples rank at 0.
func PercentileRank(sample []float64, value float64) float64 {
	if len(sample) == 0 {
		return 0
	}
	below := 0
	for _, v := range sample {
		if v < value {
			below++
		}
	}
	return 100 * float64(below) / float64(len(sample))
}

// RankTemperature positions a candidate average temperature against the
// historical window sample for (month, day).
func (a *Analyzer) RankTemperature(month, day, radius int, value float64) (float64, int, error) {
	w, err := NewWindow(month, day, radius)
	if err != nil {
		return 0, 0, err
	}
	var sample []float64
	for _, obs := range a.observations {
		if w.ContainsDate(obs.ObservedDate) && obs.TempAvg.Valid {
			sample = append(sample, obs.TempAvg.Float64)
		}
	}
	return PercentileRank(sample, value), len(sample), nil
}
