package analytics

import (
	"fmt"

	"github.com/jihsin/auspicious/internal/models"
)

// Analyzer answers climatological queries over one station's full daily
// history, loaded once into memory. All methods are pure computation with
// no locking; the backing slice is never mutated.
type Analyzer struct {
	observations []models.DailyObservation
}

func NewAnalyzer(observations []models.DailyObservation) *Analyzer {
	return &Analyzer{observations: observations}
}

// DateRangeStats is the full statistical picture of one calendar day,
// computed from a sliding window over every year on record.
type DateRangeStats struct {
	TargetDate string `json:"target_date"` // "MM-DD"
	WindowDays int    `json:"window_days"`
	SampleSize int    `json:"sample_size"`

	Temperature BasicStats           `json:"temperature"`
	TempMax     BasicStats           `json:"temp_max"`
	TempMin     BasicStats           `json:"temp_min"`
	Humidity    BasicStats           `json:"humidity"`
	Precip      PrecipitationProfile `json:"precipitation"`
	Tendency    WeatherTendency      `json:"weather_tendency"`
}

// DateRangeStats collects every observation whose calendar day falls in the
// +-radius window around (month, day) and runs the numeric primitives over
// the result. Different years contribute different sample counts when the
// window touches Feb-29; that is inherent to the window definition.
func (a *Analyzer) DateRangeStats(month, day, radius int) (DateRangeStats, error) {
	w, err := NewWindow(month, day, radius)
	if err != nil {
		return DateRangeStats{}, err
	}

	var rows []models.DailyObservation
	for _, obs := range a.observations {
		if w.ContainsDate(obs.ObservedDate) {
			rows = append(rows, obs)
		}
	}

	result := DateRangeStats{
		TargetDate: fmt.Sprintf("%02d-%02d", month, day),
		WindowDays: radius,
		SampleSize: len(rows),
	}

	result.Temperature = Describe(column(rows, func(o models.DailyObservation) (float64, bool) {
		return o.TempAvg.Float64, o.TempAvg.Valid
	}))
	result.TempMax = Describe(column(rows, func(o models.DailyObservation) (float64, bool) {
		return o.TempMax.Float64, o.TempMax.Valid
	}))
	result.TempMin = Describe(column(rows, func(o models.DailyObservation) (float64, bool) {
		return o.TempMin.Float64, o.TempMin.Valid
	}))
	result.Humidity = Describe(column(rows, func(o models.DailyObservation) (float64, bool) {
		return o.HumidityAvg.Float64, o.HumidityAvg.Valid
	}))
	result.Precip = ProfilePrecipitation(column(rows, func(o models.DailyObservation) (float64, bool) {
		return o.Precipitation.Float64, o.Precipitation.Valid
	}))

	// Tendency uses pairwise-complete days only.
	var precip, sunshine []float64
	for _, obs := range rows {
		if obs.Precipitation.Valid && obs.SunshineHours.Valid {
			precip = append(precip, obs.Precipitation.Float64)
			sunshine = append(sunshine, obs.SunshineHours.Float64)
		}
	}
	result.Tendency = ClassifyTendency(precip, sunshine)

	return result, nil
}

// MonthlySummary aggregates every observation in one calendar month across
// all years.
type MonthlySummary struct {
	Month          int     `json:"month"`
	SampleSize     int     `json:"sample_size"`
	AvgTemperature float64 `json:"avg_temperature"`
	AvgHighTemp    float64 `json:"avg_high_temperature"`
	AvgLowTemp     float64 `json:"avg_low_temperature"`
	RainDays       int     `json:"rain_days"`
	RainDaysRatio  float64 `json:"rain_days_ratio"`
	AvgSunshineHrs float64 `json:"avg_sunshine_hours"`
}

func (a *Analyzer) MonthlySummary(month int) (MonthlySummary, error) {
	if month < 1 || month > 12 {
		return MonthlySummary{}, &ValidationError{Msg: fmt.Sprintf("month %d out of range", month)}
	}

	var rows []models.DailyObservation
	for _, obs := range a.observations {
		if int(obs.ObservedDate.Month()) == month {
			rows = append(rows, obs)
		}
	}

	summary := MonthlySummary{Month: month, SampleSize: len(rows)}
	if len(rows) == 0 {
		return summary, nil
	}

	summary.AvgTemperature = mean(column(rows, func(o models.DailyObservation) (float64, bool) {
		return o.TempAvg.Float64, o.TempAvg.Valid
	}))
	summary.AvgHighTemp = mean(column(rows, func(o models.DailyObservation) (float64, bool) {
		return o.TempMax.Float64, o.TempMax.Valid
	}))
	summary.AvgLowTemp = mean(column(rows, func(o models.DailyObservation) (float64, bool) {
		return o.TempMin.Float64, o.TempMin.Valid
	}))
	summary.AvgSunshineHrs = mean(column(rows, func(o models.DailyObservation) (float64, bool) {
		return o.SunshineHours.Float64, o.SunshineHours.Valid
	}))

	// The ratio is over days with a precipitation reading, not all month
	// rows. Counting missing readings as dry would understate the rain
	// frequency of sparse early-record years.
	var precipDays int
	for _, obs := range rows {
		if obs.Precipitation.Valid {
			precipDays++
			if obs.Precipitation.Float64 >= RainThreshold {
				summary.RainDays++
			}
		}
	}
	if precipDays > 0 {
		summary.RainDaysRatio = float64(summary.RainDays) / float64(precipDays)
	}

	return summary, nil
}

// Observations exposes the backing history for collaborators that run their
// own passes, such as the proverb verifier.
func (a *Analyzer) Observations() []models.DailyObservation {
	return a.observations
}

func column(rows []models.DailyObservation, get func(models.DailyObservation) (float64, bool)) []float64 {
	var values []float64
	for _, obs := range rows {
		if v, ok := get(obs); ok {
			values = append(values, v)
		}
	}
	return values
}

func mean(sample []float64) float64 {
	if len(sample) == 0 {
		return 0
	}
	var sum float64
	for _, v := range sample {
		sum += v
	}
	return sum / float64(len(sample))
}
