package analytics

import (
	"math"
	"sort"
)

// Precipitation thresholds in mm, shared across the engine.
const (
	RainThreshold      = 0.1  // at or above counts as a rain day
	HeavyRainThreshold = 50.0 // strictly above counts as heavy rain
	RainyDayThreshold  = 1.0  // tendency classification cutoff
)

// SunnySunshineThreshold is the minimum sunshine hours for a day to be
// classified sunny.
const SunnySunshineThreshold = 3.0

// BasicStats summarizes one numeric sample. A zero Count means the sample
// was empty and every float field is NaN; callers must branch on Count
// before using the values.
type BasicStats struct {
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	StdDev       float64 `json:"std_dev"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Percentile25 float64 `json:"percentile_25"`
	Percentile75 float64 `json:"percentile_75"`
	Count        int     `json:"count"`
}

// Describe computes descriptive statistics over a sample. The input must
// not contain NaN; callers filter missing values before calling. An empty
// sample yields the all-NaN, zero-count sentinel rather than an error.
func Describe(sample []float64) BasicStats {
	if len(sample) == 0 {
		nan := math.NaN()
		return BasicStats{Mean: nan, Median: nan, StdDev: nan, Min: nan, Max: nan, Percentile25: nan, Percentile75: nan}
	}

	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	// Sample standard deviation (N-1). A single point reports 0 rather
	// than the NaN a ddof=1 estimator would give, so one-year snapshot
	// rows carry a concrete spread instead of a NULL column.
	stddev := 0.0
	if len(sorted) > 1 {
		var sq float64
		for _, v := range sorted {
			d := v - mean
			sq += d * d
		}
		stddev = math.Sqrt(sq / float64(len(sorted)-1))
	}

	return BasicStats{
		Mean:         mean,
		Median:       quantile(sorted, 0.5),
		StdDev:       stddev,
		Min:          sorted[0],
		Max:          sorted[len(sorted)-1],
		Percentile25: quantile(sorted, 0.25),
		Percentile75: quantile(sorted, 0.75),
		Count:        len(sorted),
	}
}

// quantile returns the q-th quantile of a sorted sample using linear
// interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// PrecipitationProfile summarizes rainfall behavior over a sample of daily
// precipitation totals. An empty sample yields the all-zero profile, never
// NaN, so probabilities are always safe to serialize.
type PrecipitationProfile struct {
	Probability          float64 `json:"probability"`
	HeavyRainProbability float64 `json:"heavy_rain_probability"`
	MaxRecordedMM        float64 `json:"max_recorded_mm"`
	MeanRainDayMM        float64 `json:"mean_rain_day_mm"`
	TotalDays            int     `json:"total_days"`
	RainDays             int     `json:"rain_days"`
}

// ProfilePrecipitation computes the rain/heavy-rain profile of a
// precipitation sample in mm. Missing values must be filtered out first.
func ProfilePrecipitation(precip []float64) PrecipitationProfile {
	if len(precip) == 0 {
		return PrecipitationProfile{}
	}

	var rainDays, heavyDays int
	var rainSum, max float64
	for _, mm := range precip {
		if mm > max {
			max = mm
		}
		if mm >= RainThreshold {
			rainDays++
			rainSum += mm
		}
		if mm > HeavyRainThreshold {
			heavyDays++
		}
	}

	meanRainDay := 0.0
	if rainDays > 0 {
		meanRainDay = rainSum / float64(rainDays)
	}

	total := len(precip)
	return PrecipitationProfile{
		Probability:          float64(rainDays) / float64(total),
		HeavyRainProbability: float64(heavyDays) / float64(total),
		MaxRecordedMM:        max,
		MeanRainDayMM:        meanRainDay,
		TotalDays:            total,
		RainDays:             rainDays,
	}
}

// WeatherTendency is the sunny/cloudy/rainy split of a window. Ratios sum
// to 1.0 when TotalValidDays > 0; Dominant is "unknown" when no day had
// both precipitation and sunshine recorded.
type WeatherTendency struct {
	Sunny          float64 `json:"sunny"`
	Cloudy         float64 `json:"cloudy"`
	Rainy          float64 `json:"rainy"`
	Dominant       string  `json:"dominant"`
	TotalValidDays int     `json:"total_valid_days"`
}

// ClassifyTendency classifies each day with both precipitation and sunshine
// present: rainy at >=1.0mm precip, otherwise sunny at <0.1mm precip with
// >3h sunshine, otherwise cloudy. Both slices must be pairwise aligned;
// days where either value is missing are dropped by the caller.
func ClassifyTendency(precip, sunshine []float64) WeatherTendency {
	if len(precip) != len(sunshine) || len(precip) == 0 {
		return WeatherTendency{Dominant: "unknown"}
	}

	var sunny, cloudy, rainy int
	for i, mm := range precip {
		switch {
		case mm >= RainyDayThreshold:
			rainy++
		case mm < RainThreshold && sunshine[i] > SunnySunshineThreshold:
			sunny++
		default:
			cloudy++
		}
	}

	total := float64(len(precip))
	t := WeatherTendency{
		Sunny:          float64(sunny) / total,
		Cloudy:         float64(cloudy) / total,
		Rainy:          float64(rainy) / total,
		TotalValidDays: len(precip),
	}

	// Tie-break order on equal ratios: sunny, then rainy, then cloudy.
	switch {
	case t.Sunny >= t.Rainy && t.Sunny >= t.Cloudy:
		t.Dominant = "sunny"
	case t.Rainy >= t.Cloudy:
		t.Dominant = "rainy"
	default:
		t.Dominant = "cloudy"
	}
	return t
}
