package analytics

import (
	"math"
	"testing"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name   string
		sample []float64
		mean   float64
		median float64
		stddev float64
		min    float64
		max    float64
	}{
		{
			name:   "odd count",
			sample: []float64{25.0, 23.0, 27.0, 24.0, 26.0},
			mean:   25.0,
			median: 25.0,
			stddev: 1.5811,
			min:    23.0,
			max:    27.0,
		},
		{
			name:   "even count",
			sample: []float64{10.0, 20.0, 30.0, 40.0},
			mean:   25.0,
			median: 25.0,
			stddev: 12.9099,
			min:    10.0,
			max:    40.0,
		},
		{
			name:   "single point",
			sample: []float64{18.5},
			mean:   18.5,
			median: 18.5,
			stddev: 0.0,
			min:    18.5,
			max:    18.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Describe(tt.sample)
			if got.Count != len(tt.sample) {
				t.Errorf("Count = %d, want %d", got.Count, len(tt.sample))
			}
			if !approxEqual(got.Mean, tt.mean, 1e-9) {
				t.Errorf("Mean = %f, want %f", got.Mean, tt.mean)
			}
			if !approxEqual(got.Median, tt.median, 1e-9) {
				t.Errorf("Median = %f, want %f", got.Median, tt.median)
			}
			if !approxEqual(got.StdDev, tt.stddev, 1e-3) {
				t.Errorf("StdDev = %f, want %f", got.StdDev, tt.stddev)
			}
			if got.Min != tt.min || got.Max != tt.max {
				t.Errorf("Min/Max = %f/%f, want %f/%f", got.Min, got.Max, tt.min, tt.max)
			}
			if got.Percentile25 > got.Median || got.Median > got.Percentile75 {
				t.Errorf("quartile ordering violated: p25=%f median=%f p75=%f",
					got.Percentile25, got.Median, got.Percentile75)
			}
		})
	}
}

func TestDescribeSinglePoint(t *testing.T) {
	got := Describe([]float64{23.4})
	if got.Count != 1 {
		t.Fatalf("Count = %d, want 1", got.Count)
	}
	// One point has no spread but must stay a number, never NaN, so the
	// snapshot column holds 0 instead of NULL.
	if got.StdDev != 0 {
		t.Errorf("StdDev = %f, want 0", got.StdDev)
	}
	if got.Mean != 23.4 || got.Median != 23.4 || got.Percentile25 != 23.4 || got.Percentile75 != 23.4 {
		t.Errorf("single point stats = %+v", got)
	}
}

func TestDescribeEmpty(t *testing.T) {
	got := Describe(nil)
	if got.Count != 0 {
		t.Fatalf("Count = %d, want 0", got.Count)
	}
	for name, v := range map[string]float64{
		"mean":   got.Mean,
		"median": got.Median,
		"stddev": got.StdDev,
		"min":    got.Min,
		"max":    got.Max,
	} {
		if !math.IsNaN(v) {
			t.Errorf("%s = %f, want NaN", name, v)
		}
	}
}

func TestDescribeDoesNotMutateInput(t *testing.T) {
	sample := []float64{3, 1, 2}
	Describe(sample)
	if sample[0] != 3 || sample[1] != 1 || sample[2] != 2 {
		t.Errorf("input reordered: %v", sample)
	}
}

func TestProfilePrecipitation(t *testing.T) {
	// 2 dry days, 2 ordinary rain days, 1 heavy rain day.
	precip := []float64{0.0, 0.05, 2.5, 10.0, 80.0}
	got := ProfilePrecipitation(precip)

	if got.TotalDays != 5 {
		t.Errorf("TotalDays = %d, want 5", got.TotalDays)
	}
	if got.RainDays != 3 {
		t.Errorf("RainDays = %d, want 3", got.RainDays)
	}
	if !approxEqual(got.Probability, 0.6, 1e-9) {
		t.Errorf("Probability = %f, want 0.6", got.Probability)
	}
	if !approxEqual(got.HeavyRainProbability, 0.2, 1e-9) {
		t.Errorf("HeavyRainProbability = %f, want 0.2", got.HeavyRainProbability)
	}
	if got.MaxRecordedMM != 80.0 {
		t.Errorf("MaxRecordedMM = %f, want 80.0", got.MaxRecordedMM)
	}
	want := (2.5 + 10.0 + 80.0) / 3
	if !approxEqual(got.MeanRainDayMM, want, 1e-9) {
		t.Errorf("MeanRainDayMM = %f, want %f", got.MeanRainDayMM, want)
	}
}

func TestProfilePrecipitationBoundaries(t *testing.T) {
	// Exactly at the rain threshold counts; exactly at the heavy threshold
	// does not.
	got := ProfilePrecipitation([]float64{0.1, 50.0})
	if got.RainDays != 2 {
		t.Errorf("RainDays = %d, want 2", got.RainDays)
	}
	if got.HeavyRainProbability != 0 {
		t.Errorf("HeavyRainProbability = %f, want 0 at exactly 50mm", got.HeavyRainProbability)
	}
}

func TestProfilePrecipitationEmpty(t *testing.T) {
	got := ProfilePrecipitation(nil)
	if got != (PrecipitationProfile{}) {
		t.Errorf("empty profile = %+v, want zero value", got)
	}
}

func TestClassifyTendency(t *testing.T) {
	tests := []struct {
		name     string
		precip   []float64
		sunshine []float64
		dominant string
	}{
		{
			name:     "mostly sunny",
			precip:   []float64{0, 0, 0, 5.0},
			sunshine: []float64{8, 6, 9, 1},
			dominant: "sunny",
		},
		{
			name:     "mostly rainy",
			precip:   []float64{12, 3, 8, 0},
			sunshine: []float64{0, 1, 0, 7},
			dominant: "rainy",
		},
		{
			name:     "dim and dry is cloudy",
			precip:   []float64{0, 0.3, 0},
			sunshine: []float64{1, 2, 0.5},
			dominant: "cloudy",
		},
		{
			name:     "tie breaks toward sunny",
			precip:   []float64{0, 2.0},
			sunshine: []float64{5, 0},
			dominant: "sunny",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyTendency(tt.precip, tt.sunshine)
			if got.Dominant != tt.dominant {
				t.Errorf("Dominant = %q, want %q", got.Dominant, tt.dominant)
			}
			if got.TotalValidDays != len(tt.precip) {
				t.Errorf("TotalValidDays = %d, want %d", got.TotalValidDays, len(tt.precip))
			}
			sum := got.Sunny + got.Cloudy + got.Rainy
			if !approxEqual(sum, 1.0, 1e-9) {
				t.Errorf("ratios sum to %f, want 1.0", sum)
			}
		})
	}
}

func TestClassifyTendencyEmpty(t *testing.T) {
	got := ClassifyTendency(nil, nil)
	if got.Dominant != "unknown" {
		t.Errorf("Dominant = %q, want %q", got.Dominant, "unknown")
	}
	if got.Sunny != 0 || got.Cloudy != 0 || got.Rainy != 0 {
		t.Errorf("ratios = %f/%f/%f, want all zero", got.Sunny, got.Cloudy, got.Rainy)
	}
}

func TestPercentileRank(t *testing.T) {
	sample := []float64{10, 20, 30, 40, 50}
	tests := []struct {
		value float64
		want  float64
	}{
		{5, 0},
		{10, 0},
		{25, 40},
		{30, 40},
		{55, 100},
	}
	for _, tt := range tests {
		if got := PercentileRank(sample, tt.value); !approxEqual(got, tt.want, 1e-9) {
			t.Errorf("PercentileRank(%f) = %f, want %f", tt.value, got, tt.want)
		}
	}
	if got := PercentileRank(nil, 1.0); got != 0 {
		t.Errorf("PercentileRank on empty sample = %f, want 0", got)
	}
}
