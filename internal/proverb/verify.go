package proverb

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jihsin/auspicious/internal/models"
)

// Confidence levels for a verification result.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Result is the outcome of checking one proverb against the record. Every
// verifiable proverb runs the same protocol: enumerate the years on record,
// evaluate the rule's yearly condition, and grade the hit rate.
type Result struct {
	ProverbID      string  `json:"proverb_id"`
	ProverbText    string  `json:"proverb_text"`
	TotalCases     int     `json:"total_cases"`
	PositiveCases  int     `json:"positive_cases"`
	AccuracyRate   float64 `json:"accuracy_rate"`
	Interpretation string  `json:"interpretation"`
	SampleYears    []int   `json:"sample_years"` // most recent ten evaluable years
	Methodology    string  `json:"methodology"`
	Explanation    string  `json:"scientific_explanation"`
	Confidence     string  `json:"confidence_level"`
	DataQuality    string  `json:"data_quality"`
}

// Outcome is a rule's verdict for one year.
type Outcome int

const (
	// OutcomeSkip means the year lacks the data to evaluate the rule and
	// contributes nothing to the tally.
	OutcomeSkip Outcome = iota
	OutcomeNegative
	OutcomePositive
)

// Rule gives one proverb a falsifiable yearly reading. EvalYear sees the
// whole record through the Verifier and rules on a single year.
type Rule struct {
	ProverbID   string
	Methodology string
	EvalYear    func(v *Verifier, year int) Outcome
}

// UnknownProverbError reports a verify request for an id with no rule.
type UnknownProverbError struct {
	ID string
}

func (e *UnknownProverbError) Error() string {
	return "no verification rule for proverb: " + e.ID
}

// Registry holds the rules a Verifier runs. Constructed at startup and
// injected so tests can register fixture rules instead of patching package
// state.
type Registry struct {
	rules []Rule
	byID  map[string]Rule
}

// NewRegistry builds a registry preloaded with the built-in rules.
func NewRegistry() *Registry {
	r := &Registry{byID: make(map[string]Rule)}
	for _, rule := range defaultRules() {
		r.Register(rule)
	}
	return r
}

// Register adds or replaces the rule for its proverb id.
func (r *Registry) Register(rule Rule) {
	if _, exists := r.byID[rule.ProverbID]; exists {
		for i := range r.rules {
			if r.rules[i].ProverbID == rule.ProverbID {
				r.rules[i] = rule
				break
			}
		}
	} else {
		r.rules = append(r.rules, rule)
	}
	r.byID[rule.ProverbID] = rule
}

// Rule looks up the rule registered for a proverb id.
func (r *Registry) Rule(proverbID string) (Rule, bool) {
	rule, ok := r.byID[proverbID]
	return rule, ok
}

// Verifier checks proverbs against one station's daily history. Build it
// once per station; the date index makes the per-rule span scans cheap.
type Verifier struct {
	registry  *Registry
	stationID string
	byDate    map[string]models.DailyObservation // keyed by "2006-01-02"
	years     []int
}

func NewVerifier(registry *Registry, stationID string, observations []models.DailyObservation) *Verifier {
	if registry == nil {
		registry = NewRegistry()
	}
	v := &Verifier{
		registry:  registry,
		stationID: stationID,
		byDate:    make(map[string]models.DailyObservation, len(observations)),
	}
	yearSet := map[int]bool{}
	for _, obs := range observations {
		v.byDate[obs.ObservedDate.Format("2006-01-02")] = obs
		yearSet[obs.ObservedDate.Year()] = true
	}
	for y := range yearSet {
		v.years = append(v.years, y)
	}
	sort.Ints(v.years)
	return v
}

// Verify runs the rule for one proverb. Non-verifiable catalog entries get
// a zero-case result explaining what data is missing; unknown ids are an
// error.
func (v *Verifier) Verify(proverbID string) (Result, error) {
	p, ok := ByID(proverbID)
	if !ok {
		return Result{}, &UnknownProverbError{ID: proverbID}
	}
	if !p.Verifiable {
		return Result{
			ProverbID:      p.ID,
			ProverbText:    p.Text,
			Interpretation: "needs data this engine does not collect, such as crop yields or lightning records",
			Methodology:    "not verifiable from daily station observations",
			Explanation:    p.Explanation,
			Confidence:     ConfidenceLow,
			DataQuality:    "missing required data",
		}, nil
	}

	rule, ok := v.registry.Rule(proverbID)
	if !ok {
		return Result{}, &UnknownProverbError{ID: proverbID}
	}
	return v.run(p, rule), nil
}

// VerifyAll runs every rule in catalog order.
func (v *Verifier) VerifyAll() []Result {
	var results []Result
	for _, p := range Verifiable() {
		rule, ok := v.registry.Rule(p.ID)
		if !ok {
			continue
		}
		results = append(results, v.run(p, rule))
	}
	return results
}

// Summary condenses a full verification run.
type Summary struct {
	TotalProverbs     int     `json:"total_proverbs"`
	VerifiableCount   int     `json:"verifiable_count"`
	VerifiedCount     int     `json:"verified_count"` // rules that found at least one case
	AvgAccuracy       float64 `json:"avg_accuracy"`
	HighAccuracyCount int     `json:"high_accuracy_count"` // accuracy >= 0.65
}

func (v *Verifier) Summarize() Summary {
	s := Summary{
		TotalProverbs:   len(All()),
		VerifiableCount: len(Verifiable()),
	}
	var sum float64
	for _, r := range v.VerifyAll() {
		if r.TotalCases == 0 {
			continue
		}
		s.VerifiedCount++
		sum += r.AccuracyRate
		if r.AccuracyRate >= 0.65 {
			s.HighAccuracyCount++
		}
	}
	if s.VerifiedCount > 0 {
		s.AvgAccuracy = round3(sum / float64(s.VerifiedCount))
	}
	return s
}

// run is the shared verification skeleton: per-year evaluation, tallying,
// accuracy, interpretation, and confidence grading.
func (v *Verifier) run(p Proverb, rule Rule) Result {
	total, positive := 0, 0
	var evaluated []int
	for _, year := range v.years {
		switch rule.EvalYear(v, year) {
		case OutcomeSkip:
			continue
		case OutcomePositive:
			positive++
		}
		total++
		evaluated = append(evaluated, year)
	}

	accuracy := 0.0
	if total > 0 {
		accuracy = float64(positive) / float64(total)
	}
	if len(evaluated) > 10 {
		evaluated = evaluated[len(evaluated)-10:]
	}

	return Result{
		ProverbID:      p.ID,
		ProverbText:    p.Text,
		TotalCases:     total,
		PositiveCases:  positive,
		AccuracyRate:   round3(accuracy),
		Interpretation: interpretAccuracy(accuracy),
		SampleYears:    evaluated,
		Methodology:    rule.Methodology,
		Explanation:    p.Explanation,
		Confidence:     confidenceLevel(total, accuracy),
		DataQuality:    fmt.Sprintf("%d of %d years on record were evaluable", total, len(v.years)),
	}
}

func interpretAccuracy(rate float64) string {
	switch {
	case rate >= 0.8:
		return "very accurate; the historical record strongly supports this proverb"
	case rate >= 0.65:
		return "accurate; the historical record supports this proverb"
	case rate >= 0.5:
		return "some predictive value, but far from certain"
	case rate >= 0.35:
		return "limited accuracy; treat as folklore"
	default:
		return "not supported by the historical record, possibly a climate or geography mismatch"
	}
}

// confidenceLevel grades a result by sample size. A perfect 0 or 1 rate on
// a large sample usually means the rule is degenerate rather than the
// proverb infallible, so it caps at medium.
func confidenceLevel(sampleCount int, rate float64) string {
	switch {
	case sampleCount >= 30 && rate != 0.0 && rate != 1.0:
		return ConfidenceHigh
	case sampleCount >= 15:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// spanStats aggregates daily observations over an inclusive date range.
type spanStats struct {
	days      int
	rainDays  int
	precipSum float64

	tempMaxSum float64
	tempMaxN   int
	tempMinSum float64
	tempMinN   int

	hotDays  int // tempMax >= hotThreshold passed to scan
	coldDays int // tempMin < coldThreshold passed to scan
}

const (
	rainDayThreshold = 0.1
	hotDayThreshold  = 35.0
	warmDayThreshold = 32.0
	coldDayThreshold = 10.0
)

// scan walks the inclusive [start, end] date range and aggregates whatever
// observations exist. Missing days simply do not count.
func (v *Verifier) scan(start, end time.Time) spanStats {
	var s spanStats
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		obs, ok := v.byDate[d.Format("2006-01-02")]
		if !ok {
			continue
		}
		s.days++
		if obs.Precipitation.Valid {
			s.precipSum += obs.Precipitation.Float64
			if obs.Precipitation.Float64 >= rainDayThreshold {
				s.rainDays++
			}
		}
		if obs.TempMax.Valid {
			s.tempMaxSum += obs.TempMax.Float64
			s.tempMaxN++
			if obs.TempMax.Float64 >= hotDayThreshold {
				s.hotDays++
			}
		}
		if obs.TempMin.Valid {
			s.tempMinSum += obs.TempMin.Float64
			s.tempMinN++
			if obs.TempMin.Float64 < coldDayThreshold {
				s.coldDays++
			}
		}
	}
	return s
}

func (s spanStats) meanTempMax() (float64, bool) {
	if s.tempMaxN == 0 {
		return 0, false
	}
	return s.tempMaxSum / float64(s.tempMaxN), true
}

func (s spanStats) meanTempMin() (float64, bool) {
	if s.tempMinN == 0 {
		return 0, false
	}
	return s.tempMinSum / float64(s.tempMinN), true
}

// monthTempRanges collects the daily max-min spread for the given months of
// one year.
func (v *Verifier) monthTempRanges(year int, months []int) []float64 {
	inMonths := map[int]bool{}
	for _, m := range months {
		inMonths[m] = true
	}
	var out []float64
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !inMonths[int(d.Month())] {
			continue
		}
		obs, ok := v.byDate[d.Format("2006-01-02")]
		if !ok || !obs.TempMax.Valid || !obs.TempMin.Valid {
			continue
		}
		out = append(out, obs.TempMax.Float64-obs.TempMin.Float64)
	}
	return out
}

func stddev(sample []float64) float64 {
	n := len(sample)
	if n < 2 {
		return 0
	}
	var sum float64
	for _, v := range sample {
		sum += v
	}
	mean := sum / float64(n)
	var sq float64
	for _, v := range sample {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(n-1))
}
