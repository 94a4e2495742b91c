package proverb

import (
	"time"

	"github.com/jihsin/auspicious/internal/solarterm"
)

// defaultRules maps proverb ids to their yearly conditions. Every rule
// reads the whole span it needs through Verifier.scan and decides positive,
// negative, or skip for one year. Pooled comparisons from older almanac
// studies are expressed per year here so all nine share the same tallying
// protocol.
func defaultRules() []Rule {
	return []Rule{
		{
			ProverbID:   "lichun_rain",
			Methodology: "in years where it rained on lichun, check whether at least 40% of the days through qingming were rainy",
			EvalYear: func(v *Verifier, year int) Outcome {
				lichun, err := solarterm.AnchorDate(year, "lichun")
				if err != nil {
					return OutcomeSkip
				}
				qingming, err := solarterm.AnchorDate(year, "qingming")
				if err != nil {
					return OutcomeSkip
				}
				onLichun := v.scan(lichun, lichun)
				if onLichun.days == 0 || onLichun.rainDays == 0 {
					return OutcomeSkip // premise absent: no rain on lichun
				}
				span := v.scan(lichun.AddDate(0, 0, 1), qingming)
				totalDays := int(qingming.Sub(lichun).Hours() / 24)
				if totalDays <= 0 {
					return OutcomeSkip
				}
				if float64(span.rainDays)/float64(totalDays) >= 0.4 {
					return OutcomePositive
				}
				return OutcomeNegative
			},
		},
		{
			ProverbID:   "qingming_rain",
			Methodology: "check whether more than half the days in the 15-day span around qingming were rainy",
			EvalYear: func(v *Verifier, year int) Outcome {
				qingming, err := solarterm.AnchorDate(year, "qingming")
				if err != nil {
					return OutcomeSkip
				}
				span := v.scan(qingming.AddDate(0, 0, -7), qingming.AddDate(0, 0, 7))
				if span.days < 10 {
					return OutcomeSkip
				}
				if float64(span.rainDays)/float64(span.days) >= 0.5 {
					return OutcomePositive
				}
				return OutcomeNegative
			},
		},
		{
			ProverbID:   "xiazhi_heat",
			Methodology: "compare mean daily maximum over the 30 days before and after xiazhi",
			EvalYear:    termShiftRule("xiazhi", hotterAfter),
		},
		{
			ProverbID:   "dongzhi_cold",
			Methodology: "compare mean daily minimum over the 30 days before and after dongzhi",
			EvalYear:    termShiftRule("dongzhi", colderAfter),
		},
		{
			ProverbID:   "spring_mother_face",
			Methodology: "check whether the daily temperature spread varies more in spring (Mar-May) than in summer (Jun-Aug)",
			EvalYear: func(v *Verifier, year int) Outcome {
				spring := v.monthTempRanges(year, []int{3, 4, 5})
				summer := v.monthTempRanges(year, []int{6, 7, 8})
				if len(spring) < 30 || len(summer) < 30 {
					return OutcomeSkip
				}
				if stddev(spring) > stddev(summer) {
					return OutcomePositive
				}
				return OutcomeNegative
			},
		},
		{
			ProverbID:   "three_fu_days",
			Methodology: "check whether July ran at least 5 degrees above the non-summer mean maximum with 10% of days at 35 or more",
			EvalYear: func(v *Verifier, year int) Outcome {
				july := v.scan(
					time.Date(year, 7, 1, 0, 0, 0, 0, time.UTC),
					time.Date(year, 7, 31, 0, 0, 0, 0, time.UTC))
				if july.tempMaxN < 20 {
					return OutcomeSkip
				}
				baseline, ok := v.nonSeasonMeanMax(year, []int{6, 7, 8})
				if !ok {
					return OutcomeSkip
				}
				julyMean, _ := july.meanTempMax()
				hotRatio := float64(july.hotDays) / float64(july.tempMaxN)
				if julyMean-baseline >= 5 && hotRatio >= 0.1 {
					return OutcomePositive
				}
				return OutcomeNegative
			},
		},
		{
			ProverbID:   "cold_in_nine",
			Methodology: "check whether January ran at least 5 degrees below the non-winter mean minimum",
			EvalYear: func(v *Verifier, year int) Outcome {
				jan := v.scan(
					time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
					time.Date(year, 1, 31, 0, 0, 0, 0, time.UTC))
				if jan.tempMinN < 20 {
					return OutcomeSkip
				}
				baseline, ok := v.nonSeasonMeanMin(year, []int{12, 1, 2})
				if !ok {
					return OutcomeSkip
				}
				janMean, _ := jan.meanTempMin()
				if baseline-janMean >= 5 {
					return OutcomePositive
				}
				return OutcomeNegative
			},
		},
		{
			ProverbID:   "plum_rain",
			Methodology: "compare accumulated rainfall over the plum rain span (May 20 - Jun 20) against an equal-length April control",
			EvalYear: func(v *Verifier, year int) Outcome {
				plum := v.scan(
					time.Date(year, 5, 20, 0, 0, 0, 0, time.UTC),
					time.Date(year, 6, 20, 0, 0, 0, 0, time.UTC))
				control := v.scan(
					time.Date(year, 4, 1, 0, 0, 0, 0, time.UTC),
					time.Date(year, 5, 1, 0, 0, 0, 0, time.UTC))
				if plum.precipSum == 0 && control.precipSum == 0 {
					return OutcomeSkip
				}
				if plum.precipSum > control.precipSum {
					return OutcomePositive
				}
				return OutcomeNegative
			},
		},
		{
			ProverbID:   "autumn_tiger",
			Methodology: "check whether more than half the days from Aug 20 to Sep 10 reached 32 degrees",
			EvalYear: func(v *Verifier, year int) Outcome {
				span := time.Date(year, 8, 20, 0, 0, 0, 0, time.UTC)
				end := time.Date(year, 9, 10, 0, 0, 0, 0, time.UTC)
				warm := 0
				total := 0
				for d := span; !d.After(end); d = d.AddDate(0, 0, 1) {
					obs, ok := v.byDate[d.Format("2006-01-02")]
					if !ok || !obs.TempMax.Valid {
						continue
					}
					total++
					if obs.TempMax.Float64 >= warmDayThreshold {
						warm++
					}
				}
				if total < 15 {
					return OutcomeSkip
				}
				if float64(warm)/float64(total) > 0.5 {
					return OutcomePositive
				}
				return OutcomeNegative
			},
		},
	}
}

type shiftCompare func(before, after float64) bool

func hotterAfter(before, after float64) bool { return after > before }
func colderAfter(before, after float64) bool { return after < before }

// termShiftRule builds the before/after comparison shared by the solstice
// proverbs: mean temperature over the 30 days on each side of the term.
// hotterAfter compares maxima, colderAfter minima.
func termShiftRule(termID string, cmp shiftCompare) func(*Verifier, int) Outcome {
	useMin := termID == "dongzhi"
	return func(v *Verifier, year int) Outcome {
		anchor, err := solarterm.AnchorDate(year, termID)
		if err != nil {
			return OutcomeSkip
		}
		before := v.scan(anchor.AddDate(0, 0, -30), anchor.AddDate(0, 0, -1))
		after := v.scan(anchor.AddDate(0, 0, 1), anchor.AddDate(0, 0, 30))

		var bMean, aMean float64
		var bOK, aOK bool
		if useMin {
			bMean, bOK = before.meanTempMin()
			aMean, aOK = after.meanTempMin()
		} else {
			bMean, bOK = before.meanTempMax()
			aMean, aOK = after.meanTempMax()
		}
		if !bOK || !aOK {
			return OutcomeSkip
		}
		if cmp(bMean, aMean) {
			return OutcomePositive
		}
		return OutcomeNegative
	}
}

// nonSeasonMeanMax is the mean daily maximum for one year excluding the
// given months.
func (v *Verifier) nonSeasonMeanMax(year int, exclude []int) (float64, bool) {
	s := v.scanExcludingMonths(year, exclude)
	return s.meanTempMax()
}

func (v *Verifier) nonSeasonMeanMin(year int, exclude []int) (float64, bool) {
	s := v.scanExcludingMonths(year, exclude)
	return s.meanTempMin()
}

func (v *Verifier) scanExcludingMonths(year int, exclude []int) spanStats {
	skip := map[int]bool{}
	for _, m := range exclude {
		skip[m] = true
	}
	var s spanStats
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if skip[int(d.Month())] {
			continue
		}
		part := v.scan(d, d)
		s.days += part.days
		s.rainDays += part.rainDays
		s.precipSum += part.precipSum
		s.tempMaxSum += part.tempMaxSum
		s.tempMaxN += part.tempMaxN
		s.tempMinSum += part.tempMinSum
		s.tempMinN += part.tempMinN
		s.hotDays += part.hotDays
		s.coldDays += part.coldDays
	}
	return s
}
