// Package solarterm maps the 24 solar terms of the traditional East Asian
// calendar onto Gregorian dates. The real term instants drift by a day or
// so between years; this package uses the typical calendar date of each
// term, which is what almanacs and weather proverbs reference.
package solarterm

import "time"

// Term is one of the 24 solar terms.
type Term struct {
	ID      string `json:"id"`   // pinyin, e.g. "lichun"
	Name    string `json:"name"` // Chinese name
	English string `json:"english"`
	Order   int    `json:"order"` // 1..24, starting at lichun
	Season  string `json:"season"`
	Month   int    `json:"month"`
	Day     int    `json:"day"`
}

// terms is ordered by Order. Dates are the typical occurrence; the drift
// between years never exceeds two days, which is well inside the analysis
// windows built on top of these anchors.
var terms = []Term{
	{ID: "lichun", Name: "立春", English: "Start of Spring", Order: 1, Season: "spring", Month: 2, Day: 4},
	{ID: "yushui", Name: "雨水", English: "Rain Water", Order: 2, Season: "spring", Month: 2, Day: 19},
	{ID: "jingzhe", Name: "驚蟄", English: "Awakening of Insects", Order: 3, Season: "spring", Month: 3, Day: 6},
	{ID: "chunfen", Name: "春分", English: "Spring Equinox", Order: 4, Season: "spring", Month: 3, Day: 21},
	{ID: "qingming", Name: "清明", English: "Clear and Bright", Order: 5, Season: "spring", Month: 4, Day: 5},
	{ID: "guyu", Name: "穀雨", English: "Grain Rain", Order: 6, Season: "spring", Month: 4, Day: 20},
	{ID: "lixia", Name: "立夏", English: "Start of Summer", Order: 7, Season: "summer", Month: 5, Day: 6},
	{ID: "xiaoman", Name: "小滿", English: "Grain Buds", Order: 8, Season: "summer", Month: 5, Day: 21},
	{ID: "mangzhong", Name: "芒種", English: "Grain in Ear", Order: 9, Season: "summer", Month: 6, Day: 6},
	{ID: "xiazhi", Name: "夏至", English: "Summer Solstice", Order: 10, Season: "summer", Month: 6, Day: 21},
	{ID: "xiaoshu", Name: "小暑", English: "Minor Heat", Order: 11, Season: "summer", Month: 7, Day: 7},
	{ID: "dashu", Name: "大暑", English: "Major Heat", Order: 12, Season: "summer", Month: 7, Day: 23},
	{ID: "liqiu", Name: "立秋", English: "Start of Autumn", Order: 13, Season: "autumn", Month: 8, Day: 8},
	{ID: "chushu", Name: "處暑", English: "End of Heat", Order: 14, Season: "autumn", Month: 8, Day: 23},
	{ID: "bailu", Name: "白露", English: "White Dew", Order: 15, Season: "autumn", Month: 9, Day: 8},
	{ID: "qiufen", Name: "秋分", English: "Autumn Equinox", Order: 16, Season: "autumn", Month: 9, Day: 23},
	{ID: "hanlu", Name: "寒露", English: "Cold Dew", Order: 17, Season: "autumn", Month: 10, Day: 8},
	{ID: "shuangjiang", Name: "霜降", English: "Frost's Descent", Order: 18, Season: "autumn", Month: 10, Day: 24},
	{ID: "lidong", Name: "立冬", English: "Start of Winter", Order: 19, Season: "winter", Month: 11, Day: 8},
	{ID: "xiaoxue", Name: "小雪", English: "Minor Snow", Order: 20, Season: "winter", Month: 11, Day: 22},
	{ID: "daxue", Name: "大雪", English: "Major Snow", Order: 21, Season: "winter", Month: 12, Day: 7},
	{ID: "dongzhi", Name: "冬至", English: "Winter Solstice", Order: 22, Season: "winter", Month: 12, Day: 22},
	{ID: "xiaohan", Name: "小寒", English: "Minor Cold", Order: 23, Season: "winter", Month: 1, Day: 6},
	{ID: "dahan", Name: "大寒", English: "Major Cold", Order: 24, Season: "winter", Month: 1, Day: 20},
}

var byID = func() map[string]Term {
	m := make(map[string]Term, len(terms))
	for _, t := range terms {
		m[t.ID] = t
	}
	return m
}()

// All returns the 24 terms in traditional order, lichun first.
func All() []Term {
	out := make([]Term, len(terms))
	copy(out, terms)
	return out
}

// ByID looks up a term by its pinyin identifier.
func ByID(id string) (Term, bool) {
	t, ok := byID[id]
	return t, ok
}

// BySeason returns the six terms of one season, in traditional order.
func BySeason(season string) []Term {
	var out []Term
	for _, t := range terms {
		if t.Season == season {
			out = append(out, t)
		}
	}
	return out
}

// UnknownTermError reports a lookup for a term id that does not exist.
type UnknownTermError struct {
	ID string
}

func (e *UnknownTermError) Error() string {
	return "unknown solar term: " + e.ID
}

// AnchorDate resolves a term to its calendar date in the given year.
// Xiaohan and dahan fall in January, so the anchor for year N is N's own
// January, not the January that follows N's lichun.
func AnchorDate(year int, id string) (time.Time, error) {
	t, ok := byID[id]
	if !ok {
		return time.Time{}, &UnknownTermError{ID: id}
	}
	return time.Date(year, time.Month(t.Month), t.Day, 0, 0, 0, 0, time.UTC), nil
}

// TermOn returns the term whose typical date matches the given calendar
// day, if any.
func TermOn(date time.Time) (Term, bool) {
	for _, t := range terms {
		if int(date.Month()) == t.Month && date.Day() == t.Day {
			return t, true
		}
	}
	return Term{}, false
}

// Nearest returns the term whose typical date is closest to the given
// date, with the earlier term winning exact ties, along with the concrete
// occurrence that won. Around new year the winning occurrence can fall in
// the adjacent year: on Dec 30 the nearest term is the coming January's
// xiaohan, not the one eleven months back.
func Nearest(date time.Time) (Term, time.Time) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	best := terms[0]
	bestDate := time.Time{}
	bestDist := time.Duration(1<<63 - 1)
	for _, t := range terms {
		for _, year := range []int{date.Year() - 1, date.Year(), date.Year() + 1} {
			anchor := time.Date(year, time.Month(t.Month), t.Day, 0, 0, 0, 0, time.UTC)
			dist := anchor.Sub(day)
			if dist < 0 {
				dist = -dist
			}
			if dist < bestDist {
				best = t
				bestDate = anchor
				bestDist = dist
			}
		}
	}
	return best, bestDate
}
