// Package proverb holds a catalog of Taiwanese weather proverbs and checks
// them against decades of station history. Each verifiable proverb has a
// falsifiable reading: a yearly condition whose hit rate over the record
// becomes the proverb's accuracy.
package proverb

import "strings"

// Categories group proverbs by subject.
const (
	CategorySolarTerm   = "solar_term"
	CategorySeasonal    = "seasonal"
	CategoryRain        = "rain"
	CategoryTemperature = "temperature"
	CategoryAgriculture = "agriculture"
	CategoryTyphoon     = "typhoon"
)

// Regions record where a proverb comes from.
const (
	RegionTaiwan  = "taiwan"
	RegionChina   = "china"
	RegionHakka   = "hakka"
	RegionHokkien = "hokkien"
)

// Proverb is one catalog entry. Verifiable entries have a matching rule in
// rules.go; the rest name data we do not collect, such as crop yields or
// lightning strikes.
type Proverb struct {
	ID               string   `json:"id"`
	Text             string   `json:"text"`
	Reading          string   `json:"reading,omitempty"` // romanized Taiwanese or Hakka
	Meaning          string   `json:"meaning"`
	Category         string   `json:"category"`
	Region           string   `json:"region"`
	RelatedTerm      string   `json:"related_solar_term,omitempty"` // solarterm id
	Explanation      string   `json:"scientific_explanation"`
	ApplicableMonths []int    `json:"applicable_months"`
	Keywords         []string `json:"keywords"`
	Verifiable       bool     `json:"verifiable"`
}

var catalog = []Proverb{
	{
		ID:               "lichun_rain",
		Text:             "立春落雨透清明",
		Meaning:          "Rain on the first day of spring keeps falling until Qingming.",
		Category:         CategorySolarTerm,
		Region:           RegionTaiwan,
		RelatedTerm:      "lichun",
		Explanation:      "Around lichun Taiwan sits in the tail of the northeast monsoon; a persistent front at that point can sustain rain for weeks.",
		ApplicableMonths: []int{2, 3, 4},
		Keywords:         []string{"lichun", "qingming", "rain"},
		Verifiable:       true,
	},
	{
		ID:               "qingming_rain",
		Text:             "清明時節雨紛紛",
		Meaning:          "Around Qingming it rains and rains.",
		Category:         CategorySolarTerm,
		Region:           RegionChina,
		RelatedTerm:      "qingming",
		Explanation:      "Qingming marks the run-up to the plum rain season as the South China cloud band moves north.",
		ApplicableMonths: []int{4},
		Keywords:         []string{"qingming", "rain"},
		Verifiable:       true,
	},
	{
		ID:               "xiazhi_heat",
		Text:             "夏至不過不熱",
		Meaning:          "Real heat only arrives after the summer solstice.",
		Category:         CategorySolarTerm,
		Region:           RegionChina,
		RelatedTerm:      "xiazhi",
		Explanation:      "Surface heat keeps accumulating past the solstice; the hottest stretch lags it by about a month.",
		ApplicableMonths: []int{6, 7},
		Keywords:         []string{"xiazhi", "heat"},
		Verifiable:       true,
	},
	{
		ID:               "dongzhi_cold",
		Text:             "冬至不過不寒",
		Meaning:          "Real cold only arrives after the winter solstice.",
		Category:         CategorySolarTerm,
		Region:           RegionChina,
		RelatedTerm:      "dongzhi",
		Explanation:      "The ground keeps losing heat past the solstice; the coldest stretch falls on xiaohan and dahan.",
		ApplicableMonths: []int{12, 1},
		Keywords:         []string{"dongzhi", "cold"},
		Verifiable:       true,
	},
	{
		ID:               "spring_mother_face",
		Text:             "春天後母面",
		Reading:          "tshun-thinn āu-bó-bīn",
		Meaning:          "Spring weather is as changeable as a stepmother's face.",
		Category:         CategorySeasonal,
		Region:           RegionHokkien,
		Explanation:      "Spring is the monsoon handover, with cold and warm air masses alternating behind passing fronts.",
		ApplicableMonths: []int{3, 4, 5},
		Keywords:         []string{"spring", "variability"},
		Verifiable:       true,
	},
	{
		ID:               "three_fu_days",
		Text:             "小暑大暑，上蒸下煮",
		Meaning:          "Between minor and major heat, steamed from above and boiled from below.",
		Category:         CategoryTemperature,
		Region:           RegionChina,
		RelatedTerm:      "xiaoshu",
		Explanation:      "Xiaoshu through dashu is the hottest stretch of the year, hot and humid under the Pacific high.",
		ApplicableMonths: []int{7},
		Keywords:         []string{"xiaoshu", "dashu", "heat"},
		Verifiable:       true,
	},
	{
		ID:               "cold_in_nine",
		Text:             "小寒大寒，凍成冰團",
		Meaning:          "Between minor and major cold, frozen into a ball of ice.",
		Category:         CategoryTemperature,
		Region:           RegionChina,
		RelatedTerm:      "xiaohan",
		Explanation:      "Xiaohan through dahan brings the least solar heating of the year plus frequent cold surges.",
		ApplicableMonths: []int{1},
		Keywords:         []string{"xiaohan", "dahan", "cold"},
		Verifiable:       true,
	},
	{
		ID:               "plum_rain",
		Text:             "小滿大滿江河滿",
		Meaning:          "From xiaoman onward the rivers run full.",
		Category:         CategoryRain,
		Region:           RegionChina,
		RelatedTerm:      "xiaoman",
		Explanation:      "Late May into June is the peak of Taiwan's plum rain season, with a stationary front feeding days of rain.",
		ApplicableMonths: []int{5, 6},
		Keywords:         []string{"xiaoman", "plum rain"},
		Verifiable:       true,
	},
	{
		ID:               "autumn_tiger",
		Text:             "處暑天還暑，好似秋老虎",
		Meaning:          "Still hot after chushu, like an autumn tiger.",
		Category:         CategoryTemperature,
		Region:           RegionChina,
		RelatedTerm:      "chushu",
		Explanation:      "Chushu nominally ends the heat, but the Pacific high still drives hot spells over Taiwan into September.",
		ApplicableMonths: []int{8, 9},
		Keywords:         []string{"chushu", "autumn tiger", "heat"},
		Verifiable:       true,
	},
	{
		ID:               "frost_rice_barn",
		Text:             "霜降見霜，米穀滿倉",
		Meaning:          "Frost at shuangjiang fills the rice barn.",
		Category:         CategoryAgriculture,
		Region:           RegionTaiwan,
		RelatedTerm:      "shuangjiang",
		Explanation:      "Frost at the right time signals an orderly season, which favors ripening crops.",
		ApplicableMonths: []int{10},
		Keywords:         []string{"shuangjiang", "frost", "harvest"},
		Verifiable:       false, // needs crop yield data
	},
	{
		ID:               "winter_thunder",
		Text:             "冬雷震震，米穀不稔",
		Meaning:          "Thunder in winter bodes a poor harvest.",
		Category:         CategoryAgriculture,
		Region:           RegionChina,
		Explanation:      "Winter thunder marks an anomalous circulation pattern that can disturb the growing cycle.",
		ApplicableMonths: []int{12, 1, 2},
		Keywords:         []string{"winter", "thunder"},
		Verifiable:       false, // needs lightning records
	},
	{
		ID:               "swallow_low_fly",
		Text:             "燕子低飛要落雨",
		Reading:          "ìnn-á kē-pue beh lo̍h-hōo",
		Meaning:          "Swallows flying low means rain is coming.",
		Category:         CategoryRain,
		Region:           RegionHokkien,
		Explanation:      "High humidity before rain keeps insects low, and swallows chase them down.",
		ApplicableMonths: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
		Keywords:         []string{"swallow", "rain"},
		Verifiable:       false,
	},
}

// All returns every catalog entry.
func All() []Proverb {
	out := make([]Proverb, len(catalog))
	copy(out, catalog)
	return out
}

// ByID looks up a single proverb.
func ByID(id string) (Proverb, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Proverb{}, false
}

// ByCategory returns the entries in one category.
func ByCategory(category string) []Proverb {
	var out []Proverb
	for _, p := range catalog {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// ByRegion returns the entries from one region.
func ByRegion(region string) []Proverb {
	var out []Proverb
	for _, p := range catalog {
		if p.Region == region {
			out = append(out, p)
		}
	}
	return out
}

// BySolarTerm returns the entries tied to one solar term.
func BySolarTerm(termID string) []Proverb {
	var out []Proverb
	for _, p := range catalog {
		if p.RelatedTerm == termID {
			out = append(out, p)
		}
	}
	return out
}

// ByMonth returns the entries applicable in a given month.
func ByMonth(month int) []Proverb {
	var out []Proverb
	for _, p := range catalog {
		for _, m := range p.ApplicableMonths {
			if m == month {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// Verifiable returns the entries that have a verification rule.
func Verifiable() []Proverb {
	var out []Proverb
	for _, p := range catalog {
		if p.Verifiable {
			out = append(out, p)
		}
	}
	return out
}

// Search matches a keyword against text, meaning, and keywords,
// case-insensitively.
func Search(keyword string) []Proverb {
	keyword = strings.ToLower(keyword)
	var out []Proverb
	for _, p := range catalog {
		if strings.Contains(strings.ToLower(p.Text), keyword) ||
			strings.Contains(strings.ToLower(p.Meaning), keyword) {
			out = append(out, p)
			continue
		}
		for _, kw := range p.Keywords {
			if strings.Contains(strings.ToLower(kw), keyword) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
