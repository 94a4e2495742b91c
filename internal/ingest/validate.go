package ingest

import (
	"github.com/jihsin/auspicious/internal/models"
)

const (
	FlagTempOutOfRange     = "temp_out_of_range"
	FlagTempMinExceedsMax  = "temp_min_exceeds_max"
	FlagHumidityInvalid    = "humidity_invalid"
	FlagWindSpeedUnlikely  = "wind_speed_unlikely"
	FlagPressureOutOfRange = "pressure_out_of_range"
	FlagPrecipNegative     = "precip_negative"
	FlagSunshineUnlikely   = "sunshine_unlikely"
)

// ValidateDaily flags physically implausible daily values. Flags are
// advisory; ingestion stores the row either way.
func ValidateDaily(obs *models.DailyObservation) []string {
	var flags []string

	for _, temp := range []struct{ v float64; valid bool }{
		{obs.TempAvg.Float64, obs.TempAvg.Valid},
		{obs.TempMax.Float64, obs.TempMax.Valid},
		{obs.TempMin.Float64, obs.TempMin.Valid},
	} {
		if temp.valid && (temp.v < -20 || temp.v > 50) {
			flags = append(flags, FlagTempOutOfRange)
			break
		}
	}

	if obs.TempMin.Valid && obs.TempMax.Valid && obs.TempMin.Float64 > obs.TempMax.Float64 {
		flags = append(flags, FlagTempMinExceedsMax)
	}

	if obs.HumidityAvg.Valid {
		if obs.HumidityAvg.Float64 < 0 || obs.HumidityAvg.Float64 > 100 {
			flags = append(flags, FlagHumidityInvalid)
		}
	}

	if obs.WindSpeedAvg.Valid && (obs.WindSpeedAvg.Float64 < 0 || obs.WindSpeedAvg.Float64 > 100) {
		flags = append(flags, FlagWindSpeedUnlikely)
	} else if obs.WindSpeedMax.Valid && (obs.WindSpeedMax.Float64 < 0 || obs.WindSpeedMax.Float64 > 150) {
		flags = append(flags, FlagWindSpeedUnlikely)
	}

	if obs.PressureAvg.Valid {
		if obs.PressureAvg.Float64 < 850 || obs.PressureAvg.Float64 > 1100 {
			flags = append(flags, FlagPressureOutOfRange)
		}
	}

	if obs.Precipitation.Valid && obs.Precipitation.Float64 < 0 {
		flags = append(flags, FlagPrecipNegative)
	}

	if obs.SunshineHours.Valid {
		if obs.SunshineHours.Float64 < 0 || obs.SunshineHours.Float64 > 14 {
			flags = append(flags, FlagSunshineUnlikely)
		}
	}

	return flags
}
