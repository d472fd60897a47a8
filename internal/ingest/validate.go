package ingest

import (
	"time"

	"github.com/lox/tempedge/internal/models"
)

const (
	FlagTempOutOfRange    = "temp_out_of_range"
	FlagDewpointAboveTemp = "dewpoint_above_temp"
	FlagWindDirInvalid    = "wind_dir_invalid"
	FlagStale             = "stale"
)

// maxObservationAge is how old the newest METAR may be before it is flagged.
const maxObservationAge = 3 * time.Hour

// ValidateObservation returns quality flags for an observation. A nil result
// means the observation passed every check.
func ValidateObservation(obs models.Observation, now time.Time) []string {
	var flags []string

	if obs.Temp < -60 || obs.Temp > 60 {
		flags = append(flags, FlagTempOutOfRange)
	}

	// Allow half a degree of rounding between the two groups.
	if obs.Dewpoint != nil && *obs.Dewpoint > obs.Temp+0.5 {
		flags = append(flags, FlagDewpointAboveTemp)
	}

	if obs.WindDir != nil {
		if *obs.WindDir < 0 || *obs.WindDir > 360 {
			flags = append(flags, FlagWindDirInvalid)
		}
	}

	if !obs.ObservedAt.IsZero() && now.Sub(obs.ObservedAt) > maxObservationAge {
		flags = append(flags, FlagStale)
	}

	return flags
}

// Usable reports whether flags still allow the observation to drive the
// model. Only an implausible temperature disqualifies it.
func Usable(flags []string) bool {
	for _, f := range flags {
		if f == FlagTempOutOfRange {
			return false
		}
	}
	return true
}
