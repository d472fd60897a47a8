package forecast

import (
	"math"

	"github.com/lox/tempedge/internal/models"
)

// UpstreamStation returns the neighbouring station the wind is blowing from.
// Wind direction is meteorological (the bearing the wind comes from), so a
// 270° wind selects the western station. It returns "" when the wind is
// variable or no station is mapped for that quadrant.
func UpstreamStation(up models.Upstream, windDir *float64) (station, quadrant string) {
	if windDir == nil {
		return "", ""
	}
	d := math.Mod(*windDir, 360)
	if d < 0 {
		d += 360
	}
	switch {
	case d >= 315 || d < 45:
		return up.N, "N"
	case d < 135:
		return up.E, "E"
	case d < 225:
		return up.S, "S"
	default:
		return up.W, "W"
	}
}
