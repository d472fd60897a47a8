package config

import "github.com/lox/tempedge/internal/models"

var builtinTargets = []models.Target{
	{
		ID: "LONDON", Station: "EGLC", LocationID: "EGLC:9:GB", Timezone: "Europe/London", Unit: "C",
		WarmWind: [2]float64{180, 260}, SlugBase: "highest-temperature-in-london-on", Style: models.StyleAuto,
		Upstream: models.Upstream{N: "EGSS", S: "EGKK", W: "EGLL", E: "EGMC"},
		Latitude: 51.505, Longitude: 0.055,
	},
	{
		ID: "SEOUL", Station: "RKSI", LocationID: "RKSI:9:KR", Timezone: "Asia/Seoul", Unit: "C",
		WarmWind: [2]float64{135, 225}, SlugBase: "highest-temperature-in-seoul-on", Style: models.StyleEarly,
		Upstream: models.Upstream{N: "RKSS", S: "RKSW", W: "RKSI", E: "RKSM"},
		Latitude: 37.469, Longitude: 126.451,
	},
	{
		ID: "BUENOS AIRES", Station: "SAEZ", LocationID: "SAEZ:9:AR", Timezone: "America/Argentina/Buenos_Aires", Unit: "C",
		WarmWind: [2]float64{300, 360}, SlugBase: "highest-temperature-in-buenos-aires-on", Style: models.StyleAuto,
		Upstream: models.Upstream{N: "SABE", S: "SAZP", W: "SAOU", E: "SUMU"},
		Latitude: -34.822, Longitude: -58.536,
	},
	{
		ID: "TORONTO", Station: "CYYZ", LocationID: "CYYZ:9:CA", Timezone: "America/Toronto", Unit: "C",
		WarmWind: [2]float64{135, 225}, SlugBase: "highest-temperature-in-toronto-on", Style: models.StyleAuto,
		Upstream: models.Upstream{N: "CYQA", S: "KBUF", W: "CYHM", E: "CYTZ"},
		Latitude: 43.677, Longitude: -79.631,
	},
	{
		ID: "NEW YORK", Station: "KLGA", LocationID: "KLGA:9:US", Timezone: "America/New_York", Unit: "F",
		WarmWind: [2]float64{160, 250}, SlugBase: "highest-temperature-in-nyc-on", Style: models.StyleLate,
		Upstream: models.Upstream{N: "KPOU", S: "KACY", W: "KABE", E: "KISP"},
		Latitude: 40.777, Longitude: -73.873,
	},
	{
		ID: "SEATTLE", Station: "KSEA", LocationID: "KSEA:9:US", Timezone: "America/Los_Angeles", Unit: "F",
		WarmWind: [2]float64{160, 240}, SlugBase: "highest-temperature-in-seattle-on", Style: models.StyleLate,
		Upstream: models.Upstream{N: "KPAE", S: "KOLM", W: "KPWT", E: "KRNT"},
		Latitude: 47.449, Longitude: -122.309,
	},
	{
		ID: "ATLANTA", Station: "KATL", LocationID: "KATL:9:US", Timezone: "America/New_York", Unit: "F",
		WarmWind: [2]float64{160, 240}, SlugBase: "highest-temperature-in-atlanta-on", Style: models.StyleAuto,
		Upstream: models.Upstream{N: "KCHA", S: "KMCN", W: "KBHM", E: "KAHN"},
		Latitude: 33.640, Longitude: -84.427,
	},
	{
		ID: "DALLAS", Station: "KDAL", LocationID: "KDAL:9:US", Timezone: "America/Chicago", Unit: "F",
		WarmWind: [2]float64{160, 240}, SlugBase: "highest-temperature-in-dallas-on", Style: models.StyleLate,
		Upstream: models.Upstream{N: "KDTO", S: "KACT", W: "KFTW", E: "KTYR"},
		Latitude: 32.847, Longitude: -96.852,
	},
}

// DefaultTargets returns a copy of the built-in market registry with
// timezones loaded.
func DefaultTargets() ([]models.Target, error) {
	out := make([]models.Target, 0, len(builtinTargets))
	for _, t := range builtinTargets {
		resolved, err := resolveLocation(t)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}
