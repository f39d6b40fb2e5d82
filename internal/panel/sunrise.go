package panel

import (
	"errors"
	"math"
	"time"
)

// ErrNoSunrise is returned for polar days and nights.
var ErrNoSunrise = errors.New("panel: no sunrise at this latitude and date")

// NextSunrise returns the first sunrise after now at lat, lon, in loc.
func NextSunrise(now time.Time, lat, lon float64, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	for i := 0; i < 2; i++ {
		sr, err := sunriseOn(day.AddDate(0, 0, i), lat, lon, loc)
		if err != nil {
			return time.Time{}, err
		}
		if now.Before(sr) {
			return sr, nil
		}
	}
	return sunriseOn(day.AddDate(0, 0, 2), lat, lon, loc)
}

// sunriseOn uses the NOAA almanac approximation, good to a minute or two.
func sunriseOn(day time.Time, lat, lon float64, loc *time.Location) (time.Time, error) {
	n := float64(day.YearDay())
	lngHour := lon / 15
	t := n + (6-lngHour)/24
	m := 0.9856*t - 3.289
	l := wrap(m+1.916*sinDeg(m)+0.020*sinDeg(2*m)+282.634, 360)
	ra := wrap(radToDeg(math.Atan(0.91764*math.Tan(degToRad(l)))), 360)
	ra = (ra + math.Floor(l/90)*90 - math.Floor(ra/90)*90) / 15

	sinDec := 0.39782 * sinDeg(l)
	cosDec := math.Cos(math.Asin(sinDec))
	cosH := (math.Cos(degToRad(90.833)) - sinDec*sinDeg(lat)) / (cosDec * math.Cos(degToRad(lat)))
	if cosH > 1 || cosH < -1 {
		return time.Time{}, ErrNoSunrise
	}
	h := (360 - radToDeg(math.Acos(cosH))) / 15
	ut := wrap(h+ra-0.06571*t-6.622-lngHour, 24)

	y, mo, d := day.Date()
	sr := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC).Add(time.Duration(ut * float64(time.Hour))).In(loc)
	// ut is known only modulo a day; keep the instant on the requested local date.
	start := time.Date(y, mo, d, 0, 0, 0, 0, loc)
	switch {
	case sr.Before(start):
		sr = sr.Add(24 * time.Hour)
	case !sr.Before(start.AddDate(0, 0, 1)):
		sr = sr.Add(-24 * time.Hour)
	}
	return sr, nil
}

func degToRad(v float64) float64 { return v * math.Pi / 180 }
func radToDeg(v float64) float64 { return v * 180 / math.Pi }
func sinDeg(v float64) float64   { return math.Sin(degToRad(v)) }

func wrap(v, span float64) float64 {
	v = math.Mod(v, span)
	if v < 0 {
		v += span
	}
	return v
}
