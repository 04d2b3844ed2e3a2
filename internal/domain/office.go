package domain

import (
	"math"
	"strings"
)

// EarthRadiusMiles is the mean Earth radius used for great-circle distances.
const EarthRadiusMiles = 3958.8

// ForecastRangeDays is how far ahead daily forecasts are available.
const ForecastRangeDays = 10

// Point is a WGS-84 latitude/longitude pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Office is one of the company's fixed office locations.
type Office struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	City  string  `json:"city"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

// Point returns the office coordinates.
func (o Office) Point() Point {
	return Point{Lat: o.Lat, Lng: o.Lng}
}

var offices = [...]Office{
	{ID: "irving", Label: "Irving", City: "Irving, TX", Lat: 32.8140, Lng: -96.9489},
	{ID: "mckinney", Label: "McKinney", City: "McKinney, TX", Lat: 33.1976, Lng: -96.6153},
	{ID: "santa-clara", Label: "Santa Clara", City: "Santa Clara, CA", Lat: 37.3541, Lng: -121.9552},
	{ID: "tampa", Label: "Tampa", City: "Tampa, FL", Lat: 27.9506, Lng: -82.4572},
	{ID: "pittsburgh", Label: "Pittsburgh", City: "Pittsburgh, PA", Lat: 40.4406, Lng: -79.9959},
}

// DefaultOfficeID is used when no better office can be determined.
const DefaultOfficeID = "irving"

// Offices returns a copy of the fixed office list in canonical order.
func Offices() []Office {
	out := make([]Office, len(offices))
	copy(out, offices[:])
	return out
}

// OfficeByID looks up an office by ID, label or city, case-insensitively.
func OfficeByID(key string) (Office, bool) {
	key = strings.TrimSpace(key)
	for _, o := range offices {
		if strings.EqualFold(o.ID, key) || strings.EqualFold(o.Label, key) || strings.EqualFold(o.City, key) {
			return o, true
		}
	}
	return Office{}, false
}

func defaultOffice() Office {
	o, _ := OfficeByID(DefaultOfficeID)
	return o
}

// HaversineMiles returns the great-circle distance between a and b in miles.
func HaversineMiles(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusMiles * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Nearest returns the office closest to p. Ties keep the earliest office.
// ok is false when offices is empty.
func Nearest(p Point, candidates []Office) (nearest Office, ok bool) {
	if len(candidates) == 0 {
		return Office{}, false
	}

	nearest = candidates[0]
	best := HaversineMiles(p, nearest.Point())
	for _, o := range candidates[1:] {
		if d := HaversineMiles(p, o.Point()); d < best {
			nearest, best = o, d
		}
	}
	return nearest, true
}

// NearestByText guesses an office from a free-text address when no
// coordinates are available. It looks for the first office whose first label
// word appears in the address, then for the first office sharing the
// address's first letter, and otherwise returns Irving. This is a rough
// placeholder, not a geocoder.
func NearestByText(address string, candidates []Office) Office {
	lower := strings.ToLower(address)
	if lower == "" {
		return defaultOffice()
	}

	for _, o := range candidates {
		word := strings.ToLower(strings.Split(o.Label, " ")[0])
		if strings.Contains(lower, word) {
			return o
		}
	}

	first := lower[:1]
	for _, o := range candidates {
		if o.Label != "" && strings.ToLower(o.Label[:1]) == first {
			return o
		}
	}
	return defaultOffice()
}

// IsWithinForecastRange reports whether d falls between today and
// today+ForecastRangeDays inclusive.
func IsWithinForecastRange(d Date) bool {
	diff := d.DaysSince(Today())
	return diff >= 0 && diff <= ForecastRangeDays
}

// SuggestedAlternativeDate proposes the day after d.
func SuggestedAlternativeDate(d Date) Date {
	return d.AddDays(1)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
