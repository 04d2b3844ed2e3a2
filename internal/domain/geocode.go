package domain

import (
	"context"
	"log/slog"
	"strings"
)

// Resolution methods reported with a resolved office.
const (
	MethodGeocode = "geocode"
	MethodText    = "text"
)

// OfficeResolution is the outcome of resolving an address to an office.
type OfficeResolution struct {
	Office        Office  `json:"office"`
	Method        string  `json:"method"`
	Point         *Point  `json:"point,omitempty"`
	DistanceMiles float64 `json:"distanceMiles,omitempty"`
}

// ResolveNearestOffice geocodes address and picks the nearest office by
// great-circle distance. If geocoder is nil, fails, or finds nothing, the
// text heuristic is used instead (graceful degradation).
func ResolveNearestOffice(ctx context.Context, address string, geocoder Geocoder, logger *slog.Logger) OfficeResolution {
	candidates := Offices()
	address = strings.TrimSpace(address)

	if geocoder == nil || address == "" {
		return textResolution(address, candidates)
	}

	result, err := geocoder.Geocode(ctx, address)
	if err != nil {
		logger.Warn("geocoding failed, using text match",
			"address", address,
			"error", err,
		)
		return textResolution(address, candidates)
	}
	if !result.Found() {
		logger.Debug("geocoding returned no results, using text match", "address", address)
		return textResolution(address, candidates)
	}

	p := Point{Lat: result.Lat, Lng: result.Lng}
	office, _ := Nearest(p, candidates)
	return OfficeResolution{
		Office:        office,
		Method:        MethodGeocode,
		Point:         &p,
		DistanceMiles: HaversineMiles(p, office.Point()),
	}
}

func textResolution(address string, candidates []Office) OfficeResolution {
	return OfficeResolution{
		Office: NearestByText(address, candidates),
		Method: MethodText,
	}
}
