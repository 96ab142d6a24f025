package types

import "fmt"

// Coordinate is a user location supplied per incoming event.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// PlaceCandidate is a point of interest returned by the suggest capability.
// Title equality is the only identity the pipeline relies on.
type PlaceCandidate struct {
	Title          string  `json:"title"`
	Subtitle       string  `json:"subtitle"`
	DistanceMeters float64 `json:"distance_meters"`
	DistanceText   string  `json:"distance_text"`
}

// FilterOutcome records which branch the interest filter took, so callers
// and tests can tell an applied model selection from a fallback.
type FilterOutcome struct {
	Places         []PlaceCandidate
	Applied        bool
	FallbackReason string
}
