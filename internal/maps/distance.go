// Package maps provides a Google Maps backed distance estimator. It is
// an optional replacement for the pricing engine's postcode heuristic;
// swapping it in changes no downstream price math.
package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

type DistanceService struct {
	client *maps.Client
}

func NewDistanceService(apiKey string) (*DistanceService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return &DistanceService{client: client}, nil
}

// EstimateKm resolves a driving route between two Australian postcodes
// and returns its length in kilometres. Satisfies pricing.DistanceEstimator.
func (s *DistanceService) EstimateKm(ctx context.Context, pickupPostcode, deliveryPostcode string) (float64, error) {
	r := &maps.DirectionsRequest{
		Origin:      pickupPostcode + ", Australia",
		Destination: deliveryPostcode + ", Australia",
		Mode:        maps.TravelModeDriving,
		Region:      "AU",
	}
	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("maps directions: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, fmt.Errorf("no route between %s and %s", pickupPostcode, deliveryPostcode)
	}

	var meters int
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
	}
	return float64(meters) / 1000.0, nil
}
