package pricing

import (
	"context"
	"errors"
	"math"
	"strconv"
)

var (
	ErrInvalidPostcode      = errors.New("invalid postcode")
	ErrUnknownVehicleType   = errors.New("unknown vehicle type")
	ErrUnknownTransportType = errors.New("unknown transport type")
)

// DistanceEstimator turns a postcode pair into a distance in kilometres.
// The default heuristic can be swapped for a real routing provider
// without touching any of the downstream price math.
type DistanceEstimator interface {
	EstimateKm(ctx context.Context, pickupPostcode, deliveryPostcode string) (float64, error)
}

// PostcodeHeuristic estimates distance as ten times the numeric postcode
// gap, floored at 50 km. It is a stand-in for real routing and is kept
// deterministic so the engine stays a pure function.
type PostcodeHeuristic struct{}

func (PostcodeHeuristic) EstimateKm(_ context.Context, pickup, delivery string) (float64, error) {
	a, err := strconv.Atoi(pickup)
	if err != nil {
		return 0, ErrInvalidPostcode
	}
	b, err := strconv.Atoi(delivery)
	if err != nil {
		return 0, ErrInvalidPostcode
	}
	km := math.Abs(float64(a-b)) * 10
	if km < 50 {
		km = 50
	}
	return km, nil
}

type Engine struct {
	estimator DistanceEstimator
}

func NewEngine(estimator DistanceEstimator) *Engine {
	if estimator == nil {
		estimator = PostcodeHeuristic{}
	}
	return &Engine{estimator: estimator}
}

// Calculate prices a transport request. It has no side effects and is
// deterministic for a given input and estimator.
func (e *Engine) Calculate(ctx context.Context, in Input) (Result, error) {
	if in.PickupPostcode == "" || in.DeliveryPostcode == "" {
		return Result{}, ErrInvalidPostcode
	}
	rate, ok := baseRatePerKm[in.VehicleType]
	if !ok {
		return Result{}, ErrUnknownVehicleType
	}
	if in.TransportType != TransportOpen && in.TransportType != TransportEnclosed {
		return Result{}, ErrUnknownTransportType
	}

	km, err := e.estimator.EstimateKm(ctx, in.PickupPostcode, in.DeliveryPostcode)
	if err != nil {
		return Result{}, err
	}

	base := km * rate
	if !in.IsRunning {
		base *= nonRunnerMultiplier
	}
	if in.TransportType == TransportEnclosed {
		base *= enclosedMultiplier
	}
	if base < minimumBasePrice {
		base = minimumBasePrice
	}
	basePrice := int64(math.Round(base))

	addOns := make(map[string]int64)
	var addOnTotal int64
	for name, enabled := range in.AddOns {
		if !enabled {
			continue
		}
		price, known := addOnPrices[name]
		if !known {
			continue
		}
		addOns[name] = price
		addOnTotal += price
	}

	subtotal := basePrice + addOnTotal
	gst := int64(math.Round(float64(subtotal) * gstRate))
	total := subtotal + gst
	deposit := int64(math.Round(float64(total) * depositRate))

	return Result{
		DistanceKm:    km,
		BasePrice:     basePrice,
		AddOns:        addOns,
		Subtotal:      subtotal,
		GST:           gst,
		TotalPrice:    total,
		DepositAmount: deposit,
		BalanceAmount: total - deposit,
		Currency:      Currency,

		EstimatedPickupWindow:      pickupWindow(km),
		EstimatedDeliveryTimeframe: deliveryTimeframe(km),
	}, nil
}

func pickupWindow(km float64) string {
	switch {
	case km < 100:
		return "1-2 business days"
	case km < 500:
		return "2-3 business days"
	case km < 1000:
		return "3-5 business days"
	default:
		return "5-7 business days"
	}
}

func deliveryTimeframe(km float64) string {
	switch {
	case km < 100:
		return "Same day"
	case km < 500:
		return "1-2 days after pickup"
	case km < 1000:
		return "2-3 days after pickup"
	default:
		return "3-5 days after pickup"
	}
}
