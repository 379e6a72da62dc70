// Package pricing computes transport quotes. The engine is a pure
// function of its input so results are reproducible for quote auditing.
package pricing

// VehicleType classifies the vehicle being transported. Each type has
// its own per-km base rate; unknown types are rejected, never defaulted.
type VehicleType string

const (
	VehicleSedan      VehicleType = "sedan"
	VehicleSUV        VehicleType = "suv"
	VehicleUte        VehicleType = "ute"
	VehicleVan        VehicleType = "van"
	VehicleLightTruck VehicleType = "light-truck"
	VehicleBike       VehicleType = "bike"
)

type TransportType string

const (
	TransportOpen     TransportType = "open"
	TransportEnclosed TransportType = "enclosed"
)

const Currency = "AUD"

const (
	// minimumBasePrice floors every base price regardless of distance.
	minimumBasePrice = 300.0
	// nonRunnerMultiplier covers winching and special handling.
	nonRunnerMultiplier = 1.3
	enclosedMultiplier  = 1.5
	gstRate             = 0.10
	depositRate         = 0.15
)

// baseRatePerKm is the per-kilometre rate table in whole AUD.
var baseRatePerKm = map[VehicleType]float64{
	VehicleSedan:      1.2,
	VehicleSUV:        1.5,
	VehicleUte:        1.8,
	VehicleVan:        2.0,
	VehicleLightTruck: 2.5,
	VehicleBike:       0.8,
}

// addOnPrices is the fixed-amount add-on table. Keys not present here
// are ignored when pricing, so new client-side flags cannot break a quote.
var addOnPrices = map[string]int64{
	"insurance":       150,
	"expressDelivery": 40,
	"packaging":       15,
}

type Input struct {
	PickupPostcode   string
	DeliveryPostcode string
	VehicleType      VehicleType
	IsRunning        bool
	TransportType    TransportType
	AddOns           map[string]bool
}

type Result struct {
	DistanceKm    float64          `json:"distance_km"`
	BasePrice     int64            `json:"base_price"`
	AddOns        map[string]int64 `json:"add_ons"`
	Subtotal      int64            `json:"subtotal"`
	GST           int64            `json:"gst"`
	TotalPrice    int64            `json:"total_price"`
	DepositAmount int64            `json:"deposit_amount"`
	BalanceAmount int64            `json:"balance_amount"`
	Currency      string           `json:"currency"`

	EstimatedPickupWindow      string `json:"estimated_pickup_window"`
	EstimatedDeliveryTimeframe string `json:"estimated_delivery_timeframe"`
}
