// Package eval holds the accumulable cost/duration/distance triple the
// optimizer attaches to routes and solutions, plus the unit scaling constants.
package eval

const (
	// DurationFactor scales seconds into internal duration ticks for costing.
	DurationFactor int64 = 100
	// CostFactor converts an hourly rate into a per-second rate.
	CostFactor int64 = 3600
	// PriorityScale is the number of internal cost units in one user cost unit.
	// One unit of job priority is worth one user cost unit.
	PriorityScale = DurationFactor * CostFactor

	// DefaultPerHour is the hourly rate applied when a vehicle sets none.
	DefaultPerHour int64 = 3600
)

// Eval aggregates cost (internal units), duration (seconds) and distance (meters).
type Eval struct {
	Cost     int64 `json:"cost" yaml:"cost"`
	Duration int64 `json:"duration" yaml:"duration"`
	Distance int64 `json:"distance" yaml:"distance"`
}

// Add returns the component-wise sum.
func (e Eval) Add(o Eval) Eval {
	return Eval{Cost: e.Cost + o.Cost, Duration: e.Duration + o.Duration, Distance: e.Distance + o.Distance}
}

// Sub returns the component-wise difference.
func (e Eval) Sub(o Eval) Eval {
	return Eval{Cost: e.Cost - o.Cost, Duration: e.Duration - o.Duration, Distance: e.Distance - o.Distance}
}

// VehicleCosts are expressed in user units: Fixed per used vehicle, PerHour of
// travel, PerKm of distance.
type VehicleCosts struct {
	Fixed   int64 `json:"fixed,omitempty" yaml:"fixed,omitempty"`
	PerHour int64 `json:"perHour,omitempty" yaml:"perHour,omitempty"`
	PerKm   int64 `json:"perKm,omitempty" yaml:"perKm,omitempty"`
}

// Leg costs a single travel leg in internal units.
func (c VehicleCosts) Leg(durationSec, distanceM int64) Eval {
	perHour := c.PerHour
	if perHour == 0 {
		perHour = DefaultPerHour
	}
	cost := perHour*durationSec*DurationFactor + c.PerKm*distanceM*(PriorityScale/1000)
	return Eval{Cost: cost, Duration: durationSec, Distance: distanceM}
}

// FixedCost is the internal cost charged once for a non-empty route.
func (c VehicleCosts) FixedCost() int64 { return c.Fixed * PriorityScale }

// UserCost converts an internal cost back to user units, rounding half up.
func UserCost(internal int64) int64 {
	if internal < 0 {
		return -UserCost(-internal)
	}
	return (internal + PriorityScale/2) / PriorityScale
}
