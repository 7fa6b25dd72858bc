package sim

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShipMethod selects the transit lane for a dispatch. The duration is fixed
// at dispatch time and never renegotiated mid-flight.
type ShipMethod string

const (
	ShipAir    ShipMethod = "air"
	ShipGround ShipMethod = "ground"
)

// TransitRounds returns the fixed transit duration for the method.
// Unknown methods travel as ground.
func (m ShipMethod) TransitRounds() int {
	if m == ShipAir {
		return 1
	}
	return 2
}

// LogisticsLine is one requested factory-to-market movement.
type LogisticsLine struct {
	Destination string     `json:"destination"`
	Units       int        `json:"units"`
	Method      ShipMethod `json:"method"`
}

// Decision is a company's submission for one round. Upsertable until the
// round closes, immutable afterwards.
type Decision struct {
	CompanyID   string          `json:"company_id"`
	Round       int             `json:"round"`
	Price       decimal.Decimal `json:"price"`
	Marketing   decimal.Decimal `json:"marketing"`
	Production  int             `json:"production_units"`
	Procurement int             `json:"procurement_units"`
	Logistics   []LogisticsLine `json:"logistics"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// SentinelPrice stands in for a missing decision's price. It is effectively
// unsellable: the elasticity and ceiling-penalty formulas drive demand toward
// zero rather than clamping it outright.
var SentinelPrice = decimal.NewFromInt(9999)

// ResolveDecision turns an absent decision into a concrete "no activity"
// record: prohibitive price, zero marketing, zero production, zero
// procurement, no logistics. Submitted decisions pass through unchanged.
func ResolveDecision(d *Decision, companyID string, round int) Decision {
	if d != nil {
		return *d
	}
	return Decision{
		CompanyID: companyID,
		Round:     round,
		Price:     SentinelPrice,
		Marketing: decimal.Zero,
	}
}
