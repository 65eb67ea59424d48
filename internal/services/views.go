package services

import (
	"feira/internal/estimate"
	"feira/internal/models"
)

// OrderView is an order plus the fields screens derive from it.
type OrderView struct {
	models.Order
	StatusLabel  string  `json:"statusLabel"`
	StatusColor  string  `json:"statusColor"`
	Fee          float64 `json:"fee"`
	FeeEstimated bool    `json:"feeEstimated"`
	ETA          string  `json:"eta,omitempty"`
	ItemCount    int     `json:"itemCount"`
}

// BuildOrderView derives display fields. A delivery fee sent by the backend
// is used as is; est only fills the gap.
func BuildOrderView(o models.Order, est estimate.Strategy) OrderView {
	v := OrderView{
		Order:       o,
		StatusLabel: o.Status.Label(),
		StatusColor: o.Status.Color(),
	}
	for _, it := range o.Items {
		v.ItemCount += it.Quantity
	}

	var guess *estimate.Estimate
	if est != nil && o.ShippingAddress != "" {
		e := est.Estimate(o.ShippingAddress)
		guess = &e
	}
	switch {
	case o.DeliveryFee != nil:
		v.Fee = *o.DeliveryFee
	case guess != nil:
		v.Fee = guess.Fee
		v.FeeEstimated = true
	}
	if guess != nil && !o.Status.IsTerminal() {
		v.ETA = guess.Window()
	}
	return v
}

func buildViews(orders []models.Order, est estimate.Strategy) []OrderView {
	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, BuildOrderView(o, est))
	}
	return out
}
