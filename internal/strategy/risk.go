package strategy

import "github.com/alejandrodnm/ritmaker/internal/domain"

// Permissions says which sides may add exposure this tick.
type Permissions struct {
	AllowBuy  bool
	AllowSell bool
}

// Governor converts positions and limits into permissions. Pure.
type Governor struct {
	limits domain.RiskLimits
}

// NewGovernor builds a governor for the run's limits.
func NewGovernor(limits domain.RiskLimits) Governor {
	return Governor{limits: limits}
}

// Limits returns the configured limits.
func (g Governor) Limits() domain.RiskLimits {
	return g.limits
}

// Check applies the static caps to the current state.
func (g Governor) Check(ticker string, position int, all domain.Positions) Permissions {
	gross, net := all.Gross(), all.Net()
	longCap, shortCap := g.limits.LongCap(ticker), g.limits.ShortCap(ticker)

	grossOK := below(gross, g.limits.MaxGross)
	return Permissions{
		AllowBuy:  below(position, longCap) && grossOK && below(net, g.limits.MaxNet),
		AllowSell: below(-position, shortCap) && grossOK && below(-net, g.limits.MaxNet),
	}
}

// Project retracts a side whose order, if filled in full, would push gross or
// net past the portfolio caps.
func (g Governor) Project(p Permissions, all domain.Positions, buyQty, sellQty int) Permissions {
	gross, net := all.Gross(), all.Net()
	if exceeds(gross+buyQty, g.limits.MaxGross) || exceeds(net+buyQty, g.limits.MaxNet) {
		p.AllowBuy = false
	}
	if exceeds(gross+sellQty, g.limits.MaxGross) || exceeds(-(net-sellQty), g.limits.MaxNet) {
		p.AllowSell = false
	}
	return p
}

// below is v < limit, with limit <= 0 meaning no limit.
func below(v, limit int) bool {
	return limit <= 0 || v < limit
}

func exceeds(v, limit int) bool {
	return limit > 0 && v > limit
}
