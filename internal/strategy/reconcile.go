package strategy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/alejandrodnm/ritmaker/internal/domain"
	"github.com/alejandrodnm/ritmaker/internal/ports"
)

// priceEpsilon absorbs float noise when comparing against RequoteTolerance.
const priceEpsilon = 1e-9

// ActionKind is the type of a reconciliation step.
type ActionKind int

const (
	ActionCancel ActionKind = iota
	ActionPlace
	ActionCancelAll
)

// CancelReason explains why an order was withdrawn.
type CancelReason string

const (
	ReasonOtherTicker CancelReason = "other_ticker"
	ReasonTTL         CancelReason = "ttl"
	ReasonDuplicate   CancelReason = "duplicate"
	ReasonRisk        CancelReason = "risk"
	ReasonRequote     CancelReason = "requote"
	ReasonPairBroken  CancelReason = "pair_broken"
)

// Action is one gateway call the reconciler wants made.
type Action struct {
	Kind    ActionKind
	OrderID domain.OrderID
	Reason  CancelReason
	Ticker  string
	Side    domain.Side // side of the cancelled order
	Quote   domain.Quote
}

// Target is the desired book for the selected ticker. A zero quantity on a
// side means nothing is wanted there.
type Target struct {
	Ticker string
	Bid    domain.Quote
	Ask    domain.Quote
	Perms  Permissions
}

// ReconcileConfig controls churn.
type ReconcileConfig struct {
	RequoteTolerance float64
	OrderTTL         int // ticks; <= 0 disables expiry
}

// Outcome summarizes what Execute actually did.
type Outcome struct {
	Placed    int
	Cancelled int
	Failed    int
}

// Reconciler diffs resting orders against a target and emits actions.
type Reconciler struct {
	cfg ReconcileConfig
}

// NewReconciler returns a reconciler for cfg.
func NewReconciler(cfg ReconcileConfig) Reconciler {
	return Reconciler{cfg: cfg}
}

// Plan returns the actions that bring our resting orders to target. It
// updates st.OrderAge for newly seen and vanished orders. Cancels always
// precede the place on the same side.
func (r Reconciler) Plan(st *State, tick int, open []domain.RestingOrder, target Target) []Action {
	r.pruneAges(st, open)

	var actions []Action
	var bids, asks []domain.RestingOrder

	for _, o := range sortedByID(open) {
		if o.Ticker != target.Ticker {
			actions = append(actions, cancel(o, ReasonOtherTicker))
			continue
		}
		first, seen := st.OrderAge[o.ID]
		if !seen {
			first = tick
			st.OrderAge[o.ID] = tick
		}
		if r.cfg.OrderTTL > 0 && tick-first >= r.cfg.OrderTTL {
			actions = append(actions, cancel(o, ReasonTTL))
			continue
		}
		if o.Side == domain.SideBuy {
			bids = append(bids, o)
		} else {
			asks = append(asks, o)
		}
	}

	bestBid, dupBids := splitBest(bids, func(a, b float64) bool { return a > b })
	bestAsk, dupAsks := splitBest(asks, func(a, b float64) bool { return a < b })
	for _, o := range append(dupBids, dupAsks...) {
		actions = append(actions, cancel(o, ReasonDuplicate))
	}

	actions = append(actions, r.side(target.Ticker, bestBid, target.Bid, target.Perms.AllowBuy)...)
	actions = append(actions, r.side(target.Ticker, bestAsk, target.Ask, target.Perms.AllowSell)...)

	for _, a := range actions {
		if a.Kind == ActionCancel {
			delete(st.OrderAge, a.OrderID)
		}
	}
	return actions
}

// PlanPair is the simple policy: keep exactly one buy and one sell on the
// ticker, or flatten everything and start over.
func (r Reconciler) PlanPair(st *State, tick int, open []domain.RestingOrder, target Target) []Action {
	r.pruneAges(st, open)

	var actions []Action
	var buys, sells int
	for _, o := range sortedByID(open) {
		if o.Ticker != target.Ticker {
			actions = append(actions, cancel(o, ReasonOtherTicker))
			continue
		}
		if _, seen := st.OrderAge[o.ID]; !seen {
			st.OrderAge[o.ID] = tick
		}
		if o.Side == domain.SideBuy {
			buys++
		} else {
			sells++
		}
	}

	switch {
	case buys == 0 && sells == 0:
		if target.Perms.AllowBuy && target.Bid.Quantity > 0 {
			actions = append(actions, place(target.Ticker, target.Bid))
		}
		if target.Perms.AllowSell && target.Ask.Quantity > 0 {
			actions = append(actions, place(target.Ticker, target.Ask))
		}
	case buys == 1 && sells == 1:
	default:
		clear(st.OrderAge)
		return []Action{{Kind: ActionCancelAll, Reason: ReasonPairBroken}}
	}

	for _, a := range actions {
		if a.Kind == ActionCancel {
			delete(st.OrderAge, a.OrderID)
		}
	}
	return actions
}

func (r Reconciler) side(ticker string, existing *domain.RestingOrder, want domain.Quote, allowed bool) []Action {
	wanted := allowed && want.Quantity > 0
	if existing == nil {
		if wanted {
			return []Action{place(ticker, want)}
		}
		return nil
	}
	if !wanted {
		return []Action{cancel(*existing, ReasonRisk)}
	}
	// Only price drift triggers a requote.
	if math.Abs(existing.Price-want.Price) >= r.cfg.RequoteTolerance-priceEpsilon {
		return []Action{cancel(*existing, ReasonRequote), place(ticker, want)}
	}
	return nil
}

// pruneAges forgets orders that are no longer open.
func (r Reconciler) pruneAges(st *State, open []domain.RestingOrder) {
	live := make(map[domain.OrderID]struct{}, len(open))
	for _, o := range open {
		live[o.ID] = struct{}{}
	}
	for id := range st.OrderAge {
		if _, ok := live[id]; !ok {
			delete(st.OrderAge, id)
		}
	}
}

// Execute performs actions in order. Failed cancels and places are logged
// and skipped; ErrAuth aborts immediately. A side whose cancel failed gets no
// new order this tick, so it never holds two. Newly placed ids are registered
// in st.OrderAge at tick.
func (r Reconciler) Execute(ctx context.Context, gw ports.OrderGateway, st *State, tick int, actions []Action) (Outcome, error) {
	var out Outcome
	type sideKey struct {
		ticker string
		side   domain.Side
	}
	blocked := make(map[sideKey]bool)
	for _, a := range actions {
		switch a.Kind {
		case ActionCancelAll:
			if err := gw.CancelAll(ctx); err != nil {
				if errors.Is(err, domain.ErrAuth) {
					return out, fmt.Errorf("strategy.Execute: cancel all: %w", err)
				}
				slog.Warn("reconcile: cancel all failed", "tick", tick, "err", err)
				out.Failed++
				continue
			}
			clear(st.OrderAge)
			out.Cancelled++
			slog.Info("reconcile: cancelled all", "tick", tick, "reason", a.Reason)

		case ActionCancel:
			if err := gw.Cancel(ctx, a.OrderID); err != nil {
				if errors.Is(err, domain.ErrAuth) {
					return out, fmt.Errorf("strategy.Execute: cancel %d: %w", a.OrderID, err)
				}
				slog.Warn("reconcile: cancel failed", "tick", tick, "order_id", a.OrderID, "err", err)
				blocked[sideKey{a.Ticker, a.Side}] = true
				out.Failed++
				continue
			}
			out.Cancelled++
			slog.Debug("reconcile: cancelled", "tick", tick, "order_id", a.OrderID, "reason", a.Reason)

		case ActionPlace:
			if blocked[sideKey{a.Ticker, a.Quote.Side}] {
				slog.Warn("reconcile: place skipped, cancel on side failed",
					"tick", tick, "ticker", a.Ticker, "side", a.Quote.Side)
				continue
			}
			id, err := gw.PlaceLimit(ctx, a.Ticker, a.Quote.Side, a.Quote.Quantity, a.Quote.Price)
			if err != nil {
				if errors.Is(err, domain.ErrAuth) {
					return out, fmt.Errorf("strategy.Execute: place %s: %w", a.Quote.Side, err)
				}
				slog.Warn("reconcile: place failed",
					"tick", tick, "ticker", a.Ticker, "side", a.Quote.Side, "err", err)
				out.Failed++
				continue
			}
			st.OrderAge[id] = tick
			out.Placed++
			slog.Debug("reconcile: placed",
				"tick", tick, "ticker", a.Ticker, "side", a.Quote.Side,
				"price", a.Quote.Price, "qty", a.Quote.Quantity, "order_id", id)
		}
	}
	return out, nil
}

func cancel(o domain.RestingOrder, reason CancelReason) Action {
	return Action{Kind: ActionCancel, OrderID: o.ID, Reason: reason, Ticker: o.Ticker, Side: o.Side}
}

func place(ticker string, q domain.Quote) Action {
	return Action{Kind: ActionPlace, Ticker: ticker, Quote: q}
}

// splitBest returns the best order by better(price) and the rest. Ties keep
// the lower id.
func splitBest(orders []domain.RestingOrder, better func(a, b float64) bool) (*domain.RestingOrder, []domain.RestingOrder) {
	if len(orders) == 0 {
		return nil, nil
	}
	best := 0
	for i := 1; i < len(orders); i++ {
		if better(orders[i].Price, orders[best].Price) {
			best = i
		}
	}
	keep := orders[best]
	rest := make([]domain.RestingOrder, 0, len(orders)-1)
	rest = append(rest, orders[:best]...)
	rest = append(rest, orders[best+1:]...)
	return &keep, rest
}

func sortedByID(open []domain.RestingOrder) []domain.RestingOrder {
	out := make([]domain.RestingOrder, len(open))
	copy(out, open)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
