package rit

import (
	"fmt"
	"math"

	"github.com/tidwall/gjson"

	"github.com/alejandrodnm/ritmaker/internal/domain"
)

// mapBook convierte la respuesta de /securities/book a domain.OrderBook.
// Los niveles sin cantidad pendiente se descartan.
func mapBook(ticker string, raw bookResponse) (domain.OrderBook, error) {
	bids, err := mapLevels(raw.Bids)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("bids: %w", err)
	}
	asks, err := mapLevels(raw.Asks)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("asks: %w", err)
	}
	ob := domain.OrderBook{Ticker: ticker, Bids: bids, Asks: asks}
	ob.SortLevels()
	return ob, nil
}

func mapLevels(raw []bookLevel) ([]domain.BookEntry, error) {
	entries := make([]domain.BookEntry, 0, len(raw))
	for i, r := range raw {
		if r.Price == nil {
			return nil, fmt.Errorf("%w: level %d has no price", domain.ErrMalformedResponse, i)
		}
		remaining := int(math.Round(r.Quantity - r.QuantityFilled))
		if remaining <= 0 || *r.Price <= 0 {
			continue
		}
		entries = append(entries, domain.BookEntry{Price: *r.Price, Quantity: remaining})
	}
	return entries, nil
}

// mapOrders convierte el listado de /orders. Una orden sin id o con un lado
// desconocido invalida toda la respuesta.
func mapOrders(raw []orderDTO) ([]domain.RestingOrder, error) {
	orders := make([]domain.RestingOrder, 0, len(raw))
	for i, r := range raw {
		id := r.OrderID
		if id == nil {
			id = r.ID
		}
		if id == nil {
			return nil, fmt.Errorf("%w: order %d has neither order_id nor id", domain.ErrMalformedResponse, i)
		}
		side, err := domain.ParseSide(r.Action)
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", *id, err)
		}
		price := 0.0
		if r.Price != nil {
			price = *r.Price
		}
		orders = append(orders, domain.RestingOrder{
			ID:       domain.OrderID(*id),
			Ticker:   r.Ticker,
			Side:     side,
			Price:    price,
			Quantity: int(math.Round(r.Quantity - r.QuantityFilled)),
		})
	}
	return orders, nil
}

// parseSecurities lee /securities, que según la versión del cliente devuelve
// una lista o un único objeto. position ausente vale 0; ticker es obligatorio
// salvo en la forma de objeto único, donde se usa fallback.
func parseSecurities(body []byte, fallback string) (domain.Positions, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: securities: invalid JSON", domain.ErrMalformedResponse)
	}
	root := gjson.ParseBytes(body)
	positions := make(domain.Positions)

	switch {
	case root.IsArray():
		var err error
		root.ForEach(func(_, item gjson.Result) bool {
			ticker := item.Get("ticker")
			if !item.IsObject() || ticker.Type != gjson.String {
				err = fmt.Errorf("%w: security without ticker: %s", domain.ErrMalformedResponse, item.Raw)
				return false
			}
			positions[ticker.String()] = int(math.Round(item.Get("position").Float()))
			return true
		})
		if err != nil {
			return nil, err
		}
	case root.IsObject():
		ticker := root.Get("ticker").String()
		if ticker == "" {
			ticker = fallback
		}
		if ticker == "" {
			return nil, fmt.Errorf("%w: security object without ticker", domain.ErrMalformedResponse)
		}
		positions[ticker] = int(math.Round(root.Get("position").Float()))
	default:
		return nil, fmt.Errorf("%w: securities: unexpected %s", domain.ErrMalformedResponse, root.Type)
	}
	return positions, nil
}

// parseOrderID lee el id devuelto por POST /orders (order_id o id).
func parseOrderID(body []byte) (domain.OrderID, error) {
	for _, key := range []string{"order_id", "id"} {
		if v := gjson.GetBytes(body, key); v.Type == gjson.Number {
			return domain.OrderID(v.Int()), nil
		}
	}
	return 0, fmt.Errorf("%w: order response without id: %s", domain.ErrMalformedResponse, string(body))
}
