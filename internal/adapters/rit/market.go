package rit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/alejandrodnm/ritmaker/internal/domain"
)

// CurrentTick devuelve el tick del caso en curso.
func (c *Client) CurrentTick(ctx context.Context) (int, error) {
	body, err := c.get(ctx, "/v1/case", nil)
	if err != nil {
		return 0, fmt.Errorf("rit.CurrentTick: %w", err)
	}
	var raw caseResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, fmt.Errorf("rit.CurrentTick: %w: %v", domain.ErrMalformedResponse, err)
	}
	if raw.Tick == nil {
		return 0, fmt.Errorf("rit.CurrentTick: %w: missing tick", domain.ErrMalformedResponse)
	}
	return *raw.Tick, nil
}

// OrderBook devuelve el book del ticker con los niveles ordenados.
// Un book vacío no es error.
func (c *Client) OrderBook(ctx context.Context, ticker string) (domain.OrderBook, error) {
	body, err := c.get(ctx, "/v1/securities/book", url.Values{"ticker": {ticker}})
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("rit.OrderBook %s: %w", ticker, err)
	}
	var raw bookResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.OrderBook{}, fmt.Errorf("rit.OrderBook %s: %w: %v", ticker, domain.ErrMalformedResponse, err)
	}
	ob, err := mapBook(ticker, raw)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("rit.OrderBook %s: %w", ticker, err)
	}
	return ob, nil
}

// LastClose devuelve el último cierre. Sin histórico → ErrDataUnavailable.
func (c *Client) LastClose(ctx context.Context, ticker string) (float64, error) {
	body, err := c.get(ctx, "/v1/securities/history", url.Values{"ticker": {ticker}, "limit": {"1"}})
	if err != nil {
		return 0, fmt.Errorf("rit.LastClose %s: %w", ticker, err)
	}
	var raw []historyEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, fmt.Errorf("rit.LastClose %s: %w: %v", ticker, domain.ErrMalformedResponse, err)
	}
	if len(raw) == 0 {
		return 0, fmt.Errorf("rit.LastClose %s: %w", ticker, domain.ErrDataUnavailable)
	}
	if raw[0].Close == nil {
		return 0, fmt.Errorf("rit.LastClose %s: %w: missing close", ticker, domain.ErrMalformedResponse)
	}
	return *raw[0].Close, nil
}

// Position devuelve la posición firmada en el ticker (0 si no aparece).
func (c *Client) Position(ctx context.Context, ticker string) (int, error) {
	body, err := c.get(ctx, "/v1/securities", url.Values{"ticker": {ticker}})
	if err != nil {
		return 0, fmt.Errorf("rit.Position %s: %w", ticker, err)
	}
	positions, err := parseSecurities(body, ticker)
	if err != nil {
		return 0, fmt.Errorf("rit.Position %s: %w", ticker, err)
	}
	return positions[ticker], nil
}

// AllPositions devuelve las posiciones de todos los securities del caso.
func (c *Client) AllPositions(ctx context.Context) (domain.Positions, error) {
	body, err := c.get(ctx, "/v1/securities", nil)
	if err != nil {
		return nil, fmt.Errorf("rit.AllPositions: %w", err)
	}
	positions, err := parseSecurities(body, "")
	if err != nil {
		return nil, fmt.Errorf("rit.AllPositions: %w", err)
	}
	return positions, nil
}

// Orders lista las órdenes propias con el status dado.
func (c *Client) Orders(ctx context.Context, status domain.OrderStatus) ([]domain.RestingOrder, error) {
	body, err := c.get(ctx, "/v1/orders", url.Values{"status": {string(status)}})
	if err != nil {
		return nil, fmt.Errorf("rit.Orders %s: %w", status, err)
	}
	var raw []orderDTO
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("rit.Orders %s: %w: %v", status, domain.ErrMalformedResponse, err)
	}
	orders, err := mapOrders(raw)
	if err != nil {
		return nil, fmt.Errorf("rit.Orders %s: %w", status, err)
	}
	return orders, nil
}

// TransactedCount cuenta las órdenes ejecutadas en la sesión.
func (c *Client) TransactedCount(ctx context.Context) (int, error) {
	orders, err := c.Orders(ctx, domain.StatusTransacted)
	if err != nil {
		return 0, err
	}
	return len(orders), nil
}
