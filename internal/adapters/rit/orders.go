package rit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/ritmaker/internal/domain"
)

// PlaceLimit envía una orden LIMIT. El precio se redondea a la precisión del
// caso antes de enviarlo.
func (c *Client) PlaceLimit(ctx context.Context, ticker string, side domain.Side, quantity int, price float64) (domain.OrderID, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("rit.PlaceLimit: quantity %d must be positive", quantity)
	}
	q := url.Values{
		"ticker":   {ticker},
		"type":     {"LIMIT"},
		"quantity": {strconv.Itoa(quantity)},
		"action":   {string(side)},
		"price":    {c.formatPrice(price)},
	}
	body, err := c.post(ctx, "/v1/orders", q)
	if err != nil {
		return 0, fmt.Errorf("rit.PlaceLimit %s %s: %w", side, ticker, err)
	}
	id, err := parseOrderID(body)
	if err != nil {
		return 0, fmt.Errorf("rit.PlaceLimit %s %s: %w", side, ticker, err)
	}
	return id, nil
}

// Cancel cancela una orden. No espera confirmación del matching engine.
func (c *Client) Cancel(ctx context.Context, id domain.OrderID) error {
	q := url.Values{"id": {strconv.FormatInt(int64(id), 10)}}
	if _, err := c.post(ctx, "/v1/commands/cancel", q); err != nil {
		return fmt.Errorf("rit.Cancel %d: %w", id, err)
	}
	return nil
}

// CancelAll cancela todas las órdenes abiertas de la sesión.
func (c *Client) CancelAll(ctx context.Context) error {
	if _, err := c.post(ctx, "/v1/commands/cancel", url.Values{"all": {"1"}}); err != nil {
		return fmt.Errorf("rit.CancelAll: %w", err)
	}
	return nil
}

func (c *Client) formatPrice(price float64) string {
	return decimal.NewFromFloat(price).Round(c.priceDecimals).StringFixed(c.priceDecimals)
}
