package domain

import "errors"

// Taxonomía de errores de las llamadas externas.
var (
	// ErrAuth: la API key no coincide con la del cliente. Fatal, nunca se reintenta.
	ErrAuth = errors.New("authentication failed")

	// ErrDataUnavailable: el simulador no devolvió histórico donde se requería un valor.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrMalformedResponse: falta un campo esperado o la respuesta tiene otra forma.
	ErrMalformedResponse = errors.New("malformed response")
)
