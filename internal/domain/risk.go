package domain

// RiskLimits son los límites de inventario de una ejecución. Inmutables.
// Un límite <= 0 se considera desactivado.
type RiskLimits struct {
	MaxLong   int // exposición long máxima por ticker
	MaxShort  int // exposición short máxima por ticker (valor positivo)
	MaxGross  int // Σ|pos| de todo el portfolio
	MaxNet    int // |Σ pos| de todo el portfolio
	PerTicker map[string]TickerLimits
}

// TickerLimits permite afinar los caps de un ticker concreto.
type TickerLimits struct {
	MaxLong  int
	MaxShort int
}

// LongCap devuelve el cap long efectivo para el ticker (el más restrictivo).
func (l RiskLimits) LongCap(ticker string) int {
	return tighter(l.MaxLong, l.PerTicker[ticker].MaxLong)
}

// ShortCap devuelve el cap short efectivo para el ticker (el más restrictivo).
func (l RiskLimits) ShortCap(ticker string) int {
	return tighter(l.MaxShort, l.PerTicker[ticker].MaxShort)
}

func tighter(a, b int) int {
	switch {
	case a <= 0:
		return b
	case b <= 0:
		return a
	}
	return min(a, b)
}
