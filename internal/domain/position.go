package domain

// Positions mapea ticker → posición firmada (long > 0, short < 0).
type Positions map[string]int

// Gross devuelve Σ|posición| sobre todos los tickers.
func (p Positions) Gross() int {
	total := 0
	for _, v := range p {
		if v < 0 {
			total -= v
		} else {
			total += v
		}
	}
	return total
}

// Net devuelve Σ posición sobre todos los tickers.
func (p Positions) Net() int {
	total := 0
	for _, v := range p {
		total += v
	}
	return total
}
