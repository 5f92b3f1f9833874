package domain

// Phase es la fase de sizing del arranque: warmup → ramp → normal.
type Phase int

const (
	PhaseWarmup Phase = iota
	PhaseRamp
	PhaseNormal
)

// String devuelve el nombre de la fase tal y como aparece en los logs.
func (p Phase) String() string {
	switch p {
	case PhaseWarmup:
		return "warmup"
	case PhaseRamp:
		return "ramp"
	case PhaseNormal:
		return "normal"
	default:
		return "unknown"
	}
}
