package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Modos de ejecución.
const (
	ModeLive  = "live"
	ModePaper = "paper"
)

// Config es la configuración completa del market maker.
type Config struct {
	Mode     string         `yaml:"mode"` // live | paper
	API      APIConfig      `yaml:"api"`
	Strategy StrategyConfig `yaml:"strategy"`
	Risk     RiskConfig     `yaml:"risk"`
	Sizing   SizingConfig   `yaml:"sizing"`
	Paper    PaperConfig    `yaml:"paper"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// APIConfig describe la conexión al cliente RIT.
type APIConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKey            string  `yaml:"api_key"` // normalmente vía RIT_API_KEY en .env
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	MaxRetries        int     `yaml:"max_retries"` // 0 = cualquier error de transporte es fatal
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	PriceDecimals     int32   `yaml:"price_decimals"`
}

// StrategyConfig controla precios, ventana de ticks y reconciliación.
type StrategyConfig struct {
	Variant     string   `yaml:"variant"` // basic | target | liquidity
	Tickers     []string `yaml:"tickers"`
	StartTick   int      `yaml:"start_tick"` // inclusivo
	EndTick     int      `yaml:"end_tick"`   // exclusivo
	SleepMillis int      `yaml:"sleep_ms"`

	MinEdge          float64 `yaml:"min_edge"`
	SkewK            float64 `yaml:"skew_k"`
	RequoteTolerance float64 `yaml:"requote_tolerance"`
	MinMarketSpread  float64 `yaml:"min_market_spread"`
	// OrderTTL en ticks. Sin valor toma el de la variante; 0 = sin expiración.
	OrderTTL *int `yaml:"order_ttl_ticks"`

	// Refinamiento anti-cruce.
	Refine       bool    `yaml:"refine"`
	BuyPremium   float64 `yaml:"buy_premium"`
	SellDiscount float64 `yaml:"sell_discount"`
	Cushion      float64 `yaml:"price_cushion"`

	// Variante basic: last close ± BasicSpread.
	BasicSpread float64 `yaml:"basic_spread"`
}

// RiskConfig son los límites de inventario. 0 desactiva el límite.
type RiskConfig struct {
	MaxLong   int                   `yaml:"max_long"`
	MaxShort  int                   `yaml:"max_short"`
	MaxGross  int                   `yaml:"max_gross"`
	MaxNet    int                   `yaml:"max_net"`
	PerTicker map[string]TickerRisk `yaml:"per_ticker"`
}

// TickerRisk sobreescribe los límites para un ticker concreto.
type TickerRisk struct {
	MaxLong  int `yaml:"max_long"`
	MaxShort int `yaml:"max_short"`
}

// SizingConfig controla el tamaño de las órdenes.
type SizingConfig struct {
	Model   string `yaml:"model"` // fixed | target | liquidity
	BaseQty int    `yaml:"base_qty"`
	MinQty  int    `yaml:"min_qty"`
	MaxQty  int    `yaml:"max_qty"`

	SoftPosition  int     `yaml:"soft_position"`
	HardPosition  int     `yaml:"hard_position"`
	InventoryTilt float64 `yaml:"inventory_tilt"`

	FillSignal     string  `yaml:"fill_signal"`   // position | transacted
	FillResponse   string  `yaml:"fill_response"` // size | spread
	NoFillTicks    int     `yaml:"no_fill_ticks"`
	UpFactor       float64 `yaml:"up_factor"`
	DownFactor     float64 `yaml:"down_factor"`
	WidenFactor    float64 `yaml:"widen_factor"`
	TightenFactor  float64 `yaml:"tighten_factor"`
	MinSpreadScale float64 `yaml:"min_spread_scale"`
	MaxSpreadScale float64 `yaml:"max_spread_scale"`

	LiquidityTarget int `yaml:"liquidity_target"`

	WarmupTicks    int     `yaml:"warmup_ticks"`
	RampTicks      int     `yaml:"ramp_ticks"`
	WarmupScale    float64 `yaml:"warmup_scale"`
	RampStartScale float64 `yaml:"ramp_start_scale"`
}

// PaperConfig parametriza el exchange simulado en memoria.
type PaperConfig struct {
	Seed       int64   `yaml:"seed"`
	StartPrice float64 `yaml:"start_price"`
	Spread     float64 `yaml:"spread"`
	Volatility float64 `yaml:"volatility"`
	Depth      int     `yaml:"depth"`
	StartTick  int     `yaml:"start_tick"`
}

// StorageConfig controla el journal de ticks.
type StorageConfig struct {
	DSN      string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
	Disabled bool   `yaml:"disabled"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// MetricsConfig expone métricas Prometheus si Addr no está vacío.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Si el YAML no existe se usan los defaults. Las variables de entorno
// sobreescriben el YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// SleepInterval devuelve la pausa entre ticks como time.Duration.
func (c *Config) SleepInterval() time.Duration {
	return time.Duration(c.Strategy.SleepMillis) * time.Millisecond
}

// Timeout devuelve el timeout HTTP del cliente.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// TTL devuelve el TTL de órdenes en ticks; 0 si no hay expiración.
func (s StrategyConfig) TTL() int {
	if s.OrderTTL == nil {
		return 0
	}
	return *s.OrderTTL
}

// Validate rechaza combinaciones incoherentes.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeLive, ModePaper:
	default:
		return fmt.Errorf("validate: unknown mode %q", c.Mode)
	}
	switch c.Strategy.Variant {
	case "basic", "target", "liquidity":
	default:
		return fmt.Errorf("validate: unknown variant %q", c.Strategy.Variant)
	}
	switch c.Sizing.Model {
	case "fixed", "target", "liquidity":
	default:
		return fmt.Errorf("validate: unknown sizing model %q", c.Sizing.Model)
	}
	switch c.Sizing.FillSignal {
	case "position", "transacted":
	default:
		return fmt.Errorf("validate: unknown fill signal %q", c.Sizing.FillSignal)
	}
	switch c.Sizing.FillResponse {
	case "size", "spread":
	default:
		return fmt.Errorf("validate: unknown fill response %q", c.Sizing.FillResponse)
	}
	if len(c.Strategy.Tickers) == 0 {
		return errors.New("validate: strategy.tickers is empty")
	}
	if c.Strategy.EndTick <= c.Strategy.StartTick {
		return fmt.Errorf("validate: end_tick %d must be after start_tick %d",
			c.Strategy.EndTick, c.Strategy.StartTick)
	}
	if c.Strategy.TTL() < 0 {
		return fmt.Errorf("validate: order_ttl_ticks %d < 0", c.Strategy.TTL())
	}
	if c.Strategy.Refine && c.Strategy.Cushion <= 0 {
		return errors.New("validate: refine requires price_cushion > 0")
	}
	if c.Sizing.MinQty > c.Sizing.MaxQty {
		return fmt.Errorf("validate: min_qty %d > max_qty %d", c.Sizing.MinQty, c.Sizing.MaxQty)
	}
	if c.Sizing.SoftPosition > c.Sizing.HardPosition {
		return fmt.Errorf("validate: soft_position %d > hard_position %d",
			c.Sizing.SoftPosition, c.Sizing.HardPosition)
	}
	if c.Sizing.MinSpreadScale > c.Sizing.MaxSpreadScale {
		return fmt.Errorf("validate: min_spread_scale %v > max_spread_scale %v",
			c.Sizing.MinSpreadScale, c.Sizing.MaxSpreadScale)
	}
	if c.Mode == ModeLive && c.API.APIKey == "" {
		return errors.New("validate: api key missing (set RIT_API_KEY)")
	}
	return nil
}

// variantPreset son los defaults que cambian según la variante.
type variantPreset struct {
	model           string
	minMarketSpread float64
	orderTTL        int
	refine          bool
	maxLong         int
	maxGross        int
	baseQty         int
	minQty          int
	maxQty          int
	warmupTicks     int
	rampTicks       int
}

var variantDefaults = map[string]variantPreset{
	"basic": {
		model: "fixed", minMarketSpread: 0.02,
		maxLong: 2000,
		baseQty: 500, minQty: 100, maxQty: 500,
	},
	"target": {
		model: "target", minMarketSpread: 0.02,
		maxLong: 2000,
		baseQty: 500, minQty: 100, maxQty: 3000,
	},
	"liquidity": {
		model: "liquidity", minMarketSpread: 0.035, orderTTL: 4, refine: true,
		maxLong: 7500, maxGross: 25000,
		baseQty: 3500, minQty: 1200, maxQty: 6000,
		warmupTicks: 10, rampTicks: 20,
	},
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RIT_API_KEY"); v != "" {
		cfg.API.APIKey = v
	}
	if v := os.Getenv("RIT_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("RIT_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
// Sin YAML, los defaults reproducen la variante de liquidez.
func setDefaults(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = ModeLive
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:9999"
	}
	if cfg.API.RequestsPerSecond <= 0 {
		cfg.API.RequestsPerSecond = 50
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = 5
	}
	if cfg.API.PriceDecimals <= 0 {
		cfg.API.PriceDecimals = 2
	}

	s := &cfg.Strategy
	if s.Variant == "" {
		s.Variant = "liquidity"
	}
	d, ok := variantDefaults[s.Variant]
	if !ok {
		d = variantDefaults["liquidity"]
	}

	if len(s.Tickers) == 0 {
		s.Tickers = []string{"ALGO"}
	}
	if s.StartTick <= 0 {
		s.StartTick = 6
	}
	if s.EndTick <= 0 {
		s.EndTick = 295
	}
	if s.SleepMillis <= 0 {
		s.SleepMillis = 250
	}
	if s.MinEdge <= 0 {
		s.MinEdge = 0.01
	}
	if s.SkewK <= 0 {
		s.SkewK = 0.00001
	}
	if s.RequoteTolerance <= 0 {
		s.RequoteTolerance = 0.01
	}
	if s.MinMarketSpread <= 0 {
		s.MinMarketSpread = d.minMarketSpread
	}
	if s.OrderTTL == nil {
		ttl := d.orderTTL
		s.OrderTTL = &ttl
	}
	// La variante de liquidez siempre refina contra el book.
	if d.refine {
		s.Refine = true
	}
	if s.Refine {
		if s.BuyPremium <= 0 {
			s.BuyPremium = 0.002
		}
		if s.SellDiscount <= 0 {
			s.SellDiscount = 0.002
		}
		if s.Cushion <= 0 {
			s.Cushion = 0.001
		}
	}
	if s.BasicSpread <= 0 {
		s.BasicSpread = 0.02
	}

	r := &cfg.Risk
	if r.MaxLong <= 0 {
		r.MaxLong = d.maxLong
	}
	if r.MaxShort <= 0 {
		r.MaxShort = d.maxLong
	}
	if r.MaxGross <= 0 {
		r.MaxGross = d.maxGross
	}
	if r.MaxNet <= 0 {
		r.MaxNet = d.maxGross
	}

	z := &cfg.Sizing
	if z.Model == "" {
		z.Model = d.model
	}
	if z.FillSignal == "" {
		z.FillSignal = "position"
	}
	if z.FillResponse == "" {
		z.FillResponse = "size"
	}
	if z.BaseQty <= 0 {
		z.BaseQty = d.baseQty
	}
	if z.MinQty <= 0 {
		z.MinQty = d.minQty
	}
	if z.MaxQty <= 0 {
		z.MaxQty = d.maxQty
	}
	if z.HardPosition <= 0 {
		z.HardPosition = r.MaxLong
	}
	if z.SoftPosition <= 0 {
		z.SoftPosition = z.HardPosition / 2
	}
	if z.InventoryTilt <= 0 {
		z.InventoryTilt = 0.2
	}
	if z.NoFillTicks <= 0 {
		z.NoFillTicks = 6
	}
	if z.UpFactor <= 0 {
		z.UpFactor = 1.5
	}
	if z.DownFactor <= 0 {
		z.DownFactor = 0.7
	}
	if z.WidenFactor <= 0 {
		z.WidenFactor = 1.25
	}
	if z.TightenFactor <= 0 {
		z.TightenFactor = 0.9
	}
	if z.MinSpreadScale <= 0 {
		z.MinSpreadScale = 0.5
	}
	if z.MaxSpreadScale <= 0 {
		z.MaxSpreadScale = 3.0
	}
	if z.LiquidityTarget <= 0 {
		z.LiquidityTarget = 3000
	}
	if z.WarmupTicks <= 0 && z.RampTicks <= 0 {
		z.WarmupTicks, z.RampTicks = d.warmupTicks, d.rampTicks
	}
	if z.WarmupScale <= 0 {
		z.WarmupScale = 0.25
	}
	if z.RampStartScale <= 0 {
		z.RampStartScale = 0.4
	}

	if cfg.Paper.StartPrice <= 0 {
		cfg.Paper.StartPrice = 25.0
	}
	if cfg.Paper.Spread <= 0 {
		cfg.Paper.Spread = 0.06
	}
	if cfg.Paper.Volatility <= 0 {
		cfg.Paper.Volatility = 0.02
	}
	if cfg.Paper.Depth <= 0 {
		cfg.Paper.Depth = 3000
	}
	if cfg.Paper.StartTick <= 0 {
		cfg.Paper.StartTick = 1
	}

	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "ritmaker.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
