package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alejandrodnm/ritmaker/internal/domain"
)

// Recorder implementa ports.Reporter publicando cada tick como métricas
// Prometheus. Usa su propio registry para no depender del global.
type Recorder struct {
	registry  *prometheus.Registry
	ticks     *prometheus.CounterVec
	orders    *prometheus.CounterVec
	cancels   prometheus.Counter
	fills     prometheus.Counter
	position  *prometheus.GaugeVec
	quoteSize *prometheus.GaugeVec
	spread    prometheus.Gauge
	lastTick  prometheus.Gauge
}

// NewRecorder crea y registra las métricas.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "ritmaker_ticks_total", Help: "Ticks processed by outcome (quoted or skip reason)"},
			[]string{"outcome"},
		),
		orders: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "ritmaker_orders_placed_total", Help: "Limit orders placed"},
			[]string{"ticker"},
		),
		cancels: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "ritmaker_orders_cancelled_total", Help: "Cancel requests sent"},
		),
		fills: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "ritmaker_fill_ticks_total", Help: "Ticks on which a fill was detected"},
		),
		position: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "ritmaker_position", Help: "Signed position of the traded ticker"},
			[]string{"ticker"},
		),
		quoteSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "ritmaker_quote_size", Help: "Quoted size per side (0 when the side is blocked)"},
			[]string{"side"},
		),
		spread: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "ritmaker_market_spread", Help: "Top-of-book spread of the traded ticker"},
		),
		lastTick: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "ritmaker_tick", Help: "Last processed tick"},
		),
	}
	r.registry.MustRegister(r.ticks, r.orders, r.cancels, r.fills, r.position, r.quoteSize, r.spread, r.lastTick)
	return r
}

// Registry expone el registry (tests y handlers externos).
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ReportTick actualiza las métricas con el resultado del tick.
func (r *Recorder) ReportTick(_ context.Context, t domain.TickReport) {
	r.lastTick.Set(float64(t.Tick))

	if t.Skipped() {
		r.ticks.WithLabelValues(string(t.Skip)).Inc()
		return
	}
	r.ticks.WithLabelValues("quoted").Inc()

	r.orders.WithLabelValues(t.Ticker).Add(float64(t.Placed))
	r.cancels.Add(float64(t.Cancelled))
	if t.Filled {
		r.fills.Inc()
	}
	r.position.WithLabelValues(t.Ticker).Set(float64(t.Position))
	r.spread.Set(t.BestAsk - t.BestBid)

	bidQty, askQty := 0, 0
	if t.AllowBuy {
		bidQty = t.BidQty
	}
	if t.AllowSell {
		askQty = t.AskQty
	}
	r.quoteSize.WithLabelValues(string(domain.SideBuy)).Set(float64(bidQty))
	r.quoteSize.WithLabelValues(string(domain.SideSell)).Set(float64(askQty))
}

// Handler devuelve el handler HTTP de /metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve expone /metrics en addr hasta que ctx se cancela.
func (r *Recorder) Serve(ctx context.Context, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("metrics: server stopped", "addr", addr, "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	return srv
}
