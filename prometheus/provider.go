// Package prometheus exports Monitor events as Prometheus metrics.
package prometheus

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zoobzio/vigil"
)

const namespace = "vigil"

// Outcome label values of vigil_cycles_total.
const (
	OutcomeSucceeded      = "succeeded"
	OutcomeParseFailed    = "parse_failed"
	OutcomeValidateFailed = "validation_failed"
)

// Provider implements vigil.MetricsProvider with Prometheus collectors.
type Provider struct {
	cycles     *prom.CounterVec
	duration   *prom.HistogramVec
	state      *prom.GaugeVec
	promotions *prom.CounterVec
}

// NewProvider constructs the collectors and registers them on reg. A nil reg
// gets a fresh registry, reachable through Handler.
func NewProvider(reg *prom.Registry) (*Provider, *prom.Registry) {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	p := &Provider{
		cycles: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Monitor cycles by outcome",
		}, []string{"outcome"}),
		duration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of monitor cycles",
			Buckets:   prom.DefBuckets,
		}, []string{"outcome"}),
		state: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "Current monitor health state (1 for the active state)",
		}, []string{"state"}),
		promotions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "promotions_total",
			Help:      "Promotions of source to current, by whether changes remained",
		}, []string{"changes"}),
	}
	reg.MustRegister(p.cycles, p.duration, p.state, p.promotions)
	p.setState(vigil.StateLoading)
	return p, reg
}

// Handler serves the metrics registered on reg.
func Handler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// OnStateChange implements vigil.MetricsProvider.
func (p *Provider) OnStateChange(_, to vigil.State) {
	p.setState(to)
}

// OnCycleSuccess implements vigil.MetricsProvider.
func (p *Provider) OnCycleSuccess(d time.Duration) {
	p.observe(OutcomeSucceeded, d)
}

// OnCycleFailure implements vigil.MetricsProvider.
func (p *Provider) OnCycleFailure(stage string, d time.Duration) {
	outcome := OutcomeParseFailed
	if stage == vigil.StageValidate {
		outcome = OutcomeValidateFailed
	}
	p.observe(outcome, d)
}

// OnPromote implements vigil.MetricsProvider.
func (p *Provider) OnPromote(changes bool) {
	if p == nil {
		return
	}
	p.promotions.WithLabelValues(strconv.FormatBool(changes)).Inc()
}

func (p *Provider) observe(outcome string, d time.Duration) {
	if p == nil {
		return
	}
	p.cycles.WithLabelValues(outcome).Inc()
	p.duration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (p *Provider) setState(active vigil.State) {
	if p == nil {
		return
	}
	for _, s := range []vigil.State{vigil.StateLoading, vigil.StateHealthy, vigil.StateDegraded, vigil.StateEmpty} {
		v := 0.0
		if s == active {
			v = 1
		}
		p.state.WithLabelValues(s.String()).Set(v)
	}
}

var _ vigil.MetricsProvider = (*Provider)(nil)
