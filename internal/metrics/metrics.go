// internal/metrics/metrics.go
package metrics

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamzrod/uhf-replicator/internal/driver"
	"github.com/tamzrod/uhf-replicator/internal/protocol"
)

const namespace = "uhf"

// Collector holds the reader metrics. It implements driver.Observer.
type Collector struct {
	frames    *prometheus.CounterVec
	bytes     *prometheus.CounterVec
	exchanges *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	tags      *prometheus.CounterVec
	rounds    *prometheus.CounterVec
	up        *prometheus.GaugeVec
}

var _ driver.Observer = (*Collector)(nil)

// New creates the collector and registers it with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "wire", Name: "frames_total",
			Help: "Frames sent and received.",
		}, []string{"reader", "dir"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "wire", Name: "bytes_total",
			Help: "Frame bytes sent and received.",
		}, []string{"reader", "dir"}),
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "command", Name: "exchanges_total",
			Help: "Command/reply exchanges by opcode and result.",
		}, []string{"reader", "op", "result"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "command", Name: "errors_total",
			Help: "Failed exchanges by error code.",
		}, []string{"reader", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "command", Name: "duration_seconds",
			Help:    "Exchange duration in seconds.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"reader", "op"}),
		tags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "inventory", Name: "tags_total",
			Help: "Distinct tags reported per inventory round, summed.",
		}, []string{"reader"}),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "inventory", Name: "rounds_total",
			Help: "Inventory rounds by result.",
		}, []string{"reader", "result"}),
		up: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "reader_up",
			Help: "1 when the last round of the reader succeeded.",
		}, []string{"reader"}),
	}
	for _, col := range []prometheus.Collector{c.frames, c.bytes, c.exchanges, c.errors, c.latency, c.tags, c.rounds, c.up} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	return c, nil
}

func (c *Collector) ObserveFrame(ev driver.FrameEvent) {
	dir := ev.Dir.String()
	c.frames.WithLabelValues(ev.Reader, dir).Inc()
	c.bytes.WithLabelValues(ev.Reader, dir).Add(float64(len(ev.Data)))
}

func (c *Collector) ObserveExchange(ev driver.ExchangeEvent) {
	op := ev.Family.OpcodeName(ev.Opcode)
	result := "ok"
	if ev.Err != nil {
		result = "error"
		c.errors.WithLabelValues(ev.Reader, codeLabel(protocol.ErrorCode(ev.Err))).Inc()
	}
	c.exchanges.WithLabelValues(ev.Reader, op, result).Inc()
	c.latency.WithLabelValues(ev.Reader, op).Observe(ev.Duration.Seconds())
}

// Round records one inventory round of reader.
func (c *Collector) Round(reader string, tags int, err error) {
	if err != nil {
		c.rounds.WithLabelValues(reader, "error").Inc()
		c.up.WithLabelValues(reader).Set(0)
		return
	}
	c.rounds.WithLabelValues(reader, "ok").Inc()
	c.tags.WithLabelValues(reader).Add(float64(tags))
	c.up.WithLabelValues(reader).Set(1)
}

func codeLabel(code uint16) string {
	return "0x" + strconv.FormatUint(uint64(code), 16)
}

// Handler serves g in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
