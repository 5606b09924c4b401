package sim

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes live simulation counters as Prometheus metrics. Optional:
// a nil Collector on the Simulator disables the surface entirely.
type Collector struct {
	PacketsGenerated    prometheus.Counter
	PacketsSent         prometheus.Counter
	PacketsDropped      prometheus.Counter
	PreemptionsTotal    prometheus.Counter
	WaitingDepth        prometheus.Gauge
	ActiveTransmissions prometheus.Gauge
}

// NewCollector registers the simulation metrics against the provided
// registerer. A nil registerer falls back to the Prometheus default.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	generated, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "urllc_packets_generated_total",
		Help: "Cumulative number of packets emitted by all devices.",
	}), "urllc_packets_generated_total")
	if err != nil {
		return nil, err
	}

	sent, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "urllc_packets_sent_total",
		Help: "Cumulative number of packets delivered within their deadline.",
	}), "urllc_packets_sent_total")
	if err != nil {
		return nil, err
	}

	dropped, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "urllc_packets_dropped_total",
		Help: "Cumulative number of packets dropped (deadline miss or channel failure).",
	}), "urllc_packets_dropped_total")
	if err != nil {
		return nil, err
	}

	preemptions, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "urllc_preemptions_total",
		Help: "Cumulative number of in-flight transmissions evicted by the scheduler.",
	}), "urllc_preemptions_total")
	if err != nil {
		return nil, err
	}

	waiting, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "urllc_waiting_packets",
		Help: "Number of packets currently queued for a resource block.",
	}), "urllc_waiting_packets")
	if err != nil {
		return nil, err
	}

	active, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "urllc_active_transmissions",
		Help: "Number of resource blocks currently occupied.",
	}), "urllc_active_transmissions")
	if err != nil {
		return nil, err
	}

	return &Collector{
		PacketsGenerated:    generated,
		PacketsSent:         sent,
		PacketsDropped:      dropped,
		PreemptionsTotal:    preemptions,
		WaitingDepth:        waiting,
		ActiveTransmissions: active,
	}, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
