// Models a URLLC device: Poisson traffic generation and per-device metric
// accounting (latency history, throughput samples, Age of Information).

package sim

import (
	"math/rand"
)

// Inter-arrival clamp bounds. Exponential draws outside this window are
// degenerate for a latency-critical workload (zero delays collapse the event
// queue onto one instant, huge delays silence a device for a whole run).
const (
	minInterArrival = 1e-6
	maxInterArrival = 1e3
)

// Device represents a traffic source at a fixed distance from the base
// station. Created at simulation start and never destroyed mid-run; mutated
// only by its own generation process and the base station's completion path.
type Device struct {
	ID             int
	Location       float64 // Distance to the base station in meters
	ArrivalRate    float64 // Packets per second (Poisson)
	PacketSizeBits float64
	StaticPriority int     // Lower = more urgent
	MaxLatency     float64 // Per-packet deadline budget in seconds

	PacketsSent    int
	PacketsDropped int
	Latencies      []float64
	// ThroughputSamples holds size/latency of each completed transmission,
	// in bit/s. The rolling mean feeds the proportional-fair dispatch key.
	ThroughputSamples []float64
	throughputSum     float64

	AoI            float64 // Age of Information in seconds
	LastUpdateTime float64 // Creation time of the most recent delivered packet

	rng *rand.Rand
}

// NewDevice creates a device with its own deterministic traffic RNG stream.
func NewDevice(id int, location, arrivalRate, packetSizeBits float64, priority int, maxLatency float64, rng *rand.Rand) *Device {
	return &Device{
		ID:             id,
		Location:       location,
		ArrivalRate:    arrivalRate,
		PacketSizeBits: packetSizeBits,
		StaticPriority: priority,
		MaxLatency:     maxLatency,
		rng:            rng,
	}
}

// NextInterArrival draws the exponential wait until this device's next
// packet, clamped to sane bounds.
func (d *Device) NextInterArrival() float64 {
	delay := d.rng.ExpFloat64() / d.ArrivalRate
	if delay < minInterArrival {
		delay = minInterArrival
	}
	if delay > maxInterArrival {
		delay = maxInterArrival
	}
	return delay
}

// RecordMetrics commits the terminal outcome of one packet. On success the
// latency and a throughput sample are appended and AoI resets against the
// packet's creation time; on failure only the drop counter moves. Callers
// guarantee exactly-once invocation per packet via Packet.MarkSent/MarkDropped.
func (d *Device) RecordMetrics(now float64, p *Packet, latency float64, success bool) {
	if success {
		d.PacketsSent++
		d.Latencies = append(d.Latencies, latency)
		d.LastUpdateTime = p.CreationTime
		d.AoI = 0.0
		var throughput float64
		if latency > 0 {
			throughput = p.OriginalBits / latency
		}
		d.ThroughputSamples = append(d.ThroughputSamples, throughput)
		d.throughputSum += throughput
	} else {
		d.PacketsDropped++
	}
	// Staleness of queued or in-flight data keeps aging regardless of outcome.
	d.ObserveAoI(now)
}

// ObserveAoI advances AoI to reflect time elapsed since the last delivered
// update and returns the new value.
func (d *Device) ObserveAoI(now float64) float64 {
	if age := now - d.LastUpdateTime; age > d.AoI {
		d.AoI = age
	}
	return d.AoI
}

// AvgThroughput is the rolling average over completed transmissions, used by
// the proportional-fair policy. Zero when nothing has completed yet.
func (d *Device) AvgThroughput() float64 {
	if len(d.ThroughputSamples) == 0 {
		return 0
	}
	return d.throughputSum / float64(len(d.ThroughputSamples))
}
