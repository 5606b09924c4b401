package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDevice_RecordMetrics_Success(t *testing.T) {
	d := NewDevice(0, 50, 10, 1000, 1, 0.01, rand.New(rand.NewSource(1)))
	p := NewPacket(1, 0, 2.0, 1000, 1, 0.01)

	d.RecordMetrics(2.001, p, 0.001, true)

	assert.Equal(t, 1, d.PacketsSent)
	assert.Equal(t, 0, d.PacketsDropped)
	assert.Equal(t, []float64{0.001}, d.Latencies)
	assert.Equal(t, 2.0, d.LastUpdateTime)
	// AoI reset against creation time, then aged to now.
	assert.InDelta(t, 0.001, d.AoI, 1e-12)
	assert.InDelta(t, 1e6, d.AvgThroughput(), 1e-6)
}

func TestDevice_RecordMetrics_Failure(t *testing.T) {
	d := NewDevice(0, 50, 10, 1000, 1, 0.01, rand.New(rand.NewSource(1)))
	p := NewPacket(1, 0, 0, 1000, 1, 0.01)

	d.RecordMetrics(0.5, p, 0, false)

	assert.Equal(t, 0, d.PacketsSent)
	assert.Equal(t, 1, d.PacketsDropped)
	assert.Empty(t, d.Latencies)
	assert.Zero(t, d.AvgThroughput())
	// A drop never refreshes the device; its data keeps aging.
	assert.InDelta(t, 0.5, d.AoI, 1e-12)
}

func TestDevice_ThroughputUsesOriginalSize(t *testing.T) {
	// A fragmented packet carries its full original size into the
	// throughput sample even though SizeBits has been whittled down.
	d := NewDevice(0, 50, 10, 2500, 1, 0.01, rand.New(rand.NewSource(1)))
	p := NewPacket(1, 0, 0, 2500, 1, 0.01)
	p.SizeBits = 500

	d.RecordMetrics(0.0025, p, 0.0025, true)
	assert.InDelta(t, 1e6, d.AvgThroughput(), 1e-6)
}

func TestDevice_ObserveAoI_Monotonic(t *testing.T) {
	d := NewDevice(0, 50, 10, 1000, 1, 0.01, rand.New(rand.NewSource(1)))

	assert.InDelta(t, 0.3, d.ObserveAoI(0.3), 1e-12)
	// Observing an earlier instant never rolls AoI back.
	assert.InDelta(t, 0.3, d.ObserveAoI(0.2), 1e-12)
	assert.InDelta(t, 0.7, d.ObserveAoI(0.7), 1e-12)
}

func TestDevice_NextInterArrival_Clamped(t *testing.T) {
	// An absurdly high rate forces every draw below the lower clamp.
	fast := NewDevice(0, 50, 1e12, 1000, 1, 0.01, rand.New(rand.NewSource(7)))
	for i := 0; i < 100; i++ {
		assert.Equal(t, minInterArrival, fast.NextInterArrival())
	}

	// An absurdly low rate pushes draws against the upper clamp; either way
	// the result stays inside the window.
	slow := NewDevice(1, 50, 1e-9, 1000, 1, 0.01, rand.New(rand.NewSource(7)))
	for i := 0; i < 100; i++ {
		delay := slow.NextInterArrival()
		assert.GreaterOrEqual(t, delay, minInterArrival)
		assert.LessOrEqual(t, delay, maxInterArrival)
	}
}

func TestDevice_NextInterArrival_Deterministic(t *testing.T) {
	a := NewDevice(0, 50, 10, 1000, 1, 0.01, rand.New(rand.NewSource(42)))
	b := NewDevice(0, 50, 10, 1000, 1, 0.01, rand.New(rand.NewSource(42)))
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.NextInterArrival(), b.NextInterArrival())
	}
}

func TestDevice_AvgThroughput_RollingMean(t *testing.T) {
	d := NewDevice(0, 50, 10, 1000, 1, 0.01, rand.New(rand.NewSource(1)))
	p := NewPacket(1, 0, 0, 1000, 1, 0.01)

	d.RecordMetrics(0.001, p, 0.001, true) // 1e6 bit/s
	d.RecordMetrics(0.003, p, 0.002, true) // 5e5 bit/s
	assert.InDelta(t, 7.5e5, d.AvgThroughput(), 1e-6)
}
