package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJainFairness_EqualSharesAreFair(t *testing.T) {
	assert.InDelta(t, 1.0, JainFairness([]float64{100, 100, 100, 100}), 1e-12)
}

func TestJainFairness_SingleHogIsUnfair(t *testing.T) {
	// One device getting everything bottoms the index out at 1/n.
	assert.InDelta(t, 0.25, JainFairness([]float64{400, 0, 0, 0}), 1e-12)
}

func TestJainFairness_DegenerateInputs(t *testing.T) {
	assert.Zero(t, JainFairness(nil))
	assert.Zero(t, JainFairness([]float64{0, 0, 0}))
}

func TestPercentile99_RequiresMinimumSamples(t *testing.T) {
	few := []float64{0.001, 0.002, 0.003}
	assert.Zero(t, percentile99(few))

	ten := make([]float64, 0, minSamplesForP99)
	for i := 1; i <= minSamplesForP99; i++ {
		ten = append(ten, float64(i)*0.001)
	}
	assert.InDelta(t, 0.010, percentile99(ten), 1e-12)
}

func TestPercentile99_DoesNotMutateInput(t *testing.T) {
	samples := []float64{0.010, 0.001, 0.005, 0.002, 0.009, 0.003, 0.008, 0.004, 0.007, 0.006}
	percentile99(samples)
	assert.Equal(t, 0.010, samples[0])
}

func metricsTestDevice(id int) *Device {
	return NewDevice(id, 50, 10, 1000, 1, 0.002, rand.New(rand.NewSource(int64(id)+1)))
}

func TestBuildRunResult_FoldsDeviceCounters(t *testing.T) {
	d0 := metricsTestDevice(0)
	d0.PacketsSent = 2
	d0.Latencies = []float64{0.001, 0.003}
	d0.AoI = 0.1

	d1 := metricsTestDevice(1)
	d1.PacketsDropped = 2
	d1.AoI = 0.4

	res := BuildRunResult(42, []*Device{d0, d1}, 1.0)

	require.Len(t, res.PerDevice, 2)
	assert.Equal(t, int64(42), res.Seed)
	assert.InDelta(t, 0.002, res.PerDevice[0].AvgLatency, 1e-12)
	assert.InDelta(t, 2000.0, res.PerDevice[0].Throughput, 1e-9)
	// One of the two delivered packets beat the 2 ms budget.
	assert.InDelta(t, 0.5, res.PerDevice[0].Reliability, 1e-12)
	assert.Zero(t, res.PerDevice[1].Throughput)
	assert.Zero(t, res.PerDevice[1].Reliability)

	assert.InDelta(t, 0.001, res.AvgLatency, 1e-12)
	assert.InDelta(t, 0.25, res.Reliability, 1e-12)
	assert.InDelta(t, 0.25, res.AvgAoI, 1e-12)
	assert.InDelta(t, 2000.0, res.TotalThroughput, 1e-9)
	assert.InDelta(t, 0.5, res.DeadlineMissRate, 1e-12)
	// Throughputs [2000, 0]: (2000)^2 / (2 * 2000^2).
	assert.InDelta(t, 0.5, res.FairnessIndex, 1e-12)
}

func TestBuildRunResult_RunP99SkipsMinimumSampleRule(t *testing.T) {
	// A single device with enough history: the run-level p99 folds the
	// per-device p99s even when there are fewer than ten devices.
	d := metricsTestDevice(0)
	d.PacketsSent = minSamplesForP99
	for i := 1; i <= minSamplesForP99; i++ {
		d.Latencies = append(d.Latencies, float64(i)*0.001)
	}

	res := BuildRunResult(1, []*Device{d}, 1.0)
	assert.InDelta(t, 0.010, res.PerDevice[0].P99Latency, 1e-12)
	assert.InDelta(t, 0.010, res.P99Latency, 1e-12)
}

func TestBuildRunResult_NoDevices(t *testing.T) {
	res := BuildRunResult(7, nil, 1.0)
	assert.Equal(t, int64(7), res.Seed)
	assert.Empty(t, res.PerDevice)
	assert.Zero(t, res.AvgLatency)
	assert.Zero(t, res.FairnessIndex)
}

func TestBuildRunResult_ZeroDuration(t *testing.T) {
	d := metricsTestDevice(0)
	d.PacketsSent = 5
	res := BuildRunResult(1, []*Device{d}, 0)
	assert.Zero(t, res.TotalThroughput)
}
