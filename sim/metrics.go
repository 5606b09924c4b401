// Aggregates per-device counters into the RunResult consumed by the
// orchestration layer.

package sim

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DeviceStats is the per-device slice of a RunResult.
type DeviceStats struct {
	DeviceID       int
	PacketsSent    int
	PacketsDropped int
	AvgLatency     float64
	P99Latency     float64
	Throughput     float64 // bits delivered / simulation duration
	Reliability    float64 // fraction of sent packets with latency <= max_latency
	AoI            float64 // final Age of Information
}

// RunResult is the sole boundary exposed to the external orchestration and
// plotting layer.
type RunResult struct {
	Seed             int64
	AvgLatency       float64
	P99Latency       float64
	TotalThroughput  float64
	Reliability      float64
	DeadlineMissRate float64
	AvgAoI           float64
	FairnessIndex    float64
	PerDevice        []DeviceStats
}

// minSamplesForP99 guards the per-device percentile: a p99 over fewer
// samples is noise, report zero instead.
const minSamplesForP99 = 10

// BuildRunResult folds device counters into run-level statistics. All
// zero-valued denominators yield explicit zero results, never a division
// fault.
func BuildRunResult(seed int64, devices []*Device, duration float64) *RunResult {
	res := &RunResult{Seed: seed, PerDevice: make([]DeviceStats, 0, len(devices))}
	if len(devices) == 0 {
		return res
	}

	var totalSent, totalDropped int
	var sumAvgLatency, sumReliability, sumAoI float64
	p99s := make([]float64, 0, len(devices))

	for _, dev := range devices {
		ds := DeviceStats{
			DeviceID:       dev.ID,
			PacketsSent:    dev.PacketsSent,
			PacketsDropped: dev.PacketsDropped,
			AoI:            dev.AoI,
		}
		if len(dev.Latencies) > 0 {
			ds.AvgLatency = stat.Mean(dev.Latencies, nil)
		}
		ds.P99Latency = percentile99(dev.Latencies)
		if duration > 0 {
			ds.Throughput = float64(dev.PacketsSent) * dev.PacketSizeBits / duration
		}
		if dev.PacketsSent > 0 {
			reliable := 0
			for _, lat := range dev.Latencies {
				if lat <= dev.MaxLatency {
					reliable++
				}
			}
			ds.Reliability = float64(reliable) / float64(dev.PacketsSent)
		}
		res.PerDevice = append(res.PerDevice, ds)

		totalSent += dev.PacketsSent
		totalDropped += dev.PacketsDropped
		sumAvgLatency += ds.AvgLatency
		sumReliability += ds.Reliability
		sumAoI += ds.AoI
		res.TotalThroughput += ds.Throughput
		p99s = append(p99s, ds.P99Latency)
	}

	n := float64(len(devices))
	res.AvgLatency = sumAvgLatency / n
	res.Reliability = sumReliability / n
	res.AvgAoI = sumAoI / n
	res.P99Latency = quantile99(p99s)
	if total := totalSent + totalDropped; total > 0 {
		res.DeadlineMissRate = float64(totalDropped) / float64(total)
	}

	throughputs := make([]float64, len(res.PerDevice))
	for i, ds := range res.PerDevice {
		throughputs[i] = ds.Throughput
	}
	res.FairnessIndex = JainFairness(throughputs)
	return res
}

// percentile99 computes the 99th percentile over a copy of the samples,
// or 0 with fewer than minSamplesForP99 samples. The minimum-sample rule
// applies to per-device histories only; the run-level fold over per-device
// p99s uses quantile99 directly.
func percentile99(samples []float64) float64 {
	if len(samples) < minSamplesForP99 {
		return 0
	}
	return quantile99(samples)
}

func quantile99(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	return stat.Quantile(0.99, stat.Empirical, sorted, nil)
}

// JainFairness computes Jain's fairness index (Σx)² / (n·Σx²) over
// per-device throughputs. In [1/n, 1] for non-negative inputs; 0 when the
// denominator vanishes.
func JainFairness(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum, sumSq float64
	for _, x := range xs {
		sum += x
		sumSq += x * x
	}
	denom := float64(len(xs)) * sumSq
	if denom == 0 {
		return 0
	}
	return sum * sum / denom
}

// Print displays the aggregated run metrics.
func (r *RunResult) Print() {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Seed                 : %d\n", r.Seed)
	fmt.Printf("Average Latency      : %.6f s\n", r.AvgLatency)
	fmt.Printf("99th pct Latency     : %.6f s\n", r.P99Latency)
	fmt.Printf("Total Throughput     : %.2f bit/s\n", r.TotalThroughput)
	fmt.Printf("Reliability          : %.6f\n", r.Reliability)
	fmt.Printf("Deadline Miss Rate   : %.6f\n", r.DeadlineMissRate)
	fmt.Printf("Average AoI          : %.6f s\n", r.AvgAoI)
	fmt.Printf("Fairness Index       : %.6f\n", r.FairnessIndex)
}
