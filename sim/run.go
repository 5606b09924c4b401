// The Run API: the sole boundary consumed by the orchestration layer.

package sim

import (
	"fmt"

	"github.com/urllc-sim/urllc-sim/sim/eventlog"
)

// defaultSINRFloorDB is the floor applied when the config leaves it unset.
const defaultSINRFloorDB = 5.0

// Run executes one simulation for (config, seed) and returns its aggregated
// result. Results are bit-reproducible per (config, seed). sink may be nil
// (no event stream); collector may be nil (no Prometheus surface).
func Run(cfg *SimConfig, seed int64, sink eventlog.Sink, collector *Collector) (*RunResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	policy, err := NewPolicy(cfg.SchedulingPolicy, PolicyParams{
		Quantum:          cfg.Policy.Quantum,
		UrgencyThreshold: cfg.Policy.UrgencyThreshold,
		Epsilon:          cfg.Policy.Epsilon,
	})
	if err != nil {
		return nil, err
	}

	rng := NewPartitionedRNG(NewSimulationKey(seed))
	channel := newChannelModel(&cfg.Channel)
	station := NewBaseStation(cfg.NumResourceBlocks, cfg.Block.Subcarriers, cfg.Block.SlotDuration, policy, cfg.Channel.SINRThresholdDB)
	if cfg.Policy.ReentryPenalty > 0 {
		station.ReentryPenalty = cfg.Policy.ReentryPenalty
	}
	devices := buildDevices(&cfg.Devices, rng)

	s := NewSimulator(cfg.SimDuration, rng, channel, station, devices, sink)
	s.Collector = collector

	if err := s.Start(); err != nil {
		return nil, err
	}

	// Final AoI observation so devices idle at the end still report staleness.
	for _, dev := range devices {
		dev.ObserveAoI(s.Clock)
	}

	result := BuildRunResult(seed, devices, cfg.SimDuration)
	emitSummaries(s, result)
	if s.sinkErr != nil {
		return nil, s.sinkErr
	}
	return result, nil
}

// newChannelModel translates the channel config into the model, resolving
// the SINR floor convention (nil = 5.0 dB default, negative disables).
func newChannelModel(cc *ChannelConfig) *ChannelModel {
	ch := &ChannelModel{
		TxPowerDBm:            cc.TxPowerDBm,
		NoisePowerDBmHz:       cc.NoisePowerDBmHz,
		NoiseBandwidthHz:      cc.NoiseBandwidthHz,
		BasePathLossExponent:  cc.PathLossExponent,
		TimeVarying:           cc.TimeVarying,
		VariationPeriod:       cc.VariationPeriod,
		VariationAmplitude:    cc.VariationAmplitude,
		SubcarrierBandwidthHz: cc.SubcarrierBandwidthHz,
		MaxDataRate:           cc.MaxDataRate,
		InterferenceRate:      cc.InterferenceRate,
		InterferenceMinDBm:    cc.InterferenceMinDBm,
		InterferenceMaxDBm:    cc.InterferenceMaxDBm,
		BurstDuration:         cc.BurstDuration,
		BaselineInterference:  cc.BaselineDBm,
		InterferenceDBm:       cc.BaselineDBm,
	}
	switch {
	case cc.SINRFloorDB == nil:
		ch.SINRFloorDB = defaultSINRFloorDB
	case *cc.SINRFloorDB < 0:
		ch.FloorDisabled = true
	default:
		ch.SINRFloorDB = *cc.SINRFloorDB
	}
	return ch
}

// buildDevices instantiates the device population. Homogeneous populations
// draw location and priority from the placement RNG stream; heterogeneous
// classes fix priority per class and draw only placement.
func buildDevices(dc *DeviceConfig, rng *PartitionedRNG) []*Device {
	placement := rng.ForSubsystem(SubsystemPlacement)
	var devices []*Device

	if len(dc.Classes) == 0 {
		for i := 0; i < dc.Count; i++ {
			location := dc.LocationMinM + placement.Float64()*(dc.LocationMaxM-dc.LocationMinM)
			priority := dc.PriorityLevels[placement.Intn(len(dc.PriorityLevels))]
			devices = append(devices, NewDevice(i, location, dc.ArrivalRate, dc.PacketSizeBits,
				priority, dc.MaxLatency, rng.ForSubsystem(SubsystemDevice(i))))
		}
		return devices
	}

	id := 0
	for _, cls := range dc.Classes {
		locMin, locMax := cls.LocationMinM, cls.LocationMaxM
		if locMax == 0 {
			locMin, locMax = dc.LocationMinM, dc.LocationMaxM
		}
		for i := 0; i < cls.Count; i++ {
			location := locMin + placement.Float64()*(locMax-locMin)
			devices = append(devices, NewDevice(id, location, cls.ArrivalRate, cls.PacketSizeBits,
				cls.Priority, cls.MaxLatency, rng.ForSubsystem(SubsystemDevice(id))))
			id++
		}
	}
	return devices
}

// emitSummaries forwards the per-device and run-wide summary records that
// close out the event log.
func emitSummaries(s *Simulator, res *RunResult) {
	for _, ds := range res.PerDevice {
		s.recordEvent(s.Clock, ds.DeviceID, -1, EventDeviceSummary, map[string]float64{
			MetricLatency:           ds.AvgLatency,
			MetricPercentileLatency: ds.P99Latency,
			MetricThroughput:        ds.Throughput,
			MetricReliability:       ds.Reliability,
			MetricAoI:               ds.AoI,
		})
	}
	s.recordEvent(s.Clock, -1, -1, EventRunSummary, map[string]float64{
		MetricLatency:           res.AvgLatency,
		MetricPercentileLatency: res.P99Latency,
		MetricThroughput:        res.TotalThroughput,
		MetricReliability:       res.Reliability,
		MetricAoI:               res.AvgAoI,
		MetricFairness:          res.FairnessIndex,
	})
}
