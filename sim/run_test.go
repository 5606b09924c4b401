package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urllc-sim/urllc-sim/sim/eventlog"
)

// runTestConfig keeps the end-to-end runs short but busy enough to exercise
// arrivals, queueing, preemption and drops.
func runTestConfig(policy string) *SimConfig {
	cfg := DefaultConfig()
	cfg.SchedulingPolicy = policy
	cfg.SimDuration = 0.5
	cfg.NumResourceBlocks = 2
	cfg.Devices.Count = 4
	cfg.Devices.ArrivalRate = 50
	cfg.Devices.PacketSizeBits = 10240
	cfg.Devices.MaxLatency = 0.005
	return cfg
}

func TestRun_SmokeAcrossAllPolicies(t *testing.T) {
	for name := range ValidSchedulingPolicies {
		t.Run(name, func(t *testing.T) {
			res, err := Run(runTestConfig(name), 42, nil, nil)
			require.NoError(t, err)
			require.Len(t, res.PerDevice, 4)
			assert.Equal(t, int64(42), res.Seed)
			assert.GreaterOrEqual(t, res.Reliability, 0.0)
			assert.LessOrEqual(t, res.Reliability, 1.0)
			assert.GreaterOrEqual(t, res.DeadlineMissRate, 0.0)
			assert.LessOrEqual(t, res.DeadlineMissRate, 1.0)
			if res.FairnessIndex > 0 {
				assert.GreaterOrEqual(t, res.FairnessIndex, 0.25) // 1/n lower bound
				assert.LessOrEqual(t, res.FairnessIndex, 1.0+1e-12)
			}
		})
	}
}

func TestRun_DeterministicPerSeed(t *testing.T) {
	a, err := Run(runTestConfig("preemptive"), 42, nil, nil)
	require.NoError(t, err)
	b, err := Run(runTestConfig("preemptive"), 42, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	sinkA := &eventlog.MemorySink{}
	_, err = Run(runTestConfig("preemptive"), 42, sinkA, nil)
	require.NoError(t, err)
	sinkB := &eventlog.MemorySink{}
	_, err = Run(runTestConfig("preemptive"), 42, sinkB, nil)
	require.NoError(t, err)
	assert.Equal(t, sinkA.Records, sinkB.Records)
}

func TestRun_DifferentSeedsDiverge(t *testing.T) {
	a, err := Run(runTestConfig("preemptive"), 1, nil, nil)
	require.NoError(t, err)
	b, err := Run(runTestConfig("preemptive"), 2, nil, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.PerDevice, b.PerDevice)
}

func TestRun_EveryPacketClassifiedAtMostOnce(t *testing.T) {
	sink := &eventlog.MemorySink{}
	res, err := Run(runTestConfig("round-robin"), 42, sink, nil)
	require.NoError(t, err)

	generated := len(sink.ByEvent(EventGenerated))
	require.Greater(t, generated, 0)

	// A packet is sent or dropped, never both. Packets still pending at the
	// horizon carry no terminal record at all.
	terminal := make(map[int64]string)
	for _, rec := range sink.Records {
		switch rec.Event {
		case EventTransmissionEnd, EventDropped, EventDroppedDeadline:
			prev, seen := terminal[rec.PacketID]
			assert.Falsef(t, seen, "packet %d classified twice: %s then %s", rec.PacketID, prev, rec.Event)
			terminal[rec.PacketID] = rec.Event
		}
	}
	assert.LessOrEqual(t, len(terminal), generated)

	var sent, dropped int
	for _, ds := range res.PerDevice {
		sent += ds.PacketsSent
		dropped += ds.PacketsDropped
	}
	assert.Equal(t, len(terminal), sent+dropped)
}

func TestRun_RejectsInvalidConfig(t *testing.T) {
	cfg := runTestConfig("preemptive")
	cfg.NumResourceBlocks = 0
	_, err := Run(cfg, 42, nil, nil)
	assert.Error(t, err)
}

func TestRun_EmitsSummaryRecords(t *testing.T) {
	sink := &eventlog.MemorySink{}
	_, err := Run(runTestConfig("edf"), 42, sink, nil)
	require.NoError(t, err)

	assert.Len(t, sink.ByEvent(EventDeviceSummary), 4)
	runRecs := sink.ByEvent(EventRunSummary)
	require.Len(t, runRecs, 1)
	assert.Contains(t, runRecs[0].Metrics, MetricFairness)
}

func TestNewChannelModel_FloorConvention(t *testing.T) {
	cc := &ChannelConfig{}
	assert.Equal(t, defaultSINRFloorDB, newChannelModel(cc).SINRFloorDB)

	floor := 2.5
	cc = &ChannelConfig{SINRFloorDB: &floor}
	assert.Equal(t, 2.5, newChannelModel(cc).SINRFloorDB)

	disabled := -1.0
	cc = &ChannelConfig{SINRFloorDB: &disabled}
	assert.True(t, newChannelModel(cc).FloorDisabled)
}

func TestBuildDevices_Homogeneous(t *testing.T) {
	dc := &DeviceConfig{
		Count: 10, ArrivalRate: 10, PacketSizeBits: 1024, MaxLatency: 0.001,
		PriorityLevels: []int{1, 2, 3}, LocationMinM: 10, LocationMaxM: 100,
	}
	devices := buildDevices(dc, NewPartitionedRNG(NewSimulationKey(42)))
	require.Len(t, devices, 10)
	for i, dev := range devices {
		assert.Equal(t, i, dev.ID)
		assert.GreaterOrEqual(t, dev.Location, 10.0)
		assert.LessOrEqual(t, dev.Location, 100.0)
		assert.Contains(t, []int{1, 2, 3}, dev.StaticPriority)
	}

	// Same key, same placement.
	again := buildDevices(dc, NewPartitionedRNG(NewSimulationKey(42)))
	for i := range devices {
		assert.Equal(t, devices[i].Location, again[i].Location)
		assert.Equal(t, devices[i].StaticPriority, again[i].StaticPriority)
	}
}

func TestBuildDevices_ClassesInheritPlacementRange(t *testing.T) {
	dc := &DeviceConfig{
		LocationMinM: 10, LocationMaxM: 100,
		Classes: []DeviceClass{
			{Count: 2, ArrivalRate: 10, PacketSizeBits: 1024, Priority: 1, MaxLatency: 0.001, LocationMinM: 200, LocationMaxM: 300},
			{Count: 3, ArrivalRate: 5, PacketSizeBits: 2048, Priority: 3, MaxLatency: 0.01},
		},
	}
	devices := buildDevices(dc, NewPartitionedRNG(NewSimulationKey(1)))
	require.Len(t, devices, 5)

	for _, dev := range devices[:2] {
		assert.Equal(t, 1, dev.StaticPriority)
		assert.GreaterOrEqual(t, dev.Location, 200.0)
		assert.LessOrEqual(t, dev.Location, 300.0)
	}
	for _, dev := range devices[2:] {
		assert.Equal(t, 3, dev.StaticPriority)
		assert.GreaterOrEqual(t, dev.Location, 10.0)
		assert.LessOrEqual(t, dev.Location, 100.0)
	}
}
