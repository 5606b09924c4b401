// sim/simulator.go
package sim

import (
	"container/heap"

	"github.com/sirupsen/logrus"

	"github.com/urllc-sim/urllc-sim/sim/eventlog"
)

// scheduledEvent pairs an Event with the sequence number assigned when it was
// scheduled. The sequence is the deterministic FIFO tie-break for events that
// share a timestamp: at equal simulated time, earlier-scheduled runs first.
// This holds across preemption and requeue paths so Monte-Carlo replay is
// reproducible per (config, seed).
type scheduledEvent struct {
	ev  Event
	seq uint64
}

// EventQueue implements heap.Interface and orders events by (time, sequence).
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue []scheduledEvent

func (eq EventQueue) Len() int { return len(eq) }
func (eq EventQueue) Less(i, j int) bool {
	if eq[i].ev.Time() != eq[j].ev.Time() {
		return eq[i].ev.Time() < eq[j].ev.Time()
	}
	return eq[i].seq < eq[j].seq
}
func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(scheduledEvent))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}

// Simulator is the core object that holds simulation time, system state, and
// the event loop. Single-threaded and cooperative: all mutation happens
// synchronously inside event execution, so atomicity is a property of the
// loop, not of synchronization primitives.
type Simulator struct {
	Clock   float64
	Horizon float64

	EventQueue EventQueue
	seq        uint64

	RNG     *PartitionedRNG
	Channel *ChannelModel
	Station *BaseStation
	Devices []*Device

	// Sink receives the append-only event stream. Never read back.
	Sink eventlog.Sink
	// Collector is the optional Prometheus surface; nil disables it.
	Collector *Collector

	nextPacketID int64
	sinkErr      error
}

// NewSimulator wires the simulation entities together. The caller seeds the
// event queue with initial arrivals and the interference process via Start.
func NewSimulator(horizon float64, rng *PartitionedRNG, channel *ChannelModel, station *BaseStation, devices []*Device, sink eventlog.Sink) *Simulator {
	if sink == nil {
		sink = eventlog.NopSink{}
	}
	return &Simulator{
		Horizon:    horizon,
		EventQueue: make(EventQueue, 0),
		RNG:        rng,
		Channel:    channel,
		Station:    station,
		Devices:    devices,
		Sink:       sink,
	}
}

// Schedule pushes an event into the simulator's event queue, stamping it with
// the next sequence number.
func (sim *Simulator) Schedule(ev Event) {
	sim.seq++
	heap.Push(&sim.EventQueue, scheduledEvent{ev: ev, seq: sim.seq})
}

// Start arms each device's first arrival and the interference background
// process, then runs the event loop to the horizon.
func (sim *Simulator) Start() error {
	for _, dev := range sim.Devices {
		first := dev.NextInterArrival()
		if first <= sim.Horizon {
			sim.Schedule(&PacketArrivalEvent{time: first, Device: dev})
		}
	}
	if sim.Channel.InterferenceRate > 0 {
		first := sim.Channel.nextBurstInterval(sim.RNG.ForSubsystem(SubsystemChannel))
		if first <= sim.Horizon {
			sim.Schedule(&InterferenceBurstEvent{time: first})
		}
	}
	return sim.Run()
}

// Run drains the event queue in (time, sequence) order until the horizon is
// reached or no events remain.
func (sim *Simulator) Run() error {
	for len(sim.EventQueue) > 0 {
		item := heap.Pop(&sim.EventQueue).(scheduledEvent)
		if item.ev.Time() > sim.Horizon {
			break
		}
		// advance the clock
		sim.Clock = item.ev.Time()
		logrus.Debugf("[t %.6f] Executing %T", sim.Clock, item.ev)
		item.ev.Execute(sim)
		if sim.sinkErr != nil {
			// Sink I/O failures are fatal to the run, but committed device
			// counters are left intact for inspection.
			return sim.sinkErr
		}
	}
	if sim.Clock > sim.Horizon {
		sim.Clock = sim.Horizon
	}
	logrus.Debugf("[t %.6f] Simulation ended", sim.Clock)
	return nil
}

// Device resolves a device id to its entity. Panics on unknown ids: handles
// only ever carry ids minted from sim.Devices.
func (sim *Simulator) Device(id int) *Device {
	if id < 0 || id >= len(sim.Devices) {
		panic("sim: unknown device id")
	}
	return sim.Devices[id]
}

// newPacket mints the next packet for a device. IDs are sequential so runs
// are replayable and log lines are stable across seeds of the same config.
func (sim *Simulator) newPacket(dev *Device, now float64) *Packet {
	sim.nextPacketID++
	return NewPacket(sim.nextPacketID, dev.ID, now, dev.PacketSizeBits, dev.StaticPriority, dev.MaxLatency)
}

// recordEvent forwards one record to the sink. The first sink error stops the
// run; in-memory metrics already committed are not rolled back.
func (sim *Simulator) recordEvent(now float64, deviceID int, packetID int64, event string, metrics map[string]float64) {
	if sim.sinkErr != nil {
		return
	}
	rec := eventlog.Record{
		Time:     now,
		DeviceID: deviceID,
		PacketID: packetID,
		Event:    event,
		Metrics:  metrics,
	}
	if err := sim.Sink.Record(rec); err != nil {
		logrus.Errorf("event sink failed at %.6fs: %v", now, err)
		sim.sinkErr = err
	}
}

// Event tags emitted to the sink, one per lifecycle transition.
const (
	EventGenerated         = "generated"
	EventRequest           = "request"
	EventTransmissionStart = "transmission_start"
	EventTransmissionEnd   = "transmission_end"
	EventPreempted         = "preempted"
	EventDropped           = "dropped"
	EventDroppedDeadline   = "dropped_deadline"
	EventInterference      = "interference"
	EventDeviceSummary     = "device_summary"
	EventRunSummary        = "simulation_summary"
)

// Metric field names used in sink records.
const (
	MetricLatency           = "latency"
	MetricPercentileLatency = "percentile_latency"
	MetricThroughput        = "throughput"
	MetricReliability       = "reliability"
	MetricAoI               = "aoi"
	MetricSINR              = "sinr"
	MetricFairness          = "fairness"
	MetricDataRate          = "data_rate"
)
