package sim

import "github.com/sirupsen/logrus"

// Event defines the interface for all simulation events.
// Each event has a Time (in simulated seconds) and an Execute method
// that advances simulation state when invoked.
type Event interface {
	Time() float64
	Execute(*Simulator)
}

// PacketArrivalEvent fires when a device's Poisson process emits a packet.
// Executing it creates the packet, arms its deadline guard, hands it to the
// base station, and schedules the device's next arrival.
type PacketArrivalEvent struct {
	time   float64
	Device *Device
}

func (e *PacketArrivalEvent) Time() float64 {
	return e.time
}

func (e *PacketArrivalEvent) Execute(sim *Simulator) {
	pkt := sim.newPacket(e.Device, e.time)
	logrus.Debugf("<< Arrival: packet %d from device %d at %.6fs", pkt.ID, e.Device.ID, e.time)

	sim.recordEvent(e.time, e.Device.ID, pkt.ID, EventGenerated, nil)
	if sim.Collector != nil {
		sim.Collector.PacketsGenerated.Inc()
	}

	// Deadline guard: armed before dispatch so the race exists even when the
	// packet is immediately allocated a block.
	sim.Schedule(&DeadlineEvent{time: pkt.Deadline, Device: e.Device, Packet: pkt})

	sim.Station.Dispatch(sim, e.Device, pkt)

	// Next arrival for this device.
	next := e.time + e.Device.NextInterArrival()
	if next <= sim.Horizon {
		sim.Schedule(&PacketArrivalEvent{time: next, Device: e.Device})
	}
}

// DeadlineEvent is the loser-cancelling guard of the transmission-vs-deadline
// race. If the packet already reached a terminal state the guard is disarmed.
// Tie-break rule: a transmission whose committed finish time equals the
// deadline wins the race, so the guard defers to it and lets the completion
// event classify the packet.
type DeadlineEvent struct {
	time   float64
	Device *Device
	Packet *Packet
}

func (e *DeadlineEvent) Time() float64 {
	return e.time
}

func (e *DeadlineEvent) Execute(sim *Simulator) {
	if e.Packet.Terminal() {
		return // transmission completed first, guard disarmed
	}
	if h := sim.Station.handleFor(e.Packet); h != nil && h.FinishTime <= e.time {
		// Completion scheduled at exactly the deadline instant: completion wins.
		return
	}
	if !e.Packet.MarkDropped() {
		return
	}
	// If the packet is still waiting, pull it out of the waiting set. If it is
	// in flight the binding is abandoned; release will see the terminal state
	// and not double-record.
	sim.Station.abandon(e.Packet)

	latency := e.time - e.Packet.CreationTime
	e.Device.RecordMetrics(sim.Clock, e.Packet, latency, false)
	sim.recordEvent(e.time, e.Device.ID, e.Packet.ID, EventDroppedDeadline, map[string]float64{
		MetricLatency: latency,
	})
	if sim.Collector != nil {
		sim.Collector.PacketsDropped.Inc()
	}
	logrus.Debugf("<< Deadline: device %d dropped packet %d at %.6fs", e.Device.ID, e.Packet.ID, e.time)
}

// CompletionEvent fires when a transmission (or a round-robin quantum slice
// of one) finishes its committed airtime. A completion whose handle is no
// longer bound to its block is stale — the transmission was preempted — and
// executes as a no-op.
type CompletionEvent struct {
	time    float64
	BlockID int
	Handle  *TransmissionHandle
}

func (e *CompletionEvent) Time() float64 {
	return e.time
}

func (e *CompletionEvent) Execute(sim *Simulator) {
	if !sim.Station.bound(e.BlockID, e.Handle) {
		return // preempted before completion; the requeue path owns the packet now
	}
	sim.Station.Release(sim, e.BlockID, e.Handle)
}

// RequeueEvent re-dispatches a preempted packet after the fixed re-entry
// penalty delay. The packet keeps its original deadline.
type RequeueEvent struct {
	time   float64
	Device *Device
	Packet *Packet
}

func (e *RequeueEvent) Time() float64 {
	return e.time
}

func (e *RequeueEvent) Execute(sim *Simulator) {
	if e.Packet.Terminal() {
		return // deadline fired during the penalty window
	}
	sim.Station.Dispatch(sim, e.Device, e.Packet)
}

// InterferenceBurstEvent raises the channel interference level for a bounded
// duration and refreshes the recorded SINR of occupied resource blocks.
// Committed transmission durations are never altered.
type InterferenceBurstEvent struct {
	time float64
}

func (e *InterferenceBurstEvent) Time() float64 {
	return e.time
}

func (e *InterferenceBurstEvent) Execute(sim *Simulator) {
	ch := sim.Channel
	rng := sim.RNG.ForSubsystem(SubsystemChannel)

	level := ch.beginBurst(rng)
	sim.Schedule(&interferenceClearEvent{time: e.time + ch.BurstDuration, generation: ch.burstGeneration})

	for _, rb := range sim.Station.Blocks {
		h := sim.Station.Active[rb.ID]
		if h == nil {
			continue
		}
		dev := sim.Device(h.DeviceID)
		rb.CurrentSINR = ch.SINRdB(dev.Location, e.time)
		sim.recordEvent(e.time, -1, -1, EventInterference, map[string]float64{
			MetricSINR: rb.CurrentSINR,
		})
	}
	logrus.Debugf("<< Interference burst: %.2f dBm at %.6fs", level, e.time)

	next := e.time + ch.nextBurstInterval(rng)
	if next <= sim.Horizon {
		sim.Schedule(&InterferenceBurstEvent{time: next})
	}
}

// interferenceClearEvent reverts the interference level to its baseline once
// the burst duration elapses, unless a newer burst superseded this one.
type interferenceClearEvent struct {
	time       float64
	generation uint64
}

func (e *interferenceClearEvent) Time() float64 {
	return e.time
}

func (e *interferenceClearEvent) Execute(sim *Simulator) {
	sim.Channel.endBurst(e.generation)
}
