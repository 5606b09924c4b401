// The base station binds packets to resource blocks under the active
// scheduling policy and manages the waiting set.

package sim

import (
	"github.com/sirupsen/logrus"
)

// BaseStation owns the resource-block arena, the map of in-flight
// transmissions, and the waiting set. Invariants:
//   - len(Active) <= len(Blocks) at all times;
//   - a block id maps to at most one handle, and a block's Occupant is set
//     iff its id is a key of Active.
//
// All mutation happens synchronously inside Dispatch/Release on the
// single-threaded event loop.
type BaseStation struct {
	Blocks  []*ResourceBlock
	Active  map[int]*TransmissionHandle
	Waiting *WaitingSet
	Policy  Policy

	// ReentryPenalty is the fixed delay a preempted packet waits before
	// re-entering dispatch, modelling retransmission overhead.
	ReentryPenalty float64
	// SINRThreshold is the minimum release-time SINR for a completion to
	// count as a success.
	SINRThreshold float64
}

const defaultReentryPenalty = 0.1

// NewBaseStation builds the block arena and installs the policy.
func NewBaseStation(numBlocks, subcarriers int, slotDuration float64, policy Policy, sinrThreshold float64) *BaseStation {
	blocks := make([]*ResourceBlock, numBlocks)
	for i := range blocks {
		blocks[i] = NewResourceBlock(i, subcarriers, slotDuration)
	}
	return &BaseStation{
		Blocks:         blocks,
		Active:         make(map[int]*TransmissionHandle),
		Waiting:        &WaitingSet{},
		Policy:         policy,
		ReentryPenalty: defaultReentryPenalty,
		SINRThreshold:  sinrThreshold,
	}
}

// Dispatch routes one packet: allocate a free block, preempt if the policy
// allows and its predicate holds, or enter the waiting set.
func (bs *BaseStation) Dispatch(sim *Simulator, dev *Device, pkt *Packet) {
	now := sim.Clock
	pkt.DispatchKey = bs.Policy.DispatchKey(dev, pkt, now)
	sim.recordEvent(now, dev.ID, pkt.ID, EventRequest, nil)

	if rb := bs.freeBlock(); rb != nil {
		bs.startTransmission(sim, dev, pkt, rb)
		return
	}

	if pre, ok := bs.Policy.(Preemptor); ok {
		if victimID, ok := pre.SelectVictim(bs, pkt, now); ok {
			bs.preempt(sim, victimID)
			bs.startTransmission(sim, dev, pkt, bs.Blocks[victimID])
			return
		}
	}

	bs.Waiting.Insert(pkt.DispatchKey, dev, pkt)
	if sim.Collector != nil {
		sim.Collector.WaitingDepth.Set(float64(bs.Waiting.Len()))
	}
}

// preempt unbinds the victim block and schedules the evicted packet's
// re-entry after the fixed penalty. The evicted packet keeps its original
// deadline; its stale completion event is neutralized by handle identity.
func (bs *BaseStation) preempt(sim *Simulator, blockID int) {
	h := bs.Active[blockID]
	if h == nil {
		panic("BaseStation.preempt: victim block is free")
	}
	delete(bs.Active, blockID)
	bs.Blocks[blockID].Occupant = nil

	dev := sim.Device(h.DeviceID)
	sim.recordEvent(sim.Clock, dev.ID, h.Packet.ID, EventPreempted, nil)
	if sim.Collector != nil {
		sim.Collector.PreemptionsTotal.Inc()
		sim.Collector.ActiveTransmissions.Set(float64(len(bs.Active)))
	}
	logrus.Debugf("<< Preempt: packet %d evicted from block %d at %.6fs", h.Packet.ID, blockID, sim.Clock)

	sim.Schedule(&RequeueEvent{time: sim.Clock + bs.ReentryPenalty, Device: dev, Packet: h.Packet})
}

// startTransmission binds the packet to a free block, samples the channel,
// commits the airtime, and schedules completion. Round-robin quantum
// slicing happens here: only one quantum of airtime is committed per
// acquisition and the leftover bits ride on the handle.
func (bs *BaseStation) startTransmission(sim *Simulator, dev *Device, pkt *Packet, rb *ResourceBlock) {
	if !rb.Free() {
		panic("BaseStation.startTransmission: block occupied")
	}
	now := sim.Clock
	rb.CurrentSINR = sim.Channel.SINRdB(dev.Location, now)
	rate := sim.Channel.DataRate(rb.CurrentSINR, rb.Subcarriers)
	if scaler, ok := bs.Policy.(RateScaler); ok {
		rate = scaler.ScaleRate(rate, pkt)
	}

	airtime := pkt.SizeBits / rate
	remaining := 0.0
	if qp, ok := bs.Policy.(QuantumPolicy); ok {
		if quantum := qp.Quantum(); airtime > quantum {
			remaining = pkt.SizeBits - rate*quantum
			airtime = quantum
		}
	}

	h := &TransmissionHandle{
		DeviceID:      dev.ID,
		Packet:        pkt,
		StartTime:     now,
		FinishTime:    now + airtime,
		DataRate:      rate,
		RemainingBits: remaining,
	}
	bs.Active[rb.ID] = h
	rb.Occupant = h
	if sim.Collector != nil {
		sim.Collector.ActiveTransmissions.Set(float64(len(bs.Active)))
	}

	sim.recordEvent(now, dev.ID, pkt.ID, EventTransmissionStart, map[string]float64{
		MetricSINR:     rb.CurrentSINR,
		MetricDataRate: rate,
	})
	logrus.Debugf("<< TxStart: packet %d on block %d, rate %.0f bit/s, finish %.6fs", pkt.ID, rb.ID, rate, h.FinishTime)

	sim.Schedule(&CompletionEvent{time: h.FinishTime, BlockID: rb.ID, Handle: h})
}

// Release unbinds the block at the end of a committed airtime, classifies
// the packet, forwards metrics, and re-dispatches from the waiting set.
func (bs *BaseStation) Release(sim *Simulator, blockID int, h *TransmissionHandle) {
	delete(bs.Active, blockID)
	rb := bs.Blocks[blockID]
	rb.Occupant = nil
	if sim.Collector != nil {
		sim.Collector.ActiveTransmissions.Set(float64(len(bs.Active)))
	}

	now := sim.Clock
	dev := sim.Device(h.DeviceID)
	pkt := h.Packet

	switch {
	case h.RemainingBits > 0 && !pkt.Terminal():
		// Round-robin quantum expiry: requeue a continuation fragment at the
		// queue tail. Same id and deadline, reduced size; latency accrues
		// from the original creation time.
		pkt.SizeBits = h.RemainingBits
		pkt.Fragments++
		bs.Waiting.Insert(bs.Policy.DispatchKey(dev, pkt, now), dev, pkt)

	case pkt.Terminal():
		// Deadline guard won the race mid-flight; the drop is already
		// recorded. Releasing the binding is all that is left to do.

	default:
		latency := now - pkt.CreationTime
		success := latency <= pkt.MaxLatency && rb.CurrentSINR >= bs.SINRThreshold
		if success {
			if pkt.MarkSent() {
				dev.RecordMetrics(now, pkt, latency, true)
				sim.recordEvent(now, dev.ID, pkt.ID, EventTransmissionEnd, map[string]float64{
					MetricLatency: latency,
					MetricAoI:     dev.AoI,
					MetricSINR:    rb.CurrentSINR,
				})
				if sim.Collector != nil {
					sim.Collector.PacketsSent.Inc()
				}
			}
		} else {
			if pkt.MarkDropped() {
				dev.RecordMetrics(now, pkt, latency, false)
				sim.recordEvent(now, dev.ID, pkt.ID, EventDropped, map[string]float64{
					MetricLatency: latency,
					MetricSINR:    rb.CurrentSINR,
				})
				if sim.Collector != nil {
					sim.Collector.PacketsDropped.Inc()
				}
			}
		}
	}

	if nextDev, nextPkt, ok := bs.Waiting.Pop(); ok {
		if sim.Collector != nil {
			sim.Collector.WaitingDepth.Set(float64(bs.Waiting.Len()))
		}
		bs.Dispatch(sim, nextDev, nextPkt)
	}
}

// freeBlock returns the lowest-id free block, or nil when all are occupied.
func (bs *BaseStation) freeBlock() *ResourceBlock {
	for _, rb := range bs.Blocks {
		if rb.Free() {
			return rb
		}
	}
	return nil
}

// bound reports whether the given handle is still the occupant of blockID.
// Stale completion events (from preempted transmissions) fail this check.
func (bs *BaseStation) bound(blockID int, h *TransmissionHandle) bool {
	return bs.Active[blockID] == h
}

// handleFor finds the in-flight handle carrying the packet, or nil.
func (bs *BaseStation) handleFor(pkt *Packet) *TransmissionHandle {
	for _, rb := range bs.Blocks {
		if h := bs.Active[rb.ID]; h != nil && h.Packet == pkt {
			return h
		}
	}
	return nil
}

// abandon drops a packet's claim on base-station state after its deadline
// fired: waiting entries are removed, in-flight bindings are left for the
// normal release path.
func (bs *BaseStation) abandon(pkt *Packet) {
	bs.Waiting.Remove(pkt)
}
