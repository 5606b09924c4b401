// The seven scheduling policies. All share the base station's
// allocate-if-free / else-queue skeleton; they differ only in how the
// dispatch key is computed and, for the preemption-capable ones, in the
// victim-selection predicate.

package sim

import (
	"fmt"
)

// Policy computes the dispatch key used to order the waiting set. Lower keys
// are served first; ties break FIFO. Implementations MUST NOT modify the
// packet beyond what the base station does with the returned key.
type Policy interface {
	Name() string
	DispatchKey(d *Device, p *Packet, now float64) float64
}

// Preemptor is implemented by preemption-capable policies. SelectVictim
// returns the id of the occupied block to evict for the candidate packet,
// or ok=false when the predicate does not hold.
type Preemptor interface {
	SelectVictim(bs *BaseStation, p *Packet, now float64) (blockID int, ok bool)
}

// RateScaler is implemented by policies that adjust the achievable rate
// before the transmission time is committed (the QCI policy).
type RateScaler interface {
	ScaleRate(rate float64, p *Packet) float64
}

// QuantumPolicy is implemented by policies that cap a single resource
// acquisition to a fixed time quantum (round robin).
type QuantumPolicy interface {
	Quantum() float64
}

// === Preemptive Priority ===

// PreemptivePriority orders by static priority (lower = more urgent) and
// evicts the occupied block carrying the worst priority when the candidate
// outranks every chance of waiting.
type PreemptivePriority struct{}

func (PreemptivePriority) Name() string { return "preemptive" }

func (PreemptivePriority) DispatchKey(_ *Device, p *Packet, _ float64) float64 {
	return float64(p.StaticPriority)
}

func (PreemptivePriority) SelectVictim(bs *BaseStation, p *Packet, _ float64) (int, bool) {
	victim := -1
	worst := p.StaticPriority
	// Blocks are scanned in id order so equal-priority victims resolve to
	// the lowest block id deterministically.
	for _, rb := range bs.Blocks {
		h := bs.Active[rb.ID]
		if h == nil {
			continue
		}
		if h.Packet.StaticPriority > worst {
			worst = h.Packet.StaticPriority
			victim = rb.ID
		}
	}
	if victim < 0 {
		return 0, false
	}
	return victim, true
}

// === Non-preemptive Priority ===

// NonPreemptivePriority orders by static priority, FIFO among equals, and
// never interrupts an in-flight transmission.
type NonPreemptivePriority struct{}

func (NonPreemptivePriority) Name() string { return "non-preemptive" }

func (NonPreemptivePriority) DispatchKey(_ *Device, p *Packet, _ float64) float64 {
	return float64(p.StaticPriority)
}

// === Round Robin ===

// RoundRobin serves packets in arrival order with a fixed time quantum per
// acquisition. A transmission longer than the quantum is cut at the quantum
// boundary and the remainder re-enters the waiting set tail as a
// continuation fragment carrying the same packet id and deadline.
type RoundRobin struct {
	QuantumS float64
}

func (RoundRobin) Name() string { return "round-robin" }

// DispatchKey is constant: with equal keys the FIFO tie-break makes the
// waiting set a plain arrival-order queue.
func (RoundRobin) DispatchKey(_ *Device, _ *Packet, _ float64) float64 {
	return 0
}

func (rr RoundRobin) Quantum() float64 { return rr.QuantumS }

// === Earliest Deadline First ===

// EDF orders by absolute deadline ascending, FIFO among ties. Baseline
// variant: no preemption.
type EDF struct{}

func (EDF) Name() string { return "edf" }

func (EDF) DispatchKey(_ *Device, p *Packet, _ float64) float64 {
	return p.Deadline
}

// === Proportional Fair ===

// ProportionalFair orders by static_priority / (avg historical throughput +
// epsilon) ascending: a device that has historically received little
// throughput shrinks its denominator slowly and so wins over an equally
// prioritized well-served device.
type ProportionalFair struct {
	Epsilon float64
}

func (ProportionalFair) Name() string { return "proportional-fair" }

func (pf ProportionalFair) DispatchKey(d *Device, p *Packet, _ float64) float64 {
	return float64(p.StaticPriority) / (d.AvgThroughput() + pf.Epsilon)
}

// === Hybrid EDF-Preemptive ===

// HybridEDFPreemptive orders by deadline urgency (deadline - now). Its
// preemption runs in two regimes: an urgent candidate (urgency below the
// threshold) evicts the occupied block with the greatest slack; otherwise
// the preemptive-priority predicate applies.
type HybridEDFPreemptive struct {
	UrgencyThreshold float64
}

func (HybridEDFPreemptive) Name() string { return "hybrid-edf-preemptive" }

func (HybridEDFPreemptive) DispatchKey(_ *Device, p *Packet, now float64) float64 {
	return p.Deadline - now
}

func (h HybridEDFPreemptive) SelectVictim(bs *BaseStation, p *Packet, now float64) (int, bool) {
	urgency := p.Deadline - now
	if urgency < h.UrgencyThreshold {
		victim := -1
		maxSlack := 0.0
		for _, rb := range bs.Blocks {
			occ := bs.Active[rb.ID]
			if occ == nil {
				continue
			}
			slack := occ.Packet.Deadline - now
			if victim < 0 || slack > maxSlack {
				maxSlack = slack
				victim = rb.ID
			}
		}
		if victim < 0 {
			return 0, false
		}
		return victim, true
	}
	return PreemptivePriority{}.SelectVictim(bs, p, now)
}

// === 5G Fixed Priority (QCI) ===

// FiveGFixedPriority maps static priority onto a bounded QCI level in [1, 9]
// and orders by that level. The achievable rate is scaled by a
// QCI-dependent efficiency factor before the transmission time is committed.
type FiveGFixedPriority struct{}

func (FiveGFixedPriority) Name() string { return "5g-fixed" }

func (FiveGFixedPriority) DispatchKey(_ *Device, p *Packet, _ float64) float64 {
	return float64(clampQCI(p.StaticPriority))
}

func (FiveGFixedPriority) ScaleRate(rate float64, p *Packet) float64 {
	return rate * qciEfficiency(clampQCI(p.StaticPriority))
}

func clampQCI(priority int) int {
	if priority < 1 {
		return 1
	}
	if priority > 9 {
		return 9
	}
	return priority
}

// qciEfficiency degrades linearly from 1.0 at QCI 1 to 0.6 at QCI 9,
// modelling the less aggressive MCS selection of lower QoS tiers.
func qciEfficiency(level int) float64 {
	return 1.0 - 0.05*float64(level-1)
}

// PolicyParams carries the tunables shared by the policy constructors.
// Zero values select the defaults below.
type PolicyParams struct {
	Quantum          float64 // round-robin quantum, seconds
	UrgencyThreshold float64 // hybrid urgent-regime boundary, seconds
	Epsilon          float64 // proportional-fair denominator guard
}

const (
	defaultQuantum          = 0.001
	defaultUrgencyThreshold = 0.0005
	defaultEpsilon          = 1e-9
)

// ValidSchedulingPolicies is the set of recognized scheduling policy names.
var ValidSchedulingPolicies = map[string]bool{
	"preemptive":            true,
	"non-preemptive":        true,
	"round-robin":           true,
	"edf":                   true,
	"proportional-fair":     true,
	"hybrid-edf-preemptive": true,
	"5g-fixed":              true,
}

// NewPolicy creates a Policy by name. An unrecognized name is a fatal
// configuration error: the simulation must not start.
func NewPolicy(name string, params PolicyParams) (Policy, error) {
	if params.Quantum == 0 {
		params.Quantum = defaultQuantum
	}
	if params.UrgencyThreshold == 0 {
		params.UrgencyThreshold = defaultUrgencyThreshold
	}
	if params.Epsilon == 0 {
		params.Epsilon = defaultEpsilon
	}
	switch name {
	case "preemptive":
		return PreemptivePriority{}, nil
	case "non-preemptive":
		return NonPreemptivePriority{}, nil
	case "round-robin":
		return RoundRobin{QuantumS: params.Quantum}, nil
	case "edf":
		return EDF{}, nil
	case "proportional-fair":
		return ProportionalFair{Epsilon: params.Epsilon}, nil
	case "hybrid-edf-preemptive":
		return HybridEDFPreemptive{UrgencyThreshold: params.UrgencyThreshold}, nil
	case "5g-fixed":
		return FiveGFixedPriority{}, nil
	default:
		return nil, fmt.Errorf("unknown scheduling policy %q", name)
	}
}
