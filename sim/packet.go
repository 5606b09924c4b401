// Defines the Packet struct that models a single URLLC traffic unit in the simulation.
// Tracks creation time, size, static priority, deadline, and terminal classification.

package sim

import (
	"fmt"
)

// PacketState represents the terminal lifecycle state of a packet.
type PacketState string

const (
	StatePending PacketState = "pending"
	StateSent    PacketState = "sent"
	StateDropped PacketState = "dropped"
)

// Packet models a single packet emitted by a device. StaticPriority is the
// immutable traffic attribute the device was configured with; DispatchKey is
// the scratch value the active scheduling policy computes per dispatch and is
// the only field policies may write.
type Packet struct {
	ID           int64   // Unique identifier, assigned by the simulator
	DeviceID     int     // Originating device (no back-reference, id only)
	CreationTime float64 // Simulated time the packet was generated
	SizeBits     float64 // Remaining payload size in bits (reduced by round-robin fragments)
	OriginalBits float64 // Payload size at creation, stable across fragments

	StaticPriority int     // Lower = more urgent; never mutated after creation
	MaxLatency     float64 // Deadline budget in seconds
	Deadline       float64 // CreationTime + MaxLatency, absolute

	DispatchKey float64 // Policy-computed ordering value, set on every dispatch

	State     PacketState
	Fragments int // Number of round-robin continuation fragments produced so far
}

// NewPacket creates a pending packet. The deadline is fixed at creation and
// survives preemption and requeue.
func NewPacket(id int64, deviceID int, now, sizeBits float64, priority int, maxLatency float64) *Packet {
	return &Packet{
		ID:             id,
		DeviceID:       deviceID,
		CreationTime:   now,
		SizeBits:       sizeBits,
		OriginalBits:   sizeBits,
		StaticPriority: priority,
		MaxLatency:     maxLatency,
		Deadline:       now + maxLatency,
		State:          StatePending,
	}
}

// MarkSent transitions the packet to its sent terminal state.
// Returns false if the packet already reached a terminal state, so callers
// can guarantee exactly-once classification.
func (p *Packet) MarkSent() bool {
	if p.State != StatePending {
		return false
	}
	p.State = StateSent
	return true
}

// MarkDropped transitions the packet to its dropped terminal state.
// Returns false if the packet already reached a terminal state.
func (p *Packet) MarkDropped() bool {
	if p.State != StatePending {
		return false
	}
	p.State = StateDropped
	return true
}

// Terminal reports whether the packet has been classified sent or dropped.
func (p *Packet) Terminal() bool {
	return p.State != StatePending
}

func (p Packet) String() string {
	return fmt.Sprintf("Packet: (ID: %d, Device: %d, State: %s, Priority: %d, Deadline: %.6f)",
		p.ID, p.DeviceID, p.State, p.StaticPriority, p.Deadline)
}
