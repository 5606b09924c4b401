// Implements the WaitingSet, which holds all packets waiting for a resource
// block. Entries are kept sorted by the policy-computed dispatch key.

package sim

import (
	"fmt"
	"strings"
)

// waitEntry is one queued (device, packet) pair. The sequence number is
// assigned at insertion and breaks dispatch-key ties FIFO, so equal-key
// packets leave the set in the order they entered it.
type waitEntry struct {
	key    float64
	seq    uint64
	device *Device
	packet *Packet
}

// WaitingSet is the base station's ordered pool of packets waiting for a
// resource block. Ordering is ascending by dispatch key (lower = served
// first), FIFO among equal keys.
type WaitingSet struct {
	entries []waitEntry
	seq     uint64
}

// Insert adds a packet with the given dispatch key, keeping the set sorted.
// Insertion is after any run of equal keys, preserving FIFO tie-break.
func (ws *WaitingSet) Insert(key float64, device *Device, packet *Packet) {
	if packet == nil {
		panic("WaitingSet.Insert: packet must not be nil")
	}
	ws.seq++
	entry := waitEntry{key: key, seq: ws.seq, device: device, packet: packet}

	idx := len(ws.entries)
	for i, e := range ws.entries {
		if e.key > key {
			idx = i
			break
		}
	}
	ws.entries = append(ws.entries, waitEntry{})
	copy(ws.entries[idx+1:], ws.entries[idx:])
	ws.entries[idx] = entry
}

// Pop removes and returns the highest-ranked entry. Returns false when empty.
func (ws *WaitingSet) Pop() (*Device, *Packet, bool) {
	for len(ws.entries) > 0 {
		head := ws.entries[0]
		ws.entries = ws.entries[1:]
		if head.packet.Terminal() {
			// Deadline fired while queued and Remove already classified it;
			// skip stale entries rather than dispatching dead packets.
			continue
		}
		return head.device, head.packet, true
	}
	return nil, nil, false
}

// Remove deletes the entry holding the given packet, if present.
func (ws *WaitingSet) Remove(packet *Packet) bool {
	for i, e := range ws.entries {
		if e.packet == packet {
			ws.entries = append(ws.entries[:i], ws.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of queued entries.
func (ws *WaitingSet) Len() int {
	return len(ws.entries)
}

// Peek returns the highest-ranked packet without removing it, or nil.
func (ws *WaitingSet) Peek() *Packet {
	if len(ws.entries) == 0 {
		return nil
	}
	return ws.entries[0].packet
}

func (ws *WaitingSet) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, e := range ws.entries {
		sb.WriteString(fmt.Sprintf("%d(key=%g)", e.packet.ID, e.key))
		if i < len(ws.entries)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
