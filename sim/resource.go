package sim

// ResourceBlock is the exclusive, schedulable unit of wireless capacity.
// Capacity is one transmission: Occupant is either nil (Free) or the handle
// of the single in-flight transmission (Occupied). Blocks live in an
// integer-indexed arena owned by the base station, so transmissions are
// keyed by stable ids rather than object identity.
type ResourceBlock struct {
	ID           int
	Subcarriers  int
	SlotDuration float64 // Seconds per slot
	CurrentSINR  float64 // dB, sampled at transmission start and on bursts
	Occupant     *TransmissionHandle
}

// NewResourceBlock creates a free block with an optimistic initial SINR.
func NewResourceBlock(id, subcarriers int, slotDuration float64) *ResourceBlock {
	return &ResourceBlock{
		ID:           id,
		Subcarriers:  subcarriers,
		SlotDuration: slotDuration,
		CurrentSINR:  10.0,
	}
}

// Free reports whether the block can accept a transmission.
func (rb *ResourceBlock) Free() bool {
	return rb.Occupant == nil
}

// TransmissionHandle is the sole owner of an in-flight packet. It records
// the committed airtime window; interference bursts never move FinishTime.
type TransmissionHandle struct {
	DeviceID   int
	Packet     *Packet
	StartTime  float64
	FinishTime float64
	// DataRate is the rate committed at transmission start, in bit/s.
	DataRate float64
	// RemainingBits is non-zero for a round-robin quantum slice: the bits
	// left to transmit after this slice's committed airtime.
	RemainingBits float64
}
