package sim

import (
	"math/rand"

	"github.com/urllc-sim/urllc-sim/sim/eventlog"
)

// newTestChannel returns a quiet channel whose rate cap dominates: every
// transmission runs at exactly 1e6 bit/s, so airtime = size / 1e6 and test
// timings are round numbers.
func newTestChannel() *ChannelModel {
	return &ChannelModel{
		TxPowerDBm:            23,
		NoisePowerDBmHz:       -174,
		NoiseBandwidthHz:      100e6,
		SubcarrierBandwidthHz: 1e6,
		MaxDataRate:           1e6,
		SINRFloorDB:           10,
		BaselineInterference:  -90,
		InterferenceDBm:       -90,
		InterferenceRate:      0, // no background bursts
		InterferenceMinDBm:    -90,
		InterferenceMaxDBm:    -80,
		BurstDuration:         0.05,
	}
}

// newTestSim builds a simulator around one base station with the given
// policy and block count, a memory sink, and no devices (tests add their
// own).
func newTestSim(policy Policy, numBlocks int, horizon float64) (*Simulator, *eventlog.MemorySink) {
	channel := newTestChannel()
	station := NewBaseStation(numBlocks, 1, 0.125e-3, policy, 0)
	sink := &eventlog.MemorySink{}
	rng := NewPartitionedRNG(NewSimulationKey(7))
	s := NewSimulator(horizon, rng, channel, station, nil, sink)
	return s, sink
}

// newTestDevice registers a device on the simulator with a private RNG.
func newTestDevice(s *Simulator, priority int, maxLatency float64) *Device {
	id := len(s.Devices)
	dev := NewDevice(id, 50, 10, 1000, priority, maxLatency, rand.New(rand.NewSource(int64(id+1))))
	s.Devices = append(s.Devices, dev)
	return dev
}

// inject creates a packet for the device, arms its deadline guard, and
// dispatches it, mirroring what PacketArrivalEvent does for generated
// traffic.
func inject(s *Simulator, dev *Device, sizeBits float64) *Packet {
	pkt := s.newPacket(dev, s.Clock)
	pkt.SizeBits = sizeBits
	pkt.OriginalBits = sizeBits
	s.Schedule(&DeadlineEvent{time: pkt.Deadline, Device: dev, Packet: pkt})
	s.Station.Dispatch(s, dev, pkt)
	return pkt
}

// callbackEvent runs fn at its timestamp; used to drive mid-run actions.
type callbackEvent struct {
	at float64
	fn func(*Simulator)
}

func (e *callbackEvent) Time() float64          { return e.at }
func (e *callbackEvent) Execute(sim *Simulator) { e.fn(sim) }
