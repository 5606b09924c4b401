// Implements the wireless channel physics: path loss, SINR, Shannon data
// rate, and the background interference burst process.

package sim

import (
	"math"
	"math/rand"
)

// ChannelModel computes SINR and achievable data rate for device
// transmissions and owns the interference state.
//
// Path loss follows the 3GPP urban model PL = 35.3 + 37.6*log10(d). With
// TimeVarying enabled the exponent term is perturbed sinusoidally around
// BasePathLossExponent, keyed on simulated time.
type ChannelModel struct {
	TxPowerDBm      float64 // Device transmit power in dBm
	NoisePowerDBmHz float64 // Noise spectral density in dBm/Hz
	NoiseBandwidthHz float64 // Bandwidth over which the noise floor integrates

	BasePathLossExponent float64 // Exponent used when TimeVarying is enabled
	TimeVarying          bool
	VariationPeriod      float64 // Seconds per sinusoidal cycle
	VariationAmplitude   float64 // Peak exponent deviation

	SubcarrierBandwidthHz float64 // Per-subcarrier bandwidth for the Shannon rate
	MaxDataRate           float64 // Rate cap in bit/s; 0 disables the cap

	// SINRFloorDB clamps computed SINR from below. Disabled when
	// FloorDisabled is set (the source disagreed across revisions; 5.0 dB is
	// the default, see DESIGN.md).
	SINRFloorDB   float64
	FloorDisabled bool

	// Interference burst process parameters.
	InterferenceRate    float64 // Bursts per second (exponential inter-burst)
	InterferenceMinDBm  float64
	InterferenceMaxDBm  float64
	BurstDuration       float64 // Seconds a burst level persists before reverting
	BaselineInterference float64 // Quiet-channel interference level in dBm

	// InterferenceDBm is the current level; starts at the baseline.
	InterferenceDBm float64

	burstGeneration uint64
}

// pathLossConstantDB and pathLossSlope are the 3GPP TR 38.901 urban
// parameters; the slope corresponds to an exponent of 3.76.
const (
	pathLossConstantDB = 35.3
	pathLossSlope      = 37.6
)

// SINRdB computes the signal-to-interference-plus-noise ratio in dB for a
// device at the given distance, at simulated time now. Interference and the
// noise floor combine in the linear domain.
func (c *ChannelModel) SINRdB(distanceM, now float64) float64 {
	slope := pathLossSlope
	if c.TimeVarying && c.VariationPeriod > 0 {
		exponent := c.BasePathLossExponent + c.VariationAmplitude*math.Sin(2*math.Pi*now/c.VariationPeriod)
		slope = 10 * exponent
	}
	pathLoss := pathLossConstantDB + slope*math.Log10(distanceM)
	signalDB := c.TxPowerDBm - pathLoss

	noiseDB := c.NoisePowerDBmHz + 10*math.Log10(c.NoiseBandwidthHz)
	totalNoiseLinear := math.Pow(10, c.InterferenceDBm/10) + math.Pow(10, noiseDB/10)
	totalNoiseDB := 10 * math.Log10(totalNoiseLinear)

	sinrDB := signalDB - totalNoiseDB
	if !c.FloorDisabled && sinrDB < c.SINRFloorDB {
		sinrDB = c.SINRFloorDB
	}
	return sinrDB
}

// DataRate converts SINR in dB into an achievable rate in bit/s using the
// Shannon capacity over the block's allocated bandwidth
// (subcarriers * per-subcarrier bandwidth), optionally capped.
func (c *ChannelModel) DataRate(sinrDB float64, subcarriers int) float64 {
	bandwidth := float64(subcarriers) * c.SubcarrierBandwidthHz
	sinrLinear := math.Pow(10, sinrDB/10)
	rate := bandwidth * math.Log2(1+sinrLinear)
	if c.MaxDataRate > 0 && rate > c.MaxDataRate {
		rate = c.MaxDataRate
	}
	return rate
}

// beginBurst draws a new interference level and advances the burst
// generation so stale clear events cannot revert a newer burst.
func (c *ChannelModel) beginBurst(rng *rand.Rand) float64 {
	level := c.InterferenceMinDBm + rng.Float64()*(c.InterferenceMaxDBm-c.InterferenceMinDBm)
	c.InterferenceDBm = level
	c.burstGeneration++
	return level
}

// endBurst reverts to the baseline level if no newer burst superseded the
// one that scheduled this clear.
func (c *ChannelModel) endBurst(generation uint64) {
	if generation == c.burstGeneration {
		c.InterferenceDBm = c.BaselineInterference
	}
}

// nextBurstInterval draws the exponential wait until the next burst.
func (c *ChannelModel) nextBurstInterval(rng *rand.Rand) float64 {
	return rng.ExpFloat64() / c.InterferenceRate
}
