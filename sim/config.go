package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SimConfig is the top-level simulation configuration, loadable from YAML.
// Zero-valued fields take the defaults applied by ApplyDefaults.
type SimConfig struct {
	NumResourceBlocks int     `yaml:"num_resource_blocks"`
	SchedulingPolicy  string  `yaml:"scheduling_policy"`
	SimDuration       float64 `yaml:"sim_duration"`
	RandomSeeds       []int64 `yaml:"random_seeds"`

	Block   BlockConfig   `yaml:"resource_block"`
	Devices DeviceConfig  `yaml:"devices"`
	Channel ChannelConfig `yaml:"channel"`
	Policy  PolicyConfig  `yaml:"policy"`
}

// BlockConfig shapes each resource block in the arena.
type BlockConfig struct {
	Subcarriers  int     `yaml:"subcarriers"`
	SlotDuration float64 `yaml:"slot_duration"`
}

// DeviceConfig describes the device population: either a homogeneous count
// with shared traffic parameters, or an explicit list of device classes.
type DeviceConfig struct {
	Count          int     `yaml:"count"`
	ArrivalRate    float64 `yaml:"arrival_rate"`
	PacketSizeBits float64 `yaml:"packet_size"`
	MaxLatency     float64 `yaml:"max_latency"`
	PriorityLevels []int   `yaml:"priority_levels"`
	LocationMinM   float64 `yaml:"location_min"`
	LocationMaxM   float64 `yaml:"location_max"`

	Classes []DeviceClass `yaml:"classes"`
}

// DeviceClass is one heterogeneous device group.
type DeviceClass struct {
	Count          int     `yaml:"count"`
	ArrivalRate    float64 `yaml:"arrival_rate"`
	PacketSizeBits float64 `yaml:"packet_size"`
	Priority       int     `yaml:"priority"`
	MaxLatency     float64 `yaml:"max_latency"`
	LocationMinM   float64 `yaml:"location_min"`
	LocationMaxM   float64 `yaml:"location_max"`
}

// ChannelConfig parameterizes the channel model and interference process.
type ChannelConfig struct {
	TxPowerDBm            float64  `yaml:"tx_power_dbm"`
	NoisePowerDBmHz       float64  `yaml:"noise_power_dbm_hz"`
	NoiseBandwidthHz      float64  `yaml:"noise_bandwidth_hz"`
	SubcarrierBandwidthHz float64  `yaml:"subcarrier_bandwidth_hz"`
	MaxDataRate           float64  `yaml:"max_data_rate"`
	SINRThresholdDB       float64  `yaml:"sinr_threshold_db"`
	SINRFloorDB           *float64 `yaml:"sinr_floor_db"` // nil = default 5.0; negative disables

	PathLossExponent   float64 `yaml:"path_loss_exponent"`
	TimeVarying        bool    `yaml:"time_varying"`
	VariationPeriod    float64 `yaml:"variation_period"`
	VariationAmplitude float64 `yaml:"variation_amplitude"`

	InterferenceRate   float64 `yaml:"interference_rate"`
	InterferenceMinDBm float64 `yaml:"interference_min_dbm"`
	InterferenceMaxDBm float64 `yaml:"interference_max_dbm"`
	BurstDuration      float64 `yaml:"burst_duration"`
	BaselineDBm        float64 `yaml:"baseline_interference_dbm"`
}

// PolicyConfig carries policy tunables; zero values select defaults.
type PolicyConfig struct {
	Quantum          float64 `yaml:"quantum"`
	ReentryPenalty   float64 `yaml:"reentry_penalty"`
	UrgencyThreshold float64 `yaml:"urgency_threshold"`
	Epsilon          float64 `yaml:"epsilon"`
}

// DefaultConfig returns a runnable configuration: 3 blocks, 5 devices at
// 10 pkt/s, 1 ms deadline, urban channel.
func DefaultConfig() *SimConfig {
	cfg := &SimConfig{
		NumResourceBlocks: 3,
		SchedulingPolicy:  "hybrid-edf-preemptive",
		SimDuration:       10,
		RandomSeeds:       []int64{42},
		Devices: DeviceConfig{
			Count:          5,
			ArrivalRate:    10,
			PacketSizeBits: 102400,
			MaxLatency:     0.001,
			PriorityLevels: []int{1, 2, 3},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *SimConfig) ApplyDefaults() {
	if c.Block.Subcarriers == 0 {
		c.Block.Subcarriers = 12
	}
	if c.Block.SlotDuration == 0 {
		c.Block.SlotDuration = 0.125e-3
	}
	if c.Devices.LocationMinM == 0 {
		c.Devices.LocationMinM = 10
	}
	if c.Devices.LocationMaxM == 0 {
		c.Devices.LocationMaxM = 100
	}
	ch := &c.Channel
	if ch.TxPowerDBm == 0 {
		ch.TxPowerDBm = 23
	}
	if ch.NoisePowerDBmHz == 0 {
		ch.NoisePowerDBmHz = -174
	}
	if ch.NoiseBandwidthHz == 0 {
		ch.NoiseBandwidthHz = 100e6
	}
	if ch.SubcarrierBandwidthHz == 0 {
		// 12 subcarriers span the full 100 MHz default bandwidth.
		ch.SubcarrierBandwidthHz = 100e6 / 12
	}
	if ch.MaxDataRate == 0 {
		ch.MaxDataRate = 240e6
	}
	if ch.PathLossExponent == 0 {
		ch.PathLossExponent = 3.76
	}
	if ch.InterferenceRate == 0 {
		ch.InterferenceRate = 1
	}
	if ch.InterferenceMinDBm == 0 {
		ch.InterferenceMinDBm = -90
	}
	if ch.InterferenceMaxDBm == 0 {
		ch.InterferenceMaxDBm = -80
	}
	if ch.BurstDuration == 0 {
		ch.BurstDuration = 0.05
	}
	if ch.BaselineDBm == 0 {
		ch.BaselineDBm = -90
	}
	if ch.SINRThresholdDB == 0 {
		ch.SINRThresholdDB = 0
	}
}

// LoadConfig reads and parses a YAML simulation configuration file.
func LoadConfig(path string) (*SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading simulation config: %w", err)
	}
	var cfg SimConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing simulation config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Validate rejects configurations the simulation cannot start with.
func (c *SimConfig) Validate() error {
	if c.NumResourceBlocks <= 0 {
		return fmt.Errorf("num_resource_blocks must be positive, got %d", c.NumResourceBlocks)
	}
	if !ValidSchedulingPolicies[c.SchedulingPolicy] {
		return fmt.Errorf("unknown scheduling policy %q", c.SchedulingPolicy)
	}
	if c.SimDuration <= 0 {
		return fmt.Errorf("sim_duration must be positive, got %g", c.SimDuration)
	}
	if len(c.RandomSeeds) == 0 {
		return fmt.Errorf("random_seeds must list at least one seed")
	}
	if len(c.Devices.Classes) == 0 {
		d := c.Devices
		if d.Count <= 0 {
			return fmt.Errorf("devices.count must be positive, got %d", d.Count)
		}
		if d.ArrivalRate <= 0 {
			return fmt.Errorf("devices.arrival_rate must be positive, got %g", d.ArrivalRate)
		}
		if d.PacketSizeBits <= 0 {
			return fmt.Errorf("devices.packet_size must be positive, got %g", d.PacketSizeBits)
		}
		if d.MaxLatency <= 0 {
			return fmt.Errorf("devices.max_latency must be positive, got %g", d.MaxLatency)
		}
		if len(d.PriorityLevels) == 0 {
			return fmt.Errorf("devices.priority_levels must list at least one level")
		}
	} else {
		for i, cls := range c.Devices.Classes {
			if cls.Count <= 0 || cls.ArrivalRate <= 0 || cls.PacketSizeBits <= 0 || cls.MaxLatency <= 0 {
				return fmt.Errorf("devices.classes[%d]: count, arrival_rate, packet_size and max_latency must be positive", i)
			}
		}
	}
	if c.Channel.InterferenceMaxDBm < c.Channel.InterferenceMinDBm {
		return fmt.Errorf("channel.interference_max_dbm below interference_min_dbm")
	}
	return nil
}
