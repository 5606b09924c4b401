package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionedRNG_SameKeySameStream(t *testing.T) {
	a := NewPartitionedRNG(NewSimulationKey(42)).ForSubsystem(SubsystemChannel)
	b := NewPartitionedRNG(NewSimulationKey(42)).ForSubsystem(SubsystemChannel)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestPartitionedRNG_SubsystemsAreIsolated(t *testing.T) {
	p := NewPartitionedRNG(NewSimulationKey(42))
	channel := p.ForSubsystem(SubsystemChannel)
	placement := p.ForSubsystem(SubsystemPlacement)

	// Draining one stream must not advance the other.
	q := NewPartitionedRNG(NewSimulationKey(42))
	for i := 0; i < 1000; i++ {
		q.ForSubsystem(SubsystemChannel).Float64()
	}
	fresh := q.ForSubsystem(SubsystemPlacement)
	for i := 0; i < 10; i++ {
		assert.Equal(t, placement.Float64(), fresh.Float64())
	}
	_ = channel
}

func TestPartitionedRNG_CachesInstances(t *testing.T) {
	p := NewPartitionedRNG(NewSimulationKey(1))
	assert.Same(t, p.ForSubsystem(SubsystemChannel), p.ForSubsystem(SubsystemChannel))
}

func TestPartitionedRNG_DifferentKeysDiverge(t *testing.T) {
	a := NewPartitionedRNG(NewSimulationKey(1)).ForSubsystem(SubsystemChannel)
	b := NewPartitionedRNG(NewSimulationKey(2)).ForSubsystem(SubsystemChannel)
	diverged := false
	for i := 0; i < 10; i++ {
		if a.Float64() != b.Float64() {
			diverged = true
			break
		}
	}
	assert.True(t, diverged)
}

func TestSubsystemDevice_DistinctPerDevice(t *testing.T) {
	assert.Equal(t, "device_0", SubsystemDevice(0))
	assert.NotEqual(t, SubsystemDevice(3), SubsystemDevice(4))
}
