// Package sim provides the discrete-event simulation engine for URLLC
// resource scheduling.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - packet.go: Packet lifecycle (pending → sent | dropped) and the
//     exactly-once terminal transition
//   - event.go: Event types that drive the simulation (arrival, deadline,
//     completion, requeue, interference)
//   - simulator.go: The event loop with deterministic (time, sequence)
//     ordering
//
// # Architecture
//
// The channel model (channel.go) maps device distance to SINR and SINR to an
// achievable Shannon rate. The base station (basestation.go) owns the
// resource blocks, the waiting set, and the admission/dispatch path; which
// packet gets a block is decided by a Policy (policy.go). Packets race their
// transmission against a deadline guard event; whichever fires first settles
// the packet's terminal state.
//
// Metrics fold per-device counters into a RunResult (metrics.go). The Run
// function (run.go) wires everything together for one (config, seed) pair
// and is the only entry point the cmd layer uses. The event stream flows
// into a sim/eventlog Sink; the core never reads it back.
//
// # Determinism
//
// Every source of randomness draws from a PartitionedRNG stream (rng.go)
// derived from the master seed, so two runs with the same configuration and
// seed produce identical results, event for event.
package sim
