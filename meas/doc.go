// Package meas implements the measurement accumulators: stateful objects that
// receive one field configuration per Monte Carlo step, derive observables,
// and append them to in-memory history series.
//
// Accumulators are strictly single-threaded and call-driven: the HMC driver
// invokes each one at most once per trajectory, never concurrently. A call
// either appends one sample to every series the accumulator tracks or appends
// nothing at all; co-tracked series therefore always have equal length.
package meas
