// Package model defines the core value types shared by the measurement,
// contraction, and persistence packages: field configurations, call contexts,
// species tags, propagator tensors, and fermion operator descriptors.
//
// Types here are plain data. The physics kernels that produce and consume them
// live outside this module and are injected as function values.
package model
