// Package latmeas provides measurement accumulation and persistence for
// Hamiltonian Monte Carlo simulations of lattice Hubbard-model systems.
//
// The package tree is organized around a single control flow: an external HMC
// driver produces one field configuration per trajectory, hands it to a set of
// registered measurement accumulators, and flushes their recorded histories to
// a hierarchical container file at the end of the run.
//
//	ens, _ := ensemble.Load("c60.yml")
//	acc := meas.NewAcceptanceRate()
//	phi := meas.NewTotalPhi()
//
//	drv := meas.NewDriver([]meas.Registration{
//		meas.Every("acceptanceRate", acc, 1),
//		meas.Every("totalPhi", phi, 1),
//	})
//	for itr, cfg := range trajectories {
//		drv.Step(cfg, model.Inline(itr, accepted))
//	}
//
//	f := container.New()
//	measio.SaveAll(f, map[string]meas.SeriesProvider{
//		"monte_carlo/acceptanceRate": acc,
//		"monte_carlo/totalPhi":       phi,
//	})
//	f.WriteFile(ens.CanonicalName()+".meas", container.CompressionZSTD)
//
// The physics kernels themselves (Hamiltonian evaluation, fermion-matrix
// log-determinants, all-to-all propagators) are external collaborators and are
// injected as function values; this module never links against them.
package latmeas
