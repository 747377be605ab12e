// Package stack provides the Monte-Carlo tolerance stackup engine.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - part.go: Part identity, tolerances, and one-shot sample realization
//   - path.go: StackPath aggregation (circuit/max/min) and derived fractions
//   - rng.go: deterministic per-part RNG stream partitioning
//
// Distribution samplers live in the stack/dist sub-package; spec.go loads
// YAML stack definitions into Parts and StackPaths; report.go renders
// aggregate summaries and histograms.
//
// A seeded run is exactly reproducible: the master seed partitions into one
// PCG stream per part slot, so parts may be realized concurrently or in any
// order without changing their samples.
package stack
