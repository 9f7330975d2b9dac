// Package particle holds the building blocks of the sequential Monte Carlo
// pose estimator.
//
// Responsibilities: per-dimension particle populations (bounded linear and
// wrap-around circular), measurement likelihoods, resampling, noise
// injection, initial particle generation, temporal smoothing and linear
// extrapolation.
// Key types: DimensionController, Measurement, Resampler, NoiseGenerator,
// Smoother, Extrapolator.
//
// Dependency rule: particle never depends on filter, sources or storage.
// Every random draw comes from an injected *rand.Rand so runs replay
// deterministically from a seed.
package particle
