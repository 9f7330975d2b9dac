// Package filter runs the particle filter cycle that turns asynchronous
// sensor readings into a smoothed 6-DoF pose.
//
// Responsibilities: the per-cycle algorithm (resample, weight by
// measurement, reseed, normalise, average, smooth), concrete position and
// orientation filters, the combined PoseFilter, the joint 6-column fusion
// mode, and construction from a tuning config.
// Key types: Filter, PositionFilter, OrientationFilter, PoseFilter,
// JointFilter, Source, Estimator.
//
// A filter instance is not safe for concurrent use: Calculate mutates the
// particle arrays in place. Sources are owned by the caller and only
// referenced here.
package filter
