// Package budget provides the time-budgeted training controller used by
// AutoDL-style submissions.
//
// # Reading Guide
//
// Start with these files to understand the controller:
//   - timewarp.go: logarithmic mapping between elapsed seconds and normalized progress
//   - controller.go: the training slice loop, validation checks and stopping policy
//   - history.go: bounded window of validation pass durations used for cost estimates
//
// # Architecture
//
// The budget package defines the collaborator interfaces and the controller;
// everything that produces batches, losses or scores lives outside it:
//   - budget/harness/: the ingestion loop that invokes slices and the inference path
//   - budget/synthetic/: seeded learning-curve collaborators and a manual clock
//   - budget/trace/: decision-trace recording and learning-curve summaries
//
// # Key Interfaces
//
//   - DataSource: yields training batches until io.EOF
//   - Trainer: performs one optimization step and returns its loss
//   - Evaluator: runs one full validation pass and returns a scalar error
//   - Clock: wall-clock source, replaceable for simulation and tests
//
// A Controller is not safe for concurrent use. The harness must invoke
// RunTrainingSlice sequentially.
package budget
