// Package service holds the errors shared by the application services.
//
// Each use-case area lives in its own subpackage:
//
//   - review: submitting answers, the due-review queue and memory statistics
//   - planning: study plans, daily tasks and load adjustment
//   - progress: progress curves, profile analysis and the dashboard
//   - motivation: streaks and achievements, fed by review events
//
// Services receive stores, engines and a clock through their constructors
// and never depend on a specific storage implementation.
package service
