package main

// SweepStats aggregates the outcome of one sweep over records or sources.
type SweepStats struct {
	Success int
	Skipped int
	Failed  int
}
