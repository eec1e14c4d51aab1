package main

import (
	"log"
	"time"
)

// AdvanceSweep walks the whole tracking database, moves downstream
// dimensions forward on completed records and fills in milestone dates.
// Every change it computes is idempotent, so overlapping runs converge.
func AdvanceSweep(store *RecordStore, now time.Time) SweepStats {
	var stats SweepStats

	records, err := store.QueryRecords(nil)
	if err != nil {
		log.Printf("✗ Querying records: %v", err)
		stats.Failed++
		return stats
	}

	for _, rec := range records {
		updates := AdvanceOnComplete(rec)
		updates = append(updates, DateStamps(rec, now)...)
		if len(updates) == 0 {
			stats.Skipped++
			continue
		}

		if err := store.UpdateProperties(rec.ID, updates); err != nil {
			log.Printf("✗ Advancing %s: %v", rec.Title, err)
			stats.Failed++
			continue
		}
		log.Printf("✓ Advanced: %s (%d changes)", rec.Title, len(updates))
		stats.Success++
		time.Sleep(store.writeDelay)
	}

	log.Printf("→ Advance sweep done: %d advanced, %d unchanged, %d failed", stats.Success, stats.Skipped, stats.Failed)
	return stats
}
