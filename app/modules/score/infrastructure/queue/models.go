package scorequeue

import (
	"time"

	"github.com/riverqueue/river"
)

const (
	// QueueMigration is the dedicated River queue for legacy replays.
	QueueMigration = "score_migration"

	// StartupRequester schedules the replay performed when replicas boot.
	StartupRequester = "startup"

	legacyReplayKind = "legacy_replay"

	// replayUniquePeriod collapses the jobs of replicas booting together into one.
	replayUniquePeriod = 15 * time.Minute
)

// LegacyReplayJob rebuilds the aggregate tables from the legacy score log.
type LegacyReplayJob struct {
	// RequestedBy names the replica or operator that scheduled the replay.
	RequestedBy string `json:"requested_by"`
}

// Kind returns the job type identifier for River
func (LegacyReplayJob) Kind() string { return legacyReplayKind }

// InsertOpts makes the replay unique per requester within replayUniquePeriod and never
// retried. A second attempt would replay increments on top of a partially rebuilt table.
func (LegacyReplayJob) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueMigration,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByArgs:   true,
			ByPeriod: replayUniquePeriod,
		},
	}
}

// JobInfo represents information about a scheduled replay (for debugging/monitoring)
type JobInfo struct {
	ID          int64  `json:"id"`
	State       string `json:"state"`
	RequestedBy string `json:"requested_by"`
	ScheduledAt string `json:"scheduled_at"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}
