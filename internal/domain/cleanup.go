package domain

import "time"

// RetentionWindowDays is how many days an incomplete vaccination outlives its
// scheduled date before cleanup removes it.
const RetentionWindowDays = 2

// CleanupCutoff returns the first calendar date that is kept. Anything
// scheduled strictly before it and not completed is eligible for deletion.
func CleanupCutoff(now time.Time, retentionDays int) time.Time {
	if retentionDays < 1 {
		retentionDays = RetentionWindowDays
	}
	return DateOf(now).AddDate(0, 0, -retentionDays)
}

func EligibleForCleanup(v Vaccination, cutoff time.Time) bool {
	if v.Completed {
		return false
	}
	return DateOf(v.ScheduledDate).Before(DateOf(cutoff))
}
