package models

import "time"

// Entry is a page of cached records for one kind together with the time
// the oldest of them was computed. A page is only as fresh as its oldest record.
type Entry struct {
	Records    []Record
	ComputedAt time.Time
}

// NewEntry wraps records, taking the oldest ComputedAt as the page's
// freshness timestamp. A record with no ComputedAt leaves the page unstamped.
func NewEntry(records []Record) *Entry {
	e := &Entry{Records: records}
	for i, r := range records {
		if r.ComputedAt.IsZero() {
			e.ComputedAt = time.Time{}
			break
		}
		if i == 0 || r.ComputedAt.Before(e.ComputedAt) {
			e.ComputedAt = r.ComputedAt
		}
	}
	return e
}

// Empty reports whether the entry holds no records.
func (e *Entry) Empty() bool {
	return e == nil || len(e.Records) == 0
}

// Age returns how long ago the entry was computed.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.ComputedAt)
}

// Fresh reports whether now - ComputedAt < threshold.
func (e *Entry) Fresh(now time.Time, threshold time.Duration) bool {
	if e.Empty() || e.ComputedAt.IsZero() {
		return false
	}
	return e.Age(now) < threshold
}

// Remaining returns how much longer the entry stays fresh, or zero.
func (e *Entry) Remaining(now time.Time, threshold time.Duration) time.Duration {
	left := threshold - e.Age(now)
	if left < 0 {
		return 0
	}
	return left
}
