package booking

import (
	"testing"

	"kilnhouse/models"
	"kilnhouse/slots"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIncoming(t *testing.T) {
	in := []slots.Slot{
		{Date: "2026-09-01", Time: "10:00", MaxSpots: 8},
		{Date: "2026-09-01", Time: "14:00", MaxSpots: 6},
	}
	out, err := normalizeIncoming(in)
	assert.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestNormalizeIncomingRejectsBadRows(t *testing.T) {
	_, err := normalizeIncoming([]slots.Slot{{Date: "01-09-2026", Time: "10:00", MaxSpots: 8}})
	assert.Error(t, err)

	_, err = normalizeIncoming([]slots.Slot{{Date: "2026-09-01", Time: "10am", MaxSpots: 8}})
	assert.Error(t, err)

	_, err = normalizeIncoming([]slots.Slot{{Date: "2026-09-01", Time: "10:00", MaxSpots: 0}})
	assert.Error(t, err)
}

func TestNormalizeIncomingDedupesLastWins(t *testing.T) {
	out, err := normalizeIncoming([]slots.Slot{
		{Date: "2026-09-01", Time: "10:00", MaxSpots: 8},
		{Date: "2026-09-01", Time: "10:00", MaxSpots: 12},
	})
	assert.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, 12, out[0].MaxSpots)
}

func TestReplaceConflictsRemovedBookedSlot(t *testing.T) {
	existing := []models.Slot{
		{Date: "2026-09-01", Time: "10:00", MaxSpots: 8, Booked: 3},
		{Date: "2026-09-01", Time: "14:00", MaxSpots: 8, Booked: 0},
	}
	// payload drops both; only the booked one conflicts
	conflicts := replaceConflicts(existing, nil)
	assert.Len(t, conflicts, 1)
	assert.Contains(t, conflicts[0], "10:00")
}

func TestReplaceConflictsMaxBelowBooked(t *testing.T) {
	existing := []models.Slot{{Date: "2026-09-01", Time: "10:00", MaxSpots: 10, Booked: 7}}

	conflicts := replaceConflicts(existing, []slots.Slot{{Date: "2026-09-01", Time: "10:00", MaxSpots: 5}})
	assert.Len(t, conflicts, 1)

	// shrinking down to exactly the booked count is allowed
	conflicts = replaceConflicts(existing, []slots.Slot{{Date: "2026-09-01", Time: "10:00", MaxSpots: 7}})
	assert.Empty(t, conflicts)
}

func TestReplaceConflictsCleanReplace(t *testing.T) {
	existing := []models.Slot{{Date: "2026-09-01", Time: "10:00", MaxSpots: 8, Booked: 0}}
	incoming := []slots.Slot{{Date: "2026-09-02", Time: "11:00", MaxSpots: 4}}
	assert.Empty(t, replaceConflicts(existing, incoming))
}
