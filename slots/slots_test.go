package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvailable(t *testing.T) {
	assert.Equal(t, 3, Slot{Date: "2024-01-01", Time: "10:00", MaxSpots: 10, Booked: 7}.Available())
	assert.Equal(t, 0, Slot{MaxSpots: 5, Booked: 5}.Available())
	assert.Equal(t, 0, Slot{MaxSpots: 4, Booked: 9}.Available(), "overshoot never reports negative")
	assert.Equal(t, 6, Slot{MaxSpots: 6}.Available())
}

func TestParseFlat(t *testing.T) {
	raw := []byte(`[
		{"date":"2024-01-02","time":"14:00","max_spots":8,"booked":2},
		{"date":"2024-01-01","time":"10:00","max_spots":10,"booked":7}
	]`)

	got := Parse(raw)
	assert.Len(t, got, 2)
	assert.Equal(t, Slot{Date: "2024-01-02", Time: "14:00", MaxSpots: 8, Booked: 2}, got[0])
	assert.Equal(t, 3, got[1].Available())
}

func TestParseGrouped(t *testing.T) {
	raw := []byte(`[
		{"date":"2024-01-01","slots":[
			{"time":"10:00","max_spots":10,"booked":7},
			{"time":"14:00","max_spots":6,"booked":0}
		]},
		{"date":"2024-01-03","slots":[
			{"date":"2024-01-03","time":"11:00","max_spots":4,"booked":4}
		]}
	]`)

	got := Parse(raw)
	assert.Len(t, got, 3)
	assert.Equal(t, "2024-01-01", got[0].Date, "inner rows inherit the group date")
	assert.Equal(t, "11:00", got[2].Time)
}

func TestParseMalformed(t *testing.T) {
	for _, raw := range []string{
		``,
		`not json`,
		`{"date":"2024-01-01"}`, // object, not array
		`[{"date":"2024-01-01"}]`,
		`[{"time":"10:00"}]`,
		`[null]`,
	} {
		got := Parse([]byte(raw))
		assert.NotNil(t, got, "input %q", raw)
		assert.Empty(t, got, "input %q", raw)
	}
}

func TestGroupSortsAndTotals(t *testing.T) {
	flat := []Slot{
		{Date: "2024-02-10", Time: "16:00", MaxSpots: 6, Booked: 6},
		{Date: "2024-02-09", Time: "10:00", MaxSpots: 10, Booked: 7},
		{Date: "2024-02-10", Time: "10:00", MaxSpots: 8, Booked: 1},
	}

	avail := Group(flat)
	assert.Len(t, avail.Groups, 2)
	assert.Equal(t, "2024-02-09", avail.Groups[0].Date, "dates sorted ascending")
	assert.Equal(t, []Slot{
		{Date: "2024-02-10", Time: "16:00", MaxSpots: 6, Booked: 6},
		{Date: "2024-02-10", Time: "10:00", MaxSpots: 8, Booked: 1},
	}, avail.Groups[1].Slots, "slot order within a date preserved")
	assert.Equal(t, 14, avail.TotalBooked)
	assert.Equal(t, 24, avail.TotalMaxSpots)
}

func TestGroupKeepsFullDates(t *testing.T) {
	avail := Group([]Slot{{Date: "2024-03-01", Time: "10:00", MaxSpots: 6, Booked: 6}})
	assert.Len(t, avail.Groups, 1)
	assert.Equal(t, 0, avail.Groups[0].Slots[0].Available())
}

func TestGroupEmpty(t *testing.T) {
	avail := Group(nil)
	assert.Empty(t, avail.Groups)
	assert.Zero(t, avail.TotalBooked)
	assert.Zero(t, avail.TotalMaxSpots)
}

// Parsing then grouping must not change capacity totals, whichever payload
// shape the data arrived in.
func TestRoundTripTotals(t *testing.T) {
	flatRaw := []byte(`[
		{"date":"2024-01-01","time":"10:00","max_spots":10,"booked":7},
		{"date":"2024-01-01","time":"14:00","max_spots":6,"booked":2},
		{"date":"2024-01-05","time":"10:00","max_spots":12,"booked":0}
	]`)
	groupedRaw := []byte(`[
		{"date":"2024-01-01","slots":[
			{"time":"10:00","max_spots":10,"booked":7},
			{"time":"14:00","max_spots":6,"booked":2}
		]},
		{"date":"2024-01-05","slots":[{"time":"10:00","max_spots":12,"booked":0}]}
	]`)

	for _, raw := range [][]byte{flatRaw, groupedRaw} {
		parsed := Parse(raw)
		sumBooked, sumMax := 0, 0
		for _, s := range parsed {
			sumBooked += s.Booked
			sumMax += s.MaxSpots
		}

		avail := Group(parsed)
		assert.Equal(t, sumBooked, avail.TotalBooked)
		assert.Equal(t, sumMax, avail.TotalMaxSpots)
		assert.Equal(t, 9, avail.TotalBooked)
		assert.Equal(t, 28, avail.TotalMaxSpots)
	}
}

func TestClampGuests(t *testing.T) {
	assert.Equal(t, 0, ClampGuests(-2))
	assert.Equal(t, 0, ClampGuests(0))
	assert.Equal(t, 3, ClampGuests(3))
	assert.Equal(t, 6, ClampGuests(6))
	assert.Equal(t, 6, ClampGuests(14), "guest selector never exceeds the cap")
}

// The storefront flow for a slot with 3 spots left: offer at most 3 guests,
// refuse a party of 5, accept a party of 3.
func TestPartySizeAgainstAvailability(t *testing.T) {
	slot := Slot{Date: "2024-01-01", Time: "10:00", MaxSpots: 10, Booked: 7}

	offered := ClampGuests(slot.Available())
	assert.Equal(t, 3, offered)
	assert.False(t, 5 <= offered, "a party of 5 must be refused")
	assert.True(t, 3 <= offered, "a party of 3 fits")
}
