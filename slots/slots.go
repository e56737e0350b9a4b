// Package slots holds the capacity model shared by workshops and
// experiences: parsing slot payloads, grouping them by date for the
// storefront, and the guest clamp applied to booking forms.
package slots

import (
	"encoding/json"
	"sort"
)

// MaxGuests is the cap on guests in a single booking.
const MaxGuests = 6

type Slot struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	MaxSpots int    `json:"max_spots"`
	Booked   int    `json:"booked"`
}

// Available never reports negative even if booked overshoots max_spots.
func (s Slot) Available() int {
	if avail := s.MaxSpots - s.Booked; avail > 0 {
		return avail
	}
	return 0
}

type DateGroup struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
}

type Availability struct {
	Groups        []DateGroup `json:"groups"`
	TotalBooked   int         `json:"total_booked"`
	TotalMaxSpots int         `json:"total_max_spots"`
}

// record covers both shapes Parse accepts: a flat slot row and a grouped
// per-date entry carrying its own slots array.
type record struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	MaxSpots int    `json:"max_spots"`
	Booked   int    `json:"booked"`
	Slots    []Slot `json:"slots"`
}

// Parse reads a slot payload that is either a flat array of slot rows or an
// array already grouped by date. Anything malformed yields an empty slice;
// callers render "no availability" rather than an error page.
func Parse(raw []byte) []Slot {
	if len(raw) == 0 {
		return []Slot{}
	}

	var recs []record
	if err := json.Unmarshal(raw, &recs); err != nil {
		return []Slot{}
	}

	out := make([]Slot, 0, len(recs))
	for _, rec := range recs {
		if len(rec.Slots) > 0 {
			// grouped entry: inner rows may omit the date
			for _, s := range rec.Slots {
				if s.Date == "" {
					s.Date = rec.Date
				}
				if s.Date == "" || s.Time == "" {
					continue
				}
				out = append(out, s)
			}
			continue
		}
		if rec.Date == "" || rec.Time == "" {
			continue
		}
		out = append(out, Slot{Date: rec.Date, Time: rec.Time, MaxSpots: rec.MaxSpots, Booked: rec.Booked})
	}
	return out
}

// Group buckets flat slots by date. Dates sort ascending; slot order within
// a date is preserved as given. Fully booked dates stay in the result so the
// storefront can render them as full instead of hiding them.
func Group(flat []Slot) Availability {
	byDate := make(map[string][]Slot)
	var dates []string

	avail := Availability{Groups: []DateGroup{}}
	for _, s := range flat {
		if s.Date == "" || s.Time == "" {
			continue
		}
		if _, seen := byDate[s.Date]; !seen {
			dates = append(dates, s.Date)
		}
		byDate[s.Date] = append(byDate[s.Date], s)
		avail.TotalBooked += s.Booked
		avail.TotalMaxSpots += s.MaxSpots
	}

	sort.Strings(dates)
	for _, d := range dates {
		avail.Groups = append(avail.Groups, DateGroup{Date: d, Slots: byDate[d]})
	}
	return avail
}

// ClampGuests bounds a booking form's guest selector: never more than the
// slot has available, never more than MaxGuests, never below zero.
func ClampGuests(available int) int {
	if available <= 0 {
		return 0
	}
	if available > MaxGuests {
		return MaxGuests
	}
	return available
}
