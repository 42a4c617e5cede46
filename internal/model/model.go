package model

import "time"

// SelectedSlot is the user's single active reservation choice: a
// year-agnostic date plus one quarter-hour label. Its validity is never
// cached; it is recomputed through the hours resolver whenever shown.
type SelectedSlot struct {
	Month     int       `json:"month"`
	Day       int       `json:"day"`
	TimeSlot  string    `json:"time_slot"` // "HH:MM"
	CreatedAt time.Time `json:"created_at"`
}

// DaySummary describes one date of the rolling window for the calendar
// API and the Excel export.
type DaySummary struct {
	Date      string   `json:"date"` // YYYY-MM-DD
	Month     int      `json:"month"`
	Day       int      `json:"day"`
	OpenAtAll bool     `json:"open"`
	OpenSlots []string `json:"open_slots,omitempty"`
}
