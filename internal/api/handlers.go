package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"storehours/internal/hours"
	"storehours/internal/metrics"
	"storehours/internal/model"
	"storehours/internal/selection"
	"storehours/internal/slots"
)

const (
	// MaxCalendarDaysRange caps the calendar query window.
	MaxCalendarDaysRange = 90
)

// OpenRequest is the body for POST /api/store/open.
type OpenRequest struct {
	Month    int    `json:"month"`
	Day      int    `json:"day"`
	TimeSlot string `json:"time_slot"` // "HH:MM"
}

// OpenResponse answers an open/closed query.
type OpenResponse struct {
	Open bool `json:"open"`
}

// handleOpen resolves one (date, slot) query.
// POST /api/store/open
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("store_open")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req OpenRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Month < 1 || req.Month > 12 || req.Day < 1 || req.Day > 31 {
		writeError(w, http.StatusBadRequest, "month must be 1-12 and day 1-31")
		return
	}
	if _, err := hours.ParseClock(req.TimeSlot); err != nil {
		writeError(w, http.StatusBadRequest, "time_slot must be HH:MM")
		return
	}

	open := s.resolveOpen(r, req.Month, req.Day, req.TimeSlot)
	metrics.IncResolverQuery(open)
	writeJSON(w, http.StatusOK, OpenResponse{Open: open})
}

// resolveOpen fetches the snapshots and runs the resolver; any fetch
// failure degrades to closed.
func (s *Server) resolveOpen(r *http.Request, month, day int, slot string) bool {
	schedule, _, err := s.data.StoreTimes(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("fetch store times")
		return false
	}
	overrides, _, err := s.data.Overrides(r.Context(), month, day)
	if err != nil {
		s.logger.Error().Err(err).Msg("fetch overrides")
		overrides = nil
	}
	return s.resolver.IsOpen(schedule, overrides, month, day, slot)
}

// NextOpeningResponse carries the next opening instant, if any.
type NextOpeningResponse struct {
	NextOpening *time.Time `json:"next_opening"`
}

// handleNextOpening returns the next instant the store opens.
// GET /api/store/next-opening
func (s *Server) handleNextOpening(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("next_opening")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	schedule, _, err := s.data.StoreTimes(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "store times unavailable")
		return
	}

	var resp NextOpeningResponse
	if next, ok := hours.NextOpening(schedule, time.Now().In(s.timezone)); ok {
		resp.NextOpening = &next
	}
	writeJSON(w, http.StatusOK, resp)
}

// CalendarRequest is the body for POST /api/store/calendar.
type CalendarRequest struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

// CalendarResponse lists per-date summaries for the window.
type CalendarResponse struct {
	Days   []model.DaySummary `json:"days"`
	Period struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"period"`
}

// handleCalendar summarizes open slots for each date in a range.
// POST /api/store/calendar
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("calendar")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CalendarRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start, end, err := validateCalendarRange(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	schedule, _, err := s.data.StoreTimes(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "store times unavailable")
		return
	}

	labels := slots.TimeSlots()
	days := make([]model.DaySummary, 0)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		month, day := int(d.Month()), d.Day()

		overrides, _, err := s.data.Overrides(r.Context(), month, day)
		if err != nil {
			overrides = nil
		}

		summary := model.DaySummary{
			Date:  d.Format("2006-01-02"),
			Month: month,
			Day:   day,
		}
		for _, slot := range labels {
			if s.resolver.IsOpen(schedule, overrides, month, day, slot) {
				summary.OpenSlots = append(summary.OpenSlots, slot)
			}
		}
		summary.OpenAtAll = len(summary.OpenSlots) > 0
		days = append(days, summary)
	}

	resp := CalendarResponse{Days: days}
	resp.Period.Start = req.StartDate
	resp.Period.End = req.EndDate
	writeJSON(w, http.StatusOK, resp)
}

func validateCalendarRange(startDate, endDate string) (start, end time.Time, err error) {
	if startDate == "" || endDate == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date and end_date are required")
	}

	start, err = time.Parse("2006-01-02", startDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date format; expected YYYY-MM-DD")
	}
	end, err = time.Parse("2006-01-02", endDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date format; expected YYYY-MM-DD")
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date must be before or equal to end_date")
	}
	if int(end.Sub(start).Hours()/24) > MaxCalendarDaysRange {
		return time.Time{}, time.Time{}, fmt.Errorf("date range exceeds maximum of %d days", MaxCalendarDaysRange)
	}
	return start, end, nil
}

// SlotsResponse lists the fixed quarter-hour labels.
type SlotsResponse struct {
	Slots []SlotInfo `json:"slots"`
}

// SlotInfo pairs the canonical label with its display form.
type SlotInfo struct {
	Value   string `json:"value"`   // "14:15"
	Display string `json:"display"` // "2:15 PM"
}

// handleSlots returns all 96 slot labels.
// GET /api/store/slots
func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	labels := slots.TimeSlots()
	resp := SlotsResponse{Slots: make([]SlotInfo, 0, len(labels))}
	for _, label := range labels {
		resp.Slots = append(resp.Slots, SlotInfo{Value: label, Display: slots.FormatSlot(label)})
	}
	writeJSON(w, http.StatusOK, resp)
}

// SelectionResponse returns the stored selection with its validity
// recomputed against the current schedule state.
type SelectionResponse struct {
	Selection *model.SelectedSlot `json:"selection"`
	Valid     bool                `json:"valid"`
}

// handleSelection manages the single selected slot.
// GET, PUT, DELETE /api/store/selection
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("selection")

	switch r.Method {
	case http.MethodGet:
		sel, err := s.selection.Load(r.Context())
		if errors.Is(err, selection.ErrNoSelection) {
			writeJSON(w, http.StatusOK, SelectionResponse{})
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "load selection failed")
			return
		}
		valid := s.resolveOpen(r, sel.Month, sel.Day, sel.TimeSlot)
		writeJSON(w, http.StatusOK, SelectionResponse{Selection: sel, Valid: valid})

	case http.MethodPut:
		var sel model.SelectedSlot
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&sel); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if _, err := hours.ParseClock(sel.TimeSlot); err != nil {
			writeError(w, http.StatusBadRequest, "time_slot must be HH:MM")
			return
		}
		if err := s.selection.Save(r.Context(), sel); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"saved": true})

	case http.MethodDelete:
		if err := s.selection.Clear(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "clear selection failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
