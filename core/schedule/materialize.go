// Package schedule expands weekly recurring class sessions into calendar occurrences.
package schedule

import (
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Session is a weekly recurring class meeting slot.
// StartTime and EndTime are display strings (e.g. "12h30") and are never parsed.
type Session struct {
	DayOfWeek Weekday `json:"day_of_week" db:"day_of_week"`
	StartTime string  `json:"start_time" db:"start_time" validate:"required,max=10"`
	EndTime   string  `json:"end_time" db:"end_time" validate:"required,max=10"`
}

// UnmarshalJSON requires `day_of_week` to be present: a missing day is an invalid day.
func (s *Session) UnmarshalJSON(b []byte) error {
	var raw struct {
		DayOfWeek *Weekday `json:"day_of_week"`
		StartTime string   `json:"start_time"`
		EndTime   string   `json:"end_time"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.DayOfWeek == nil {
		return ErrInvalidDayOfWeek
	}
	*s = Session{DayOfWeek: *raw.DayOfWeek, StartTime: raw.StartTime, EndTime: raw.EndTime}
	return nil
}

// Occurrence is one concrete calendar-dated instance of a Session.
type Occurrence struct {
	Weekday   Weekday
	Date      time.Time // midnight UTC
	StartTime string
	EndTime   string
}

// ISODate returns the occurrence date as YYYY-MM-DD.
func (o Occurrence) ISODate() string {
	return o.Date.Format(dateLayout)
}

// String returns the compact form "<weekday>_<date>_<start>-<end>".
func (o Occurrence) String() string {
	return fmt.Sprintf("%s_%s_%s-%s", o.Weekday.Label(), o.ISODate(), o.StartTime, o.EndTime)
}

func (o Occurrence) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Weekday   string `json:"weekday"`
		Date      string `json:"date"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		Slot      string `json:"slot"`
	}{
		Weekday:   o.Weekday.Label(),
		Date:      o.ISODate(),
		StartTime: o.StartTime,
		EndTime:   o.EndTime,
		Slot:      o.String(),
	})
}

// Materialize expands every session into its weekly occurrences within [timeStart, timeEnd],
// comparing calendar dates only (inclusive on both ends).
// Occurrences are ordered by session (input order) then by date. Nothing is deduplicated.
// A reversed range yields no occurrences. An invalid weekday on any session fails the whole call.
func Materialize(sessions []Session, timeStart, timeEnd time.Time) ([]Occurrence, error) {
	for _, s := range sessions {
		if !s.DayOfWeek.Valid() {
			return nil, ErrInvalidDayOfWeek
		}
	}

	occurrences := make([]Occurrence, 0)
	start, end := calendarDate(timeStart), calendarDate(timeEnd)
	if start.After(end) {
		return occurrences, nil
	}

	for _, s := range sessions {
		date := start
		for FromTime(date) != s.DayOfWeek {
			date = date.AddDate(0, 0, 1)
		}
		for ; !date.After(end); date = date.AddDate(0, 0, 7) {
			occurrences = append(occurrences, Occurrence{
				Weekday:   s.DayOfWeek,
				Date:      date,
				StartTime: s.StartTime,
				EndTime:   s.EndTime,
			})
		}
	}
	return occurrences, nil
}

// Strings returns the compact form of every occurrence.
func Strings(occurrences []Occurrence) []string {
	out := make([]string, 0, len(occurrences))
	for _, o := range occurrences {
		out = append(out, o.String())
	}
	return out
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
