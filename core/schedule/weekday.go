package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDayOfWeek is returned when a day of week cannot be resolved to a Weekday.
var ErrInvalidDayOfWeek = errors.New("invalid day of week")

// Weekday is the canonical day of week: 0 = Sunday ... 6 = Saturday.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// labels is the canonical symbolic table (Vietnamese day names).
var labels = [7]string{"Chu Nhat", "Thu 2", "Thu 3", "Thu 4", "Thu 5", "Thu 6", "Thu 7"}

// aliases maps every accepted spelling (normalized with normalizeKey) to its Weekday.
var aliases = map[string]Weekday{}

func init() {
	for i, l := range labels {
		aliases[normalizeKey(l)] = Weekday(i)
	}
	extra := map[Weekday][]string{
		Sunday:    {"CN", "Chủ Nhật", "Sunday", "Sun"},
		Monday:    {"T2", "Thứ 2", "Thứ Hai", "Thu Hai", "Monday", "Mon"},
		Tuesday:   {"T3", "Thứ 3", "Thứ Ba", "Thu Ba", "Tuesday", "Tue"},
		Wednesday: {"T4", "Thứ 4", "Thứ Tư", "Thu Tu", "Wednesday", "Wed"},
		Thursday:  {"T5", "Thứ 5", "Thứ Năm", "Thu Nam", "Thursday", "Thu"},
		Friday:    {"T6", "Thứ 6", "Thứ Sáu", "Thu Sau", "Friday", "Fri"},
		Saturday:  {"T7", "Thứ 7", "Thứ Bảy", "Thu Bay", "Saturday", "Sat"},
	}
	for wd, names := range extra {
		for _, name := range names {
			aliases[normalizeKey(name)] = wd
		}
	}
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "", ".", "").Replace(s)
}

// ParseWeekday resolves a symbolic day name (or a "0".."6" index) to a Weekday.
// "Thu" alone is the english abbreviation of Thursday, "Thu 5" is the vietnamese one.
func ParseWeekday(s string) (Weekday, error) {
	if wd, ok := aliases[normalizeKey(s)]; ok {
		return wd, nil
	}
	raw := strings.TrimSpace(s)
	if len(raw) != 1 {
		return 0, ErrInvalidDayOfWeek
	}
	if i, err := strconv.Atoi(raw); err == nil {
		return WeekdayFromInt(i)
	}
	return 0, ErrInvalidDayOfWeek
}

// WeekdayFromInt resolves an integer index (0 = Sunday) to a Weekday.
func WeekdayFromInt(i int) (Weekday, error) {
	wd := Weekday(i)
	if !wd.Valid() {
		return 0, ErrInvalidDayOfWeek
	}
	return wd, nil
}

// FromTime returns the Weekday of the calendar date of `t`.
func FromTime(t time.Time) Weekday {
	return Weekday(t.Weekday())
}

func (wd Weekday) Valid() bool {
	return wd >= Sunday && wd <= Saturday
}

// Label returns the canonical symbolic name of the day.
func (wd Weekday) Label() string {
	if !wd.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(wd))
	}
	return labels[wd]
}

func (wd Weekday) String() string {
	return wd.Label()
}

func (wd Weekday) Time() time.Weekday {
	return time.Weekday(wd)
}

func (wd Weekday) MarshalJSON() ([]byte, error) {
	if !wd.Valid() {
		return nil, ErrInvalidDayOfWeek
	}
	return json.Marshal(wd.Label())
}

// UnmarshalJSON accepts either a day name or an integer index.
func (wd *Weekday) UnmarshalJSON(b []byte) error {
	var i int
	if err := json.Unmarshal(b, &i); err == nil {
		parsed, err := WeekdayFromInt(i)
		if err != nil {
			return err
		}
		*wd = parsed
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDayOfWeek
	}
	parsed, err := ParseWeekday(s)
	if err != nil {
		return err
	}
	*wd = parsed
	return nil
}

// Scan implements sql.Scanner; stored values may be integers or (legacy) day names.
func (wd *Weekday) Scan(src interface{}) error {
	var (
		parsed Weekday
		err    error
	)
	switch v := src.(type) {
	case int64:
		parsed, err = WeekdayFromInt(int(v))
	case []byte:
		parsed, err = ParseWeekday(string(v))
	case string:
		parsed, err = ParseWeekday(v)
	default:
		err = ErrInvalidDayOfWeek
	}
	if err != nil {
		return err
	}
	*wd = parsed
	return nil
}

// Value implements driver.Valuer.
func (wd Weekday) Value() (driver.Value, error) {
	if !wd.Valid() {
		return nil, ErrInvalidDayOfWeek
	}
	return int64(wd), nil
}
