package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMaterialize(t *testing.T) {
	wed := Session{DayOfWeek: Wednesday, StartTime: "12h30", EndTime: "14h30"}
	mon := Session{DayOfWeek: Monday, StartTime: "7h00", EndTime: "9h00"}

	tests := []struct {
		name     string
		sessions []Session
		start    string
		end      string
		want     []string
	}{
		{
			name:     "weekly occurrences within range",
			sessions: []Session{wed},
			start:    "2024-01-01",
			end:      "2024-01-22",
			want: []string{
				"Thu 4_2024-01-03_12h30-14h30",
				"Thu 4_2024-01-10_12h30-14h30",
				"Thu 4_2024-01-17_12h30-14h30",
			},
		},
		{
			name:     "inclusive boundaries",
			sessions: []Session{mon},
			start:    "2024-01-01",
			end:      "2024-01-22",
			want: []string{
				"Thu 2_2024-01-01_7h00-9h00",
				"Thu 2_2024-01-08_7h00-9h00",
				"Thu 2_2024-01-15_7h00-9h00",
				"Thu 2_2024-01-22_7h00-9h00",
			},
		},
		{
			name:     "session order then date order",
			sessions: []Session{wed, mon},
			start:    "2024-01-01",
			end:      "2024-01-10",
			want: []string{
				"Thu 4_2024-01-03_12h30-14h30",
				"Thu 4_2024-01-10_12h30-14h30",
				"Thu 2_2024-01-01_7h00-9h00",
				"Thu 2_2024-01-08_7h00-9h00",
			},
		},
		{
			name:     "no dedup across sessions",
			sessions: []Session{wed, wed},
			start:    "2024-01-03",
			end:      "2024-01-03",
			want: []string{
				"Thu 4_2024-01-03_12h30-14h30",
				"Thu 4_2024-01-03_12h30-14h30",
			},
		},
		{name: "empty sessions", sessions: nil, start: "2024-01-01", end: "2024-12-31", want: []string{}},
		{name: "single day matching", sessions: []Session{wed}, start: "2024-01-03", end: "2024-01-03", want: []string{"Thu 4_2024-01-03_12h30-14h30"}},
		{name: "single day not matching", sessions: []Session{wed}, start: "2024-01-04", end: "2024-01-04", want: []string{}},
		{name: "short range missing weekday", sessions: []Session{wed}, start: "2024-01-04", end: "2024-01-09", want: []string{}},
		{name: "reversed range", sessions: []Session{wed}, start: "2024-01-22", end: "2024-01-01", want: []string{}},
		{
			name:     "leap day",
			sessions: []Session{{DayOfWeek: Thursday, StartTime: "8h", EndTime: "10h"}},
			start:    "2024-02-20",
			end:      "2024-03-10",
			want: []string{
				"Thu 5_2024-02-22_8h-10h",
				"Thu 5_2024-02-29_8h-10h",
				"Thu 5_2024-03-07_8h-10h",
			},
		},
		{
			name:     "year rollover",
			sessions: []Session{{DayOfWeek: Sunday, StartTime: "8h", EndTime: "10h"}},
			start:    "2023-12-25",
			end:      "2024-01-08",
			want: []string{
				"Chu Nhat_2023-12-31_8h-10h",
				"Chu Nhat_2024-01-07_8h-10h",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Materialize(tt.sessions, date(tt.start), date(tt.end))
			require.NoError(t, err)
			assert.Equal(t, tt.want, Strings(got))
		})
	}
}

func TestMaterialize_ignoresTimeOfDay(t *testing.T) {
	sessions := []Session{{DayOfWeek: Wednesday, StartTime: "12h30", EndTime: "14h30"}}
	loc := time.FixedZone("ICT", 7*60*60)

	start := time.Date(2024, time.January, 3, 23, 59, 0, 0, loc)
	end := time.Date(2024, time.January, 17, 0, 1, 0, 0, loc)
	got, err := Materialize(sessions, start, end)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Thu 4_2024-01-03_12h30-14h30",
		"Thu 4_2024-01-10_12h30-14h30",
		"Thu 4_2024-01-17_12h30-14h30",
	}, Strings(got))
}

func TestMaterialize_invalidDayOfWeek(t *testing.T) {
	sessions := []Session{
		{DayOfWeek: Monday, StartTime: "7h", EndTime: "9h"},
		{DayOfWeek: Weekday(9), StartTime: "7h", EndTime: "9h"},
	}
	got, err := Materialize(sessions, date("2024-01-01"), date("2024-01-31"))
	assert.Equal(t, ErrInvalidDayOfWeek, err)
	assert.Nil(t, got)
}

func TestMaterialize_fromJSON(t *testing.T) {
	var symbolic, numeric []Session
	require.NoError(t, json.Unmarshal([]byte(`[{"day_of_week": "Thu 4", "start_time": "12h30", "end_time": "14h30"}]`), &symbolic))
	require.NoError(t, json.Unmarshal([]byte(`[{"day_of_week": 3, "start_time": "12h30", "end_time": "14h30"}]`), &numeric))

	start, end := date("2024-01-01"), date("2024-01-22")
	got1, err := Materialize(symbolic, start, end)
	require.NoError(t, err)
	got2, err := Materialize(numeric, start, end)
	require.NoError(t, err)

	assert.Equal(t, got1, got2)
	assert.Len(t, got1, 3)

	var invalid []Session
	err = json.Unmarshal([]byte(`[{"day_of_week": "Invalid Day", "start_time": "12h30", "end_time": "14h30"}]`), &invalid)
	assert.Equal(t, ErrInvalidDayOfWeek, err)

	err = json.Unmarshal([]byte(`[{"start_time": "12h30", "end_time": "14h30"}]`), &invalid)
	assert.Equal(t, ErrInvalidDayOfWeek, err)
}

func TestMaterialize_properties(t *testing.T) {
	ranges := [][2]string{
		{"2024-01-01", "2024-01-01"},
		{"2024-01-01", "2024-03-31"},
		{"2023-11-15", "2024-02-29"},
		{"2025-02-01", "2025-03-01"},
	}
	for _, rng := range ranges {
		a, b := date(rng[0]), date(rng[1])
		for wd := Sunday; wd <= Saturday; wd++ {
			sessions := []Session{{DayOfWeek: wd, StartTime: "s", EndTime: "e"}}
			got, err := Materialize(sessions, a, b)
			require.NoError(t, err)

			// idempotence
			again, err := Materialize(sessions, a, b)
			require.NoError(t, err)
			assert.Equal(t, got, again)

			for i, o := range got {
				assert.False(t, o.Date.Before(a), "%s before %s", o.ISODate(), rng[0])
				assert.False(t, o.Date.After(b), "%s after %s", o.ISODate(), rng[1])
				assert.Equal(t, wd.Time(), o.Date.Weekday())
				if i > 0 {
					assert.Equal(t, got[i-1].Date.AddDate(0, 0, 7), o.Date)
				}
			}

			// symbolic & integer representations are interchangeable
			byLabel, err := ParseWeekday(wd.Label())
			require.NoError(t, err)
			byInt, err := WeekdayFromInt(int(wd))
			require.NoError(t, err)
			gotLabel, _ := Materialize([]Session{{DayOfWeek: byLabel, StartTime: "s", EndTime: "e"}}, a, b)
			gotInt, _ := Materialize([]Session{{DayOfWeek: byInt, StartTime: "s", EndTime: "e"}}, a, b)
			assert.Equal(t, gotLabel, gotInt)
		}
	}
}

func TestOccurrence_MarshalJSON(t *testing.T) {
	o := Occurrence{Weekday: Wednesday, Date: date("2024-01-03"), StartTime: "12h30", EndTime: "14h30"}
	data, err := json.Marshal(o)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"weekday": "Thu 4",
		"date": "2024-01-03",
		"start_time": "12h30",
		"end_time": "14h30",
		"slot": "Thu 4_2024-01-03_12h30-14h30"
	}`, string(data))
}
