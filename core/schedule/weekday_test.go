package schedule

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in      string
		want    Weekday
		wantErr error
	}{
		{in: "Chu Nhat", want: Sunday},
		{in: "Thu 2", want: Monday},
		{in: "thu 4", want: Wednesday},
		{in: "  THU 7 ", want: Saturday},
		{in: "Thứ 4", want: Wednesday},
		{in: "Chủ Nhật", want: Sunday},
		{in: "T6", want: Friday},
		{in: "Wednesday", want: Wednesday},
		{in: "Thu", want: Thursday},
		{in: "sat", want: Saturday},
		{in: "0", want: Sunday},
		{in: "6", want: Saturday},
		{in: " 3 ", want: Wednesday},
		{in: "7", wantErr: ErrInvalidDayOfWeek},
		{in: "-1", wantErr: ErrInvalidDayOfWeek},
		{in: "-3", wantErr: ErrInvalidDayOfWeek},
		{in: "+3", wantErr: ErrInvalidDayOfWeek},
		{in: "0.3", wantErr: ErrInvalidDayOfWeek},
		{in: "1-", wantErr: ErrInvalidDayOfWeek},
		{in: "_6_", wantErr: ErrInvalidDayOfWeek},
		{in: "Invalid Day", wantErr: ErrInvalidDayOfWeek},
		{in: "", wantErr: ErrInvalidDayOfWeek},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWeekday(tt.in)
			if err != tt.wantErr {
				t.Fatalf("ParseWeekday() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseWeekday() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeekdayFromInt(t *testing.T) {
	for i := 0; i <= 6; i++ {
		wd, err := WeekdayFromInt(i)
		assert.NoError(t, err)
		assert.Equal(t, Weekday(i), wd)
	}
	for _, i := range []int{-1, 7, 42} {
		_, err := WeekdayFromInt(i)
		assert.Equal(t, ErrInvalidDayOfWeek, err)
	}
}

func TestWeekday_JSON(t *testing.T) {
	var wd Weekday
	assert.NoError(t, json.Unmarshal([]byte(`"Thu 4"`), &wd))
	assert.Equal(t, Wednesday, wd)

	assert.NoError(t, json.Unmarshal([]byte(`5`), &wd))
	assert.Equal(t, Friday, wd)

	assert.Equal(t, ErrInvalidDayOfWeek, json.Unmarshal([]byte(`8`), &wd))
	assert.Equal(t, ErrInvalidDayOfWeek, json.Unmarshal([]byte(`true`), &wd))
	assert.Equal(t, ErrInvalidDayOfWeek, json.Unmarshal([]byte(`-1`), &wd))
	assert.Equal(t, ErrInvalidDayOfWeek, json.Unmarshal([]byte(`"-1"`), &wd))

	var sessions []Session
	err := json.Unmarshal([]byte(`[{"day_of_week": "-1", "start_time": "08h00", "end_time": "10h00"}]`), &sessions)
	assert.Equal(t, ErrInvalidDayOfWeek, err)

	data, err := json.Marshal(Sunday)
	assert.NoError(t, err)
	assert.Equal(t, `"Chu Nhat"`, string(data))
}

func TestWeekday_Scan(t *testing.T) {
	var wd Weekday
	assert.NoError(t, wd.Scan(int64(2)))
	assert.Equal(t, Tuesday, wd)
	assert.NoError(t, wd.Scan([]byte("Thu 6")))
	assert.Equal(t, Friday, wd)
	assert.Equal(t, ErrInvalidDayOfWeek, wd.Scan(int64(10)))
	assert.Equal(t, ErrInvalidDayOfWeek, wd.Scan(nil))
	assert.Equal(t, ErrInvalidDayOfWeek, wd.Scan([]byte("_6_")))

	v, err := Saturday.Value()
	assert.NoError(t, err)
	assert.Equal(t, int64(6), v)
}
