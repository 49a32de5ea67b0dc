package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindow(t *testing.T) {
	now := time.Date(2024, 6, 30, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		start, end  string
		defaultDays int
		wantStart   time.Time
		wantEnd     time.Time
		wantErr     bool
	}{
		{
			name:      "dates",
			start:     "2024-06-01",
			end:       "2024-06-02",
			wantStart: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 6, 2, 23, 59, 59, 999999999, time.UTC),
		},
		{
			name:      "rfc3339 end is exact",
			start:     "2024-06-01T12:00:00Z",
			end:       "2024-06-02T06:00:00Z",
			wantStart: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 6, 2, 6, 0, 0, 0, time.UTC),
		},
		{
			name:        "defaults",
			defaultDays: 7,
			wantStart:   now.AddDate(0, 0, -7),
			wantEnd:     now,
		},
		{
			name:    "unbounded start",
			wantEnd: now,
		},
		{name: "garbage", start: "yesterday", wantErr: true},
		{name: "reversed", start: "2024-06-05", end: "2024-06-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tf, err := parseWindow(tt.start, tt.end, now, tt.defaultDays)
			if tt.wantErr {
				require.ErrorIs(t, err, errInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, tf.Start)
			assert.Equal(t, tt.wantEnd, tf.End)
		})
	}
}

func TestParseWindow_EndDayIsInclusive(t *testing.T) {
	tf, err := parseWindow("2024-06-01", "2024-06-02", time.Now(), DefaultDays)
	require.NoError(t, err)

	assert.True(t, tf.Contains(time.Date(2024, 6, 2, 23, 59, 59, 750_000_000, time.UTC)))
	assert.False(t, tf.Contains(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)))
}

func TestParseLimit(t *testing.T) {
	limit, err := parseLimit("")
	require.NoError(t, err)
	assert.Equal(t, DefaultIncidentsLimit, limit)

	limit, err = parseLimit("999999")
	require.NoError(t, err)
	assert.Equal(t, MaxIncidentsLimit, limit)

	_, err = parseLimit("-1")
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Acme", "Globex"}, splitList(" Acme, ,Globex,"))
	assert.Nil(t, splitList(""))
}
