package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{"date only", "2026-01-22", time.Date(2026, 1, 22, 0, 0, 0, 0, time.UTC), false},
		{"rfc3339 with offset", "2026-01-22T10:00:00+02:00", time.Date(2026, 1, 22, 8, 0, 0, 0, time.UTC), false},
		{"surrounding space", " 2026-01-22 ", time.Date(2026, 1, 22, 0, 0, 0, 0, time.UTC), false},
		{"free text", "next week", time.Time{}, true},
		{"us format", "01/22/2026", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseOptionalDate(t *testing.T) {
	got, err := ParseOptionalDate(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	blank := "  "
	got, err = ParseOptionalDate(&blank)
	require.NoError(t, err)
	assert.Nil(t, got)

	day := "2026-01-22"
	got, err = ParseOptionalDate(&day)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 22, got.Day())

	bad := "tomorrow"
	_, err = ParseOptionalDate(&bad)
	assert.Error(t, err)
}
