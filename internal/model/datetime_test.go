package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDateTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"RFC3339 UTC", "2024-03-10T12:30:00Z", "2024-03-10T12:30:00.000Z"},
		{"RFC3339 with offset", "2024-03-10T12:30:00-03:00", "2024-03-10T15:30:00.000Z"},
		{"fractional seconds", "2024-03-10T12:30:00.123456Z", "2024-03-10T12:30:00.123Z"},
		{"no zone", "2024-03-10T08:15:00", "2024-03-10T08:15:00.000Z"},
		{"no seconds", "2024-03-10T08:15", "2024-03-10T08:15:00.000Z"},
		{"space separated", "2024-03-10 08:15:30", "2024-03-10T08:15:30.000Z"},
		{"date only", "2024-03-10", "2024-03-10T00:00:00.000Z"},
		{"surrounding whitespace", "  2024-03-10  ", "2024-03-10T00:00:00.000Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDateTime(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDateTime_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "yesterday", "2024-13-01", "2024-02-30T10:00:00Z", "10:00"} {
		t.Run(input, func(t *testing.T) {
			_, err := NormalizeDateTime(input)
			assert.ErrorIs(t, err, ErrInvalidDateTime)
		})
	}
}

func TestFormatDateTime_SortsChronologically(t *testing.T) {
	earlier, err := NormalizeDateTime("2024-01-09T23:59:59Z")
	require.NoError(t, err)
	later, err := NormalizeDateTime("2024-01-10T00:00:00Z")
	require.NoError(t, err)

	assert.Less(t, earlier, later)
}
