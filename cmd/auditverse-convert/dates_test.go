// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateFlag(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		endOfDay bool
		want     time.Time
		wantErr  bool
	}{
		{name: "empty", value: "", want: time.Time{}},
		{name: "start of day", value: "2023-06-30", want: time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC)},
		{name: "end of day", value: "2023-06-30", endOfDay: true, want: time.Date(2023, 6, 30, 23, 59, 59, 0, time.UTC)},
		{name: "timestamp kept", value: "2023-06-30T12:00:00+02:00", endOfDay: true, want: time.Date(2023, 6, 30, 10, 0, 0, 0, time.UTC)},
		{name: "garbage", value: "June", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDateFlag("at", tt.value, tt.endOfDay)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "--at")
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}
