package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sourcecred/sourcecred-go/internal/allocation"
)

func TestPendingIntervals(t *testing.T) {
	history := allocation.CredHistory{IntervalEndsMs: []int64{1000, 2000, 3000, 4000}}

	tests := []struct {
		name            string
		history         allocation.CredHistory
		lastDistributed int64
		max             int
		want            []int
	}{
		{
			name:            "empty history",
			history:         allocation.CredHistory{},
			lastDistributed: -1,
			want:            nil,
		},
		{
			name:            "nothing distributed yet",
			history:         history,
			lastDistributed: -1,
			want:            []int{0, 1, 2, 3},
		},
		{
			name:            "everything already distributed",
			history:         history,
			lastDistributed: 4000,
			want:            nil,
		},
		{
			name:            "partially distributed",
			history:         history,
			lastDistributed: 2000,
			want:            []int{2, 3},
		},
		{
			name:            "max keeps the most recent intervals",
			history:         history,
			lastDistributed: -1,
			max:             2,
			want:            []int{2, 3},
		},
		{
			name:            "max larger than pending is a no-op",
			history:         history,
			lastDistributed: 2000,
			max:             10,
			want:            []int{2, 3},
		},
		{
			name:            "zero max means unlimited",
			history:         history,
			lastDistributed: 1000,
			max:             0,
			want:            []int{1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pendingIntervals(tt.history, tt.lastDistributed, tt.max)
			assert.Equal(t, tt.want, got)
		})
	}
}
