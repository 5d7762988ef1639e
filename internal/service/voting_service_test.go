package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chamber-v2/internal/domain"
)

func TestShouldAutoComplete(t *testing.T) {
	tests := []struct {
		name          string
		poll          domain.Poll
		ballotCount   int
		eligibleCount int
		want          bool
	}{
		{
			name:          "all eligible voters have cast",
			poll:          domain.Poll{RequireAllEligible: true},
			ballotCount:   3,
			eligibleCount: 3,
			want:          true,
		},
		{
			name:          "one eligible voter still missing",
			poll:          domain.Poll{RequireAllEligible: true},
			ballotCount:   2,
			eligibleCount: 3,
			want:          false,
		},
		{
			name:          "flag disabled",
			poll:          domain.Poll{RequireAllEligible: false},
			ballotCount:   3,
			eligibleCount: 3,
			want:          false,
		},
		{
			name:          "no eligible voters never completes",
			poll:          domain.Poll{RequireAllEligible: true},
			ballotCount:   0,
			eligibleCount: 0,
			want:          false,
		},
		{
			name:          "membership shrank below ballot count",
			poll:          domain.Poll{RequireAllEligible: true},
			ballotCount:   4,
			eligibleCount: 3,
			want:          true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldAutoComplete(&tt.poll, tt.ballotCount, tt.eligibleCount))
		})
	}
}
