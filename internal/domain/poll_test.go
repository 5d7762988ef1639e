package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollState(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)
	later := now.Add(time.Hour)
	done := now.Add(-time.Minute)

	tests := []struct {
		name string
		poll Poll
		want PollState
	}{
		{
			name: "open within window",
			poll: Poll{Active: true, StartsAt: earlier, EndsAt: later},
			want: PollStateOpen,
		},
		{
			name: "scheduled before window",
			poll: Poll{Active: true, StartsAt: later, EndsAt: later.Add(time.Hour)},
			want: PollStateScheduled,
		},
		{
			name: "draft when inactive",
			poll: Poll{Active: false, StartsAt: earlier, EndsAt: later},
			want: PollStateDraft,
		},
		{
			name: "completed after window without terminal mark",
			poll: Poll{Active: true, StartsAt: earlier.Add(-time.Hour), EndsAt: earlier},
			want: PollStateCompleted,
		},
		{
			name: "completed mark wins over open window",
			poll: Poll{Active: true, StartsAt: earlier, EndsAt: later, CompletedAt: &done},
			want: PollStateCompleted,
		},
		{
			name: "auto completed mark",
			poll: Poll{Active: true, StartsAt: earlier, EndsAt: later, CompletedAt: &done, AutoCompleted: true},
			want: PollStateAutoCompleted,
		},
		{
			name: "inactive poll past window is completed",
			poll: Poll{Active: false, StartsAt: earlier.Add(-time.Hour), EndsAt: earlier},
			want: PollStateCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.poll.State(now))
		})
	}
}

func TestPollIsOpen(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	open := Poll{Active: true, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour)}
	assert.True(t, open.IsOpen(now))
	assert.False(t, open.IsTerminal(now))

	expired := Poll{Active: true, StartsAt: now.Add(-2 * time.Hour), EndsAt: now.Add(-time.Hour)}
	assert.False(t, expired.IsOpen(now))
	assert.True(t, expired.IsTerminal(now))
}

func TestPollCanViewResults(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	running := Poll{Active: true, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour)}
	assert.False(t, running.CanViewResults(now))

	running.ResultsPublic = true
	assert.True(t, running.CanViewResults(now))

	finished := Poll{Active: true, StartsAt: now.Add(-2 * time.Hour), EndsAt: now.Add(-time.Hour)}
	assert.True(t, finished.CanViewResults(now))
}

func TestValidatePollWindow(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		startsAt time.Time
		endsAt   time.Time
		quorum   int
		wantErr  string
	}{
		{
			name:     "valid window",
			startsAt: now.Add(time.Hour),
			endsAt:   now.Add(48 * time.Hour),
		},
		{
			name:     "window ends before it starts",
			startsAt: now.Add(48 * time.Hour),
			endsAt:   now.Add(time.Hour),
			wantErr:  "voting window must end after it starts",
		},
		{
			name:     "window already over",
			startsAt: now.Add(-48 * time.Hour),
			endsAt:   now.Add(-time.Hour),
			wantErr:  "voting window must end in the future",
		},
		{
			name:     "negative quorum",
			startsAt: now.Add(time.Hour),
			endsAt:   now.Add(48 * time.Hour),
			quorum:   -1,
			wantErr:  "quorum cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePollWindow(tt.startsAt, tt.endsAt, tt.quorum, now)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestValidatePollSpec(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	valid := func() *CreatePollRequest {
		return &CreatePollRequest{
			Title:    "Budget direction 2027",
			Type:     PollTypeSingleChoice,
			StartsAt: now.Add(time.Hour),
			EndsAt:   now.Add(48 * time.Hour),
			Options:  []string{"Expand", "Consolidate"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*CreatePollRequest)
		wantErr string
	}{
		{
			name:   "valid request",
			mutate: func(r *CreatePollRequest) {},
		},
		{
			name:    "missing title",
			mutate:  func(r *CreatePollRequest) { r.Title = "   " },
			wantErr: "title is required",
		},
		{
			name:    "unknown type",
			mutate:  func(r *CreatePollRequest) { r.Type = "plurality" },
			wantErr: "unknown poll type",
		},
		{
			name: "window ends before it starts",
			mutate: func(r *CreatePollRequest) {
				r.StartsAt = now.Add(48 * time.Hour)
				r.EndsAt = now.Add(time.Hour)
			},
			wantErr: "voting window must end after it starts",
		},
		{
			name: "window already over",
			mutate: func(r *CreatePollRequest) {
				r.StartsAt = now.Add(-48 * time.Hour)
				r.EndsAt = now.Add(-time.Hour)
			},
			wantErr: "voting window must end in the future",
		},
		{
			name:    "negative quorum",
			mutate:  func(r *CreatePollRequest) { r.Quorum = -1 },
			wantErr: "quorum cannot be negative",
		},
		{
			name:    "single option",
			mutate:  func(r *CreatePollRequest) { r.Options = []string{"Expand"} },
			wantErr: "at least two options are required",
		},
		{
			name:    "blank option text",
			mutate:  func(r *CreatePollRequest) { r.Options = []string{"Expand", "  "} },
			wantErr: "option text cannot be empty",
		},
		{
			name:    "duplicate option text",
			mutate:  func(r *CreatePollRequest) { r.Options = []string{"Expand", "Expand"} },
			wantErr: "option text must be unique within a poll",
		},
		{
			name: "yes no polls reject caller options",
			mutate: func(r *CreatePollRequest) {
				r.Type = PollTypeYesNo
			},
			wantErr: "yes/no polls carry a fixed option pair",
		},
		{
			name: "yes no polls without options",
			mutate: func(r *CreatePollRequest) {
				r.Type = PollTypeYesNo
				r.Options = nil
			},
		},
		{
			name: "rating polls reject options",
			mutate: func(r *CreatePollRequest) {
				r.Type = PollTypeRating
			},
			wantErr: "poll type does not take options",
		},
		{
			name: "free text polls without options",
			mutate: func(r *CreatePollRequest) {
				r.Type = PollTypeFreeText
				r.Options = nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			err := ValidatePollSpec(req, now)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestYesNoOptionTexts(t *testing.T) {
	assert.Equal(t, []string{"Yes", "No"}, YesNoOptionTexts())
}
