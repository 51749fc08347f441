package cmd

import (
	"errors"
	"testing"

	"github.com/bnema/tokenwallet/internal/application"
	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanSummaryCountsConflictsByType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		plan application.SyncPlan
		want string
	}{
		{
			name: "empty",
			plan: application.SyncPlan{Class: "repos"},
			want: "repos: 0 on server, 0 cached, 0 conflicts (0 added, 0 deleted, 0 modified)",
		},
		{
			name: "mixed",
			plan: application.SyncPlan{
				Class:  "repos",
				Cached: []domain.Entity{{ID: "A"}, {ID: "B"}},
				Server: []domain.Entity{{ID: "A"}, {ID: "C"}, {ID: "D"}},
				Conflicts: []domain.SyncConflict{
					{EntityID: "C", Type: domain.ConflictAdded},
					{EntityID: "D", Type: domain.ConflictAdded},
					{EntityID: "B", Type: domain.ConflictDeleted},
					{EntityID: "A", Type: domain.ConflictModified},
				},
			},
			want: "repos: 3 on server, 2 cached, 4 conflicts (2 added, 1 deleted, 1 modified)",
		},
		{
			name: "single",
			plan: application.SyncPlan{
				Class:     "notes",
				Server:    []domain.Entity{{ID: "A"}},
				Conflicts: []domain.SyncConflict{{EntityID: "A", Type: domain.ConflictAdded}},
			},
			want: "notes: 1 on server, 0 cached, 1 conflict (1 added, 0 deleted, 0 modified)",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, planSummary(tt.plan))
		})
	}
}

func TestPlanFetchModelShowsProgressThenSummary(t *testing.T) {
	t.Parallel()

	m := newPlanFetchModel("repos", nil)
	assert.Contains(t, m.View(), "Fetching repos snapshot...")

	plan := application.SyncPlan{Class: "repos", Server: []domain.Entity{{ID: "A"}}}
	next, cmd := m.Update(planFetchedMsg{plan: plan})
	require.NotNil(t, cmd)
	done, ok := next.(planFetchModel)
	require.True(t, ok)
	assert.Equal(t, "repos: 1 on server, 0 cached, 0 conflicts (0 added, 0 deleted, 0 modified)\n", done.View())

	failed, _ := m.Update(planFetchedMsg{err: errors.New("status 502")})
	assert.Equal(t, "Fetching repos snapshot failed\n", failed.View())
}
