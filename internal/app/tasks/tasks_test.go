package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/cityguide/internal/config"
	"github.com/edgard/cityguide/internal/conversation"
)

type fakeJournal struct {
	cutoff      time.Time
	pruneErr    error
	vacuumErr   error
	vacuumCalls int
}

func (f *fakeJournal) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 3, f.pruneErr
}

func (f *fakeJournal) RunSQLMaintenance(context.Context) error {
	f.vacuumCalls++
	return f.vacuumErr
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	all := RegisterAllTasks(TaskDeps{
		Conversations: conversation.NewStore(time.Hour, 50, nil),
		Journal:       &fakeJournal{},
		Config:        &config.Config{},
	})
	assert.Len(t, all, 2)
	assert.Contains(t, all, ConversationSweep)
	assert.Contains(t, all, JournalMaintenance)

	noJournal := RegisterAllTasks(TaskDeps{Conversations: conversation.NewStore(time.Hour, 50, nil)})
	assert.Len(t, noJournal, 1)
	assert.NotContains(t, noJournal, JournalMaintenance)
}

func TestConversationSweepTask(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := conversation.NewStore(time.Hour, 50, nil, conversation.WithClock(clock))
	store.Get("old")
	now = now.Add(2 * time.Hour)

	task := RegisterAllTasks(TaskDeps{Conversations: store})[ConversationSweep]
	require.NoError(t, task(context.Background()))
	assert.Zero(t, store.Len())
}

func TestJournalMaintenanceTask(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 10, 3, 30, 0, 0, time.UTC)
	cfg := &config.Config{Database: config.DatabaseConfig{Retention: 48 * time.Hour}}

	t.Run("prunes then vacuums", func(t *testing.T) {
		t.Parallel()
		j := &fakeJournal{}
		task := RegisterAllTasks(TaskDeps{Journal: j, Config: cfg, Now: func() time.Time { return now }})[JournalMaintenance]

		require.NoError(t, task(context.Background()))
		assert.Equal(t, now.Add(-48*time.Hour), j.cutoff)
		assert.Equal(t, 1, j.vacuumCalls)
	})

	t.Run("prune failure skips vacuum", func(t *testing.T) {
		t.Parallel()
		j := &fakeJournal{pruneErr: errors.New("locked")}
		task := RegisterAllTasks(TaskDeps{Journal: j, Config: cfg, Now: func() time.Time { return now }})[JournalMaintenance]

		err := task(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "locked")
		assert.Zero(t, j.vacuumCalls)
	})

	t.Run("vacuum failure", func(t *testing.T) {
		t.Parallel()
		j := &fakeJournal{vacuumErr: errors.New("disk full")}
		task := RegisterAllTasks(TaskDeps{Journal: j, Config: cfg, Now: func() time.Time { return now }})[JournalMaintenance]

		assert.ErrorContains(t, task(context.Background()), "sql maintenance failed")
	})
}
