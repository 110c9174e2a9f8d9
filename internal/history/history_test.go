package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/uiscout/internal/questions"
	"github.com/v0xg/uiscout/internal/uistate"
	"github.com/v0xg/uiscout/internal/workflow"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(context.Background(), Config{Path: filepath.Join(t.TempDir(), "history.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRecordAndList(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := range 3 {
		require.NoError(t, c.Record(ctx, &RunRecord{
			ID:         fmt.Sprintf("run-%d", i),
			Goal:       fmt.Sprintf("goal %d", i),
			EntryURL:   "https://app.test/",
			Dir:        fmt.Sprintf("workflows/goal_%d", i),
			States:     i + 1,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute),
		}))
	}

	got, err := c.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "run-2", got[0].ID)
	assert.Equal(t, "run-1", got[1].ID)
	assert.Equal(t, 3, got[0].States)

	all, err := c.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRecordReplacesSameID(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()
	rec := &RunRecord{ID: "run", Goal: "g", EntryURL: "u", Dir: "d", StartedAt: time.Now(), FinishedAt: time.Now()}

	require.NoError(t, c.Record(ctx, rec))
	rec.GoalReached = true
	require.NoError(t, c.Record(ctx, rec))

	got, err := c.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].GoalReached)
}

func TestRecordRequiresID(t *testing.T) {
	c := openTestCatalog(t)
	assert.Error(t, c.Record(context.Background(), &RunRecord{}))
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	assert.Error(t, err)
}

func TestFromWorkflow(t *testing.T) {
	id := uuid.New()
	wf := &workflow.Workflow{
		ID:          id,
		Goal:        "Create project",
		EntryURL:    "https://linear.app/",
		Dir:         "workflows/create_project_20240501_103000",
		Turns:       []workflow.Turn{{State: &uistate.UIState{}}, {State: &uistate.UIState{}}},
		Executed:    []questions.Question{{Text: "a"}, {Text: "b"}, {Text: "c"}},
		GoalReached: true,
	}

	rec := FromWorkflow(wf)

	assert.Equal(t, id.String(), rec.ID)
	assert.Equal(t, 2, rec.States)
	assert.Equal(t, 3, rec.Questions)
	assert.True(t, rec.GoalReached)
	assert.Equal(t, wf.Dir, rec.Dir)
}
