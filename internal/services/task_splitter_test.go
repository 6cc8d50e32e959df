package services

import (
	"testing"

	"github.com/reliefhub/reliefhub/internal/models"
	"github.com/stretchr/testify/require"
)

func TestSplitTasks(t *testing.T) {
	tasks := []models.Task{
		{Title: "a", ResolvesByItself: true},
		{Title: "b", ResolvesByItself: false},
		{Title: "c", ResolvesByItself: true},
		{Title: "d", ResolvesByItself: false},
	}

	selfResolved, needsCollaboration := SplitTasks(tasks)

	require.Len(t, selfResolved, 2)
	require.Len(t, needsCollaboration, 2)

	// Relative order is preserved inside each half
	require.Equal(t, "a", selfResolved[0].Title)
	require.Equal(t, "c", selfResolved[1].Title)
	require.Equal(t, "b", needsCollaboration[0].Title)
	require.Equal(t, "d", needsCollaboration[1].Title)

	for _, task := range selfResolved {
		require.True(t, task.ResolvesByItself)
	}
	for _, task := range needsCollaboration {
		require.False(t, task.ResolvesByItself)
	}
}

func TestSplitTasksEmpty(t *testing.T) {
	selfResolved, needsCollaboration := SplitTasks(nil)
	require.Empty(t, selfResolved)
	require.Empty(t, needsCollaboration)
}

func TestSplitTasksAllOneSide(t *testing.T) {
	all := []models.Task{
		{Title: "a", ResolvesByItself: true},
		{Title: "b", ResolvesByItself: true},
	}

	selfResolved, needsCollaboration := SplitTasks(all)
	require.Len(t, selfResolved, 2)
	require.Empty(t, needsCollaboration)

	none := []models.Task{
		{Title: "c"},
		{Title: "d"},
	}

	selfResolved, needsCollaboration = SplitTasks(none)
	require.Empty(t, selfResolved)
	require.Len(t, needsCollaboration, 2)
}
