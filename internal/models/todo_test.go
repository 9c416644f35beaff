package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTodoStatus(t *testing.T) {
	t.Run("known values", func(t *testing.T) {
		for _, status := range TodoStatuses {
			parsed, err := ParseTodoStatus(string(status))
			require.NoError(t, err)
			require.Equal(t, status, parsed)
		}
	})

	t.Run("unknown values", func(t *testing.T) {
		for _, raw := range []string{"", "done", "PENDING", "archived"} {
			_, err := ParseTodoStatus(raw)
			require.Error(t, err, "value %q", raw)
		}
	})
}

func TestParseTodoPriority(t *testing.T) {
	t.Run("known values", func(t *testing.T) {
		for _, priority := range TodoPriorities {
			parsed, err := ParseTodoPriority(string(priority))
			require.NoError(t, err)
			require.Equal(t, priority, parsed)
		}
	})

	t.Run("unknown values", func(t *testing.T) {
		for _, raw := range []string{"", "critical", "URGENT"} {
			_, err := ParseTodoPriority(raw)
			require.Error(t, err, "value %q", raw)
		}
	})
}

func TestSetCompleted(t *testing.T) {
	t.Run("completing sets status", func(t *testing.T) {
		todo := Todo{Status: StatusInProgress}
		todo.SetCompleted(true)
		require.Equal(t, StatusCompleted, todo.Status)
		require.True(t, todo.IsCompleted())
	})

	t.Run("un-completing reverts completed to pending", func(t *testing.T) {
		todo := Todo{Status: StatusCompleted}
		todo.SetCompleted(false)
		require.Equal(t, StatusPending, todo.Status)
		require.False(t, todo.IsCompleted())
	})

	t.Run("un-completing leaves other statuses alone", func(t *testing.T) {
		todo := Todo{Status: StatusCancelled}
		todo.SetCompleted(false)
		require.Equal(t, StatusCancelled, todo.Status)
	})
}
