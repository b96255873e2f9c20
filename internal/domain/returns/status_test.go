package returns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturnStatusTransitions(t *testing.T) {
	t.Run("happy path through the full pipeline", func(t *testing.T) {
		path := []ReturnStatus{
			StatusDraft, StatusRequested, StatusJobAccepted, StatusBranchReceived,
			StatusConsolidated, StatusInTransit, StatusHubReceived,
			StatusGraded, StatusDocumented, StatusCompleted,
		}
		for i := 0; i < len(path)-1; i++ {
			assert.True(t, path[i].CanTransitionTo(path[i+1]),
				"%s -> %s should be legal", path[i], path[i+1])
		}
	})

	t.Run("bypass edge skips hub grading", func(t *testing.T) {
		assert.True(t, StatusRequested.CanTransitionTo(StatusDirectReturn))
		assert.True(t, StatusRequested.CanTransitionTo(StatusReturnToSupplier))
		assert.True(t, StatusDirectReturn.CanTransitionTo(StatusCompleted))
		assert.False(t, StatusDirectReturn.CanTransitionTo(StatusHubReceived))
	})

	t.Run("no skipping states", func(t *testing.T) {
		assert.False(t, StatusDraft.CanTransitionTo(StatusInTransit))
		assert.False(t, StatusJobAccepted.CanTransitionTo(StatusHubReceived))
		assert.False(t, StatusHubReceived.CanTransitionTo(StatusCompleted))
	})

	t.Run("cancel reachable from any non-terminal state", func(t *testing.T) {
		for _, s := range []ReturnStatus{
			StatusDraft, StatusRequested, StatusJobAccepted, StatusInTransit,
			StatusHubReceived, StatusGraded, StatusDocumented, StatusDirectReturn,
		} {
			assert.True(t, s.CanTransitionTo(StatusCanceled), "%s should cancel", s)
		}
		assert.False(t, StatusCompleted.CanTransitionTo(StatusCanceled))
		assert.False(t, StatusCanceled.CanTransitionTo(StatusCanceled))
	})

	t.Run("locked set is everything past step 1", func(t *testing.T) {
		assert.False(t, StatusDraft.IsLocked())
		assert.False(t, StatusRequested.IsLocked())
		for _, s := range []ReturnStatus{
			StatusJobAccepted, StatusBranchReceived, StatusConsolidated,
			StatusInTransit, StatusHubReceived, StatusQCPassed, StatusQCFailed,
			StatusGraded, StatusDocumented, StatusCompleted,
			StatusDirectReturn, StatusReturnToSupplier, StatusCanceled,
		} {
			assert.True(t, s.IsLocked(), "%s should be locked", s)
		}
	})
}

func TestReturnRecordAdvance(t *testing.T) {
	t.Run("stamps the stage timestamp", func(t *testing.T) {
		r := rec("1", "R-1", "", "Widget", StatusDraft)
		require.NoError(t, r.Advance(StatusRequested, "2026-08-01"))
		assert.Equal(t, StatusRequested, r.Status)
		assert.Equal(t, "2026-08-01", r.DateRequested)
	})

	t.Run("records the grading outcome", func(t *testing.T) {
		r := rec("1", "R-1", "", "Widget", StatusHubReceived)
		require.NoError(t, r.Advance(StatusQCFailed, "2026-08-02"))
		assert.Equal(t, StatusQCFailed, r.GradeResult)
		assert.Equal(t, "2026-08-02", r.DateGraded)
	})

	t.Run("rejects illegal transitions", func(t *testing.T) {
		r := rec("1", "R-1", "", "Widget", StatusDraft)
		err := r.Advance(StatusCompleted, "2026-08-01")
		assert.Error(t, err)
		assert.Equal(t, StatusDraft, r.Status)
	})
}

func TestReturnRecordStepBack(t *testing.T) {
	t.Run("moves exactly one step back and clears the stamp", func(t *testing.T) {
		r := rec("1", "R-1", "", "Widget", StatusHubReceived)
		require.NoError(t, r.Advance(StatusGraded, "2026-08-02"))
		require.NoError(t, r.StepBack())
		assert.Equal(t, StatusHubReceived, r.Status)
		assert.Empty(t, r.DateGraded)
		assert.Empty(t, r.GradeResult)
	})

	t.Run("documented returns to the grading state it came from", func(t *testing.T) {
		r := rec("1", "R-1", "", "Widget", StatusHubReceived)
		require.NoError(t, r.Advance(StatusQCPassed, "2026-08-02"))
		require.NoError(t, r.Advance(StatusDocumented, "2026-08-03"))
		require.NoError(t, r.StepBack())
		assert.Equal(t, StatusQCPassed, r.Status)
	})

	t.Run("completed via bypass returns to the bypass state", func(t *testing.T) {
		r := rec("1", "R-1", "", "Widget", StatusRequested)
		require.NoError(t, r.Advance(StatusDirectReturn, "2026-08-02"))
		require.NoError(t, r.Advance(StatusCompleted, "2026-08-03"))
		require.NoError(t, r.StepBack())
		assert.Equal(t, StatusDirectReturn, r.Status)
	})

	t.Run("cannot step back from draft or canceled", func(t *testing.T) {
		r := rec("1", "R-1", "", "Widget", StatusDraft)
		assert.Error(t, r.StepBack())

		r.Status = StatusCanceled
		assert.Error(t, r.StepBack())
	})
}

func TestReturnRecordCancel(t *testing.T) {
	r := rec("1", "R-1", "", "Widget", StatusInTransit)
	require.NoError(t, r.Cancel())
	assert.Equal(t, StatusCanceled, r.Status)

	done := rec("2", "R-2", "", "Widget", StatusCompleted)
	assert.Error(t, done.Cancel())
}
