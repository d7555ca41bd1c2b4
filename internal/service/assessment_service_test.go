package service

import (
	"encoding/json"
	"sync"
	"testing"

	"pathways_backend/internal/model"
	"pathways_backend/internal/protocol"
	"pathways_backend/internal/testutil"
	"pathways_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSessionQuizHidesCorrectness(t *testing.T) {
	h := newHarness(t)

	view, err := h.assessment.LoadSession(t.Context(), student, "m1", "u1")
	require.NoError(t, err)
	assert.False(t, view.Complete)
	assert.Equal(t, "quiz", view.AssessType)
	assert.Equal(t, 10, view.Points)
	require.Len(t, view.Questions, 2)
	assert.Equal(t, "q1", view.Questions[0].ID)
	assert.Equal(t, 1, view.Questions[0].Count)
	assert.Equal(t, []protocol.AnswerView{{ID: "a", Text: "Answer a"}, {ID: "b", Text: "Answer b"}}, view.Questions[0].Answers)
	assert.Nil(t, view.ModuleProgress)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "correct")

	// record created lazily
	rec, err := h.attempts.Find(t.Context(), student.UserID, "u1")
	require.NoError(t, err)
	assert.False(t, rec.Completed)
}

func TestLoadSessionLab(t *testing.T) {
	h := newHarness(t)

	view, err := h.assessment.LoadSession(t.Context(), student, "m1", "u2")
	require.NoError(t, err)
	assert.Equal(t, "lab", view.AssessType)
	assert.Equal(t, "<p>setup</p>", view.Setup)
	assert.Equal(t, "<p>activity</p>", view.Activity)
	assert.Empty(t, view.Questions)
}

func TestContextResolution(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()

	_, err := h.assessment.LoadSession(ctx, student, "p1", "u1")
	assert.NoError(t, err, "path containing the module")

	_, err = h.assessment.LoadSession(ctx, student, "m2", "u1")
	assert.ErrorIs(t, err, util.ErrUnitNotFound)

	_, err = h.assessment.LoadSession(ctx, student, "m1", "missing")
	assert.ErrorIs(t, err, util.ErrUnitNotFound)

	_, err = h.assessment.Grade(ctx, student, "nowhere", "u2", protocol.Submission{})
	assert.ErrorIs(t, err, util.ErrUnitNotFound)
}

func TestPreviewRestricted(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()

	_, err := h.assessment.LoadSession(ctx, student, "m2", "u4")
	assert.ErrorIs(t, err, util.ErrPreviewRestricted)
	_, err = h.assessment.Grade(ctx, student, "m2", "u4", protocol.Submission{})
	assert.ErrorIs(t, err, util.ErrPreviewRestricted)

	_, err = h.attempts.Find(ctx, student.UserID, "u4")
	assert.Error(t, err, "no record for a rejected viewer")

	resp, err := h.assessment.Grade(ctx, teacher, "m2", "u4", protocol.Submission{})
	require.NoError(t, err)
	assert.True(t, resp.Correct())

	beta := model.Viewer{UserID: 9, Role: model.Student, CanPreview: true}
	_, err = h.assessment.LoadSession(ctx, beta, "m2", "u4")
	assert.NoError(t, err)
}

func TestGradeScenario(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()

	resp, err := h.assessment.Grade(ctx, student, "m1", "u1", protocol.Submission{"q1": {"a"}, "q2": {"d"}})
	require.NoError(t, err)
	require.True(t, resp.Correct())
	assert.Equal(t, 10, resp.Points)
	require.NotNil(t, resp.ModuleProgress)
	assert.Equal(t, 33, resp.ModuleProgress.ProgBar)
	assert.False(t, resp.ModuleProgress.Tada)
	assert.Equal(t, "Module One", resp.ModuleProgress.ModuleName)
	assert.Equal(t, "/badges/mod-m1.png", resp.ModuleProgress.ModuleBadge)
	require.NotNil(t, resp.ModuleProgress.NextUnitHRef)
	assert.Equal(t, "/unit/m1/u2", *resp.ModuleProgress.NextUnitHRef)
	assert.Equal(t, "Unit Two", *resp.ModuleProgress.NextUnitName)

	resp, err = h.assessment.Grade(ctx, student, "p1", "u2", protocol.Submission{})
	require.NoError(t, err)
	require.True(t, resp.Correct())
	assert.Equal(t, 100, resp.ModuleProgress.ProgBar)
	assert.True(t, resp.ModuleProgress.Tada)
	assert.Nil(t, resp.ModuleProgress.NextUnitHRef)
	assert.Equal(t, "Completed, 30 of 30 points", resp.ModuleProgress.Progress)

	again, err := h.assessment.Grade(ctx, student, "m1", "u2", protocol.Submission{"junk": {"x"}})
	require.NoError(t, err)
	assert.True(t, again.Correct())
	assert.Equal(t, resp.Points, again.Points)
	assert.False(t, again.ModuleProgress.Tada)
	assert.Equal(t, 100, again.ModuleProgress.ProgBar)

	view, err := h.assessment.LoadSession(ctx, student, "m1", "u2")
	require.NoError(t, err)
	assert.True(t, view.Complete)
	assert.Equal(t, 20, view.Points)
	require.NotNil(t, view.ModuleProgress)
	assert.False(t, view.ModuleProgress.Tada)
	assert.Empty(t, view.Setup)
}

func TestGradeErrorOutcome(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()

	resp, err := h.assessment.Grade(ctx, student, "m1", "u1", protocol.Submission{"q1": {"b"}, "q2": {"d"}})
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.Equal(t, 10, resp.Points)
	assert.Equal(t, 1, resp.Errors)
	assert.Equal(t, "You've got 1 wrong answer.", resp.ErrorMsg)
	assert.Equal(t, map[string][]string{"q1": {"b"}, "q2": {}}, resp.Incorrect)
	assert.Nil(t, resp.ModuleProgress)

	rec, err := h.attempts.Find(ctx, student.UserID, "u1")
	require.NoError(t, err)
	assert.False(t, rec.Completed)
	assert.Zero(t, rec.PointsEarned)

	resp, err = h.assessment.Grade(ctx, student, "m1", "u1", protocol.Submission{})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Errors)
	assert.Equal(t, []string{"a", "b"}, resp.Incorrect["q1"])
}

func TestGradeConcurrentDuplicates(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()
	_, err := h.assessment.Grade(ctx, student, "m1", "u1", protocol.Submission{"q1": {"a"}, "q2": {"d"}})
	require.NoError(t, err)

	const n = 6
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		tadas int
		errs  []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := h.assessment.Grade(ctx, student, "m1", "u2", protocol.Submission{})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if resp.ModuleProgress.Tada {
				tadas++
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, errs)
	assert.Equal(t, 1, tadas)

	snap, err := h.progress.ModuleSnapshot(ctx, student.UserID, "m1")
	require.NoError(t, err)
	assert.Equal(t, 30, snap.EarnedPoints)
}

func TestNextUnitSkipsPreviewForStudents(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()
	sub := protocol.Submission{"q1": {"a", "c"}}

	resp, err := h.assessment.Grade(ctx, student, "m2", "u3", sub)
	require.NoError(t, err)
	assert.Nil(t, resp.ModuleProgress.NextUnitHRef)

	resp, err = h.assessment.Grade(ctx, teacher, "m2", "u3", sub)
	require.NoError(t, err)
	require.NotNil(t, resp.ModuleProgress.NextUnitHRef)
	assert.Equal(t, "/unit/m2/u4", *resp.ModuleProgress.NextUnitHRef)
}

func TestGradeStorageUnavailable(t *testing.T) {
	h := newHarness(t)
	testutil.Break(t, h.db)

	_, err := h.assessment.Grade(t.Context(), student, "m1", "u2", protocol.Submission{})
	assert.ErrorIs(t, err, util.ErrStorageUnavailable)

	_, err = h.assessment.LoadSession(t.Context(), student, "m1", "u2")
	assert.ErrorIs(t, err, util.ErrStorageUnavailable)
}
