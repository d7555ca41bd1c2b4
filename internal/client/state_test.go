package client

import (
	"testing"

	"pathways_backend/internal/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quizView() protocol.SessionView {
	return protocol.SessionView{
		AssessType: "quiz",
		Points:     10,
		Questions: []protocol.QuestionView{
			{ID: "q1", Text: "One", Count: 1, Answers: []protocol.AnswerView{{ID: "a"}, {ID: "b"}}},
			{ID: "q2", Text: "Two", Count: 2, Answers: []protocol.AnswerView{{ID: "c"}, {ID: "d"}, {ID: "e"}}},
		},
	}
}

func loadedQuiz(t *testing.T) State {
	t.Helper()
	s := Loaded(Mount(State{}), quizView())
	require.Equal(t, Ready, s.Phase)
	return s
}

func sel(q, a string) Selection { return Selection{QuestionID: q, AnswerID: a} }

func TestLoadTransitions(t *testing.T) {
	s := Mount(State{})
	assert.Equal(t, Loading, s.Phase)
	assert.Equal(t, ViewNone, View(s))
	assert.Equal(t, Loading, Mount(s).Phase)

	failed := LoadFailed(s)
	assert.Equal(t, Failed, failed.Phase)
	assert.Equal(t, ViewError, View(failed))
	assert.NotEmpty(t, DataErrorNotice(failed))
	// no retry from the error state
	assert.Equal(t, Failed, Loaded(failed, quizView()).Phase)

	quiz := Loaded(s, quizView())
	assert.Equal(t, ViewQuiz, View(quiz))
	assert.False(t, quiz.CanSubmit)

	lab := Loaded(s, protocol.SessionView{AssessType: "lab", Points: 20, Activity: "<p>x</p>"})
	assert.Equal(t, ViewLab, View(lab))
	assert.True(t, lab.CanSubmit)
}

func TestLoadedCompleteNeverCelebrates(t *testing.T) {
	mp := &protocol.ModuleProgress{ModuleName: "M", ProgBar: 100, Tada: true}
	s := Loaded(Mount(State{}), protocol.SessionView{Complete: true, AssessType: "quiz", Points: 10, ModuleProgress: mp})
	assert.Equal(t, Complete, s.Phase)
	assert.Equal(t, ViewComplete, View(s))
	assert.False(t, s.TadaPending)
	_, fired := TakeTada(s)
	assert.False(t, fired)
}

func TestAnswerGating(t *testing.T) {
	s := loadedQuiz(t)

	s = AnswerChanged(s, sel("q1", "a"), []Selection{sel("q1", "a")})
	assert.Equal(t, Answering, s.Phase)
	assert.False(t, s.CanSubmit)

	s = AnswerChanged(s, sel("q2", "c"), []Selection{sel("q1", "a"), sel("q2", "c")})
	assert.False(t, s.CanSubmit, "q2 needs two answers")

	s = AnswerChanged(s, sel("q2", "e"), []Selection{sel("q1", "a"), sel("q2", "c"), sel("q2", "e")})
	assert.True(t, s.CanSubmit)
	assert.Equal(t, map[string][]string{"q1": {"a"}, "q2": {"c", "e"}}, s.Answers)

	s = AnswerChanged(s, sel("q2", "d"), []Selection{sel("q1", "a"), sel("q2", "c"), sel("q2", "d"), sel("q2", "e")})
	assert.False(t, s.CanSubmit, "too many answers")
}

func TestSubmitBlocksReentry(t *testing.T) {
	s := loadedQuiz(t)
	s = AnswerChanged(s, sel("q2", "e"), []Selection{sel("q1", "a"), sel("q2", "c"), sel("q2", "e")})

	s, sub, ok := Submit(s)
	require.True(t, ok)
	assert.Equal(t, Submitting, s.Phase)
	assert.False(t, s.CanSubmit)
	assert.Equal(t, protocol.Submission{"q1": {"a"}, "q2": {"c", "e"}}, sub)

	_, _, ok = Submit(s)
	assert.False(t, ok)

	// input changes are ignored while a submission is in flight
	same := AnswerChanged(s, sel("q1", "b"), []Selection{sel("q1", "b")})
	assert.Equal(t, s.Answers, same.Answers)
}

func TestGradedErrorReplacesVerdict(t *testing.T) {
	s := loadedQuiz(t)
	s = AnswerChanged(s, sel("q2", "e"), []Selection{sel("q1", "b"), sel("q2", "c"), sel("q2", "e")})
	s, _, _ = Submit(s)

	s = Graded(s, protocol.GradeResponse{
		Status:    protocol.StatusError,
		Points:    10,
		Errors:    1,
		ErrorMsg:  "You've got 1 wrong answer.",
		Incorrect: map[string][]string{"q1": {"b"}, "q2": {}},
	})
	assert.Equal(t, Answering, s.Phase)
	assert.False(t, s.CanSubmit)
	assert.Equal(t, 1, s.ErrorCount)
	assert.Equal(t, "You've got 1 wrong answer.", WrongAnswerNotice(s))

	assert.True(t, QuestionLocked(s, "q2"))
	assert.False(t, QuestionLocked(s, "q1"))
	assert.True(t, QuestionFailed(s, "q1"))
	assert.Equal(t, MarkWrong, AnswerMark(s, "q1", "b"))
	assert.Equal(t, MarkNone, AnswerMark(s, "q1", "a"))
	assert.Equal(t, MarkCorrect, AnswerMark(s, "q2", "c"))
	assert.Equal(t, MarkDisabled, AnswerMark(s, "q2", "d"))

	// reselecting q1 clears only q1 and unlocks submission
	s = AnswerChanged(s, sel("q1", "a"), []Selection{sel("q1", "a"), sel("q2", "c"), sel("q2", "e")})
	_, stillThere := s.Incorrect["q1"]
	assert.False(t, stillThere)
	assert.True(t, QuestionLocked(s, "q2"))
	assert.Equal(t, 0, s.ErrorCount)
	assert.Empty(t, WrongAnswerNotice(s))
	assert.True(t, s.CanSubmit)

	// the second verdict replaces the first wholesale
	s, _, _ = Submit(s)
	s = Graded(s, protocol.GradeResponse{
		Status:    protocol.StatusError,
		Points:    10,
		Errors:    2,
		Incorrect: map[string][]string{"q1": {"a"}, "q2": {"c"}},
	})
	assert.Equal(t, map[string][]string{"q1": {"a"}, "q2": {"c"}}, s.Incorrect)
	assert.Equal(t, "You've got 2 wrong answers.", WrongAnswerNotice(s))
}

func TestClearingOneQuestionLeavesOthers(t *testing.T) {
	s := loadedQuiz(t)
	s = AnswerChanged(s, sel("q2", "d"), []Selection{sel("q1", "b"), sel("q2", "c"), sel("q2", "d")})
	s, _, _ = Submit(s)
	s = Graded(s, protocol.GradeResponse{
		Status:    protocol.StatusError,
		Errors:    2,
		Incorrect: map[string][]string{"q1": {"b"}, "q2": {"d"}},
	})

	s = AnswerChanged(s, sel("q1", "a"), []Selection{sel("q1", "a"), sel("q2", "c"), sel("q2", "d")})
	assert.NotContains(t, s.Incorrect, "q1")
	assert.Equal(t, []string{"d"}, s.Incorrect["q2"])
	assert.Equal(t, 1, s.ErrorCount)
	assert.False(t, s.CanSubmit)
}

func TestLockedQuestionKeepsSelection(t *testing.T) {
	s := loadedQuiz(t)
	s = AnswerChanged(s, sel("q2", "e"), []Selection{sel("q1", "b"), sel("q2", "c"), sel("q2", "e")})
	s, _, _ = Submit(s)
	s = Graded(s, protocol.GradeResponse{Status: protocol.StatusError, Errors: 1, Incorrect: map[string][]string{"q1": {"b"}, "q2": {}}})

	before := s
	s = AnswerChanged(s, sel("q2", "d"), []Selection{sel("q1", "b"), sel("q2", "d")})
	assert.Equal(t, before.Answers, s.Answers)

	s = AnswerChanged(s, sel("q1", "a"), []Selection{sel("q1", "a")})
	assert.Equal(t, []string{"c", "e"}, s.Answers["q2"])
	assert.True(t, s.CanSubmit)
}

func TestGradedCorrectSchedulesTadaOnce(t *testing.T) {
	s := Loaded(Mount(State{}), protocol.SessionView{AssessType: "lab", Points: 20})
	s, sub, ok := Submit(s)
	require.True(t, ok)
	assert.Empty(t, sub)

	mp := &protocol.ModuleProgress{ModuleName: "M", ProgBar: 100, Progress: "Completed", Tada: true}
	s = Graded(s, protocol.GradeResponse{Status: protocol.StatusCorrect, Points: 20, ModuleProgress: mp})
	assert.Equal(t, Complete, s.Phase)
	assert.Equal(t, 20, s.Points)
	assert.True(t, s.TadaPending)

	s, fired := TakeTada(s)
	assert.True(t, fired)
	_, fired = TakeTada(s)
	assert.False(t, fired)

	// terminal
	assert.Equal(t, Complete, Graded(s, protocol.GradeResponse{Status: protocol.StatusError}).Phase)
	_, _, ok = Submit(s)
	assert.False(t, ok)
}

func TestSubmitFailedKeepsSelections(t *testing.T) {
	s := loadedQuiz(t)
	s = AnswerChanged(s, sel("q2", "e"), []Selection{sel("q1", "a"), sel("q2", "c"), sel("q2", "e")})
	s, _, _ = Submit(s)

	s = SubmitFailed(s)
	assert.Equal(t, Answering, s.Phase)
	assert.True(t, s.DataError)
	assert.False(t, s.CanSubmit)
	assert.Equal(t, map[string][]string{"q1": {"a"}, "q2": {"c", "e"}}, s.Answers)
	assert.NotEmpty(t, DataErrorNotice(s))

	// touching an answer re-enables submission without redoing the rest
	s = AnswerChanged(s, sel("q1", "a"), []Selection{sel("q1", "a"), sel("q2", "c"), sel("q2", "e")})
	assert.True(t, s.CanSubmit)
	assert.True(t, s.DataError)
}

func TestTransitionsDoNotAlias(t *testing.T) {
	s := loadedQuiz(t)
	a := AnswerChanged(s, sel("q1", "a"), []Selection{sel("q1", "a")})
	b := AnswerChanged(a, sel("q1", "b"), []Selection{sel("q1", "b")})
	assert.Equal(t, []string{"a"}, a.Answers["q1"])
	assert.Equal(t, []string{"b"}, b.Answers["q1"])
}
