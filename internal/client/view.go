package client

import (
	"fmt"
	"slices"
)

type ViewKind int

const (
	ViewNone ViewKind = iota
	ViewError
	ViewQuiz
	ViewLab
	ViewComplete
)

// View picks what to render. Nothing is shown while loading so a slow fetch never
// flashes as a failure.
func View(s State) ViewKind {
	switch s.Phase {
	case Uninitialized, Loading:
		return ViewNone
	case Failed:
		return ViewError
	case Complete:
		return ViewComplete
	}
	if s.isLab() {
		return ViewLab
	}
	return ViewQuiz
}

// QuestionLocked reports a question the server judged right in the last attempt.
func QuestionLocked(s State, questionID string) bool {
	if s.Incorrect == nil {
		return false
	}
	ids, ok := s.Incorrect[questionID]
	return ok && len(ids) == 0
}

// QuestionFailed reports a question still carrying wrong choices.
func QuestionFailed(s State, questionID string) bool {
	return len(s.Incorrect[questionID]) != 0
}

type Mark int

const (
	MarkNone Mark = iota
	MarkDisabled
	MarkCorrect
	MarkWrong
)

// AnswerMark decorates one answer option after a graded attempt.
func AnswerMark(s State, questionID, answerID string) Mark {
	if s.Incorrect == nil {
		return MarkNone
	}
	wrong, judged := s.Incorrect[questionID]
	if !judged {
		return MarkNone
	}
	if !slices.Contains(s.Answers[questionID], answerID) {
		if len(wrong) == 0 {
			return MarkDisabled
		}
		return MarkNone
	}
	if slices.Contains(wrong, answerID) {
		return MarkWrong
	}
	return MarkCorrect
}

// WrongAnswerNotice is the footer line for outstanding wrong answers, empty when none.
func WrongAnswerNotice(s State) string {
	switch {
	case s.ErrorCount == 1:
		return "You've got 1 wrong answer."
	case s.ErrorCount > 1:
		return fmt.Sprintf("You've got %d wrong answers.", s.ErrorCount)
	}
	return ""
}

// DataErrorNotice is shown when the last network exchange failed.
func DataErrorNotice(s State) string {
	switch {
	case s.Phase == Failed:
		return "Something went wrong retrieving assessment data. Please try again later."
	case s.DataError:
		return "Something went wrong. Refresh the screen and try again."
	}
	return ""
}
