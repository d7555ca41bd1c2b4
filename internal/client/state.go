// Package client drives an assessment session from the learner's side: it loads the
// session, tracks answer selection, submits, and folds server outcomes back into state.
//
// State transitions are pure functions over State so they can be tested without any
// rendering layer; Assessor runs them on a single event loop.
package client

import (
	"fmt"

	"pathways_backend/internal/protocol"
)

type Phase int

const (
	Uninitialized Phase = iota
	Loading
	Failed
	Ready
	Answering
	Submitting
	Complete
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Failed:
		return "error"
	case Ready:
		return "ready"
	case Answering:
		return "answering"
	case Submitting:
		return "submitting"
	case Complete:
		return "complete"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Selection is one checked answer input.
type Selection struct {
	QuestionID string
	AnswerID   string
}

// State is everything the assessment view renders from. Maps are never shared between
// two State values returned by the transition functions.
type State struct {
	Phase      Phase
	AssessType string
	Points     int
	Questions  []protocol.QuestionView
	Setup      string
	Activity   string

	// Answers is the current selection per question.
	Answers map[string][]string
	// Incorrect is the last server verdict per question; nil until the first failed attempt.
	Incorrect map[string][]string

	CanSubmit  bool
	ErrorCount int
	ErrorMsg   string
	DataError  bool

	ModuleProgress *protocol.ModuleProgress
	// TadaPending is set by the completing response and cleared by TakeTada.
	TadaPending bool
}

func (s State) isLab() bool {
	return s.AssessType == "lab"
}

func (s State) clone() State {
	s.Answers = cloneMap(s.Answers)
	s.Incorrect = cloneMap(s.Incorrect)
	return s
}

func cloneMap(m map[string][]string) map[string][]string {
	if m == nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string{}, v...)
	}
	return out
}

// Mount starts the session fetch. Only an uninitialized state moves.
func Mount(s State) State {
	if s.Phase != Uninitialized {
		return s
	}
	s = s.clone()
	s.Phase = Loading
	return s
}

// Loaded applies the fetched session.
func Loaded(s State, view protocol.SessionView) State {
	if s.Phase != Loading {
		return s
	}
	s = s.clone()
	s.AssessType = view.AssessType
	s.Points = view.Points
	s.Questions = view.Questions
	s.Setup = view.Setup
	s.Activity = view.Activity
	s.Answers = map[string][]string{}
	s.Incorrect = nil
	s.ErrorCount = 0
	s.ErrorMsg = ""
	s.DataError = false

	if view.Complete {
		// revisiting a finished unit never celebrates
		s.Phase = Complete
		s.ModuleProgress = view.ModuleProgress
		s.TadaPending = false
		s.CanSubmit = false
		return s
	}

	s.Phase = Ready
	s.CanSubmit = s.isLab()
	return s
}

// LoadFailed is terminal for the mounted view; there is no retry.
func LoadFailed(s State) State {
	if s.Phase != Loading {
		return s
	}
	s = s.clone()
	s.Phase = Failed
	s.DataError = true
	s.CanSubmit = false
	return s
}

// AnswerChanged rebuilds the selection from every checked input and clears the
// verdict of the question that changed. Locked questions keep their selection.
func AnswerChanged(s State, changed Selection, checked []Selection) State {
	if s.Phase != Ready && s.Phase != Answering {
		return s
	}
	if s.isLab() || QuestionLocked(s, changed.QuestionID) {
		return s
	}

	s = s.clone()
	prev := s.Answers
	s.Answers = make(map[string][]string)
	for _, sel := range checked {
		if QuestionLocked(s, sel.QuestionID) {
			continue
		}
		s.Answers[sel.QuestionID] = append(s.Answers[sel.QuestionID], sel.AnswerID)
	}
	for qid, ids := range prev {
		if QuestionLocked(s, qid) {
			s.Answers[qid] = ids
		}
	}

	if s.Incorrect != nil {
		delete(s.Incorrect, changed.QuestionID)
	}

	s.Phase = Answering
	s.ErrorCount = failedQuestions(s)
	s.CanSubmit = submittable(s)
	return s
}

// Submit moves to Submitting and returns the payload to send. ok is false when
// submission is not currently allowed, including while another one is in flight.
func Submit(s State) (next State, sub protocol.Submission, ok bool) {
	if !s.CanSubmit || (s.Phase != Ready && s.Phase != Answering) {
		return s, nil, false
	}
	next = s.clone()
	next.Phase = Submitting
	next.CanSubmit = false

	sub = protocol.Submission{}
	if !next.isLab() {
		for qid, ids := range next.Answers {
			sub[qid] = append([]string{}, ids...)
		}
	}
	return next, sub, true
}

// Graded folds the server verdict into state.
func Graded(s State, resp protocol.GradeResponse) State {
	if s.Phase != Submitting {
		return s
	}
	s = s.clone()
	s.DataError = false

	if resp.Correct() {
		s.Phase = Complete
		s.Points = resp.Points
		s.ModuleProgress = resp.ModuleProgress
		s.TadaPending = resp.ModuleProgress != nil && resp.ModuleProgress.Tada
		s.CanSubmit = false
		return s
	}

	s.Phase = Answering
	s.Points = resp.Points
	s.Incorrect = cloneMap(resp.Incorrect)
	if s.Incorrect == nil {
		s.Incorrect = map[string][]string{}
	}
	s.ErrorCount = resp.Errors
	s.ErrorMsg = resp.ErrorMsg
	s.CanSubmit = s.isLab()
	return s
}

// SubmitFailed keeps the learner's selections and flags the transport problem.
// Submission stays disabled until the selection changes again.
func SubmitFailed(s State) State {
	if s.Phase != Submitting {
		return s
	}
	s = s.clone()
	s.Phase = Answering
	s.DataError = true
	s.CanSubmit = false
	return s
}

// TakeTada consumes the one-shot celebration.
func TakeTada(s State) (State, bool) {
	if !s.TadaPending {
		return s, false
	}
	s = s.clone()
	s.TadaPending = false
	return s, true
}

func submittable(s State) bool {
	if s.isLab() {
		return true
	}
	for _, q := range s.Questions {
		if len(s.Answers[q.ID]) != q.Count {
			return false
		}
		if len(s.Incorrect[q.ID]) != 0 {
			return false
		}
	}
	return true
}

func failedQuestions(s State) int {
	n := 0
	for _, q := range s.Questions {
		if len(s.Incorrect[q.ID]) != 0 {
			n++
		}
	}
	return n
}
