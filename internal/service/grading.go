package service

import (
	"fmt"

	"pathways_backend/internal/model"
	"pathways_backend/internal/protocol"
)

// QuizResult is the outcome of checking one submission against a quiz definition.
type QuizResult struct {
	Correct bool
	// Incorrect holds an entry for every question: empty when the question was right,
	// otherwise the offending answer ids.
	Incorrect map[string][]string
	Wrong     int
}

// GradeQuiz compares each question's submitted answer set with its correct set.
// Exact set equality only; there is no partial credit.
func GradeQuiz(questions []model.Question, sub protocol.Submission) QuizResult {
	res := QuizResult{Incorrect: make(map[string][]string, len(questions))}

	for _, q := range questions {
		chosen := dedupe(sub[q.Key])
		correct := q.CorrectKeys()

		var wrongIDs []string
		for _, id := range chosen {
			if !correct[id] {
				wrongIDs = append(wrongIDs, id)
			}
		}

		switch {
		case len(chosen) != q.Count:
			// 数量不符：按答错处理，但绝不回显正确选项
			res.Incorrect[q.Key] = structuralFailure(q, chosen, wrongIDs)
			res.Wrong++
		case len(wrongIDs) > 0 || len(chosen) != len(correct):
			if len(wrongIDs) == 0 {
				wrongIDs = chosen
			}
			res.Incorrect[q.Key] = wrongIDs
			res.Wrong++
		default:
			res.Incorrect[q.Key] = []string{}
		}
	}

	res.Correct = res.Wrong == 0
	return res
}

func structuralFailure(q model.Question, chosen, wrongIDs []string) []string {
	if len(wrongIDs) > 0 {
		return wrongIDs
	}
	if len(chosen) > 0 {
		return chosen
	}
	all := make([]string, 0, len(q.Answers))
	for _, a := range q.Answers {
		all = append(all, a.Key)
	}
	return all
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// WrongAnswerMessage renders the aggregate notice shown with an error outcome.
func WrongAnswerMessage(wrong int) string {
	if wrong == 1 {
		return "You've got 1 wrong answer."
	}
	return fmt.Sprintf("You've got %d wrong answers.", wrong)
}
