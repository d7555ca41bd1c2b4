package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"pathways_backend/internal/client"
	"pathways_backend/internal/protocol"

	"github.com/spf13/cobra"
)

var takeCmd = &cobra.Command{
	Use:   "take <context>/<unit>",
	Short: "Take a unit assessment interactively",
	Long: `Take loads the assessment for a unit, asks for an answer to every question
and submits until the unit is complete. Answers are given by letter (A, B, ...)
or number, separated by commas or spaces. Labs are submitted with Enter.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.Count(args[0], "/") != 1 {
			return fmt.Errorf("want <context>/<unit>, got %q", args[0])
		}
		tr, err := transportFor(cmd)
		if err != nil {
			return err
		}
		s := newSession(tr, args[0], cmd.InOrStdin(), cmd.OutOrStdout())
		defer s.a.Unmount()
		return s.run(cmd.Context())
	},
}

// session drives one Assessor from a line-based terminal.
type session struct {
	a      *client.Assessor
	in     *bufio.Scanner
	out    io.Writer
	notify chan struct{}
	tada   chan *protocol.ModuleProgress
}

func newSession(tr client.Transport, unitURI string, in io.Reader, out io.Writer) *session {
	s := &session{
		in:     bufio.NewScanner(in),
		out:    out,
		notify: make(chan struct{}, 1),
		tada:   make(chan *protocol.ModuleProgress, 1),
	}
	s.a = client.NewAssessor(tr, unitURI, client.Options{
		OnChange: func(client.State) {
			select {
			case s.notify <- struct{}{}:
			default:
			}
		},
		OnTada: func(mp *protocol.ModuleProgress) {
			select {
			case s.tada <- mp:
			default:
			}
		},
	})
	return s
}

func (s *session) run(ctx context.Context) error {
	s.a.Mount(ctx)
	st, err := s.waitFor(ctx, func(st client.State) bool {
		return st.Phase != client.Uninitialized && st.Phase != client.Loading
	})
	if err != nil {
		return err
	}

	for {
		switch client.View(st) {
		case client.ViewError:
			fmt.Fprint(s.out, renderNotices(st))
			return errors.New("could not load assessment")
		case client.ViewComplete:
			s.finish(st)
			return nil
		case client.ViewLab:
			fmt.Fprintln(s.out, titleStyle.Render("Setup"))
			fmt.Fprintln(s.out, st.Setup)
			fmt.Fprintln(s.out, titleStyle.Render("Activity"))
			fmt.Fprintln(s.out, st.Activity)
			if _, err := s.prompt("Press Enter when you have finished the lab"); err != nil {
				return err
			}
		case client.ViewQuiz:
			if err := s.answerQuiz(ctx, st); err != nil {
				return err
			}
		}

		if st = s.a.State(); !st.CanSubmit {
			fmt.Fprintln(s.out, noticeStyle.Render("Answer every question with the required number of choices."))
			continue
		}
		if _, err = s.step(ctx, func() { s.a.Submit(ctx) }); err != nil {
			return err
		}
		st, err = s.waitFor(ctx, func(st client.State) bool { return st.Phase != client.Submitting })
		if err != nil {
			return err
		}
		if st.DataError {
			fmt.Fprint(s.out, renderNotices(st))
			return errors.New("submission failed")
		}
		if st.Phase != client.Complete {
			for i, q := range st.Questions {
				fmt.Fprint(s.out, renderQuestion(st, i, q))
			}
			fmt.Fprint(s.out, renderNotices(st))
		}
	}
}

// answerQuiz asks for every question that is not already locked in.
func (s *session) answerQuiz(ctx context.Context, st client.State) error {
	for i, q := range st.Questions {
		if client.QuestionLocked(st, q.ID) {
			continue
		}
		fmt.Fprint(s.out, renderQuestion(st, i, q))
		var ids []string
		for {
			line, err := s.prompt("> ")
			if err != nil {
				return err
			}
			if ids, err = pickAnswers(q, line); err == nil {
				break
			}
			fmt.Fprintln(s.out, wrongStyle.Render(err.Error()))
		}

		changed := client.Selection{QuestionID: q.ID}
		if len(ids) > 0 {
			changed.AnswerID = ids[0]
		}
		checked := checkedWith(st, q.ID, ids)
		var err error
		if st, err = s.step(ctx, func() { s.a.ChangeAnswer(changed, checked) }); err != nil {
			return err
		}
	}
	return nil
}

// checkedWith lists every checked input once question qid is set to ids.
func checkedWith(st client.State, qid string, ids []string) []client.Selection {
	var out []client.Selection
	for _, q := range st.Questions {
		chosen := st.Answers[q.ID]
		if q.ID == qid {
			chosen = ids
		}
		for _, id := range chosen {
			out = append(out, client.Selection{QuestionID: q.ID, AnswerID: id})
		}
	}
	return out
}

// pickAnswers maps "A, c" or "1 3" onto answer ids.
func pickAnswers(q protocol.QuestionView, line string) ([]string, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' })
	seen := make(map[int]bool)
	var ids []string
	for _, f := range fields {
		idx := -1
		if n, err := strconv.Atoi(f); err == nil {
			idx = n - 1
		} else if len(f) == 1 {
			idx = int(strings.ToUpper(f)[0] - 'A')
		}
		if idx < 0 || idx >= len(q.Answers) {
			return nil, fmt.Errorf("no answer %q", f)
		}
		if !seen[idx] {
			seen[idx] = true
			ids = append(ids, q.Answers[idx].ID)
		}
	}
	return ids, nil
}

func (s *session) finish(st client.State) {
	select {
	case mp := <-s.tada:
		fmt.Fprint(s.out, renderTada(mp))
	default:
	}
	fmt.Fprint(s.out, renderComplete(st))
}

func (s *session) prompt(label string) (string, error) {
	fmt.Fprint(s.out, dimStyle.Render(label))
	if label != "> " {
		fmt.Fprintln(s.out)
	}
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}

// step posts one UI event and waits for the state it produced. Only valid while no
// network call is in flight, so the next change notification belongs to fn.
func (s *session) step(ctx context.Context, fn func()) (client.State, error) {
	select {
	case <-s.notify:
	default:
	}
	fn()
	select {
	case <-s.notify:
		return s.a.State(), nil
	case <-ctx.Done():
		return s.a.State(), ctx.Err()
	}
}

func (s *session) waitFor(ctx context.Context, done func(client.State) bool) (client.State, error) {
	for {
		st := s.a.State()
		if done(st) {
			return st, nil
		}
		select {
		case <-s.notify:
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
}
