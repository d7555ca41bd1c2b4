package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pathways_backend/internal/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchResult struct {
	view protocol.SessionView
	err  error
}

type gradeResult struct {
	resp protocol.GradeResponse
	err  error
}

// fakeTransport hands out results only when the test releases them.
type fakeTransport struct {
	fetches chan fetchResult
	grades  chan gradeResult

	mu      sync.Mutex
	submits []protocol.Submission
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		fetches: make(chan fetchResult, 1),
		grades:  make(chan gradeResult, 4),
	}
}

func (f *fakeTransport) FetchSession(ctx context.Context, unitURI string) (protocol.SessionView, error) {
	r := <-f.fetches
	return r.view, r.err
}

func (f *fakeTransport) SubmitAnswers(ctx context.Context, unitURI string, sub protocol.Submission) (protocol.GradeResponse, error) {
	f.mu.Lock()
	f.submits = append(f.submits, sub)
	f.mu.Unlock()
	r := <-f.grades
	return r.resp, r.err
}

func (f *fakeTransport) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submits)
}

func waitFor(t *testing.T, a *Assessor, cond func(State) bool) State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := a.State(); cond(s) {
			return s
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not reached; state phase=%s", a.State().Phase)
	return State{}
}

func TestAssessorLabCompletion(t *testing.T) {
	tr := newFakeTransport()
	var tadas int
	var mu sync.Mutex
	a := NewAssessor(tr, "m1/u2", Options{
		OnTada: func(*protocol.ModuleProgress) {
			mu.Lock()
			tadas++
			mu.Unlock()
		},
	})
	defer a.Unmount()

	a.Mount(context.Background())
	assert.Equal(t, ViewNone, View(a.State()))

	tr.fetches <- fetchResult{view: protocol.SessionView{AssessType: "lab", Points: 20}}
	waitFor(t, a, func(s State) bool { return s.Phase == Ready })

	a.Submit(context.Background())
	a.Submit(context.Background())
	waitFor(t, a, func(s State) bool { return s.Phase == Submitting })

	tr.grades <- gradeResult{resp: protocol.GradeResponse{
		Status:         protocol.StatusCorrect,
		Points:         20,
		ModuleProgress: &protocol.ModuleProgress{ModuleName: "M", ProgBar: 100, Tada: true},
	}}
	s := waitFor(t, a, func(s State) bool { return s.Phase == Complete })
	assert.Equal(t, 20, s.Points)
	assert.False(t, s.TadaPending)

	a.Wait()
	assert.Equal(t, 1, tr.submitCount(), "second submit was blocked")
	mu.Lock()
	assert.Equal(t, 1, tadas)
	mu.Unlock()
}

func TestAssessorLoadFailure(t *testing.T) {
	tr := newFakeTransport()
	a := NewAssessor(tr, "m1/u1", Options{})
	defer a.Unmount()

	a.Mount(context.Background())
	tr.fetches <- fetchResult{err: errors.New("boom")}
	s := waitFor(t, a, func(s State) bool { return s.Phase == Failed })
	assert.Equal(t, ViewError, View(s))
}

func TestAssessorQuizRoundTrip(t *testing.T) {
	tr := newFakeTransport()
	var changes int
	var mu sync.Mutex
	a := NewAssessor(tr, "m1/u1", Options{OnChange: func(State) {
		mu.Lock()
		changes++
		mu.Unlock()
	}})
	defer a.Unmount()

	a.Mount(context.Background())
	tr.fetches <- fetchResult{view: quizView()}
	waitFor(t, a, func(s State) bool { return s.Phase == Ready })

	checked := []Selection{sel("q1", "b"), sel("q2", "c"), sel("q2", "e")}
	a.ChangeAnswer(sel("q2", "e"), checked)
	waitFor(t, a, func(s State) bool { return s.CanSubmit })

	a.Submit(context.Background())
	tr.grades <- gradeResult{resp: protocol.GradeResponse{
		Status:    protocol.StatusError,
		Points:    10,
		Errors:    1,
		Incorrect: map[string][]string{"q1": {"b"}, "q2": {}},
	}}
	s := waitFor(t, a, func(s State) bool { return s.Phase == Answering && s.Incorrect != nil })
	assert.Equal(t, 1, s.ErrorCount)
	assert.False(t, s.CanSubmit)

	a.Submit(context.Background())
	a.ChangeAnswer(sel("q1", "a"), []Selection{sel("q1", "a"), sel("q2", "c"), sel("q2", "e")})
	waitFor(t, a, func(s State) bool { return s.CanSubmit })

	a.Submit(context.Background())
	tr.grades <- gradeResult{err: errors.New("connection reset")}
	s = waitFor(t, a, func(s State) bool { return s.DataError })
	assert.Equal(t, Answering, s.Phase)
	assert.Equal(t, []string{"a"}, s.Answers["q1"])

	a.Wait()
	assert.Equal(t, 2, tr.submitCount())
	mu.Lock()
	assert.Greater(t, changes, 0)
	mu.Unlock()
}

func TestAssessorDropsLateResults(t *testing.T) {
	tr := newFakeTransport()
	var calls int
	var mu sync.Mutex
	a := NewAssessor(tr, "m1/u2", Options{OnChange: func(State) {
		mu.Lock()
		calls++
		mu.Unlock()
	}})

	a.Mount(context.Background())
	tr.fetches <- fetchResult{view: protocol.SessionView{AssessType: "lab"}}
	waitFor(t, a, func(s State) bool { return s.Phase == Ready })
	a.Submit(context.Background())
	waitFor(t, a, func(s State) bool { return s.Phase == Submitting })

	a.Unmount()
	mu.Lock()
	before := calls
	mu.Unlock()

	tr.grades <- gradeResult{resp: protocol.GradeResponse{Status: protocol.StatusCorrect, ModuleProgress: &protocol.ModuleProgress{Tada: true}}}
	a.Wait()

	mu.Lock()
	assert.Equal(t, before, calls)
	mu.Unlock()
	assert.Equal(t, Submitting, a.State().Phase)

	// events after teardown neither block nor panic
	a.Submit(context.Background())
	a.ChangeAnswer(sel("q1", "a"), nil)
	a.Unmount()
}

func TestAssessorUnmountBeforeMount(t *testing.T) {
	a := NewAssessor(newFakeTransport(), "m1/u1", Options{})
	done := make(chan struct{})
	go func() {
		a.Unmount()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("unmount blocked")
	}
	require.Equal(t, Uninitialized, a.State().Phase)
}
