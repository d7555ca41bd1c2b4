package client

import (
	"context"
	"sync"

	"pathways_backend/internal/protocol"
)

// Transport performs the two session exchanges. Implementations may block; the
// Assessor never calls them from its event loop.
type Transport interface {
	FetchSession(ctx context.Context, unitURI string) (protocol.SessionView, error)
	SubmitAnswers(ctx context.Context, unitURI string, sub protocol.Submission) (protocol.GradeResponse, error)
}

// Options are the render hooks. Both run on the event loop goroutine.
type Options struct {
	// OnChange receives every new state.
	OnChange func(State)
	// OnTada fires once for the response that completed the module, before that
	// state is published.
	OnTada func(*protocol.ModuleProgress)
}

type event func(State) State

// Assessor owns one unit's State on a single goroutine. UI events and network
// results are posted to it as events; results arriving after Unmount are dropped.
// Mount must be called before any other event is posted.
type Assessor struct {
	transport Transport
	unitURI   string
	opts      Options

	events chan event
	done   chan struct{}
	exited chan struct{}

	mu    sync.RWMutex
	state State

	startOnce sync.Once
	stopOnce  sync.Once
	inflight  sync.WaitGroup
}

func NewAssessor(transport Transport, unitURI string, opts Options) *Assessor {
	return &Assessor{
		transport: transport,
		unitURI:   unitURI,
		opts:      opts,
		events:    make(chan event),
		done:      make(chan struct{}),
		exited:    make(chan struct{}),
	}
}

// Mount starts the event loop and issues the session fetch. ctx is handed to the
// transport; Unmount does not cancel it.
func (a *Assessor) Mount(ctx context.Context) {
	a.startOnce.Do(func() {
		go a.loop()
		a.post(func(s State) State {
			next := Mount(s)
			if next.Phase == Loading && s.Phase != Loading {
				a.fetch(ctx)
			}
			return next
		})
	})
}

// ChangeAnswer reports an input change together with every checked input.
func (a *Assessor) ChangeAnswer(changed Selection, checked []Selection) {
	checked = append([]Selection(nil), checked...)
	a.post(func(s State) State {
		return AnswerChanged(s, changed, checked)
	})
}

// Submit sends the current answers unless submission is disabled.
func (a *Assessor) Submit(ctx context.Context) {
	a.post(func(s State) State {
		next, sub, ok := Submit(s)
		if ok {
			a.submit(ctx, sub)
		}
		return next
	})
}

// State returns the latest published state.
func (a *Assessor) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.clone()
}

// Unmount stops the event loop. Network calls still running finish on their own and
// their results are discarded.
func (a *Assessor) Unmount() {
	a.stopOnce.Do(func() {
		close(a.done)
	})
	a.startOnce.Do(func() { close(a.exited) })
	<-a.exited
}

// Wait blocks until no network call started by this Assessor is running.
func (a *Assessor) Wait() {
	a.inflight.Wait()
}

func (a *Assessor) loop() {
	defer close(a.exited)
	for {
		select {
		case <-a.done:
			return
		case ev := <-a.events:
			a.apply(ev)
		}
	}
}

func (a *Assessor) apply(ev event) {
	a.mu.RLock()
	cur := a.state
	a.mu.RUnlock()

	next := ev(cur)
	next, tada := TakeTada(next)
	// celebrate before publishing, so an observer of the completed state has seen it
	if tada && a.opts.OnTada != nil {
		a.opts.OnTada(next.ModuleProgress)
	}

	a.mu.Lock()
	a.state = next
	a.mu.Unlock()

	if a.opts.OnChange != nil {
		a.opts.OnChange(next.clone())
	}
}

// post delivers ev to the loop, or drops it once unmounted.
func (a *Assessor) post(ev event) {
	select {
	case a.events <- ev:
	case <-a.done:
	}
}

func (a *Assessor) fetch(ctx context.Context) {
	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		view, err := a.transport.FetchSession(ctx, a.unitURI)
		if err != nil {
			a.post(LoadFailed)
			return
		}
		a.post(func(s State) State { return Loaded(s, view) })
	}()
}

func (a *Assessor) submit(ctx context.Context, sub protocol.Submission) {
	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		resp, err := a.transport.SubmitAnswers(ctx, a.unitURI, sub)
		if err != nil {
			a.post(SubmitFailed)
			return
		}
		a.post(func(s State) State { return Graded(s, resp) })
	}()
}
