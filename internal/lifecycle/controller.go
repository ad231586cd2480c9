package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sciencetwins/twins/internal/executor"
	"github.com/sciencetwins/twins/internal/request"
	"github.com/sciencetwins/twins/internal/types"
)

// GenericFailureMessage is the only failure text ever shown to the user
const GenericFailureMessage = "We couldn't reach the analysis service. Please try again in a moment."

// Phase is the state of the request lifecycle
type Phase int

const (
	Idle Phase = iota
	Loading
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the request state. Response is set only in Succeeded, Message
// only in Failed.
type State struct {
	Phase    Phase
	Response *types.AnalysisResponse
	Message  string

	// Cause is the underlying failure, kept for logs and history only
	Cause error

	// Mode is the requested mode of the latest submission
	Mode         types.Mode
	SubmissionID string
}

// Loading reports whether a request is in flight
func (s State) Loading() bool {
	return s.Phase == Loading
}

// Submission is an admitted request waiting for its outcome
type Submission struct {
	ID      string
	Mode    types.Mode
	Input   types.AnalysisInput
	Request *types.AnalysisRequest
	Started time.Time
}

// Transition is delivered to observers on every state change
type Transition struct {
	From       Phase
	To         Phase
	State      State
	Submission *Submission
	At         time.Time
}

// Snapshot is a copy of the controller's form and state
type Snapshot struct {
	Input types.AnalysisInput
	State State
}

// CanSubmit mirrors Controller.CanSubmit for a snapshot
func (s Snapshot) CanSubmit() bool {
	return s.Input.Ready() && !s.State.Loading()
}

// Submitter performs the network round trip. *executor.Client satisfies it.
type Submitter interface {
	Submit(ctx context.Context, req *types.AnalysisRequest) (*types.AnalysisResponse, error)
}

// BuildFunc turns the form into a request
type BuildFunc func(in types.AnalysisInput) (*types.AnalysisRequest, error)

// Option configures a Controller
type Option func(*Controller)

// WithMode sets the initial mode (restored from the session)
func WithMode(mode types.Mode) Option {
	return func(c *Controller) {
		if mode.Valid() {
			c.input.Mode = mode
		}
	}
}

// WithBuilder replaces the request builder
func WithBuilder(build BuildFunc) Option {
	return func(c *Controller) { c.build = build }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithIDGenerator replaces the uuid generator for submission ids
func WithIDGenerator(newID func() string) Option {
	return func(c *Controller) { c.newID = newID }
}

// Controller owns the form inputs and the request state. At most one
// request is in flight; submissions while loading are dropped.
type Controller struct {
	mu        sync.Mutex
	input     types.AnalysisInput
	state     State
	current   *Submission
	observers []func(Transition)

	build BuildFunc
	now   func() time.Time
	newID func() string
}

// New creates an idle controller in the default mode
func New(opts ...Option) *Controller {
	c := &Controller{
		input: types.AnalysisInput{Mode: types.DefaultMode},
		build: request.BuildInput,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnTransition registers an observer. Observers run synchronously after the
// lock is released, in registration order.
func (c *Controller) OnTransition(fn func(Transition)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// SetText replaces the text input. Ignored while loading.
func (c *Controller) SetText(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Loading() {
		return false
	}
	c.input.Text = text
	return true
}

// SetMode changes the mode. Ignored while loading or for unknown modes.
func (c *Controller) SetMode(mode types.Mode) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Loading() || !mode.Valid() {
		return false
	}
	c.input.Mode = mode
	return true
}

// SetFile attaches a file. Ignored while loading.
func (c *Controller) SetFile(file *types.File) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Loading() {
		return false
	}
	c.input.File = file
	return true
}

// ClearFile detaches the file. Ignored while loading.
func (c *Controller) ClearFile() bool {
	return c.SetFile(nil)
}

// CanSubmit reports whether a submission would be admitted
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input.Ready() && !c.state.Loading()
}

// Snapshot returns a copy of the form and state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{Input: c.input, State: c.state}
}

// State returns a copy of the request state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Begin admits a submission. It returns false, leaving everything as is,
// when the input is not ready or a request is already in flight. On
// admission the previous outcome is cleared and the state becomes Loading.
// If the request cannot be built the state moves on to Failed and false is
// returned.
func (c *Controller) Begin() (*Submission, bool) {
	c.mu.Lock()
	if !c.input.Ready() || c.state.Loading() {
		c.mu.Unlock()
		return nil, false
	}

	sub := &Submission{
		ID:      c.newID(),
		Mode:    c.input.Mode,
		Input:   c.input,
		Started: c.now(),
	}

	var pending []Transition
	pending = append(pending, c.transition(State{Phase: Loading, Mode: sub.Mode, SubmissionID: sub.ID}, sub))

	req, err := c.build(sub.Input)
	if err != nil {
		pending = append(pending, c.transition(failedState(sub, err), sub))
		observers := c.observers
		c.mu.Unlock()
		notify(observers, pending)
		return nil, false
	}

	sub.Request = req
	c.current = sub
	observers := c.observers
	c.mu.Unlock()

	notify(observers, pending)
	return sub, true
}

// Complete resolves the in-flight submission. Outcomes for any other
// submission id, or arriving when nothing is loading, are discarded.
func (c *Controller) Complete(id string, resp *types.AnalysisResponse, err error) bool {
	c.mu.Lock()
	if !c.state.Loading() || c.current == nil || c.current.ID != id {
		c.mu.Unlock()
		return false
	}

	sub := c.current
	c.current = nil

	next := State{Phase: Succeeded, Response: resp, Mode: sub.Mode, SubmissionID: sub.ID}
	if err != nil {
		next = failedState(sub, err)
	}

	t := c.transition(next, sub)
	observers := c.observers
	c.mu.Unlock()

	notify(observers, []Transition{t})
	return true
}

// Run is Begin, Submit and Complete in one call for synchronous callers.
// The returned bool is false when the submission was not admitted.
func (c *Controller) Run(ctx context.Context, s Submitter) (State, bool) {
	sub, ok := c.Begin()
	if !ok {
		return c.State(), false
	}

	resp, err := s.Submit(executor.WithSubmissionID(ctx, sub.ID), sub.Request)
	c.Complete(sub.ID, resp, err)
	return c.State(), true
}

// transition must be called with the lock held
func (c *Controller) transition(next State, sub *Submission) Transition {
	t := Transition{
		From:       c.state.Phase,
		To:         next.Phase,
		State:      next,
		Submission: sub,
		At:         c.now(),
	}
	c.state = next
	return t
}

func failedState(sub *Submission, cause error) State {
	return State{
		Phase:        Failed,
		Message:      GenericFailureMessage,
		Cause:        cause,
		Mode:         sub.Mode,
		SubmissionID: sub.ID,
	}
}

func notify(observers []func(Transition), transitions []Transition) {
	for _, t := range transitions {
		for _, fn := range observers {
			fn(t)
		}
	}
}
