package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sciencetwins/twins/internal/executor"
	"github.com/sciencetwins/twins/internal/types"
)

// fakeSubmitter counts calls and returns a fixed outcome
type fakeSubmitter struct {
	calls atomic.Int32
	resp  *types.AnalysisResponse
	err   error
	gotID string
}

func (f *fakeSubmitter) Submit(ctx context.Context, req *types.AnalysisRequest) (*types.AnalysisResponse, error) {
	f.calls.Add(1)
	f.gotID = executor.SubmissionID(ctx)
	return f.resp, f.err
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("sub-%d", n)
	}
}

func newController(opts ...Option) *Controller {
	return New(append([]Option{WithIDGenerator(sequentialIDs())}, opts...)...)
}

func TestNew_StartsIdleInDefaultMode(t *testing.T) {
	c := New()
	snap := c.Snapshot()

	AssertEqual(t, "Phase", snap.State.Phase, Idle)
	AssertEqual(t, "Mode", snap.Input.Mode, types.DefaultMode)
	if c.CanSubmit() {
		t.Error("empty form should not be submittable")
	}
}

func TestWithMode_RestoresMode(t *testing.T) {
	c := New(WithMode(types.ModeDoppelganger))
	AssertEqual(t, "Mode", c.Snapshot().Input.Mode, types.ModeDoppelganger)

	c = New(WithMode("bogus"))
	AssertEqual(t, "Mode", c.Snapshot().Input.Mode, types.DefaultMode)
}

func TestCanSubmit(t *testing.T) {
	tests := []struct {
		name string
		text string
		file *types.File
		want bool
	}{
		{name: "empty", text: "", want: false},
		{name: "whitespace only", text: "  \n\t ", want: false},
		{name: "text", text: "abstract", want: true},
		{name: "file only", file: &types.File{Name: "a.pdf"}, want: true},
		{name: "whitespace with file", text: "   ", file: &types.File{Name: "a.pdf"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newController()
			c.SetText(tt.text)
			c.SetFile(tt.file)
			AssertEqual(t, "CanSubmit", c.CanSubmit(), tt.want)
			AssertEqual(t, "Snapshot.CanSubmit", c.Snapshot().CanSubmit(), tt.want)
		})
	}
}

func TestBegin_NotReadyIsNoOp(t *testing.T) {
	c := newController()
	c.SetText("   ")

	sub, ok := c.Begin()
	if ok || sub != nil {
		t.Fatalf("Begin() = %v, %v; want nil, false", sub, ok)
	}
	AssertEqual(t, "Phase", c.State().Phase, Idle)
}

func TestBegin_EntersLoading(t *testing.T) {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := newController(WithClock(func() time.Time { return started }))
	c.SetText(" hi ")
	c.SetMode(types.ModeDoppelganger)

	sub, ok := c.Begin()
	if !ok {
		t.Fatal("Begin() should admit a ready form")
	}

	AssertEqual(t, "ID", sub.ID, "sub-1")
	AssertEqual(t, "Mode", sub.Mode, types.ModeDoppelganger)
	AssertEqual(t, "Started", sub.Started, started)
	AssertEqual(t, "Encoding", sub.Request.Encoding, types.EncodingJSON)
	AssertEqual(t, "Body", string(sub.Request.Body), `{"text":" hi ","mode":"doppelganger"}`)

	state := c.State()
	AssertEqual(t, "Phase", state.Phase, Loading)
	AssertEqual(t, "SubmissionID", state.SubmissionID, "sub-1")
	if c.CanSubmit() || c.Snapshot().CanSubmit() {
		t.Error("CanSubmit() should be false while loading")
	}
}

func TestBegin_WhileLoadingIsNoOp(t *testing.T) {
	c := newController()
	c.SetText("text")

	first, ok := c.Begin()
	if !ok {
		t.Fatal("first Begin() should be admitted")
	}
	before := c.State()

	second, ok := c.Begin()
	if ok || second != nil {
		t.Fatal("second Begin() while loading should be a no-op")
	}

	after := c.State()
	AssertEqual(t, "Phase", after.Phase, Loading)
	AssertEqual(t, "SubmissionID", after.SubmissionID, before.SubmissionID)
	AssertEqual(t, "SubmissionID", after.SubmissionID, first.ID)
}

func TestBegin_ClearsPriorOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "after success"},
		{name: "after failure", err: &executor.RequestFailed{Status: 502}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newController()
			c.SetText("text")

			sub, _ := c.Begin()
			c.Complete(sub.ID, &types.AnalysisResponse{Mode: "plagiarism"}, tt.err)

			if _, ok := c.Begin(); !ok {
				t.Fatal("resubmission should be admitted")
			}

			state := c.State()
			AssertEqual(t, "Phase", state.Phase, Loading)
			if state.Response != nil {
				t.Error("prior response should be cleared")
			}
			AssertEqual(t, "Message", state.Message, "")
			if state.Cause != nil {
				t.Error("prior cause should be cleared")
			}
		})
	}
}

func TestBegin_BuilderErrorFails(t *testing.T) {
	buildErr := errors.New("encoder exploded")
	c := newController(WithBuilder(func(types.AnalysisInput) (*types.AnalysisRequest, error) {
		return nil, buildErr
	}))
	c.SetText("text")

	sub, ok := c.Begin()
	if ok || sub != nil {
		t.Fatal("Begin() should not return a submission when the build fails")
	}

	state := c.State()
	AssertEqual(t, "Phase", state.Phase, Failed)
	AssertEqual(t, "Message", state.Message, GenericFailureMessage)
	if !errors.Is(state.Cause, buildErr) {
		t.Errorf("Cause = %v, want %v", state.Cause, buildErr)
	}
}

func TestComplete(t *testing.T) {
	resp := &types.AnalysisResponse{Mode: "plagiarism"}

	t.Run("success", func(t *testing.T) {
		c := newController()
		c.SetText("text")
		sub, _ := c.Begin()

		if !c.Complete(sub.ID, resp, nil) {
			t.Fatal("Complete() should accept the in-flight submission")
		}
		state := c.State()
		AssertEqual(t, "Phase", state.Phase, Succeeded)
		if state.Response != resp {
			t.Error("Response not stored")
		}
	})

	t.Run("failure shows generic message", func(t *testing.T) {
		c := newController()
		c.SetText("text")
		sub, _ := c.Begin()

		cause := &executor.RequestFailed{Status: http.StatusBadRequest}
		c.Complete(sub.ID, nil, cause)

		state := c.State()
		AssertEqual(t, "Phase", state.Phase, Failed)
		AssertEqual(t, "Message", state.Message, GenericFailureMessage)
		if state.Response != nil {
			t.Error("failed state should carry no response")
		}
		if executor.StatusOf(state.Cause) != http.StatusBadRequest {
			t.Errorf("Cause = %v", state.Cause)
		}
	})

	t.Run("stale id ignored", func(t *testing.T) {
		c := newController()
		c.SetText("text")
		c.Begin()

		if c.Complete("sub-99", resp, nil) {
			t.Fatal("Complete() accepted a foreign submission id")
		}
		AssertEqual(t, "Phase", c.State().Phase, Loading)
	})

	t.Run("not loading ignored", func(t *testing.T) {
		c := newController()
		c.SetText("text")
		sub, _ := c.Begin()
		c.Complete(sub.ID, resp, nil)

		if c.Complete(sub.ID, nil, errors.New("late")) {
			t.Fatal("Complete() accepted a second outcome")
		}
		AssertEqual(t, "Phase", c.State().Phase, Succeeded)
	})
}

func TestInputsLockedWhileLoading(t *testing.T) {
	c := newController()
	c.SetText("original")
	c.Begin()

	if c.SetText("changed") {
		t.Error("SetText() should be ignored while loading")
	}
	if c.SetMode(types.ModeDoppelganger) {
		t.Error("SetMode() should be ignored while loading")
	}
	if c.SetFile(&types.File{Name: "a.pdf"}) {
		t.Error("SetFile() should be ignored while loading")
	}
	if c.ClearFile() {
		t.Error("ClearFile() should be ignored while loading")
	}

	snap := c.Snapshot()
	AssertEqual(t, "Text", snap.Input.Text, "original")
	AssertEqual(t, "Mode", snap.Input.Mode, types.ModePlagiarism)
	if snap.Input.File != nil {
		t.Error("file should not be attached")
	}
}

func TestModePersistsAcrossSubmissions(t *testing.T) {
	c := newController()
	c.SetMode(types.ModeDoppelganger)
	c.SetText("text")

	sub, _ := c.Begin()
	c.Complete(sub.ID, &types.AnalysisResponse{Mode: "doppelganger"}, nil)

	AssertEqual(t, "Mode", c.Snapshot().Input.Mode, types.ModeDoppelganger)
	AssertEqual(t, "State.Mode", c.State().Mode, types.ModeDoppelganger)
}

func TestRun(t *testing.T) {
	t.Run("success passes submission id", func(t *testing.T) {
		f := &fakeSubmitter{resp: &types.AnalysisResponse{Mode: "plagiarism"}}
		c := newController()
		c.SetText("text")

		state, ok := c.Run(context.Background(), f)
		if !ok {
			t.Fatal("Run() should admit a ready form")
		}
		AssertEqual(t, "Phase", state.Phase, Succeeded)
		AssertEqual(t, "calls", f.calls.Load(), int32(1))
		AssertEqual(t, "submission id", f.gotID, "sub-1")
	})

	t.Run("not ready issues no call", func(t *testing.T) {
		f := &fakeSubmitter{}
		c := newController()

		state, ok := c.Run(context.Background(), f)
		if ok {
			t.Fatal("Run() should refuse an empty form")
		}
		AssertEqual(t, "Phase", state.Phase, Idle)
		AssertEqual(t, "calls", f.calls.Load(), int32(0))
	})
}

func TestRun_HTTP500FailsWithGenericMessage(t *testing.T) {
	bodies := []string{
		`{"mode":"plagiarism","result":{"type":"no_plagiarism"}}`,
		`{"detail":"model timeout"}`,
		`Internal Server Error`,
		``,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(body))
			}))
			defer server.Close()

			client, err := executor.NewClient(executor.ClientConfig{Endpoint: server.URL})
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}

			c := newController()
			c.SetText("text")
			state, _ := c.Run(context.Background(), client)

			AssertEqual(t, "Phase", state.Phase, Failed)
			AssertEqual(t, "Message", state.Message, GenericFailureMessage)
			AssertEqual(t, "status", executor.StatusOf(state.Cause), http.StatusInternalServerError)
		})
	}
}

func TestConcurrentBeginAdmitsOne(t *testing.T) {
	c := New()
	c.SetText("text")

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := c.Begin(); ok {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	AssertEqual(t, "admitted", admitted.Load(), int32(1))
}

func TestOnTransition(t *testing.T) {
	c := newController()
	c.SetText("text")

	var got []string
	c.OnTransition(func(tr Transition) {
		got = append(got, tr.From.String()+"->"+tr.To.String())
		// Observers may read the controller
		_ = c.Snapshot()
	})

	sub, _ := c.Begin()
	c.Complete(sub.ID, nil, errors.New("boom"))
	c.Begin()

	want := []string{"idle->loading", "loading->failed", "failed->loading"}
	AssertEqual(t, "transitions", strings.Join(got, ","), strings.Join(want, ","))
}

func TestLogTransitions(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := newController()
	c.OnTransition(LogTransitions(logger))
	c.SetText("text")

	sub, _ := c.Begin()
	c.Complete(sub.ID, nil, &executor.RequestFailed{Status: 503})

	out := buf.String()
	for _, want := range []string{"analysis state changed", "analysis failed", "status 503", "submission=sub-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestPhaseString(t *testing.T) {
	AssertEqual(t, "Idle", Idle.String(), "idle")
	AssertEqual(t, "Loading", Loading.String(), "loading")
	AssertEqual(t, "Succeeded", Succeeded.String(), "succeeded")
	AssertEqual(t, "Failed", Failed.String(), "failed")
	AssertEqual(t, "unknown", Phase(42).String(), "unknown")
}

// AssertEqual is a generic helper for checking values
func AssertEqual[T comparable](t *testing.T, name string, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}
