package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sciencetwins/twins/internal/executor"
	"github.com/sciencetwins/twins/internal/lifecycle"
	"github.com/sciencetwins/twins/internal/results"
	"github.com/sciencetwins/twins/internal/types"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "twins.db"))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestManager_SaveLoadGet(t *testing.T) {
	m := newTestManager(t)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	first := types.HistoryEntry{
		SubmissionID: "a",
		Timestamp:    base,
		Mode:         types.ModePlagiarism,
		Encoding:     types.EncodingJSON,
		TextExcerpt:  "graph neural networks",
		Status:       200,
		ResponseBody: `{"mode":"plagiarism","result":{"type":"no_plagiarism"}}`,
		Duration:     1200,
		RequestSize:  40,
		ResponseSize: 55,
	}
	second := types.HistoryEntry{
		SubmissionID: "b",
		Timestamp:    base.Add(time.Minute),
		Mode:         types.ModeDoppelganger,
		Encoding:     types.EncodingMultipart,
		FileName:     "paper.pdf",
		Status:       502,
		Error:        "request failed with status 502",
	}

	id1, err := m.Save(first)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := m.Save(second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	all, err := m.Load(Filter{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Load() returned %d entries, want 2", len(all))
	}
	if all[0].SubmissionID != "b" {
		t.Errorf("entries not newest first: %s", all[0].SubmissionID)
	}

	plagiarism, err := m.Load(Filter{Mode: types.ModePlagiarism})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(plagiarism) != 1 || plagiarism[0].SubmissionID != "a" {
		t.Errorf("mode filter returned %+v", plagiarism)
	}

	limited, _ := m.Load(Filter{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("limit returned %d entries", len(limited))
	}

	got, err := m.Get(id1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.TextExcerpt != first.TextExcerpt || got.ResponseBody != first.ResponseBody || got.Duration != 1200 {
		t.Errorf("Get() = %+v", got)
	}
	if !got.Timestamp.Equal(base) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, base)
	}
	if !got.Succeeded() {
		t.Error("first entry should be a success")
	}

	count, _ := m.GetCount()
	if count != 2 {
		t.Errorf("GetCount() = %d", count)
	}
}

func TestManager_GetMissing(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Get(42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestManager_DeleteAndClear(t *testing.T) {
	m := newTestManager(t)
	id, _ := m.Save(types.HistoryEntry{SubmissionID: "x", Mode: types.ModePlagiarism, Encoding: types.EncodingJSON})
	m.Save(types.HistoryEntry{SubmissionID: "y", Mode: types.ModePlagiarism, Encoding: types.EncodingJSON})

	if err := m.Delete(id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if count, _ := m.GetCount(); count != 1 {
		t.Errorf("GetCount() after Delete = %d", count)
	}

	if err := m.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if count, _ := m.GetCount(); count != 0 {
		t.Errorf("GetCount() after Clear = %d", count)
	}
}

func TestManager_SaveFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO history").WillReturnError(errors.New("disk I/O error"))

	m := NewManagerWithDB(db)
	_, err = m.Save(types.HistoryEntry{SubmissionID: "z", Mode: types.ModePlagiarism})
	if err == nil || !strings.Contains(err.Error(), "failed to save history entry") {
		t.Errorf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestManager_LoadQueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM history").WillReturnError(errors.New("database is locked"))

	m := NewManagerWithDB(db)
	if _, err := m.Load(Filter{}); err == nil {
		t.Fatal("expected error")
	}
}

func finishedTransition(t *testing.T, text string, file *types.File, resp *types.AnalysisResponse, cause error) lifecycle.Transition {
	t.Helper()

	started := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	clock := started
	c := lifecycle.New(
		lifecycle.WithIDGenerator(func() string { return "sub-1" }),
		lifecycle.WithClock(func() time.Time { return clock }),
	)
	c.SetText(text)
	c.SetFile(file)

	var last lifecycle.Transition
	c.OnTransition(func(tr lifecycle.Transition) { last = tr })

	sub, ok := c.Begin()
	if !ok {
		t.Fatal("Begin() refused")
	}
	clock = started.Add(1500 * time.Millisecond)
	c.Complete(sub.ID, resp, cause)
	return last
}

func TestEntryFromTransition_Success(t *testing.T) {
	resp := &types.AnalysisResponse{Mode: "plagiarism", Result: json.RawMessage(`{"type":"no_plagiarism"}`)}
	tr := finishedTransition(t, "  Attention   is all\nyou need ", nil, resp, nil)

	entry, ok := EntryFromTransition(tr)
	if !ok {
		t.Fatal("EntryFromTransition() = false")
	}
	if entry.SubmissionID != "sub-1" || entry.Mode != types.ModePlagiarism || entry.Encoding != types.EncodingJSON {
		t.Errorf("entry = %+v", entry)
	}
	if entry.TextExcerpt != "Attention is all you need" {
		t.Errorf("TextExcerpt = %q", entry.TextExcerpt)
	}
	if entry.Duration != 1500 {
		t.Errorf("Duration = %d, want 1500", entry.Duration)
	}
	if entry.Status != 200 || entry.Error != "" {
		t.Errorf("Status = %d, Error = %q", entry.Status, entry.Error)
	}
	if entry.ResponseBody != `{"mode":"plagiarism","result":{"type":"no_plagiarism"}}` {
		t.Errorf("ResponseBody = %s", entry.ResponseBody)
	}
}

func TestEntryFromTransition_Failure(t *testing.T) {
	file := &types.File{Name: "paper.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}
	tr := finishedTransition(t, "", file, nil, &executor.RequestFailed{Status: 503})

	entry, ok := EntryFromTransition(tr)
	if !ok {
		t.Fatal("EntryFromTransition() = false")
	}
	if entry.Encoding != types.EncodingMultipart || entry.FileName != "paper.pdf" || entry.TextExcerpt != "" {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Status != 503 || entry.Error != "request failed with status 503" {
		t.Errorf("Status = %d, Error = %q", entry.Status, entry.Error)
	}
	if entry.Succeeded() {
		t.Error("failure recorded as success")
	}
}

func TestEntryFromTransition_ServiceError(t *testing.T) {
	resp := &types.AnalysisResponse{Mode: "plagiarism", Result: json.RawMessage(`{"type":"error","message":"quota exceeded"}`)}
	entry, _ := EntryFromTransition(finishedTransition(t, "text", nil, resp, nil))

	if entry.Error != "service error: quota exceeded" {
		t.Errorf("Error = %q", entry.Error)
	}
}

func TestEntryFromTransition_IgnoresLoading(t *testing.T) {
	tr := lifecycle.Transition{From: lifecycle.Idle, To: lifecycle.Loading, Submission: &lifecycle.Submission{ID: "x"}}
	if _, ok := EntryFromTransition(tr); ok {
		t.Error("loading transition should not produce an entry")
	}
}

type failingSaver struct{}

func (failingSaver) Save(types.HistoryEntry) (int64, error) { return 0, errors.New("readonly") }

func TestRecorder(t *testing.T) {
	m := newTestManager(t)

	c := lifecycle.New()
	c.OnTransition(Recorder(m, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	c.SetText("text")

	sub, _ := c.Begin()
	c.Complete(sub.ID, &types.AnalysisResponse{Mode: "plagiarism"}, nil)

	entries, err := m.Load(Filter{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(entries) != 1 || entries[0].SubmissionID != sub.ID {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestRecorder_LogsStorageFailure(t *testing.T) {
	var buf bytes.Buffer
	record := Recorder(failingSaver{}, slog.New(slog.NewTextHandler(&buf, nil)))

	record(finishedTransition(t, "text", nil, &types.AnalysisResponse{Mode: "plagiarism"}, nil))

	if !strings.Contains(buf.String(), "failed to save history entry") {
		t.Errorf("log = %s", buf.String())
	}
}

func TestReplay(t *testing.T) {
	t.Run("success replays through the interpreter", func(t *testing.T) {
		entry := types.HistoryEntry{
			Mode:         types.ModePlagiarism,
			ResponseBody: `{"mode":"plagiarism","result":{"type":"plagiarism","title":"X","reason":"Y","url":"Z"}}`,
		}
		view, ok := results.Interpret(Replay(entry)).(results.PlagiarismView)
		if !ok || view.Title != "X" {
			t.Errorf("view = %#v", view)
		}
	})

	t.Run("failure replays the generic error", func(t *testing.T) {
		entry := types.HistoryEntry{Mode: types.ModeDoppelganger, Status: 500, Error: "request failed with status 500"}
		state := Replay(entry)
		if state.Phase != lifecycle.Failed || state.Message != lifecycle.GenericFailureMessage {
			t.Errorf("state = %+v", state)
		}
	})

	t.Run("corrupt body is not a crash", func(t *testing.T) {
		entry := types.HistoryEntry{Mode: types.ModeDoppelganger, ResponseBody: "{truncated"}
		if _, ok := results.Interpret(Replay(entry)).(results.EmptyView); !ok {
			t.Error("corrupt body should fall back to the empty view")
		}
	})
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("short"); got != "short" {
		t.Errorf("Excerpt() = %q", got)
	}

	long := strings.Repeat("é", ExcerptLength+10)
	got := Excerpt(long)
	if n := len([]rune(got)); n != ExcerptLength {
		t.Errorf("len = %d, want %d", n, ExcerptLength)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("Excerpt() = %q, want ellipsis", got)
	}
}

func TestSearch(t *testing.T) {
	entries := []types.HistoryEntry{
		{ID: 1, Mode: types.ModePlagiarism, TextExcerpt: "protein folding with transformers"},
		{ID: 2, Mode: types.ModeDoppelganger, FileName: "quantum-error-correction.pdf"},
		{ID: 3, Mode: types.ModePlagiarism, TextExcerpt: "graph neural networks"},
	}

	got := Search(entries, "quantum")
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("Search(quantum) = %+v", got)
	}

	if got := Search(entries, "  "); len(got) != 3 {
		t.Errorf("empty pattern returned %d entries", len(got))
	}

	if got := Search(entries, "zzzz"); len(got) != 0 {
		t.Errorf("Search(zzzz) = %+v", got)
	}
}
