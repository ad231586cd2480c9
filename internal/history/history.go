package history

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
	"github.com/sciencetwins/twins/internal/executor"
	"github.com/sciencetwins/twins/internal/lifecycle"
	"github.com/sciencetwins/twins/internal/results"
	"github.com/sciencetwins/twins/internal/types"
)

// ExcerptLength is how many characters of the submitted text are kept
const ExcerptLength = 80

// Saver stores history entries
type Saver interface {
	Save(entry types.HistoryEntry) (int64, error)
}

// EntryFromTransition builds the history entry for a finished submission.
// It returns false for transitions that do not end a submission.
func EntryFromTransition(t lifecycle.Transition) (types.HistoryEntry, bool) {
	if t.Submission == nil || (t.To != lifecycle.Succeeded && t.To != lifecycle.Failed) {
		return types.HistoryEntry{}, false
	}

	sub := t.Submission
	entry := types.HistoryEntry{
		SubmissionID: sub.ID,
		Timestamp:    sub.Started,
		Mode:         sub.Mode,
		Encoding:     types.EncodingJSON,
		Duration:     t.At.Sub(sub.Started).Milliseconds(),
	}
	if sub.Input.File != nil {
		entry.Encoding = types.EncodingMultipart
		entry.FileName = sub.Input.File.Name
	} else {
		entry.TextExcerpt = Excerpt(sub.Input.Text)
	}
	if sub.Request != nil {
		entry.RequestSize = len(sub.Request.Body)
	}

	switch t.To {
	case lifecycle.Failed:
		entry.Status = executor.StatusOf(t.State.Cause)
		entry.Error = t.State.Message
		if t.State.Cause != nil {
			entry.Error = t.State.Cause.Error()
		}
	case lifecycle.Succeeded:
		entry.Status = http.StatusOK
		if t.State.Response != nil {
			if body, err := json.Marshal(t.State.Response); err == nil {
				entry.ResponseBody = string(body)
				entry.ResponseSize = len(body)
			}
			if msg := results.ServiceMessage(t.State.Response); msg != "" {
				entry.Error = "service error: " + msg
			}
		}
	}

	return entry, true
}

// Recorder returns an observer that saves every finished submission.
// Storage failures are logged and never reach the user.
func Recorder(store Saver, logger *slog.Logger) func(lifecycle.Transition) {
	return func(t lifecycle.Transition) {
		entry, ok := EntryFromTransition(t)
		if !ok {
			return
		}
		if _, err := store.Save(entry); err != nil {
			logger.Warn("failed to save history entry", "submission", entry.SubmissionID, "error", err)
		}
	}
}

// Replay rebuilds the request state an entry ended in, so it can be shown
// again through the interpreter.
func Replay(entry types.HistoryEntry) lifecycle.State {
	if entry.ResponseBody == "" {
		return lifecycle.State{
			Phase:        lifecycle.Failed,
			Message:      lifecycle.GenericFailureMessage,
			Mode:         entry.Mode,
			SubmissionID: entry.SubmissionID,
		}
	}

	var resp types.AnalysisResponse
	if err := json.Unmarshal([]byte(entry.ResponseBody), &resp); err != nil {
		return lifecycle.State{Phase: lifecycle.Succeeded, Mode: entry.Mode, SubmissionID: entry.SubmissionID}
	}
	return lifecycle.State{
		Phase:        lifecycle.Succeeded,
		Response:     &resp,
		Mode:         entry.Mode,
		SubmissionID: entry.SubmissionID,
	}
}

// Excerpt shortens text to a single line of at most ExcerptLength characters
func Excerpt(text string) string {
	line := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(line) <= ExcerptLength {
		return line
	}
	runes := []rune(line)
	return string(runes[:ExcerptLength-1]) + "…"
}

// searchSource adapts entries for fuzzy matching
type searchSource []types.HistoryEntry

func (s searchSource) String(i int) string {
	e := s[i]
	return strings.Join([]string{string(e.Mode), e.FileName, e.TextExcerpt}, " ")
}

func (s searchSource) Len() int { return len(s) }

// Search fuzzy-matches entries on mode, file name and excerpt, best match
// first. An empty pattern returns the entries unchanged.
func Search(entries []types.HistoryEntry, pattern string) []types.HistoryEntry {
	if strings.TrimSpace(pattern) == "" {
		return entries
	}

	matches := fuzzy.FindFrom(pattern, searchSource(entries))
	found := make([]types.HistoryEntry, 0, len(matches))
	for _, match := range matches {
		found = append(found, entries[match.Index])
	}
	return found
}
