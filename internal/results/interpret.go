package results

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/sciencetwins/twins/internal/lifecycle"
	"github.com/sciencetwins/twins/internal/types"
)

// Interpret maps a request state to its view. It never fails: shapes it
// does not recognize produce EmptyView or DoppelgangerEmptyView.
func Interpret(state lifecycle.State) View {
	switch state.Phase {
	case lifecycle.Failed:
		return newErrorView()
	case lifecycle.Loading:
		return ProgressView{Text: ProgressText}
	case lifecycle.Idle:
		return PromptView{Text: PromptText}
	case lifecycle.Succeeded:
		if state.Response == nil {
			return EmptyView{}
		}
		return InterpretResponse(state.Mode, state.Response)
	default:
		return EmptyView{}
	}
}

// InterpretResponse maps a successful response to its view. requested is
// the mode the request was sent with; a response for a different mode is
// treated as unrecognized. An empty requested mode skips the check.
func InterpretResponse(requested types.Mode, resp *types.AnalysisResponse) View {
	if resp == nil {
		return EmptyView{}
	}

	mode := types.Mode(resp.Mode)
	if requested != "" && mode != requested {
		return EmptyView{}
	}

	switch mode {
	case types.ModePlagiarism:
		return interpretPlagiarism(resp.Result)
	case types.ModeDoppelganger:
		return interpretDoppelganger(resp.Result)
	default:
		return EmptyView{}
	}
}

func interpretPlagiarism(raw json.RawMessage) View {
	result, ok := decodePlagiarism(raw)
	if !ok {
		return EmptyView{}
	}

	switch result.Type {
	case types.ResultPlagiarism:
		return PlagiarismView{Title: result.Title, Reason: result.Reason, URL: result.URL}
	case types.ResultNoPlagiarism:
		return NoPlagiarismView{}
	default:
		return EmptyView{}
	}
}

func interpretDoppelganger(raw json.RawMessage) View {
	result, ok := decodeDoppelganger(raw)
	if !ok || result.Type != types.ResultDoppelganger {
		return DoppelgangerEmptyView{}
	}

	v := DoppelgangerView{
		Justification: result.Top3.Justification,
		Count:         result.Count,
	}
	for i, p := range result.Top3.Papers {
		rank := p.Rank()
		if rank == 0 {
			rank = i + 1
		}
		v.Top3 = append(v.Top3, RankedPaper{Paper: toPaper(p), Rank: rank})
	}
	for _, p := range result.AllDoppelgangersWithReasons {
		v.All = append(v.All, toPaper(p))
	}
	return v
}

func toPaper(p types.DoppelgangerPaper) Paper {
	return Paper{ID: p.ID, Title: p.Title, URL: p.URL, Domain: p.Domain, Reason: p.Reason}
}

// The decoders below read the nested result field by field. A field of the
// wrong JSON type is left at its zero value and a malformed list entry is
// skipped; only a non-object result or a non-string discriminant fails.

func decodePlagiarism(raw json.RawMessage) (types.PlagiarismResult, bool) {
	f, ok := objectFields(raw)
	if !ok {
		return types.PlagiarismResult{}, false
	}
	typ, ok := stringField(f, "type")
	if !ok {
		return types.PlagiarismResult{}, false
	}
	title, _ := stringField(f, "title")
	reason, _ := stringField(f, "reason")
	url, _ := stringField(f, "url")
	message, _ := stringField(f, "message")
	return types.PlagiarismResult{Type: typ, Title: title, Reason: reason, URL: url, Message: message}, true
}

func decodeDoppelganger(raw json.RawMessage) (types.DoppelgangerResult, bool) {
	f, ok := objectFields(raw)
	if !ok {
		return types.DoppelgangerResult{}, false
	}
	typ, ok := stringField(f, "type")
	if !ok {
		return types.DoppelgangerResult{}, false
	}

	result := types.DoppelgangerResult{Type: typ}
	result.Count, _ = intField(f, "count")
	result.Message, _ = stringField(f, "message")
	result.AllDoppelgangersWithReasons = decodePapers(f["all_doppelgangers_with_reasons"])
	if top3, ok := objectFields(f["top_3"]); ok {
		result.Top3.Justification, _ = stringField(top3, "justification")
		result.Top3.Papers = decodePapers(top3["papers"])
	}
	return result, true
}

func decodePapers(raw json.RawMessage) []types.DoppelgangerPaper {
	var entries []json.RawMessage
	if isAbsent(raw) || json.Unmarshal(raw, &entries) != nil {
		return nil
	}

	var papers []types.DoppelgangerPaper
	for _, entry := range entries {
		f, ok := objectFields(entry)
		if !ok {
			continue
		}
		var p types.DoppelgangerPaper
		p.ID, _ = intField(f, "id")
		p.Title, _ = stringField(f, "title")
		p.URL, _ = stringField(f, "url")
		p.Domain, _ = stringField(f, "domain")
		p.Reason, _ = stringField(f, "reason")
		if place, ok := intField(f, "place"); ok {
			p.Place = &place
		}
		papers = append(papers, p)
	}
	return papers
}

func objectFields(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if isAbsent(raw) {
		return nil, false
	}
	var f map[string]json.RawMessage
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, false
	}
	return f, true
}

func stringField(f map[string]json.RawMessage, key string) (string, bool) {
	var s string
	if isAbsent(f[key]) || json.Unmarshal(f[key], &s) != nil {
		return "", false
	}
	return s, true
}

// intField accepts a JSON integer or a string holding one
func intField(f map[string]json.RawMessage, key string) (int, bool) {
	raw := f[key]
	if isAbsent(raw) {
		return 0, false
	}
	var n int
	if json.Unmarshal(raw, &n) == nil {
		return n, true
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// ServiceMessage returns the message of a service-side "error" result, if
// the response carries one. It is used for diagnostics only.
func ServiceMessage(resp *types.AnalysisResponse) string {
	if resp == nil || isAbsent(resp.Result) {
		return ""
	}
	f, ok := objectFields(resp.Result)
	if !ok {
		return ""
	}
	if typ, _ := stringField(f, "type"); typ != types.ResultError {
		return ""
	}
	message, _ := stringField(f, "message")
	return message
}
