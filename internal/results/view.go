// Package results turns a request state into the view the user sees.
package results

import "github.com/sciencetwins/twins/internal/lifecycle"

// Fixed texts shown by the views
const (
	ErrorTitle            = "Something went wrong"
	ProgressText          = "Analyzing your text…"
	PromptText            = "Paste a text or upload a PDF, then run the analysis."
	PlagiarismTitle       = "Plagiarism Detected"
	NoPlagiarismText      = "No plagiarism detected"
	DoppelgangerEmptyText = "No conceptual twins data available yet."
	Top3Heading           = "Top 3 conceptual twins"
	Top3EmptyText         = "No top matches found."
	AllHeading            = "All doppelgängers"
	AllEmptyText          = "No doppelgängers found."
	ArticleLinkText       = "View original article →"
	PaperLinkText         = "View paper →"
)

// Kind identifies a view variant
type Kind int

const (
	KindEmpty Kind = iota
	KindError
	KindProgress
	KindPrompt
	KindPlagiarism
	KindNoPlagiarism
	KindDoppelgangerEmpty
	KindDoppelganger
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindError:
		return "error"
	case KindProgress:
		return "progress"
	case KindPrompt:
		return "prompt"
	case KindPlagiarism:
		return "plagiarism"
	case KindNoPlagiarism:
		return "no_plagiarism"
	case KindDoppelgangerEmpty:
		return "doppelganger_empty"
	case KindDoppelganger:
		return "doppelganger"
	default:
		return "unknown"
	}
}

// View is what the presentation layer draws for one request state.
// The set of implementations is closed.
type View interface {
	Kind() Kind
	view()
}

// EmptyView renders nothing; used for unrecognized shapes
type EmptyView struct{}

// ErrorView is shown for any failure
type ErrorView struct {
	Title   string
	Message string
}

// ProgressView is shown while a request is in flight
type ProgressView struct {
	Text string
}

// PromptView is shown before the first submission
type PromptView struct {
	Text string
}

// PlagiarismView shows the matched source. Empty fields are omitted.
type PlagiarismView struct {
	Title  string
	Reason string
	URL    string
}

// NoPlagiarismView is the all-clear
type NoPlagiarismView struct{}

// DoppelgangerEmptyView is shown when a doppelganger result is missing or malformed
type DoppelgangerEmptyView struct{}

// Paper is one entry of the full doppelganger list
type Paper struct {
	ID     int
	Title  string
	URL    string
	Domain string
	Reason string
}

// RankedPaper is a top-3 entry
type RankedPaper struct {
	Paper
	Rank int
}

// DoppelgangerView has two independent sections. Either list may be empty.
type DoppelgangerView struct {
	Justification string
	Top3          []RankedPaper
	All           []Paper
	Count         int
}

func (EmptyView) Kind() Kind             { return KindEmpty }
func (ErrorView) Kind() Kind             { return KindError }
func (ProgressView) Kind() Kind          { return KindProgress }
func (PromptView) Kind() Kind            { return KindPrompt }
func (PlagiarismView) Kind() Kind        { return KindPlagiarism }
func (NoPlagiarismView) Kind() Kind      { return KindNoPlagiarism }
func (DoppelgangerEmptyView) Kind() Kind { return KindDoppelgangerEmpty }
func (DoppelgangerView) Kind() Kind      { return KindDoppelganger }

func (EmptyView) view()             {}
func (ErrorView) view()             {}
func (ProgressView) view()          {}
func (PromptView) view()            {}
func (PlagiarismView) view()        {}
func (NoPlagiarismView) view()      {}
func (DoppelgangerEmptyView) view() {}
func (DoppelgangerView) view()      {}

func newErrorView() ErrorView {
	return ErrorView{Title: ErrorTitle, Message: lifecycle.GenericFailureMessage}
}
