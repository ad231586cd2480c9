package types

// Result discriminants sent by the analysis service
const (
	ResultPlagiarism   = "plagiarism"
	ResultNoPlagiarism = "no_plagiarism"
	ResultDoppelganger = "doppelganger"
	ResultError        = "error"
)

// PlagiarismResult is the nested result of a plagiarism analysis
type PlagiarismResult struct {
	Type   string `json:"type" yaml:"type"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
	URL    string `json:"url,omitempty" yaml:"url,omitempty"`

	// Message is only set on service-side "error" results
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// DoppelgangerPaper is one conceptually similar paper
type DoppelgangerPaper struct {
	ID     int    `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	URL    string `json:"url" yaml:"url"`
	Domain string `json:"domain" yaml:"domain"`
	Reason string `json:"reason" yaml:"reason"`
	Place  *int   `json:"place,omitempty" yaml:"place,omitempty"` // only present in top_3.papers
}

// Rank returns the paper's place, falling back to its id
func (p DoppelgangerPaper) Rank() int {
	if p.Place != nil {
		return *p.Place
	}
	return p.ID
}

// DoppelgangerTop3 is the service's highest-ranked selection
type DoppelgangerTop3 struct {
	Papers        []DoppelgangerPaper `json:"papers" yaml:"papers"`
	Justification string              `json:"justification" yaml:"justification"`
}

// DoppelgangerResult is the nested result of a doppelganger analysis
type DoppelgangerResult struct {
	Type                        string              `json:"type" yaml:"type"`
	Count                       int                 `json:"count" yaml:"count"`
	AllDoppelgangersWithReasons []DoppelgangerPaper `json:"all_doppelgangers_with_reasons" yaml:"all_doppelgangers_with_reasons"`
	Top3                        DoppelgangerTop3    `json:"top_3" yaml:"top_3"`
	Message                     string              `json:"message,omitempty" yaml:"message,omitempty"`
}
