package types

import (
	"encoding/json"
	"strings"
	"time"
)

// File is a candidate document picked at the file-selection boundary.
// Only PDFs ever make it this far.
type File struct {
	Name        string `json:"name" yaml:"name"`
	ContentType string `json:"contentType" yaml:"contentType"`
	Data        []byte `json:"-" yaml:"-"`
	Pages       int    `json:"pages,omitempty" yaml:"pages,omitempty"` // 0 when the PDF could not be parsed
}

// Size returns the file size in bytes
func (f *File) Size() int {
	if f == nil {
		return 0
	}
	return len(f.Data)
}

// AnalysisInput is what the user has entered for one submission
type AnalysisInput struct {
	Text string
	File *File
	Mode Mode
}

// Ready reports whether the input satisfies the submission precondition:
// non-empty text after trimming, or a file.
func (in AnalysisInput) Ready() bool {
	return strings.TrimSpace(in.Text) != "" || in.File != nil
}

// Encoding is the body encoding chosen for a submission
type Encoding string

const (
	EncodingJSON      Encoding = "json"
	EncodingMultipart Encoding = "multipart"
)

// AnalysisRequest is the serialized request sent to the analysis service
type AnalysisRequest struct {
	Encoding Encoding `json:"encoding"`
	Mode     Mode     `json:"mode"`
	Body     []byte   `json:"-"`

	// ContentType is supplied by the encoder. For multipart bodies it carries
	// the generated boundary and must not be replaced by a hand-written value.
	ContentType string `json:"contentType"`

	// Headers holds explicitly set request headers
	Headers map[string]string `json:"headers,omitempty"`

	FileName string `json:"fileName,omitempty"`
}

// AnalysisResponse is the service response. Result is kept verbatim; its
// shape depends on Mode and is only interpreted when rendering.
type AnalysisResponse struct {
	Mode   string          `json:"mode" yaml:"mode"`
	Result json.RawMessage `json:"result,omitempty" yaml:"-"`
}

// TLSConfig contains TLS/mTLS settings for the analysis client
type TLSConfig struct {
	CAFile             string `json:"caFile,omitempty" yaml:"caFile,omitempty"`
	CertFile           string `json:"certFile,omitempty" yaml:"certFile,omitempty"`
	KeyFile            string `json:"keyFile,omitempty" yaml:"keyFile,omitempty"`
	InsecureSkipVerify bool   `json:"insecureSkipVerify,omitempty" yaml:"insecureSkipVerify,omitempty"`
}

// Session represents state persisted between runs
type Session struct {
	Mode           Mode     `json:"mode,omitempty"`
	HistoryEnabled *bool    `json:"historyEnabled,omitempty"`
	RecentFiles    []string `json:"recentFiles,omitempty"`
}

// HistoryEntry is a saved analysis (request summary plus outcome)
type HistoryEntry struct {
	ID           int64     `json:"id" yaml:"id"`
	SubmissionID string    `json:"submissionId" yaml:"submissionId"`
	Timestamp    time.Time `json:"timestamp" yaml:"timestamp"`
	Mode         Mode      `json:"mode" yaml:"mode"`
	Encoding     Encoding  `json:"encoding" yaml:"encoding"`
	FileName     string    `json:"fileName,omitempty" yaml:"fileName,omitempty"`
	TextExcerpt  string    `json:"textExcerpt,omitempty" yaml:"textExcerpt,omitempty"`
	Status       int       `json:"status" yaml:"status"` // 0 for transport faults
	ResponseBody string    `json:"responseBody,omitempty" yaml:"responseBody,omitempty"`
	Duration     int64     `json:"duration" yaml:"duration"` // milliseconds
	RequestSize  int       `json:"requestSize,omitempty" yaml:"requestSize,omitempty"`
	ResponseSize int       `json:"responseSize,omitempty" yaml:"responseSize,omitempty"`
	Error        string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Succeeded reports whether the entry recorded a successful analysis
func (e HistoryEntry) Succeeded() bool {
	return e.Error == ""
}
