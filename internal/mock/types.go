package mock

import (
	"time"

	"github.com/sciencetwins/twins/internal/types"
)

// Config represents the mock analysis service configuration
type Config struct {
	Port      int        `json:"port" yaml:"port"`                     // Server port (default: 8000)
	Host      string     `json:"host" yaml:"host"`                     // Server host (default: 127.0.0.1)
	Path      string     `json:"path,omitempty" yaml:"path,omitempty"` // Analyze route (default: /api/analyze)
	Logging   bool       `json:"logging" yaml:"logging"`               // Keep a request log
	Responses []Response `json:"responses" yaml:"responses"`           // Canned responses, first match wins
}

// Response is a canned answer for one mode
type Response struct {
	Name        string     `json:"name,omitempty" yaml:"name,omitempty"`
	Mode        types.Mode `json:"mode" yaml:"mode"`                               // plagiarism or doppelganger
	Match       string     `json:"match,omitempty" yaml:"match,omitempty"`         // Case-insensitive substring of the text or file name
	Status      int        `json:"status,omitempty" yaml:"status,omitempty"`       // HTTP status code (default: 200)
	Body        string     `json:"body,omitempty" yaml:"body,omitempty"`           // Raw response body
	BodyFile    string     `json:"bodyFile,omitempty" yaml:"bodyFile,omitempty"`   // Path to response body file
	Delay       int        `json:"delay,omitempty" yaml:"delay,omitempty"`         // Response delay in milliseconds
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
}

// RequestLog represents a logged analysis request
type RequestLog struct {
	Timestamp   time.Time     `json:"timestamp"`
	Encoding    string        `json:"encoding"`
	Mode        string        `json:"mode"`
	Input       string        `json:"input"` // text, or file name for uploads
	MatchedRule string        `json:"matchedRule"`
	Status      int           `json:"status"`
	Duration    time.Duration `json:"duration"`
}
