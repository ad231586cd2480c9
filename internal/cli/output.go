package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/sciencetwins/twins/internal/filter"
	"github.com/sciencetwins/twins/internal/lifecycle"
	"github.com/sciencetwins/twins/internal/results"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatRaw  = "raw"
)

const (
	highlightFormatter = "terminal256"
	highlightStyle     = "monokai"
)

// OutputStyle controls how output is decorated
type OutputStyle struct {
	Renderer  *lipgloss.Renderer
	Width     int
	Highlight bool // syntax-highlight json and yaml
}

// resolveFormat picks the flag, then the configured default, then text on a
// terminal and raw when piped
func resolveFormat(flag, configured string, tty bool) (string, error) {
	format := flag
	if format == "" {
		format = configured
	}
	if format == "" {
		if tty {
			return FormatText, nil
		}
		return FormatRaw, nil
	}

	switch format {
	case FormatText, FormatJSON, FormatYAML, FormatRaw:
		return format, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text, json, yaml or raw)", format)
	}
}

func newRenderer(w io.Writer, color bool) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}

// FormatState renders a finished request. The text format goes through the
// result views; the others print the response itself. A filter or query
// always yields the selected JSON, whatever the format.
func FormatState(state lifecycle.State, format string, exprs filter.Expressions, style OutputStyle) (string, error) {
	if format == FormatText && exprs.Empty() {
		return renderView(results.Interpret(state), style), nil
	}

	var body []byte
	if state.Response != nil {
		data, err := json.Marshal(state.Response)
		if err != nil {
			return "", fmt.Errorf("failed to encode response: %w", err)
		}
		body = data
	}

	if !exprs.Empty() {
		selected, err := filter.Apply(body, exprs)
		if err != nil {
			return "", err
		}
		if format == FormatYAML {
			return toYAML([]byte(selected), style)
		}
		return decorate(selected, "json", style), nil
	}

	switch format {
	case FormatJSON:
		indented, err := indentJSON(body)
		if err != nil {
			return "", err
		}
		return decorate(indented, "json", style), nil
	case FormatYAML:
		return toYAML(body, style)
	default:
		return string(body) + "\n", nil
	}
}

func renderView(v results.View, style OutputStyle) string {
	theme := results.DefaultTheme(style.Renderer)
	width := style.Width
	if width <= 0 {
		width = defaultWidth
	}
	out := results.Render(v, theme, width)
	if out == "" {
		return ""
	}
	return out + "\n"
}

func indentJSON(body []byte) (string, error) {
	if len(body) == 0 {
		return "null", nil
	}
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func toYAML(body []byte, style OutputStyle) (string, error) {
	var v interface{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &v); err != nil {
			// a $(...) query can return plain text
			return strings.TrimRight(string(body), "\n") + "\n", nil
		}
	}
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode YAML: %w", err)
	}
	return decorate(string(out), "yaml", style), nil
}

// decorate highlights source when requested and ends it with a newline
func decorate(source, lexer string, style OutputStyle) string {
	source = strings.TrimRight(source, "\n")
	if style.Highlight {
		var sb strings.Builder
		if err := quick.Highlight(&sb, source, lexer, highlightFormatter, highlightStyle); err == nil {
			source = strings.TrimRight(sb.String(), "\n")
		}
	}
	return source + "\n"
}
