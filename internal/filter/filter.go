package filter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/jmespath/go-jmespath"
)

// QueryShellTimeout is the maximum time allowed for a $(...) query command
const QueryShellTimeout = 30 * time.Second

// Shell command pattern: $(command)
var shellPattern = regexp.MustCompile(`^\$\((.+)\)$`)

// Expressions are the --filter and --query options of the analyze and
// history commands
type Expressions struct {
	// Filter narrows the response, e.g. result.all_doppelgangers_with_reasons[?domain=='physics']
	Filter string
	// Query selects from the filtered response, e.g. result.top_3.papers[].title.
	// $(command) pipes the response through a shell command instead.
	Query string
}

// Empty reports whether no expression is set
func (e Expressions) Empty() bool {
	return e.Filter == "" && e.Query == ""
}

// Apply runs the filter, then the query, against a JSON response body
func Apply(body []byte, exprs Expressions) (string, error) {
	result := string(body)

	if exprs.Filter != "" {
		filtered, err := Search(result, exprs.Filter)
		if err != nil {
			return "", fmt.Errorf("failed to apply filter: %w", err)
		}
		result = filtered
	}

	if exprs.Query == "" {
		return result, nil
	}

	if command, ok := ShellCommand(exprs.Query); ok {
		queried, err := runShell(result, command)
		if err != nil {
			return "", fmt.Errorf("failed to execute query shell command: %w", err)
		}
		return queried, nil
	}

	queried, err := Search(result, exprs.Query)
	if err != nil {
		return "", fmt.Errorf("failed to apply query: %w", err)
	}
	return queried, nil
}

// Search evaluates a JMESPath expression and returns indented JSON
func Search(jsonStr string, expression string) (string, error) {
	var data interface{}
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}

	jp, err := jmespath.Compile(expression)
	if err != nil {
		return "", fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
	}

	result, err := jp.Search(data)
	if err != nil {
		return "", fmt.Errorf("JMESPath search failed: %w", err)
	}
	if result == nil {
		return "null", nil
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(output), nil
}

// Validate checks both expressions before anything is sent
func Validate(exprs Expressions) error {
	if exprs.Filter != "" && !IsValidJMESPath(exprs.Filter) {
		return fmt.Errorf("invalid filter expression %q", exprs.Filter)
	}
	if _, ok := ShellCommand(exprs.Query); exprs.Query != "" && !ok && !IsValidJMESPath(exprs.Query) {
		return fmt.Errorf("invalid query expression %q", exprs.Query)
	}
	return nil
}

// IsValidJMESPath checks if an expression is valid JMESPath syntax
func IsValidJMESPath(expression string) bool {
	_, err := jmespath.Compile(expression)
	return err == nil
}

// ShellCommand extracts the command from a $(...) query
func ShellCommand(query string) (string, bool) {
	matches := shellPattern.FindStringSubmatch(query)
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], true
}

// runShell runs command with body on stdin
func runShell(body string, command string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), QueryShellTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdin = strings.NewReader(body)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := err.Error()
		if stderr.Len() > 0 {
			errMsg = strings.TrimSpace(stderr.String())
		}
		return "", fmt.Errorf("command '%s' failed: %s", command, errMsg)
	}

	return strings.TrimSpace(stdout.String()), nil
}
