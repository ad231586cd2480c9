package filter

import (
	"runtime"
	"strings"
	"testing"
)

const doppelgangerBody = `{
	"mode": "doppelganger",
	"result": {
		"type": "doppelganger",
		"count": 2,
		"top_3": {"justification": "j", "papers": [{"id": 1, "title": "A", "place": 1}]},
		"all_doppelgangers_with_reasons": [
			{"id": 1, "title": "A", "domain": "physics"},
			{"id": 2, "title": "B", "domain": "biology"}
		]
	}
}`

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		exprs   Expressions
		want    string
		wantErr bool
	}{
		{
			name:  "no expressions returns body",
			exprs: Expressions{},
			want:  doppelgangerBody,
		},
		{
			name:  "query selects titles",
			exprs: Expressions{Query: "result.top_3.papers[].title"},
			want:  "[\n  \"A\"\n]",
		},
		{
			name:  "filter then query",
			exprs: Expressions{Filter: "result.all_doppelgangers_with_reasons[?domain=='biology']", Query: "[].title"},
			want:  "[\n  \"B\"\n]",
		},
		{
			name:  "missing field is null",
			exprs: Expressions{Query: "result.nothing"},
			want:  "null",
		},
		{
			name:    "invalid expression",
			exprs:   Expressions{Query: "result.["},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply([]byte(doppelgangerBody), tt.exprs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Apply() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Apply() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApply_InvalidJSON(t *testing.T) {
	if _, err := Apply([]byte("<html>"), Expressions{Query: "mode"}); err == nil {
		t.Fatal("expected error for non-JSON body")
	}
}

func TestApply_ShellQuery(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	got, err := Apply([]byte(`{"mode":"plagiarism"}`), Expressions{Query: "$(wc -c)"})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if strings.TrimSpace(got) != "21" {
		t.Errorf("Apply() = %q, want 21", got)
	}

	if _, err := Apply([]byte(`{}`), Expressions{Query: "$(exit 3)"}); err == nil {
		t.Error("expected error for failing command")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		exprs   Expressions
		wantErr bool
	}{
		{Expressions{}, false},
		{Expressions{Query: "result.type"}, false},
		{Expressions{Query: "$(jq .)"}, false},
		{Expressions{Filter: "result.[", Query: "x"}, true},
		{Expressions{Query: "result.["}, true},
	}

	for _, tt := range tests {
		if err := Validate(tt.exprs); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) error = %v, wantErr %v", tt.exprs, err, tt.wantErr)
		}
	}
}

func TestShellCommand(t *testing.T) {
	if cmd, ok := ShellCommand("$(jq .result)"); !ok || cmd != "jq .result" {
		t.Errorf("ShellCommand() = %q, %v", cmd, ok)
	}
	if _, ok := ShellCommand("result.type"); ok {
		t.Error("plain JMESPath detected as shell command")
	}
}
