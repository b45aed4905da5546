package propfile

import (
	"strings"
	"testing"
)

func TestLint(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"clean", "a=Hello {0}\nb=Tab\\there\n", 0},
		{"unicode escape", "a=caf\\u00e9\n", 0},
		{"escaped backslash", "path=C:\\\\x\n", 0},
		{"double dot key", "menu..file=File\n", 1},
		{"invalid escape", "a=bad \\q escape\n", 1},
		{"short unicode", "a=\\u12\n", 1},
		{"continuation is fine", "a=first \\\n  second\n", 0},
		{"comments ignored", "# \\q not checked\n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Lint([]byte(tt.input))
			if len(issues) != tt.want {
				t.Fatalf("Lint(%q) = %v, want %d issues", tt.input, issues, tt.want)
			}
		})
	}
}

func TestLint_ReportsLineNumber(t *testing.T) {
	issues := Lint([]byte("ok=1\n\nbad=\\z\n"))
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	if issues[0].Line != 3 || issues[0].Key != "bad" {
		t.Errorf("issue = %+v, want line 3 key bad", issues[0])
	}
	if !strings.HasPrefix(issues[0].String(), "line 3:") {
		t.Errorf("String() = %q", issues[0].String())
	}
}

func TestCheckEncoding(t *testing.T) {
	if issues := CheckEncoding([]byte("a=Grüße\n")); len(issues) != 0 {
		t.Errorf("clean UTF-8 reported %v", issues)
	}
	if issues := CheckEncoding([]byte("a=GrÃ¼ÃŸe\n")); len(issues) != 1 {
		t.Errorf("mojibake: got %v, want 1 issue", issues)
	}
	if issues := CheckEncoding([]byte("a=bad \xff byte\n")); len(issues) != 1 || !strings.Contains(issues[0].Message, "UTF-8") {
		t.Errorf("invalid UTF-8: got %v", issues)
	}
	if issues := CheckEncoding([]byte("a=\uFFFD\n")); len(issues) != 1 {
		t.Errorf("replacement char: got %v, want 1 issue", issues)
	}
}

func TestEscapeMessageFormat(t *testing.T) {
	tests := []struct {
		source, value, want string
	}{
		{"Hello {0}", "l'utente {0}", "l''utente {0}"},
		{"Hello {0}", "l''utente {0}", "l''utente {0}"},
		{"Plain text", "l'utente", "l'utente"},
	}
	for _, tt := range tests {
		if got := EscapeMessageFormat(tt.source, tt.value); got != tt.want {
			t.Errorf("EscapeMessageFormat(%q, %q) = %q, want %q", tt.source, tt.value, got, tt.want)
		}
	}
}
