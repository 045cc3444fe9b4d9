package validate

import (
	"errors"
	"strings"
	"testing"
)

func TestID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		required bool
		wantErr  bool
	}{
		{"uuid", "3f2b8c1e-9d4a-4f6b-8e2a-1c5d7b9e0f12", true, false},
		{"tool name", "proot-distro", true, false},
		{"empty optional", "", false, false},
		{"empty required", "", true, true},
		{"slash", "../etc", true, true},
		{"space", "a b", true, true},
		{"too long", strings.Repeat("a", MaxIDLength+1), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ID(tt.id, "session_id", tt.required)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("error should wrap ErrInvalid: %v", err)
			}
		})
	}
}

func TestCommand(t *testing.T) {
	if err := Command(""); err != nil {
		t.Errorf("empty command should be allowed: %v", err)
	}
	if err := Command("ls -la"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Command("echo \x00"); err == nil {
		t.Error("null byte should be rejected")
	}
	if err := Command(strings.Repeat("x", MaxCommandLength+1)); err == nil {
		t.Error("oversized command should be rejected")
	}
}

func TestPrompt(t *testing.T) {
	if err := Prompt("explain grep"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, bad := range []string{"", "   \n"} {
		if err := Prompt(bad); err == nil {
			t.Errorf("Prompt(%q) should fail", bad)
		}
	}
}

func TestQuery(t *testing.T) {
	if err := Query("", false); err != nil {
		t.Errorf("optional empty query should pass: %v", err)
	}
	if err := Query("", true); err == nil {
		t.Error("required empty query should fail")
	}
}
