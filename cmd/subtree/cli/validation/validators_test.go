package validation

import "testing"

func TestValidateRunID(t *testing.T) {
	valid := []string{"a", "run-123", "RUN_1"}
	for _, v := range valid {
		if err := ValidateRunID(v); err != nil {
			t.Errorf("ValidateRunID(%q) = %v, want nil", v, err)
		}
	}
	invalid := []string{"", "../escape", "has space", "a/b"}
	for _, v := range invalid {
		if err := ValidateRunID(v); err == nil {
			t.Errorf("ValidateRunID(%q) = nil, want error", v)
		}
	}
}

func TestValidatePrefix(t *testing.T) {
	valid := []string{"lib", "vendor/lib", "a/b/c"}
	for _, v := range valid {
		if err := ValidatePrefix(v); err != nil {
			t.Errorf("ValidatePrefix(%q) = %v, want nil", v, err)
		}
	}
	invalid := []string{"", "/lib", "lib/", "../lib", "a//b", "./lib"}
	for _, v := range invalid {
		if err := ValidatePrefix(v); err == nil {
			t.Errorf("ValidatePrefix(%q) = nil, want error", v)
		}
	}
}

func TestValidateCommitish(t *testing.T) {
	if err := ValidateCommitish("abc123"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateCommitish(""); err == nil {
		t.Error("expected error for empty commitish")
	}
	if err := ValidateCommitish("abc 123"); err == nil {
		t.Error("expected error for commitish containing whitespace")
	}
}

func TestValidateRememberPair(t *testing.T) {
	if err := ValidateRememberPair("abc:def"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	invalid := []string{"", "abc", "abc:", ":def", "abc def:ghi"}
	for _, v := range invalid {
		if err := ValidateRememberPair(v); err == nil {
			t.Errorf("ValidateRememberPair(%q) = nil, want error", v)
		}
	}
}
