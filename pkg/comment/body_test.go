package comment

import (
	"strings"
	"testing"
)

func TestBody(t *testing.T) {
	body := Body([]string{"a", "@scope/b"}, "pr7", "0123456789abcdef")

	if !strings.HasPrefix(body, "### :rocket: Embark on a PR Voyage!\n\nLatest commit: 0123456789abcdef\n") {
		t.Errorf("unexpected body header:\n%s", body)
	}
	if !strings.HasSuffix(body, "```\n\n</details>\n") {
		t.Errorf("unexpected body footer:\n%s", body)
	}

	for _, m := range Managers {
		block := "#### Using " + m.Name + "\n\n```\n" + m.Command + " a@pr7 @scope/b@pr7\n```\n"
		if strings.Count(body, block) != 1 {
			t.Errorf("body has no single %s block:\n%s", m.Name, body)
		}
	}
	if got := strings.Count(body, "a@pr7 @scope/b@pr7"); got != len(Managers) {
		t.Errorf("install targets appear %d times, want %d", got, len(Managers))
	}
}

func TestBodyIsDeterministic(t *testing.T) {
	a := Body([]string{"x"}, "pr1", "abc")
	b := Body([]string{"x"}, "pr1", "abc")
	if a != b {
		t.Error("Body() is not deterministic")
	}
}

func TestInstallTargets(t *testing.T) {
	tests := []struct {
		names []string
		want  string
	}{
		{nil, ""},
		{[]string{"a"}, "a@pr3"},
		{[]string{"a", "b", "c"}, "a@pr3 b@pr3 c@pr3"},
	}
	for _, tt := range tests {
		if got := InstallTargets(tt.names, "pr3"); got != tt.want {
			t.Errorf("InstallTargets(%v) = %q, want %q", tt.names, got, tt.want)
		}
	}
}

func TestFingerprint(t *testing.T) {
	body := Body([]string{"a"}, "pr7", "0123456")
	if got, want := Fingerprint(body), "### :rocke"; got != want {
		t.Errorf("Fingerprint() = %q, want %q", got, want)
	}
	if got := Fingerprint("short"); got != "short" {
		t.Errorf("Fingerprint(short) = %q", got)
	}
	if got := Fingerprint("ünïcödé-123456"); got != "ünïcödé-12" {
		t.Errorf("Fingerprint() counts bytes, got %q", got)
	}
}
