package redact

import (
	"strings"
	"testing"
)

func TestRedact(t *testing.T) {
	r := New(Config{Secrets: []string{"s3cr3t-npm-value", "ghs_short"}})

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "configured secret",
			input: "npm ERR! 401 token s3cr3t-npm-value rejected",
			want:  "npm ERR! 401 token *** rejected",
		},
		{
			name:  "npmrc auth line",
			input: "//registry.npmjs.org/:_authToken=abcdef123456",
			want:  "//registry.npmjs.org/:_authToken=***",
		},
		{
			name:  "npmrc basic auth",
			input: "//npm.pkg.github.com/:_auth=dXNlcjpwYXNz",
			want:  "//npm.pkg.github.com/:_auth=***",
		},
		{
			name:  "npmrc auth flag",
			input: `publish command "npm publish --//registry.npmjs.org/:-authToken=zzz999 --tag pr7" failed`,
			want:  `publish command "npm publish --//registry.npmjs.org/:-authToken=*** --tag pr7" failed`,
		},
		{
			name:  "authorization header",
			input: "request failed\nAuthorization: Bearer abc.def.ghi\nAccept: */*",
			want:  "request failed\nAuthorization: ***\nAccept: */*",
		},
		{
			name:  "env assignment",
			input: `NODE_AUTH_TOKEN="quoted value" NPM_TOKEN=bare CI=true`,
			want:  `NODE_AUTH_TOKEN=*** NPM_TOKEN=*** CI=true`,
		},
		{
			name:  "github token shape",
			input: "using ghp_" + strings.Repeat("a1B2", 9) + " for the API",
			want:  "using *** for the API",
		},
		{
			name:  "fine-grained token shape",
			input: "github_pat_" + strings.Repeat("Z9", 20),
			want:  "***",
		},
		{
			name:  "npm token shape",
			input: "npm_" + strings.Repeat("x7", 18),
			want:  "***",
		},
		{
			name:  "nothing to mask",
			input: "Published 2 package(s) under tag pr7",
			want:  "Published 2 package(s) under tag pr7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Redact(tt.input); got != tt.want {
				t.Errorf("Redact() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRedactLongestSecretFirst(t *testing.T) {
	r := New(Config{Secrets: []string{"abcd", "abcdefgh"}, Replacement: "[x]"})
	if got := r.Redact("key=abcdefgh"); got != "key=[x]" {
		t.Errorf("Redact() = %q, want %q", got, "key=[x]")
	}
}

func TestRedactIgnoresShortSecrets(t *testing.T) {
	r := New(Config{Secrets: []string{"", "1", "abc"}})
	if len(r.secrets) != 0 {
		t.Errorf("secrets = %v, want none", r.secrets)
	}
	if got := r.Redact("pr 1 abc"); got != "pr 1 abc" {
		t.Errorf("Redact() = %q", got)
	}
}

func TestModeOff(t *testing.T) {
	r := New(Config{Mode: ModeOff, Secrets: []string{"topsecret"}})
	in := "topsecret //registry.npmjs.org/:_authToken=abc"
	if got := r.Redact(in); got != in {
		t.Errorf("Redact() in off mode = %q", got)
	}

	var nilRedactor *Redactor
	if got := nilRedactor.Redact(in); got != in {
		t.Errorf("nil Redactor changed input: %q", got)
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		env  string
		want Mode
	}{
		{"", ModeBasic},
		{"off", ModeOff},
		{" OFF ", ModeOff},
		{"basic", ModeBasic},
		{"aggressive", ModeBasic},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(EnvMode, tt.env)
			if got := FromEnv("secret-value").mode; got != tt.want {
				t.Errorf("FromEnv() mode = %q, want %q", got, tt.want)
			}
		})
	}
}
