// Package redact masks credentials in text that prvoyager prints: failure
// messages, publish command lines and annotations.
package redact

import (
	"os"
	"regexp"
	"sort"
	"strings"
)

// Mode represents the redaction mode.
type Mode string

const (
	// ModeOff disables redaction.
	ModeOff Mode = "off"
	// ModeBasic masks known secret values and credential shapes.
	ModeBasic Mode = "basic"

	// DefaultReplacement replaces every masked value.
	DefaultReplacement = "***"

	// minSecretLen guards against masking short values such as "1" everywhere.
	minSecretLen = 4
)

// EnvMode selects the mode; unknown values fall back to basic.
const EnvMode = "PRVOYAGER_LOG_REDACT"

var (
	npmrcAuthRe = regexp.MustCompile(`(?i)(:(?:[_-]authToken|_auth|_password)=)[^\s"']+`)
	headerRe    = regexp.MustCompile(`(?im)^(\s*(?:authorization|proxy-authorization|x-github-token)\s*:\s*)[^\r\n]+`)
	envAssignRe = regexp.MustCompile(`\b(\w*(?:TOKEN|SECRET|PASSWORD|API_KEY))=("[^"]*"|'[^']*'|[^\s"']+)`)
	prefixRes   = []*regexp.Regexp{
		regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9_]{20,255}`),
		regexp.MustCompile(`\bgithub_pat_[A-Za-z0-9_]{22,255}`),
		regexp.MustCompile(`\bnpm_[A-Za-z0-9]{20,64}`),
	}
)

// Redactor masks secrets in text.
type Redactor struct {
	mode        Mode
	secrets     []string
	replacement string
}

// Config holds configuration for a Redactor.
type Config struct {
	Mode Mode
	// Secrets are literal values to mask wherever they appear, e.g. the
	// configured GITHUB_TOKEN and NPM_TOKEN.
	Secrets     []string
	Replacement string
}

// New creates a Redactor. An empty Mode means basic.
func New(cfg Config) *Redactor {
	r := &Redactor{
		mode:        cfg.Mode,
		replacement: cfg.Replacement,
	}
	if r.mode == "" {
		r.mode = ModeBasic
	}
	if r.replacement == "" {
		r.replacement = DefaultReplacement
	}
	for _, s := range cfg.Secrets {
		if len(s) >= minSecretLen {
			r.secrets = append(r.secrets, s)
		}
	}
	// Longest first so a secret containing another is masked whole.
	sort.Slice(r.secrets, func(i, j int) bool { return len(r.secrets[i]) > len(r.secrets[j]) })
	return r
}

// FromEnv creates a Redactor for secrets with the mode from PRVOYAGER_LOG_REDACT.
func FromEnv(secrets ...string) *Redactor {
	mode := Mode(strings.ToLower(strings.TrimSpace(os.Getenv(EnvMode))))
	if mode != ModeOff {
		mode = ModeBasic
	}
	return New(Config{Mode: mode, Secrets: secrets})
}

// Redact returns s with secrets masked.
func (r *Redactor) Redact(s string) string {
	if r == nil || r.mode == ModeOff {
		return s
	}

	for _, secret := range r.secrets {
		s = strings.ReplaceAll(s, secret, r.replacement)
	}
	s = npmrcAuthRe.ReplaceAllString(s, "${1}"+r.replacement)
	s = headerRe.ReplaceAllString(s, "${1}"+r.replacement)
	s = envAssignRe.ReplaceAllString(s, "${1}="+r.replacement)
	for _, re := range prefixRes {
		s = re.ReplaceAllString(s, r.replacement)
	}
	return s
}
