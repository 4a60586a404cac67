// Package comment builds, finds and writes the install-instructions comment
// on a pull request.
package comment

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"
)

// FingerprintLength is the number of leading characters of a generated body
// used to find the comment again on later runs.
const FingerprintLength = 10

//go:embed templates/body.md.tmpl
var bodyTemplate string

var bodyTmpl = template.Must(template.New("body").Parse(bodyTemplate))

// Manager is a package manager and its install command.
type Manager struct {
	Name    string
	Command string
}

// Managers are listed in the body in this order.
var Managers = []Manager{
	{Name: "npm", Command: "npm install"},
	{Name: "yarn", Command: "yarn add"},
	{Name: "pnpm", Command: "pnpm add"},
}

// InstallTargets returns "name@tag" for every package, space-joined.
func InstallTargets(names []string, tag string) string {
	targets := make([]string, len(names))
	for i, name := range names {
		targets[i] = name + "@" + tag
	}
	return strings.Join(targets, " ")
}

// Body renders the comment for the published packages.
func Body(names []string, tag, sha string) string {
	var buf bytes.Buffer
	data := struct {
		SHA      string
		Install  string
		Managers []Manager
	}{
		SHA:      sha,
		Install:  InstallTargets(names, tag),
		Managers: Managers,
	}
	// The template is static and the data is plain strings.
	if err := bodyTmpl.Execute(&buf, data); err != nil {
		panic(err)
	}
	return buf.String()
}

// Fingerprint returns the first FingerprintLength characters of body.
func Fingerprint(body string) string {
	r := []rune(body)
	if len(r) > FingerprintLength {
		r = r[:FingerprintLength]
	}
	return string(r)
}
