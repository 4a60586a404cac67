package workspace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ManifestFile is the package manifest file name.
const ManifestFile = "package.json"

// ErrNoVersion is returned when a manifest has no string "version" field.
var ErrNoVersion = errors.New("manifest has no version field")

// Manifest is a package.json document. Edits go through sjson so that field
// order and unknown fields survive a rewrite untouched.
type Manifest struct {
	raw []byte
}

// ParseManifest validates data as a JSON object and wraps it.
func ParseManifest(data []byte) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON in %s", ManifestFile)
	}
	if !gjson.ParseBytes(data).IsObject() {
		return nil, fmt.Errorf("%s must contain a JSON object", ManifestFile)
	}
	raw := make([]byte, len(data))
	copy(raw, data)
	return &Manifest{raw: raw}, nil
}

// ReadManifest reads dir/package.json.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Name returns the "name" field, or "" when absent.
func (m *Manifest) Name() string {
	return m.Get("name").String()
}

// Version returns the "version" field. The boolean is false when the field is
// missing or not a string.
func (m *Manifest) Version() (string, bool) {
	v := m.Get("version")
	if v.Type != gjson.String {
		return "", false
	}
	return v.String(), true
}

// Get looks up a gjson path in the manifest.
func (m *Manifest) Get(path string) gjson.Result {
	return gjson.GetBytes(m.raw, path)
}

// WithVersion returns a copy of the manifest with "version" replaced.
func (m *Manifest) WithVersion(v string) (*Manifest, error) {
	raw, err := sjson.SetBytes(m.raw, "version", v)
	if err != nil {
		return nil, fmt.Errorf("failed to set version: %w", err)
	}
	return &Manifest{raw: raw}, nil
}

// Raw returns the manifest bytes as read or last edited.
func (m *Manifest) Raw() []byte {
	return m.raw
}

// Format serializes the manifest with 2-space indentation. A trailing newline
// is kept only if the source had one.
func (m *Manifest) Format() ([]byte, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, m.raw); err != nil {
		return nil, fmt.Errorf("failed to compact manifest: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("failed to indent manifest: %w", err)
	}
	if bytes.HasSuffix(bytes.TrimRight(m.raw, " \t\r"), []byte("\n")) {
		out.WriteByte('\n')
	}
	return out.Bytes(), nil
}

// WriteManifest formats m and writes it to dir/package.json.
func WriteManifest(dir string, m *Manifest) error {
	data, err := m.Format()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
