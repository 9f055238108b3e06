package docmerge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/benjaminschreck/go-docmerge/pkg/store"
)

const profileKeyPrefix = "profile:"

// Profile is the reusable configuration of a CSV and template pair.
type Profile struct {
	Mappings map[string]FieldMapping `yaml:"mappings"`
	Filename FilenameSpec            `yaml:"filename,omitempty"`
	Archive  bool                    `yaml:"archive,omitempty"`
}

// Validate checks every mapping of the profile.
func (p *Profile) Validate() error {
	return ValidateMappings(nil, p.Mappings)
}

// ProfileKey derives the store key of a CSV and template pair from their
// contents, so a renamed file keeps its profile.
func ProfileKey(csvData, templateData []byte) string {
	csvSum := sha256.Sum256(csvData)
	tmplSum := sha256.Sum256(templateData)
	h := sha256.New()
	h.Write(csvSum[:])
	h.Write(tmplSum[:])
	return profileKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// ProfileKeyFiles is ProfileKey over the contents of two files.
func ProfileKeyFiles(csvPath, templatePath string) (string, error) {
	csvData, err := os.ReadFile(csvPath)
	if err != nil {
		return "", err
	}
	templateData, err := os.ReadFile(templatePath)
	if err != nil {
		return "", err
	}
	return ProfileKey(csvData, templateData), nil
}

// MarshalProfile encodes p as YAML.
func MarshalProfile(p *Profile) ([]byte, error) {
	return yaml.Marshal(p)
}

// UnmarshalProfile decodes a YAML profile. Mapping keys are canonicalized and
// a missing candidate count is filled in from the candidate list.
func UnmarshalProfile(data []byte) (*Profile, error) {
	var raw Profile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}

	p := &Profile{
		Filename: raw.Filename,
		Archive:  raw.Archive,
		Mappings: make(map[string]FieldMapping, len(raw.Mappings)),
	}
	for name, m := range raw.Mappings {
		if m.Count == 0 {
			m.Count = len(m.Candidates)
		}
		p.Mappings[CanonicalName(name)] = m
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// SaveProfile stores p under key.
func SaveProfile(ctx context.Context, s store.Store, key string, p *Profile) error {
	data, err := MarshalProfile(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	return s.Put(ctx, key, data)
}

// LoadProfile reads the profile stored under key. A missing profile is
// reported as store.ErrNotFound.
func LoadProfile(ctx context.Context, s store.Store, key string) (*Profile, error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return UnmarshalProfile(data)
}

// LoadProfileFile reads a YAML profile from path.
func LoadProfileFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := UnmarshalProfile(data)
	if err != nil {
		return nil, WithContext(err, "load profile", map[string]interface{}{"path": path})
	}
	return p, nil
}

// WriteProfileFile writes p to path as YAML.
func WriteProfileFile(path string, p *Profile) error {
	data, err := MarshalProfile(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
