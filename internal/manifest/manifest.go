package manifest

import (
	_ "crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"strings"

	"fxlaunch/internal/platform"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"github.com/opencontainers/go-digest"
	"github.com/pelletier/go-toml/v2"
)

// SchemaVersion is the manifest document version this build understands
const SchemaVersion = 1

// Descriptor identifies one downloadable JavaFX bundle.
// It is unique by (JavaFXVersion, Platform).
type Descriptor struct {
	JavaFXVersion string
	Platform      platform.Key
	URL           string
	Checksum      digest.Digest // empty until resolved when only ChecksumURL is published
	ChecksumURL   string
	SizeBytes     int64 // 0 when unknown
	RequiresJava  int   // minimum Java major
}

func (d Descriptor) String() string {
	return fmt.Sprintf("JavaFX %s (%s)", d.JavaFXVersion, d.Platform)
}

// document mirrors the TOML layout. Unknown fields are ignored by the decoder.
type document struct {
	Schema int                   `toml:"schema"`
	JavaFX map[string]releaseDoc `toml:"javafx" validate:"required,min=1,dive"`
}

type releaseDoc struct {
	RequiresJava int                    `toml:"requires_java" validate:"omitempty,gte=8"`
	Platforms    map[string]artifactDoc `toml:"platforms" validate:"required,min=1,dive"`
}

type artifactDoc struct {
	URL         string `toml:"url" validate:"required,url"`
	Checksum    string `toml:"checksum" validate:"required_without=ChecksumURL"`
	ChecksumURL string `toml:"checksum_url" validate:"omitempty,url"`
	Size        int64  `toml:"size" validate:"gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Manifest is the parsed table of JavaFX releases per platform
type Manifest struct {
	releases map[string]map[platform.Key]Descriptor
	versions []string // newest first
}

// Parse decodes and validates a manifest document. Platform keys are
// canonicalized; two spellings of the same key are rejected.
func Parse(data []byte) (*Manifest, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	if doc.Schema != SchemaVersion {
		return nil, fmt.Errorf("unsupported manifest schema %d (want %d)", doc.Schema, SchemaVersion)
	}

	if err := validate.Struct(doc); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			msgs := make([]string, 0, len(validationErrors))
			for _, fe := range validationErrors {
				msgs = append(msgs, formatValidationError(fe))
			}
			return nil, fmt.Errorf("invalid manifest: %s", strings.Join(msgs, "; "))
		}
		return nil, fmt.Errorf("manifest validation failed: %w", err)
	}

	m := &Manifest{releases: make(map[string]map[platform.Key]Descriptor, len(doc.JavaFX))}
	semvers := make(map[string]*semver.Version, len(doc.JavaFX))

	for rawVersion, rel := range doc.JavaFX {
		version := strings.TrimSpace(rawVersion)
		sv, err := semver.NewVersion(version)
		if err != nil {
			return nil, fmt.Errorf("invalid JavaFX version %q: %w", rawVersion, err)
		}
		if _, dup := m.releases[version]; dup {
			return nil, fmt.Errorf("duplicate JavaFX version %q", version)
		}

		requires := rel.RequiresJava
		if requires == 0 {
			requires = RequiredJava(int(sv.Major()))
		}

		platforms := make(map[platform.Key]Descriptor, len(rel.Platforms))
		for rawKey, art := range rel.Platforms {
			key, err := platform.Parse(rawKey)
			if err != nil {
				return nil, fmt.Errorf("javafx %s: %w", version, err)
			}
			if _, dup := platforms[key]; dup {
				return nil, fmt.Errorf("javafx %s: duplicate platform %s (from %q)", version, key, rawKey)
			}

			desc := Descriptor{
				JavaFXVersion: version,
				Platform:      key,
				URL:           art.URL,
				ChecksumURL:   art.ChecksumURL,
				SizeBytes:     art.Size,
				RequiresJava:  requires,
			}
			if art.Checksum != "" {
				d, err := digest.Parse(strings.TrimSpace(art.Checksum))
				if err != nil {
					return nil, fmt.Errorf("javafx %s %s: invalid checksum: %w", version, key, err)
				}
				desc.Checksum = d
			}
			platforms[key] = desc
		}

		m.releases[version] = platforms
		semvers[version] = sv
		m.versions = append(m.versions, version)
	}

	sort.Slice(m.versions, func(i, j int) bool {
		return semvers[m.versions[i]].GreaterThan(semvers[m.versions[j]])
	})

	return m, nil
}

// Versions lists the JavaFX versions in the manifest, newest first
func (m *Manifest) Versions() []string {
	return append([]string(nil), m.versions...)
}

// Platforms lists the platform keys published for a version, sorted
func (m *Manifest) Platforms(version string) []platform.Key {
	rel := m.releases[version]
	keys := make([]platform.Key, 0, len(rel))
	for k := range rel {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

func (m *Manifest) lookup(version string, key platform.Key) (Descriptor, bool, bool) {
	rel, ok := m.releases[version]
	if !ok {
		return Descriptor{}, false, false
	}
	desc, ok := rel[key]
	return desc, true, ok
}

func formatValidationError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Namespace())
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s %q is not a valid URL", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
