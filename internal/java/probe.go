package java

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var versionLine = regexp.MustCompile(`(?i)\bversion\s+"([^"]+)"`)

// parseProperties reads the "key = value" block printed by
// `java -XshowSettings:properties -version`. Continuation lines of
// multi-valued properties are skipped.
func parseProperties(output []byte) map[string]string {
	props := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, " = ")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" || strings.ContainsAny(key, " \t") {
			continue
		}
		props[key] = strings.TrimSpace(value)
	}
	return props
}

// parseVersionOutput finds the quoted version in `java -version` output,
// e.g. `openjdk version "17.0.9" 2023-10-17` or `java version "1.8.0_392"`
func parseVersionOutput(output []byte) (Version, bool) {
	m := versionLine.FindSubmatch(output)
	if m == nil {
		return Version{}, false
	}
	v, err := ParseVersion(string(m[1]))
	if err != nil {
		return Version{}, false
	}
	return v, true
}

// readReleaseFile parses JAVA_HOME/release, which most vendors ship:
// JAVA_VERSION="17.0.9", IMPLEMENTOR="Eclipse Adoptium", OS_ARCH="x86_64"
func readReleaseFile(home string) map[string]string {
	data, err := os.ReadFile(filepath.Join(home, "release"))
	if err != nil {
		return nil
	}

	values := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		values[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	return values
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
