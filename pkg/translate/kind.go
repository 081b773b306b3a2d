package translate

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/sbom"
)

// Kind is the input family a file belongs to.
type Kind string

const (
	KindBuildinfo Kind = "buildinfo"
	KindCycloneDX Kind = "cyclonedx"
	KindSPDX      Kind = "spdx"
)

// ParseKind maps a user supplied format name to a Kind. Empty means
// "detect".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "buildinfo", "deb", "debian":
		return KindBuildinfo, nil
	}
	f, err := sbom.ParseFormat(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return kindOf(f), nil
}

// DetectKind identifies the input family from its name and content.
func DetectKind(name string, data []byte) (Kind, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", ErrEmptyInput
	}

	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".buildinfo") || looksLikeBuildinfo(data) {
		return KindBuildinfo, nil
	}
	if strings.HasSuffix(lower, ".txt") {
		return "", fmt.Errorf("%w: %s has no buildinfo headers", ErrUnknownKind, name)
	}

	f, err := sbom.DetectFormat(name, data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnknownKind, err)
	}
	return kindOf(f), nil
}

// looksLikeBuildinfo checks the first stanza lines for the headers every
// .buildinfo carries, skipping a clearsign armor header.
func looksLikeBuildinfo(data []byte) bool {
	if b := bytes.TrimLeft(data, " \t\r\n"); len(b) > 0 && (b[0] == '{' || b[0] == '[') {
		return false
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for i := 0; sc.Scan() && i < 32; i++ {
		line := sc.Text()
		if strings.HasPrefix(line, "Format:") || strings.HasPrefix(line, "Source:") {
			return true
		}
	}
	return false
}

// Candidate reports whether a directory walk should pick up the file.
func Candidate(name string) bool {
	lower := strings.ToLower(filepath.Base(name))
	if strings.HasSuffix(lower, "_graph.json") || strings.HasSuffix(lower, "_layout.json") {
		return false
	}
	switch filepath.Ext(lower) {
	case ".json", ".spdx", ".buildinfo":
		return true
	}
	return false
}

// OutputBase strips the last extension from the input's file name.
func OutputBase(name string) string {
	base := filepath.Base(name)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

func kindOf(f sbom.Format) Kind {
	if f == sbom.FormatSPDX {
		return KindSPDX
	}
	return KindCycloneDX
}

func (k Kind) format() sbom.Format {
	if k == KindSPDX {
		return sbom.FormatSPDX
	}
	return sbom.FormatCycloneDX
}
