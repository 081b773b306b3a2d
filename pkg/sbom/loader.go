package sbom

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

var (
	// ErrUnsupportedFormat is returned when neither content nor file name
	// identify a supported SBOM format.
	ErrUnsupportedFormat = errors.New("unsupported or invalid SBOM format")
	// ErrMalformed is returned when the document does not decode.
	ErrMalformed = errors.New("malformed SBOM document")
)

// DetectFormat identifies the SBOM format from the document content,
// falling back to the file name when the content is not conclusive.
func DetectFormat(path string, data []byte) (Format, error) {
	var probe struct {
		SPDXVersion *string `json:"spdxVersion"`
		BOMFormat   string  `json:"bomFormat"`
	}
	if err := json.Unmarshal(data, &probe); err == nil {
		if probe.SPDXVersion != nil {
			return FormatSPDX, nil
		}
		if strings.EqualFold(probe.BOMFormat, "cyclonedx") {
			return FormatCycloneDX, nil
		}
	}

	name := strings.ToLower(path)
	switch {
	case strings.HasSuffix(name, ".spdx"), strings.HasSuffix(name, ".spdx.json"):
		return FormatSPDX, nil
	case strings.HasSuffix(name, ".cdx.json"), strings.HasSuffix(name, ".sbom.json"), strings.HasSuffix(name, ".json"):
		return FormatCycloneDX, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// LoadFile reads and decodes the SBOM at path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(path, data)
}

// Load decodes an SBOM. The path is used only for format detection and
// error messages.
func Load(path string, data []byte) (*Document, error) {
	format, err := DetectFormat(path, data)
	if err != nil {
		return nil, err
	}
	return LoadAs(format, path, data)
}

// LoadAs decodes data as the given format without detection.
func LoadAs(format Format, path string, data []byte) (*Document, error) {
	doc := &Document{Format: format, Path: path}
	switch format {
	case FormatCycloneDX:
		var bom CycloneDX
		if err := json.Unmarshal(data, &bom); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
		}
		doc.CycloneDX = &bom
		doc.setTimestamp(bom.Metadata.Timestamp)
	case FormatSPDX:
		var spdx SPDX
		if err := json.Unmarshal(data, &spdx); err != nil {
			return nil, fmt.Errorf("%w: %s: only SPDX JSON is supported: %v", ErrMalformed, path, err)
		}
		doc.SPDX = &spdx
		doc.setTimestamp(spdx.CreationInfo.Created)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return doc, nil
}

func (d *Document) setTimestamp(raw string) {
	if raw == "" {
		return
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		d.Timestamp = &ts
		return
	}
	d.RawTimestamp = raw
}

// ParseFormat converts a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cyclonedx", "cdx", "cyclonedx-json":
		return FormatCycloneDX, nil
	case "spdx", "spdx-json":
		return FormatSPDX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}
