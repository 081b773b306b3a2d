package sbom

import (
	"bytes"
	"encoding/json"
	"time"
)

// Format identifies an SBOM encoding.
type Format string

const (
	FormatCycloneDX Format = "cyclonedx"
	FormatSPDX      Format = "spdx"
)

// CycloneDX is the subset of a CycloneDX JSON BOM the translator reads.
type CycloneDX struct {
	BOMFormat          string           `json:"bomFormat"`
	SpecVersion        string           `json:"specVersion"`
	SerialNumber       string           `json:"serialNumber,omitempty"`
	Metadata           CDXMetadata      `json:"metadata"`
	Components         []CDXComponent   `json:"components"`
	Dependencies       []CDXDependency  `json:"dependencies"`
	Services           []CDXService     `json:"services,omitempty"`
	ExternalReferences []CDXExternalRef `json:"externalReferences,omitempty"`
}

type CDXMetadata struct {
	Timestamp string        `json:"timestamp,omitempty"`
	Authors   []CDXContact  `json:"authors,omitempty"`
	Tools     CDXTools      `json:"tools,omitempty"`
	Component *CDXComponent `json:"component,omitempty"`
}

type CDXContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type CDXComponent struct {
	BOMRef  string `json:"bom-ref,omitempty"`
	Type    string `json:"type,omitempty"`
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	PURL    string `json:"purl,omitempty"`
}

type CDXDependency struct {
	Ref       string   `json:"ref"`
	DependsOn []string `json:"dependsOn,omitempty"`
}

type CDXService struct {
	BOMRef string `json:"bom-ref,omitempty"`
	Name   string `json:"name"`
}

type CDXExternalRef struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// CDXTool is a tool entry in either the legacy or 1.5+ shape.
type CDXTool struct {
	Vendor  string `json:"vendor,omitempty"`
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// CDXTools accepts both the legacy array form of metadata.tools and the
// CycloneDX 1.5 object form {"components": [...], "services": [...]}.
type CDXTools []CDXTool

func (t *CDXTools) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}
	if data[0] == '[' {
		var list []CDXTool
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*t = list
		return nil
	}
	var obj struct {
		Components []CDXTool `json:"components"`
		Services   []CDXTool `json:"services"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*t = append(obj.Components, obj.Services...)
	return nil
}

// SPDX is the subset of an SPDX 2.x JSON document the translator reads.
type SPDX struct {
	SPDXVersion   string             `json:"spdxVersion"`
	SPDXID        string             `json:"SPDXID,omitempty"`
	Name          string             `json:"name,omitempty"`
	CreationInfo  SPDXCreationInfo   `json:"creationInfo"`
	Packages      []SPDXPackage      `json:"packages"`
	Relationships []SPDXRelationship `json:"relationships,omitempty"`
}

type SPDXCreationInfo struct {
	Created  string   `json:"created,omitempty"`
	Creators []string `json:"creators"`
}

type SPDXPackage struct {
	SPDXID      string `json:"SPDXID,omitempty"`
	Name        string `json:"name"`
	VersionInfo string `json:"versionInfo,omitempty"`
	Supplier    string `json:"supplier,omitempty"`
}

type SPDXRelationship struct {
	Element string `json:"spdxElementId"`
	Type    string `json:"relationshipType"`
	Related string `json:"relatedSpdxElement"`
}

// Document is a loaded SBOM of either format.
type Document struct {
	Format    Format
	Path      string
	CycloneDX *CycloneDX
	SPDX      *SPDX

	// Timestamp is the parsed creation time; RawTimestamp keeps the
	// original text when it was present but not RFC 3339.
	Timestamp    *time.Time
	RawTimestamp string
}
