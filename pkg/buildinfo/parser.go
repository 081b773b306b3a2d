package buildinfo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/astra"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/logging"
)

const (
	debianPool      = "https://deb.debian.org/debian/pool/main"
	buildCommand    = "dpkg-buildpackage"
	trustSigned     = "signed"
	debianBuilder   = "Debian Build Infrastructure"
	maxLineBytes    = 1 << 20
	pgpSigBegin     = "-----BEGIN PGP SIGNATURE-----"
	pgpSigEnd       = "-----END PGP SIGNATURE-----"
	pgpSignedHeader = "-----BEGIN PGP SIGNED MESSAGE-----"
)

var dependPattern = regexp.MustCompile(`([a-zA-Z0-9.+:~\-]+) \(= ([^\)]+)\)`)

// KeyIDFunc extracts signer key ids from an armored signature block.
type KeyIDFunc func(armored string) []string

// Parser turns Debian .buildinfo files into AStRA documents.
type Parser struct {
	logger logging.Logger
	keyIDs KeyIDFunc
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the parser's logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Parser) { p.logger = logging.OrNop(l) }
}

// WithKeyIDFunc replaces the OpenPGP key id extractor.
func WithKeyIDFunc(fn KeyIDFunc) Option {
	return func(p *Parser) {
		if fn != nil {
			p.keyIDs = fn
		}
	}
}

// NewParser creates a parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{logger: logging.NopLogger{}, keyIDs: SignatureKeyIDs}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// record accumulates fields while scanning.
type record struct {
	source, version, arch, date, origin string

	artifacts []astra.Artifact
	resources []astra.Resource
	seen      map[string]bool
	env       map[string]string
	pgp       []string
}

// ParseFile parses the .buildinfo file at path.
func (p *Parser) ParseFile(path string) (*astra.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}
	defer f.Close()

	doc, err := p.Parse(f)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = path
			return nil, pe
		}
		return nil, &ParseError{Path: path, Cause: err}
	}
	return doc, nil
}

// Parse reads a .buildinfo stanza (optionally clearsigned) and returns the
// build's provenance document.
func (p *Parser) Parse(r io.Reader) (*astra.Document, error) {
	rec := &record{seen: make(map[string]bool), env: make(map[string]string)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		section     string // field whose continuation lines are being read
		inArmorHead bool   // between BEGIN PGP SIGNED MESSAGE and its blank line
		inSignature bool
		lineNo      int
	)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")

		switch {
		case inSignature:
			rec.pgp = append(rec.pgp, line)
			if strings.HasPrefix(line, pgpSigEnd) {
				inSignature = false
			}
			continue
		case strings.HasPrefix(line, pgpSignedHeader):
			inArmorHead = true
			continue
		case inArmorHead:
			if strings.TrimSpace(line) == "" {
				inArmorHead = false
			}
			continue
		case strings.HasPrefix(line, pgpSigBegin):
			inSignature = true
			section = ""
			rec.pgp = append(rec.pgp, line)
			continue
		}

		// Clearsigned payloads dash-escape lines beginning with '-'.
		line = strings.TrimPrefix(line, "- ")

		if strings.TrimSpace(line) == "" {
			section = ""
			continue
		}

		if line[0] == ' ' || line[0] == '\t' {
			rec.continuation(section, strings.TrimSpace(line))
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			p.logger.Debug("skipping malformed buildinfo line", logging.Int("line", lineNo))
			section = ""
			continue
		}
		section = name
		value = strings.TrimSpace(value)
		rec.header(name, value)
		if value != "" {
			rec.continuation(name, value)
		}
	}
	if err := scanner.Err(); err != nil {
		if err == bufio.ErrTooLong {
			return nil, &ParseError{Line: lineNo + 1, Cause: ErrTooLarge}
		}
		return nil, &ParseError{Line: lineNo, Cause: err}
	}

	return p.build(rec)
}

func (rec *record) header(name, value string) {
	switch name {
	case "Source":
		// "Source: foo (1.2-3)" names a binNMU's original version.
		rec.source, _, _ = strings.Cut(value, " ")
	case "Version":
		rec.version = value
	case "Build-Architecture":
		rec.arch = value
	case "Build-Date":
		rec.date = value
	case "Build-Origin":
		rec.origin = value
	}
}

func (rec *record) continuation(section, line string) {
	switch section {
	case "Checksums-Sha256":
		rec.addChecksum(line)
	case "Installed-Build-Depends":
		for _, m := range dependPattern.FindAllStringSubmatch(line, -1) {
			rec.addDependency(strings.TrimSpace(m[1]), strings.TrimSpace(m[2]))
		}
	case "Environment":
		key, val, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if ok && key != "" {
			rec.env[key] = strings.Trim(strings.TrimSpace(val), `"`)
		}
	}
}

func (rec *record) addChecksum(line string) {
	parts := strings.Fields(line)
	if len(parts) != 3 || !strings.HasSuffix(parts[2], ".deb") {
		return
	}
	size, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		size = 0
	}
	rec.artifacts = append(rec.artifacts, astra.Artifact{
		ID:   parts[2],
		Kind: "binary",
		Name: parts[2],
		Hash: parts[0],
		Size: size,
	})
}

func (rec *record) addDependency(pkg, ver string) {
	if pkg == "" {
		return
	}
	id := pkg + "@" + ver
	if rec.seen[id] {
		return
	}
	rec.seen[id] = true
	rec.resources = append(rec.resources, astra.Resource{
		ID:     id,
		Type:   "build-dependency",
		URI:    fmt.Sprintf("%s/%s/%s_%s.deb", debianPool, poolPrefix(pkg), pkg, ver),
		Format: "deb",
	})
}

// poolPrefix is the archive pool directory for a package: its first
// letter, or "libX" for library packages.
func poolPrefix(pkg string) string {
	pkg = strings.ToLower(pkg)
	if strings.HasPrefix(pkg, "lib") && len(pkg) > 3 {
		return pkg[:4]
	}
	return pkg[:1]
}

func (p *Parser) build(rec *record) (*astra.Document, error) {
	if rec.source == "" {
		return nil, &ParseError{Field: "Source", Cause: ErrMissingField}
	}
	if rec.version == "" {
		return nil, &ParseError{Field: "Version", Cause: ErrMissingField}
	}

	doc := &astra.Document{}

	outputs := make([]string, 0, len(rec.artifacts))
	for _, a := range rec.artifacts {
		a.Version = rec.version
		outputs = append(outputs, a.ID)
		doc.Artifacts = append(doc.Artifacts, a)
	}

	upstream, _, _ := strings.Cut(noEpoch(rec.version), "-")
	tarball := fmt.Sprintf("%s_%s.orig.tar.xz", rec.source, upstream)
	rec.resources = append(rec.resources, astra.Resource{
		ID:     tarball,
		Type:   "tarball",
		URI:    fmt.Sprintf("%s/%s/%s/%s", debianPool, poolPrefix(rec.source), rec.source, tarball),
		Format: "orig.tar.xz",
	})

	consumed := make([]string, 0, len(rec.resources))
	for _, res := range rec.resources {
		res.UsedBy = rec.origin
		consumed = append(consumed, res.ID)
		doc.Resources = append(doc.Resources, res)
	}

	doc.Steps = []astra.Step{{
		ID:          fmt.Sprintf("build-%s@%s", rec.source, rec.version),
		Command:     buildCommand,
		Timestamp:   rec.date,
		Arch:        rec.arch,
		Environment: rec.env,
		Consumed:    consumed,
		Outputs:     outputs,
	}}

	principal := astra.Principal{
		ID:      rec.origin,
		Trust:   trustSigned,
		Builder: debianBuilder,
	}
	if len(rec.pgp) > 0 {
		if ids := p.keyIDs(strings.Join(rec.pgp, "\n")); len(ids) > 0 {
			principal.Metadata = map[string]string{"pgp_key_id": ids[0]}
		} else {
			p.logger.Warn("buildinfo signature present but unreadable", logging.String("source", rec.source))
		}
	}
	doc.Principals = []astra.Principal{principal}

	p.logger.Debug("parsed buildinfo",
		logging.String("source", rec.source),
		logging.String("version", rec.version),
		logging.Int("artifacts", len(doc.Artifacts)),
		logging.Int("resources", len(doc.Resources)),
	)
	return doc, nil
}

// noEpoch strips a Debian epoch ("1:2.3-4" -> "2.3-4").
func noEpoch(v string) string {
	if _, rest, ok := strings.Cut(v, ":"); ok {
		return rest
	}
	return v
}
