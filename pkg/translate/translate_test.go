package translate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/astra"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/buildinfo"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/catalog"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/graph"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/metrics"
)

func newTestTranslator(t *testing.T, opts ...Option) (*Translator, *metrics.Registry, string) {
	t.Helper()
	out := t.TempDir()
	reg := metrics.NewRegistry()
	base := []Option{
		WithOutputDir(out),
		WithMetrics(reg),
		WithParser(buildinfo.NewParser(buildinfo.WithKeyIDFunc(func(string) []string { return nil }))),
	}
	return New(append(base, opts...)...), reg, out
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

type recordingSink struct {
	files map[string][]astra.Edge
	err   error
}

func (s *recordingSink) WriteEdges(_ context.Context, file string, edges []astra.Edge) error {
	if s.err != nil {
		return s.err
	}
	if s.files == nil {
		s.files = make(map[string][]astra.Edge)
	}
	s.files[file] = edges
	return nil
}

func (s *recordingSink) Close() error { return nil }

var _ catalog.Sink = (*recordingSink)(nil)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
		want Kind
		err  error
	}{
		{"buildinfo extension", "x.buildinfo", "anything", KindBuildinfo, nil},
		{"txt with headers", "notes.txt", "Format: 1.0\nSource: foo\n", KindBuildinfo, nil},
		{"clearsigned txt", "notes.txt", "-----BEGIN PGP SIGNED MESSAGE-----\nHash: SHA256\n\nFormat: 1.0\n", KindBuildinfo, nil},
		{"txt without headers", "notes.txt", "hello", "", ErrUnknownKind},
		{"cyclonedx", "bom.json", `{"bomFormat":"CycloneDX"}`, KindCycloneDX, nil},
		{"spdx by content", "bom.json", `{"spdxVersion":"SPDX-2.3"}`, KindSPDX, nil},
		{"spdx by name", "bom.spdx", `{}`, KindSPDX, nil},
		{"json never buildinfo", "bom.json", `{"Source": "x"}`, KindCycloneDX, nil},
		{"unknown", "image.png", "\x89PNG", "", ErrUnknownKind},
		{"empty", "x.buildinfo", "  \n", "", ErrEmptyInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectKind(tt.file, []byte(tt.data))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"":          "",
		"buildinfo": KindBuildinfo,
		"CDX":       KindCycloneDX,
		"spdx-json": KindSPDX,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseKind("rpm")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestOutputBase(t *testing.T) {
	assert.Equal(t, "kawipiko-sbom-cdx", OutputBase("kawipiko-sbom-cdx.json"))
	assert.Equal(t, "app.spdx", OutputBase("dir/app.spdx.json"))
	assert.Equal(t, "hello_2.10-3_amd64", OutputBase("hello_2.10-3_amd64.buildinfo"))
	assert.Equal(t, ".hidden", OutputBase(".hidden"))
}

func TestCandidate(t *testing.T) {
	assert.True(t, Candidate("a/b.json"))
	assert.True(t, Candidate("b.SPDX"))
	assert.True(t, Candidate("x.buildinfo"))
	assert.False(t, Candidate("x_graph.json"))
	assert.False(t, Candidate("x_astra_catalog.csv"))
	assert.False(t, Candidate("notes.txt"))
}

func TestTranslateFileSBOM(t *testing.T) {
	sink := &recordingSink{}
	tr, reg, out := newTestTranslator(t, WithSink(sink))

	res, err := tr.TranslateFile(context.Background(), "testdata/batch/app-sbom.json", "")
	require.NoError(t, err)
	assert.Equal(t, KindCycloneDX, res.Kind)
	assert.Equal(t, "app-sbom", res.Base)
	assert.Len(t, res.Edges, 6)
	assert.Nil(t, res.Document)

	assert.Equal(t, filepath.Join(out, "app-sbom_astra_catalog.csv"), res.Outputs.Catalog)
	assert.Equal(t, filepath.Join(out, "app-sbom_graph.json"), res.Outputs.Graph)
	assert.Empty(t, res.Outputs.Document)

	edges, err := catalog.ReadFile(res.Outputs.Catalog)
	require.NoError(t, err)
	assert.Equal(t, res.Edges, edges)

	g, err := graph.ReadFile(res.Outputs.Graph)
	require.NoError(t, err)
	assert.Len(t, g.Links, len(res.Edges), "sbom graphs keep one link per edge")

	assert.Equal(t, res.Edges, sink.files["testdata/batch/app-sbom.json"])
	assert.Equal(t, 1.0, counterValue(t, reg.TranslationsTotal.WithLabelValues("cyclonedx", "success")))
}

func TestTranslateFileBuildinfo(t *testing.T) {
	tr, _, out := newTestTranslator(t, WithCompress(true))

	res, err := tr.TranslateFile(context.Background(), "testdata/batch/hello_2.10-3_amd64.buildinfo", "")
	require.NoError(t, err)
	require.NotNil(t, res.Document)
	assert.Equal(t, KindBuildinfo, res.Kind)
	assert.Equal(t, filepath.Join(out, "hello_2.10-3_amd64_graph.json.sz"), res.Outputs.Graph)
	assert.Equal(t, filepath.Join(out, "hello_2.10-3_amd64.json"), res.Outputs.Document)

	raw, err := os.ReadFile(res.Outputs.Graph)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "\xff\x06\x00\x00sNaPpY"))

	g, err := graph.ReadFile(res.Outputs.Graph)
	require.NoError(t, err)
	assert.NoError(t, g.Validate(), "buildinfo graphs are deduplicated")

	doc, err := os.ReadFile(res.Outputs.Document)
	require.NoError(t, err)
	assert.Contains(t, string(doc), `"build-hello@2.10-3"`)
}

func TestRemoveOutputs(t *testing.T) {
	tr, _, out := newTestTranslator(t)
	res, err := tr.TranslateFile(context.Background(), "testdata/batch/hello_2.10-3_amd64.buildinfo", "")
	require.NoError(t, err)

	removed, err := tr.RemoveOutputs(res.Base)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{res.Outputs.Catalog, res.Outputs.Graph, res.Outputs.Document}, removed)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)

	removed, err = tr.RemoveOutputs(res.Base)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestTranslateErrors(t *testing.T) {
	tr, reg, _ := newTestTranslator(t)
	ctx := context.Background()

	_, err := tr.TranslateFile(ctx, "testdata/batch/missing.json", "")
	var te *TranslateError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "fetch", te.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = tr.TranslateFile(ctx, "testdata/batch/broken.json", "")
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "parse", te.Op)
	assert.Equal(t, KindCycloneDX, te.Kind)
	assert.Contains(t, err.Error(), "broken.json")
	assert.Equal(t, 1.0, counterValue(t, reg.TranslationsTotal.WithLabelValues("cyclonedx", "error")))

	_, err = tr.Translate(ctx, "x.buildinfo", []byte("Version: 1\n"), "")
	assert.ErrorIs(t, err, buildinfo.ErrMissingField)

	_, err = tr.Translate(ctx, "x", []byte("data"), Kind("rpm"))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestTranslateHonoursKindOverride(t *testing.T) {
	tr, _, _ := newTestTranslator(t)
	data, err := os.ReadFile("testdata/batch/app.spdx")
	require.NoError(t, err)

	res, err := tr.Translate(context.Background(), "upload", data, KindSPDX)
	require.NoError(t, err)
	assert.Equal(t, KindSPDX, res.Kind)
	assert.NotEmpty(t, res.Edges)
}

func TestTranslateCancelled(t *testing.T) {
	tr, _, _ := newTestTranslator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tr.Translate(ctx, "a.json", []byte(`{"bomFormat":"CycloneDX"}`), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSinkFailure(t *testing.T) {
	boom := errors.New("db down")
	tr, _, _ := newTestTranslator(t, WithSink(&recordingSink{err: boom}))
	_, err := tr.TranslateFile(context.Background(), "testdata/batch/app-sbom.json", "")
	assert.ErrorIs(t, err, boom)

	var te *TranslateError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "sink", te.Op)
}

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("bad")
	assert.Equal(t, "parse spdx a.json: bad", NewError("parse").Kind(KindSPDX).Path("a.json").Cause(cause).Err().Error())
	assert.Equal(t, "fetch a.json: bad", NewError("fetch").Path("a.json").Cause(cause).Err().Error())
	assert.Equal(t, "detect: bad", NewError("detect").Cause(cause).Err().Error())
	assert.False(t, NewError("x").Cause(cause).Build().Is(nil))
}
