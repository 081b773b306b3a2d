package translate

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/logging"
)

// Failure is one input a directory translation could not handle.
type Failure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Report summarises a directory translation.
type Report struct {
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Results   []*Result `json:"-"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Scan lists the translatable files under dir. It skips the output
// directory when it is nested inside dir, and the "<base>.json" document
// written next to a sibling "<base>.buildinfo" when outputs share the
// input directory.
func (t *Translator) Scan(dir string) ([]string, error) {
	outAbs, _ := filepath.Abs(t.outDir)
	dirAbs, _ := filepath.Abs(dir)

	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if abs, _ := filepath.Abs(p); abs == outAbs && abs != dirAbs {
				return filepath.SkipDir
			}
			return nil
		}
		if Candidate(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, NewError("scan").Path(dir).Cause(err).Err()
	}
	files = dropDocuments(files)
	sort.Strings(files)
	return files, nil
}

// dropDocuments removes X.json when X.buildinfo sits in the same
// directory; that file is the buildinfo's own AStRA document.
func dropDocuments(files []string) []string {
	buildinfos := make(map[string]bool)
	for _, f := range files {
		if strings.EqualFold(filepath.Ext(f), ".buildinfo") {
			buildinfos[strings.TrimSuffix(f, filepath.Ext(f))] = true
		}
	}
	kept := files[:0]
	for _, f := range files {
		if strings.EqualFold(filepath.Ext(f), DocumentSuffix) && buildinfos[strings.TrimSuffix(f, filepath.Ext(f))] {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// claimOutputs assigns each output base name to the first file (in sorted
// order) that maps to it. Later files with the same base would overwrite
// its outputs and are returned as collisions.
func claimOutputs(files []string) (claimed []string, collisions []Failure) {
	owner := make(map[string]string, len(files))
	for _, f := range files {
		base := OutputBase(f)
		if prev, ok := owner[base]; ok {
			err := NewError("write").Path(f).
				Cause(fmt.Errorf("%w: %q already written from %s", ErrOutputCollision, base, prev)).Err()
			collisions = append(collisions, Failure{Path: f, Err: err.Error()})
			continue
		}
		owner[base] = f
		claimed = append(claimed, f)
	}
	return claimed, collisions
}

// TranslateDir translates every candidate file under dir with a bounded
// pool of workers. Per-file failures are logged and reported; only a
// failed walk or a cancelled context returns an error.
func (t *Translator) TranslateDir(ctx context.Context, dir string) (*Report, error) {
	files, err := t.Scan(dir)
	if err != nil {
		return nil, err
	}

	timer := logging.StartTimer(t.logger, "translate directory", logging.Path(dir), logging.Count(len(files)))
	report := &Report{Total: len(files)}
	files, collisions := claimOutputs(files)
	for _, c := range collisions {
		report.Failed++
		report.Failures = append(report.Failures, c)
		t.metrics.RecordBatchFile("error")
		t.logger.Warn("skipping input", logging.Path(c.Path), logging.String("error", c.Err))
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	for _, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := t.TranslateFile(gctx, file, "")

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				report.Failures = append(report.Failures, Failure{Path: file, Err: err.Error()})
				t.metrics.RecordBatchFile("error")
				t.logger.Warn("skipping input", logging.Path(file), logging.Error(err))
				return nil
			}
			report.Succeeded++
			report.Results = append(report.Results, res)
			t.metrics.RecordBatchFile("success")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		timer.EndError(err)
		return report, err
	}

	sort.Slice(report.Results, func(i, j int) bool { return report.Results[i].Name < report.Results[j].Name })
	sort.Slice(report.Failures, func(i, j int) bool { return report.Failures[i].Path < report.Failures[j].Path })
	timer.End(logging.Int("succeeded", report.Succeeded), logging.Int("failed", report.Failed))
	return report, nil
}
