// Package loader reads test cases from YAML files. A file may hold several
// test cases as separate YAML documents.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"proctor/internal/action"
	"proctor/internal/function"
	"proctor/internal/testcase"
	"proctor/internal/testcontext"
	"proctor/internal/variable"
	"proctor/pkg/logging"
)

const subsystem = "Loader"

// Options carry what loaded test cases are built with.
type Options struct {
	Globals     *testcontext.GlobalVariables
	Registry    *function.Registry
	Endpoints   action.EndpointLookup
	DataSources action.DataSourceLookup
}

// Load reads every test case below path (a file or a directory) and builds
// them. Test cases come back ordered by file path, then document order.
func Load(path string, opts Options) ([]*testcase.TestCase, error) {
	docs, err := LoadDocuments(path)
	if err != nil {
		return nil, err
	}

	cases := make([]*testcase.TestCase, 0, len(docs))
	for _, doc := range docs {
		tc, err := doc.Build(opts)
		if err != nil {
			return nil, fmt.Errorf("invalid test case %s in %s: %w", doc.Name, doc.Source, err)
		}
		cases = append(cases, tc)
	}
	return cases, nil
}

// LoadDocuments reads and validates the test case documents below path
// without building them.
func LoadDocuments(path string) ([]Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("test case path does not exist: %s", path)
		}
		return nil, fmt.Errorf("failed to stat test case path: %w", err)
	}

	var files []string
	if info.IsDir() {
		files, err = findFiles(path)
		if err != nil {
			return nil, err
		}
	} else {
		files = []string{path}
	}

	perFile := make([][]Document, len(files))
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, file := range files {
		g.Go(func() error {
			docs, err := LoadFile(file)
			if err != nil {
				return err
			}
			perFile[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var docs []Document
	seen := make(map[string]string)
	for _, fileDocs := range perFile {
		for _, doc := range fileDocs {
			if other, ok := seen[doc.Name]; ok {
				return nil, fmt.Errorf("duplicate test case name %s in %s and %s", doc.Name, other, doc.Source)
			}
			seen[doc.Name] = doc.Source
			docs = append(docs, doc)
		}
	}

	logging.Debug(subsystem, "Loaded %d test cases from %d files below %s", len(docs), len(files), path)
	return docs, nil
}

// LoadFile reads all test case documents of a single YAML file.
func LoadFile(path string) ([]Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)

	var docs []Document
	for index := 1; ; index++ {
		var doc Document
		err := decoder.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML in %s: %w", path, err)
		}
		doc.Source = path
		if err := doc.Validate(); err != nil {
			return nil, fmt.Errorf("invalid test case %d in %s: %w", index, path, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func findFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsYAMLFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// IsYAMLFile checks if a file has a YAML extension
func IsYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Validate checks required fields and action definitions.
func (d Document) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("test case name is required")
	}
	if _, ok := testcase.ParseStatus(d.Status); !ok {
		return fmt.Errorf("unknown status %s", d.Status)
	}
	if _, err := parseDate(d.CreationDate); err != nil {
		return fmt.Errorf("creationDate: %w", err)
	}
	if _, err := parseDate(d.LastUpdatedOn); err != nil {
		return fmt.Errorf("lastUpdatedOn: %w", err)
	}
	if len(d.Actions) == 0 {
		return fmt.Errorf("test case must have at least one action")
	}
	for _, v := range d.Variables {
		if strings.TrimSpace(variable.CutOffVariablesPrefix(v.Name)) == "" {
			return fmt.Errorf("variable names must not be empty")
		}
	}

	if _, err := action.BuildAll(d.Actions, action.BuildOptions{}); err != nil {
		return err
	}
	if _, err := action.BuildAll(d.Finally, action.BuildOptions{}); err != nil {
		return fmt.Errorf("finally: %w", err)
	}
	return nil
}

// Build creates the test case.
func (d Document) Build(opts Options) (*testcase.TestCase, error) {
	buildOpts := action.BuildOptions{
		Endpoints:   opts.Endpoints,
		DataSources: opts.DataSources,
		BaseDir:     filepath.Dir(d.Source),
	}

	actions, err := action.BuildAll(d.Actions, buildOpts)
	if err != nil {
		return nil, err
	}
	finally, err := action.BuildAll(d.Finally, buildOpts)
	if err != nil {
		return nil, fmt.Errorf("finally: %w", err)
	}

	status, _ := testcase.ParseStatus(d.Status)
	created, _ := parseDate(d.CreationDate)
	updated, _ := parseDate(d.LastUpdatedOn)

	tc := testcase.New(d.Name, opts.Globals, opts.Registry)
	tc.Description = d.Description
	tc.Source = d.Source
	tc.Meta = testcase.MetaInfo{
		Author:        d.Author,
		Status:        status,
		CreationDate:  created,
		LastUpdatedBy: d.LastUpdatedBy,
		LastUpdatedOn: updated,
	}
	tc.Variables = append([]testcase.Variable(nil), d.Variables...)
	tc.Actions = actions
	tc.Finally = finally
	return tc, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected 2006-01-02 or RFC 3339", s)
	}
	return t, nil
}
