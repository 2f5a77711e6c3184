// Package validate checks request bodies against the embedded JSON schemas.
package validate

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/garnizeh/jobly/pkg/apperr"
	"github.com/qri-io/jsonschema"
)

// Schema names.
const (
	CompanyCreate = "companyCreate"
	CompanyUpdate = "companyUpdate"
	JobCreate     = "jobCreate"
	JobUpdate     = "jobUpdate"
	UserCreate    = "userCreate"
	UserUpdate    = "userUpdate"
	UserLogin     = "userLogin"
)

//go:embed schemas/*.json
var embedded embed.FS

// Loader loads and caches compiled JSON schemas.
type Loader struct {
	fsys  fs.FS
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewLoader compiles every schemas/*.json file of fsys. A nil fsys uses the
// schemas built into the binary.
func NewLoader(fsys fs.FS) (*Loader, error) {
	if fsys == nil {
		fsys = embedded
	}
	l := &Loader{fsys: fsys}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// GetSchema returns a compiled schema by name.
func (l *Loader) GetSchema(name string) (*jsonschema.Schema, bool) {
	l.mu.RLock()
	s, ok := l.cache[name]
	l.mu.RUnlock()

	return s, ok
}

// Names lists the loaded schema names, sorted.
func (l *Loader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.cache))
	for name := range l.cache {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Reload re-reads and compiles all schemas. The previous set stays in
// place when any schema fails to compile.
func (l *Loader) Reload() error {
	entries, err := fs.ReadDir(l.fsys, "schemas")
	if err != nil {
		return fmt.Errorf("load schemas: %w", err)
	}

	newCache := make(map[string]*jsonschema.Schema)
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		b, err := fs.ReadFile(l.fsys, path.Join("schemas", e.Name()))
		if err != nil {
			return fmt.Errorf("read schema %s: %w", name, err)
		}
		rs := &jsonschema.Schema{}
		if err := json.Unmarshal(b, rs); err != nil {
			return fmt.Errorf("compile schema %s: %w", name, err)
		}
		newCache[name] = rs
	}

	l.mu.Lock()
	l.cache = newCache
	l.mu.Unlock()
	return nil
}

// Validate checks body against the named schema. Violations come back as
// an apperr InvalidInput carrying the first problem found; a missing
// schema is a programming error and is returned as a plain error.
func (l *Loader) Validate(ctx context.Context, name string, body []byte) error {
	s, ok := l.GetSchema(name)
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	if !json.Valid(body) {
		return apperr.InvalidInput("request body must be valid JSON")
	}

	kerrs, err := s.ValidateBytes(ctx, body)
	if err != nil {
		return apperr.InvalidInput("invalid request body: %v", err)
	}
	if len(kerrs) == 0 {
		return nil
	}

	first := kerrs[0]
	if first.PropertyPath == "" || first.PropertyPath == "/" {
		return apperr.InvalidInput("%s", first.Message)
	}
	field := strings.TrimPrefix(first.PropertyPath, "/")
	return &apperr.Error{
		Kind:    apperr.KindInvalidInput,
		Field:   field,
		Message: fmt.Sprintf("%s: %s", field, first.Message),
	}
}
