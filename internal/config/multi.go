package config

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vk/bayesgrid/internal/ctxlog"
	"github.com/vk/bayesgrid/internal/fsutil"
)

// MultiLoader dispatches files to format loaders by extension and merges
// the results in discovery order.
type MultiLoader struct {
	byExt map[string]Loader
}

// NewMultiLoader maps file extensions (".hcl", ".yaml", ...) to loaders.
func NewMultiLoader(loaders map[string]Loader) *MultiLoader {
	byExt := make(map[string]Loader, len(loaders))
	for ext, l := range loaders {
		byExt[strings.ToLower(ext)] = l
	}
	return &MultiLoader{byExt: byExt}
}

// Extensions returns the registered extensions in sorted order.
func (l *MultiLoader) Extensions() []string {
	exts := make([]string, 0, len(l.byExt))
	for ext := range l.byExt {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Load implements Loader.
func (l *MultiLoader) Load(ctx context.Context, paths ...string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	files, err := fsutil.FindFiles(paths, l.Extensions()...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no network files (%s) found in %v", strings.Join(l.Extensions(), ", "), paths)
	}
	logger.Debug("Discovered network files.", "count", len(files))

	model := NewModel()
	for _, file := range files {
		loader := l.byExt[strings.ToLower(filepath.Ext(file))]
		m, err := loader.Load(ctx, file)
		if err != nil {
			return nil, err
		}
		if err := model.Merge(m); err != nil {
			return nil, fmt.Errorf("merging %s: %w", file, err)
		}
	}
	logger.Debug("Network files loaded.", "variables", len(model.Variables), "evidence", len(model.Evidence))
	return model, nil
}
