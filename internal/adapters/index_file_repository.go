package adapters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"pkgsource/internal/core"
	"pkgsource/internal/ports"
	"pkgsource/internal/shared"
	"pkgsource/internal/types"
)

// IndexFileRepository serves packages from a YAML index file or URL. The
// index is read on first use and cached for the lifetime of the repository.
// A failed read is not cached. Safe for concurrent use.
type IndexFileRepository struct {
	Path   string
	reader ports.IndexReaderPort

	mu     sync.Mutex
	cached *ArrayRepository
}

func NewIndexFileRepository(path string) *IndexFileRepository {
	return NewIndexFileRepositoryWithReader(path, NewIndexFileReader())
}

func NewIndexFileRepositoryWithReader(path string, reader ports.IndexReaderPort) *IndexFileRepository {
	return &IndexFileRepository{Path: path, reader: reader}
}

func (r *IndexFileRepository) Name() string {
	return "index repo (" + filepath.Base(r.Path) + ")"
}

func (r *IndexFileRepository) HasPackage(ctx context.Context, pkg types.Package) (bool, error) {
	repo, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	return repo.HasPackage(ctx, pkg)
}

// FindPackage falls back to the PEP 503 normalized name when the exact pip
// name is not indexed.
func (r *IndexFileRepository) FindPackage(ctx context.Context, name string, constraints []types.Constraint) (types.Package, bool, error) {
	repo, err := r.load(ctx)
	if err != nil {
		return types.Package{}, false, err
	}
	pkg, ok, err := repo.FindPackage(ctx, name, constraints)
	if err != nil || ok {
		return pkg, ok, err
	}
	if normalized := shared.NormalizePipName(name); normalized != name {
		return repo.FindPackage(ctx, normalized, constraints)
	}
	return types.Package{}, false, nil
}

func (r *IndexFileRepository) FindPackages(ctx context.Context, name string, constraints []types.Constraint) ([]types.Package, error) {
	repo, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	packages, err := repo.FindPackages(ctx, name, constraints)
	if err != nil || len(packages) > 0 {
		return packages, err
	}
	if normalized := shared.NormalizePipName(name); normalized != name {
		return repo.FindPackages(ctx, normalized, constraints)
	}
	return nil, nil
}

func (r *IndexFileRepository) LoadPackages(ctx context.Context, request types.LoadRequest) (types.LoadResult, error) {
	repo, err := r.load(ctx)
	if err != nil {
		return types.LoadResult{}, err
	}
	return repo.LoadPackages(ctx, request)
}

func (r *IndexFileRepository) Search(ctx context.Context, query string, mode types.SearchMode, pkgType types.DependencyType) ([]types.SearchResult, error) {
	repo, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return repo.Search(ctx, query, mode, pkgType)
}

func (r *IndexFileRepository) GetPackages(ctx context.Context) ([]types.Package, error) {
	repo, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return repo.GetPackages(ctx)
}

func (r *IndexFileRepository) GetProviders(ctx context.Context, packageName string) ([]types.ProviderInfo, error) {
	repo, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return repo.GetProviders(ctx, packageName)
}

func (r *IndexFileRepository) Count(ctx context.Context) (int, error) {
	repo, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	return repo.Count(ctx)
}

func (r *IndexFileRepository) load(ctx context.Context) (*ArrayRepository, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cached != nil {
		return r.cached, nil
	}
	index, err := r.reader.Read(ctx, r.Path)
	if err != nil {
		return nil, err
	}
	packages, err := indexPackages(index)
	if err != nil {
		return nil, err
	}
	repo, err := NewArrayRepository(r.Name(), packages...)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("path", r.Path).
		Int("packages", len(packages)).
		Msg("index repository loaded")
	r.cached = repo
	return repo, nil
}

// OpenWritableIndex reads an index file into a standalone in-memory
// repository that can be modified and written back.
func OpenWritableIndex(ctx context.Context, reader ports.IndexReaderPort, path string) (*ArrayRepository, error) {
	index, err := reader.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	packages, err := indexPackages(index)
	if err != nil {
		return nil, err
	}
	label := index.Name
	if strings.TrimSpace(label) == "" {
		label = "writable repo (" + filepath.Base(path) + ")"
	}
	return NewArrayRepository(label, packages...)
}

// indexPackages returns the explicit package list followed by packages
// expanded from the legacy apt/pip version maps, sorted by name and
// version. Duplicate versions collapse.
func indexPackages(index types.IndexFile) ([]types.Package, error) {
	packages := make([]types.Package, 0, len(index.Packages))
	seen := map[string]struct{}{}
	for _, pkg := range index.Packages {
		if strings.TrimSpace(pkg.Name) == "" {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("index package has empty name")
		}
		if strings.TrimSpace(pkg.Version) == "" {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("index package %s has empty version", pkg.Name))
		}
		if _, ok := seen[pkg.UniqueName()]; ok {
			continue
		}
		seen[pkg.UniqueName()] = struct{}{}
		packages = append(packages, pkg)
	}
	for _, depType := range []types.DependencyType{types.DependencyTypeApt, types.DependencyTypePip} {
		versionMap := index.Apt
		if depType == types.DependencyTypePip {
			versionMap = index.Pip
		}
		names := make([]string, 0, len(versionMap))
		for name := range versionMap {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			versions := core.SortVersions(depType, uniqueStrings(versionMap[name]))
			for _, version := range versions {
				if strings.TrimSpace(version) == "" {
					continue
				}
				pkg := types.Package{Name: name, Version: version, Type: depType}
				if _, ok := seen[pkg.UniqueName()]; ok {
					continue
				}
				seen[pkg.UniqueName()] = struct{}{}
				packages = append(packages, pkg)
			}
		}
	}
	return packages, nil
}

func uniqueStrings(values []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

// IndexFileReader reads YAML index files.
type IndexFileReader struct{}

func NewIndexFileReader() IndexFileReader {
	return IndexFileReader{}
}

func (IndexFileReader) Read(_ context.Context, path string) (types.IndexFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.IndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("index file not found: " + path).
			WithCause(err)
	}
	var index types.IndexFile
	if err := yaml.Unmarshal(data, &index); err != nil {
		return types.IndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid index format: " + path).
			WithCause(err)
	}
	return index, nil
}

// IndexFileWriter writes YAML index files.
type IndexFileWriter struct{}

func NewIndexFileWriter() IndexFileWriter {
	return IndexFileWriter{}
}

func (IndexFileWriter) Write(path string, index types.IndexFile) error {
	if strings.TrimSpace(path) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output path is required")
	}
	data, err := yaml.Marshal(index)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal index").
			WithCause(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create index directory").
			WithCause(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write index").
			WithCause(err)
	}
	return nil
}

var (
	_ ports.Repository      = (*IndexFileRepository)(nil)
	_ ports.IndexReaderPort = IndexFileReader{}
	_ ports.IndexWriterPort = IndexFileWriter{}
)
