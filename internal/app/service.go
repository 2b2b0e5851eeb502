package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pkgsource/internal/adapters"
	"pkgsource/internal/core"
	"pkgsource/internal/policies"
	"pkgsource/internal/ports"
)

type Service struct {
	IndexReader  ports.IndexReaderPort
	RemoteReader ports.IndexReaderPort
	IndexWriter  ports.IndexWriterPort
	Concurrency  int
}

func NewService() Service {
	return Service{
		IndexReader:  adapters.NewIndexFileReader(),
		RemoteReader: adapters.NewRemoteIndexReader(adapters.RemoteIndexConfig{}),
		IndexWriter:  adapters.NewIndexFileWriter(),
	}
}

// readerFor picks the reader for a file path or an http(s) URL.
func (s Service) readerFor(location string) ports.IndexReaderPort {
	if adapters.IsRemoteIndex(location) {
		return s.RemoteReader
	}
	return s.IndexReader
}

// handles collects the connections opened while composing repositories.
type handles []io.Closer

// Close releases every handle. Failures are logged.
func (h handles) Close() {
	for _, closer := range h {
		if err := closer.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close repository")
		}
	}
}

// compose opens every entry as a repository. A directory becomes a nested
// composite of the index files it contains, which is flattened into the
// result. Database entries stay mutable; callers that must not modify them
// wrap them with adapters.ReadOnly. The caller must Close the returned
// handles once done with the composite.
func (s Service) compose(ctx context.Context, paths []string) (*core.CompositeRepository, handles, error) {
	if len(paths) == 0 {
		return nil, nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("at least one repository is required")
	}
	composite := core.NewCompositeRepositoryWithOptions(core.CompositeOptions{Concurrency: s.Concurrency})
	var opened handles
	for _, path := range paths {
		repo, closer, err := s.openRepository(ctx, strings.TrimSpace(path))
		if err != nil {
			opened.Close()
			return nil, nil, err
		}
		if closer != nil {
			opened = append(opened, closer)
		}
		composite.Add(repo)
	}
	log.Debug().
		Str("repository", composite.Name()).
		Int("members", len(composite.Repositories())).
		Msg("repositories composed")
	return composite, opened, nil
}

// openRepository resolves a repository entry. Entries may carry filters,
// see adapters.ParseRepoSpec. The closer is nil unless a connection was
// opened.
func (s Service) openRepository(ctx context.Context, entry string) (ports.Repository, io.Closer, error) {
	spec, err := adapters.ParseRepoSpec(entry)
	if err != nil {
		return nil, nil, err
	}
	repo, closer, err := s.openPath(ctx, spec.Path)
	if err != nil {
		return nil, nil, err
	}
	if len(spec.Only) == 0 && len(spec.Exclude) == 0 {
		return repo, closer, nil
	}
	filter, err := policies.NewPackageFilter(spec.Only, spec.Exclude)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, nil, err
	}
	return adapters.NewFilterRepository(repo, filter), closer, nil
}

func (s Service) openPath(ctx context.Context, path string) (ports.Repository, io.Closer, error) {
	if adapters.IsSQLRepository(path) {
		repo, err := adapters.OpenSQLRepository(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	}
	if adapters.IsRemoteIndex(path) {
		return adapters.NewIndexFileRepositoryWithReader(path, s.RemoteReader), nil, nil
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return adapters.NewIndexFileRepositoryWithReader(path, s.IndexReader), nil, nil
	}
	files, err := indexFilesIn(path)
	if err != nil {
		return nil, nil, err
	}
	members := make([]ports.Repository, 0, len(files))
	for _, file := range files {
		members = append(members, adapters.NewIndexFileRepositoryWithReader(file, s.IndexReader))
	}
	return core.NewCompositeRepository(members...), nil, nil
}

func indexFilesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to read repository directory: " + dir).
			WithCause(err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
