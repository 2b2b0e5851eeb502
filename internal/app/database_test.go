package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkgsource/internal/adapters"
)

func exportTestDatabase(t *testing.T, repos testRepos) string {
	t.Helper()
	location := "sqlite:" + filepath.Join(t.TempDir(), "packages.db")
	result, err := NewService().Export(context.Background(), ExportRequest{
		Repos:  []string{repos.main, repos.extra},
		Output: location,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Count)
	assert.Equal(t, location, result.OutputPath)
	return location
}

func databaseCount(t *testing.T, location string) int {
	t.Helper()
	repo, err := adapters.OpenSQLRepository(context.Background(), location)
	require.NoError(t, err)
	defer repo.Close()
	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	return count
}

func TestExportToDatabaseSkipsDuplicates(t *testing.T) {
	repos := writeTestRepos(t)
	location := exportTestDatabase(t, repos)
	assert.Equal(t, 5, databaseCount(t, location))

	result, err := NewService().Export(context.Background(), ExportRequest{
		Repos:  []string{repos.extra},
		Output: location,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
	assert.Equal(t, 5, databaseCount(t, location))
}

func TestQueryDatabaseRepository(t *testing.T) {
	repos := writeTestRepos(t)
	location := exportTestDatabase(t, repos)
	service := NewService()

	result, err := service.Show(context.Background(), ShowRequest{Repos: []string{location}, Requirement: "libfoo>=2.5"})
	require.NoError(t, err)
	require.Len(t, result.Packages, 1)
	assert.Equal(t, "3.0", result.Packages[0].Version)

	stats, err := service.Stats(context.Background(), StatsRequest{Repos: []string{location, repos.main}})
	require.NoError(t, err)
	want := []MemberStats{
		{Name: "sql repo (packages.db)", Count: 5},
		{Name: "index repo (main.yaml)", Count: 3},
	}
	if diff := cmp.Diff(want, stats.Members); diff != "" {
		t.Fatalf("unexpected members (-want +got):\n%s", diff)
	}
}

func TestRemoveFromDatabaseRepository(t *testing.T) {
	repos := writeTestRepos(t)
	location := exportTestDatabase(t, repos)
	before, err := os.ReadFile(repos.main)
	require.NoError(t, err)

	result, err := NewService().Remove(context.Background(), RemoveRequest{
		Repos:       []string{location},
		ReadOnly:    []string{repos.main},
		Requirement: "libfoo",
		Output:      filepath.Join(t.TempDir(), "remaining.yaml"),
	})
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"1.0", "2.0~rc1", "3.0"}, versions(result.Removed)); diff != "" {
		t.Fatalf("unexpected removed versions (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, result.MembersMutated)
	assert.Equal(t, 2, result.Remaining)
	assert.Equal(t, 2, databaseCount(t, location))

	after, err := os.ReadFile(repos.main)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestRemoveLeavesReadOnlyDatabaseUntouched(t *testing.T) {
	repos := writeTestRepos(t)
	location := exportTestDatabase(t, repos)

	result, err := NewService().Remove(context.Background(), RemoveRequest{
		Repos:       []string{repos.extra},
		ReadOnly:    []string{location},
		Requirement: "libfoo",
		Output:      filepath.Join(t.TempDir(), "remaining.yaml"),
	})
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"1.0", "3.0"}, versions(result.Removed)); diff != "" {
		t.Fatalf("unexpected removed versions (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, result.Remaining)
	assert.Equal(t, 5, databaseCount(t, location))
}

func TestComposeReturnsDatabaseHandles(t *testing.T) {
	repos := writeTestRepos(t)
	location := exportTestDatabase(t, repos)
	ctx := context.Background()

	composite, opened, err := NewService().compose(ctx, []string{location, repos.main, location + "|only=apt:*"})
	require.NoError(t, err)
	require.Len(t, opened, 2)

	count, err := composite.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5+3+4, count)

	opened.Close()
	_, err = composite.Repositories()[0].Count(ctx)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInternal, errbuilder.CodeOf(err))
}

func TestComposeWithoutDatabasesHasNoHandles(t *testing.T) {
	repos := writeTestRepos(t)
	_, opened, err := NewService().compose(context.Background(), []string{repos.main, repos.dir})
	require.NoError(t, err)
	assert.Empty(t, opened)
}

func TestComposeFailureReturnsNoHandles(t *testing.T) {
	repos := writeTestRepos(t)
	location := exportTestDatabase(t, repos)
	_, opened, err := NewService().compose(context.Background(), []string{location, repos.main + "|bogus=1"})
	require.Error(t, err)
	assert.Nil(t, opened)
}
