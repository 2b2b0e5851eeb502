package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"pkgsource/internal/core"
	"pkgsource/internal/ports"
	"pkgsource/internal/types"
)

const sqlitePrefix = "sqlite:"

// packageRow is the database form of a package. Rows are returned in
// insertion order.
type packageRow struct {
	ID          uint           `gorm:"primaryKey"`
	Type        string         `gorm:"uniqueIndex:idx_package_identity;not null"`
	Name        string         `gorm:"uniqueIndex:idx_package_identity;index;not null"`
	Version     string         `gorm:"uniqueIndex:idx_package_identity;not null"`
	Stability   string         `gorm:"not null"`
	Description string
	Provides    datatypes.JSON `gorm:"not null"`
	Depends     datatypes.JSON `gorm:"not null"`
}

func (packageRow) TableName() string {
	return "packages"
}

// SQLRepository is a persistent, writable repository stored in SQLite or
// PostgreSQL. Changes are committed immediately.
type SQLRepository struct {
	label string
	db    *gorm.DB
}

// IsSQLRepository reports whether location names a database rather than an
// index file.
func IsSQLRepository(location string) bool {
	lower := strings.ToLower(strings.TrimSpace(location))
	return strings.HasPrefix(lower, sqlitePrefix) ||
		strings.HasPrefix(lower, "postgres://") ||
		strings.HasPrefix(lower, "postgresql://")
}

// OpenSQLRepository connects to location and creates the package table if
// needed. Locations are "sqlite:<path>" or a postgres:// DSN.
func OpenSQLRepository(ctx context.Context, location string) (*SQLRepository, error) {
	location = strings.TrimSpace(location)
	var dialector gorm.Dialector
	var label string
	switch {
	case strings.HasPrefix(strings.ToLower(location), sqlitePrefix):
		path := strings.TrimSpace(location[len(sqlitePrefix):])
		if path == "" {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("sqlite path is required")
		}
		dialector = sqlite.Open(path)
		label = "sql repo (" + filepath.Base(path) + ")"
	case IsSQLRepository(location):
		dialector = postgres.Open(location)
		label = "sql repo (postgres)"
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported database location: " + location)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open database").
			WithCause(err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&packageRow{}); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to migrate package table").
			WithCause(err)
	}
	log.Debug().Str("repository", label).Msg("database repository opened")
	return &SQLRepository{label: label, db: db}, nil
}

func (r *SQLRepository) Name() string {
	return r.label
}

// Close releases the underlying connection pool.
func (r *SQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *SQLRepository) AddPackage(ctx context.Context, pkg types.Package) error {
	if strings.TrimSpace(pkg.Name) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package name must be set")
	}
	if pkg.Type != types.DependencyTypeApt && pkg.Type != types.DependencyTypePip {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("package %s has invalid type '%s'", pkg.Name, pkg.Type))
	}
	if pkg.Stability == "" {
		pkg.Stability = core.VersionStability(pkg.Version)
	}
	exists, err := r.HasPackage(ctx, pkg)
	if err != nil {
		return err
	}
	if exists {
		return errbuilder.New().
			WithCode(errbuilder.CodeAlreadyExists).
			WithMsg(fmt.Sprintf("package already present: %s", pkg.UniqueName()))
	}
	row, err := toRow(pkg)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return dbError("failed to insert package", err)
	}
	return nil
}

func (r *SQLRepository) RemovePackage(ctx context.Context, pkg types.Package) error {
	err := r.db.WithContext(ctx).
		Where("type = ? AND name = ? AND version = ?", string(pkg.Type), pkg.Name, pkg.Version).
		Delete(&packageRow{}).Error
	if err != nil {
		return dbError("failed to delete package", err)
	}
	return nil
}

func (r *SQLRepository) HasPackage(ctx context.Context, pkg types.Package) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&packageRow{}).
		Where("type = ? AND name = ? AND version = ?", string(pkg.Type), pkg.Name, pkg.Version).
		Count(&count).Error
	if err != nil {
		return false, dbError("failed to query package", err)
	}
	return count > 0, nil
}

func (r *SQLRepository) FindPackage(ctx context.Context, name string, constraints []types.Constraint) (types.Package, bool, error) {
	packages, err := r.FindPackages(ctx, name, constraints)
	if err != nil || len(packages) == 0 {
		return types.Package{}, false, err
	}
	return packages[0], true, nil
}

func (r *SQLRepository) FindPackages(ctx context.Context, name string, constraints []types.Constraint) ([]types.Package, error) {
	snapshot, err := r.snapshot(ctx, r.db.Where("name = ?", name))
	if err != nil {
		return nil, err
	}
	return snapshot.FindPackages(ctx, name, constraints)
}

func (r *SQLRepository) LoadPackages(ctx context.Context, request types.LoadRequest) (types.LoadResult, error) {
	names := make([]string, 0, len(request.Packages))
	for name := range request.Packages {
		names = append(names, name)
	}
	if len(names) == 0 {
		return types.LoadResult{}, nil
	}
	snapshot, err := r.snapshot(ctx, r.db.Where("name IN ?", names))
	if err != nil {
		return types.LoadResult{}, err
	}
	return snapshot.LoadPackages(ctx, request)
}

func (r *SQLRepository) Search(ctx context.Context, query string, mode types.SearchMode, pkgType types.DependencyType) ([]types.SearchResult, error) {
	scope := r.db
	if pkgType != "" {
		scope = scope.Where("type = ?", string(pkgType))
	}
	snapshot, err := r.snapshot(ctx, scope)
	if err != nil {
		return nil, err
	}
	return snapshot.Search(ctx, query, mode, pkgType)
}

func (r *SQLRepository) GetPackages(ctx context.Context) ([]types.Package, error) {
	snapshot, err := r.snapshot(ctx, r.db)
	if err != nil {
		return nil, err
	}
	return snapshot.GetPackages(ctx)
}

func (r *SQLRepository) GetProviders(ctx context.Context, packageName string) ([]types.ProviderInfo, error) {
	snapshot, err := r.snapshot(ctx, r.db)
	if err != nil {
		return nil, err
	}
	return snapshot.GetProviders(ctx, packageName)
}

func (r *SQLRepository) Count(ctx context.Context) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&packageRow{}).Count(&count).Error; err != nil {
		return 0, dbError("failed to count packages", err)
	}
	return int(count), nil
}

// snapshot loads the rows selected by scope into an in-memory repository so
// that matching follows the same rules as every other repository.
func (r *SQLRepository) snapshot(ctx context.Context, scope *gorm.DB) (*ArrayRepository, error) {
	var rows []packageRow
	if err := scope.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, dbError("failed to query packages", err)
	}
	packages := make([]types.Package, 0, len(rows))
	for _, row := range rows {
		pkg, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}
	return NewArrayRepository(r.label, packages...)
}

func toRow(pkg types.Package) (packageRow, error) {
	provides, err := encodeList(pkg.Provides)
	if err != nil {
		return packageRow{}, err
	}
	depends, err := encodeList(pkg.Depends)
	if err != nil {
		return packageRow{}, err
	}
	return packageRow{
		Type:        string(pkg.Type),
		Name:        pkg.Name,
		Version:     pkg.Version,
		Stability:   string(pkg.Stability),
		Description: pkg.Description,
		Provides:    provides,
		Depends:     depends,
	}, nil
}

func fromRow(row packageRow) (types.Package, error) {
	provides, err := decodeList(row.Provides)
	if err != nil {
		return types.Package{}, err
	}
	depends, err := decodeList(row.Depends)
	if err != nil {
		return types.Package{}, err
	}
	return types.Package{
		Name:        row.Name,
		Version:     row.Version,
		Type:        types.DependencyType(row.Type),
		Stability:   types.Stability(row.Stability),
		Description: row.Description,
		Provides:    provides,
		Depends:     depends,
	}, nil
}

// encodeList always yields a JSON array so the column is never NULL.
func encodeList(values []string) (datatypes.JSON, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, dbError("failed to encode package list", err)
	}
	return datatypes.JSON(data), nil
}

func decodeList(data datatypes.JSON) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, dbError("failed to decode package list", err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

func dbError(msg string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(msg).
		WithCause(err)
}

var _ ports.Writable = (*SQLRepository)(nil)
