package persistent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vitrina-app/media-service/internal/entity"
	"github.com/vitrina-app/media-service/pkg/postgres"
	"github.com/vitrina-app/media-service/pkg/types/errs"
)

const (
	// Table
	assetsTable = "image_assets"

	// Columns
	assetIDColumn          = "id"
	assetBucketColumn      = "bucket"
	assetKeyColumn         = "key"
	assetMimeColumn        = "mime"
	assetWidthColumn       = "width"
	assetHeightColumn      = "height"
	assetBytesColumn       = "bytes"
	assetFormatColumn      = "format"
	assetPlaceholderColumn = "placeholder_hash"
	assetAvgColorColumn    = "average_color"
	assetAltTextColumn     = "alt_text"
	assetDerivativesColumn = "derivatives"
	assetCreatedAtColumn   = "created_at"
)

// UsageRelation names one external table/column pair that may hold a
// reference to an asset id. The schema itself is owned by the shop
// service; this repo only counts rows.
type UsageRelation struct {
	Table  string
	Column string
}

// ParseUsageRelations turns config "table:column" pairs into relations.
func ParseUsageRelations(pairs []string) ([]UsageRelation, error) {
	relations := make([]UsageRelation, 0, len(pairs))

	for _, pair := range pairs {
		table, column, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || table == "" || column == "" {
			return nil, fmt.Errorf("invalid usage relation %q, want table:column", pair)
		}
		relations = append(relations, UsageRelation{Table: table, Column: column})
	}

	return relations, nil
}

type AssetRepo struct {
	*postgres.Postgres
	relations []UsageRelation
}

func NewAssetRepo(pg *postgres.Postgres, relations []UsageRelation) *AssetRepo {
	return &AssetRepo{pg, relations}
}

func (r *AssetRepo) Create(ctx context.Context, asset *entity.ImageAsset) error {
	manifest, err := json.Marshal(asset.Derivatives)
	if err != nil {
		return fmt.Errorf("AssetRepo - Create - json.Marshal: %w", err)
	}

	sql, args, err := r.Builder.
		Insert(assetsTable).
		Columns(
			assetIDColumn,
			assetBucketColumn,
			assetKeyColumn,
			assetMimeColumn,
			assetWidthColumn,
			assetHeightColumn,
			assetBytesColumn,
			assetFormatColumn,
			assetPlaceholderColumn,
			assetAvgColorColumn,
			assetAltTextColumn,
			assetDerivativesColumn,
			assetCreatedAtColumn,
		).
		Values(
			asset.ID,
			asset.Bucket,
			asset.Key,
			asset.MIME,
			asset.Width,
			asset.Height,
			asset.Bytes,
			asset.Format,
			asset.PlaceholderHash,
			asset.AverageColor,
			asset.AltText,
			manifest,
			asset.CreatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("AssetRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("AssetRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *AssetRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.ImageAsset, error) {
	sql, args, err := r.Builder.
		Select(
			assetIDColumn,
			assetBucketColumn,
			assetKeyColumn,
			assetMimeColumn,
			assetWidthColumn,
			assetHeightColumn,
			assetBytesColumn,
			assetFormatColumn,
			assetPlaceholderColumn,
			assetAvgColorColumn,
			assetAltTextColumn,
			assetDerivativesColumn,
			assetCreatedAtColumn,
		).
		From(assetsTable).
		Where(squirrel.Eq{assetIDColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("AssetRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var asset entity.ImageAsset
	var manifest []byte

	err = executor.QueryRow(ctx, sql, args...).Scan(
		&asset.ID,
		&asset.Bucket,
		&asset.Key,
		&asset.MIME,
		&asset.Width,
		&asset.Height,
		&asset.Bytes,
		&asset.Format,
		&asset.PlaceholderHash,
		&asset.AverageColor,
		&asset.AltText,
		&manifest,
		&asset.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("AssetRepo - GetByID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("AssetRepo - GetByID - executor.QueryRow: %w", err)
	}

	if err := json.Unmarshal(manifest, &asset.Derivatives); err != nil {
		return nil, fmt.Errorf("AssetRepo - GetByID - json.Unmarshal: %w", err)
	}

	return &asset, nil
}

func (r *AssetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.Builder.
		Delete(assetsTable).
		Where(squirrel.Eq{assetIDColumn: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("AssetRepo - Delete - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("AssetRepo - Delete - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("AssetRepo - Delete: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *AssetRepo) UsageCounts(ctx context.Context, id uuid.UUID) (map[string]int, error) {
	executor := r.GetExecutor(ctx)
	usage := make(map[string]int, len(r.relations))

	for _, rel := range r.relations {
		sql, args, err := r.Builder.
			Select("count(*)").
			From(rel.Table).
			Where(squirrel.Eq{rel.Column: id}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("AssetRepo - UsageCounts - r.Builder.ToSql: %w", err)
		}

		var count int
		if err := executor.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
			return nil, fmt.Errorf("AssetRepo - UsageCounts - executor.QueryRow(%s): %w", rel.Table, err)
		}

		if count > 0 {
			usage[rel.Table] = count
		}
	}

	return usage, nil
}
