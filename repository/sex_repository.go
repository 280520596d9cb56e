package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	sq "github.com/Masterminds/squirrel"
)

// SexRepository reads the sex reference table through squirrel
type SexRepository struct {
	DB      *sql.DB
	Builder sq.StatementBuilderType
}

func NewSexRepository(db *sql.DB, builder sq.StatementBuilderType) *SexRepository {
	return &SexRepository{DB: db, Builder: builder}
}

// Options returns every sex row ordered by name, ids rendered as text
func (r *SexRepository) Options(ctx context.Context) ([]SexOption, error) {
	sqlStr, args, err := r.Builder.Select("id", "name").
		From("sex").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for sex options: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute sex options query: %w", err)
	}
	defer rows.Close()

	options := []SexOption{}
	for rows.Next() {
		var id uint64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan sex row: %w", err)
		}
		options = append(options, SexOption{ID: strconv.FormatUint(id, 10), Name: name})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sex rows: %w", err)
	}
	return options, nil
}

// Exists reports whether a sex row with the given id is present
func (r *SexRepository) Exists(ctx context.Context, id uint) (bool, error) {
	sqlStr, args, err := r.Builder.Select("COUNT(*)").
		From("sex").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build SQL for sex lookup: %w", err)
	}

	var count int64
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to look up sex ID %d: %w", id, err)
	}
	return count > 0, nil
}
