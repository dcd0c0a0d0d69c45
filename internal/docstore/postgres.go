package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// postgresStore keeps every collection in a single documents table with
// a jsonb payload. Equality filters compile to data->>field matches and
// ordering to jsonb comparison on data->field, which sorts numbers
// numerically and strings lexically.
type postgresStore struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewPostgresStore(logger zerolog.Logger, pgPool *pgxpool.Pool) Store {
	return &postgresStore{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *postgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	const selectDocumentQuery = `
SELECT data
FROM documents
WHERE collection = $1 AND id = $2
`
	var doc Document
	err := s.pgPool.QueryRow(
		ctx,
		selectDocumentQuery,
		collection,
		id,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Str("collection", collection).
			Str("id", id).
			Msg("failed to select document")
		return nil, err
	}

	doc["id"] = id
	return doc, nil
}

func (s *postgresStore) List(ctx context.Context, collection string, filters []Filter, orders ...Order) ([]Document, error) {
	var query strings.Builder
	query.WriteString(`
SELECT id, data
FROM documents
WHERE collection = $1`)

	args := []any{collection}
	for _, f := range filters {
		fmt.Fprintf(&query, " AND data->>$%d = $%d", len(args)+1, len(args)+2)
		args = append(args, f.Field, fmt.Sprint(f.Value))
	}

	for i, order := range orders {
		if i == 0 {
			query.WriteString(" ORDER BY")
		} else {
			query.WriteString(",")
		}
		if order.Field == "id" {
			// The id lives in its own column, not in the payload.
			query.WriteString(" id")
		} else {
			fmt.Fprintf(&query, " data->$%d", len(args)+1)
			args = append(args, order.Field)
		}
		if order.Desc {
			query.WriteString(" DESC")
		}
	}

	rows, err := s.pgPool.Query(ctx, query.String(), args...)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("collection", collection).
			Msg("failed to list documents")
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			id  string
			doc Document
		)
		err = rows.Scan(&id, &doc)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("collection", collection).
				Msg("failed to scan document")
			return nil, err
		}
		doc["id"] = id
		docs = append(docs, doc)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("collection", collection).
			Msg("failed to iterate over documents")
		return nil, err
	}
	return docs, nil
}

func (s *postgresStore) Create(ctx context.Context, collection, id string, data Document) (Document, error) {
	const insertDocumentQuery = `
INSERT INTO documents (collection, id, data, created_at, updated_at)
VALUES ($1, $2, $3, now(), now())
RETURNING data
`
	var doc Document
	err := s.pgPool.QueryRow(
		ctx,
		insertDocumentQuery,
		collection,
		id,
		data,
	).Scan(&doc)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("collection", collection).
			Str("id", id).
			Msg("failed to insert document")
		return nil, err
	}

	doc["id"] = id
	return doc, nil
}

func (s *postgresStore) Update(ctx context.Context, collection, id string, data Document) (Document, error) {
	// Partial update: supplied fields are merged over the stored payload.
	const updateDocumentQuery = `
UPDATE documents
SET data = data || $3,
    updated_at = now()
WHERE collection = $1 AND id = $2
RETURNING data
`
	var doc Document
	err := s.pgPool.QueryRow(
		ctx,
		updateDocumentQuery,
		collection,
		id,
		data,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Str("collection", collection).
			Str("id", id).
			Msg("failed to update document")
		return nil, err
	}

	doc["id"] = id
	return doc, nil
}

func (s *postgresStore) Delete(ctx context.Context, collection, id string) error {
	const deleteDocumentQuery = `
DELETE FROM documents
WHERE collection = $1 AND id = $2
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteDocumentQuery,
		collection,
		id,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("collection", collection).
			Str("id", id).
			Msg("failed to delete document")
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
