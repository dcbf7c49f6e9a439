package credstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/cityai/internal/client/models"
	"github.com/dmitrijs2005/cityai/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/cityai/internal/dbx"
)

// SQLiteStore keeps the pair in the metadata table of the local database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context) (models.CredentialPair, bool, error) {
	values, err := metadata.NewSQLiteRepository(s.db).GetMany(ctx, accessTokenKey, refreshTokenKey)
	if err != nil {
		return models.CredentialPair{}, false, fmt.Errorf("read credentials: %w", err)
	}
	return pairFromValues(values[accessTokenKey], values[refreshTokenKey])
}

func (s *SQLiteStore) Set(ctx context.Context, pair models.CredentialPair) error {
	if !pair.Complete() {
		return ErrIncompletePair
	}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, accessTokenKey, []byte(pair.AccessToken)); err != nil {
			return err
		}
		return repo.Set(ctx, refreshTokenKey, []byte(pair.RefreshToken))
	})
	if err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteRepository(tx).Delete(ctx, accessTokenKey, refreshTokenKey)
	})
	if err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
