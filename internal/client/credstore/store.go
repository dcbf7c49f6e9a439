// Package credstore keeps the access/refresh credential pair on the local
// machine so a session survives restarts of the client.
//
// Both tokens are always written and removed together: SQLiteStore does it
// inside one transaction, MemoryStore under one lock. A reader never observes
// a pair where only one side was updated.
package credstore

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/cityai/internal/client/models"
)

const (
	accessTokenKey  = "access_token"
	refreshTokenKey = "refresh_token"
)

var (
	// ErrIncompletePair is returned by Set when one of the tokens is empty.
	ErrIncompletePair = errors.New("credential pair must carry both tokens")
	// ErrPartialPair is returned by Get when storage holds only one token,
	// e.g. after an external edit of the database.
	ErrPartialPair = errors.New("stored credential pair is incomplete")
)

// Store is the durable home of the credential pair. Get reports ok=false
// when nothing is stored.
type Store interface {
	Get(ctx context.Context) (pair models.CredentialPair, ok bool, err error)
	Set(ctx context.Context, pair models.CredentialPair) error
	Clear(ctx context.Context) error
}

func pairFromValues(access, refresh []byte) (models.CredentialPair, bool, error) {
	pair := models.CredentialPair{AccessToken: string(access), RefreshToken: string(refresh)}
	switch {
	case pair.IsZero():
		return models.CredentialPair{}, false, nil
	case !pair.Complete():
		return models.CredentialPair{}, false, ErrPartialPair
	default:
		return pair, true, nil
	}
}
