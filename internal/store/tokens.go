package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/estatedesk/internal/docstore"
)

// Tokens tracks revoked JWTs and the generated signing secret.
type Tokens struct {
	coll docstore.Collection
	meta docstore.Collection
}

type revokedToken struct {
	ID        string `json:"id" bson:"_id"`
	ExpiresAt int64  `json:"expiresAt" bson:"expiresAt"`
}

type metaValue struct {
	ID    string `json:"id" bson:"_id"`
	Value string `json:"value" bson:"value"`
}

const jwtSecretKey = "jwt_secret"

// Revoke adds a token's JTI to the revocation list. Revoking twice is not
// an error.
func (r *Tokens) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	doc := revokedToken{ID: jti, ExpiresAt: expiresAt.Unix()}
	if err := r.coll.Upsert(ctx, jti, doc); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	// Opportunistically clean up expired revocations.
	if _, err := r.coll.DeleteMany(ctx, docstore.Filter{docstore.Lte("expiresAt", time.Now().Unix()-1)}); err != nil {
		slog.Warn("cleaning up revoked tokens", "error", err)
	}
	return nil
}

// IsRevoked checks if a token's JTI has been revoked.
func (r *Tokens) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.coll.Count(ctx, docstore.ByID(jti))
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return n > 0, nil
}

// JWTSecret returns the stored signing secret, generating it on first use.
// It inserts a candidate and reads back whichever value won, so concurrent
// first starts agree on one secret.
func (r *Tokens) JWTSecret(ctx context.Context) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}

	err := r.meta.Insert(ctx, metaValue{ID: jwtSecretKey, Value: hex.EncodeToString(buf)})
	if err != nil && !errors.Is(err, docstore.ErrDuplicate) {
		return "", fmt.Errorf("storing jwt secret: %w", err)
	}

	var stored metaValue
	if err := r.meta.FindOne(ctx, docstore.ByID(jwtSecretKey), &stored); err != nil {
		return "", fmt.Errorf("querying jwt secret: %w", err)
	}
	return stored.Value, nil
}
