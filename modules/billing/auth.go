package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/chatbill/core"
	"github.com/dmitrymomot/chatbill/pkg/pg"
)

// SessionVerifier resolves a bearer token to a user id. Implementations
// return ErrSessionInvalid for any token that does not map to a live
// session; callers must not distinguish why.
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (userID string, err error)
}

// PostgresSessionVerifier checks tokens against the sessions table.
// Tokens are stored as SHA-256 digests so a leaked table dump yields no
// usable credentials.
type PostgresSessionVerifier struct {
	pool *pgxpool.Pool
}

func NewPostgresSessionVerifier(pool *pgxpool.Pool) *PostgresSessionVerifier {
	return &PostgresSessionVerifier{pool: pool}
}

func (v *PostgresSessionVerifier) VerifySession(ctx context.Context, token string) (string, error) {
	digest := sha256.Sum256([]byte(token))

	var userID string
	err := v.pool.QueryRow(ctx,
		`SELECT user_id FROM sessions WHERE token_digest = $1 AND expires_at > now()`,
		hex.EncodeToString(digest[:])).Scan(&userID)
	if pg.IsNotFoundError(err) {
		return "", ErrSessionInvalid
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

// StaticSessionVerifier maps tokens to user ids directly, for tests.
type StaticSessionVerifier map[string]string

func (v StaticSessionVerifier) VerifySession(_ context.Context, token string) (string, error) {
	userID, ok := v[token]
	if !ok {
		return "", ErrSessionInvalid
	}
	return userID, nil
}

type userIDKey struct{}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

// RequireSession rejects requests without a valid bearer token. The 401
// body is identical for a missing, malformed, expired, or unknown token.
func RequireSession(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				core.Error(w, r, core.ErrUnauthorized)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			userID, err := verifier.VerifySession(ctx, token)
			if err != nil {
				core.Error(w, r, core.ErrUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey{}, userID)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}
