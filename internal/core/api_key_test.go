package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyService_Create_StoresHashNotKey(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	// New user path.
	db.On("QueryRow", ctx, sqlContains("FROM users"), mock.Anything).
		Return(&mockRow{scanFunc: func(...any) error { return pgx.ErrNoRows }})
	db.On("Exec", ctx, sqlContains("INSERT INTO users"), mock.Anything).
		Return(pgconn.CommandTag{}, nil)

	var storedHash string
	db.On("Exec", ctx, sqlContains("INSERT INTO api_keys"),
		mock.MatchedBy(func(args []any) bool {
			storedHash = args[3].(string)
			return true
		})).Return(pgconn.CommandTag{}, nil)
	db.On("QueryRow", ctx, sqlContains("SELECT created_at"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error {
			*(dest[0].(*time.Time)) = time.Now()
			return nil
		}})

	key, rawKey, err := svc.Create(ctx, "alice@example.com", "laptop")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rawKey, "clw_"))
	assert.Equal(t, rawKey[:12], key.KeyPrefix)

	// Only the SHA-256 of the raw key may hit the database.
	sum := sha256.Sum256([]byte(rawKey))
	assert.Equal(t, hex.EncodeToString(sum[:]), storedHash)
	assert.NotEqual(t, rawKey, storedHash)
}

func TestAPIKeyService_Create_ReusesExistingUser(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, sqlContains("FROM users"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error {
			*(dest[0].(*string)) = "user-existing"
			return nil
		}})
	db.On("Exec", ctx, sqlContains("INSERT INTO api_keys"), mock.Anything).
		Return(pgconn.CommandTag{}, nil)
	db.On("QueryRow", ctx, sqlContains("SELECT created_at"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error {
			*(dest[0].(*time.Time)) = time.Now()
			return nil
		}})

	key, _, err := svc.Create(ctx, "alice@example.com", "laptop")
	require.NoError(t, err)
	assert.Equal(t, "user-existing", key.UserID)
	db.AssertNotCalled(t, "Exec", ctx, sqlContains("INSERT INTO users"), mock.Anything)
}

func TestAPIKeyService_Revoke_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	db.On("Exec", ctx, sqlContains("SET revoked_at"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := svc.Revoke(ctx, "key-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
