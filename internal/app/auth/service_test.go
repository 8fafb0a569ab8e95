package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&DeletionAuth{}))
	return NewService(NewRepository(db), zap.NewNop())
}

func TestMintCredential(t *testing.T) {
	svc := newTestService(t)

	cred, err := svc.MintCredential()
	require.NoError(t, err)
	assert.Len(t, cred.Password, passwordLength)
	assert.NotEmpty(t, cred.Hash)
	assert.NotContains(t, cred.Hash, cred.Password)
}

func TestRecordEmptyHashIsNoop(t *testing.T) {
	svc := newTestService(t)
	assert.NoError(t, svc.Record(1, nil, ""))
}

func TestResolveHash(t *testing.T) {
	svc := newTestService(t)

	cred, err := svc.MintCredential()
	require.NoError(t, err)
	require.NoError(t, svc.Record(7, nil, cred.Hash))

	// The plain password resolves to the stored hash for the batch.
	hash, err := svc.ResolveHash([]uint64{7}, cred.Password)
	require.NoError(t, err)
	assert.Equal(t, cred.Hash, hash)

	// Wrong password, unknown id, or no password at all resolve to nothing.
	hash, err = svc.ResolveHash([]uint64{7}, "not-the-password")
	require.NoError(t, err)
	assert.Empty(t, hash)

	hash, err = svc.ResolveHash([]uint64{999}, cred.Password)
	require.NoError(t, err)
	assert.Empty(t, hash)

	hash, err = svc.ResolveHash([]uint64{7}, "")
	require.NoError(t, err)
	assert.Empty(t, hash)
}
