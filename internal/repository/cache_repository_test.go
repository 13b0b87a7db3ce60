package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-registry-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	assert.False(t, repo.Enabled())

	var dest []string
	assert.ErrorIs(t, repo.Get(ctx, "subjects:list", &dest), appErrors.ErrCacheMiss)
	require.NoError(t, repo.Set(ctx, "subjects:list", []string{"Physics"}, time.Minute))

	removed, err := repo.DeleteByPattern(ctx, "subjects:*")
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.NoError(t, repo.Ping(ctx))
	assert.NoError(t, repo.Close())
}
