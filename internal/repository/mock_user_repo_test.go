package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricirt/consent-sync/internal/domain"
	"github.com/ricirt/consent-sync/internal/repository"
)

func TestMockUserRepository_FindEligible(t *testing.T) {
	repo := repository.NewMockUserRepository()
	repo.AddUser(1, "a@example.com", domain.FlagSubscribed)
	repo.AddUser(2, "b@example.com", domain.FlagUnset)
	repo.AddUser(3, "", domain.FlagUnset)
	repo.AddUser(4, "d@example.com", domain.FlagNo)
	repo.AddUser(5, "e@example.com", domain.FlagUnsubscribed)
	repo.AddUser(6, "f@example.com", domain.FlagUnset)
	ctx := context.Background()

	ids, err := repo.FindEligible(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4, 6}, ids)

	ids, err = repo.FindEligible(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, ids)

	ids, err = repo.FindEligible(ctx, 6, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
