package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/matchdeck/matchdeck/internal/db"
	"github.com/matchdeck/matchdeck/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.AutoMigrate(&db.User{}, &db.GenderPreference{}, &db.Action{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func TestRecordDecisionOverwrites(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewActionRepository(dbase)

	// insert accept
	err := repo.RecordDecision(ctx, 1, 2, db.DecisionAccept)
	assert.NoError(t, err)

	// overwrite with reject
	err = repo.RecordDecision(ctx, 1, 2, db.DecisionReject)
	assert.NoError(t, err)

	// exactly one row remains, holding the latest decision
	var count int64
	require.NoError(t, dbase.Model(&db.Action{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var a db.Action
	require.NoError(t, dbase.First(&a).Error)
	assert.Equal(t, db.DecisionReject, a.Decision)
}

func TestHasAccepted(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewActionRepository(dbase)

	_ = repo.RecordDecision(ctx, 1, 2, db.DecisionAccept)
	_ = repo.RecordDecision(ctx, 1, 3, db.DecisionReject)

	ok, err := repo.HasAccepted(ctx, 1, 2)
	assert.NoError(t, err)
	assert.True(t, ok)

	// a reject is not an accept
	ok, err = repo.HasAccepted(ctx, 1, 3)
	assert.NoError(t, err)
	assert.False(t, ok)

	// no row at all
	ok, err = repo.HasAccepted(ctx, 2, 1)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestDecidedTargetsIncludesRejects(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewActionRepository(dbase)

	_ = repo.RecordDecision(ctx, 1, 2, db.DecisionAccept)
	_ = repo.RecordDecision(ctx, 1, 3, db.DecisionReject)
	_ = repo.RecordDecision(ctx, 2, 1, db.DecisionAccept) // other actor, ignored

	ids, err := repo.DecidedTargets(ctx, 1)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []uint64{2, 3}, ids)
}

func TestMutualAcceptSymmetry(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewActionRepository(dbase)

	_ = repo.RecordDecision(ctx, 1, 2, db.DecisionAccept)

	// one-directional: no match either way
	ab, err := repo.MutualAccept(ctx, 1, 2)
	assert.NoError(t, err)
	ba, err := repo.MutualAccept(ctx, 2, 1)
	assert.NoError(t, err)
	assert.False(t, ab)
	assert.Equal(t, ab, ba)

	_ = repo.RecordDecision(ctx, 2, 1, db.DecisionAccept)

	ab, err = repo.MutualAccept(ctx, 1, 2)
	assert.NoError(t, err)
	ba, err = repo.MutualAccept(ctx, 2, 1)
	assert.NoError(t, err)
	assert.True(t, ab)
	assert.Equal(t, ab, ba)
}

func TestMutualAcceptDestroyedByOverwrite(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewActionRepository(dbase)

	_ = repo.RecordDecision(ctx, 1, 2, db.DecisionAccept)
	_ = repo.RecordDecision(ctx, 2, 1, db.DecisionAccept)

	// user 2 changes their mind
	_ = repo.RecordDecision(ctx, 2, 1, db.DecisionReject)

	ok, err := repo.MutualAccept(ctx, 1, 2)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestMutualMatchesAndPagination(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewActionRepository(dbase)

	// user 1 mutually matches users 2, 3, 4
	for _, other := range []uint64{2, 3, 4} {
		require.NoError(t, repo.RecordDecision(ctx, 1, other, db.DecisionAccept))
		require.NoError(t, repo.RecordDecision(ctx, other, 1, db.DecisionAccept))
	}
	// one-way accept toward 5 is not a match
	require.NoError(t, repo.RecordDecision(ctx, 1, 5, db.DecisionAccept))

	entries, nextToken, err := repo.MutualMatches(ctx, 1, nil, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NotNil(t, nextToken)

	rest, nextToken2, err := repo.MutualMatches(ctx, 1, nextToken, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Nil(t, nextToken2)

	got := []uint64{entries[0].UserID, entries[1].UserID, rest[0].UserID}
	assert.ElementsMatch(t, []uint64{2, 3, 4}, got)
}

func TestCountMatches(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewActionRepository(dbase)

	_ = repo.RecordDecision(ctx, 1, 2, db.DecisionAccept)
	_ = repo.RecordDecision(ctx, 2, 1, db.DecisionAccept)
	_ = repo.RecordDecision(ctx, 1, 3, db.DecisionAccept) // unanswered
	_ = repo.RecordDecision(ctx, 4, 1, db.DecisionAccept)
	_ = repo.RecordDecision(ctx, 1, 4, db.DecisionReject) // passed back

	count, err := repo.CountMatches(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
