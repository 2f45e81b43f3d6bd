package repository

import (
	"context"
	"time"

	"github.com/matchdeck/matchdeck/internal/db"
	"github.com/matchdeck/matchdeck/internal/utils/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActionRepository provides data access for the Action ledger.
// It is the only writer of the actions table; candidate selection and
// match detection are read-only consumers of these queries.
type ActionRepository struct {
	db *gorm.DB
}

// NewActionRepository creates a new repository bound to the given DB connection.
func NewActionRepository(database *gorm.DB) *ActionRepository {
	return &ActionRepository{db: database}
}

// RecordDecision inserts or overwrites the decision actor -> target.
//
// Behavior:
//   - If (actor_id, target_id) exists → the row is updated with the new
//     decision and a fresh updated_at (the ledger keeps the latest decision
//     per ordered pair, not history).
//   - If it doesn't exist → a new row is inserted.
//   - The composite PK plus the conflict clause make the write an atomic
//     upsert: concurrent writes for the same pair serialize at the storage
//     layer, last writer wins, never a duplicate row.
//
// Example:
//
//	repo.RecordDecision(ctx, 1, 2, db.DecisionAccept) // user 1 accepted user 2
func (r *ActionRepository) RecordDecision(
	ctx context.Context,
	actorID, targetID uint64,
	decision string,
) error {
	action := db.Action{
		ActorID:  actorID,
		TargetID: targetID,
		Decision: decision,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"decision", "updated_at"}),
		}).
		Create(&action).Error
}

// HasAccepted checks whether an actor has accepted a target.
//
// Returns true only if a ledger row exists with decision = accept; a
// reject row or no row at all yields false.
func (r *ActionRepository) HasAccepted(
	ctx context.Context,
	actorID, targetID uint64,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("actions a").
		Where("a.actor_id = ? AND a.target_id = ? AND a.decision = ?",
			actorID, targetID, db.DecisionAccept).
		Count(&count).Error
	return count > 0, err
}

// DecidedTargets returns every target the actor has ever decided on,
// accepts and rejects alike. Used purely for exclusion-set construction.
func (r *ActionRepository) DecidedTargets(
	ctx context.Context,
	actorID uint64,
) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Action{}).
		Where("actor_id = ?", actorID).
		Pluck("target_id", &ids).Error
	return ids, err
}

// MutualAccept reports whether both directions of the pair hold an accept.
// Symmetric: MutualAccept(a, b) == MutualAccept(b, a).
//
// Both directions are re-read fresh so a caller checking immediately after
// its own RecordDecision observes that write.
func (r *ActionRepository) MutualAccept(
	ctx context.Context,
	userA, userB uint64,
) (bool, error) {
	forward, err := r.HasAccepted(ctx, userA, userB)
	if err != nil || !forward {
		return false, err
	}
	return r.HasAccepted(ctx, userB, userA)
}

// MatchEntry is one row of a user's mutual-match listing.
type MatchEntry struct {
	UserID    uint64    `gorm:"column:target_id"`
	MatchedAt time.Time `gorm:"column:updated_at"`
}

// MutualMatches returns the users currently in mutual-accept state with
// userID, newest first by the user's own accept timestamp.
//
// Behavior:
//   - A pair qualifies only while both directions hold decision = accept;
//     either side overwriting with a reject removes it from the listing.
//   - Ordered by updated_at DESC, target_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.MutualMatches(ctx, 42, nil, 20) // first 20 matches for user 42
func (r *ActionRepository) MutualMatches(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]MatchEntry, *string, error) {
	var entries []MatchEntry

	// decode cursor if provided
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Table("actions a").
		Select("a.target_id, a.updated_at").
		Where("a.actor_id = ? AND a.decision = ?", userID, db.DecisionAccept).
		Where(`
			EXISTS (
				SELECT 1 FROM actions b
				WHERE b.actor_id = a.target_id
				  AND b.target_id = a.actor_id
				  AND b.decision = ?
			)`, db.DecisionAccept).
		Order("a.updated_at DESC, a.target_id DESC").
		Limit(limit + 1)

	// apply cursor
	if cursor.UserID > 0 && cursor.MatchedUnix > 0 {
		ts := time.UnixMilli(cursor.MatchedUnix)
		query = query.Where(
			"(a.updated_at < ? OR (a.updated_at = ? AND a.target_id < ?))",
			ts, ts, cursor.UserID,
		)
	}

	if err := query.Scan(&entries).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(entries) > limit {
		last := entries[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			UserID:      last.UserID,
			MatchedUnix: last.MatchedAt.UnixMilli(),
		})
		nextToken = &token
		entries = entries[:limit]
	}

	return entries, nextToken, nil
}

// CountMatches returns how many users are in mutual-accept state with userID.
//
// Used in conjunction with the Redis cache (DB is fallback).
func (r *ActionRepository) CountMatches(
	ctx context.Context,
	userID uint64,
) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("actions a").
		Where("a.actor_id = ? AND a.decision = ?", userID, db.DecisionAccept).
		Where(`
			EXISTS (
				SELECT 1 FROM actions b
				WHERE b.actor_id = a.target_id
				  AND b.target_id = a.actor_id
				  AND b.decision = ?
			)`, db.DecisionAccept).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
