package repository

import (
	"context"

	"github.com/matchdeck/matchdeck/internal/db"

	"gorm.io/gorm"
)

// UserRepository provides read-only access to identity data: profile
// lookups for policy checks and the reciprocal candidate-selection query.
// This engine never mutates users or their preference sets.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// GetProfile loads a user together with their gender-preference set.
// Returns gorm.ErrRecordNotFound if the user does not exist.
func (r *UserRepository) GetProfile(
	ctx context.Context,
	userID uint64,
) (*db.User, []string, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, nil, err
	}

	var prefs []string
	err := r.db.WithContext(ctx).
		Model(&db.GenderPreference{}).
		Where("user_id = ?", userID).
		Pluck("gender", &prefs).Error
	if err != nil {
		return nil, nil, err
	}

	return &user, prefs, nil
}

// GetActiveUser loads a user only if it exists and is active.
// Returns gorm.ErrRecordNotFound otherwise.
func (r *UserRepository) GetActiveUser(
	ctx context.Context,
	userID uint64,
) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND active = ?", userID, true).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsers loads the users with the given ids. Missing ids are silently
// skipped; callers doing display joins tolerate holes.
func (r *UserRepository) GetUsers(
	ctx context.Context,
	userIDs []uint64,
) ([]db.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var users []db.User
	err := r.db.WithContext(ctx).
		Where("id IN ?", userIDs).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// FindCandidates returns up to limit active users eligible for the
// requester, in random order.
//
// Eligibility is reciprocal, both directions required:
//   - candidate.gender ∈ preferredGenders (requester wants the candidate), AND
//   - requesterGender ∈ candidate's preference set (candidate wants the
//     requester), probed via the normalized gender_preferences table.
//
// excludeIDs must already contain the requester, reserved ids, every
// previously decided target, and any caller-held candidates; no row in it
// is ever returned. Random ordering is an anti-staleness device, not a
// ranking signal: it keeps repeated queries from always surfacing the same
// first eligible row.
func (r *UserRepository) FindCandidates(
	ctx context.Context,
	requesterGender string,
	preferredGenders []string,
	excludeIDs []uint64,
	limit int,
) ([]db.User, error) {
	var users []db.User

	query := r.db.WithContext(ctx).
		Table("users u").
		Where("u.active = ?", true).
		Where("u.gender IN ?", preferredGenders).
		Where(`
			EXISTS (
				SELECT 1 FROM gender_preferences p
				WHERE p.user_id = u.id
				  AND p.gender = ?
			)`, requesterGender)

	if len(excludeIDs) > 0 {
		query = query.Where("u.id NOT IN ?", excludeIDs)
	}

	err := query.
		Order(db.RandomOrderExpr(r.db)).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	return users, nil
}
