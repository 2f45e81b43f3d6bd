package deck

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/matchdeck/matchdeck/internal/app"
	"github.com/matchdeck/matchdeck/internal/db"
	svcErr "github.com/matchdeck/matchdeck/internal/errors"
	"github.com/matchdeck/matchdeck/internal/repository"
)

// Service is the candidate recommendation & action ledger engine.
// It builds exclusion sets, runs the reciprocal selection query, records
// decisions idempotently, and detects mutual matches — all state lives in
// the ledger, nothing is held between requests, so every method may run
// concurrently with any other.
type Service struct {
	appCtx     *app.AppContext
	actionRepo *repository.ActionRepository
	userRepo   *repository.UserRepository
}

// NewService creates the deck service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		actionRepo: repository.NewActionRepository(appCtx.DB),
		userRepo:   repository.NewUserRepository(appCtx.DB),
	}
}

// MatchedUser is one entry of a mutual-match listing.
type MatchedUser struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Gender    string    `json:"gender"`
	MatchedAt time.Time `json:"matched_at"`
}

// Candidate is the renderable payload for one offered user.
type Candidate struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Gender   string `json:"gender"`
}

// Candidates returns up to limit eligible, previously-undecided,
// reciprocally-compatible users for the requester, in random order.
//
// An empty result is a policy outcome, never an error:
//   - unknown requester, missing own gender, or an empty preference set
//     means reciprocity cannot be computed — the profile is simply never
//     matched;
//   - a depleted eligible pool returns whatever exists.
//
// extraExclude carries candidate ids the caller already holds client-side
// so a rolling deck never receives duplicates (§ deck protocol). Each call
// re-evaluates eligibility fresh; there is no paging cursor.
func (s *Service) Candidates(
	ctx context.Context,
	requesterID uint64,
	extraExclude []uint64,
	limit int,
) ([]Candidate, error) {
	requester, prefs, err := s.userRepo.GetProfile(ctx, requesterID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.appCtx.Logger.Debug("candidates: unknown requester", "requester", requesterID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if requester.Gender == "" || len(prefs) == 0 {
		// Incomplete profiles are never matched. Expected, not a failure.
		s.appCtx.Logger.Warn("candidates: incomplete profile",
			"requester", requesterID,
			"own_gender_set", requester.Gender != "",
			"preference_count", len(prefs),
		)
		return nil, nil
	}

	decided, err := s.actionRepo.DecidedTargets(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	exclude := buildExclusionSet(s.appCtx.Cfg.Match.ReservedIDs, requesterID, decided, extraExclude)

	users, err := s.userRepo.FindCandidates(ctx, requester.Gender, prefs, exclude, limit)
	if err != nil {
		return nil, err
	}

	if len(users) == 0 {
		s.appCtx.Logger.Debug("candidates: pool exhausted", "requester", requesterID)
		s.appCtx.Metrics.EmptyDeckReplies.Inc()
		return nil, nil
	}

	s.appCtx.Metrics.CandidatesServed.Add(float64(len(users)))

	candidates := make([]Candidate, 0, len(users))
	for _, u := range users {
		candidates = append(candidates, Candidate{ID: u.ID, Username: u.Username, Gender: u.Gender})
	}
	return candidates, nil
}

// FetchNext returns a single replacement candidate for a rolling deck, or
// nil when none is available.
//
// clientHeldIDs is supplied by the client on every call; the protocol is
// stateless and does not reserve candidates server-side, so two concurrent
// calls may return the same user. That duplicate resolves downstream: the
// second decision write simply overwrites the first (idempotent upsert).
func (s *Service) FetchNext(
	ctx context.Context,
	requesterID uint64,
	clientHeldIDs []uint64,
) (*Candidate, error) {
	candidates, err := s.Candidates(ctx, requesterID, clientHeldIDs, 1)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}

// PutDecision records actor's decision about target and reports whether it
// completed a mutual match.
//
// Behavior:
//   - ErrSelfAction when actor == target; nothing is written.
//   - ErrTargetNotAvailable when target is unknown or inactive; nothing is
//     written.
//   - Otherwise an atomic upsert: at most one ledger row per ordered pair,
//     a repeat decision overwrites the previous one (a user may change
//     their mind), last writer wins under concurrency.
//   - Mutuality is evaluated strictly after the write commits, re-reading
//     both ledger directions, and only for an accept. The result is a pure
//     notification signal; no match row is stored.
func (s *Service) PutDecision(
	ctx context.Context,
	actorID, targetID uint64,
	decision string,
) (bool, error) {
	s.appCtx.Logger.Debug("PutDecision called",
		"actor", actorID, "target", targetID, "decision", decision)

	if !db.ValidDecision(decision) {
		return false, svcErr.Invalid("decision must be \"accept\" or \"reject\"")
	}
	if actorID == targetID {
		return false, svcErr.ErrSelfAction
	}

	if _, err := s.userRepo.GetActiveUser(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, svcErr.ErrTargetNotAvailable
		}
		return false, err
	}

	if err := s.actionRepo.RecordDecision(ctx, actorID, targetID, decision); err != nil {
		return false, err
	}
	s.appCtx.Metrics.DecisionsRecorded.WithLabelValues(decision).Inc()

	// Any decision can create or destroy a match; both sides' cached
	// counts are stale now.
	if err := s.appCtx.RedisCache.InvalidatePair(ctx, actorID, targetID); err != nil {
		s.appCtx.Logger.Warn("failed to invalidate match-count cache", "err", err)
	}

	if decision != db.DecisionAccept {
		return false, nil
	}

	mutual, err := s.actionRepo.MutualAccept(ctx, actorID, targetID)
	if err != nil {
		// The decision is durably recorded; surface the check failure
		// rather than guessing at mutuality.
		return false, err
	}
	if mutual {
		s.appCtx.Logger.Info("new match", "user_a", actorID, "user_b", targetID)
		s.appCtx.Metrics.MatchesDetected.Inc()
	}
	return mutual, nil
}

// Matches lists the users currently in mutual-match state with userID,
// newest first, cursor-paginated.
func (s *Service) Matches(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]MatchedUser, *string, error) {
	entries, nextToken, err := s.actionRepo.MutualMatches(ctx, userID, paginationToken, limit)
	if err != nil {
		return nil, nil, err
	}
	if len(entries) == 0 {
		return nil, nil, nil
	}

	ids := make([]uint64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	users, err := s.userRepo.GetUsers(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[uint64]db.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	matches := make([]MatchedUser, 0, len(entries))
	for _, e := range entries {
		u, ok := byID[e.UserID]
		if !ok {
			continue
		}
		matches = append(matches, MatchedUser{
			ID:        u.ID,
			Username:  u.Username,
			Gender:    u.Gender,
			MatchedAt: e.MatchedAt,
		})
	}
	return matches, nextToken, nil
}

// CountMatches returns the user's mutual-match count.
// Cache-first strategy:
//  1. Attempts to read from Redis (matches:count:userID).
//  2. On a cache miss, falls back to the DB via repository.CountMatches.
//  3. On DB fetch, updates Redis with the standard TTL.
func (s *Service) CountMatches(ctx context.Context, userID uint64) (int64, error) {
	if n, ok, err := s.appCtx.RedisCache.GetMatchCount(ctx, userID); err == nil && ok {
		return n, nil
	}

	count, err := s.actionRepo.CountMatches(ctx, userID)
	if err != nil {
		return 0, err
	}

	if err := s.appCtx.RedisCache.SetMatchCount(ctx, userID, count); err != nil {
		s.appCtx.Logger.Warn("failed to cache match count", "user", userID, "err", err)
	}
	return count, nil
}

// buildExclusionSet merges the fixed policy exclusions (reserved ids,
// requester), ledger history, and caller-supplied transient exclusions
// into one deduplicated id list.
func buildExclusionSet(reserved []uint64, requesterID uint64, decided, extra []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(reserved)+1+len(decided)+len(extra))
	out := make([]uint64, 0, len(reserved)+1+len(decided)+len(extra))

	add := func(ids ...uint64) {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	add(reserved...)
	add(requesterID)
	add(decided...)
	add(extra...)
	return out
}
