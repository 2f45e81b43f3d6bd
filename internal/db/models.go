package db

import (
	"time"
)

// Decision values stored in the actions table.
const (
	DecisionAccept = "accept"
	DecisionReject = "reject"
)

// ValidDecision reports whether s is a storable decision value.
func ValidDecision(s string) bool {
	return s == DecisionAccept || s == DecisionReject
}

// User table. Identity fields are owned by an external identity subsystem;
// this engine only ever reads them. An empty Gender or an empty preference
// set means the user can neither search nor be offered as a candidate.
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Active       bool   `gorm:"default:true"`
	LastLoginAt  time.Time
	Gender       string    `gorm:"size:16"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// GenderPreference is one row of a user's preference set, normalized so the
// reciprocal filter can probe both directions with indexed equality.
//
// Composite PK: (UserID, Gender) — a gender appears at most once per user.
// Index idx_pref_gender_user(gender, user_id) serves the reverse probe
// "does candidate C prefer the requester's gender".
type GenderPreference struct {
	UserID uint64 `gorm:"primaryKey"`
	Gender string `gorm:"primaryKey;size:16;index:idx_pref_gender_user,priority:1"`
}

// Action represents an actor's accept/reject decision on a target user.
//
// Composite PK: (ActorID, TargetID)
//   - At most one row per ordered pair; upserts overwrite in place.
//
// Indexes:
//   - PK order (actor_id, target_id) covers exclusion-set scans by actor.
//   - idx_target_decision(target_id, decision) covers the reverse-direction
//     lookup for mutual-accept checks and match listings.
//
// UpdatedAt doubles as the recorded-at timestamp and is overwritten on
// every upsert, so it always reflects the latest decision.
type Action struct {
	ActorID   uint64    `gorm:"primaryKey"`
	TargetID  uint64    `gorm:"primaryKey;index:idx_target_decision,priority:1"`
	Decision  string    `gorm:"size:8;not null;index:idx_target_decision,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
