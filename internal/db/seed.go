package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedTestData resets the database and populates it with demo users,
// preference sets, and a decision graph.
//
// Behavior:
//  1. Clears `actions`, `gender_preferences`, and `users`.
//  2. Creates 20 users (10 male, 10 female) with hashed passwords. Most
//     prefer the opposite gender, a few prefer both, and the last user is
//     left with no preference rows (an incomplete profile that must never
//     appear in anyone's deck).
//  3. Generates ~200 decisions with ~70% accepts, and every 3rd ensures a
//     mutual accept so match listings have content.
//
// Compatible with MySQL, Postgres, and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	if err := db.Exec("DELETE FROM actions").Error; err != nil {
		return fmt.Errorf("failed to clear actions: %w", err)
	}
	if err := db.Exec("DELETE FROM gender_preferences").Error; err != nil {
		return fmt.Errorf("failed to clear gender preferences: %w", err)
	}
	if err := db.Exec("DELETE FROM users").Error; err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}

	// Reset auto-increment sequences where the dialect needs it
	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name = 'users'")
	}

	log.Println("Cleared existing data")

	// --- Seed Users (10 male, 10 female) ---
	for i := 1; i <= 20; i++ {
		username := fmt.Sprintf("user%d", i)
		email := fmt.Sprintf("user%d@example.com", i)

		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		gender := "male"
		if i > 10 {
			gender = "female"
		}

		user := User{
			Username:     username,
			Email:        email,
			PasswordHash: string(hash),
			Gender:       gender,
			Active:       true,
			LastLoginAt:  time.Now().Add(-time.Duration(r.Intn(500)) * time.Hour),
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		// user20 keeps an empty preference set on purpose
		if i == 20 {
			continue
		}

		prefs := []GenderPreference{}
		if gender == "male" {
			prefs = append(prefs, GenderPreference{UserID: user.ID, Gender: "female"})
		} else {
			prefs = append(prefs, GenderPreference{UserID: user.ID, Gender: "male"})
		}
		// every 5th user prefers both genders
		if i%5 == 0 {
			prefs = append(prefs, GenderPreference{UserID: user.ID, Gender: gender})
		}
		if err := db.Create(&prefs).Error; err != nil {
			return fmt.Errorf("failed to seed preferences: %w", err)
		}
	}
	log.Println("Seeded 20 users.")

	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"decision", "updated_at"}),
	}

	// --- Seed Actions (~200) ---
	counter := 0
	for actorID := 1; actorID <= 20; actorID++ {
		for j := 0; j < 12; j++ { // each user decides on ~12 others
			targetID := uint64(r.Intn(20) + 1)
			if uint64(actorID) == targetID {
				continue
			}

			var actor, target User
			if err := db.First(&actor, actorID).Error; err != nil {
				continue
			}
			if err := db.First(&target, targetID).Error; err != nil {
				continue
			}
			if actor.Gender == target.Gender {
				continue
			}

			// accept probability 70%
			decision := DecisionReject
			if r.Intn(100) < 70 {
				decision = DecisionAccept
			}

			// guarantee mutual accepts every 3rd pair
			if counter%3 == 0 {
				decision = DecisionAccept
				recip := Action{
					ActorID:  targetID,
					TargetID: uint64(actorID),
					Decision: DecisionAccept,
				}
				db.Clauses(upsert).Create(&recip)
			}

			action := Action{
				ActorID:  uint64(actorID),
				TargetID: targetID,
				Decision: decision,
			}
			if err := db.Clauses(upsert).Create(&action).Error; err != nil {
				return fmt.Errorf("failed to seed action: %w", err)
			}

			counter++
		}
	}

	return nil
}
