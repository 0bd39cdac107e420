// Package progression contains the experience/level engine: scopes, records,
// the level-up threshold formula, and the pure Advance computation. It has no
// I/O; persistence is behind the Store interface in repository.go.
package progression

import (
	"math"

	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// THRESHOLD FORMULA
// ═══════════════════════════════════════════════════════════════════════════

const (
	// BaseExp is the base exp cost of a level (per-event award of 2 times
	// the per-level base of 50).
	BaseExp = 100

	// DifficultyMultiplier scales the exp cost of each successive level.
	DifficultyMultiplier = 1.25

	// DefaultExpPerEvent is the exp awarded for one qualifying activity event.
	DefaultExpPerEvent shared.XP = 2
)

// Threshold returns the amount of exp needed to complete the given level.
// This is a per-level cost, not a cumulative total.
func Threshold(level shared.Level) shared.XP {
	return shared.XP(math.Floor(BaseExp * DifficultyMultiplier * float64(level.Int()+1)))
}

// ═══════════════════════════════════════════════════════════════════════════
// SCOPE
// ═══════════════════════════════════════════════════════════════════════════

// GlobalScopeName is the key segment identifying the global track.
const GlobalScopeName = "global"

// Scope identifies one of a user's two independent progression tracks:
// Local (per-community) or Global (cross-community).
type Scope struct {
	community shared.CommunityID
}

// Local returns the scope for a community-level track.
func Local(community shared.CommunityID) Scope {
	return Scope{community: community}
}

// Global returns the cross-community scope.
func Global() Scope {
	return Scope{}
}

// IsGlobal reports whether this is the global track.
func (s Scope) IsGlobal() bool {
	return s.community == ""
}

// Community returns the community of a local scope (empty for global).
func (s Scope) Community() shared.CommunityID {
	return s.community
}

// Key composes the persistent key segment for this scope and user:
// "{communityId}.{userId}" for local, "global.{userId}" for global.
func (s Scope) Key(user shared.UserID) string {
	if s.IsGlobal() {
		return GlobalScopeName + "." + user.String()
	}
	return s.community.String() + "." + user.String()
}

// String returns a human-readable scope name for logging.
func (s Scope) String() string {
	if s.IsGlobal() {
		return GlobalScopeName
	}
	return "local:" + s.community.String()
}

// ═══════════════════════════════════════════════════════════════════════════
// RECORD
// ═══════════════════════════════════════════════════════════════════════════

// Record is a user's progression state within one scope. Invariant outside of
// Advance: 0 <= Exp < Threshold(Level).
type Record struct {
	Scope  Scope
	UserID shared.UserID
	Exp    shared.XP
	Level  shared.Level
}

// NewRecord returns the lazily-created default record for a scope and user.
func NewRecord(scope Scope, user shared.UserID) Record {
	return Record{Scope: scope, UserID: user}
}

// ExpToNext returns the exp needed to complete the record's current level.
func (r Record) ExpToNext() shared.XP {
	return Threshold(r.Level)
}

// Valid reports whether the record satisfies the progression invariant.
func (r Record) Valid() bool {
	return r.Exp.IsValid() && r.Level.IsValid() && r.Exp < Threshold(r.Level)
}

// ═══════════════════════════════════════════════════════════════════════════
// ADVANCE ENGINE
// ═══════════════════════════════════════════════════════════════════════════

// Advance applies one activity event's exp gain to a record and returns the
// updated record plus whether a level-up occurred.
//
// At most one level is gained per event: leftover exp above the threshold
// carries over but is not re-checked against the next threshold, even if it
// would satisfy it. Gains are validated; a non-positive gain is rejected.
func Advance(rec Record, gain shared.XP) (Record, bool, error) {
	if gain <= 0 {
		return rec, false, shared.ErrInvalidExpGain
	}

	need := Threshold(rec.Level)
	tentative := rec.Exp.Add(gain)

	if tentative < need {
		rec.Exp = tentative
		return rec, false, nil
	}

	leftover := tentative - need
	if leftover < 0 {
		leftover = 0
	}

	rec.Level = rec.Level.Next()
	rec.Exp = leftover
	return rec, true, nil
}
