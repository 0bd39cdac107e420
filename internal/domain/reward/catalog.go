// Package reward defines the level-reward catalog: ordered (level, roleId)
// rules granting a role once a user's level reaches the rule's level.
package reward

import (
	"sort"

	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
)

// Rule grants RoleID once a user's level is at or above Level. Rules are
// independently satisfiable; multiple rules may share a level.
type Rule struct {
	Level  shared.Level
	RoleID shared.RoleID
}

// Satisfied reports whether a user at the given level holds this rule's role.
func (r Rule) Satisfied(level shared.Level) bool {
	return level >= r.Level
}

// Catalog is an ordered sequence of reward rules for one community. The
// catalog is validated at the settings-provider boundary; consumers can rely
// on every rule having a valid role ID and non-negative level.
type Catalog []Rule

// Validate checks every rule in the catalog.
func (c Catalog) Validate() error {
	for _, rule := range c {
		if !rule.Level.IsValid() {
			return shared.ErrNegativeValue
		}
		if !rule.RoleID.IsValid() {
			return shared.ErrInvalidRoleID
		}
	}
	return nil
}

// Held returns the rules satisfied at the given level, in catalog order.
func (c Catalog) Held(level shared.Level) []Rule {
	var held []Rule
	for _, rule := range c {
		if rule.Satisfied(level) {
			held = append(held, rule)
		}
	}
	return held
}

// Next returns the first unsatisfied rule in ascending level order, or false
// when every rule is satisfied.
func (c Catalog) Next(level shared.Level) (Rule, bool) {
	pending := make([]Rule, 0, len(c))
	for _, rule := range c {
		if !rule.Satisfied(level) {
			pending = append(pending, rule)
		}
	}
	if len(pending) == 0 {
		return Rule{}, false
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Level < pending[j].Level
	})
	return pending[0], true
}

// Partition splits the catalog into grant candidates (rules satisfied at the
// given level) and revoke candidates (rules above it), in catalog order.
func (c Catalog) Partition(level shared.Level) (grant, revoke []Rule) {
	for _, rule := range c {
		if rule.Satisfied(level) {
			grant = append(grant, rule)
		} else {
			revoke = append(revoke, rule)
		}
	}
	return grant, revoke
}
