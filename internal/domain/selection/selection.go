// Package selection picks supporting content and a challenge for a talent.
package selection

import (
	"sort"

	"github.com/okian/talentflow/internal/domain/model"
)

// DefaultContentLimit is used when a non-positive limit is requested.
const DefaultContentLimit = 3

// Content returns up to limit pieces relevant to t, best first.
// Pieces must match the talent's level (or be for all levels). When the
// talent has modules, pieces sharing a module are preferred; if none do,
// the level-only matches are used instead.
func Content(t *model.Talent, pool []model.ContentPiece, limit int) []model.ContentPiece {
	if limit <= 0 {
		limit = DefaultContentLimit
	}

	var byLevel, byModule []model.ContentPiece
	for _, c := range pool {
		if !c.ExperienceLevel.Matches(t.ExperienceLevel) {
			continue
		}
		byLevel = append(byLevel, c)
		if len(t.SAPModules) > 0 && intersects(t.SAPModules, c.SAPModules) {
			byModule = append(byModule, c)
		}
	}

	out := byModule
	if len(out) == 0 {
		out = byLevel
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsAccentureAsset != b.IsAccentureAsset {
			return a.IsAccentureAsset
		}
		if a.EngagementCount != b.EngagementCount {
			return a.EngagementCount > b.EngagementCount
		}
		return a.ID < b.ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Challenge returns the active challenge at the talent's level with the
// fewest completions, lowest ID on ties. ok is false when none qualifies.
func Challenge(t *model.Talent, pool []model.Challenge) (model.Challenge, bool) {
	var (
		best  model.Challenge
		found bool
	)
	for _, c := range pool {
		if !c.IsActive || c.Difficulty != t.ExperienceLevel {
			continue
		}
		if !found || c.Completions < best.Completions ||
			(c.Completions == best.Completions && c.ID < best.ID) {
			best, found = c, true
		}
	}
	return best, found
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
