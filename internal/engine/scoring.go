package engine

import (
	"sort"
	"strings"

	"github.com/devcareer/compass-backend/internal/roles"
)

const DefaultMinOverlap = 0.2

// scoreRoles is stage 3: measure the seed skill set against every catalog
// role. Overlap counts core skills only; advanced skills differentiate
// seniority and are reported as a separate missing list, never in the
// denominator.
func scoreRoles(catalog *roles.Catalog, currentSkills []string, minOverlap float64) []RoleMatch {
	if minOverlap <= 0 {
		minOverlap = DefaultMinOverlap
	}
	held := make(map[string]struct{}, len(currentSkills))
	for _, s := range currentSkills {
		held[normalizeSkill(s)] = struct{}{}
	}

	var matches []RoleMatch
	for _, role := range catalog.Roles() {
		var missingCore []string
		overlapCount := 0
		for _, core := range role.CoreSkills {
			if _, ok := held[normalizeSkill(core)]; ok {
				overlapCount++
			} else {
				missingCore = append(missingCore, core)
			}
		}
		overlap := float64(overlapCount) / float64(len(role.CoreSkills))
		if overlap < minOverlap {
			continue
		}

		var missingAdvanced []string
		for _, adv := range role.AdvancedSkills {
			if _, ok := held[normalizeSkill(adv)]; !ok {
				missingAdvanced = append(missingAdvanced, adv)
			}
		}

		matches = append(matches, RoleMatch{
			Role:                  role.Name,
			Description:           role.Description,
			Overlap:               overlap,
			CurrentSkills:         append([]string(nil), currentSkills...),
			MissingCoreSkills:     missingCore,
			MissingAdvancedSkills: missingAdvanced,
			Difficulty:            transitionDifficulty(overlap),
			EstimatedTime:         transitionTime(len(missingCore)),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Overlap == matches[j].Overlap {
			return matches[i].Role < matches[j].Role
		}
		return matches[i].Overlap > matches[j].Overlap
	})
	return matches
}

func transitionDifficulty(overlap float64) string {
	switch {
	case overlap >= 0.7:
		return "Easy"
	case overlap >= 0.4:
		return "Moderate"
	default:
		return "Challenging"
	}
}

func transitionTime(missingCount int) string {
	switch {
	case missingCount <= 2:
		return "3-6 months"
	case missingCount <= 5:
		return "6-12 months"
	default:
		return "12-18 months"
	}
}

func normalizeSkill(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
