package embeddings

import (
	"sort"
	"strings"

	"github.com/devcareer/compass-backend/internal/domain"
)

// Text composition for entity embeddings. Each helper flattens one record
// into the string fed to Embed; field order is fixed so the deterministic
// fallback stays stable across rebuilds.

func SkillText(s domain.SkillRecord) string {
	return joinFields(s.Name, s.Category, s.Description)
}

func PersonText(p domain.PersonRecord, repos []domain.RepositoryRecord, skills []domain.SkillRecord) string {
	parts := []string{p.Handle, p.Name, p.Bio, p.Location, p.Company}

	langs := make([]string, 0, len(repos))
	topics := make([]string, 0)
	for _, r := range repos {
		if r.Language != "" {
			langs = append(langs, r.Language)
		}
		topics = append(topics, r.Topics...)
	}
	parts = append(parts, strings.Join(langs, " "), strings.Join(topics, " "))

	names := make([]string, 0, len(skills))
	for _, s := range skills {
		names = append(names, s.Name)
	}
	parts = append(parts, strings.Join(names, " "))

	return joinFields(parts...)
}

func RepositoryText(r domain.RepositoryRecord) string {
	parts := []string{r.Name, r.Description, r.Language}

	if len(r.Languages) > 0 {
		langs := make([]string, 0, len(r.Languages))
		for lang := range r.Languages {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		parts = append(parts, strings.Join(langs, " "))
	}
	parts = append(parts, strings.Join(r.Topics, " "))

	// Recent activity text is capped so one chatty repository does not drown
	// out its metadata.
	activity := r.RecentActivity
	if len(activity) > 10 {
		activity = activity[:10]
	}
	parts = append(parts, strings.Join(activity, " "))

	return joinFields(parts...)
}

func PostingText(p domain.PostingRecord) string {
	return joinFields(
		p.Title,
		p.Company,
		p.Description,
		strings.Join(p.RequiredSkills, " "),
		strings.Join(p.OptionalSkills, " "),
		p.Location,
	)
}

func joinFields(fields ...string) string {
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}
