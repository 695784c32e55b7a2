// Package roles holds the target-role catalog: the named roles a person can
// be matched against, each with core and advanced skill lists, plus curated
// learning resources per skill. The default catalog ships embedded; deploys
// can override it with their own YAML file.
package roles

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_roles.yaml
var defaultCatalogYAML []byte

type Role struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	// CoreSkills define the role: fit is measured against these. AdvancedSkills
	// differentiate seniors and are reported separately, never counted in fit.
	CoreSkills     []string `yaml:"core_skills"`
	AdvancedSkills []string `yaml:"advanced_skills"`
	Tools          []string `yaml:"tools"`
}

type Catalog struct {
	roles     []Role
	byName    map[string]*Role
	resources map[string][]string
}

type catalogDoc struct {
	Roles             []Role              `yaml:"roles"`
	LearningResources map[string][]string `yaml:"learning_resources"`
}

// Parse builds a catalog from YAML. Role names must be unique and every role
// needs at least one core skill.
func Parse(data []byte) (*Catalog, error) {
	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse role catalog: %w", err)
	}
	if len(doc.Roles) == 0 {
		return nil, fmt.Errorf("role catalog has no roles")
	}

	c := &Catalog{
		roles:     doc.Roles,
		byName:    make(map[string]*Role, len(doc.Roles)),
		resources: make(map[string][]string, len(doc.LearningResources)),
	}
	for i := range c.roles {
		role := &c.roles[i]
		name := strings.TrimSpace(role.Name)
		if name == "" {
			return nil, fmt.Errorf("role catalog: role %d has no name", i)
		}
		if len(role.CoreSkills) == 0 {
			return nil, fmt.Errorf("role catalog: role %q has no core skills", name)
		}
		key := normalize(name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("role catalog: duplicate role %q", name)
		}
		c.byName[key] = role
	}
	for skill, items := range doc.LearningResources {
		c.resources[normalize(skill)] = items
	}
	return c, nil
}

// LoadDefault returns the embedded catalog, or the file named by
// ROLE_CATALOG_PATH when that variable is set.
func LoadDefault() (*Catalog, error) {
	if path := strings.TrimSpace(os.Getenv("ROLE_CATALOG_PATH")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read role catalog %s: %w", path, err)
		}
		return Parse(data)
	}
	return Parse(defaultCatalogYAML)
}

func (c *Catalog) Roles() []Role { return c.roles }

func (c *Catalog) Role(name string) (Role, bool) {
	r, ok := c.byName[normalize(name)]
	if !ok {
		return Role{}, false
	}
	return *r, true
}

// ResourcesFor returns curated learning resources for a skill, or generic
// fallbacks when nothing is curated.
func (c *Catalog) ResourcesFor(skill string) []string {
	if items, ok := c.resources[normalize(skill)]; ok && len(items) > 0 {
		return items
	}
	return []string{"Online Documentation", "YouTube Tutorials", "Community Forums"}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
