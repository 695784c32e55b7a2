package roles

import (
	"os"
	"testing"
)

func TestLoadDefaultCatalog(t *testing.T) {
	c, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if got := len(c.Roles()); got != 6 {
		t.Fatalf("roles: want=6 got=%d", got)
	}

	role, ok := c.Role("Data Scientist")
	if !ok {
		t.Fatalf("Data Scientist role missing")
	}
	if got := len(role.CoreSkills); got != 5 {
		t.Fatalf("core skills: want=5 got=%d", got)
	}
	want := map[string]bool{"Python": true, "R": true, "SQL": true, "Statistics": true, "Machine Learning": true}
	for _, s := range role.CoreSkills {
		if !want[s] {
			t.Fatalf("unexpected core skill %q", s)
		}
	}
	if len(role.AdvancedSkills) == 0 {
		t.Fatalf("advanced skills missing")
	}
}

func TestRoleLookupCaseInsensitive(t *testing.T) {
	c, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if _, ok := c.Role("devops engineer"); !ok {
		t.Fatalf("case-insensitive lookup failed")
	}
	if _, ok := c.Role("Street Performer"); ok {
		t.Fatalf("unknown role resolved")
	}
}

func TestResourcesFor(t *testing.T) {
	c, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	curated := c.ResourcesFor("python")
	if len(curated) != 3 || curated[0] != "Python.org" {
		t.Fatalf("curated resources: %v", curated)
	}
	fallback := c.ResourcesFor("COBOL")
	if len(fallback) != 3 || fallback[0] != "Online Documentation" {
		t.Fatalf("fallback resources: %v", fallback)
	}
}

func TestParseRejectsBadCatalogs(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"empty", "roles: []"},
		{"unnamed role", "roles:\n  - core_skills: [Go]"},
		{"no core skills", "roles:\n  - name: Builder"},
		{"duplicate", "roles:\n  - name: Builder\n    core_skills: [Go]\n  - name: builder\n    core_skills: [Rust]"},
	}
	for _, tc := range cases {
		if _, err := Parse([]byte(tc.yaml)); err == nil {
			t.Fatalf("%s: expected error, got nil", tc.name)
		}
	}
}

func TestLoadCatalogFromPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/roles.yaml"
	data := "roles:\n  - name: Platform Engineer\n    core_skills: [Go, Kubernetes]\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	t.Setenv("ROLE_CATALOG_PATH", path)

	c, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if got := len(c.Roles()); got != 1 {
		t.Fatalf("roles: want=1 got=%d", got)
	}
	if _, ok := c.Role("Platform Engineer"); !ok {
		t.Fatalf("Platform Engineer role missing")
	}
}
