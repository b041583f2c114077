package migrations_test

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/JaimeStill/callbook/internal/migrations"
)

func TestFS_PairsUpAndDown(t *testing.T) {
	entries, err := fs.ReadDir(migrations.FS, "sql")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no migrations embedded")
	}

	ups := make(map[string]bool)
	downs := make(map[string]bool)
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %s", name)
		}
	}

	for v := range ups {
		if !downs[v] {
			t.Errorf("migration %s has no down script", v)
		}
	}
	for v := range downs {
		if !ups[v] {
			t.Errorf("migration %s has no up script", v)
		}
	}
}

func TestFS_SeedsDefaultCluster(t *testing.T) {
	data, err := fs.ReadFile(migrations.FS, "sql/000001_initial_schema.up.sql")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "('general',") {
		t.Error("initial schema must seed the general cluster")
	}
}

func TestFS_FactsMigrationExtendsPromptStages(t *testing.T) {
	data, err := fs.ReadFile(migrations.FS, "sql/000002_facts.up.sql")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"CREATE TABLE facts", "new_facts", "'extract_facts'", "'extract_instructions'"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("facts migration missing %s", want)
		}
	}
}
