package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/archfoundry/archcomp-backend/pkg/migrate"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestCartsMigrationEnforcesOneActiveCart(t *testing.T) {
	content := readMigration(t, "*_create_carts.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS carts",
		"ON carts (user_id) WHERE status = 'active'",
		"FOREIGN KEY (cart_id) REFERENCES carts(id) ON DELETE CASCADE",
		"CHECK (subtotal_cents >= 0)",
		"DROP TABLE IF EXISTS cart_items",
	}
	for _, want := range checks {
		if !strings.Contains(content, want) {
			t.Errorf("carts migration missing %q", want)
		}
	}
}

func TestSubmissionsMigrationKeepsPublishedValidated(t *testing.T) {
	content := readMigration(t, "*_create_registrations_submissions.sql")

	checks := []string{
		"CHECK (status <> 'published' OR is_validated)",
		"idx_registrations_number",
		"ON registrations (display_code) WHERE display_code IS NOT NULL",
		"idx_submissions_registration_number",
	}
	for _, want := range checks {
		if !strings.Contains(content, want) {
			t.Errorf("registrations migration missing %q", want)
		}
	}
}

func TestJuryMigrationBoundsSubScores(t *testing.T) {
	content := readMigration(t, "*_create_jury.sql")

	checks := []string{
		"CHECK (concept_clarity BETWEEN 0 AND 15)",
		"CHECK (design_resolution BETWEEN 0 AND 20)",
		"CHECK (innovation BETWEEN 0 AND 5)",
		"idx_jury_scores_member_registration",
	}
	for _, want := range checks {
		if !strings.Contains(content, want) {
			t.Errorf("jury migration missing %q", want)
		}
	}
}

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("shipped migrations should validate: %v", err)
	}
}
