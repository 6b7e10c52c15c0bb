package orgstore_test

import (
	"testing"

	orgstore "github.com/dalemusser/linguahub/internal/app/store/organizations"
	"github.com/dalemusser/linguahub/internal/app/system/indexes"
	"github.com/dalemusser/linguahub/internal/app/system/status"
	"github.com/dalemusser/linguahub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func newTestStore(t *testing.T) (*orgstore.Store, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	return orgstore.New(db), db
}

func TestCreateFoldsNameAndRejectsDuplicates(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org, err := s.Create(ctx, "  École Lumière  ", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if org.Name != "École Lumière" {
		t.Fatalf("Name = %q, want trimmed", org.Name)
	}
	if org.NameCI != "ecole lumiere" {
		t.Fatalf("NameCI = %q, want folded", org.NameCI)
	}
	if org.Status != status.Active {
		t.Fatalf("Status = %q, want active", org.Status)
	}

	// Same name with different case and accents collides.
	if _, err := s.Create(ctx, "ECOLE LUMIERE", ""); err != orgstore.ErrDuplicateName {
		t.Fatalf("duplicate err = %v, want ErrDuplicateName", err)
	}
}

func TestGetByIDMissing(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org, err := s.Create(ctx, "Solo", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := s.GetByID(ctx, org.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Solo" {
		t.Fatalf("Name = %q", got.Name)
	}
}

func TestListActiveSortsAndFilters(t *testing.T) {
	s, db := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, name := range []string{"Zen Academy", "Aula Uno"} {
		if _, err := s.Create(ctx, name, ""); err != nil {
			t.Fatalf("Create %q: %v", name, err)
		}
	}
	closed, err := s.Create(ctx, "Closed School", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := db.Collection("organizations").UpdateByID(ctx, closed.ID,
		bson.M{"$set": bson.M{"status": "inactive"}}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	out, err := s.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d orgs, want 2", len(out))
	}
	if out[0].Name != "Aula Uno" || out[1].Name != "Zen Academy" {
		t.Fatalf("order = %q, %q; want name order", out[0].Name, out[1].Name)
	}
}
