package lessonstore_test

import (
	"testing"

	lessonstore "github.com/dalemusser/linguahub/internal/app/store/lessons"
	"github.com/dalemusser/linguahub/internal/app/system/indexes"
	"github.com/dalemusser/linguahub/internal/domain/models"
	"github.com/dalemusser/linguahub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func newTestStore(t *testing.T) *lessonstore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	return lessonstore.New(db)
}

// seedCurriculum builds two categories with two lessons each, interleaved by
// order_index so grouping has to preserve per-category order.
func seedCurriculum(t *testing.T, s *lessonstore.Store) []models.Lesson {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	syntax, err := s.CreateCategory(ctx, "English Syntax", "Syntaxe anglaise")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	oral, err := s.CreateCategory(ctx, "French Oral", "Oral français")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	seed := []models.Lesson{
		{Title: "Word Order", CategoryID: &syntax.ID, OrderIndex: 1, DurationMinutes: 12},
		{Title: "Liaison Basics", CategoryID: &oral.ID, OrderIndex: 2, VideoID: "abc123"},
		{Title: "Questions", CategoryID: &syntax.ID, OrderIndex: 3},
		{Title: "Nasal Vowels", CategoryID: &oral.ID, OrderIndex: 4},
	}
	out := make([]models.Lesson, 0, len(seed))
	for _, l := range seed {
		created, err := s.Create(ctx, l)
		if err != nil {
			t.Fatalf("Create %q: %v", l.Title, err)
		}
		out = append(out, created)
	}
	return out
}

func TestCatalogGroupsByCategoryWithCompletion(t *testing.T) {
	s := newTestStore(t)
	lessons := seedCurriculum(t, s)
	viewer := primitive.NewObjectID()

	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := s.MarkComplete(ctx, viewer, lessons[0].ID); err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}

	modules, progress, err := s.Catalog(ctx, viewer)
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if len(modules) != 2 {
		t.Fatalf("got %d modules, want 2", len(modules))
	}
	// Module order follows the first lesson of each category.
	if modules[0].Name != "English Syntax" || modules[1].Name != "French Oral" {
		t.Fatalf("module order = %q, %q", modules[0].Name, modules[1].Name)
	}
	if modules[0].NameFR != "Syntaxe anglaise" {
		t.Fatalf("NameFR = %q", modules[0].NameFR)
	}
	if len(modules[0].Lessons) != 2 || len(modules[1].Lessons) != 2 {
		t.Fatalf("lesson counts = %d, %d; want 2, 2", len(modules[0].Lessons), len(modules[1].Lessons))
	}
	if modules[0].Lessons[0].Title != "Word Order" || !modules[0].Lessons[0].Completed {
		t.Fatalf("first lesson = %+v, want completed Word Order", modules[0].Lessons[0])
	}
	if modules[0].Lessons[1].Completed {
		t.Fatal("Questions should not be completed")
	}
	if progress.Total != 4 || progress.Completed != 1 {
		t.Fatalf("progress = %+v, want 4 total / 1 completed", progress)
	}
}

func TestCatalogPutsUncategorizedInGeneral(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := s.Create(ctx, models.Lesson{Title: "Orientation", OrderIndex: 1}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	modules, _, err := s.Catalog(ctx, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if len(modules) != 1 || modules[0].Name != "General" {
		t.Fatalf("modules = %+v, want a single General module", modules)
	}
}

func TestMarkCompleteIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	lessons := seedCurriculum(t, s)
	viewer := primitive.NewObjectID()

	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 2; i++ {
		if err := s.MarkComplete(ctx, viewer, lessons[1].ID); err != nil {
			t.Fatalf("MarkComplete #%d: %v", i+1, err)
		}
	}

	progress, err := s.Progress(ctx, viewer)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if progress.Completed != 1 {
		t.Fatalf("completed = %d, want 1 after repeat marks", progress.Completed)
	}

	done, err := s.Completed(ctx, viewer, lessons[1].ID)
	if err != nil {
		t.Fatalf("Completed: %v", err)
	}
	if !done {
		t.Fatal("lesson should read as completed")
	}
}

func TestMarkCompleteUnknownLesson(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := s.MarkComplete(ctx, primitive.NewObjectID(), primitive.NewObjectID())
	if err != mongo.ErrNoDocuments {
		t.Fatalf("err = %v, want mongo.ErrNoDocuments", err)
	}
}

func TestProgressIsPerLearner(t *testing.T) {
	s := newTestStore(t)
	lessons := seedCurriculum(t, s)
	ana := primitive.NewObjectID()
	ben := primitive.NewObjectID()

	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := s.MarkComplete(ctx, ana, lessons[0].ID); err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}

	got, err := s.Progress(ctx, ben)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if got.Completed != 0 {
		t.Fatalf("ben completed = %d, want 0", got.Completed)
	}
}
