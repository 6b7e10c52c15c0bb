package profile_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/linguahub/internal/app/features/profile"
	"github.com/dalemusser/linguahub/internal/app/system/auth"
	"github.com/dalemusser/linguahub/internal/domain/models"
	"github.com/dalemusser/linguahub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestServeGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	org := fx.CreateOrganization(ctx, "Alpha School")
	p := fx.CreateStudent(ctx, "Ana Silva", "ana@test.com", org.ID)
	fx.CreateQuizAttempt(ctx, p.ID, org.ID, 7, 10)

	h := profile.NewHandler(db, zap.NewNop())

	req := httptest.NewRequest("GET", "/profile", nil)
	req = auth.WithTestUser(req, testutil.StudentUser(p.ID, org.ID))
	rec := httptest.NewRecorder()
	h.ServeGet(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		FullName  string `json:"full_name"`
		QuizStats struct {
			TotalScore int `json:"total_score"`
			Attempts   int `json:"attempts"`
		} `json:"quiz_stats"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.FullName != "Ana Silva" {
		t.Fatalf("full_name = %q", body.FullName)
	}
	if body.QuizStats.TotalScore != 7 || body.QuizStats.Attempts != 1 {
		t.Fatalf("quiz_stats = %+v, want 7 over 1", body.QuizStats)
	}
}

func TestServeUpdateSanitizesBio(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	org := fx.CreateOrganization(ctx, "Alpha School")
	p := fx.CreateStudent(ctx, "Ana Silva", "ana@test.com", org.ID)

	h := profile.NewHandler(db, zap.NewNop())

	body := `{"full_name":"<b>Ana</b> Campos","bio":"<p>Hola</p><script>alert('xss')</script>"}`
	req := httptest.NewRequest("PUT", "/profile", strings.NewReader(body))
	req = auth.WithTestUser(req, testutil.StudentUser(p.ID, org.ID))
	rec := httptest.NewRecorder()
	h.ServeUpdate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var got models.Profile
	if err := db.Collection("profiles").FindOne(ctx, bson.M{"_id": p.ID}).Decode(&got); err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if got.FullName != "Ana Campos" {
		t.Fatalf("full_name = %q, want tags stripped", got.FullName)
	}
	if strings.Contains(got.Bio, "script") {
		t.Fatalf("bio = %q, want script removed", got.Bio)
	}
	if !strings.Contains(got.Bio, "<p>Hola</p>") {
		t.Fatalf("bio = %q, want safe HTML kept", got.Bio)
	}
}

func TestServeGetUnauthorized(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := profile.NewHandler(db, zap.NewNop())

	req := httptest.NewRequest("GET", "/profile", nil)
	rec := httptest.NewRecorder()
	h.ServeGet(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
