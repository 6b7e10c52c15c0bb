package leaders_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/linguahub/internal/app/features/leaders"
	"github.com/dalemusser/linguahub/internal/app/system/auth"
	"github.com/dalemusser/linguahub/internal/testutil"
	"go.uber.org/zap"
)

func TestServeLeaderboard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	org := fx.CreateOrganization(ctx, "Alpha School")
	ana := fx.CreateStudent(ctx, "Ana Silva", "ana@test.com", org.ID)
	ben := fx.CreateStudent(ctx, "Ben Okafor", "ben@test.com", org.ID)
	fx.CreateQuizAttempt(ctx, ana.ID, org.ID, 9, 10)
	fx.CreateQuizAttempt(ctx, ben.ID, org.ID, 4, 10)

	h := leaders.NewHandler(db, zap.NewNop())

	req := httptest.NewRequest("GET", "/leaderboard", nil)
	req = auth.WithTestUser(req, testutil.StudentUser(ben.ID, org.ID))
	rec := httptest.NewRecorder()
	h.ServeLeaderboard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Rows []struct {
			FullName   string `json:"full_name"`
			TotalScore int    `json:"total_score"`
		} `json:"rows"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(body.Rows))
	}
	if body.Rows[0].FullName != "Ana Silva" || body.Rows[0].TotalScore != 9 {
		t.Fatalf("rows[0] = %+v, want Ana on top", body.Rows[0])
	}
}

func TestServeLeaderboardWithoutOrg(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := leaders.NewHandler(db, zap.NewNop())

	req := httptest.NewRequest("GET", "/leaderboard", nil)
	req = auth.WithTestUser(req, testutil.AdminUser()) // no org set
	rec := httptest.NewRecorder()
	h.ServeLeaderboard(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
