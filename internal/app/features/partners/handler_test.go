package partners_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/linguahub/internal/app/features/partners"
	"github.com/dalemusser/linguahub/internal/app/notify"
	"github.com/dalemusser/linguahub/internal/app/system/auth"
	"github.com/dalemusser/linguahub/internal/app/system/indexes"
	"github.com/dalemusser/linguahub/internal/domain/models"
	"github.com/dalemusser/linguahub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*partners.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	hub := notify.NewHub(8, zap.NewNop())
	return partners.NewHandler(db, hub, zap.NewNop()), testutil.NewFixtures(t, db)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env.Error
}

func TestServeSubmit(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Alpha School")
	sender := fx.CreateStudent(ctx, "Ana Silva", "ana@test.com", org.ID)
	receiver := fx.CreateStudent(ctx, "Ben Okafor", "ben@test.com", org.ID)

	body := `{"receiver_id":"` + receiver.ID.Hex() + `"}`
	req := httptest.NewRequest("POST", "/partners/requests", strings.NewReader(body))
	req = auth.WithTestUser(req, testutil.StudentUser(sender.ID, org.ID))
	rec := httptest.NewRecorder()
	h.ServeSubmit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var created models.PartnerRequest
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Status != models.RequestPending {
		t.Fatalf("status = %q, want pending", created.Status)
	}

	// Duplicate maps to the envelope code and hands back the pending id.
	req = httptest.NewRequest("POST", "/partners/requests", strings.NewReader(body))
	req = auth.WithTestUser(req, testutil.StudentUser(sender.ID, org.ID))
	rec = httptest.NewRecorder()
	h.ServeSubmit(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", rec.Code)
	}
	var dup struct {
		Error     string `json:"error"`
		RequestID string `json:"request_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&dup); err != nil {
		t.Fatalf("decode duplicate body: %v", err)
	}
	if dup.Error != "duplicate_pending" {
		t.Fatalf("envelope = %q, want duplicate_pending", dup.Error)
	}
	if dup.RequestID != created.ID.Hex() {
		t.Fatalf("request_id = %q, want existing %q", dup.RequestID, created.ID.Hex())
	}
}

func TestServeSubmitSelf(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Alpha School")
	p := fx.CreateStudent(ctx, "Ana Silva", "ana@test.com", org.ID)

	body := `{"receiver_id":"` + p.ID.Hex() + `"}`
	req := httptest.NewRequest("POST", "/partners/requests", strings.NewReader(body))
	req = auth.WithTestUser(req, testutil.StudentUser(p.ID, org.ID))
	rec := httptest.NewRecorder()
	h.ServeSubmit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := decodeEnvelope(t, rec); code != "self_request" {
		t.Fatalf("envelope = %q, want self_request", code)
	}
}

func TestServeRespondAccept(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Alpha School")
	sender := fx.CreateStudent(ctx, "Ana Silva", "ana@test.com", org.ID)
	receiver := fx.CreateStudent(ctx, "Ben Okafor", "ben@test.com", org.ID)
	pending := fx.CreatePendingRequest(ctx, sender.ID, receiver.ID)

	req := httptest.NewRequest("POST", "/partners/requests/"+pending.ID.Hex()+"/respond",
		strings.NewReader(`{"action":"accept"}`))
	req = testutil.WithChiURLParam(req, "id", pending.ID.Hex())
	req = auth.WithTestUser(req, testutil.StudentUser(receiver.ID, org.ID))
	rec := httptest.NewRecorder()
	h.ServeRespond(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Status string `json:"status"`
		Group  struct {
			MemberCount int `json:"member_count"`
		} `json:"group"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != models.RequestAccepted || body.Group.MemberCount != 2 {
		t.Fatalf("body = %+v, want accepted with a two-member group", body)
	}
}

func TestServeRespondWrongActor(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Alpha School")
	sender := fx.CreateStudent(ctx, "Ana Silva", "ana@test.com", org.ID)
	receiver := fx.CreateStudent(ctx, "Ben Okafor", "ben@test.com", org.ID)
	pending := fx.CreatePendingRequest(ctx, sender.ID, receiver.ID)

	req := httptest.NewRequest("POST", "/partners/requests/"+pending.ID.Hex()+"/respond",
		strings.NewReader(`{"action":"accept"}`))
	req = testutil.WithChiURLParam(req, "id", pending.ID.Hex())
	req = auth.WithTestUser(req, testutil.StudentUser(sender.ID, org.ID))
	rec := httptest.NewRecorder()
	h.ServeRespond(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if code := decodeEnvelope(t, rec); code != "not_receiver" {
		t.Fatalf("envelope = %q, want not_receiver", code)
	}
}

func TestServeWithdraw(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Alpha School")
	sender := fx.CreateStudent(ctx, "Ana Silva", "ana@test.com", org.ID)
	receiver := fx.CreateStudent(ctx, "Ben Okafor", "ben@test.com", org.ID)
	pending := fx.CreatePendingRequest(ctx, sender.ID, receiver.ID)

	req := httptest.NewRequest("DELETE", "/partners/requests/"+pending.ID.Hex(), nil)
	req = testutil.WithChiURLParam(req, "id", pending.ID.Hex())
	req = auth.WithTestUser(req, testutil.StudentUser(sender.ID, org.ID))
	rec := httptest.NewRecorder()
	h.ServeWithdraw(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204: %s", rec.Code, rec.Body.String())
	}

	n, err := fx.DB().Collection("partner_requests").CountDocuments(ctx, bson.M{"_id": pending.ID})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatal("withdrawn request should be deleted")
	}

	// Gone now, so a repeat withdraw is a not-pending conflict.
	req = httptest.NewRequest("DELETE", "/partners/requests/"+pending.ID.Hex(), nil)
	req = testutil.WithChiURLParam(req, "id", pending.ID.Hex())
	req = auth.WithTestUser(req, testutil.StudentUser(sender.ID, org.ID))
	rec = httptest.NewRecorder()
	h.ServeWithdraw(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second withdraw status = %d, want 409", rec.Code)
	}
	if code := decodeEnvelope(t, rec); code != "not_pending" {
		t.Fatalf("envelope = %q, want not_pending", code)
	}
}

func TestServeIncoming(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Alpha School")
	sender := fx.CreateStudent(ctx, "Ana Silva", "ana@test.com", org.ID)
	receiver := fx.CreateStudent(ctx, "Ben Okafor", "ben@test.com", org.ID)
	fx.CreatePendingRequest(ctx, sender.ID, receiver.ID)

	req := httptest.NewRequest("GET", "/partners/requests/incoming", nil)
	req = auth.WithTestUser(req, testutil.StudentUser(receiver.ID, org.ID))
	rec := httptest.NewRecorder()
	h.ServeIncoming(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Requests []struct {
			SenderName string `json:"sender_name"`
		} `json:"requests"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Requests) != 1 || body.Requests[0].SenderName != "Ana Silva" {
		t.Fatalf("body = %+v, want one request from Ana Silva", body)
	}
}

func TestServeDirectory(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Alpha School")
	viewer := fx.CreateStudent(ctx, "Ana Silva", "ana@test.com", org.ID)
	free := fx.CreateStudent(ctx, "Ben Okafor", "ben@test.com", org.ID)
	asked := fx.CreateStudent(ctx, "Chloe Park", "chloe@test.com", org.ID)
	fx.CreatePendingRequest(ctx, viewer.ID, asked.ID)

	// A full formation the viewer cannot invite into.
	m1 := fx.CreateStudent(ctx, "D One", "d1@test.com", org.ID)
	m2 := fx.CreateStudent(ctx, "D Two", "d2@test.com", org.ID)
	m3 := fx.CreateStudent(ctx, "D Three", "d3@test.com", org.ID)
	m4 := fx.CreateStudent(ctx, "D Four", "d4@test.com", org.ID)
	fx.CreateGroup(ctx, org.ID, m1.ID, m2.ID, m3.ID, m4.ID)

	req := httptest.NewRequest("GET", "/partners/directory", nil)
	req = auth.WithTestUser(req, testutil.StudentUser(viewer.ID, org.ID))
	rec := httptest.NewRecorder()
	h.ServeDirectory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Partners []struct {
			ID        string `json:"id"`
			InGroup   bool   `json:"in_group"`
			Pending   bool   `json:"pending"`
			CanInvite bool   `json:"can_invite"`
		} `json:"partners"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	byID := map[string]struct {
		InGroup   bool
		Pending   bool
		CanInvite bool
	}{}
	for _, e := range body.Partners {
		if e.ID == viewer.ID.Hex() {
			t.Fatal("viewer must not appear in their own directory")
		}
		byID[e.ID] = struct {
			InGroup   bool
			Pending   bool
			CanInvite bool
		}{e.InGroup, e.Pending, e.CanInvite}
	}

	if e := byID[free.ID.Hex()]; e.Pending || e.InGroup || !e.CanInvite {
		t.Fatalf("free learner flags = %+v, want invitable", e)
	}
	if e := byID[asked.ID.Hex()]; !e.Pending || e.CanInvite {
		t.Fatalf("asked learner flags = %+v, want pending and not invitable", e)
	}
	if e := byID[m1.ID.Hex()]; !e.InGroup || e.CanInvite {
		t.Fatalf("full-group member flags = %+v, want grouped and not invitable", e)
	}
}

func TestServeGroup(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Alpha School")
	a := fx.CreateStudent(ctx, "Ana Silva", "ana@test.com", org.ID)
	b := fx.CreateStudent(ctx, "Ben Okafor", "ben@test.com", org.ID)
	loner := fx.CreateStudent(ctx, "Chloe Park", "chloe@test.com", org.ID)
	g := fx.CreateGroup(ctx, org.ID, a.ID, b.ID)

	req := httptest.NewRequest("GET", "/partners/group", nil)
	req = auth.WithTestUser(req, testutil.StudentUser(a.ID, org.ID))
	rec := httptest.NewRecorder()
	h.ServeGroup(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Group *struct {
			ID string `json:"id"`
		} `json:"group"`
		Members []struct {
			FullName string `json:"full_name"`
		} `json:"members"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Group == nil || body.Group.ID != g.ID.Hex() {
		t.Fatalf("group = %+v, want %s", body.Group, g.ID.Hex())
	}
	if len(body.Members) != 2 {
		t.Fatalf("members = %d, want 2", len(body.Members))
	}

	// Ungrouped viewer gets a null group.
	req = httptest.NewRequest("GET", "/partners/group", nil)
	req = auth.WithTestUser(req, testutil.StudentUser(loner.ID, org.ID))
	rec = httptest.NewRecorder()
	h.ServeGroup(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ungrouped status = %d, want 200", rec.Code)
	}
	var ungrouped struct {
		Group *json.RawMessage `json:"group"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&ungrouped); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ungrouped.Group != nil && string(*ungrouped.Group) != "null" {
		t.Fatalf("group = %s, want null", string(*ungrouped.Group))
	}
}

func TestServeSubmitInvalidReceiver(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Alpha School")
	sender := fx.CreateStudent(ctx, "Ana Silva", "ana@test.com", org.ID)

	// Well-formed id that matches no profile.
	body := `{"receiver_id":"` + primitive.NewObjectID().Hex() + `"}`
	req := httptest.NewRequest("POST", "/partners/requests", strings.NewReader(body))
	req = auth.WithTestUser(req, testutil.StudentUser(sender.ID, org.ID))
	rec := httptest.NewRecorder()
	h.ServeSubmit(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	// Malformed id.
	req = httptest.NewRequest("POST", "/partners/requests", strings.NewReader(`{"receiver_id":"nope"}`))
	req = auth.WithTestUser(req, testutil.StudentUser(sender.ID, org.ID))
	rec = httptest.NewRecorder()
	h.ServeSubmit(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
