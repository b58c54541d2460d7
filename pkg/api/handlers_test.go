package api

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Belafone/VivSync/pkg/crypto"
	"github.com/Belafone/VivSync/pkg/database"
	"github.com/Belafone/VivSync/pkg/models"
)

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()

	store, err := database.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatal(err)
	}
	keeper, err := crypto.New(key)
	if err != nil {
		t.Fatalf("crypto.New() error = %v", err)
	}

	version := models.VersionInfo{Version: "1.0.2", DownloadURL: "https://vivsync.com/download"}
	return NewHandlers(store, keeper, nil, zap.NewNop(), "https://vivsync.com", 30, version)
}

func postSync(t *testing.T, h *Handlers, req models.SyncRequest, username string) models.SyncResponse {
	t.Helper()

	body, _ := json.Marshal(req)
	r := httptest.NewRequest("POST", "/api/sync", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if username != "" {
		r.Header.Set("X-Username", username)
	}
	w := httptest.NewRecorder()
	h.Router().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/sync status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp models.SyncResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func testDienste() []models.Dienst {
	return []models.Dienst{
		{Date: "2025-04-02", Code: "D33", Position: "Oben", DutyTime: "06:00 - 11:30", Username: "mmuster"},
		{Date: "2025-04-03", Code: "A102", Position: "Unten", DutyTime: "13:30 - 21:30", Username: "mmuster"},
	}
}

func TestSyncAndCalendarRoundtrip(t *testing.T) {
	h := newTestHandlers(t)

	resp := postSync(t, h, models.SyncRequest{Dienste: testDienste()}, "")

	if resp.Status != "success" {
		t.Fatalf("Status = %q, want success", resp.Status)
	}
	if resp.ExpiresIn != "30 Tage" {
		t.Errorf("ExpiresIn = %q, want %q", resp.ExpiresIn, "30 Tage")
	}

	wantURL := "https://vivsync.com/calendar/" + UserToken("mmuster")
	if resp.IcalURL != wantURL {
		t.Errorf("IcalURL = %q, want %q", resp.IcalURL, wantURL)
	}

	r := httptest.NewRequest("GET", "/calendar/"+UserToken("mmuster"), nil)
	w := httptest.NewRecorder()
	h.Router().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("GET /calendar status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, ".ics") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	doc := w.Body.String()
	for _, want := range []string{"BEGIN:VCALENDAR", "SUMMARY:D33 - Oben", "SUMMARY:A102 - Unten"} {
		if !strings.Contains(doc, want) {
			t.Errorf("calendar missing %q", want)
		}
	}
}

func TestSyncAnonymousToken(t *testing.T) {
	h := newTestHandlers(t)

	dienste := testDienste()
	for i := range dienste {
		dienste[i].Username = ""
	}
	resp := postSync(t, h, models.SyncRequest{Dienste: dienste}, "")

	token := resp.IcalURL[strings.LastIndex(resp.IcalURL, "/")+1:]
	if len(token) != 16 {
		t.Errorf("anonymous token = %q, want 16 hex characters", token)
	}
}

func TestSyncEmptyRoster(t *testing.T) {
	h := newTestHandlers(t)

	body, _ := json.Marshal(models.SyncRequest{})
	r := httptest.NewRequest("POST", "/api/sync", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Router().ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCalendarExpiry(t *testing.T) {
	h := newTestHandlers(t)

	created := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return created }
	postSync(t, h, models.SyncRequest{Dienste: testDienste()}, "")

	url := "/calendar/" + UserToken("mmuster")

	// Still inside the 30-day window.
	h.now = func() time.Time { return created.AddDate(0, 0, 29) }
	w := httptest.NewRecorder()
	h.Router().ServeHTTP(w, httptest.NewRequest("GET", url, nil))
	if w.Code != http.StatusOK {
		t.Errorf("status at day 29 = %d, want 200", w.Code)
	}

	// Past the window.
	h.now = func() time.Time { return created.AddDate(0, 0, 31) }
	w = httptest.NewRecorder()
	h.Router().ServeHTTP(w, httptest.NewRequest("GET", url, nil))
	if w.Code != http.StatusGone {
		t.Errorf("status at day 31 = %d, want 410", w.Code)
	}
	if !strings.Contains(w.Body.String(), "abgelaufen") {
		t.Errorf("410 body = %q, want the expiry message", w.Body.String())
	}
}

func TestCalendarUnknownToken(t *testing.T) {
	h := newTestHandlers(t)

	w := httptest.NewRecorder()
	h.Router().ServeHTTP(w, httptest.NewRequest("GET", "/calendar/deadbeefdeadbeef", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Token nicht gefunden") {
		t.Errorf("404 body = %q", w.Body.String())
	}
}

func TestSyncUsernameFromHeader(t *testing.T) {
	h := newTestHandlers(t)

	dienste := testDienste()
	for i := range dienste {
		dienste[i].Username = ""
	}
	resp := postSync(t, h, models.SyncRequest{Dienste: dienste}, "mmuster")

	wantURL := "https://vivsync.com/calendar/" + UserToken("mmuster")
	if resp.IcalURL != wantURL {
		t.Errorf("IcalURL = %q, want %q", resp.IcalURL, wantURL)
	}
}

func TestResyncReplacesCalendar(t *testing.T) {
	h := newTestHandlers(t)

	postSync(t, h, models.SyncRequest{Dienste: testDienste()}, "")

	updated := []models.Dienst{
		{Date: "2025-04-02", Code: "N1", Username: "mmuster"},
	}
	postSync(t, h, models.SyncRequest{Dienste: updated}, "")

	w := httptest.NewRecorder()
	h.Router().ServeHTTP(w, httptest.NewRequest("GET", "/calendar/"+UserToken("mmuster"), nil))

	doc := w.Body.String()
	if !strings.Contains(doc, "SUMMARY:N1") {
		t.Error("calendar does not contain the re-synced shift")
	}
	if strings.Contains(doc, "SUMMARY:D33") {
		t.Error("calendar still contains the replaced shift")
	}
}

func TestVersionEndpoint(t *testing.T) {
	h := newTestHandlers(t)

	w := httptest.NewRecorder()
	h.Router().ServeHTTP(w, httptest.NewRequest("GET", "/api/version", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var info models.VersionInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if info.Version != "1.0.2" {
		t.Errorf("Version = %q, want 1.0.2", info.Version)
	}
}

func TestStartRunWithoutTemporal(t *testing.T) {
	h := newTestHandlers(t)

	r := httptest.NewRequest("POST", "/api/runs", strings.NewReader(`{"upload":true}`))
	w := httptest.NewRecorder()
	h.Router().ServeHTTP(w, r)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
