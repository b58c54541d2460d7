package syncclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Belafone/VivSync/pkg/models"
)

func TestPublish(t *testing.T) {
	var gotReq models.SyncRequest
	var gotHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Username")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(models.SyncResponse{
			Status:    "success",
			IcalURL:   "https://vivsync.com/calendar/abc",
			ExpiresIn: "30 Tage",
		})
	}))
	defer server.Close()

	c := New(server.URL)
	result, err := c.Publish(context.Background(), []models.Dienst{
		{Date: "2025-04-02", Code: "D33"},
	}, "mmuster", 30)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if result.IcalURL != "https://vivsync.com/calendar/abc" {
		t.Errorf("IcalURL = %q", result.IcalURL)
	}
	if result.ExpiresIn != "30 Tage" {
		t.Errorf("ExpiresIn = %q", result.ExpiresIn)
	}
	if gotHeader != "mmuster" {
		t.Errorf("X-Username header = %q, want mmuster", gotHeader)
	}
	if gotReq.ExpiryDays != 30 {
		t.Errorf("ExpiryDays = %d, want 30", gotReq.ExpiryDays)
	}
	if len(gotReq.Dienste) != 1 || gotReq.Dienste[0].Username != "mmuster" {
		t.Errorf("Dienste = %+v, want the username stamped on every record", gotReq.Dienste)
	}
}

func TestPublishServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("kaputt"))
	}))
	defer server.Close()

	c := New(server.URL)
	_, err := c.Publish(context.Background(), nil, "", 30)
	if err == nil {
		t.Fatal("Publish() error = nil for a 500 response")
	}
}

func TestPublishRejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.SyncResponse{Status: "error", Message: "Keine Dienste übermittelt"})
	}))
	defer server.Close()

	c := New(server.URL)
	_, err := c.Publish(context.Background(), nil, "", 30)
	if err == nil {
		t.Fatal("Publish() error = nil for a rejected sync")
	}
}
