package whoop

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCycles_WalksEveryPage(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/cycle" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		cursor := r.URL.Query().Get("nextToken")
		requests = append(requests, cursor)

		w.Header().Set("Content-Type", "application/json")
		switch cursor {
		case "":
			fmt.Fprint(w, `{"records":[{"id":1},{"id":2}],"next_token":"page2"}`)
		case "page2":
			fmt.Fprint(w, `{"records":[{"id":3}],"next_token":"page3"}`)
		case "page3":
			fmt.Fprint(w, `{"records":[{"id":4}],"next_token":null}`)
		default:
			t.Errorf("unexpected cursor: %q", cursor)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	cycles, errFetch := client.Cycles(context.Background(), "token-1", "2026-08-01", "2026-08-07")
	if errFetch != nil {
		t.Fatalf("cycles: %v", errFetch)
	}

	if len(cycles) != 4 {
		t.Fatalf("expected 4 cycles, got %d", len(cycles))
	}
	for i, want := range []int64{1, 2, 3, 4} {
		if cycles[i].ID != want {
			t.Fatalf("expected cycle %d at index %d, got %d", want, i, cycles[i].ID)
		}
	}
	if len(requests) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(requests))
	}
	if requests[0] != "" || requests[1] != "page2" || requests[2] != "page3" {
		t.Fatalf("unexpected cursor order: %v", requests)
	}
}

func TestFetch_SetsDateRangeAndLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if got := query.Get("start"); got != "2026-08-01T00:00:00.000Z" {
			t.Errorf("unexpected start: %q", got)
		}
		if got := query.Get("end"); got != "2026-08-07T23:59:59.999Z" {
			t.Errorf("unexpected end: %q", got)
		}
		if got := query.Get("limit"); got != "25" {
			t.Errorf("unexpected limit: %q", got)
		}
		fmt.Fprint(w, `{"records":[],"next_token":null}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	sleeps, errFetch := client.Sleeps(context.Background(), "token-1", "2026-08-01", "2026-08-07")
	if errFetch != nil {
		t.Fatalf("sleeps: %v", errFetch)
	}
	if len(sleeps) != 0 {
		t.Fatalf("expected no sleeps, got %d", len(sleeps))
	}
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, errFetch := client.Workouts(context.Background(), "token-1", "2026-08-01", "2026-08-07")
	if errFetch == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(errFetch.Error(), "/v1/activity/workout") || !strings.Contains(errFetch.Error(), "502") {
		t.Fatalf("expected endpoint and status in error, got %v", errFetch)
	}
}

func TestUserProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/user/profile/basic" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"user_id":42,"email":"athlete@example.com","first_name":"Ada","last_name":"Lovelace"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	profile, errFetch := client.UserProfile(context.Background(), "token-1")
	if errFetch != nil {
		t.Fatalf("profile: %v", errFetch)
	}
	if profile.UserID != 42 || profile.Email != "athlete@example.com" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}
