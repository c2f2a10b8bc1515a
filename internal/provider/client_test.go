package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateAPIKeySendsManagedRequest(t *testing.T) {
	var gotPath, gotTeam, gotAuth string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTeam = r.URL.Query().Get("teamId")
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"apiKeyString": "ak_123", "apiKey": {"id": "key_1"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	key, err := client.CreateAPIKey(context.Background(), "tok", "t2")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if key.Token != "ak_123" || key.ID != "key_1" {
		t.Fatalf("unexpected key: %+v", key)
	}
	if gotPath != "/v1/api-keys" || gotTeam != "t2" {
		t.Fatalf("unexpected request: path=%s teamId=%s", gotPath, gotTeam)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("unexpected auth header: %s", gotAuth)
	}
	if gotBody["exchange"] != true {
		t.Fatalf("expected exchange:true, got %v", gotBody)
	}
	if gotBody["purpose"] != "keywarden-managed" || gotBody["name"] != "Keywarden managed key" {
		t.Fatalf("expected fixed purpose and name, got %v", gotBody)
	}
}

func TestCreateAPIKeyFailsOnProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL).CreateAPIKey(context.Background(), "tok", "t1"); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

func TestCreateAPIKeyFailsOnMissingFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"apiKey": {"id": "key_1"}}`)) // no apiKeyString
	}))
	defer server.Close()

	if _, err := NewClient(server.URL).CreateAPIKey(context.Background(), "tok", "t1"); err == nil {
		t.Fatal("expected error on response missing key string")
	}
}

func TestDeleteAPIKeyTargetsKeyAndTeam(t *testing.T) {
	var gotMethod, gotPath, gotTeam string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotTeam = r.URL.Query().Get("teamId")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := NewClient(server.URL).DeleteAPIKey(context.Background(), "tok", "key_1", "t2"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/v1/api-keys/key_1" || gotTeam != "t2" {
		t.Fatalf("unexpected request: %s %s teamId=%s", gotMethod, gotPath, gotTeam)
	}
}

func TestDeleteAPIKeyReturnsErrorOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusBadGateway)
	}))
	defer server.Close()

	if err := NewClient(server.URL).DeleteAPIKey(context.Background(), "tok", "key_1", "t2"); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

func TestListTeamsParsesLimitedFlag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/teams" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"teams": [{"id": "t1", "name": "Alpha", "limited": true}, {"id": "t2", "name": "Beta", "limited": false}]}`))
	}))
	defer server.Close()

	teams, err := NewClient(server.URL).ListTeams(context.Background(), "tok")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(teams) != 2 || !teams[0].Limited || teams[1].Limited {
		t.Fatalf("unexpected teams: %+v", teams)
	}
}
