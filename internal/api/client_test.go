package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mrocha/chatterm/internal/api"
	"github.com/mrocha/chatterm/pkg/wire"
)

func TestClient_Login(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/users/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}

		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if body.Email != "a@x.com" || body.Password != "p" {
			t.Errorf("credentials = %q/%q, want a@x.com/p", body.Email, body.Password)
		}

		json.NewEncoder(w).Encode(map[string]string{"token": "tok-abc"})
	}))
	defer server.Close()

	client := api.New(server.URL)
	token, err := client.Login(context.Background(), "a@x.com", "p")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token != "tok-abc" {
		t.Errorf("Login() token = %q, want tok-abc", token)
	}
}

func TestClient_LoginRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "bad credentials"})
	}))
	defer server.Close()

	client := api.New(server.URL)
	_, err := client.Login(context.Background(), "a@x.com", "wrong")

	var authErr *api.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Login() error = %v, want *api.AuthError", err)
	}
	if authErr.Message != "bad credentials" {
		t.Errorf("auth error message = %q, want backend message", authErr.Message)
	}
}

func TestClient_LoginRejectedWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := api.New(server.URL)
	_, err := client.Login(context.Background(), "a@x.com", "wrong")

	var authErr *api.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Login() error = %v, want *api.AuthError", err)
	}
	if authErr.Message == "" {
		t.Error("auth error message is empty, want fallback wording")
	}
}

func TestClient_LoginConnectionFailure(t *testing.T) {
	client := api.New("http://127.0.0.1:0")
	_, err := client.Login(context.Background(), "a@x.com", "p")
	if err == nil {
		t.Fatal("Login() error = nil, want connectivity error")
	}

	var authErr *api.AuthError
	if errors.As(err, &authErr) {
		t.Errorf("Login() error = %v, want non-auth error for connectivity failure", err)
	}
}

func TestClient_Conversations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chats" {
			t.Errorf("path = %q, want /chats", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-abc" {
			t.Errorf("Authorization = %q, want Bearer tok-abc", got)
		}

		json.NewEncoder(w).Encode([]wire.Conversation{
			{ID: "c1", Participants: []string{"a@x.com", "b@x.com"}, UnreadCount: 2},
			{ID: "c2", Participants: []string{"a@x.com", "c@x.com"}},
		})
	}))
	defer server.Close()

	client := api.New(server.URL)
	client.SetToken("tok-abc")

	convs, err := client.Conversations(context.Background())
	if err != nil {
		t.Fatalf("Conversations() error = %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("len(convs) = %d, want 2", len(convs))
	}
	if convs[0].ID != "c1" || convs[0].UnreadCount != 2 {
		t.Errorf("convs[0] = %+v, want c1 with 2 unread", convs[0])
	}
}

func TestClient_History(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages/history" {
			t.Errorf("path = %q, want /messages/history", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("user1") != "a@x.com" || q.Get("user2") != "b@x.com" {
			t.Errorf("query = %v, want user1=a@x.com user2=b@x.com", q)
		}

		json.NewEncoder(w).Encode([]wire.Message{
			{ID: "m1", Content: "hi", Sender: "b@x.com", Receiver: "a@x.com", Timestamp: time.Now()},
		})
	}))
	defer server.Close()

	client := api.New(server.URL)
	client.SetToken("tok-abc")

	msgs, err := client.History(context.Background(), "a@x.com", "b@x.com")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != "m1" {
		t.Errorf("History() = %+v, want single message m1", msgs)
	}
}

func TestClient_MarkRead(t *testing.T) {
	var gotPath, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := api.New(server.URL)
	client.SetToken("tok-abc")

	if err := client.MarkRead(context.Background(), "m42"); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/messages/m42/read" {
		t.Errorf("request = %s %s, want PUT /messages/m42/read", gotMethod, gotPath)
	}
}

func TestClient_MarkReadRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := api.New(server.URL)
	if err := client.MarkRead(context.Background(), "m42"); err == nil {
		t.Error("MarkRead() error = nil, want error for non-2xx status")
	}
}
