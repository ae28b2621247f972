package ingestion

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func newGmailServer(t *testing.T, messages []map[string]any, attachments map[string][]byte) *gmail.Service {
	t.Helper()

	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("GET /gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		list := []map[string]string{}
		for _, m := range messages {
			list = append(list, map[string]string{"id": m["id"].(string)})
		}
		writeJSON(w, map[string]any{"messages": list})
	})
	mux.HandleFunc("GET /gmail/v1/users/me/messages/{id}", func(w http.ResponseWriter, r *http.Request) {
		for _, m := range messages {
			if m["id"] == r.PathValue("id") {
				writeJSON(w, m)
				return
			}
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("GET /gmail/v1/users/me/messages/{id}/attachments/{att}", func(w http.ResponseWriter, r *http.Request) {
		data, ok := attachments[r.PathValue("att")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{"data": base64.URLEncoding.EncodeToString(data), "size": len(data)})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	srv, err := gmail.NewService(context.Background(),
		option.WithHTTPClient(ts.Client()),
		option.WithEndpoint(ts.URL+"/"))
	if err != nil {
		t.Fatalf("gmail.NewService: %v", err)
	}
	return srv
}

func part(filename, attachmentID string) map[string]any {
	return map[string]any{"filename": filename, "body": map[string]any{"attachmentId": attachmentID}}
}

// TestFetchAttachments tests downloading resume attachments from nested parts
func TestFetchAttachments(t *testing.T) {
	messages := []map[string]any{
		{
			"id": "m1",
			"payload": map[string]any{
				"headers": []map[string]string{{"name": "From", "value": "Jane Doe <jane@example.com>"}},
				"parts": []any{
					part("cv.pdf", "a1"),
					part("notes.txt", "a2"),
					map[string]any{
						"mimeType": "multipart/mixed",
						"parts":    []any{part("resume.docx", "a3")},
					},
				},
			},
		},
		{
			"id": "m2",
			"payload": map[string]any{
				"headers": []map[string]string{{"name": "From", "value": "bob@example.com"}},
				"parts":   []any{part("Bob CV.pdf", "missing")},
			},
		},
	}
	attachments := map[string][]byte{
		"a1": []byte("%PDF-1.4 jane"),
		"a2": []byte("ignored"),
		"a3": []byte("PK\x03\x04jane"),
	}

	dir := t.TempDir()
	gh := NewGmailHandlerWithService(newGmailServer(t, messages, attachments), NewFileHandler(dir))

	files, err := gh.FetchAttachments(context.Background(), "Application")
	if err != nil {
		t.Fatalf("FetchAttachments failed: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("Expected 2 files, got %d: %+v", len(files), files)
	}
	if files[0].Name != "JaneDoe_cv.pdf" || files[1].Name != "JaneDoe_resume.docx" {
		t.Errorf("names = %s, %s", files[0].Name, files[1].Name)
	}

	data, err := os.ReadFile(filepath.Join(dir, "JaneDoe_cv.pdf"))
	if err != nil || string(data) != "%PDF-1.4 jane" {
		t.Errorf("saved content = %q, %v", data, err)
	}
	for _, f := range files {
		if err := f.Validate(); err != nil {
			t.Errorf("Validate(%s) = %v", f.Name, err)
		}
	}
}

// TestFetchAttachmentsNoMessages tests the empty search result
func TestFetchAttachmentsNoMessages(t *testing.T) {
	gh := NewGmailHandlerWithService(newGmailServer(t, nil, nil), NewFileHandler(t.TempDir()))

	_, err := gh.FetchAttachments(context.Background(), "Nothing")
	if !errors.Is(err, ErrNoMessages) {
		t.Errorf("err = %v, want ErrNoMessages", err)
	}
}

// TestNewGmailHandlerWithoutToken tests that a missing token without a
// prompt fails instead of blocking
func TestNewGmailHandlerWithoutToken(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credentials.json")
	os.WriteFile(creds, []byte(`{"installed":{"client_id":"id","client_secret":"secret","redirect_uris":["urn:ietf:wg:oauth:2.0:oob"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`), 0600)

	_, err := NewGmailHandler(context.Background(), GmailConfig{
		CredentialsPath: creds,
		TokenPath:       filepath.Join(dir, "token.json"),
	}, NewFileHandler(dir), nil)
	if err == nil {
		t.Fatal("expected error without cached token")
	}
}

func TestExtractSenderName(t *testing.T) {
	tests := []struct {
		from string
		want string
	}{
		{`"Jane Doe" <jane@example.com>`, "JaneDoe"},
		{"Jane Doe <jane@example.com>", "JaneDoe"},
		{"jane@example.com", "jane"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		msg := &gmail.Message{Payload: &gmail.MessagePart{Headers: []*gmail.MessagePartHeader{{Name: "From", Value: tt.from}}}}
		if got := extractSenderName(msg); got != tt.want {
			t.Errorf("extractSenderName(%q) = %q, want %q", tt.from, got, tt.want)
		}
	}
}
