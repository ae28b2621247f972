package ingestion

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// ErrNoMessages is returned when the search matched nothing
var ErrNoMessages = errors.New("no messages found")

// GmailConfig locates the OAuth client secret and the cached token
type GmailConfig struct {
	CredentialsPath string
	TokenPath       string
}

// AuthPrompt shows the consent URL and returns the code the user pasted
type AuthPrompt func(authURL string) (string, error)

// GmailHandler downloads resume attachments from a mailbox
type GmailHandler struct {
	service *gmail.Service
	files   *FileHandler
}

// NewGmailHandler authorizes against Gmail, running the consent flow
// through prompt when no cached token exists
func NewGmailHandler(ctx context.Context, cfg GmailConfig, files *FileHandler, prompt AuthPrompt) (*GmailHandler, error) {
	b, err := os.ReadFile(cfg.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	tok, err := tokenFromFile(cfg.TokenPath)
	if err != nil {
		if prompt == nil {
			return nil, fmt.Errorf("no cached Gmail token at %s: %w", cfg.TokenPath, err)
		}
		tok, err = tokenFromWeb(ctx, config, prompt)
		if err != nil {
			return nil, err
		}
		if err := saveToken(cfg.TokenPath, tok); err != nil {
			log.Printf("[gmail] unable to cache token: %v", err)
		}
	}

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(config.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail client: %w", err)
	}

	return NewGmailHandlerWithService(srv, files), nil
}

// NewGmailHandlerWithService wraps an already configured Gmail service
func NewGmailHandlerWithService(srv *gmail.Service, files *FileHandler) *GmailHandler {
	return &GmailHandler{service: srv, files: files}
}

func tokenFromWeb(ctx context.Context, config *oauth2.Config, prompt AuthPrompt) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	code, err := prompt(authURL)
	if err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}

	tok, err := config.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

// tokenFromFile retrieves a token from a local file
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// saveToken saves a token to a file path
func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// FetchAttachments downloads the PDF and DOCX attachments of messages
// matching subject into the uploads directory. Files are named
// Sender_original.ext. Attachments that fail are logged and skipped.
func (gh *GmailHandler) FetchAttachments(ctx context.Context, subject string) ([]ResumeFile, error) {
	user := "me"
	query := fmt.Sprintf("subject:%s has:attachment", subject)

	r, err := gh.service.Users.Messages.List(user).Q(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve messages: %w", err)
	}

	if len(r.Messages) == 0 {
		return nil, fmt.Errorf("%w with subject: %s", ErrNoMessages, subject)
	}

	var saved []ResumeFile
	for _, msg := range r.Messages {
		message, err := gh.service.Users.Messages.Get(user, msg.Id).Context(ctx).Do()
		if err != nil {
			if ctx.Err() != nil {
				return saved, ctx.Err()
			}
			log.Printf("[gmail] unable to retrieve message %s: %v", msg.Id, err)
			continue
		}

		sender := extractSenderName(message)
		for _, part := range attachmentParts(message.Payload) {
			if !IsResumeFile(part.Filename) {
				continue
			}

			attachment, err := gh.service.Users.Messages.Attachments.Get(user, msg.Id, part.Body.AttachmentId).Context(ctx).Do()
			if err != nil {
				log.Printf("[gmail] unable to retrieve attachment %s: %v", part.Filename, err)
				continue
			}

			data, err := decodeAttachment(attachment.Data)
			if err != nil {
				log.Printf("[gmail] unable to decode attachment %s: %v", part.Filename, err)
				continue
			}

			name := fmt.Sprintf("%s_%s", sender, filepath.Base(part.Filename))
			path, err := gh.files.SaveUploadedFile(name, bytes.NewReader(data))
			if err != nil {
				log.Printf("[gmail] %v", err)
				continue
			}

			log.Printf("[gmail] downloaded %s", name)
			saved = append(saved, ResumeFile{Name: name, Path: path, Size: int64(len(data))})
		}
	}

	return saved, nil
}

// attachmentParts walks nested multipart payloads
func attachmentParts(part *gmail.MessagePart) []*gmail.MessagePart {
	if part == nil {
		return nil
	}
	var out []*gmail.MessagePart
	if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
		out = append(out, part)
	}
	for _, child := range part.Parts {
		out = append(out, attachmentParts(child)...)
	}
	return out
}

// decodeAttachment accepts padded and unpadded base64url
func decodeAttachment(data string) ([]byte, error) {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return b, nil
	}
	return base64.RawURLEncoding.DecodeString(data)
}

// extractSenderName extracts the sender's name from email headers
func extractSenderName(message *gmail.Message) string {
	if message.Payload == nil {
		return "Unknown"
	}
	for _, header := range message.Payload.Headers {
		if header.Name == "From" {
			// Parse "Name <email@example.com>" format
			from := header.Value
			if idx := strings.Index(from, "<"); idx > 0 {
				name := strings.TrimSpace(from[:idx])
				name = strings.Trim(name, `"`)
				return strings.ReplaceAll(name, " ", "")
			}
			// If no name, use email prefix
			if idx := strings.Index(from, "@"); idx > 0 {
				return from[:idx]
			}
			return "Unknown"
		}
	}
	return "Unknown"
}
