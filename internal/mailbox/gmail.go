package mailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const gmailListLimit = 10

// GmailSource reads the inbox through the Gmail API. The auth directory
// holds credentials.json (OAuth client) and token.json (a previously
// granted user token).
type GmailSource struct {
	srv *gmail.Service
}

func NewGmailSource(ctx context.Context, authPath string) (*GmailSource, error) {
	credBytes, err := os.ReadFile(filepath.Join(authPath, "credentials.json"))
	if err != nil {
		return nil, fmt.Errorf("read gmail credentials: %w", err)
	}
	conf, err := google.ConfigFromJSON(credBytes, gmail.MailGoogleComScope)
	if err != nil {
		return nil, fmt.Errorf("parse gmail credentials: %w", err)
	}

	tokenFile, err := os.Open(filepath.Join(authPath, "token.json"))
	if err != nil {
		return nil, fmt.Errorf("read gmail token: %w", err)
	}
	defer tokenFile.Close()
	var token oauth2.Token
	if err := json.NewDecoder(tokenFile).Decode(&token); err != nil {
		return nil, fmt.Errorf("decode gmail token: %w", err)
	}

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("create gmail client: %w", err)
	}
	return &GmailSource{srv: srv}, nil
}

func (s *GmailSource) FetchLatest(ctx context.Context, subjectFilter string) (*Attachment, error) {
	list, err := s.srv.Users.Messages.List("me").
		LabelIds("INBOX").
		Q(fmt.Sprintf("subject:%s", subjectFilter)).
		MaxResults(gmailListLimit).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list gmail messages: %w", err)
	}

	for _, m := range list.Messages {
		msg, err := s.srv.Users.Messages.Get("me", m.Id).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("get gmail message: %w", err)
		}
		subject := headerValue(msg.Payload.Headers, "Subject")
		if !subjectMatches(subject, subjectFilter) {
			continue
		}
		att, err := s.firstSpreadsheetPart(ctx, m.Id, msg.Payload.Parts)
		if err != nil {
			return nil, err
		}
		if att != nil {
			att.Subject = subject
			return att, nil
		}
	}
	return nil, ErrNoMatchingAttachment
}

// firstSpreadsheetPart walks the MIME tree depth-first. Mail clients wrap
// attachments in nested multipart containers, so a flat scan of the top
// level is not enough.
func (s *GmailSource) firstSpreadsheetPart(ctx context.Context, msgID string, parts []*gmail.MessagePart) (*Attachment, error) {
	for _, part := range parts {
		if part.Filename != "" && isSpreadsheet(part.Filename) && part.Body != nil {
			raw := part.Body.Data
			if raw == "" && part.Body.AttachmentId != "" {
				att, err := s.srv.Users.Messages.Attachments.Get("me", msgID, part.Body.AttachmentId).Context(ctx).Do()
				if err != nil {
					return nil, fmt.Errorf("get gmail attachment: %w", err)
				}
				raw = att.Data
			}
			data, err := decodeBody(raw)
			if err != nil {
				return nil, fmt.Errorf("decode gmail attachment: %w", err)
			}
			return &Attachment{Filename: part.Filename, Data: data}, nil
		}
		if len(part.Parts) > 0 {
			att, err := s.firstSpreadsheetPart(ctx, msgID, part.Parts)
			if err != nil || att != nil {
				return att, err
			}
		}
	}
	return nil, nil
}

func headerValue(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

func decodeBody(raw string) ([]byte, error) {
	if data, err := base64.RawURLEncoding.DecodeString(raw); err == nil {
		return data, nil
	}
	return base64.URLEncoding.DecodeString(raw)
}
