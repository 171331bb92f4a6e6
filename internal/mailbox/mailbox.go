// Package mailbox fetches spreadsheet report attachments from an email
// inbox. It is a thin collaborator: the rest of the system only sees raw
// spreadsheet bytes plus the message subject.
package mailbox

import (
	"context"
	"errors"
	"strings"

	"github.com/stn-analytics/stn-dashboard/internal/config"
)

// ErrNoMatchingAttachment means no qualifying message or attachment exists
// in the search window. Non-fatal: the run reports "nothing to do".
var ErrNoMatchingAttachment = errors.New("no matching report attachment found")

// Attachment is one downloaded spreadsheet file.
type Attachment struct {
	Filename string
	Subject  string
	Data     []byte
}

// Source finds the newest message whose subject contains the filter text
// and returns its first spreadsheet attachment.
type Source interface {
	FetchLatest(ctx context.Context, subjectFilter string) (*Attachment, error)
}

// NewSource picks the mailbox implementation from configuration: Gmail
// OAuth when an auth directory is set, password IMAP otherwise. Credential
// validation happens here, before any network call.
func NewSource(ctx context.Context, cfg config.MailConfig) (Source, error) {
	if cfg.AuthPath != "" {
		return NewGmailSource(ctx, cfg.AuthPath)
	}
	return NewIMAPSource(cfg)
}

func isSpreadsheet(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xls")
}

func subjectMatches(subject, filter string) bool {
	return strings.Contains(strings.ToLower(subject), strings.ToLower(filter))
}
