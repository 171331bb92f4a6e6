package mailbox

import (
	"context"
	"fmt"
	"io"
	"net"
	"sort"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"

	"github.com/stn-analytics/stn-dashboard/internal/config"
)

// IMAPSource reads the inbox over plain IMAP with password auth. A fresh
// connection is made per fetch; ingestion runs are rare enough that keeping
// a session alive buys nothing.
type IMAPSource struct {
	cfg config.MailConfig
}

func NewIMAPSource(cfg config.MailConfig) (*IMAPSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &IMAPSource{cfg: cfg}, nil
}

func (s *IMAPSource) FetchLatest(ctx context.Context, subjectFilter string) (*Attachment, error) {
	c, err := client.DialTLS(net.JoinHostPort(s.cfg.Server, "993"), nil)
	if err != nil {
		return nil, fmt.Errorf("dial imap server: %w", err)
	}
	defer c.Logout()

	if err := c.Login(s.cfg.User, s.cfg.Password); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}
	if _, err := c.Select("INBOX", true); err != nil {
		return nil, fmt.Errorf("select inbox: %w", err)
	}

	window := s.cfg.SearchWindowDays
	if window <= 0 {
		window = 14
	}
	criteria := imap.NewSearchCriteria()
	criteria.Since = time.Now().AddDate(0, 0, -window)
	ids, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("imap search: %w", err)
	}
	if len(ids) == 0 {
		return nil, ErrNoMatchingAttachment
	}

	// newest first
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		att, err := s.fetchMessage(c, id, subjectFilter)
		if err != nil {
			return nil, err
		}
		if att != nil {
			return att, nil
		}
	}
	return nil, ErrNoMatchingAttachment
}

func (s *IMAPSource) fetchMessage(c *client.Client, id uint32, subjectFilter string) (*Attachment, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(id)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	if err := c.Fetch(seqset, items, messages); err != nil {
		return nil, fmt.Errorf("imap fetch: %w", err)
	}
	msg := <-messages
	if msg == nil || msg.Envelope == nil {
		return nil, nil
	}
	if !subjectMatches(msg.Envelope.Subject, subjectFilter) {
		return nil, nil
	}

	body := msg.GetBody(section)
	if body == nil {
		return nil, nil
	}
	mr, err := mail.CreateReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read message part: %w", err)
		}
		h, ok := p.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}
		filename, err := h.Filename()
		if err != nil || !isSpreadsheet(filename) {
			continue
		}
		data, err := io.ReadAll(p.Body)
		if err != nil {
			return nil, fmt.Errorf("read attachment: %w", err)
		}
		return &Attachment{
			Filename: filename,
			Subject:  msg.Envelope.Subject,
			Data:     data,
		}, nil
	}
	return nil, nil
}
