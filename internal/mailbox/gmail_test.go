package mailbox

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
)

func inlinePart(filename string, data []byte) *gmail.MessagePart {
	return &gmail.MessagePart{
		Filename: filename,
		Body:     &gmail.MessagePartBody{Data: base64.RawURLEncoding.EncodeToString(data)},
	}
}

func TestFirstSpreadsheetPartTopLevel(t *testing.T) {
	src := &GmailSource{}
	parts := []*gmail.MessagePart{
		{MimeType: "text/plain", Body: &gmail.MessagePartBody{}},
		inlinePart("продажи.xlsx", []byte("workbook")),
	}

	att, err := src.firstSpreadsheetPart(context.Background(), "m1", parts)
	require.NoError(t, err)
	require.NotNil(t, att)
	assert.Equal(t, "продажи.xlsx", att.Filename)
	assert.Equal(t, []byte("workbook"), att.Data)
}

func TestFirstSpreadsheetPartNestedMultipart(t *testing.T) {
	// Outlook-style layout: multipart/mixed wrapping multipart/alternative,
	// with the attachment a level down.
	src := &GmailSource{}
	parts := []*gmail.MessagePart{
		{
			MimeType: "multipart/alternative",
			Parts: []*gmail.MessagePart{
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{}},
				{MimeType: "text/html", Body: &gmail.MessagePartBody{}},
			},
		},
		{
			MimeType: "multipart/mixed",
			Parts: []*gmail.MessagePart{
				inlinePart("отчет.png", []byte("not a workbook")),
				inlinePart("остатки.xls", []byte("workbook")),
			},
		},
	}

	att, err := src.firstSpreadsheetPart(context.Background(), "m1", parts)
	require.NoError(t, err)
	require.NotNil(t, att)
	assert.Equal(t, "остатки.xls", att.Filename)
	assert.Equal(t, []byte("workbook"), att.Data)
}

func TestFirstSpreadsheetPartNoMatch(t *testing.T) {
	src := &GmailSource{}
	parts := []*gmail.MessagePart{
		{MimeType: "text/plain", Body: &gmail.MessagePartBody{}},
		{
			MimeType: "multipart/mixed",
			Parts:    []*gmail.MessagePart{inlinePart("фото.jpg", []byte("jpeg"))},
		},
	}

	att, err := src.firstSpreadsheetPart(context.Background(), "m1", parts)
	require.NoError(t, err)
	assert.Nil(t, att)
}
