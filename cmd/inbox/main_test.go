package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aktagon/inbox-sorter/internal/content"
	"github.com/aktagon/inbox-sorter/internal/normalize"
	"github.com/aktagon/inbox-sorter/internal/store/sqlite"
)

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want content.SourceRecord
	}{
		{
			name: "link only",
			args: []string{"https://example.com/post"},
			want: content.SourceRecord{DisplayName: "https://example.com/post", Link: "https://example.com/post"},
		},
		{
			name: "link with name",
			args: []string{"https://youtu.be/abc", "Talk"},
			want: content.SourceRecord{DisplayName: "Talk", Link: "https://youtu.be/abc"},
		},
		{
			name: "quoted text",
			args: []string{`"Remember the milk."`},
			want: content.SourceRecord{DisplayName: `"Remember the milk."`},
		},
		{
			name: "file",
			args: []string{"--file", "https://files.example.com/a/report.pdf"},
			want: content.SourceRecord{
				DisplayName: "report.pdf",
				File:        &content.FileRef{URL: "https://files.example.com/a/report.pdf", Name: "report.pdf"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRecord(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRecordErrors(t *testing.T) {
	_, err := parseRecord(nil)
	assert.Error(t, err)
	_, err = parseRecord([]string{"--file"})
	assert.Error(t, err)
}

func TestRenderTable(t *testing.T) {
	records := []*sqlite.Record{
		{
			SourceRecord: content.SourceRecord{ID: "01HX", DisplayName: "Talk", Link: "https://youtu.be/abc"},
			Collection:   "processed",
			Properties:   content.Properties{normalize.FieldType: content.SelectProperty("video")},
			UpdatedAt:    time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			SourceRecord: content.SourceRecord{ID: "01HY", DisplayName: "report.pdf", File: &content.FileRef{URL: "https://f/report.pdf"}},
			Collection:   "inbox",
		},
	}

	var buf bytes.Buffer
	renderTable(&buf, records, false)
	out := buf.String()

	assert.Contains(t, out, "01HX")
	assert.Contains(t, out, "https://youtu.be/abc")
	assert.Contains(t, out, "video")
	assert.Contains(t, out, "2024-05-01 12:30")
	assert.Contains(t, out, "https://f/report.pdf")
	assert.Contains(t, out, "TOTAL")
}

func TestRenderTableCSV(t *testing.T) {
	records := []*sqlite.Record{{
		SourceRecord: content.SourceRecord{ID: "01HX", DisplayName: "Talk", Link: "https://youtu.be/abc"},
		Collection:   "inbox",
	}}

	var buf bytes.Buffer
	renderTable(&buf, records, true)
	out := buf.String()

	assert.Contains(t, out, "01HX,inbox,Talk,https://youtu.be/abc")
	assert.NotContains(t, out, "TOTAL")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
