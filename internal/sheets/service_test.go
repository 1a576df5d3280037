package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"muabook/internal/consistency"
)

func testReport() consistency.Report {
	return consistency.Report{
		Clients: consistency.EntityReport{
			Errors:   []consistency.Issue{{ID: 1, Name: "Sari", Messages: []string{"status wrong", "orphan payment"}}},
			Warnings: []consistency.Issue{{ID: 2, Name: "Ana", Messages: []string{"no contact"}}},
		},
		Invoices: consistency.EntityReport{
			Errors: []consistency.Issue{{ID: 9, Name: "INV-9", Messages: []string{"no items"}}},
		},
		CheckedAt: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestExtractSpreadsheetID(t *testing.T) {
	id, err := extractSpreadsheetID("https://docs.google.com/spreadsheets/d/1AbC-d_E/edit#gid=0")
	require.NoError(t, err)
	assert.Equal(t, "1AbC-d_E", id)

	_, err = extractSpreadsheetID("https://example.com/nothing")
	assert.Error(t, err)
}

func TestFindingRows(t *testing.T) {
	rows := findingRows(testReport())

	require.Len(t, rows, 4)
	assert.Equal(t, FindingRow{Entity: "client", ID: 1, Name: "Sari", Severity: "error", Message: "status wrong", CheckedAt: "2026-03-15T10:00:00Z"}, rows[0])
	assert.Equal(t, "orphan payment", rows[1].Message)
	assert.Equal(t, "invoice", rows[2].Entity)
	assert.Equal(t, "warning", rows[3].Severity)
	assert.Len(t, rows[3].values(), len(headers))
}

func TestCredentials(t *testing.T) {
	_, err := Credentials{}.load()
	assert.Error(t, err)

	data, err := Credentials{JSON: `{"type":"service_account"}`}.load()
	require.NoError(t, err)
	assert.Contains(t, string(data), "service_account")

	_, err = Credentials{File: "/does/not/exist.json"}.load()
	assert.Error(t, err)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Findings 2026-03-15", SheetName(time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC)))
}

func TestWriteFindings(t *testing.T) {
	var mu sync.Mutex
	var appended [][]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasSuffix(r.URL.Path, ":append"):
			body, _ := io.ReadAll(r.Body)
			var vr struct {
				Values [][]interface{} `json:"values"`
			}
			_ = json.Unmarshal(body, &vr)
			appended = vr.Values
			_, _ = io.WriteString(w, `{}`)
		case strings.Contains(r.URL.Path, "/values/"):
			_, _ = io.WriteString(w, `{"values":[["Entity"]]}`)
		default:
			_, _ = io.WriteString(w, `{"sheets":[{"properties":{"title":"Findings","sheetId":5}}]}`)
		}
	}))
	defer srv.Close()

	svc, err := NewSheetsServiceWithOptions(context.Background(),
		"https://docs.google.com/spreadsheets/d/sheet123/edit",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	n, err := svc.WriteFindings(context.Background(), testReport(), "Findings")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.Len(t, appended, 4)
	assert.Equal(t, "client", appended[0][0])
	assert.Equal(t, "error", appended[0][3])
}

func TestWriteFindings_EmptyReport(t *testing.T) {
	svc, err := NewSheetsServiceWithOptions(context.Background(),
		"https://docs.google.com/spreadsheets/d/sheet123/edit",
		option.WithEndpoint("http://127.0.0.1:1/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	n, err := svc.WriteFindings(context.Background(), consistency.Report{}, "Findings")
	require.NoError(t, err)
	assert.Zero(t, n)
}
