package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/sales_ledger/config"
	"github.com/mmdatafocus/sales_ledger/models"
	"github.com/mmdatafocus/sales_ledger/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func csvBytes(t *testing.T, rows ...[]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("csv: %v", err)
	}
	return buf.Bytes()
}

func salesCSV(t *testing.T) []byte {
	return csvBytes(t,
		models.SalesRequiredColumns,
		[]string{"01 Apr, 2023", "Facility A", "ARMA-1", "guest", "100", "Paracetamol", "100", "formulary", "True", "", "", "", "", ""},
		[]string{"02 Apr, 2023", "Facility A", "ARMA-2", "member", "555", "Unknown", "50", "formulary", "True", "", "", "", "", ""},
	)
}

func pricingCSV(t *testing.T) []byte {
	return csvBytes(t,
		[]string{"mPharma Drug Name", "Drug ID.1", "Pack Size", "Approved Selling Price (Mar 2023) Unit", "QRx Mutti Unit Price", "QRx Thea Unit Price"},
		[]string{"Paracetamol", "NG-200", "10", "12", "25", "20"},
	)
}

func repoCSV(t *testing.T) []byte {
	return csvBytes(t, []string{"Product Name", "Old", "New"}, []string{"Paracetamol", "100", "200"})
}

func multipartRequest(t *testing.T, files map[string][]byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, data := range files {
		fw, err := mw.CreateFormFile(field, field+".csv")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		fw.Write(data)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/reconcile", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func testApp(t *testing.T) (*ledgerApp, *gin.Engine) {
	t.Helper()
	app := &ledgerApp{
		settings: &config.Settings{
			MaxUploadMB:  1,
			SortMode:     "chronological",
			OutputFormat: "csv",
		},
		store:  utils.NewMemoryArtifactStore(),
		logger: config.GetLogger(),
	}
	return app, newRouter(app, func() bool { return true })
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func allFiles(t *testing.T) map[string][]byte {
	return map[string][]byte{
		formSalesFile:   salesCSV(t),
		formPricingFile: pricingCSV(t),
		formRepoFile:    repoCSV(t),
	}
}

func TestHealthzAndReadiness(t *testing.T) {
	app, _ := testApp(t)
	r := newRouter(app, func() bool { return false })

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil)); w.Code != http.StatusNoContent {
		t.Fatalf("healthz: expected 204, got %d", w.Code)
	}
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/download", nil)); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before ready, got %d", w.Code)
	}
}

func TestReconcileThenDownload(t *testing.T) {
	_, r := testApp(t)

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/download", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before any run, got %d", w.Code)
	}

	req := multipartRequest(t, allFiles(t), nil)
	req.Header.Set("x-correlation-id", "cid-1")
	w := serve(r, req)
	if w.Code != http.StatusOK {
		t.Fatalf("reconcile: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("x-correlation-id") != "cid-1" {
		t.Fatalf("expected correlation id echoed")
	}
	runId := w.Header().Get(headerRunId)
	if _, err := uuid.Parse(runId); err != nil {
		t.Fatalf("expected uuid run id, got %q", runId)
	}
	if w.Header().Get(headerLedgerRows) != "1" || w.Header().Get(headerDroppedRows) != "1" {
		t.Fatalf("unexpected counts rows=%q dropped=%q", w.Header().Get(headerLedgerRows), w.Header().Get(headerDroppedRows))
	}
	ledger := w.Body.String()
	lines := strings.Split(strings.TrimSpace(ledger), "\n")
	if len(lines) != 2 || lines[0] != strings.Join(models.LedgerColumns, ",") {
		t.Fatalf("unexpected ledger body %q", ledger)
	}
	if !strings.HasPrefix(lines[1], "1/apr/2023,Facility A,ARMA-1,200,Paracetamol,20.00,5,100,12,60,40,Custom Sale") {
		t.Fatalf("unexpected ledger row %q", lines[1])
	}

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/ledgers/"+runId, nil))
	if w.Code != http.StatusOK || w.Body.String() != ledger {
		t.Fatalf("run download: expected stored ledger, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("unexpected content type %q", w.Header().Get("Content-Type"))
	}

	w = serve(r, httptest.NewRequest(http.MethodGet, "/download", nil))
	if w.Code != http.StatusOK || w.Body.String() != ledger {
		t.Fatalf("latest download: expected stored ledger, got %d", w.Code)
	}
}

func TestReconcile_MissingColumnIs422(t *testing.T) {
	_, r := testApp(t)
	files := allFiles(t)
	files[formRepoFile] = csvBytes(t, []string{"Old", "New"}, []string{"100", "200"})

	w := serve(r, multipartRequest(t, files, nil))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	var resp stageErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Kind != "MalformedInput" || resp.Table != models.TableRepo || resp.Column != models.ColRepoProductName {
		t.Fatalf("unexpected error body %+v", resp)
	}
}

func TestReconcile_BadRequests(t *testing.T) {
	_, r := testApp(t)

	files := allFiles(t)
	delete(files, formPricingFile)
	if w := serve(r, multipartRequest(t, files, nil)); w.Code != http.StatusBadRequest {
		t.Fatalf("missing file: expected 400, got %d", w.Code)
	}
	if w := serve(r, multipartRequest(t, allFiles(t), map[string]string{"format": "sqlite"})); w.Code != http.StatusBadRequest {
		t.Fatalf("sqlite over http: expected 400, got %d", w.Code)
	}
	if w := serve(r, multipartRequest(t, allFiles(t), map[string]string{"sort": "random"})); w.Code != http.StatusBadRequest {
		t.Fatalf("bad sort: expected 400, got %d", w.Code)
	}
}

func TestReconcile_XLSXFormat(t *testing.T) {
	_, r := testApp(t)
	w := serve(r, multipartRequest(t, allFiles(t), map[string]string{"format": "xlsx"}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Type") != models.OutputFormatXLSX.ContentType() {
		t.Fatalf("unexpected content type %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), ".xlsx") {
		t.Fatalf("unexpected disposition %q", w.Header().Get("Content-Disposition"))
	}
}

func TestRunArtifact_NotFoundAndInvalid(t *testing.T) {
	_, r := testApp(t)
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/api/ledgers/not-a-uuid", nil)); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/api/ledgers/"+uuid.NewString(), nil)); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/nope", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	t.Setenv("API_SECRET", "test-secret")
	app, _ := testApp(t)
	app.settings.AuthRequired = true
	r := newRouter(app, func() bool { return true })

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/download", nil)); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	token, err := utils.JwtGenerate("ops", utils.ScopeReconcile, time.Minute)
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}
	req := multipartRequest(t, allFiles(t), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if w := serve(r, req); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", w.Code, w.Body.String())
	}
}

func TestReconcile_UploadTooLarge(t *testing.T) {
	_, r := testApp(t)

	// one file over the per-file cap, body still under the request cap
	files := allFiles(t)
	files[formSalesFile] = append(salesCSV(t), bytes.Repeat([]byte("x"), 2<<20)...)
	w := serve(r, multipartRequest(t, files, nil))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized file: expected 413, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), formSalesFile) {
		t.Fatalf("expected the offending field in the error, got %s", w.Body.String())
	}

	// whole body over the request cap
	files = allFiles(t)
	files[formSalesFile] = bytes.Repeat([]byte("x"), 5<<20)
	w = serve(r, multipartRequest(t, files, nil))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized body: expected 413, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "upload too large") {
		t.Fatalf("unexpected error body %s", w.Body.String())
	}
}
