package main

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/vehicle_sales_backend/config"
	"github.com/mmdatafocus/vehicle_sales_backend/geocode"
	"github.com/mmdatafocus/vehicle_sales_backend/importer"
	"github.com/mmdatafocus/vehicle_sales_backend/models"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestRouter(store *models.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := newTestLogger()
	jobs := importer.NewJobRegistry()
	enricher := geocode.NewEnricher(store, nil, geocode.NewCache(), logger, config.GeocoderConfig{})
	runner := importer.NewRunner(store, jobs, logger, enricher)

	r := gin.New()
	r.POST("/api/upload", uploadHandler(runner, logger))
	r.GET("/api/export", exportHandler(store, logger))
	return r
}

// multipartFile builds a one-file multipart body under the "file" form field.
func multipartFile(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func smallWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := []string{"Maker", "RTO", "State", "City", "Year", "Jan"}
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			t.Fatalf("SetCellValue header: %v", err)
		}
	}
	row := []interface{}{"Acme", "KA01", "KA", "Bangalore", "2023", 5}
	for i, v := range row {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			t.Fatalf("SetCellValue row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func TestUploadHandler_RejectsNonXlsxFilename(t *testing.T) {
	r := newTestRouter(models.NewStore())

	body, contentType := multipartFile(t, "sales.csv", []byte("maker,rto"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a .csv upload, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), ".xlsx") {
		t.Fatalf("error must name the accepted file type: %s", w.Body.String())
	}
}

func TestUploadHandler_RejectsMissingFile(t *testing.T) {
	r := newTestRouter(models.NewStore())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when no file is attached, got %d", w.Code)
	}
}

func TestUploadHandler_AcceptsWorkbookWithJobId(t *testing.T) {
	r := newTestRouter(models.NewStore())

	body, contentType := multipartFile(t, "sales.xlsx", smallWorkbook(t))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202 for a valid workbook, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["jobId"] == "" {
		t.Fatalf("response must carry a job id: %s", w.Body.String())
	}
}

func seedExportStore() *models.Store {
	store := models.NewStore()
	store.InsertBatch([]models.SalesRecord{
		{Maker: "Acme", RTO: "KA01", State: "KA", City: "Bangalore", Sales2023: 30, Total: 30},
		{Maker: "Zenith", RTO: "MH02", State: "MH", City: "Pune", Sales2024: 12, Total: 12},
	})
	return store
}

func TestExportHandler_RoundTrip(t *testing.T) {
	r := newTestRouter(seedExportStore())

	req := httptest.NewRequest(http.MethodGet, "/api/export", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("exported body is not a readable workbook: %v", err)
	}
	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus one row per record, got %d rows", len(rows))
	}
	if rows[0][0] != "State" || rows[0][2] != "Maker" {
		t.Fatalf("unexpected header row: %v", rows[0])
	}
	if rows[1][2] != "Acme" || rows[2][2] != "Zenith" {
		t.Fatalf("record rows out of order or missing: %v / %v", rows[1], rows[2])
	}
	if rows[1][9] != "30" {
		t.Fatalf("expected total 30 in the first record row, got %v", rows[1])
	}
}

func TestExportHandler_AppliesFiltersParam(t *testing.T) {
	r := newTestRouter(seedExportStore())

	target := "/api/export?filters=" + url.QueryEscape(`{"makers":["Zenith"]}`)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("exported body is not a readable workbook: %v", err)
	}
	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus the single matching record, got %d rows", len(rows))
	}
	if rows[1][2] != "Zenith" {
		t.Fatalf("filter was not applied: %v", rows[1])
	}
}

func TestExportHandler_RejectsMalformedFilters(t *testing.T) {
	r := newTestRouter(seedExportStore())

	req := httptest.NewRequest(http.MethodGet, "/api/export?filters=not-json", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed filters, got %d", w.Code)
	}
}

func TestCorsConfig_ProductionWithoutAllowlistDeniesAll(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg := corsConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config must stay valid with an empty allowlist: %v", err)
	}
	if cfg.AllowAllOrigins {
		t.Fatalf("production must never allow all origins")
	}
	if cfg.AllowOriginFunc == nil || cfg.AllowOriginFunc("https://example.com") {
		t.Fatalf("empty production allowlist must deny every origin")
	}
}

func TestCorsConfig_ProductionUsesAllowlist(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg := corsConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config must be valid with an allowlist: %v", err)
	}
	if len(cfg.AllowOrigins) != 2 || cfg.AllowOrigins[0] != "https://a.example.com" {
		t.Fatalf("unexpected allowlist: %v", cfg.AllowOrigins)
	}
}
