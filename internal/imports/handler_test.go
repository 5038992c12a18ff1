package imports

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/documents"
	"portfolio-backend/internal/parser"
	"portfolio-backend/internal/plans"
	"portfolio-backend/internal/shared/server/middleware"
	localstore "portfolio-backend/internal/shared/storage/object/local"
)

type staticTier plans.Tier

func (s staticTier) Tier(ctx context.Context, userID string) (plans.Tier, error) {
	return plans.Tier(s), nil
}

type fixture struct {
	router  *gin.Engine
	docs    *documents.Service
	repo    *documents.MemoryRepo
	baseDir string
}

func newFixture(t *testing.T, tier plans.Tier) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	baseDir := t.TempDir()
	repo := documents.NewMemoryRepo()
	docs := documents.NewService(repo, staticTier(tier))
	svc := NewService(localstore.New(baseDir), parser.Heuristic{}, docs)

	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		middleware.SetUserID(c, "owner-1")
		c.Next()
	})
	NewHandler(svc, "portify.example").RegisterRoutes(api)
	return fixture{router: router, docs: docs, repo: repo, baseDir: baseDir}
}

func docx(t *testing.T, lines ...string) []byte {
	t.Helper()
	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, l := range lines {
		body.WriteString("<w:p><w:r><w:t>" + l + "</w:t></w:r></w:p>")
	}
	body.WriteString("</w:body></w:document>")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	w.Write(body.Bytes())
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func upload(t *testing.T, router *gin.Engine, fileName string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		fw.Write(data)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestImportCreatesDocumentFromParsedText(t *testing.T) {
	f := newFixture(t, plans.TierFree)
	data := docx(t, "Jane Doe", "Backend Engineer", "Skills", "Go, Redis")

	resp := upload(t, f.router, "jane.docx", data, map[string]string{"templateId": "classic"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var body documents.DocumentResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.DisplayName != "Jane Doe" || body.TemplateID != "classic" {
		t.Fatalf("unexpected document %+v", body)
	}
	if body.Content.Title != "Backend Engineer" || len(body.Content.Skills) != 2 {
		t.Fatalf("unexpected content %+v", body.Content)
	}
}

func TestImportDeniedAtLimitStoresNothing(t *testing.T) {
	f := newFixture(t, plans.TierFree)
	if _, err := f.docs.Create(context.Background(), "owner-1", documents.CreateInput{DisplayName: "Existing"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp := upload(t, f.router, "jane.docx", docx(t, "Jane Doe"), nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
	entries, err := os.ReadDir(f.baseDir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("denied import should not store the file, found %d entries", len(entries))
	}
}

func TestImportRejectsUnsupportedFile(t *testing.T) {
	f := newFixture(t, plans.TierPro)
	resp := upload(t, f.router, "photo.png", []byte("\x89PNG\r\n\x1a\nrest"), nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if n, _ := f.repo.CountByOwner(context.Background(), "owner-1"); n != 0 {
		t.Fatalf("no document should be created, got %d", n)
	}
}

func storedFiles(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	return files
}

func TestImportFailureRemovesStoredFiles(t *testing.T) {
	f := newFixture(t, plans.TierPro)
	upload(t, f.router, "photo.png", []byte("\x89PNG\r\n\x1a\nrest"), nil)
	if files := storedFiles(t, f.baseDir); len(files) != 0 {
		t.Fatalf("failed import should leave no files, found %v", files)
	}
}

// lostRace passes the early allowance check and then loses the create.
type lostRace struct{}

func (lostRace) CanCreate(ctx context.Context, ownerID string) error { return nil }

func (lostRace) Create(ctx context.Context, ownerID string, in documents.CreateInput) (documents.Document, error) {
	return documents.Document{}, documents.ErrLimitReached
}

func TestImportCreateFailureRemovesOriginalAndText(t *testing.T) {
	baseDir := t.TempDir()
	svc := NewService(localstore.New(baseDir), parser.Heuristic{}, lostRace{})

	_, err := svc.Import(context.Background(), "owner-1", Upload{
		FileName: "jane.docx",
		Body:     bytes.NewReader(docx(t, "Jane Doe", "Skills", "Go")),
	})
	if !errors.Is(err, documents.ErrLimitReached) {
		t.Fatalf("expected limit reached, got %v", err)
	}
	if files := storedFiles(t, baseDir); len(files) != 0 {
		t.Fatalf("original and extracted text should be removed, found %v", files)
	}
}

func TestImportRequiresFile(t *testing.T) {
	f := newFixture(t, plans.TierPro)
	resp := upload(t, f.router, "", nil, map[string]string{"displayName": "x"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestImportEmptyFile(t *testing.T) {
	f := newFixture(t, plans.TierPro)
	resp := upload(t, f.router, "empty.pdf", nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestImportTooLarge(t *testing.T) {
	f := newFixture(t, plans.TierPro)
	resp := upload(t, f.router, "big.pdf", bytes.Repeat([]byte("a"), MaxUploadBytes+1), nil)
	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.Code)
	}
}
