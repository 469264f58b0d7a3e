package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/itish2003/pdfrag/models"
)

type stubRAG struct {
	resp *models.AskResponse
	err  error
	got  []models.AskRequest
}

func (s *stubRAG) Ask(_ context.Context, req models.AskRequest) (*models.AskResponse, error) {
	s.got = append(s.got, req)
	return s.resp, s.err
}

type stubIndexer struct {
	count int
	err   error
	paths []string
}

func (s *stubIndexer) Ingest(_ context.Context, path string) (int, error) {
	s.paths = append(s.paths, path)
	return s.count, s.err
}

func newTestRouter(t *testing.T, rag *stubRAG, indexer *stubIndexer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	public := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(public, "index.html"), []byte("<h1>Ask the PDF</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(public, "app.js"), []byte("console.log('ok')"), 0o644))

	ctrl := NewRAGController(rag, indexer, "./dsa.pdf")
	return NewRouter(ctrl, RouterOptions{PublicDir: public, MaxBodyBytes: 1024})
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAskSuccess(t *testing.T) {
	rag := &stubRAG{resp: &models.AskResponse{Answer: "LIFO", Context: ""}}
	router := newTestRouter(t, rag, &stubIndexer{})

	w := do(router, http.MethodPost, "/ask", `{"question":"What is a stack?","history":["hi"]}`)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "LIFO", body["answer"])
	assert.Contains(t, body, "context")
	assert.Equal(t, "", body["context"])
	require.Len(t, rag.got, 1)
	assert.Equal(t, []string{"hi"}, rag.got[0].History)
}

func TestAskValidation(t *testing.T) {
	for name, payload := range map[string]string{
		"missing field": `{}`,
		"blank":         `{"question":"   "}`,
		"no body":       "",
		"wrong type":    `{"question":42}`,
		"bad json":      `{"question":`,
	} {
		t.Run(name, func(t *testing.T) {
			rag := &stubRAG{}
			w := do(newTestRouter(t, rag, &stubIndexer{}), http.MethodPost, "/ask", payload)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decode(t, w)["error"])
			assert.Empty(t, rag.got)
		})
	}
}

func TestAskBodyTooLarge(t *testing.T) {
	rag := &stubRAG{}
	payload := `{"question":"` + strings.Repeat("a", 2048) + `"}`
	w := do(newTestRouter(t, rag, &stubIndexer{}), http.MethodPost, "/ask", payload)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Empty(t, rag.got)
}

func TestAskFailure(t *testing.T) {
	rag := &stubRAG{err: errors.New("generate answer: quota exceeded")}
	w := do(newTestRouter(t, rag, &stubIndexer{}), http.MethodPost, "/ask", `{"question":"What is a stack?"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "generate answer: quota exceeded", body["error"])
	assert.NotContains(t, body, "answer")
}

func TestIndexSuccess(t *testing.T) {
	indexer := &stubIndexer{count: 42}
	w := do(newTestRouter(t, &stubRAG{}, indexer), http.MethodPost, "/index", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Indexed 42 chunks from ./dsa.pdf", body["message"])
	assert.Equal(t, []string{"./dsa.pdf"}, indexer.paths)
}

func TestIndexFailure(t *testing.T) {
	indexer := &stubIndexer{err: errors.New("extract text from ./dsa.pdf: no such file")}
	w := do(newTestRouter(t, &stubRAG{}, indexer), http.MethodPost, "/index", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "extract text from ./dsa.pdf: no such file", decode(t, w)["error"])
}

func TestStaticFiles(t *testing.T) {
	router := newTestRouter(t, &stubRAG{}, &stubIndexer{})

	w := do(router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ask the PDF")

	w = do(router, http.MethodGet, "/index.html", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ask the PDF")

	w = do(router, http.MethodGet, "/app.js", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "console.log")

	w = do(router, http.MethodGet, "/missing.css", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	w := do(newTestRouter(t, &stubRAG{}, &stubIndexer{}), http.MethodOptions, "/ask", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
