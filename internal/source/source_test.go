package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/inspectra/internal/cache"
	"github.com/ppiankov/inspectra/internal/model"
)

func testHTTPConfig() model.HTTPConfig {
	return model.HTTPConfig{
		Timeout:       5 * time.Second,
		UserAgent:     "inspectra-test",
		MaxBodyBytes:  1 << 20,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}
}

func TestRegistry_Find(t *testing.T) {
	r := NewRegistry(model.DocumentConfig{})

	tests := []struct {
		location    string
		contentType string
		want        string
	}{
		{"report.pdf", "", "pdf"},
		{"https://host/files/report.PDF?dl=1", "", "pdf"},
		{"download", "application/pdf", "pdf"},
		{"report.html", "", "html"},
		{"page", "text/html", "html"},
		{"notes.txt", "", "text"},
		{"unknown.bin", "application/zip", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Find(tt.location, tt.contentType).Name())
		})
	}

	assert.Equal(t, []string{"pdf", "html", "text"}, r.Names())
	a, ok := r.Lookup("text")
	require.True(t, ok)
	assert.Equal(t, "text", a.Name())
	_, ok = r.Lookup("docx")
	assert.False(t, ok)
}

func TestSniff(t *testing.T) {
	assert.Equal(t, "application/pdf", Sniff("", []byte("%PDF-1.7\n")))
	assert.Equal(t, "text/html", Sniff("text/html; charset=utf-8", nil))
	assert.Equal(t, "text/html", Sniff("application/octet-stream", []byte("<!DOCTYPE html><html></html>")))
	assert.Equal(t, "text/plain", Sniff("", []byte("С5 стол")))
}

func TestTextAdapter_Pages(t *testing.T) {
	data := []byte("титул\r\nстр 1\fС5 стол\r\nС10 пол\f")

	pages, err := NewTextAdapter().Pages(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	assert.Equal(t, model.Page{Number: 1, Lines: []string{"титул", "стр 1"}}, pages[0])
	assert.Equal(t, model.Page{Number: 2, Lines: []string{"С5 стол", "С10 пол"}}, pages[1])
	assert.Equal(t, 3, pages[2].Number)
}

func TestTextAdapter_RejectsBinary(t *testing.T) {
	_, err := NewTextAdapter().Pages(context.Background(), []byte{'P', 'K', 3, 4, 0, 0})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestHTMLAdapter_Pages(t *testing.T) {
	doc := `<html><head><title>Отчёт</title><style>p{}</style></head>
<body>
  <h1>Проверка</h1>
  <p>С5 облокотились
     на стол<br>С10 руки не помыли</p>
  <script>var c5 = "С5 не текст";</script>
  <table><tr><td>С5</td><td>пыль</td></tr></table>
  <div>в&nbsp;тепле</div>
</body></html>`

	pages, err := NewHTMLAdapter().Pages(context.Background(), []byte(doc))
	require.NoError(t, err)
	require.Len(t, pages, 1)

	assert.Equal(t, []string{
		"Проверка",
		"С5 облокотились на стол",
		"С10 руки не помыли",
		"С5 пыль",
		"в тепле",
	}, pages[0].Lines)
}

func TestHTMLAdapter_InlineElementsDoNotSplitWords(t *testing.T) {
	pages, err := NewHTMLAdapter().Pages(context.Background(), []byte("<p>С<b>5</b>  <i>стол</i></p>"))
	require.NoError(t, err)
	assert.Equal(t, []string{"С5 стол"}, pages[0].Lines)
}

func TestPDFAdapter_RejectsGarbage(t *testing.T) {
	_, err := NewPDFAdapter(false).Pages(context.Background(), []byte("not a pdf"))
	assert.Error(t, err)

	_, err = NewPDFAdapter(true).Pages(context.Background(), []byte("not a pdf"))
	assert.ErrorContains(t, err, "invalid PDF")
}

func TestRowText(t *testing.T) {
	texts := []pdf.Text{
		{S: "стол", X: 40, W: 20, FontSize: 10},
		{S: "С5", X: 10, W: 12, FontSize: 10},
		{S: "ы", X: 60.5, W: 5, FontSize: 10},
	}
	// Runs are ordered by X; a 18pt gap is a space, a 0.5pt gap is not
	assert.Equal(t, "С5 столы", rowText(texts))
}

func TestFetcher_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "inspectra-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("С5 стол"))
	}))
	defer server.Close()

	doc, err := NewFetcher(testHTTPConfig()).Fetch(context.Background(), server.URL+"/report.txt")
	require.NoError(t, err)
	assert.Equal(t, "С5 стол", string(doc.Data))
	assert.Equal(t, "text/plain; charset=utf-8", doc.ContentType)
	assert.Equal(t, server.URL+"/report.txt", doc.Location)
}

func TestFetcher_TransientThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	data, err := NewFetcher(testHTTPConfig()).Read(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestFetcher_PermanentFailure(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFetcher(testHTTPConfig()).Fetch(context.Background(), server.URL)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, int32(1), attempts.Load(), "404 must not be retried")
}

func TestFetcher_SizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.MaxBodyBytes = 32
	_, err := NewFetcher(cfg).Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFetcher_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.txt")
	require.NoError(t, os.WriteFile(path, []byte("Стол\nстол"), 0644))

	f := NewFetcher(testHTTPConfig())
	data, err := f.Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Стол\nстол", string(data))

	_, err = f.Read(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewProxyFunc(t *testing.T) {
	fn := NewProxyFunc("http://proxy:8080", "http://secure-proxy:8443")

	req := httptest.NewRequest(http.MethodGet, "https://example.com/a.pdf", nil)
	u, err := fn(req)
	require.NoError(t, err)
	assert.Equal(t, "secure-proxy:8443", u.Host)

	req = httptest.NewRequest(http.MethodGet, "http://example.com/a.pdf", nil)
	u, err = fn(req)
	require.NoError(t, err)
	assert.Equal(t, "proxy:8080", u.Host)
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://example.com/report.pdf"))
	assert.True(t, IsRemote("http://example.com"))
	assert.False(t, IsRemote("report.pdf"))
	assert.False(t, IsRemote("file:///tmp/report.pdf"))
	assert.False(t, IsRemote(`C:\reports\report.pdf`))
}

func TestLoader_LoadCachesPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("обложка\fС5 стол\fС5 пол"), 0644))

	store := cache.NewPageStore(cache.NewMemoryCache(time.Minute, time.Minute), 0)
	doc := model.DocumentConfig{SkipFirstPage: true, MaxPages: 2}
	l := NewLoader(NewFetcher(testHTTPConfig()), NewRegistry(doc), store, doc, nil)

	first, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "text", first.Adapter)
	assert.False(t, first.Cached)
	assert.Equal(t, 3, first.TotalPages)
	// Cover page skipping applies to PDFs only
	require.Len(t, first.Pages, 2)
	assert.Equal(t, 1, first.Pages[0].Number)

	second, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Pages, second.Pages)
}

func TestLoader_ApplyPolicy(t *testing.T) {
	pages := []model.Page{{Number: 1}, {Number: 2}, {Number: 3}, {Number: 4}}

	l := NewLoader(nil, nil, nil, model.DocumentConfig{SkipFirstPage: true, MaxPages: 2}, nil)
	got := l.applyPolicy("pdf", pages)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Number)
	assert.Equal(t, 3, got[1].Number)

	assert.Empty(t, l.applyPolicy("pdf", nil))

	l = NewLoader(nil, nil, nil, model.DocumentConfig{}, nil)
	assert.Len(t, l.applyPolicy("pdf", pages), 4)
}

func TestLoader_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.zip")
	require.NoError(t, os.WriteFile(path, []byte{'P', 'K', 3, 4, 0, 0, 0}, 0644))

	doc := model.DocumentConfig{}
	l := NewLoader(NewFetcher(testHTTPConfig()), NewRegistry(doc), nil, doc, nil)
	_, err := l.Load(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
