package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const regulationHTML = `<!DOCTYPE html>
<html><head><title>Exam Regulation</title><style>body { color: red }</style></head>
<body>
<nav>Home | Regulations | Contact</nav>
<header>University Portal</header>
<article>
<h1>Examination Regulation</h1>
<p>Students must register for examinations before the published deadline.
Unregistered students may not sit the exam.</p>
<p>Resit examinations are offered once per semester for failed courses.</p>
</article>
<script>trackPageView();</script>
<footer>Copyright University</footer>
</body></html>`

func TestFetch_HTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(regulationHTML))
	}))
	defer srv.Close()

	text, err := NewFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Contains(t, text, "register for examinations")
	assert.Contains(t, text, "Resit examinations")
	assert.NotContains(t, text, "trackPageView")
	assert.NotContains(t, text, "color: red")
}

func TestFetch_PDFRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	_, err := NewFetcher().Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestFetch_DOCXRejectedBySuffix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("PK"))
	}))
	defer srv.Close()

	_, err := NewFetcher().Fetch(context.Background(), srv.URL+"/regulation.docx")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestFetch_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFetcher().Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestNormalizeText(t *testing.T) {
	in := "  line one   has   gaps  \n\n\n\t\n line two \n"
	assert.Equal(t, "line one has gaps\nline two", normalizeText(in))
}

func TestExtractHTML_BoilerplateFallback(t *testing.T) {
	// Too little body text for article extraction; the goquery fallback
	// must still strip script/style/nav/header/footer.
	html := `<html><body><nav>menu</nav><p>tiny text</p><script>x()</script></body></html>`
	text, err := extractHTML([]byte(html), "https://example.edu/page")
	require.NoError(t, err)
	assert.Contains(t, text, "tiny text")
	assert.NotContains(t, text, "x()")
}
