package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quizPage = `<!doctype html>
<html>
<head>
  <title>Quiz 1</title>
  <link rel="stylesheet" href="/style.css">
  <style>body { color: red; }</style>
  <script>document.write("hidden")</script>
</head>
<body>
  <h1>Sum the values</h1>
  <p>Download <a href="/data.csv">the data</a> and post the total to <a href="/submit">the endpoint</a>.</p>
  <div id="secret" data-code="x1">&amp; more</div>
  <svg><text>icon</text></svg>
  <a name="anchor-without-href">nothing</a>
</body>
</html>`

func TestStaticRendererCleansAndCollectsLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(quizPage))
	}))
	defer srv.Close()

	r := NewStaticRenderer(5*time.Second, nil)
	p, err := r.Render(context.Background(), srv.URL+"/quiz")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/quiz", p.URL)
	assert.Equal(t, []string{"/data.csv", "/submit"}, p.Links)

	assert.NotContains(t, p.HTML, "<script")
	assert.NotContains(t, p.HTML, "<style")
	assert.NotContains(t, p.HTML, "<svg")
	assert.NotContains(t, p.HTML, "stylesheet")
	assert.Contains(t, p.HTML, `data-code="x1"`)

	assert.Contains(t, p.Text, "Sum the values")
	assert.Contains(t, p.Text, "& more")
	assert.NotContains(t, p.Text, "<")
	assert.NotEmpty(t, p.Title)
}

func TestStaticRendererRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewStaticRenderer(time.Second, nil).Render(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New("lynx", time.Second, nil)
	assert.Error(t, err)
}

func TestPlaywrightRender(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if os.Getenv("PLAYWRIGHT_E2E") == "" {
		t.Skip("PLAYWRIGHT_E2E not set")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(quizPage))
	}))
	defer srv.Close()

	m, err := NewManager(30*time.Second, nil)
	if err != nil {
		t.Skipf("playwright unavailable: %v", err)
	}
	defer m.Close()

	p, err := m.Render(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{"/data.csv", "/submit"}, p.Links)
	assert.NotContains(t, p.HTML, "<script")
}
