package format

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testViews(t *testing.T) *template.Template {
	t.Helper()
	return template.Must(template.New("views").Parse(
		`{{define "index"}}<html>{{with .info}}<p>{{.}}</p>{{end}}{{.body}}</html>{{end}}` +
			`{{define "hello"}}<h1>hello {{.who}}</h1>{{end}}`,
	))
}

func newRequest(method, target, accept string) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	if accept != "" {
		r.Header.Set("Accept", accept)
	}
	return r
}

func TestNegotiate(t *testing.T) {
	cases := []struct {
		accept string
		want   Kind
	}{
		{"", KindHTML},
		{"*/*", KindHTML},
		{"text/html,application/xhtml+xml,*/*;q=0.8", KindHTML},
		{"application/json", KindJSON},
		{"application/json, text/html", KindJSON},
		{"text/html;q=0.5, application/json", KindJSON},
		{"application/rss+xml", KindFeed},
		{"application/*", KindFeed},
		{"image/png", KindDefault},
		{"text/html;q=0", KindDefault},
		{"garbage", KindDefault},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Negotiate(c.accept), "accept %q", c.accept)
	}
}

func TestRenderBody_HTML(t *testing.T) {
	f := New(zaptest.NewLogger(t), testViews(t))
	w := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/", "text/html")
	r.AddCookie(&http.Cookie{Name: flashCookie, Value: "saved"})

	f.RenderBody(w, r, "hello", Locals{"who": "alice"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<html><p>saved</p><h1>hello alice</h1></html>", w.Body.String())
	assert.Contains(t, w.Header().Get("Set-Cookie"), flashCookie+"=;")
}

func TestRenderBody_HTMLUnknownView(t *testing.T) {
	f := New(zaptest.NewLogger(t), testViews(t))
	w := httptest.NewRecorder()

	f.RenderBody(w, newRequest(http.MethodGet, "/", "text/html"), "missing", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRenderBody_JSONMergesRequestLocals(t *testing.T) {
	f := New(zaptest.NewLogger(t), testViews(t))
	w := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/stat", "application/json")
	r = r.WithContext(WithLocals(r.Context(), Locals{"user": "alice", "who": "base"}))

	f.RenderBody(w, r, "hello", Locals{"who": "view"})

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "alice", body["user"])
	assert.Equal(t, "view", body["who"])
}

func TestRenderBody_FeedWithoutTree(t *testing.T) {
	f := New(zaptest.NewLogger(t), testViews(t))
	w := httptest.NewRecorder()

	f.RenderBody(w, newRequest(http.MethodGet, "/", "application/rss+xml"), "hello", Locals{"who": "alice"})

	assert.Equal(t, http.StatusNotAcceptable, w.Code)
	assert.Equal(t, "Not acceptable", w.Body.String())
}

func TestRenderBody_FeedWithTree(t *testing.T) {
	f := New(zaptest.NewLogger(t), testViews(t))
	w := httptest.NewRecorder()

	tree := Tree{
		{Name: "a.txt", Path: "/a.txt", ModTime: time.Now()},
		{Name: "dir", Path: "/dir", Dir: true, ModTime: time.Now()},
	}
	f.RenderBody(w, newRequest(http.MethodGet, "/", "application/rss+xml"), "hello", Locals{"tree": tree, "title": "files"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, MimeFeed, w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "<rss")
	assert.Contains(t, body, "<title>files</title>")
	assert.Contains(t, body, "a.txt")
}

func TestRenderBody_FeedWithItemSlice(t *testing.T) {
	f := New(zaptest.NewLogger(t), testViews(t))

	items := []TreeItem{{Name: "b.txt", Path: "/b.txt", ModTime: time.Now()}}
	w := httptest.NewRecorder()
	f.RenderBody(w, newRequest(http.MethodGet, "/", "application/rss+xml"), "hello", Locals{"tree": items})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "b.txt")

	w = httptest.NewRecorder()
	f.RenderBody(w, newRequest(http.MethodGet, "/", "application/rss+xml"), "hello", Locals{"tree": "not a tree"})

	assert.Equal(t, http.StatusNotAcceptable, w.Code)
}

func TestRenderBody_Unsupported(t *testing.T) {
	f := New(zaptest.NewLogger(t), testViews(t))
	w := httptest.NewRecorder()

	f.RenderBody(w, newRequest(http.MethodGet, "/", "image/png"), "hello", nil)

	assert.Equal(t, http.StatusNotAcceptable, w.Code)
	assert.Equal(t, "Not acceptable", w.Body.String())
}

func TestHandle_JSON(t *testing.T) {
	f := New(zaptest.NewLogger(t), testViews(t))
	w := httptest.NewRecorder()

	f.Handle(w, newRequest(http.MethodPost, "/archive", "application/json"), "/a", Locals{"info": "done"}, http.StatusOK)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"info":"done","redirect":"/a"}`, w.Body.String())
}

func TestHandle_JSONBackAndStatus(t *testing.T) {
	f := New(zaptest.NewLogger(t), testViews(t))
	w := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/archive", "application/json")
	r.Header.Set("Referer", "/photos")

	f.Handle(w, r, "back", nil, http.StatusAccepted)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"redirect":"/photos"}`, w.Body.String())
}

func TestHandle_HTMLRedirectsWithFlash(t *testing.T) {
	f := New(zaptest.NewLogger(t), testViews(t))
	w := httptest.NewRecorder()

	f.Handle(w, newRequest(http.MethodPost, "/archive", "text/html"), "back", Locals{"info": "The archive is being created"}, http.StatusOK)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	cookie := w.Header().Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(cookie, flashCookie+"="), cookie)
}

func TestHandle_HTMLWithoutInfo(t *testing.T) {
	f := New(zaptest.NewLogger(t), testViews(t))
	w := httptest.NewRecorder()

	f.Handle(w, newRequest(http.MethodPost, "/archive", ""), "/done", nil, 0)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/done", w.Header().Get("Location"))
	assert.Empty(t, w.Header().Get("Set-Cookie"))
}

func TestHandle_Feed(t *testing.T) {
	f := New(zaptest.NewLogger(t), testViews(t))
	w := httptest.NewRecorder()

	f.Handle(w, newRequest(http.MethodPost, "/archive", "application/rss+xml"), "/a", nil, http.StatusOK)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestHandle_Unsupported(t *testing.T) {
	f := New(zaptest.NewLogger(t), testViews(t))
	w := httptest.NewRecorder()

	f.Handle(w, newRequest(http.MethodPost, "/archive", "image/png"), "/a", nil, http.StatusOK)

	assert.Equal(t, http.StatusNotAcceptable, w.Code)
	assert.Equal(t, "Not acceptable", w.Body.String())
}

func TestMiddleware_SetsVaryAndPath(t *testing.T) {
	f := New(zaptest.NewLogger(t), testViews(t))
	var got Locals
	h := f.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LocalsFrom(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, newRequest(http.MethodGet, "/stat", ""))

	assert.Equal(t, "Accept", w.Header().Get("Vary"))
	assert.Equal(t, "/stat", got["path"])
}
