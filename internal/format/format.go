// Package format answers a finished action in the shape the client asked for:
// an HTML page, an RSS feed or JSON.
package format

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"io"
	"maps"
	"net/http"

	"go.uber.org/zap"
)

const notAcceptable = "Not acceptable"

// Locals are the values handed to a view.
type Locals map[string]any

type localsKey struct{}

// WithLocals attaches request-wide locals that RenderBody merges under the
// view's own locals.
func WithLocals(ctx context.Context, locals Locals) context.Context {
	merged := Locals{}
	maps.Copy(merged, LocalsFrom(ctx))
	maps.Copy(merged, locals)
	return context.WithValue(ctx, localsKey{}, merged)
}

func LocalsFrom(ctx context.Context) Locals {
	l, _ := ctx.Value(localsKey{}).(Locals)
	return l
}

type Responder struct {
	logger *zap.Logger
	views  *template.Template
	shell  string
}

// New builds a responder rendering views inside the shell template "index".
func New(log *zap.Logger, views *template.Template) *Responder {
	return &Responder{
		logger: log,
		views:  views,
		shell:  "index",
	}
}

// Middleware varies caches on Accept and exposes the request path to views.
func (f *Responder) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Accept")
			ctx := WithLocals(r.Context(), Locals{"path": r.URL.Path})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RenderBody renders view name with locals for HTML clients, a feed of
// locals["tree"] for RSS clients and locals itself for JSON clients.
func (f *Responder) RenderBody(w http.ResponseWriter, r *http.Request, name string, locals Locals) {
	merged := Locals{}
	maps.Copy(merged, LocalsFrom(r.Context()))
	maps.Copy(merged, locals)

	switch Negotiate(r.Header.Get("Accept")) {
	case KindHTML:
		f.renderHTML(w, r, name, merged)
	case KindFeed:
		tree, ok := treeOf(merged["tree"])
		if !ok {
			writeNotAcceptable(w)
			return
		}
		w.Header().Set("Content-Type", MimeFeed)
		if err := writeFeed(w, r, merged, tree); err != nil {
			f.logger.Error("ошибка формирования RSS", zap.String("view", name), zap.Error(err))
		}
	case KindJSON:
		f.writeJSON(w, http.StatusOK, merged)
	default:
		writeNotAcceptable(w)
	}
}

// treeOf accepts a Tree or a plain []TreeItem; anything else means the view
// has no feed form.
func treeOf(v any) (Tree, bool) {
	switch t := v.(type) {
	case Tree:
		return t, true
	case []TreeItem:
		return Tree(t), true
	}
	return nil, false
}

// Handle answers a completed action. redirect "back" means the referring
// page.
func (f *Responder) Handle(w http.ResponseWriter, r *http.Request, redirect string, data Locals, status int) {
	if redirect == "" {
		redirect = "back"
	}
	if status == 0 {
		status = http.StatusOK
	}
	target := resolveRedirect(r, redirect)

	switch Negotiate(r.Header.Get("Accept")) {
	case KindHTML:
		if info, ok := data["info"].(string); ok && info != "" {
			SetFlash(w, info)
		}
		http.Redirect(w, r, target, http.StatusFound)
	case KindFeed:
		w.Header().Set("Content-Type", MimeFeed)
		io.WriteString(w, "OK")
	case KindJSON:
		body := Locals{}
		maps.Copy(body, data)
		body["redirect"] = target
		f.writeJSON(w, status, body)
	default:
		writeNotAcceptable(w)
	}
}

func (f *Responder) renderHTML(w http.ResponseWriter, r *http.Request, name string, locals Locals) {
	if info := ConsumeFlash(w, r); info != "" {
		locals["info"] = info
	}

	var body bytes.Buffer
	if err := f.views.ExecuteTemplate(&body, name, locals); err != nil {
		f.logger.Error("ошибка рендеринга шаблона", zap.String("view", name), zap.Error(err))
		http.Error(w, "Внутренняя ошибка сервера при рендеринге страницы", http.StatusInternalServerError)
		return
	}
	locals["body"] = template.HTML(body.String())

	var page bytes.Buffer
	if err := f.views.ExecuteTemplate(&page, f.shell, locals); err != nil {
		f.logger.Error("ошибка рендеринга шаблона", zap.String("view", f.shell), zap.Error(err))
		http.Error(w, "Внутренняя ошибка сервера при рендеринге страницы", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page.WriteTo(w)
}

func (f *Responder) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		f.logger.Error("ошибка кодирования JSON ответа", zap.Error(err))
	}
}

func resolveRedirect(r *http.Request, redirect string) string {
	if redirect != "back" {
		return redirect
	}
	if ref := r.Referer(); ref != "" {
		return ref
	}
	return "/"
}

func writeNotAcceptable(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotAcceptable)
	io.WriteString(w, notAcceptable)
}
