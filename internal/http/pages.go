package http

import (
	"bytes"
	"net/http"

	"toolshub/internal/logging"
	"toolshub/internal/web"
)

const homeDescription = "A collection of AI tools and services. Pick one from the Apps menu."

// PageHandler serves the home page and a placeholder page for every
// configured menu and app path.
type PageHandler struct {
	*Site
}

func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	hv, err := h.loadHeader(r, r.URL.Path)
	if err != nil {
		logging.From(r.Context()).Error("header.mount", "err", err)
		http.Error(w, "header error", http.StatusInternalServerError)
		return
	}

	if r.URL.Path == "/" {
		content := web.HomeContent{
			Title:       "Welcome to " + h.Menu.AppName,
			Description: homeDescription,
		}
		if r.URL.Query().Get("login") == "failed" {
			content.LoginError = "Wrong username or password."
		}
		h.render(w, r, http.StatusOK, "home", web.Page[web.HomeContent]{Header: hv, Content: content})
		return
	}

	title, desc, ok := h.Menu.Lookup(r.URL.Path)
	if !ok {
		h.render(w, r, http.StatusNotFound, "notfound", web.Page[web.PageContent]{Header: hv})
		return
	}
	h.render(w, r, http.StatusOK, "page", web.Page[web.PageContent]{
		Header:  hv,
		Content: web.PageContent{Title: title, Description: desc},
	})
}

func (s *Site) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.TPL.Render(&buf, name, data); err != nil {
		logging.From(r.Context()).Error("could not render", "page", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// HeaderFragmentHandler renders only the header, for ?path= as the current
// route.
type HeaderFragmentHandler struct {
	*Site
}

func (h *HeaderFragmentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}
	hv, err := h.loadHeader(r, path)
	if err != nil {
		logging.From(r.Context()).Error("header.mount", "err", err)
		http.Error(w, "header error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := h.TPL.RenderHeader(&buf, hv); err != nil {
		logging.From(r.Context()).Error("could not render", "page", "header", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
