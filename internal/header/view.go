package header

import (
	"net/url"

	"toolshub/internal/menu"
)

// Link is one rendered menu or app entry.
type Link struct {
	Title       string
	Path        string
	Description string
	Active      bool
}

// View is everything the header template needs.
type View struct {
	AppName        string
	AppsLabel      string
	CurrentPath    string
	LoggedIn       bool
	MobileMenuOpen bool
	Items          []Link
	Apps           []Link
	// ToggleHref points at the current page with the mobile menu flipped.
	ToggleHref string
	// StreamHref is the live header stream for the current page.
	StreamHref string
	Error      string
}

func (h *Header) View(currentPath string) View {
	st := h.State()
	v := BuildView(h.opts.Menu, st, currentPath)
	if err := h.Err(); err != nil {
		v.Error = "We could not check your session; showing you as signed out."
	}
	return v
}

// BuildView is the pure part of View.
func BuildView(cfg menu.Config, st State, currentPath string) View {
	v := View{
		AppName:        cfg.AppName,
		AppsLabel:      cfg.AppsLabel,
		CurrentPath:    currentPath,
		LoggedIn:       st.LoggedIn,
		MobileMenuOpen: st.MobileMenuOpen,
		Items:          make([]Link, 0, len(cfg.Items)),
		Apps:           make([]Link, 0, len(cfg.Apps)),
		ToggleHref:     toggleHref(currentPath, st.MobileMenuOpen),
		StreamHref:     streamHref(currentPath, st.MobileMenuOpen),
	}
	for _, it := range cfg.Items {
		v.Items = append(v.Items, Link{
			Title:  it.Title,
			Path:   it.Path,
			Active: menu.IsActive(currentPath, it.Path),
		})
	}
	for _, a := range cfg.Apps {
		v.Apps = append(v.Apps, Link{
			Title:       a.Title,
			Path:        a.Path,
			Description: a.Description,
			Active:      menu.IsActive(currentPath, a.Path),
		})
	}
	return v
}

// streamHref carries the menu state so the stream's first push keeps it.
func streamHref(path string, open bool) string {
	q := url.Values{"path": {path}}
	if open {
		q.Set("menu", "open")
	}
	return "/header/stream?" + q.Encode()
}

func toggleHref(path string, open bool) string {
	if path == "" {
		path = "/"
	}
	if open {
		return path
	}
	return path + "?" + url.Values{"menu": {"open"}}.Encode()
}
