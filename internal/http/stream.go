package http

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"toolshub/internal/header"
	"toolshub/internal/logging"
)

// HeaderStreamHandler keeps a header mounted for as long as the browser
// holds the connection and pushes the re-rendered fragment as an SSE
// "header" event after every state change.
type HeaderStreamHandler struct {
	*Site
	KeepAlive time.Duration
}

func (h *HeaderStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logging.From(r.Context())
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		log.Warn("header.stream.deadline", "err", err)
	}

	changes := make(chan struct{}, 1)
	hd, release, err := h.mountHeader(nil, r, func(header.State) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	defer release()
	if err != nil {
		log.Error("header.mount", "err", err)
		http.Error(w, "header error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	select {
	case <-hd.Ready():
	case <-r.Context().Done():
		return
	}
	if r.URL.Query().Get("menu") == "open" {
		hd.ToggleMobileMenu()
	}

	send := func() error {
		var buf bytes.Buffer
		if err := h.TPL.RenderHeader(&buf, hd.View(path)); err != nil {
			return err
		}
		if err := writeEvent(w, "header", buf.String()); err != nil {
			return err
		}
		return rc.Flush()
	}
	// drain the change the session check may already have queued
	select {
	case <-changes:
	default:
	}
	if err := send(); err != nil {
		log.Warn("header.stream.write", "err", err)
		return
	}

	keepAlive := h.KeepAlive
	if keepAlive <= 0 {
		keepAlive = 25 * time.Second
	}
	ticker := h.Clock.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-changes:
			if err := send(); err != nil {
				log.Debug("header.stream.closed", "err", err)
				return
			}
		case <-ticker.Chan():
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

// writeEvent frames data as one SSE event, one data line per input line.
func writeEvent(w http.ResponseWriter, event, data string) error {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(event)
	b.WriteByte('\n')
	sc := bufio.NewScanner(strings.NewReader(data))
	sc.Buffer(make([]byte, 0, 4096), len(data)+1)
	for sc.Scan() {
		b.WriteString("data: ")
		b.WriteString(sc.Text())
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	_, err := w.Write([]byte(b.String()))
	return err
}
