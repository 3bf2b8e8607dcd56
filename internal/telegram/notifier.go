package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"toolshub/internal/notify"
)

const defaultAPIBase = "https://api.telegram.org"

// Notifier posts sign-in notices to the configured admin chats.
type Notifier struct {
	botToken   string
	adminChats []string
	apiBase    string
	client     *http.Client
}

// New returns notify.Noop when no bot token or chat is configured.
func New(botToken string, adminChats []string) notify.Notifier {
	var chats []string
	for _, c := range adminChats {
		if c = strings.TrimSpace(c); c != "" {
			chats = append(chats, c)
		}
	}
	if botToken == "" || len(chats) == 0 {
		return notify.Noop{}
	}
	return &Notifier{
		botToken:   botToken,
		adminChats: chats,
		apiBase:    defaultAPIBase,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

func (n *Notifier) NotifyAdmins(ctx context.Context, msg string) {
	if n == nil || n.botToken == "" {
		return
	}
	for _, chatID := range n.adminChats {
		n.send(ctx, chatID, msg)
	}
}

func (n *Notifier) send(ctx context.Context, chatID, msg string) {
	body, err := json.Marshal(map[string]string{
		"chat_id": chatID,
		"text":    msg,
	})
	if err != nil {
		slog.Warn("telegram.marshal", "err", err)
		return
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(n.apiBase, "/"), n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		slog.Warn("telegram.request", "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		slog.Warn("telegram.send", "err", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		slog.Warn("telegram.send.status", "status", resp.Status, "chat", chatID)
	}
}
