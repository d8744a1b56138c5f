// Package notify provides notification dispatch for pipeline events.
//
// Two delivery modes:
//   - In-app: rows in the notifications table, surfaced through the API.
//   - Broadcast: sent to globally configured Shoutrrr URLs (ntfy, Discord, etc.).
//
// Producers call Send() with a notification request. Errors are logged but
// never propagate — notifications must not block the triggering action.
package notify

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/containrrr/shoutrrr"
	"github.com/formcoach/formcoach/internal/models"
)

// Request describes a notification to send.
type Request struct {
	UserID  int64  // Target user
	Type    string // Notification type constant (e.g. models.NotifyPlanGenerated)
	Title   string // Short title for in-app display
	Message string // Longer description (optional)
	Link    string // Relative URL to navigate to on click (optional)
}

// Send records an in-app notification for the target user and mirrors it to
// the configured broadcast channels.
func Send(db *sql.DB, req Request) {
	if req.UserID == 0 || req.Type == "" || req.Title == "" {
		return
	}

	_, err := models.CreateNotification(db, req.UserID, req.Type, req.Title, req.Message, req.Link)
	if err != nil {
		log.Printf("notify: in-app notification failed for user %d type %q: %v", req.UserID, req.Type, err)
	}

	sendBroadcast(db, buildBody(req))
}

// SendBroadcast sends a message to all globally configured broadcast URLs
// without targeting a specific user. Used for system-wide announcements.
func SendBroadcast(db *sql.DB, body string) {
	sendBroadcast(db, body)
}

// sendBroadcast sends a message to all globally configured Shoutrrr URLs
// (ntfy, Discord, etc.). These are admin/broadcast channels, not per-user.
func sendBroadcast(db *sql.DB, body string) {
	urlsStr := models.GetSetting(db, "notify.urls")
	if urlsStr == "" {
		return
	}
	urls := parseURLs(urlsStr)
	if len(urls) == 0 {
		return
	}

	go func() {
		for _, u := range urls {
			if err := shoutrrr.Send(u, body); err != nil {
				log.Printf("notify: broadcast send failed for url %q: %v", maskURL(u), err)
			}
		}
	}()
}

// TestConnection sends a test message to every configured broadcast URL and
// reports failures. Used by the admin settings endpoint.
func TestConnection(db *sql.DB) error {
	urlsStr := models.GetSetting(db, "notify.urls")
	if urlsStr == "" {
		return fmt.Errorf("no notification channels configured (set broadcast URLs)")
	}

	appName := models.GetAppName(db)
	var errs []string
	for _, u := range parseURLs(urlsStr) {
		msg := fmt.Sprintf("%s test — if you see this, notifications are working!", appName)
		if err := shoutrrr.Send(u, msg); err != nil {
			errs = append(errs, fmt.Sprintf("broadcast %s: %v", maskURL(u), err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// buildBody constructs the message body from a Request.
func buildBody(req Request) string {
	body := req.Title
	if req.Message != "" {
		body = fmt.Sprintf("%s\n%s", body, req.Message)
	}
	if req.Link != "" {
		body = fmt.Sprintf("%s\n%s", body, req.Link)
	}
	return body
}

// parseURLs splits a comma-or-newline-separated URL string and trims whitespace.
func parseURLs(urlsStr string) []string {
	urlsStr = strings.ReplaceAll(urlsStr, "\n", ",")
	parts := strings.Split(urlsStr, ",")
	var urls []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			urls = append(urls, p)
		}
	}
	return urls
}

// maskURL masks credentials in a Shoutrrr URL for safe logging.
func maskURL(u string) string {
	if len(u) <= 5 {
		return "••••"
	}
	if len(u) <= 15 {
		return u[:5] + "••••"
	}
	return u[:15] + "••••"
}
