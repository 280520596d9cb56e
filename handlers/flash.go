package handlers

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	flashSessionName = "flash"
	FlashSuccess     = "success"
	FlashWarning     = "warning"
)

// Flashes are the one-shot messages shown on the next rendered page.
type Flashes struct {
	Success []string
	Warning []string
}

func (f Flashes) Empty() bool {
	return len(f.Success) == 0 && len(f.Warning) == 0
}

// FlashStore keeps flash messages in a signed cookie.
type FlashStore struct {
	store sessions.Store
}

func NewFlashStore(secret []byte) *FlashStore {
	cs := sessions.NewCookieStore(secret)
	cs.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &FlashStore{store: cs}
}

// Add queues a message of the given kind for the next request.
func (fs *FlashStore) Add(w http.ResponseWriter, r *http.Request, kind, message string) error {
	// a tampered or stale cookie yields a fresh session alongside the error
	session, _ := fs.store.Get(r, flashSessionName)
	session.AddFlash(message, kind)
	return session.Save(r, w)
}

// Pop returns and clears all pending messages.
func (fs *FlashStore) Pop(w http.ResponseWriter, r *http.Request) (Flashes, error) {
	session, _ := fs.store.Get(r, flashSessionName)

	var out Flashes
	for _, v := range session.Flashes(FlashSuccess) {
		if s, ok := v.(string); ok {
			out.Success = append(out.Success, s)
		}
	}
	for _, v := range session.Flashes(FlashWarning) {
		if s, ok := v.(string); ok {
			out.Warning = append(out.Warning, s)
		}
	}
	if out.Empty() {
		return out, nil
	}
	return out, session.Save(r, w)
}
