package web

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"poolside/internal/adapters/view"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts requests without an Origin header and those whose
// Origin host matches the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// pushMessage carries re-rendered fragments to the page script.
type pushMessage struct {
	Version      uint64 `json:"version"`
	Notification string `json:"notification"`
	Overlay      string `json:"overlay"`
}

func (f *Front) pushFor(r *http.Request, v *viewer) (pushMessage, error) {
	data := f.pageData(r, v, "", nil)
	notification, err := f.deps.Renderer.FragmentString(view.FragmentNotification, data.State)
	if err != nil {
		return pushMessage{}, err
	}
	overlay, err := f.deps.Renderer.FragmentString(view.FragmentOverlay, data)
	if err != nil {
		return pushMessage{}, err
	}
	return pushMessage{Version: data.State.Version, Notification: notification, Overlay: overlay}, nil
}

// handleWS pushes the notification and overlay fragments whenever the
// viewer's document changes (GET /ws)
// PRE: request is a websocket upgrade
// POST: connection receives the current fragments, then one message per change
func (f *Front) handleWS(w http.ResponseWriter, r *http.Request) {
	// The viewer stays registered while the socket listens to its document.
	v, release := f.viewers.Hold(viewerID(r))
	defer release()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("ws_upgrade_failed", zap.String("viewer_id", v.id), zap.Error(err))
		return
	}
	defer conn.Close()

	changes, cancel := v.doc.Subscribe()
	defer cancel()

	// Reader: handles pongs and notices the client going away.
	done := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	var sent uint64
	send := func() bool {
		msg, err := f.pushFor(r, v)
		if err != nil {
			zap.L().Error("ws_render_failed", zap.String("viewer_id", v.id), zap.Error(err))
			return false
		}
		if msg.Version == sent && sent != 0 {
			return true
		}
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(msg); err != nil {
			return false
		}
		sent = msg.Version
		return true
	}

	if !send() {
		return
	}
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-changes:
			if !send() {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
