package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	changeWriteWait  = 10 * time.Second
	changePongWait   = 60 * time.Second
	changePingPeriod = (changePongWait * 9) / 10
)

var changeUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are checked by the CORS layer and the membership token.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ChangeStream pushes the household's change events as JSON text frames until
// the client goes away. Clients only read; anything they send is discarded.
func ChangeStream(w http.ResponseWriter, r *http.Request) {
	householdID := chi.URLParam(r, "id")
	if _, err := householdService.Get(r.Context(), householdID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	conn, err := changeUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := householdService.Bus().Subscribe(householdID)
	defer sub.Close()

	logger.Debug("change stream opened", zap.String("household_id", householdID))
	defer logger.Debug("change stream closed", zap.String("household_id", householdID))

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(4096)
		_ = conn.SetReadDeadline(time.Now().Add(changePongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(changePongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(changePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case evt, ok := <-sub.C:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(changeWriteWait))
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(changeWriteWait)); err != nil {
				return
			}
		}
	}
}
