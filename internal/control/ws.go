package control

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// WSHandler serves the control protocol over a WebSocket. Each text frame
// carries one Message; each message gets exactly one reply frame. Malformed
// frames get an error reply and the connection stays open.
func WSHandler(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			slog.Debug("control upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}

		go func() {
			defer func() {
				_ = conn.Close()
			}()

			slog.Debug("control client connected", "remote", r.RemoteAddr)
			for {
				data, err := wsutil.ReadClientText(conn)
				if err != nil {
					slog.Debug("control client gone", "remote", r.RemoteAddr, "error", err)
					return
				}

				var msg Message
				var reply any
				if err := json.Unmarshal(data, &msg); err != nil {
					reply = Reply{Success: false, Error: "malformed control message"}
				} else {
					reply = h.Handle(msg)
				}

				out, err := json.Marshal(reply)
				if err != nil {
					// Reply shapes are plain data; treat a marshal failure as
					// an empty result rather than dropping the reply.
					out = []byte("[]")
				}
				if err := wsutil.WriteServerText(conn, out); err != nil {
					slog.Debug("control reply write failed", "remote", r.RemoteAddr, "error", err)
					return
				}
			}
		}()
	}
}
