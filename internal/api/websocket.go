package api

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser client is served from another origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// audioMessage is one spoken question sent over the socket.
type audioMessage struct {
	Audio    string   `json:"audio"` // base64 encoded
	MimeType string   `json:"mime_type"`
	FileIDs  []string `json:"file_ids"`
}

type wsReply struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	Message string      `json:"message,omitempty"`
	Status  string      `json:"status,omitempty"`
}

// AudioSocket upgrades the connection and answers spoken questions until the
// client disconnects. Each message is processed synchronously; per-message
// errors are reported on the socket, not by closing it.
func (h *Handler) AudioSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithErr(err).Error("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ownerID := owner(c)
	for {
		var msg audioMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithErr(err).Warn("WebSocket read failed")
			}
			return
		}

		if msg.Audio == "" {
			conn.WriteJSON(wsReply{Type: "error", Message: "no audio data provided", Status: "error"})
			continue
		}
		audio, err := base64.StdEncoding.DecodeString(msg.Audio)
		if err != nil {
			conn.WriteJSON(wsReply{Type: "error", Message: "invalid audio data", Status: "error"})
			continue
		}
		mimeType := msg.MimeType
		if mimeType == "" {
			mimeType = "audio/wav"
		}

		conn.WriteJSON(wsReply{Type: "status", Message: "processing audio", Status: "processing"})

		res, err := h.service.AudioChat(c.Request.Context(), audio, mimeType, ownerID, msg.FileIDs)
		if err != nil {
			h.log.WithErr(err).Error("Audio chat failed")
			conn.WriteJSON(wsReply{Type: "error", Message: err.Error(), Status: "error"})
			continue
		}
		conn.WriteJSON(wsReply{Type: "audio_response", Payload: res, Status: string(res.Status)})
	}
}
