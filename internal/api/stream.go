package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lexiqai/speech-insights/internal/pipeline"
)

// defaultStreamFilename names recordings sent without a preceding header
const defaultStreamFilename = "recording"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// streamHeader optionally precedes a binary recording
type streamHeader struct {
	Filename string `json:"filename"`
}

// Stream analyzes recordings sent over a websocket. Each binary message is
// one recording, optionally named by a preceding text message
// {"filename": "..."}. Every recording gets exactly one reply: a report or
// an error. Failures never close the connection.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to upgrade connection to WebSocket")
		return
	}
	defer conn.Close()
	if h.maxUploadBytes > 0 {
		conn.SetReadLimit(h.maxUploadBytes)
	}

	logger.Info().Msg("Stream connection established")
	filename := defaultStreamFilename
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}

		switch msgType {
		case websocket.TextMessage:
			var hdr streamHeader
			if err := json.Unmarshal(data, &hdr); err != nil || hdr.Filename == "" {
				if !h.reply(conn, logger, errorPayload{Error: "invalid stream header"}) {
					return
				}
				continue
			}
			filename = hdr.Filename

		case websocket.BinaryMessage:
			var resp interface{}
			fr, err := h.analyzer.AnalyzeStream(ctx, pipeline.Upload{Filename: filename, Body: bytes.NewReader(data)})
			if err != nil {
				logger.Error().Err(err).Str("filename", filename).Msg("Stream analysis failed")
				resp = streamError{Success: false, Filename: filename, Error: err.Error()}
			} else {
				resp = NewReportPayload(fr)
			}
			if !h.reply(conn, logger, resp) {
				return
			}
			filename = defaultStreamFilename
		}
	}
}

type streamError struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

func (h *Handler) reply(conn *websocket.Conn, logger *zerolog.Logger, v interface{}) bool {
	if err := conn.WriteJSON(v); err != nil {
		logger.Warn().Err(err).Msg("Failed to write stream reply")
		return false
	}
	return true
}
