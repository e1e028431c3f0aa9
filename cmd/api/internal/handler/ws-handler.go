package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wmorato/ZapSign/metrics"
	"github.com/wmorato/ZapSign/middlewares"
	"github.com/wmorato/ZapSign/pkg/hub"
	"github.com/wmorato/ZapSign/pkg/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
	wsSendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers enforce origin on their side; server-side clients are
	// authenticated by the JWT, so cross-origin upgrades are allowed.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSHandler struct {
	hub  *hub.Hub
	docs *repositories.DocumentRepository
	log  *zap.Logger
}

func NewWSHandler(db *gorm.DB, h *hub.Hub, log *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:  h,
		docs: repositories.NewDocumentRepository(db),
		log:  log,
	}
}

// DocumentDetail streams updates for one document. Ownership is checked
// before the upgrade, so a client can never join another company's
// document group.
func (h *WSHandler) DocumentDetail(c *gin.Context) {
	companyID, ok := middlewares.CompanyID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing company context"})
		return
	}
	docID, ok := parseIDParam(c)
	if !ok {
		return
	}
	if _, err := h.docs.GetByID(docID, companyID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.serve(c, hub.DocumentGroup(docID), "document")
}

// DocumentList streams list-level updates. The group is always derived
// from the JWT company, never from the request.
func (h *WSHandler) DocumentList(c *gin.Context) {
	companyID, ok := middlewares.CompanyID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing company context"})
		return
	}

	h.serve(c, hub.DocumentListGroup(companyID), "document_list")
}

func (h *WSHandler) serve(c *gin.Context, group, family string) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	channelID := uuid.NewString()
	send := make(chan []byte, wsSendBuffer)
	h.hub.Join(group, channelID, send)
	metrics.WebsocketConnections.WithLabelValues(family).Inc()

	done := make(chan struct{})
	go h.writePump(conn, send, done)
	h.readPump(conn)

	h.hub.Leave(group, channelID)
	metrics.WebsocketConnections.WithLabelValues(family).Dec()
	close(done)
	conn.Close()
}

// writePump serializes all writes to the connection. Messages arrive
// already marshaled from the hub.
func (h *WSHandler) writePump(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case msg := <-send:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the client until it disconnects. Inbound frames carry
// no meaning on this protocol and are discarded.
func (h *WSHandler) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}
