package application

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/meridian-hq/meridian/pkg/composables"
	"github.com/meridian-hq/meridian/pkg/ws"
)

const (
	ChannelAuthenticated string = "authenticated"
)

// TenantChannel is the per-tenant room name. Every authenticated
// connection with a tenant joins exactly one tenant room, so broadcasts
// never cross tenant boundaries.
func TenantChannel(tenantID uuid.UUID) string {
	return fmt.Sprintf("tenant/%s", tenantID)
}

func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user/%s", userID)
}

type HuberOptions struct {
	Logger      *logrus.Logger
	CheckOrigin func(r *http.Request) bool
}

type Huber interface {
	http.Handler
	BroadcastToTenant(tenantID uuid.UUID, message []byte)
	BroadcastToUser(userID uuid.UUID, message []byte)
	BroadcastToAuthenticated(message []byte)
}

func NewHub(opts *HuberOptions) Huber {
	appHub := &huber{
		logger:          opts.Logger,
		connectionsMeta: make(map[*ws.Connection]*MetaInfo),
	}
	hub := ws.NewHub(&ws.HubOptions{
		Logger:       opts.Logger,
		CheckOrigin:  opts.CheckOrigin,
		OnConnect:    appHub.onConnect,
		OnDisconnect: appHub.onDisconnect,
	})
	appHub.hub = hub
	return appHub
}

type MetaInfo struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
}

type huber struct {
	hub    ws.Huber
	logger *logrus.Logger

	mu              sync.RWMutex
	connectionsMeta map[*ws.Connection]*MetaInfo
}

func (h *huber) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeHTTP(w, r)
}

func (h *huber) onConnect(r *http.Request, hub *ws.Hub, conn *ws.Connection) error {
	meta := &MetaInfo{}
	usr, err := composables.UseUser(r.Context())
	if err != nil {
		// Unauthenticated connections stay out of every room; they can
		// still receive public broadcasts addressed to them directly.
		h.setMeta(conn, meta)
		return nil //nolint:nilerr
	}
	meta.UserID = usr.ID()
	meta.TenantID = usr.TenantID()
	hub.JoinChannel(ChannelAuthenticated, conn)
	hub.JoinChannel(UserChannel(usr.ID()), conn)
	if usr.TenantID() != uuid.Nil {
		hub.JoinChannel(TenantChannel(usr.TenantID()), conn)
	}
	h.setMeta(conn, meta)
	return nil
}

func (h *huber) onDisconnect(conn *ws.Connection) {
	h.mu.Lock()
	delete(h.connectionsMeta, conn)
	h.mu.Unlock()
}

func (h *huber) setMeta(conn *ws.Connection, meta *MetaInfo) {
	h.mu.Lock()
	h.connectionsMeta[conn] = meta
	h.mu.Unlock()
}

func (h *huber) BroadcastToTenant(tenantID uuid.UUID, message []byte) {
	if tenantID == uuid.Nil {
		h.logger.Warn("refusing to broadcast to nil tenant room")
		return
	}
	h.hub.BroadcastToChannel(TenantChannel(tenantID), message)
}

func (h *huber) BroadcastToUser(userID uuid.UUID, message []byte) {
	h.hub.BroadcastToChannel(UserChannel(userID), message)
}

func (h *huber) BroadcastToAuthenticated(message []byte) {
	h.hub.BroadcastToChannel(ChannelAuthenticated, message)
}
