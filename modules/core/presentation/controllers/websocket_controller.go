package controllers

import (
	"github.com/gorilla/mux"

	"github.com/meridian-hq/meridian/pkg/application"
)

// WebSocketController mounts the tenant-room hub.
type WebSocketController struct {
	app      application.Application
	basePath string
}

func NewWebSocketController(app application.Application) application.Controller {
	return &WebSocketController{
		app:      app,
		basePath: "/ws",
	}
}

func (c *WebSocketController) Key() string {
	return c.basePath
}

func (c *WebSocketController) Register(r *mux.Router) {
	r.Handle(c.basePath, c.app.Websocket())
}
