package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/ASHISH26940/video-studio-api/pkg/document"
	"github.com/ASHISH26940/video-studio-api/pkg/pipeline"
	"github.com/ASHISH26940/video-studio-api/pkg/progress"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	heartbeatInterval = 15 * time.Second
	writeWait         = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is one message on a project's live feed.
type Event struct {
	Type     string             `json:"type"`
	Version  uint64             `json:"version,omitempty"`
	Document *skeleton.Skeleton `json:"document,omitempty"`
	Progress *progress.Update   `json:"progress,omitempty"`
	State    pipeline.State     `json:"state,omitempty"`
}

func documentEvent(p *pipeline.Project, snap document.Snapshot) Event {
	doc := snap.Doc
	return Event{Type: "document", Version: snap.Version, Document: &doc, State: p.State()}
}

func progressEvent(p *pipeline.Project, u progress.Update) Event {
	return Event{Type: "progress", Progress: &u, State: p.State()}
}

// feed merges a project's document snapshots and progress updates. The
// current document is sent first. stop ends both subscriptions.
func feed(p *pipeline.Project) (events <-chan Event, stop func()) {
	docs, stopDocs := p.Doc.Subscribe()
	updates, stopUpdates := p.Tracker.Subscribe()
	out := make(chan Event, 16)
	quit := make(chan struct{})

	go func() {
		defer close(out)
		send := func(e Event) bool {
			select {
			case out <- e:
				return true
			case <-quit:
				return false
			}
		}
		if !send(documentEvent(p, p.Doc.Snapshot())) {
			return
		}
		for {
			select {
			case snap, ok := <-docs:
				if !ok {
					return
				}
				if !send(documentEvent(p, snap)) {
					return
				}
			case u, ok := <-updates:
				if !ok {
					return
				}
				if !send(progressEvent(p, u)) {
					return
				}
			case <-quit:
				return
			}
		}
	}()

	return out, func() {
		close(quit)
		stopDocs()
		stopUpdates()
	}
}

// ProjectEvents streams the project as server-sent events until the client
// leaves or the project is closed.
func (h *Handlers) ProjectEvents(c *gin.Context) {
	p, ok := h.project(c)
	if !ok {
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	events, stop := feed(p)
	defer stop()
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	clientGone := c.Request.Context().Done()

	log.WithField("project", p.ID).Debug("ProjectEvents: client subscribed")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case e, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(e.Type, e)
			return true
		case t := <-ticker.C:
			c.SSEvent("heartbeat", gin.H{"time": t.Unix()})
			return true
		}
	})
	log.WithField("project", p.ID).Debug("ProjectEvents: client left")
}

// ProjectSocket serves the same feed over a websocket. Messages from the
// client are only read to notice when it goes away.
func (h *Handlers) ProjectSocket(c *gin.Context) {
	p, ok := h.project(c)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("ProjectSocket: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, stop := feed(p)
	defer stop()

	gone := make(chan struct{})
	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(2 * heartbeatInterval))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * heartbeatInterval))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	logger := log.WithField("project", p.ID)
	logger.Debug("ProjectSocket: client connected")

	for {
		select {
		case <-gone:
			logger.Debug("ProjectSocket: client disconnected")
			return
		case e, ok := <-events:
			if !ok {
				conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "project closed"), time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(e); err != nil {
				logger.Debugf("ProjectSocket: write failed: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
