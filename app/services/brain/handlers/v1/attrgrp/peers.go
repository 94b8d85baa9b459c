package attrgrp

import (
	"context"
	"net/http"
	"time"

	"github.com/ardanlabs/lockbox/foundation/events"
	"github.com/ardanlabs/lockbox/foundation/web"
	"github.com/gorilla/websocket"
)

// Peers handles a web socket peer session. The session is a subscriber of
// the events hub: it can turn topics on and off, write attributes and
// receives the notifications of the topics it enabled.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Take the slot before the upgrade so a refused peer gets a status code.
	ch, err := h.Evts.Acquire(v.TraceID)
	if err != nil {
		return err
	}
	defer h.Evts.Release(v.TraceID)

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	h.Log.Infow("peer connected", "peer", v.TraceID, "remoteaddr", r.RemoteAddr)
	defer h.Log.Infow("peer disconnected", "peer", v.TraceID)

	// Only this goroutine writes to the connection.
	if err := c.WriteJSON(outFrame{Type: frameWelcome, Peer: v.TraceID}); err != nil {
		return nil
	}

	replies := make(chan outFrame, 8)
	done := make(chan struct{})

	go func() {
		defer close(done)

		for {
			var in inFrame
			if err := c.ReadJSON(&in); err != nil {
				return
			}

			select {
			case replies <- h.handleFrame(v.TraceID, in):
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "system halted"))
				return nil
			}

			out := outFrame{Type: frameNotify, Topic: msg.Topic.String(), Payload: msg.Payload}
			if err := c.WriteJSON(out); err != nil {
				return nil
			}

		case out := <-replies:
			if err := c.WriteJSON(out); err != nil {
				return nil
			}

		case <-done:
			return nil

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

func (h Handlers) handleFrame(peerID string, in inFrame) outFrame {
	out := outFrame{Type: frameResult, Topic: in.Topic, Attr: in.Attr}

	switch in.Type {
	case frameSubscribe, frameUnsubscribe:
		topic, err := events.ParseTopic(in.Topic)
		if err != nil {
			out.Error = err.Error()
			return out
		}

		if err := h.Evts.Subscribe(peerID, topic, in.Type == frameSubscribe); err != nil {
			out.Error = err.Error()
			return out
		}
		out.Accepted = true

	case frameWrite:
		accepted, err := h.write(peerID, in.Attr, in.Payload)
		if err != nil {
			out.Error = err.Error()
			return out
		}
		out.Accepted = accepted

	default:
		out.Error = "unknown frame type " + in.Type
	}

	return out
}
