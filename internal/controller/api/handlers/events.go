package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shortfactory/shortfactory/internal/core/event"
)

// Events streams state-change notifications over Server-Sent Events. The
// stream carries no backlog; clients see only changes that happen while
// they are connected.
func Events(bus event.Bus) echo.HandlerFunc {
	return func(c echo.Context) error {
		w := c.Response()
		w.Header().Set(echo.HeaderContentType, "text/event-stream")
		w.Header().Set(echo.HeaderCacheControl, "no-cache")
		w.Header().Set(echo.HeaderConnection, "keep-alive")
		w.WriteHeader(http.StatusOK)
		w.Flush()

		ch, cancel := event.SubscribeChan(bus, event.EventStateChanged, 16)
		defer cancel()

		ctx := c.Request().Context()
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-ch:
				if !ok {
					return nil
				}
				payload, err := json.Marshal(e.Payload)
				if err != nil {
					continue
				}
				if _, err := fmt.Fprintf(w, "event: stateChange\ndata: %s\n\n", payload); err != nil {
					return nil
				}
				w.Flush()
			}
		}
	}
}
