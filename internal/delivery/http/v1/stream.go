package v1

import (
	"io"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

// HandleTaskStream is the long-lived SSE endpoint. Every state change
// anywhere in the task list reaches every open stream; a ?task query
// additionally records task-scoped interest. The subscriber sees only
// events emitted while it is connected.
func (h *handlerImpl) HandleTaskStream(c *gin.Context) {
	sub := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(sub)

	if taskID := c.Query("task"); taskID != "" {
		h.broadcaster.SubscribeToTask(taskID, sub)
	}

	h.logger.Info().
		Int("subscribers", h.broadcaster.SubscriberCount()).
		Msg("sse stream opened")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case ev, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.Render(-1, sse.Event{Id: ev.ID, Event: ev.Name, Data: ev.Data})
			return true
		}
	})

	h.logger.Info().Msg("sse stream closed")
}
