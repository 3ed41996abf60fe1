package adminapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The admin API is bearer-authenticated before the upgrade happens;
	// the websocket itself carries no further auth, so any origin that
	// made it past requireBearerToken is accepted.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebsocket streams one JSON health snapshot per second for the
// unit named by the "unit" query parameter, until the client disconnects.
// @Summary Stream unit health over a websocket
// @Security BearerAuth
// @Param unit query string true "unit id"
// @Router /ws [get]
func (s *Server) handleWebsocket(c *gin.Context) {
	unitID := c.Query("unit")
	if unitID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing unit query parameter"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warnf("adminapi: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			health, ok := s.sensors.GetHealth(unitID)
			if !ok {
				continue
			}
			if err := conn.WriteJSON(gin.H{
				"unit_id":     health.UnitID,
				"status":      health.Status,
				"message":     health.Message,
				"vibration":   health.Snapshot.VibrationLevel,
				"sound":       health.Snapshot.SoundLevel,
				"temperature": health.Snapshot.TemperatureC,
				"current":     health.Snapshot.CurrentA,
			}); err != nil {
				return
			}
		case <-c.Request.Context().Done():
			return
		}
	}
}
