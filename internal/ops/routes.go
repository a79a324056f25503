// Package ops mounts the node's operational endpoints on the shared
// health/metrics router: a status snapshot, a discovery trigger, reminder
// scheduling, version info and the live event feed.
package ops

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/A-Crow-Pixel/IK-SS25-G4/internal/events"
	"github.com/A-Crow-Pixel/IK-SS25-G4/internal/node"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/version"
)

// Register mounts the ops routes. hub may be nil when the event feed is
// disabled.
func Register(router *gin.Engine, n *node.Node, hub *events.Hub) {
	router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, n.Snapshot())
	})
	router.POST("/discover", func(c *gin.Context) {
		n.Discover()
		c.JSON(http.StatusAccepted, gin.H{"status": "probing"})
	})
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, version.GetInfo())
	})
	router.POST("/reminders", func(c *gin.Context) {
		var req struct {
			Target           string `json:"target" binding:"required"`
			Event            string `json:"event" binding:"required"`
			CountdownSeconds uint64 `json:"countdown_seconds"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		n.ScheduleReminder(req.Target, req.Event, time.Duration(req.CountdownSeconds)*time.Second)
		c.JSON(http.StatusAccepted, gin.H{"status": "scheduled", "target": req.Target})
	})

	if hub == nil {
		return
	}
	router.GET("/feed", func(c *gin.Context) {
		hub.ServeWS(c.Writer, c.Request)
	})
	router.GET("/feed/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, hub.Stats())
	})
}
