package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/pkg/utils"
)

// Identity headers set by the portal gateway after login
const (
	HeaderActorRole = "X-Actor-Role"
	HeaderDealerID  = "X-Dealer-ID"
	HeaderActorName = "X-Actor-Name"

	actorKey = "actor"
)

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"role", c.GetHeader(HeaderActorRole),
		)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, Authorization, "+HeaderActorRole+", "+HeaderDealerID+", "+HeaderActorName)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// identityMiddleware builds the acting identity from the gateway headers
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetHeader(HeaderActorRole)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing " + HeaderActorRole + " header",
			})
			return
		}

		actor := entity.Actor{
			Role:     entity.Role(role),
			DealerID: c.GetHeader(HeaderDealerID),
			Name:     utils.SanitizeString(c.GetHeader(HeaderActorName)),
		}
		if actor.DealerID != "" {
			if err := utils.ValidateID(actor.DealerID); err != nil {
				abortBadRequest(c, err.Error())
				return
			}
		}
		if err := actor.Validate(); err != nil {
			abortBadRequest(c, err.Error())
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

func actorFrom(c *gin.Context) entity.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(entity.Actor); ok {
			return actor
		}
	}
	return entity.Actor{}
}

func abortBadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   msg,
	})
}
