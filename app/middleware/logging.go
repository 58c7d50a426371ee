package middleware

import (
	"time"
	"voice-fusion/app/logger"

	"github.com/gin-gonic/gin"
)

// AccessLog 请求访问日志中间件
func AccessLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Infof("%s %s %d %s %s",
			c.Request.Method,
			path,
			c.Writer.Status(),
			time.Since(start),
			c.ClientIP())
	}
}
