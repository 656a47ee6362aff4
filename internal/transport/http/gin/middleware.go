package httpgin

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kohakume/livegate/internal/token"
)

const (
	ctxUserClaims  = "user_claims"
	ctxAdminClaims = "admin_claims"
)

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}

		c.Writer.Header().Set("X-Request-ID", reqID)
		c.Set("request_id", reqID)

		c.Next()
	}
}

func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			"X-Request-ID",
			"If-None-Match",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"ETag",
			"Cache-Control",
		},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(allowedOrigins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	}

	return cors.New(cfg)
}

func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		c.Next()

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}

		status := c.Writer.Status()
		reqID, _ := c.Get("request_id")

		attrs := []any{
			slog.Int("status", status),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("ip", c.ClientIP()),
			slog.String("ua", c.Request.UserAgent()),
			slog.Any("request_id", reqID),
			slog.Duration("latency", latency),
			slog.Int("bytes_out", c.Writer.Size()),
		}

		if len(c.Errors) > 0 {
			logger.Error("http", slog.Group("http", attrs...))
		} else {
			logger.Info("http", slog.Group("http", attrs...))
		}
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// UserAuth requires a valid user session token and stores its claims on the
// context. The 401 body carries requires_auth so the storefront redirects
// to login instead of showing a generic error.
func UserAuth(codec *token.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := codec.VerifyUserSession(bearerToken(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error:        "authentication required",
				Code:         "unauthorized",
				RequiresAuth: true,
			})
			return
		}

		c.Set(ctxUserClaims, claims)
		c.Next()
	}
}

// AdminAuth requires a valid admin session token.
func AdminAuth(codec *token.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := codec.VerifyAdminSession(bearerToken(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: "authentication required",
				Code:  "unauthorized",
			})
			return
		}

		c.Set(ctxAdminClaims, claims)
		c.Next()
	}
}

func userClaimsFrom(c *gin.Context) *token.UserClaims {
	v, ok := c.Get(ctxUserClaims)
	if !ok {
		return nil
	}

	claims, _ := v.(*token.UserClaims)
	return claims
}

func adminClaimsFrom(c *gin.Context) *token.AdminClaims {
	v, ok := c.Get(ctxAdminClaims)
	if !ok {
		return nil
	}

	claims, _ := v.(*token.AdminClaims)
	return claims
}
