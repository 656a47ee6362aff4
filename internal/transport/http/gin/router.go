package httpgin

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kohakume/livegate/internal/domain"
	"github.com/kohakume/livegate/internal/metrics"
	"github.com/kohakume/livegate/internal/payments"
	"github.com/kohakume/livegate/internal/service"
	"github.com/kohakume/livegate/internal/service/access"
	adminsvc "github.com/kohakume/livegate/internal/service/admin"
	"github.com/kohakume/livegate/internal/service/auth"
	"github.com/kohakume/livegate/internal/service/catalog"
	"github.com/kohakume/livegate/internal/service/checkout"
	"github.com/kohakume/livegate/internal/service/purchases"
	"github.com/kohakume/livegate/internal/token"
)

type RouterConfig struct {
	WebhookSecret  string
	AllowedOrigins []string
}

func NewRouter(
	svcs *service.Services,
	codec *token.Codec,
	cfg RouterConfig,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		LoggingMiddleware(logger),
		RequestIDMiddleware(),
		CORS(cfg.AllowedOrigins),
		metrics.Middleware(),
	)
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	{
		// Public catalog
		api.GET("/events", handleListEvents(svcs))
		api.GET("/events/:slug", handleGetEvent(svcs))
		api.GET("/artists", handleListArtists(svcs))
		api.GET("/artists/:slug", handleGetArtist(svcs))

		// Payments
		api.POST("/checkout", UserAuth(codec), handleStartCheckout(svcs))
		api.POST("/webhooks/stripe", handleStripeWebhook(svcs, cfg.WebhookSecret))

		// Viewer access. Tokens travel in POST bodies so they never reach
		// the request log.
		api.POST("/watch", handleWatch(svcs))
		api.POST("/watch/verify", handleWatchVerify(svcs))

		// Accounts
		api.POST("/auth/register", handleRegister(svcs))
		api.POST("/auth/login", handleLogin(svcs))
		api.POST("/auth/forgot-password", handleForgotPassword(svcs))
		api.POST("/auth/reset-password", handleResetPassword(svcs))
		api.GET("/purchases", UserAuth(codec), handleListMyPurchases(svcs))
		api.GET("/purchases/session/:session_id", handleGetPurchaseBySession(svcs))

		// Back office
		api.POST("/admin/login", handleAdminLogin(svcs))
		adm := api.Group("/admin", AdminAuth(codec))
		{
			adm.POST("/events", handleCreateEvent(svcs))
			adm.PUT("/events/:id", handleUpdateEvent(svcs))
			adm.POST("/tickets", handleCreateTicket(svcs))
			adm.PUT("/tickets/:id", handleUpdateTicket(svcs))
			adm.GET("/purchases", handleListAllPurchases(svcs))
		}
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  List published events
// @Param    limit  query  int  false  "page size"
// @Param    offset query  int  false  "offset"
// @Success  200  {array}  domain.Event
// @Router   /api/events [get]
func handleListEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 0)
		offset := parseIntDefault(c.Query("offset"), 0)

		events, err := svcs.Catalog.List(c.Request.Context(), limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		if events == nil {
			events = []domain.Event{}
		}
		writeJSONWithCache(c, http.StatusOK, events, "public, max-age=60", true)
	}
}

// @Summary  Get event with tickets
// @Param    slug  path  string  true  "Event slug"
// @Success  200  {object}  domain.EventWithTickets
// @Failure  404  {object}  ErrorResponse
// @Router   /api/events/{slug} [get]
func handleGetEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, err := svcs.Catalog.GetBySlug(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, e, "public, max-age=60", true)
	}
}

// @Summary  List artists
// @Success  200  {array}  domain.Artist
// @Router   /api/artists [get]
func handleListArtists(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		artists, err := svcs.Catalog.ListArtists(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		if artists == nil {
			artists = []domain.Artist{}
		}
		writeJSONWithCache(c, http.StatusOK, artists, "public, max-age=60", true)
	}
}

// @Summary  Get artist
// @Param    slug  path  string  true  "Artist slug"
// @Success  200  {object}  domain.Artist
// @Failure  404  {object}  ErrorResponse
// @Router   /api/artists/{slug} [get]
func handleGetArtist(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		artist, err := svcs.Catalog.GetArtistBySlug(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, artist, "public, max-age=60", true)
	}
}

// @Summary  Start checkout
// @Security BearerAuth
// @Param    req body  CheckoutRequest true "payload"
// @Success  201 {object} CheckoutResponse
// @Failure  401 {object} ErrorResponse "login required"
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "sold out"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /api/checkout [post]
func handleStartCheckout(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := userClaimsFrom(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:        "authentication required",
				Code:         "unauthorized",
				RequiresAuth: true,
			})
			return
		}

		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		session, err := svcs.Checkout.Start(c.Request.Context(), checkout.StartInput{
			EventSlug: req.EventSlug,
			TicketID:  req.TicketID,
			UserID:    claims.UserID,
			UserEmail: claims.Email,
			ClientKey: "user:" + strconv.FormatInt(claims.UserID, 10),
		})
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, CheckoutResponse{
			SessionID:   session.ID,
			CheckoutURL: session.URL,
		})
	}
}

// @Summary  Stripe webhook sink
// @Success  200 {object} map[string]bool
// @Failure  400 {object} ErrorResponse "bad signature"
// @Router   /api/webhooks/stripe [post]
func handleStripeWebhook(svcs *service.Services, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := c.GetRawData()
		if err != nil {
			badRequest(c, "cannot read body")
			return
		}

		event, err := payments.VerifyEvent(payload, c.GetHeader("Stripe-Signature"), secret)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "invalid signature",
				Code:  "signature_invalid",
			})
			return
		}

		outcome, err := svcs.Webhook.ProcessEvent(c.Request.Context(), event)
		metrics.TrackWebhook(string(event.Type), outcome.String())
		if err != nil {
			// 5xx so Stripe redelivers; processing is idempotent.
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "processing failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

// @Summary  Resolve playback URL
// @Param    req body  WatchRequest true "payload"
// @Success  200 {object} WatchResponse
// @Failure  401 {object} ErrorResponse
// @Failure  403 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Router   /api/watch [post]
func handleWatch(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		grant, err := svcs.Access.Authorize(c.Request.Context(), req.EventSlug, req.Token)
		if err != nil {
			metrics.TrackStreamGrant(denialLabel(err))
			respondErr(c, err)
			return
		}

		metrics.TrackStreamGrant("granted")
		c.JSON(http.StatusOK, WatchResponse{
			StreamURL: grant.StreamURL,
			Event: WatchEvent{
				ID:     grant.Event.ID,
				Title:  grant.Event.Title,
				Slug:   grant.Event.Slug,
				Status: string(grant.Event.Status),
			},
			ExpiresAt: grant.ExpiresAt,
		})
	}
}

// @Summary  Verify an access token
// @Param    req body  WatchRequest true "payload"
// @Success  200 {object} VerifyResponse
// @Failure  401 {object} ErrorResponse
// @Failure  403 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Router   /api/watch/verify [post]
func handleWatchVerify(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		event, err := svcs.Access.Verify(c.Request.Context(), req.EventSlug, req.Token)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, VerifyResponse{
			Valid: true,
			Event: WatchEvent{
				ID:     event.ID,
				Title:  event.Title,
				Slug:   event.Slug,
				Status: string(event.Status),
			},
		})
	}
}

// @Summary  Register user
// @Param    req body  RegisterRequest true "payload"
// @Success  201 {object} SessionResponse
// @Failure  409 {object} ErrorResponse "email taken"
// @Router   /api/auth/register [post]
func handleRegister(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		user, session, err := svcs.Auth.Register(c.Request.Context(), req.Email, req.Name, req.Password)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, SessionResponse{Token: session, User: user})
	}
}

// @Summary  Log in user
// @Param    req body  LoginRequest true "payload"
// @Success  200 {object} SessionResponse
// @Failure  401 {object} ErrorResponse
// @Router   /api/auth/login [post]
func handleLogin(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		user, session, err := svcs.Auth.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, SessionResponse{Token: session, User: user})
	}
}

// @Summary  Request a password reset email
// @Param    req body  ForgotPasswordRequest true "payload"
// @Success  200 {object} map[string]string
// @Router   /api/auth/forgot-password [post]
func handleForgotPassword(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ForgotPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		if err := svcs.Auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
			respondErr(c, err)
			return
		}

		// The same answer for known and unknown addresses.
		c.JSON(http.StatusOK, gin.H{"message": "password reset email sent if the address is registered"})
	}
}

// @Summary  Reset password with an emailed token
// @Param    req body  ResetPasswordRequest true "payload"
// @Success  200 {object} map[string]string
// @Failure  400 {object} ErrorResponse "invalid token"
// @Router   /api/auth/reset-password [post]
func handleResetPassword(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResetPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		if err := svcs.Auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "password updated"})
	}
}

// @Summary  Log in admin
// @Param    req body  AdminLoginRequest true "payload"
// @Success  200 {object} SessionResponse
// @Failure  401 {object} ErrorResponse
// @Router   /api/admin/login [post]
func handleAdminLogin(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AdminLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		admin, session, err := svcs.Auth.AdminLogin(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, SessionResponse{Token: session, Admin: admin})
	}
}

// @Summary  List my purchases
// @Success  200 {array} domain.PurchaseWithDetails
// @Failure  401 {object} ErrorResponse
// @Router   /api/purchases [get]
func handleListMyPurchases(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := userClaimsFrom(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
			return
		}

		out, err := svcs.Purchases.ListForUser(c.Request.Context(), claims.UserID)
		if err != nil {
			respondErr(c, err)
			return
		}
		if out == nil {
			out = []domain.PurchaseWithDetails{}
		}

		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Get purchase by checkout session
// @Param    session_id  path  string  true  "Stripe checkout session id"
// @Success  200 {object} domain.Purchase
// @Failure  404 {object} ErrorResponse "webhook not landed yet"
// @Router   /api/purchases/session/{session_id} [get]
func handleGetPurchaseBySession(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svcs.Purchases.GetBySession(c.Request.Context(), c.Param("session_id"))
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, p)
	}
}

// @Summary  Create event
// @Param    req body  CreateEventRequest true "payload"
// @Success  201 {object} CreateEventResponse
// @Failure  403 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "slug taken"
// @Router   /api/admin/events [post]
func handleCreateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		e, ok := eventFromRequest(c, &req, 0)
		if !ok {
			return
		}

		id, err := svcs.Admin.CreateEvent(c.Request.Context(), actorFrom(c), e)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, CreateEventResponse{EventID: id})
	}
}

// @Summary  Update event
// @Param    id   path  int  true  "Event ID"
// @Param    req  body  CreateEventRequest true "payload"
// @Success  200 {object} map[string]bool
// @Failure  404 {object} ErrorResponse
// @Router   /api/admin/events/{id} [put]
func handleUpdateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var req CreateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		e, ok := eventFromRequest(c, &req, eventID)
		if !ok {
			return
		}

		if err := svcs.Admin.UpdateEvent(c.Request.Context(), actorFrom(c), e); err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"updated": true})
	}
}

// @Summary  Create ticket
// @Param    req body  CreateTicketRequest true "payload"
// @Success  201 {object} CreateTicketResponse
// @Failure  403 {object} ErrorResponse
// @Router   /api/admin/tickets [post]
func handleCreateTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		id, err := svcs.Admin.CreateTicket(c.Request.Context(), actorFrom(c), ticketFromRequest(&req, 0))
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, CreateTicketResponse{TicketID: id})
	}
}

// @Summary  Update ticket
// @Param    id   path  int  true  "Ticket ID"
// @Param    req  body  CreateTicketRequest true "payload"
// @Success  200 {object} map[string]bool
// @Failure  404 {object} ErrorResponse
// @Router   /api/admin/tickets/{id} [put]
func handleUpdateTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ticketID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var req CreateTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		err := svcs.Admin.UpdateTicket(c.Request.Context(), actorFrom(c), ticketFromRequest(&req, ticketID))
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"updated": true})
	}
}

// @Summary  List all purchases
// @Param    limit  query  int  false  "page size"
// @Param    offset query  int  false  "offset"
// @Success  200 {array} domain.PurchaseWithDetails
// @Router   /api/admin/purchases [get]
func handleListAllPurchases(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 100)
		offset := parseIntDefault(c.Query("offset"), 0)

		out, err := svcs.Admin.ListPurchases(c.Request.Context(), limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		if out == nil {
			out = []domain.PurchaseWithDetails{}
		}

		c.JSON(http.StatusOK, out)
	}
}

// --- Helpers ---

func eventFromRequest(c *gin.Context, req *CreateEventRequest, id int64) (*domain.Event, bool) {
	start, err := parseRFC3339Ptr(req.StartTime)
	if err != nil {
		badRequest(c, "invalid start_time (RFC3339)")
		return nil, false
	}

	end, err := parseRFC3339Ptr(req.EndTime)
	if err != nil {
		badRequest(c, "invalid end_time (RFC3339)")
		return nil, false
	}

	return &domain.Event{
		ID:           id,
		ArtistID:     req.ArtistID,
		Title:        req.Title,
		Slug:         req.Slug,
		Description:  req.Description,
		ThumbnailURL: req.ThumbnailURL,
		StreamURL:    req.StreamURL,
		ArchiveURL:   req.ArchiveURL,
		Status:       domain.EventStatus(req.Status),
		StartTime:    start,
		EndTime:      end,
	}, true
}

func ticketFromRequest(req *CreateTicketRequest, id int64) *domain.Ticket {
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	return &domain.Ticket{
		ID:          id,
		EventID:     req.EventID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
		Stock:       req.Stock,
		IsActive:    isActive,
	}
}

func actorFrom(c *gin.Context) adminsvc.Actor {
	claims := adminClaimsFrom(c)
	if claims == nil {
		return adminsvc.Actor{}
	}

	return adminsvc.Actor{
		AdminID:  claims.AdminID,
		Role:     claims.Role,
		ArtistID: claims.ArtistID,
	}
}

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func denialLabel(err error) string {
	switch {
	case errors.Is(err, access.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, access.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, access.ErrEventMismatch):
		return "event_mismatch"
	case errors.Is(err, access.ErrPurchaseNotCompleted):
		return "not_completed"
	case errors.Is(err, access.ErrPurchaseNotFound):
		return "purchase_not_found"
	case errors.Is(err, access.ErrEventNotFound):
		return "event_not_found"
	case errors.Is(err, access.ErrContentUnavailable):
		return "content_unavailable"
	default:
		return "error"
	}
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// catalog service
	case errors.Is(err, catalog.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
		return
	case errors.Is(err, catalog.ErrArtistNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "artist not found"})
		return
	// checkout service
	case errors.Is(err, checkout.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
		return
	case errors.Is(err, checkout.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
		return
	case errors.Is(err, checkout.ErrSoldOut):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "ticket is sold out", Code: "sold_out"})
		return
	case errors.Is(err, checkout.ErrRateLimited):
		c.Header("Retry-After", "60")
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many requests"})
		return
	// access service
	case errors.Is(err, access.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "access token expired", Code: "token_expired"})
		return
	case errors.Is(err, access.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid access token", Code: "invalid_token"})
		return
	case errors.Is(err, access.ErrEventMismatch):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "token is for a different event", Code: "event_mismatch"})
		return
	case errors.Is(err, access.ErrPurchaseNotCompleted):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "purchase is not completed", Code: "not_completed"})
		return
	case errors.Is(err, access.ErrPurchaseNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "purchase not found", Code: "purchase_not_found"})
		return
	case errors.Is(err, access.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
		return
	case errors.Is(err, access.ErrContentUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "stream not available", Code: "content_unavailable"})
		return
	// auth service
	case errors.Is(err, auth.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "email already registered"})
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		return
	case errors.Is(err, auth.ErrInvalidResetToken):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid or expired reset token"})
		return
	// purchases service
	case errors.Is(err, purchases.ErrPurchaseNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "purchase not found"})
		return
	// admin service
	case errors.Is(err, adminsvc.ErrSlugConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "slug already exists"})
		return
	case errors.Is(err, adminsvc.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
		return
	case errors.Is(err, adminsvc.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
		return
	case errors.Is(err, adminsvc.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not allowed for this artist"})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
