package httpgin

import "time"

type CheckoutRequest struct {
	EventSlug string `json:"event_slug" binding:"required"`
	TicketID  int64  `json:"ticket_id" binding:"required,gt=0"`
}

type CheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SessionResponse struct {
	Token string `json:"token"`
	User  any    `json:"user,omitempty"`
	Admin any    `json:"admin,omitempty"`
}

// WatchRequest carries the access token in the body so it never shows up
// in URLs or request logs.
type WatchRequest struct {
	Token     string `json:"token" binding:"required"`
	EventSlug string `json:"event_slug" binding:"required"`
}

type WatchEvent struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	Status string `json:"status"`
}

type WatchResponse struct {
	StreamURL string     `json:"stream_url"`
	Event     WatchEvent `json:"event"`
	ExpiresAt time.Time  `json:"expires_at"`
}

type VerifyResponse struct {
	Valid bool       `json:"valid"`
	Event WatchEvent `json:"event"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type CreateEventRequest struct {
	ArtistID     int64   `json:"artist_id" binding:"required,gt=0"`
	Title        string  `json:"title" binding:"required"`
	Slug         string  `json:"slug" binding:"required"`
	Description  *string `json:"description"`
	ThumbnailURL *string `json:"thumbnail_url"`
	StreamURL    *string `json:"stream_url"`
	ArchiveURL   *string `json:"archive_url"`
	Status       string  `json:"status" binding:"required,oneof=draft upcoming live ended archived"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
}

type CreateEventResponse struct {
	EventID int64 `json:"event_id"`
}

type CreateTicketRequest struct {
	EventID     int64   `json:"event_id" binding:"required,gt=0"`
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	Price       int64   `json:"price" binding:"required,gt=0"`
	Currency    string  `json:"currency" binding:"required,len=3"`
	Stock       *int64  `json:"stock" binding:"omitempty,gt=0"`
	IsActive    *bool   `json:"is_active"`
}

type CreateTicketResponse struct {
	TicketID int64 `json:"ticket_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	// RequiresAuth tells the storefront to send the visitor to the login
	// page before retrying.
	RequiresAuth bool `json:"requires_auth,omitempty"`
}

func parseRFC3339Ptr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}

	return &t, nil
}
