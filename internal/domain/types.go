package domain

import "time"

type EventStatus string

const (
	EventDraft    EventStatus = "draft"
	EventUpcoming EventStatus = "upcoming"
	EventLive     EventStatus = "live"
	EventEnded    EventStatus = "ended"
	EventArchived EventStatus = "archived"
)

type PurchaseStatus string

const (
	// PurchasePending is reserved: checkout webhooks record purchases as
	// completed directly, no pre-payment row is ever written.
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseRefunded  PurchaseStatus = "refunded"
)

type AdminRole string

const (
	RoleSuperAdmin  AdminRole = "super_admin"
	RoleArtistAdmin AdminRole = "artist_admin"
)

type Artist struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Bio       *string   `json:"bio,omitempty"`
	ImageURL  *string   `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Event struct {
	ID           int64       `json:"id"`
	ArtistID     int64       `json:"artist_id"`
	Title        string      `json:"title"`
	Slug         string      `json:"slug"`
	Description  *string     `json:"description,omitempty"`
	ThumbnailURL *string     `json:"thumbnail_url,omitempty"`
	StreamURL    *string     `json:"-"`
	ArchiveURL   *string     `json:"-"`
	Status       EventStatus `json:"status"`
	StartTime    *time.Time  `json:"start_time,omitempty"`
	EndTime      *time.Time  `json:"end_time,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Ticket is a purchasable SKU scoped to one event. Price is in minor
// currency units. Stock is nil for unlimited inventory.
type Ticket struct {
	ID          int64     `json:"id"`
	EventID     int64     `json:"event_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Price       int64     `json:"price"`
	Currency    string    `json:"currency"`
	Stock       *int64    `json:"stock"`
	Sold        int64     `json:"sold"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func (t *Ticket) SoldOut() bool {
	return t.Stock != nil && t.Sold >= *t.Stock
}

type EventWithTickets struct {
	Event   Event    `json:"event"`
	Tickets []Ticket `json:"tickets"`
}

// Purchase is the ledger entry for one paid checkout. StripeSessionID is
// unique and doubles as the idempotency key for webhook redelivery.
// AccessToken and TokenExpiresAt are populated together, only after the
// purchase is completed.
type Purchase struct {
	ID                  int64          `json:"id"`
	EventID             int64          `json:"event_id"`
	TicketID            int64          `json:"ticket_id"`
	UserID              *int64         `json:"user_id,omitempty"`
	StripeSessionID     string         `json:"-"`
	StripePaymentIntent *string        `json:"-"`
	CustomerEmail       string         `json:"customer_email"`
	CustomerName        string         `json:"customer_name"`
	Amount              int64          `json:"amount"`
	Currency            string         `json:"currency"`
	Status              PurchaseStatus `json:"status"`
	AccessToken         *string        `json:"access_token,omitempty"`
	TokenExpiresAt      *time.Time     `json:"token_expires_at,omitempty"`
	PurchasedAt         time.Time      `json:"purchased_at"`
}

type PurchaseWithDetails struct {
	Purchase
	EventTitle string `json:"event_title"`
	EventSlug  string `json:"event_slug"`
	TicketName string `json:"ticket_name"`
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Admin struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         AdminRole `json:"role"`
	ArtistID     *int64    `json:"artist_id,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
