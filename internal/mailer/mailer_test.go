package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "USD 15.00", FormatAmount(1500, "usd"))
	assert.Equal(t, "USD 0.99", FormatAmount(99, "usd"))
	assert.Equal(t, "EUR 120.05", FormatAmount(12005, "eur"))
	assert.Equal(t, "JPY 1500", FormatAmount(1500, "jpy"))
	assert.Equal(t, "KRW 30000", FormatAmount(30000, "KRW"))
}

func TestRenderPurchaseConfirmation(t *testing.T) {
	body, err := renderPurchaseConfirmation("https://watch.example.com/", PurchaseEmail{
		To:          "fan@example.com",
		Name:        "Fan",
		EventTitle:  "Night Show",
		EventSlug:   "night-show",
		TicketName:  "General Admission",
		Amount:      5000,
		Currency:    "usd",
		AccessToken: "tok+with/specials",
	})
	require.NoError(t, err)

	assert.Contains(t, body, "Night Show")
	assert.Contains(t, body, "General Admission")
	assert.Contains(t, body, "USD 50.00")
	assert.Contains(t, body, ", Fan!")

	// The token is query-escaped inside the watch link.
	assert.Contains(t, body, "https://watch.example.com/watch/night-show?token=tok%2Bwith%2Fspecials")
	assert.NotContains(t, body, "token=tok+with/specials")
}

func TestRenderPasswordReset(t *testing.T) {
	body, err := renderPasswordReset("https://watch.example.com", PasswordResetEmail{
		To:         "fan@example.com",
		Name:       "Fan",
		ResetToken: "rst+token/1",
	})
	require.NoError(t, err)

	assert.Contains(t, body, "for Fan")
	assert.Contains(t, body, "https://watch.example.com/reset-password?token=rst%2Btoken%2F1")
}
