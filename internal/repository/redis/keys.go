package redis

import "fmt"

const ns = "livegate:v1"

func KeyEventsList() string {
	return ns + ":events:list"
}

func KeyEventSummary(slug string) string {
	return fmt.Sprintf("%s:event:%s:summary", ns, slug)
}

func KeyWebhookEvent(stripeEventID string) string {
	return fmt.Sprintf("%s:webhook:%s", ns, stripeEventID)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}
