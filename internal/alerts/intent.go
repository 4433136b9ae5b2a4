// Package alerts holds the notification rules: pure evaluators that turn a
// user's stored aggregates into notification intents, the batch scanners that
// drive them over the push-enabled population, and the dispatcher that hands
// intents to the push channel.
package alerts

const (
	KindBudgetAlert   = "budget_alert"
	KindBillReminder  = "bill_reminder"
	KindSpendingAlert = "spending_alert"
	KindTest          = "test"
)

const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Intent is one notification we have decided to send. It lives only for the
// duration of the run that produced it.
type Intent struct {
	Kind  string
	Token string
	Title string
	Body  string
	// Data is the structured payload the client service worker routes on.
	// Always contains "type", "priority" and "click_action".
	Data map[string]string
}
