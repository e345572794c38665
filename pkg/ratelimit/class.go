package ratelimit

import "time"

// Class is an endpoint risk class with its own budget. Stricter budgets
// protect higher-risk or higher-cost endpoints.
type Class struct {
	Name   string
	Limit  int
	Window time.Duration
}

var (
	// ClassAuth covers authentication attempts.
	ClassAuth = Class{Name: "auth", Limit: 5, Window: 15 * time.Minute}
	// ClassPayment covers order creation and payment verification.
	ClassPayment = Class{Name: "payment", Limit: 3, Window: time.Minute}
	// ClassChat covers chatbot message sends.
	ClassChat = Class{Name: "chat", Limit: 30, Window: time.Minute}
	// ClassAPI is the generic API budget.
	ClassAPI = Class{Name: "api", Limit: 100, Window: time.Minute}
)
