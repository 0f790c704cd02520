package shared

// Task types handled by the worker
const (
	TypeCheckoutEvent       = "checkout:event"
	TypeExpireStaleSessions = "checkout:expire_stale_sessions"
)

// Queue names and their priorities on the worker
const (
	QueueCheckout = "checkout"
	QueueEvents   = "events"
	QueueDefault  = "default"
)

// QueuePriorities is passed to asynq.Config.Queues
var QueuePriorities = map[string]int{
	QueueEvents:   6,
	QueueCheckout: 3,
	QueueDefault:  1,
}

// ExpireStaleSessionsPayload is the payload of the scheduled sweep.
// Zero values fall back to the worker config.
type ExpireStaleSessionsPayload struct {
	BatchSize int `json:"batchSize"`
}

// Context keys set by middleware
const (
	ContextKeyCustomerID = "customer_id"
	ContextKeyRole       = "role"
	ContextKeyRequestID  = "request_id"
	ContextKeyClientIP   = "client_ip"
)
