package ledger

// Lifecycle event names, used as Kafka event types and SSE payload tags.
const (
	EventCheckedIn      = "booking_checked_in"
	EventPaused         = "booking_paused"
	EventResumed        = "booking_resumed"
	EventCheckedOut     = "booking_checked_out"
	EventCancelled      = "booking_cancelled"
	EventTokenMinted    = "cash_token_minted"
	EventTokenValidated = "cash_token_validated"
	EventTokenRejected  = "cash_token_rejected"
)
