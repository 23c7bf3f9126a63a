package events

// TopicForEvent maps event type names to their logical topics. The
// expiration topic name is part of the contract with the downstream
// ledger consumer; everything else follows the events.<name> convention.
func TopicForEvent(eventName string) string {
	switch eventName {
	case "TicketLockExpired_v1":
		return "ticket.lock.expiration"
	case "PaymentStatusChanged_v1":
		return "payment.status"
	case "TicketClassUpsert_v1":
		return "ticket-class.mutation"
	case "ShowEnded_v1":
		return "show.sale-status.ended"
	default:
		return "events." + eventName
	}
}
