package payments

const (
	TopicCheckoutRecorded  = "payment.checkout.recorded"
	TopicPaymentReconciled = "payment.reconciled"
)

// Partition key = gateway reference, so all events for one charge keep order.
func PartitionKey(reference string) []byte { return []byte(reference) }
