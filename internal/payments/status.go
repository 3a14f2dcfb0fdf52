package payments

// Status is the stored lifecycle label for transactions and orders. Gateway
// labels outside the known set pass through untouched so a new vocabulary on
// their side never gets silently rewritten on ours.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

// ReconcileStatuses maps a charge.success delivery status to the stored pair.
// Only the literal "success" is promoted to the canonical paid/success
// markers; anything else lands verbatim on both records. Downstream readers
// rely on "paid" being distinct from the gateway's raw vocabulary.
func ReconcileStatuses(gatewayStatus string) (txn Status, ord Status) {
	if Status(gatewayStatus) == StatusSuccess {
		return StatusPaid, StatusSuccess
	}
	return Status(gatewayStatus), Status(gatewayStatus)
}
