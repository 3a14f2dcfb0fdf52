package payments

import "testing"

func TestReconcileStatuses(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		wantTxn Status
		wantOrd Status
	}{
		{"success promotes to paid/success", "success", StatusPaid, StatusSuccess},
		{"failed passes through", "failed", StatusFailed, StatusFailed},
		{"abandoned passes through", "abandoned", Status("abandoned"), Status("abandoned")},
		{"unknown label passes through", "reversed", Status("reversed"), Status("reversed")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			txn, ord := ReconcileStatuses(tc.in)
			if txn != tc.wantTxn || ord != tc.wantOrd {
				t.Fatalf("ReconcileStatuses(%q) = (%q, %q), want (%q, %q)",
					tc.in, txn, ord, tc.wantTxn, tc.wantOrd)
			}
		})
	}
}
