package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tardieats/payments-relay/internal/checkout"
	"github.com/tardieats/payments-relay/internal/gateway"
	"github.com/tardieats/payments-relay/internal/payments"
	"github.com/tardieats/payments-relay/internal/reconcile"
)

type fakeStore struct {
	txn       payments.Transaction
	ord       payments.Order
	creates   int
	updates   int
	updateErr error
	updTxn    payments.Status
	updOrd    payments.Status
}

func (f *fakeStore) CreateBoth(ctx context.Context, txn payments.Transaction, ord payments.Order) error {
	f.txn, f.ord = txn, ord
	f.creates++
	return nil
}

func (f *fakeStore) UpdateBoth(ctx context.Context, reference string, txnStatus, ordStatus payments.Status) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updTxn, f.updOrd = txnStatus, ordStatus
	f.updates++
	return nil
}

type fakeStatusReader struct {
	statuses map[string]payments.Status
}

func (f *fakeStatusReader) GetOrderStatus(ctx context.Context, id string) (payments.Status, error) {
	st, ok := f.statuses[id]
	if !ok {
		return "", payments.ErrNotFound
	}
	return st, nil
}

func newTestRouter(h *PaymentsHandler) http.Handler {
	r := NewRouter()
	h.Register(r)
	return r
}

func TestUnmatchedRouteDenied(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(&PaymentsHandler{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/unknown")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["url"] != "/v1/unknown" {
		t.Fatalf("body = %v, want the requested url echoed", body)
	}
}

func TestCheckoutEndToEnd(t *testing.T) {
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/charge" {
			t.Errorf("gateway path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"status": true,
			"message": "Charge attempted",
			"data": {
				"reference": "T1", "amount": 5000, "transaction_date": "2024-01-01",
				"status": "success", "channel": "card", "message": "Approved",
				"fees": 5000, "gateway_response": "Approved",
				"metadata": {"user_id": "U1"}
			}
		}`))
	}))
	defer gw.Close()

	fs := &fakeStore{}
	client := gateway.NewClient(gw.URL, "sk_test")
	h := &PaymentsHandler{
		Gateway:  client,
		Checkout: &checkout.Service{Gateway: client, Store: fs, ServiceName: "test"},
	}
	srv := httptest.NewServer(newTestRouter(h))
	defer srv.Close()

	reqBody := `{"order":{"items":["pizza"],"total":50},"charge":{"email":"u@example.com","amount":5000}}`
	resp, err := http.Post(srv.URL+"/v1/checkout", "application/json", strings.NewReader(reqBody))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var receipt checkout.Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		t.Fatal(err)
	}
	want := checkout.Receipt{Status: "success", Message: "Approved", Reference: "T1"}
	if receipt != want {
		t.Fatalf("receipt = %+v, want %+v", receipt, want)
	}

	if fs.creates != 1 {
		t.Fatalf("creates = %d, want 1", fs.creates)
	}
	if fs.txn.ID != "T1" || fs.ord.ID != "T1" {
		t.Fatalf("pair keys = %q/%q, want T1", fs.txn.ID, fs.ord.ID)
	}
	if fs.ord.Status != payments.StatusPending {
		t.Fatalf("order status = %q, want pending", fs.ord.Status)
	}
}

func TestCheckoutGatewayFailurePassesThrough(t *testing.T) {
	errBody := `{"status":false,"message":"Insufficient funds"}`
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(errBody))
	}))
	defer gw.Close()

	fs := &fakeStore{}
	client := gateway.NewClient(gw.URL, "sk_test")
	h := &PaymentsHandler{
		Gateway:  client,
		Checkout: &checkout.Service{Gateway: client, Store: fs},
	}
	srv := httptest.NewServer(newTestRouter(h))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/checkout", "application/json",
		strings.NewReader(`{"order":{},"charge":{}}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want gateway's 402 forwarded", resp.StatusCode)
	}
	var got map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got["message"] != "Insufficient funds" {
		t.Fatalf("gateway body not passed through: %v", got)
	}
	if fs.creates != 0 {
		t.Fatal("nothing should persist on a declined charge")
	}
}

func TestProxyRoutesPassThrough(t *testing.T) {
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/transaction/initialize", "/charge/submit_otp":
			_, _ = w.Write([]byte(`{"status":true,"message":"ok"}`))
		case "/transaction/verify/T1":
			_, _ = w.Write([]byte(`{"status":true,"data":{"reference":"T1"}}`))
		default:
			t.Errorf("unexpected gateway path %s", r.URL.Path)
		}
	}))
	defer gw.Close()

	h := &PaymentsHandler{Gateway: gateway.NewClient(gw.URL, "sk")}
	srv := httptest.NewServer(newTestRouter(h))
	defer srv.Close()

	for _, tc := range []struct {
		method, path, body string
	}{
		{http.MethodPost, "/v1/transactions/create", `{"email":"u@example.com"}`},
		{http.MethodGet, "/v1/transactions/verify/T1", ""},
		{http.MethodPost, "/v1/checkout/otp", `{"otp":"123456"}`},
	} {
		req, _ := http.NewRequest(tc.method, srv.URL+tc.path, strings.NewReader(tc.body))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s %s: status = %d", tc.method, tc.path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestWebhookReconciles(t *testing.T) {
	fs := &fakeStore{}
	h := &PaymentsHandler{Reconciler: &reconcile.Service{Store: fs}}
	srv := httptest.NewServer(newTestRouter(h))
	defer srv.Close()

	body := `{"event":"charge.success","data":{"status":"success","reference":"T1"}}`
	resp, err := http.Post(srv.URL+"/webhook", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if fs.updates != 1 || fs.updTxn != payments.StatusPaid || fs.updOrd != payments.StatusSuccess {
		t.Fatalf("stored pair = (%q, %q) after %d updates", fs.updTxn, fs.updOrd, fs.updates)
	}
	var ack map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatal(err)
	}
	if ack["received"] != true || ack["reference"] != "T1" {
		t.Fatalf("ack = %v", ack)
	}
}

func TestWebhookIgnoresForeignEvents(t *testing.T) {
	fs := &fakeStore{}
	h := &PaymentsHandler{Reconciler: &reconcile.Service{Store: fs}}
	srv := httptest.NewServer(newTestRouter(h))
	defer srv.Close()

	body := `{"event":"transfer.success","data":{"status":"success","reference":"T1"}}`
	resp, err := http.Post(srv.URL+"/webhook", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 acknowledgement", resp.StatusCode)
	}
	if fs.updates != 0 {
		t.Fatal("store must stay untouched for foreign events")
	}
}

func TestWebhookMissingPairReturns500(t *testing.T) {
	fs := &fakeStore{updateErr: payments.ErrNotFound}
	h := &PaymentsHandler{Reconciler: &reconcile.Service{Store: fs}}
	srv := httptest.NewServer(newTestRouter(h))
	defer srv.Close()

	body := `{"event":"charge.success","data":{"status":"success","reference":"ghost"}}`
	resp, err := http.Post(srv.URL+"/webhook", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 so the gateway redelivers", resp.StatusCode)
	}
}

func TestOrderStatusFallsBackToStore(t *testing.T) {
	h := &PaymentsHandler{
		Orders: &fakeStatusReader{statuses: map[string]payments.Status{"T1": payments.StatusPending}},
	}
	srv := httptest.NewServer(newTestRouter(h))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/orders/T1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "pending" {
		t.Fatalf("body = %v", body)
	}

	resp2, err := http.Get(srv.URL + "/v1/orders/ghost")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown order: status = %d, want 404", resp2.StatusCode)
	}
}
