package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Klingon-tech/utxoledger/pkg/block"
)

func TestMetrics_Observer(t *testing.T) {
	m := New()

	m.TxAdmitted()
	m.TxAdmitted()
	m.TxRejected("insufficient_balance")
	m.BlockMined(&block.Block{Index: 1, Nonce: 41}, 3*time.Millisecond)
	m.StateChanged(7, 2, 11)

	if got := testutil.ToFloat64(m.TxAdmittedTotal); got != 2 {
		t.Errorf("admitted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.TxRejectedTotal.WithLabelValues("insufficient_balance")); got != 1 {
		t.Errorf("rejected = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.BlocksMined); got != 1 {
		t.Errorf("blocks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Height); got != 7 {
		t.Errorf("height = %v, want 7", got)
	}
	if got := testutil.ToFloat64(m.Pending); got != 2 {
		t.Errorf("pending = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.UTXOCount); got != 11 {
		t.Errorf("utxos = %v, want 11", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.StateChanged(3, 0, 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	if !strings.Contains(string(body), "utxoledger_chain_height 3") {
		t.Errorf("height gauge missing from output:\n%s", body)
	}
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	// Registering twice in one process must not panic.
	a, b := New(), New()
	a.TxAdmitted()
	if got := testutil.ToFloat64(b.TxAdmittedTotal); got != 0 {
		t.Errorf("registries share state: %v", got)
	}
}
