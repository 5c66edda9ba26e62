package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/invoicing/plugin"
	"github.com/xraph/invoicing/transaction"
	"github.com/xraph/invoicing/types"
)

type testCounter struct{ n float64 }

func (c *testCounter) Inc()          { c.n++ }
func (c *testCounter) Add(v float64) { c.n += v }

type testHistogram struct{ samples []float64 }

func (h *testHistogram) Observe(v float64) { h.samples = append(h.samples, v) }

type testFactory struct {
	counters   map[string]*testCounter
	histograms map[string]*testHistogram
}

func newTestFactory() *testFactory {
	return &testFactory{
		counters:   map[string]*testCounter{},
		histograms: map[string]*testHistogram{},
	}
}

func (f *testFactory) Counter(name string) Counter {
	c := &testCounter{}
	f.counters[name] = c
	return c
}

func (f *testFactory) Histogram(name string) Histogram {
	h := &testHistogram{}
	f.histograms[name] = h
	return h
}

type brokenPlugin struct{}

func (brokenPlugin) Name() string { return "broken" }

func (brokenPlugin) OnInvoicePaid(_ context.Context, _ interface{}) error {
	return errors.New("webhook down")
}

func TestPluginErrorsCounted(t *testing.T) {
	factory := newTestFactory()
	metrics := NewMetricsExtension(factory)

	r := plugin.NewRegistry()
	if err := r.Register(metrics); err != nil {
		t.Fatalf("Register metrics: %v", err)
	}
	if err := r.Register(brokenPlugin{}); err != nil {
		t.Fatalf("Register broken: %v", err)
	}

	ctx := context.Background()
	r.EmitInvoicePaid(ctx, nil)
	r.EmitInvoicePaid(ctx, nil)

	if got := factory.counters["invoicing.plugin.errors"].n; got != 2 {
		t.Errorf("plugin errors: got %v, want 2", got)
	}
	if got := factory.counters["invoicing.invoice.paid"].n; got != 2 {
		t.Errorf("invoices paid: got %v, want 2", got)
	}
}

func TestTransactionAmountsRouted(t *testing.T) {
	factory := newTestFactory()
	metrics := NewMetricsExtension(factory)

	ctx := context.Background()
	sale := &transaction.Transaction{Type: transaction.TypeSale, Amount: types.MustParse("175.00")}
	payment := &transaction.Transaction{Type: transaction.TypePayment, Amount: types.MustParse("50.25")}
	if err := metrics.OnTransactionRecorded(ctx, sale); err != nil {
		t.Fatalf("OnTransactionRecorded: %v", err)
	}
	if err := metrics.OnTransactionRecorded(ctx, payment); err != nil {
		t.Fatalf("OnTransactionRecorded: %v", err)
	}

	if got := factory.counters["invoicing.transaction.recorded"].n; got != 2 {
		t.Errorf("transactions recorded: got %v, want 2", got)
	}
	sales := factory.histograms["invoicing.transaction.sale_amount"].samples
	if len(sales) != 1 || sales[0] != 175 {
		t.Errorf("sale samples: got %v, want [175]", sales)
	}
	payments := factory.histograms["invoicing.transaction.payment_amount"].samples
	if len(payments) != 1 || payments[0] != 50.25 {
		t.Errorf("payment samples: got %v, want [50.25]", payments)
	}
}
