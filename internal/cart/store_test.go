package cart

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func whey() Product {
	return Product{ID: "A", Name: "Whey", Price: 90}
}

func requireDecimal(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("expected %s, got %s", want, got.String())
	}
}

func TestWheyScenario(t *testing.T) {
	s := NewStore()

	s.AddItem(whey(), 1, "Chocolate")
	snap := s.Snapshot()
	if len(snap.Items) != 1 {
		t.Fatalf("expected 1 row, got %d", len(snap.Items))
	}
	row := snap.Items[0]
	if row.ProductID != "A" || row.Variant != "Chocolate" || row.Quantity != 1 {
		t.Fatalf("unexpected row %+v", row)
	}
	requireDecimal(t, row.UnitPrice, "90")
	if snap.TotalCount != 1 {
		t.Fatalf("expected total count 1, got %d", snap.TotalCount)
	}
	requireDecimal(t, snap.TotalValue, "90")

	s.AddItem(Product{ID: "A", Price: 90}, 2, "Chocolate")
	snap = s.Snapshot()
	if len(snap.Items) != 1 || snap.Items[0].Quantity != 3 {
		t.Fatalf("expected merged row with qty 3, got %+v", snap.Items)
	}
	if snap.Items[0].Name != "Whey" {
		t.Fatalf("merge must keep the original snapshot name, got %q", snap.Items[0].Name)
	}
	requireDecimal(t, snap.TotalValue, "270")

	s.SetQuantity("A", 1, "Chocolate")
	if got := s.Items()[0].Quantity; got != 1 {
		t.Fatalf("expected qty 1 after set, got %d", got)
	}
	requireDecimal(t, s.TotalValue(), "90")

	s.RemoveItem("A", "Chocolate")
	if len(s.Items()) != 0 {
		t.Fatalf("expected empty cart")
	}
	requireDecimal(t, s.TotalValue(), "0")
	if s.TotalCount() != 0 {
		t.Fatalf("expected zero count")
	}
}

func TestVariantsAreDistinctRows(t *testing.T) {
	s := NewStore()
	s.AddItem(whey(), 1, "Chocolate")
	s.AddItem(whey(), 1, "Morango")
	s.AddItem(whey(), 1, "")

	items := s.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(items))
	}
	want := []string{"Chocolate", "Morango", ""}
	for i, v := range want {
		if items[i].Variant != v {
			t.Fatalf("row %d: expected variant %q, got %q", i, v, items[i].Variant)
		}
	}
}

func TestMergeKeepsInsertionOrder(t *testing.T) {
	s := NewStore()
	s.AddItem(Product{ID: "A", Price: 10}, 1, "")
	s.AddItem(Product{ID: "B", Price: 20}, 1, "")
	s.AddItem(Product{ID: "A", Price: 10}, 4, "")

	items := s.Items()
	if len(items) != 2 || items[0].ProductID != "A" || items[1].ProductID != "B" {
		t.Fatalf("unexpected order %+v", items)
	}
	if items[0].Quantity != 5 {
		t.Fatalf("expected merged qty 5, got %d", items[0].Quantity)
	}
}

func TestUniquenessUnderRepeatedAdds(t *testing.T) {
	s := NewStore()
	for i := 0; i < 10; i++ {
		s.AddItem(whey(), 1, "Baunilha")
	}
	items := s.Items()
	if len(items) != 1 || items[0].Quantity != 10 {
		t.Fatalf("expected a single row of 10, got %+v", items)
	}
}

func TestQuantityFloor(t *testing.T) {
	tests := []struct {
		name string
		qty  any
		want int
	}{
		{name: "zero", qty: 0, want: 1},
		{name: "negative", qty: -5, want: 1},
		{name: "nil", qty: nil, want: 1},
		{name: "garbage string", qty: "abc", want: 1},
		{name: "numeric string", qty: "3", want: 3},
		{name: "fraction", qty: 2.9, want: 2},
		{name: "small fraction", qty: 0.4, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			s.AddItem(whey(), tt.qty, "")
			if got := s.Items()[0].Quantity; got != tt.want {
				t.Fatalf("expected qty %d, got %d", tt.want, got)
			}
		})
	}
}

func TestSetQuantityZeroRemovesAndRepeatIsNoop(t *testing.T) {
	s := NewStore()
	s.AddItem(whey(), 1, "")
	s.SetQuantity("A", 0, "")
	if len(s.Items()) != 0 {
		t.Fatalf("expected row removed")
	}
	s.SetQuantity("A", 0, "")
	if len(s.Items()) != 0 {
		t.Fatalf("repeat should be a no-op")
	}
}

func TestSetQuantityNegativeRemoves(t *testing.T) {
	s := NewStore()
	s.AddItem(whey(), 3, "Chocolate")
	s.SetQuantity("A", -1, "Chocolate")
	if len(s.Items()) != 0 {
		t.Fatalf("expected row removed")
	}
}

func TestSetQuantityNeverCreatesRows(t *testing.T) {
	s := NewStore()
	s.SetQuantity("A", 5, "")
	if len(s.Items()) != 0 {
		t.Fatalf("setQuantity must not create rows")
	}

	s.AddItem(whey(), 1, "Chocolate")
	s.SetQuantity("A", 5, "Morango")
	items := s.Items()
	if len(items) != 1 || items[0].Variant != "Chocolate" || items[0].Quantity != 1 {
		t.Fatalf("other variant must be untouched, got %+v", items)
	}
}

func TestSetQuantityReplacesExactly(t *testing.T) {
	s := NewStore()
	s.AddItem(whey(), 2, "")
	s.SetQuantity("A", "7", "")
	if got := s.Items()[0].Quantity; got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}

func TestSetQuantityIgnoresUnparseableInput(t *testing.T) {
	s := NewStore()
	s.AddItem(whey(), 2, "")
	s.SetQuantity("A", "lots", "")
	if got := s.Items()[0].Quantity; got != 2 {
		t.Fatalf("garbage quantity must be ignored, got %d", got)
	}
	s.SetQuantity("A", nil, "")
	if len(s.Items()) != 0 {
		t.Fatalf("absent quantity counts as zero and removes the row")
	}
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	s := NewStore()
	s.AddItem(Product{ID: "A", Price: 1}, 1, "")
	s.AddItem(Product{ID: "B", Price: 2}, 1, "")

	s.RemoveItem("A", "")
	once := s.Snapshot()
	s.RemoveItem("A", "")
	twice := s.Snapshot()

	if len(once.Items) != len(twice.Items) || twice.Items[0].ProductID != "B" {
		t.Fatalf("second removal changed state: %+v vs %+v", once.Items, twice.Items)
	}
	if !once.TotalValue.Equal(twice.TotalValue) {
		t.Fatalf("totals diverged")
	}
}

func TestInvalidIdentityIsNoop(t *testing.T) {
	s := NewStore()
	s.AddItem(whey(), 2, "")
	before := s.Snapshot()

	s.AddItem(Product{ID: ""}, 1, "")
	s.AddItem(Product{ID: "   ", Price: 10}, 3, "Chocolate")

	after := s.Snapshot()
	if len(after.Items) != len(before.Items) {
		t.Fatalf("items changed")
	}
	if after.TotalCount != before.TotalCount || !after.TotalValue.Equal(before.TotalValue) {
		t.Fatalf("totals changed")
	}
	if !after.LastMutatedAt.Equal(before.LastMutatedAt) {
		t.Fatalf("lastMutatedAt changed on invalid add")
	}
}

func TestDerivedTotalsAreExact(t *testing.T) {
	s := NewStore()
	s.AddItem(Product{ID: "A", Price: "0,10"}, 3, "")
	s.AddItem(Product{ID: "B", Price: 0.2}, 1, "")
	s.AddItem(Product{ID: "C", Price: "149.90"}, 2, "Chocolate")

	requireDecimal(t, s.TotalValue(), "300.3")
	if s.TotalCount() != 6 {
		t.Fatalf("expected 6, got %d", s.TotalCount())
	}

	sum := decimal.Zero
	count := 0
	for _, item := range s.Items() {
		sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		count += item.Quantity
	}
	if !sum.Equal(s.TotalValue()) || count != s.TotalCount() {
		t.Fatalf("derived totals disagree with rows")
	}
}

func TestClearIsIdempotentAndDoesNotStamp(t *testing.T) {
	s := NewStore()
	s.AddItem(whey(), 1, "")
	stamp := s.LastMutatedAt()

	s.Clear()
	s.Clear()
	if len(s.Items()) != 0 || s.TotalCount() != 0 {
		t.Fatalf("expected empty cart")
	}
	if !s.LastMutatedAt().Equal(stamp) {
		t.Fatalf("clear must not stamp")
	}
}

func TestOnlyAddStamps(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(WithClock(clock.Now))
	if !s.LastMutatedAt().IsZero() {
		t.Fatalf("new cart should have a zero stamp")
	}

	s.AddItem(whey(), 1, "")
	first := s.LastMutatedAt()
	if !first.Equal(clock.Now()) {
		t.Fatalf("expected stamp %v, got %v", clock.Now(), first)
	}

	clock.Advance(time.Second)
	s.SetQuantity("A", 4, "")
	s.RemoveItem("B", "")
	s.RemoveItem("A", "")
	s.Clear()
	if !s.LastMutatedAt().Equal(first) {
		t.Fatalf("only adds may stamp")
	}
}

func TestStampsStrictlyIncrease(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(WithClock(clock.Now))

	s.AddItem(whey(), 1, "")
	first := s.LastMutatedAt()
	s.AddItem(whey(), 1, "")
	second := s.LastMutatedAt()
	if !second.After(first) {
		t.Fatalf("expected %v after %v with a frozen clock", second, first)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := NewStore()
	s.AddItem(whey(), 1, "")

	snap := s.Snapshot()
	snap.Items[0].Quantity = 99
	snap.Items = append(snap.Items, LineItem{ProductID: "X"})

	if got := s.Items(); len(got) != 1 || got[0].Quantity != 1 {
		t.Fatalf("snapshot mutation leaked into store: %+v", got)
	}
}

func TestAddThenSetSeesPostAddState(t *testing.T) {
	s := NewStore()
	s.AddItem(whey(), 1, "")
	s.SetQuantity("A", 1, "")
	s.AddItem(whey(), 1, "")
	if got := s.Items()[0].Quantity; got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

func TestConcurrentAddsKeepInvariants(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			variant := "Chocolate"
			if i%2 == 0 {
				variant = "Morango"
			}
			s.AddItem(whey(), 1, variant)
		}(i)
	}
	wg.Wait()

	items := s.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(items))
	}
	if s.TotalCount() != 50 {
		t.Fatalf("expected 50 units, got %d", s.TotalCount())
	}
	requireDecimal(t, s.TotalValue(), "4500")
}
