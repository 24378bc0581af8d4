package engine

import (
	"sync"
	"testing"

	"matchbook/internal/domain"
)

func entry(orderID string, side domain.Side, price string, remaining int64, seq uint64) *BookEntry {
	return &BookEntry{
		OrderID:   orderID,
		Side:      side,
		Price:     d(price),
		Remaining: remaining,
		Seq:       seq,
	}
}

func TestOrderBook_BidOrdering(t *testing.T) {
	ob := NewOrderBook("AAPL")
	ob.Lock()
	defer ob.Unlock()

	ob.Enqueue(entry("a", domain.SideBuy, "100", 10, 1))
	ob.Enqueue(entry("b", domain.SideBuy, "105", 10, 2))
	ob.Enqueue(entry("c", domain.SideBuy, "105", 10, 3))
	ob.Enqueue(entry("e", domain.SideBuy, "95", 10, 4))

	// Highest price first; equal prices by arrival sequence.
	want := []string{"b", "c", "a", "e"}
	for _, id := range want {
		got, ok := ob.PopBest(domain.SideBuy)
		if !ok {
			t.Fatalf("expected entry %s, book empty", id)
		}
		if got.OrderID != id {
			t.Fatalf("expected %s, got %s", id, got.OrderID)
		}
	}
	if ob.Len(domain.SideBuy) != 0 {
		t.Errorf("expected empty bid side, got %d", ob.Len(domain.SideBuy))
	}
}

func TestOrderBook_AskOrdering(t *testing.T) {
	ob := NewOrderBook("AAPL")
	ob.Lock()
	defer ob.Unlock()

	ob.Enqueue(entry("a", domain.SideSell, "100", 10, 1))
	ob.Enqueue(entry("b", domain.SideSell, "95", 10, 2))
	ob.Enqueue(entry("c", domain.SideSell, "95", 10, 3))

	// Lowest price first; equal prices by arrival sequence.
	want := []string{"b", "c", "a"}
	for _, id := range want {
		got, ok := ob.PopBest(domain.SideSell)
		if !ok {
			t.Fatalf("expected entry %s, book empty", id)
		}
		if got.OrderID != id {
			t.Fatalf("expected %s, got %s", id, got.OrderID)
		}
	}
}

func TestOrderBook_BestDoesNotRemove(t *testing.T) {
	ob := NewOrderBook("AAPL")
	ob.Lock()
	defer ob.Unlock()

	ob.Enqueue(entry("a", domain.SideBuy, "100", 10, 1))

	if e, ok := ob.Best(domain.SideBuy); !ok || e.OrderID != "a" {
		t.Fatal("expected to peek entry a")
	}
	if ob.Len(domain.SideBuy) != 1 {
		t.Error("Best must not remove the entry")
	}
}

func TestOrderBook_SidesAreIndependent(t *testing.T) {
	ob := NewOrderBook("AAPL")
	ob.Lock()
	defer ob.Unlock()

	ob.Enqueue(entry("bid", domain.SideBuy, "100", 10, 1))
	ob.Enqueue(entry("ask", domain.SideSell, "101", 10, 2))

	if e, _ := ob.Best(domain.SideBuy); e.OrderID != "bid" {
		t.Error("bid side returned an ask entry")
	}
	if e, _ := ob.Best(domain.SideSell); e.OrderID != "ask" {
		t.Error("ask side returned a bid entry")
	}
}

func TestBookRegistry_GetOrCreate_SameBook(t *testing.T) {
	r := NewBookRegistry()

	a := r.GetOrCreate("AAPL")
	b := r.GetOrCreate("AAPL")
	if a != b {
		t.Error("expected the same book for repeated get-or-create")
	}
	if c := r.GetOrCreate("GOOGL"); c == a {
		t.Error("expected distinct books per symbol")
	}
}

func TestBookRegistry_Get_DoesNotCreate(t *testing.T) {
	r := NewBookRegistry()

	if _, ok := r.Get("AAPL"); ok {
		t.Fatal("expected no book before first get-or-create")
	}
	r.GetOrCreate("AAPL")
	if _, ok := r.Get("AAPL"); !ok {
		t.Fatal("expected book after get-or-create")
	}
}

func TestBookRegistry_ConcurrentGetOrCreate_SingleBook(t *testing.T) {
	r := NewBookRegistry()

	const n = 64
	books := make([]*OrderBook, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			books[i] = r.GetOrCreate("RACE")
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if books[i] != books[0] {
			t.Fatal("concurrent get-or-create produced distinct books")
		}
	}
}
