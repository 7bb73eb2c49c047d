package ranking

import "testing"

func TestRankOrders_VipFirst(t *testing.T) {
	orders := []OrderFeatures{
		{OrderID: "O2", VIP: false, DueUnix: 100},
		{OrderID: "O1", VIP: true, DueUnix: 200},
	}
	rows, err := RankOrders(orders, DefaultOrderScheme())
	if err != nil {
		t.Fatalf("RankOrders: %v", err)
	}
	if rows[0].Order.OrderID != "O1" {
		t.Errorf("VIP order should rank first, got %s", rows[0].Order.OrderID)
	}
}

func TestRankOrders_DueAscendingWithinVIP(t *testing.T) {
	orders := []OrderFeatures{
		{OrderID: "O_LATE", VIP: true, DueUnix: 500},
		{OrderID: "O_EARLY", VIP: true, DueUnix: 100},
	}
	rows, err := RankOrders(orders, DefaultOrderScheme())
	if err != nil {
		t.Fatalf("RankOrders: %v", err)
	}
	if rows[0].Order.OrderID != "O_EARLY" {
		t.Errorf("earlier due date should rank first, got %s", rows[0].Order.OrderID)
	}
}

func TestRankOrders_TerminalTieBreakOnOrderID(t *testing.T) {
	orders := []OrderFeatures{
		{OrderID: "O2"},
		{OrderID: "O1"},
	}
	rows, err := RankOrders(orders, DefaultOrderScheme())
	if err != nil {
		t.Fatalf("RankOrders: %v", err)
	}
	if rows[0].Order.OrderID != "O1" || rows[1].Order.OrderID != "O2" {
		t.Errorf("expected ascending order_id tie-break, got %s, %s", rows[0].Order.OrderID, rows[1].Order.OrderID)
	}
}

func TestValidateOrderScheme_RejectsDuplicate(t *testing.T) {
	if err := ValidateOrderScheme([]OrderDim{DimVIP, DimVIP}); err == nil {
		t.Fatal("expected error for duplicate dimension")
	}
}

func TestValidateOrderScheme_RejectsUnknown(t *testing.T) {
	if err := ValidateOrderScheme([]OrderDim{"bogus"}); err == nil {
		t.Fatal("expected error for unknown dimension")
	}
}

func TestLexOrderProperty(t *testing.T) {
	orders := []OrderFeatures{
		{OrderID: "A", VIP: true, DueUnix: 10, AlphaCold: 0.5, VEff: 3, WeightKg: 10},
		{OrderID: "B", VIP: true, DueUnix: 10, AlphaCold: 0.9, VEff: 3, WeightKg: 10},
	}
	rows, err := RankOrders(orders, DefaultOrderScheme())
	if err != nil {
		t.Fatalf("RankOrders: %v", err)
	}
	// Higher alpha (descending direction) must precede lower alpha once
	// vip/due tie, matching sort_key(a) < sort_key(b) iff a precedes b.
	if rows[0].Order.OrderID != "B" {
		t.Errorf("higher alpha should precede lower alpha on tie, got order %s first", rows[0].Order.OrderID)
	}
}
