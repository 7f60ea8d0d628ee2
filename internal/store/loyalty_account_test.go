package store

import (
	"testing"

	"github.com/finjaanapp/finjaan/internal/database"
	"github.com/finjaanapp/finjaan/internal/model"
	"github.com/finjaanapp/finjaan/internal/money"
)

func setupLoyaltyTestDB(t *testing.T) (*LoyaltyAccountStore, *RedemptionCodeStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewLoyaltyAccountStore(db), NewRedemptionCodeStore(db)
}

func TestLoyaltyAccountCreate(t *testing.T) {
	as, _ := setupLoyaltyTestDB(t)

	a, err := as.Create("Ali", "0500000000", "tok-1", "FJC-0000000001")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if a.Tier != "bronze" {
		t.Errorf("tier = %q, want bronze", a.Tier)
	}
	if a.LifetimeStamps != 0 || a.FreeCupsEarned != 0 || a.FreeCupsRedeemed != 0 {
		t.Errorf("counters not zeroed: %+v", a)
	}

	byPhone, err := as.GetByPhone("0500000000")
	if err != nil {
		t.Fatalf("get by phone: %v", err)
	}
	if byPhone == nil || byPhone.ID != a.ID {
		t.Error("expected lookup by phone to find the account")
	}

	byToken, err := as.GetByToken("tok-1")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if byToken == nil || byToken.ID != a.ID {
		t.Error("expected lookup by token to find the account")
	}
}

func TestLoyaltyAccountPhoneUnique(t *testing.T) {
	as, _ := setupLoyaltyTestDB(t)

	if _, err := as.Create("Ali", "0500000000", "tok-1", "FJC-1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := as.Create("Other", "0500000000", "tok-2", "FJC-2"); err == nil {
		t.Error("expected unique constraint violation on duplicate phone")
	}
}

func TestAddStampMaintainsFreeCupInvariant(t *testing.T) {
	as, _ := setupLoyaltyTestDB(t)
	a, _ := as.Create("Ali", "0500000000", "tok-1", "FJC-1")

	for i := 1; i <= 13; i++ {
		got, err := as.AddStamp(a.ID)
		if err != nil {
			t.Fatalf("add stamp %d: %v", i, err)
		}
		if got.LifetimeStamps != i {
			t.Fatalf("lifetime = %d, want %d", got.LifetimeStamps, i)
		}
		if got.FreeCupsEarned != i/model.StampsPerCycle {
			t.Fatalf("at %d stamps: earned = %d, want %d", i, got.FreeCupsEarned, i/model.StampsPerCycle)
		}
	}
}

func TestRedeemFreeCupGuardsBalance(t *testing.T) {
	as, _ := setupLoyaltyTestDB(t)
	a, _ := as.Create("Ali", "0500000000", "tok-1", "FJC-1")

	ok, err := as.RedeemFreeCup(a.ID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if ok {
		t.Error("redeem must fail with no cups earned")
	}

	for i := 0; i < 6; i++ {
		as.AddStamp(a.ID)
	}

	ok, err = as.RedeemFreeCup(a.ID)
	if err != nil {
		t.Fatalf("redeem after cycle: %v", err)
	}
	if !ok {
		t.Fatal("redeem should succeed with one cup earned")
	}

	ok, _ = as.RedeemFreeCup(a.ID)
	if ok {
		t.Error("second redeem must fail, balance exhausted")
	}
}

func TestRecordPurchase(t *testing.T) {
	as, _ := setupLoyaltyTestDB(t)
	a, _ := as.Create("Ali", "0500000000", "tok-1", "FJC-1")

	got, err := as.RecordPurchase(a.ID, money.Amount(3450), true)
	if err != nil {
		t.Fatalf("record purchase: %v", err)
	}
	if got.LifetimeStamps != 1 || got.TotalSpent != 3450 || got.DiscountCount != 1 {
		t.Errorf("after purchase: %+v", got)
	}

	got, _ = as.RecordPurchase(a.ID, money.Amount(1000), false)
	if got.TotalSpent != 4450 || got.DiscountCount != 1 {
		t.Errorf("after second purchase: spent = %d, discounts = %d", got.TotalSpent, got.DiscountCount)
	}
}

func TestRedemptionCodeConsumeIsSingleUse(t *testing.T) {
	as, cs := setupLoyaltyTestDB(t)
	a, _ := as.Create("Ali", "0500000000", "tok-1", "FJC-1")

	if err := cs.Mint([]string{"FJ-AAAA-BBBB"}, nil); err != nil {
		t.Fatalf("mint: %v", err)
	}

	ok, err := cs.Consume("FJ-AAAA-BBBB", a.ID)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !ok {
		t.Fatal("first consume should win")
	}

	ok, err = cs.Consume("FJ-AAAA-BBBB", a.ID)
	if err != nil {
		t.Fatalf("second consume: %v", err)
	}
	if ok {
		t.Error("second consume must lose")
	}

	rc, err := cs.GetByCode("FJ-AAAA-BBBB")
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if rc.UsedAt == nil || rc.UsedBy == nil || *rc.UsedBy != a.ID {
		t.Errorf("consumed code not recorded: %+v", rc)
	}
}

func TestRedemptionCodeListUnused(t *testing.T) {
	as, cs := setupLoyaltyTestDB(t)
	a, _ := as.Create("Ali", "0500000000", "tok-1", "FJC-1")

	cs.Mint([]string{"FJ-AAAA-2222", "FJ-BBBB-3333"}, nil)
	cs.Consume("FJ-AAAA-2222", a.ID)

	unused, err := cs.ListUnused(10)
	if err != nil {
		t.Fatalf("list unused: %v", err)
	}
	if len(unused) != 1 || unused[0].Code != "FJ-BBBB-3333" {
		t.Errorf("unused = %+v, want only FJ-BBBB-3333", unused)
	}
}
