// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package orders

import (
	"errors"
	"testing"
)

func TestSeedOrders(t *testing.T) {
	repo := NewRepository()
	list := repo.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(list))
	}
	for i, want := range []string{"HT20260301001", "HT20260301002", "HT20260301003"} {
		if list[i].OrderID != want {
			t.Fatalf("order %d: expected %s, got %s", i, want, list[i].OrderID)
		}
		if list[i].Status != StatusConfirmed {
			t.Fatalf("order %s: expected confirmed, got %s", want, list[i].Status)
		}
	}
	o, err := repo.Get("HT20260301001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if o.SupplierOrderID != "SUP-88901" {
		t.Fatalf("unexpected supplier order id %s", o.SupplierOrderID)
	}
}

func TestCancelAndReset(t *testing.T) {
	repo := NewRepository()

	o, err := repo.Cancel("HT20260301002")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if o.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", o.Status)
	}
	if _, err := repo.Cancel("HT20260301002"); !errors.Is(err, ErrAlreadyCancelled) {
		t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
	}
	if _, err := repo.Cancel("HT00000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	repo.Reset()
	o, _ = repo.Get("HT20260301002")
	if o.Status != StatusConfirmed {
		t.Fatalf("expected reset to confirmed, got %s", o.Status)
	}
}

func TestSeedIsNotShared(t *testing.T) {
	a := NewRepository()
	b := NewRepository()
	if _, err := a.Cancel("HT20260301001"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	o, _ := b.Get("HT20260301001")
	if o.Status != StatusConfirmed {
		t.Fatalf("repositories must not share state")
	}
}
