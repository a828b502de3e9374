// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

// Package orders holds the hotel order book the business tools act on.
package orders

import (
	"errors"
	"sort"
	"sync"
)

// Status values of an order.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

var (
	// ErrNotFound is returned for an unknown order id.
	ErrNotFound = errors.New("order not found")
	// ErrAlreadyCancelled is returned when cancelling a cancelled order.
	ErrAlreadyCancelled = errors.New("order already cancelled")
)

// Order is a hotel booking and the supplier booking backing it.
type Order struct {
	OrderID         string `json:"order_id"`
	SupplierOrderID string `json:"supplier_order_id"`
	GuestName       string `json:"guest_name"`
	HotelName       string `json:"hotel_name"`
	CheckIn         string `json:"check_in"`
	CheckOut        string `json:"check_out"`
	RoomType        string `json:"room_type"`
	Status          string `json:"status"`
}

// Seed returns the demo order book. Every order starts confirmed.
func Seed() []Order {
	return []Order{
		{
			OrderID:         "HT20260301001",
			SupplierOrderID: "SUP-88901",
			GuestName:       "Zhang San",
			HotelName:       "Hangzhou West Lake Hotel",
			CheckIn:         "2026-03-01",
			CheckOut:        "2026-03-05",
			RoomType:        "King room",
			Status:          StatusConfirmed,
		},
		{
			OrderID:         "HT20260301002",
			SupplierOrderID: "SUP-88902",
			GuestName:       "Li Si",
			HotelName:       "Shanghai Bund Hotel",
			CheckIn:         "2026-03-10",
			CheckOut:        "2026-03-12",
			RoomType:        "Twin room",
			Status:          StatusConfirmed,
		},
		{
			OrderID:         "HT20260301003",
			SupplierOrderID: "SUP-88903",
			GuestName:       "Wang Wu",
			HotelName:       "Beijing China World Hotel",
			CheckIn:         "2026-03-15",
			CheckOut:        "2026-03-18",
			RoomType:        "Suite",
			Status:          StatusConfirmed,
		},
	}
}

// Repository is a concurrency safe in-memory order book.
type Repository struct {
	mu     sync.RWMutex
	seed   []Order
	orders map[string]Order
}

// NewRepository returns a repository loaded with seed, or Seed() when
// none is given.
func NewRepository(seed ...Order) *Repository {
	if len(seed) == 0 {
		seed = Seed()
	}
	r := &Repository{seed: append([]Order(nil), seed...)}
	r.Reset()
	return r
}

// Get returns the order with the given id.
func (r *Repository) Get(id string) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

// List returns every order sorted by id.
func (r *Repository) List() []Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}

// Cancel marks the order cancelled and returns it.
func (r *Repository) Cancel(id string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	if o.Status == StatusCancelled {
		return o, ErrAlreadyCancelled
	}
	o.Status = StatusCancelled
	r.orders[id] = o
	return o, nil
}

// Reset restores the seed data.
func (r *Repository) Reset() {
	orders := make(map[string]Order, len(r.seed))
	for _, o := range r.seed {
		orders[o.OrderID] = o
	}
	r.mu.Lock()
	r.orders = orders
	r.mu.Unlock()
}
