// Package event defines the marketplace event envelope and routes decoded
// envelopes to per-type handlers.
package event

import (
	"time"

	"github.com/KOMKZ/yogan-market/merge"
	"github.com/google/uuid"
)

// EventType 事件类型
type EventType string

const (
	CustomerCreated    EventType = "CUSTOMER_CREATED"
	CustomerUpdated    EventType = "CUSTOMER_UPDATED"
	AddToWishlist      EventType = "ADD_TO_WISHLIST"
	RemoveFromWishlist EventType = "REMOVE_FROM_WISHLIST"
	AddToCart          EventType = "ADD_TO_CART"
	RemoveFromCart     EventType = "REMOVE_FROM_CART"
)

// KnownTypes every event type the marketplace produces
var KnownTypes = []EventType{
	CustomerCreated, CustomerUpdated,
	AddToWishlist, RemoveFromWishlist,
	AddToCart, RemoveFromCart,
}

// IsKnown reports whether t is one of KnownTypes
func (t EventType) IsKnown() bool {
	for _, k := range KnownTypes {
		if k == t {
			return true
		}
	}
	return false
}

// requiresProduct cart and wishlist events carry a product
func (t EventType) requiresProduct() bool {
	switch t {
	case AddToWishlist, RemoveFromWishlist, AddToCart, RemoveFromCart:
		return true
	}
	return false
}

// Product product snapshot carried in a payload
type Product struct {
	ID        string  `json:"_id"`
	Name      string  `json:"name"`
	Desc      string  `json:"desc,omitempty"`
	Price     float64 `json:"price"`
	Available bool    `json:"available,omitempty"`
	Banner    string  `json:"banner,omitempty"`
}

// CartRef converts to the cart line snapshot
func (p Product) CartRef() merge.ProductRef {
	return merge.ProductRef{ID: p.ID, Name: p.Name, Price: p.Price, Banner: p.Banner}
}

// WishlistEntry converts to the wishlist snapshot
func (p Product) WishlistEntry() merge.WishlistEntry {
	return merge.WishlistEntry{
		ID:        p.ID,
		Name:      p.Name,
		Desc:      p.Desc,
		Price:     p.Price,
		Available: p.Available,
		Banner:    p.Banner,
	}
}

// Payload event data
type Payload struct {
	UserID  string   `json:"userId"`
	Product *Product `json:"product,omitempty"`
	Qty     int      `json:"qty,omitempty"`
}

// Envelope 事件消息格式
//
//	{"event": "ADD_TO_CART", "data": {"userId": "...", "product": {...}, "qty": 2}}
type Envelope struct {
	Event      EventType `json:"event"`
	Data       Payload   `json:"data"`
	ID         string    `json:"id,omitempty"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at,omitempty"`

	// DeliveryTag assigned by the broker on consume
	DeliveryTag uint64 `json:"-"`
}

// NewEnvelope creates an envelope with a fresh message id
func NewEnvelope(eventType EventType, data Payload) *Envelope {
	return &Envelope{
		Event:      eventType,
		Data:       data,
		ID:         uuid.NewString(),
		OccurredAt: time.Now().UTC(),
	}
}

// WithTraceID sets the trace id and returns the envelope
func (e *Envelope) WithTraceID(traceID string) *Envelope {
	e.TraceID = traceID
	return e
}
