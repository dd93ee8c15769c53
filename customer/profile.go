// Package customer keeps each customer's cart and wishlist, applies
// marketplace events to them and publishes the mutations it performs.
package customer

import (
	"time"

	"github.com/KOMKZ/yogan-market/merge"
)

// Profile cart and wishlist document of one customer
type Profile struct {
	ID        string                `json:"_id"`
	Cart      []merge.CartItem      `json:"cart"`
	Wishlist  []merge.WishlistEntry `json:"wishlist"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

func newProfile(userID string) *Profile {
	return &Profile{
		ID:       userID,
		Cart:     []merge.CartItem{},
		Wishlist: []merge.WishlistEntry{},
	}
}

// clone copies the slices so callers never share backing arrays
func (p *Profile) clone() *Profile {
	c := *p
	c.Cart = append([]merge.CartItem{}, p.Cart...)
	c.Wishlist = append([]merge.WishlistEntry{}, p.Wishlist...)
	return &c
}

// WishlistMode how wishlist events are applied
type WishlistMode string

const (
	// WishlistToggle both wishlist events flip membership
	WishlistToggle WishlistMode = "toggle"
	// WishlistStrict ADD only adds, REMOVE only removes
	WishlistStrict WishlistMode = "strict"
)

// ApplyWishlistEvent applies a wishlist mutation according to mode
func ApplyWishlistEvent(list []merge.WishlistEntry, entry merge.WishlistEntry, remove bool, mode WishlistMode) []merge.WishlistEntry {
	if mode != WishlistStrict {
		return merge.ApplyWishlist(list, entry)
	}
	if remove {
		return merge.RemoveWishlist(list, entry.ID)
	}
	return merge.AddWishlist(list, entry)
}
