// Package merge applies cart and wishlist mutations to a customer's collections.
//
// Every function is pure: inputs are never modified and a fresh slice is returned,
// so redelivered or reordered events can be applied without side effects.
package merge

// ProductRef product snapshot stored in a cart line
type ProductRef struct {
	ID     string  `json:"_id"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Banner string  `json:"banner"`
}

// CartItem one cart line, unique by Product.ID
type CartItem struct {
	Product ProductRef `json:"product"`
	Unit    int        `json:"unit"`
}

// WishlistEntry product snapshot stored in a wishlist, unique by ID
type WishlistEntry struct {
	ID        string  `json:"_id"`
	Name      string  `json:"name"`
	Desc      string  `json:"desc"`
	Price     float64 `json:"price"`
	Available bool    `json:"available"`
	Banner    string  `json:"banner"`
}

// ApplyWishlist toggles entry: removed when present, appended when absent.
func ApplyWishlist(list []WishlistEntry, entry WishlistEntry) []WishlistEntry {
	if indexOfWishlist(list, entry.ID) >= 0 {
		return RemoveWishlist(list, entry.ID)
	}
	return AddWishlist(list, entry)
}

// AddWishlist appends entry unless its ID is already present
func AddWishlist(list []WishlistEntry, entry WishlistEntry) []WishlistEntry {
	out := make([]WishlistEntry, 0, len(list)+1)
	out = append(out, list...)
	if indexOfWishlist(list, entry.ID) < 0 {
		out = append(out, entry)
	}
	return out
}

// RemoveWishlist drops every entry with the given ID
func RemoveWishlist(list []WishlistEntry, id string) []WishlistEntry {
	out := make([]WishlistEntry, 0, len(list))
	for _, e := range list {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}

// ApplyCart upserts or removes the line for product.
//
//	present + remove -> line removed
//	present + upsert -> Unit overwritten with qty (not added)
//	absent  + remove -> unchanged
//	absent  + upsert -> line appended
//
// Negative quantities are stored as 0.
func ApplyCart(items []CartItem, product ProductRef, qty int, isRemove bool) []CartItem {
	if qty < 0 {
		qty = 0
	}

	out := make([]CartItem, 0, len(items)+1)
	found := false
	for _, item := range items {
		if item.Product.ID != product.ID {
			out = append(out, item)
			continue
		}
		found = true
		if isRemove {
			continue
		}
		item.Unit = qty
		out = append(out, item)
	}

	if !found && !isRemove {
		out = append(out, CartItem{Product: product, Unit: qty})
	}

	return out
}

// ContainsWishlist reports whether id is in the wishlist
func ContainsWishlist(list []WishlistEntry, id string) bool {
	return indexOfWishlist(list, id) >= 0
}

// FindCartItem returns the cart line for id
func FindCartItem(items []CartItem, id string) (CartItem, bool) {
	for _, item := range items {
		if item.Product.ID == id {
			return item, true
		}
	}
	return CartItem{}, false
}

func indexOfWishlist(list []WishlistEntry, id string) int {
	for i, e := range list {
		if e.ID == id {
			return i
		}
	}
	return -1
}
