package customer

import (
	"context"
	"errors"

	"github.com/KOMKZ/yogan-market/event"
	"github.com/KOMKZ/yogan-market/merge"
)

var errMissingProduct = errors.New("event carries no product")

// RegisterHandlers subscribes the merge handlers for every marketplace
// event to d, persisting through repo.
func RegisterHandlers(d *event.Dispatcher, repo Repository, mode WishlistMode) {
	ensure := event.HandlerFunc(func(ctx context.Context, env *event.Envelope) error {
		_, err := repo.Update(ctx, env.Data.UserID, func(p *Profile) error { return nil })
		return err
	})
	d.Subscribe(event.CustomerCreated, ensure)
	d.Subscribe(event.CustomerUpdated, ensure)

	d.Subscribe(event.AddToWishlist, wishlistHandler(repo, mode, false))
	d.Subscribe(event.RemoveFromWishlist, wishlistHandler(repo, mode, true))
	d.Subscribe(event.AddToCart, cartHandler(repo, false))
	d.Subscribe(event.RemoveFromCart, cartHandler(repo, true))
}

func wishlistHandler(repo Repository, mode WishlistMode, remove bool) event.Handler {
	return event.HandlerFunc(func(ctx context.Context, env *event.Envelope) error {
		product := env.Data.Product
		if product == nil {
			return errMissingProduct
		}
		_, err := repo.Update(ctx, env.Data.UserID, func(p *Profile) error {
			p.Wishlist = ApplyWishlistEvent(p.Wishlist, product.WishlistEntry(), remove, mode)
			return nil
		})
		return err
	})
}

func cartHandler(repo Repository, remove bool) event.Handler {
	return event.HandlerFunc(func(ctx context.Context, env *event.Envelope) error {
		product := env.Data.Product
		if product == nil {
			return errMissingProduct
		}
		_, err := repo.Update(ctx, env.Data.UserID, func(p *Profile) error {
			p.Cart = merge.ApplyCart(p.Cart, product.CartRef(), env.Data.Qty, remove)
			return nil
		})
		return err
	})
}
