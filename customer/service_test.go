package customer

import (
	"context"
	"testing"

	"github.com/KOMKZ/yogan-market/errcode"
	"github.com/KOMKZ/yogan-market/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_UpdateCart(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := newTestService(NewMemoryRepository(), pub, WishlistToggle)

	p, err := svc.UpdateCart(ctx, "u1", apple, 2, false)
	require.NoError(t, err)
	require.Len(t, p.Cart, 1)
	assert.Equal(t, 2, p.Cart[0].Unit)

	p, err = svc.UpdateCart(ctx, "u1", apple, 5, false)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Cart[0].Unit)

	p, err = svc.UpdateCart(ctx, "u1", event.Product{ID: "p1"}, 0, true)
	require.NoError(t, err)
	assert.Empty(t, p.Cart)

	events := pub.published()
	require.Len(t, events, 3)
	assert.Equal(t, "SHOPPING_SERVICE", events[0].key)
	assert.Equal(t, event.AddToCart, events[0].env.Event)
	assert.Equal(t, 2, events[0].env.Data.Qty)
	assert.Equal(t, event.RemoveFromCart, events[2].env.Event)
}

func TestService_UpdateWishlist(t *testing.T) {
	ctx := context.Background()

	t.Run("toggle mode", func(t *testing.T) {
		pub := &fakePublisher{}
		svc := newTestService(NewMemoryRepository(), pub, WishlistToggle)

		p, err := svc.UpdateWishlist(ctx, "u1", apple, false)
		require.NoError(t, err)
		assert.Len(t, p.Wishlist, 1)

		p, err = svc.UpdateWishlist(ctx, "u1", apple, false)
		require.NoError(t, err)
		assert.Empty(t, p.Wishlist)

		events := pub.published()
		require.Len(t, events, 2)
		assert.Equal(t, event.AddToWishlist, events[0].env.Event)
		assert.Equal(t, event.RemoveFromWishlist, events[1].env.Event)
	})

	t.Run("strict mode", func(t *testing.T) {
		pub := &fakePublisher{}
		svc := newTestService(NewMemoryRepository(), pub, WishlistStrict)

		_, err := svc.UpdateWishlist(ctx, "u1", apple, false)
		require.NoError(t, err)
		p, err := svc.UpdateWishlist(ctx, "u1", apple, false)
		require.NoError(t, err)
		assert.Len(t, p.Wishlist, 1)

		p, err = svc.UpdateWishlist(ctx, "u1", event.Product{ID: "p1"}, true)
		require.NoError(t, err)
		assert.Empty(t, p.Wishlist)

		events := pub.published()
		require.Len(t, events, 2)
		assert.Equal(t, event.AddToWishlist, events[0].env.Event)
		assert.Equal(t, event.RemoveFromWishlist, events[1].env.Event)
	})

	t.Run("removing an absent item publishes nothing", func(t *testing.T) {
		pub := &fakePublisher{}
		svc := newTestService(NewMemoryRepository(), pub, WishlistToggle)

		p, err := svc.UpdateWishlist(ctx, "u1", event.Product{ID: "p9"}, true)
		require.NoError(t, err)
		assert.Empty(t, p.Wishlist)
		assert.Empty(t, pub.published())
	})
}

// every published wishlist event replayed on a second repository keeps
// both wishlists identical
func TestService_WishlistReplicaConverges(t *testing.T) {
	ctx := context.Background()

	for _, mode := range []WishlistMode{WishlistToggle, WishlistStrict} {
		t.Run(string(mode), func(t *testing.T) {
			pub := &fakePublisher{}
			source := NewMemoryRepository()
			svc := newTestService(source, pub, mode)

			banana := event.Product{ID: "p2", Name: "Banana", Price: 0.5, Available: true}
			steps := []struct {
				product event.Product
				remove  bool
			}{
				{event.Product{ID: "p9"}, true},
				{apple, false},
				{apple, false},
				{banana, false},
				{event.Product{ID: "p9"}, true},
				{apple, true},
				{banana, true},
				{banana, true},
				{apple, false},
			}
			for _, step := range steps {
				_, err := svc.UpdateWishlist(ctx, "u1", step.product, step.remove)
				require.NoError(t, err)
			}

			replica := NewMemoryRepository()
			d := newHandlerDispatcher(replica, mode)
			for _, e := range pub.published() {
				dispatch(t, d, e.env.Event, e.env.Data)
			}

			want, err := source.Get(ctx, "u1")
			require.NoError(t, err)
			got, err := replica.Get(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, want.Wishlist, got.Wishlist)
		})
	}
}

func TestService_PublishFailureDoesNotFailMutation(t *testing.T) {
	repo := NewMemoryRepository()
	svc := newTestService(repo, &fakePublisher{fail: true}, WishlistToggle)

	_, err := svc.UpdateCart(context.Background(), "u1", apple, 1, false)
	require.NoError(t, err)

	p, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, p.Cart, 1)
}

func TestService_NilPublisher(t *testing.T) {
	svc := newTestService(NewMemoryRepository(), nil, WishlistToggle)
	_, err := svc.UpdateCart(context.Background(), "u1", apple, 1, false)
	assert.NoError(t, err)
}

func TestService_GetProfileMissing(t *testing.T) {
	svc := newTestService(NewMemoryRepository(), nil, WishlistToggle)

	_, err := svc.GetProfile(context.Background(), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, errcode.ErrProfileNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	assert.Equal(t, WishlistToggle, cfg.WishlistMode)
	assert.NoError(t, cfg.Validate())

	cfg.WishlistMode = "flip"
	assert.Error(t, cfg.Validate())
}
