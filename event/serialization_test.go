package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("cart event", func(t *testing.T) {
		body := []byte(`{"event":"ADD_TO_CART","data":{"userId":"u1","product":{"_id":"p1","name":"Apple","price":1.5},"qty":2}}`)

		env, err := Decode(body)
		require.NoError(t, err)
		assert.Equal(t, AddToCart, env.Event)
		assert.Equal(t, "u1", env.Data.UserID)
		require.NotNil(t, env.Data.Product)
		assert.Equal(t, "p1", env.Data.Product.ID)
		assert.Equal(t, 2, env.Data.Qty)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := Decode([]byte("not json"))
		require.Error(t, err)
		assert.True(t, IsDecodeError(err))
	})

	t.Run("missing event", func(t *testing.T) {
		_, err := Decode([]byte(`{"data":{"userId":"u1"}}`))
		assert.True(t, IsDecodeError(err))
	})

	t.Run("known event without user", func(t *testing.T) {
		_, err := Decode([]byte(`{"event":"CUSTOMER_CREATED","data":{}}`))
		assert.True(t, IsDecodeError(err))
	})

	t.Run("cart event without product", func(t *testing.T) {
		_, err := Decode([]byte(`{"event":"REMOVE_FROM_CART","data":{"userId":"u1"}}`))
		assert.True(t, IsDecodeError(err))
	})

	t.Run("product without id", func(t *testing.T) {
		_, err := Decode([]byte(`{"event":"ADD_TO_WISHLIST","data":{"userId":"u1","product":{"name":"x"}}}`))
		assert.True(t, IsDecodeError(err))
	})

	t.Run("negative qty", func(t *testing.T) {
		_, err := Decode([]byte(`{"event":"ADD_TO_CART","data":{"userId":"u1","product":{"_id":"p1"},"qty":-1}}`))
		assert.True(t, IsDecodeError(err))
	})

	t.Run("unknown event type is accepted", func(t *testing.T) {
		env, err := Decode([]byte(`{"event":"ORDER_SHIPPED","data":{}}`))
		require.NoError(t, err)
		assert.False(t, env.Event.IsKnown())
	})
}

func TestEncodeDecode_PreservesPayload(t *testing.T) {
	env := NewEnvelope(AddToWishlist, Payload{
		UserID:  "u1",
		Product: &Product{ID: "p1", Name: "Pear", Desc: "green", Price: 3, Available: true},
	}).WithTraceID("trace-1")

	body, err := Encode(env)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"event":"ADD_TO_WISHLIST"`)
	assert.Contains(t, string(body), `"userId":"u1"`)
	assert.Contains(t, string(body), `"_id":"p1"`)

	decoded, err := Decode(body)
	require.NoError(t, err)
	assert.Equal(t, env.ID, decoded.ID)
	assert.Equal(t, "trace-1", decoded.TraceID)
	assert.Equal(t, *env.Data.Product, *decoded.Data.Product)
}

func TestEncode_NilEnvelope(t *testing.T) {
	_, err := Encode(nil)
	assert.Error(t, err)
}

func TestProduct_Conversions(t *testing.T) {
	p := Product{ID: "p1", Name: "Plum", Desc: "purple", Price: 2, Available: true, Banner: "b.png"}

	ref := p.CartRef()
	assert.Equal(t, "p1", ref.ID)
	assert.Equal(t, "b.png", ref.Banner)

	entry := p.WishlistEntry()
	assert.Equal(t, "purple", entry.Desc)
	assert.True(t, entry.Available)
}
