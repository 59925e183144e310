package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*RedisPersister, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewRedisPersister(client, time.Hour), mr
}

func TestRedisPersisterRoundTrip(t *testing.T) {
	ctx := context.Background()
	rp, mr := setupRedis(t)

	s := New("visitor-1", rp, nullLogger())
	tk := mustAdd(t, s, ticket, 3)
	v := mustAdd(t, s, stall, 1)
	require.NoError(t, s.SetRegistration(ctx, v.ID, vendorForm))

	assert.True(t, mr.Exists("cart:visitor-1"))
	assert.Equal(t, time.Hour, mr.TTL("cart:visitor-1"))

	reopened, err := Open(ctx, "visitor-1", rp, nullLogger())
	require.NoError(t, err)

	st := reopened.State()
	require.Len(t, st.Items, 2)
	assert.Equal(t, tk.ID, st.Items[0].ID)
	assert.Equal(t, 3, st.Items[0].Quantity)
	assert.Equal(t, vendorForm, st.Items[1].Registration)
	assert.Equal(t, StatusComplete, st.StatusFor(v.ID))
}

func TestRedisPersisterMissingCart(t *testing.T) {
	rp, _ := setupRedis(t)

	_, err := rp.Load(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	s, err := Open(context.Background(), "nobody", rp, nullLogger())
	require.NoError(t, err)
	assert.Empty(t, s.State().Items)
}

func TestRedisPersisterDelete(t *testing.T) {
	ctx := context.Background()
	rp, mr := setupRedis(t)

	s := New("visitor-1", rp, nullLogger())
	mustAdd(t, s, shirt, 1)
	require.True(t, mr.Exists("cart:visitor-1"))

	s.Clear(ctx)
	assert.False(t, mr.Exists("cart:visitor-1"))
}

func TestRedisPersisterCorruptData(t *testing.T) {
	rp, mr := setupRedis(t)
	require.NoError(t, mr.Set("cart:visitor-1", "{not json"))

	_, err := Open(context.Background(), "visitor-1", rp, nullLogger())
	assert.Error(t, err)
}

func TestRedisPersisterServerDown(t *testing.T) {
	rp, mr := setupRedis(t)

	s := New("visitor-1", rp, nullLogger())
	mr.Close()

	// the visitor keeps shopping on the in-memory cart
	it := mustAdd(t, s, ticket, 1)
	assert.Equal(t, 1, it.Quantity)
	assert.Equal(t, 1, s.State().ItemCount())
}
