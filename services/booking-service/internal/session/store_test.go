package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/wizard"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisStore(client, time.Minute)
	ctx := context.Background()
	snap := wizard.Snapshot{Step: "selecting_date_time", Slug: "bella", ServiceID: "1", Date: "2025-06-10"}

	id, err := s.Create(ctx, snap)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, time.Minute, mr.TTL("bellabook:session:"+id))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	snap.Time = "09:00"
	mr.FastForward(30 * time.Second)
	require.NoError(t, s.Save(ctx, id, snap))
	assert.Equal(t, time.Minute, mr.TTL("bellabook:session:"+id), "save refreshes expiry")

	mr.FastForward(2 * time.Minute)
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Minute)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	id, err := s.Create(ctx, wizard.Snapshot{Step: "selecting_service"})
	require.NoError(t, err)

	now = now.Add(59 * time.Second)
	_, err = s.Get(ctx, id)
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}
