package redisstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/reelauth/reelauth/store"
)

func newTestClient(t *testing.T) redis.UniversalClient {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return rdb
}

func TestBlacklistInsertExists(t *testing.T) {
	ctx := context.Background()
	bl := NewBlacklist(newTestClient(t), "t")

	entry := store.BlacklistEntry{
		Token:         "tok-1",
		BlacklistedAt: time.Now(),
		ExpiresAt:     time.Now().Add(time.Hour),
	}
	if err := bl.Insert(ctx, entry); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	ok, err := bl.Exists(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !ok {
		t.Fatal("inserted token not found")
	}

	ok, err = bl.Exists(ctx, "tok-other")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if ok {
		t.Fatal("unknown token reported revoked")
	}
}

func TestBlacklistInsertIdempotent(t *testing.T) {
	ctx := context.Background()
	bl := NewBlacklist(newTestClient(t), "t")

	entry := store.BlacklistEntry{
		Token:         "tok-1",
		BlacklistedAt: time.Now(),
		ExpiresAt:     time.Now().Add(time.Hour),
	}
	for i := 0; i < 3; i++ {
		if err := bl.Insert(ctx, entry); err != nil {
			t.Fatalf("Insert #%d failed: %v", i, err)
		}
	}

	ok, err := bl.Exists(ctx, "tok-1")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v after repeated inserts", ok, err)
	}
}

func TestBlacklistInsertExpiredIsNoOp(t *testing.T) {
	ctx := context.Background()
	bl := NewBlacklist(newTestClient(t), "t")

	entry := store.BlacklistEntry{
		Token:         "stale",
		BlacklistedAt: time.Now(),
		ExpiresAt:     time.Now().Add(-time.Minute),
	}
	if err := bl.Insert(ctx, entry); err != nil {
		t.Fatalf("Insert of expired token errored: %v", err)
	}

	ok, err := bl.Exists(ctx, "stale")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if ok {
		t.Fatal("expired token was written")
	}
}

func TestBlacklistSweepKeepsFutureEntries(t *testing.T) {
	ctx := context.Background()
	bl := NewBlacklist(newTestClient(t), "t")

	now := time.Now()
	old := store.BlacklistEntry{Token: "old", BlacklistedAt: now, ExpiresAt: now.Add(time.Minute)}
	fresh := store.BlacklistEntry{Token: "fresh", BlacklistedAt: now, ExpiresAt: now.Add(2 * time.Hour)}
	if err := bl.Insert(ctx, old); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := bl.Insert(ctx, fresh); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	purged, err := bl.DeleteExpiredBefore(ctx, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("DeleteExpiredBefore failed: %v", err)
	}
	if purged != 1 {
		t.Fatalf("purged = %d, want 1", purged)
	}

	if ok, _ := bl.Exists(ctx, "old"); ok {
		t.Fatal("expired entry survived the sweep")
	}
	if ok, _ := bl.Exists(ctx, "fresh"); !ok {
		t.Fatal("future entry removed by the sweep")
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	ctx := context.Background()
	rl := NewRefreshLog(newTestClient(t), "t")

	now := time.Now()
	rec := store.RefreshRecord{Token: "rt-1", UserID: 7, CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour)}
	if err := rl.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	ok, err := rl.Exists(ctx, "rt-1")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	records, err := rl.FindAllByUser(ctx, 7)
	if err != nil {
		t.Fatalf("FindAllByUser failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].Token != "rt-1" || records[0].UserID != 7 {
		t.Fatalf("record mismatch: %+v", records[0])
	}

	records, err = rl.FindAllByUser(ctx, 8)
	if err != nil {
		t.Fatalf("FindAllByUser failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("foreign user sees %d records", len(records))
	}
}

func TestRefreshDeleteByTokenReportsExistence(t *testing.T) {
	ctx := context.Background()
	rl := NewRefreshLog(newTestClient(t), "t")

	now := time.Now()
	rec := store.RefreshRecord{Token: "rt-1", UserID: 7, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := rl.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	existed, err := rl.DeleteByToken(ctx, "rt-1")
	if err != nil {
		t.Fatalf("DeleteByToken failed: %v", err)
	}
	if !existed {
		t.Fatal("first delete reported missing row")
	}

	existed, err = rl.DeleteByToken(ctx, "rt-1")
	if err != nil {
		t.Fatalf("DeleteByToken failed: %v", err)
	}
	if existed {
		t.Fatal("second delete claimed the row again")
	}

	records, err := rl.FindAllByUser(ctx, 7)
	if err != nil {
		t.Fatalf("FindAllByUser failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("user index still holds %d records", len(records))
	}
}

func TestRefreshDeleteRaceSingleWinner(t *testing.T) {
	ctx := context.Background()
	rl := NewRefreshLog(newTestClient(t), "t")

	now := time.Now()
	rec := store.RefreshRecord{Token: "rt-race", UserID: 1, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := rl.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	wins := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			existed, err := rl.DeleteByToken(ctx, "rt-race")
			if err != nil {
				t.Errorf("DeleteByToken failed: %v", err)
				return
			}
			wins <- existed
		}()
	}

	close(start)
	wg.Wait()
	close(wins)

	winners := 0
	for won := range wins {
		if won {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestRefreshSweepKeepsFutureRecords(t *testing.T) {
	ctx := context.Background()
	rl := NewRefreshLog(newTestClient(t), "t")

	now := time.Now()
	old := store.RefreshRecord{Token: "old", UserID: 1, CreatedAt: now, ExpiresAt: now.Add(time.Minute)}
	fresh := store.RefreshRecord{Token: "fresh", UserID: 1, CreatedAt: now, ExpiresAt: now.Add(48 * time.Hour)}
	if err := rl.Insert(ctx, old); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := rl.Insert(ctx, fresh); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	purged, err := rl.DeleteExpiredBefore(ctx, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("DeleteExpiredBefore failed: %v", err)
	}
	if purged != 1 {
		t.Fatalf("purged = %d, want 1", purged)
	}

	records, err := rl.FindAllByUser(ctx, 1)
	if err != nil {
		t.Fatalf("FindAllByUser failed: %v", err)
	}
	if len(records) != 1 || records[0].Token != "fresh" {
		t.Fatalf("surviving records wrong: %+v", records)
	}
}
