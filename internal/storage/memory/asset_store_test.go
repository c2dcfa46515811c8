package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/storage"
)

func TestAssetStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewAssetStore()
	asset := &domain.Asset{
		ID:          "btc-15m",
		Symbol:      "BTCUSDT",
		Exchange:    "binance",
		BarInterval: 15 * time.Minute,
	}

	if err := store.Insert(ctx, asset); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := store.GetByID(ctx, "btc-15m")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if *got != *asset {
		t.Errorf("got %+v, want %+v", got, asset)
	}

	if err := store.Insert(ctx, asset); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("err = %v, want ErrDuplicateKey on re-insert", err)
	}
	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAssetStore_ListOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewAssetStore()

	for _, id := range []string{"eth-1h", "btc-15m", "sol-15m"} {
		if err := store.Insert(ctx, &domain.Asset{ID: id, Symbol: id, BarInterval: 15 * time.Minute}); err != nil {
			t.Fatalf("Insert %s: %v", id, err)
		}
	}

	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d assets, want 3", len(got))
	}
	want := []string{"btc-15m", "eth-1h", "sol-15m"}
	for i, a := range got {
		if a.ID != want[i] {
			t.Errorf("asset %d = %s, want %s", i, a.ID, want[i])
		}
	}
}
