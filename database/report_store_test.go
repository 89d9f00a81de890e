package database

import (
	"context"
	"fmt"
	"testing"

	"adherence-push-backend/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestReportStore(t *testing.T, maxSize int) (*ReportStore, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewReportStore(rdb, maxSize), rdb
}

func TestReportStoreSaveTrimsHistory(t *testing.T) {
	ctx := context.Background()
	store, rdb := newTestReportStore(t, 3)

	// maxSize+2 rapports : les deux plus anciens doivent disparaître
	for i := 0; i < 5; i++ {
		if err := store.Save(ctx, models.BatchReport{BatchID: fmt.Sprintf("b-%d", i), Sent: i}); err != nil {
			t.Fatalf("Save(b-%d) erreur = %v", i, err)
		}
	}

	if n, err := rdb.LLen(ctx, reportsKey).Result(); err != nil || n != 3 {
		t.Fatalf("LLen = %d, %v, attendu 3", n, err)
	}

	reports, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() erreur = %v", err)
	}
	want := []string{"b-4", "b-3", "b-2"}
	if len(reports) != len(want) {
		t.Fatalf("Recent() = %d rapports, attendu %d", len(reports), len(want))
	}
	for i, id := range want {
		if reports[i].BatchID != id {
			t.Errorf("reports[%d].BatchID = %s, attendu %s", i, reports[i].BatchID, id)
		}
	}
	if reports[0].Sent != 4 {
		t.Errorf("reports[0].Sent = %d, attendu 4", reports[0].Sent)
	}
}

func TestReportStoreRecentLimit(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestReportStore(t, 10)

	for i := 0; i < 4; i++ {
		if err := store.Save(ctx, models.BatchReport{BatchID: fmt.Sprintf("b-%d", i)}); err != nil {
			t.Fatalf("Save() erreur = %v", err)
		}
	}

	tests := []struct {
		name string
		n    int
		want int
	}{
		{"limite inférieure à l'historique", 2, 2},
		{"limite supérieure à l'historique", 8, 4},
		{"limite nulle", 0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports, err := store.Recent(ctx, tt.n)
			if err != nil {
				t.Fatalf("Recent(%d) erreur = %v", tt.n, err)
			}
			if len(reports) != tt.want {
				t.Errorf("Recent(%d) = %d rapports, attendu %d", tt.n, len(reports), tt.want)
			}
			if len(reports) > 0 && reports[0].BatchID != "b-3" {
				t.Errorf("reports[0].BatchID = %s, attendu b-3", reports[0].BatchID)
			}
		})
	}
}

func TestReportStoreRecentEmpty(t *testing.T) {
	store, _ := newTestReportStore(t, 5)

	reports, err := store.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent() erreur = %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("Recent() = %v, attendu aucun rapport", reports)
	}
}

func TestReportStoreRecentDecodeError(t *testing.T) {
	ctx := context.Background()
	store, rdb := newTestReportStore(t, 5)

	if err := rdb.LPush(ctx, reportsKey, "pas du json").Err(); err != nil {
		t.Fatalf("LPush erreur = %v", err)
	}
	if _, err := store.Recent(ctx, 5); err == nil {
		t.Error("Recent() devrait échouer sur un rapport illisible")
	}
}

func TestReportStorePing(t *testing.T) {
	store, _ := newTestReportStore(t, 5)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() erreur = %v", err)
	}

	var nilStore *ReportStore
	if err := nilStore.Ping(context.Background()); err == nil {
		t.Error("Ping() devrait échouer sans client Redis")
	}
}

func TestNewReportStoreDefaultSize(t *testing.T) {
	if s := NewReportStore(nil, 0); s.maxSize != 100 {
		t.Errorf("maxSize = %d, attendu 100", s.maxSize)
	}
}
