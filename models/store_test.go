package models_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/mmdatafocus/vehicle_sales_backend/models"
	"github.com/mmdatafocus/vehicle_sales_backend/utils"
)

func makeRecord(maker, rto, state, city string) models.SalesRecord {
	return models.SalesRecord{
		Maker: maker,
		RTO:   rto,
		State: state,
		City:  city,
	}
}

func TestStore_InsertBatch_AssignsDenseSequentialIds(t *testing.T) {
	store := models.NewStore()

	batch := make([]models.SalesRecord, 0, 25)
	for i := 0; i < 25; i++ {
		batch = append(batch, makeRecord("Acme", "RTO-1", "KA", "Bangalore"))
	}
	inserted := store.InsertBatch(batch)

	if len(inserted) != 25 {
		t.Fatalf("expected 25 inserted records, got %d", len(inserted))
	}
	for i, r := range inserted {
		if r.ID != i+1 {
			t.Fatalf("expected id %d at position %d, got %d", i+1, i, r.ID)
		}
	}
	if store.Count() != 25 {
		t.Fatalf("expected store count 25, got %d", store.Count())
	}
}

func TestStore_Clear_ResetsIdCounter(t *testing.T) {
	store := models.NewStore()
	store.InsertBatch([]models.SalesRecord{
		makeRecord("Acme", "RTO-1", "KA", "Bangalore"),
		makeRecord("Zenith", "RTO-2", "MH", "Pune"),
	})

	cleared := store.Clear()
	if cleared != 2 {
		t.Fatalf("expected Clear to report 2 records, got %d", cleared)
	}

	first := store.Insert(makeRecord("Acme", "RTO-1", "KA", "Bangalore"))
	if first.ID != 1 {
		t.Fatalf("expected id counter to restart at 1 after Clear, got %d", first.ID)
	}
}

func TestStore_UpdateCoordinates(t *testing.T) {
	store := models.NewStore()
	r := store.Insert(makeRecord("Acme", "RTO-1", "KA", "Bangalore"))

	if err := store.UpdateCoordinates(r.ID, 12.97, 77.59); err != nil {
		t.Fatalf("unexpected error updating known id: %v", err)
	}

	all := store.GetAll()
	if len(all) != 1 {
		t.Fatalf("expected 1 record, got %d", len(all))
	}
	if all[0].Latitude != 12.97 || all[0].Longitude != 77.59 {
		t.Fatalf("coordinates not updated: got (%v, %v)", all[0].Latitude, all[0].Longitude)
	}

	// Unknown id reports not-found without mutating: the enricher can race a
	// Clear and ignores this error.
	if err := store.UpdateCoordinates(999, 1, 1); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected ErrorRecordNotFound for unknown id, got %v", err)
	}
	if store.Count() != 1 {
		t.Fatalf("unexpected record created by UpdateCoordinates on unknown id")
	}
}

func TestStore_GetAll_ReturnsCopies(t *testing.T) {
	store := models.NewStore()
	store.Insert(makeRecord("Acme", "RTO-1", "KA", "Bangalore"))

	all := store.GetAll()
	all[0].Maker = "Mutated"

	if store.GetAll()[0].Maker != "Acme" {
		t.Fatalf("GetAll must return copies, store was mutated through the slice")
	}
}

func TestStore_DistinctOptions_InvalidatedByMutation(t *testing.T) {
	store := models.NewStore()
	store.Insert(makeRecord("Acme", "RTO-1", "KA", "Bangalore"))

	opts := store.DistinctOptions()
	if len(opts.Makers) != 1 || opts.Makers[0] != "Acme" {
		t.Fatalf("expected makers [Acme], got %v", opts.Makers)
	}

	store.Insert(makeRecord("Zenith", "RTO-2", "MH", "Pune"))
	opts = store.DistinctOptions()
	if len(opts.Makers) != 2 {
		t.Fatalf("expected 2 makers after insert, got %v", opts.Makers)
	}

	store.Clear()
	opts = store.DistinctOptions()
	if len(opts.Makers) != 0 {
		t.Fatalf("expected no makers after Clear, got %v", opts.Makers)
	}
}

func TestStore_ConcurrentInsertAndRead(t *testing.T) {
	store := models.NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Insert(makeRecord("Acme", "RTO-1", "KA", "Bangalore"))
		}()
		go func() {
			defer wg.Done()
			_ = store.GetAll()
		}()
	}
	wg.Wait()

	if store.Count() != 10 {
		t.Fatalf("expected 10 records after concurrent inserts, got %d", store.Count())
	}
	seen := make(map[int]bool)
	for _, r := range store.GetAll() {
		if seen[r.ID] {
			t.Fatalf("duplicate id %d assigned under concurrency", r.ID)
		}
		seen[r.ID] = true
	}
}
