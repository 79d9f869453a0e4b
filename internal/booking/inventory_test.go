package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

func TestInventory_CreateDefaultsAndValidation(t *testing.T) {
	db := newMemDB()
	inv := NewInventory(tableStore{db})
	ctx := context.Background()

	tbl := &model.Table{Number: 7, Seats: 4}
	if err := inv.Create(ctx, tbl); err != nil {
		t.Fatalf("create: %v", err)
	}
	if tbl.Type != model.TableStandard || tbl.Status != model.TableAvailable {
		t.Fatalf("expected defaults, got %+v", tbl)
	}

	if err := inv.Create(ctx, &model.Table{Number: 8, Seats: 0}); !errors.Is(err, ErrInvalidSeats) {
		t.Fatalf("expected ErrInvalidSeats, got %v", err)
	}
	if err := inv.Create(ctx, &model.Table{Number: 8, Seats: 2, Type: "booth"}); !errors.Is(err, ErrInvalidTableType) {
		t.Fatalf("expected ErrInvalidTableType, got %v", err)
	}
}

func TestInventory_SetStatus(t *testing.T) {
	db := newMemDB()
	inv := NewInventory(tableStore{db})
	ctx := context.Background()
	tbl := db.addTable(1, 2)

	got, err := inv.SetStatus(ctx, tbl.ID, model.TableUnavailable)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if got.Status != model.TableUnavailable {
		t.Fatalf("expected unavailable, got %s", got.Status)
	}
	if _, err := inv.SetStatus(ctx, tbl.ID, "closed"); !errors.Is(err, ErrInvalidTableStatus) {
		t.Fatalf("expected ErrInvalidTableStatus, got %v", err)
	}
	if _, err := inv.SetStatus(ctx, 999, model.TableAvailable); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInventory_DeleteConflictsWithActiveReservations(t *testing.T) {
	h := newHarness(noon)
	inv := NewInventory(tableStore{h.db})
	ctx := context.Background()
	tbl := h.db.addTable(1, 2)
	u := h.db.addUser("u@example.com")
	r := mustCreate(t, h, CreateRequest{UserID: u.ID, TableID: tbl.ID, Date: "2025-06-01", Time: "19:00", Duration: 60})

	if err := inv.Delete(ctx, tbl.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := h.svc.Cancel(ctx, Actor{UserID: u.ID}, r.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := inv.Delete(ctx, tbl.ID); err != nil {
		t.Fatalf("delete after cancel: %v", err)
	}
	if err := inv.Delete(ctx, tbl.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInventory_UpdateMergesFields(t *testing.T) {
	db := newMemDB()
	inv := NewInventory(tableStore{db})
	tbl := db.addTable(3, 2)
	vip := model.TableVIP
	seats := uint32(6)

	got, err := inv.Update(context.Background(), tbl.ID, TableUpdate{Type: &vip, Seats: &seats})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Number != 3 || got.Seats != 6 || got.Type != model.TableVIP {
		t.Fatalf("unexpected table %+v", got)
	}
}
