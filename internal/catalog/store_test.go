package catalog

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"tankcatalog/internal/db"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLStore(conn)
}

// seedLookups creates one nation, class, and status and returns their ids.
func seedLookups(t *testing.T, store *SQLStore) (nationID, classID, statusID string) {
	t.Helper()
	ctx := context.Background()

	nation, err := store.CreateNation(ctx, "Germany")
	if err != nil {
		t.Fatalf("CreateNation failed: %v", err)
	}
	class, err := store.CreateClass(ctx, "Heavy Tank")
	if err != nil {
		t.Fatalf("CreateClass failed: %v", err)
	}
	status, err := store.CreateStatus(ctx, "Prototype", "built but never fielded")
	if err != nil {
		t.Fatalf("CreateStatus failed: %v", err)
	}
	return nation.ID, class.ID, status.ID
}

func TestLookupCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	nation, err := store.CreateNation(ctx, "  France ")
	if err != nil {
		t.Fatalf("CreateNation failed: %v", err)
	}
	if nation.Name != "France" {
		t.Fatalf("name not trimmed: %q", nation.Name)
	}

	if _, err := store.CreateNation(ctx, "France"); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("duplicate nation: got %v, want ErrNameTaken", err)
	}
	if _, err := store.CreateNation(ctx, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank nation: got %v, want ErrInvalidInput", err)
	}

	got, err := store.GetNation(ctx, nation.ID)
	if err != nil {
		t.Fatalf("GetNation failed: %v", err)
	}
	if got.Name != "France" || got.UpdatedAt != nil {
		t.Fatalf("unexpected nation: %+v", got)
	}

	if err := store.RenameNation(ctx, nation.ID, "USSR"); err != nil {
		t.Fatalf("RenameNation failed: %v", err)
	}
	got, err = store.GetNation(ctx, nation.ID)
	if err != nil {
		t.Fatalf("GetNation after rename failed: %v", err)
	}
	if got.Name != "USSR" || got.UpdatedAt == nil {
		t.Fatalf("rename not persisted: %+v", got)
	}

	if err := store.RenameNation(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("rename missing: got %v, want ErrNotFound", err)
	}

	if err := store.DeleteNation(ctx, nation.ID); err != nil {
		t.Fatalf("DeleteNation failed: %v", err)
	}
	if _, err := store.GetNation(ctx, nation.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: got %v, want ErrNotFound", err)
	}
	if err := store.DeleteNation(ctx, nation.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: got %v, want ErrNotFound", err)
	}
}

func TestListNationsSortedByName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"USSR", "France", "Germany"} {
		if _, err := store.CreateNation(ctx, name); err != nil {
			t.Fatalf("CreateNation(%q) failed: %v", name, err)
		}
	}

	nations, err := store.ListNations(ctx)
	if err != nil {
		t.Fatalf("ListNations failed: %v", err)
	}
	want := []string{"France", "Germany", "USSR"}
	if len(nations) != len(want) {
		t.Fatalf("got %d nations, want %d", len(nations), len(want))
	}
	for i, name := range want {
		if nations[i].Name != name {
			t.Fatalf("position %d: got %q, want %q", i, nations[i].Name, name)
		}
	}
}

func TestStatusKeepsDescription(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateStatus(ctx, "Mass Production", "serially produced")
	if err != nil {
		t.Fatalf("CreateStatus failed: %v", err)
	}
	got, err := store.GetStatus(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if got.Description != "serially produced" {
		t.Fatalf("description lost: %+v", got)
	}
}

func TestUpdateStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateStatus(ctx, "Prototype", "built but never fielded")
	if err != nil {
		t.Fatalf("CreateStatus failed: %v", err)
	}
	other, err := store.CreateStatus(ctx, "Mass Production", "")
	if err != nil {
		t.Fatalf("CreateStatus failed: %v", err)
	}

	if err := store.UpdateStatus(ctx, created.ID, "Experimental", "paper design only"); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	got, err := store.GetStatus(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if got.Name != "Experimental" || got.Description != "paper design only" || got.UpdatedAt == nil {
		t.Fatalf("update not persisted: %+v", got)
	}

	if err := store.UpdateStatus(ctx, created.ID, other.Name, ""); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("duplicate name: got %v, want ErrNameTaken", err)
	}
	if err := store.UpdateStatus(ctx, created.ID, "  ", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank name: got %v, want ErrInvalidInput", err)
	}
	if err := store.UpdateStatus(ctx, "missing", "Retired", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing status: got %v, want ErrNotFound", err)
	}
}

func TestTankCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	nationID, classID, statusID := seedLookups(t, store)

	tank, err := store.CreateTank(ctx, CreateTankInput{
		Name:      "Tiger II",
		Tier:      8,
		NationID:  nationID,
		ClassID:   classID,
		StatusID:  statusID,
		CreatedBy: "user-alice",
	})
	if err != nil {
		t.Fatalf("CreateTank failed: %v", err)
	}
	if tank.NationName != "Germany" || tank.ClassName != "Heavy Tank" || tank.StatusName != "Prototype" {
		t.Fatalf("lookup names not resolved: %+v", tank)
	}
	if tank.CreatedBy != "user-alice" || tank.UpdatedAt != nil {
		t.Fatalf("unexpected audit fields: %+v", tank)
	}

	updated, err := store.UpdateTank(ctx, tank.ID, UpdateTankInput{
		Name:      "Tiger II (H)",
		Tier:      9,
		NationID:  nationID,
		ClassID:   classID,
		StatusID:  statusID,
		UpdatedBy: "user-bob",
	})
	if err != nil {
		t.Fatalf("UpdateTank failed: %v", err)
	}
	if updated.Name != "Tiger II (H)" || updated.Tier != 9 || updated.UpdatedBy != "user-bob" || updated.UpdatedAt == nil {
		t.Fatalf("update not persisted: %+v", updated)
	}

	if err := store.DeleteTank(ctx, tank.ID); err != nil {
		t.Fatalf("DeleteTank failed: %v", err)
	}
	if _, err := store.GetTank(ctx, tank.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: got %v, want ErrNotFound", err)
	}
}

func TestTankValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	nationID, classID, statusID := seedLookups(t, store)

	cases := []struct {
		name  string
		input CreateTankInput
		want  error
	}{
		{"blank name", CreateTankInput{Name: " ", Tier: 5, NationID: nationID, ClassID: classID, StatusID: statusID}, ErrInvalidInput},
		{"zero tier", CreateTankInput{Name: "IS-2", Tier: 0, NationID: nationID, ClassID: classID, StatusID: statusID}, ErrInvalidInput},
		{"missing nation", CreateTankInput{Name: "IS-2", Tier: 7, NationID: "ghost", ClassID: classID, StatusID: statusID}, ErrBadReference},
		{"missing class", CreateTankInput{Name: "IS-2", Tier: 7, NationID: nationID, ClassID: "ghost", StatusID: statusID}, ErrBadReference},
		{"missing status", CreateTankInput{Name: "IS-2", Tier: 7, NationID: nationID, ClassID: classID, StatusID: "ghost"}, ErrBadReference},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := store.CreateTank(ctx, tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}

	if _, err := store.UpdateTank(ctx, "missing", UpdateTankInput{
		Name: "IS-2", Tier: 7, NationID: nationID, ClassID: classID, StatusID: statusID,
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update missing tank: got %v, want ErrNotFound", err)
	}
}

func TestListTanksPagination(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	nationID, classID, statusID := seedLookups(t, store)

	names := []string{"E 100", "IS-7", "Maus", "T-54", "Tiger I"}
	for _, name := range names {
		if _, err := store.CreateTank(ctx, CreateTankInput{
			Name: name, Tier: 9, NationID: nationID, ClassID: classID, StatusID: statusID,
		}); err != nil {
			t.Fatalf("CreateTank(%q) failed: %v", name, err)
		}
	}

	page, err := store.ListTanks(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ListTanks failed: %v", err)
	}
	if page.TotalCount != 5 || len(page.Items) != 2 {
		t.Fatalf("page 1: total %d items %d", page.TotalCount, len(page.Items))
	}
	if page.Items[0].Name != "E 100" || page.Items[1].Name != "IS-7" {
		t.Fatalf("page 1 out of order: %q, %q", page.Items[0].Name, page.Items[1].Name)
	}

	page, err = store.ListTanks(ctx, 3, 2)
	if err != nil {
		t.Fatalf("ListTanks page 3 failed: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Name != "Tiger I" {
		t.Fatalf("last page wrong: %+v", page.Items)
	}

	if _, err := store.ListTanks(ctx, 0, 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("page 0: got %v, want ErrInvalidInput", err)
	}
	if _, err := store.ListTanks(ctx, 1, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("size 0: got %v, want ErrInvalidInput", err)
	}
}
