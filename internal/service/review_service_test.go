package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

func TestUserRequestsHidesDrafts(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	john := env.login(t, "john.doe")
	mike := env.login(t, "mike.wilson")

	_, _ = env.deals.Create(ctx, john, validInput())
	sub, _ := env.deals.Create(ctx, john, validInput())
	if _, err := env.deals.SubmitForApproval(ctx, john, sub.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	got, err := env.review.UserRequests(ctx, mike, john.User.ID)
	if err != nil {
		t.Fatalf("user requests: %v", err)
	}
	if len(got) != 1 || got[0].ID != sub.ID {
		t.Fatalf("got %d requests", len(got))
	}
}

func TestUserRequestsUnknownUser(t *testing.T) {
	env := newTestEnv(t, false)
	mike := env.login(t, "mike.wilson")

	jane, _ := env.users.GetByUsername(context.Background(), "jane.smith")
	// jane is on the roster but never logged in
	if _, err := env.review.UserRequests(context.Background(), mike, jane.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := env.review.UserRequests(context.Background(), mike, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestExportRequests(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	john := env.login(t, "john.doe")
	mike := env.login(t, "mike.wilson")

	for i := 0; i < 2; i++ {
		if _, err := env.deals.Create(ctx, john, validInput()); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if _, _, err := env.export.ExportRequests(ctx, john); !errors.Is(err, ErrForbidden) {
		t.Fatalf("submitter export err = %v", err)
	}

	data, name, err := env.export.ExportRequests(ctx, mike)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if name == "" {
		t.Fatal("empty file name")
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "id" || rows[1][1] != "john.doe" {
		t.Fatalf("unexpected content: %v", rows[:2])
	}
}

func TestCatalog(t *testing.T) {
	env := newTestEnv(t, false)
	john := env.login(t, "john.doe")

	cat, err := env.catalog.Catalog(john)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(cat.DealTypes) != 7 {
		t.Fatalf("deal types = %d", len(cat.DealTypes))
	}
	if _, err := env.catalog.Catalog(nil); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("anonymous catalog err = %v", err)
	}
}
