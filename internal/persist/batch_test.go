package persist

import (
	"context"
	"errors"
	"strings"
	"testing"

	"commenttogame/pkg/models"
)

func TestUpsertManyBlankNameIsSkipped(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 2)

	games := []models.CanonicalGame{sampleGame("Hades"), {Name: "   "}, sampleGame("Bastion")}
	report, err := svc.UpsertMany(context.Background(), games)
	if err != nil {
		t.Fatalf("UpsertMany: %v", err)
	}
	if len(report.Succeeded) != 2 {
		t.Fatalf("succeeded = %v, want 2", report.Succeeded)
	}
	if len(report.Failed) != 1 {
		t.Fatalf("failed = %+v, want 1", report.Failed)
	}
	f := report.Failed[0]
	if f.Index != 1 || f.Reason != reasonBlankName {
		t.Errorf("failure = %+v", f)
	}
	if got := count(t, db, `SELECT COUNT(*) FROM games`); got != 2 {
		t.Errorf("games = %d, want 2", got)
	}
}

func TestUpsertManyFallsBackPerItem(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.Exec(`CREATE TRIGGER reject_cursed BEFORE INSERT ON games
		WHEN NEW.name = 'Cursed'
		BEGIN SELECT RAISE(ABORT, 'cursed game'); END`); err != nil {
		t.Fatal(err)
	}
	svc := NewService(db, 3)

	report, err := svc.UpsertMany(context.Background(), []models.CanonicalGame{
		sampleGame("Hades"), sampleGame("Cursed"), sampleGame("Bastion"),
	})
	if err != nil {
		t.Fatalf("UpsertMany: %v", err)
	}
	if len(report.Succeeded) != 2 || len(report.Failed) != 1 {
		t.Fatalf("report = %+v", report)
	}
	f := report.Failed[0]
	if f.Index != 1 || f.Name != "Cursed" || !strings.Contains(f.Reason, "cursed game") || f.Conflict != nil {
		t.Errorf("failure = %+v", f)
	}
	if got := count(t, db, `SELECT COUNT(*) FROM games`); got != 2 {
		t.Errorf("games = %d, want 2", got)
	}
	// genres are shared between the two stored games
	if got := count(t, db, `SELECT COUNT(*) FROM genres`); got != 2 {
		t.Errorf("genres = %d, want 2", got)
	}
}

func TestUpsertManyReportsConflicts(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.Exec(`CREATE UNIQUE INDEX test_unique_main_image ON games(main_image)`); err != nil {
		t.Fatal(err)
	}
	svc := NewService(db, 1)

	a := sampleGame("Hades")
	b := sampleGame("Hades II")
	b.MainImage = a.MainImage
	c := sampleGame("Bastion")

	report, err := svc.UpsertMany(context.Background(), []models.CanonicalGame{a, b, c})
	if err != nil {
		t.Fatalf("UpsertMany: %v", err)
	}
	if len(report.Succeeded) != 2 || len(report.Failed) != 1 {
		t.Fatalf("report = %+v", report)
	}
	f := report.Failed[0]
	if f.Index != 1 || f.Conflict == nil {
		t.Fatalf("failure = %+v", f)
	}
	if f.Conflict.Index != "games.main_image" || f.Conflict.Field != "main_image" {
		t.Errorf("conflict = %+v", f.Conflict)
	}
}

func TestUpsertManyHonorsCancellation(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.UpsertMany(ctx, []models.CanonicalGame{{Name: ""}, sampleGame("Hades")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(report.Succeeded) != 0 {
		t.Errorf("succeeded = %v", report.Succeeded)
	}
	if len(report.Failed) != 1 || report.Failed[0].Index != 0 {
		t.Errorf("failed = %+v", report.Failed)
	}
	if got := count(t, db, `SELECT COUNT(*) FROM games`); got != 0 {
		t.Errorf("games = %d, want 0", got)
	}
}

func TestUpsertManyEmpty(t *testing.T) {
	svc := NewService(newTestDB(t), 1)
	report, err := svc.UpsertMany(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Succeeded == nil || report.Failed == nil {
		t.Fatal("report lists should be empty, not nil")
	}
}
