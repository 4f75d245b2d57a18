package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"slicealign/internal/models"
	"slicealign/pkg/colors"
	"slicealign/pkg/correspondence"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSnapshot() correspondence.Snapshot {
	res := models.Resolution{Width: 64, Height: 48}
	return correspondence.Snapshot{
		Slices: []models.Slice{
			{Name: "s1", Resolution: res, Points: []models.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}, Alignment: models.Identity()},
			{Name: "s2", Resolution: res, Points: []models.Point{{X: 5, Y: 6}, {X: 7, Y: 8}}, Alignment: models.Alignment{Theta: 12.5, Px: -1, Py: 2}},
		},
		Colors:   []colors.Color{"#ff0000", "#00ff00"},
		Computed: true,
	}
}

func TestSaveLoad(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	snap := sampleSnapshot()

	id, err := s.Save(ctx, "brain", snap)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, snap) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, snap)
	}

	rec, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Name != "brain" || rec.Slices != 2 || rec.Points != 4 || !rec.Computed {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.CreatedAt.IsZero() || rec.UpdatedAt.Before(rec.CreatedAt) {
		t.Errorf("bad timestamps %v / %v", rec.CreatedAt, rec.UpdatedAt)
	}
}

func TestPutReplaces(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	snap := sampleSnapshot()

	id, err := s.Save(ctx, "first", snap)
	if err != nil {
		t.Fatal(err)
	}
	before, err := s.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}

	snap.Computed = false
	snap.Slices[1].Points = snap.Slices[1].Points[:1]
	if err := s.Put(ctx, id, "second", snap); err != nil {
		t.Fatalf("put: %v", err)
	}

	rec, err := s.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Name != "second" || rec.Points != 3 || rec.Computed {
		t.Errorf("record not replaced: %+v", rec)
	}
	if !rec.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("created_at changed: %v -> %v", before.CreatedAt, rec.CreatedAt)
	}

	recs, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Errorf("expected one record, got %d", len(recs))
	}
}

func TestPutRejectsBadID(t *testing.T) {
	s := openStore(t)
	if err := s.Put(context.Background(), "not-a-uuid", "x", sampleSnapshot()); err == nil {
		t.Error("expected invalid id error")
	}
}

func TestListOrder(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	recs, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Fatalf("empty store listed %d records", len(recs))
	}

	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		id, err := s.Save(ctx, name, sampleSnapshot())
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	recs, err = s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	for i, rec := range recs {
		if want := ids[len(ids)-1-i]; rec.ID != want {
			t.Errorf("record %d: got %s, want %s", i, rec.ID, want)
		}
	}
}

func TestNotFound(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	missing := "00000000-0000-0000-0000-000000000000"

	if _, err := s.Load(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("load: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Get(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("get: expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete: expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, "gone", sampleSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Load(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRestoreIntoSession(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, "resume", sampleSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	snap, err := s.Load(ctx, id)
	if err != nil {
		t.Fatal(err)
	}

	sess := correspondence.NewSession()
	if err := sess.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if sess.SliceCount() != 2 || sess.MaxCount() != 2 || !sess.Computed() {
		t.Errorf("restored session: slices=%d max=%d computed=%v", sess.SliceCount(), sess.MaxCount(), sess.Computed())
	}
}

func TestCloseNil(t *testing.T) {
	var s *Store
	if err := s.Close(); err != nil {
		t.Errorf("nil store close: %v", err)
	}
}
