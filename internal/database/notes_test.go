package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestCommentTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	ptr := func(v int64) *int64 { return &v }
	day := int64(24 * time.Hour / time.Millisecond)

	tests := []struct {
		name     string
		client   *int64
		expected int64
	}{
		{"absent", nil, now},
		{"ten minutes ago", ptr(now - 10*60*1000), now - 10*60*1000},
		{"slightly ahead", ptr(now + 5000), now + 5000},
		{"exactly one year", ptr(now - 365*day), now - 365*day},
		{"over a year ago", ptr(now - 366*day), now},
		{"far future", ptr(now + 400*day), now},
		{"zero", ptr(0), now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := commentTime(tt.client, now); got != tt.expected {
				t.Errorf("commentTime = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestStudyDescription(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	before := time.Now().UnixMilli()
	res, err := db.SetStudyDescription(ctx, "study-1", "  Chest CT  ")
	if err != nil {
		t.Fatalf("SetStudyDescription failed: %v", err)
	}
	if res.Description != "Chest CT" || res.StudyUID != "study-1" || res.UpdatedAt < before {
		t.Errorf("unexpected result %+v", res)
	}

	if _, err := db.SetStudyDescription(ctx, "study-1", "Chest CT with contrast"); err != nil {
		t.Fatal(err)
	}
	notes, _ := db.GetNotes(ctx, []string{"study-1"})
	if got := notes["study-1"].Description; got != "Chest CT with contrast" {
		t.Errorf("Description = %q after overwrite", got)
	}

	res, err = db.SetStudyDescription(ctx, "study-1", " \t ")
	if err != nil {
		t.Fatal(err)
	}
	if res.Description != "" {
		t.Errorf("Description = %q, want empty", res.Description)
	}
	notes, _ = db.GetNotes(ctx, []string{"study-1"})
	if _, ok := notes["study-1"]; ok {
		t.Error("study with deleted description still returned")
	}
}

func TestSeriesDescriptionKeyedByStudy(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.SetSeriesDescription(ctx, "study-a", "shared", "study A view"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.SetSeriesDescription(ctx, "study-b", "shared", "study B view"); err != nil {
		t.Fatal(err)
	}

	notes, err := db.GetNotes(ctx, []string{"study-a", "study-b"})
	if err != nil {
		t.Fatal(err)
	}
	if got := notes["study-a"].Series["shared"].Description; got != "study A view" {
		t.Errorf("study-a series description = %q", got)
	}
	if got := notes["study-b"].Series["shared"].Description; got != "study B view" {
		t.Errorf("study-b series description = %q", got)
	}

	if _, err := db.SetSeriesDescription(ctx, "study-a", "shared", ""); err != nil {
		t.Fatal(err)
	}
	notes, _ = db.GetNotes(ctx, []string{"study-a"})
	if _, ok := notes["study-a"]; ok {
		t.Error("study-a should have no notes after clearing its only series description")
	}
}

func TestGetNotesShape(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.SetStudyDescription(ctx, "s1", "desc"); err != nil {
		t.Fatal(err)
	}

	notes, err := db.GetNotes(ctx, []string{"s1", "no-notes"})
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 {
		t.Fatalf("len = %d, want 1", len(notes))
	}
	entry := notes["s1"]
	if entry.Comments == nil || entry.Series == nil || entry.Reports == nil {
		t.Errorf("collections must be non-nil: %+v", entry)
	}
}

func TestGetNotesLimit(t *testing.T) {
	db := setupTestDB(t)

	uids := make([]string, MaxBatchStudies+1)
	for i := range uids {
		uids[i] = fmt.Sprintf("uid-%d", i)
	}

	if _, err := db.GetNotes(context.Background(), uids); !errors.Is(err, ErrTooManyStudies) {
		t.Errorf("error = %v, want ErrTooManyStudies", err)
	}
	if _, err := db.GetNotes(context.Background(), uids[:MaxBatchStudies]); err != nil {
		t.Errorf("batch of exactly %d failed: %v", MaxBatchStudies, err)
	}
}

func TestAddComment(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	c, err := db.AddComment(ctx, "s1", "", "Normal study", nil)
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if c.ID == 0 || c.SeriesUID != nil || c.Text != "Normal study" || c.Time == 0 {
		t.Errorf("unexpected comment %+v", c)
	}

	sc, err := db.AddComment(ctx, "s1", "series-9", "Motion artifact", nil)
	if err != nil {
		t.Fatal(err)
	}
	if sc.SeriesUID == nil || *sc.SeriesUID != "series-9" {
		t.Errorf("SeriesUID = %v, want series-9", sc.SeriesUID)
	}

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := db.AddComment(ctx, "s1", "", text, nil); !errors.Is(err, ErrEmptyText) {
			t.Errorf("AddComment(%q) error = %v, want ErrEmptyText", text, err)
		}
	}

	notes, _ := db.GetNotes(ctx, []string{"s1"})
	if len(notes["s1"].Comments) != 1 {
		t.Errorf("study comments = %d, want 1", len(notes["s1"].Comments))
	}
	if got := notes["s1"].Series["series-9"].Comments; len(got) != 1 || got[0].Text != "Motion artifact" {
		t.Errorf("series comments = %+v", got)
	}
}

func TestAddCommentClientTime(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	recent := time.Now().Add(-10 * time.Minute).UnixMilli()
	c, err := db.AddComment(ctx, "s1", "", "timestamped", &recent)
	if err != nil {
		t.Fatal(err)
	}
	if c.Time != recent {
		t.Errorf("Time = %d, want client time %d", c.Time, recent)
	}

	stale := time.Now().AddDate(-2, 0, 0).UnixMilli()
	before := time.Now().UnixMilli()
	c, err = db.AddComment(ctx, "s1", "", "stale", &stale)
	after := time.Now().UnixMilli()
	if err != nil {
		t.Fatal(err)
	}
	if c.Time < before || c.Time > after {
		t.Errorf("Time = %d, want server time in [%d, %d]", c.Time, before, after)
	}
}

func TestCommentsOrderedByTime(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).UnixMilli()
	t1, t2, t3 := base, base+1000, base+2000

	for _, c := range []struct {
		text string
		time int64
	}{{"third", t3}, {"first", t1}, {"second", t2}} {
		tm := c.time
		if _, err := db.AddComment(ctx, "s1", "", c.text, &tm); err != nil {
			t.Fatal(err)
		}
	}

	notes, _ := db.GetNotes(ctx, []string{"s1"})
	comments := notes["s1"].Comments
	if len(comments) != 3 {
		t.Fatalf("comments = %d, want 3", len(comments))
	}
	for i, want := range []string{"first", "second", "third"} {
		if comments[i].Text != want {
			t.Errorf("comments[%d] = %q, want %q", i, comments[i].Text, want)
		}
	}
}

func TestUpdateComment(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour).UnixMilli()
	c, err := db.AddComment(ctx, "s1", "series-1", "before edit", &old)
	if err != nil {
		t.Fatal(err)
	}

	before := time.Now().UnixMilli()
	updated, err := db.UpdateComment(ctx, "s1", c.ID, " after edit ")
	if err != nil {
		t.Fatalf("UpdateComment failed: %v", err)
	}
	if updated.Text != "after edit" || updated.ID != c.ID || updated.Time < before {
		t.Errorf("unexpected update %+v", updated)
	}
	if updated.SeriesUID == nil || *updated.SeriesUID != "series-1" {
		t.Errorf("SeriesUID = %v, want series-1", updated.SeriesUID)
	}

	tests := []struct {
		name     string
		study    string
		id       int64
		text     string
		expected error
	}{
		{"missing id", "s1", 99999, "x", ErrNotFound},
		{"other study", "s2", c.ID, "x", ErrNotFound},
		{"empty text", "s1", c.ID, "  ", ErrEmptyText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := db.UpdateComment(ctx, tt.study, tt.id, tt.text); !errors.Is(err, tt.expected) {
				t.Errorf("error = %v, want %v", err, tt.expected)
			}
		})
	}
}

func TestDeleteComment(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a, _ := db.AddComment(ctx, "s1", "", "keep me", nil)
	b, _ := db.AddComment(ctx, "s1", "", "delete me", nil)

	if _, err := db.DeleteComment(ctx, "other", b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete with wrong study error = %v, want ErrNotFound", err)
	}

	res, err := db.DeleteComment(ctx, "s1", b.ID)
	if err != nil {
		t.Fatalf("DeleteComment failed: %v", err)
	}
	if !res.Deleted || res.ID != b.ID {
		t.Errorf("unexpected result %+v", res)
	}

	if _, err := db.DeleteComment(ctx, "s1", b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}

	notes, _ := db.GetNotes(ctx, []string{"s1"})
	comments := notes["s1"].Comments
	if len(comments) != 1 || comments[0].ID != a.ID {
		t.Errorf("remaining comments = %+v", comments)
	}
}

func TestCountNotesAndStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, _ = db.SetStudyDescription(ctx, "s1", "a")
	_, _ = db.SetSeriesDescription(ctx, "s1", "r1", "b")
	_, _ = db.AddComment(ctx, "s1", "", "c", nil)
	_, _ = db.AddComment(ctx, "s2", "r2", "d", nil)

	comments, descriptions, err := db.CountNotes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if comments != 2 || descriptions != 2 {
		t.Errorf("CountNotes = %d, %d, want 2, 2", comments, descriptions)
	}

	stats := db.GetStats()
	if stats.Comments != 2 || stats.Descriptions != 2 {
		t.Errorf("GetStats = %+v", stats)
	}
}
