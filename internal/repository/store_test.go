package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apptrack/internal/model"
)

var testVocab = model.Vocabulary{
	Statuses: []model.StatusDef{
		{Label: "Pending", Stage: model.StagePending},
		{Label: "Interview", Stage: model.StageInProgress},
		{Label: "Straight Rejection", Stage: model.StageRejected},
		{Label: "Offer", Stage: model.StageOffer},
		{Label: "Accepted Offer", Stage: model.StageAccepted},
	},
	Tags: []string{"Favorite", "Remote"},
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	manager := NewManager(t.TempDir(), testVocab, []string{"Summer 2024", "Summer 2025"})
	store, err := manager.Open(context.Background(), "tester")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func entry(day time.Time, position, company, status string) model.Entry {
	return model.Entry{
		Date:     day,
		Position: position,
		Company:  company,
		Status:   status,
	}
}

func TestOpenSeedsPredefinedCycles(t *testing.T) {
	store := newTestStore(t)

	cycles, err := store.ListCycles(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"summer_2024", "summer_2025"}, cycles)
}

func TestAddCycleIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddCycle(ctx, "Winter 2026"))
	require.NoError(t, store.AddCycle(ctx, "winter  2026"))
	require.NoError(t, store.AddCycle(ctx, "WINTER 2026"))

	cycles, err := store.ListCycles(ctx, false)
	require.NoError(t, err)

	seen := 0
	for _, c := range cycles {
		if c == "winter_2026" {
			seen++
		}
	}
	assert.Equal(t, 1, seen)
}

func TestListCyclesFullNames(t *testing.T) {
	store := newTestStore(t)

	cycles, err := store.ListCycles(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Summer 2024", "Summer 2025"}, cycles)
}

func TestEntryRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := model.Entry{
		Date:        date(2024, time.June, 3),
		Position:    "Data Science Intern",
		Company:     "Initech",
		Description: "Summer internship",
		Link:        "https://example.com/posting",
		Tags:        model.JoinTags([]string{"Favorite", "Remote"}),
		Status:      "Pending",
	}
	require.NoError(t, store.AddEntry(ctx, "Summer 2024", &in))
	assert.NotZero(t, in.ID)

	apps, err := store.GetApplications(ctx)
	require.NoError(t, err)
	require.Len(t, apps["Summer 2024"], 1)

	got := apps["Summer 2024"][0]
	assert.Equal(t, in.ID, got.ID)
	assert.True(t, got.Date.Equal(in.Date), "got %v, want %v", got.Date, in.Date)
	assert.Equal(t, in.Position, got.Position)
	assert.Equal(t, in.Company, got.Company)
	assert.Equal(t, in.Description, got.Description)
	assert.Equal(t, in.Link, got.Link)
	assert.Equal(t, []string{"Favorite", "Remote"}, got.TagList())
	assert.Equal(t, in.Status, got.Status)
}

func TestAddEntryValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		entry model.Entry
	}{
		{"missing date", entry(time.Time{}, "Intern", "Initech", "Pending")},
		{"missing position", entry(date(2024, time.June, 1), "", "Initech", "Pending")},
		{"missing company", entry(date(2024, time.June, 1), "Intern", "", "Pending")},
		{"missing status", entry(date(2024, time.June, 1), "Intern", "Initech", "")},
		{"unknown status", entry(date(2024, time.June, 1), "Intern", "Initech", "Ghosted")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.entry
			err := store.AddEntry(ctx, "Summer 2024", &e)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAddEntryUnknownCycle(t *testing.T) {
	store := newTestStore(t)

	e := entry(date(2024, time.June, 1), "Intern", "Initech", "Pending")
	err := store.AddEntry(context.Background(), "Fall 1999", &e)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCellEditAfterResort(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Insert out of date order: the earliest application goes in last,
	// so the displayed (date-sorted) order differs from insertion order.
	first := entry(date(2024, time.June, 20), "Backend Intern", "Hooli", "Pending")
	second := entry(date(2024, time.June, 10), "Data Intern", "Initech", "Pending")
	third := entry(date(2024, time.June, 1), "SWE Intern", "Pied Piper", "Pending")
	for _, e := range []*model.Entry{&first, &second, &third} {
		require.NoError(t, store.AddEntry(ctx, "Summer 2024", e))
	}

	displayed, err := store.CycleEntries(ctx, "Summer 2024")
	require.NoError(t, err)
	require.Equal(t, third.ID, displayed[0].ID, "earliest date should display first")

	rowIDs := make([]uint, len(displayed))
	for i, e := range displayed {
		rowIDs[i] = e.ID
	}

	// Edit displayed row 0: must hit the Pied Piper entry, not the row
	// that happened to be inserted first.
	err = store.UpdateEntryCells(ctx, "Summer 2024", rowIDs, map[int]map[string]string{
		0: {"Status": "Interview"},
	})
	require.NoError(t, err)

	after, err := store.CycleEntries(ctx, "Summer 2024")
	require.NoError(t, err)
	assert.Equal(t, "Interview", after[0].Status)
	assert.Equal(t, "Pied Piper", after[0].Company)
	assert.Equal(t, "Pending", after[1].Status)
	assert.Equal(t, "Pending", after[2].Status)
}

func TestUpdateEntryCellsRejectsBadTargets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e := entry(date(2024, time.June, 1), "Intern", "Initech", "Pending")
	require.NoError(t, store.AddEntry(ctx, "Summer 2024", &e))
	rowIDs := []uint{e.ID}

	err := store.UpdateEntryCells(ctx, "Summer 2024", rowIDs, map[int]map[string]string{
		5: {"Status": "Interview"},
	})
	assert.ErrorIs(t, err, ErrIntegrity)

	err = store.UpdateEntryCells(ctx, "Summer 2024", rowIDs, map[int]map[string]string{
		0: {"id": "99"},
	})
	assert.ErrorIs(t, err, ErrIntegrity)

	err = store.UpdateEntryCells(ctx, "Summer 2024", rowIDs, map[int]map[string]string{
		0: {"Status": "Ghosted"},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateEntryCellsRollsBackTogether(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e := entry(date(2024, time.June, 1), "Intern", "Initech", "Pending")
	require.NoError(t, store.AddEntry(ctx, "Summer 2024", &e))

	// One edit is valid, the other targets a row outside the displayed
	// table. Nothing may stick.
	err := store.UpdateEntryCells(ctx, "Summer 2024", []uint{e.ID}, map[int]map[string]string{
		0: {"Status": "Interview"},
		7: {"Status": "Offer"},
	})
	require.ErrorIs(t, err, ErrIntegrity)

	after, err := store.CycleEntries(ctx, "Summer 2024")
	require.NoError(t, err)
	assert.Equal(t, "Pending", after[0].Status)
}

func TestDeleteCycleThenRead(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.DeleteCycle(ctx, "Summer 2024"))

	cycles, err := store.ListCycles(ctx, false)
	require.NoError(t, err)
	assert.NotContains(t, cycles, "summer_2024")

	_, err = store.CycleEntries(ctx, "Summer 2024")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.DeleteCycle(ctx, "Summer 2024")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAllCyclesUnion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		e := entry(date(2024, time.June, 1+i), "Intern", "Initech", "Pending")
		require.NoError(t, store.AddEntry(ctx, "Summer 2024", &e))
	}
	for i := 0; i < 2; i++ {
		e := entry(date(2025, time.June, 1+i), "Intern", "Hooli", "Pending")
		require.NoError(t, store.AddEntry(ctx, "Summer 2025", &e))
	}

	union, err := store.CycleEntries(ctx, AllCycles)
	require.NoError(t, err)
	assert.Len(t, union, 5)

	for i := 1; i < len(union); i++ {
		assert.False(t, union[i].Date.Before(union[i-1].Date), "union must stay date-sorted")
	}
}

func TestSettingsReplaceSemantics(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetSetting(ctx, SettingDefaultCycle)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetSetting(ctx, "theme")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.UpdateSetting(ctx, SettingDefaultCycle, "Summer 2024"))
	require.NoError(t, store.UpdateSetting(ctx, SettingDefaultCycle, "Summer 2025"))

	got, err := store.GetSetting(ctx, SettingDefaultCycle)
	require.NoError(t, err)
	assert.Equal(t, "Summer 2025", got)

	var count int64
	require.NoError(t, store.db.Table("user_settings").Count(&count).Error)
	assert.EqualValues(t, 1, count, "settings row is replaced, not appended")
}

func TestActiveCyclesReplaceSet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpdateStatuses(ctx, []string{"Summer 2024", "Summer 2025"}))
	active, err := store.ActiveCycles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"summer_2024", "summer_2025"}, active)

	require.NoError(t, store.UpdateStatuses(ctx, []string{"Summer 2025"}))
	active, err = store.ActiveCycles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"summer_2025"}, active)
}

func TestResources(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddResource(ctx, "Levels", "https://levels.fyi"))
	require.NoError(t, store.AddResource(ctx, "Handbook", ""))
	assert.ErrorIs(t, store.AddResource(ctx, "  ", "x"), ErrValidation)

	rows, err := store.Resources(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Levels", rows[0].Name)
	assert.Equal(t, "Handbook", rows[1].Name)
}

func TestManagerRejectsBadUser(t *testing.T) {
	manager := NewManager(t.TempDir(), testVocab, nil)

	_, err := manager.Open(context.Background(), "../escape")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNormalizeAndDisplayCycle(t *testing.T) {
	tests := []struct {
		display    string
		normalized string
		roundTrip  string
	}{
		{"Summer 2024", "summer_2024", "Summer 2024"},
		{"winter  2026", "winter_2026", "Winter 2026"},
		{"FALL 2025", "fall_2025", "Fall 2025"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.normalized, NormalizeCycle(tt.display))
		assert.Equal(t, tt.roundTrip, DisplayCycle(tt.normalized))
	}
}
