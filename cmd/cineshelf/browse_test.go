package main

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vadimtrunov/CineShelf/internal/browse"
	"github.com/vadimtrunov/CineShelf/internal/core"
	"github.com/vadimtrunov/CineShelf/internal/details"
)

func testSections() []core.MovieSection {
	return []core.MovieSection{
		{Year: 2024, Movies: []core.Movie{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}}},
		{Year: 2020, Movies: []core.Movie{{ID: 3, Title: "C"}}},
	}
}

func newTestBrowseModel(t *testing.T) browseModel {
	t.Helper()
	lister := browse.New(&stubMovies{}, newStubStore(), browse.DefaultConfig(), discardLogger())
	newAgg := func() *details.Aggregator {
		return details.New(matrixMovies(), newStubStore(), details.DefaultConfig(), discardLogger())
	}
	return newBrowseModel(context.Background(), lister, feeds{}, newAgg)
}

func TestFlattenSections(t *testing.T) {
	rows := flattenSections(testSections())
	if len(rows) != 5 {
		t.Fatalf("len(rows) = %d, want 5", len(rows))
	}
	if !rows[0].header || rows[0].year != 2024 {
		t.Errorf("rows[0] = %+v, want 2024 header", rows[0])
	}
	if rows[2].movie.ID != 2 || rows[2].path != (browse.IndexPath{Section: 0, Row: 1}) {
		t.Errorf("rows[2] = %+v", rows[2])
	}
	if !rows[3].header || rows[3].year != 2020 {
		t.Errorf("rows[3] = %+v, want 2020 header", rows[3])
	}
	if rows[4].path != (browse.IndexPath{Section: 1, Row: 0}) {
		t.Errorf("rows[4].path = %+v", rows[4].path)
	}
}

func TestFlattenSections_Empty(t *testing.T) {
	if rows := flattenSections(nil); len(rows) != 0 {
		t.Errorf("len(rows) = %d, want 0", len(rows))
	}
}

func TestBrowseModel_CursorSkipsHeaders(t *testing.T) {
	m := newTestBrowseModel(t)
	m.setSections(testSections())

	if m.cursor != 1 {
		t.Fatalf("cursor = %d, want first movie row 1", m.cursor)
	}
	m.moveCursor(1)
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.cursor)
	}
	m.moveCursor(1)
	if m.cursor != 4 {
		t.Errorf("cursor = %d, want 4 (header skipped)", m.cursor)
	}
	if !m.isLastMovie() {
		t.Error("row 4 is the last movie")
	}
	m.moveCursor(1)
	if m.cursor != 4 {
		t.Errorf("cursor = %d, should stay on the last movie", m.cursor)
	}
	m.moveCursor(-1)
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2 (header skipped)", m.cursor)
	}
}

func TestBrowseModel_SetSectionsKeepsSelection(t *testing.T) {
	m := newTestBrowseModel(t)
	m.setSections(testSections())
	m.moveCursor(1) // movie 2

	next := []core.MovieSection{
		{Year: 2025, Movies: []core.Movie{{ID: 9, Title: "New"}}},
		{Year: 2024, Movies: []core.Movie{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}}},
	}
	m.setSections(next)

	r, ok := m.current()
	if !ok || r.movie.ID != 2 {
		t.Errorf("current = %+v, want movie 2", r)
	}
}

func TestBrowseModel_EmptySections(t *testing.T) {
	m := newTestBrowseModel(t)
	m.setSections(nil)
	if _, ok := m.current(); ok {
		t.Error("no row should be current")
	}
	m.moveCursor(1)
	if m.cursor != -1 {
		t.Errorf("cursor = %d, want -1", m.cursor)
	}
}

func TestBrowseModel_TabSwitchesFocus(t *testing.T) {
	m := newTestBrowseModel(t)
	if m.focusList {
		t.Fatal("search box should be focused initially")
	}
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if !updated.(browseModel).focusList {
		t.Error("tab should focus the list")
	}
}

func TestBrowseModel_ErrorShowsDisplayMessage(t *testing.T) {
	m := newTestBrowseModel(t)
	updated, _ := m.Update(listErrMsg{err: &core.Error{Kind: core.KindRateLimited, StatusCode: 429}})
	bm := updated.(browseModel)
	if bm.status != "API rate limit exceeded. Please try again later." {
		t.Errorf("status = %q", bm.status)
	}
}

func TestBrowseModel_SelectionOpensDetails(t *testing.T) {
	m := newTestBrowseModel(t)
	updated, cmd := m.Update(selectionMsg(core.Movie{ID: 603, Title: "The Matrix"}))
	bm := updated.(browseModel)
	if bm.detail == nil || bm.detail.movieID != 603 {
		t.Fatalf("detail = %+v, want movie 603", bm.detail)
	}
	if cmd == nil {
		t.Error("opening details should start the pipeline")
	}

	updated, _ = bm.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if updated.(browseModel).detail != nil {
		t.Error("esc should close details")
	}
}
