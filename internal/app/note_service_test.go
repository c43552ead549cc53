package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studynotes/internal/model"
	"studynotes/internal/pkg/apperr"
	"studynotes/internal/repository"
)

func newNoteFixture(t *testing.T, history QAHistory, publisher QAPublisher) (*NoteService, *repository.MemoryNoteRepository, *fakeGenerator) {
	t.Helper()
	gen := &fakeGenerator{respond: replyWith(`{"answer":"Blocks","confidence":"medium"}`)}
	notes := repository.NewMemoryNoteRepository()
	svc := NewNoteService(notes, newTestGateway(gen, nil), history, publisher, 10, time.Second, zap.NewNop())
	return svc, notes, gen
}

func seedNote(t *testing.T, svc *NoteService, title, content string) *model.Note {
	t.Helper()
	note, err := svc.Create(context.Background(), CreateNoteInput{Title: title, Content: content})
	require.NoError(t, err)
	return note
}

func TestNoteServiceCRUD(t *testing.T) {
	svc, _, _ := newNoteFixture(t, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateNoteInput{})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	note := seedNote(t, svc, "Disks", "Disks are arrays of blocks.")
	assert.NotNil(t, note.Questions)

	got, err := svc.Get(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "Disks", got.Title)

	title := "Disk Scheduling"
	updated, err := svc.Update(ctx, note.ID, repository.NotePatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, "Disks are arrays of blocks.", updated.Content)

	blank := " "
	_, err = svc.Update(ctx, note.ID, repository.NotePatch{Title: &blank})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = svc.Update(ctx, note.ID, repository.NotePatch{})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = svc.Update(ctx, "missing", repository.NotePatch{Title: &title})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, note.ID))
	_, err = svc.Get(ctx, note.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, note.ID), apperr.ErrNotFound)
}

func TestNoteServiceListPaging(t *testing.T) {
	svc, _, _ := newNoteFixture(t, nil, nil)
	for _, title := range []string{"Graphs", "Trees", "Graph coloring"} {
		seedNote(t, svc, title, "content")
		time.Sleep(time.Millisecond)
	}

	page, err := svc.List(context.Background(), NoteQuery{Query: "graph", Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Notes, 1)
	assert.Equal(t, "Graph coloring", page.Notes[0].Title)

	all, err := svc.List(context.Background(), NoteQuery{Page: 0, Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, all.Page)
	assert.Equal(t, maxPageSize, all.Limit)
	assert.Len(t, all.Notes, 3)
}

func TestAskPersistsInlineWithoutQueue(t *testing.T) {
	svc, notes, gen := newNoteFixture(t, nil, nil)
	ctx := context.Background()
	note := seedNote(t, svc, "Disks", "Disks are arrays of blocks.")

	answer, err := svc.Ask(ctx, note.ID, "What are disks?")
	require.NoError(t, err)
	assert.Equal(t, &Answer{Answer: "Blocks", Confidence: "medium"}, answer)

	stored, err := notes.GetByID(ctx, note.ID)
	require.NoError(t, err)
	require.Len(t, stored.Questions, 1)
	assert.Equal(t, "What are disks?", stored.Questions[0].Question)
	assert.Equal(t, "Blocks", stored.Questions[0].Answer)

	_, err = svc.Ask(ctx, note.ID, "And sectors?")
	require.NoError(t, err)
	assert.Len(t, gen.Call(1), 4)

	history, err := svc.History(ctx, note.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestAskPublishesAndUsesHistoryCache(t *testing.T) {
	history := newMemHistory()
	publisher := &fakePublisher{}
	svc, notes, _ := newNoteFixture(t, history, publisher)
	ctx := context.Background()
	note := seedNote(t, svc, "Disks", "Disks are arrays of blocks.")

	_, err := svc.Ask(ctx, note.ID, "What are disks?")
	require.NoError(t, err)

	require.Len(t, publisher.messages, 1)
	assert.Equal(t, note.ID, publisher.messages[0].NoteID)

	stored, err := notes.GetByID(ctx, note.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Questions)

	pairs, err := svc.History(ctx, note.ID)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "What are disks?", pairs[0].Question)

	require.NoError(t, svc.Delete(ctx, note.ID))
	_, found, err := history.Get(ctx, note.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAskFallsBackWhenPublishFails(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("channel closed")}
	svc, notes, _ := newNoteFixture(t, nil, publisher)
	ctx := context.Background()
	note := seedNote(t, svc, "Disks", "Disks are arrays of blocks.")

	_, err := svc.Ask(ctx, note.ID, "What are disks?")
	require.NoError(t, err)

	stored, err := notes.GetByID(ctx, note.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Questions, 1)
}

func TestAskSeedsHistoryFromStoredQuestions(t *testing.T) {
	history := newMemHistory()
	svc, _, gen := newNoteFixture(t, history, &fakePublisher{})
	ctx := context.Background()
	note, err := svc.Create(ctx, CreateNoteInput{
		Title:     "Disks",
		Content:   "Disks are arrays of blocks.",
		Questions: []model.QAPair{{Question: "Earlier?", Answer: "Yes."}},
	})
	require.NoError(t, err)

	_, err = svc.Ask(ctx, note.ID, "Now?")
	require.NoError(t, err)
	assert.Len(t, gen.Call(0), 4)

	pairs, found, err := history.Get(ctx, note.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, pairs, 2)
}

func TestAskErrors(t *testing.T) {
	svc, notes, gen := newNoteFixture(t, nil, nil)
	ctx := context.Background()

	_, err := svc.Ask(ctx, "missing", "why?")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	note := seedNote(t, svc, "Disks", "Disks are arrays of blocks.")
	_, err = svc.Ask(ctx, note.ID, " ")
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	gen.respond = replyWith("I think it is blocks.")
	_, err = svc.Ask(ctx, note.ID, "What are disks?")
	require.ErrorIs(t, err, apperr.ErrParse)

	stored, err := notes.GetByID(ctx, note.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Questions)
}
