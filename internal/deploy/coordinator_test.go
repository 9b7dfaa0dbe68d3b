package deploy

import (
	"context"
	"io"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dovecote/drover/internal/notify"
	"github.com/dovecote/drover/pkg/board"
	"github.com/dovecote/drover/pkg/board/boardtest"
)

// testQueue bundles a fake board with a coordinator wired to it. The
// dispatcher and publisher are exposed so monitor tests can capture outbound
// traffic.
type testQueue struct {
	srv      *boardtest.Server
	coord    *Coordinator
	notifier *notify.Dispatcher
	subjects *notify.SubjectPublisher
	boardID  string
	cols     Columns
}

func newTestQueue(t *testing.T) *testQueue {
	t.Helper()

	srv := boardtest.NewServer()
	t.Cleanup(srv.Close)

	boardID, listIDs := srv.AddBoard("In Line", "Deploying", "Completed")
	cols := Columns{Queue: listIDs[0], Running: listIDs[1], Done: listIDs[2]}

	notifier := notify.NewDispatcher()
	subjects := notify.NewSubjectPublisher()
	coord := New(srv.Client(), boardID, cols, notifier, subjects, quietLogger())

	return &testQueue{
		srv:      srv,
		coord:    coord,
		notifier: notifier,
		subjects: subjects,
		boardID:  boardID,
		cols:     cols,
	}
}

func TestPing(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.coord.Ping(ctx))

	bad := New(q.srv.Client(), "no-such-board", q.cols, q.notifier, q.subjects, quietLogger())
	assert.Error(t, bad.Ping(ctx))
}

func TestEnqueue(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	t.Run("appends to the back of the line", func(t *testing.T) {
		first, err := q.coord.Enqueue(ctx, "alice")
		require.NoError(t, err)
		assert.NotEmpty(t, first.ID)
		assert.Equal(t, "alice", first.Name)

		_, err = q.coord.Enqueue(ctx, "bob")
		require.NoError(t, err)

		assert.Equal(t, []string{"alice", "bob"}, q.srv.CardNames(q.cols.Queue))
	})

	t.Run("empty user rejected", func(t *testing.T) {
		_, err := q.coord.Enqueue(ctx, "")
		assert.Error(t, err)
	})
}

func TestStartDeploy(t *testing.T) {
	ctx := context.Background()

	t.Run("queued user moves into the running column", func(t *testing.T) {
		q := newTestQueue(t)
		cardID := q.srv.AddCard(q.cols.Queue, "alice")

		require.NoError(t, q.coord.StartDeploy(ctx, "alice"))

		assert.Empty(t, q.srv.CardNames(q.cols.Queue))
		assert.Equal(t, []string{"alice"}, q.srv.CardNames(q.cols.Running))
		comments := q.srv.CommentTexts(cardID)
		require.NotEmpty(t, comments)
		assert.Equal(t, "Deploy started", comments[0])
	})

	t.Run("finds the user anywhere in the queue", func(t *testing.T) {
		q := newTestQueue(t)
		q.srv.AddCard(q.cols.Queue, "alice")
		bobID := q.srv.AddCard(q.cols.Queue, "bob")

		require.NoError(t, q.coord.StartDeploy(ctx, "bob"))

		assert.Equal(t, []string{"alice"}, q.srv.CardNames(q.cols.Queue))
		col, ok := q.srv.CardColumn(bobID)
		require.True(t, ok)
		assert.Equal(t, q.cols.Running, col, "bob's own card must move, not a copy")
	})

	t.Run("shared card moves for either owner", func(t *testing.T) {
		q := newTestQueue(t)
		q.srv.AddCard(q.cols.Queue, "alice+bob")

		require.NoError(t, q.coord.StartDeploy(ctx, "bob"))

		assert.Equal(t, []string{"alice+bob"}, q.srv.CardNames(q.cols.Running))
	})

	t.Run("unqueued user gets a fresh running card", func(t *testing.T) {
		q := newTestQueue(t)
		q.srv.AddCard(q.cols.Queue, "alice")

		require.NoError(t, q.coord.StartDeploy(ctx, "carol"))

		assert.Equal(t, []string{"alice"}, q.srv.CardNames(q.cols.Queue))
		assert.Equal(t, []string{"carol"}, q.srv.CardNames(q.cols.Running))
	})

	t.Run("empty user rejected", func(t *testing.T) {
		q := newTestQueue(t)
		assert.Error(t, q.coord.StartDeploy(ctx, ""))
	})
}

func TestMarkSuccess(t *testing.T) {
	ctx := context.Background()

	t.Run("retires the running card", func(t *testing.T) {
		q := newTestQueue(t)
		cardID := q.srv.AddCard(q.cols.Running, "alice")

		moved, err := q.coord.MarkSuccess(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, moved)

		assert.Empty(t, q.srv.CardNames(q.cols.Running))
		assert.Equal(t, []string{"alice"}, q.srv.CardNames(q.cols.Done))
		assert.Equal(t, "Deploy succeeded!", q.srv.CommentTexts(cardID)[0])
	})

	t.Run("no running card is not an error", func(t *testing.T) {
		q := newTestQueue(t)
		q.srv.AddCard(q.cols.Queue, "alice")

		moved, err := q.coord.MarkSuccess(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, moved)
		assert.Equal(t, []string{"alice"}, q.srv.CardNames(q.cols.Queue), "queued card must not be touched")
	})
}

func TestMarkFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("failed deploy retries ahead of the line", func(t *testing.T) {
		q := newTestQueue(t)
		cardID := q.srv.AddCard(q.cols.Running, "alice")
		q.srv.AddCard(q.cols.Queue, "bob")

		moved, err := q.coord.MarkFailure(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, moved)

		assert.Empty(t, q.srv.CardNames(q.cols.Running))
		assert.Equal(t, []string{"alice", "bob"}, q.srv.CardNames(q.cols.Queue))
		assert.Equal(t, "Deploy failed!", q.srv.CommentTexts(cardID)[0])
	})

	t.Run("no running card is not an error", func(t *testing.T) {
		q := newTestQueue(t)

		moved, err := q.coord.MarkFailure(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, moved)
	})
}

func TestFindCardForOwner(t *testing.T) {
	cards := []board.Card{
		{ID: "c1", Name: "alice"},
		{ID: "c2", Name: "bob+carol"},
		{ID: "c3", Name: "alice"},
	}

	t.Run("first match wins", func(t *testing.T) {
		card, ok := findCardForOwner(cards, "alice")
		require.True(t, ok)
		assert.Equal(t, "c1", card.ID)
	})

	t.Run("matches shared cards", func(t *testing.T) {
		card, ok := findCardForOwner(cards, "carol")
		require.True(t, ok)
		assert.Equal(t, "c2", card.ID)
	})

	t.Run("no match", func(t *testing.T) {
		_, ok := findCardForOwner(cards, "dave")
		assert.False(t, ok)
	})

	t.Run("empty slice", func(t *testing.T) {
		_, ok := findCardForOwner(nil, "alice")
		assert.False(t, ok)
	})
}

func quietLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}
