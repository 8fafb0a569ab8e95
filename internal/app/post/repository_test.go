package post

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"onchan/internal/app/auth"
	"onchan/internal/app/board"
	"onchan/internal/app/image"
	"onchan/internal/validation"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&board.Board{},
		&Content{},
		&image.Image{},
		&image.RemovalQueueEntry{},
		&auth.DeletionAuth{},
	))
	return db
}

func testBoard(threadLimit, imageLimit, bumpLimit int) *board.Board {
	return &board.Board{
		ID:          1,
		Path:        "/b/",
		Name:        "Random",
		ThreadLimit: threadLimit,
		ImageLimit:  imageLimit,
		BumpLimit:   bumpLimit,
	}
}

func newTestRepo(t *testing.T) (Repository, *gorm.DB, image.QueueRepository) {
	t.Helper()
	db := setupTestDB(t)
	queueRepo := image.NewQueueRepository(db)
	return NewRepository(db, queueRepo), db, queueRepo
}

func mustCreateThread(t *testing.T, repo Repository, b *board.Board, comment string) *Content {
	t.Helper()
	c := &Content{Comment: comment}
	require.NoError(t, repo.CreateThread(b, c))
	require.NotZero(t, c.ID)
	return c
}

func mustCreateReply(t *testing.T, repo Repository, b *board.Board, threadID uint64, comment string, opts validation.Options, hasImage bool) *Content {
	t.Helper()
	c := &Content{Comment: comment, Name: "anon"}
	require.NoError(t, repo.CreateReply(b, threadID, c, opts, hasImage))
	return c
}

func indexIDs(t *testing.T, repo Repository, b *board.Board, page int) []uint64 {
	t.Helper()
	threads, err := repo.GetThreadIndex(b, page, 10, 5)
	require.NoError(t, err)
	ids := make([]uint64, 0, len(threads))
	for _, th := range threads {
		ids = append(ids, th.ID)
	}
	return ids
}

func TestThreadLimitEvictsOldestFromIndex(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	b := testBoard(3, 50, 100)

	t1 := mustCreateThread(t, repo, b, "one")
	t2 := mustCreateThread(t, repo, b, "two")
	t3 := mustCreateThread(t, repo, b, "three")
	t4 := mustCreateThread(t, repo, b, "four")

	ids := indexIDs(t, repo, b, 1)
	assert.Equal(t, []uint64{t4.ID, t3.ID, t2.ID}, ids)
	assert.NotContains(t, ids, t1.ID)

	// Pages beyond the visible window are empty: the evicted thread never
	// reappears on a later page.
	for page := 2; page <= 5; page++ {
		assert.Empty(t, indexIDs(t, repo, b, page))
	}

	// The evicted row still exists; eviction is a view effect, not a delete.
	thread, err := repo.GetThread(b.Path, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, t1.ID, thread.ID)
}

func TestThreadCapacityHardGuard(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	b := testBoard(1, 50, 100)

	mustCreateThread(t, repo, b, "one")
	mustCreateThread(t, repo, b, "two")

	c := &Content{Comment: "three"}
	err := repo.CreateThread(b, c)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestReplyBumpsThread(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	b := testBoard(10, 50, 100)

	t1 := mustCreateThread(t, repo, b, "first")
	t2 := mustCreateThread(t, repo, b, "second")

	assert.Equal(t, []uint64{t2.ID, t1.ID}, indexIDs(t, repo, b, 1))

	mustCreateReply(t, repo, b, t1.ID, "bump it", validation.Options{}, false)

	assert.Equal(t, []uint64{t1.ID, t2.ID}, indexIDs(t, repo, b, 1))
}

func TestSageReplyDoesNotBump(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	b := testBoard(100, 50, 100)

	t1 := mustCreateThread(t, repo, b, "test")
	t2 := mustCreateThread(t, repo, b, "other")

	before := indexIDs(t, repo, b, 1)

	mustCreateReply(t, repo, b, t1.ID, "bump?", validation.Options{Sage: true}, false)

	assert.Equal(t, before, indexIDs(t, repo, b, 1))

	op, err := repo.GetThread(b.Path, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, op.Sage)
	assert.Equal(t, 1, op.Replies)
	_ = t2
}

func TestNonokoReplyDoesNotBump(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	b := testBoard(10, 50, 100)

	t1 := mustCreateThread(t, repo, b, "first")
	t2 := mustCreateThread(t, repo, b, "second")

	mustCreateReply(t, repo, b, t1.ID, "quiet", validation.Options{NoNoko: true}, false)

	assert.Equal(t, []uint64{t2.ID, t1.ID}, indexIDs(t, repo, b, 1))
}

func TestBumpLimitFreezesThread(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	b := testBoard(10, 50, 2)

	t1 := mustCreateThread(t, repo, b, "limited soon")

	mustCreateReply(t, repo, b, t1.ID, "r1", validation.Options{}, false)
	op, err := repo.GetThread(b.Path, t1.ID)
	require.NoError(t, err)
	assert.Nil(t, op.LimitedAt)

	mustCreateReply(t, repo, b, t1.ID, "r2", validation.Options{}, false)
	op, err = repo.GetThread(b.Path, t1.ID)
	require.NoError(t, err)
	require.NotNil(t, op.LimitedAt)
	frozenAt := op.BumpedAt

	// A newer thread now outranks it and an ordinary reply no longer
	// reorders anything.
	t2 := mustCreateThread(t, repo, b, "fresh")
	mustCreateReply(t, repo, b, t1.ID, "r3", validation.Options{}, false)

	op, err = repo.GetThread(b.Path, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, frozenAt, op.BumpedAt)
	assert.Equal(t, 3, op.Replies)
	assert.Equal(t, []uint64{t2.ID, t1.ID}, indexIDs(t, repo, b, 1))
}

func TestSageRepliesDoNotCountTowardBumpLimit(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	b := testBoard(10, 50, 2)

	t1 := mustCreateThread(t, repo, b, "slow burn")

	mustCreateReply(t, repo, b, t1.ID, "s1", validation.Options{Sage: true}, false)
	mustCreateReply(t, repo, b, t1.ID, "s2", validation.Options{Sage: true}, false)
	mustCreateReply(t, repo, b, t1.ID, "b1", validation.Options{}, false)

	op, err := repo.GetThread(b.Path, t1.ID)
	require.NoError(t, err)
	assert.Nil(t, op.LimitedAt)
	assert.Equal(t, 2, op.Sage)

	mustCreateReply(t, repo, b, t1.ID, "b2", validation.Options{}, false)
	op, err = repo.GetThread(b.Path, t1.ID)
	require.NoError(t, err)
	assert.NotNil(t, op.LimitedAt)
}

func TestReplyToMissingThread(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	b := testBoard(10, 50, 100)

	c := &Content{Comment: "hello?"}
	err := repo.CreateReply(b, 9999, c, validation.Options{}, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplyToReplyIsNotFound(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	b := testBoard(10, 50, 100)

	t1 := mustCreateThread(t, repo, b, "op")
	r1 := mustCreateReply(t, repo, b, t1.ID, "reply", validation.Options{}, false)

	c := &Content{Comment: "nested?"}
	err := repo.CreateReply(b, r1.ID, c, validation.Options{}, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestImageLimit(t *testing.T) {
	repo, db, _ := newTestRepo(t)
	b := testBoard(10, 2, 100)

	t1 := mustCreateThread(t, repo, b, "pics")

	// Two attached images: at the limit, a further image reply is refused
	// while a plain reply still goes through.
	for i := 0; i < 2; i++ {
		c := mustCreateReply(t, repo, b, t1.ID, "pic", validation.Options{}, true)
		require.NoError(t, db.Create(&image.Image{
			ContentID: &c.ID,
			Filename:  "f.png",
			Checksum:  "x",
			URL:       "/public/img/f.png",
			ThreadID:  &t1.ID,
		}).Error)
	}

	c := &Content{Comment: "one more"}
	err := repo.CreateReply(b, t1.ID, c, validation.Options{}, true)
	assert.ErrorIs(t, err, ErrImageLimitExceeded)

	mustCreateReply(t, repo, b, t1.ID, "no pic", validation.Options{}, false)
}

func TestGetQuotedReplies(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	b := testBoard(10, 50, 100)

	t1 := mustCreateThread(t, repo, b, "op")
	var replyIDs []uint64
	for i := 0; i < 7; i++ {
		r := mustCreateReply(t, repo, b, t1.ID, "reply", validation.Options{}, false)
		replyIDs = append(replyIDs, r.ID)
	}

	quotes, err := repo.GetQuotedReplies(t1.ID, 5)
	require.NoError(t, err)
	require.Len(t, quotes, 5)

	// The most recent five, in chronological order.
	for i, q := range quotes {
		assert.Equal(t, replyIDs[2+i], q.ID)
	}
	for i := 1; i < len(quotes); i++ {
		assert.False(t, quotes[i].CreatedAt.Before(quotes[i-1].CreatedAt))
	}
}

func TestGetThread(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	b := testBoard(10, 50, 100)

	t1 := mustCreateThread(t, repo, b, "op")
	r1 := mustCreateReply(t, repo, b, t1.ID, "first", validation.Options{}, false)
	r2 := mustCreateReply(t, repo, b, t1.ID, "second", validation.Options{}, false)

	op, err := repo.GetThread(b.Path, t1.ID)
	require.NoError(t, err)
	require.Len(t, op.Quotes, 2)
	assert.Equal(t, r1.ID, op.Quotes[0].ID)
	assert.Equal(t, r2.ID, op.Quotes[1].ID)

	_, err = repo.GetThread(b.Path, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetThread("/g/", t1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteContentPartialBatch(t *testing.T) {
	repo, db, queueRepo := newTestRepo(t)
	b := testBoard(10, 50, 100)

	t1 := mustCreateThread(t, repo, b, "mine")
	t2 := mustCreateThread(t, repo, b, "theirs")

	require.NoError(t, db.Create(&auth.DeletionAuth{ContentID: t1.ID, PasswordHash: "hash-a"}).Error)
	require.NoError(t, db.Create(&auth.DeletionAuth{ContentID: t2.ID, PasswordHash: "hash-b"}).Error)

	require.NoError(t, db.Create(&image.Image{
		ContentID: &t1.ID,
		Filename:  "mine.png",
		Checksum:  "x",
		URL:       "/public/img/mine.png",
		ThreadID:  &t1.ID,
	}).Error)

	count, err := repo.DeleteContent(b.Path, []uint64{t1.ID, t2.ID}, "hash-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = repo.GetThread(b.Path, t1.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The row under a different hash is untouched.
	still, err := repo.GetThread(b.Path, t2.ID)
	require.NoError(t, err)
	assert.Equal(t, t2.ID, still.ID)

	// The dead image's files are queued, full and thumb.
	entries, err := queueRepo.Claim()
	require.NoError(t, err)
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	assert.ElementsMatch(t, []string{"mine.png", "thumb/mine.png"}, paths)
}

func TestDeleteThreadRemovesItsReplies(t *testing.T) {
	repo, db, queueRepo := newTestRepo(t)
	b := testBoard(10, 50, 100)

	op := mustCreateThread(t, repo, b, "doomed thread")
	reply := mustCreateReply(t, repo, b, op.ID, "with pic", validation.Options{}, true)

	require.NoError(t, db.Create(&auth.DeletionAuth{ContentID: op.ID, PasswordHash: "hash-a"}).Error)
	// The reply belongs to someone else entirely.
	require.NoError(t, db.Create(&auth.DeletionAuth{ContentID: reply.ID, PasswordHash: "hash-b"}).Error)

	require.NoError(t, db.Create(&image.Image{
		ContentID: &op.ID,
		Filename:  "op.png",
		Checksum:  "x",
		URL:       "/public/img/op.png",
		ThreadID:  &op.ID,
	}).Error)
	require.NoError(t, db.Create(&image.Image{
		ContentID: &reply.ID,
		Filename:  "reply.png",
		Checksum:  "y",
		URL:       "/public/img/reply.png",
		ThreadID:  &op.ID,
	}).Error)

	count, err := repo.DeleteContent(b.Path, []uint64{op.ID}, "hash-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = repo.GetThread(b.Path, op.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The reply went with its thread: row, image row and auth row all gone.
	var orphan Content
	err = db.Where("id = ?", reply.ID).First(&orphan).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var imgCount int64
	require.NoError(t, db.Model(&image.Image{}).Where("thread_id = ?", op.ID).Count(&imgCount).Error)
	assert.Zero(t, imgCount)

	var authCount int64
	require.NoError(t, db.Model(&auth.DeletionAuth{}).Where("content_id IN ?", []uint64{op.ID, reply.ID}).Count(&authCount).Error)
	assert.Zero(t, authCount)

	// Both posts' files are queued, full and thumb each.
	entries, err := queueRepo.Claim()
	require.NoError(t, err)
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	assert.ElementsMatch(t, []string{"op.png", "thumb/op.png", "reply.png", "thumb/reply.png"}, paths)
}

func TestDeleteContentScopedToBoard(t *testing.T) {
	repo, db, _ := newTestRepo(t)
	b := testBoard(10, 50, 100)
	g := testBoard(10, 50, 100)
	g.ID = 2
	g.Path = "/g/"
	g.Name = "Technology"

	mine := mustCreateThread(t, repo, b, "on /b/")
	elsewhere := &Content{Comment: "on /g/"}
	require.NoError(t, repo.CreateThread(g, elsewhere))

	// Same credential owns both posts.
	require.NoError(t, db.Create(&auth.DeletionAuth{ContentID: mine.ID, PasswordHash: "hash-a"}).Error)
	require.NoError(t, db.Create(&auth.DeletionAuth{ContentID: elsewhere.ID, PasswordHash: "hash-a"}).Error)

	count, err := repo.DeleteContent(b.Path, []uint64{mine.ID, elsewhere.ID}, "hash-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Only the requested board's post is gone.
	_, err = repo.GetThread(b.Path, mine.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	still, err := repo.GetThread(g.Path, elsewhere.ID)
	require.NoError(t, err)
	assert.Equal(t, elsewhere.ID, still.ID)
}

func TestDeleteContentWrongHashIsNoop(t *testing.T) {
	repo, db, _ := newTestRepo(t)
	b := testBoard(10, 50, 100)

	t1 := mustCreateThread(t, repo, b, "keep me")
	require.NoError(t, db.Create(&auth.DeletionAuth{ContentID: t1.ID, PasswordHash: "right"}).Error)

	count, err := repo.DeleteContent(b.Path, []uint64{t1.ID}, "wrong")
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = repo.GetThread(b.Path, t1.ID)
	assert.NoError(t, err)
}

func TestDeleteContentWithoutAuthRowIsNoop(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	b := testBoard(10, 50, 100)

	// Legacy post: no DeletionAuth row, can never be deleted.
	t1 := mustCreateThread(t, repo, b, "immortal")

	count, err := repo.DeleteContent(b.Path, []uint64{t1.ID}, "any-hash")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteImagesOnly(t *testing.T) {
	repo, db, queueRepo := newTestRepo(t)
	b := testBoard(10, 50, 100)

	t1 := mustCreateThread(t, repo, b, "keep comment")
	require.NoError(t, db.Create(&auth.DeletionAuth{ContentID: t1.ID, PasswordHash: "hash-a"}).Error)
	require.NoError(t, db.Create(&image.Image{
		ContentID: &t1.ID,
		Filename:  "strip.png",
		Checksum:  "x",
		URL:       "/public/img/strip.png",
		ThreadID:  &t1.ID,
	}).Error)

	count, err := repo.DeleteImagesOnly(b.Path, []uint64{t1.ID}, "hash-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Comment row intact, image row gone.
	op, err := repo.GetThread(b.Path, t1.ID)
	require.NoError(t, err)
	assert.Nil(t, op.Image)

	entries, err := queueRepo.Claim()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestIncrementImageReplies(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	b := testBoard(10, 50, 100)

	t1 := mustCreateThread(t, repo, b, "op")
	require.NoError(t, repo.IncrementImageReplies(t1.ID))

	op, err := repo.GetThread(b.Path, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, op.ImageReplies)
}
