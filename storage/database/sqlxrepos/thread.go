package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/thread"
)

type threadRepository struct {
	exec core.DBExecutor
}

var _ thread.Repository = (*threadRepository)(nil) // interface compliance check

func NewThreadRepository(exec core.DBExecutor) *threadRepository {
	return &threadRepository{exec: exec}
}

func (repo threadRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

type threadRow struct {
	ID        int       `db:"id"`
	BranchID  int       `db:"branch_id"`
	Title     string    `db:"title"`
	CreatedBy null.Int  `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
}

func (r threadRow) thread() thread.Thread {
	return thread.Thread{
		ID:        r.ID,
		BranchID:  r.BranchID,
		Title:     r.Title,
		CreatedBy: r.CreatedBy.Int,
		CreatedAt: r.CreatedAt,
	}
}

const threadColumns = `id, branch_id, title, created_by, created_at`

func (repo threadRepository) QueryThreads(ctx context.Context, branchID int, exec ...core.DBExecutor) ([]thread.Thread, error) {
	var rows []threadRow
	err := repo.getExec(exec).SelectContext(ctx, &rows, `
		SELECT `+threadColumns+` FROM threads
		WHERE branch_id = $1 AND title <> $2
		ORDER BY created_at DESC`,
		branchID, thread.GearThreadTitle,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying threads")
	}
	threads := make([]thread.Thread, len(rows))
	for i, r := range rows {
		threads[i] = r.thread()
	}
	return threads, nil
}

func (repo threadRepository) GetThreadByID(ctx context.Context, id int, exec ...core.DBExecutor) (thread.Thread, error) {
	var row threadRow
	err := repo.getExec(exec).GetContext(ctx, &row, `SELECT `+threadColumns+` FROM threads WHERE id = $1`, id)
	if err != nil {
		return thread.Thread{}, trapNoRowsErrAs(err, thread.ErrNotFound, "finding thread by ID")
	}
	return row.thread(), nil
}

func (repo threadRepository) GetThreadByTitle(ctx context.Context, branchID int, title string, exec ...core.DBExecutor) (thread.Thread, error) {
	var row threadRow
	err := repo.getExec(exec).GetContext(ctx, &row,
		`SELECT `+threadColumns+` FROM threads WHERE branch_id = $1 AND title = $2`,
		branchID, title,
	)
	if err != nil {
		return thread.Thread{}, trapNoRowsErrAs(err, thread.ErrNotFound, "finding thread by title")
	}
	return row.thread(), nil
}

func (repo threadRepository) CreateThread(ctx context.Context, t thread.Thread, exec ...core.DBExecutor) (thread.Thread, error) {
	var row threadRow
	err := repo.getExec(exec).GetContext(ctx, &row, `
		INSERT INTO threads (branch_id, title, created_by)
		VALUES ($1, $2, $3)
		RETURNING `+threadColumns,
		t.BranchID, t.Title, null.NewInt(t.CreatedBy, t.CreatedBy != 0),
	)
	if err != nil {
		return thread.Thread{}, errors.Wrap(err, "inserting thread")
	}
	return row.thread(), nil
}

func (repo threadRepository) CreatePost(ctx context.Context, p thread.Post, exec ...core.DBExecutor) (thread.Post, error) {
	var row struct {
		ID        int       `db:"id"`
		ThreadID  int       `db:"thread_id"`
		AuthorID  null.Int  `db:"author_id"`
		Body      string    `db:"body"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := repo.getExec(exec).GetContext(ctx, &row, `
		INSERT INTO posts (thread_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, thread_id, author_id, body, created_at`,
		p.ThreadID, null.NewInt(p.AuthorID, p.AuthorID != 0), p.Body,
	)
	if err != nil {
		return thread.Post{}, errors.Wrap(err, "inserting post")
	}
	return thread.Post{
		ID:         row.ID,
		ThreadID:   row.ThreadID,
		AuthorID:   row.AuthorID.Int,
		AuthorName: p.AuthorName,
		Body:       row.Body,
		CreatedAt:  row.CreatedAt,
	}, nil
}

func (repo threadRepository) QueryPosts(ctx context.Context, threadID int, exec ...core.DBExecutor) ([]thread.Post, error) {
	var rows []struct {
		ID         int         `db:"id"`
		ThreadID   int         `db:"thread_id"`
		AuthorID   null.Int    `db:"author_id"`
		AuthorName null.String `db:"author_name"`
		Body       string      `db:"body"`
		CreatedAt  time.Time   `db:"created_at"`
	}
	err := repo.getExec(exec).SelectContext(ctx, &rows, `
		SELECT p.id, p.thread_id, p.author_id, u.name AS author_name, p.body, p.created_at
		FROM posts p
		LEFT JOIN users u ON u.id = p.author_id
		WHERE p.thread_id = $1
		ORDER BY p.created_at, p.id`,
		threadID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}

	posts := make([]thread.Post, len(rows))
	for i, r := range rows {
		posts[i] = thread.Post{
			ID:         r.ID,
			ThreadID:   r.ThreadID,
			AuthorID:   r.AuthorID.Int,
			AuthorName: r.AuthorName.String,
			Body:       r.Body,
			CreatedAt:  r.CreatedAt,
		}
	}
	return posts, nil
}
