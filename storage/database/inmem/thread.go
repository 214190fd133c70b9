package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/thread"
)

type threadRepository struct {
	db *DB
}

var _ thread.Repository = (*threadRepository)(nil) // interface compliance check

func NewThreadRepository(db *DB) *threadRepository {
	return &threadRepository{db: db}
}

func (repo *threadRepository) QueryThreads(_ context.Context, branchID int, _ ...core.DBExecutor) ([]thread.Thread, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var threads []thread.Thread
	for _, t := range repo.db.threads {
		if t.BranchID == branchID && !t.IsGear() {
			threads = append(threads, t)
		}
	}
	sort.Slice(threads, func(i, j int) bool { return threads[i].ID > threads[j].ID })
	return threads, nil
}

func (repo *threadRepository) GetThreadByID(_ context.Context, id int, _ ...core.DBExecutor) (thread.Thread, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if t, ok := repo.db.threads[id]; ok {
		return t, nil
	}
	return thread.Thread{}, thread.ErrNotFound
}

func (repo *threadRepository) GetThreadByTitle(_ context.Context, branchID int, title string, _ ...core.DBExecutor) (thread.Thread, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, t := range repo.db.threads {
		if t.BranchID == branchID && t.Title == title {
			return t, nil
		}
	}
	return thread.Thread{}, thread.ErrNotFound
}

func (repo *threadRepository) CreateThread(_ context.Context, t thread.Thread, _ ...core.DBExecutor) (thread.Thread, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	t.ID = repo.db.nextID("threads")
	t.CreatedAt = time.Now().UTC()
	repo.db.threads[t.ID] = t
	return t, nil
}

func (repo *threadRepository) CreatePost(_ context.Context, p thread.Post, _ ...core.DBExecutor) (thread.Post, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	p.ID = repo.db.nextID("posts")
	p.CreatedAt = time.Now().UTC()
	repo.db.posts[p.ID] = p
	return p, nil
}

func (repo *threadRepository) QueryPosts(_ context.Context, threadID int, _ ...core.DBExecutor) ([]thread.Post, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var posts []thread.Post
	for _, p := range repo.db.posts {
		if p.ThreadID == threadID {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts, nil
}
