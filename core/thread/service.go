package thread

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/access"
	"github.com/athlos-club/athlos/core/branch"
	"github.com/athlos-club/athlos/core/notification"
	"github.com/athlos-club/athlos/core/user"
)

var (
	// ErrNotFound is returned when a requested thread does not exist.
	ErrNotFound = core.NewNotFoundError("thread not found")

	// ErrReservedTitle is returned when a regular thread claims the gear title.
	ErrReservedTitle = core.NewValidationError(
		errors.New("this title is reserved"),
		core.FieldError{Field: "title", Error: "this title is reserved"},
	)
)

type Repository interface {
	// QueryThreads lists a branch's threads, gear excluded, newest first.
	QueryThreads(ctx context.Context, branchID int, exec ...core.DBExecutor) ([]Thread, error)
	GetThreadByID(ctx context.Context, id int, exec ...core.DBExecutor) (Thread, error)
	GetThreadByTitle(ctx context.Context, branchID int, title string, exec ...core.DBExecutor) (Thread, error)
	CreateThread(ctx context.Context, t Thread, exec ...core.DBExecutor) (Thread, error)
	CreatePost(ctx context.Context, p Post, exec ...core.DBExecutor) (Post, error)
	// QueryPosts lists a thread's posts oldest first, with author names.
	QueryPosts(ctx context.Context, threadID int, exec ...core.DBExecutor) ([]Post, error)
}

type Service struct {
	repo      Repository
	branchSvc *branch.Service
	notifier  *notification.Service
	logger    core.Logger
	tx        core.Transactor
}

func NewService(repo Repository, branchSvc *branch.Service, notifier *notification.Service, logger core.Logger, tx core.Transactor) *Service {
	return &Service{
		repo:      repo,
		branchSvc: branchSvc,
		notifier:  notifier,
		logger:    logger,
		tx:        tx,
	}
}

// Threads lists a branch's discussion threads, creating the branch's default
// general thread on first access.
func (svc *Service) Threads(ctx context.Context, actor user.User, branchID int) ([]Thread, error) {
	if err := access.CanViewBranch(actor, branchID); err != nil {
		return nil, err
	}
	b, err := svc.branchSvc.GetByID(ctx, branchID)
	if err != nil {
		return nil, err
	}

	var threads []Thread
	err = svc.tx.InTransaction(ctx, func(exec core.DBExecutor) error {
		title := GeneralThreadTitle(b.Name)
		if _, err := svc.repo.GetThreadByTitle(ctx, branchID, title, exec); err != nil {
			if !core.IsNotFound(err) {
				return err
			}
			if _, err = svc.repo.CreateThread(ctx, Thread{BranchID: branchID, Title: title}, exec); err != nil {
				return err
			}
		}
		threads, err = svc.repo.QueryThreads(ctx, branchID, exec)
		return err
	})
	if err != nil {
		return nil, err
	}
	return threads, nil
}

// Create opens a new discussion thread in the branch. Staff only.
func (svc *Service) Create(ctx context.Context, actor user.User, branchID int, nt NewThread) (Thread, error) {
	if err := access.CanManageBranch(actor, branchID); err != nil {
		return Thread{}, err
	}
	return svc.repo.CreateThread(ctx, Thread{
		BranchID:  branchID,
		Title:     nt.Title,
		CreatedBy: actor.ID,
	})
}

// Posts lists a thread's posts, oldest first.
func (svc *Service) Posts(ctx context.Context, actor user.User, threadID int) ([]Post, error) {
	t, err := svc.repo.GetThreadByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if err = access.CanViewBranch(actor, t.BranchID); err != nil {
		return nil, err
	}
	return svc.repo.QueryPosts(ctx, t.ID)
}

// PostMessage adds a post to a thread and notifies the branch. Any branch
// member may post to a regular thread; the gear thread is staff-only.
func (svc *Service) PostMessage(ctx context.Context, actor user.User, threadID int, np NewPost) (Post, error) {
	t, err := svc.repo.GetThreadByID(ctx, threadID)
	if err != nil {
		return Post{}, err
	}
	if t.IsGear() {
		if err = access.CanManageBranch(actor, t.BranchID); err != nil {
			return Post{}, err
		}
	} else if err = access.CanViewBranch(actor, t.BranchID); err != nil {
		return Post{}, err
	}

	post, err := svc.repo.CreatePost(ctx, Post{
		ThreadID:   t.ID,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Body:       np.Body,
	})
	if err != nil {
		return Post{}, err
	}

	svc.notifyBranch(ctx, t, actor, np.Body)
	return post, nil
}

// GearPosts lists the branch's gear announcements, creating the gear thread
// on first access.
func (svc *Service) GearPosts(ctx context.Context, actor user.User, branchID int) ([]Post, error) {
	if err := access.CanViewBranch(actor, branchID); err != nil {
		return nil, err
	}
	t, err := svc.gearThread(ctx, branchID)
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryPosts(ctx, t.ID)
}

// PostGear publishes a gear announcement to the branch. Staff only.
func (svc *Service) PostGear(ctx context.Context, actor user.User, branchID int, np NewPost) (Post, error) {
	if err := access.CanManageBranch(actor, branchID); err != nil {
		return Post{}, err
	}
	t, err := svc.gearThread(ctx, branchID)
	if err != nil {
		return Post{}, err
	}

	post, err := svc.repo.CreatePost(ctx, Post{
		ThreadID:   t.ID,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Body:       np.Body,
	})
	if err != nil {
		return Post{}, err
	}

	svc.notifyBranch(ctx, t, actor, np.Body)
	return post, nil
}

// gearThread finds or creates the branch's gear thread.
func (svc *Service) gearThread(ctx context.Context, branchID int) (Thread, error) {
	t, err := svc.repo.GetThreadByTitle(ctx, branchID, GearThreadTitle)
	if err == nil {
		return t, nil
	}
	if !core.IsNotFound(err) {
		return Thread{}, err
	}
	return svc.repo.CreateThread(ctx, Thread{BranchID: branchID, Title: GearThreadTitle})
}

// notifyBranch pushes a new-post notification to the branch, excluding the
// author. Failures are logged, never returned.
func (svc *Service) notifyBranch(ctx context.Context, t Thread, author user.User, body string) {
	title := t.Title
	if t.IsGear() {
		title = "Gear announcement"
	}
	if len(body) > 120 {
		// back off to a rune boundary so the cut never splits a multi-byte rune
		cut := 117
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "..."
	}
	payload := notification.Payload{
		Title: title,
		Body:  fmt.Sprintf("%s: %s", author.Name, body),
	}
	if err := svc.notifier.NotifyBranch(ctx, t.BranchID, author.ID, payload); err != nil {
		svc.logger.Error("notifying branch of new post", err)
	}
}
