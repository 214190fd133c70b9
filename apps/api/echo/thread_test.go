package echoapi

import (
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/athlos-club/athlos/core/notification"
	"github.com/athlos-club/athlos/core/thread"
	"github.com/athlos-club/athlos/core/user"
	pushsvc "github.com/athlos-club/athlos/services/push"
)

func threadsPath(branchID int) string { return "/v1/branches/" + itoa(branchID) + "/threads" }
func gearPath(branchID int) string    { return "/v1/branches/" + itoa(branchID) + "/gear" }
func postsPath(threadID int) string   { return "/v1/threads/" + itoa(threadID) + "/posts" }

func Test_threadApi_threads(t *testing.T) {
	env := setup(t)
	b := env.createBranch(t, "Downtown", "")
	other := env.createBranch(t, "Uptown", "")

	athUsr, _ := env.createAthlete(t, "Alice", "alice@test.cd", b.ID, true)
	coach := env.createUser(t, "Coach", "coach@test.cd", user.RoleCoach, b.ID, true)
	athToken := env.getToken(t, athUsr)
	coachToken := env.getToken(t, coach)

	t.Run("general thread auto-created on first listing", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, threadsPath(b.ID), athToken)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var threads []thread.Thread
		decodeBody(t, rec, &threads)
		if len(threads) != 1 {
			t.Fatalf("len(threads) = %d, want 1", len(threads))
		}
		if want := thread.GeneralThreadTitle(b.Name); threads[0].Title != want {
			t.Errorf("title = %q, want %q", threads[0].Title, want)
		}

		// listing again must not create a second one
		req, rec = newAuthRequest(http.MethodGet, threadsPath(b.ID), athToken)
		env.app.ServeHTTP(rec, req)
		decodeBody(t, rec, &threads)
		if len(threads) != 1 {
			t.Errorf("len(threads) = %d after relisting, want 1", len(threads))
		}
	})

	t.Run("cross-branch listing denied", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, threadsPath(other.ID), athToken)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("athlete cannot open a thread", func(t *testing.T) {
		body := marchallObj(t, thread.NewThread{Title: "Tournament prep"})
		req, rec := newAuthRequest(http.MethodPost, threadsPath(b.ID), athToken, body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("reserved title rejected", func(t *testing.T) {
		body := marchallObj(t, thread.NewThread{Title: "Gear"})
		req, rec := newAuthRequest(http.MethodPost, threadsPath(b.ID), coachToken, body)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": "this title is reserved"}),
		}, rec)
	})

	t.Run("coach opens a thread", func(t *testing.T) {
		body := marchallObj(t, thread.NewThread{Title: "Tournament prep"})
		req, rec := newAuthRequest(http.MethodPost, threadsPath(b.ID), coachToken, body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var created thread.Thread
		decodeBody(t, rec, &created)
		if created.CreatedBy != coach.ID {
			t.Errorf("created_by = %d, want %d", created.CreatedBy, coach.ID)
		}
	})
}

func Test_threadApi_posts(t *testing.T) {
	env := setup(t)
	b := env.createBranch(t, "Downtown", "")

	athUsr, _ := env.createAthlete(t, "Alice", "alice@test.cd", b.ID, true)
	coach := env.createUser(t, "Coach", "coach@test.cd", user.RoleCoach, b.ID, true)
	athToken := env.getToken(t, athUsr)

	// resolve the general thread
	req, rec := newAuthRequest(http.MethodGet, threadsPath(b.ID), athToken)
	env.app.ServeHTTP(rec, req)
	var threads []thread.Thread
	decodeBody(t, rec, &threads)
	if len(threads) != 1 {
		t.Fatalf("len(threads) = %d, want 1", len(threads))
	}
	general := threads[0]

	t.Run("athlete posts to the general thread", func(t *testing.T) {
		body := marchallObj(t, thread.NewPost{Body: "Is practice on tomorrow?"})
		req, rec := newAuthRequest(http.MethodPost, postsPath(general.ID), athToken, body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var post thread.Post
		decodeBody(t, rec, &post)
		if post.AuthorID != athUsr.ID || post.AuthorName != athUsr.Name {
			t.Errorf("post = %+v, want author %d %q", post, athUsr.ID, athUsr.Name)
		}
	})

	t.Run("posts listed oldest first", func(t *testing.T) {
		body := marchallObj(t, thread.NewPost{Body: "Yes, 18:00 as usual."})
		req, rec := newAuthRequest(http.MethodPost, postsPath(general.ID), env.getToken(t, coach), body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, postsPath(general.ID), athToken)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var posts []thread.Post
		decodeBody(t, rec, &posts)
		if len(posts) != 2 {
			t.Fatalf("len(posts) = %d, want 2", len(posts))
		}
		if posts[0].AuthorID != athUsr.ID || posts[1].AuthorID != coach.ID {
			t.Errorf("posts = %+v, want athlete first", posts)
		}
	})

	t.Run("unknown thread", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, postsPath(999), athToken)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_threadApi_gear(t *testing.T) {
	env := setup(t)
	b := env.createBranch(t, "Downtown", "")

	athUsr, _ := env.createAthlete(t, "Alice", "alice@test.cd", b.ID, true)
	coach := env.createUser(t, "Coach", "coach@test.cd", user.RoleCoach, b.ID, true)
	athToken := env.getToken(t, athUsr)
	coachToken := env.getToken(t, coach)

	t.Run("athlete cannot announce gear", func(t *testing.T) {
		body := marchallObj(t, thread.NewPost{Body: "New jerseys?"})
		req, rec := newAuthRequest(http.MethodPost, gearPath(b.ID), athToken, body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("coach announces, athlete reads", func(t *testing.T) {
		body := marchallObj(t, thread.NewPost{Body: "New jerseys arrive Friday."})
		req, rec := newAuthRequest(http.MethodPost, gearPath(b.ID), coachToken, body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, gearPath(b.ID), athToken)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var posts []thread.Post
		decodeBody(t, rec, &posts)
		if len(posts) != 1 || posts[0].Body != "New jerseys arrive Friday." {
			t.Errorf("posts = %+v, want the announcement", posts)
		}
	})

	t.Run("gear thread hidden from thread listing", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, threadsPath(b.ID), athToken)
		env.app.ServeHTTP(rec, req)
		var threads []thread.Thread
		decodeBody(t, rec, &threads)
		for _, th := range threads {
			if th.IsGear() {
				t.Errorf("gear thread leaked into listing: %+v", th)
			}
		}
	})
}

func Test_threadApi_pushFanOut(t *testing.T) {
	env := setup(t)
	b := env.createBranch(t, "Downtown", "")
	other := env.createBranch(t, "Uptown", "")

	athUsr, _ := env.createAthlete(t, "Alice", "alice@test.cd", b.ID, true)
	otherUsr, _ := env.createAthlete(t, "Elsewhere", "else@test.cd", other.ID, true)
	coach := env.createUser(t, "Coach", "coach@test.cd", user.RoleCoach, b.ID, true)

	subscribe := func(t *testing.T, usr user.User, endpoint string) {
		t.Helper()
		body := marchallObj(t, notification.NewSubscription{
			Endpoint: endpoint,
			P256dh:   "p256dh-key",
			Auth:     "auth-secret",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications/subscriptions", env.getToken(t, usr), body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("subscribe code = %v; body = %s", rec.Code, rec.Body.String())
		}
	}
	subscribe(t, athUsr, "https://push.test/alice")
	subscribe(t, otherUsr, "https://push.test/else")
	subscribe(t, coach, "https://push.test/coach")

	pushsvc.SentMessages = pushsvc.SentMessages[:0]

	body := marchallObj(t, thread.NewPost{Body: "New jerseys arrive Friday."})
	req, rec := newAuthRequest(http.MethodPost, gearPath(b.ID), env.getToken(t, coach), body)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
	}

	// only the subscribed branch member gets it: not the sender, not the
	// other branch
	if n := len(pushsvc.SentMessages); n != 1 {
		t.Fatalf("pushes sent = %d, want 1", n)
	}
	msg := pushsvc.SentMessages[0]
	if msg.Subscription.Endpoint != "https://push.test/alice" {
		t.Errorf("endpoint = %s, want alice's", msg.Subscription.Endpoint)
	}
	if !strings.Contains(msg.Payload, "Gear announcement") {
		t.Errorf("payload = %s, want a gear announcement title", msg.Payload)
	}
	if !strings.Contains(msg.Payload, coach.Name) {
		t.Errorf("payload = %s, want the author name", msg.Payload)
	}
}

func Test_threadApi_pushTruncation(t *testing.T) {
	env := setup(t)
	b := env.createBranch(t, "Downtown", "")

	athUsr, _ := env.createAthlete(t, "Alice", "alice@test.cd", b.ID, true)
	coach := env.createUser(t, "Coach", "coach@test.cd", user.RoleCoach, b.ID, true)

	sub := marchallObj(t, notification.NewSubscription{
		Endpoint: "https://push.test/alice",
		P256dh:   "p256dh-key",
		Auth:     "auth-secret",
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/notifications/subscriptions", env.getToken(t, athUsr), sub)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("subscribe code = %v; body = %s", rec.Code, rec.Body.String())
	}

	pushsvc.SentMessages = pushsvc.SentMessages[:0]

	// 200 bytes of 2-byte runes; a byte-index cut would land mid-rune
	body := marchallObj(t, thread.NewPost{Body: strings.Repeat("é", 100)})
	req, rec = newAuthRequest(http.MethodPost, gearPath(b.ID), env.getToken(t, coach), body)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
	}

	if n := len(pushsvc.SentMessages); n != 1 {
		t.Fatalf("pushes sent = %d, want 1", n)
	}
	payload := pushsvc.SentMessages[0].Payload
	if !utf8.ValidString(payload) {
		t.Errorf("payload is not valid UTF-8: %q", payload)
	}
	if strings.ContainsRune(payload, '�') {
		t.Errorf("payload contains a replacement rune: %q", payload)
	}
}
