// Package blog serves the blog pages: signup, login, post listing and
// publishing.
package blog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/yusong-shen/multi-user-blog/internal/logutil"
	"github.com/yusong-shen/multi-user-blog/session"
	"github.com/yusong-shen/multi-user-blog/store"
	"github.com/yusong-shen/multi-user-blog/vault"
)

type (
	Store interface {
		LookupUserByName(ctx context.Context, name string) (store.User, error)
		CreateUser(ctx context.Context, name, passwordRecord, email string) (store.User, error)
		CreatePost(ctx context.Context, subject, content string, authorID int64) (store.Post, error)
		LookupPost(ctx context.Context, id int64) (store.Post, error)
		RecentPosts(ctx context.Context, limit int) ([]store.Post, error)
	}
)

const (
	frontPageSize = 10
	jsonSuffix    = ".json"
	newPostPath   = "newpost"
)

// AsHandler returns the blog application. Every request goes through the
// session middleware before any route runs.
func AsHandler(ctx context.Context, st Store, sessions *session.Manager) (http.Handler, error) {
	if st == nil || sessions == nil {
		return nil, errors.New("blog: a store and a session manager are required")
	}
	router := httprouter.New()
	router.HandlerFunc("GET", "/", func(w http.ResponseWriter, r *http.Request) {
		render(w, r, "index.html", nil)
	})

	router.HandlerFunc("GET", "/signup", signupPage())
	router.HandlerFunc("POST", "/signup", signupSubmit(register(st, sessions)))
	router.HandlerFunc("GET", "/login", loginPage())
	router.HandlerFunc("POST", "/login", loginSubmit(st, sessions))
	router.HandlerFunc("GET", "/logout", logout(sessions))
	router.Handler("GET", "/welcome", session.RequireUser(welcome(), "/signup"))

	front := frontPage(st)
	router.HandlerFunc("GET", "/blog", front)
	router.HandlerFunc("GET", "/blog/", front)

	// httprouter does not allow static segments next to a named parameter,
	// so /blog/newpost and /blog/.json are dispatched from /blog/:id
	newPostForm := session.RequireUser(newPostPage(), "/login")
	newPostCreate := session.RequireUser(newPostSubmit(st), "/login")
	permalink := permalinkPage(st)
	frontJSON := frontPageJSON(st)
	postJSON := permalinkJSON(st)
	router.GET("/blog/:id", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id := ps.ByName("id")
		switch {
		case id == newPostPath:
			newPostForm.ServeHTTP(w, r)
		case id == jsonSuffix:
			frontJSON(w, r)
		case strings.HasSuffix(id, jsonSuffix):
			postJSON(w, r, strings.TrimSuffix(id, jsonSuffix))
		default:
			permalink(w, r, id)
		}
	})
	router.POST("/blog/:id", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if ps.ByName("id") != newPostPath {
			notFound(w, r)
			return
		}
		newPostCreate.ServeHTTP(w, r)
	})
	router.NotFound = http.HandlerFunc(notFound)

	log := logutil.GetOrDefault(ctx)
	log.Debug().Int("frontPageSize", frontPageSize).Msg("Blog routes registered")
	return sessions.Middleware(router), nil
}

func notFound(w http.ResponseWriter, r *http.Request) {
	renderStatus(w, r, http.StatusNotFound, "notfound.html", nil)
}

func loginPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, "login-form.html", nil)
	}
}

func loginSubmit(st Store, sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logutil.GetOrDefault(ctx)
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		username := r.PostFormValue("username")
		password := r.PostFormValue("password")
		invalid := params{"username": username, "error": "Invalid login"}

		u, err := st.LookupUserByName(ctx, username)
		if err != nil {
			if !errors.As(err, &store.UserNotFound{}) {
				log.Error().Err(err).Msg("Unable to lookup user during login")
			}
			render(w, r, "login-form.html", invalid)
			return
		}
		if !vault.VerifyPassword(u.Name, password, u.PasswordHash) {
			log.Info().Int64("user_id", u.ID).Msg("Rejected login with wrong password")
			render(w, r, "login-form.html", invalid)
			return
		}
		sessions.Login(w, u)
		http.Redirect(w, r, "/blog", http.StatusFound)
	}
}

func logout(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions.Logout(w)
		http.Redirect(w, r, "/blog", http.StatusFound)
	}
}

func welcome() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := session.UserFrom(r.Context())
		render(w, r, "welcome.html", params{"username": u.Name})
	}
}

func frontPage(st Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := st.RecentPosts(r.Context(), frontPageSize)
		if err != nil {
			serverError(w, r, err, "Unable to list recent posts")
			return
		}
		render(w, r, "front.html", params{"posts": posts})
	}
}

func frontPageJSON(st Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := st.RecentPosts(r.Context(), frontPageSize)
		if err != nil {
			serverError(w, r, err, "Unable to list recent posts")
			return
		}
		if posts == nil {
			posts = []store.Post{}
		}
		writeJSON(w, r, posts)
	}
}

func permalinkPage(st Store) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, rawID string) {
		p, ok := loadPost(w, r, st, rawID)
		if !ok {
			return
		}
		render(w, r, "permalink.html", params{"post": p, "Title": p.Subject})
	}
}

func permalinkJSON(st Store) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, rawID string) {
		p, ok := loadPost(w, r, st, rawID)
		if !ok {
			return
		}
		writeJSON(w, r, p)
	}
}

// loadPost writes the error response itself when ok is false.
func loadPost(w http.ResponseWriter, r *http.Request, st Store, rawID string) (store.Post, bool) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		notFound(w, r)
		return store.Post{}, false
	}
	p, err := st.LookupPost(r.Context(), id)
	if errors.As(err, &store.PostNotFound{}) {
		notFound(w, r)
		return store.Post{}, false
	} else if err != nil {
		serverError(w, r, err, "Unable to load post")
		return store.Post{}, false
	}
	return p, true
}

func newPostPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, "newpost.html", nil)
	}
}

func newPostSubmit(st Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		subject := r.PostFormValue("subject")
		content := r.PostFormValue("content")
		if subject == "" || content == "" {
			render(w, r, "newpost.html", params{
				"subject": subject,
				"content": content,
				"error":   "subject and content, please!",
			})
			return
		}
		u, _ := session.UserFrom(r.Context())
		p, err := st.CreatePost(r.Context(), subject, content, u.ID)
		if err != nil {
			serverError(w, r, err, "Unable to create post")
			return
		}
		http.Redirect(w, r, "/blog/"+strconv.FormatInt(p.ID, 10), http.StatusFound)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	buf, err := json.Marshal(v)
	if err != nil {
		serverError(w, r, err, "Unable to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(buf)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf)
}

func serverError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log := logutil.GetOrDefault(r.Context())
	log.Error().Err(err).Msg(msg)
	http.Error(w, "the server is misbehaving, check logs for more information", http.StatusInternalServerError)
}
