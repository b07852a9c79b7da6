package blog

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/yusong-shen/multi-user-blog/internal/logutil"
	"github.com/yusong-shen/multi-user-blog/session"
	"github.com/yusong-shen/multi-user-blog/store"
	"github.com/yusong-shen/multi-user-blog/vault"
)

type (
	signupForm struct {
		Username string
		Password string
		Verify   string
		Email    string
	}

	// signupDone completes a signup once the form is known to be valid.
	signupDone func(w http.ResponseWriter, r *http.Request, f signupForm)
)

var (
	usernameRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)
	passwordRE = regexp.MustCompile(`^.{3,20}$`)
	emailRE    = regexp.MustCompile(`^[\S]+@[\S]+\.[\S]+$`)
)

func ValidUsername(s string) bool { return usernameRE.MatchString(s) }
func ValidPassword(s string) bool { return passwordRE.MatchString(s) }

// ValidEmail accepts an empty email, it is optional.
func ValidEmail(s string) bool { return s == "" || emailRE.MatchString(s) }

// validateSignup returns the form parameters to render back to the user,
// including one error_* entry per invalid field. ok is false when any
// field is invalid.
func validateSignup(f signupForm) (p params, ok bool) {
	p = params{
		"username": f.Username,
		"email":    f.Email,
	}
	ok = true
	if !ValidUsername(f.Username) {
		p["error_username"] = "That's not a valid username."
		ok = false
	}
	if !ValidPassword(f.Password) {
		p["error_password"] = "That wasn't a valid password."
		ok = false
	} else if f.Password != f.Verify {
		p["error_verify"] = "Your passwords didn't match."
		ok = false
	}
	if !ValidEmail(f.Email) {
		p["error_email"] = "That's not a valid email."
		ok = false
	}
	return p, ok
}

func signupPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, "signup-form.html", nil)
	}
}

// signupSubmit validates the form and hands valid submissions to done.
func signupSubmit(done signupDone) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f := signupForm{
			Username: r.PostFormValue("username"),
			Password: r.PostFormValue("password"),
			Verify:   r.PostFormValue("verify"),
			Email:    r.PostFormValue("email"),
		}
		p, ok := validateSignup(f)
		if !ok {
			render(w, r, "signup-form.html", p)
			return
		}
		done(w, r, f)
	}
}

// register creates the account, logs the new user in and sends them to
// the blog front page.
func register(st Store, sessions *session.Manager) signupDone {
	return func(w http.ResponseWriter, r *http.Request, f signupForm) {
		ctx := r.Context()
		log := logutil.GetOrDefault(ctx)
		taken := params{"error_username": "That user already exists."}

		_, err := st.LookupUserByName(ctx, f.Username)
		if err == nil {
			render(w, r, "signup-form.html", taken)
			return
		} else if !errors.As(err, &store.UserNotFound{}) {
			log.Error().Err(err).Msg("Unable to check if user exists")
			http.Error(w, "unable to register user, check logs for more information", http.StatusInternalServerError)
			return
		}

		u, err := st.CreateUser(ctx, f.Username, vault.Hash(f.Username, f.Password), f.Email)
		if errors.As(err, &store.NameTaken{}) {
			render(w, r, "signup-form.html", taken)
			return
		} else if err != nil {
			log.Error().Err(err).Msg("Unable to create user")
			http.Error(w, "unable to register user, check logs for more information", http.StatusInternalServerError)
			return
		}
		log.Info().Int64("user_id", u.ID).Str("user", u.Name).Msg("New user registered")
		sessions.Login(w, u)
		http.Redirect(w, r, "/blog", http.StatusFound)
	}
}
