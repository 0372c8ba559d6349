package middleware

import (
	"net/http"

	clubAuth "github.com/MrEthical07/clubAuth"
)

// RequireAdmin admits only admin sessions.
func RequireAdmin(engine *clubAuth.Engine) func(http.Handler) http.Handler {
	return RequireMode(engine, clubAuth.ModeAdmin)
}

// RequireSession admits any issued session: anonymous, member or admin.
func RequireSession(engine *clubAuth.Engine) func(http.Handler) http.Handler {
	return RequireMode(engine, clubAuth.ModeAnonymous, clubAuth.ModeMember, clubAuth.ModeAdmin)
}
