package http

import (
	"net/http"
	"time"

	"github.com/bhalariaworks/authd/internal/authd/store"
	"github.com/bhalariaworks/authd/pkg/httpx"
	"github.com/bhalariaworks/authd/pkg/slogx"
)

// MFAGuard re-checks MFA freshness against the stored profile on every
// request, so revocation or an elapsed window takes effect immediately
// instead of at token expiry. Runs after AuthnMiddleware.
func MFAGuard(st store.Store) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
			if !ok || userID == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "invalid_token",
					"Authentication required")
				return
			}

			acct, err := st.Accounts().GetAccountByID(ctx, userID)
			if err != nil {
				log.Warn("guard failed to load account", "account_id", userID, "err", err)
				httpx.WriteError(w, http.StatusUnauthorized, "invalid_token",
					"Account no longer valid")
				return
			}

			if acct.Disabled {
				httpx.WriteError(w, http.StatusForbidden, "account_disabled",
					"This account has been disabled")
				return
			}

			if acct.MFAEnabled && acct.MFAEnrolled() && !acct.MFAFresh(time.Now().UTC()) {
				httpx.WriteError(w, http.StatusForbidden, "mfa_required",
					"Second factor verification has lapsed")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
