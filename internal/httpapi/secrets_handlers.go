package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal    *atomic.Value // stores config.Config
	SetCookie func(account, cookie string) error
}

type setSourceCookieReq struct {
	Source string `json:"source"`
	Cookie string `json:"cookie"`
}

// SetSourceCookie stores the session cookie a source sends with its
// requests, under the keyring account the source names.
func (h SecretsHandler) SetSourceCookie(w http.ResponseWriter, r *http.Request) {
	var req setSourceCookieReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid json")
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	name := strings.TrimSpace(req.Source)
	src, ok := cfg.SourceByName(name)
	if !ok {
		writeNotFound(w, r, "source", name)
		return
	}
	if src.CookieKeyring == "" {
		WriteError(w, r, http.StatusBadRequest, "no_cookie_account", "source has no cookie_keyring account configured")
		return
	}

	set := h.SetCookie
	if set == nil {
		set = secrets.SetSourceCookie
	}
	if err := set(src.CookieKeyring, req.Cookie); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keyring_error", "failed to store cookie: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
