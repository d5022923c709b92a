package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/bxsite/internal/lifecycle"
	"github.com/dmitrymomot/bxsite/internal/sites"
	"github.com/dmitrymomot/bxsite/middlewares"
	"github.com/dmitrymomot/bxsite/pkg/dnsverify"
)

type publishRequest struct {
	Identifier   string `json:"identifier" validate:"required,max=64"`
	Content      string `json:"content" validate:"max=524288"`
	CustomDomain string `json:"customDomain" validate:"omitempty,max=253"`
}

type publishResponse struct {
	Identifier        string      `json:"identifier"`
	State             sites.State `json:"state"`
	CustomDomain      string      `json:"customDomain,omitempty"`
	VerificationToken string      `json:"verificationToken,omitempty"`
	TXTHost           string      `json:"txtHost,omitempty"`
	TXTValue          string      `json:"txtValue,omitempty"`
	OK                bool        `json:"ok"`
	Created           bool        `json:"created"`
	Verified          bool        `json:"verified"`
}

type siteResponse struct {
	UpdatedAt         time.Time   `json:"updatedAt"`
	Identifier        string      `json:"identifier"`
	Content           string      `json:"content"`
	State             sites.State `json:"state"`
	CustomDomain      string      `json:"customDomain,omitempty"`
	VerificationToken string      `json:"verificationToken,omitempty"`
	TXTHost           string      `json:"txtHost,omitempty"`
	TXTValue          string      `json:"txtValue,omitempty"`
	Verified          bool        `json:"verified"`
}

type verifyResponse struct {
	Domain   string `json:"domain,omitempty"`
	Source   string `json:"source,omitempty"`
	Error    string `json:"error,omitempty"`
	Hint     string `json:"hint,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Verified bool   `json:"verified"`
}

type inspectSite struct {
	Identifier      string `json:"identifier"`
	CustomDomain    string `json:"customDomain,omitempty"`
	Verified        bool   `json:"verified"`
	HasCustomDomain bool   `json:"hasCustomDomain"`
	Routable        bool   `json:"routable"`
}

type inspectResponse struct {
	Mapping *string      `json:"mapping"`
	Site    *inspectSite `json:"site"`
	Domain  string       `json:"domain"`
}

func actorFrom(r *http.Request) lifecycle.Actor {
	id := middlewares.GetIdentity(r.Context())
	return lifecycle.Actor{AccountID: id.AccountID, Bypass: id.Bypass}
}

func (a *API) publish(w http.ResponseWriter, r *http.Request) error {
	var req publishRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	res, err := a.svc.Publish(r.Context(), actorFrom(r), lifecycle.PublishInput{
		Identifier:   req.Identifier,
		Content:      req.Content,
		CustomDomain: req.CustomDomain,
	})
	if err != nil {
		return err
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	return writeJSON(w, status, publishResponse{
		OK:                true,
		Identifier:        res.Site.Identifier,
		State:             res.State,
		Created:           res.Created,
		CustomDomain:      res.Site.CustomDomain,
		VerificationToken: res.Site.VerificationToken,
		Verified:          res.Site.Verified,
		TXTHost:           res.TXTHost,
		TXTValue:          res.TXTValue,
	})
}

func (a *API) mySites(w http.ResponseWriter, r *http.Request) error {
	owned, err := a.svc.MySites(r.Context(), actorFrom(r))
	if err != nil {
		return err
	}
	if owned == nil {
		owned = []string{}
	}
	return writeJSON(w, http.StatusOK, map[string][]string{"sites": owned})
}

func (a *API) getSite(w http.ResponseWriter, r *http.Request) error {
	site, err := a.svc.Get(r.Context(), actorFrom(r), chi.URLParam(r, "identifier"))
	if err != nil {
		return err
	}

	resp := siteResponse{
		Identifier:        site.Identifier,
		Content:           site.Content,
		UpdatedAt:         site.UpdatedAt,
		State:             site.State(),
		CustomDomain:      site.CustomDomain,
		VerificationToken: site.VerificationToken,
		Verified:          site.Verified,
	}
	if site.CustomDomain != "" {
		resp.TXTHost = dnsverify.TXTHost(site.CustomDomain)
		resp.TXTValue = dnsverify.TXTValue(site.VerificationToken)
	}
	return writeJSON(w, http.StatusOK, resp)
}

func (a *API) deleteSite(w http.ResponseWriter, r *http.Request) error {
	if err := a.svc.Delete(r.Context(), actorFrom(r), chi.URLParam(r, "identifier")); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// verifyDomain answers 200 for both outcomes. A pending proof carries the
// reason and a hint instead of an error status.
func (a *API) verifyDomain(w http.ResponseWriter, r *http.Request) error {
	res, err := a.svc.Verify(r.Context(), actorFrom(r), chi.URLParam(r, "identifier"))
	if err != nil {
		le, ok := lifecycle.AsError(err)
		if !ok || !errors.Is(err, lifecycle.ErrVerificationPending) {
			return err
		}
		return writeJSON(w, http.StatusOK, verifyResponse{
			Verified: false,
			Error:    le.Message,
			Hint:     le.Hint,
			Reason:   string(le.Reason),
		})
	}

	return writeJSON(w, http.StatusOK, verifyResponse{
		Verified: true,
		Domain:   res.Domain,
		Source:   res.Source,
	})
}

func (a *API) inspectDomain(w http.ResponseWriter, r *http.Request) error {
	status, err := a.svc.Inspect(r.Context(), r.URL.Query().Get("domain"))
	if err != nil {
		return err
	}

	resp := inspectResponse{Domain: status.Domain}
	if status.Mapping != "" {
		resp.Mapping = &status.Mapping
	}
	if s := status.Site; s != nil {
		resp.Site = &inspectSite{
			Identifier:      s.Identifier,
			CustomDomain:    s.CustomDomain,
			Verified:        s.Verified,
			HasCustomDomain: s.CustomDomain != "",
			Routable:        s.Routable,
		}
	}
	return writeJSON(w, http.StatusOK, resp)
}
