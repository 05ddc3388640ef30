package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"unify/internal/identity"
	platformredis "unify/internal/platform/redis"
	"unify/internal/preference"
	"unify/internal/tenantconfig/cache"
	"unify/pkg/domain"
	dErrors "unify/pkg/domain-errors"
)

// Handler delegates requests to the domain services.
type Handler struct {
	identities *identity.Service
	prefs      *preference.Service
	configs    *cache.Cache
	rdb        *platformredis.Client
	log        *slog.Logger
}

func NewHandler(identities *identity.Service, prefs *preference.Service, configs *cache.Cache, rdb *platformredis.Client, log *slog.Logger) *Handler {
	return &Handler{identities: identities, prefs: prefs, configs: configs, rdb: rdb, log: log}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleGetOrCreateIdentity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	muuid, err := h.identities.GetOrCreateIdentity(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"muuid": muuid.String()})
}

func (h *Handler) handleChangeEmail(w http.ResponseWriter, r *http.Request) {
	muuid, err := domain.ParseMUUID(chi.URLParam(r, "muuid"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := h.identities.ChangeEmail(r.Context(), muuid, req.Email); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleEmailHistory(w http.ResponseWriter, r *http.Request) {
	muuid, err := domain.ParseMUUID(chi.URLParam(r, "muuid"))
	if err != nil {
		writeError(w, err)
		return
	}
	history, err := h.identities.EmailHistory(r.Context(), muuid)
	if err != nil {
		writeError(w, err)
		return
	}
	type entry struct {
		Email     string    `json:"email"`
		Ord       int       `json:"order"`
		CreatedAt time.Time `json:"createdAt"`
	}
	entries := make([]entry, 0, len(history))
	for _, rec := range history {
		entries = append(entries, entry{Email: rec.Email, Ord: rec.Ord, CreatedAt: rec.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"muuid": muuid.String(), "emails": entries})
}

func (h *Handler) handleLookupAccount(w http.ResponseWriter, r *http.Request) {
	result, err := h.identities.LookupByLocalAccountUUID(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		writeError(w, err)
		return
	}
	if result == nil {
		writeError(w, dErrors.New(dErrors.CodeNotFound, "no identity for local account"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"muuid":    result.MUUID.String(),
		"email":    result.Email,
		"brandId":  result.BrandID,
		"regionId": result.RegionID,
	})
}

type upsertPreferenceRequest struct {
	MUUID    string `json:"muuid"`
	UUID     string `json:"uuid"`
	BrandID  string `json:"brandId"`
	RegionID string `json:"regionId"`
	MarketID string `json:"marketId"`

	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Country   string `json:"country"`
	Language  string `json:"language"`

	OptInNewsletter   bool       `json:"optInNewsletter"`
	OptInSMS          bool       `json:"optInSms"`
	NewsletterOptInAt *time.Time `json:"newsletterOptInAt"`

	DemographicTrades []string `json:"demographicTrades"`
	Interests         []string `json:"interests"`
	ToolUsage         []string `json:"toolUsage"`
	Role              string   `json:"role"`

	Company     string   `json:"company"`
	Source      string   `json:"source"`
	AccountType string   `json:"accountType"`
	Shop        string   `json:"shop"`
	Retailers   []string `json:"retailers"`

	Kind             string         `json:"kind"`
	Locale           string         `json:"locale"`
	Overrides        map[string]any `json:"overrides"`
	FromIdentityCore bool           `json:"fromIdentityCore"`
}

func (h *Handler) handleUpsertPreference(w http.ResponseWriter, r *http.Request) {
	var req upsertPreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	var muuid domain.MUUID
	if req.MUUID != "" {
		parsed, err := domain.ParseMUUID(req.MUUID)
		if err != nil {
			writeError(w, err)
			return
		}
		muuid = parsed
	}

	stored, err := h.prefs.Upsert(r.Context(), preference.UpsertInput{
		Record: preference.Record{
			MUUID:             muuid,
			UUID:              req.UUID,
			BrandID:           req.BrandID,
			RegionID:          req.RegionID,
			MarketID:          req.MarketID,
			Username:          req.Username,
			FirstName:         req.FirstName,
			LastName:          req.LastName,
			Country:           req.Country,
			Language:          req.Language,
			OptInNewsletter:   req.OptInNewsletter,
			OptInSMS:          req.OptInSMS,
			NewsletterOptInAt: req.NewsletterOptInAt,
			DemographicTrades: req.DemographicTrades,
			Interests:         req.Interests,
			ToolUsage:         req.ToolUsage,
			Role:              req.Role,
		},
		Company:          req.Company,
		Source:           req.Source,
		AccountType:      req.AccountType,
		Shop:             req.Shop,
		Retailers:        req.Retailers,
		Kind:             req.Kind,
		Locale:           req.Locale,
		Overrides:        req.Overrides,
		FromIdentityCore: req.FromIdentityCore,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"muuid":     stored.MUUID.String(),
		"brandId":   stored.BrandID,
		"regionId":  stored.RegionID,
		"marketId":  stored.MarketID,
		"updatedAt": stored.UpdatedAt,
	})
}

func (h *Handler) handleQueryPreferences(w http.ResponseWriter, r *http.Request) {
	q := preference.Query{
		Selector: preference.Selector{UUID: r.URL.Query().Get("uuid")},
		BrandID:  r.URL.Query().Get("brandId"),
		RegionID: r.URL.Query().Get("regionId"),
		MarketID: r.URL.Query().Get("marketId"),
	}
	if raw := r.URL.Query().Get("muuid"); raw != "" {
		muuid, err := domain.ParseMUUID(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		q.Selector.MUUID = muuid
	}
	records, err := h.prefs.Query(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"preferences": records, "count": len(records)})
}

func (h *Handler) handlePurge(w http.ResponseWriter, r *http.Request) {
	muuid, err := domain.ParseMUUID(chi.URLParam(r, "muuid"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.prefs.Purge(r.Context(), muuid, r.URL.Query().Get("market")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleConfigRefresh(w http.ResponseWriter, r *http.Request) {
	appID := chi.URLParam(r, "appID")
	if err := h.configs.Refresh(r.Context(), appID); err != nil {
		writeError(w, err)
		return
	}
	if h.rdb != nil {
		if err := cache.Broadcast(r.Context(), h.rdb.Client, appID); err != nil {
			h.log.Warn("refresh broadcast failed", "app_id", appID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"refreshed": appID})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation to HTTP responses so every
// handler produces the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    string(code),
		"message": err.Error(),
	})
}
