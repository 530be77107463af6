package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/pricebook/internal/model"
	"github.com/sells-group/pricebook/internal/store"
)

const defaultListLimit = 50

// createPriceRequest is the wire form of a price observation. Callers send a
// raw source_url; the handler resolves it through the URL registry and hands
// the store a source_url_id.
type createPriceRequest struct {
	model.PriceInput
	SourceURL      string `json:"source_url,omitempty"`
	SourceURLTitle string `json:"source_url_title,omitempty"`
}

// updatePriceRequest is the wire form of a partial update. A present
// source_url is resolved to a source_url_id before the patch reaches the
// store; an explicit null clears it.
type updatePriceRequest struct {
	model.PricePatch
	SourceURL      model.Optional[string] `json:"source_url"`
	SourceURLTitle model.Optional[string] `json:"source_url_title"`
}

// resolveSourceURL registers raw in the URL registry and returns its id.
func (h *Handler) resolveSourceURL(r *http.Request, raw, title string) (string, error) {
	normalized, err := store.NormalizeURL(raw)
	if err != nil {
		return "", err
	}
	su, err := h.store.EnsureSourceURL(r.Context(), raw, normalized, title)
	if err != nil {
		return "", err
	}
	return su.ID, nil
}

func (h *Handler) listPrices(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")
	item, err := h.store.GetItem(r.Context(), itemID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if item == nil {
		notFound(w)
		return
	}

	filter := store.PriceFilter{ItemID: itemID, Limit: defaultListLimit}
	q := r.URL.Query()
	if c := q.Get("condition"); c != "" {
		filter.Condition = model.Condition(c)
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	records, err := h.ledger.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if records == nil {
		records = []model.PriceRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) createPrice(w http.ResponseWriter, r *http.Request) {
	var req createPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SourceURL != "" {
		id, err := h.resolveSourceURL(r, req.SourceURL, req.SourceURLTitle)
		if err != nil {
			h.writeError(w, err)
			return
		}
		req.SourceURLID = &id
	}
	rec, err := h.ledger.Create(r.Context(), chi.URLParam(r, "id"), req.PriceInput)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) getPrice(w http.ResponseWriter, r *http.Request) {
	rec, err := h.ledger.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if rec == nil {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) updatePrice(w http.ResponseWriter, r *http.Request) {
	var req updatePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SourceURL.IsSet() {
		if raw, ok := req.SourceURL.Get(); ok {
			id, err := h.resolveSourceURL(r, raw, req.SourceURLTitle.Value())
			if err != nil {
				h.writeError(w, err)
				return
			}
			req.SourceURLID = model.Some(id)
		} else {
			req.SourceURLID = model.Null[string]()
		}
	}
	if req.PricePatch.IsEmpty() {
		writeErrorMsg(w, http.StatusBadRequest, "patch has no fields")
		return
	}
	rec, err := h.ledger.Update(r.Context(), chi.URLParam(r, "id"), req.PricePatch)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if rec == nil {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) deletePrice(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.ledger.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !deleted {
		notFound(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
