package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/pricebook/internal/model"
)

// itemResponse pairs an item with its current price summary. The summary is
// computed on read and is null for items without price records.
type itemResponse struct {
	model.Item
	Summary *model.PriceSummary `json:"summary"`
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	project, err := h.store.GetProject(r.Context(), projectID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if project == nil {
		notFound(w)
		return
	}
	items, err := h.store.ListItems(r.Context(), projectID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		summary, err := h.ledger.Summary(r.Context(), it.ID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		out = append(out, itemResponse{Item: it, Summary: summary})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var in model.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := in.Validate(); err != nil {
		h.writeError(w, err)
		return
	}
	item, err := h.store.CreateItem(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if item == nil {
		notFound(w)
		return
	}
	summary, err := h.ledger.Summary(r.Context(), item.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse{Item: *item, Summary: summary})
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.store.DeleteItem(r.Context(), chi.URLParam(r, "id"))
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

func (h *Handler) itemSummary(w http.ResponseWriter, r *http.Request) {
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
	summary, err := h.ledger.Summary(r.Context(), itemID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
