package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/lostfound/internal/api/middleware"
	"github.com/mcoot/lostfound/internal/api/request"
	"github.com/mcoot/lostfound/internal/api/response"
	"github.com/mcoot/lostfound/internal/model"
	"github.com/mcoot/lostfound/internal/services/items"
)

// ItemHandler handles item report endpoints
type ItemHandler struct {
	itemService *items.Service
}

// NewItemHandler creates a new item handler
func NewItemHandler(itemService *items.Service) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
	}
}

// Report handles POST /items. The reporter is always the caller.
func (h *ItemHandler) Report(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	var req request.ReportItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	in := items.ReportInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Status:      req.Status,
		ImageURL:    req.ImageURL,
	}
	if req.Coordinates != nil {
		in.Coordinates = &items.Coordinates{Lat: req.Coordinates.Lat, Lng: req.Coordinates.Lng}
	}

	item, err := h.itemService.Report(r.Context(), identity.AccountID, in)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.ItemResponse{
		Message: "Item reported successfully",
		Item:    response.ItemFromModel(item),
	})
}

// ListLost handles GET /items/lost-items
func (h *ItemHandler) ListLost(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, model.ItemStatusLost)
}

// ListFound handles GET /items/found-items
func (h *ItemHandler) ListFound(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, model.ItemStatusFound)
}

// ListAll handles GET /items/items
func (h *ItemHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "")
}

func (h *ItemHandler) list(w http.ResponseWriter, r *http.Request, status model.ItemStatus) {
	found, err := h.itemService.List(r.Context(), status)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ItemsFromModel(found))
}

// Get handles GET /items/{id}
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.ItemID(mux.Vars(r)["id"])

	item, err := h.itemService.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ItemFromModel(item))
}
