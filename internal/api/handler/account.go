package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/lostfound/internal/api/middleware"
	"github.com/mcoot/lostfound/internal/api/request"
	"github.com/mcoot/lostfound/internal/api/response"
	"github.com/mcoot/lostfound/internal/model"
	"github.com/mcoot/lostfound/internal/services/auth"
)

// AccountHandler handles signup, login and account endpoints
type AccountHandler struct {
	authService *auth.Service
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(authService *auth.Service) *AccountHandler {
	return &AccountHandler{
		authService: authService,
	}
}

// Signup handles POST /signup
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req request.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	account, err := h.authService.Signup(r.Context(), auth.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.SignupResponse{
		Message: "User Registered Successfully",
		User:    response.UserFromModel(account),
	})
}

// List handles GET /signup
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.authService.ListAccounts(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.UsersResponse{
		Message: "Users found",
		Users:   response.UsersFromModel(accounts),
	})
}

// Login handles POST /login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	result, err := h.authService.Login(r.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	})
}

// GetByID handles GET /login/{id}
func (h *AccountHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := model.AccountID(mux.Vars(r)["id"])

	account, err := h.authService.GetAccount(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.UserFromModel(account))
}

// Me handles GET /me
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	account, err := h.authService.GetAccount(r.Context(), identity.AccountID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.UserFromModel(account))
}

// ChangePassword handles PUT /me/password
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	var req request.ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	err := h.authService.ChangePassword(r.Context(), identity.AccountID, auth.ChangePasswordInput{
		Current: req.CurrentPassword,
		New:     req.NewPassword,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
