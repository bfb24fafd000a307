package handler

import (
	"net/http"

	"github.com/mmeshcher/cygree/internal/model"
	"github.com/mmeshcher/cygree/internal/service"
)

type registerRequest struct {
	Login     string `json:"login"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type authResponse struct {
	ID    int64  `json:"id"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

// Register обрабатывает регистрацию нового пользователя и сразу выдаёт токен.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, "register", err)
		return
	}

	account, err := h.service.RegisterUser(r.Context(), service.Registration{
		Login:     req.Login,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      req.Role,
	})
	if err != nil {
		h.fail(w, r, "register user", err)
		return
	}

	h.respondWithToken(w, r, account, http.StatusCreated)
}

// Login выполняет аутентификацию пользователя и устанавливает cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, "login", err)
		return
	}

	account, err := h.service.AuthenticateUser(r.Context(), req.Login, req.Password)
	if err != nil {
		h.fail(w, r, "login user", err)
		return
	}

	h.respondWithToken(w, r, account, http.StatusOK)
}

func (h *Handler) respondWithToken(w http.ResponseWriter, r *http.Request, a *model.Account, status int) {
	token, err := h.authMiddleware.IssueToken(model.Caller{ID: a.ID, Role: a.Role})
	if err != nil {
		h.fail(w, r, "issue token", err)
		return
	}

	h.authMiddleware.SetAuthCookie(w, token)
	writeJSON(w, status, authResponse{ID: a.ID, Role: string(a.Role), Token: token})
}

// GetProfile возвращает профиль текущего пользователя.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	account, err := h.service.GetProfile(r.Context(), caller)
	if err != nil {
		h.fail(w, r, "get profile", err)
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(account))
}

type profileUpdateRequest struct {
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	Country *string `json:"country"`
	Phone   *string `json:"phone"`
}

// UpdateProfile меняет адрес и телефон текущего пользователя. Отсутствующие поля не меняются.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req profileUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, "update profile", err)
		return
	}

	account, err := h.service.UpdateProfile(r.Context(), caller, model.ProfileUpdate{
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		Country: req.Country,
		Phone:   req.Phone,
	})
	if err != nil {
		h.fail(w, r, "update profile", err)
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(account))
}

// DeleteAccount удаляет учётную запись текущего пользователя вместе с его данными.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteAccount(r.Context(), caller); err != nil {
		h.fail(w, r, "delete account", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
