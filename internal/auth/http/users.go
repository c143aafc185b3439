package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// UsersHandler serves /v1/users/{id}. Access is decided by RequirePermission
// before these run.
type UsersHandler struct {
	Accounts *service.AccountService
	Sessions *SessionManager
}

// HandleGet handles GET /v1/users/{id}
//
//	@Summary		Get a user
//	@Description	Admins may read anyone; users may only read themselves.
//	@Tags			Users
//	@Security		SessionCookie
//	@Produce		json
//	@Param			id	path		string	true	"User id"
//	@Success		200	{object}	authsdk.UserResponse
//	@Failure		403	{object}	authsdk.ErrorResponse	"Permission denied"
//	@Failure		404	{object}	authsdk.ErrorResponse	"User not found"
//	@Router			/v1/users/{id} [get].
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.Accounts.GetUser(r.Context(), r.PathValue("id"))
	if errors.Is(err, service.ErrUserNotFound) {
		authsdk.ErrNotFound.WriteError(w)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse(user))
}

// HandleDelete handles DELETE /v1/users/{id}
//
//	@Summary		Delete a user
//	@Description	Deletes the account and everything attached to it. Deleting yourself also signs you out.
//	@Tags			Users
//	@Security		SessionCookie
//	@Param			id	path	string	true	"User id"
//	@Success		204
//	@Failure		403	{object}	authsdk.ErrorResponse	"Permission denied"
//	@Failure		404	{object}	authsdk.ErrorResponse	"User not found"
//	@Router			/v1/users/{id} [delete].
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := h.Accounts.DeleteUser(r.Context(), id)
	if errors.Is(err, service.ErrUserNotFound) {
		authsdk.ErrNotFound.WriteError(w)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	if me, ok := SessionFromContext(r.Context()); ok && me.ID == id {
		h.Sessions.Remove(w)
	}
	noContent(w)
}
