package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/psds-microservice/inquiry-service/internal/auth"
	"github.com/psds-microservice/inquiry-service/internal/model"
	"github.com/psds-microservice/inquiry-service/internal/service"
)

type AuthHandler struct {
	users  service.UserServicer
	tokens *auth.Tokens
	authn  *Authenticator
}

func NewAuthHandler(users service.UserServicer, tokens *auth.Tokens, authn *Authenticator) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, authn: authn}
}

type loginRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	UserID   string  `json:"user_id" binding:"required,max=64"`
	Name     string  `json:"name" binding:"required,max=100"`
	Role     string  `json:"role" binding:"required,user_role"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password string  `json:"password" binding:"required,min=6"`
}

type profileRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=100"`
	Password *string `json:"password" binding:"omitempty,min=6"`
}

type activeRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type sessionResponse struct {
	User      model.User `json:"user"`
	Token     string     `json:"token"`
	ExpiresAt int64      `json:"expires_at"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "user_id and password are required")
		return
	}
	u, err := h.users.Login(c.Request.Context(), req.UserID, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	h.issue(c, http.StatusOK, "login successful", u)
}

// Register creates an operator account. Admin only.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "invalid body", bindingField(err))
		return
	}
	u, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		UserID:   req.UserID,
		Name:     req.Name,
		Role:     req.Role,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, "user registered", u)
}

func (h *AuthHandler) Me(c *gin.Context) {
	u, _ := currentUser(c)
	respond(c, http.StatusOK, "", u)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "invalid body", bindingField(err))
		return
	}
	me, _ := currentUser(c)
	u, err := h.users.UpdateProfile(c.Request.Context(), me.ID, service.ProfileInput{Name: req.Name, Password: req.Password})
	if err != nil {
		writeError(c, err)
		return
	}
	h.authn.Forget(me.ID)
	respond(c, http.StatusOK, "profile updated", u)
}

// SetActive enables or disables an account. Admin only.
func (h *AuthHandler) SetActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "active is required")
		return
	}
	u, err := h.users.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		writeError(c, err)
		return
	}
	h.authn.Forget(id)
	respond(c, http.StatusOK, "user updated", u)
}

func (h *AuthHandler) issue(c *gin.Context, status int, message string, u *model.User) {
	token, exp, err := h.tokens.Issue(u.ID, string(u.Role))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, status, message, sessionResponse{User: *u, Token: token, ExpiresAt: exp.Unix()})
}
