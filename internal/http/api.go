package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"account-service/internal/auth"
	"account-service/internal/domain"
	"account-service/internal/service"
)

// authCookieName is the cookie slot carrying the session token. The token
// travels only here, never in a response body.
const authCookieName = "AuthToken"

// Handler wires HTTP routes to domain services.
type Handler struct {
	users          service.UserService
	tokens         *auth.TokenManager
	allowedOrigins []string
	logger         *logrus.Logger
}

func NewHandler(users service.UserService, tokens *auth.TokenManager, allowedOrigins []string, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:          users,
		tokens:         tokens,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(h.allowedOrigins))

	api := router.Group("/api/users")
	{
		api.POST("/signup", h.signup)
		api.POST("/login", h.login)
		api.POST("/logout", h.logout)
		api.GET("/check-auth", h.checkAuth)

		api.GET("/profile", h.requireAuth(), h.getProfile)
		api.PATCH("/self", h.requireAuth(domain.RoleCustomer), h.patchSelf)

		admin := api.Group("", h.requireAuth(domain.RoleAdmin))
		{
			admin.GET("", h.listUsers)
			admin.GET("/:id", h.getUser)
			admin.POST("", h.createUser)
			admin.DELETE("/:id", h.deleteUser)
			admin.PATCH("/:id", h.patchUser)
		}
	}

	router.GET("/api/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})
}

// corsMiddleware echoes the origin back only when it is allowed, with
// credentials enabled so the session cookie survives cross-origin calls.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if _, ok := allowed[origin]; ok {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type signupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type createUserRequest struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Role     domain.Role `json:"role" binding:"required"`
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      user.ID,
		"message": "User successfully registered!",
	})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// malformed login input renders like a bad credential, so the
		// response shape never hints at what was wrong
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password."})
		return
	}

	user, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password."})
			return
		}
		h.renderError(c, err)
		return
	}

	token, err := h.tokens.Issue(user, time.Now())
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.setAuthCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

func (h *Handler) logout(c *gin.Context) {
	h.clearAuthCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *Handler) checkAuth(c *gin.Context) {
	token, err := c.Cookie(authCookieName)
	if err != nil || token == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	claims, err := h.tokens.Verify(token, time.Now())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"role":          claims.Role,
	})
}

func (h *Handler) getProfile(c *gin.Context) {
	id, ok := sessionUserID(c)
	if !ok {
		return
	}

	// the row is re-read so a deleted user cannot keep using a live token
	user, err := h.users.GetProfile(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) patchSelf(c *gin.Context) {
	id, ok := sessionUserID(c)
	if !ok {
		return
	}

	var patch service.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.users.PatchSelf(c.Request.Context(), id, patch); err != nil {
		h.renderError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(&users[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	account, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, accountToResponse(account))
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, userToResponse(user))
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		h.renderError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) patchUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	var patch service.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.users.PatchUser(c.Request.Context(), id, patch); err != nil {
		h.renderError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) setAuthCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(authCookieName, token, int(h.tokens.TTL().Seconds()), "/", "", true, true)
}

func (h *Handler) clearAuthCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(authCookieName, "", -1, "/", "", true, true)
}

// renderError maps service errors onto HTTP status codes. Unexpected errors
// are logged and surfaced as an opaque 500.
func (h *Handler) renderError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"message": "Email is already registered."})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password."})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
	default:
		h.logger.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func userIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return id, true
}

type UserResponse struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	DateCreated string      `json:"dateCreated"`
}

type CustomerDetailsResponse struct {
	Plan        domain.SubscriptionPlan `json:"plan"`
	Preferences string                  `json:"preferences"`
	Address     string                  `json:"address"`
	Country     string                  `json:"country"`
	PhoneNumber string                  `json:"phoneNumber"`
}

type AdminDetailsResponse struct {
	Permissions string `json:"permissions"`
}

type AccountResponse struct {
	UserResponse
	CustomerDetails *CustomerDetailsResponse `json:"customerDetails,omitempty"`
	AdminDetails    *AdminDetailsResponse    `json:"adminDetails,omitempty"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		DateCreated: user.DateCreated.UTC().Format(time.RFC3339),
	}
}

func accountToResponse(account *service.Account) AccountResponse {
	resp := AccountResponse{UserResponse: userToResponse(&account.User)}
	if account.CustomerDetails != nil {
		resp.CustomerDetails = &CustomerDetailsResponse{
			Plan:        account.CustomerDetails.Plan,
			Preferences: account.CustomerDetails.Preferences,
			Address:     account.CustomerDetails.Address,
			Country:     account.CustomerDetails.Country,
			PhoneNumber: account.CustomerDetails.PhoneNumber,
		}
	}
	if account.AdminDetails != nil {
		resp.AdminDetails = &AdminDetailsResponse{
			Permissions: account.AdminDetails.Permissions,
		}
	}
	return resp
}
