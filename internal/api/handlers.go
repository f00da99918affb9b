package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"philoschat/internal/auth"
	"philoschat/internal/completion"
	"philoschat/internal/models"
	"philoschat/internal/persona"
	"philoschat/internal/service/chat"
)

// Handler wires HTTP routes to the chat and auth services.
type Handler struct {
	chat     *chat.Service
	auth     *auth.Service
	personas *persona.Registry
}

// NewHandler constructs a Handler instance.
func NewHandler(chatService *chat.Service, authService *auth.Service, personas *persona.Registry) *Handler {
	return &Handler{
		chat:     chatService,
		auth:     authService,
		personas: personas,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/ping", h.ping)
	api.POST("/auth/register", h.register)
	api.POST("/auth/login", h.login)
	api.POST("/auth/refresh", h.refresh)
	api.POST("/auth/logout", h.logout)
	api.GET("/philosophers", h.listPhilosophers)
	api.GET("/philosophers/:id", h.getPhilosopher)

	sessions := api.Group("/sessions")
	sessions.Use(h.auth.Middleware(), h.auth.CSRFMiddleware())
	sessions.GET("", h.listSessions)
	sessions.POST("/create_session", h.createSession)
	sessions.GET("/:id", h.getSession)
	sessions.POST("/:id/add_message", h.addMessage)
	sessions.PATCH("/:id/change-philosopher", h.changePhilosopher)
	sessions.DELETE("/:id", h.deleteSession)
}

func (h *Handler) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}
	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.Password2)
	if err != nil {
		var fe auth.FieldErrors
		switch {
		case errors.As(err, &fe):
			c.JSON(http.StatusBadRequest, fe)
		case errors.Is(err, auth.ErrDuplicateUser):
			c.JSON(http.StatusBadRequest, gin.H{"detail": "A user with that username or email already exists."})
		default:
			log.Printf("register: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "registration failed"})
		}
		return
	}
	pair, err := h.auth.IssuePair(c.Request.Context(), user.ID)
	if err != nil {
		log.Printf("issue tokens: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "could not issue tokens"})
		return
	}
	h.setAuthCookies(c, pair.Access)
	c.JSON(http.StatusCreated, gin.H{
		"user":    user,
		"access":  pair.Access,
		"refresh": pair.Refresh,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}
	user, err := h.auth.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid username or password."})
			return
		}
		log.Printf("login: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "login failed"})
		return
	}
	pair, err := h.auth.IssuePair(c.Request.Context(), user.ID)
	if err != nil {
		log.Printf("issue tokens: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "could not issue tokens"})
		return
	}
	h.setAuthCookies(c, pair.Access)
	c.JSON(http.StatusOK, gin.H{
		"user":    user,
		"access":  pair.Access,
		"refresh": pair.Refresh,
	})
}

func (h *Handler) refresh(c *gin.Context) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}
	pair, _, err := h.auth.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid or expired refresh token"})
			return
		}
		log.Printf("refresh: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "could not refresh tokens"})
		return
	}
	h.setAuthCookies(c, pair.Access)
	c.JSON(http.StatusOK, gin.H{
		"access":  pair.Access,
		"refresh": pair.Refresh,
	})
}

func (h *Handler) logout(c *gin.Context) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Refresh != "" {
		_ = h.auth.RevokeRefresh(c.Request.Context(), req.Refresh)
	}
	h.clearAuthCookies(c)
	c.Status(http.StatusNoContent)
}

// philosopherView hides the instruction text from API consumers.
type philosopherView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

func (h *Handler) listPhilosophers(c *gin.Context) {
	personas := h.personas.List()
	out := make([]philosopherView, 0, len(personas))
	for _, p := range personas {
		out = append(out, philosopherView{ID: p.ID, Name: p.Name, Avatar: p.Avatar})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) getPhilosopher(c *gin.Context) {
	p, ok := h.personas.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Philosopher not found"})
		return
	}
	c.JSON(http.StatusOK, philosopherView{ID: p.ID, Name: p.Name, Avatar: p.Avatar})
}

func (h *Handler) authorizedUserID(c *gin.Context) (int64, bool) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok || userID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return 0, false
	}
	return userID, true
}

func (h *Handler) listSessions(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	sessions, err := h.chat.ListSessions(c.Request.Context(), userID)
	if err != nil {
		log.Printf("list sessions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list sessions"})
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *Handler) createSession(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req struct {
		Philosopher string `json:"philosopher"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Philosopher == "" {
		req.Philosopher = "marcus_aurelius"
	}
	session, err := h.chat.CreateSession(c.Request.Context(), userID, req.Philosopher)
	if err != nil {
		if errors.Is(err, chat.ErrUnknownPersona) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Philosopher " + req.Philosopher + " not found"})
			return
		}
		log.Printf("create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *Handler) getSession(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	session, messages, err := h.chat.GetSession(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		log.Printf("get session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load session"})
		return
	}
	if messages == nil {
		messages = []*models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{
		"session":  session,
		"messages": messages,
	})
}

func (h *Handler) addMessage(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	publicID := c.Param("id")
	_, reply, err := h.chat.AppendTurn(c.Request.Context(), userID, publicID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No message provided"})
		case errors.Is(err, chat.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, completion.ErrUnavailable):
			// The user turn is already persisted at this point.
			log.Printf("completion failed for session %s: %v", publicID, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":      "Error generating response",
				"session_id": publicID,
			})
		default:
			log.Printf("add message: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An unexpected error occurred"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"response":   reply.Content,
		"session_id": publicID,
	})
}

func (h *Handler) changePhilosopher(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req struct {
		Philosopher string `json:"philosopher"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Philosopher == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No philosopher specified"})
		return
	}
	session, err := h.chat.SwitchPersona(c.Request.Context(), userID, c.Param("id"), req.Philosopher)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrUnknownPersona):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Philosopher " + req.Philosopher + " not found"})
		case errors.Is(err, chat.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		default:
			log.Printf("change philosopher: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not change philosopher"})
		}
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) deleteSession(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	if err := h.chat.DeleteSession(c.Request.Context(), userID, c.Param("id")); err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		log.Printf("delete session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete session"})
		return
	}
	c.Status(http.StatusNoContent)
}
