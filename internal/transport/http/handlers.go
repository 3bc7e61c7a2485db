// Package http exposes the REST and websocket surface. REST handlers are
// thin translations between gin and the app services; the websocket handler
// bridges connections into the relay.
package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pubquiz-service/internal/app"
	"pubquiz-service/internal/auth"
	"pubquiz-service/internal/domain"
	"pubquiz-service/internal/relay"
)

const identityKey = "identity"

type Handler struct {
	sessions  *app.SessionService
	quizzes   *app.QuizService
	questions app.QuestionBank
	auth      *auth.Service
	verifier  auth.Verifier
	registry  *relay.Registry
	log       *slog.Logger
}

func NewHandler(
	sessions *app.SessionService,
	quizzes *app.QuizService,
	questions app.QuestionBank,
	authSvc *auth.Service,
	verifier auth.Verifier,
	registry *relay.Registry,
	log *slog.Logger,
) *Handler {
	return &Handler{
		sessions:  sessions,
		quizzes:   quizzes,
		questions: questions,
		auth:      authSvc,
		verifier:  verifier,
		registry:  registry,
		log:       log,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": h.registry.Connections(),
	})
}

// RequireAuth resolves the bearer token into an identity or aborts with 401.
func (h *Handler) RequireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	identity, err := h.verifier.Verify(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.Set(identityKey, identity)
	c.Next()
}

func callerID(c *gin.Context) string {
	identity, ok := c.MustGet(identityKey).(auth.Identity)
	if !ok {
		return ""
	}
	return identity.UserID
}

func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"userId": user.ID})
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) CreateQuiz(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	quiz, err := h.quizzes.CreateQuiz(c.Request.Context(), callerID(c), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, quiz)
}

func (h *Handler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.quizzes.ListQuizzes(c.Request.Context(), callerID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if quizzes == nil {
		quizzes = []domain.Quiz{}
	}
	c.JSON(http.StatusOK, quizzes)
}

func (h *Handler) PublicQuiz(c *gin.Context) {
	quiz, questions, err := h.quizzes.PublicQuiz(c.Request.Context(), c.Param("id"), h.questions)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quiz": quiz, "questions": questions})
}

func (h *Handler) CreateQuestion(c *gin.Context) {
	var question domain.Question
	if err := c.ShouldBindJSON(&question); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	created, err := h.quizzes.CreateQuestion(c.Request.Context(), callerID(c), question)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) UpdateQuestion(c *gin.Context) {
	var question domain.Question
	if err := c.ShouldBindJSON(&question); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	question.ID = c.Param("id")
	updated, err := h.quizzes.UpdateQuestion(c.Request.Context(), callerID(c), question)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteQuestion(c *gin.Context) {
	if err := h.quizzes.DeleteQuestion(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateSession(c *gin.Context) {
	var req struct {
		QuizID string `json:"quizId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	session, err := h.sessions.CreateSession(c.Request.Context(), callerID(c), req.QuizID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sessionId": session.Code, "session": session})
}

func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.sessions.FindSession(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) UpdateSessionStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	status, err := domain.ParseSessionStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session, err := h.sessions.UpdateStatus(c.Request.Context(), c.Param("code"), callerID(c), status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) AdvanceQuestion(c *gin.Context) {
	var req struct {
		QuestionIndex *int `json:"questionIndex"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.QuestionIndex == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "questionIndex is required"})
		return
	}
	session, err := h.sessions.AdvanceQuestion(c.Request.Context(), c.Param("code"), callerID(c), *req.QuestionIndex)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) JoinSession(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	participant, err := h.sessions.Join(c.Request.Context(), req.Code, req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"participantId": participant.ID, "participant": participant})
}

func (h *Handler) ListParticipants(c *gin.Context) {
	participants, err := h.sessions.Participants(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if participants == nil {
		participants = []domain.Participant{}
	}
	c.JSON(http.StatusOK, participants)
}

func (h *Handler) SubmitAnswer(c *gin.Context) {
	var sub app.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.sessions.SubmitAnswer(c.Request.Context(), sub)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) Leaderboard(c *gin.Context) {
	code := c.Query("sessionId")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId query parameter is required"})
		return
	}
	entries, err := h.sessions.Leaderboard(c.Request.Context(), code)
	if err != nil {
		h.fail(c, err)
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// fail maps domain errors onto HTTP statuses. Unknown errors become opaque
// 500s; details stay in the log.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotHost):
		c.JSON(http.StatusForbidden, gin.H{"error": "caller is not the host"})
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrParticipantNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrSessionCompleted),
		errors.Is(err, domain.ErrQuestionRegression),
		errors.Is(err, domain.ErrInvalidStatus):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error("request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
