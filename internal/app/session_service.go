package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"pubquiz-service/internal/domain"
	"pubquiz-service/internal/scoring"
)

// SessionService contains the live-session use cases: create/join, the
// host-driven lifecycle, answer submission with scoring, and leaderboard
// aggregation. It is constructed once at startup and injected wherever
// needed; there is no ambient singleton.
type SessionService struct {
	sessions     SessionRepository
	participants ParticipantRepository
	answers      AnswerRepository
	scores       ScoreRepository
	questions    QuestionBank
	quizzes      QuizRepository
	log          *slog.Logger
	now          func() time.Time
}

func NewSessionService(
	sessions SessionRepository,
	participants ParticipantRepository,
	answers AnswerRepository,
	scores ScoreRepository,
	questions QuestionBank,
	quizzes QuizRepository,
	log *slog.Logger,
) *SessionService {
	return &SessionService{
		sessions:     sessions,
		participants: participants,
		answers:      answers,
		scores:       scores,
		questions:    questions,
		quizzes:      quizzes,
		log:          log,
		now:          time.Now,
	}
}

// WithClock is test-only, for deterministic timestamps.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// NewSessionCode generates a short public join token.
func NewSessionCode() string {
	return strings.ToUpper(uuid.NewString()[:6])
}

// CreateSession starts hosting the given quiz. The session begins Waiting.
func (s *SessionService) CreateSession(ctx context.Context, hostID, quizID string) (domain.Session, error) {
	if hostID == "" || quizID == "" {
		return domain.Session{}, fmt.Errorf("%w: hostId and quizId are required", domain.ErrValidation)
	}
	if _, err := s.quizzes.FindQuiz(ctx, quizID); err != nil {
		return domain.Session{}, err
	}

	session := domain.Session{
		ID:     uuid.NewString(),
		Code:   NewSessionCode(),
		QuizID: quizID,
		HostID: hostID,
		Status: domain.StatusWaiting,
	}
	if err := s.sessions.CreateSession(ctx, &session); err != nil {
		return domain.Session{}, err
	}
	s.log.Info("session created", "session", session.ID, "code", session.Code, "quiz", quizID)
	return session, nil
}

// FindSession resolves a public join code.
func (s *SessionService) FindSession(ctx context.Context, code string) (domain.Session, error) {
	if code == "" {
		return domain.Session{}, fmt.Errorf("%w: session code is required", domain.ErrValidation)
	}
	return s.sessions.FindSessionByCode(ctx, code)
}

// Join creates a session-scoped participant record and returns it. The
// participant belongs to this session for its whole lifetime.
func (s *SessionService) Join(ctx context.Context, code, name string) (domain.Participant, error) {
	if code == "" || name == "" {
		return domain.Participant{}, fmt.Errorf("%w: code and name are required", domain.ErrValidation)
	}
	session, err := s.sessions.FindSessionByCode(ctx, code)
	if err != nil {
		return domain.Participant{}, err
	}
	if session.Status.Terminal() {
		return domain.Participant{}, domain.ErrSessionCompleted
	}

	participant := domain.Participant{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Name:      name,
		JoinedAt:  s.now(),
	}
	if err := s.participants.CreateParticipant(ctx, &participant); err != nil {
		return domain.Participant{}, err
	}
	s.log.Info("participant joined", "session", session.ID, "participant", participant.ID, "name", name)
	return participant, nil
}

// Participants lists the session's membership. This is the polling fallback
// clients use when the relay connection is unavailable; results merge
// idempotently by participant id.
func (s *SessionService) Participants(ctx context.Context, code string) ([]domain.Participant, error) {
	session, err := s.sessions.FindSessionByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.participants.ListParticipants(ctx, session.ID)
}

// UpdateStatus drives the lifecycle. Only the recorded host may transition,
// and only one linear step forward.
func (s *SessionService) UpdateStatus(ctx context.Context, code, callerID string, next domain.SessionStatus) (domain.Session, error) {
	session, err := s.sessions.FindSessionByCode(ctx, code)
	if err != nil {
		return domain.Session{}, err
	}
	if session.HostID != callerID {
		return domain.Session{}, domain.ErrNotHost
	}
	if !session.Status.CanTransition(next) {
		return domain.Session{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, session.Status, next)
	}

	now := s.now()
	session.Status = next
	switch next {
	case domain.StatusActive:
		session.StartedAt = &now
	case domain.StatusCompleted:
		session.EndedAt = &now
	}
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	s.log.Info("session status changed", "session", session.ID, "status", next)
	return session, nil
}

// AdvanceQuestion moves the current question index forward. Regressions are
// rejected against the persisted session; the index is monotonic.
func (s *SessionService) AdvanceQuestion(ctx context.Context, code, callerID string, index int) (domain.Session, error) {
	session, err := s.sessions.FindSessionByCode(ctx, code)
	if err != nil {
		return domain.Session{}, err
	}
	if session.HostID != callerID {
		return domain.Session{}, domain.ErrNotHost
	}
	if session.Status != domain.StatusActive {
		return domain.Session{}, fmt.Errorf("%w: session is %s", domain.ErrInvalidTransition, session.Status)
	}
	if index < session.CurrentQuestion {
		return domain.Session{}, domain.ErrQuestionRegression
	}

	session.CurrentQuestion = index
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Submission is the scoring signal from a participant.
type Submission struct {
	SessionCode   string  `json:"sessionId"`
	QuestionID    string  `json:"questionId"`
	ParticipantID string  `json:"participantId"`
	Answer        string  `json:"answer"`
	TimeTaken     float64 `json:"timeTaken"`
	QuestionIndex int     `json:"questionIndex"`
}

// SubmitAnswer scores and persists one submission. At most one answer exists
// per (session, question, participant); a resubmission overwrites the prior
// record and the whole result is recomputed against the then-current answer
// set, since time-bonus ranks shift as answers arrive.
func (s *SessionService) SubmitAnswer(ctx context.Context, sub Submission) (scoring.Result, error) {
	if sub.SessionCode == "" || sub.QuestionID == "" || sub.ParticipantID == "" || sub.Answer == "" {
		return scoring.Result{}, fmt.Errorf("%w: sessionId, questionId, participantId and answer are required", domain.ErrValidation)
	}

	session, err := s.sessions.FindSessionByCode(ctx, sub.SessionCode)
	if err != nil {
		return scoring.Result{}, err
	}
	if session.Status.Terminal() {
		return scoring.Result{}, domain.ErrSessionCompleted
	}

	question, err := s.questions.FindQuestion(ctx, session.QuizID, sub.QuestionID)
	if err != nil {
		return scoring.Result{}, err
	}

	// Collect the timing set of other correct answers to this question. The
	// participant's own prior answer is excluded because the new submission
	// replaces it.
	all, err := s.answers.ListAnswers(ctx, session.ID)
	if err != nil {
		return scoring.Result{}, err
	}
	var correctTimes []float64
	for _, a := range all {
		if a.QuestionID != sub.QuestionID || a.ParticipantID == sub.ParticipantID {
			continue
		}
		if a.IsCorrect {
			correctTimes = append(correctTimes, a.TimeTaken)
		}
	}
	if correct, _ := scoring.BasePoints(question.AnswerKind, sub.Answer, question.CorrectAnswer); correct {
		correctTimes = append(correctTimes, sub.TimeTaken)
	}

	result := scoring.Score(question.AnswerKind, sub.Answer, question.CorrectAnswer, sub.TimeTaken, correctTimes)

	record := domain.Answer{
		SessionID:     session.ID,
		QuestionID:    sub.QuestionID,
		ParticipantID: sub.ParticipantID,
		Value:         sub.Answer,
		IsCorrect:     result.IsCorrect,
		BasePoints:    result.BasePoints,
		TimeBonus:     result.TimeBonus,
		TimeTaken:     sub.TimeTaken,
		SubmittedAt:   s.now(),
		QuestionIndex: sub.QuestionIndex,
	}

	existing, found, err := s.answers.FindAnswer(ctx, session.ID, sub.QuestionID, sub.ParticipantID)
	if err != nil {
		return scoring.Result{}, err
	}
	if found {
		record.ID = existing.ID
		err = s.answers.UpdateAnswer(ctx, record)
	} else {
		record.ID = uuid.NewString()
		err = s.answers.CreateAnswer(ctx, &record)
	}
	if err != nil {
		return scoring.Result{}, err
	}

	if err := s.refreshScore(ctx, session.ID, sub.ParticipantID); err != nil {
		// The answer is saved; a stale snapshot is tolerable since the
		// leaderboard recomputes from answers anyway.
		s.log.Warn("score snapshot refresh failed", "session", session.ID, "participant", sub.ParticipantID, "err", err)
	}

	s.log.Info("answer scored",
		"session", session.ID,
		"question", sub.QuestionID,
		"participant", sub.ParticipantID,
		"correct", result.IsCorrect,
		"total", result.TotalPoints,
	)
	return result, nil
}

// refreshScore recomputes the participant's aggregate from the full answer
// set. Never incremental, so the snapshot is always consistent with the
// answers at computation time.
func (s *SessionService) refreshScore(ctx context.Context, sessionID, participantID string) error {
	all, err := s.answers.ListAnswers(ctx, sessionID)
	if err != nil {
		return err
	}
	score := domain.Score{
		SessionID:     sessionID,
		ParticipantID: participantID,
	}
	for _, a := range all {
		if a.ParticipantID != participantID {
			continue
		}
		score.TotalScore += a.TotalPoints()
		score.QuestionsAnswered++
		if a.IsCorrect {
			score.CorrectAnswers++
		}
	}
	return s.scores.UpsertScore(ctx, score)
}
