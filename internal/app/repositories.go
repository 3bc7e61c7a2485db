package app

import (
	"context"

	"pubquiz-service/internal/domain"
)

// SessionRepository abstracts how live sessions are persisted.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	// FindSessionByCode resolves the public join code to a session, or
	// domain.ErrSessionNotFound.
	FindSessionByCode(ctx context.Context, code string) (domain.Session, error)
	UpdateSession(ctx context.Context, session domain.Session) error
}

// ParticipantRepository stores session-scoped participant records.
type ParticipantRepository interface {
	CreateParticipant(ctx context.Context, participant *domain.Participant) error
	ListParticipants(ctx context.Context, sessionID string) ([]domain.Participant, error)
}

// AnswerRepository stores the live answer per (session, question,
// participant) triple. Update overwrites; the store never appends a second
// row for the same triple.
type AnswerRepository interface {
	CreateAnswer(ctx context.Context, answer *domain.Answer) error
	UpdateAnswer(ctx context.Context, answer domain.Answer) error
	FindAnswer(ctx context.Context, sessionID, questionID, participantID string) (domain.Answer, bool, error)
	ListAnswers(ctx context.Context, sessionID string) ([]domain.Answer, error)
}

// ScoreRepository stores the per-participant aggregate snapshots.
type ScoreRepository interface {
	UpsertScore(ctx context.Context, score domain.Score) error
	ListScores(ctx context.Context, sessionID string) ([]domain.Score, error)
}

// QuestionBank loads quiz questions for live play, usually through a cache.
type QuestionBank interface {
	// FindQuestion returns domain.ErrQuestionNotFound for unknown ids.
	FindQuestion(ctx context.Context, quizID, questionID string) (domain.Question, error)
	// ListQuestions returns the quiz's questions ordered by position.
	ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error)
}

// QuizRepository covers the quiz editor's CRUD surface.
type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz *domain.Quiz) error
	FindQuiz(ctx context.Context, id string) (domain.Quiz, error)
	ListQuizzesByOwner(ctx context.Context, userID string) ([]domain.Quiz, error)
	CreateQuestion(ctx context.Context, question *domain.Question) error
	UpdateQuestion(ctx context.Context, question domain.Question) error
	DeleteQuestion(ctx context.Context, id string) error
	FindQuestionByID(ctx context.Context, id string) (domain.Question, error)
}
