package domain

import "time"

// MediaKind describes the payload of a question prompt.
type MediaKind string

const (
	MediaText  MediaKind = "text"
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// AnswerKind determines how a submitted answer is interpreted and scored.
type AnswerKind string

const (
	// AnswerMultipleChoice answers are option letters A-D.
	AnswerMultipleChoice AnswerKind = "multiple-choice"
	// AnswerEstimation answers are numeric strings scored by closeness.
	AnswerEstimation AnswerKind = "estimation"
)

// User is a registered host account.
type User struct {
	ID    string
	Name  string
	Email string
	// PasswordHash is a bcrypt hash; empty for session-scoped participants.
	PasswordHash string
}

// Quiz is an ordered collection of questions owned by one or more users.
type Quiz struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	OwnerIDs []string `json:"ownerIds"`
}

// Question models a single quiz question. Exactly one correct-answer
// representation exists per question, interpreted according to AnswerKind:
// an option letter for multiple choice, a numeric string for estimation.
type Question struct {
	ID            string     `json:"id"`
	QuizID        string     `json:"quizId"`
	Name          string     `json:"name,omitempty"`
	Text          string     `json:"text"`
	MediaKind     MediaKind  `json:"mediaKind"`
	MediaURL      string     `json:"mediaUrl,omitempty"`
	AnswerKind    AnswerKind `json:"answerKind"`
	Options       []string   `json:"options,omitempty"` // up to 4, multiple choice only
	CorrectAnswer string     `json:"correctAnswer"`
	Position      int        `json:"position"`
}

// PublicView strips the correct answer for participant-facing payloads.
func (q Question) PublicView() Question {
	q.CorrectAnswer = ""
	return q
}

// Session is one live hosting instance of a quiz.
type Session struct {
	ID              string        `json:"id"`
	Code            string        `json:"code"` // public join token
	QuizID          string        `json:"quizId"`
	HostID          string        `json:"hostId"`
	Status          SessionStatus `json:"status"`
	CurrentQuestion int           `json:"currentQuestion"`
	StartedAt       *time.Time    `json:"startedAt,omitempty"`
	EndedAt         *time.Time    `json:"endedAt,omitempty"`
}

// Participant is scoped to a single session join; it is never reused
// across sessions.
type Participant struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Name      string    `json:"name"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// Answer is the live answer for one (session, question, participant)
// triple. A later submission for the same triple overwrites the record.
type Answer struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"sessionId"`
	QuestionID    string    `json:"questionId"`
	ParticipantID string    `json:"participantId"`
	Value         string    `json:"value"`
	IsCorrect     bool      `json:"isCorrect"`
	BasePoints    int       `json:"basePoints"`
	TimeBonus     int       `json:"timeBonus"`
	TimeTaken     float64   `json:"timeTaken"` // seconds
	SubmittedAt   time.Time `json:"submittedAt"`
	QuestionIndex int       `json:"questionIndex"`
}

// TotalPoints is always derived, never stored independently.
func (a Answer) TotalPoints() int {
	return a.BasePoints + a.TimeBonus
}

// Score is the persisted per-participant aggregate for a session,
// recomputed in full from the answer set on every update.
type Score struct {
	ID                string `json:"id"`
	SessionID         string `json:"sessionId"`
	ParticipantID     string `json:"participantId"`
	TotalScore        int    `json:"totalScore"`
	QuestionsAnswered int    `json:"questionsAnswered"`
	CorrectAnswers    int    `json:"correctAnswers"`
}

// LeaderboardEntry is one row of the on-demand leaderboard snapshot.
type LeaderboardEntry struct {
	ParticipantID     string `json:"participantId"`
	ParticipantName   string `json:"participantName"`
	TotalScore        int    `json:"totalScore"`
	QuestionsAnswered int    `json:"questionsAnswered"`
	CorrectAnswers    int    `json:"correctAnswers"`
	Rank              int    `json:"rank"`
}
