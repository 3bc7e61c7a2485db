package relay

import (
	"encoding/json"
	"time"
)

// Inbound event names accepted from connections.
const (
	EventJoinSession     = "join-session"
	EventLeaveSession    = "leave-session"
	EventParticipantJoin = "participant-join"
	EventStartQuiz       = "start-quiz"
	EventQuestionChanged = "question-changed"
	EventSubmitAnswer    = "submit-answer"
	EventShowAnswers     = "show-answers"
)

// Outbound event names broadcast to rooms.
const (
	EventParticipantJoined = "participant-joined"
	EventQuizStarted       = "quiz-started"
	EventAnswerReceived    = "answer-received"
)

// Inbound is the envelope every connection message arrives in. Payloads are
// decoded per event type and validated before dispatch; the relay never
// trusts an untyped payload.
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Event is the envelope broadcast to room members.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// SessionRef carries only the room key; used by join/leave/start events.
type SessionRef struct {
	SessionID string `json:"sessionId"`
}

// ParticipantInfo is the participant snapshot relayed on join.
type ParticipantInfo struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}

// ParticipantJoinPayload announces a participant to the room.
type ParticipantJoinPayload struct {
	SessionID   string          `json:"sessionId"`
	Participant ParticipantInfo `json:"participant"`
}

// QuestionChangedPayload moves every participant to a new question.
// QuestionIndex is a pointer so a missing field can be told apart from 0.
type QuestionChangedPayload struct {
	SessionID     string `json:"sessionId"`
	QuestionIndex *int   `json:"questionIndex"`
}

// AnswerInfo is the live answer feed entry the host renders.
type AnswerInfo struct {
	ParticipantID   string `json:"participantId"`
	ParticipantName string `json:"participantName"`
	QuestionID      string `json:"questionId"`
	QuestionIndex   int    `json:"questionIndex"`
	Answer          string `json:"answer"`
	SubmittedAt     string `json:"submittedAt"`
}

// SubmitAnswerPayload relays a submission to the whole room.
type SubmitAnswerPayload struct {
	SessionID string      `json:"sessionId"`
	Answer    *AnswerInfo `json:"answer"`
}

// ShowAnswersPayload carries the reveal: leaderboard plus correct answer.
type ShowAnswersPayload struct {
	SessionID     string          `json:"sessionId"`
	Leaderboard   json.RawMessage `json:"leaderboard"`
	CorrectAnswer json.RawMessage `json:"correctAnswer"`
}
