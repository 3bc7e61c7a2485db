// Package relay implements the live-session event bus: a room registry plus
// a typed fan-out of host and participant events keyed by session code. The
// relay is deliberately stateless about quiz content; it never inspects
// correctness or scores. The persisted records remain the source of truth
// and the relay exists purely for low-latency UI sync. Late joiners must
// reconcile current state through the HTTP query endpoints; events are
// never replayed.
package relay

import (
	"encoding/json"
	"log/slog"
)

// Relay validates inbound events and re-broadcasts them to the correct room
// with the defined fan-out rules. Malformed events are logged and dropped
// so an untrusted connection can never crash the shared process.
type Relay struct {
	registry *Registry
	log      *slog.Logger
}

func New(registry *Registry, log *slog.Logger) *Relay {
	return &Relay{registry: registry, log: log}
}

// Registry exposes the room registry to the transport layer for
// connection-loss cleanup.
func (r *Relay) Registry() *Registry {
	return r.registry
}

// Dispatch handles one decoded inbound message from a connection.
func (r *Relay) Dispatch(from Sender, msg Inbound) {
	switch msg.Type {
	case EventJoinSession:
		r.handleJoin(from, msg.Payload)
	case EventLeaveSession:
		r.handleLeave(from, msg.Payload)
	case EventParticipantJoin:
		r.handleParticipantJoin(from, msg.Payload)
	case EventStartQuiz:
		r.handleStartQuiz(from, msg.Payload)
	case EventQuestionChanged:
		r.handleQuestionChanged(from, msg.Payload)
	case EventSubmitAnswer:
		r.handleSubmitAnswer(from, msg.Payload)
	case EventShowAnswers:
		r.handleShowAnswers(from, msg.Payload)
	default:
		r.log.Warn("unknown relay event dropped", "event", msg.Type)
	}
}

func (r *Relay) handleJoin(from Sender, raw json.RawMessage) {
	ref, ok := r.decodeSessionRef(EventJoinSession, raw)
	if !ok {
		return
	}
	// Membership effect only; no broadcast.
	r.registry.Join(ref.SessionID, from)
}

func (r *Relay) handleLeave(from Sender, raw json.RawMessage) {
	ref, ok := r.decodeSessionRef(EventLeaveSession, raw)
	if !ok {
		return
	}
	r.registry.Leave(ref.SessionID, from)
}

func (r *Relay) handleParticipantJoin(from Sender, raw json.RawMessage) {
	var payload ParticipantJoinPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.SessionID == "" || payload.Participant.ID == "" {
		r.log.Warn("participant-join dropped, invalid payload", "err", err)
		return
	}
	// Ensure the announcing connection is in the room before fanning out.
	r.registry.Join(payload.SessionID, from)
	r.registry.Broadcast(payload.SessionID, Event{
		Type:    EventParticipantJoined,
		Payload: payload.Participant,
	}, nil)
}

func (r *Relay) handleStartQuiz(from Sender, raw json.RawMessage) {
	ref, ok := r.decodeSessionRef(EventStartQuiz, raw)
	if !ok {
		return
	}
	// The host already applied the start locally; everyone else gets told.
	r.registry.Broadcast(ref.SessionID, Event{Type: EventQuizStarted}, from)
}

func (r *Relay) handleQuestionChanged(from Sender, raw json.RawMessage) {
	var payload QuestionChangedPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.SessionID == "" || payload.QuestionIndex == nil {
		r.log.Warn("question-changed dropped, invalid payload", "err", err)
		return
	}
	r.registry.Broadcast(payload.SessionID, Event{
		Type:    EventQuestionChanged,
		Payload: map[string]int{"questionIndex": *payload.QuestionIndex},
	}, from)
}

func (r *Relay) handleSubmitAnswer(from Sender, raw json.RawMessage) {
	var payload SubmitAnswerPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.SessionID == "" || payload.Answer == nil {
		r.log.Warn("submit-answer dropped, invalid payload", "err", err)
		return
	}
	// Sender included: the host consumes this to render the live answer feed.
	r.registry.Broadcast(payload.SessionID, Event{
		Type:    EventAnswerReceived,
		Payload: payload.Answer,
	}, nil)
}

func (r *Relay) handleShowAnswers(from Sender, raw json.RawMessage) {
	var payload ShowAnswersPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.SessionID == "" {
		r.log.Warn("show-answers dropped, invalid payload", "err", err)
		return
	}
	// Server-sourced reveal: the sender receives its own broadcast too.
	r.registry.Broadcast(payload.SessionID, Event{
		Type:    EventShowAnswers,
		Payload: payload,
	}, nil)
}

func (r *Relay) decodeSessionRef(event string, raw json.RawMessage) (SessionRef, bool) {
	var ref SessionRef
	if err := json.Unmarshal(raw, &ref); err != nil || ref.SessionID == "" {
		r.log.Warn("event dropped, missing sessionId", "event", event)
		return SessionRef{}, false
	}
	return ref, true
}
