// Package memory holds the in-memory store used when no postgres/redis is
// configured, and by most unit tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"pubquiz-service/internal/domain"
)

// Store implements every app repository over process-local maps.
type Store struct {
	mu           sync.RWMutex
	users        map[string]domain.User
	quizzes      map[string]domain.Quiz
	questions    map[string]domain.Question
	sessions     map[string]domain.Session // by session id
	codes        map[string]string         // join code -> session id
	participants map[string]domain.Participant
	answers      map[string]domain.Answer // keyed by triple
	scores       map[string]domain.Score  // keyed by session/participant
}

func NewStore() *Store {
	return &Store{
		users:        make(map[string]domain.User),
		quizzes:      make(map[string]domain.Quiz),
		questions:    make(map[string]domain.Question),
		sessions:     make(map[string]domain.Session),
		codes:        make(map[string]string),
		participants: make(map[string]domain.Participant),
		answers:      make(map[string]domain.Answer),
		scores:       make(map[string]domain.Score),
	}
}

func tripleKey(sessionID, questionID, participantID string) string {
	return sessionID + "/" + questionID + "/" + participantID
}

func scoreKey(sessionID, participantID string) string {
	return sessionID + "/" + participantID
}

// Sessions

func (s *Store) CreateSession(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	s.codes[session.Code] = session.ID
	return nil
}

func (s *Store) FindSessionByCode(_ context.Context, code string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codes[code]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return s.sessions[id], nil
}

func (s *Store) UpdateSession(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	s.sessions[session.ID] = session
	return nil
}

// Participants

func (s *Store) CreateParticipant(_ context.Context, participant *domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[participant.ID] = *participant
	return nil
}

func (s *Store) ListParticipants(_ context.Context, sessionID string) ([]domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Participant
	for _, p := range s.participants {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

// Answers

func (s *Store) CreateAnswer(_ context.Context, answer *domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[tripleKey(answer.SessionID, answer.QuestionID, answer.ParticipantID)] = *answer
	return nil
}

func (s *Store) UpdateAnswer(_ context.Context, answer domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[tripleKey(answer.SessionID, answer.QuestionID, answer.ParticipantID)] = answer
	return nil
}

func (s *Store) FindAnswer(_ context.Context, sessionID, questionID, participantID string) (domain.Answer, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	answer, ok := s.answers[tripleKey(sessionID, questionID, participantID)]
	return answer, ok, nil
}

func (s *Store) ListAnswers(_ context.Context, sessionID string) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Answer
	for _, a := range s.answers {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

// Scores

func (s *Store) UpsertScore(_ context.Context, score domain.Score) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scoreKey(score.SessionID, score.ParticipantID)
	if existing, ok := s.scores[key]; ok {
		score.ID = existing.ID
	}
	s.scores[key] = score
	return nil
}

func (s *Store) ListScores(_ context.Context, sessionID string) ([]domain.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Score
	for _, sc := range s.scores {
		if sc.SessionID == sessionID {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalScore > out[j].TotalScore })
	return out, nil
}

// Quizzes and questions (editor surface)

func (s *Store) CreateQuiz(_ context.Context, quiz *domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = *quiz
	return nil
}

func (s *Store) FindQuiz(_ context.Context, id string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *Store) ListQuizzesByOwner(_ context.Context, userID string) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Quiz
	for _, quiz := range s.quizzes {
		for _, owner := range quiz.OwnerIDs {
			if owner == userID {
				out = append(out, quiz)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateQuestion(_ context.Context, question *domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[question.ID] = *question
	return nil
}

func (s *Store) UpdateQuestion(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[question.ID]; !ok {
		return domain.ErrQuestionNotFound
	}
	s.questions[question.ID] = question
	return nil
}

func (s *Store) DeleteQuestion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.questions, id)
	return nil
}

func (s *Store) FindQuestionByID(_ context.Context, id string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	question, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return question, nil
}

// Users

func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = *user
	return nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

// LoadQuestions implements the question-cache loader over the editor's
// question table, ordered by position.
func (s *Store) LoadQuestions(_ context.Context, quizID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return nil, domain.ErrQuizNotFound
	}
	var out []domain.Question
	for _, q := range s.questions {
		if q.QuizID == quizID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}
