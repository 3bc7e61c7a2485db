// Package postgres persists every record through a pgx pool. Schema lives
// in the migrations subpackage and is applied with bun's migrator.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pubquiz-service/internal/domain"
)

// Store implements the app repositories and the question-cache loader.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Sessions

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (id, code, quiz_id, host_id, status, current_question, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		session.ID, session.Code, session.QuizID, session.HostID, string(session.Status),
		session.CurrentQuestion, session.StartedAt, session.EndedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *Store) FindSessionByCode(ctx context.Context, code string) (domain.Session, error) {
	var session domain.Session
	var status string
	err := s.pool.QueryRow(ctx,
		`SELECT id, code, quiz_id, host_id, status, current_question, started_at, ended_at
		 FROM sessions WHERE code=$1`, code).
		Scan(&session.ID, &session.Code, &session.QuizID, &session.HostID, &status,
			&session.CurrentQuestion, &session.StartedAt, &session.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("find session: %w", err)
	}
	session.Status = domain.SessionStatus(status)
	return session, nil
}

func (s *Store) UpdateSession(ctx context.Context, session domain.Session) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET status=$2, current_question=$3, started_at=$4, ended_at=$5 WHERE id=$1`,
		session.ID, string(session.Status), session.CurrentQuestion, session.StartedAt, session.EndedAt)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Participants

func (s *Store) CreateParticipant(ctx context.Context, participant *domain.Participant) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO participants (id, session_id, name, joined_at) VALUES ($1, $2, $3, $4)`,
		participant.ID, participant.SessionID, participant.Name, participant.JoinedAt)
	if err != nil {
		return fmt.Errorf("create participant: %w", err)
	}
	return nil
}

func (s *Store) ListParticipants(ctx context.Context, sessionID string) ([]domain.Participant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, name, joined_at FROM participants WHERE session_id=$1 ORDER BY joined_at`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Name, &p.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Answers

func (s *Store) CreateAnswer(ctx context.Context, answer *domain.Answer) error {
	// The unique (session, question, participant) constraint backs the
	// one-live-answer-per-triple invariant; a concurrent duplicate insert
	// falls back to overwrite, matching last-write-wins semantics.
	_, err := s.pool.Exec(ctx,
		`INSERT INTO answers (id, session_id, question_id, participant_id, value, is_correct,
		                      base_points, time_bonus, time_taken, submitted_at, question_index)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (session_id, question_id, participant_id) DO UPDATE SET
		   value=EXCLUDED.value, is_correct=EXCLUDED.is_correct,
		   base_points=EXCLUDED.base_points, time_bonus=EXCLUDED.time_bonus,
		   time_taken=EXCLUDED.time_taken, submitted_at=EXCLUDED.submitted_at,
		   question_index=EXCLUDED.question_index`,
		answer.ID, answer.SessionID, answer.QuestionID, answer.ParticipantID, answer.Value,
		answer.IsCorrect, answer.BasePoints, answer.TimeBonus, answer.TimeTaken,
		answer.SubmittedAt, answer.QuestionIndex)
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	return nil
}

func (s *Store) UpdateAnswer(ctx context.Context, answer domain.Answer) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE answers SET value=$2, is_correct=$3, base_points=$4, time_bonus=$5,
		        time_taken=$6, submitted_at=$7, question_index=$8
		 WHERE id=$1`,
		answer.ID, answer.Value, answer.IsCorrect, answer.BasePoints, answer.TimeBonus,
		answer.TimeTaken, answer.SubmittedAt, answer.QuestionIndex)
	if err != nil {
		return fmt.Errorf("update answer: %w", err)
	}
	return nil
}

func (s *Store) FindAnswer(ctx context.Context, sessionID, questionID, participantID string) (domain.Answer, bool, error) {
	var a domain.Answer
	err := s.pool.QueryRow(ctx,
		`SELECT id, session_id, question_id, participant_id, value, is_correct,
		        base_points, time_bonus, time_taken, submitted_at, question_index
		 FROM answers WHERE session_id=$1 AND question_id=$2 AND participant_id=$3`,
		sessionID, questionID, participantID).
		Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.ParticipantID, &a.Value, &a.IsCorrect,
			&a.BasePoints, &a.TimeBonus, &a.TimeTaken, &a.SubmittedAt, &a.QuestionIndex)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Answer{}, false, nil
	}
	if err != nil {
		return domain.Answer{}, false, fmt.Errorf("find answer: %w", err)
	}
	return a, true, nil
}

func (s *Store) ListAnswers(ctx context.Context, sessionID string) ([]domain.Answer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, question_id, participant_id, value, is_correct,
		        base_points, time_bonus, time_taken, submitted_at, question_index
		 FROM answers WHERE session_id=$1 ORDER BY submitted_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var out []domain.Answer
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.ParticipantID, &a.Value,
			&a.IsCorrect, &a.BasePoints, &a.TimeBonus, &a.TimeTaken, &a.SubmittedAt,
			&a.QuestionIndex); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Scores

func (s *Store) UpsertScore(ctx context.Context, score domain.Score) error {
	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scores (id, session_id, participant_id, total_score, questions_answered, correct_answers)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (session_id, participant_id) DO UPDATE SET
		   total_score=EXCLUDED.total_score,
		   questions_answered=EXCLUDED.questions_answered,
		   correct_answers=EXCLUDED.correct_answers`,
		score.ID, score.SessionID, score.ParticipantID, score.TotalScore,
		score.QuestionsAnswered, score.CorrectAnswers)
	if err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

func (s *Store) ListScores(ctx context.Context, sessionID string) ([]domain.Score, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, participant_id, total_score, questions_answered, correct_answers
		 FROM scores WHERE session_id=$1 ORDER BY total_score DESC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	var out []domain.Score
	for rows.Next() {
		var sc domain.Score
		if err := rows.Scan(&sc.ID, &sc.SessionID, &sc.ParticipantID, &sc.TotalScore,
			&sc.QuestionsAnswered, &sc.CorrectAnswers); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Quizzes and questions

func (s *Store) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quizzes (id, name, owner_ids) VALUES ($1, $2, $3)`,
		quiz.ID, quiz.Name, quiz.OwnerIDs)
	if err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	return nil
}

func (s *Store) FindQuiz(ctx context.Context, id string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.pool.QueryRow(ctx, `SELECT id, name, owner_ids FROM quizzes WHERE id=$1`, id).
		Scan(&quiz.ID, &quiz.Name, &quiz.OwnerIDs)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("find quiz: %w", err)
	}
	return quiz, nil
}

func (s *Store) ListQuizzesByOwner(ctx context.Context, userID string) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, owner_ids FROM quizzes WHERE $1 = ANY(owner_ids) ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var out []domain.Quiz
	for rows.Next() {
		var quiz domain.Quiz
		if err := rows.Scan(&quiz.ID, &quiz.Name, &quiz.OwnerIDs); err != nil {
			return nil, err
		}
		out = append(out, quiz)
	}
	return out, rows.Err()
}

func (s *Store) CreateQuestion(ctx context.Context, question *domain.Question) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO questions (id, quiz_id, name, text, media_kind, media_url, answer_kind, options, correct_answer, position)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		question.ID, question.QuizID, question.Name, question.Text, string(question.MediaKind),
		question.MediaURL, string(question.AnswerKind), question.Options, question.CorrectAnswer,
		question.Position)
	if err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

func (s *Store) UpdateQuestion(ctx context.Context, question domain.Question) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE questions SET name=$2, text=$3, media_kind=$4, media_url=$5, answer_kind=$6,
		        options=$7, correct_answer=$8, position=$9
		 WHERE id=$1`,
		question.ID, question.Name, question.Text, string(question.MediaKind), question.MediaURL,
		string(question.AnswerKind), question.Options, question.CorrectAnswer, question.Position)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

func (s *Store) FindQuestionByID(ctx context.Context, id string) (domain.Question, error) {
	var q domain.Question
	var mediaKind, answerKind string
	err := s.pool.QueryRow(ctx,
		`SELECT id, quiz_id, name, text, media_kind, media_url, answer_kind, options, correct_answer, position
		 FROM questions WHERE id=$1`, id).
		Scan(&q.ID, &q.QuizID, &q.Name, &q.Text, &mediaKind, &q.MediaURL, &answerKind,
			&q.Options, &q.CorrectAnswer, &q.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("find question: %w", err)
	}
	q.MediaKind = domain.MediaKind(mediaKind)
	q.AnswerKind = domain.AnswerKind(answerKind)
	return q, nil
}

// LoadQuestions implements the question-cache loader, ordered by position.
func (s *Store) LoadQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, quiz_id, name, text, media_kind, media_url, answer_kind, options, correct_answer, position
		 FROM questions WHERE quiz_id=$1 ORDER BY position`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var q domain.Question
		var mediaKind, answerKind string
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Name, &q.Text, &mediaKind, &q.MediaURL,
			&answerKind, &q.Options, &q.CorrectAnswer, &q.Position); err != nil {
			return nil, err
		}
		q.MediaKind = domain.MediaKind(mediaKind)
		q.AnswerKind = domain.AnswerKind(answerKind)
		out = append(out, q)
	}
	return out, rows.Err()
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Name, user.Email, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash FROM users WHERE email=$1`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}
