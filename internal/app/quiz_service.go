package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"pubquiz-service/internal/domain"
)

// QuizService is the thin editor surface: quiz and question CRUD with
// ownership checks. Live play never goes through here; it reads questions
// through the cached QuestionBank.
type QuizService struct {
	quizzes    QuizRepository
	invalidate func(ctx context.Context, quizID string)
}

func NewQuizService(quizzes QuizRepository) *QuizService {
	return &QuizService{quizzes: quizzes}
}

// WithInvalidator registers a question-cache invalidation hook called after
// every question write, so live sessions pick up edits on the next load.
func (s *QuizService) WithInvalidator(fn func(ctx context.Context, quizID string)) *QuizService {
	s.invalidate = fn
	return s
}

func (s *QuizService) invalidateQuiz(ctx context.Context, quizID string) {
	if s.invalidate != nil {
		s.invalidate(ctx, quizID)
	}
}

func (s *QuizService) CreateQuiz(ctx context.Context, ownerID, name string) (domain.Quiz, error) {
	if ownerID == "" || name == "" {
		return domain.Quiz{}, fmt.Errorf("%w: owner and name are required", domain.ErrValidation)
	}
	quiz := domain.Quiz{
		ID:       uuid.NewString(),
		Name:     name,
		OwnerIDs: []string{ownerID},
	}
	if err := s.quizzes.CreateQuiz(ctx, &quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

func (s *QuizService) ListQuizzes(ctx context.Context, ownerID string) ([]domain.Quiz, error) {
	return s.quizzes.ListQuizzesByOwner(ctx, ownerID)
}

// PublicQuiz returns the quiz with its questions stripped of correct
// answers, for participant clients.
func (s *QuizService) PublicQuiz(ctx context.Context, quizID string, questions QuestionBank) (domain.Quiz, []domain.Question, error) {
	quiz, err := s.quizzes.FindQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, nil, err
	}
	list, err := questions.ListQuestions(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, nil, err
	}
	public := make([]domain.Question, len(list))
	for i, q := range list {
		public[i] = q.PublicView()
	}
	return quiz, public, nil
}

func (s *QuizService) CreateQuestion(ctx context.Context, ownerID string, question domain.Question) (domain.Question, error) {
	if question.QuizID == "" || question.Text == "" || question.CorrectAnswer == "" {
		return domain.Question{}, fmt.Errorf("%w: quizId, text and correctAnswer are required", domain.ErrValidation)
	}
	if question.AnswerKind == domain.AnswerMultipleChoice && len(question.Options) > 4 {
		return domain.Question{}, fmt.Errorf("%w: at most 4 options", domain.ErrValidation)
	}
	if err := s.requireOwner(ctx, question.QuizID, ownerID); err != nil {
		return domain.Question{}, err
	}

	question.ID = uuid.NewString()
	if question.MediaKind == "" {
		question.MediaKind = domain.MediaText
	}
	if err := s.quizzes.CreateQuestion(ctx, &question); err != nil {
		return domain.Question{}, err
	}
	s.invalidateQuiz(ctx, question.QuizID)
	return question, nil
}

func (s *QuizService) UpdateQuestion(ctx context.Context, ownerID string, question domain.Question) (domain.Question, error) {
	existing, err := s.quizzes.FindQuestionByID(ctx, question.ID)
	if err != nil {
		return domain.Question{}, err
	}
	if err := s.requireOwner(ctx, existing.QuizID, ownerID); err != nil {
		return domain.Question{}, err
	}

	question.QuizID = existing.QuizID
	if err := s.quizzes.UpdateQuestion(ctx, question); err != nil {
		return domain.Question{}, err
	}
	s.invalidateQuiz(ctx, question.QuizID)
	return question, nil
}

func (s *QuizService) DeleteQuestion(ctx context.Context, ownerID, questionID string) error {
	existing, err := s.quizzes.FindQuestionByID(ctx, questionID)
	if err != nil {
		return err
	}
	if err := s.requireOwner(ctx, existing.QuizID, ownerID); err != nil {
		return err
	}
	if err := s.quizzes.DeleteQuestion(ctx, questionID); err != nil {
		return err
	}
	s.invalidateQuiz(ctx, existing.QuizID)
	return nil
}

func (s *QuizService) requireOwner(ctx context.Context, quizID, userID string) error {
	quiz, err := s.quizzes.FindQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	for _, id := range quiz.OwnerIDs {
		if id == userID {
			return nil
		}
	}
	return domain.ErrNotHost
}
