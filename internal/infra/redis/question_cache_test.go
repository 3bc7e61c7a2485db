package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"pubquiz-service/internal/domain"
	"pubquiz-service/internal/infra/memory"
)

func TestQuestionCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	store := seededStore(t)
	loader := &countingLoader{QuestionLoader: store}
	cache := NewQuestionCache(client, loader, time.Minute)

	questions, err := cache.ListQuestions(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[0].ID != "q1" || questions[1].ID != "q2" {
		t.Fatalf("expected position order, got %+v", questions)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}

	// Second call should hit redis, loader not incremented.
	_, _ = cache.ListQuestions(context.Background(), "quiz-1")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}

	q, err := cache.FindQuestion(context.Background(), "quiz-1", "q2")
	if err != nil {
		t.Fatalf("find question: %v", err)
	}
	if q.CorrectAnswer != "100" {
		t.Fatalf("expected correct answer cached, got %q", q.CorrectAnswer)
	}
}

func TestQuestionCacheInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	store := seededStore(t)
	loader := &countingLoader{QuestionLoader: store}
	cache := NewQuestionCache(client, loader, time.Minute)

	_, _ = cache.ListQuestions(context.Background(), "quiz-1")
	if !mr.Exists("quiz:quiz-1:questions") {
		t.Fatalf("expected redis hash to be set")
	}

	cache.Invalidate(context.Background(), "quiz-1")
	if mr.Exists("quiz:quiz-1:questions") {
		t.Fatalf("expected redis hash removed")
	}

	_, _ = cache.ListQuestions(context.Background(), "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, calls=%d", loader.calls)
	}
}

type countingLoader struct {
	QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestions(ctx, quizID)
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	if err := store.CreateQuiz(ctx, &domain.Quiz{ID: "quiz-1", Name: "Pub Night", OwnerIDs: []string{"host-1"}}); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	questions := []domain.Question{
		{ID: "q1", QuizID: "quiz-1", Text: "Capital of France?", AnswerKind: domain.AnswerMultipleChoice, Options: []string{"London", "Paris"}, CorrectAnswer: "B", Position: 0},
		{ID: "q2", QuizID: "quiz-1", Text: "How many marbles are in the jar?", AnswerKind: domain.AnswerEstimation, CorrectAnswer: "100", Position: 1},
	}
	for i := range questions {
		if err := store.CreateQuestion(ctx, &questions[i]); err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}
	return store
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
