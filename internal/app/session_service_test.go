package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"pubquiz-service/internal/app"
	"pubquiz-service/internal/domain"
	"pubquiz-service/internal/infra/memory"
)

func TestCreateAndJoinSession(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	session, err := service.CreateSession(ctx, "host-1", "quiz-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.Status != domain.StatusWaiting {
		t.Fatalf("expected Waiting, got %s", session.Status)
	}
	if session.Code == "" {
		t.Fatalf("expected a join code")
	}

	alice, err := service.Join(ctx, session.Code, "Alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if alice.SessionID != session.ID {
		t.Fatalf("participant bound to wrong session: %s", alice.SessionID)
	}

	list, err := service.Participants(ctx, session.Code)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Alice" {
		t.Fatalf("expected Alice on the list, got %+v", list)
	}
}

func TestCreateSessionRequiresKnownQuiz(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	if _, err := service.CreateSession(ctx, "host-1", "no-such-quiz"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestLifecycleIsHostGatedAndLinear(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)
	session, _ := service.CreateSession(ctx, "host-1", "quiz-1")

	if _, err := service.UpdateStatus(ctx, session.Code, "intruder", domain.StatusActive); !errors.Is(err, domain.ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if _, err := service.UpdateStatus(ctx, session.Code, "host-1", domain.StatusCompleted); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected skip rejected, got %v", err)
	}

	started, err := service.UpdateStatus(ctx, session.Code, "host-1", domain.StatusActive)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.StartedAt == nil {
		t.Fatalf("expected StartedAt set")
	}

	if _, err := service.UpdateStatus(ctx, session.Code, "host-1", domain.StatusWaiting); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected backward rejected, got %v", err)
	}

	ended, err := service.UpdateStatus(ctx, session.Code, "host-1", domain.StatusCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if ended.EndedAt == nil {
		t.Fatalf("expected EndedAt set")
	}
	if _, err := service.UpdateStatus(ctx, session.Code, "host-1", domain.StatusActive); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected terminal state final, got %v", err)
	}
}

func TestAdvanceQuestionMonotonic(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)
	session, _ := service.CreateSession(ctx, "host-1", "quiz-1")

	if _, err := service.AdvanceQuestion(ctx, session.Code, "host-1", 1); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected rejection while Waiting, got %v", err)
	}

	_, _ = service.UpdateStatus(ctx, session.Code, "host-1", domain.StatusActive)
	if _, err := service.AdvanceQuestion(ctx, session.Code, "host-1", 2); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := service.AdvanceQuestion(ctx, session.Code, "host-1", 1); !errors.Is(err, domain.ErrQuestionRegression) {
		t.Fatalf("expected regression rejected, got %v", err)
	}
	if _, err := service.AdvanceQuestion(ctx, session.Code, "intruder", 3); !errors.Is(err, domain.ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
}

func TestSubmitAnswerScoresAndOverwrites(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)
	session, _ := service.CreateSession(ctx, "host-1", "quiz-1")
	alice, _ := service.Join(ctx, session.Code, "Alice")
	_, _ = service.UpdateStatus(ctx, session.Code, "host-1", domain.StatusActive)

	first, err := service.SubmitAnswer(ctx, app.Submission{
		SessionCode:   session.Code,
		QuestionID:    "q-mc",
		ParticipantID: alice.ID,
		Answer:        " b ",
		TimeTaken:     3,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !first.IsCorrect || first.BasePoints != 10 || first.TimeBonus != 5 || first.TotalPoints != 15 {
		t.Fatalf("unexpected result %+v", first)
	}

	// Resubmission overwrites: still one row for the triple.
	second, err := service.SubmitAnswer(ctx, app.Submission{
		SessionCode:   session.Code,
		QuestionID:    "q-mc",
		ParticipantID: alice.ID,
		Answer:        "A",
		TimeTaken:     5,
	})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if second.IsCorrect || second.TotalPoints != 0 {
		t.Fatalf("expected wrong answer, got %+v", second)
	}

	answers, _ := store.ListAnswers(ctx, session.ID)
	if len(answers) != 1 {
		t.Fatalf("expected 1 answer row after resubmission, got %d", len(answers))
	}
	if answers[0].Value != "A" {
		t.Fatalf("expected last write to win, got %q", answers[0].Value)
	}

	scores, _ := store.ListScores(ctx, session.ID)
	if len(scores) != 1 || scores[0].TotalScore != 0 || scores[0].QuestionsAnswered != 1 {
		t.Fatalf("expected refreshed snapshot, got %+v", scores)
	}
}

func TestSubmitAnswerEstimationScenario(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)
	session, _ := service.CreateSession(ctx, "host-1", "quiz-1")
	alice, _ := service.Join(ctx, session.Code, "Alice")
	bob, _ := service.Join(ctx, session.Code, "Bob")
	_, _ = service.UpdateStatus(ctx, session.Code, "host-1", domain.StatusActive)

	// B is 40% off in 2s: incorrect, no points, and his time must not count
	// toward the bonus ranking.
	resB, err := service.SubmitAnswer(ctx, app.Submission{
		SessionCode: session.Code, QuestionID: "q-est", ParticipantID: bob.ID, Answer: "140", TimeTaken: 2,
	})
	if err != nil {
		t.Fatalf("submit B: %v", err)
	}
	if resB.IsCorrect || resB.TotalPoints != 0 {
		t.Fatalf("expected B incorrect, got %+v", resB)
	}

	// A is 5% off in 4s: base 8, rank 1 among correct answers, bonus 5.
	resA, err := service.SubmitAnswer(ctx, app.Submission{
		SessionCode: session.Code, QuestionID: "q-est", ParticipantID: alice.ID, Answer: "95", TimeTaken: 4,
	})
	if err != nil {
		t.Fatalf("submit A: %v", err)
	}
	if !resA.IsCorrect || resA.BasePoints != 8 || resA.TimeBonus != 5 || resA.TotalPoints != 13 {
		t.Fatalf("unexpected result for A: %+v", resA)
	}

	board, err := service.Leaderboard(ctx, session.Code)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(board))
	}
	if board[0].ParticipantID != alice.ID || board[0].TotalScore != 13 || board[0].Rank != 1 {
		t.Fatalf("expected Alice leading with 13, got %+v", board[0])
	}
	if board[1].ParticipantID != bob.ID || board[1].TotalScore != 0 || board[1].Rank != 2 {
		t.Fatalf("expected Bob at 0, got %+v", board[1])
	}
}

func TestSubmitAnswerRejectedWhenCompleted(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)
	session, _ := service.CreateSession(ctx, "host-1", "quiz-1")
	alice, _ := service.Join(ctx, session.Code, "Alice")
	_, _ = service.UpdateStatus(ctx, session.Code, "host-1", domain.StatusActive)
	_, _ = service.UpdateStatus(ctx, session.Code, "host-1", domain.StatusCompleted)

	_, err := service.SubmitAnswer(ctx, app.Submission{
		SessionCode: session.Code, QuestionID: "q-mc", ParticipantID: alice.ID, Answer: "B", TimeTaken: 1,
	})
	if !errors.Is(err, domain.ErrSessionCompleted) {
		t.Fatalf("expected ErrSessionCompleted, got %v", err)
	}
}

func TestSubmitAnswerValidation(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	if _, err := service.SubmitAnswer(ctx, app.Submission{QuestionID: "q-mc"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := service.SubmitAnswer(ctx, app.Submission{
		SessionCode: "NOPE", QuestionID: "q-mc", ParticipantID: "p", Answer: "A",
	}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestLeaderboardIdempotentAndTiesSequential(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)
	session, _ := service.CreateSession(ctx, "host-1", "quiz-1")
	alice, _ := service.Join(ctx, session.Code, "Alice")
	bob, _ := service.Join(ctx, session.Code, "Bob")
	_, _ = service.UpdateStatus(ctx, session.Code, "host-1", domain.StatusActive)

	// Both wrong: tied at zero.
	_, _ = service.SubmitAnswer(ctx, app.Submission{SessionCode: session.Code, QuestionID: "q-mc", ParticipantID: alice.ID, Answer: "C", TimeTaken: 2})
	_, _ = service.SubmitAnswer(ctx, app.Submission{SessionCode: session.Code, QuestionID: "q-mc", ParticipantID: bob.ID, Answer: "D", TimeTaken: 3})

	first, err := service.Leaderboard(ctx, session.Code)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	second, err := service.Leaderboard(ctx, session.Code)
	if err != nil {
		t.Fatalf("leaderboard 2: %v", err)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 entries, got %d/%d", len(first), len(second))
	}
	// Ties get distinct sequential ranks, stable across recomputation.
	if first[0].Rank != 1 || first[1].Rank != 2 {
		t.Fatalf("expected sequential ranks, got %+v", first)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("expected idempotent recomputation, %+v vs %+v", first[i], second[i])
		}
	}
}

func newTestService(t *testing.T) (*app.SessionService, *memory.Store) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	if err := store.CreateQuiz(ctx, &domain.Quiz{ID: "quiz-1", Name: "Pub Night", OwnerIDs: []string{"host-1"}}); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	questions := []domain.Question{
		{
			ID: "q-mc", QuizID: "quiz-1", Text: "Capital of France?",
			MediaKind: domain.MediaText, AnswerKind: domain.AnswerMultipleChoice,
			Options: []string{"London", "Paris", "Rome", "Berlin"}, CorrectAnswer: "B", Position: 0,
		},
		{
			ID: "q-est", QuizID: "quiz-1", Text: "How many marbles are in the jar?",
			MediaKind: domain.MediaText, AnswerKind: domain.AnswerEstimation,
			CorrectAnswer: "100", Position: 1,
		},
	}
	for i := range questions {
		if err := store.CreateQuestion(ctx, &questions[i]); err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}

	cache := memory.NewQuestionCache(store, 5*time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return app.NewSessionService(store, store, store, store, cache, store, logger), store
}
