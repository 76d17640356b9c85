package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"
	"github.com/squizzy-server/internal/config"
	"github.com/squizzy-server/internal/domain"
)

func newTestService(store Store, cache Cache) *Service {
	return NewService(store, cache, config.DefaultConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSubmitAnswerAwardsFullPoints(t *testing.T) {
	fx := newFixture()
	fx.join("p1", "Alice")

	answer, err := fx.submit("p1", fx.question.ID, fx.right)
	if err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if !answer.IsCorrect || answer.PointsEarned != 100 {
		t.Fatalf("expected correct answer worth 100, got %+v", answer)
	}
	if got := fx.score("p1"); got != 100 {
		t.Fatalf("expected score 100, got %d", got)
	}
	if fx.cache.scores[fx.match.ID]["p1"] != 100 {
		t.Fatalf("expected cached score 100, got %d", fx.cache.scores[fx.match.ID]["p1"])
	}
}

func TestSubmitWrongAnswerAwardsNothing(t *testing.T) {
	fx := newFixture()
	fx.join("p1", "Alice")

	answer, err := fx.submit("p1", fx.question.ID, fx.wrong)
	if err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if answer.IsCorrect || answer.PointsEarned != 0 {
		t.Fatalf("expected wrong answer worth 0, got %+v", answer)
	}
	if got := fx.score("p1"); got != 0 {
		t.Fatalf("expected score 0, got %d", got)
	}
}

func TestResubmitSameAnswerIsIdempotent(t *testing.T) {
	fx := newFixture()
	fx.join("p1", "Alice")

	for i := 0; i < 3; i++ {
		if _, err := fx.submit("p1", fx.question.ID, fx.right); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if got := fx.score("p1"); got != 100 {
		t.Fatalf("expected score 100 after resubmissions, got %d", got)
	}
	answers, _ := fx.store.ListMatchAnswers(context.Background(), fx.match.ID)
	if len(answers) != 1 {
		t.Fatalf("expected one answer row, got %d", len(answers))
	}
	// Only the first submission moved the score, so only one cache write
	// beyond the join-time seed.
	if fx.cache.adjustCalls != 2 {
		t.Fatalf("expected 2 cache adjustments (join + first score), got %d", fx.cache.adjustCalls)
	}
}

func TestChangedAnswerMovesScoreByDelta(t *testing.T) {
	fx := newFixture()
	fx.join("p1", "Alice")

	if _, err := fx.submit("p1", fx.question.ID, fx.wrong); err != nil {
		t.Fatalf("submit wrong: %v", err)
	}
	if got := fx.score("p1"); got != 0 {
		t.Fatalf("after wrong: expected 0, got %d", got)
	}

	if _, err := fx.submit("p1", fx.question.ID, fx.right); err != nil {
		t.Fatalf("correct to right: %v", err)
	}
	if got := fx.score("p1"); got != 100 {
		t.Fatalf("after correction: expected 100, got %d", got)
	}

	if _, err := fx.submit("p1", fx.question.ID, fx.wrong); err != nil {
		t.Fatalf("back to wrong: %v", err)
	}
	if got := fx.score("p1"); got != 0 {
		t.Fatalf("after flip-flop: expected net 0, got %d", got)
	}
	if fx.cache.scores[fx.match.ID]["p1"] != 0 {
		t.Fatalf("expected cached score back at 0, got %d", fx.cache.scores[fx.match.ID]["p1"])
	}
}

func TestMismatchedChoiceRejected(t *testing.T) {
	fx := newFixture()
	fx.join("p1", "Alice")

	other := &domain.Question{
		ID:     uuid.NewString(),
		QuizID: fx.question.QuizID,
		Points: 100,
		Choices: []domain.Choice{
			{ID: uuid.NewString(), ChoiceText: "Stockholm", IsCorrect: true},
		},
	}
	fx.store.questions[other.ID] = other

	// A real choice, but paired with the wrong question.
	_, err := fx.submit("p1", fx.question.ID, other.Choices[0].ID)
	if !errors.Is(err, domain.ErrInvalidChoice) {
		t.Fatalf("expected ErrInvalidChoice, got %v", err)
	}
	if got := fx.score("p1"); got != 0 {
		t.Fatalf("rejected submission must not move the score, got %d", got)
	}
	answers, _ := fx.store.ListMatchAnswers(context.Background(), fx.match.ID)
	if len(answers) != 0 {
		t.Fatalf("rejected submission must not record an answer, got %d", len(answers))
	}
}

func TestPlayersScoreIndependently(t *testing.T) {
	fx := newFixture()
	fx.join("p1", "Alice")
	fx.join("p2", "Bob")

	if _, err := fx.submit("p1", fx.question.ID, fx.right); err != nil {
		t.Fatalf("p1 submit: %v", err)
	}
	if _, err := fx.submit("p2", fx.question.ID, fx.wrong); err != nil {
		t.Fatalf("p2 submit: %v", err)
	}

	if got := fx.score("p1"); got != 100 {
		t.Fatalf("expected p1 at 100, got %d", got)
	}
	if got := fx.score("p2"); got != 0 {
		t.Fatalf("expected p2 at 0, got %d", got)
	}

	// p2 changing their answer never touches p1.
	if _, err := fx.submit("p2", fx.question.ID, fx.right); err != nil {
		t.Fatalf("p2 correction: %v", err)
	}
	if got := fx.score("p1"); got != 100 {
		t.Fatalf("p1 moved by p2's correction: %d", got)
	}
	if got := fx.score("p2"); got != 100 {
		t.Fatalf("expected p2 at 100 after correction, got %d", got)
	}
}

func TestSubmitToEndedMatchRejected(t *testing.T) {
	fx := newFixture()
	fx.join("p1", "Alice")

	if _, err := fx.svc.FinishMatch(context.Background(), fx.match.ID); err != nil {
		t.Fatalf("finish match: %v", err)
	}
	_, err := fx.submit("p1", fx.question.ID, fx.right)
	if !errors.Is(err, domain.ErrMatchEnded) {
		t.Fatalf("expected ErrMatchEnded, got %v", err)
	}
}

func TestFailedScoreUpdateLeavesNoAnswer(t *testing.T) {
	fx := newFixture()
	fx.join("p1", "Alice")

	fx.store.failScoreUpdate = true
	if _, err := fx.submit("p1", fx.question.ID, fx.right); err == nil {
		t.Fatal("expected submission to fail")
	}

	answers, _ := fx.store.ListMatchAnswers(context.Background(), fx.match.ID)
	if len(answers) != 0 {
		t.Fatalf("failed submission must not leave an answer, got %d", len(answers))
	}
	if got := fx.score("p1"); got != 0 {
		t.Fatalf("failed submission must not move the score, got %d", got)
	}

	// The same submission succeeds once the store recovers.
	fx.store.failScoreUpdate = false
	if _, err := fx.submit("p1", fx.question.ID, fx.right); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got := fx.score("p1"); got != 100 {
		t.Fatalf("expected 100 after retry, got %d", got)
	}

	// A failed replacement keeps the previously committed answer intact.
	fx.store.failScoreUpdate = true
	if _, err := fx.submit("p1", fx.question.ID, fx.wrong); err == nil {
		t.Fatal("expected replacement to fail")
	}
	answers, _ = fx.store.ListMatchAnswers(context.Background(), fx.match.ID)
	if len(answers) != 1 || answers[0].ChoiceID != fx.right {
		t.Fatalf("failed replacement must keep the prior answer, got %+v", answers)
	}
	if got := fx.score("p1"); got != 100 {
		t.Fatalf("failed replacement must not move the score, got %d", got)
	}
}

func TestSubmitUnknownPlayerRejected(t *testing.T) {
	fx := newFixture()

	_, err := fx.submit("ghost", fx.question.ID, fx.right)
	if !errors.Is(err, domain.ErrParticipantNotFound) {
		t.Fatalf("expected ErrParticipantNotFound, got %v", err)
	}
}

func TestSubmitValidation(t *testing.T) {
	fx := newFixture()

	_, err := fx.svc.SubmitAnswer(context.Background(), domain.AnswerSubmission{
		MatchSlug:  fx.match.Slug,
		QuestionID: fx.question.ID,
		ChoiceID:   fx.right,
	})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = fx.svc.SubmitAnswer(context.Background(), domain.AnswerSubmission{
		PlayerID:   "p1",
		MatchSlug:  "no-such-match",
		QuestionID: fx.question.ID,
		ChoiceID:   fx.right,
	})
	if !errors.Is(err, domain.ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound, got %v", err)
	}
}

func TestRejoinKeepsScoreRefreshesName(t *testing.T) {
	fx := newFixture()
	fx.join("p1", "Alice")

	if _, err := fx.submit("p1", fx.question.ID, fx.right); err != nil {
		t.Fatalf("submit: %v", err)
	}

	mp, err := fx.svc.Join(context.Background(), domain.JoinMatchRequest{
		PlayerID:  "p1",
		Name:      "Alicia",
		MatchSlug: fx.match.Slug,
	})
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if mp.Score != 100 {
		t.Fatalf("rejoin must keep the score, got %d", mp.Score)
	}
	if fx.store.players["p1"].Name != "Alicia" {
		t.Fatalf("rejoin must refresh the name, got %q", fx.store.players["p1"].Name)
	}
}

func TestJoinGeneratesPlayerID(t *testing.T) {
	fx := newFixture()

	mp, err := fx.svc.Join(context.Background(), domain.JoinMatchRequest{
		Name:      "Drifter",
		MatchSlug: fx.match.Slug,
	})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if mp.PlayerID == "" {
		t.Fatal("expected a generated player id")
	}
}

func TestJoinEndedMatchRejected(t *testing.T) {
	fx := newFixture()
	if _, err := fx.svc.FinishMatch(context.Background(), fx.match.ID); err != nil {
		t.Fatalf("finish: %v", err)
	}
	_, err := fx.svc.Join(context.Background(), domain.JoinMatchRequest{
		PlayerID:  "p1",
		Name:      "Late",
		MatchSlug: fx.match.Slug,
	})
	if !errors.Is(err, domain.ErrMatchEnded) {
		t.Fatalf("expected ErrMatchEnded, got %v", err)
	}
}

func TestWithdrawRemovesPlayerEverywhere(t *testing.T) {
	fx := newFixture()
	fx.join("p1", "Alice")
	if _, err := fx.submit("p1", fx.question.ID, fx.right); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := fx.svc.Withdraw(context.Background(), fx.match.Slug, "p1"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if _, ok := fx.store.participants[fx.match.ID]["p1"]; ok {
		t.Fatal("expected participation row removed")
	}
	if _, ok := fx.cache.scores[fx.match.ID]["p1"]; ok {
		t.Fatal("expected cached score removed")
	}

	if err := fx.svc.Withdraw(context.Background(), fx.match.Slug, "p1"); !errors.Is(err, domain.ErrParticipantNotFound) {
		t.Fatalf("expected ErrParticipantNotFound on second withdraw, got %v", err)
	}
}

func TestJoinByPIN(t *testing.T) {
	fx := newFixture()

	match, err := fx.svc.JoinByPIN(context.Background(), "1234")
	if err != nil {
		t.Fatalf("join by pin: %v", err)
	}
	if match.Slug != fx.match.Slug {
		t.Fatalf("resolved wrong match: %+v", match)
	}

	if _, err := fx.svc.JoinByPIN(context.Background(), "123"); !errors.Is(err, domain.ErrInvalidPIN) {
		t.Fatalf("expected ErrInvalidPIN for short pin, got %v", err)
	}
	if _, err := fx.svc.JoinByPIN(context.Background(), "9999"); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound for unknown pin, got %v", err)
	}

	// An ended match releases its PIN.
	if _, err := fx.svc.FinishMatch(context.Background(), fx.match.ID); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := fx.svc.JoinByPIN(context.Background(), "1234"); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Fatalf("expected released pin to resolve nothing, got %v", err)
	}
}

func TestMatchDetailsCurrentQuestion(t *testing.T) {
	fx := newFixture()
	fx.join("p1", "Alice")

	details, err := fx.svc.MatchDetails(context.Background(), fx.match.Slug)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if details.CurrentQuestionKey != "" {
		t.Fatalf("match not started, expected no current question, got %q", details.CurrentQuestionKey)
	}

	fx.store.matches[fx.match.ID].CurrentQuestionIndex = 0
	details, err = fx.svc.MatchDetails(context.Background(), fx.match.Slug)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if details.CurrentQuestionKey != fx.question.ID {
		t.Fatalf("expected current question %s, got %q", fx.question.ID, details.CurrentQuestionKey)
	}
	if len(details.Players) != 1 {
		t.Fatalf("expected 1 player in details, got %d", len(details.Players))
	}
}

func TestScoreboardFallsBackToStore(t *testing.T) {
	fx := newFixture()
	fx.join("p1", "Alice")
	fx.join("p2", "Bob")
	if _, err := fx.submit("p1", fx.question.ID, fx.right); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Simulate a cold cache.
	fx.cache.scores = make(map[string]map[string]int)
	fx.cache.names = make(map[string]map[string]string)

	entries, err := fx.svc.Scoreboard(context.Background(), fx.match.Slug)
	if err != nil {
		t.Fatalf("scoreboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].PlayerID != "p1" || entries[0].Score != 100 || entries[0].Rank != 1 {
		t.Fatalf("expected p1 leading with 100, got %+v", entries[0])
	}
	if fx.cache.rebuildCalls != 1 {
		t.Fatalf("expected the fallback to warm the cache, rebuilds=%d", fx.cache.rebuildCalls)
	}
}

func TestLogin(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	svc := newTestService(store, cache)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	store.admins["alice"] = &domain.Admin{ID: "a1", Username: "alice", PasswordHash: string(hash)}

	session, err := svc.Login(ctx, domain.LoginRequest{Username: "alice", Password: "hunter2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Token == "" || session.Username != "alice" {
		t.Fatalf("unexpected session: %+v", session)
	}

	got, err := svc.Authenticate(ctx, session.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.AdminID != "a1" {
		t.Fatalf("unexpected session admin: %+v", got)
	}

	if _, err := svc.Login(ctx, domain.LoginRequest{Username: "alice", Password: "wrong"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.Login(ctx, domain.LoginRequest{Username: "nobody", Password: "hunter2"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	if err := svc.Logout(ctx, session.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Authenticate(ctx, session.Token); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated after logout, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, ""); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated for empty token, got %v", err)
	}
}

func TestSetup(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, newFakeCache())
	ctx := context.Background()

	err := svc.Setup(ctx, domain.SetupRequest{
		AdminUsername:  "root",
		AdminPassword:  "secret",
		LoadSampleData: true,
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	admin, err := store.GetAdminByUsername(ctx, "root")
	if err != nil {
		t.Fatalf("admin not created: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("secret")) != nil {
		t.Fatal("stored hash does not match the password")
	}
	if len(store.quizzes) == 0 || len(store.questions) == 0 {
		t.Fatal("expected sample data to be seeded")
	}

	err = svc.Setup(ctx, domain.SetupRequest{AdminUsername: "root", AdminPassword: "again"})
	if !errors.Is(err, domain.ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestCreateMatchValidation(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	if _, err := fx.svc.CreateMatch(ctx, domain.CreateMatchRequest{QuizID: fx.question.QuizID, Slug: "Bad Slug!"}); !errors.Is(err, domain.ErrInvalidSlug) {
		t.Fatalf("expected ErrInvalidSlug, got %v", err)
	}
	if _, err := fx.svc.CreateMatch(ctx, domain.CreateMatchRequest{QuizID: fx.question.QuizID, Slug: fx.match.Slug}); !errors.Is(err, domain.ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}
	if _, err := fx.svc.CreateMatch(ctx, domain.CreateMatchRequest{QuizID: "nope", Slug: "fresh-slug"}); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}

	match, err := fx.svc.CreateMatch(ctx, domain.CreateMatchRequest{QuizID: fx.question.QuizID, Slug: "fresh-slug"})
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	if !domain.ValidPIN(match.PIN) {
		t.Fatalf("expected a 4-digit pin, got %q", match.PIN)
	}
	if match.PIN == fx.match.PIN {
		t.Fatalf("pin collides with running match: %q", match.PIN)
	}
	if match.Status != domain.MatchStatusWaiting || match.CurrentQuestionIndex != -1 {
		t.Fatalf("expected fresh waiting match, got %+v", match)
	}
}

func TestMatchLifecycle(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	match, err := fx.svc.CreateMatch(ctx, domain.CreateMatchRequest{QuizID: fx.question.QuizID, Slug: "lifecycle"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	started, err := fx.svc.StartMatch(ctx, match.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != domain.MatchStatusInProgress || started.CurrentQuestionIndex != 0 {
		t.Fatalf("unexpected started match: %+v", started)
	}
	if _, err := fx.svc.StartMatch(ctx, match.ID); !errors.Is(err, domain.ErrMatchAlreadyStarted) {
		t.Fatalf("expected ErrMatchAlreadyStarted, got %v", err)
	}

	advanced, err := fx.svc.AdvanceMatch(ctx, match.ID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if advanced.CurrentQuestionIndex != 1 {
		t.Fatalf("expected index 1, got %d", advanced.CurrentQuestionIndex)
	}

	finished, err := fx.svc.FinishMatch(ctx, match.ID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if finished.Status != domain.MatchStatusCompleted || finished.EndedAt == nil {
		t.Fatalf("unexpected finished match: %+v", finished)
	}
}

func TestUpdateMatchSlugChecks(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	other, err := fx.svc.CreateMatch(ctx, domain.CreateMatchRequest{QuizID: fx.question.QuizID, Slug: "other"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	taken := fx.match.Slug
	if _, err := fx.svc.UpdateMatch(ctx, other.ID, domain.UpdateMatchRequest{Slug: &taken}); !errors.Is(err, domain.ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}

	// Re-asserting a match's own slug is not a conflict.
	own := "other"
	if _, err := fx.svc.UpdateMatch(ctx, other.ID, domain.UpdateMatchRequest{Slug: &own}); err != nil {
		t.Fatalf("self-slug update: %v", err)
	}

	if _, err := fx.svc.UpdateMatch(ctx, other.ID, domain.UpdateMatchRequest{}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for empty update, got %v", err)
	}
}

func TestKickPlayer(t *testing.T) {
	fx := newFixture()
	fx.join("p1", "Alice")

	if err := fx.svc.KickPlayer(context.Background(), fx.match.ID, "p1"); err != nil {
		t.Fatalf("kick: %v", err)
	}
	if _, ok := fx.store.participants[fx.match.ID]["p1"]; ok {
		t.Fatal("expected participant removed")
	}
	if err := fx.svc.KickPlayer(context.Background(), fx.match.ID, "p1"); !errors.Is(err, domain.ErrParticipantNotFound) {
		t.Fatalf("expected ErrParticipantNotFound, got %v", err)
	}
}

func TestQuizAndQuestionCRUD(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, newFakeCache())
	ctx := context.Background()

	if _, err := svc.CreateQuiz(ctx, domain.CreateQuizRequest{}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected validation error for empty title, got %v", err)
	}

	quiz, err := svc.CreateQuiz(ctx, domain.CreateQuizRequest{Title: "Flags"})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	question, err := svc.CreateQuestion(ctx, domain.CreateQuestionRequest{
		QuizID:       quiz.ID,
		QuestionText: "Which flag is all red?",
		Choices: []domain.ChoiceInput{
			{ChoiceText: "Morocco"},
			{ChoiceText: "Switzerland"},
		},
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	if question.TimeLimit != domain.DefaultTimeLimit || question.Points != domain.DefaultPoints {
		t.Fatalf("expected defaults applied, got %+v", question)
	}
	if question.OrderIndex != 1 {
		t.Fatalf("expected first question at index 1, got %d", question.OrderIndex)
	}

	second, err := svc.CreateQuestion(ctx, domain.CreateQuestionRequest{
		QuizID:       quiz.ID,
		QuestionText: "Another one",
		Points:       250,
	})
	if err != nil {
		t.Fatalf("create second question: %v", err)
	}
	if second.OrderIndex != 2 || second.Points != 250 {
		t.Fatalf("unexpected second question: %+v", second)
	}

	if _, err := svc.CreateQuestion(ctx, domain.CreateQuestionRequest{QuizID: "nope", QuestionText: "?"}); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}

	_, questions, err := svc.GetQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}

	if err := svc.DeleteQuestion(ctx, question.ID); err != nil {
		t.Fatalf("delete question: %v", err)
	}
	if err := svc.DeleteQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("delete quiz: %v", err)
	}
}

func TestUpdateQuestionReturnsStoredState(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, newFakeCache())
	ctx := context.Background()

	quiz, err := svc.CreateQuiz(ctx, domain.CreateQuizRequest{Title: "Flags"})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	question, err := svc.CreateQuestion(ctx, domain.CreateQuestionRequest{
		QuizID:       quiz.ID,
		QuestionText: "Which flag is all red?",
		Choices: []domain.ChoiceInput{
			{ChoiceText: "Morocco"},
			{ChoiceText: "Switzerland"},
		},
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}

	// An update without a choice list touches only text and scoring; the
	// response still carries the row as stored.
	updated, err := svc.UpdateQuestion(ctx, question.ID, domain.CreateQuestionRequest{
		QuestionText: "Which flag is a solid red field?",
		Points:       250,
	})
	if err != nil {
		t.Fatalf("update question: %v", err)
	}
	if updated.QuizID != quiz.ID {
		t.Fatalf("expected quiz id %s, got %q", quiz.ID, updated.QuizID)
	}
	if updated.OrderIndex != question.OrderIndex {
		t.Fatalf("expected order index %d, got %d", question.OrderIndex, updated.OrderIndex)
	}
	if updated.CreatedAt.IsZero() {
		t.Fatal("expected created_at preserved")
	}
	if len(updated.Choices) != 2 {
		t.Fatalf("expected existing choices retained, got %d", len(updated.Choices))
	}
	if updated.Points != 250 || updated.QuestionText != "Which flag is a solid red field?" {
		t.Fatalf("unexpected updated question: %+v", updated)
	}

	if _, err := svc.UpdateQuestion(ctx, "nope", domain.CreateQuestionRequest{QuestionText: "?"}); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}
