package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/squizzy-server/internal/domain"
)

// fakeStore is an in-memory Store with the same transactional semantics as
// the real repository: a submission either records the answer and applies
// the score delta, or leaves everything untouched.
type fakeStore struct {
	quizzes      map[string]*domain.Quiz
	questions    map[string]*domain.Question
	matches      map[string]*domain.Match
	players      map[string]*domain.Player
	participants map[string]map[string]*domain.MatchPlayer
	answers      map[string]*domain.Answer
	admins       map[string]*domain.Admin

	nextRowID int64

	// failScoreUpdate makes the score increment fail after the answer is
	// already written, so the whole submission has to roll back.
	failScoreUpdate bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		quizzes:      make(map[string]*domain.Quiz),
		questions:    make(map[string]*domain.Question),
		matches:      make(map[string]*domain.Match),
		players:      make(map[string]*domain.Player),
		participants: make(map[string]map[string]*domain.MatchPlayer),
		answers:      make(map[string]*domain.Answer),
		admins:       make(map[string]*domain.Admin),
	}
}

func answerKey(matchID, playerID, questionID string) string {
	return matchID + "|" + playerID + "|" + questionID
}

func (f *fakeStore) Initialized(ctx context.Context) (bool, error) {
	return len(f.admins) > 0, nil
}

func (f *fakeStore) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	quiz.CreatedAt = time.Now()
	quiz.UpdatedAt = quiz.CreatedAt
	copied := *quiz
	f.quizzes[quiz.ID] = &copied
	return nil
}

func (f *fakeStore) GetQuiz(ctx context.Context, quizID string) (*domain.Quiz, error) {
	quiz, ok := f.quizzes[quizID]
	if !ok {
		return nil, domain.ErrQuizNotFound
	}
	copied := *quiz
	return &copied, nil
}

func (f *fakeStore) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var quizzes []domain.Quiz
	for _, q := range f.quizzes {
		quizzes = append(quizzes, *q)
	}
	return quizzes, nil
}

func (f *fakeStore) UpdateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	existing, ok := f.quizzes[quiz.ID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	existing.Title = quiz.Title
	existing.Description = quiz.Description
	existing.ImageURL = quiz.ImageURL
	existing.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) DeleteQuiz(ctx context.Context, quizID string) error {
	if _, ok := f.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(f.quizzes, quizID)
	return nil
}

func (f *fakeStore) CreateQuestion(ctx context.Context, question *domain.Question) error {
	order := 0
	for _, q := range f.questions {
		if q.QuizID == question.QuizID && q.OrderIndex > order {
			order = q.OrderIndex
		}
	}
	question.OrderIndex = order + 1
	question.CreatedAt = time.Now()
	copied := *question
	f.questions[question.ID] = &copied
	return nil
}

func (f *fakeStore) GetQuestion(ctx context.Context, questionID string) (*domain.Question, error) {
	question, ok := f.questions[questionID]
	if !ok {
		return nil, domain.ErrQuestionNotFound
	}
	copied := *question
	copied.Choices = append([]domain.Choice(nil), question.Choices...)
	return &copied, nil
}

func (f *fakeStore) UpdateQuestion(ctx context.Context, question *domain.Question) error {
	existing, ok := f.questions[question.ID]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	existing.QuestionText = question.QuestionText
	existing.ImageURL = question.ImageURL
	existing.TimeLimit = question.TimeLimit
	existing.Points = question.Points
	if question.Choices != nil {
		existing.Choices = question.Choices
	}
	return nil
}

func (f *fakeStore) DeleteQuestion(ctx context.Context, questionID string) error {
	if _, ok := f.questions[questionID]; !ok {
		return domain.ErrQuestionNotFound
	}
	delete(f.questions, questionID)
	return nil
}

func (f *fakeStore) ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	var questions []domain.Question
	for _, q := range f.questions {
		if q.QuizID == quizID {
			questions = append(questions, *q)
		}
	}
	sort.Slice(questions, func(i, j int) bool {
		return questions[i].OrderIndex < questions[j].OrderIndex
	})
	return questions, nil
}

func (f *fakeStore) CreateMatch(ctx context.Context, match *domain.Match) error {
	match.Status = domain.MatchStatusWaiting
	match.CurrentQuestionIndex = -1
	match.CreatedAt = time.Now()
	copied := *match
	f.matches[match.ID] = &copied
	return nil
}

func (f *fakeStore) GetMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	match, ok := f.matches[matchID]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	copied := *match
	return &copied, nil
}

func (f *fakeStore) GetMatchBySlug(ctx context.Context, slug string) (*domain.Match, error) {
	for _, m := range f.matches {
		if m.Slug == slug {
			copied := *m
			return &copied, nil
		}
	}
	return nil, &domain.UnknownMatchError{Slug: slug}
}

func (f *fakeStore) FindMatchByPIN(ctx context.Context, pin string) (*domain.Match, error) {
	for _, m := range f.matches {
		if m.PIN == pin && m.EndedAt == nil {
			copied := *m
			return &copied, nil
		}
	}
	return nil, domain.ErrMatchNotFound
}

func (f *fakeStore) PINInUse(ctx context.Context, pin string) (bool, error) {
	for _, m := range f.matches {
		if m.PIN == pin && m.EndedAt == nil {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) SlugInUse(ctx context.Context, slug, excludeID string) (bool, error) {
	for _, m := range f.matches {
		if m.Slug == slug && m.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListMatches(ctx context.Context) ([]domain.Match, error) {
	var matches []domain.Match
	for _, m := range f.matches {
		matches = append(matches, *m)
	}
	return matches, nil
}

func (f *fakeStore) UpdateMatch(ctx context.Context, matchID string, req domain.UpdateMatchRequest) (*domain.Match, error) {
	match, ok := f.matches[matchID]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	if req.Slug == nil && req.QuizID == nil && req.Status == nil {
		return nil, domain.ErrInvalidRequest
	}
	if req.Slug != nil {
		match.Slug = *req.Slug
	}
	if req.QuizID != nil {
		match.QuizID = *req.QuizID
	}
	if req.Status != nil {
		match.Status = *req.Status
	}
	copied := *match
	return &copied, nil
}

func (f *fakeStore) DeleteMatch(ctx context.Context, matchID string) error {
	if _, ok := f.matches[matchID]; !ok {
		return domain.ErrMatchNotFound
	}
	delete(f.matches, matchID)
	delete(f.participants, matchID)
	return nil
}

func (f *fakeStore) StartMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	match, ok := f.matches[matchID]
	if !ok || match.StartedAt != nil || match.EndedAt != nil {
		return nil, domain.ErrMatchAlreadyStarted
	}
	now := time.Now()
	match.StartedAt = &now
	match.CurrentQuestionIndex = 0
	match.Status = domain.MatchStatusInProgress
	copied := *match
	return &copied, nil
}

func (f *fakeStore) AdvanceMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	match, ok := f.matches[matchID]
	if !ok || match.Status != domain.MatchStatusInProgress {
		return nil, domain.ErrMatchNotFound
	}
	match.CurrentQuestionIndex++
	copied := *match
	return &copied, nil
}

func (f *fakeStore) FinishMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	match, ok := f.matches[matchID]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	now := time.Now()
	match.EndedAt = &now
	match.Status = domain.MatchStatusCompleted
	copied := *match
	return &copied, nil
}

func (f *fakeStore) UpsertPlayer(ctx context.Context, player *domain.Player) error {
	existing, ok := f.players[player.ID]
	if ok {
		existing.Name = player.Name
		existing.UpdatedAt = time.Now()
		player.CreatedAt = existing.CreatedAt
		return nil
	}
	player.CreatedAt = time.Now()
	player.UpdatedAt = player.CreatedAt
	copied := *player
	f.players[player.ID] = &copied
	return nil
}

func (f *fakeStore) EnsureParticipation(ctx context.Context, matchID, playerID string) (*domain.MatchPlayer, error) {
	if f.participants[matchID] == nil {
		f.participants[matchID] = make(map[string]*domain.MatchPlayer)
	}
	mp, ok := f.participants[matchID][playerID]
	if ok {
		mp.JoinedAt = time.Now()
	} else {
		f.nextRowID++
		mp = &domain.MatchPlayer{
			ID:       f.nextRowID,
			MatchID:  matchID,
			PlayerID: playerID,
			JoinedAt: time.Now(),
		}
		f.participants[matchID][playerID] = mp
	}
	copied := *mp
	return &copied, nil
}

func (f *fakeStore) WithdrawPlayer(ctx context.Context, matchID, playerID string) error {
	if _, ok := f.participants[matchID][playerID]; !ok {
		return domain.ErrParticipantNotFound
	}
	delete(f.participants[matchID], playerID)
	return nil
}

func (f *fakeStore) ListMatchPlayers(ctx context.Context, matchID string) ([]domain.MatchPlayer, error) {
	var players []domain.MatchPlayer
	for _, mp := range f.participants[matchID] {
		copied := *mp
		if p, ok := f.players[mp.PlayerID]; ok {
			copied.Name = p.Name
		}
		players = append(players, copied)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})
	return players, nil
}

func (f *fakeStore) SubmitAnswer(ctx context.Context, match *domain.Match, playerID, questionID, choiceID string) (*domain.Answer, int, error) {
	current, ok := f.matches[match.ID]
	if !ok {
		return nil, 0, domain.ErrMatchNotFound
	}
	if current.Status == domain.MatchStatusCompleted {
		return nil, 0, domain.ErrMatchEnded
	}

	question, ok := f.questions[questionID]
	if !ok {
		return nil, 0, domain.ErrInvalidChoice
	}
	var choice *domain.Choice
	for i := range question.Choices {
		if question.Choices[i].ID == choiceID {
			choice = &question.Choices[i]
			break
		}
	}
	if choice == nil {
		return nil, 0, domain.ErrInvalidChoice
	}

	key := answerKey(match.ID, playerID, questionID)
	prev, hadPrev := f.answers[key]
	prevPoints := 0
	if hadPrev {
		prevPoints = prev.PointsEarned
	}
	awarded := domain.AwardedPoints(choice.IsCorrect, question.Points)
	delta := domain.ScoreDelta(awarded, prevPoints)

	mp, ok := f.participants[match.ID][playerID]
	if !ok {
		return nil, 0, domain.ErrParticipantNotFound
	}

	f.nextRowID++
	answer := &domain.Answer{
		ID:           f.nextRowID,
		MatchID:      match.ID,
		PlayerID:     playerID,
		QuestionID:   questionID,
		ChoiceID:     choiceID,
		IsCorrect:    choice.IsCorrect,
		PointsEarned: awarded,
		SubmittedAt:  time.Now(),
	}
	f.answers[key] = answer

	// The score write is the last statement of the real transaction; when
	// it dies the already-upserted answer must roll back with it.
	if delta != 0 && f.failScoreUpdate {
		if hadPrev {
			f.answers[key] = prev
		} else {
			delete(f.answers, key)
		}
		return nil, 0, errors.New("applying score delta: connection reset")
	}
	mp.Score += delta

	copied := *answer
	return &copied, delta, nil
}

func (f *fakeStore) ListMatchAnswers(ctx context.Context, matchID string) ([]domain.Answer, error) {
	var answers []domain.Answer
	for _, a := range f.answers {
		if a.MatchID == matchID {
			answers = append(answers, *a)
		}
	}
	return answers, nil
}

func (f *fakeStore) UpsertAdmin(ctx context.Context, admin *domain.Admin) error {
	admin.CreatedAt = time.Now()
	copied := *admin
	f.admins[admin.Username] = &copied
	return nil
}

func (f *fakeStore) GetAdminByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	admin, ok := f.admins[username]
	if !ok {
		return nil, domain.ErrAdminNotFound
	}
	copied := *admin
	return &copied, nil
}

// fakeCache is an in-memory Cache that records how it was used.
type fakeCache struct {
	sessions map[string]*domain.AdminSession
	scores   map[string]map[string]int
	names    map[string]map[string]string

	adjustCalls  int
	rebuildCalls int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		sessions: make(map[string]*domain.AdminSession),
		scores:   make(map[string]map[string]int),
		names:    make(map[string]map[string]string),
	}
}

func (f *fakeCache) SaveSession(ctx context.Context, session *domain.AdminSession, ttl time.Duration) error {
	copied := *session
	f.sessions[session.Token] = &copied
	return nil
}

func (f *fakeCache) GetSession(ctx context.Context, token string) (*domain.AdminSession, error) {
	session, ok := f.sessions[token]
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	copied := *session
	return &copied, nil
}

func (f *fakeCache) DeleteSession(ctx context.Context, token string) error {
	delete(f.sessions, token)
	return nil
}

func (f *fakeCache) AdjustScore(ctx context.Context, matchID, playerID, name string, delta int) error {
	f.adjustCalls++
	if f.scores[matchID] == nil {
		f.scores[matchID] = make(map[string]int)
		f.names[matchID] = make(map[string]string)
	}
	f.scores[matchID][playerID] += delta
	if name != "" {
		f.names[matchID][playerID] = name
	}
	return nil
}

func (f *fakeCache) SetScores(ctx context.Context, matchID string, players []domain.MatchPlayer) error {
	f.rebuildCalls++
	f.scores[matchID] = make(map[string]int)
	f.names[matchID] = make(map[string]string)
	for _, mp := range players {
		f.scores[matchID][mp.PlayerID] = mp.Score
		f.names[matchID][mp.PlayerID] = mp.Name
	}
	return nil
}

func (f *fakeCache) GetScoreboard(ctx context.Context, matchID string) ([]domain.ScoreboardEntry, error) {
	board := f.scores[matchID]
	if len(board) == 0 {
		return nil, nil
	}
	var entries []domain.ScoreboardEntry
	for playerID, score := range board {
		entries = append(entries, domain.ScoreboardEntry{
			PlayerID: playerID,
			Name:     f.names[matchID][playerID],
			Score:    score,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	for i := range entries {
		entries[i].Rank = int64(i + 1)
	}
	return entries, nil
}

func (f *fakeCache) RemoveScoreboardPlayer(ctx context.Context, matchID, playerID string) error {
	delete(f.scores[matchID], playerID)
	delete(f.names[matchID], playerID)
	return nil
}

func (f *fakeCache) DeleteScoreboard(ctx context.Context, matchID string) error {
	delete(f.scores, matchID)
	delete(f.names, matchID)
	return nil
}

// fixture wires a service over fresh fakes with a quiz, one match and a
// single 100-point question whose first choice is correct.
type fixture struct {
	svc   *Service
	store *fakeStore
	cache *fakeCache

	match    *domain.Match
	question *domain.Question
	right    string
	wrong    string
}

func newFixture() *fixture {
	store := newFakeStore()
	cache := newFakeCache()
	svc := newTestService(store, cache)

	quiz := &domain.Quiz{ID: uuid.NewString(), Title: "Capitals"}
	store.quizzes[quiz.ID] = quiz

	question := &domain.Question{
		ID:        uuid.NewString(),
		QuizID:    quiz.ID,
		TimeLimit: domain.DefaultTimeLimit,
		Points:    domain.DefaultPoints,
		Choices: []domain.Choice{
			{ID: uuid.NewString(), ChoiceText: "Oslo", IsCorrect: true},
			{ID: uuid.NewString(), ChoiceText: "Bergen"},
		},
	}
	question.QuestionText = "What is the capital of Norway?"
	store.questions[question.ID] = question

	match := &domain.Match{
		ID:     uuid.NewString(),
		Slug:   "capitals-night",
		PIN:    "1234",
		QuizID: quiz.ID,
		Status: domain.MatchStatusInProgress,

		CurrentQuestionIndex: -1,
	}
	store.matches[match.ID] = match

	return &fixture{
		svc:      svc,
		store:    store,
		cache:    cache,
		match:    match,
		question: question,
		right:    question.Choices[0].ID,
		wrong:    question.Choices[1].ID,
	}
}

func (fx *fixture) join(playerID, name string) {
	_, err := fx.svc.Join(context.Background(), domain.JoinMatchRequest{
		PlayerID:  playerID,
		Name:      name,
		MatchSlug: fx.match.Slug,
	})
	if err != nil {
		panic(fmt.Sprintf("fixture join: %v", err))
	}
}

func (fx *fixture) score(playerID string) int {
	return fx.store.participants[fx.match.ID][playerID].Score
}

func (fx *fixture) submit(playerID, questionID, choiceID string) (*domain.Answer, error) {
	return fx.svc.SubmitAnswer(context.Background(), domain.AnswerSubmission{
		PlayerID:   playerID,
		MatchSlug:  fx.match.Slug,
		QuestionID: questionID,
		ChoiceID:   choiceID,
	})
}
