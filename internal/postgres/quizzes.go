package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/squizzy-server/internal/domain"
)

// CreateQuiz inserts a new quiz
func (r *Repository) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO quizzes (id, title, description, image_url)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
		RETURNING created_at, updated_at
	`, quiz.ID, quiz.Title, quiz.Description, quiz.ImageURL).Scan(&quiz.CreatedAt, &quiz.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating quiz: %w", err)
	}
	return nil
}

// GetQuiz retrieves a quiz by ID
func (r *Repository) GetQuiz(ctx context.Context, quizID string) (*domain.Quiz, error) {
	var quiz domain.Quiz
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, COALESCE(description, ''), COALESCE(image_url, ''), created_at, updated_at
		FROM quizzes
		WHERE id = $1
	`, quizID).Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.ImageURL, &quiz.CreatedAt, &quiz.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrQuizNotFound
		}
		return nil, fmt.Errorf("getting quiz: %w", err)
	}
	return &quiz, nil
}

// ListQuizzes retrieves all quizzes with their question counts
func (r *Repository) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT q.id, q.title, COALESCE(q.description, ''), COALESCE(q.image_url, ''),
		       q.created_at, q.updated_at, COUNT(qu.id)
		FROM quizzes q
		LEFT JOIN questions qu ON q.id = qu.quiz_id
		GROUP BY q.id
		ORDER BY q.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []domain.Quiz
	for rows.Next() {
		var q domain.Quiz
		err := rows.Scan(&q.ID, &q.Title, &q.Description, &q.ImageURL, &q.CreatedAt, &q.UpdatedAt, &q.QuestionCount)
		if err != nil {
			return nil, fmt.Errorf("scanning quiz: %w", err)
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

// UpdateQuiz updates a quiz's title, description and image
func (r *Repository) UpdateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quizzes
		SET title = $1, description = NULLIF($2, ''), image_url = NULLIF($3, ''),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
	`, quiz.Title, quiz.Description, quiz.ImageURL, quiz.ID)
	if err != nil {
		return fmt.Errorf("updating quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

// DeleteQuiz removes a quiz and, via cascade, its questions and matches
func (r *Repository) DeleteQuiz(ctx context.Context, quizID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, quizID)
	if err != nil {
		return fmt.Errorf("deleting quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

// CreateQuestion inserts a question and its choices in one transaction.
// The question is appended at the end of the quiz's ordering.
func (r *Repository) CreateQuestion(ctx context.Context, question *domain.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(order_index), 0) + 1 FROM questions WHERE quiz_id = $1
	`, question.QuizID).Scan(&question.OrderIndex)
	if err != nil {
		return fmt.Errorf("computing order index: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO questions (id, quiz_id, question_text, image_url, time_limit, points, order_index)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)
		RETURNING created_at
	`, question.ID, question.QuizID, question.QuestionText, question.ImageURL,
		question.TimeLimit, question.Points, question.OrderIndex).Scan(&question.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting question: %w", err)
	}

	if err := insertChoices(ctx, tx, question.ID, question.Choices); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing question: %w", err)
	}
	return nil
}

// UpdateQuestion updates a question and replaces its choices wholesale
// when a choice list is provided.
func (r *Repository) UpdateQuestion(ctx context.Context, question *domain.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE questions
		SET question_text = $1, image_url = NULLIF($2, ''), time_limit = $3, points = $4
		WHERE id = $5
	`, question.QuestionText, question.ImageURL, question.TimeLimit, question.Points, question.ID)
	if err != nil {
		return fmt.Errorf("updating question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}

	if question.Choices != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM choices WHERE question_id = $1`, question.ID); err != nil {
			return fmt.Errorf("clearing choices: %w", err)
		}
		if err := insertChoices(ctx, tx, question.ID, question.Choices); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing question update: %w", err)
	}
	return nil
}

// GetQuestion retrieves a single question with its choices
func (r *Repository) GetQuestion(ctx context.Context, questionID string) (*domain.Question, error) {
	var q domain.Question
	err := r.pool.QueryRow(ctx, `
		SELECT id, quiz_id, question_text, COALESCE(image_url, ''), time_limit, points, order_index, created_at
		FROM questions
		WHERE id = $1
	`, questionID).Scan(&q.ID, &q.QuizID, &q.QuestionText, &q.ImageURL, &q.TimeLimit, &q.Points, &q.OrderIndex, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrQuestionNotFound
		}
		return nil, fmt.Errorf("getting question: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, question_id, choice_text, is_correct, order_index
		FROM choices
		WHERE question_id = $1
		ORDER BY order_index
	`, questionID)
	if err != nil {
		return nil, fmt.Errorf("listing choices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Choice
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.ChoiceText, &c.IsCorrect, &c.OrderIndex); err != nil {
			return nil, fmt.Errorf("scanning choice: %w", err)
		}
		q.Choices = append(q.Choices, c)
	}
	return &q, rows.Err()
}

func insertChoices(ctx context.Context, tx pgx.Tx, questionID string, choices []domain.Choice) error {
	for i, choice := range choices {
		_, err := tx.Exec(ctx, `
			INSERT INTO choices (id, question_id, choice_text, is_correct, order_index)
			VALUES ($1, $2, $3, $4, $5)
		`, choice.ID, questionID, choice.ChoiceText, choice.IsCorrect, i+1)
		if err != nil {
			return fmt.Errorf("inserting choice: %w", err)
		}
	}
	return nil
}

// DeleteQuestion removes a question and its choices
func (r *Repository) DeleteQuestion(ctx context.Context, questionID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, questionID)
	if err != nil {
		return fmt.Errorf("deleting question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// ListQuestions retrieves a quiz's questions with their choices, ordered
func (r *Repository) ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, quiz_id, question_text, COALESCE(image_url, ''), time_limit, points, order_index, created_at
		FROM questions
		WHERE quiz_id = $1
		ORDER BY order_index
	`, quizID)
	if err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	index := make(map[string]int)
	for rows.Next() {
		var q domain.Question
		err := rows.Scan(&q.ID, &q.QuizID, &q.QuestionText, &q.ImageURL, &q.TimeLimit, &q.Points, &q.OrderIndex, &q.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, nil
	}

	choiceRows, err := r.pool.Query(ctx, `
		SELECT c.id, c.question_id, c.choice_text, c.is_correct, c.order_index
		FROM choices c
		JOIN questions q ON c.question_id = q.id
		WHERE q.quiz_id = $1
		ORDER BY c.order_index
	`, quizID)
	if err != nil {
		return nil, fmt.Errorf("listing choices: %w", err)
	}
	defer choiceRows.Close()

	for choiceRows.Next() {
		var c domain.Choice
		err := choiceRows.Scan(&c.ID, &c.QuestionID, &c.ChoiceText, &c.IsCorrect, &c.OrderIndex)
		if err != nil {
			return nil, fmt.Errorf("scanning choice: %w", err)
		}
		if i, ok := index[c.QuestionID]; ok {
			questions[i].Choices = append(questions[i].Choices, c)
		}
	}
	return questions, choiceRows.Err()
}
