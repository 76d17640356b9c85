package domain

import "time"

// Quiz is a titled collection of questions an admin can host matches for.
type Quiz struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// QuestionCount is populated by list queries only.
	QuestionCount int `json:"question_count,omitempty"`
}

// Question belongs to a quiz. Points are awarded in full for a correct
// answer, never partially. TimeLimit is advisory; the server does not
// reject late submissions based on it.
type Question struct {
	ID           string    `json:"id"`
	QuizID       string    `json:"quiz_id"`
	QuestionText string    `json:"question_text"`
	ImageURL     string    `json:"image_url,omitempty"`
	TimeLimit    int       `json:"time_limit"`
	Points       int       `json:"points"`
	OrderIndex   int       `json:"order_index"`
	Choices      []Choice  `json:"choices,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Choice is one possible answer to a question. Exactly one choice per
// question is expected to be correct; that is an authoring concern, not
// enforced here.
type Choice struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	ChoiceText string `json:"choice_text"`
	IsCorrect  bool   `json:"is_correct"`
	OrderIndex int    `json:"order_index"`
}

// Default question attributes applied when the admin omits them.
const (
	DefaultTimeLimit = 20
	DefaultPoints    = 100
)

// CreateQuizRequest is the admin payload for creating or updating a quiz.
type CreateQuizRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// ChoiceInput is one choice in a question create/update payload.
type ChoiceInput struct {
	ChoiceText string `json:"choice_text"`
	IsCorrect  bool   `json:"is_correct"`
}

// CreateQuestionRequest is the admin payload for creating or updating a
// question together with its full choice list. On update the existing
// choices are replaced wholesale.
type CreateQuestionRequest struct {
	QuizID       string        `json:"quiz_id"`
	QuestionText string        `json:"question_text"`
	ImageURL     string        `json:"image_url,omitempty"`
	TimeLimit    int           `json:"time_limit,omitempty"`
	Points       int           `json:"points,omitempty"`
	Choices      []ChoiceInput `json:"choices,omitempty"`
}

// ApplyDefaults fills in the question defaults for omitted fields.
func (r *CreateQuestionRequest) ApplyDefaults() {
	if r.TimeLimit == 0 {
		r.TimeLimit = DefaultTimeLimit
	}
	if r.Points == 0 {
		r.Points = DefaultPoints
	}
}
