package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-room-service/internal/domain"
)

// QuestionLoader loads the trivia question pool from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadPool(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT prompt, correct_choice, incorrect_choices FROM trivia_questions`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			prompt    string
			correct   string
			incorrect []string
		)
		if err := rows.Scan(&prompt, &correct, &incorrect); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, domain.Question{
			Prompt:        prompt,
			CorrectChoice: correct,
			Choices:       append([]string{correct}, incorrect...),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, domain.ErrEmptyPool
	}
	return questions, nil
}
