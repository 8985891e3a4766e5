package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

type Question struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"userId"`
	SessionID *string   `db:"session_id" json:"sessionId"`
	Channel   *string   `db:"channel" json:"channel"`
	Question  *string   `db:"question" json:"question"`
	Answer    *string   `db:"answer" json:"answer"`
	Ets       *string   `db:"ets" json:"ets"`
	GroupID   *string   `db:"group_id" json:"groupId"`
	Source    *string   `db:"source" json:"source"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// QuestionFilter describes the predicate shared by the count and page
// queries of a listing request. Zero values mean "no restriction".
type QuestionFilter struct {
	Search    string
	UserID    string
	SessionID string
	StartMS   *int64
	EndMS     *int64
}

// apply adds the listing predicate: question and answer must be present,
// plus the optional scope, epoch-bound and search restrictions. The search
// value is bound once and reused across all four comparisons.
func (f QuestionFilter) apply(wb *whereBuilder) {
	wb.add("question IS NOT NULL AND answer IS NOT NULL")

	if f.UserID != "" {
		wb.add("user_id = " + wb.bind(f.UserID))
	}
	if f.SessionID != "" {
		wb.add("session_id = " + wb.bind(f.SessionID))
	}
	if f.StartMS != nil {
		wb.add("CAST(ets AS INTEGER) >= " + wb.bind(*f.StartMS))
	}
	if f.EndMS != nil {
		wb.add("CAST(ets AS INTEGER) <= " + wb.bind(*f.EndMS))
	}
	if f.Search != "" {
		p := wb.bind(f.Search)
		wb.add("(question LIKE '%' || " + p + " || '%'" +
			" OR answer LIKE '%' || " + p + " || '%'" +
			" OR user_id LIKE '%' || " + p + " || '%'" +
			" OR channel LIKE '%' || " + p + " || '%')")
	}
}

const questionColumns = `id, user_id, session_id, channel, question, answer, ets, group_id, source, created_at`

// ListQuestions returns the total number of rows matching the filter and one
// page of them, newest first. Count and page run concurrently; a failure of
// either fails the call.
func (s *storage) ListQuestions(ctx context.Context, f QuestionFilter, page, limit int) (int, []Question, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	var (
		total     int
		questions []Question
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		wb := &whereBuilder{}
		f.apply(wb)
		query := `SELECT COUNT(*) FROM questions` + wb.where()
		if err := s.db.QueryRowContext(ctx, query, wb.args...).Scan(&total); err != nil {
			return fmt.Errorf("error counting questions: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		wb := &whereBuilder{}
		f.apply(wb)
		query := `SELECT ` + questionColumns + ` FROM questions` + wb.where() +
			` ORDER BY created_at DESC LIMIT ` + wb.bind(limit) + ` OFFSET ` + wb.bind(offset)

		rows, err := s.db.QueryContext(ctx, query, wb.args...)
		if err != nil {
			return fmt.Errorf("error querying questions: %w", err)
		}
		defer rows.Close()

		questions = make([]Question, 0, limit)
		for rows.Next() {
			question, err := scanQuestion(rows)
			if err != nil {
				return err
			}
			questions = append(questions, question)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating question rows: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return 0, nil, err
	}

	return total, questions, nil
}

// GetQuestionByID fetches a single row by identifier. Unlike the listing
// queries it does not require question and answer to be present.
func (s *storage) GetQuestionByID(ctx context.Context, id string) (Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = ?`

	row := s.db.QueryRowContext(ctx, query, id)

	var question Question
	err := row.Scan(
		&question.ID,
		&question.UserID,
		&question.SessionID,
		&question.Channel,
		&question.Question,
		&question.Answer,
		&question.Ets,
		&question.GroupID,
		&question.Source,
		&question.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrNotFound
		}
		return Question{}, fmt.Errorf("error getting question: %w", err)
	}

	return question, nil
}

func scanQuestion(rows *sql.Rows) (Question, error) {
	var question Question
	if err := rows.Scan(
		&question.ID,
		&question.UserID,
		&question.SessionID,
		&question.Channel,
		&question.Question,
		&question.Answer,
		&question.Ets,
		&question.GroupID,
		&question.Source,
		&question.CreatedAt,
	); err != nil {
		return Question{}, fmt.Errorf("error scanning question: %w", err)
	}
	return question, nil
}
