package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/elonfeng/postgrade/pkg/controversy"
	"github.com/elonfeng/postgrade/pkg/score"
)

// ErrNotFound is returned when a scored post does not exist.
var ErrNotFound = errors.New("not found")

// Sources used by the built-in callers. Watched feeds use their own names.
const (
	SourceCLI = "cli"
	SourceAPI = "api"
)

// ScoredPost is one persisted scoring run.
type ScoredPost struct {
	ID          string    `db:"id" json:"id"`
	Source      string    `db:"source" json:"source"`
	ExternalID  string    `db:"external_id" json:"external_id"`
	Author      string    `db:"author" json:"author,omitempty"`
	URL         string    `db:"url" json:"url,omitempty"`
	Text        string    `db:"text" json:"text"`
	Overall     int       `db:"overall" json:"overall"`
	Grade       string    `db:"grade" json:"grade"`
	RiskLevel   string    `db:"risk_level" json:"risk_level"`
	RiskScore   float64   `db:"risk_score" json:"risk_score"`
	ReachLow    int       `db:"reach_low" json:"reach_low"`
	ReachMedian int       `db:"reach_median" json:"reach_median"`
	ReachHigh   int       `db:"reach_high" json:"reach_high"`
	Confidence  float64   `db:"confidence" json:"confidence"`
	ScoredAt    time.Time `db:"scored_at" json:"scored_at"`
	Alerted     bool      `db:"alerted" json:"alerted"`

	BreakdownJSON string                `db:"breakdown" json:"-"`
	Breakdown     score.Breakdown       `db:"-" json:"breakdown"`
	WarningsJSON  string                `db:"warnings" json:"-"`
	Warnings      []controversy.Warning `db:"-" json:"warnings"`
}

// NewScoredPost flattens a score into a row. ID and ScoredAt are filled by SaveScore.
func NewScoredPost(source, externalID, text string, s score.TweetScore) *ScoredPost {
	return &ScoredPost{
		Source:      source,
		ExternalID:  externalID,
		Text:        text,
		Overall:     s.Overall,
		Grade:       string(s.Grade),
		RiskLevel:   string(s.Controversy.RiskLevel),
		RiskScore:   s.Controversy.RiskScore,
		ReachLow:    s.PredictedReach.Low,
		ReachMedian: s.PredictedReach.Median,
		ReachHigh:   s.PredictedReach.High,
		Confidence:  s.PredictedReach.Confidence,
		Breakdown:   s.Breakdown,
		Warnings:    s.Controversy.Warnings,
	}
}

// ListOpts controls history listing.
type ListOpts struct {
	Source    string
	Grade     string
	RiskLevel string

	// RiskLevels matches any of the listed levels.
	RiskLevels     []string
	ExcludeSources []string
	Since          time.Time
	Unalerted      bool
	Limit          int
}

// Stats summarizes the history.
type Stats struct {
	Count       int            `json:"count"`
	AvgOverall  float64        `json:"avg_overall"`
	ByGrade     map[string]int `json:"by_grade"`
	ByRiskLevel map[string]int `json:"by_risk_level"`
}

// Store is the persistence interface.
type Store interface {
	SaveScore(ctx context.Context, p *ScoredPost) error
	GetScore(ctx context.Context, id string) (*ScoredPost, error)
	Seen(ctx context.Context, source, externalID string) (bool, error)
	ListScores(ctx context.Context, opts ListOpts) ([]ScoredPost, error)
	Stats(ctx context.Context) (*Stats, error)
	MarkAlerted(ctx context.Context, id string) error

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveScore inserts a post, or refreshes the score of an already stored
// (source, external_id). On return p.ID is the stored row's id.
func (s *SQLiteStore) SaveScore(ctx context.Context, p *ScoredPost) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Source == "" {
		p.Source = SourceCLI
	}
	if p.ExternalID == "" {
		p.ExternalID = p.ID
	}
	if p.ScoredAt.IsZero() {
		p.ScoredAt = s.now()
	}
	p.ScoredAt = p.ScoredAt.UTC()
	if p.Warnings == nil {
		p.Warnings = []controversy.Warning{}
	}

	breakdownJSON, _ := json.Marshal(p.Breakdown)
	warningsJSON, _ := json.Marshal(p.Warnings)
	p.BreakdownJSON = string(breakdownJSON)
	p.WarningsJSON = string(warningsJSON)

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO scored_posts (id, source, external_id, author, url, text, overall, grade, risk_level, risk_score,
			reach_low, reach_median, reach_high, confidence, breakdown, warnings, scored_at, alerted)
		VALUES (:id, :source, :external_id, :author, :url, :text, :overall, :grade, :risk_level, :risk_score,
			:reach_low, :reach_median, :reach_high, :confidence, :breakdown, :warnings, :scored_at, :alerted)
		ON CONFLICT(source, external_id) DO UPDATE SET
			text = excluded.text,
			overall = excluded.overall,
			grade = excluded.grade,
			risk_level = excluded.risk_level,
			risk_score = excluded.risk_score,
			reach_low = excluded.reach_low,
			reach_median = excluded.reach_median,
			reach_high = excluded.reach_high,
			confidence = excluded.confidence,
			breakdown = excluded.breakdown,
			warnings = excluded.warnings,
			scored_at = excluded.scored_at
	`, p)
	if err != nil {
		return fmt.Errorf("save score %s/%s: %w", p.Source, p.ExternalID, err)
	}

	if err := s.db.GetContext(ctx, &p.ID,
		"SELECT id FROM scored_posts WHERE source = ? AND external_id = ?", p.Source, p.ExternalID); err != nil {
		return fmt.Errorf("resolve id %s/%s: %w", p.Source, p.ExternalID, err)
	}
	return nil
}

func (s *SQLiteStore) GetScore(ctx context.Context, id string) (*ScoredPost, error) {
	var p ScoredPost
	err := s.db.GetContext(ctx, &p, "SELECT * FROM scored_posts WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get score %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get score %s: %w", id, err)
	}
	p.decode()
	return &p, nil
}

// Seen reports whether a watched post was already scored.
func (s *SQLiteStore) Seen(ctx context.Context, source, externalID string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM scored_posts WHERE source = ? AND external_id = ?", source, externalID)
	if err != nil {
		return false, fmt.Errorf("check seen %s/%s: %w", source, externalID, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListScores(ctx context.Context, opts ListOpts) ([]ScoredPost, error) {
	query := "SELECT * FROM scored_posts WHERE 1=1"
	var args []any

	if opts.Source != "" {
		query += " AND source = ?"
		args = append(args, opts.Source)
	}
	if opts.Grade != "" {
		query += " AND grade = ?"
		args = append(args, opts.Grade)
	}
	if opts.RiskLevel != "" {
		query += " AND risk_level = ?"
		args = append(args, opts.RiskLevel)
	}
	if len(opts.RiskLevels) > 0 {
		query += " AND risk_level IN (" + placeholders(len(opts.RiskLevels)) + ")"
		for _, l := range opts.RiskLevels {
			args = append(args, l)
		}
	}
	if len(opts.ExcludeSources) > 0 {
		query += " AND source NOT IN (" + placeholders(len(opts.ExcludeSources)) + ")"
		for _, src := range opts.ExcludeSources {
			args = append(args, src)
		}
	}
	if !opts.Since.IsZero() {
		query += " AND scored_at >= ?"
		args = append(args, opts.Since.UTC())
	}
	if opts.Unalerted {
		query += " AND alerted = 0"
	}

	query += " ORDER BY scored_at DESC, id"

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ?"
	args = append(args, limit)

	posts := []ScoredPost{}
	if err := s.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}

	for i := range posts {
		posts[i].decode()
	}
	return posts, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{ByGrade: map[string]int{}, ByRiskLevel: map[string]int{}}

	var avg sql.NullFloat64
	row := s.db.QueryRowxContext(ctx, "SELECT COUNT(*), AVG(overall) FROM scored_posts")
	if err := row.Scan(&st.Count, &avg); err != nil {
		return nil, fmt.Errorf("stats totals: %w", err)
	}
	st.AvgOverall = avg.Float64

	if err := s.countBy(ctx, "grade", st.ByGrade); err != nil {
		return nil, err
	}
	if err := s.countBy(ctx, "risk_level", st.ByRiskLevel); err != nil {
		return nil, err
	}
	return st, nil
}

// countBy fills into with row counts grouped by column. column is never user input.
func (s *SQLiteStore) countBy(ctx context.Context, column string, into map[string]int) error {
	rows, err := s.db.QueryxContext(ctx, "SELECT "+column+", COUNT(*) FROM scored_posts GROUP BY "+column)
	if err != nil {
		return fmt.Errorf("count by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var cnt int
		if err := rows.Scan(&key, &cnt); err != nil {
			return err
		}
		into[key] = cnt
	}
	return rows.Err()
}

func (s *SQLiteStore) MarkAlerted(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE scored_posts SET alerted = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark alerted %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark alerted %s: %w", id, ErrNotFound)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func (p *ScoredPost) decode() {
	json.Unmarshal([]byte(p.BreakdownJSON), &p.Breakdown)
	json.Unmarshal([]byte(p.WarningsJSON), &p.Warnings)
	if p.Warnings == nil {
		p.Warnings = []controversy.Warning{}
	}
}
