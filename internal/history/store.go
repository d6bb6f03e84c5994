package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"kickform/internal/domain"
)

// ErrNotFound is returned when an entry does not exist.
var ErrNotFound = errors.New("history entry not found")

// defaultListLimit caps List when the caller passes no limit.
const defaultListLimit = 50

// Entry is one saved analysis. List returns summary rows; Get fills
// in the full result document.
type Entry struct {
	ID             string                 `json:"id"`
	CreatedAt      time.Time              `json:"createdAt"`
	VideoName      string                 `json:"videoName"`
	DetectedAction string                 `json:"detectedAction"`
	FormScore      float64                `json:"formScore"`
	Result         *domain.AnalysisResult `json:"result,omitempty"`
}

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	video_name TEXT NOT NULL,
	detected_action TEXT NOT NULL,
	form_score REAL NOT NULL,
	result_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
`

// Store persists successful analyses in a local SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the history database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// OpenForTests opens a store with an injected clock.
func OpenForTests(path string, now func() time.Time) (*Store, error) {
	s, err := Open(path)
	if err != nil {
		return nil, err
	}
	if now != nil {
		s.now = now
	}
	return s, nil
}

// Save records one successful analysis and returns its entry. Refused
// results are never recorded.
func (s *Store) Save(videoName string, result *domain.AnalysisResult) (Entry, error) {
	if result == nil || result.Refused() {
		return Entry{}, fmt.Errorf("only successful analyses are recorded")
	}

	doc, err := json.Marshal(result)
	if err != nil {
		return Entry{}, fmt.Errorf("encode result: %w", err)
	}

	entry := Entry{
		ID:             uuid.NewString(),
		CreatedAt:      s.now().UTC().Truncate(time.Second),
		VideoName:      videoName,
		DetectedAction: result.DetectedAction,
		FormScore:      result.FormScore,
		Result:         result,
	}

	_, err = s.db.Exec(
		`INSERT INTO analyses (id, created_at, video_name, detected_action, form_score, result_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.CreatedAt.Format(time.RFC3339),
		entry.VideoName,
		entry.DetectedAction,
		entry.FormScore,
		string(doc),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert history entry: %w", err)
	}

	return entry, nil
}

// List returns summary entries newest first.
func (s *Store) List(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.Query(
		`SELECT id, created_at, video_name, detected_action, form_score
		 FROM analyses ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var createdAt string
		if err := rows.Scan(&entry.ID, &createdAt, &entry.VideoName, &entry.DetectedAction, &entry.FormScore); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entry.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Get returns one entry with its full result document.
func (s *Store) Get(id string) (Entry, error) {
	var entry Entry
	var createdAt string
	var doc string

	err := s.db.QueryRow(
		`SELECT id, created_at, video_name, detected_action, form_score, result_json
		 FROM analyses WHERE id = ?`,
		id,
	).Scan(&entry.ID, &createdAt, &entry.VideoName, &entry.DetectedAction, &entry.FormScore, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get history entry: %w", err)
	}

	entry.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(doc), &result); err != nil {
		return Entry{}, fmt.Errorf("decode result: %w", err)
	}
	entry.Result = &result

	return entry, nil
}

// Delete removes one entry.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
