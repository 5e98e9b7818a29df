// Package storage provides SQLite-based persistence for high-score
// episodes and per-episode rewards.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/asciigym/internal/config"
	"github.com/vovakirdan/asciigym/internal/replay"
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// ScoreEntry represents a single episode reward.
type ScoreEntry struct {
	ID        int64
	GameID    string
	Agent     string
	Score     float64
	CreatedAt time.Time
}

// EpisodeEntry describes a stored episode without its scenes.
type EpisodeEntry struct {
	ID          int64
	Agent       string
	EpisodeID   string
	GameID      string
	PlayID      int
	TotalReward float64
	Scenes      int
	Truncated   bool
	CreatedAt   time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	dbPath, err := config.ExpandHome(dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id TEXT NOT NULL,
			agent TEXT NOT NULL DEFAULT '',
			score REAL NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_scores_game_id ON scores(game_id);
		CREATE INDEX IF NOT EXISTS idx_scores_top ON scores(game_id, score DESC);

		CREATE TABLE IF NOT EXISTS episodes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			agent TEXT NOT NULL,
			episode_id TEXT NOT NULL,
			game_id TEXT NOT NULL,
			play_id INTEGER NOT NULL,
			total_reward REAL NOT NULL,
			scenes INTEGER NOT NULL,
			truncated INTEGER NOT NULL DEFAULT 0,
			data BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(agent, episode_id)
		);
		CREATE INDEX IF NOT EXISTS idx_episodes_agent ON episodes(agent, total_reward DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveEpisode stores rec under (agent, episodeID), replacing any earlier
// episode with the same key.
func (s *Store) SaveEpisode(agent, episodeID string, rec *replay.Record) error {
	if rec == nil {
		return errors.New("storage: cannot save nil episode")
	}
	data, err := replay.EncodeRecord(rec)
	if err != nil {
		return fmt.Errorf("storage: cannot encode episode: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO episodes (agent, episode_id, game_id, play_id, total_reward, scenes, truncated, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(agent, episode_id) DO UPDATE SET
		   game_id = excluded.game_id,
		   play_id = excluded.play_id,
		   total_reward = excluded.total_reward,
		   scenes = excluded.scenes,
		   truncated = excluded.truncated,
		   data = excluded.data`,
		agent, episodeID, rec.Meta.GameID, rec.Meta.PlayID, rec.TotalReward(), rec.Len(), rec.Truncated, data,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save episode: %w", err)
	}
	return nil
}

// LoadAllEpisodes returns every stored episode of agent, best first.
func (s *Store) LoadAllEpisodes(agent string) ([]*replay.Record, error) {
	rows, err := s.db.Query(
		`SELECT episode_id, data FROM episodes
		 WHERE agent = ?
		 ORDER BY total_reward DESC, id ASC`,
		agent,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query episodes: %w", err)
	}
	defer rows.Close()

	var recs []*replay.Record
	for rows.Next() {
		var episodeID string
		var data []byte
		if err := rows.Scan(&episodeID, &data); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		decoded, err := replay.DecodeFrame(data)
		if err != nil {
			return nil, fmt.Errorf("storage: corrupt episode %s: %w", episodeID, err)
		}
		if len(decoded) != 1 {
			return nil, fmt.Errorf("storage: episode %s holds %d records", episodeID, len(decoded))
		}
		recs = append(recs, decoded[0])
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return recs, nil
}

// ListEpisodes returns episode metadata for agent, best first.
// An empty agent lists every agent's episodes.
func (s *Store) ListEpisodes(agent string, limit int) ([]EpisodeEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, agent, episode_id, game_id, play_id, total_reward, scenes, truncated, created_at
		 FROM episodes
		 WHERE ? = '' OR agent = ?
		 ORDER BY total_reward DESC, id ASC
		 LIMIT ?`,
		agent, agent, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query episodes: %w", err)
	}
	defer rows.Close()

	var entries []EpisodeEntry
	for rows.Next() {
		var e EpisodeEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.Agent, &e.EpisodeID, &e.GameID, &e.PlayID,
			&e.TotalReward, &e.Scenes, &e.Truncated, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// SaveScore records the total reward of one episode.
// Returns the ID of the inserted record.
func (s *Store) SaveScore(gameID, agent string, score float64) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO scores (game_id, agent, score) VALUES (?, ?, ?)",
		gameID, agent, score,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// TopScores retrieves the top N scores for the given game.
// Results are ordered by score descending.
func (s *Store) TopScores(gameID string, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, game_id, agent, score, created_at
		 FROM scores
		 WHERE game_id = ?
		 ORDER BY score DESC
		 LIMIT ?`,
		gameID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	defer rows.Close()

	var entries []ScoreEntry
	for rows.Next() {
		var e ScoreEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.GameID, &e.Agent, &e.Score, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// HighScore returns the highest score for the given game.
// Returns 0 if no scores exist.
func (s *Store) HighScore(gameID string) (float64, error) {
	var score sql.NullFloat64
	err := s.db.QueryRow(
		"SELECT MAX(score) FROM scores WHERE game_id = ?",
		gameID,
	).Scan(&score)

	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}

	return score.Float64, nil
}

// ClearScores deletes all scores for the given game.
func (s *Store) ClearScores(gameID string) error {
	_, err := s.db.Exec("DELETE FROM scores WHERE game_id = ?", gameID)
	if err != nil {
		return fmt.Errorf("storage: cannot clear scores: %w", err)
	}
	return nil
}

// GameStats contains aggregated statistics for a game.
type GameStats struct {
	GameID     string
	Episodes   int
	HighScore  float64
	AvgScore   float64
	LastPlayed time.Time
}

// GetGameStats retrieves aggregated statistics for a specific game.
func (s *Store) GetGameStats(gameID string) (*GameStats, error) {
	stats := &GameStats{GameID: gameID}

	var lastPlayed any
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(MAX(score), 0), COALESCE(AVG(score), 0), MAX(created_at)
		 FROM scores WHERE game_id = ?`,
		gameID,
	).Scan(&stats.Episodes, &stats.HighScore, &stats.AvgScore, &lastPlayed)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get game stats: %w", err)
	}
	stats.LastPlayed = parseTime(lastPlayed)

	return stats, nil
}

// parseTime handles both time.Time and the string form SQLite may return.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// Ensure Store implements the replay repository
var _ replay.Repository = (*Store)(nil)
