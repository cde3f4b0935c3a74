package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Connect 连接到数据库
func Connect(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 设置连接池
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

// Migrate 运行数据库迁移
func Migrate(db *sql.DB) error {
	migrations := []string{
		// 比赛表
		`CREATE TABLE IF NOT EXISTS matches (
			id TEXT PRIMARY KEY,
			date TIMESTAMP,
			finished BOOLEAN NOT NULL DEFAULT FALSE,
			tournament TEXT,
			gameweek TEXT,
			home_team_id TEXT,
			home_team TEXT,
			away_team_id TEXT,
			away_team TEXT,
			score TEXT,
			referee TEXT,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_date ON matches(date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_finished ON matches(finished)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_gameweek ON matches(gameweek)`,

		// 球员单场出场表
		`CREATE TABLE IF NOT EXISTS player_match_appearances (
			match_id TEXT NOT NULL,
			player_id TEXT NOT NULL,
			team_id TEXT,
			player_name TEXT,
			position VARCHAR(10),
			shirt_number TEXT,
			is_starter BOOLEAN NOT NULL DEFAULT FALSE,
			minutes_played INTEGER NOT NULL DEFAULT 0,
			rating DOUBLE PRECISION,
			role_x DOUBLE PRECISION,
			role_y DOUBLE PRECISION,
			fouls_committed INTEGER NOT NULL DEFAULT 0,
			fouls_received INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (match_id, player_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_appearances_player_match ON player_match_appearances(player_id, match_id)`,
		`CREATE INDEX IF NOT EXISTS idx_appearances_team ON player_match_appearances(team_id)`,

		// 射门事件表
		`CREATE TABLE IF NOT EXISTS shots (
			id BIGSERIAL PRIMARY KEY,
			match_id TEXT NOT NULL,
			player_id TEXT,
			player_name TEXT,
			team_id TEXT,
			minute TEXT,
			on_target BOOLEAN NOT NULL DEFAULT FALSE,
			shot_type TEXT,
			situation TEXT,
			outcome TEXT,
			inside_box BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_shots_player_match ON shots(player_id, match_id)`,
		`CREATE INDEX IF NOT EXISTS idx_shots_team ON shots(team_id)`,
		`CREATE INDEX IF NOT EXISTS idx_shots_match ON shots(match_id)`,

		// 红黄牌事件表
		`CREATE TABLE IF NOT EXISTS cards (
			id BIGSERIAL PRIMARY KEY,
			match_id TEXT NOT NULL,
			player_id TEXT,
			player_name TEXT,
			team_id TEXT,
			card_type TEXT,
			minute TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_player_match ON cards(player_id, match_id)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_team ON cards(team_id)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_match ON cards(match_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
