package main

import (
	"context"
	"os"

	"legaltriad-backend/config"
	"legaltriad-backend/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS analysis_runs (
    id UUID PRIMARY KEY,
    topic TEXT NOT NULL,
    model VARCHAR(100) NOT NULL,

    -- counts only, document contents are never stored
    law_count INTEGER NOT NULL DEFAULT 0,
    doctrine_count INTEGER NOT NULL DEFAULT 0,
    jurisprudence_count INTEGER NOT NULL DEFAULT 0,

    status VARCHAR(20) NOT NULL CHECK (status IN ('pending', 'in_progress', 'completed', 'failed')),
    error_kind VARCHAR(50),
    error_message TEXT,
    article_count INTEGER NOT NULL DEFAULT 0,

    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_analysis_runs_created_at ON analysis_runs (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_analysis_runs_status ON analysis_runs (status);
`

func main() {
	config.LoadDotEnv()
	log := logger.New("", false)
	defer log.Sync()

	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		log.Fatal("failed to create analysis_runs table", zap.Error(err))
	}
	log.Info("analysis_runs table ready")
}
