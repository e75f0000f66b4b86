package store

const schema = `
CREATE TABLE IF NOT EXISTS scored_posts (
    id           TEXT PRIMARY KEY,
    source       TEXT NOT NULL,
    external_id  TEXT NOT NULL,
    author       TEXT NOT NULL DEFAULT '',
    url          TEXT NOT NULL DEFAULT '',
    text         TEXT NOT NULL,
    overall      INTEGER NOT NULL,
    grade        TEXT NOT NULL,
    risk_level   TEXT NOT NULL,
    risk_score   REAL NOT NULL DEFAULT 0,
    reach_low    INTEGER NOT NULL DEFAULT 0,
    reach_median INTEGER NOT NULL DEFAULT 0,
    reach_high   INTEGER NOT NULL DEFAULT 0,
    confidence   REAL NOT NULL DEFAULT 0,
    breakdown    TEXT NOT NULL DEFAULT '{}',
    warnings     TEXT NOT NULL DEFAULT '[]',
    scored_at    DATETIME NOT NULL,
    alerted      BOOLEAN NOT NULL DEFAULT 0,
    UNIQUE(source, external_id)
);

CREATE INDEX IF NOT EXISTS idx_scored_posts_source ON scored_posts(source);
CREATE INDEX IF NOT EXISTS idx_scored_posts_scored_at ON scored_posts(scored_at);
CREATE INDEX IF NOT EXISTS idx_scored_posts_risk ON scored_posts(risk_score);
`
