package db

// schemaSQL creates the reports and votes tables and the two counter
// procedures. The votes primary key is what makes a concurrent double insert
// for the same (user, report) impossible.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS reports (
    id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id     UUID NOT NULL,
    title       TEXT NOT NULL,
    description TEXT NOT NULL,
    image_url   TEXT NOT NULL,
    latitude    DOUBLE PRECISION NOT NULL,
    longitude   DOUBLE PRECISION NOT NULL,
    city        TEXT NOT NULL,
    vote_count  INTEGER NOT NULL DEFAULT 0 CHECK (vote_count >= 0),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS reports_votes_idx ON reports (vote_count DESC, created_at DESC);
CREATE INDEX IF NOT EXISTS reports_recent_idx ON reports (created_at DESC);
CREATE INDEX IF NOT EXISTS reports_city_idx ON reports (city);

CREATE TABLE IF NOT EXISTS votes (
    user_id    UUID NOT NULL,
    report_id  UUID NOT NULL REFERENCES reports (id) ON DELETE CASCADE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, report_id)
);

CREATE INDEX IF NOT EXISTS votes_report_idx ON votes (report_id);

CREATE OR REPLACE FUNCTION increment_vote_count(target UUID) RETURNS INTEGER AS $$
    UPDATE reports SET vote_count = vote_count + 1 WHERE id = target RETURNING vote_count;
$$ LANGUAGE sql;

CREATE OR REPLACE FUNCTION decrement_vote_count(target UUID) RETURNS INTEGER AS $$
    UPDATE reports SET vote_count = vote_count - 1 WHERE id = target RETURNING vote_count;
$$ LANGUAGE sql;
`
