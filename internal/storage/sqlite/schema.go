package sqlite

const schema = `
-- Investigations: one row per Debug run
CREATE TABLE IF NOT EXISTS investigations (
    id TEXT PRIMARY KEY,
    issue TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'running'
        CHECK(status IN ('running', 'solved', 'failed', 'aborted')),
    rounds INTEGER NOT NULL DEFAULT 0 CHECK(rounds >= 0),
    theory TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    started_at TEXT NOT NULL,
    finished_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_investigations_started_at ON investigations(started_at);
CREATE INDEX IF NOT EXISTS idx_investigations_status ON investigations(status);

-- Lab results: every experiment result, in execution order
CREATE TABLE IF NOT EXISTS lab_results (
    investigation_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    round INTEGER NOT NULL,
    theory TEXT NOT NULL DEFAULT '',
    experiment TEXT NOT NULL DEFAULT '',
    command TEXT NOT NULL DEFAULT '',
    verdict TEXT NOT NULL CHECK(verdict IN ('confirmed', 'refuted', 'inconclusive')),
    summary TEXT NOT NULL DEFAULT '',
    detailed_log TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    PRIMARY KEY (investigation_id, seq),
    FOREIGN KEY (investigation_id) REFERENCES investigations(id) ON DELETE CASCADE
);

-- Events: the audit trail (investigation_id is empty for events outside a run)
CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    timestamp TEXT NOT NULL,
    investigation_id TEXT NOT NULL DEFAULT '',
    round INTEGER NOT NULL DEFAULT 0,
    severity TEXT NOT NULL DEFAULT 'info',
    message TEXT NOT NULL DEFAULT '',
    data TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_events_investigation ON events(investigation_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
`
