package storage

// Schema is the full arena DDL. The unique indexes are load-bearing: they
// are what turns lookup-then-insert races into deterministic outcomes
// (duplicate content hash, second review, second live vote) instead of
// duplicated rows.
const Schema = `
CREATE TABLE IF NOT EXISTS skills (
	skill_id       TEXT PRIMARY KEY,
	canonical_name TEXT NOT NULL,
	content_hash   TEXT NOT NULL UNIQUE,
	version        TEXT NOT NULL,
	created_at     DATETIME NOT NULL,
	validated      INTEGER NOT NULL DEFAULT 0,
	retired        INTEGER NOT NULL DEFAULT 0,
	upvotes        INTEGER NOT NULL DEFAULT 0,
	downvotes      INTEGER NOT NULL DEFAULT 0,
	vote_score     INTEGER NOT NULL DEFAULT 0,
	comments_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_skills_name ON skills(canonical_name);

CREATE TABLE IF NOT EXISTS skill_uploaders (
	skill_id TEXT NOT NULL,
	agent_id TEXT NOT NULL,
	added_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (skill_id, agent_id)
);

CREATE TABLE IF NOT EXISTS usage_records (
	agent_id    TEXT NOT NULL,
	skill_id    TEXT NOT NULL,
	invocations INTEGER NOT NULL DEFAULT 0,
	successes   INTEGER NOT NULL DEFAULT 0,
	time_mean   REAL NOT NULL DEFAULT 0,
	time_m2     REAL NOT NULL DEFAULT 0,
	cpu_mean    REAL NOT NULL DEFAULT 0,
	mem_mean    REAL NOT NULL DEFAULT 0,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (agent_id, skill_id)
);
CREATE INDEX IF NOT EXISTS idx_usage_skill ON usage_records(skill_id);

CREATE TABLE IF NOT EXISTS reviews (
	review_id           TEXT PRIMARY KEY,
	skill_id            TEXT NOT NULL,
	agent_id            TEXT NOT NULL,
	rating              REAL NOT NULL,
	comment             TEXT NOT NULL DEFAULT '',
	usage_at_submission INTEGER NOT NULL,
	weight              REAL NOT NULL,
	flagged_abusive     INTEGER NOT NULL DEFAULT 0,
	created_at          DATETIME NOT NULL,
	UNIQUE (agent_id, skill_id)
);
CREATE INDEX IF NOT EXISTS idx_reviews_skill ON reviews(skill_id);
CREATE INDEX IF NOT EXISTS idx_reviews_agent_time ON reviews(agent_id, created_at);

CREATE TABLE IF NOT EXISTS votes (
	agent_id    TEXT NOT NULL,
	target_type TEXT NOT NULL,
	target_id   TEXT NOT NULL,
	direction   TEXT NOT NULL,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (agent_id, target_type, target_id)
);

CREATE TABLE IF NOT EXISTS comments (
	comment_id        TEXT PRIMARY KEY,
	target_id         TEXT NOT NULL,
	parent_comment_id TEXT,
	root_comment_id   TEXT NOT NULL,
	thread_id         TEXT NOT NULL,
	author_id         TEXT NOT NULL,
	content           TEXT NOT NULL,
	depth             INTEGER NOT NULL DEFAULT 0,
	replies_count     INTEGER NOT NULL DEFAULT 0,
	deleted           INTEGER NOT NULL DEFAULT 0,
	upvotes           INTEGER NOT NULL DEFAULT 0,
	downvotes         INTEGER NOT NULL DEFAULT 0,
	vote_score        INTEGER NOT NULL DEFAULT 0,
	created_at        DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_target ON comments(target_id, thread_id, depth, created_at);
`
