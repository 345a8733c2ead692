// Package registry maps package content hashes to skill identities and
// maintains per-name version chains.
//
// The registry never inspects package bytes; it only ever sees the content
// hash. Whether a package is well-formed is the external validator's
// verdict, recorded separately via SetVerdict.
package registry

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// OutcomeKind classifies what Register decided about an upload.
type OutcomeKind string

const (
	// Created: novel content under a novel name; a fresh identity exists.
	Created OutcomeKind = "created"
	// Duplicate: byte-identical content was already registered.
	Duplicate OutcomeKind = "duplicate"
	// NewVersion: novel content under a known name, linked into the chain.
	NewVersion OutcomeKind = "new_version"
	// VersionConflict: same declared version as the chain head but
	// different content. Never silently overwritten.
	VersionConflict OutcomeKind = "version_conflict"
)

// Outcome is the result of a Register call.
type Outcome struct {
	Kind          OutcomeKind
	SkillID       string
	Supersedes    string // set only when the new identity outranks the chain head
	UploaderAdded bool   // Duplicate only: uploader was new to the identity
}

// Identity is one registered (name, content hash) pair.
type Identity struct {
	SkillID       string
	CanonicalName string
	ContentHash   string
	Version       string
	CreatedAt     time.Time
	Validated     bool
	Retired       bool
}

// ErrUnknownSkill is returned by lookups for identities that were never
// registered.
var ErrUnknownSkill = errors.New("unknown skill")

// Registry resolves uploads against the content-hash map and the per-name
// version chains.
type Registry struct {
	db *sql.DB
}

func New(db *sql.DB) *Registry {
	return &Registry{db: db}
}

// Register decides whether the uploaded content is new, a duplicate, or a
// new version of an existing skill.
//
// Two agents uploading identical bytes concurrently cannot create two
// identities: the content_hash unique index makes one insert lose, and the
// loser re-reads the row and takes the Duplicate path.
func (r *Registry) Register(contentHash, canonicalName, declaredVersion, uploader string) (Outcome, error) {
	contentHash = strings.TrimSpace(contentHash)
	canonicalName = strings.TrimSpace(canonicalName)
	if contentHash == "" || canonicalName == "" || uploader == "" {
		return Outcome{}, fmt.Errorf("register: content hash, name and uploader are required")
	}

	if id, err := r.byHash(contentHash); err == nil {
		return r.duplicate(id, uploader)
	} else if !errors.Is(err, ErrUnknownSkill) {
		return Outcome{}, err
	}

	chain, err := r.Versions(canonicalName)
	if err != nil {
		return Outcome{}, err
	}

	if len(chain) == 0 {
		out, err := r.insert(contentHash, canonicalName, declaredVersion, uploader)
		if err != nil {
			return Outcome{}, err
		}
		out.Kind = Created
		return out, nil
	}

	// Same declared version as any chain member, with different content:
	// never silently overwritten.
	for _, id := range chain {
		if CompareVersions(declaredVersion, id.Version) == 0 {
			return Outcome{Kind: VersionConflict, SkillID: id.SkillID}, nil
		}
	}

	head := chain[0]
	switch cmp := CompareVersions(declaredVersion, head.Version); {
	case cmp > 0:
		out, err := r.insert(contentHash, canonicalName, declaredVersion, uploader)
		if err != nil {
			return Outcome{}, err
		}
		if out.Kind == Duplicate {
			return out, nil
		}
		out.Kind = NewVersion
		out.Supersedes = head.SkillID
		return out, nil
	default:
		// Older than the chain head: still registered into the chain,
		// but it supersedes nothing.
		out, err := r.insert(contentHash, canonicalName, declaredVersion, uploader)
		if err != nil {
			return Outcome{}, err
		}
		if out.Kind == Duplicate {
			return out, nil
		}
		out.Kind = NewVersion
		return out, nil
	}
}

func (r *Registry) duplicate(id Identity, uploader string) (Outcome, error) {
	res, err := r.db.Exec(
		`INSERT OR IGNORE INTO skill_uploaders (skill_id, agent_id) VALUES (?, ?)`,
		id.SkillID, uploader)
	if err != nil {
		return Outcome{}, fmt.Errorf("add uploader: %w", err)
	}
	n, _ := res.RowsAffected()
	return Outcome{Kind: Duplicate, SkillID: id.SkillID, UploaderAdded: n > 0}, nil
}

// insert creates the identity row. If a concurrent upload of the same bytes
// won the race, the unique index fires and we fall back to Duplicate.
func (r *Registry) insert(contentHash, name, version, uploader string) (Outcome, error) {
	skillID := SkillID(name, contentHash)
	_, err := r.db.Exec(
		`INSERT INTO skills (skill_id, canonical_name, content_hash, version, created_at) VALUES (?, ?, ?, ?, ?)`,
		skillID, name, contentHash, version, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			id, lookupErr := r.byHash(contentHash)
			if lookupErr != nil {
				return Outcome{}, fmt.Errorf("insert skill: %w", err)
			}
			return r.duplicate(id, uploader)
		}
		return Outcome{}, fmt.Errorf("insert skill: %w", err)
	}
	if _, err := r.db.Exec(
		`INSERT OR IGNORE INTO skill_uploaders (skill_id, agent_id) VALUES (?, ?)`,
		skillID, uploader); err != nil {
		return Outcome{}, fmt.Errorf("add uploader: %w", err)
	}
	return Outcome{SkillID: skillID}, nil
}

// Get returns one identity by skill ID.
func (r *Registry) Get(skillID string) (Identity, error) {
	row := r.db.QueryRow(
		`SELECT skill_id, canonical_name, content_hash, version, created_at, validated, retired
		 FROM skills WHERE skill_id = ?`, skillID)
	return scanIdentity(row)
}

func (r *Registry) byHash(contentHash string) (Identity, error) {
	row := r.db.QueryRow(
		`SELECT skill_id, canonical_name, content_hash, version, created_at, validated, retired
		 FROM skills WHERE content_hash = ?`, contentHash)
	return scanIdentity(row)
}

// Versions returns the chain for a canonical name, newest precedence first.
// Ties on declared version precedence break by first-seen time.
func (r *Registry) Versions(canonicalName string) ([]Identity, error) {
	rows, err := r.db.Query(
		`SELECT skill_id, canonical_name, content_hash, version, created_at, validated, retired
		 FROM skills WHERE canonical_name = ?`, canonicalName)
	if err != nil {
		return nil, fmt.Errorf("load version chain: %w", err)
	}
	defer rows.Close()

	var chain []Identity
	for rows.Next() {
		id, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		chain = append(chain, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(chain, func(i, j int) bool {
		if c := CompareVersions(chain[i].Version, chain[j].Version); c != 0 {
			return c > 0
		}
		return chain[i].CreatedAt.Before(chain[j].CreatedAt)
	})
	return chain, nil
}

// Latest returns the chain head for a canonical name.
func (r *Registry) Latest(canonicalName string) (Identity, error) {
	chain, err := r.Versions(canonicalName)
	if err != nil {
		return Identity{}, err
	}
	if len(chain) == 0 {
		return Identity{}, ErrUnknownSkill
	}
	return chain[0], nil
}

// Uploaders returns the set of agents that have uploaded byte-identical
// content for this identity.
func (r *Registry) Uploaders(skillID string) ([]string, error) {
	rows, err := r.db.Query(
		`SELECT agent_id FROM skill_uploaders WHERE skill_id = ? ORDER BY added_at, agent_id`, skillID)
	if err != nil {
		return nil, fmt.Errorf("load uploaders: %w", err)
	}
	defer rows.Close()

	var agents []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// SetVerdict records the external validator's pass/fail verdict. Only
// identities with a passing verdict ever surface in feeds.
func (r *Registry) SetVerdict(skillID string, passed bool) error {
	return r.setFlag(skillID, "validated", passed)
}

// Retire soft-retires an identity. Retired identities stay in their version
// chains; they just stop surfacing.
func (r *Registry) Retire(skillID string) error {
	return r.setFlag(skillID, "retired", true)
}

func (r *Registry) setFlag(skillID, column string, v bool) error {
	val := 0
	if v {
		val = 1
	}
	res, err := r.db.Exec(`UPDATE skills SET `+column+` = ? WHERE skill_id = ?`, val, skillID)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUnknownSkill
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (Identity, error) {
	var id Identity
	var validated, retired int
	err := row.Scan(&id.SkillID, &id.CanonicalName, &id.ContentHash, &id.Version,
		&id.CreatedAt, &validated, &retired)
	if errors.Is(err, sql.ErrNoRows) {
		return Identity{}, ErrUnknownSkill
	}
	if err != nil {
		return Identity{}, fmt.Errorf("scan skill: %w", err)
	}
	id.Validated = validated != 0
	id.Retired = retired != 0
	return id, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
