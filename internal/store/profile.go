package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/ayusman/courtside/internal/drill"
)

var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName is returned when a profile name is already taken.
	ErrDuplicateName = errors.New("name already exists")
)

// Profile is a named set of drill thresholds.
type Profile struct {
	ID         string
	Name       string
	Thresholds drill.Thresholds
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProfileRepository provides CRUD operations for profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

const profileColumns = `id, name, stance_angle_deg, lateral_tolerance_ratio, hop_velocity_px_s,
	min_ball_confidence, strike_radius_px, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*Profile, error) {
	p := &Profile{}
	th := &p.Thresholds
	err := row.Scan(&p.ID, &p.Name, &th.StanceAngleDeg, &th.LateralToleranceRatio, &th.HopVelocityPxPerSec,
		&th.MinBallConfidence, &th.StrikeRadiusPx, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new profile into the database.
func (r *ProfileRepository) Create(p *Profile) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	th := p.Thresholds
	_, err := r.db.Exec(
		`INSERT INTO profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, th.StanceAngleDeg, th.LateralToleranceRatio, th.HopVelocityPxPerSec,
		th.MinBallConfidence, th.StrikeRadiusPx, p.CreatedAt, p.UpdatedAt,
	)
	return translate(err)
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(id string) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(
		`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// GetByName retrieves a profile by its name.
func (r *ProfileRepository) GetByName(name string) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(
		`SELECT `+profileColumns+` FROM profiles WHERE name = ?`, name))
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// List retrieves all profiles, newest first.
func (r *ProfileRepository) List() ([]*Profile, error) {
	rows, err := r.db.Query(
		`SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at DESC, name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Update updates an existing profile in the database.
func (r *ProfileRepository) Update(p *Profile) error {
	p.UpdatedAt = time.Now()

	th := p.Thresholds
	result, err := r.db.Exec(
		`UPDATE profiles SET name = ?, stance_angle_deg = ?, lateral_tolerance_ratio = ?,
		 hop_velocity_px_s = ?, min_ball_confidence = ?, strike_radius_px = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, th.StanceAngleDeg, th.LateralToleranceRatio, th.HopVelocityPxPerSec,
		th.MinBallConfidence, th.StrikeRadiusPx, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return translate(err)
	}

	return expectOneRow(result)
}

// Delete removes a profile by its ID. If it was the active profile, the
// active setting is cleared as well.
func (r *ProfileRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := expectOneRow(result); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM settings WHERE key = ? AND value = ?`, KeyActiveProfile, id); err != nil {
		return err
	}

	return tx.Commit()
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return ErrDuplicateName
	}
	return err
}
