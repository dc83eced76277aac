package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jguan/model-catalog/pkg/unit/model"
)

// SQLiteModelStore implements model.ModelStore. Tags are kept as a JSON
// array so tag filters can use json_each.
type SQLiteModelStore struct {
	db *sql.DB
}

func NewSQLiteModelStore(db *sql.DB) (*SQLiteModelStore, error) {
	s := &SQLiteModelStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteModelStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS models (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		architecture TEXT NOT NULL DEFAULT '',
		parameters INTEGER NOT NULL DEFAULT 0,
		base_model TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT 'null',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_models_architecture ON models(architecture);
	CREATE INDEX IF NOT EXISTS idx_models_parameters ON models(parameters);

	CREATE TABLE IF NOT EXISTS model_versions (
		id TEXT PRIMARY KEY,
		model_id TEXT NOT NULL,
		version TEXT NOT NULL,
		quantization TEXT NOT NULL,
		quantization_bits INTEGER NOT NULL DEFAULT 0,
		format TEXT NOT NULL DEFAULT '',
		artifact_uri TEXT NOT NULL DEFAULT '',
		vram_requirement_gb REAL NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_versions_model ON model_versions(model_id);

	CREATE TABLE IF NOT EXISTS model_use_cases (
		model_id TEXT NOT NULL,
		category TEXT NOT NULL,
		subcategory TEXT NOT NULL DEFAULT '',
		suitability_score REAL NOT NULL DEFAULT 0,
		recommended INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (model_id, category, subcategory)
	);
	CREATE INDEX IF NOT EXISTS idx_use_cases_category ON model_use_cases(category);
	CREATE INDEX IF NOT EXISTS idx_use_cases_subcategory ON model_use_cases(subcategory);
	`
	_, err := s.db.Exec(query)
	return err
}

const modelColumns = `id, name, architecture, parameters, base_model, tags, created_at, updated_at`

func (s *SQLiteModelStore) Create(ctx context.Context, m *model.Model) error {
	tags, err := json.Marshal(m.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO models (`+modelColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Name, m.Architecture, m.Parameters, m.BaseModel, string(tags), m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrModelAlreadyExists.WithDetails("id", m.ID)
		}
		return fmt.Errorf("insert model: %w", err)
	}
	return nil
}

func (s *SQLiteModelStore) Get(ctx context.Context, id string) (*model.Model, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+modelColumns+` FROM models WHERE id = ?`, id)
	m, err := scanModel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrModelNotFound.WithDetails("id", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan model: %w", err)
	}
	return m, nil
}

func (s *SQLiteModelStore) GetByName(ctx context.Context, name string) (*model.Model, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+modelColumns+` FROM models WHERE name = ?`, name)
	m, err := scanModel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrModelNotFound.WithDetails("name", name)
	}
	if err != nil {
		return nil, fmt.Errorf("scan model: %w", err)
	}
	return m, nil
}

func (s *SQLiteModelStore) List(ctx context.Context, filter model.ModelFilter) ([]model.Model, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filter.Architecture != "" {
		where = append(where, "architecture = ?")
		args = append(args, filter.Architecture)
	}
	if filter.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(models.tags) WHERE json_each.value = ?)")
		args = append(args, filter.Tag)
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM models WHERE "+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count models: %w", err)
	}

	limit, offset := pageArgs(filter.Limit, filter.Offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+modelColumns+` FROM models WHERE `+clause+` ORDER BY name LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query models: %w", err)
	}
	models, err := collectModels(rows)
	if err != nil {
		return nil, 0, err
	}
	return models, total, nil
}

func (s *SQLiteModelStore) Update(ctx context.Context, m *model.Model) error {
	tags, err := json.Marshal(m.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE models SET
			name = ?, architecture = ?, parameters = ?, base_model = ?, tags = ?,
			created_at = ?, updated_at = ?
		WHERE id = ?
	`, m.Name, m.Architecture, m.Parameters, m.BaseModel, string(tags), m.CreatedAt, m.UpdatedAt, m.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrModelAlreadyExists.WithDetails("name", m.Name)
		}
		return fmt.Errorf("update model: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return model.ErrModelNotFound.WithDetails("id", m.ID)
	}
	return nil
}

func (s *SQLiteModelStore) Delete(ctx context.Context, id string) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM models WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete model: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return model.ErrModelNotFound.WithDetails("id", id)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM model_versions WHERE model_id = ?`, id); err != nil {
			return fmt.Errorf("delete versions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM model_use_cases WHERE model_id = ?`, id); err != nil {
			return fmt.Errorf("delete use cases: %w", err)
		}
		return nil
	})
}

func (s *SQLiteModelStore) AddVersion(ctx context.Context, v *model.Version) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := modelExists(ctx, tx, v.ModelID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO model_versions (id, model_id, version, quantization, quantization_bits, format, artifact_uri, vram_requirement_gb, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, v.ID, v.ModelID, v.Version, v.Quantization, v.QuantizationBits, v.Format, v.ArtifactURI, v.VRAMRequirementGB, v.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return model.ErrVersionExists.WithDetails("id", v.ID)
			}
			return fmt.Errorf("insert version: %w", err)
		}
		return nil
	})
}

const versionColumns = `id, model_id, version, quantization, quantization_bits, format, artifact_uri, vram_requirement_gb, created_at`

func (s *SQLiteModelStore) GetVersion(ctx context.Context, id string) (*model.Version, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+versionColumns+` FROM model_versions WHERE id = ?`, id)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrVersionNotFound.WithDetails("id", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan version: %w", err)
	}
	return v, nil
}

func (s *SQLiteModelStore) ListVersions(ctx context.Context, modelID string) ([]model.Version, error) {
	if err := modelExists(ctx, s.db, modelID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+versionColumns+` FROM model_versions WHERE model_id = ? ORDER BY rowid`, modelID)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	out := make([]model.Version, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (s *SQLiteModelStore) AssignUseCase(ctx context.Context, u *model.UseCase) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := modelExists(ctx, tx, u.ModelID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO model_use_cases (model_id, category, subcategory, suitability_score, recommended)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (model_id, category, subcategory) DO UPDATE SET
				suitability_score = excluded.suitability_score,
				recommended = excluded.recommended
		`, u.ModelID, u.Category, u.Subcategory, u.SuitabilityScore, boolToInt(u.Recommended))
		if err != nil {
			return fmt.Errorf("upsert use case: %w", err)
		}
		return nil
	})
}

func (s *SQLiteModelStore) ListUseCases(ctx context.Context, modelID string) ([]model.UseCase, error) {
	if err := modelExists(ctx, s.db, modelID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT model_id, category, subcategory, suitability_score, recommended
		FROM model_use_cases WHERE model_id = ?
		ORDER BY suitability_score DESC, rowid
	`, modelID)
	if err != nil {
		return nil, fmt.Errorf("query use cases: %w", err)
	}
	defer rows.Close()

	out := make([]model.UseCase, 0)
	for rows.Next() {
		var u model.UseCase
		var recommended int
		if err := rows.Scan(&u.ModelID, &u.Category, &u.Subcategory, &u.SuitabilityScore, &recommended); err != nil {
			return nil, fmt.Errorf("scan use case: %w", err)
		}
		u.Recommended = recommended != 0
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLiteModelStore) SearchByUseCase(ctx context.Context, useCase string) ([]model.Model, error) {
	if useCase == "" {
		return []model.Model{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.name, m.architecture, m.parameters, m.base_model, m.tags, m.created_at, m.updated_at
		FROM models m
		JOIN model_use_cases u ON u.model_id = m.id
		WHERE u.recommended = 1 AND (u.category = ? OR u.subcategory = ?)
		GROUP BY m.id
		ORDER BY MAX(u.suitability_score) DESC, m.name
	`, useCase, useCase)
	if err != nil {
		return nil, fmt.Errorf("search by use case: %w", err)
	}
	return collectModels(rows)
}

func (s *SQLiteModelStore) Search(ctx context.Context, filter model.SearchFilter) ([]model.Model, error) {
	where := []string{"1=1"}
	args := []any{}
	if filter.Query != "" {
		where = append(where, "(instr(lower(name), ?) > 0 OR EXISTS (SELECT 1 FROM json_each(models.tags) WHERE json_each.value = ?))")
		args = append(args, strings.ToLower(filter.Query), filter.Query)
	}
	if filter.Architecture != "" {
		where = append(where, "architecture = ?")
		args = append(args, filter.Architecture)
	}
	if filter.MinParameters > 0 {
		where = append(where, "parameters >= ?")
		args = append(args, filter.MinParameters)
	}
	if filter.MaxParameters > 0 {
		where = append(where, "parameters <= ?")
		args = append(args, filter.MaxParameters)
	}

	limit, _ := pageArgs(filter.Limit, 0)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+modelColumns+` FROM models WHERE `+strings.Join(where, " AND ")+` ORDER BY parameters DESC, name LIMIT ?`,
		append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("search models: %w", err)
	}
	return collectModels(rows)
}

func (s *SQLiteModelStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func modelExists(ctx context.Context, q queryRower, id string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM models WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrModelNotFound.WithDetails("id", id)
	}
	if err != nil {
		return fmt.Errorf("lookup model: %w", err)
	}
	return nil
}

func scanModel(row rowScanner) (*model.Model, error) {
	m := &model.Model{}
	var tags string
	if err := row.Scan(&m.ID, &m.Name, &m.Architecture, &m.Parameters, &m.BaseModel, &tags, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of %s: %w", m.ID, err)
		}
	}
	return m, nil
}

func collectModels(rows *sql.Rows) ([]model.Model, error) {
	defer rows.Close()

	out := make([]model.Model, 0)
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func scanVersion(row rowScanner) (*model.Version, error) {
	v := &model.Version{}
	err := row.Scan(&v.ID, &v.ModelID, &v.Version, &v.Quantization, &v.QuantizationBits,
		&v.Format, &v.ArtifactURI, &v.VRAMRequirementGB, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ model.ModelStore = (*SQLiteModelStore)(nil)
