package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

var ErrNotFound = errors.New("not found")

type Repository struct {
	db *sqlx.DB
}

func NewConnection(databaseURL string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Ping() error {
	return r.db.Ping()
}

// Tenant operations
func (r *Repository) CreateTenant(t *Tenant, passwordHash string) error {
	query := `
        INSERT INTO tenants (
            id, name, slug, email, password_hash, is_active, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(query,
		t.ID, t.Name, t.Slug, t.Email, passwordHash, t.IsActive, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *Repository) GetTenant(id string) (*Tenant, error) {
	var t Tenant
	query := `SELECT id, name, slug, email, is_active, created_at, updated_at FROM tenants WHERE id = $1`
	err := r.db.Get(&t, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return &t, err
}

func (r *Repository) GetTenantByEmail(email string) (*Tenant, string, error) {
	var row struct {
		Tenant
		PasswordHash string `db:"password_hash"`
	}
	query := `SELECT id, name, slug, email, password_hash, is_active, created_at, updated_at FROM tenants WHERE email = $1`
	err := r.db.Get(&row, query, email)
	if err == sql.ErrNoRows {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return &row.Tenant, row.PasswordHash, nil
}

// GetActiveTenantBySlug resolves a public form slug. Missing and
// deactivated tenants are indistinguishable to the caller on purpose.
func (r *Repository) GetActiveTenantBySlug(slug string) (*Tenant, error) {
	var t Tenant
	query := `SELECT id, name, slug, email, is_active, created_at, updated_at FROM tenants WHERE slug = $1 AND is_active = true`
	err := r.db.Get(&t, query, slug)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return &t, err
}

func (r *Repository) EmailExists(email string) (bool, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM tenants WHERE email = $1`, email)
	return count > 0, err
}

func (r *Repository) SlugExists(slug string) (bool, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM tenants WHERE slug = $1`, slug)
	return count > 0, err
}

// Webhook config operations
func (r *Repository) GetWebhookConfig(tenantID string) (*WebhookConfig, error) {
	var cfg WebhookConfig
	query := `SELECT * FROM webhook_configs WHERE tenant_id = $1`
	err := r.db.Get(&cfg, query, tenantID)
	if err == sql.ErrNoRows {
		// Never configured is not an error: delivery is simply skipped.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *Repository) UpsertWebhookConfig(cfg *WebhookConfig) error {
	query := `
        INSERT INTO webhook_configs (
            tenant_id, webhook_url, webhook_secret, auth_type, is_active, updated_at
        ) VALUES (
            :tenant_id, :webhook_url, :webhook_secret, :auth_type, :is_active, :updated_at
        ) ON CONFLICT (tenant_id) DO UPDATE SET
            webhook_url = EXCLUDED.webhook_url,
            webhook_secret = EXCLUDED.webhook_secret,
            auth_type = EXCLUDED.auth_type,
            is_active = EXCLUDED.is_active,
            updated_at = EXCLUDED.updated_at`

	_, err := r.db.NamedExec(query, cfg)
	return err
}

func (r *Repository) UpdateWebhookTest(tenantID string, at time.Time, status TestStatus) error {
	query := `UPDATE webhook_configs SET last_test_at = $2, last_test_status = $3 WHERE tenant_id = $1`
	_, err := r.db.Exec(query, tenantID, at, status)
	return err
}

// Question operations
func (r *Repository) ListQuestions(tenantID string) ([]*Question, error) {
	questions := []*Question{}
	query := `
        SELECT * FROM questions
        WHERE tenant_id = $1
        ORDER BY order_index ASC`

	err := r.db.Select(&questions, query, tenantID)
	return questions, err
}

func (r *Repository) CreateQuestion(q *Question) error {
	query := `
        INSERT INTO questions (
            id, tenant_id, label, field_key, question_type,
            options, is_required, order_index, created_at, updated_at
        ) VALUES (
            :id, :tenant_id, :label, :field_key, :question_type,
            :options, :is_required, :order_index, :created_at, :updated_at
        )`

	_, err := r.db.NamedExec(query, q)
	return err
}

func (r *Repository) UpdateQuestion(q *Question) error {
	query := `
        UPDATE questions SET
            label = :label,
            field_key = :field_key,
            question_type = :question_type,
            options = :options,
            is_required = :is_required,
            order_index = :order_index,
            updated_at = :updated_at
        WHERE id = :id AND tenant_id = :tenant_id`

	res, err := r.db.NamedExec(query, q)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteQuestion(id, tenantID string) error {
	query := `DELETE FROM questions WHERE id = $1 AND tenant_id = $2`
	_, err := r.db.Exec(query, id, tenantID)
	return err
}

func (r *Repository) FieldKeyExists(tenantID, fieldKey, excludeID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM questions WHERE tenant_id = $1 AND field_key = $2 AND id != $3`
	err := r.db.Get(&count, query, tenantID, fieldKey, excludeID)
	return count > 0, err
}
