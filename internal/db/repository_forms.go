package db

import (
	"database/sql"
	"time"
)

// Form response and lead operations

func (r *Repository) FindLeadByWhatsApp(tenantID, whatsapp string) (*Lead, error) {
	var lead Lead
	query := `SELECT * FROM leads WHERE tenant_id = $1 AND whatsapp = $2`
	err := r.db.Get(&lead, query, tenantID, whatsapp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// SaveFormResponse inserts the response and, when a correlated lead was
// found, flags it as having completed the briefing. Both writes run in
// one transaction so a crash cannot flag the lead without a stored
// response. The lead update runs first, matching the pipeline ordering.
func (r *Repository) SaveFormResponse(resp *FormResponse, lead *Lead) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if lead != nil {
		leadQuery := `
            UPDATE leads SET
                briefing_preenchido = true,
                briefing_preenchido_em = $3
            WHERE id = $1 AND tenant_id = $2`

		if _, err = tx.Exec(leadQuery, lead.ID, lead.TenantID, resp.SubmittedAt); err != nil {
			return err
		}
	}

	query := `
        INSERT INTO form_responses (
            id, tenant_id, form_slug, lead_id, answers,
            submitted_at, webhook_sent, webhook_sent_at
        ) VALUES (
            :id, :tenant_id, :form_slug, :lead_id, :answers,
            :submitted_at, :webhook_sent, :webhook_sent_at
        )`

	if _, err = tx.NamedExec(query, resp); err != nil {
		return err
	}

	return tx.Commit()
}

// MarkWebhookSent flips the delivery flag. The guard keeps the
// transition one-way: a row already marked sent is never rewritten.
func (r *Repository) MarkWebhookSent(id string, at time.Time) error {
	query := `
        UPDATE form_responses SET
            webhook_sent = true,
            webhook_sent_at = $2
        WHERE id = $1 AND webhook_sent = false`

	_, err := r.db.Exec(query, id, at)
	return err
}

func (r *Repository) GetFormResponse(id, tenantID string) (*FormResponse, error) {
	var resp FormResponse
	query := `SELECT * FROM form_responses WHERE id = $1 AND tenant_id = $2`
	err := r.db.Get(&resp, query, id, tenantID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return &resp, err
}

func (r *Repository) ListFormResponses(tenantID string, limit, offset int) ([]*FormResponse, error) {
	responses := []*FormResponse{}
	query := `
        SELECT * FROM form_responses
        WHERE tenant_id = $1
        ORDER BY submitted_at DESC
        LIMIT $2 OFFSET $3`

	err := r.db.Select(&responses, query, tenantID, limit, offset)
	return responses, err
}

func (r *Repository) CountFormResponses(tenantID string) (int, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM form_responses WHERE tenant_id = $1`, tenantID)
	return count, err
}
