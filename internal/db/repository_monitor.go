package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Automation instance operations

func (r *Repository) CreateInstance(inst *AutomationInstance) error {
	query := `
        INSERT INTO automation_instances (
            id, name, url, api_key_encrypted, active,
            check_interval, last_check, created_at, updated_at
        ) VALUES (
            :id, :name, :url, :api_key_encrypted, :active,
            :check_interval, :last_check, :created_at, :updated_at
        )`

	_, err := r.db.NamedExec(query, inst)
	return err
}

func (r *Repository) UpdateInstance(inst *AutomationInstance) error {
	query := `
        UPDATE automation_instances SET
            name = :name,
            url = :url,
            api_key_encrypted = :api_key_encrypted,
            active = :active,
            check_interval = :check_interval,
            updated_at = :updated_at
        WHERE id = :id`

	res, err := r.db.NamedExec(query, inst)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) GetInstance(id string) (*AutomationInstance, error) {
	var inst AutomationInstance
	query := `SELECT * FROM automation_instances WHERE id = $1`
	err := r.db.Get(&inst, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return &inst, err
}

func (r *Repository) ListInstances() ([]*AutomationInstance, error) {
	instances := []*AutomationInstance{}
	query := `SELECT * FROM automation_instances ORDER BY created_at ASC`
	err := r.db.Select(&instances, query)
	return instances, err
}

func (r *Repository) ListActiveInstances() ([]*AutomationInstance, error) {
	instances := []*AutomationInstance{}
	query := `SELECT * FROM automation_instances WHERE active = true ORDER BY created_at ASC`
	err := r.db.Select(&instances, query)
	return instances, err
}

func (r *Repository) UpdateInstanceLastCheck(id string, at time.Time) error {
	query := `UPDATE automation_instances SET last_check = $2 WHERE id = $1`
	_, err := r.db.Exec(query, id, at)
	return err
}

// Automation error operations

// ErrorExists is the monitor's dedup check: one record per external
// execution id, no matter how many sweeps observe it.
func (r *Repository) ErrorExists(executionID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM automation_errors WHERE execution_id = $1`
	err := r.db.Get(&count, query, executionID)
	return count > 0, err
}

func (r *Repository) CreateAutomationError(e *AutomationError) error {
	query := `
        INSERT INTO automation_errors (
            id, instance_id, execution_id, workflow_id, workflow_name,
            error_node, error_message, error_details, severity,
            ai_analysis, notified, resolved, timestamp
        ) VALUES (
            :id, :instance_id, :execution_id, :workflow_id, :workflow_name,
            :error_node, :error_message, :error_details, :severity,
            :ai_analysis, :notified, :resolved, :timestamp
        )`

	_, err := r.db.NamedExec(query, e)
	return err
}

func (r *Repository) MarkErrorNotified(id string) error {
	query := `UPDATE automation_errors SET notified = true WHERE id = $1`
	_, err := r.db.Exec(query, id)
	return err
}

func (r *Repository) ResolveError(id string) error {
	query := `UPDATE automation_errors SET resolved = true WHERE id = $1`
	res, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ListAutomationErrors(f ErrorFilters) ([]*AutomationError, error) {
	errors := []*AutomationError{}

	conditions := []string{}
	args := []interface{}{}
	idx := 1

	if f.InstanceID != "" {
		conditions = append(conditions, fmt.Sprintf("instance_id = $%d", idx))
		args = append(args, f.InstanceID)
		idx++
	}
	if f.Resolved == "true" || f.Resolved == "false" {
		conditions = append(conditions, fmt.Sprintf("resolved = $%d", idx))
		args = append(args, f.Resolved == "true")
		idx++
	}
	if f.Severity != "" {
		conditions = append(conditions, fmt.Sprintf("severity = $%d", idx))
		args = append(args, f.Severity)
		idx++
	}

	query := `SELECT * FROM automation_errors`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, f.Limit, f.Offset)

	err := r.db.Select(&errors, query, args...)
	return errors, err
}
