package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agricoop-backend/internal/domain"
	"agricoop-backend/internal/repository"
)

type organizationRepository struct {
	db dbtx
}

func NewOrganizationRepository(db dbtx) repository.OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	features, err := json.Marshal(org.Features)
	if err != nil {
		return err
	}
	query := `INSERT INTO organizations (name, region, admin_email, features, created_on)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	now := time.Now().UTC()
	if err := r.db.QueryRowContext(ctx, query, org.Name, org.Region, org.AdminEmail, features, now).Scan(&org.ID); err != nil {
		return err
	}
	org.CreatedOn = now
	return nil
}

func (r *organizationRepository) GetByID(ctx context.Context, id int32) (*domain.Organization, error) {
	org := &domain.Organization{}
	var features []byte
	query := `SELECT id, name, COALESCE(region, ''), COALESCE(admin_email, ''), COALESCE(features, '{}'), created_on
	          FROM organizations WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&org.ID, &org.Name, &org.Region, &org.AdminEmail, &features, &org.CreatedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("organization %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	if err := json.Unmarshal(features, &org.Features); err != nil {
		return nil, fmt.Errorf("unmarshal org features: %w", err)
	}
	return org, nil
}

func (r *organizationRepository) List(ctx context.Context) ([]domain.Organization, error) {
	query := `SELECT id, name, COALESCE(region, ''), COALESCE(admin_email, ''), COALESCE(features, '{}'), created_on
	          FROM organizations ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []domain.Organization
	for rows.Next() {
		var org domain.Organization
		var features []byte
		if err := rows.Scan(&org.ID, &org.Name, &org.Region, &org.AdminEmail, &features, &org.CreatedOn); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(features, &org.Features); err != nil {
			return nil, fmt.Errorf("unmarshal org features: %w", err)
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}
