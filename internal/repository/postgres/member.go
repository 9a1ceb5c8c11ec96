package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"agricoop-backend/internal/domain"
	"agricoop-backend/internal/repository"

	"github.com/lib/pq"
)

type memberRepository struct {
	db dbtx
}

func NewMemberRepository(db dbtx) repository.MemberRepository {
	return &memberRepository{db: db}
}

const memberColumns = `id, org_id, member_code, user_id, first_name, last_name, phone, email, national_id,
	province, district, village, farm_name, farm_size_acres, primary_crop,
	bank_name, bank_account_number, id_front_url, id_back_url, financial_doc_urls,
	status, seat_type, sponsor_pool_id,
	identity_checked, location_checked, farm_checked, financial_checked,
	verified_by, verified_at, COALESCE(rejection_reason, ''), version, created_on, updated_on`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*domain.Member, error) {
	m := &domain.Member{}
	err := row.Scan(
		&m.ID, &m.OrgID, &m.MemberCode, &m.UserID, &m.FirstName, &m.LastName, &m.Phone, &m.Email, &m.NationalID,
		&m.Province, &m.District, &m.Village, &m.FarmName, &m.FarmSizeAcres, &m.PrimaryCrop,
		&m.BankName, &m.BankAccountNumber, &m.IDFrontURL, &m.IDBackURL, pq.Array(&m.FinancialDocURLs),
		&m.Status, &m.SeatType, &m.SponsorPoolID,
		&m.IdentityChecked, &m.LocationChecked, &m.FarmChecked, &m.FinancialChecked,
		&m.VerifiedBy, &m.VerifiedAt, &m.RejectionReason, &m.Version, &m.CreatedOn, &m.UpdatedOn,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("member: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return m, nil
}

func (r *memberRepository) Create(ctx context.Context, m *domain.Member) error {
	query := `INSERT INTO members (
		org_id, member_code, user_id, first_name, last_name, phone, email, national_id,
		province, district, village, farm_name, farm_size_acres, primary_crop,
		bank_name, bank_account_number, id_front_url, id_back_url, financial_doc_urls,
		status, seat_type, sponsor_pool_id,
		identity_checked, location_checked, farm_checked, financial_checked,
		verified_by, verified_at, rejection_reason, version, created_on, updated_on)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19,
		$20, $21, $22, $23, $24, $25, $26, $27, $28, $29, 1, $30, $30)
	RETURNING id`
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query,
		m.OrgID, m.MemberCode, m.UserID, m.FirstName, m.LastName, m.Phone, m.Email, m.NationalID,
		m.Province, m.District, m.Village, m.FarmName, m.FarmSizeAcres, m.PrimaryCrop,
		m.BankName, m.BankAccountNumber, m.IDFrontURL, m.IDBackURL, pq.Array(m.FinancialDocURLs),
		m.Status, m.SeatType, m.SponsorPoolID,
		m.IdentityChecked, m.LocationChecked, m.FarmChecked, m.FinancialChecked,
		m.VerifiedBy, m.VerifiedAt, m.RejectionReason, now,
	).Scan(&m.ID)
	if err != nil {
		return err
	}
	m.Version = 1
	m.CreatedOn = now
	m.UpdatedOn = now
	return nil
}

func (r *memberRepository) GetByID(ctx context.Context, id int32) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	return scanMember(r.db.QueryRowContext(ctx, query, id))
}

func (r *memberRepository) GetByCode(ctx context.Context, orgID int32, code string) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE org_id = $1 AND member_code = $2`
	return scanMember(r.db.QueryRowContext(ctx, query, orgID, code))
}

func (r *memberRepository) GetByEmail(ctx context.Context, orgID int32, email string) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE org_id = $1 AND lower(email) = lower($2)`
	return scanMember(r.db.QueryRowContext(ctx, query, orgID, email))
}

// Update rewrites the member row guarded by the version read earlier. Zero
// rows affected means a concurrent writer got there first.
func (r *memberRepository) Update(ctx context.Context, m *domain.Member) error {
	query := `UPDATE members SET
		user_id = $1, first_name = $2, last_name = $3, phone = $4, email = $5, national_id = $6,
		province = $7, district = $8, village = $9, farm_name = $10, farm_size_acres = $11, primary_crop = $12,
		bank_name = $13, bank_account_number = $14, id_front_url = $15, id_back_url = $16, financial_doc_urls = $17,
		status = $18, seat_type = $19, sponsor_pool_id = $20,
		identity_checked = $21, location_checked = $22, farm_checked = $23, financial_checked = $24,
		verified_by = $25, verified_at = $26, rejection_reason = $27,
		version = version + 1, updated_on = $28
	WHERE id = $29 AND version = $30`
	result, err := r.db.ExecContext(ctx, query,
		m.UserID, m.FirstName, m.LastName, m.Phone, m.Email, m.NationalID,
		m.Province, m.District, m.Village, m.FarmName, m.FarmSizeAcres, m.PrimaryCrop,
		m.BankName, m.BankAccountNumber, m.IDFrontURL, m.IDBackURL, pq.Array(m.FinancialDocURLs),
		m.Status, m.SeatType, m.SponsorPoolID,
		m.IdentityChecked, m.LocationChecked, m.FarmChecked, m.FinancialChecked,
		m.VerifiedBy, m.VerifiedAt, m.RejectionReason,
		time.Now().UTC(), m.ID, m.Version,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("member %d: %w", m.ID, domain.ErrConflict)
	}
	m.Version++
	return nil
}

func (r *memberRepository) ListByOrg(ctx context.Context, orgID int32, status domain.MemberStatus, page, pageSize int32) ([]domain.Member, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + memberColumns + ` FROM members
	          WHERE org_id = $1 AND ($2 = '' OR status = $2)
	          ORDER BY last_name, first_name LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, query, orgID, string(status), pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, err
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var count int32
	countQuery := `SELECT count(*) FROM members WHERE org_id = $1 AND ($2 = '' OR status = $2)`
	if err := r.db.QueryRowContext(ctx, countQuery, orgID, string(status)).Scan(&count); err != nil {
		return nil, 0, err
	}
	return members, count, nil
}

func (r *memberRepository) CountBySeatType(ctx context.Context, orgID int32, t domain.SeatType) (int32, error) {
	var count int32
	query := `SELECT count(*) FROM members WHERE org_id = $1 AND seat_type = $2`
	err := r.db.QueryRowContext(ctx, query, orgID, t).Scan(&count)
	return count, err
}

func (r *memberRepository) CountBySponsorPool(ctx context.Context, poolID int32) (int32, error) {
	var count int32
	query := `SELECT count(*) FROM members WHERE sponsor_pool_id = $1`
	err := r.db.QueryRowContext(ctx, query, poolID).Scan(&count)
	return count, err
}
