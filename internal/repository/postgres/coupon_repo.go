package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coupon-service/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// likeEscaper neutralizes the ILIKE metacharacters so a search term is
// matched as a literal substring. A term like "50%" must not turn into
// the pattern "contains 50".
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

type couponRepository struct {
	db *pgxpool.Pool
}

func NewCouponRepository(db *pgxpool.Pool) domain.CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(ctx context.Context, c *domain.Coupon) error {
	const query = `
		INSERT INTO coupons (code, description, discount_value, expiration_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		c.Code,
		c.Description,
		c.DiscountValue,
		c.ExpirationDate,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateCode
		}
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	return nil
}

func (r *couponRepository) List(ctx context.Context, q domain.ListQuery) ([]domain.Coupon, error) {
	query := fmt.Sprintf(`
		SELECT id, code, description, discount_value, expiration_date, deleted, created_at
		FROM coupons
		WHERE deleted = FALSE
		  AND ($1 = '' OR code ILIKE '%%' || $1 || '%%' OR description ILIKE '%%' || $1 || '%%')
		ORDER BY %s %s
		LIMIT $2 OFFSET $3`, sortColumn(q.SortBy), sortDirection(q.Descending))

	rows, err := r.db.Query(ctx, query, escapeLike(q.Search), q.Size, q.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	coupons := make([]domain.Coupon, 0, q.Size)
	for rows.Next() {
		var c domain.Coupon
		if err := rows.Scan(
			&c.ID,
			&c.Code,
			&c.Description,
			&c.DiscountValue,
			&c.ExpirationDate,
			&c.Deleted,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}

	return coupons, rows.Err()
}

func (r *couponRepository) Count(ctx context.Context, search string) (int64, error) {
	const query = `
		SELECT count(*)
		FROM coupons
		WHERE deleted = FALSE
		  AND ($1 = '' OR code ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')`

	var total int64
	if err := r.db.QueryRow(ctx, query, escapeLike(search)).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count coupons: %w", err)
	}
	return total, nil
}

// SoftDelete flips the deleted flag on an active row. The deleted = FALSE
// predicate makes the update atomic with respect to concurrent deletes:
// only one caller can ever observe a row being updated.
func (r *couponRepository) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `UPDATE coupons SET deleted = TRUE WHERE id = $1 AND deleted = FALSE`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to soft delete coupon: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// IsAlreadyDeleted queries the row regardless of its deleted flag. This is
// the one lookup that must bypass the active-only visibility filter.
func (r *couponRepository) IsAlreadyDeleted(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `SELECT count(*) > 0 FROM coupons WHERE id = $1 AND deleted = TRUE`

	var deleted bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&deleted); err != nil {
		return false, fmt.Errorf("failed to check deleted coupon: %w", err)
	}
	return deleted, nil
}

// sortColumn maps the API sort field to a real column. Unknown fields fall
// back to expiration_date, the listing default.
func sortColumn(field domain.SortField) string {
	switch field {
	case domain.SortByCode:
		return "code"
	case domain.SortByDescription:
		return "description"
	case domain.SortByDiscountValue:
		return "discount_value"
	case domain.SortByCreatedAt:
		return "created_at"
	default:
		return "expiration_date"
	}
}

func sortDirection(descending bool) string {
	if descending {
		return "DESC"
	}
	return "ASC"
}
