package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/zewdu444/takethestage/internal/models"
)

// InstitutionRepository handles persistence of institutions.
type InstitutionRepository struct {
	db *sqlx.DB
}

// NewInstitutionRepository constructs the repository.
func NewInstitutionRepository(db *sqlx.DB) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

func (r *InstitutionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create persists a new institution.
func (r *InstitutionRepository) Create(ctx context.Context, exec sqlx.ExtContext, institution *models.Institution) error {
	if institution.ID == "" {
		institution.ID = uuid.NewString()
	}
	if institution.CreatedAt.IsZero() {
		institution.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO institutions (id, name, region, city, woreda, free_classes_morning, free_classes_afternoon, free_classes_night, class_size, created_at)
        VALUES (:id, :name, :region, :city, :woreda, :free_classes_morning, :free_classes_afternoon, :free_classes_night, :class_size, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, institution); err != nil {
		return fmt.Errorf("create institution: %w", err)
	}
	return nil
}

// FindByID returns an institution by ID.
func (r *InstitutionRepository) FindByID(ctx context.Context, id string) (*models.Institution, error) {
	const query = `SELECT id, name, region, city, woreda, free_classes_morning, free_classes_afternoon, free_classes_night, class_size, created_at
        FROM institutions WHERE id = $1`
	var institution models.Institution
	if err := r.db.GetContext(ctx, &institution, query, id); err != nil {
		return nil, err
	}
	return &institution, nil
}
