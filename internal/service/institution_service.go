package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/zewdu444/takethestage/internal/models"
	appErrors "github.com/zewdu444/takethestage/pkg/errors"
)

type institutionStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, institution *models.Institution) error
	FindByID(ctx context.Context, id string) (*models.Institution, error)
}

type slotSeeder interface {
	BulkCreate(ctx context.Context, exec sqlx.ExtContext, slots []models.Slot) error
}

// CreateInstitutionRequest describes institution registration.
type CreateInstitutionRequest struct {
	Name                 string `json:"name" validate:"required"`
	Region               string `json:"region" validate:"required"`
	City                 string `json:"city" validate:"required"`
	Woreda               string `json:"woreda" validate:"required"`
	FreeClassesMorning   int    `json:"free_classes_morning" validate:"gte=0"`
	FreeClassesAfternoon int    `json:"free_classes_afternoon" validate:"gte=0"`
	FreeClassesNight     int    `json:"free_classes_night" validate:"gte=0"`
	ClassSize            int    `json:"class_size" validate:"gte=0"`
}

// InstitutionService registers institutions and seeds their slot catalog.
type InstitutionService struct {
	institutions     institutionStore
	slots            slotSeeder
	tx               txRunner
	defaultClassSize int
	validator        *validator.Validate
	logger           *zap.Logger
}

// NewInstitutionService constructs InstitutionService.
func NewInstitutionService(institutions institutionStore, slots slotSeeder, tx txRunner, defaultClassSize int, validate *validator.Validate, logger *zap.Logger) *InstitutionService {
	if defaultClassSize <= 0 {
		defaultClassSize = 30
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstitutionService{
		institutions:     institutions,
		slots:            slots,
		tx:               tx,
		defaultClassSize: defaultClassSize,
		validator:        validate,
		logger:           logger,
	}
}

// Create registers an institution and populates one slot per (class name,
// weekday). A shift's counter is seeded to the class size only while the
// class index falls under that shift's free-class count; later classes
// carry zero seats for the shift. The institution row and every slot land
// in one transaction.
func (s *InstitutionService) Create(ctx context.Context, req CreateInstitutionRequest) (*models.Institution, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid institution payload")
	}
	if req.FreeClassesMorning == 0 && req.FreeClassesAfternoon == 0 && req.FreeClassesNight == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one shift needs a free class")
	}

	classSize := req.ClassSize
	if classSize <= 0 {
		classSize = s.defaultClassSize
	}

	institution := &models.Institution{
		Name:                 req.Name,
		Region:               req.Region,
		City:                 req.City,
		Woreda:               req.Woreda,
		FreeClassesMorning:   req.FreeClassesMorning,
		FreeClassesAfternoon: req.FreeClassesAfternoon,
		FreeClassesNight:     req.FreeClassesNight,
		ClassSize:            classSize,
	}

	err := s.tx.RunInTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.institutions.Create(ctx, exec, institution); err != nil {
			return err
		}
		return s.slots.BulkCreate(ctx, exec, seedSlots(institution))
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create institution")
	}

	s.logger.Info("institution registered",
		zap.String("institution_id", institution.ID),
		zap.String("name", institution.Name),
	)
	return institution, nil
}

// Get returns one institution.
func (s *InstitutionService) Get(ctx context.Context, id string) (*models.Institution, error) {
	institution, err := s.institutions.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "institution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
	}
	return institution, nil
}

// seedSlots builds the catalog rows for a new institution.
func seedSlots(institution *models.Institution) []models.Slot {
	maxClasses := institution.FreeClassesMorning
	if institution.FreeClassesAfternoon > maxClasses {
		maxClasses = institution.FreeClassesAfternoon
	}
	if institution.FreeClassesNight > maxClasses {
		maxClasses = institution.FreeClassesNight
	}

	slots := make([]models.Slot, 0, maxClasses*len(models.Weekdays))
	for i := 0; i < maxClasses; i++ {
		for _, day := range models.Weekdays {
			slot := models.Slot{
				InstitutionID: institution.ID,
				Name:          fmt.Sprintf("Class %d", i+1),
				Day:           day,
			}
			if i < institution.FreeClassesMorning {
				slot.FreeMorning = institution.ClassSize
			}
			if i < institution.FreeClassesAfternoon {
				slot.FreeAfternoon = institution.ClassSize
			}
			if i < institution.FreeClassesNight {
				slot.FreeNight = institution.ClassSize
			}
			slots = append(slots, slot)
		}
	}
	return slots
}
