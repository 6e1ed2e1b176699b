package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/scrooge/internal/catalog/domain"
	"github.com/smallbiznis/scrooge/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  catalogdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  catalogdomain.Repository
	genID *snowflake.Node
}

func New(p Params) catalogdomain.CatalogService {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

// EnsureService returns the service with the given external uid, creating it
// if it was never observed before. The bool reports whether a row was created.
func (s *Service) EnsureService(ctx context.Context, uid, name string) (*catalogdomain.Service, bool, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, false, catalogdomain.ErrInvalidUID
	}

	existing, err := s.repo.FindServiceByUID(ctx, s.db, uid)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	now := time.Now().UTC()
	svc := &catalogdomain.Service{
		ID:        s.genID.Generate(),
		CIUID:     uid,
		Name:      strings.TrimSpace(name),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertService(ctx, s.db, svc); err != nil {
		// concurrent sync may have raced us on the natural key
		if db.IsDuplicateKeyErr(err) {
			existing, ferr := s.repo.FindServiceByUID(ctx, s.db, uid)
			if ferr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return svc, true, nil
}

func (s *Service) EnsureEnvironment(ctx context.Context, name string) (*catalogdomain.Environment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, catalogdomain.ErrInvalidEnvironment
	}

	existing, err := s.repo.FindEnvironmentByName(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	env := &catalogdomain.Environment{
		ID:   s.genID.Generate(),
		Name: name,
	}
	if err := s.repo.InsertEnvironment(ctx, s.db, env); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return s.repo.FindEnvironmentByName(ctx, s.db, name)
		}
		return nil, err
	}
	return env, nil
}

func (s *Service) EnsureServiceEnvironment(ctx context.Context, serviceUID, environment string) (*catalogdomain.ServiceEnvironment, bool, error) {
	svc, err := s.repo.FindServiceByUID(ctx, s.db, strings.TrimSpace(serviceUID))
	if err != nil {
		return nil, false, err
	}
	if svc == nil {
		return nil, false, catalogdomain.ErrServiceNotFound
	}

	env, err := s.EnsureEnvironment(ctx, environment)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.repo.FindServiceEnvironment(ctx, s.db, svc.ID, env.ID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	se := &catalogdomain.ServiceEnvironment{
		ID:            s.genID.Generate(),
		ServiceID:     svc.ID,
		EnvironmentID: env.ID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.InsertServiceEnvironment(ctx, s.db, se); err != nil {
		if db.IsDuplicateKeyErr(err) {
			existing, ferr := s.repo.FindServiceEnvironment(ctx, s.db, svc.ID, env.ID)
			if ferr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return se, true, nil
}

func (s *Service) ListServiceEnvironments(ctx context.Context) ([]catalogdomain.ServiceEnvironmentRow, error) {
	return s.repo.ListServiceEnvironments(ctx, s.db)
}

func (s *Service) ServiceEnvironmentIDs(ctx context.Context, serviceIDs []snowflake.ID) ([]snowflake.ID, error) {
	return s.repo.ListServiceEnvironmentIDsByServices(ctx, s.db, serviceIDs)
}
