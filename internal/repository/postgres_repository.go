package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/just-nibble/srs-tracker/internal/domain"
	"github.com/just-nibble/srs-tracker/internal/http/dtos"
	"github.com/just-nibble/srs-tracker/internal/keylock"
	"github.com/just-nibble/srs-tracker/pkg/errcodes"
)

// GormRepositoryStore is a GORM-based implementation of RepositoryStore
type GormRepositoryStore struct {
	db    *gorm.DB
	locks *keylock.Locker
}

// NewGormRepositoryStore initializes a new GormRepositoryStore
func NewGormRepositoryStore(db *gorm.DB) RepositoryStore {
	return &GormRepositoryStore{db: db, locks: keylock.New()}
}

func (r *GormRepositoryStore) Create(ctx context.Context, repo domain.Repository) (*domain.Repository, error) {
	if ctx.Err() == context.Canceled {
		return nil, errcodes.ErrContextCancelled
	}

	existing, err := r.ByName(ctx, repo.Name)
	if err != nil && !errors.Is(err, errcodes.ErrNoRecordFound) {
		return nil, err
	}
	if existing != nil {
		return nil, errcodes.ErrRepoAlreadyExists
	}

	repo.EnsureOwnerMember()
	dbRepository := ToGormRepository(&repo)

	err = r.db.WithContext(ctx).Create(dbRepository).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, errcodes.ErrRepoAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return dbRepository.ToDomain(), nil
}

func (r *GormRepositoryStore) ByID(ctx context.Context, id string) (*domain.Repository, error) {
	if ctx.Err() == context.Canceled {
		return nil, errcodes.ErrContextCancelled
	}
	repo, err := load(r.db.WithContext(ctx), "id = ?", id)
	if err != nil {
		return nil, err
	}
	return repo.ToDomain(), nil
}

func (r *GormRepositoryStore) ByName(ctx context.Context, name string) (*domain.Repository, error) {
	if ctx.Err() == context.Canceled {
		return nil, errcodes.ErrContextCancelled
	}
	repo, err := load(r.db.WithContext(ctx), "name = ?", name)
	if err != nil {
		return nil, err
	}
	return repo.ToDomain(), nil
}

// ForUser lists repositories userID owns or is a member of.
func (r *GormRepositoryStore) ForUser(ctx context.Context, userID string) ([]domain.Repository, error) {
	if ctx.Err() == context.Canceled {
		return nil, errcodes.ErrContextCancelled
	}

	var dbRepositories []Repository
	err := preload(r.db.WithContext(ctx)).
		Where("owner_id = ?", userID).
		Or("id IN (?)", r.db.Model(&Member{}).Select("repository_id").Where("user_id = ?", userID)).
		Order("created_at DESC").
		Find(&dbRepositories).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(dbRepositories), nil
}

func (r *GormRepositoryStore) All(ctx context.Context, query dtos.APIPagingDto) ([]domain.Repository, dtos.PagingInfo, error) {
	var (
		dbRepositories []Repository
		count          int64
	)

	queryInfo, offset := getPaginationInfo(query, "created_at", "updated_at", "name")

	db := r.db.WithContext(ctx).Model(&Repository{}).Session(&gorm.Session{})
	if err := db.Count(&count).Error; err != nil {
		return nil, dtos.PagingInfo{}, err
	}

	err := preload(db).Offset(offset).Limit(queryInfo.Limit).
		Order(fmt.Sprintf("%s %s", queryInfo.Sort, queryInfo.Direction)).
		Find(&dbRepositories).Error
	if err != nil {
		return nil, dtos.PagingInfo{}, err
	}

	pagingInfo := getPagingInfo(queryInfo, int(count))
	pagingInfo.Count = len(dbRepositories)
	return toDomainList(dbRepositories), pagingInfo, nil
}

// HistoryPage lists history entries of repoID by sequence number. An empty
// kind lists both kinds.
func (r *GormRepositoryStore) HistoryPage(ctx context.Context, repoID string, kind domain.ArtifactKind, query dtos.APIPagingDto) ([]domain.HistoryEntry, dtos.PagingInfo, error) {
	var (
		rows  []HistoryEntry
		count int64
	)

	queryInfo, offset := getPaginationInfo(query, "seq")

	db := r.db.WithContext(ctx).Model(&HistoryEntry{}).Where("repository_id = ?", repoID)
	if kind != "" {
		db = db.Where("kind = ?", string(kind))
	}
	db = db.Session(&gorm.Session{})
	if err := db.Count(&count).Error; err != nil {
		return nil, dtos.PagingInfo{}, err
	}

	err := db.Offset(offset).Limit(queryInfo.Limit).
		Order(fmt.Sprintf("%s %s", queryInfo.Sort, queryInfo.Direction)).
		Find(&rows).Error
	if err != nil {
		return nil, dtos.PagingInfo{}, err
	}

	entries := make([]domain.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.ToDomain())
	}

	pagingInfo := getPagingInfo(queryInfo, int(count))
	pagingInfo.Count = len(entries)
	return entries, pagingInfo, nil
}

// Update loads repository id under a row lock (SELECT ... FOR UPDATE) and an
// in-process lock, applies fn and saves the aggregate with its children.
func (r *GormRepositoryStore) Update(ctx context.Context, id string, fn MutateFunc) (*domain.Repository, error) {
	if ctx.Err() == context.Canceled {
		return nil, errcodes.ErrContextCancelled
	}

	unlock := r.locks.Lock(id)
	defer unlock()

	var updated *domain.Repository
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked Repository
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").Where("id = ?", id).Find(&locked).Error
		if err != nil {
			return err
		}
		if locked.ID == "" {
			return errcodes.ErrRepoNotFound
		}

		row, err := load(tx, "id = ?", id)
		if err != nil {
			return err
		}

		repo := row.ToDomain()
		if err := fn(repo); err != nil {
			return err
		}
		repo.EnsureOwnerMember()

		if err := tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(ToGormRepository(repo)).Error; err != nil {
			return err
		}
		updated = repo
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func preload(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Requests", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Preload("Comparisons", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

func load(db *gorm.DB, query string, args ...interface{}) (*Repository, error) {
	var repo Repository
	err := preload(db).Where(query, args...).Find(&repo).Error
	if err != nil {
		return nil, err
	}
	if repo.ID == "" {
		return nil, errcodes.ErrNoRecordFound
	}
	return &repo, nil
}

func toDomainList(rows []Repository) []domain.Repository {
	out := make([]domain.Repository, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out
}
