// Package snapshotstore persists data snapshots in a relational store. The
// engine only ever consumes whole snapshots, so the store exposes exactly two
// operations: replace everything, and load everything.
package snapshotstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/devcareer/compass-backend/internal/domain"
	"github.com/devcareer/compass-backend/internal/platform/logger"
)

type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

type personRow struct {
	ID        int64 `gorm:"primaryKey"`
	Handle    string
	Name      string
	Bio       string
	Location  string
	Company   string
	Followers int
	RepoCount int
}

func (personRow) TableName() string { return "people" }

type skillRow struct {
	ID              int64 `gorm:"primaryKey"`
	Name            string
	Category        string
	Description     string
	PopularityScore float64
	DemandScore     float64
}

func (skillRow) TableName() string { return "skills" }

type repositoryRow struct {
	ID             int64 `gorm:"primaryKey"`
	PersonID       int64 `gorm:"index"`
	Name           string
	FullName       string
	Description    string
	Language       string
	Languages      datatypes.JSON
	Topics         datatypes.JSON
	Stars          int
	Forks          int
	IsFork         bool
	RecentActivity datatypes.JSON
}

func (repositoryRow) TableName() string { return "repositories" }

type postingRow struct {
	ID             int64 `gorm:"primaryKey"`
	Title          string
	Company        string
	Description    string
	RequiredSkills datatypes.JSON
	OptionalSkills datatypes.JSON
	SalaryMin      int
	SalaryMax      int
	Location       string
	Source         string
}

func (postingRow) TableName() string { return "postings" }

type skillRelationRow struct {
	PersonID       int64 `gorm:"primaryKey;autoIncrement:false"`
	SkillID        int64 `gorm:"primaryKey;autoIncrement:false"`
	Proficiency    string
	UsageFrequency float64
}

func (skillRelationRow) TableName() string { return "skill_relations" }

// NewFromEnv opens the store at SNAPSHOT_DB_DSN. A postgres:// DSN selects the
// postgres driver, anything else is treated as a sqlite path. An unset DSN
// returns (nil, nil): running without persistent snapshots is supported.
func NewFromEnv(log *logger.Logger) (*Store, error) {
	dsn := strings.TrimSpace(os.Getenv("SNAPSHOT_DB_DSN"))
	if dsn == "" {
		return nil, nil
	}
	return Open(log, dsn)
}

func Open(log *logger.Logger, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	if err := db.AutoMigrate(
		&personRow{},
		&skillRow{},
		&repositoryRow{},
		&postingRow{},
		&skillRelationRow{},
	); err != nil {
		return nil, fmt.Errorf("migrate snapshot store: %w", err)
	}

	var scoped *logger.Logger
	if log != nil {
		scoped = log.With("service", "SnapshotStore")
		scoped.Info("snapshot store ready", "dialect", db.Dialector.Name())
	}
	return &Store{db: db, log: scoped}, nil
}

// Replace overwrites the stored snapshot in one transaction.
func (s *Store) Replace(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil {
		snap = &domain.Snapshot{}
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"skill_relations", "postings", "repositories", "skills", "people"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return err
			}
		}

		for _, p := range snap.People {
			if err := tx.Create(&personRow{
				ID: p.ID, Handle: p.Handle, Name: p.Name, Bio: p.Bio,
				Location: p.Location, Company: p.Company,
				Followers: p.Followers, RepoCount: p.RepoCount,
			}).Error; err != nil {
				return err
			}
		}
		for _, sk := range snap.Skills {
			if err := tx.Create(&skillRow{
				ID: sk.ID, Name: sk.Name, Category: sk.Category, Description: sk.Description,
				PopularityScore: sk.PopularityScore, DemandScore: sk.DemandScore,
			}).Error; err != nil {
				return err
			}
		}
		for _, r := range snap.Repositories {
			row := repositoryRow{
				ID: r.ID, PersonID: r.PersonID, Name: r.Name, FullName: r.FullName,
				Description: r.Description, Language: r.Language,
				Stars: r.Stars, Forks: r.Forks, IsFork: r.IsFork,
			}
			var err error
			if row.Languages, err = toJSON(r.Languages); err != nil {
				return err
			}
			if row.Topics, err = toJSON(r.Topics); err != nil {
				return err
			}
			if row.RecentActivity, err = toJSON(r.RecentActivity); err != nil {
				return err
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		for _, p := range snap.Postings {
			row := postingRow{
				ID: p.ID, Title: p.Title, Company: p.Company, Description: p.Description,
				SalaryMin: p.SalaryMin, SalaryMax: p.SalaryMax,
				Location: p.Location, Source: p.Source,
			}
			var err error
			if row.RequiredSkills, err = toJSON(p.RequiredSkills); err != nil {
				return err
			}
			if row.OptionalSkills, err = toJSON(p.OptionalSkills); err != nil {
				return err
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		for _, rel := range snap.SkillRelations {
			if err := tx.Create(&skillRelationRow{
				PersonID: rel.PersonID, SkillID: rel.SkillID,
				Proficiency: rel.Proficiency, UsageFrequency: rel.UsageFrequency,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Load reads the whole stored snapshot.
func (s *Store) Load(ctx context.Context) (*domain.Snapshot, error) {
	db := s.db.WithContext(ctx)
	snap := &domain.Snapshot{}

	var people []personRow
	if err := db.Order("id").Find(&people).Error; err != nil {
		return nil, fmt.Errorf("load people: %w", err)
	}
	for _, p := range people {
		snap.People = append(snap.People, domain.PersonRecord{
			ID: p.ID, Handle: p.Handle, Name: p.Name, Bio: p.Bio,
			Location: p.Location, Company: p.Company,
			Followers: p.Followers, RepoCount: p.RepoCount,
		})
	}

	var skills []skillRow
	if err := db.Order("id").Find(&skills).Error; err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}
	for _, sk := range skills {
		snap.Skills = append(snap.Skills, domain.SkillRecord{
			ID: sk.ID, Name: sk.Name, Category: sk.Category, Description: sk.Description,
			PopularityScore: sk.PopularityScore, DemandScore: sk.DemandScore,
		})
	}

	var repos []repositoryRow
	if err := db.Order("id").Find(&repos).Error; err != nil {
		return nil, fmt.Errorf("load repositories: %w", err)
	}
	for _, r := range repos {
		rec := domain.RepositoryRecord{
			ID: r.ID, PersonID: r.PersonID, Name: r.Name, FullName: r.FullName,
			Description: r.Description, Language: r.Language,
			Stars: r.Stars, Forks: r.Forks, IsFork: r.IsFork,
		}
		if err := fromJSON(r.Languages, &rec.Languages); err != nil {
			return nil, fmt.Errorf("repository %d languages: %w", r.ID, err)
		}
		if err := fromJSON(r.Topics, &rec.Topics); err != nil {
			return nil, fmt.Errorf("repository %d topics: %w", r.ID, err)
		}
		if err := fromJSON(r.RecentActivity, &rec.RecentActivity); err != nil {
			return nil, fmt.Errorf("repository %d recent activity: %w", r.ID, err)
		}
		snap.Repositories = append(snap.Repositories, rec)
	}

	var postings []postingRow
	if err := db.Order("id").Find(&postings).Error; err != nil {
		return nil, fmt.Errorf("load postings: %w", err)
	}
	for _, p := range postings {
		rec := domain.PostingRecord{
			ID: p.ID, Title: p.Title, Company: p.Company, Description: p.Description,
			SalaryMin: p.SalaryMin, SalaryMax: p.SalaryMax,
			Location: p.Location, Source: p.Source,
		}
		if err := fromJSON(p.RequiredSkills, &rec.RequiredSkills); err != nil {
			return nil, fmt.Errorf("posting %d required skills: %w", p.ID, err)
		}
		if err := fromJSON(p.OptionalSkills, &rec.OptionalSkills); err != nil {
			return nil, fmt.Errorf("posting %d optional skills: %w", p.ID, err)
		}
		snap.Postings = append(snap.Postings, rec)
	}

	var relations []skillRelationRow
	if err := db.Order("person_id, skill_id").Find(&relations).Error; err != nil {
		return nil, fmt.Errorf("load skill relations: %w", err)
	}
	for _, rel := range relations {
		snap.SkillRelations = append(snap.SkillRelations, domain.SkillRelation{
			PersonID: rel.PersonID, SkillID: rel.SkillID,
			Proficiency: rel.Proficiency, UsageFrequency: rel.UsageFrequency,
		})
	}

	return snap, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toJSON(v any) (datatypes.JSON, error) {
	if v == nil {
		return datatypes.JSON([]byte(`null`)), nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func fromJSON(raw datatypes.JSON, out any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
