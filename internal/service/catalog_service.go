package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"

	"pathways_backend/internal/model"
	"pathways_backend/internal/repository"
	"pathways_backend/internal/util"
	"pathways_backend/pkg/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Catalog is the seed file layout used to publish modules, units and paths in development.
type Catalog struct {
	Modules []CatalogModule `yaml:"modules"`
	Paths   []CatalogPath   `yaml:"paths"`
}

type CatalogModule struct {
	ID        string        `yaml:"id"`
	Name      string        `yaml:"name"`
	BadgeFile string        `yaml:"badge_file"`
	Units     []CatalogUnit `yaml:"units"`
}

type CatalogPath struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	BadgeFile string   `yaml:"badge_file"`
	Modules   []string `yaml:"modules"`
}

type CatalogUnit struct {
	ID        string            `yaml:"id"`
	Name      string            `yaml:"name"`
	Type      model.AssessType  `yaml:"type"`
	Points    int               `yaml:"points"`
	Time      int               `yaml:"time"`
	Preview   bool              `yaml:"preview"`
	Setup     string            `yaml:"setup"`
	Activity  string            `yaml:"activity"`
	Questions []CatalogQuestion `yaml:"questions"`
}

type CatalogQuestion struct {
	ID      string          `yaml:"id"`
	Text    string          `yaml:"text"`
	Count   int             `yaml:"count"`
	Answers []CatalogAnswer `yaml:"answers"`
}

type CatalogAnswer struct {
	ID      string `yaml:"id"`
	Text    string `yaml:"text"`
	Correct bool   `yaml:"correct"`
}

type CatalogService struct {
	DB      *gorm.DB
	Cache   *repository.DefinitionCache
	Storage *StorageService
}

func NewCatalogService(db *gorm.DB, cache *repository.DefinitionCache, storage *StorageService) *CatalogService {
	return &CatalogService{DB: db, Cache: cache, Storage: storage}
}

// ParseCatalog decodes and validates a seed document.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	var cat Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		if errors.Is(err, io.EOF) {
			return &cat, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := cat.validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Catalog) validate() error {
	modules := make(map[string]bool)
	units := make(map[string]bool)
	for _, m := range c.Modules {
		if m.ID == "" {
			return errors.New("module without id")
		}
		if modules[m.ID] {
			return fmt.Errorf("duplicate module %s", m.ID)
		}
		modules[m.ID] = true

		for _, u := range m.Units {
			if u.ID == "" {
				return fmt.Errorf("module %s: unit without id", m.ID)
			}
			if units[u.ID] {
				return fmt.Errorf("duplicate unit %s", u.ID)
			}
			units[u.ID] = true
			if u.Type != model.AssessQuiz && u.Type != model.AssessLab {
				return fmt.Errorf("unit %s: unknown type %q", u.ID, u.Type)
			}
			if u.Points < 0 || u.Time < 0 {
				return fmt.Errorf("unit %s: points and time must not be negative", u.ID)
			}
			if u.Type == model.AssessLab && len(u.Questions) > 0 {
				return fmt.Errorf("unit %s: labs have no questions", u.ID)
			}
			if err := validateQuestions(u); err != nil {
				return err
			}
		}
	}

	for _, p := range c.Paths {
		if p.ID == "" {
			return errors.New("path without id")
		}
		for _, mid := range p.Modules {
			if !modules[mid] {
				return fmt.Errorf("path %s: unknown module %s", p.ID, mid)
			}
		}
	}
	return nil
}

func validateQuestions(u CatalogUnit) error {
	keys := make(map[string]bool)
	for _, q := range u.Questions {
		if q.ID == "" || keys[q.ID] {
			return fmt.Errorf("unit %s: missing or duplicate question id %q", u.ID, q.ID)
		}
		keys[q.ID] = true

		answers := make(map[string]bool)
		correct := 0
		for _, a := range q.Answers {
			if a.ID == "" || answers[a.ID] {
				return fmt.Errorf("unit %s question %s: missing or duplicate answer id %q", u.ID, q.ID, a.ID)
			}
			answers[a.ID] = true
			if a.Correct {
				correct++
			}
		}
		if correct == 0 {
			return fmt.Errorf("unit %s question %s: no correct answer", u.ID, q.ID)
		}
		if q.Count != 0 && q.Count != correct {
			return fmt.Errorf("unit %s question %s: count %d but %d correct answers", u.ID, q.ID, q.Count, correct)
		}
	}
	return nil
}

// Import upserts the catalog. Question sets of imported units are replaced wholesale.
// Badge files are resolved relative to baseDir and uploaded through the storage provider.
func (s *CatalogService) Import(ctx context.Context, cat *Catalog, baseDir string) error {
	var unitIDs []string

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for mi, m := range cat.Modules {
			badge, err := s.uploadBadge(ctx, baseDir, m.BadgeFile, util.BadgeKindModule, m.ID)
			if err != nil {
				return err
			}
			mod := &model.Module{SlugBase: model.SlugBase{ID: m.ID}, Name: m.Name, Badge: badge}
			if err := upsert(tx, mod); err != nil {
				return fmt.Errorf("module %s: %w", m.ID, err)
			}

			for ui, cu := range m.Units {
				unit := &model.Unit{
					SlugBase:   model.SlugBase{ID: cu.ID},
					ModuleID:   m.ID,
					Name:       cu.Name,
					AssessType: cu.Type,
					Points:     cu.Points,
					EstTime:    cu.Time,
					InPreview:  cu.Preview,
					Seq:        ui,
					Setup:      cu.Setup,
					Activity:   cu.Activity,
				}
				if err := upsert(tx, unit); err != nil {
					return fmt.Errorf("unit %s: %w", cu.ID, err)
				}
				if err := replaceQuestions(tx, cu); err != nil {
					return fmt.Errorf("unit %s: %w", cu.ID, err)
				}
				unitIDs = append(unitIDs, cu.ID)
			}
			logger.Log.Debug("Imported module", zap.String("module", m.ID), zap.Int("seq", mi), zap.Int("units", len(m.Units)))
		}

		for _, p := range cat.Paths {
			badge, err := s.uploadBadge(ctx, baseDir, p.BadgeFile, util.BadgeKindPath, p.ID)
			if err != nil {
				return err
			}
			path := &model.Path{SlugBase: model.SlugBase{ID: p.ID}, Name: p.Name, Badge: badge}
			if err := upsert(tx, path); err != nil {
				return fmt.Errorf("path %s: %w", p.ID, err)
			}
			if err := tx.Where("path_id = ?", p.ID).Delete(&model.PathModule{}).Error; err != nil {
				return err
			}
			for i, mid := range p.Modules {
				if err := tx.Create(&model.PathModule{PathID: p.ID, ModuleID: mid, Seq: i}).Error; err != nil {
					return fmt.Errorf("path %s: %w", p.ID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.Cache.Invalidate(ctx, unitIDs...); err != nil {
		logger.Log.Warn("Failed to invalidate definition cache", zap.Error(err), zap.Strings("units", unitIDs))
	}
	logger.Log.Info("Catalog imported",
		zap.Int("modules", len(cat.Modules)),
		zap.Int("units", len(unitIDs)),
		zap.Int("paths", len(cat.Paths)))
	return nil
}

func upsert(tx *gorm.DB, value interface{}) error {
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(value).Error
}

// replaceQuestions hard-deletes the unit's questions so the unique keys can be reused.
func replaceQuestions(tx *gorm.DB, cu CatalogUnit) error {
	var refs []uint
	if err := tx.Model(&model.Question{}).Unscoped().Where("unit_id = ?", cu.ID).Pluck("id", &refs).Error; err != nil {
		return err
	}
	if len(refs) > 0 {
		if err := tx.Unscoped().Where("question_ref IN ?", refs).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("id IN ?", refs).Delete(&model.Question{}).Error; err != nil {
			return err
		}
	}

	for qi, cq := range cu.Questions {
		count := cq.Count
		if count == 0 {
			for _, a := range cq.Answers {
				if a.Correct {
					count++
				}
			}
		}
		q := &model.Question{UnitID: cu.ID, Key: cq.ID, Text: cq.Text, Count: count, Seq: qi}
		for ai, ca := range cq.Answers {
			q.Answers = append(q.Answers, model.Answer{Key: ca.ID, Text: ca.Text, Correct: ca.Correct, Seq: ai})
		}
		if err := tx.Create(q).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *CatalogService) uploadBadge(ctx context.Context, baseDir, file, kind, id string) (string, error) {
	if file == "" || s.Storage == nil {
		return "", nil
	}
	local := file
	if !filepath.IsAbs(local) {
		local = filepath.Join(baseDir, file)
	}
	name := BadgeObject(kind, id)
	contentType := mime.TypeByExtension(filepath.Ext(local))
	if contentType == "" {
		contentType = "image/png"
	}
	if _, err := s.Storage.UploadFile(ctx, name, local, contentType); err != nil {
		return "", fmt.Errorf("upload badge for %s %s: %w", kind, id, err)
	}
	return name, nil
}
