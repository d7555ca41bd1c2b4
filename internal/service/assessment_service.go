package service

import (
	"context"
	"errors"

	"pathways_backend/internal/model"
	"pathways_backend/internal/protocol"
	"pathways_backend/internal/repository"
	"pathways_backend/internal/util"
	"pathways_backend/pkg/logger"
	"pathways_backend/pkg/monitoring"
	"pathways_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AssessmentService loads assessment sessions and grades submissions on behalf of a viewer.
type AssessmentService struct {
	Units    *repository.UnitRepository
	Attempts *repository.AttemptRepository
	Progress *ProgressService
	Storage  *StorageService
}

func NewAssessmentService(units *repository.UnitRepository, attempts *repository.AttemptRepository, progress *ProgressService, storage *StorageService) *AssessmentService {
	return &AssessmentService{
		Units:    units,
		Attempts: attempts,
		Progress: progress,
		Storage:  storage,
	}
}

// LoadSession returns what the viewer sees when opening the unit's assessment.
// The attempt record is created on first load.
func (s *AssessmentService) LoadSession(ctx context.Context, viewer model.Viewer, contextID, unitID string) (view *protocol.SessionView, err error) {
	ctx, span := tracing.Start(ctx, "assessment.load",
		attribute.Int("user.id", int(viewer.UserID)),
		attribute.String("unit.id", unitID),
	)
	defer func() { tracing.End(span, err) }()

	unit, module, err := s.resolve(ctx, viewer, contextID, unitID)
	if err != nil {
		return nil, err
	}

	rec, err := s.Attempts.FindOrCreate(ctx, viewer.UserID, unit.ID)
	if err != nil {
		return nil, storageErr(err)
	}

	if rec.Completed {
		snap, err := s.Progress.ModuleSnapshot(ctx, viewer.UserID, module.ID)
		if err != nil {
			return nil, err
		}
		mp, err := s.moduleProgress(ctx, viewer, module, unit, snap, false)
		if err != nil {
			return nil, err
		}
		return &protocol.SessionView{
			Complete:       true,
			AssessType:     string(unit.AssessType),
			Points:         rec.PointsEarned,
			ModuleProgress: mp,
		}, nil
	}

	view = &protocol.SessionView{
		AssessType: string(unit.AssessType),
		Points:     unit.Points,
	}
	switch unit.AssessType {
	case model.AssessQuiz:
		view.Questions = questionViews(unit.Questions)
	case model.AssessLab:
		view.Setup = unit.Setup
		view.Activity = unit.Activity
	}
	return view, nil
}

// Grade evaluates a submission. Wrong answers are a normal outcome; only lookup, permission
// and storage problems are returned as errors.
func (s *AssessmentService) Grade(ctx context.Context, viewer model.Viewer, contextID, unitID string, sub protocol.Submission) (resp *protocol.GradeResponse, err error) {
	ctx, span := tracing.Start(ctx, "assessment.grade",
		attribute.Int("user.id", int(viewer.UserID)),
		attribute.String("unit.id", unitID),
	)
	defer func() { tracing.End(span, err) }()

	unit, module, err := s.resolve(ctx, viewer, contextID, unitID)
	if err != nil {
		return nil, err
	}

	rec, err := s.Attempts.FindOrCreate(ctx, viewer.UserID, unit.ID)
	if err != nil {
		return nil, storageErr(err)
	}
	if rec.Completed {
		return s.storedResult(ctx, viewer, module, unit, rec)
	}

	if unit.AssessType == model.AssessQuiz {
		res := GradeQuiz(unit.Questions, sub)
		if !res.Correct {
			monitoring.GradeOutcomes.WithLabelValues(string(unit.AssessType), protocol.StatusError).Inc()
			span.SetAttributes(attribute.Int("grade.wrong", res.Wrong))
			return &protocol.GradeResponse{
				Status:    protocol.StatusError,
				Points:    unit.Points,
				Errors:    res.Wrong,
				ErrorMsg:  WrongAnswerMessage(res.Wrong),
				Incorrect: res.Incorrect,
			}, nil
		}
	}

	result, err := s.Progress.Commit(ctx, viewer.UserID, unit)
	if err != nil {
		return nil, err
	}
	monitoring.GradeOutcomes.WithLabelValues(string(unit.AssessType), protocol.StatusCorrect).Inc()

	if result.AlreadyCompleted {
		// 并发提交：另一请求已经记分
		logger.Log.Debug("Duplicate commit observed",
			zap.Uint("userID", viewer.UserID),
			zap.String("unitID", unit.ID))
	}

	mp, err := s.moduleProgress(ctx, viewer, module, unit, result.After, result.ModuleJustCompleted)
	if err != nil {
		return nil, err
	}
	return &protocol.GradeResponse{
		Status:         protocol.StatusCorrect,
		Points:         result.Record.PointsEarned,
		ModuleProgress: mp,
	}, nil
}

func (s *AssessmentService) storedResult(ctx context.Context, viewer model.Viewer, module *model.Module, unit *model.Unit, rec *model.AttemptRecord) (*protocol.GradeResponse, error) {
	snap, err := s.Progress.ModuleSnapshot(ctx, viewer.UserID, module.ID)
	if err != nil {
		return nil, err
	}
	mp, err := s.moduleProgress(ctx, viewer, module, unit, snap, false)
	if err != nil {
		return nil, err
	}
	return &protocol.GradeResponse{
		Status:         protocol.StatusCorrect,
		Points:         rec.PointsEarned,
		ModuleProgress: mp,
	}, nil
}

// resolve finds the unit, checks that contextID names its module or a path containing it,
// and enforces preview visibility.
func (s *AssessmentService) resolve(ctx context.Context, viewer model.Viewer, contextID, unitID string) (*model.Unit, *model.Module, error) {
	unit, err := s.Units.FindUnit(ctx, unitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrUnitNotFound
		}
		return nil, nil, storageErr(err)
	}

	if contextID != unit.ModuleID {
		onPath, err := s.Units.PathHasModule(ctx, contextID, unit.ModuleID)
		if err != nil {
			return nil, nil, storageErr(err)
		}
		if !onPath {
			return nil, nil, util.ErrUnitNotFound
		}
	}

	if unit.InPreview && !viewer.MayPreview() {
		return nil, nil, util.ErrPreviewRestricted
	}

	module, err := s.Units.FindModule(ctx, unit.ModuleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrModuleNotFound
		}
		return nil, nil, storageErr(err)
	}
	return unit, module, nil
}

func (s *AssessmentService) moduleProgress(ctx context.Context, viewer model.Viewer, module *model.Module, unit *model.Unit, snap model.ProgressSnapshot, tada bool) (*protocol.ModuleProgress, error) {
	mp := &protocol.ModuleProgress{
		ModuleBadge: s.Storage.BadgeURL(util.BadgeKindModule, module.ID, module.Badge),
		ModuleName:  module.Name,
		ProgBar:     snap.PercentComplete,
		Progress:    snap.Label,
		Tada:        tada,
	}

	units, err := s.Units.ListModuleUnits(ctx, module.ID)
	if err != nil {
		return nil, storageErr(err)
	}
	if next := nextUnit(units, unit.ID, viewer); next != nil {
		href := "/unit/" + module.ID + "/" + next.ID
		name := next.Name
		mp.NextUnitHRef = &href
		mp.NextUnitName = &name
	}
	return mp, nil
}

// nextUnit is the first unit after current in module order that the viewer may open.
func nextUnit(units []model.Unit, currentID string, viewer model.Viewer) *model.Unit {
	found := false
	for i := range units {
		if units[i].ID == currentID {
			found = true
			continue
		}
		if !found {
			continue
		}
		if units[i].InPreview && !viewer.MayPreview() {
			continue
		}
		return &units[i]
	}
	return nil
}

func questionViews(questions []model.Question) []protocol.QuestionView {
	views := make([]protocol.QuestionView, 0, len(questions))
	for _, q := range questions {
		answers := make([]protocol.AnswerView, 0, len(q.Answers))
		for _, a := range q.Answers {
			answers = append(answers, protocol.AnswerView{ID: a.Key, Text: a.Text})
		}
		views = append(views, protocol.QuestionView{
			ID:      q.Key,
			Text:    q.Text,
			Count:   q.Count,
			Answers: answers,
		})
	}
	return views
}
