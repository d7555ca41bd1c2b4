// Package testutil provides an in-memory catalog and ledger for package tests.
package testutil

import (
	"fmt"
	"pathways_backend/internal/model"
	"pathways_backend/pkg/database"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// DB opens a private in-memory sqlite database with all tables migrated.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("test db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	return db
}

// Break closes the underlying connection pool so every later query fails.
func Break(tb testing.TB, db *gorm.DB) {
	tb.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("test db handle: %v", err)
	}
	sqlDB.Close()
}

type AnswerFixture struct {
	Key     string
	Correct bool
}

type QuestionFixture struct {
	Key     string
	Count   int
	Answers []AnswerFixture
}

func CreateModule(tb testing.TB, db *gorm.DB, id, name string) {
	tb.Helper()
	mod := &model.Module{SlugBase: model.SlugBase{ID: id}, Name: name}
	if err := db.Create(mod).Error; err != nil {
		tb.Fatalf("create module %s: %v", id, err)
	}
}

func CreatePath(tb testing.TB, db *gorm.DB, id, name string, moduleIDs ...string) {
	tb.Helper()
	p := &model.Path{SlugBase: model.SlugBase{ID: id}, Name: name}
	if err := db.Create(p).Error; err != nil {
		tb.Fatalf("create path %s: %v", id, err)
	}
	for i, mid := range moduleIDs {
		pm := &model.PathModule{PathID: id, ModuleID: mid, Seq: i}
		if err := db.Create(pm).Error; err != nil {
			tb.Fatalf("link path %s to %s: %v", id, mid, err)
		}
	}
}

func CreateUnit(tb testing.TB, db *gorm.DB, unit model.Unit, questions ...QuestionFixture) {
	tb.Helper()
	if err := db.Create(&unit).Error; err != nil {
		tb.Fatalf("create unit %s: %v", unit.ID, err)
	}
	for qi, qf := range questions {
		q := &model.Question{UnitID: unit.ID, Key: qf.Key, Text: "Question " + qf.Key, Count: qf.Count, Seq: qi}
		if err := db.Create(q).Error; err != nil {
			tb.Fatalf("create question %s: %v", qf.Key, err)
		}
		for ai, af := range qf.Answers {
			a := &model.Answer{QuestionRef: q.ID, Key: af.Key, Text: "Answer " + af.Key, Correct: af.Correct, Seq: ai}
			if err := db.Create(a).Error; err != nil {
				tb.Fatalf("create answer %s: %v", af.Key, err)
			}
		}
	}
}

// SeedCatalog installs:
//
//	module m1: u1 quiz (10 min, 10 pts, q1 -> a, q2 -> d) and u2 lab (20 min, 20 pts)
//	module m2: u3 quiz (30 min, 15 pts, q1 -> a+c of a,b,c) and u4 preview lab (0 min, 5 pts)
//	module m3: no units
//	path p1: m1, m2
func SeedCatalog(tb testing.TB, db *gorm.DB) {
	tb.Helper()
	CreateModule(tb, db, "m1", "Module One")
	CreateModule(tb, db, "m2", "Module Two")
	CreateModule(tb, db, "m3", "Empty Module")
	CreatePath(tb, db, "p1", "Path One", "m1", "m2")

	CreateUnit(tb, db, model.Unit{
		SlugBase: model.SlugBase{ID: "u1"}, ModuleID: "m1", Name: "Unit One",
		AssessType: model.AssessQuiz, Points: 10, EstTime: 10, Seq: 0,
	},
		QuestionFixture{Key: "q1", Count: 1, Answers: []AnswerFixture{{"a", true}, {"b", false}}},
		QuestionFixture{Key: "q2", Count: 1, Answers: []AnswerFixture{{"c", false}, {"d", true}}},
	)
	CreateUnit(tb, db, model.Unit{
		SlugBase: model.SlugBase{ID: "u2"}, ModuleID: "m1", Name: "Unit Two",
		AssessType: model.AssessLab, Points: 20, EstTime: 20, Seq: 1,
		Setup: "<p>setup</p>", Activity: "<p>activity</p>",
	})
	CreateUnit(tb, db, model.Unit{
		SlugBase: model.SlugBase{ID: "u3"}, ModuleID: "m2", Name: "Unit Three",
		AssessType: model.AssessQuiz, Points: 15, EstTime: 30, Seq: 0,
	},
		QuestionFixture{Key: "q1", Count: 2, Answers: []AnswerFixture{{"a", true}, {"b", false}, {"c", true}}},
	)
	CreateUnit(tb, db, model.Unit{
		SlugBase: model.SlugBase{ID: "u4"}, ModuleID: "m2", Name: "Preview Lab",
		AssessType: model.AssessLab, Points: 5, EstTime: 0, Seq: 1, InPreview: true,
		Activity: "<p>beta</p>",
	})
}
