package model

type AssessType string

const (
	AssessQuiz AssessType = "quiz"
	AssessLab  AssessType = "lab"
)

// Unit is the smallest gradable item. Definitions are written by the publisher only.
type Unit struct {
	SlugBase
	ModuleID   string     `gorm:"index;type:varchar(64);not null" json:"moduleId"`
	Name       string     `gorm:"size:255;not null" json:"name"`
	AssessType AssessType `gorm:"size:10;not null" json:"assessType"`
	Points     int        `gorm:"default:0" json:"points"`
	EstTime    int        `gorm:"default:0" json:"estTime"` // minutes
	InPreview  bool       `gorm:"default:false" json:"inPreview"`
	Seq        int        `gorm:"default:0" json:"seq"`
	Setup      string     `gorm:"type:text" json:"setup,omitempty"`
	Activity   string     `gorm:"type:text" json:"activity,omitempty"`
	Questions  []Question `gorm:"foreignKey:UnitID;references:ID" json:"questions,omitempty"`
}

func (Unit) TableName() string {
	return "units"
}

// Question belongs to a quiz unit. Key is the id exposed on the wire, unique within the unit.
type Question struct {
	BaseModel
	UnitID  string   `gorm:"type:varchar(64);not null;uniqueIndex:idx_unit_question" json:"unitId"`
	Key     string   `gorm:"type:varchar(64);not null;uniqueIndex:idx_unit_question" json:"key"`
	Text    string   `gorm:"type:text" json:"text"`
	Count   int      `gorm:"default:1" json:"count"`
	Seq     int      `gorm:"default:0" json:"seq"`
	Answers []Answer `gorm:"foreignKey:QuestionRef" json:"answers"`
}

func (Question) TableName() string {
	return "unit_questions"
}

// Answer carries its correctness flag; it is serialized for the definition cache only
// and never copied into client payloads.
type Answer struct {
	BaseModel
	QuestionRef uint   `gorm:"not null;uniqueIndex:idx_question_answer" json:"questionRef"`
	Key         string `gorm:"type:varchar(64);not null;uniqueIndex:idx_question_answer" json:"key"`
	Text        string `gorm:"type:text" json:"text"`
	Correct     bool   `gorm:"default:false" json:"correct"`
	Seq         int    `gorm:"default:0" json:"seq"`
}

func (Answer) TableName() string {
	return "unit_answers"
}

// CorrectKeys returns the set of answer keys flagged correct.
func (q Question) CorrectKeys() map[string]bool {
	keys := make(map[string]bool)
	for _, a := range q.Answers {
		if a.Correct {
			keys[a.Key] = true
		}
	}
	return keys
}
