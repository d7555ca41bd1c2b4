// Package protocol holds the assessment session wire contract shared by the
// HTTP controllers and the client state machine.
package protocol

const (
	StatusCorrect = "correct"
	StatusError   = "error"
)

// Submission maps a question id to the answer ids selected for it. Labs submit an empty map.
type Submission map[string][]string

type AnswerView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type QuestionView struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	Count   int          `json:"count"`
	Answers []AnswerView `json:"answers"`
}

// ModuleProgress is the owning module's rollup shown once a unit is complete.
type ModuleProgress struct {
	ModuleBadge  string  `json:"moduleBadge"`
	ModuleName   string  `json:"moduleName"`
	ProgBar      int     `json:"progBar"`
	Progress     string  `json:"progress"`
	NextUnitHRef *string `json:"nextUnitHRef"`
	NextUnitName *string `json:"nextUnitName"`
	Tada         bool    `json:"tada"`
}

// SessionView answers GET /assessment/{context}/{unit}.
type SessionView struct {
	Complete       bool            `json:"complete"`
	AssessType     string          `json:"assessType"`
	Points         int             `json:"points"`
	Questions      []QuestionView  `json:"questions,omitempty"`
	Setup          string          `json:"setup,omitempty"`
	Activity       string          `json:"activity,omitempty"`
	ModuleProgress *ModuleProgress `json:"moduleProgress,omitempty"`
}

// GradeResponse answers POST /assessment/{context}/{unit}.
type GradeResponse struct {
	Status         string              `json:"status"`
	Points         int                 `json:"points"`
	Errors         int                 `json:"errors,omitempty"`
	ErrorMsg       string              `json:"errorMsg,omitempty"`
	Incorrect      map[string][]string `json:"incorrect,omitempty"`
	ModuleProgress *ModuleProgress     `json:"moduleProgress,omitempty"`
}

func (r GradeResponse) Correct() bool {
	return r.Status == StatusCorrect
}
