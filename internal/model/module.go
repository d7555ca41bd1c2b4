package model

// Module is an ordered set of units and the unit of badge award.
type Module struct {
	SlugBase
	Name  string `gorm:"size:255;not null" json:"name"`
	Badge string `gorm:"size:255" json:"badge,omitempty"`
	Units []Unit `gorm:"foreignKey:ModuleID;references:ID" json:"units,omitempty"`
}

func (Module) TableName() string {
	return "modules"
}

type Path struct {
	SlugBase
	Name  string `gorm:"size:255;not null" json:"name"`
	Badge string `gorm:"size:255" json:"badge,omitempty"`
}

func (Path) TableName() string {
	return "paths"
}

// PathModule is the signpost relation placing a module on a path.
type PathModule struct {
	PathID   string `gorm:"primaryKey;type:varchar(64)" json:"pathId"`
	ModuleID string `gorm:"primaryKey;type:varchar(64)" json:"moduleId"`
	Seq      int    `gorm:"default:0" json:"seq"`
}

func (PathModule) TableName() string {
	return "path_modules"
}
