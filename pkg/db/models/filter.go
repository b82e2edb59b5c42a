package models

// Filter is one row of the poi_filters table. Only user-defined filters are stored.
type Filter struct {
	Name         string `gorm:"column:name;type:text"`
	ID           string `gorm:"column:id;type:text;primaryKey"`
	FilterByName string `gorm:"column:filterbyname;type:text"`
}

// TableName returns the table name for GORM.
func (Filter) TableName() string {
	return "poi_filters"
}
