package models

// Category is one accepted (category, subcategory) pair of a filter.
// A nil Subcategory accepts the whole category.
type Category struct {
	FilterID    string  `gorm:"column:filter_id;type:text;index:idx_categories_filter"`
	Category    string  `gorm:"column:category;type:text"`
	Subcategory *string `gorm:"column:subcategory;type:text"`
}

// TableName returns the table name for GORM.
func (Category) TableName() string {
	return "categories"
}
