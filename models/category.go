package models

type Category struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	SubCategories []string `json:"subCategories"`
}

// HasSubCategory matches exactly, the same way transactions reference it.
func (c Category) HasSubCategory(name string) bool {
	for _, s := range c.SubCategories {
		if s == name {
			return true
		}
	}
	return false
}
