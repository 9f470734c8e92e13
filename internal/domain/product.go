package domain

// Product is an inventory item. Names carry both language variants so the
// assistant can reference items in whichever language the caller speaks.
// Stock is fractional, matching cart quantities: 1.5 kg of tomatoes deducts
// 1.5 units.
type Product struct {
	ID       int     `json:"id" gorm:"primaryKey"`
	NameEN   string  `json:"name_en" gorm:"column:name_en"`
	NameML   string  `json:"name_ml" gorm:"column:name_ml"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Stock    float64 `json:"stock" gorm:"type:decimal(10,3)"`
	ImageURL string  `json:"image_url,omitempty"`
}
