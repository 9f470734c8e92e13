package domain

import "time"

type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCompleted OrderStatus = "completed"
)

type Order struct {
	ID              int         `json:"id" gorm:"primaryKey"`
	CustomerPhone   string      `json:"customer_phone"`
	CustomerName    string      `json:"customer_name"`
	CustomerAddress string      `json:"customer_address"`
	Total           float64     `json:"total"`
	Status          OrderStatus `json:"status"`
	Language        string      `json:"language"`
	Transcript      string      `json:"transcript"`
	CreatedAt       time.Time   `json:"created_at"`
	Lines           []OrderLine `json:"lines,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderLine exists only for cart lines whose stock deduction succeeded.
type OrderLine struct {
	ID        int     `json:"id" gorm:"primaryKey"`
	OrderID   int     `json:"order_id" gorm:"index"`
	ProductID int     `json:"product_id"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
}

func (OrderLine) TableName() string { return "order_items" }

// CommitResult reports what a commit actually persisted. SkippedLines are
// cart entries dropped for insufficient stock or unknown product ids.
type CommitResult struct {
	OrderID        int         `json:"order_id"`
	Total          float64     `json:"total"`
	Status         OrderStatus `json:"status"`
	CommittedLines []CartLine  `json:"committed_lines"`
	SkippedLines   []CartLine  `json:"skipped_lines"`
}
