package models

type OrderStatus string

const (
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
)

type Order struct {
	ID     int64       `gorm:"column:order_id;primaryKey" json:"order_id"`
	Status OrderStatus `gorm:"column:order_status" json:"order_status"`
}

func (Order) TableName() string { return "orders" }

// IsActive reports whether the order still takes part in fleet predictions.
func (o Order) IsActive() bool {
	return o.Status != OrderCompleted && o.Status != OrderCancelled
}
