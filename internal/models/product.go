package models

// ProductSummary est la vue catalogue jointe aux articles d'une commande.
type ProductSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type OrderItemView struct {
	OrderItem
	Product *ProductSummary `json:"product,omitempty"`
}

// OrderView est une commande avec le détail produit de chaque article.
type OrderView struct {
	Order
	Items []OrderItemView `json:"items"`
}
