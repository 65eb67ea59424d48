package backend

import (
	"context"
	"fmt"
	"time"

	"feira/internal/models"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "feira123"

// Demo holds the IDs created by Seed.
type Demo struct {
	Buyer    models.Account
	Producer models.Account
	Couriers []models.Account
	Products []models.Product
	Orders   []models.Order
}

func fee(v float64) *float64 { return &v }

// Seed creates demo accounts, products and orders in every status.
func Seed(ctx context.Context, store Store, auth *AuthService) (*Demo, error) {
	demo := &Demo{
		Buyer:    models.Account{Role: models.RoleBuyer, Name: "Ana Souza", Email: "ana@feira.dev", Phone: "11999990001"},
		Producer: models.Account{Role: models.RoleProducer, Name: "Sítio Boa Terra", Email: "sitio@feira.dev", CNPJ: "12345678000190", BankName: "Banco do Brasil", BankAccount: "1234-5"},
		Couriers: []models.Account{
			{Role: models.RoleCourier, Name: "João Lima", Email: "joao@feira.dev", VehicleType: "moto", VehiclePlate: "ABC1D23"},
			{Role: models.RoleCourier, Name: "Maria Reis", Email: "maria@feira.dev", VehicleType: "bike"},
		},
	}
	for _, acc := range append([]*models.Account{&demo.Buyer, &demo.Producer}, &demo.Couriers[0], &demo.Couriers[1]) {
		if err := auth.Register(ctx, acc, DemoPassword); err != nil {
			return nil, fmt.Errorf("failed to seed account %s: %w", acc.Email, err)
		}
	}

	demo.Products = []models.Product{
		{ProducerID: demo.Producer.ID, Name: "Tomate orgânico", Unit: "kg", Price: 8.9, Stock: 40},
		{ProducerID: demo.Producer.ID, Name: "Alface crespa", Unit: "un", Price: 3.5, Stock: 60},
		{ProducerID: demo.Producer.ID, Name: "Ovos caipira", Unit: "dz", Price: 14, Stock: 25},
	}
	for i := range demo.Products {
		if err := store.CreateProduct(ctx, &demo.Products[i]); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	courier := demo.Couriers[0].ID
	line := func(p models.Product, qty int) models.OrderItem {
		return models.OrderItem{ProductID: p.ID, ProductName: p.Name, ProducerID: p.ProducerID, Quantity: qty, UnitPrice: p.Price, Subtotal: float64(qty) * p.Price}
	}
	order := func(status models.OrderStatus, address string, courierID *string, deliveryFee *float64, age time.Duration, items ...models.OrderItem) models.Order {
		o := models.Order{
			BuyerID:         demo.Buyer.ID,
			CourierID:       courierID,
			CustomerName:    demo.Buyer.Name,
			CustomerPhone:   demo.Buyer.Phone,
			ShippingAddress: address,
			PaymentMethod:   "pix",
			Items:           items,
			DeliveryFee:     deliveryFee,
			Status:          status,
			CreatedAt:       now.Add(-age),
			UpdatedAt:       now.Add(-age / 2),
		}
		for _, it := range items {
			o.TotalPrice += it.LineTotal()
		}
		if deliveryFee != nil {
			o.TotalPrice += *deliveryFee
		}
		if status == models.OrderStatusDelivered {
			at := now.Add(-age / 2)
			o.DeliveredAt = &at
		}
		return o
	}

	tomato, lettuce, eggs := demo.Products[0], demo.Products[1], demo.Products[2]
	demo.Orders = []models.Order{
		order(models.OrderStatusPending, "Rua Harmonia 100, Vila Madalena", nil, nil, time.Hour, line(tomato, 2)),
		order(models.OrderStatusProcessing, "Av. Ibirapuera 2000, Moema", nil, fee(7.99), 2*time.Hour, line(lettuce, 3), line(eggs, 1)),
		order(models.OrderStatusShipped, "Rua da Mooca 50, Mooca", &courier, fee(9.99), 3*time.Hour, line(eggs, 2)),
		order(models.OrderStatusDelivered, "Rua Cardeal Arcoverde 300, Pinheiros", &courier, fee(5.99), 26*time.Hour, line(tomato, 1), line(lettuce, 1)),
		order(models.OrderStatusCanceled, "Rua Augusta 10, Consolação", nil, nil, 48*time.Hour, line(tomato, 5)),
	}
	for i := range demo.Orders {
		if err := store.CreateOrder(ctx, &demo.Orders[i]); err != nil {
			return nil, err
		}
	}
	return demo, nil
}
