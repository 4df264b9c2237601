package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xaenox/vikas-bot/internal/models"
	"github.com/xaenox/vikas-bot/internal/storage"
	"go.uber.org/zap"
)

const (
	recentOrderLimit = 3
	returnWindowDays = 15
	deliveryDate     = "Jan 2, 2006"
)

var statusMessages = map[models.OrderStatus]string{
	models.OrderPending:        "Your order is being verified",
	models.OrderConfirmed:      "Order confirmed! Preparing for shipment",
	models.OrderProcessing:     "Your order is being packed",
	models.OrderShipped:        "Your order is on the way!",
	models.OrderOutForDelivery: "Out for delivery today",
	models.OrderDelivered:      "Order delivered successfully",
	models.OrderCancelled:      "Order has been cancelled",
	models.OrderReturned:       "Return processed",
}

// orderRefRe extracts an order number or id; the reference must contain a
// digit so that words like "order details" are not taken for ids
var orderRefRe = regexp.MustCompile(`(?i)order\s*#?\s*([a-z0-9-]*[0-9][a-z0-9-]*)`)

// OrderFulfillment handles tracking, returns and checkout questions for
// signed-in users
type OrderFulfillment struct {
	orders storage.OrderStorage
	logger *zap.Logger
}

func NewOrderFulfillment(orders storage.OrderStorage, logger *zap.Logger) *OrderFulfillment {
	return &OrderFulfillment{orders: orders, logger: logger}
}

func (a *OrderFulfillment) Process(ctx context.Context, query string, qc models.QueryContext) (*models.AgentResponse, error) {
	if qc.UserID == "" {
		return &models.AgentResponse{Success: true, Response: "Please log in to access your orders."}, nil
	}

	lower := strings.ToLower(query)
	switch {
	case containsAny(lower, "track", "where", "status"):
		return a.TrackOrder(ctx, query, qc.UserID)
	case containsAny(lower, "return", "refund"):
		return &models.AgentResponse{
			Success: true,
			Response: fmt.Sprintf("To initiate a return, please go to your Orders page and select the order you want to return. "+
				"Our returns are free within %d days of delivery.", returnWindowDays),
		}, nil
	case containsAny(lower, "checkout", "buy"):
		return a.AssistCheckout(ctx, qc.UserID)
	default:
		return a.TrackOrder(ctx, query, qc.UserID)
	}
}

// TrackOrder reports a specific order when the query names one, otherwise
// the most recent orders
func (a *OrderFulfillment) TrackOrder(ctx context.Context, query, userID string) (*models.AgentResponse, error) {
	if m := orderRefRe.FindStringSubmatch(query); m != nil {
		return a.OrderStatus(ctx, userID, m[1])
	}

	orders, err := a.orders.ListOrders(ctx, userID, recentOrderLimit)
	if err != nil {
		return nil, fmt.Errorf("error loading orders: %w", err)
	}
	if len(orders) == 0 {
		return &models.AgentResponse{
			Success:  true,
			Response: "You don't have any orders yet. Start shopping to place your first order!",
			Payload:  models.OrdersPayload{Orders: []models.OrderSummary{}},
		}, nil
	}

	payload := models.OrdersPayload{Orders: make([]models.OrderSummary, 0, len(orders))}
	var b strings.Builder
	b.WriteString("Here are your recent orders:")
	for _, o := range orders {
		s := summarize(o)
		payload.Orders = append(payload.Orders, s)
		fmt.Fprintf(&b, "\n- #%s: %s (%s)", o.OrderNumber, s.StatusMessage, FormatPrice(o.Total))
	}
	return &models.AgentResponse{Success: true, Response: b.String(), Payload: payload}, nil
}

func (a *OrderFulfillment) OrderStatus(ctx context.Context, userID, orderRef string) (*models.AgentResponse, error) {
	o, err := a.orders.GetOrder(ctx, userID, orderRef)
	if errors.Is(err, storage.ErrNotFound) {
		return &models.AgentResponse{
			Success:  true,
			Response: fmt.Sprintf("I couldn't find order %s on your account. Please check the order number.", orderRef),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading order: %w", err)
	}

	s := summarize(*o)
	eta := EstimatedDelivery(*o)
	return &models.AgentResponse{
		Success:  true,
		Response: fmt.Sprintf("Order #%s: %s. Estimated delivery: %s.", o.OrderNumber, strings.TrimRight(s.StatusMessage, "!"), eta),
		Payload: models.OrderDetailPayload{
			Order:             s,
			Items:             o.Items,
			ShippingAddress:   o.ShippingAddress,
			EstimatedDelivery: eta,
		},
	}, nil
}

// EstimatedDelivery is two days after ordering once shipped and five days
// otherwise
func EstimatedDelivery(o models.Order) string {
	switch o.Status {
	case models.OrderDelivered:
		return "Delivered"
	case models.OrderOutForDelivery:
		return "Today"
	case models.OrderShipped:
		return o.CreatedAt.Add(2 * 24 * time.Hour).Format(deliveryDate)
	default:
		return o.CreatedAt.Add(5 * 24 * time.Hour).Format(deliveryDate)
	}
}

func StatusMessage(status models.OrderStatus) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return string(status)
}

func summarize(o models.Order) models.OrderSummary {
	return models.OrderSummary{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		StatusMessage: StatusMessage(o.Status),
		Total:         o.Total,
		ItemCount:     len(o.Items),
		CreatedAt:     o.CreatedAt,
	}
}

// AssistCheckout checks the cart against online stock before checkout
func (a *OrderFulfillment) AssistCheckout(ctx context.Context, userID string) (*models.AgentResponse, error) {
	items, err := a.orders.ListCartItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading cart: %w", err)
	}
	if len(items) == 0 {
		return &models.AgentResponse{
			Success:  true,
			Response: "Your cart is empty. Add some products to proceed with checkout.",
			Payload:  models.CheckoutPayload{},
		}, nil
	}

	var (
		total  float64
		issues []string
		lines  = make([]models.CartLine, 0, len(items))
	)
	for _, item := range items {
		if item.Product == nil {
			issues = append(issues, "Unknown product")
			continue
		}
		total += item.Product.Price * float64(item.Quantity)
		lines = append(lines, models.CartLine{
			Title:    item.Product.Title,
			Quantity: item.Quantity,
			Price:    item.Product.Price,
		})
		if item.Product.StockOnline < item.Quantity {
			issues = append(issues, item.Product.Title)
		}
	}

	if len(issues) > 0 {
		return &models.AgentResponse{
			Success:  true,
			Response: "Some items in your cart are out of stock. Please update quantities: " + strings.Join(issues, ", "),
			Payload:  models.CheckoutPayload{Issues: issues},
		}, nil
	}

	return &models.AgentResponse{
		Success:  true,
		Response: "Ready to checkout! Your total is " + FormatPrice(total),
		Payload: models.CheckoutPayload{
			CanCheckout: true,
			ItemCount:   len(items),
			Total:       total,
			Items:       lines,
		},
	}, nil
}
