// AngelaMos | 2026
// gateway.go

package payment

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// OrderClient abstracts the payment gateway's order API so the service
// can be tested without network access.
type OrderClient interface {
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]interface{}) (string, error)
}

type razorpayClient struct {
	client *razorpay.Client
}

func NewRazorpayClient(keyID, keySecret string) OrderClient {
	return &razorpayClient{client: razorpay.NewClient(keyID, keySecret)}
}

func (c *razorpayClient) CreateOrder(
	_ context.Context,
	amountPaise int64,
	currency, receipt string,
	notes map[string]interface{},
) (string, error) {
	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	order, err := c.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("create gateway order: %w", err)
	}

	orderID, ok := order["id"].(string)
	if !ok || orderID == "" {
		return "", fmt.Errorf("gateway order response missing id")
	}
	return orderID, nil
}
