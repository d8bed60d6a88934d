package billing

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v82"

	"github.com/boxbinhq/boxbin/internal/pkg/env"
)

// Gateway is the narrow slice of the payment provider used by checkout and
// the privileged mutations. Everything behind it requires the secret key and
// must only ever run server-side.
type Gateway interface {
	CreateCustomer(ctx context.Context, name, email, paymentMethodID string) (*stripe.Customer, error)
	AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (*stripe.PaymentMethod, error)
	CreateSubscription(ctx context.Context, customerID, priceID, couponID, paymentMethodID string) (*stripe.Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
	UpdateSubscriptionPrice(ctx context.Context, subscriptionID, itemID, newPriceID string) (*stripe.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
	GetPrice(ctx context.Context, priceID string) (*stripe.Price, error)
	GetCoupon(ctx context.Context, couponID string) (*stripe.Coupon, error)
}

type stripeGateway struct {
	client *stripe.Client
}

// NewStripeGateway creates a gateway from an explicit secret key.
func NewStripeGateway(secretKey string) (Gateway, error) {
	key := strings.TrimSpace(secretKey)
	if key == "" {
		return nil, errors.New("stripe secret key is required")
	}
	return &stripeGateway{client: stripe.NewClient(key)}, nil
}

// NewStripeGatewayFromEnv reads STRIPE_SECRET_KEY.
func NewStripeGatewayFromEnv() (Gateway, error) {
	return NewStripeGateway(env.GetEnv("STRIPE_SECRET_KEY", ""))
}

func (g *stripeGateway) CreateCustomer(ctx context.Context, name, email, paymentMethodID string) (*stripe.Customer, error) {
	params := &stripe.CustomerCreateParams{
		Name:  stripe.String(name),
		Email: stripe.String(email),
	}
	if paymentMethodID != "" {
		params.PaymentMethod = stripe.String(paymentMethodID)
		params.InvoiceSettings = &stripe.CustomerCreateInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		}
	}
	return g.client.V1Customers.Create(ctx, params)
}

func (g *stripeGateway) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (*stripe.PaymentMethod, error) {
	return g.client.V1PaymentMethods.Attach(ctx, paymentMethodID, &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	})
}

func (g *stripeGateway) CreateSubscription(ctx context.Context, customerID, priceID, couponID, paymentMethodID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionCreateParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionCreateItemParams{
			{Price: stripe.String(priceID)},
		},
		Expand: []*string{stripe.String("latest_invoice")},
	}
	if paymentMethodID != "" {
		params.DefaultPaymentMethod = stripe.String(paymentMethodID)
	}
	if couponID != "" {
		params.Discounts = []*stripe.SubscriptionCreateDiscountParams{
			{Coupon: stripe.String(couponID)},
		}
	}
	return g.client.V1Subscriptions.Create(ctx, params)
}

func (g *stripeGateway) GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionRetrieveParams{
		Expand: []*string{
			stripe.String("items.data.price"),
		},
	}
	return g.client.V1Subscriptions.Retrieve(ctx, subscriptionID, params)
}

// UpdateSubscriptionPrice swaps the sole line item to the new price.
// Proration is invoiced immediately; the billing anchor stays untouched.
func (g *stripeGateway) UpdateSubscriptionPrice(ctx context.Context, subscriptionID, itemID, newPriceID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionUpdateParams{
		Items: []*stripe.SubscriptionUpdateItemParams{
			{
				ID:    stripe.String(itemID),
				Price: stripe.String(newPriceID),
			},
		},
		ProrationBehavior: stripe.String("always_invoice"),
	}
	return g.client.V1Subscriptions.Update(ctx, subscriptionID, params)
}

func (g *stripeGateway) CancelSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	return g.client.V1Subscriptions.Cancel(ctx, subscriptionID, &stripe.SubscriptionCancelParams{})
}

func (g *stripeGateway) GetPrice(ctx context.Context, priceID string) (*stripe.Price, error) {
	params := &stripe.PriceRetrieveParams{
		Expand: []*string{stripe.String("product")},
	}
	return g.client.V1Prices.Retrieve(ctx, priceID, params)
}

func (g *stripeGateway) GetCoupon(ctx context.Context, couponID string) (*stripe.Coupon, error) {
	return g.client.V1Coupons.Retrieve(ctx, couponID, &stripe.CouponRetrieveParams{})
}
