package billing

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"

	"github.com/boxbinhq/boxbin/app/models"
)

// fakeGateway scripts provider behavior per method and counts calls.
type fakeGateway struct {
	createCustomerErr error
	attachErr         error
	createSubErr      error
	cancelErr         error
	updateErr         error
	getSubErr         error
	getPriceErr       error

	coupon    *stripe.Coupon
	couponErr error
	sub       *stripe.Subscription
	price     *stripe.Price

	customerCalls int
	attachCalls   int
	createCalls   int
	cancelCalls   int
	updateCalls   int

	lastCustomerID string
	lastPriceID    string
	lastCouponID   string
	lastPaymentID  string
	lastItemID     string
}

func (f *fakeGateway) CreateCustomer(ctx context.Context, name, email, paymentMethodID string) (*stripe.Customer, error) {
	f.customerCalls++
	if f.createCustomerErr != nil {
		return nil, f.createCustomerErr
	}
	return &stripe.Customer{ID: "cus_test", Name: name, Email: email}, nil
}

func (f *fakeGateway) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (*stripe.PaymentMethod, error) {
	f.attachCalls++
	f.lastPaymentID = paymentMethodID
	f.lastCustomerID = customerID
	if f.attachErr != nil {
		return nil, f.attachErr
	}
	return &stripe.PaymentMethod{ID: paymentMethodID}, nil
}

func (f *fakeGateway) CreateSubscription(ctx context.Context, customerID, priceID, couponID, paymentMethodID string) (*stripe.Subscription, error) {
	f.createCalls++
	f.lastCustomerID = customerID
	f.lastPriceID = priceID
	f.lastCouponID = couponID
	f.lastPaymentID = paymentMethodID
	if f.createSubErr != nil {
		return nil, f.createSubErr
	}
	return &stripe.Subscription{ID: "sub_test", Status: stripe.SubscriptionStatusActive}, nil
}

func (f *fakeGateway) GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	if f.getSubErr != nil {
		return nil, f.getSubErr
	}
	if f.sub != nil {
		return f.sub, nil
	}
	return &stripe.Subscription{
		ID:     subscriptionID,
		Status: stripe.SubscriptionStatusActive,
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{ID: "si_test"}},
		},
	}, nil
}

func (f *fakeGateway) UpdateSubscriptionPrice(ctx context.Context, subscriptionID, itemID, newPriceID string) (*stripe.Subscription, error) {
	f.updateCalls++
	f.lastItemID = itemID
	f.lastPriceID = newPriceID
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &stripe.Subscription{ID: subscriptionID, Status: stripe.SubscriptionStatusActive}, nil
}

func (f *fakeGateway) CancelSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	f.cancelCalls++
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	return &stripe.Subscription{ID: subscriptionID, Status: stripe.SubscriptionStatusCanceled}, nil
}

func (f *fakeGateway) GetPrice(ctx context.Context, priceID string) (*stripe.Price, error) {
	if f.getPriceErr != nil {
		return nil, f.getPriceErr
	}
	return f.price, nil
}

func (f *fakeGateway) GetCoupon(ctx context.Context, couponID string) (*stripe.Coupon, error) {
	if f.couponErr != nil {
		return nil, f.couponErr
	}
	return f.coupon, nil
}

// fakeSubsRepo is an in-memory SubscriptionRepository with error injection
// for the reconciliation paths.
type fakeSubsRepo struct {
	records map[uint][]*models.Subscription
	nextID  uint

	replaceErr error
	deleteErr  error
	updateErr  error
}

func newFakeSubsRepo() *fakeSubsRepo {
	return &fakeSubsRepo{records: make(map[uint][]*models.Subscription), nextID: 1}
}

func (r *fakeSubsRepo) ReplaceForUser(userID uint, sub *models.Subscription) error {
	if r.replaceErr != nil {
		return r.replaceErr
	}
	sub.ID = r.nextID
	r.nextID++
	r.records[userID] = []*models.Subscription{sub}
	return nil
}

func (r *fakeSubsRepo) GetByUserID(userID uint) (*models.Subscription, error) {
	recs := r.records[userID]
	if len(recs) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return recs[0], nil
}

func (r *fakeSubsRepo) GetActiveByUserID(userID uint) (*models.Subscription, error) {
	for _, s := range r.records[userID] {
		if s.IsActive() {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSubsRepo) ListByUserID(userID uint) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, s := range r.records[userID] {
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeSubsRepo) DeleteAllForUser(userID uint) (int64, error) {
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	n := int64(len(r.records[userID]))
	delete(r.records, userID)
	return n, nil
}

func (r *fakeSubsRepo) UpdatePlan(id uint, planID string) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	for _, recs := range r.records {
		for _, s := range recs {
			if s.ID == id {
				s.PlanID = planID
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeSubsRepo) UpdateStatusByStripeID(stripeSubscriptionID, status string) (int64, error) {
	var affected int64
	for _, recs := range r.records {
		for _, s := range recs {
			if s.StripeSubscriptionID == stripeSubscriptionID {
				s.Status = status
				affected++
			}
		}
	}
	return affected, nil
}

func (r *fakeSubsRepo) CountForUser(userID uint) (int64, error) {
	return int64(len(r.records[userID])), nil
}

var errProviderDown = errors.New("provider unavailable")
