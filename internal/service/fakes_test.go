package service

import (
	"time"

	"github.com/brightpath/tutoring-backend/internal/models"
	"github.com/brightpath/tutoring-backend/internal/repository"
	"github.com/brightpath/tutoring-backend/pkg/payment"
	"github.com/stripe/stripe-go/v74"
	"gorm.io/gorm"
)

type fakeUserStore struct {
	users map[uint]*models.User
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[uint]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) GetByID(id uint) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *fakeUserStore) GetByStripeCustomerID(customerID string) (*models.User, error) {
	for _, user := range s.users {
		if user.StripeCustomerID == customerID {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeUserStore) Update(user *models.User) error {
	s.users[user.ID] = user
	return nil
}

type fakeLedgerStore struct {
	credits      map[uint]*models.SessionCredit
	transactions []*models.HourTransaction
	nextID       uint
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{credits: make(map[uint]*models.SessionCredit)}
}

func (s *fakeLedgerStore) GetByUserID(userID uint) (*models.SessionCredit, error) {
	credit, ok := s.credits[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return credit, nil
}

func (s *fakeLedgerStore) record(credit *models.SessionCredit, tx *models.HourTransaction) *models.HourTransaction {
	s.nextID++
	tx.ID = s.nextID
	tx.UserID = credit.UserID
	tx.CreditID = credit.ID
	tx.CreatedAt = time.Now()
	s.transactions = append(s.transactions, tx)
	return tx
}

func (s *fakeLedgerStore) ApplyPurchase(userID uint, hours float64, description, stripePaymentID string) (*models.SessionCredit, *models.HourTransaction, error) {
	credit, ok := s.credits[userID]
	if !ok {
		credit = &models.SessionCredit{ID: userID, UserID: userID}
		s.credits[userID] = credit
	}
	before := credit.Hours
	credit.Hours += hours
	credit.TotalPurchased += hours
	tx := s.record(credit, &models.HourTransaction{
		Type:            models.TransactionPurchase,
		Hours:           hours,
		BalanceBefore:   before,
		BalanceAfter:    credit.Hours,
		Description:     description,
		StripePaymentID: stripePaymentID,
	})
	return credit, tx, nil
}

func (s *fakeLedgerStore) ApplyUsage(userID uint, hours float64, description, sessionRef string) (*models.SessionCredit, *models.HourTransaction, error) {
	credit, ok := s.credits[userID]
	if !ok {
		return nil, nil, repository.ErrNoCreditBalance
	}
	if credit.Hours < hours {
		return nil, nil, repository.ErrInsufficientHours
	}
	before := credit.Hours
	credit.Hours -= hours
	credit.TotalUsed += hours
	tx := s.record(credit, &models.HourTransaction{
		Type:          models.TransactionUse,
		Hours:         -hours,
		BalanceBefore: before,
		BalanceAfter:  credit.Hours,
		Description:   description,
		SessionRef:    sessionRef,
	})
	return credit, tx, nil
}

func (s *fakeLedgerStore) ApplyRefund(userID uint, hours float64, description string) (*models.SessionCredit, *models.HourTransaction, error) {
	credit, ok := s.credits[userID]
	if !ok {
		return nil, nil, repository.ErrNoCreditBalance
	}
	before := credit.Hours
	credit.Hours += hours
	credit.TotalUsed -= hours
	if credit.TotalUsed < 0 {
		credit.TotalPurchased += -credit.TotalUsed
		credit.TotalUsed = 0
	}
	tx := s.record(credit, &models.HourTransaction{
		Type:          models.TransactionRefund,
		Hours:         hours,
		BalanceBefore: before,
		BalanceAfter:  credit.Hours,
		Description:   description,
	})
	return credit, tx, nil
}

func (s *fakeLedgerStore) ReversePurchase(userID uint, hours float64, description, stripePaymentID string) (*models.SessionCredit, *models.HourTransaction, error) {
	credit, ok := s.credits[userID]
	if !ok {
		return nil, nil, repository.ErrNoCreditBalance
	}
	deduct := hours
	if deduct > credit.Hours {
		deduct = credit.Hours
	}
	before := credit.Hours
	credit.Hours -= deduct
	credit.TotalPurchased -= deduct
	tx := s.record(credit, &models.HourTransaction{
		Type:            models.TransactionRefund,
		Hours:           -deduct,
		BalanceBefore:   before,
		BalanceAfter:    credit.Hours,
		Description:     description,
		StripePaymentID: stripePaymentID,
	})
	return credit, tx, nil
}

func (s *fakeLedgerStore) ListByUserID(userID uint) ([]models.HourTransaction, error) {
	var out []models.HourTransaction
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			out = append(out, *tx)
		}
	}
	return out, nil
}

type fakePaymentStore struct {
	payments []*models.PaymentRecord
	nextID   uint
}

func (s *fakePaymentStore) Create(payment *models.PaymentRecord) error {
	s.nextID++
	payment.ID = s.nextID
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}
	s.payments = append(s.payments, payment)
	return nil
}

func (s *fakePaymentStore) Update(payment *models.PaymentRecord) error {
	for i, p := range s.payments {
		if p.ID == payment.ID {
			s.payments[i] = payment
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *fakePaymentStore) GetByStripePaymentID(stripePaymentID string) (*models.PaymentRecord, error) {
	for _, p := range s.payments {
		if p.StripePaymentID == stripePaymentID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakePaymentStore) LatestSucceededPackage(userID uint, since time.Time) (*models.PaymentRecord, error) {
	var latest *models.PaymentRecord
	for _, p := range s.payments {
		if p.UserID != userID || p.Status != "succeeded" || p.PackageHours <= 0 || p.CreatedAt.Before(since) {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (s *fakePaymentStore) ListByUserID(userID uint) ([]models.PaymentRecord, error) {
	var out []models.PaymentRecord
	for _, p := range s.payments {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeProcessedStore struct {
	seen map[string]string
}

func newFakeProcessedStore() *fakeProcessedStore {
	return &fakeProcessedStore{seen: make(map[string]string)}
}

func (s *fakeProcessedStore) MarkProcessed(eventID, eventType string) (bool, error) {
	if _, ok := s.seen[eventID]; ok {
		return false, nil
	}
	s.seen[eventID] = eventType
	return true, nil
}

func (s *fakeProcessedStore) Forget(eventID string) error {
	delete(s.seen, eventID)
	return nil
}

type fakeStripeClient struct {
	lineItems    []*stripe.LineItem
	lineItemsErr error
	subscription *stripe.Subscription
}

func (c *fakeStripeClient) CreateCheckoutSession(p payment.CheckoutParams) (*stripe.CheckoutSession, error) {
	return &stripe.CheckoutSession{ID: "cs_fake", URL: "https://checkout.stripe.com/fake"}, nil
}

func (c *fakeStripeClient) CreateAdHocPrice(name, description string, amountUSD float64) (string, error) {
	return "price_adhoc", nil
}

func (c *fakeStripeClient) ListLineItems(sessionID string) ([]*stripe.LineItem, error) {
	if c.lineItemsErr != nil {
		return nil, c.lineItemsErr
	}
	return c.lineItems, nil
}

func (c *fakeStripeClient) GetSubscription(subscriptionID string) (*stripe.Subscription, error) {
	return c.subscription, nil
}

type fakePackageStore struct {
	packages map[uint]*models.CreditPackage
}

func (s *fakePackageStore) GetByID(id uint) (*models.CreditPackage, error) {
	pkg, ok := s.packages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return pkg, nil
}

func (s *fakePackageStore) GetAll() ([]models.CreditPackage, error) {
	var out []models.CreditPackage
	for _, pkg := range s.packages {
		out = append(out, *pkg)
	}
	return out, nil
}

type fakePurchaseStore struct {
	purchases []*models.UserPurchase
}

func (s *fakePurchaseStore) Create(purchase *models.UserPurchase) error {
	purchase.ID = uint(len(s.purchases) + 1)
	s.purchases = append(s.purchases, purchase)
	return nil
}

func (s *fakePurchaseStore) GetBySessionID(sessionID string) (*models.UserPurchase, error) {
	for _, p := range s.purchases {
		if p.StripeSessionID == sessionID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakePurchaseStore) Update(purchase *models.UserPurchase) error {
	for i, p := range s.purchases {
		if p.ID == purchase.ID {
			s.purchases[i] = purchase
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *fakePurchaseStore) GetUserPurchaseHistory(userID uint) ([]models.UserPurchase, error) {
	var out []models.UserPurchase
	for _, p := range s.purchases {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}
