package order

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pasarlink/backend/internal/domain/catalog"
	"github.com/pasarlink/backend/internal/domain/order"
	"github.com/pasarlink/backend/internal/domain/partner"
	"github.com/pasarlink/backend/internal/domain/shared"
)

// In-memory fakes so service behavior (including concurrent creation
// and cascade expansion) can be exercised without a database.

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*order.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[uuid.UUID]*order.Order)}
}

func (r *memOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	clone := *o
	return &clone, nil
}

func (r *memOrderRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.OrderNumber == orderNumber {
			clone := *o
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memOrderRepo) FindByBuyer(ctx context.Context, buyer partner.BuyerRef, filter shared.Filter) ([]order.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]order.Order, 0)
	for _, o := range r.orders {
		if o.Buyer == buyer {
			matched = append(matched, *o)
		}
	}
	return matched, int64(len(matched)), nil
}

func (r *memOrderRepo) FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]order.Order, 0)
	for _, o := range r.orders {
		if o.SupplierID == supplierID {
			matched = append(matched, *o)
		}
	}
	return matched, int64(len(matched)), nil
}

func (r *memOrderRepo) FindChildren(ctx context.Context, parentID uuid.UUID) ([]order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	children := make([]order.Order, 0)
	for _, o := range r.orders {
		if o.ParentOrderID != nil && *o.ParentOrderID == parentID {
			children = append(children, *o)
		}
	}
	return children, nil
}

func (r *memOrderRepo) Save(ctx context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *o
	r.orders[o.ID] = &clone
	return nil
}

func (r *memOrderRepo) SaveWithLock(ctx context.Context, o *order.Order) error {
	return r.Save(ctx, o)
}

func (r *memOrderRepo) Delete(ctx context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, o.ID)
	return nil
}

func (r *memOrderRepo) all() []*order.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*order.Order, 0, len(r.orders))
	for _, o := range r.orders {
		all = append(all, o)
	}
	return all
}

type memPaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*order.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: make(map[uuid.UUID]*order.Payment)}
}

func (r *memPaymentRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]order.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]order.Payment, 0)
	for _, p := range r.payments {
		if p.OrderID == orderID {
			matched = append(matched, *p)
		}
	}
	return matched, nil
}

func (r *memPaymentRepo) FindByReference(ctx context.Context, reference string) (*order.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.Reference == reference {
			clone := *p
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memPaymentRepo) Save(ctx context.Context, p *order.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	r.payments[p.ID] = &clone
	return nil
}

type memProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*catalog.Product
}

func newMemProductRepo(products ...*catalog.Product) *memProductRepo {
	repo := &memProductRepo{products: make(map[uuid.UUID]*catalog.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (r *memProductRepo) add(p *catalog.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
}

func (r *memProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id], nil
}

func (r *memProductRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			found = append(found, *p)
		}
	}
	return found, nil
}

func (r *memProductRepo) FindBySupplierAndCode(ctx context.Context, supplierID uuid.UUID, code string) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SupplierID == supplierID && p.Code == code {
			return p, nil
		}
	}
	return nil, nil
}

func (r *memProductRepo) FindBundleComponents(ctx context.Context, bundleID uuid.UUID) ([]catalog.ProductBundleItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[bundleID]
	if !ok {
		return nil, nil
	}
	return p.BundleOf, nil
}

type memCustomerRepo struct {
	customers map[uuid.UUID]*partner.Customer
}

func newMemCustomerRepo(customers ...*partner.Customer) *memCustomerRepo {
	repo := &memCustomerRepo{customers: make(map[uuid.UUID]*partner.Customer)}
	for _, c := range customers {
		repo.customers[c.ID] = c
	}
	return repo
}

func (r *memCustomerRepo) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	return r.customers[id], nil
}

type memSupplierRepo struct {
	suppliers map[uuid.UUID]*partner.Supplier
}

func newMemSupplierRepo(suppliers ...*partner.Supplier) *memSupplierRepo {
	repo := &memSupplierRepo{suppliers: make(map[uuid.UUID]*partner.Supplier)}
	for _, s := range suppliers {
		repo.suppliers[s.ID] = s
	}
	return repo
}

func (r *memSupplierRepo) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	return r.suppliers[id], nil
}

func (r *memSupplierRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*partner.Supplier, error) {
	found := make([]*partner.Supplier, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.suppliers[id]; ok {
			found = append(found, s)
		}
	}
	return found, nil
}

type memAddressRepo struct {
	mu         sync.Mutex
	addresses  []*partner.Address
	byIDCalls  int
	byIDsCalls int
}

func (r *memAddressRepo) FindByID(ctx context.Context, id uuid.UUID) (*partner.Address, error) {
	r.mu.Lock()
	r.byIDCalls++
	r.mu.Unlock()
	for _, a := range r.addresses {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (r *memAddressRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*partner.Address, error) {
	r.mu.Lock()
	r.byIDsCalls++
	r.mu.Unlock()
	found := make([]*partner.Address, 0, len(ids))
	for _, id := range ids {
		for _, a := range r.addresses {
			if a.ID == id {
				found = append(found, a)
			}
		}
	}
	return found, nil
}

func (r *memAddressRepo) FindDefaultForOwner(ctx context.Context, ownerType partner.AddressOwnerType, ownerID uuid.UUID) (*partner.Address, error) {
	for _, a := range r.addresses {
		if a.OwnerType == ownerType && a.OwnerID == ownerID && a.IsDefault {
			return a, nil
		}
	}
	return nil, nil
}

type memAccessRepo struct {
	edges []*partner.SupplierAccess
}

func (r *memAccessRepo) FindByViewer(ctx context.Context, viewerID uuid.UUID) ([]*partner.SupplierAccess, error) {
	matched := make([]*partner.SupplierAccess, 0)
	for _, e := range r.edges {
		if e.ViewerID == viewerID {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (r *memAccessRepo) FindBetween(ctx context.Context, viewerID, targetID uuid.UUID) (*partner.SupplierAccess, error) {
	for _, e := range r.edges {
		if e.ViewerID == viewerID && e.TargetID == targetID {
			return e, nil
		}
	}
	return nil, nil
}

// seqAllocator hands out sequential suffixes per prefix under a lock,
// mirroring the locked-read allocator's uniqueness guarantee
type seqAllocator struct {
	mu   sync.Mutex
	next map[string]int64
}

func newSeqAllocator() *seqAllocator {
	return &seqAllocator{next: make(map[string]int64)}
}

func (a *seqAllocator) Next(ctx context.Context, prefix string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.next[prefix]++
	return order.FormatNumber(prefix, a.next[prefix]), nil
}

// passthroughTx runs the function without transactional scope
type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubInvoicer struct {
	mu       sync.Mutex
	err      error
	requests []InvoiceRequest
}

func (s *stubInvoicer) CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.requests = append(s.requests, req)
	return &Invoice{
		URL:       fmt.Sprintf("https://checkout.example.com/%s", req.ExternalID),
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}

type stubNotifier struct {
	mu            sync.Mutex
	err           error
	notifications []OrderNotification
}

func (s *stubNotifier) NotifyOrderCreated(ctx context.Context, n OrderNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.notifications = append(s.notifications, n)
	return nil
}

type stubTaxSource struct {
	tax *catalog.Tax
	err error
}

func (s *stubTaxSource) DefaultTax(ctx context.Context) (*catalog.Tax, error) {
	return s.tax, s.err
}

func defaultTestTax() *catalog.Tax {
	return &catalog.Tax{ID: uuid.New(), Name: "PPN 11%", Rate: decimal.NewFromInt(11)}
}

func productWithPrice(supplierID uuid.UUID, code, name string, price int64) *catalog.Product {
	return &catalog.Product{
		ID:         uuid.New(),
		SupplierID: supplierID,
		Code:       code,
		Name:       name,
		Prices:     []catalog.ProductPrice{{ID: uuid.New(), SellPrice: decimal.NewFromInt(price), CreatedAt: time.Now()}},
	}
}

func defaultAddress(supplierID uuid.UUID) *partner.Address {
	return &partner.Address{
		ID:        uuid.New(),
		OwnerType: partner.AddressOwnerSupplier,
		OwnerID:   supplierID,
		Street:    "Jl. Industri No. 5",
		City:      "Bandung",
		IsDefault: true,
	}
}

// testEnv wires a full service graph over the in-memory fakes
type testEnv struct {
	orders    *memOrderRepo
	payments  *memPaymentRepo
	products  *memProductRepo
	customers *memCustomerRepo
	suppliers *memSupplierRepo
	addresses *memAddressRepo
	accesses  *memAccessRepo
	invoicer  *stubInvoicer
	notifier  *stubNotifier
	service   *Service
	lifecycle *LifecycleService
	query     *QueryService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		orders:    newMemOrderRepo(),
		payments:  newMemPaymentRepo(),
		products:  newMemProductRepo(),
		customers: newMemCustomerRepo(),
		suppliers: newMemSupplierRepo(),
		addresses: &memAddressRepo{},
		accesses:  &memAccessRepo{},
		invoicer:  &stubInvoicer{},
		notifier:  &stubNotifier{},
	}

	logger := zap.NewNop()
	resolver := catalog.NewPriceResolver(&stubTaxSource{tax: defaultTestTax()})
	buyers := partner.NewBuyerResolver(env.customers, env.suppliers)
	allocator := newSeqAllocator()
	cascade := NewCascadePlanner(env.accesses, env.addresses, env.products, resolver,
		allocator, env.orders, NewDefaultBundlingStrategy(), order.MaxCascadeDepth, logger)

	env.service = NewService(env.orders, env.products, buyers, resolver, allocator,
		cascade, passthroughTx{}, env.invoicer, env.notifier, 3, logger)
	env.lifecycle = NewLifecycleService(env.orders, env.payments, passthroughTx{}, logger)
	env.query = NewQueryService(env.orders, env.payments, buyers, env.addresses, logger)

	return env
}
