package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"bookpos/internal/apperror"
	"bookpos/internal/cart"
	"bookpos/internal/dto"
	"bookpos/internal/model"
	"bookpos/internal/pricing"
	"bookpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ReceiptDispatcher queues post-sale work. It runs after commit and its
// failure never affects the sale.
type ReceiptDispatcher interface {
	EnqueueReceipt(ctx context.Context, saleID uuid.UUID, email string) error
}

// CheckoutInput carries everything about a sale that is not a cart line.
type CheckoutInput struct {
	PaymentMethod string
	CustomerName  *string
	CustomerPhone *string
	Notes         *string
	Policy        pricing.Policy
	ReceiptEmail  string
}

type SaleService interface {
	// Checkout validates and commits c as one sale. The cart is not modified.
	Checkout(ctx context.Context, c *cart.Cart, in CheckoutInput) (*dto.SaleResponse, error)
	Create(ctx context.Context, req dto.CreateSaleRequest) (*dto.SaleResponse, error)
	// Quote prices a prospective sale without checking stock or writing anything.
	Quote(ctx context.Context, req dto.QuoteRequest) (*dto.QuoteResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	repo       repository.SaleRepository
	books      repository.BookRepository
	ledger     Ledger
	cache      PriceCache        // optional
	dispatcher ReceiptDispatcher // optional
	now        Clock
}

func NewSaleService(
	repo repository.SaleRepository,
	books repository.BookRepository,
	ledger Ledger,
	cache PriceCache,
	dispatcher ReceiptDispatcher,
	clock Clock,
) SaleService {
	return &saleService{
		repo:       repo,
		books:      books,
		ledger:     ledger,
		cache:      cache,
		dispatcher: dispatcher,
		now:        clockOrDefault(clock),
	}
}

// ── Checkout ─────────────────────────────────────────────────────────────────
// One transaction, serialized by stockMu:
//   1. lock every referenced book (id order), fail on missing or short stock
//   2. price the cart
//   3. insert sale header and items
//   4. per line: guarded decrement + OUT movement referencing the sale
// Any failure rolls everything back.

func (s *saleService) Checkout(ctx context.Context, c *cart.Cart, in CheckoutInput) (*dto.SaleResponse, error) {
	if c == nil || c.IsEmpty() {
		return nil, apperror.New(apperror.KindEmptyCart, "a sale needs at least one item")
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = model.PaymentCash
	}
	if !model.ValidPaymentMethod(in.PaymentMethod) {
		return nil, apperror.Validation(map[string]string{"payment_method": "invalid payment method"})
	}

	lines := c.Lines()
	wanted := c.Quantities()
	ids := make([]uuid.UUID, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	stockMu.Lock()
	defer stockMu.Unlock()

	var (
		sale   model.Sale
		quote  pricing.Breakdown
		titles = make(map[uuid.UUID]string, len(ids))
		isbns  []string
	)
	err := runTx(ctx, s.books.DB(), func(tx *gorm.DB) error {
		locked, err := s.books.FindByIDsForUpdateTx(tx, ids)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]model.Book, len(locked))
		for _, b := range locked {
			byID[b.ID] = b
		}
		for _, id := range ids {
			b, ok := byID[id]
			if !ok {
				return apperror.Newf(apperror.KindNotFound, "book %s not found", id)
			}
			if wanted[id] > b.StockQuantity {
				return apperror.Newf(apperror.KindInsufficientStock,
					"insufficient stock for %q: requested %d, available %d", b.Title, wanted[id], b.StockQuantity)
			}
			titles[id] = b.Title
			if b.ISBN != nil {
				isbns = append(isbns, *b.ISBN)
			}
		}

		quote, err = pricing.Compute(c.Subtotal(), in.Policy)
		if err != nil {
			return err
		}

		sale = model.Sale{
			ID:            uuid.New(),
			TotalAmount:   quote.Total,
			PaymentMethod: in.PaymentMethod,
			CustomerName:  in.CustomerName,
			CustomerPhone: in.CustomerPhone,
			Discount:      quote.Discount,
			Tax:           quote.Tax,
			PricingMode:   quote.Mode,
			SaleDate:      s.now(),
			Notes:         in.Notes,
		}
		if quote.Mode == pricing.ModeOverride && sale.Notes == nil {
			note := fmt.Sprintf("Real price charged: %s (list subtotal %s)",
				quote.Total.StringFixed(2), quote.Subtotal.StringFixed(2))
			sale.Notes = &note
		}
		for i, l := range lines {
			item, err := model.NewSaleItem(l.BookID, l.Quantity, l.UnitPrice)
			if err != nil {
				return err
			}
			item.ID = uuid.New()
			item.SaleID = sale.ID
			item.LineNo = i + 1
			sale.Items = append(sale.Items, item)
		}
		if err := sale.Validate(); err != nil {
			return err
		}
		if quote.Mode != pricing.ModeOverride && !sale.TotalAmount.Equal(sale.FinalTotal()) {
			return apperror.Newf(apperror.KindInvalidPricing, "total %s does not match line items", sale.TotalAmount)
		}

		if err := s.repo.CreateTx(tx, &sale); err != nil {
			return err
		}

		ref := sale.ID
		for _, item := range sale.Items {
			before := byID[item.BookID].StockQuantity
			if err := s.books.UpdateStockTx(tx, item.BookID, -item.Quantity); err != nil {
				if errors.Is(err, repository.ErrStockGuard) {
					return apperror.Newf(apperror.KindInsufficientStock,
						"insufficient stock for %q at commit", titles[item.BookID])
				}
				return err
			}
			if _, err := s.ledger.Record(tx, Entry{
				BookID:      item.BookID,
				Type:        model.MovementOut,
				Quantity:    item.Quantity,
				StockBefore: before,
				StockAfter:  before - item.Quantity,
				Reason:      "Sale #" + sale.Ref(),
				ReferenceID: &ref,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Int("lines", len(lines)).Msg("checkout rejected")
		return nil, err
	}

	log.Info().
		Str("sale_id", sale.ID.String()).
		Str("total", sale.TotalAmount.StringFixed(2)).
		Str("payment", sale.PaymentMethod).
		Str("mode", sale.PricingMode).
		Int("items", sale.TotalItems()).
		Msg("sale committed")

	if s.cache != nil && len(isbns) > 0 {
		s.cache.Invalidate(ctx, isbns...)
	}
	// Best-effort: the sale is committed whatever happens here.
	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueReceipt(ctx, sale.ID, in.ReceiptEmail); err != nil {
			log.Error().Err(err).Str("sale_id", sale.ID.String()).Msg("failed to enqueue receipt job")
		}
	}

	resp := saleToResponse(&sale)
	for i := range resp.Items {
		if id, err := uuid.Parse(resp.Items[i].BookID); err == nil {
			resp.Items[i].Title = titles[id]
		}
	}
	return resp, nil
}

// Create builds a cart from the request at current catalog prices and checks it out.
func (s *saleService) Create(ctx context.Context, req dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	c, err := s.buildCart(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	policy, err := pricing.FromRequest(req.DiscountPercent, req.FixedDiscount, req.TaxPercent, req.RealTotal)
	if err != nil {
		return nil, err
	}
	in := CheckoutInput{
		PaymentMethod: req.PaymentMethod,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
		Policy:        policy,
	}
	if req.ReceiptEmail != nil {
		in.ReceiptEmail = *req.ReceiptEmail
	}
	return s.Checkout(ctx, c, in)
}

func (s *saleService) Quote(ctx context.Context, req dto.QuoteRequest) (*dto.QuoteResponse, error) {
	c, err := s.buildCart(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	policy, err := pricing.FromRequest(req.DiscountPercent, req.FixedDiscount, req.TaxPercent, req.RealTotal)
	if err != nil {
		return nil, err
	}
	b, err := c.Quote(policy)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleItemResponse, 0, len(req.Items))
	for _, l := range c.Lines() {
		items = append(items, dto.SaleItemResponse{
			BookID:    l.BookID.String(),
			Title:     l.Title,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal(),
		})
	}
	return &dto.QuoteResponse{
		Items:    items,
		Mode:     b.Mode,
		Subtotal: b.Subtotal,
		Discount: b.Discount,
		Tax:      b.Tax,
		Total:    b.Total,
	}, nil
}

func (s *saleService) buildCart(ctx context.Context, items []dto.SaleItemRequest) (*cart.Cart, error) {
	c := cart.New()
	for i, it := range items {
		id, err := uuid.Parse(it.BookID)
		if err != nil {
			return nil, apperror.Validation(map[string]string{fmt.Sprintf("items[%d].book_id", i): "invalid uuid"})
		}
		b, err := s.books.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := c.Add(b.ID, b.Title, it.Quantity, b.SalePrice); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (s *saleService) Get(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return saleToResponse(sale), nil
}

func (s *saleService) List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	f := repository.SaleFilter{PaymentMethod: filter.PaymentMethod, Page: filter.Page, Limit: filter.Limit}
	if filter.From != "" || filter.To != "" {
		r, err := ParseRange(filter.From, filter.To, s.now())
		if err != nil {
			return nil, err
		}
		from, to := r.Bounds()
		f.From, f.To = &from, &to
	}
	sales, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	data := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		data = append(data, *saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func saleToResponse(s *model.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		title := ""
		if it.Book != nil {
			title = it.Book.Title
		}
		items = append(items, dto.SaleItemResponse{
			BookID:    it.BookID.String(),
			Title:     title,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		})
	}
	return &dto.SaleResponse{
		ID:            s.ID.String(),
		SaleDate:      s.SaleDate.Format(time.RFC3339),
		PaymentMethod: s.PaymentMethod,
		CustomerName:  s.CustomerName,
		CustomerPhone: s.CustomerPhone,
		PricingMode:   s.PricingMode,
		Items:         items,
		TotalItems:    s.TotalItems(),
		Subtotal:      s.Subtotal(),
		Discount:      s.Discount,
		Tax:           s.Tax,
		Total:         s.TotalAmount,
		Notes:         s.Notes,
	}
}
