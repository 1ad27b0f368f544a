package services

import (
	"context"

	"medimart/internal/domain"
	"medimart/internal/repos"

	"github.com/shopspring/decimal"
)

// ReportService computes dashboard figures on every request.
type ReportService struct {
	Users       *repos.UserRepo
	Payments    *repos.PaymentRepo
	Banners     *repos.BannerRepo
	Settlements *repos.SettlementRepo
	Prods       *repos.ProductRepo
}

func NewReportService(users *repos.UserRepo, pays *repos.PaymentRepo, banners *repos.BannerRepo,
	sets *repos.SettlementRepo, prods *repos.ProductRepo) *ReportService {
	return &ReportService{Users: users, Payments: pays, Banners: banners, Settlements: sets, Prods: prods}
}

type AdminStats struct {
	TotalUsers    int     `json:"totalUsers"`
	TotalPayments int     `json:"totalPayments"`
	TotalBanners  int     `json:"totalBanners"`
	TotalSales    float64 `json:"totalSales"`
	Paid          float64 `json:"paid"`
	Pending       float64 `json:"pending"`
}

type SellerStats struct {
	TotalSales float64 `json:"totalSales"`
	Paid       float64 `json:"paid"`
	Pending    float64 `json:"pending"`
}

// itemTotal treats a missing price as 0 and a missing quantity as 1.
func itemTotal(it domain.LineItem) decimal.Decimal {
	qty := it.Quantity
	if qty == 0 {
		qty = 1
	}
	return decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(qty)))
}

// AdminStats: paid and totalSales come from paid payments' items, pending from
// pending seller payments.
func (s *ReportService) AdminStats(ctx context.Context) (AdminStats, error) {
	var st AdminStats
	var err error
	if st.TotalUsers, err = s.Users.Count(ctx); err != nil {
		return st, err
	}
	if st.TotalPayments, err = s.Payments.Count(ctx); err != nil {
		return st, err
	}
	if st.TotalBanners, err = s.Banners.Count(ctx); err != nil {
		return st, err
	}

	paid, err := s.Payments.ListByStatus(ctx, domain.PaymentPaid)
	if err != nil {
		return st, err
	}
	sum := decimal.Zero
	for _, p := range paid {
		for _, it := range p.Items {
			sum = sum.Add(itemTotal(it))
		}
	}
	st.Paid = sum.InexactFloat64()
	st.TotalSales = st.Paid

	pending, err := s.Settlements.SellerPaymentsByStatus(ctx, domain.SettlementPending)
	if err != nil {
		return st, err
	}
	psum := decimal.Zero
	for _, sp := range pending {
		psum = psum.Add(decimal.NewFromFloat(sp.Amount))
	}
	st.Pending = psum.InexactFloat64()
	return st, nil
}

// SellerStats sums the caller's items across all payments. Paid and pending
// come from the seller's settlements when any exist, else from payment status.
func (s *ReportService) SellerStats(ctx context.Context, seller string) (SellerStats, error) {
	var st SellerStats
	pays, err := s.Payments.List(ctx)
	if err != nil {
		return st, err
	}
	var pids []string
	for _, p := range pays {
		for _, it := range p.Items {
			pids = append(pids, it.Product)
		}
	}
	prods, err := s.Prods.ByIDs(ctx, uniq(pids))
	if err != nil {
		return st, err
	}

	total, paidByPay, pendingByPay := decimal.Zero, decimal.Zero, decimal.Zero
	for _, p := range pays {
		for _, it := range p.Items {
			pr, ok := prods[it.Product]
			if !ok || pr.Seller != seller {
				continue
			}
			line := itemTotal(it)
			total = total.Add(line)
			if p.Status == domain.PaymentPaid {
				paidByPay = paidByPay.Add(line)
			} else {
				pendingByPay = pendingByPay.Add(line)
			}
		}
	}
	st.TotalSales = total.InexactFloat64()

	sps, err := s.Settlements.ListSellerPaymentsBySeller(ctx, seller)
	if err != nil {
		return st, err
	}
	if len(sps) == 0 {
		st.Paid, st.Pending = paidByPay.InexactFloat64(), pendingByPay.InexactFloat64()
		return st, nil
	}
	paid, pending := decimal.Zero, decimal.Zero
	for _, sp := range sps {
		if sp.Status == domain.SettlementPaid {
			paid = paid.Add(decimal.NewFromFloat(sp.Amount))
		} else {
			pending = pending.Add(decimal.NewFromFloat(sp.Amount))
		}
	}
	st.Paid, st.Pending = paid.InexactFloat64(), pending.InexactFloat64()
	return st, nil
}
