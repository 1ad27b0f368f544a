package handlers

import (
	"medimart/internal/config"
	"medimart/internal/identity"
	"medimart/internal/payments"
	"medimart/internal/repos"
	"medimart/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	Gate              *Gate
	UserHandler       *UserHandler
	ProductHandler    *ProductHandler
	CategoryHandler   *CategoryHandler
	PaymentHandler    *PaymentHandler
	InvoiceHandler    *InvoiceHandler
	SettlementHandler *SettlementHandler
	ReportHandler     *ReportHandler
	BannerHandler     *BannerHandler
	CartHandler       *CartHandler
	UploadHandler     *UploadHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, verifier identity.Verifier, proc payments.Processor) *Deps {
	userRepo := repos.NewUserRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	payRepo := repos.NewPaymentRepo(db)
	invRepo := repos.NewInvoiceRepo(db)
	setRepo := repos.NewSettlementRepo(db)
	bannerRepo := repos.NewBannerRepo(db)
	cartRepo := repos.NewCartRepo(db)

	userSvc := services.NewUserService(userRepo)
	catalogSvc := services.NewCatalogService(catRepo, prodRepo)
	orderSvc := services.NewOrderService(payRepo, invRepo, setRepo, prodRepo, userRepo, proc, cfg.Payments.Currency)
	invoiceSvc := services.NewInvoiceService(invRepo, payRepo, userRepo, prodRepo)
	settleSvc := services.NewSettlementService(setRepo, invRepo, userRepo, prodRepo)
	reportSvc := services.NewReportService(userRepo, payRepo, bannerRepo, setRepo, prodRepo)
	bannerSvc := services.NewBannerService(bannerRepo, prodRepo, userRepo)
	cartSvc := services.NewCartService(cartRepo, prodRepo)

	return &Deps{
		Gate:              &Gate{Verifier: verifier, Users: userSvc},
		UserHandler:       &UserHandler{Users: userSvc, Orders: orderSvc},
		ProductHandler:    &ProductHandler{Catalog: catalogSvc},
		CategoryHandler:   &CategoryHandler{Catalog: catalogSvc},
		PaymentHandler:    &PaymentHandler{Orders: orderSvc},
		InvoiceHandler:    &InvoiceHandler{Invoices: invoiceSvc},
		SettlementHandler: &SettlementHandler{Settlements: settleSvc},
		ReportHandler:     &ReportHandler{Reports: reportSvc},
		BannerHandler:     &BannerHandler{Banners: bannerSvc},
		CartHandler:       &CartHandler{Cart: cartSvc},
		UploadHandler:     &UploadHandler{Dir: cfg.UploadDir, MaxBytes: cfg.MaxUploadBytes},
	}
}
