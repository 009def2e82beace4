package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/Simplici0/cotizador/internal/config"
	"github.com/Simplici0/cotizador/internal/document"
	"github.com/Simplici0/cotizador/internal/mailer"
	"github.com/Simplici0/cotizador/internal/quote"
	"github.com/Simplici0/cotizador/internal/rates"
	"github.com/Simplici0/cotizador/internal/store"
)

type server struct {
	store   *store.Store
	rates   *rates.Provider
	quotes  *quote.Service
	mailer  *mailer.Mailer
	company document.Company
}

func newServer(cfg config.Config, database *sql.DB) *server {
	st := store.New(database)
	provider := newRateProvider(cfg, st)
	return &server{
		store:  st,
		rates:  provider,
		quotes: quote.NewService(st, provider),
		mailer: mailer.New(mailer.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			FromName: cfg.SMTP.FromName,
			ReplyTo:  cfg.SMTP.ReplyTo,
		}),
		company: document.Company{
			Name:    cfg.Company.Name,
			TaxID:   cfg.Company.TaxID,
			Address: cfg.Company.Address,
			Email:   cfg.Company.Email,
			Phone:   cfg.Company.Phone,
			Website: cfg.Company.Website,
		},
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/settings", s.handleSettingsGet)
		r.Put("/settings", s.handleSettingsUpdate)

		r.Get("/rates", s.handleRatesGet)
		r.Post("/rates/refresh", s.handleRatesRefresh)

		r.Post("/quotes/preview", s.handleQuotePreview)
		r.Get("/quotes", s.handleQuotesList)
		r.Post("/quotes", s.handleQuoteCreate)
		r.Get("/quotes/{id}", s.handleQuoteGet)
		r.Post("/quotes/{id}/status", s.handleQuoteStatus)
		r.Get("/quotes/{id}/pdf", s.handleQuotePDF)
		r.Get("/quotes/{id}/text", s.handleQuoteText)
		r.Post("/quotes/{id}/email", s.handleQuoteEmail)
		r.Post("/quotes/{id}/purchase-order", s.handleQuotePurchaseOrder)

		r.Get("/clients", s.handleClientsList)
		r.Post("/clients", s.handleClientSave)
		r.Get("/suppliers", s.handleSuppliersList)
		r.Post("/suppliers", s.handleSupplierSave)
		r.Get("/products", s.handleProductsList)
		r.Post("/products", s.handleProductSave)
		r.Get("/purchase-orders", s.handlePurchaseOrdersList)
		r.Delete("/{collection}/{id}", s.handleRecordDelete)

		r.Post("/import/excel", s.handleImportExcel)

		r.Get("/ledger", s.handleLedger)
		r.Get("/sales", s.handleSalesRegister)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.WithFields(log.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("request")
	})
}
