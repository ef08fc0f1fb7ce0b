package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"invoicing-service/internal/app"
)

// Handler wires HTTP routes to the application service.
type Handler struct {
	svc            app.ApplicationService
	log            *zap.SugaredLogger
	jwtSecret      string
	uploadDir      string
	maxUploadBytes int64
	allowedOrigins string
}

// Options carries handler construction settings beyond the service itself.
type Options struct {
	JWTSecret      string
	UploadDir      string
	MaxUploadBytes int64
	AllowedOrigins string
}

// NewHandler builds the router with all API routes and middleware applied.
func NewHandler(svc app.ApplicationService, log *zap.SugaredLogger, opts Options) http.Handler {
	h := &Handler{
		svc:            svc,
		log:            log,
		jwtSecret:      opts.JWTSecret,
		uploadDir:      opts.UploadDir,
		maxUploadBytes: opts.MaxUploadBytes,
		allowedOrigins: opts.AllowedOrigins,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(opts.AllowedOrigins))
	r.Use(RequestBodyLimit(opts.MaxUploadBytes))

	r.Get("/api/health", h.health)
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		r.Get("/api/auth/me", h.me)

		r.Get("/api/clients", h.listClients)
		r.Get("/api/clients/{id}", h.getClient)
		r.Get("/api/projects", h.listProjects)
		r.Get("/api/projects/{id}", h.getProject)
		r.Get("/api/currencies", h.listCurrencies)
		r.Get("/api/currencies/{id}/rate", h.getCurrencyRate)
		r.Get("/api/companies", h.listCompanies)
		r.Get("/api/proposals/active", h.listActiveProposals)
		r.Get("/api/estimates/{id}", h.getEstimate)

		r.Get("/api/invoices/count", h.countInvoices)
		r.Get("/api/invoices/number", h.generateNumber)
		r.Get("/api/invoices/{id}", h.getInvoice)
		r.Post("/api/invoices", h.createInvoice)
		r.Put("/api/invoices/{id}", h.updateInvoice)
		r.Post("/api/invoices/generate", h.generateInvoice)
		r.Delete("/api/invoices/{id}/attachments/{name}", h.deleteAttachment)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]string{"status": "ok"})
}
