package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/propscan/ownerdata/internal/model"
	"github.com/propscan/ownerdata/internal/resolve"
	"github.com/propscan/ownerdata/pkg/propertydata"
)

// ownerDataResolver is the resolver surface the HTTP layer depends on.
type ownerDataResolver interface {
	Resolve(ctx context.Context, query model.AddressQuery) (*resolve.Result, error)
}

// ownerDataResponse is the 200 payload. Email and Phone are convenience
// first elements of the lists.
type ownerDataResponse struct {
	OwnerName       string   `json:"ownerName"`
	MailingAddress  string   `json:"mailingAddress"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	AllEmails       []string `json:"allEmails"`
	AllPhones       []string `json:"allPhones"`
	PropertyAddress string   `json:"propertyAddress"`
	Source          string   `json:"source"`
}

type errorResponse struct {
	Error       string          `json:"error"`
	Details     string          `json:"details,omitempty"`
	APIResponse json.RawMessage `json:"apiResponse,omitempty"`

	// A zero-results 404 still carries whatever contacts were found.
	AllEmails []string `json:"allEmails,omitempty"`
	AllPhones []string `json:"allPhones,omitempty"`
}

// newRouter builds the API surface: GET /health and GET /api/owner-data.
func newRouter(r ownerDataResolver, requestTimeout time.Duration) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(requestTimeout))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Get("/api/owner-data", handleOwnerData(r))

	return router
}

func handleOwnerData(r ownerDataResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		query := model.AddressQuery{
			Address:     q.Get("address"),
			ListingLink: q.Get("listing_link"),
			Source:      model.Platform(q.Get("source")),
		}

		res, err := r.Resolve(req.Context(), query)
		if err != nil {
			switch {
			case errors.Is(err, resolve.ErrMissingAddress):
				writeJSON(w, http.StatusBadRequest, errorResponse{
					Error:   "address is required",
					Details: "supply an address query parameter",
				})
			case errors.Is(err, resolve.ErrUnknownPlatform):
				writeJSON(w, http.StatusBadRequest, errorResponse{
					Error:   "unknown source platform",
					Details: err.Error(),
				})
			case errors.Is(err, resolve.ErrUnsplittableAddress):
				writeJSON(w, http.StatusBadRequest, errorResponse{
					Error:   "address could not be parsed",
					Details: "no city and state could be determined from the address",
				})
			case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
				writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "resolution timed out"})
			default:
				zap.L().Error("owner-data resolution failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			}
			return
		}

		enr := &res.Enrichment

		// The provider's explicit zero-results answer is a 404 when no owner
		// identity was assembled anywhere, but partial contacts still ride
		// along in the body.
		if res.NoResults && !enr.HasOwnerData() {
			writeJSON(w, http.StatusNotFound, errorResponse{
				Error:       "no property records found",
				Details:     "the property provider reported zero results for this address",
				APIResponse: res.ProviderResponse,
				AllEmails:   enr.Emails,
				AllPhones:   enr.Phones,
			})
			return
		}

		// A provider failure surfaces only when the cascade produced nothing
		// at all; any partial result beats an error.
		if res.ProviderErr != nil && !enr.HasOwnerData() && !enr.HasContact() {
			status := http.StatusBadGateway
			var statusErr *propertydata.StatusError
			if errors.As(res.ProviderErr, &statusErr) {
				status = statusErr.StatusCode
			}
			writeJSON(w, status, errorResponse{Error: providerErrMessage(res.ProviderErr)})
			return
		}

		writeJSON(w, http.StatusOK, ownerDataResponse{
			OwnerName:       enr.OwnerName,
			MailingAddress:  enr.MailingAddress,
			Email:           first(enr.Emails),
			Phone:           first(enr.Phones),
			AllEmails:       enr.Emails,
			AllPhones:       enr.Phones,
			PropertyAddress: enr.PropertyAddress,
			Source:          string(enr.Source),
		})
	}
}

func providerErrMessage(err error) string {
	var statusErr *propertydata.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Message
	}
	return "property provider request failed"
}

func first(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[0]
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("write response failed", zap.Error(err))
	}
}
