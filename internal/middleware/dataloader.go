package middleware

import (
	"context"
	"net/http"

	"github.com/imthatgin/querylib/internal/graph"
	"github.com/imthatgin/querylib/internal/recordloader"

	"github.com/graph-gophers/dataloader"
)

type ctxKey string

const recordLoaderKey ctxKey = "recordLoader"

// DataLoaderMiddleware attaches a per-request record loader to the context
func DataLoaderMiddleware(store graph.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loader := recordloader.NewRecordLoader(store)

			ctx := context.WithValue(r.Context(), recordLoaderKey, loader.Loader)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RecordLoaderFromContext retrieves the record loader from context
func RecordLoaderFromContext(ctx context.Context) *dataloader.Loader {
	if l, ok := ctx.Value(recordLoaderKey).(*dataloader.Loader); ok {
		return l
	}
	return nil
}
