package server

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/meridian-hq/meridian/pkg/application"
	"github.com/meridian-hq/meridian/pkg/configuration"
	"github.com/meridian-hq/meridian/pkg/middleware"
	"github.com/meridian-hq/meridian/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{options.Configuration.Origin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	app.RegisterMiddleware(
		middleware.WithLogger(options.Logger, middleware.DefaultLoggerOptions()),
		corsHandler.Handler,
		middleware.WithPool(options.Pool),
		middleware.WithRequestParams(),
	)

	return server.NewHTTPServer(
		app,
		notFoundHandler(),
		methodNotAllowedHandler(),
	), nil
}

func notFoundHandler() http.Handler {
	return jsonErrorHandler(http.StatusNotFound, "NOT_FOUND", "resource not found")
}

func methodNotAllowedHandler() http.Handler {
	return jsonErrorHandler(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

func jsonErrorHandler(status int, code, message string) http.Handler {
	body := []byte(`{"code":"` + code + `","message":"` + message + `"}`)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	})
}
