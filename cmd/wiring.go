package main

import (
	"context"
	"net/http"

	"github.com/okian/wellcheck/internal/adapters/http/api"
	"github.com/okian/wellcheck/internal/adapters/http/site"
	"github.com/okian/wellcheck/internal/adapters/http/swagger"
	"github.com/okian/wellcheck/internal/adapters/notify/telegram"
	"github.com/okian/wellcheck/internal/adapters/secrets"
	app "github.com/okian/wellcheck/internal/app"
	"github.com/okian/wellcheck/internal/config"
	"github.com/okian/wellcheck/internal/domain/classifier"
	"github.com/okian/wellcheck/internal/domain/decision"
	"github.com/okian/wellcheck/pkg/logger"
)

// newHandler assembles the pipeline and every HTTP surface.
func newHandler(ctx context.Context, cfg *config.Config, clf classifier.Classifier, info classifier.Info, log logger.Logger) (http.Handler, error) {
	if _, err := swagger.Parse(); err != nil {
		return nil, err
	}

	engine, err := decision.New(
		decision.WithClassifier(clf),
		decision.WithLogger(log.Named("decision")),
	)
	if err != nil {
		return nil, err
	}

	notifier := telegram.New(
		telegram.WithSecrets(secrets.NewFileEnvStore(secrets.WithFile(cfg.SecretsFile))),
		telegram.WithEndpoint(cfg.AlertEndpoint),
		telegram.WithTimeout(cfg.AlertTimeout()),
		telegram.WithTextLimit(cfg.AlertTextLimit),
		telegram.WithLogger(log.Named("alert")),
	)

	svc, err := app.New(
		app.WithEngine(engine),
		app.WithNotifier(notifier),
		app.WithEncoding(cfg.Encoding()),
		app.WithModelInfo(info),
		app.WithLogger(log.Named("assessment")),
	)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	site.Register(ctx, mux, site.NewRootHandler(svc, log.Named("site")))

	return api.RecoverMiddleware(mux, log), nil
}
