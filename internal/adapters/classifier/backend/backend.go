// Package backend opens the classifier selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/okian/wellcheck/internal/adapters/classifier/remote"
	"github.com/okian/wellcheck/internal/adapters/classifier/tree"
	"github.com/okian/wellcheck/internal/config"
	"github.com/okian/wellcheck/internal/domain/classifier"
)

// Open loads the configured backend once. The tree backend checks the
// artifact; the remote backend checks that the sidecar answers.
func Open(ctx context.Context, cfg *config.Config) (classifier.Classifier, classifier.Info, error) {
	switch cfg.ModelBackend {
	case config.BackendTree:
		t, err := tree.Load(cfg.ModelPath, tree.WithExpectedEncoding(cfg.Encoding()))
		if err != nil {
			return nil, classifier.Info{}, err
		}
		return t, t.Describe(), nil
	case config.BackendRemote:
		c := remote.NewClient(cfg.ModelURL, remote.WithTimeout(cfg.ModelTimeout()))
		pingCtx, cancel := context.WithTimeout(ctx, cfg.ModelTimeout())
		defer cancel()
		if err := c.Ping(pingCtx); err != nil {
			return nil, classifier.Info{}, err
		}
		info := c.Describe()
		info.Encoding = cfg.Encoding()
		return c, info, nil
	}
	return nil, classifier.Info{}, fmt.Errorf("%w: model_backend %q", config.ErrInvalidConfig, cfg.ModelBackend)
}
