package service

import (
	"context"
	"fmt"

	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/mq/worker"
	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/source"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
)

// fetchExecutor adapts a source.Source to worker.Executor.
type fetchExecutor struct {
	src source.Source
}

var _ worker.Executor = fetchExecutor{}

func (e fetchExecutor) Execute(ctx context.Context, t worker.Task) model.FetchResult { //nolint:gocritic // hugeParam: tasks travel by value over the channel
	switch t.Kind {
	case model.FetchPage:
		page, err := e.src.FetchPage(ctx, t.Page)
		return model.FetchResult{Page: page, Err: err}
	case model.FetchPrice:
		price, err := e.src.FetchPrice(ctx, t.Sponsor)
		return model.FetchResult{Price: price, Err: err}
	default:
		return model.FetchResult{Err: fmt.Errorf("%w: %q", ErrUnknownFetchKind, t.Kind)}
	}
}
