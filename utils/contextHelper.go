package utils

import (
	"context"

	"github.com/mmdatafocus/sales_ledger/appctx"
)

var (
	ContextKeySubject       = appctx.ContextKeySubject
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyRunId         = appctx.ContextKeyRunId
)

func GetSubjectFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeySubject)
}

func SetSubjectInContext(ctx context.Context, subject string) context.Context {
	return appctx.Set(ctx, ContextKeySubject, subject)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func GetRunIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyRunId)
}

func SetRunIdInContext(ctx context.Context, runId string) context.Context {
	return appctx.Set(ctx, ContextKeyRunId, runId)
}
