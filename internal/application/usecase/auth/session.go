package auth

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/khoahotran/internmatch-client/internal/domain/session"
	"github.com/khoahotran/internmatch-client/pkg/apperror"
)

func spanFrom(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// ExecuteRestoreSession rebuilds the session from the stored token pair.
func (uc *AuthUseCase) ExecuteRestoreSession(ctx context.Context) (*LoginOutput, error) {
	ctx, span := tracer.Start(ctx, "ExecuteRestoreSession")
	defer span.End()

	tokens, err := uc.tokens.Load(ctx)
	if err != nil {
		err = apperror.NewInternal("load stored tokens", err)
		span.RecordError(err)
		return nil, err
	}
	if tokens.Empty() {
		err := apperror.NewAuthRequired("no stored credential")
		span.RecordError(err)
		return nil, err
	}

	s := session.New(tokens, "")
	return &LoginOutput{Session: s, Destination: s.Home()}, nil
}

// ExecuteLogout forgets the stored token pair. The caller drops its session.
func (uc *AuthUseCase) ExecuteLogout(ctx context.Context) (session.Destination, error) {
	ctx, span := tracer.Start(ctx, "ExecuteLogout")
	defer span.End()

	if err := uc.tokens.Clear(ctx); err != nil {
		err = apperror.NewInternal("clear stored tokens", err)
		span.RecordError(err)
		return "", err
	}
	uc.logger.Info("Logged out")
	return session.DestinationLogin, nil
}
