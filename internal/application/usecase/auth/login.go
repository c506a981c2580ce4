package auth

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/internmatch-client/internal/application/service"
	"github.com/khoahotran/internmatch-client/internal/domain/session"
	"github.com/khoahotran/internmatch-client/pkg/apperror"
	"github.com/khoahotran/internmatch-client/pkg/logger"
)

var (
	tracer   = otel.Tracer("auth_usecase")
	validate = validator.New(validator.WithRequiredStructEnabled())
)

type AuthUseCase struct {
	gateway service.AuthGateway
	tokens  service.TokenStore
	logger  logger.Logger
}

func NewAuthUseCase(gateway service.AuthGateway, tokens service.TokenStore, log logger.Logger) *AuthUseCase {
	return &AuthUseCase{
		gateway: gateway,
		tokens:  tokens,
		logger:  log,
	}
}

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// LoginOutput carries the new session and where it lands.
type LoginOutput struct {
	Session     *session.Session
	Destination session.Destination
}

func (uc *AuthUseCase) ExecuteLogin(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	ctx, span := tracer.Start(ctx, "ExecuteLogin")
	defer span.End()

	input.Email = strings.TrimSpace(input.Email)
	if err := validate.Struct(input); err != nil {
		err = apperror.NewValidation("email and password are required", err)
		span.RecordError(err)
		return nil, err
	}

	tokens, err := uc.gateway.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return uc.establish(ctx, tokens, "")
}

type GoogleLoginInput struct {
	IDToken string `validate:"required"`
}

// ExecuteGoogleLogin exchanges a federated identity token for the system's
// own tokens and dispatches exactly like a password login.
func (uc *AuthUseCase) ExecuteGoogleLogin(ctx context.Context, input GoogleLoginInput) (*LoginOutput, error) {
	ctx, span := tracer.Start(ctx, "ExecuteGoogleLogin")
	defer span.End()

	if err := validate.Struct(input); err != nil {
		err = apperror.NewValidation("identity token is required", err)
		span.RecordError(err)
		return nil, err
	}

	tokens, name, err := uc.gateway.ExchangeGoogle(ctx, input.IDToken)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return uc.establish(ctx, tokens, name)
}

func (uc *AuthUseCase) establish(ctx context.Context, tokens session.Tokens, name string) (*LoginOutput, error) {
	if tokens.Empty() {
		return nil, apperror.NewConflictOrServer(0, "The server did not return a credential", "empty access token")
	}
	if err := uc.tokens.Save(ctx, tokens); err != nil {
		uc.logger.Error("Failed to persist tokens", err)
		return nil, apperror.NewInternal("persist tokens", err)
	}

	s := session.New(tokens, name)
	dest := s.Home()
	role := "<none>"
	if r := s.Role(); r != nil {
		role = *r
	}
	span := spanFrom(ctx)
	span.SetAttributes(attribute.String("session.role", role), attribute.String("session.destination", string(dest)))
	uc.logger.Info("Session established", zap.String("role", role), zap.String("destination", string(dest)))

	return &LoginOutput{Session: s, Destination: dest}, nil
}
