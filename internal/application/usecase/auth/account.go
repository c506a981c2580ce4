package auth

import (
	"context"

	"github.com/khoahotran/internmatch-client/internal/application/service"
	"github.com/khoahotran/internmatch-client/internal/domain/session"
	"github.com/khoahotran/internmatch-client/pkg/apperror"
)

type RegisterOutput struct {
	Message string
}

// ExecuteRegister creates an account. The new user still has to log in.
func (uc *AuthUseCase) ExecuteRegister(ctx context.Context, input service.Registration) (*RegisterOutput, error) {
	ctx, span := tracer.Start(ctx, "ExecuteRegister")
	defer span.End()

	if err := validate.Struct(input); err != nil {
		err = apperror.NewValidation("registration form is incomplete", err)
		span.RecordError(err)
		return nil, err
	}

	if _, err := uc.gateway.Register(ctx, input); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &RegisterOutput{Message: "Registration successful!"}, nil
}

type ChangePasswordInput struct {
	Session *session.Session
	Change  service.PasswordChange
}

// ExecuteChangePassword checks the confirmation locally before anything is
// sent.
func (uc *AuthUseCase) ExecuteChangePassword(ctx context.Context, input ChangePasswordInput) error {
	ctx, span := tracer.Start(ctx, "ExecuteChangePassword")
	defer span.End()

	if err := session.Require(input.Session); err != nil {
		span.RecordError(err)
		return err
	}
	if input.Change.NewPassword != input.Change.ConfirmationPassword {
		err := apperror.NewValidation("new password and confirmation do not match", nil)
		err.Message = "Passwords do not match"
		span.RecordError(err)
		return err
	}
	if err := validate.Struct(input.Change); err != nil {
		err = apperror.NewValidation("password change form is incomplete", err)
		span.RecordError(err)
		return err
	}

	if err := uc.gateway.ChangePassword(ctx, input.Session.AccessToken(), input.Change); err != nil {
		span.RecordError(err)
		return err
	}
	uc.logger.Info("Password changed")
	return nil
}
