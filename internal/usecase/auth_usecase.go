package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"motomarket/internal/domain/entity"
	"motomarket/internal/domain/repository"
	"motomarket/pkg/errors"
	"motomarket/pkg/logger"
)

const (
	emailTokenTTL = 24 * time.Hour
	phoneCodeTTL  = 10 * time.Minute
	resetTokenTTL = 10 * time.Minute
)

type AuthUseCase struct {
	userRepo        repository.UserRepository
	mailer          EmailSender
	sms             SMSSender
	tokens          TokenSigner
	baseURL         string
	outboundTimeout time.Duration
}

func NewAuthUseCase(
	userRepo repository.UserRepository,
	mailer EmailSender,
	sms SMSSender,
	tokens TokenSigner,
	baseURL string,
	outboundTimeout time.Duration,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:        userRepo,
		mailer:          mailer,
		sms:             sms,
		tokens:          tokens,
		baseURL:         baseURL,
		outboundTimeout: outboundTimeout,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	TaxID    string
	Password string
	Role     string
}

type AuthResult struct {
	User  *entity.User
	Token string
}

// Register creates the account, stores hashed verification tokens and sends
// the verification email and SMS. If either delivery fails the token fields
// are cleared before the error surfaces, so no token can exist whose
// notification never reached the user.
func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if existing, err := uc.userRepo.GetByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, errors.Validation("Email already in use", nil)
	}
	if existing, err := uc.userRepo.GetByPhone(ctx, input.Phone); err == nil && existing != nil {
		return nil, errors.Validation("Phone already in use", nil)
	}
	if existing, err := uc.userRepo.GetByTaxID(ctx, input.TaxID); err == nil && existing != nil {
		return nil, errors.Validation("Tax ID already in use", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("Failed to hash password", err)
	}

	now := time.Now()
	emailExpires := now.Add(emailTokenTTL)
	phoneExpires := now.Add(phoneCodeTTL)

	emailToken, err := randomToken()
	if err != nil {
		return nil, errors.Internal("Failed to generate verification token", err)
	}
	phoneCode, err := randomDigits(6)
	if err != nil {
		return nil, errors.Internal("Failed to generate verification code", err)
	}

	user := &entity.User{
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		TaxID:    input.TaxID,
		Password: string(hash),
		Role:     input.Role,
		Verifications: entity.Verifications{
			EmailVerificationToken:   hashToken(emailToken),
			EmailVerificationExpires: &emailExpires,
			PhoneVerificationCode:    phoneCode,
			PhoneVerificationExpires: &phoneExpires,
		},
		Favorites:     []string{},
		Notifications: entity.NotificationPrefs{Email: true, SMS: true, Push: true},
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	verificationURL := fmt.Sprintf("%s/v1/auth/verify-email/%s", uc.baseURL, emailToken)
	emailBody := fmt.Sprintf("You signed up for MotoMarket. Verify your email:\n\n%s", verificationURL)
	smsBody := fmt.Sprintf("MotoMarket verification code: %s", phoneCode)

	if err := uc.deliver(ctx, func(ctx context.Context) error {
		if err := uc.mailer.Send(ctx, user.Email, "Email Verification - MotoMarket", emailBody); err != nil {
			return err
		}
		return uc.sms.Send(ctx, user.Phone, smsBody)
	}); err != nil {
		logger.Error("verification delivery failed for %s: %v", user.Email, err)
		user.Verifications.EmailVerificationToken = ""
		user.Verifications.EmailVerificationExpires = nil
		user.Verifications.PhoneVerificationCode = ""
		user.Verifications.PhoneVerificationExpires = nil
		if updateErr := uc.userRepo.Update(ctx, user); updateErr != nil {
			logger.Error("failed to roll back verification tokens for %s: %v", user.ID, updateErr)
		}
		return nil, errors.Upstream("Failed to send verification email or SMS", err)
	}

	token, err := uc.tokens.Sign(user.ID)
	if err != nil {
		return nil, errors.Internal("Failed to sign token", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, errors.Unauthorized("Invalid credentials", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errors.Unauthorized("Invalid credentials", err)
	}

	now := time.Now()
	user.LastLogin = &now
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	token, err := uc.tokens.Sign(user.ID)
	if err != nil {
		return nil, errors.Internal("Failed to sign token", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

func (uc *AuthUseCase) VerifyEmail(ctx context.Context, rawToken string) error {
	user, err := uc.userRepo.GetByEmailVerificationToken(ctx, hashToken(rawToken))
	if err != nil {
		return errors.Validation("Invalid or expired token", err)
	}
	if user.Verifications.EmailVerificationExpires == nil ||
		user.Verifications.EmailVerificationExpires.Before(time.Now()) {
		return errors.Validation("Invalid or expired token", nil)
	}

	user.Verifications.EmailVerified = true
	user.Verifications.EmailVerificationToken = ""
	user.Verifications.EmailVerificationExpires = nil
	return uc.userRepo.Update(ctx, user)
}

func (uc *AuthUseCase) VerifyPhone(ctx context.Context, userID, code string) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	v := &user.Verifications
	if v.PhoneVerificationCode == "" || v.PhoneVerificationCode != code ||
		v.PhoneVerificationExpires == nil || v.PhoneVerificationExpires.Before(time.Now()) {
		return errors.Validation("Invalid or expired code", nil)
	}

	v.PhoneVerified = true
	v.PhoneVerificationCode = ""
	v.PhoneVerificationExpires = nil
	return uc.userRepo.Update(ctx, user)
}

func (uc *AuthUseCase) ResendPhoneVerification(ctx context.Context, userID string) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	code, err := randomDigits(6)
	if err != nil {
		return errors.Internal("Failed to generate verification code", err)
	}
	expires := time.Now().Add(phoneCodeTTL)
	user.Verifications.PhoneVerificationCode = code
	user.Verifications.PhoneVerificationExpires = &expires
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return err
	}

	if err := uc.deliver(ctx, func(ctx context.Context) error {
		return uc.sms.Send(ctx, user.Phone, fmt.Sprintf("MotoMarket verification code: %s", code))
	}); err != nil {
		user.Verifications.PhoneVerificationCode = ""
		user.Verifications.PhoneVerificationExpires = nil
		if updateErr := uc.userRepo.Update(ctx, user); updateErr != nil {
			logger.Error("failed to roll back phone code for %s: %v", user.ID, updateErr)
		}
		return errors.Upstream("Failed to send SMS", err)
	}
	return nil
}

func (uc *AuthUseCase) ForgotPassword(ctx context.Context, email string) error {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return errors.NotFound("Email", err)
	}

	rawToken, err := randomToken()
	if err != nil {
		return errors.Internal("Failed to generate reset token", err)
	}
	expires := time.Now().Add(resetTokenTTL)
	user.ResetPasswordToken = hashToken(rawToken)
	user.ResetPasswordExpires = &expires
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/v1/auth/reset-password/%s", uc.baseURL, rawToken)
	if err := uc.deliver(ctx, func(ctx context.Context) error {
		return uc.mailer.Send(ctx, user.Email, "Password Reset - MotoMarket",
			fmt.Sprintf("Reset your password here:\n\n%s", resetURL))
	}); err != nil {
		user.ResetPasswordToken = ""
		user.ResetPasswordExpires = nil
		if updateErr := uc.userRepo.Update(ctx, user); updateErr != nil {
			logger.Error("failed to roll back reset token for %s: %v", user.ID, updateErr)
		}
		return errors.Upstream("Failed to send email", err)
	}
	return nil
}

func (uc *AuthUseCase) ResetPassword(ctx context.Context, rawToken, newPassword string) (*AuthResult, error) {
	user, err := uc.userRepo.GetByResetPasswordToken(ctx, hashToken(rawToken))
	if err != nil {
		return nil, errors.Validation("Invalid or expired token", err)
	}
	if user.ResetPasswordExpires == nil || user.ResetPasswordExpires.Before(time.Now()) {
		return nil, errors.Validation("Invalid or expired token", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("Failed to hash password", err)
	}
	user.Password = string(hash)
	user.ResetPasswordToken = ""
	user.ResetPasswordExpires = nil
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	token, err := uc.tokens.Sign(user.ID)
	if err != nil {
		return nil, errors.Internal("Failed to sign token", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

type UpdateDetailsInput struct {
	Name          string
	Address       string
	Notifications *entity.NotificationPrefs
}

func (uc *AuthUseCase) UpdateDetails(ctx context.Context, userID string, input UpdateDetailsInput) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Address != "" {
		user.Address = input.Address
	}
	if input.Notifications != nil {
		user.Notifications = *input.Notifications
	}
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *AuthUseCase) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) (*AuthResult, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return nil, errors.Unauthorized("Current password is incorrect", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("Failed to hash password", err)
	}
	user.Password = string(hash)
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	token, err := uc.tokens.Sign(user.ID)
	if err != nil {
		return nil, errors.Internal("Failed to sign token", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// deliver runs an outbound call under the configured timeout; a timeout is
// treated like any other delivery failure.
func (uc *AuthUseCase) deliver(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, uc.outboundTimeout)
	defer cancel()
	return fn(ctx)
}

func randomToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func randomDigits(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + d.Int64())
	}
	return string(digits), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
