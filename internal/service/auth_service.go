package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/examcell/centre-portal-api/internal/credentials"
	"github.com/examcell/centre-portal-api/internal/models"
	"github.com/examcell/centre-portal-api/pkg/config"
	appErrors "github.com/examcell/centre-portal-api/pkg/errors"
	"github.com/examcell/centre-portal-api/pkg/mailer"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	FindAdminByUsername(ctx context.Context, username string) (*models.Admin, error)
	UpsertAdmin(ctx context.Context, admin *models.Admin) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type authStudentReader interface {
	FindByRegNo(ctx context.Context, regNo string) (*models.StudentDetail, error)
}

type authCentreReader interface {
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

type otpStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// AuthService authenticates the portal's three principals and owns the
// admin OTP reset flow. Admin login checks the configured credentials
// first and only falls back to the seeded row, so a reset survives until
// the next deploy changes the configuration.
type AuthService struct {
	users    authUserRepository
	students authStudentReader
	centres  authCentreReader
	otps     otpStore
	mail     mailer.Mailer
	admin    config.AdminConfig
	jwtCfg   config.JWTConfig
	plain    credentials.Verifier
	bcrypt   credentials.Verifier
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService constructs the auth service.
func NewAuthService(
	users authUserRepository,
	students authStudentReader,
	centres authCentreReader,
	otps otpStore,
	mail mailer.Mailer,
	adminCfg config.AdminConfig,
	jwtCfg config.JWTConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:    users,
		students: students,
		centres:  centres,
		otps:     otps,
		mail:     mail,
		admin:    adminCfg,
		jwtCfg:   jwtCfg,
		plain:    credentials.Plain{},
		bcrypt:   credentials.Bcrypt{},
		validate: validate,
		logger:   logger,
		now:      time.Now,
	}
}

func otpKey(username string) string {
	return "otp:admin:" + username
}

// AdminLogin authenticates the super-admin.
func (s *AuthService) AdminLogin(ctx context.Context, req models.AdminLoginRequest) (*models.LoginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	if req.Username != s.admin.Username {
		return nil, appErrors.ErrInvalidCredentials
	}

	actorID := "admin"
	if !s.plain.Verify(s.admin.Password, req.Password) {
		admin, err := s.users.FindAdminByUsername(ctx, req.Username)
		if err != nil || !s.bcrypt.Verify(admin.PasswordHash, req.Password) {
			s.logger.Warn("admin login rejected", zap.String("username", req.Username), zap.String("ip", req.IP))
			return nil, appErrors.ErrInvalidCredentials
		}
		actorID = admin.ID
	}

	s.audit(ctx, &actorID, models.RoleAdmin, models.AuditActionLogin, req.IP, req.UserAgent)
	return s.issueToken(actorID, models.RoleAdmin, s.admin.Username, "")
}

// UserSignup registers a centre staff account against an existing centre.
func (s *AuthService) UserSignup(ctx context.Context, req models.UserSignupRequest) (*models.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid signup payload")
	}

	exists, err := s.centres.ExistsByCode(ctx, req.CentreCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check centre code")
	}
	if !exists {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "centre does not exist")
	}

	taken, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		return nil, appErrors.New(appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "email is already registered")
	}

	hash, err := credentials.Hash(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		CentreCode:   req.CentreCode,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("centre staff account created",
		zap.String("user_id", user.ID),
		zap.String("centre_code", user.CentreCode))
	return user, nil
}

// UserLogin authenticates a centre staff account.
func (s *AuthService) UserLogin(ctx context.Context, req models.UserLoginRequest) (*models.LoginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !s.bcrypt.Verify(user.PasswordHash, req.Password) {
		s.logger.Warn("centre login rejected", zap.String("email", req.Email), zap.String("ip", req.IP))
		return nil, appErrors.ErrInvalidCredentials
	}

	s.audit(ctx, &user.ID, models.RoleCentre, models.AuditActionLogin, req.IP, req.UserAgent)
	return s.issueToken(user.ID, models.RoleCentre, user.Email, user.CentreCode)
}

// StudentLogin authenticates a student by registration number and birth
// date. Only the calendar date is compared; time-of-day and zone are
// discarded.
func (s *AuthService) StudentLogin(ctx context.Context, req models.StudentLoginRequest) (*models.LoginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	student, err := s.students.FindByRegNo(ctx, req.RegNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !sameDate(student.BirthDate, req.BirthDate) {
		s.logger.Warn("student login rejected", zap.String("reg_no", req.RegNo), zap.String("ip", req.IP))
		return nil, appErrors.ErrInvalidCredentials
	}

	s.audit(ctx, &student.ID, models.RoleStudent, models.AuditActionLogin, req.IP, req.UserAgent)
	return s.issueToken(student.ID, models.RoleStudent, student.FullName, student.CentreCode)
}

// ForgotPassword starts the admin OTP flow: a six-digit code is stored with
// a TTL and mailed to the admin address.
func (s *AuthService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if req.Username != s.admin.Username {
		return appErrors.ErrNotFound
	}

	otp, err := generateOTP()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate otp")
	}
	if err := s.otps.Set(ctx, otpKey(req.Username), otp, s.admin.OTPTTL); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store otp")
	}

	email := s.admin.Email
	if admin, err := s.users.FindAdminByUsername(ctx, req.Username); err == nil && admin.Email != "" {
		email = admin.Email
	}

	body := fmt.Sprintf("Your password reset code is %s. It expires in %s.", otp, s.admin.OTPTTL)
	if err := s.mail.Send(email, req.Username, "Password reset code", body); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send otp email")
	}

	s.logger.Info("admin otp issued", zap.String("username", req.Username))
	return nil
}

// VerifyOTP checks the emailed code without consuming it.
func (s *AuthService) VerifyOTP(ctx context.Context, req models.VerifyOTPRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	return s.checkOTP(ctx, req.Username, req.OTP)
}

// ResetPassword completes the admin OTP flow. Only the seeded database row
// is rewritten; the configured password keeps working until redeployed.
func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.checkOTP(ctx, req.Username, req.OTP); err != nil {
		return err
	}

	hash, err := credentials.Hash(req.NewPassword)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	admin := &models.Admin{
		Username:     req.Username,
		Email:        s.admin.Email,
		PasswordHash: hash,
	}
	if existing, err := s.users.FindAdminByUsername(ctx, req.Username); err == nil {
		admin.ID = existing.ID
		if existing.Email != "" {
			admin.Email = existing.Email
		}
	}
	if err := s.users.UpsertAdmin(ctx, admin); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store new password")
	}

	if err := s.otps.Delete(ctx, otpKey(req.Username)); err != nil {
		s.logger.Warn("failed to discard used otp", zap.Error(err))
	}

	actorID := admin.ID
	s.audit(ctx, &actorID, models.RoleAdmin, models.AuditActionPasswordReset, "", "")
	s.logger.Info("admin password reset", zap.String("username", req.Username))
	return nil
}

// ValidateToken parses and verifies an access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.jwtCfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}

func (s *AuthService) issueToken(subjectID string, role models.Role, name, centreCode string) (*models.LoginResponse, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.jwtCfg.Expiration)

	claims := models.JWTClaims{
		SubjectID:  subjectID,
		Role:       role,
		CentreCode: centreCode,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}

	return &models.LoginResponse{
		AccessToken: signed,
		ExpiresIn:   int64(s.jwtCfg.Expiration.Seconds()),
		IssuedAt:    issuedAt,
		Principal: models.Principal{
			ID:         subjectID,
			Role:       role,
			Name:       name,
			CentreCode: centreCode,
		},
	}, nil
}

func (s *AuthService) checkOTP(ctx context.Context, username, otp string) error {
	var stored string
	if err := s.otps.Get(ctx, otpKey(username), &stored); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return appErrors.ErrInvalidOTP
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load otp")
	}
	if stored == "" || stored != otp {
		return appErrors.ErrInvalidOTP
	}
	return nil
}

func (s *AuthService) audit(ctx context.Context, actorID *string, role models.Role, action models.AuditAction, ip, userAgent string) {
	entry := &models.AuditLog{
		ActorID:   actorID,
		Role:      role,
		Action:    action,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if err := s.users.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.Error(err))
	}
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
