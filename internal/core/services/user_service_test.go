package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/groupcart/groupcart_backend/internal/apperrors"
	"github.com/groupcart/groupcart_backend/internal/core/domain"
	portsrepo "github.com/groupcart/groupcart_backend/internal/core/ports/repositories"
	portssvc "github.com/groupcart/groupcart_backend/internal/core/ports/services"
	"github.com/groupcart/groupcart_backend/internal/core/services"
	"github.com/groupcart/groupcart_backend/internal/dto"
	"github.com/groupcart/groupcart_backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock UserRepository ---
type MockUserRepository struct {
	mock.Mock
}

// Ensure MockUserRepository implements portsrepo.UserRepositoryFacade
var _ portsrepo.UserRepositoryFacade = (*MockUserRepository)(nil)

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByProviderID(ctx context.Context, provider domain.AuthProvider, providerUserID string) (*domain.User, error) {
	args := m.Called(ctx, provider, providerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateRefreshToken(ctx context.Context, userID string, refreshTokenHash string, refreshTokenExpiryTime time.Time) error {
	args := m.Called(ctx, userID, refreshTokenHash, refreshTokenExpiryTime)
	return args.Error(0)
}

func (m *MockUserRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserRepository) MarkUserDeleted(ctx context.Context, userID string, deletedByUserID string, now time.Time) error {
	args := m.Called(ctx, userID, deletedByUserID, now)
	return args.Error(0)
}

// --- Test Suite Setup ---
type UserServiceTestSuite struct {
	suite.Suite
	mockUserRepo *MockUserRepository
	mockEscrow   *MockEscrowService
	service      portssvc.UserSvcFacade
	passwordHash string
	localUser    domain.User
}

func (suite *UserServiceTestSuite) SetupSuite() {
	// Hashing is deliberately slow; do it once for the whole suite.
	hash, err := utils.HashPassword("correct-horse-battery")
	suite.Require().NoError(err)
	suite.passwordHash = hash
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.mockUserRepo = new(MockUserRepository)
	suite.mockEscrow = new(MockEscrowService)
	suite.service = services.NewUserService(suite.mockUserRepo, suite.mockEscrow, "USD")

	suite.localUser = domain.User{
		UserID:       uuid.NewString(),
		Username:     "coffeelover",
		Name:         "Casey Coffee",
		Email:        "casey@example.com",
		PasswordHash: suite.passwordHash,
		AuthProvider: domain.ProviderLocal,
		AuditFields: domain.AuditFields{
			CreatedAt: time.Now().Add(-24 * time.Hour),
			Version:   1,
		},
	}
}

// --- CreateUser ---

func (suite *UserServiceTestSuite) TestCreateUser_Success() {
	ctx := context.Background()
	req := dto.CreateUserRequest{
		Username: "newbuyer",
		Password: "correct-horse-battery",
		Name:     "New Buyer",
		Email:    "new@example.com",
	}
	wallet := domain.Wallet{WalletID: uuid.NewString(), CurrencyCode: "USD"}

	suite.mockUserRepo.On("FindUserByUsername", ctx, "newbuyer").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("SaveUser", ctx, mock.MatchedBy(func(u domain.User) bool {
		return u.Username == "newbuyer" &&
			u.AuthProvider == domain.ProviderLocal &&
			u.PasswordHash != "" &&
			u.PasswordHash != req.Password &&
			u.CreatedBy == "self-registration" &&
			u.Version == 1
	})).Return(nil).Once()
	suite.mockEscrow.On("CreateWallet", ctx, mock.AnythingOfType("string"), "USD", mock.AnythingOfType("string")).Return(&wallet, nil).Once()

	user, err := suite.service.CreateUser(ctx, req)

	suite.Require().NoError(err)
	suite.Require().NotNil(user)
	suite.NotEmpty(user.UserID)
	suite.Equal("newbuyer", user.Username)
	suite.True(utils.CheckPasswordHash(req.Password, user.PasswordHash))
	suite.False(user.EmailVerified)
	suite.mockUserRepo.AssertExpectations(suite.T())
	suite.mockEscrow.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestCreateUser_DuplicateUsername() {
	ctx := context.Background()
	req := dto.CreateUserRequest{Username: "coffeelover", Password: "irrelevant-pw", Name: "Copycat"}

	suite.mockUserRepo.On("FindUserByUsername", ctx, "coffeelover").Return(&suite.localUser, nil).Once()

	_, err := suite.service.CreateUser(ctx, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "SaveUser", mock.Anything, mock.Anything)
	suite.mockEscrow.AssertNotCalled(suite.T(), "CreateWallet", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestCreateUser_ExistingWalletTolerated() {
	ctx := context.Background()
	req := dto.CreateUserRequest{Username: "rejoiner", Password: "some-password", Name: "Re Joiner"}

	suite.mockUserRepo.On("FindUserByUsername", ctx, "rejoiner").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("SaveUser", ctx, mock.AnythingOfType("domain.User")).Return(nil).Once()
	suite.mockEscrow.On("CreateWallet", ctx, mock.AnythingOfType("string"), "USD", mock.AnythingOfType("string")).Return(nil, apperrors.ErrDuplicate).Once()

	user, err := suite.service.CreateUser(ctx, req)

	suite.Require().NoError(err)
	suite.Require().NotNil(user)
	suite.mockEscrow.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestCreateUser_WalletProvisionFails() {
	ctx := context.Background()
	req := dto.CreateUserRequest{Username: "unlucky", Password: "some-password", Name: "Un Lucky"}

	suite.mockUserRepo.On("FindUserByUsername", ctx, "unlucky").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("SaveUser", ctx, mock.AnythingOfType("domain.User")).Return(nil).Once()
	suite.mockEscrow.On("CreateWallet", ctx, mock.AnythingOfType("string"), "USD", mock.AnythingOfType("string")).Return(nil, assert.AnError).Once()

	_, err := suite.service.CreateUser(ctx, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, assert.AnError)
}

// --- AuthenticateUser ---

func (suite *UserServiceTestSuite) TestAuthenticateUser_Success() {
	ctx := context.Background()
	suite.mockUserRepo.On("FindUserByUsername", ctx, "coffeelover").Return(&suite.localUser, nil).Once()

	user, err := suite.service.AuthenticateUser(ctx, "coffeelover", "correct-horse-battery")

	suite.Require().NoError(err)
	suite.Equal(suite.localUser.UserID, user.UserID)
}

func (suite *UserServiceTestSuite) TestAuthenticateUser_WrongPassword() {
	ctx := context.Background()
	suite.mockUserRepo.On("FindUserByUsername", ctx, "coffeelover").Return(&suite.localUser, nil).Once()

	_, err := suite.service.AuthenticateUser(ctx, "coffeelover", "wrong-password")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

func (suite *UserServiceTestSuite) TestAuthenticateUser_UnknownUsername() {
	ctx := context.Background()
	suite.mockUserRepo.On("FindUserByUsername", ctx, "ghost").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.AuthenticateUser(ctx, "ghost", "whatever")

	suite.Require().Error(err)
	// Unknown usernames and bad passwords are indistinguishable to callers.
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

func (suite *UserServiceTestSuite) TestAuthenticateUser_ExternalProviderAccount() {
	ctx := context.Background()
	googleUser := suite.localUser
	googleUser.AuthProvider = domain.ProviderGoogle
	googleUser.PasswordHash = ""

	suite.mockUserRepo.On("FindUserByUsername", ctx, "coffeelover").Return(&googleUser, nil).Once()

	_, err := suite.service.AuthenticateUser(ctx, "coffeelover", "correct-horse-battery")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

// --- FindOrCreateUserByGoogleDetails ---

func (suite *UserServiceTestSuite) TestFindOrCreateUserByGoogleDetails_ExistingUser() {
	ctx := context.Background()
	existing := suite.localUser
	existing.AuthProvider = domain.ProviderGoogle
	existing.ProviderUserID = "goog-sub-123"
	existing.EmailVerified = true
	info := domain.GoogleUserInfo{ID: "goog-sub-123", Email: existing.Email, VerifiedEmail: true, Name: existing.Name}

	suite.mockUserRepo.On("FindUserByProviderID", ctx, domain.ProviderGoogle, "goog-sub-123").Return(&existing, nil).Once()

	user, err := suite.service.FindOrCreateUserByGoogleDetails(ctx, info)

	suite.Require().NoError(err)
	suite.Equal(existing.UserID, user.UserID)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "SaveUser", mock.Anything, mock.Anything)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "UpdateUser", mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestFindOrCreateUserByGoogleDetails_SyncsVerifiedFlag() {
	ctx := context.Background()
	existing := suite.localUser
	existing.AuthProvider = domain.ProviderGoogle
	existing.ProviderUserID = "goog-sub-123"
	existing.EmailVerified = false
	info := domain.GoogleUserInfo{ID: "goog-sub-123", Email: existing.Email, VerifiedEmail: true}

	suite.mockUserRepo.On("FindUserByProviderID", ctx, domain.ProviderGoogle, "goog-sub-123").Return(&existing, nil).Once()
	suite.mockUserRepo.On("UpdateUser", ctx, mock.MatchedBy(func(u domain.User) bool {
		return u.UserID == existing.UserID && u.EmailVerified
	})).Return(nil).Once()

	user, err := suite.service.FindOrCreateUserByGoogleDetails(ctx, info)

	suite.Require().NoError(err)
	suite.True(user.EmailVerified)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestFindOrCreateUserByGoogleDetails_CreatesNewUser() {
	ctx := context.Background()
	info := domain.GoogleUserInfo{ID: "goog-sub-456", Email: "Jane.Doe@example.com", VerifiedEmail: true, Name: "Jane Doe"}
	wallet := domain.Wallet{WalletID: uuid.NewString(), CurrencyCode: "USD"}

	suite.mockUserRepo.On("FindUserByProviderID", ctx, domain.ProviderGoogle, "goog-sub-456").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("FindUserByUsername", ctx, "jane.doe").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("SaveUser", ctx, mock.MatchedBy(func(u domain.User) bool {
		return u.Username == "jane.doe" &&
			u.AuthProvider == domain.ProviderGoogle &&
			u.ProviderUserID == "goog-sub-456" &&
			u.EmailVerified &&
			u.PasswordHash == "" &&
			u.CreatedBy == "google-oauth"
	})).Return(nil).Once()
	suite.mockEscrow.On("CreateWallet", ctx, mock.AnythingOfType("string"), "USD", mock.AnythingOfType("string")).Return(&wallet, nil).Once()

	user, err := suite.service.FindOrCreateUserByGoogleDetails(ctx, info)

	suite.Require().NoError(err)
	suite.Equal("jane.doe", user.Username)
	suite.Equal("Jane Doe", user.Name)
	suite.mockUserRepo.AssertExpectations(suite.T())
	suite.mockEscrow.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestFindOrCreateUserByGoogleDetails_UsernameCollisionGetsSuffix() {
	ctx := context.Background()
	info := domain.GoogleUserInfo{ID: "goog-sub-789", Email: "jane.doe@example.com", VerifiedEmail: true, Name: "Other Jane"}
	wallet := domain.Wallet{WalletID: uuid.NewString(), CurrencyCode: "USD"}

	suite.mockUserRepo.On("FindUserByProviderID", ctx, domain.ProviderGoogle, "goog-sub-789").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("FindUserByUsername", ctx, "jane.doe").Return(&suite.localUser, nil).Once()
	suite.mockUserRepo.On("SaveUser", ctx, mock.MatchedBy(func(u domain.User) bool {
		return strings.HasPrefix(u.Username, "jane.doe-") && len(u.Username) == len("jane.doe-")+8
	})).Return(nil).Once()
	suite.mockEscrow.On("CreateWallet", ctx, mock.AnythingOfType("string"), "USD", mock.AnythingOfType("string")).Return(&wallet, nil).Once()

	user, err := suite.service.FindOrCreateUserByGoogleDetails(ctx, info)

	suite.Require().NoError(err)
	suite.NotEqual("jane.doe", user.Username)
	suite.True(strings.HasPrefix(user.Username, "jane.doe-"))
	suite.mockUserRepo.AssertExpectations(suite.T())
}

// --- UpdateUser ---

func (suite *UserServiceTestSuite) TestUpdateUser_ChangesName() {
	ctx := context.Background()
	requester := uuid.NewString()
	newName := "Casey Renamed"
	req := dto.UpdateUserRequest{Name: &newName}

	suite.mockUserRepo.On("FindUserByID", ctx, suite.localUser.UserID).Return(&suite.localUser, nil).Once()
	suite.mockUserRepo.On("UpdateUser", ctx, mock.MatchedBy(func(u domain.User) bool {
		return u.UserID == suite.localUser.UserID && u.Name == newName && u.LastUpdatedBy == requester
	})).Return(nil).Once()

	user, err := suite.service.UpdateUser(ctx, suite.localUser.UserID, req, requester)

	suite.Require().NoError(err)
	suite.Equal(newName, user.Name)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestUpdateUser_SameNameSkipsWrite() {
	ctx := context.Background()
	sameName := suite.localUser.Name
	req := dto.UpdateUserRequest{Name: &sameName}

	suite.mockUserRepo.On("FindUserByID", ctx, suite.localUser.UserID).Return(&suite.localUser, nil).Once()

	user, err := suite.service.UpdateUser(ctx, suite.localUser.UserID, req, uuid.NewString())

	suite.Require().NoError(err)
	suite.Equal(sameName, user.Name)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "UpdateUser", mock.Anything, mock.Anything)
}

// --- DeleteUser and token management ---

func (suite *UserServiceTestSuite) TestDeleteUser_Success() {
	ctx := context.Background()
	requester := uuid.NewString()

	suite.mockUserRepo.On("MarkUserDeleted", ctx, suite.localUser.UserID, requester, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.DeleteUser(ctx, suite.localUser.UserID, requester)

	suite.Require().NoError(err)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestDeleteUser_NotFound() {
	ctx := context.Background()

	suite.mockUserRepo.On("MarkUserDeleted", ctx, "missing", mock.Anything, mock.AnythingOfType("time.Time")).Return(apperrors.ErrNotFound).Once()

	err := suite.service.DeleteUser(ctx, "missing", uuid.NewString())

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *UserServiceTestSuite) TestUpdateRefreshToken_Passthrough() {
	ctx := context.Background()
	expiry := time.Now().Add(720 * time.Hour)

	suite.mockUserRepo.On("UpdateRefreshToken", ctx, suite.localUser.UserID, "hashed-token", expiry).Return(nil).Once()

	err := suite.service.UpdateRefreshToken(ctx, suite.localUser.UserID, "hashed-token", expiry)

	suite.Require().NoError(err)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestClearRefreshToken_Passthrough() {
	ctx := context.Background()

	suite.mockUserRepo.On("ClearRefreshToken", ctx, suite.localUser.UserID).Return(nil).Once()

	err := suite.service.ClearRefreshToken(ctx, suite.localUser.UserID)

	suite.Require().NoError(err)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

// --- Reads ---

func (suite *UserServiceTestSuite) TestListUsers_WrapsRepoError() {
	ctx := context.Background()

	suite.mockUserRepo.On("ListUsers", ctx, 20, 0).Return(nil, assert.AnError).Once()

	_, err := suite.service.ListUsers(ctx, 20, 0)

	suite.Require().Error(err)
	suite.ErrorIs(err, assert.AnError)
}

func (suite *UserServiceTestSuite) TestGetUserByID_Success() {
	ctx := context.Background()

	suite.mockUserRepo.On("FindUserByID", ctx, suite.localUser.UserID).Return(&suite.localUser, nil).Once()

	user, err := suite.service.GetUserByID(ctx, suite.localUser.UserID)

	suite.Require().NoError(err)
	suite.Equal(suite.localUser.Username, user.Username)
}

func TestUserService(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
