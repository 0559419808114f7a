package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"fms-project/backend/users-service/logging"
	"fms-project/backend/users-service/models"
	"fms-project/backend/users-service/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user with this id already exists")
	ErrInvalidCredentials = errors.New("invalid user id or password")
	ErrWeakPassword       = errors.New("password does not meet the strength requirements")
	ErrInvalidArgument    = errors.New("invalid argument")
)

type RegisterInput struct {
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Password   string `json:"password"`
}

type UserService struct {
	UserCollection *mongo.Collection
	BlackList      map[string]bool
}

func NewUserService(userCollection *mongo.Collection, blackList map[string]bool) *UserService {
	return &UserService{
		UserCollection: userCollection,
		BlackList:      blackList,
	}
}

// Register stores a new user with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if input.UserID == "" || input.Name == "" {
		return nil, fmt.Errorf("%w: userId and name are required", ErrInvalidArgument)
	}
	if input.Role != models.RoleManager && input.Role != models.RoleMember {
		return nil, fmt.Errorf("%w: role must be %q or %q", ErrInvalidArgument, models.RoleManager, models.RoleMember)
	}
	if err := s.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	var existing models.User
	if err := s.UserCollection.FindOne(ctx, bson.M{"_id": input.UserID}).Decode(&existing); err == nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		UserID:       html.EscapeString(input.UserID),
		Name:         html.EscapeString(input.Name),
		Department:   html.EscapeString(input.Department),
		Email:        html.EscapeString(input.Email),
		Role:         input.Role,
		PasswordHash: string(hash),
		CreatedOn:    time.Now(),
	}
	if _, err := s.UserCollection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: User %s registered with role %s", user.UserID, user.Role)
	return user, nil
}

// ValidatePassword enforces the password policy: length, character classes
// and the common-password blacklist.
func (s *UserService) ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: must be at least 8 characters long", ErrWeakPassword)
	}

	hasUppercase := false
	for _, char := range password {
		if char >= 'A' && char <= 'Z' {
			hasUppercase = true
			break
		}
	}
	if !hasUppercase {
		return fmt.Errorf("%w: must contain at least one uppercase letter", ErrWeakPassword)
	}

	hasDigit := false
	for _, char := range password {
		if char >= '0' && char <= '9' {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		return fmt.Errorf("%w: must contain at least one number", ErrWeakPassword)
	}

	specialChars := "!@#$%^&*.,"
	hasSpecial := false
	for _, char := range password {
		if strings.ContainsRune(specialChars, char) {
			hasSpecial = true
			break
		}
	}
	if !hasSpecial {
		return fmt.Errorf("%w: must contain at least one special character", ErrWeakPassword)
	}

	if s.BlackList[password] {
		return fmt.Errorf("%w: password is too common", ErrWeakPassword)
	}

	return nil
}

// Login checks the password against the stored hash and issues a signed
// token carrying the user id and role.
func (s *UserService) Login(ctx context.Context, userID, password string) (*models.User, string, error) {
	var user models.User
	err := s.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user.UserID, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	logging.Logger.Infof("Event ID: USER_LOGIN, Description: User %s logged in", user.UserID)
	user.PasswordHash = ""
	return &user, token, nil
}

// GetProfile returns the user without the password hash.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return &user, nil
}

// ChangePassword verifies the old password and stores a new hash.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return fmt.Errorf("%w: new password and confirmation do not match", ErrInvalidArgument)
	}
	if err := s.ValidatePassword(newPassword); err != nil {
		return err
	}

	var user models.User
	err := s.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		return ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	_, err = s.UserCollection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"passwordHash": string(hash)}},
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	logging.Logger.Infof("Event ID: PASSWORD_CHANGED, Description: User %s changed their password", userID)
	return nil
}

// ListMembers returns everyone with the member role, for assignee pickers.
func (s *UserService) ListMembers(ctx context.Context) ([]models.User, error) {
	cursor, err := s.UserCollection.Find(ctx, bson.M{"role": models.RoleMember})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch members: %w", err)
	}
	defer cursor.Close(ctx)

	var members []models.User
	if err := cursor.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("failed to parse members: %w", err)
	}

	for i := range members {
		members[i].PasswordHash = ""
	}
	return members, nil
}
