package models

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Username     string    `gorm:"size:150;not null;unique" json:"username"`
	Name         string    `gorm:"size:150;not null" json:"name"`
	Email        *string   `gorm:"size:254;unique" json:"email"`
	Password     string    `gorm:"size:255;not null" json:"-"`
	Role         UserRole  `gorm:"size:20;not null;default:developer" json:"role"`
	Organization string    `gorm:"size:255" json:"organization"`
	Designation  string    `gorm:"size:255" json:"designation"`
	Phone        string    `gorm:"size:20" json:"phone"`
	IsVerified   *bool     `gorm:"not null;default:false" json:"is_verified"`
	IsActive     *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username     string   `json:"username" binding:"required,max=150"`
	Name         string   `json:"name" binding:"required,max=150"`
	Email        string   `json:"email" binding:"omitempty,email"`
	Password     string   `json:"password" binding:"required,min=8"`
	Role         UserRole `json:"role" binding:"required"`
	Organization string   `json:"organization"`
	Designation  string   `json:"designation"`
	Phone        string   `json:"phone"`
}

type ProfileInput struct {
	Name         string `json:"name" binding:"required,max=150"`
	Email        string `json:"email" binding:"omitempty,email"`
	Organization string `json:"organization"`
	Designation  string `json:"designation"`
	Phone        string `json:"phone"`
}

/*
caches:
	User:$username
sessions:
	Token:$token -> username
	Tokens:$username (set of live tokens)
*/

func (user User) IsAdmin() bool     { return user.Role == UserRoleAdmin }
func (user User) IsAuditor() bool   { return user.Role == UserRoleAuditor }
func (user User) IsDeveloper() bool { return user.Role == UserRoleDeveloper }

func (user User) FullName() string {
	if user.Name != "" {
		return user.Name
	}
	return user.Username
}

func (user User) RemoveInstanceRedis() error {
	return config.RemoveRedisKey("User:" + user.Username)
}

type LoginInfo struct {
	Token       string   `json:"token"`
	AccessToken string   `json:"access_token"`
	Name        string   `json:"name"`
	Username    string   `json:"username"`
	Role        UserRole `json:"role"`
	RoleLabel   string   `json:"role_label"`
}

func normalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}
	e164, err := utils.ValidatePhoneNumber(phone, config.GetSettings().PhoneRegion)
	if err != nil {
		return "", newValidationError("phone", "invalid phone number")
	}
	return e164, nil
}

func (input *NewUser) validate(ctx context.Context, id int) error {
	if !input.Role.IsValid() {
		return newValidationError("role", "invalid role")
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return newValidationError("email", "invalid email address")
	}
	if err := utils.ValidateUnique[User](ctx, "username", strings.TrimSpace(input.Username), id); err != nil {
		return err
	}
	if input.Email != "" {
		if err := utils.ValidateUnique[User](ctx, "email", strings.ToLower(input.Email), id); err != nil {
			return err
		}
	}
	phone, err := normalizePhone(input.Phone)
	if err != nil {
		return err
	}
	input.Phone = phone
	return nil
}

// RegisterUser is self-registration. Only auditor and developer accounts can be opened this way
// and they start unverified.
func RegisterUser(ctx context.Context, input *NewUser) (*User, error) {
	if input.Role == UserRoleAdmin {
		return nil, newValidationError("role", "administrators cannot self-register")
	}
	return createUser(ctx, input, false)
}

// CreateUser creates an account of any role, used by the admin CLI and sample data.
func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	return createUser(ctx, input, true)
}

func createUser(ctx context.Context, input *NewUser, verified bool) (*User, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Username:     html.EscapeString(strings.TrimSpace(input.Username)),
		Name:         input.Name,
		Email:        utils.NilIfEmpty(strings.ToLower(input.Email)),
		Password:     hashedPassword,
		Role:         input.Role,
		Organization: input.Organization,
		Designation:  input.Designation,
		Phone:        input.Phone,
		IsVerified:   &verified,
		IsActive:     utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SetPassword replaces the stored hash and destroys every live session of the user.
func (user *User) SetPassword(ctx context.Context, password string) error {
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(user).UpdateColumn("password", hashedPassword).Error; err != nil {
		return err
	}
	user.Password = hashedPassword
	if err := user.RemoveInstanceRedis(); err != nil {
		return err
	}
	return user.DestroyAllSessions(ctx)
}

func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {
	db := config.GetDB()

	var user User
	err := db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// check login credentials
	if err := utils.ComparePassword(user.Password, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.IsActive == nil || !*user.IsActive {
		return nil, ErrUserDisabled
	}

	settings := config.GetSettings()
	token := uuid.New().String()

	// add new token to the user's tokens set
	if err := config.AddRedisSet("Tokens:"+user.Username, token); err != nil {
		return nil, err
	}
	if err := config.SetRedisValue("Token:"+token, user.Username, settings.SessionLifespan); err != nil {
		return nil, err
	}
	if err := config.SetRedisObject("User:"+user.Username, &user, settings.SessionLifespan); err != nil {
		return nil, err
	}

	accessToken, err := utils.JwtGenerate(user.ID, user.Username, string(user.Role), token, time.Duration(settings.TokenHourLifespan)*time.Hour)
	if err != nil {
		return nil, err
	}

	activity, err := recordActivity(ctx, db.WithContext(ctx), &user, ActivityLogin, "User logged in", nil)
	if err != nil {
		return nil, err
	}
	publishActivity(ctx, &user, activity)

	return &LoginInfo{
		Token:       token,
		AccessToken: accessToken,
		Name:        user.FullName(),
		Username:    user.Username,
		Role:        user.Role,
		RoleLabel:   user.Role.Label(),
	}, nil
}

// Logout destroys the current session token.
func Logout(ctx context.Context, user *User) error {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return errors.New("token is required")
	}
	if err := config.RemoveRedisKey("Token:" + token); err != nil {
		return err
	}
	// remove current token from tokens list
	if err := config.RemoveRedisSetMember("Tokens:"+user.Username, token); err != nil {
		return err
	}

	db := config.GetDB()
	activity, err := recordActivity(ctx, db.WithContext(ctx), user, ActivityLogout, "User logged out", nil)
	if err != nil {
		return err
	}
	publishActivity(ctx, user, activity)
	return nil
}

func (user *User) DestroyAllSessions(ctx context.Context) error {
	allTokens, err := config.GetRedisSetMembers("Tokens:" + user.Username)
	if err != nil {
		return err
	}
	for _, token := range allTokens {
		if err := config.RemoveRedisKey("Token:" + token); err != nil {
			return err
		}
	}
	return config.RemoveRedisKey("Tokens:" + user.Username)
}

// GetUserByUsername reads through the User:$username cache.
func GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	exists, err := config.GetRedisObject("User:"+username, &user)
	if err != nil {
		return nil, err
	}
	if exists {
		return &user, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Where("username = ?", username).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	if err := config.SetRedisObject("User:"+user.Username, &user, config.GetSettings().SessionLifespan); err != nil {
		config.LogError(config.GetLogger(), "user.go", "GetUserByUsername", "SetRedisObject", username, err)
	}
	return &user, nil
}

func GetUser(ctx context.Context, id int) (*User, error) {
	return utils.FetchModel[User](ctx, id)
}

// ListUsers is restricted to administrators.
func ListUsers(ctx context.Context, user *User) ([]*User, error) {
	return listAuthorized[User](ctx, user, EntityUser, nil, "users.created_at DESC, users.id DESC")
}

// ListUsersByRole returns active users of a role, for assignment pickers.
func ListUsersByRole(ctx context.Context, role UserRole) ([]*User, error) {
	return utils.FetchScopedModels[User](ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("role = ? AND is_active = ?", role, true)
	}, "username")
}

func UpdateProfile(ctx context.Context, user *User, input *ProfileInput) (*User, error) {
	if input.Email != "" {
		if !utils.IsValidEmail(input.Email) {
			return nil, newValidationError("email", "invalid email address")
		}
		if err := utils.ValidateUnique[User](ctx, "email", strings.ToLower(input.Email), user.ID); err != nil {
			return nil, err
		}
	}
	phone, err := normalizePhone(input.Phone)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&User{ID: user.ID}).Updates(map[string]interface{}{
		"name":         input.Name,
		"email":        utils.NilIfEmpty(strings.ToLower(input.Email)),
		"organization": input.Organization,
		"designation":  input.Designation,
		"phone":        phone,
	}).Error
	if err != nil {
		return nil, err
	}
	if err := RemoveRedisBoth(*user); err != nil {
		config.LogError(config.GetLogger(), "user.go", "UpdateProfile", "RemoveRedisBoth", user.Username, err)
	}
	return GetUser(ctx, user.ID)
}
