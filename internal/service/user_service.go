package service

import (
	"errors"

	"Memoir_Community/internal/model"
	"Memoir_Community/internal/pkg"
	"Memoir_Community/internal/repository/mysql"
	"Memoir_Community/internal/repository/redis"

	"golang.org/x/crypto/bcrypt"
)

// UserService 认证协作方：引擎只要求一个已验证的caller身份，这里给出最小实现
type UserService struct {
	repo  *mysql.UserRepository
	rUser *redis.UserRepository
}

func NewUserService() *UserService {
	return &UserService{
		repo:  &mysql.UserRepository{DB: mysql.DB},
		rUser: &redis.UserRepository{},
	}
}

func (s *UserService) Register(username, password, email string) error {
	if username == "" || password == "" || email == "" {
		return pkg.ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := &model.User{
		Username: username,
		Password: string(hash),
		Email:    email,
	}
	return s.repo.Create(user)
}

func (s *UserService) Login(username, password string) (*pkg.Pair, error) {
	user, err := s.repo.FindByUsername(username)
	if err != nil {
		return nil, errors.New("user not found")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, errors.New("invalid password")
	}
	// 将token写入redis
	token, err := pkg.GeneratePair(user.ID)
	if err != nil {
		return nil, err
	}
	if err = s.rUser.AddUserToken(user.ID, token.AccessToken); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *UserService) Logout(usrID uint64) error {
	return s.rUser.DeleteUserToken(usrID)
}

func (s *UserService) Refresh(refreshToken string) (*pkg.Pair, error) {
	return pkg.Refresh(refreshToken)
}

// ChangePassword 登录态修改密码
func (s *UserService) ChangePassword(usrID uint64, oldPassword, newPassword string) error {
	user, err := s.repo.FindByID(usrID)
	if err != nil {
		return err
	}
	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return errors.New("old password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err = s.repo.UpdatePassword(user, string(hash)); err != nil {
		return err
	}
	return s.Logout(usrID)
}
