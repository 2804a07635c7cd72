package app

import (
	"context"
	"errors"

	"pothole-scan/internal/domain/entity"
	"pothole-scan/internal/domain/port"
)

var (
	// ErrNotAwaitingLocation геопозиция пришла без /scan или /around
	ErrNotAwaitingLocation = errors.New("user is not awaiting a location")
	// ErrScanInProgress предыдущее сканирование ещё не закончено
	ErrScanInProgress = errors.New("scan already in progress")
)

type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	// Get создаёт пользователя, иначе UpdateState его не найдёт
	if _, err := s.repo.Get(ctx, userID, chatID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateState(ctx, userID, state); err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, userID, chatID)
}

// BeginScan запоминает режим и ждёт от пользователя геопозицию
func (s *UserService) BeginScan(ctx context.Context, userID, chatID int64, mode entity.ScanMode) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.ScanMode = mode
	user.SetState(entity.StateAwaitingLocation)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// StartProcessing принимает геопозицию, только если пользователь её ждёт
func (s *UserService) StartProcessing(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	switch user.State {
	case entity.StateAwaitingLocation:
	case entity.StateProcessing:
		return user, ErrScanInProgress
	default:
		return user, ErrNotAwaitingLocation
	}

	if err := s.repo.UpdateState(ctx, userID, entity.StateProcessing); err != nil {
		return nil, err
	}
	user.SetState(entity.StateProcessing)

	return user, nil
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}
