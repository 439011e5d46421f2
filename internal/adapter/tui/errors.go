package tui

import (
	"context"
	"errors"
	"strings"

	"dashboard/internal/domain"
)

// errorText renders err as the inline message shown to the user.
func errorText(err error) string {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return strings.Join(ve.Problems, "、")
	case errors.Is(err, context.Canceled):
		return msgCanceled
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "用戶名或密碼錯誤"
	case errors.Is(err, domain.ErrAccountLocked):
		return "帳戶已被鎖定，請稍後再試"
	case errors.Is(err, domain.ErrSessionExpired):
		return "登入已過期，請重新登入"
	case errors.Is(err, domain.ErrNoSession):
		return "請先登入"
	case errors.Is(err, domain.ErrAccessDenied):
		return "訪問碼錯誤"
	case errors.Is(err, domain.ErrForbidden):
		return "只有管理員可以執行此操作"
	case errors.Is(err, domain.ErrUserExists):
		return "用戶名已存在"
	case errors.Is(err, domain.ErrUserNotFound):
		return "用戶不存在"
	case errors.Is(err, domain.ErrRelay):
		return "生成過程中發生錯誤，無法連線到伺服器"
	default:
		return "錯誤：" + err.Error()
	}
}
