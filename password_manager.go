package epack

import (
	"errors"
	"strings"
)

// passwordManager 密码管理器
type passwordManager struct {
	userPasswords []string
}

// newPasswordManager 创建新的密码管理器
func newPasswordManager(userPasswords []string) *passwordManager {
	return &passwordManager{userPasswords: userPasswords}
}

// buildPasswordList 构建完整的密码尝试列表，空密码总是第一个
func (pm *passwordManager) buildPasswordList() []string {
	passwords := append([]string{""}, pm.userPasswords...)
	return RemoveDuplicateStrings(passwords)
}

// tryPasswords 依次用每个密码执行 attempt，直到成功或遇到非密码错误
func (pm *passwordManager) tryPasswords(archivePath string, attempt func(password string) error) (string, error) {
	passwords := pm.buildPasswordList()

	var lastErr error
	for _, password := range passwords {
		err := attempt(password)
		if err == nil {
			return password, nil
		}

		if !pm.isPasswordError(err) {
			return "", err
		}
		lastErr = err
	}

	if len(passwords) == 1 {
		return "", NewExtractError(ErrPasswordRequired, "archive is encrypted, a password is required", archivePath, lastErr)
	}
	return "", NewExtractError(ErrInvalidPassword, "none of the configured passwords could decrypt the archive", archivePath, lastErr)
}

// isPasswordError 检查是否为密码相关错误
func (pm *passwordManager) isPasswordError(err error) bool {
	if err == nil {
		return false
	}

	var extractErr *ExtractError
	if errors.As(err, &extractErr) {
		// 已分类的错误以类型为准
		return extractErr.Type == ErrPasswordRequired || extractErr.Type == ErrInvalidPassword
	}

	errorMsg := strings.ToLower(err.Error())

	passwordKeywords := []string{
		"password",
		"encrypted",
		"incorrect password",
		"bad key",
	}

	for _, keyword := range passwordKeywords {
		if strings.Contains(errorMsg, keyword) {
			return true
		}
	}

	return false
}
