// Package policy реализует правила доступа к ресурсам пользователя.
package policy

import (
	"slices"
	"strconv"
	"strings"

	"github.com/mmeshcher/cygree/internal/apperr"
	"github.com/mmeshcher/cygree/internal/model"
)

// userSegment задаёт позицию идентификатора пользователя в пути вида /api/<раздел>/<userID>/...
const userSegment = 2

// ParseUserID разбирает идентификатор пользователя. Допускается только положительное целое.
func ParseUserID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// PathUserID возвращает идентификатор пользователя из сегмента /api/<раздел>/<userID>.
// Другие числовые сегменты пути не рассматриваются.
func PathUserID(path string) (int64, bool) {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) <= userSegment {
		return 0, false
	}
	return ParseUserID(segs[userSegment])
}

// AuthorizeUserID разрешает доступ, только если raw совпадает с идентификатором вызывающего.
func AuthorizeUserID(caller model.Caller, raw string) error {
	id, ok := ParseUserID(raw)
	if !ok {
		return apperr.Forbidden("path has no user id")
	}
	if id != caller.ID {
		return apperr.Forbidden("user %d cannot act on behalf of user %d", caller.ID, id)
	}
	return nil
}

// AuthorizePath разрешает доступ, только если идентификатор в пути совпадает с вызывающим.
// Путь без идентификатора пользователя на своём месте запрещён.
func AuthorizePath(caller model.Caller, path string) error {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) <= userSegment {
		return apperr.Forbidden("path has no user id")
	}
	return AuthorizeUserID(caller, segs[userSegment])
}

// RequireRole разрешает доступ, если роль вызывающего входит в список.
func RequireRole(caller model.Caller, roles ...model.Role) error {
	if slices.Contains(roles, caller.Role) {
		return nil
	}
	return apperr.Forbidden("role %s is not allowed", caller.Role)
}
