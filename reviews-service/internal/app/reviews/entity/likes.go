package entity

// ToggleLike переключает лайк пользователя в списке likes.
// Если userID уже присутствует - удаляет его (снятие лайка), иначе добавляет.
// Возвращает новый список и признак того, что лайк был снят.
// Результат никогда не содержит userID более одного раза.
func ToggleLike(likes []string, userID string) ([]string, bool) {
	filtered := make([]string, 0, len(likes))
	removed := false
	for _, id := range likes {
		if id == userID {
			removed = true
			continue
		}
		filtered = append(filtered, id)
	}

	if removed {
		return filtered, true
	}

	return append(filtered, userID), false
}

// HasLike проверяет, лайкнул ли пользователь отзыв
func HasLike(likes []string, userID string) bool {
	for _, id := range likes {
		if id == userID {
			return true
		}
	}
	return false
}
