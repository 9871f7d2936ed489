package models

// ToggleLike removes userID from likes if present, otherwise appends it.
// Input slice is not modified. liked reports the state after the toggle.
func ToggleLike(likes []string, userID string) (result []string, liked bool) {
	result = make([]string, 0, len(likes)+1)
	found := false
	for _, id := range likes {
		if id == userID {
			found = true
			continue
		}
		result = append(result, id)
	}
	if !found {
		result = append(result, userID)
	}
	return result, !found
}

// HasLike reports whether userID is in likes
func HasLike(likes []string, userID string) bool {
	for _, id := range likes {
		if id == userID {
			return true
		}
	}
	return false
}
