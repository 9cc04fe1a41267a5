// impactflow-crm/internal/mentions/mentions.go
package mentions

import (
	"strings"
	"unicode"

	"impactflow-crm/models"
)

// Mention - разрешенное упоминание пользователя в тексте заметки.
type Mention struct {
	UserID uint
	Name   string
}

// Extract находит в тексте токены вида "@Имя" и разрешает их против
// списка известных пользователей без учета регистра. Токен начинается
// с "@" после начала строки, пробела или перевода строки; кандидат -
// последовательность букв, цифр и пробелов до знака препинания,
// перевода строки или конца текста. Среди имен пользователей выбирается
// самое длинное совпадение по границе слова. Неразрешенные токены
// остаются литеральным текстом и ошибкой не считаются.
// Результат дедуплицирован по ID пользователя.
func Extract(text string, users []models.User) []Mention {
	runes := []rune(text)
	var mentions []Mention
	seen := make(map[uint]bool)

	for i := 0; i < len(runes); i++ {
		if runes[i] != '@' {
			continue
		}
		if i > 0 && runes[i-1] != ' ' && runes[i-1] != '\n' {
			continue
		}

		// Собираем кандидата: буквы, цифры и пробелы после "@".
		j := i + 1
		for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == ' ') {
			j++
		}
		if j == i+1 {
			continue
		}

		candidate := string(runes[i+1 : j])
		if user, ok := resolve(candidate, users); ok && !seen[user.ID] {
			seen[user.ID] = true
			mentions = append(mentions, Mention{UserID: user.ID, Name: user.FullName})
		}
	}

	return mentions
}

// resolve подбирает пользователя, чье полное имя является самым длинным
// префиксом кандидата, заканчивающимся на границе слова.
func resolve(candidate string, users []models.User) (models.User, bool) {
	lower := strings.ToLower(candidate)

	var best models.User
	bestLen := 0
	for _, u := range users {
		name := strings.ToLower(strings.TrimSpace(u.FullName))
		if name == "" || len(name) <= bestLen {
			continue
		}
		if !strings.HasPrefix(lower, name) {
			continue
		}
		// Совпадение должно заканчиваться на границе слова кандидата.
		if len(lower) > len(name) && lower[len(name)] != ' ' {
			continue
		}
		best = u
		bestLen = len(name)
	}

	if bestLen == 0 {
		return models.User{}, false
	}
	return best, true
}
