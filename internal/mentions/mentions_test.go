package mentions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impactflow-crm/models"
)

func user(id uint, name string) models.User {
	u := models.User{FullName: name}
	u.ID = id
	return u
}

func TestExtract_ResolvesKnownAndSkipsUnknown(t *testing.T) {
	users := []models.User{user(1, "Jane Doe"), user(2, "Bob Smith")}

	got := Extract("ping @Jane Doe and @unknown please", users)

	require.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].UserID)
	assert.Equal(t, "Jane Doe", got[0].Name)
}

func TestExtract_CaseInsensitive(t *testing.T) {
	users := []models.User{user(1, "Jane Doe")}

	got := Extract("hey @jane doe, look at this", users)

	require.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].UserID)
}

func TestExtract_LongestNameWins(t *testing.T) {
	users := []models.User{user(1, "Jane"), user(2, "Jane Doe")}

	got := Extract("cc @Jane Doe", users)

	require.Len(t, got, 1)
	assert.Equal(t, uint(2), got[0].UserID)
}

func TestExtract_WordBoundary(t *testing.T) {
	users := []models.User{user(1, "Jane")}

	// "Janet" не совпадает с "Jane": граница слова не соблюдена.
	got := Extract("ask @Janet about it", users)
	assert.Empty(t, got)

	// А "@Jane about" совпадает: имя заканчивается перед пробелом.
	got = Extract("ask @Jane about it", users)
	require.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].UserID)
}

func TestExtract_AtRequiresBoundaryBefore(t *testing.T) {
	users := []models.User{user(1, "Jane Doe")}

	// "@" внутри слова (email) упоминанием не считается.
	got := Extract("write to jane.doe@Jane Doe", users)
	assert.Empty(t, got)

	// В начале строки и после перевода строки - считается.
	got = Extract("@Jane Doe\n@Jane Doe", users)
	require.Len(t, got, 1)
}

func TestExtract_DedupByUser(t *testing.T) {
	users := []models.User{user(1, "Jane Doe")}

	got := Extract("@Jane Doe and again @jane doe", users)

	require.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].UserID)
}

func TestExtract_NoMentions(t *testing.T) {
	users := []models.User{user(1, "Jane Doe")}

	assert.Empty(t, Extract("plain text without tokens", users))
	assert.Empty(t, Extract("", users))
	assert.Empty(t, Extract("@", users))
}
