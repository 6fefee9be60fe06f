package bossconfig

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"northstar/pkg/contracts/domain"
)

func registryPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "bosses.json")
}

func TestLoad(t *testing.T) {
	t.Run("missing file creates empty registry", func(t *testing.T) {
		path := registryPath(t)

		r, err := Load(path, nil)
		require.NoError(t, err)
		assert.Empty(t, r.Bosses())

		_, err = os.Stat(path)
		assert.NoError(t, err, "empty registry file is written out")
	})

	t.Run("existing file round-trips", func(t *testing.T) {
		path := registryPath(t)
		seed := `{
  "bosses": {
    "Fractillus": {"id": 3135, "abilities": [1233411]}
  },
  "ability_names": {"1233411": "Shockwave Slam"}
}`
		require.NoError(t, os.WriteFile(path, []byte(seed), 0644))

		r, err := Load(path, nil)
		require.NoError(t, err)

		boss, ok := r.BossByName("Fractillus")
		require.True(t, ok)
		assert.Equal(t, domain.Boss{Name: "Fractillus", EncounterID: 3135}, boss)
		assert.Equal(t, []domain.Ability{{ID: 1233411, Name: "Shockwave Slam"}}, r.Abilities("Fractillus"))
		assert.Equal(t, "Shockwave Slam", r.AbilityName(1233411))
	})

	t.Run("corrupt file starts empty without failing", func(t *testing.T) {
		path := registryPath(t)
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

		r, err := Load(path, nil)
		require.NoError(t, err)
		assert.Empty(t, r.Bosses())
	})
}

func TestAddAbility(t *testing.T) {
	path := registryPath(t)
	r, err := Load(path, nil)
	require.NoError(t, err)

	require.NoError(t, r.AddAbility("Fractillus", 3135, 1233411, "Shockwave Slam"))
	require.NoError(t, r.AddAbility("Fractillus", 3135, 1227373, "Shattering Backhand"))
	require.NoError(t, r.AddAbility("Nexus-King Salhadaar", 3134, 1224812, "Besiege"))

	t.Run("bosses sorted by name", func(t *testing.T) {
		bosses := r.Bosses()
		require.Len(t, bosses, 2)
		assert.Equal(t, "Fractillus", bosses[0].Name)
		assert.Equal(t, "Nexus-King Salhadaar", bosses[1].Name)
	})

	t.Run("re-adding updates the label only", func(t *testing.T) {
		require.NoError(t, r.AddAbility("Fractillus", 3135, 1233411, "Shockwave"))

		abilities := r.Abilities("Fractillus")
		require.Len(t, abilities, 2, "duplicate ID is not appended")
		assert.Equal(t, "Shockwave", r.AbilityName(1233411))
	})

	t.Run("changes survive reload", func(t *testing.T) {
		reloaded, err := Load(path, nil)
		require.NoError(t, err)

		boss, ok := reloaded.BossByName("Nexus-King Salhadaar")
		require.True(t, ok)
		assert.Equal(t, 3134, boss.EncounterID)
		assert.Equal(t, "Besiege", reloaded.AbilityName(1224812))
	})

	t.Run("file stays valid JSON", func(t *testing.T) {
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		var decoded map[string]interface{}
		assert.NoError(t, json.Unmarshal(raw, &decoded))
	})
}

func TestAbilitiesUnknownBoss(t *testing.T) {
	r, err := Load(registryPath(t), nil)
	require.NoError(t, err)
	assert.Nil(t, r.Abilities("Nobody"))
}

// lookupClient fakes the ability game-data query.
type lookupClient struct {
	payload string
}

func (c lookupClient) Query(_ context.Context, _, _ string, _ map[string]interface{}, out interface{}) error {
	return json.Unmarshal([]byte(c.payload), out)
}

func TestLookupAbilityName(t *testing.T) {
	t.Run("known ability", func(t *testing.T) {
		client := lookupClient{payload: `{"gameData":{"ability":{"id":1233411,"name":"Shockwave Slam"}}}`}

		name, err := LookupAbilityName(context.Background(), client, 1233411)
		require.NoError(t, err)
		assert.Equal(t, "Shockwave Slam", name)
	})

	t.Run("unknown ability yields empty name", func(t *testing.T) {
		client := lookupClient{payload: `{"gameData":{"ability":null}}`}

		name, err := LookupAbilityName(context.Background(), client, 42)
		require.NoError(t, err)
		assert.Empty(t, name)
	})
}
