package bossconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	apperrors "northstar/internal/errors"
	"northstar/internal/infrastructure"
	"northstar/pkg/contracts/domain"
)

// Registry is the persisted boss/ability catalog: boss name to encounter
// ID plus the ability IDs tracked for it, and ability ID to display
// label. It lives in a JSON file under the config directory and is never
// seeded with defaults; operators grow it through AddAbility.
type Registry struct {
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	data registryData
}

type registryData struct {
	Bosses       map[string]bossEntry `json:"bosses"`
	AbilityNames map[string]string    `json:"ability_names"`
}

type bossEntry struct {
	ID        int   `json:"id"`
	Abilities []int `json:"abilities"`
}

// QueryClient is the slice of the API client used for ability lookups.
type QueryClient interface {
	Query(ctx context.Context, operation, query string, variables map[string]interface{}, out interface{}) error
}

// Load opens the registry file, creating an empty one when missing.
// A corrupt file is replaced by an empty registry with a warning, so a
// broken edit never blocks report generation.
func Load(path string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		path:   path,
		logger: infrastructure.WithComponent(logger, "boss_registry"),
		data: registryData{
			Bosses:       map[string]bossEntry{},
			AbilityNames: map[string]string{},
		},
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := r.save(); err != nil {
			return nil, err
		}
		return r, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read boss registry", err).
			WithContext("path", path)
	}

	var data registryData
	if err := json.Unmarshal(raw, &data); err != nil {
		r.logger.Warn("boss registry is corrupt, starting empty",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return r, nil
	}
	if data.Bosses == nil {
		data.Bosses = map[string]bossEntry{}
	}
	if data.AbilityNames == nil {
		data.AbilityNames = map[string]string{}
	}
	r.data = data
	return r, nil
}

// save persists the registry. Callers must hold no expectation of
// atomicity beyond the rename.
func (r *Registry) save() error {
	raw, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode boss registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create config directory", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return apperrors.NewStorageError("failed to write boss registry", err).
			WithContext("path", r.path)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return apperrors.NewStorageError("failed to replace boss registry", err).
			WithContext("path", r.path)
	}
	return nil
}

// Bosses returns the known bosses sorted by name.
func (r *Registry) Bosses() []domain.Boss {
	r.mu.Lock()
	defer r.mu.Unlock()

	bosses := make([]domain.Boss, 0, len(r.data.Bosses))
	for name, entry := range r.data.Bosses {
		bosses = append(bosses, domain.Boss{Name: name, EncounterID: entry.ID})
	}
	sort.Slice(bosses, func(i, j int) bool { return bosses[i].Name < bosses[j].Name })
	return bosses
}

// BossByName resolves a boss by its display name.
func (r *Registry) BossByName(name string) (domain.Boss, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.data.Bosses[name]
	if !ok {
		return domain.Boss{}, false
	}
	return domain.Boss{Name: name, EncounterID: entry.ID}, true
}

// Abilities returns the tracked abilities of a boss, labeled where a
// label is known.
func (r *Registry) Abilities(bossName string) []domain.Ability {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.data.Bosses[bossName]
	if !ok {
		return nil
	}
	abilities := make([]domain.Ability, 0, len(entry.Abilities))
	for _, id := range entry.Abilities {
		abilities = append(abilities, domain.Ability{
			ID:   id,
			Name: r.data.AbilityNames[strconv.Itoa(id)],
		})
	}
	return abilities
}

// AbilityName returns the stored label for an ability ID, or "".
func (r *Registry) AbilityName(id int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data.AbilityNames[strconv.Itoa(id)]
}

// AddAbility records an ability under a boss and persists the registry.
// The boss entry is created on first use; re-adding an ability updates
// its label only.
func (r *Registry) AddAbility(bossName string, bossID, abilityID int, label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.data.Bosses[bossName]
	if !ok {
		entry = bossEntry{ID: bossID}
	}
	entry.ID = bossID

	present := false
	for _, id := range entry.Abilities {
		if id == abilityID {
			present = true
			break
		}
	}
	if !present {
		entry.Abilities = append(entry.Abilities, abilityID)
	}

	r.data.Bosses[bossName] = entry
	r.data.AbilityNames[strconv.Itoa(abilityID)] = label

	r.logger.Info("ability recorded",
		slog.String("boss", bossName),
		slog.Int("ability_id", abilityID),
		slog.String("label", label))

	return r.save()
}

const abilityQuery = `
query ($id: Int!) {
  gameData {
    ability(id: $id) {
      id
      name
    }
  }
}`

type abilityData struct {
	GameData struct {
		Ability *struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"ability"`
	} `json:"gameData"`
}

// LookupAbilityName resolves an ability's display name from the
// provider's game data. Returns "" when the provider knows no such
// ability.
func LookupAbilityName(ctx context.Context, client QueryClient, abilityID int) (string, error) {
	var data abilityData
	vars := map[string]interface{}{"id": abilityID}
	if err := client.Query(ctx, "ability_lookup", abilityQuery, vars, &data); err != nil {
		return "", err
	}
	if data.GameData.Ability == nil {
		return "", nil
	}
	return data.GameData.Ability.Name, nil
}
