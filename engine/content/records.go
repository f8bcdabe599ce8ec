package content

import (
	"encoding/json"
	"fmt"
)

// LoreEntry is a piece of world lore: history, myth, places, factions.
type LoreEntry struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Summary string   `json:"summary,omitempty"`
	Body    string   `json:"body"`
	Era     string   `json:"era,omitempty"`
	Region  string   `json:"region,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

func (l LoreEntry) Kind() Kind        { return KindLore }
func (l LoreEntry) ContentID() string { return l.ID }

// Reward is a quest reward: a quantity of a named thing.
type Reward struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity,omitempty"`
}

// Quest is a playable quest definition.
type Quest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Objectives  []string `json:"objectives,omitempty"`
	Rewards     []Reward `json:"rewards,omitempty"`
	GiverNPC    string   `json:"giver_npc,omitempty"`
	Location    string   `json:"location,omitempty"`
	Level       int      `json:"level,omitempty"`
}

func (q Quest) Kind() Kind        { return KindQuest }
func (q Quest) ContentID() string { return q.ID }

// NPC is a non-player character.
type NPC struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role,omitempty"`
	Personality string `json:"personality,omitempty"`
	Backstory   string `json:"backstory,omitempty"`
	Faction     string `json:"faction,omitempty"`
	Location    string `json:"location,omitempty"`
}

func (n NPC) Kind() Kind        { return KindNPC }
func (n NPC) ContentID() string { return n.ID }

// Item is an obtainable item with optional stat effects and requirements.
type Item struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Rarity       string         `json:"rarity,omitempty"`
	Slot         string         `json:"slot,omitempty"`
	StatBonuses  map[string]int `json:"stat_bonuses,omitempty"`
	Requirements map[string]int `json:"requirements,omitempty"`
	FlavorText   string         `json:"flavor_text,omitempty"`
}

func (i Item) Kind() Kind        { return KindItem }
func (i Item) ContentID() string { return i.ID }

// Character is a player-authored character sheet.
type Character struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Class     string   `json:"class,omitempty"`
	Race      string   `json:"race,omitempty"`
	Biography string   `json:"biography,omitempty"`
	Traits    []string `json:"traits,omitempty"`
	Level     int      `json:"level,omitempty"`
}

func (c Character) Kind() Kind        { return KindCharacter }
func (c Character) ContentID() string { return c.ID }

// ManifestItem is one entry in a data manifest's item list.
type ManifestItem struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Manifest is a data manifest describing a bundle of generated content.
type Manifest struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Version     string         `json:"version,omitempty"`
	Items       []ManifestItem `json:"items,omitempty"`
}

func (m Manifest) Kind() Kind        { return KindManifest }
func (m Manifest) ContentID() string { return m.ID }

func decode[T Record](kind Kind, raw json.RawMessage) (Record, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("content: decode %s record: %w", kind, err)
	}
	return v, nil
}

// DecodeRecord unmarshals raw JSON into the record type for the given kind.
func DecodeRecord(kind Kind, raw json.RawMessage) (Record, error) {
	switch kind {
	case KindLore:
		return decode[LoreEntry](kind, raw)
	case KindQuest:
		return decode[Quest](kind, raw)
	case KindNPC:
		return decode[NPC](kind, raw)
	case KindItem:
		return decode[Item](kind, raw)
	case KindCharacter:
		return decode[Character](kind, raw)
	case KindManifest:
		return decode[Manifest](kind, raw)
	default:
		return nil, NewValidationError("kind", string(kind), ErrUnknownKind)
	}
}
