package content

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoreEntryCanonicalText(t *testing.T) {
	lore := LoreEntry{
		ID:      "lore-1",
		Title:   "The Sundering",
		Summary: "How the old empire fell.",
		Body:    "In the third age the empire broke apart.",
		Era:     "Third Age",
		Region:  "Eastmarch",
		Tags:    []string{"empire", "war"},
	}
	text := lore.CanonicalText()

	assert.True(t, strings.HasPrefix(text, "The Sundering"))
	assert.Contains(t, text, "How the old empire fell.")
	assert.Contains(t, text, "Third Age Eastmarch")
	assert.Contains(t, text, "Tags: empire, war")
	// Sections are blank-line separated.
	assert.Contains(t, text, "The Sundering\n\nHow the old empire fell.")
}

func TestLoreEntryCanonicalText_SkipsEmptySections(t *testing.T) {
	lore := LoreEntry{ID: "lore-2", Title: "Short", Body: "Body only."}
	assert.Equal(t, "Short\n\nBody only.", lore.CanonicalText())
}

func TestQuestCanonicalText(t *testing.T) {
	quest := Quest{
		ID:          "q-1",
		Name:        "The Missing Caravan",
		Description: "Find the caravan lost on the north road.",
		Objectives:  []string{"Search the road", "Report back"},
		Rewards:     []Reward{{Name: "gold", Quantity: 100}, {Name: "Iron Sword"}},
		GiverNPC:    "Marla",
		Location:    "Dunwick",
	}
	text := quest.CanonicalText()

	assert.Contains(t, text, "Objectives: Search the road; Report back")
	assert.Contains(t, text, "Rewards: 100 gold, Iron Sword")
	assert.Contains(t, text, "Given by Marla in Dunwick")
}

func TestNPCCanonicalText(t *testing.T) {
	npc := NPC{
		ID:       "npc-1",
		Name:     "Brennor",
		Role:     "blacksmith",
		Faction:  "Iron Guild",
		Location: "Dunwick",
	}
	text := npc.CanonicalText()

	assert.Contains(t, text, "Brennor is a blacksmith of the Iron Guild")
	assert.Contains(t, text, "Found in Dunwick")
	// Name appears once via the role sentence, not duplicated.
	assert.Equal(t, 1, strings.Count(text, "Brennor"))
}

func TestItemCanonicalText_StatsSortedAndSigned(t *testing.T) {
	item := Item{
		ID:          "item-1",
		Name:        "Runed Blade",
		Description: "A blade etched with old runes.",
		Rarity:      "rare",
		Slot:        "weapon",
		StatBonuses: map[string]int{"Strength": 5, "Agility": 2},
		Requirements: map[string]int{
			"Level": 10,
		},
	}
	text := item.CanonicalText()

	assert.Contains(t, text, "rare weapon")
	// Map keys render in sorted order so output is deterministic.
	assert.Contains(t, text, "Bonuses: Agility +2, Strength +5")
	assert.Contains(t, text, "Requires: Level 10")
}

func TestCharacterCanonicalText(t *testing.T) {
	ch := Character{
		ID:     "char-1",
		Name:   "Yara",
		Class:  "Ranger",
		Race:   "Elf",
		Level:  12,
		Traits: []string{"cautious", "loyal"},
	}
	text := ch.CanonicalText()

	assert.Contains(t, text, "Level 12 Elf Ranger")
	assert.Contains(t, text, "Traits: cautious, loyal")
}

func TestManifestCanonicalText_PreviewCapped(t *testing.T) {
	items := make([]ManifestItem, 12)
	for i := range items {
		items[i] = ManifestItem{Name: fmt.Sprintf("asset-%d", i), Type: "texture"}
	}
	m := Manifest{ID: "m-1", Name: "Forest Pack", Version: "1.2", Items: items}
	text := m.CanonicalText()

	assert.Contains(t, text, "Version 1.2")
	assert.Contains(t, text, "- asset-0 (texture)")
	assert.Contains(t, text, "- asset-4 (texture)")
	assert.NotContains(t, text, "asset-5")
	assert.Contains(t, text, "... and 7 more items")
}

func TestManifestCanonicalText_SmallListUncapped(t *testing.T) {
	m := Manifest{
		ID:    "m-2",
		Name:  "Tiny Pack",
		Items: []ManifestItem{{Name: "one"}, {Name: "two", Description: "second asset"}},
	}
	text := m.CanonicalText()

	assert.Contains(t, text, "- one")
	assert.Contains(t, text, "- two: second asset")
	assert.NotContains(t, text, "more items")
}

func TestStatLine(t *testing.T) {
	assert.Equal(t, "", statLine(nil, true))
	assert.Equal(t, "Agility -1, Strength +3", statLine(map[string]int{"Strength": 3, "Agility": -1}, true))
	assert.Equal(t, "Level 5", statLine(map[string]int{"Level": 5}, false))
}

func TestDecodeRecord_RoundTripsEveryKind(t *testing.T) {
	cases := []struct {
		kind Kind
		raw  string
		id   string
	}{
		{KindLore, `{"id":"l1","title":"T","body":"B"}`, "l1"},
		{KindQuest, `{"id":"q1","name":"N","description":"D"}`, "q1"},
		{KindNPC, `{"id":"n1","name":"N"}`, "n1"},
		{KindItem, `{"id":"i1","name":"N","description":"D"}`, "i1"},
		{KindCharacter, `{"id":"c1","name":"N"}`, "c1"},
		{KindManifest, `{"id":"m1","name":"N"}`, "m1"},
	}
	for _, tc := range cases {
		rec, err := DecodeRecord(tc.kind, []byte(tc.raw))
		require.NoError(t, err, string(tc.kind))
		assert.Equal(t, tc.kind, rec.Kind())
		assert.Equal(t, tc.id, rec.ContentID())
	}
}

func TestDecodeRecord_UnknownKind(t *testing.T) {
	_, err := DecodeRecord("spellbook", []byte(`{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDecodeRecord_BadJSON(t *testing.T) {
	_, err := DecodeRecord(KindLore, []byte(`{not json`))
	require.Error(t, err)
}
