package content

import (
	"fmt"
	"sort"
	"strings"
)

// ManifestPreviewItems bounds how many nested items a manifest contributes
// to its canonical text. Manifests can carry thousands of entries; embedding
// the full list bloats the payload without improving retrieval.
const ManifestPreviewItems = 5

// joinSections concatenates non-empty sections with blank-line separators.
func joinSections(sections ...string) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// statLine renders a stat map as a compact human-readable string, e.g.
// "Strength +5, Agility +2". Keys are sorted so output is deterministic.
func statLine(stats map[string]int, signed bool) string {
	if len(stats) == 0 {
		return ""
	}
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		if signed {
			parts[i] = fmt.Sprintf("%s %+d", k, stats[k])
		} else {
			parts[i] = fmt.Sprintf("%s %d", k, stats[k])
		}
	}
	return strings.Join(parts, ", ")
}

func (l LoreEntry) CanonicalText() string {
	var tags string
	if len(l.Tags) > 0 {
		tags = "Tags: " + strings.Join(l.Tags, ", ")
	}
	var setting string
	if l.Era != "" || l.Region != "" {
		setting = strings.TrimSpace(strings.Join([]string{l.Era, l.Region}, " "))
	}
	return joinSections(l.Title, l.Summary, l.Body, setting, tags)
}

func (q Quest) CanonicalText() string {
	var objectives string
	if len(q.Objectives) > 0 {
		objectives = "Objectives: " + strings.Join(q.Objectives, "; ")
	}
	var rewards string
	if len(q.Rewards) > 0 {
		parts := make([]string, len(q.Rewards))
		for i, r := range q.Rewards {
			if r.Quantity > 1 {
				parts[i] = fmt.Sprintf("%d %s", r.Quantity, r.Name)
			} else {
				parts[i] = r.Name
			}
		}
		rewards = "Rewards: " + strings.Join(parts, ", ")
	}
	var where string
	if q.GiverNPC != "" {
		where = "Given by " + q.GiverNPC
	}
	if q.Location != "" {
		if where != "" {
			where += " in " + q.Location
		} else {
			where = "Located in " + q.Location
		}
	}
	return joinSections(q.Name, q.Description, objectives, rewards, where)
}

func (n NPC) CanonicalText() string {
	var role string
	if n.Role != "" {
		role = n.Name + " is a " + n.Role
		if n.Faction != "" {
			role += " of the " + n.Faction
		}
	}
	var location string
	if n.Location != "" {
		location = "Found in " + n.Location
	}
	sections := []string{n.Name, role, n.Personality, n.Backstory, location}
	if role != "" {
		sections = sections[1:] // role already names the NPC
	}
	return joinSections(sections...)
}

func (i Item) CanonicalText() string {
	var header string
	if i.Rarity != "" || i.Slot != "" {
		header = strings.TrimSpace(i.Rarity + " " + i.Slot)
	}
	var bonuses string
	if s := statLine(i.StatBonuses, true); s != "" {
		bonuses = "Bonuses: " + s
	}
	var reqs string
	if s := statLine(i.Requirements, false); s != "" {
		reqs = "Requires: " + s
	}
	return joinSections(i.Name, header, i.Description, bonuses, reqs, i.FlavorText)
}

func (c Character) CanonicalText() string {
	var sheet string
	if c.Class != "" || c.Race != "" || c.Level > 0 {
		sheet = strings.TrimSpace(c.Race + " " + c.Class)
		if c.Level > 0 {
			sheet = strings.TrimSpace(fmt.Sprintf("Level %d %s", c.Level, sheet))
		}
	}
	var traits string
	if len(c.Traits) > 0 {
		traits = "Traits: " + strings.Join(c.Traits, ", ")
	}
	return joinSections(c.Name, sheet, c.Biography, traits)
}

func (m Manifest) CanonicalText() string {
	var version string
	if m.Version != "" {
		version = "Version " + m.Version
	}
	var preview string
	if len(m.Items) > 0 {
		n := len(m.Items)
		if n > ManifestPreviewItems {
			n = ManifestPreviewItems
		}
		lines := make([]string, 0, n+1)
		for _, it := range m.Items[:n] {
			line := it.Name
			if it.Type != "" {
				line += " (" + it.Type + ")"
			}
			if it.Description != "" {
				line += ": " + it.Description
			}
			lines = append(lines, "- "+line)
		}
		if len(m.Items) > n {
			lines = append(lines, fmt.Sprintf("... and %d more items", len(m.Items)-n))
		}
		preview = "Contents:\n" + strings.Join(lines, "\n")
	}
	return joinSections(m.Name, version, m.Description, preview)
}
