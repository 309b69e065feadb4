package restore

// IdentifierRemap maps snapshot source ids to the live ids assigned during
// one restore execution. Roles and categories live in separate namespaces;
// lookups work in both directions.
type IdentifierRemap struct {
	roles      biMap
	categories biMap
}

type biMap struct {
	forward map[string]string
	reverse map[string]string
}

func newBiMap() biMap {
	return biMap{forward: make(map[string]string), reverse: make(map[string]string)}
}

func (b biMap) put(sourceID, liveID string) {
	if old, ok := b.forward[sourceID]; ok {
		delete(b.reverse, old)
	}
	b.forward[sourceID] = liveID
	b.reverse[liveID] = sourceID
}

func NewIdentifierRemap() *IdentifierRemap {
	return &IdentifierRemap{roles: newBiMap(), categories: newBiMap()}
}

func (m *IdentifierRemap) MapRole(sourceID, liveID string) {
	m.roles.put(sourceID, liveID)
}

func (m *IdentifierRemap) MapCategory(sourceID, liveID string) {
	m.categories.put(sourceID, liveID)
}

func (m *IdentifierRemap) Role(sourceID string) (string, bool) {
	id, ok := m.roles.forward[sourceID]
	return id, ok
}

func (m *IdentifierRemap) Category(sourceID string) (string, bool) {
	id, ok := m.categories.forward[sourceID]
	return id, ok
}

// SourceOf returns the snapshot id a live role or category was created for.
func (m *IdentifierRemap) SourceOf(liveID string) (string, bool) {
	if id, ok := m.roles.reverse[liveID]; ok {
		return id, true
	}
	id, ok := m.categories.reverse[liveID]
	return id, ok
}

func (m *IdentifierRemap) RoleCount() int {
	return len(m.roles.forward)
}

func (m *IdentifierRemap) CategoryCount() int {
	return len(m.categories.forward)
}
