package services

// IdentityMap rebinds source-archive identifiers to target-store
// identifiers for one import. Tags need no map: assets re-resolve them
// by slug. The map is discarded when the import ends.
type IdentityMap struct {
	categories map[string]string
	assets     map[string]string
}

func NewIdentityMap() *IdentityMap {
	return &IdentityMap{
		categories: make(map[string]string),
		assets:     make(map[string]string),
	}
}

func (m *IdentityMap) BindCategory(sourceID, targetID string) {
	m.categories[sourceID] = targetID
}

func (m *IdentityMap) Category(sourceID string) (string, bool) {
	id, ok := m.categories[sourceID]
	return id, ok
}

func (m *IdentityMap) BindAsset(sourceID, targetID string) {
	m.assets[sourceID] = targetID
}

func (m *IdentityMap) Asset(sourceID string) (string, bool) {
	id, ok := m.assets[sourceID]
	return id, ok
}
