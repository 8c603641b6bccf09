package toposort

import "sync"

// SymbolTable interns node names to dense integer IDs. IDs are assigned in
// first-seen order, which is the tie-break order of every sort in this
// package.
type SymbolTable struct {
	strToID map[string]int
	idToStr []string
	lock    sync.RWMutex
}

// NewSymbolTable creates an empty SymbolTable.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{strToID: make(map[string]int)}
}

// Intern returns the ID for name, assigning the next free one if needed.
func (table *SymbolTable) Intern(name string) int {
	table.lock.RLock()
	symbolID, exists := table.strToID[name]
	table.lock.RUnlock()

	if exists {
		return symbolID
	}

	table.lock.Lock()
	defer table.lock.Unlock()

	if existingID, found := table.strToID[name]; found {
		return existingID
	}

	symbolID = len(table.idToStr)
	table.idToStr = append(table.idToStr, name)
	table.strToID[name] = symbolID

	return symbolID
}

// Lookup returns the ID for name without interning it.
func (table *SymbolTable) Lookup(name string) (int, bool) {
	table.lock.RLock()
	defer table.lock.RUnlock()

	id, ok := table.strToID[name]

	return id, ok
}

// Resolve returns the name for id, or "" when id is unknown.
func (table *SymbolTable) Resolve(id int) string {
	table.lock.RLock()
	defer table.lock.RUnlock()

	if id < 0 || id >= len(table.idToStr) {
		return ""
	}

	return table.idToStr[id]
}

// Len returns the number of interned names.
func (table *SymbolTable) Len() int {
	table.lock.RLock()
	defer table.lock.RUnlock()

	return len(table.idToStr)
}
