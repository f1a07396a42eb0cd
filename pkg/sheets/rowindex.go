package sheets

import "sync"

// headerRows is the number of header rows above the data in every tab.
const headerRows = 1

// rowIndex maps record identifiers to their 1-based sheet row per tab, so
// updates and deletes can address rows without re-reading the spreadsheet.
// It is rebuilt on every full read and maintained across appends and
// deletes.
type rowIndex struct {
	mu   sync.RWMutex
	rows map[string]map[int]int // tab -> id -> row number
	last map[string]int         // tab -> last occupied row
}

func newRowIndex() *rowIndex {
	return &rowIndex{
		rows: make(map[string]map[int]int),
		last: make(map[string]int),
	}
}

// reset rebuilds a tab's index from the ids in read order. Data rows start
// immediately below the header. Negative ids mark rows whose identifier
// cell could not be parsed; they still occupy a sheet row but are not
// addressable.
func (ri *rowIndex) reset(table string, ids []int) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	m := make(map[int]int, len(ids))
	for i, id := range ids {
		if id >= 0 {
			m[id] = headerRows + 1 + i
		}
	}
	ri.rows[table] = m
	ri.last[table] = headerRows + len(ids)
}

// row returns the sheet row holding id within table.
func (ri *rowIndex) row(table string, id int) (int, bool) {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	r, ok := ri.rows[table][id]
	return r, ok
}

// appended records that id now occupies the first free row of table.
func (ri *rowIndex) appended(table string, id int) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	m, ok := ri.rows[table]
	if !ok {
		m = make(map[int]int)
		ri.rows[table] = m
	}
	ri.last[table]++
	if ri.last[table] <= headerRows {
		ri.last[table] = headerRows + 1
	}
	m[id] = ri.last[table]
}

// deleted drops id from table's index and shifts every row below it up by
// one, mirroring what a row deletion does to the sheet.
func (ri *rowIndex) deleted(table string, id int) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	m, ok := ri.rows[table]
	if !ok {
		return
	}
	removed, ok := m[id]
	if !ok {
		return
	}
	delete(m, id)
	for other, row := range m {
		if row > removed {
			m[other] = row - 1
		}
	}
	if ri.last[table] > headerRows {
		ri.last[table]--
	}
}
