package backend

import (
	"database/sql"

	_ "github.com/cznic/ql/driver"
	"github.com/google/uuid"

	"github.com/ndlib/fragments/store"
)

// The QL embedded database is intended for development and for small
// single-process installations.

const qlInit = `
	CREATE TABLE IF NOT EXISTS fragments (
		owner string,
		id string,
		created string,
		updated string,
		mimetype string,
		size int64
	);
	CREATE INDEX IF NOT EXISTS fragmentowner ON fragments (owner);
`

var qlDialect = dialect{
	get: `SELECT id, owner, created, updated, mimetype, size
		FROM fragments
		WHERE owner == ?1 AND id == ?2
		LIMIT 1`,
	list: `SELECT id, owner, created, updated, mimetype, size
		FROM fragments
		WHERE owner == ?1
		ORDER BY id()`,
	delete: `DELETE FROM fragments WHERE owner == ?1 AND id == ?2`,
	put:    qlPut,
}

// NewQL opens a QL database saved in the file filename and keeps payloads
// in data. The filename "memory" keeps the database in memory.
func NewQL(filename string, data store.Store) (*SQL, error) {
	var db *sql.DB
	var err error
	if filename == "memory" {
		// every memory database needs its own name
		db, err = sql.Open("ql-mem", "mem-"+uuid.NewString()+".db")
	} else {
		db, err = sql.Open("ql", filename)
	}
	if err != nil {
		return nil, err
	}
	if _, err = performExec(db, qlInit); err != nil {
		db.Close()
		return nil, err
	}
	return &SQL{
		payloads: newPayloads(data),
		db:       db,
		dialect:  qlDialect,
	}, nil
}

// qlPut updates the record, inserting it if it did not exist. Callers hold
// the key lock, so nobody else can insert the key in between.
func qlPut(db *sql.DB, r Record) error {
	const dbUpdate = `UPDATE fragments
		SET created = ?3, updated = ?4, mimetype = ?5, size = ?6
		WHERE owner == ?1 AND id == ?2`
	const dbInsert = `INSERT INTO fragments VALUES (?1, ?2, ?3, ?4, ?5, ?6)`

	result, err := performExec(db, dbUpdate, r.OwnerID, r.ID, r.Created, r.Updated, r.Type, r.Size)
	if err != nil {
		return err
	}
	nrows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if nrows == 0 {
		_, err = performExec(db, dbInsert, r.OwnerID, r.ID, r.Created, r.Updated, r.Type, r.Size)
	}
	return err
}
