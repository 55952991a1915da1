package backend

import (
	"database/sql"

	"github.com/pkg/errors"
)

// SQL is a Backend keeping the metadata records in an SQL database and the
// payloads in a store.Store. Use NewQL or NewMySQL to make one.
type SQL struct {
	KeyLocks
	payloads

	db      *sql.DB
	dialect dialect
}

var _ Backend = &SQL{}

// dialect holds the statements which differ between databases. Every query
// returns the columns id, owner, created, updated, mimetype, size.
type dialect struct {
	get    string // params: owner, id
	list   string // params: owner. Ordered by creation.
	delete string // params: owner, id
	put    func(db *sql.DB, r Record) error
}

// Close closes the database.
func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) PutMetadata(r Record) error {
	err := s.dialect.put(s.db, r)
	return errors.Wrapf(err, "put metadata %s/%s", r.OwnerID, r.ID)
}

func (s *SQL) GetMetadata(owner, id string) (Record, error) {
	r, err := scanRecord(s.db.QueryRow(s.dialect.get, owner, id))
	if err == sql.ErrNoRows {
		return r, ErrNotExist
	}
	return r, errors.Wrapf(err, "get metadata %s/%s", owner, id)
}

func (s *SQL) ListMetadata(owner string) ([]Record, error) {
	rows, err := s.db.Query(s.dialect.list, owner)
	if err != nil {
		return nil, errors.Wrapf(err, "list metadata %s", owner)
	}
	defer rows.Close()
	result := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrapf(err, "list metadata %s", owner)
		}
		result = append(result, r)
	}
	return result, errors.Wrapf(rows.Err(), "list metadata %s", owner)
}

func (s *SQL) DeleteMetadata(owner, id string) error {
	result, err := performExec(s.db, s.dialect.delete, owner, id)
	if err != nil {
		return errors.Wrapf(err, "delete metadata %s/%s", owner, id)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "delete metadata %s/%s", owner, id)
	}
	if n == 0 {
		return ErrNotExist
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.OwnerID, &r.Created, &r.Updated, &r.Type, &r.Size)
	return r, err
}

// performExec runs query inside its own transaction.
func performExec(db *sql.DB, query string, args ...interface{}) (sql.Result, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	result, err := tx.Exec(query, args...)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	err = tx.Commit()
	return result, err
}
