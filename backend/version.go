package backend

import (
	"log"

	"github.com/BurntSushi/migration"
)

// dbVersion adapts the migration version functions to a particular SQL
// dialect. It is slightly modified from github.com/BurntSushi/migration.
type dbVersion struct {
	// SQL returning the version of the schema as one row and one column
	GetSQL string
	// SQL recording a new version. It takes the version as its parameter.
	SetSQL string
	// SQL creating the version table
	CreateSQL string
}

func (d dbVersion) Get(tx migration.LimitedTx) (int, error) {
	var version int
	err := tx.QueryRow(d.GetSQL).Scan(&version)
	if err != nil {
		// assume an error means there is no version table yet
		log.Println("schema version:", err.Error())
		return 0, nil
	}
	return version, nil
}

func (d dbVersion) Set(tx migration.LimitedTx, version int) error {
	if _, err := tx.Exec(d.SetSQL, version); err == nil {
		return nil
	}
	if _, err := tx.Exec(d.CreateSQL); err != nil {
		return err
	}
	_, err := tx.Exec(d.SetSQL, version)
	return err
}

// execlist runs each statement in turn, stopping at the first error.
func execlist(tx migration.LimitedTx, stmts []string) error {
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
