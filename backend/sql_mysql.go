package backend

import (
	"database/sql"
	"log"

	"github.com/BurntSushi/migration"
	"github.com/go-sql-driver/mysql"

	"github.com/ndlib/fragments/store"
)

// List of migrations to perform. Add new ones to the end.
// DO NOT change the order of items already in this list.
var mysqlMigrations = []migration.Migrator{
	mysqlschema1,
}

var mysqlVersioning = dbVersion{
	GetSQL:    `SELECT max(version) FROM migration_version`,
	SetSQL:    `INSERT INTO migration_version (version, applied) VALUES (?, now())`,
	CreateSQL: `CREATE TABLE migration_version (version INTEGER, applied datetime)`,
}

var mysqlDialect = dialect{
	get: `SELECT id, owner, created, updated, mimetype, size
		FROM fragments
		WHERE owner = ? AND id = ?
		LIMIT 1`,
	list: `SELECT id, owner, created, updated, mimetype, size
		FROM fragments
		WHERE owner = ?
		ORDER BY seq`,
	delete: `DELETE FROM fragments WHERE owner = ? AND id = ?`,
	put:    mysqlPut,
}

// NewMySQL connects to the MySQL database described by the DSN dial,
// upgrading its schema if needed, and keeps payloads in data.
func NewMySQL(dial string, data store.Store) (*SQL, error) {
	// check the dsn before the migration library tries to connect
	if _, err := mysql.ParseDSN(dial); err != nil {
		return nil, err
	}
	db, err := migration.OpenWith(
		"mysql",
		dial,
		mysqlMigrations,
		mysqlVersioning.Get,
		mysqlVersioning.Set)
	if err != nil {
		log.Printf("Open Mysql: %s", err.Error())
		return nil, err
	}
	return &SQL{
		payloads: newPayloads(data),
		db:       db,
		dialect:  mysqlDialect,
	}, nil
}

func mysqlPut(db *sql.DB, r Record) error {
	const stmt = `INSERT INTO fragments (owner, id, created, updated, mimetype, size)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE created = ?, updated = ?, mimetype = ?, size = ?`

	_, err := db.Exec(stmt, r.OwnerID, r.ID, r.Created, r.Updated, r.Type, r.Size,
		r.Created, r.Updated, r.Type, r.Size)
	return err
}

func mysqlschema1(tx migration.LimitedTx) error {
	var s = []string{
		`CREATE TABLE IF NOT EXISTS fragments (
		seq bigint PRIMARY KEY AUTO_INCREMENT,
		owner varchar(255) NOT NULL,
		id varchar(255) NOT NULL,
		created varchar(32),
		updated varchar(32),
		mimetype varchar(255),
		size bigint,
		UNIQUE KEY ownerid (owner, id))`,
	}
	return execlist(tx, s)
}
