package nestile

import (
	"crypto/sha1"
	"database/sql"
	"fmt"

	"github.com/bodgit/nestile/bank"
	"github.com/bodgit/nestile/ines"
	_ "github.com/mattn/go-sqlite3"
)

// Catalog is a database of scanned cartridge images and their CHR banks.
// Identical banks shared by several images are stored once.
type Catalog struct {
	db *sql.DB
}

// Entry is a cartridge image in the catalog
type Entry struct {
	ID   int64     `json:"id"`
	Name string    `json:"name"`
	CRC  string    `json:"crc"`
	Info ines.Info `json:"info"`
}

// NewCatalog opens the sqlite database in file, creating it and its tables if
// needed
func NewCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	// Scan workers write concurrently, sqlite only copes with one writer
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS chr_bank (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE, data BLOB NOT NULL)"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS rom (id INTEGER PRIMARY KEY NOT NULL, crc TEXT NOT NULL UNIQUE, name TEXT NOT NULL, format INTEGER NOT NULL, mapper INTEGER NOT NULL, submapper INTEGER NOT NULL, mirroring INTEGER NOT NULL, battery INTEGER NOT NULL, trainer INTEGER NOT NULL, prg_size INTEGER NOT NULL, chr_size INTEGER NOT NULL, chr_storage INTEGER NOT NULL, bank_size INTEGER NOT NULL, bank_count INTEGER NOT NULL, trailing_bytes INTEGER NOT NULL)"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS rom_bank (rom_id INTEGER NOT NULL, idx INTEGER NOT NULL, bank_id INTEGER NOT NULL, PRIMARY KEY(rom_id, idx), FOREIGN KEY(rom_id) REFERENCES rom(id), FOREIGN KEY(bank_id) REFERENCES chr_bank(id))"); err != nil {
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the database
func (c *Catalog) Close() error {
	return c.db.Close()
}

func addBank(tx *sql.Tx, data []byte) (int64, error) {
	sha := fmt.Sprintf("%X", sha1.Sum(data))

	if _, err := tx.Exec("INSERT OR IGNORE INTO chr_bank (sha1, data) VALUES (?, ?)", sha, data); err != nil {
		return 0, err
	}

	var id int64
	if err := tx.QueryRow("SELECT id FROM chr_bank WHERE sha1 = ?", sha).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func addROM(tx *sql.Tx, name, crc string, info *ines.Info) (int64, error) {
	if _, err := tx.Exec(`INSERT INTO rom (crc, name, format, mapper, submapper, mirroring, battery, trainer, prg_size, chr_size, chr_storage, bank_size, bank_count, trailing_bytes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(crc) DO UPDATE SET name = excluded.name, format = excluded.format, mapper = excluded.mapper, submapper = excluded.submapper, mirroring = excluded.mirroring, battery = excluded.battery, trainer = excluded.trainer, prg_size = excluded.prg_size, chr_size = excluded.chr_size, chr_storage = excluded.chr_storage, bank_size = excluded.bank_size, bank_count = excluded.bank_count, trailing_bytes = excluded.trailing_bytes`,
		crc, name, int(info.Format), int(info.Mapper), int(info.Submapper), int(info.Mirroring), info.Battery, info.Trainer, info.PRGSize, info.CHRSize, int(info.CHRStorage), info.BankSize, info.BankCount, info.TrailingBytes); err != nil {
		return 0, err
	}

	var id int64
	if err := tx.QueryRow("SELECT id FROM rom WHERE crc = ?", crc).Scan(&id); err != nil {
		return 0, err
	}

	// A rescan with a different bank size replaces the old banks
	if _, err := tx.Exec("DELETE FROM rom_bank WHERE rom_id = ?", id); err != nil {
		return 0, err
	}

	return id, nil
}

// Add records a cartridge image and its banks, replacing any previous entry
// with the same CRC. Either everything is recorded or nothing is.
func (c *Catalog) Add(name, crc string, info *ines.Info, banks []*bank.Bank) (id int64, err error) {
	tx, err := c.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if id, err = addROM(tx, name, crc, info); err != nil {
		return 0, err
	}

	for i, b := range banks {
		bankID, err := addBank(tx, b.Bytes())
		if err != nil {
			return 0, err
		}
		if _, err := tx.Exec("INSERT INTO rom_bank (rom_id, idx, bank_id) VALUES (?, ?, ?)", id, i, bankID); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}

	return id, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

const entryColumns = "id, name, crc, format, mapper, submapper, mirroring, battery, trainer, prg_size, chr_size, chr_storage, bank_size, bank_count, trailing_bytes"

func scanEntry(s scanner) (*Entry, error) {
	var e Entry
	i := &e.Info
	if err := s.Scan(&e.ID, &e.Name, &e.CRC, &i.Format, &i.Mapper, &i.Submapper, &i.Mirroring, &i.Battery, &i.Trainer, &i.PRGSize, &i.CHRSize, &i.CHRStorage, &i.BankSize, &i.BankCount, &i.TrailingBytes); err != nil {
		return nil, err
	}
	return &e, nil
}

// Lookup returns the entry with the given CRC, or nil if there isn't one
func (c *Catalog) Lookup(crc string) (*Entry, error) {
	e, err := scanEntry(c.db.QueryRow("SELECT "+entryColumns+" FROM rom WHERE crc = ?", crc))
	switch err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return e, nil
	default:
		return nil, err
	}
}

// Bank returns bank i of the image with the given CRC, or nil if either
// doesn't exist
func (c *Catalog) Bank(crc string, i int) ([]byte, error) {
	var data []byte
	switch err := c.db.QueryRow("SELECT b.data FROM rom AS r JOIN rom_bank AS rb ON rb.rom_id = r.id JOIN chr_bank AS b ON rb.bank_id = b.id WHERE r.crc = ? AND rb.idx = ?", crc, i).Scan(&data); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return data, nil
	default:
		return nil, err
	}
}

// List returns every entry ordered by name
func (c *Catalog) List() ([]Entry, error) {
	rows, err := c.db.Query("SELECT " + entryColumns + " FROM rom ORDER BY name, crc")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Banks returns the number of distinct banks stored
func (c *Catalog) Banks() (int, error) {
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM chr_bank").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
