package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound возвращается, когда запись отсутствует
var ErrNotFound = errors.New("not found")

// pgForeignKeyViolation код ошибки PostgreSQL foreign_key_violation
const pgForeignKeyViolation = "23503"

// Repository содержит все репозитории
type Repository struct {
	Profile *ProfileRepository
	Quota   *QuotaRepository
	Program *ProgramRepository
}

// New создаёт новый экземпляр Repository
func New(db *sql.DB) *Repository {
	return &Repository{
		Profile: NewProfileRepository(db),
		Quota:   NewQuotaRepository(db),
		Program: NewProgramRepository(db),
	}
}

// Open открывает подключение к PostgreSQL и проверяет его
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// pgCode возвращает код ошибки PostgreSQL или пустую строку
func pgCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
