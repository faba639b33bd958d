package tests

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"

	dbadapter "github.com/AmimerNabil/achieveai/internal/adapter/db"
)

// IntegrationSuiteBase runs against an in-memory SQLite database unless a
// suite embedding it connects DB itself.
type IntegrationSuiteBase struct {
	suite.Suite

	DB      *sqlx.DB
	Dialect string
}

func (s *IntegrationSuiteBase) SetupSuite() {
	db, err := dbadapter.ConnectSQLite(":memory:")
	s.Require().NoError(err)
	s.DB = db
	s.Dialect = dbadapter.DialectSQLite
}

func (s *IntegrationSuiteBase) TearDownSuite() {
	if s.DB != nil {
		s.Require().NoError(s.DB.Close())
	}
}

func (s *IntegrationSuiteBase) ResetDatabase() {
	_, err := s.DB.Exec("DROP TABLE IF EXISTS tasks")
	s.Require().NoError(err)
	s.Require().NoError(dbadapter.Migrate(context.Background(), s.DB, s.Dialect))
}
