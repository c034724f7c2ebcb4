package connector

import (
	"testing"

	"github.com/dbnavigator/backend/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectFor(t *testing.T) {
	for _, engine := range []constants.Engine{
		constants.EngineMySQL, constants.EngineMariaDB, constants.EnginePostgres, constants.EngineSQLite,
	} {
		d, err := DialectFor(engine)
		require.NoError(t, err)
		assert.Equal(t, engine, d.Name())
	}

	_, err := DialectFor("oracle")
	assert.Error(t, err)
}

func TestMySQLDialect(t *testing.T) {
	d, err := DialectFor(constants.EngineMySQL)
	require.NoError(t, err)

	assert.Equal(t, "`items`", d.QuoteIdentifier("items"))
	assert.Equal(t, "`weird``name`", d.QuoteIdentifier("weird`name"))
	assert.Equal(t, "?", d.Placeholder(1))
	assert.Equal(t, "?", d.Placeholder(7))
	assert.Equal(t, "`appdb`.`items`", d.TableRef("appdb", "items"))
	assert.Equal(t, "`items`", d.TableRef("", "items"))
}

func TestPostgresDialect(t *testing.T) {
	d, err := DialectFor(constants.EnginePostgres)
	require.NoError(t, err)

	assert.Equal(t, `"items"`, d.QuoteIdentifier("items"))
	assert.Equal(t, `"say ""hi"""`, d.QuoteIdentifier(`say "hi"`))
	assert.Equal(t, "$1", d.Placeholder(1))
	assert.Equal(t, "$12", d.Placeholder(12))
	assert.Equal(t, `"public"."items"`, d.TableRef("public", "items"))
}

func TestSQLiteDialect_IgnoresSchemaQualifier(t *testing.T) {
	d, err := DialectFor(constants.EngineSQLite)
	require.NoError(t, err)

	assert.Equal(t, `"items"`, d.TableRef("main", "items"))
	assert.Equal(t, `"items"`, d.TableRef("", "items"))
}
