package repository

import (
	"fmt"
	"log"
	"strings"

	"github.com/kendall-kelly/workshop-manager/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// EnsureSchema brings the database up to the current table layout without
// destroying data. Missing tables are created with their foreign keys,
// missing columns are added as nullable columns, and unique business indexes
// are created when absent. It is safe to run on every start against a file
// written by any earlier revision.
//
// Index creation failures are logged and skipped. Every other failure is
// returned as a *SchemaError and must stop the process.
func EnsureSchema(db *gorm.DB) error {
	for _, model := range models.All() {
		if err := ensureTable(db, model); err != nil {
			return err
		}
	}
	return nil
}

func ensureTable(db *gorm.DB, model interface{}) error {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return &SchemaError{Table: fmt.Sprintf("%T", model), Step: "parse model", Err: err}
	}
	table := stmt.Schema.Table
	migrator := db.Migrator()

	if !migrator.HasTable(model) {
		if err := migrator.CreateTable(model); err != nil {
			return &SchemaError{Table: table, Step: "create table", Err: err}
		}
		log.Printf("INFO: created table %s", table)
	} else if err := addMissingColumns(db, stmt.Schema, model); err != nil {
		return err
	}

	ensureUniqueIndexes(db, stmt.Schema, model)
	return nil
}

func addMissingColumns(db *gorm.DB, sch *schema.Schema, model interface{}) error {
	columnTypes, err := db.Migrator().ColumnTypes(model)
	if err != nil {
		return &SchemaError{Table: sch.Table, Step: "read columns", Err: err}
	}
	existing := make(map[string]bool, len(columnTypes))
	for _, ct := range columnTypes {
		existing[strings.ToLower(ct.Name())] = true
	}

	for _, dbName := range sch.DBNames {
		field := sch.FieldsByDBName[dbName]
		if field == nil || field.IgnoreMigration || existing[strings.ToLower(dbName)] {
			continue
		}
		if err := addColumn(db, sch, field); err != nil {
			return &SchemaError{Table: sch.Table, Step: "add column " + dbName, Err: err}
		}
		log.Printf("INFO: added column %s.%s", sch.Table, dbName)
	}
	return nil
}

// addColumn adds field to an existing table. Added columns never carry
// NOT NULL since existing rows have no value for them.
func addColumn(db *gorm.DB, sch *schema.Schema, field *schema.Field) error {
	migrator := db.Migrator()

	if constraint := foreignKeyFor(sch, field); constraint != nil {
		sql := "ALTER TABLE ? ADD COLUMN ? " + db.Dialector.DataTypeOf(field) + " REFERENCES ?(?)"
		if constraint.OnDelete != "" {
			sql += " ON DELETE " + constraint.OnDelete
		}
		return db.Exec(sql,
			clause.Table{Name: sch.Table},
			clause.Column{Name: field.DBName},
			clause.Table{Name: constraint.ReferenceSchema.Table},
			clause.Column{Name: constraint.References[0].DBName},
		).Error
	}

	nullable := *field
	nullable.NotNull = false
	return db.Exec("ALTER TABLE ? ADD COLUMN ? ?",
		clause.Table{Name: sch.Table},
		clause.Column{Name: field.DBName},
		migrator.FullDataTypeOf(&nullable),
	).Error
}

// foreignKeyFor returns the single-column constraint whose foreign key is field
func foreignKeyFor(sch *schema.Schema, field *schema.Field) *schema.Constraint {
	for _, rel := range sch.Relationships.Relations {
		if rel.Field.IgnoreMigration {
			continue
		}
		constraint := rel.ParseConstraint()
		if constraint == nil || constraint.Schema != sch || len(constraint.ForeignKeys) != 1 {
			continue
		}
		if constraint.ForeignKeys[0].DBName == field.DBName {
			return constraint
		}
	}
	return nil
}

func ensureUniqueIndexes(db *gorm.DB, sch *schema.Schema, model interface{}) {
	migrator := db.Migrator()
	for _, idx := range sch.ParseIndexes() {
		if idx.Class != "UNIQUE" || migrator.HasIndex(model, idx.Name) {
			continue
		}
		if err := migrator.CreateIndex(model, idx.Name); err != nil {
			log.Printf("WARNING: could not create unique index %s on %s: %v", idx.Name, sch.Table, err)
			continue
		}
		log.Printf("INFO: created unique index %s on %s", idx.Name, sch.Table)
	}
}

// UniqueIndexNames lists the unique business indexes the schema maintains,
// keyed by table
func UniqueIndexNames(db *gorm.DB) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, model := range models.All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, err
		}
		for _, idx := range stmt.Schema.ParseIndexes() {
			if idx.Class == "UNIQUE" {
				out[stmt.Schema.Table] = append(out[stmt.Schema.Table], idx.Name)
			}
		}
	}
	return out, nil
}
