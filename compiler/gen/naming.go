package gen

import (
	"strings"

	"github.com/go-openapi/inflect"
)

// structName returns the generated Go struct name for a logical table
// or type name.
func structName(name string) string {
	return inflect.Camelize(name)
}

// mixinStructName returns the generated struct name for a composite
// type, suffixed so it cannot collide with a table struct.
func mixinStructName(name string) string {
	n := inflect.Camelize(name)
	if !strings.HasSuffix(n, "Mixin") {
		n += "Mixin"
	}
	return n
}

// fieldName returns the Go field name for a column.
func fieldName(column string) string {
	return inflect.Camelize(column)
}

// relationName returns the field name for the forward side of a
// foreign key: the column name without its _id suffix. A bare "id"
// column falls back to the target table's name.
func relationName(col *Column) string {
	if col.Name == "id" && col.ForeignKey != nil {
		return inflect.Camelize(col.ForeignKey.Table)
	}
	return inflect.Camelize(strings.TrimSuffix(col.Name, "_id"))
}

// backRelationName returns the field name for the reverse side of a
// foreign key on the target table: the owning table pluralized,
// qualified by the column stem when the stem is not simply the
// target's own name. Two Person references author_id and editor_id on
// Book give Person the fields AuthorBooks and EditorBooks.
func backRelationName(owner *Table, col *Column) string {
	base := inflect.Camelize(inflect.Pluralize(inflect.Underscore(owner.Name)))
	if col.ForeignKey == nil {
		return base
	}
	stem := strings.TrimSuffix(col.Name, "_id")
	target := inflect.Underscore(col.ForeignKey.Table)
	if col.Name == "id" || stem == target || stem == inflect.Singularize(target) {
		return base
	}
	return inflect.Camelize(stem) + base
}
