package gen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func composeOne(t *testing.T, src string) *Schema {
	t.Helper()
	s, err := Compose(testSet(t, testPlugin(t, "core", nil, src)))
	require.NoError(t, err)
	return s
}

func composeErr(t *testing.T, src string) error {
	t.Helper()
	_, err := Compose(testSet(t, testPlugin(t, "core", nil, src)))
	require.Error(t, err)
	return err
}

func TestResolveForeignKey(t *testing.T) {
	// Orders references Customers before Customers is declared; the
	// deferred pass must not care.
	s := composeOne(t, `
tables:
  Order:
    columns:
      - name: id
        type: Integer
        primary_key: true
      - name: customer_id
        type: Customer.id
        on_delete: CASCADE
  Customer:
    columns:
      - name: id
        type: Integer
        primary_key: true
`)
	order, _ := s.Table("Order")
	col, ok := order.Column("customer_id")
	require.True(t, ok)
	require.NotNil(t, col.ForeignKey)
	assert.True(t, col.ForeignKey.Resolved())
	assert.Equal(t, "Customer", col.ForeignKey.Target.Name)
	assert.Equal(t, "id", col.ForeignKey.TargetColumn.Name)
	require.NotNil(t, col.Type)
	assert.Equal(t, "Integer", col.Type.Name)
	assert.Equal(t, "Customer.id", col.TypeName)
	assert.Equal(t, []*Column{col}, order.ForeignKeys())
	assert.True(t, order.HasRelations())
}

func TestResolveForeignKeyChain(t *testing.T) {
	s := composeOne(t, `
tables:
  A:
    columns:
      - name: b_ref
        type: B.c_ref
  B:
    columns:
      - name: c_ref
        type: C.id
  C:
    columns:
      - name: id
        type: BigInteger
        primary_key: true
`)
	a, _ := s.Table("A")
	col, _ := a.Column("b_ref")
	require.NotNil(t, col.Type)
	assert.Equal(t, "BigInteger", col.Type.Name, "type propagates through the chain")

	b, _ := s.Table("B")
	mid, _ := b.Column("c_ref")
	assert.True(t, mid.ForeignKey.Resolved())
}

func TestResolveForeignKeyCycle(t *testing.T) {
	err := composeErr(t, `
tables:
  A:
    columns:
      - name: b_id
        type: B.a_id
  B:
    columns:
      - name: a_id
        type: A.b_id
`)
	assert.True(t, errors.Is(err, ErrInvalidForeignReference))
	assert.Contains(t, err.Error(), "circular foreign key chain")
}

func TestResolveUnknownForeignTable(t *testing.T) {
	err := composeErr(t, `
tables:
  Order:
    columns:
      - name: customer_id
        type: Customer.id
`)
	var uf *UnknownForeignTableError
	require.True(t, errors.As(err, &uf))
	assert.Equal(t, "Order", uf.Table)
	assert.Equal(t, "customer_id", uf.Column)
	assert.Equal(t, "Customer", uf.Target)
}

func TestResolveUnknownForeignColumn(t *testing.T) {
	err := composeErr(t, `
tables:
  Order:
    columns:
      - name: customer_id
        type: Customer.uuid
  Customer:
    columns:
      - name: id
        type: Integer
`)
	assert.True(t, errors.Is(err, ErrInvalidForeignReference))
	assert.Contains(t, err.Error(), "no such column on target table")
}

func TestResolveManyToMany(t *testing.T) {
	s := composeOne(t, `
tables:
  Book:
    columns:
      - name: id
        type: Integer
        primary_key: true
  Author:
    columns:
      - name: id
        type: Integer
        primary_key: true
  BookAuthor:
    many_to_many:
      - Book.id
      - Author.id
    columns:
      - name: role
        type: String
`)
	ba, ok := s.Table("BookAuthor")
	require.True(t, ok)
	assert.True(t, ba.JoinTable())
	assert.Equal(t, []string{"book_id", "author_id", "role"}, columnNames(ba))

	bookID, _ := ba.Column("book_id")
	assert.True(t, bookID.PrimaryKey())
	assert.Equal(t, "book", bookID.ManyToManyTag)
	require.NotNil(t, bookID.ForeignKey)
	assert.True(t, bookID.ForeignKey.Resolved())
	assert.Equal(t, "Book", bookID.ForeignKey.Target.Name)
	require.NotNil(t, bookID.Type)
	assert.Equal(t, "Integer", bookID.Type.Name)

	authorID, _ := ba.Column("author_id")
	assert.True(t, authorID.PrimaryKey())
	assert.Equal(t, "Author", authorID.ForeignKey.Target.Name)

	role, _ := ba.Column("role")
	assert.False(t, role.PrimaryKey())
}

func TestResolveForeignKeyIntoJoinColumn(t *testing.T) {
	// Join columns are synthesized before plain foreign keys resolve,
	// so a key may point into a join table.
	s := composeOne(t, `
tables:
  Review:
    columns:
      - name: book_ref
        type: BookAuthor.book_id
  Book:
    columns:
      - name: id
        type: Integer
        primary_key: true
  Author:
    columns:
      - name: id
        type: Integer
        primary_key: true
  BookAuthor:
    many_to_many:
      - Book.id
      - Author.id
`)
	review, _ := s.Table("Review")
	col, _ := review.Column("book_ref")
	require.NotNil(t, col.Type)
	assert.Equal(t, "Integer", col.Type.Name)
	assert.Equal(t, "BookAuthor", col.ForeignKey.Target.Name)
}

func TestResolveManyToManyErrors(t *testing.T) {
	t.Run("unknown target table", func(t *testing.T) {
		err := composeErr(t, `
tables:
  BookAuthor:
    many_to_many:
      - Book.id
      - Author.id
`)
		var m2m *InvalidManyToManyError
		require.True(t, errors.As(err, &m2m))
		assert.Contains(t, err.Error(), "unknown target table")
	})
	t.Run("unknown target column", func(t *testing.T) {
		err := composeErr(t, `
tables:
  Book:
    columns:
      - name: id
        type: Integer
  Author:
    columns:
      - name: id
        type: Integer
  BookAuthor:
    many_to_many:
      - Book.isbn
      - Author.id
`)
		assert.True(t, errors.Is(err, ErrInvalidManyToMany))
		assert.Contains(t, err.Error(), "no such column on target table")
	})
	t.Run("identical join columns", func(t *testing.T) {
		err := composeErr(t, `
tables:
  Person:
    columns:
      - name: id
        type: Integer
  Friendship:
    many_to_many:
      - Person.id
      - Person.id
`)
		assert.True(t, errors.Is(err, ErrInvalidManyToMany))
		assert.Contains(t, err.Error(), "both targets derive the same join column")
	})
	t.Run("distinct tags allow self reference", func(t *testing.T) {
		s := composeOne(t, `
tables:
  Person:
    columns:
      - name: id
        type: Integer
  Friendship:
    many_to_many:
      left:
        table: Person
        column: id
      right:
        table: Person
        column: id
`)
		f, _ := s.Table("Friendship")
		assert.Equal(t, []string{"left_id", "right_id"}, columnNames(f))
	})
	t.Run("join column collides with declared column", func(t *testing.T) {
		err := composeErr(t, `
tables:
  Book:
    columns:
      - name: id
        type: Integer
  Author:
    columns:
      - name: id
        type: Integer
  BookAuthor:
    many_to_many:
      - Book.id
      - Author.id
    columns:
      - name: book_id
        type: Integer
`)
		var dc *DuplicateColumnError
		require.True(t, errors.As(err, &dc))
		assert.Equal(t, "BookAuthor", dc.Table)
		assert.Equal(t, "book_id", dc.Column)
	})
}

func TestResolveMixinForeignKey(t *testing.T) {
	s := composeOne(t, `
types:
  Owned:
    columns:
      - name: owner_id
        type: User.id
tables:
  User:
    columns:
      - name: id
        type: Integer
        primary_key: true
  Document:
    mixins: Owned
    columns:
      - name: title
        type: String
`)
	doc, _ := s.Table("Document")
	col, ok := doc.Column("owner_id")
	require.True(t, ok)
	assert.True(t, col.Embedded)
	require.NotNil(t, col.ForeignKey)
	assert.True(t, col.ForeignKey.Resolved())
	require.NotNil(t, col.Type)
	assert.Equal(t, "Integer", col.Type.Name)

	// The catalog's own copy resolves too, for mixin code generation.
	owned, ok := s.Catalog.Get("Owned")
	require.True(t, ok)
	require.Len(t, owned.Columns, 1)
	assert.True(t, owned.Columns[0].ForeignKey.Resolved())
	require.NotNil(t, owned.Columns[0].Type)
}
